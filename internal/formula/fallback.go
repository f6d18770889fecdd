package formula

import (
	"strings"

	"github.com/blake-leads/enrich-cli/internal/model"
	"github.com/blake-leads/enrich-cli/internal/phones"
)

// HeuristicFormula maps columns by name substrings. It is the deterministic
// fallback when the model call fails or returns garbage.
func HeuristicFormula(columns []string) *model.ExtractionFormula {
	f := &model.ExtractionFormula{
		FormatType:      model.FormatUnknown,
		AddressMethod:   model.AddressParseCombined,
		Confidence:      model.ConfidenceLow,
		ValidationNotes: "heuristic column-name fallback",
	}

	for _, col := range columns {
		lower := strings.ToLower(col)
		switch {
		case f.Columns.HouseNumber == "" && strings.Contains(lower, "house"):
			f.Columns.HouseNumber = col
		case f.Columns.StreetName == "" && strings.Contains(lower, "street"):
			f.Columns.StreetName = col
		case f.Columns.City == "" && strings.Contains(lower, "city"):
			f.Columns.City = col
		case f.Columns.State == "" && strings.Contains(lower, "state"):
			f.Columns.State = col
		case strings.Contains(lower, "phone"):
			f.Columns.ExistingPhones = append(f.Columns.ExistingPhones, col)
		case f.Columns.CombinedAddress == "" && strings.Contains(lower, "address"):
			f.Columns.CombinedAddress = col
		case f.Columns.PrimaryName == "" && !strings.Contains(lower, "street") &&
			(strings.Contains(lower, "name") || strings.Contains(lower, "owner") || strings.Contains(lower, "taxpayer")):
			f.Columns.PrimaryName = col
		}
	}

	if f.Columns.HouseNumber != "" && f.Columns.StreetName != "" {
		f.AddressMethod = model.AddressSeparatedComponents
		f.FormatType = model.FormatSeparatedComponents
	} else if f.Columns.CombinedAddress != "" {
		f.FormatType = model.FormatCombinedAddress
	}

	return f
}

// PostValidate replaces the model's phone-column claims with what the file
// actually holds: declared columns that contain no valid numbers are
// dropped, and the record counts are recomputed from a full scan.
func PostValidate(table *model.RawTable, f *model.ExtractionFormula) {
	var confirmed []string
	for _, col := range f.Columns.ExistingPhones {
		hits := 0
		for i := range table.Rows {
			if phones.IsPhone(table.Cell(i, col)) {
				hits++
			}
		}
		if hits > 0 {
			confirmed = append(confirmed, col)
		}
	}
	f.Columns.ExistingPhones = confirmed

	withPhones, processable := 0, 0
	for _, row := range table.Rows {
		hasPhone, hasValue := false, false
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				hasValue = true
			}
			if !hasPhone && phones.ContainsPhone(cell) {
				hasPhone = true
			}
		}
		if hasPhone {
			withPhones++
		}
		if hasValue {
			processable++
		}
	}
	f.RecordsWithPhones = withPhones
	f.RecordsProcessable = processable
}
