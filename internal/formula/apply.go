package formula

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/blake-leads/enrich-cli/internal/geo"
	"github.com/blake-leads/enrich-cli/internal/model"
	"github.com/blake-leads/enrich-cli/internal/names"
	"github.com/blake-leads/enrich-cli/internal/phones"
)

// missingSentinels are cell values that mean "no value" in exports.
var missingSentinels = map[string]bool{
	"": true, "nan": true, "none": true, "null": true, "n/a": true,
}

// trailingStateZipRe strips ", FL 33301"-style fragments off a combined
// address so only the street part remains.
var trailingStateZipRe = regexp.MustCompile(`[,\s]+[A-Za-z]{2}\.?\s+\d{5}(-\d{4})?\s*$`)

// trailingZipRe strips a bare trailing ZIP.
var trailingZipRe = regexp.MustCompile(`[,\s]+\d{5}(-\d{4})?\s*$`)

// Apply runs the formula over every raw row in input order and emits the
// standardized staging table. OriginalIndex always points at the source
// row; rows that yield neither a usable name nor a usable address are
// dropped from staging but stay untouched in the user's file.
func Apply(table *model.RawTable, f *model.ExtractionFormula) []model.StandardizedRow {
	out := make([]model.StandardizedRow, 0, len(table.Rows))
	dropped := 0

	for i := range table.Rows {
		cell := func(col string) string {
			return coalesce(table.Cell(i, col))
		}

		cleaned := names.Clean(cell(f.Columns.PrimaryName))
		street, city := buildStreet(f, cell)
		if city == "" {
			city = cell(f.Columns.City)
		}

		if cleaned == "" && street == "" {
			dropped++
			continue
		}

		row := model.StandardizedRow{
			OriginalIndex: i,
			CleanedName:   cleaned,
			StreetAddress: street,
			City:          city,
			State:         strings.ToUpper(cell(f.Columns.State)),
			Eligible:      geo.Eligible(city),
		}
		if street != "" {
			row.SearchFormat = street
			if city != "" {
				row.SearchFormat = street + ", " + strings.ToUpper(city)
			}
		}

		// Phones are detected across the whole row, not just the columns
		// the model claimed.
		existing := phones.FirstPhones(table.Rows[i], 2)
		if len(existing) > 0 {
			row.HasExistingPhone = true
			row.ExistingPrimary = existing[0]
			if len(existing) > 1 {
				row.ExistingSecondary = existing[1]
			}
		}

		out = append(out, row)
	}

	zap.L().Info("formula applied",
		zap.Int("raw_rows", len(table.Rows)),
		zap.Int("staged_rows", len(out)),
		zap.Int("dropped_rows", dropped),
	)

	return out
}

// buildStreet assembles the street address per the formula's method. For
// parse_combined it may also recover a city embedded in the combined value.
func buildStreet(f *model.ExtractionFormula, cell func(string) string) (street, city string) {
	if f.AddressMethod == model.AddressSeparatedComponents {
		parts := []string{
			cell(f.Columns.HouseNumber),
			cell(f.Columns.PrefixDirection),
			cell(f.Columns.StreetName),
			cell(f.Columns.StreetType),
			cell(f.Columns.PostDirection),
		}
		if unit := cell(f.Columns.Unit); unit != "" {
			if strings.ContainsAny(unit, " ") {
				parts = append(parts, unit)
			} else {
				parts = append(parts, "#"+unit)
			}
		}
		joined := strings.Join(parts, " ")
		return strings.Join(strings.Fields(joined), " "), ""
	}

	combined := cell(f.Columns.CombinedAddress)
	if combined == "" {
		return "", ""
	}
	combined = trailingStateZipRe.ReplaceAllString(combined, "")
	combined = trailingZipRe.ReplaceAllString(combined, "")
	combined = strings.TrimSpace(combined)

	// "123 MAIN ST, HOLLYWOOD" — the last comma segment is a city when the
	// file has no separate city column.
	if idx := strings.LastIndex(combined, ","); idx > 0 {
		tail := strings.TrimSpace(combined[idx+1:])
		head := strings.TrimSpace(combined[:idx])
		if tail != "" && !strings.ContainsAny(tail, "0123456789") {
			return head, tail
		}
	}
	return combined, ""
}

// coalesce maps missing-value sentinels to the empty string.
func coalesce(v string) string {
	v = strings.TrimSpace(v)
	if missingSentinels[strings.ToLower(v)] {
		return ""
	}
	return v
}
