// Package model defines the core record types that flow through the
// enrichment pipeline, from raw file rows to merged output.
package model

// RawTable holds an input file exactly as read: ordered column names and
// row values aligned to those columns. Rows are never mutated after load.
type RawTable struct {
	Columns          []string   `json:"columns"`
	Rows             [][]string `json:"rows"`
	SyntheticHeaders bool       `json:"synthetic_headers"`
}

// Cell returns the value at (row, column name), or "" when the column is
// unknown or the row is ragged short.
func (t *RawTable) Cell(row int, column string) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	for i, c := range t.Columns {
		if c == column {
			if i < len(t.Rows[row]) {
				return t.Rows[row][i]
			}
			return ""
		}
	}
	return ""
}

// StandardizedRow is the semantic-field view of one input row after the
// extraction formula has been applied. OriginalIndex is the stable
// back-pointer into the raw table and survives until the final merge.
type StandardizedRow struct {
	OriginalIndex     int    `json:"original_index"`
	CleanedName       string `json:"cleaned_name"`
	StreetAddress     string `json:"street_address"`
	City              string `json:"city"`
	State             string `json:"state"`
	SearchFormat      string `json:"search_format"`
	HasExistingPhone  bool   `json:"has_existing_phone"`
	ExistingPrimary   string `json:"existing_primary,omitempty"`
	ExistingSecondary string `json:"existing_secondary,omitempty"`
	Eligible          bool   `json:"eligible"`

	// Extra carries passthrough columns that have no semantic mapping.
	Extra map[string]string `json:"extra,omitempty"`
}

// OwnerRecord is the result of one assessor lookup. Owners holds cleaned
// FIRST LAST strings in the order they appeared on the parcel page.
type OwnerRecord struct {
	OriginalIndex int      `json:"original_index"`
	Owners        []string `json:"owners"`
}

// PhoneRecord is the result of one people-search lookup. Only numbers the
// site tags as mobile-class ever land here; landlines are dropped at
// extraction time.
type PhoneRecord struct {
	OriginalIndex   int      `json:"original_index"`
	MatchedAddress  string   `json:"matched_address"`
	MatchConfidence int      `json:"address_match_confidence"`
	PrimaryPhone    string   `json:"primary_phone"`
	SecondaryPhone  string   `json:"secondary_phone,omitempty"`
	AllPhones       []string `json:"all_phones"`
}

// LookupStatus classifies the outcome of one scraper query.
type LookupStatus string

const (
	LookupFound    LookupStatus = "found"
	LookupNotFound LookupStatus = "not_found"
	LookupSkipped  LookupStatus = "skipped"
	LookupError    LookupStatus = "error"
)
