package model

// FormatType classifies how an input file encodes addresses.
type FormatType string

const (
	FormatSeparatedComponents FormatType = "separated_components"
	FormatCombinedAddress     FormatType = "combined_address"
	FormatPositional          FormatType = "positional"
	FormatMixed               FormatType = "mixed"
	FormatUnknown             FormatType = "unknown"
)

// AddressMethod selects how the applier assembles a street address.
type AddressMethod string

const (
	AddressSeparatedComponents AddressMethod = "separated_components"
	AddressParseCombined       AddressMethod = "parse_combined"
)

// Confidence grades how much the inference output can be trusted.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ColumnMap maps semantic fields to source column names. Empty string means
// the field was not detected in the file.
type ColumnMap struct {
	PrimaryName     string   `json:"primary_name,omitempty"`
	HouseNumber     string   `json:"house_number,omitempty"`
	PrefixDirection string   `json:"prefix_direction,omitempty"`
	StreetName      string   `json:"street_name,omitempty"`
	StreetType      string   `json:"street_type,omitempty"`
	PostDirection   string   `json:"post_direction,omitempty"`
	Unit            string   `json:"unit,omitempty"`
	CombinedAddress string   `json:"combined_address,omitempty"`
	City            string   `json:"city,omitempty"`
	State           string   `json:"state,omitempty"`
	Zip             string   `json:"zip,omitempty"`
	ExistingPhones  []string `json:"existing_phones,omitempty"`
}

// ExtractionFormula is the reusable output of format inference for one
// input file. It is immutable once produced; the applier reads it for every
// row of the job.
type ExtractionFormula struct {
	FormatType      FormatType    `json:"format_type"`
	Columns         ColumnMap     `json:"columns_detected"`
	AddressMethod   AddressMethod `json:"address_method"`
	Confidence      Confidence    `json:"confidence"`
	ValidationNotes string        `json:"validation_notes,omitempty"`

	// Empirical counts filled by the phone-column post-validation scan.
	RecordsWithPhones  int `json:"records_with_phones"`
	RecordsProcessable int `json:"records_processable"`
}
