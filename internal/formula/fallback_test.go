package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blake-leads/enrich-cli/internal/model"
)

func TestHeuristicFormulaSeparated(t *testing.T) {
	f := HeuristicFormula([]string{"Owner Name", "House Number", "Street Name", "City", "State", "Phone 1"})

	assert.Equal(t, model.FormatSeparatedComponents, f.FormatType)
	assert.Equal(t, model.AddressSeparatedComponents, f.AddressMethod)
	assert.Equal(t, model.ConfidenceLow, f.Confidence)
	assert.Equal(t, "Owner Name", f.Columns.PrimaryName)
	assert.Equal(t, "House Number", f.Columns.HouseNumber)
	assert.Equal(t, "Street Name", f.Columns.StreetName)
	assert.Equal(t, "City", f.Columns.City)
	assert.Equal(t, "State", f.Columns.State)
	assert.Equal(t, []string{"Phone 1"}, f.Columns.ExistingPhones)
}

func TestHeuristicFormulaCombined(t *testing.T) {
	f := HeuristicFormula([]string{"Name", "Property Address", "City"})

	assert.Equal(t, model.FormatCombinedAddress, f.FormatType)
	assert.Equal(t, model.AddressParseCombined, f.AddressMethod)
	assert.Equal(t, "Property Address", f.Columns.CombinedAddress)
	assert.Equal(t, "Name", f.Columns.PrimaryName)
}

func TestPostValidate(t *testing.T) {
	table := &model.RawTable{
		Columns: []string{"Name", "Phone A", "Phone B"},
		Rows: [][]string{
			{"JOHN SMITH", "954-555-0001", "not a number"},
			{"MARY JONES", "", "also junk"},
			{"", "", ""},
		},
	}
	f := &model.ExtractionFormula{
		Columns: model.ColumnMap{ExistingPhones: []string{"Phone A", "Phone B"}},
	}

	PostValidate(table, f)

	// Phone B never holds a valid number, so the claim is dropped.
	assert.Equal(t, []string{"Phone A"}, f.Columns.ExistingPhones)
	assert.Equal(t, 1, f.RecordsWithPhones)
	assert.Equal(t, 2, f.RecordsProcessable)
}

func TestPostValidateNoPhoneColumns(t *testing.T) {
	table := &model.RawTable{
		Columns: []string{"Name"},
		Rows:    [][]string{{"JOHN SMITH"}},
	}
	f := &model.ExtractionFormula{}
	PostValidate(table, f)
	require.Empty(t, f.Columns.ExistingPhones)
	assert.Equal(t, 0, f.RecordsWithPhones)
	assert.Equal(t, 1, f.RecordsProcessable)
}
