package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blake-leads/enrich-cli/internal/model"
)

func TestApplySeparatedComponents(t *testing.T) {
	table := &model.RawTable{
		Columns: []string{"Name", "House", "Dir", "Street", "Type", "Unit", "City", "State"},
		Rows: [][]string{
			{"SMITH, JOHN", "5920", "SW", "33RD", "AVE", "", "HOLLYWOOD", "FL"},
			{"JONES, MARY", "100", "", "OCEAN", "BLVD", "4B", "MIAMI", "fl"},
		},
	}
	f := &model.ExtractionFormula{
		AddressMethod: model.AddressSeparatedComponents,
		Columns: model.ColumnMap{
			PrimaryName:     "Name",
			HouseNumber:     "House",
			PrefixDirection: "Dir",
			StreetName:      "Street",
			StreetType:      "Type",
			Unit:            "Unit",
			City:            "City",
			State:           "State",
		},
	}

	rows := Apply(table, f)
	require.Len(t, rows, 2)

	assert.Equal(t, 0, rows[0].OriginalIndex)
	assert.Equal(t, "JOHN SMITH", rows[0].CleanedName)
	assert.Equal(t, "5920 SW 33RD AVE", rows[0].StreetAddress)
	assert.Equal(t, "5920 SW 33RD AVE, HOLLYWOOD", rows[0].SearchFormat)
	assert.Equal(t, "FL", rows[0].State)
	assert.True(t, rows[0].Eligible)

	assert.Equal(t, 1, rows[1].OriginalIndex)
	assert.Equal(t, "100 OCEAN BLVD #4B", rows[1].StreetAddress)
	assert.Equal(t, "FL", rows[1].State)
	assert.False(t, rows[1].Eligible, "MIAMI is outside the jurisdiction")
}

func TestApplyParseCombined(t *testing.T) {
	table := &model.RawTable{
		Columns: []string{"Owner", "Address"},
		Rows: [][]string{
			{"SMITH, JOHN", "123 MAIN ST, HOLLYWOOD, FL 33312"},
			{"JONES, MARY", "456 OAK AVE, DAVIE"},
			{"nan", "nan"},
		},
	}
	f := &model.ExtractionFormula{
		AddressMethod: model.AddressParseCombined,
		Columns: model.ColumnMap{
			PrimaryName:     "Owner",
			CombinedAddress: "Address",
		},
	}

	rows := Apply(table, f)
	require.Len(t, rows, 2, "sentinel-only row is dropped from staging")

	assert.Equal(t, "123 MAIN ST", rows[0].StreetAddress)
	assert.Equal(t, "HOLLYWOOD", rows[0].City)
	assert.Equal(t, "123 MAIN ST, HOLLYWOOD", rows[0].SearchFormat)
	assert.True(t, rows[0].Eligible)

	assert.Equal(t, "456 OAK AVE", rows[1].StreetAddress)
	assert.Equal(t, "DAVIE", rows[1].City)
}

func TestApplySearchFormatWithoutCity(t *testing.T) {
	table := &model.RawTable{
		Columns: []string{"Owner", "Address"},
		Rows: [][]string{
			{"SMITH, JOHN", "123 MAIN ST"},
		},
	}
	f := &model.ExtractionFormula{
		AddressMethod: model.AddressParseCombined,
		Columns:       model.ColumnMap{PrimaryName: "Owner", CombinedAddress: "Address"},
	}

	rows := Apply(table, f)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0].City)
	assert.Equal(t, "123 MAIN ST", rows[0].SearchFormat, "no dangling separator without a city")
}

func TestApplyOriginalIndexStable(t *testing.T) {
	table := &model.RawTable{
		Columns: []string{"Owner", "Address"},
		Rows: [][]string{
			{"SMITH, JOHN", "1 MAIN ST, DAVIE"},
			{"", ""},
			{"JONES, MARY", "2 OAK AVE, DAVIE"},
		},
	}
	f := &model.ExtractionFormula{
		AddressMethod: model.AddressParseCombined,
		Columns:       model.ColumnMap{PrimaryName: "Owner", CombinedAddress: "Address"},
	}

	rows := Apply(table, f)
	require.Len(t, rows, 2)
	assert.Equal(t, 0, rows[0].OriginalIndex)
	assert.Equal(t, 2, rows[1].OriginalIndex, "index points at the raw row even after drops")
}

func TestApplyDetectsPhonesAcrossRow(t *testing.T) {
	table := &model.RawTable{
		Columns: []string{"Owner", "Address", "Notes"},
		Rows: [][]string{
			{"SMITH, JOHN", "1 MAIN ST, DAVIE", "cell 954-555-0001 alt 954-555-0002"},
			{"JONES, MARY", "2 OAK AVE, DAVIE", "no phone here"},
		},
	}
	f := &model.ExtractionFormula{
		AddressMethod: model.AddressParseCombined,
		Columns:       model.ColumnMap{PrimaryName: "Owner", CombinedAddress: "Address"},
	}

	rows := Apply(table, f)
	require.Len(t, rows, 2)

	assert.True(t, rows[0].HasExistingPhone)
	assert.Equal(t, "(954) 555-0001", rows[0].ExistingPrimary)
	assert.Equal(t, "(954) 555-0002", rows[0].ExistingSecondary)
	assert.False(t, rows[1].HasExistingPhone)
}
