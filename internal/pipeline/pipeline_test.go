package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blake-leads/enrich-cli/internal/model"
	"github.com/blake-leads/enrich-cli/internal/tabular"
	"github.com/blake-leads/enrich-cli/internal/workspace"
)

func TestSplitName(t *testing.T) {
	tests := []struct {
		in          string
		first, last string
	}{
		{"JOHN SMITH", "JOHN", "SMITH"},
		{"MARY ANN JONES", "MARY ANN", "JONES"},
		{"CHER", "", "CHER"},
		{"", "", ""},
	}
	for _, tt := range tests {
		first, last := splitName(tt.in)
		assert.Equal(t, tt.first, first, tt.in)
		assert.Equal(t, tt.last, last, tt.in)
	}
}

func TestCapRows(t *testing.T) {
	rows := []model.StandardizedRow{
		{OriginalIndex: 0, Eligible: true},
		{OriginalIndex: 1, Eligible: false},
		{OriginalIndex: 2, Eligible: true},
		{OriginalIndex: 3, Eligible: true},
	}

	capped := capRows(rows, 2)
	require.Len(t, capped, 3, "ineligible rows pass through the cap")
	assert.Equal(t, 0, capped[0].OriginalIndex)
	assert.Equal(t, 1, capped[1].OriginalIndex)
	assert.Equal(t, 2, capped[2].OriginalIndex)

	assert.Len(t, capRows(rows, 0), 4, "zero means no cap")
	assert.Len(t, capRows(rows, 10), 4)
}

func TestCountStatus(t *testing.T) {
	job := &JobResult{}
	for _, s := range []model.LookupStatus{
		model.LookupFound, model.LookupFound,
		model.LookupNotFound, model.LookupSkipped, model.LookupError,
	} {
		countStatus(job, s)
	}
	assert.Equal(t, 2, job.Found)
	assert.Equal(t, 1, job.NotFound)
	assert.Equal(t, 1, job.Skipped)
	assert.Equal(t, 1, job.Errors)
}

func TestDetectPhoneColumns(t *testing.T) {
	table := &model.RawTable{
		Columns: []string{"Name", "Phone", "Notes", "Alt"},
		Rows: [][]string{
			{"JOHN SMITH", "(954) 555-0001", "call after 5", "9545550002"},
			{"MARY JONES", "(954) 555-0003", "", ""},
			{"BOB GARCIA", "", "moved away", "9545550004"},
		},
	}
	got := detectPhoneColumns(table)
	assert.Equal(t, []string{"Phone", "Alt"}, got)
}

func TestDetectPhoneColumnsNone(t *testing.T) {
	table := &model.RawTable{
		Columns: []string{"Name", "City"},
		Rows:    [][]string{{"JOHN SMITH", "HOLLYWOOD"}},
	}
	assert.Empty(t, detectPhoneColumns(table))
}

func TestRowKeys(t *testing.T) {
	table := &model.RawTable{
		Columns: []string{"a"},
		Rows:    [][]string{{"r0"}, {"r1"}, {"r2"}},
	}
	rows := []model.StandardizedRow{
		{OriginalIndex: 0, CleanedName: "JOHN SMITH", StreetAddress: "1 MAIN ST"},
		{OriginalIndex: 2, CleanedName: "MARY JONES", StreetAddress: "2 OAK AVE"},
	}
	names, addrs := rowKeys(table, rows)
	assert.Equal(t, []string{"JOHN SMITH", "", "MARY JONES"}, names)
	assert.Equal(t, []string{"1 MAIN ST", "", "2 OAK AVE"}, addrs)
}

func TestWriteStaging(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phone_ready_20260101_120000.csv")
	rows := []model.StandardizedRow{
		{
			OriginalIndex: 3,
			CleanedName:   "JOHN SMITH",
			StreetAddress: "1 MAIN ST",
			City:          "HOLLYWOOD",
			State:         "FL",
			SearchFormat:  "1 MAIN ST, HOLLYWOOD",
			Eligible:      true,
		},
	}
	require.NoError(t, writeStaging(path, rows))

	table, err := tabular.Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"original_index", "cleaned_name", "street_address", "city", "state",
		"search_format", "has_existing_phone", "existing_primary",
		"existing_secondary", "eligible",
	}, table.Columns)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "3", table.Rows[0][0])
	assert.Equal(t, "JOHN SMITH", table.Rows[0][1])
	assert.Equal(t, "true", table.Rows[0][9])
}

func TestExtractionFilenameSurvivesSweep(t *testing.T) {
	name := extractionFilename("20260824_120000", "9f2c1d7e-55aa-4b6f-9d2e-0a1b2c3d4e5f")
	assert.Equal(t, "phone_extraction_20260824_120000_9f2c1d7e-55aa-4b6f-9d2e-0a1b2c3d4e5f.csv", name)
	assert.True(t, workspace.IsFinalOutput(name), "sweep must spare extraction snapshots")
}

func TestWriteExtraction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phone_extraction_20260101_120000_u1.csv")
	recs := []model.PhoneRecord{
		{
			OriginalIndex:   5,
			MatchedAddress:  "1 MAIN ST",
			MatchConfidence: 90,
			PrimaryPhone:    "(954) 555-0001",
			SecondaryPhone:  "(954) 555-0002",
			AllPhones:       []string{"(954) 555-0001", "(954) 555-0002"},
		},
	}
	require.NoError(t, writeExtraction(path, recs))

	table, err := tabular.Read(path)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "5", table.Rows[0][0])
	assert.Equal(t, "(954) 555-0001; (954) 555-0002", table.Rows[0][5])
}
