package formula

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blake-leads/enrich-cli/internal/model"
	"github.com/blake-leads/enrich-cli/pkg/anthropic"
)

// stubInferrer returns a fixed formula or error.
type stubInferrer struct {
	formula *model.ExtractionFormula
	err     error
}

func (s stubInferrer) Infer(context.Context, []string, [][]string, int) (*model.ExtractionFormula, error) {
	return s.formula, s.err
}

// stubClient plays the model for AnthropicInferrer.
type stubClient struct {
	reply string
	err   error
	req   anthropic.MessageRequest
}

func (s *stubClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	return &anthropic.MessageResponse{Text: s.reply}, nil
}

func sampleTable() *model.RawTable {
	return &model.RawTable{
		Columns: []string{"Owner", "Address", "Phone"},
		Rows: [][]string{
			{"SMITH, JOHN", "1 MAIN ST, DAVIE", "954-555-0001"},
			{"JONES, MARY", "2 OAK AVE, DAVIE", ""},
		},
	}
}

func TestInferUsesInferrerResult(t *testing.T) {
	want := &model.ExtractionFormula{
		FormatType:    model.FormatCombinedAddress,
		AddressMethod: model.AddressParseCombined,
		Confidence:    model.ConfidenceHigh,
		Columns: model.ColumnMap{
			PrimaryName:     "Owner",
			CombinedAddress: "Address",
			ExistingPhones:  []string{"Phone"},
		},
	}

	f := Infer(context.Background(), stubInferrer{formula: want}, sampleTable())

	assert.Equal(t, model.ConfidenceHigh, f.Confidence)
	assert.Equal(t, []string{"Phone"}, f.Columns.ExistingPhones)
	assert.Equal(t, 1, f.RecordsWithPhones)
	assert.Equal(t, 2, f.RecordsProcessable)
}

func TestInferFallsBackOnError(t *testing.T) {
	f := Infer(context.Background(), stubInferrer{err: assert.AnError}, sampleTable())

	require.NotNil(t, f)
	assert.Equal(t, model.ConfidenceLow, f.Confidence)
	assert.Equal(t, "Address", f.Columns.CombinedAddress)
	assert.Equal(t, "Owner", f.Columns.PrimaryName)
}

func TestInferFallsBackWithNilInferrer(t *testing.T) {
	f := Infer(context.Background(), nil, sampleTable())
	require.NotNil(t, f)
	assert.Equal(t, model.ConfidenceLow, f.Confidence)
}

func TestInferDropsUnconfirmedPhoneColumns(t *testing.T) {
	claimed := &model.ExtractionFormula{
		Columns: model.ColumnMap{ExistingPhones: []string{"Owner"}},
	}
	f := Infer(context.Background(), stubInferrer{formula: claimed}, sampleTable())
	assert.Empty(t, f.Columns.ExistingPhones, "claimed column holds names, not phones")
}

func TestAnthropicInferrerParsesFencedReply(t *testing.T) {
	client := &stubClient{reply: "```json\n" + `{
  "format_type": "combined_address",
  "columns_detected": {
    "primary_name": "Owner",
    "combined_address": "Address",
    "existing_phones": ["Phone"]
  },
  "address_method": "parse_combined",
  "confidence": "high",
  "validation_notes": "clear mapping"
}` + "\n```"}

	inf := NewAnthropicInferrer(client, "test-model", 1024)
	table := sampleTable()
	f, err := inf.Infer(context.Background(), table.Columns, table.Rows, len(table.Rows))
	require.NoError(t, err)

	assert.Equal(t, model.FormatCombinedAddress, f.FormatType)
	assert.Equal(t, "Owner", f.Columns.PrimaryName)
	assert.Equal(t, model.ConfidenceHigh, f.Confidence)
	assert.Equal(t, "test-model", client.req.Model)
	assert.Contains(t, client.req.Messages[0].Content, "Owner, Address, Phone")
}

func TestParseFormulaJSON(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"bare object", `{"format_type":"mixed"}`, false},
		{"prose around object", `Sure! {"format_type":"mixed"} Hope that helps.`, false},
		{"no object", "no json here", true},
		{"malformed", "{not json}", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := parseFormulaJSON(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, model.FormatMixed, f.FormatType)
			// Omitted fields get defaults.
			assert.Equal(t, model.AddressParseCombined, f.AddressMethod)
			assert.Equal(t, model.ConfidenceMedium, f.Confidence)
		})
	}
}
