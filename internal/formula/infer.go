// Package formula turns one uploaded file into a reusable extraction
// formula (AI-assisted with a deterministic fallback) and applies it row by
// row to produce the standardized staging table.
package formula

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/blake-leads/enrich-cli/internal/model"
	"github.com/blake-leads/enrich-cli/pkg/anthropic"
)

// Inferrer produces an extraction formula for a file. Implementations must
// be safe to substitute in tests.
type Inferrer interface {
	Infer(ctx context.Context, columns []string, sample [][]string, total int) (*model.ExtractionFormula, error)
}

// sampleRows is how many non-empty rows are serialized into the prompt.
const sampleRows = 3

const inferSystem = `You classify tabular real-estate lead files. You reply with a single JSON object and nothing else.`

const inferPromptTemplate = `Analyze the columns of a property lead file and map them to semantic fields.

Columns: %s

First rows (JSON):
%s

Total records: %d

Return a JSON object with exactly this shape:
{
  "format_type": "separated_components" | "combined_address" | "positional" | "mixed" | "unknown",
  "columns_detected": {
    "primary_name": "<column or omit>",
    "house_number": "<column or omit>",
    "prefix_direction": "<column or omit>",
    "street_name": "<column or omit>",
    "street_type": "<column or omit>",
    "post_direction": "<column or omit>",
    "unit": "<column or omit>",
    "combined_address": "<column or omit>",
    "city": "<column or omit>",
    "state": "<column or omit>",
    "zip": "<column or omit>",
    "existing_phones": ["<columns holding phone numbers>"]
  },
  "address_method": "separated_components" | "parse_combined",
  "confidence": "high" | "medium" | "low",
  "validation_notes": "<one sentence>"
}

Rules:
- Map a column at most once.
- "address_method" is "separated_components" only when house number and street name live in separate columns.
- Owner or taxpayer name columns map to "primary_name".
- List every column whose values are phone numbers in "existing_phones".`

// AnthropicInferrer asks the model once per file.
type AnthropicInferrer struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicInferrer builds the production inferrer.
func NewAnthropicInferrer(client anthropic.Client, modelID string, maxTokens int64) *AnthropicInferrer {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &AnthropicInferrer{client: client, model: modelID, maxTokens: maxTokens}
}

// Infer implements Inferrer.
func (a *AnthropicInferrer) Infer(ctx context.Context, columns []string, sample [][]string, total int) (*model.ExtractionFormula, error) {
	sampleJSON, err := json.MarshalIndent(sampleObjects(columns, sample), "", "  ")
	if err != nil {
		return nil, eris.Wrap(err, "formula: marshal sample")
	}

	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    inferSystem,
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: fmt.Sprintf(inferPromptTemplate, strings.Join(columns, ", "), sampleJSON, total),
		}},
	})
	if err != nil {
		return nil, err
	}
	resp.Usage.Log(a.model, "format_inference")

	f, err := parseFormulaJSON(resp.Text)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// sampleObjects pairs column names with cell values for the prompt.
func sampleObjects(columns []string, sample [][]string) []map[string]string {
	out := make([]map[string]string, 0, len(sample))
	for _, row := range sample {
		obj := make(map[string]string, len(columns))
		for i, c := range columns {
			if i < len(row) {
				obj[c] = row[i]
			}
		}
		out = append(out, obj)
	}
	return out
}

// parseFormulaJSON extracts the formula object from a model reply,
// tolerating code fences and prose around the JSON.
func parseFormulaJSON(text string) (*model.ExtractionFormula, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, eris.New("formula: no JSON object in model reply")
	}

	var f model.ExtractionFormula
	if err := json.Unmarshal([]byte(text[start:end+1]), &f); err != nil {
		return nil, eris.Wrap(err, "formula: parse model reply")
	}
	if f.FormatType == "" {
		f.FormatType = model.FormatUnknown
	}
	if f.AddressMethod == "" {
		f.AddressMethod = model.AddressParseCombined
	}
	if f.Confidence == "" {
		f.Confidence = model.ConfidenceMedium
	}
	return &f, nil
}

// Infer produces the formula for a table. The remote call never blocks the
// pipeline: any failure falls back to the name-match heuristic at low
// confidence. The result is post-validated against the full table and is
// read-only afterwards.
func Infer(ctx context.Context, inf Inferrer, table *model.RawTable) *model.ExtractionFormula {
	sample := nonEmptySample(table, sampleRows)

	var f *model.ExtractionFormula
	if inf != nil {
		inferred, err := inf.Infer(ctx, table.Columns, sample, len(table.Rows))
		if err == nil {
			f = inferred
		} else {
			zap.L().Warn("format inference failed, using heuristic fallback", zap.Error(err))
		}
	}
	if f == nil {
		f = HeuristicFormula(table.Columns)
		f.Confidence = model.ConfidenceLow
	}

	PostValidate(table, f)
	return f
}

// nonEmptySample returns the first n rows that contain any value.
func nonEmptySample(table *model.RawTable, n int) [][]string {
	var out [][]string
	for _, row := range table.Rows {
		empty := true
		for _, v := range row {
			if strings.TrimSpace(v) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}
		out = append(out, row)
		if len(out) == n {
			break
		}
	}
	return out
}
