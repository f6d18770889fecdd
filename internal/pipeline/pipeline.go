// Package pipeline runs enrichment jobs end to end: read the upload, infer
// and apply the extraction formula, drive the scrapers, validate phones,
// and merge everything back into the user's file.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/blake-leads/enrich-cli/internal/assessor"
	"github.com/blake-leads/enrich-cli/internal/browser"
	"github.com/blake-leads/enrich-cli/internal/config"
	"github.com/blake-leads/enrich-cli/internal/formula"
	"github.com/blake-leads/enrich-cli/internal/merge"
	"github.com/blake-leads/enrich-cli/internal/model"
	"github.com/blake-leads/enrich-cli/internal/peoplesearch"
	"github.com/blake-leads/enrich-cli/internal/phones"
	"github.com/blake-leads/enrich-cli/internal/tabular"
	"github.com/blake-leads/enrich-cli/internal/workspace"
)

// Phone columns the merge writes and the validator explodes.
const (
	primaryPhoneColumn   = "Primary_Phone"
	secondaryPhoneColumn = "Secondary_Phone"
	ownerNameColumn      = "Owner_Name"
	lookupStatusColumn   = "Lookup_Status"
)

// Pipeline wires the job stages together. One instance serves all users;
// per-job state lives on the stack.
type Pipeline struct {
	cfg        *config.Config
	ws         *workspace.Manager
	inferrer   formula.Inferrer
	factory    *browser.Factory
	classifier phones.Classifier
	merger     *merge.Engine
}

// New builds a pipeline. classifier may be nil when no remote classifier
// is configured; the heuristic fallback then applies.
func New(cfg *config.Config, ws *workspace.Manager, inferrer formula.Inferrer, factory *browser.Factory, classifier phones.Classifier) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		ws:         ws,
		inferrer:   inferrer,
		factory:    factory,
		classifier: classifier,
		merger:     merge.NewEngine(cfg.Merge),
	}
}

// UploadResult describes an analyzed upload before any scraping.
type UploadResult struct {
	OriginalPath string                   `json:"original_path"`
	StagingPath  string                   `json:"staging_path"`
	Formula      *model.ExtractionFormula `json:"formula"`
	TotalRows    int                      `json:"total_rows"`
	StagedRows   int                      `json:"staged_rows"`
	EligibleRows int                      `json:"eligible_rows"`
}

// JobResult describes a finished scrape-and-merge job.
type JobResult struct {
	OutputPath string `json:"output_path"`
	OutputName string `json:"output_name"`
	Found      int    `json:"found"`
	NotFound   int    `json:"not_found"`
	Skipped    int    `json:"skipped"`
	Errors     int    `json:"errors"`
}

// AnalyzeUpload reads the uploaded file, infers its extraction formula,
// and writes the standardized staging file. No scraping happens here.
func (p *Pipeline) AnalyzeUpload(ctx context.Context, uid, uploadPath string) (*UploadResult, error) {
	table, f, rows, err := p.standardize(ctx, uploadPath)
	if err != nil {
		return nil, err
	}

	tempDir, err := p.ws.TempDir(uid)
	if err != nil {
		return nil, err
	}
	stagingPath := filepath.Join(tempDir, fmt.Sprintf("phone_ready_%s.csv", stamp()))
	if err := writeStaging(stagingPath, rows); err != nil {
		return nil, err
	}

	eligible := 0
	for _, r := range rows {
		if r.Eligible {
			eligible++
		}
	}

	zap.L().Info("upload analyzed",
		zap.String("file", filepath.Base(uploadPath)),
		zap.String("format", string(f.FormatType)),
		zap.String("confidence", string(f.Confidence)),
		zap.Int("total_rows", len(table.Rows)),
		zap.Int("staged_rows", len(rows)),
		zap.Int("eligible_rows", eligible),
	)

	return &UploadResult{
		OriginalPath: uploadPath,
		StagingPath:  stagingPath,
		Formula:      f,
		TotalRows:    len(table.Rows),
		StagedRows:   len(rows),
		EligibleRows: eligible,
	}, nil
}

// RunOwnerJob looks up legal owners for at most maxRecords eligible rows
// and writes "<name>_with_bcpa_owners.csv" to the user's results dir.
func (p *Pipeline) RunOwnerJob(ctx context.Context, uid, uploadPath string, maxRecords int) (*JobResult, error) {
	table, f, rows, err := p.standardize(ctx, uploadPath)
	if err != nil {
		return nil, err
	}

	queries := capRows(rows, maxRecords)
	scraper := assessor.NewScraper(p.factory, p.cfg.Scrape)
	results, err := scraper.Run(ctx, queries, p.cfg.Browser.QueriesPerContext)
	if err != nil {
		return nil, err
	}

	job := &JobResult{}
	var records []merge.Record
	for _, res := range results {
		countStatus(job, res.Status)
		rec := merge.Record{
			OriginalIndex: res.Record.OriginalIndex,
			Updates:       map[string]string{lookupStatusColumn: string(res.Status)},
		}
		if len(res.Record.Owners) > 0 {
			rec.Updates[ownerNameColumn] = res.Record.Owners[0]
			for _, owner := range res.Record.Owners[1:] {
				rec.ExtraRows = append(rec.ExtraRows, map[string]string{ownerNameColumn: owner})
			}
		}
		records = append(records, rec)
	}

	names, addrs := rowKeys(table, rows)
	merged := p.merger.Merge(table, records, names, addrs, p.protectedColumns(f))

	resultsDir, err := p.ws.ResultsDir(uid)
	if err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(filepath.Base(uploadPath), filepath.Ext(uploadPath))
	job.OutputName = fmt.Sprintf("%s_with_bcpa_owners.csv", base)
	job.OutputPath = filepath.Join(resultsDir, job.OutputName)
	if err := tabular.WriteCSV(job.OutputPath, merged.Columns, merged.Rows); err != nil {
		return nil, err
	}

	zap.L().Info("owner job complete",
		zap.String("output", job.OutputName),
		zap.Int("found", job.Found),
		zap.Int("not_found", job.NotFound),
		zap.Int("skipped", job.Skipped),
		zap.Int("errors", job.Errors),
	)
	return job, nil
}

// RunPhoneJob looks up mobile phones for at most maxRecords eligible rows
// that lack existing phones, validates the numbers, and writes the
// extraction, cleaned, and merged outputs.
func (p *Pipeline) RunPhoneJob(ctx context.Context, uid, uploadPath string, maxRecords int) (*JobResult, error) {
	table, f, rows, err := p.standardize(ctx, uploadPath)
	if err != nil {
		return nil, err
	}

	var candidates []model.StandardizedRow
	for _, r := range rows {
		if r.Eligible && !r.HasExistingPhone && r.CleanedName != "" {
			candidates = append(candidates, r)
		}
	}
	candidates = capRows(candidates, maxRecords)

	queries := make([]peoplesearch.Query, 0, len(candidates))
	for _, r := range candidates {
		first, last := splitName(r.CleanedName)
		queries = append(queries, peoplesearch.Query{
			OriginalIndex: r.OriginalIndex,
			FirstName:     first,
			LastName:      last,
			City:          r.City,
			State:         r.State,
			SearchFormat:  r.SearchFormat,
		})
	}

	scraper := peoplesearch.NewScraper(p.factory, p.cfg.Scrape)
	results, err := scraper.Run(ctx, queries, p.cfg.Browser.QueriesPerContext)
	if err != nil {
		return nil, err
	}

	job := &JobResult{}
	var phoneRecs []model.PhoneRecord
	var records []merge.Record
	for _, res := range results {
		countStatus(job, res.Status)
		if res.Status != model.LookupFound {
			continue
		}
		phoneRecs = append(phoneRecs, res.Record)
		rec := merge.Record{
			OriginalIndex: res.Record.OriginalIndex,
			Updates: map[string]string{
				primaryPhoneColumn: res.Record.PrimaryPhone,
				p.cfg.Merge.ScratchColumnPrefix + "matched_address": res.Record.MatchedAddress,
				p.cfg.Merge.ScratchColumnPrefix + "confidence":      strconv.Itoa(res.Record.MatchConfidence),
			},
		}
		if res.Record.SecondaryPhone != "" {
			rec.Updates[secondaryPhoneColumn] = res.Record.SecondaryPhone
		}
		records = append(records, rec)
	}

	// Rows that already carried phones keep them through the same columns.
	for _, r := range rows {
		if !r.HasExistingPhone {
			continue
		}
		updates := map[string]string{primaryPhoneColumn: r.ExistingPrimary}
		if r.ExistingSecondary != "" {
			updates[secondaryPhoneColumn] = r.ExistingSecondary
		}
		records = append(records, merge.Record{OriginalIndex: r.OriginalIndex, Updates: updates})
	}

	tempDir, err := p.ws.TempDir(uid)
	if err != nil {
		return nil, err
	}
	extractionPath := filepath.Join(tempDir, extractionFilename(stamp(), uid))
	if err := writeExtraction(extractionPath, phoneRecs); err != nil {
		return nil, err
	}

	protected := append(p.protectedColumns(f), primaryPhoneColumn, secondaryPhoneColumn)
	names, addrs := rowKeys(table, rows)
	merged := p.merger.Merge(table, records, names, addrs, protected)

	resultsDir, err := p.ws.ResultsDir(uid)
	if err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(filepath.Base(uploadPath), filepath.Ext(uploadPath))

	mergedName := merge.MergedFilename(uploadPath)
	mergedPath := filepath.Join(resultsDir, mergedName)
	if err := tabular.WriteCSV(mergedPath, merged.Columns, merged.Rows); err != nil {
		return nil, err
	}

	phoneCols := append([]string{primaryPhoneColumn, secondaryPhoneColumn}, f.Columns.ExistingPhones...)
	cleanCols, cleanRows := phones.ExplodeMobile(ctx, p.classifier, merged.Columns, merged.Rows, phoneCols)
	cleanedPath := filepath.Join(resultsDir, fmt.Sprintf("Cleaned_%s.csv", base))
	if err := tabular.WriteCSV(cleanedPath, cleanCols, cleanRows); err != nil {
		return nil, err
	}

	job.OutputName = mergedName
	job.OutputPath = mergedPath

	zap.L().Info("phone job complete",
		zap.String("output", job.OutputName),
		zap.Int("found", job.Found),
		zap.Int("not_found", job.NotFound),
		zap.Int("skipped", job.Skipped),
		zap.Int("errors", job.Errors),
	)
	return job, nil
}

// ValidateFile applies the mobile-only filter to a file that already has
// phone columns, producing "Cleaned_<basename>.csv".
func (p *Pipeline) ValidateFile(ctx context.Context, uid, path string) (*JobResult, error) {
	table, err := tabular.Read(path)
	if err != nil {
		return nil, err
	}

	phoneCols := detectPhoneColumns(table)
	if len(phoneCols) == 0 {
		return nil, eris.New("pipeline: no phone columns detected")
	}

	cols, rows := phones.ExplodeMobile(ctx, p.classifier, table.Columns, table.Rows, phoneCols)

	resultsDir, err := p.ws.ResultsDir(uid)
	if err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name := fmt.Sprintf("Cleaned_%s.csv", base)
	out := filepath.Join(resultsDir, name)
	if err := tabular.WriteCSV(out, cols, rows); err != nil {
		return nil, err
	}

	zap.L().Info("validation complete",
		zap.String("output", name),
		zap.Int("rows_in", len(table.Rows)),
		zap.Int("rows_out", len(rows)),
	)
	return &JobResult{OutputPath: out, OutputName: name, Found: len(rows)}, nil
}

// standardize reads a file and produces its standardized row view.
func (p *Pipeline) standardize(ctx context.Context, path string) (*model.RawTable, *model.ExtractionFormula, []model.StandardizedRow, error) {
	table, err := tabular.Read(path)
	if err != nil {
		return nil, nil, nil, eris.Wrapf(err, "pipeline: read %s", filepath.Base(path))
	}
	f := formula.Infer(ctx, p.inferrer, table)
	rows := formula.Apply(table, f)
	return table, f, rows, nil
}

func (p *Pipeline) protectedColumns(f *model.ExtractionFormula) []string {
	return append([]string(nil), f.Columns.ExistingPhones...)
}

// rowKeys extracts per-row name and address strings for the merge
// fallback strategies, aligned with the raw table's rows.
func rowKeys(table *model.RawTable, rows []model.StandardizedRow) ([]string, []string) {
	names := make([]string, len(table.Rows))
	addrs := make([]string, len(table.Rows))
	for _, r := range rows {
		if r.OriginalIndex < 0 || r.OriginalIndex >= len(table.Rows) {
			continue
		}
		names[r.OriginalIndex] = r.CleanedName
		addrs[r.OriginalIndex] = r.StreetAddress
	}
	return names, addrs
}

func capRows(rows []model.StandardizedRow, max int) []model.StandardizedRow {
	if max <= 0 || len(rows) <= max {
		return rows
	}
	kept := make([]model.StandardizedRow, 0, max)
	for _, r := range rows {
		if !r.Eligible {
			kept = append(kept, r)
			continue
		}
		eligible := 0
		for _, k := range kept {
			if k.Eligible {
				eligible++
			}
		}
		if eligible < max {
			kept = append(kept, r)
		}
	}
	return kept
}

func countStatus(job *JobResult, status model.LookupStatus) {
	switch status {
	case model.LookupFound:
		job.Found++
	case model.LookupNotFound:
		job.NotFound++
	case model.LookupSkipped:
		job.Skipped++
	case model.LookupError:
		job.Errors++
	}
}

// splitName breaks a cleaned "FIRST LAST" name into its parts. Middle
// tokens fold into the first name so the site search stays broad.
func splitName(cleaned string) (first, last string) {
	parts := strings.Fields(cleaned)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return "", parts[0]
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}

func stamp() string {
	return time.Now().Format("20060102_150405")
}

// extractionFilename names the phone-extraction snapshot. The trailing uid
// lets the post-download cleanup find the user's batch files; the workspace
// sweep recognizes the whole shape as a preserved output.
func extractionFilename(ts, uid string) string {
	return fmt.Sprintf("phone_extraction_%s_%s.csv", ts, uid)
}

// detectPhoneColumns finds columns where most non-empty cells hold phone
// numbers.
func detectPhoneColumns(table *model.RawTable) []string {
	var out []string
	for i, col := range table.Columns {
		nonEmpty, hits := 0, 0
		for _, row := range table.Rows {
			if i >= len(row) || strings.TrimSpace(row[i]) == "" {
				continue
			}
			nonEmpty++
			if phones.ContainsPhone(row[i]) {
				hits++
			}
		}
		if nonEmpty > 0 && hits*2 >= nonEmpty {
			out = append(out, col)
		}
	}
	return out
}

// writeStaging writes the standardized staging file.
func writeStaging(path string, rows []model.StandardizedRow) error {
	columns := []string{
		"original_index", "cleaned_name", "street_address", "city", "state",
		"search_format", "has_existing_phone", "existing_primary",
		"existing_secondary", "eligible",
	}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			strconv.Itoa(r.OriginalIndex),
			r.CleanedName,
			r.StreetAddress,
			r.City,
			r.State,
			r.SearchFormat,
			strconv.FormatBool(r.HasExistingPhone),
			r.ExistingPrimary,
			r.ExistingSecondary,
			strconv.FormatBool(r.Eligible),
		})
	}
	return tabular.WriteCSV(path, columns, out)
}

// writeExtraction writes the raw phone-search records.
func writeExtraction(path string, recs []model.PhoneRecord) error {
	columns := []string{
		"original_index", "matched_address", "address_match_confidence",
		"primary_phone", "secondary_phone", "all_phones",
	}
	out := make([][]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, []string{
			strconv.Itoa(r.OriginalIndex),
			r.MatchedAddress,
			strconv.Itoa(r.MatchConfidence),
			r.PrimaryPhone,
			r.SecondaryPhone,
			strings.Join(r.AllPhones, "; "),
		})
	}
	return tabular.WriteCSV(path, columns, out)
}
