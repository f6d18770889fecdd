// Package merge reattaches scraped records to the user's original file
// while preserving row order and any phone data already present.
package merge

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/blake-leads/enrich-cli/internal/address"
	"github.com/blake-leads/enrich-cli/internal/config"
	"github.com/blake-leads/enrich-cli/internal/model"
)

// Record is one scraped result to fold back into the original table.
// OriginalIndex below zero means the record lost its index and must be
// matched by name and address.
type Record struct {
	OriginalIndex int
	Name          string
	Address       string
	Updates       map[string]string
	// ExtraRows carries additional owners: each map updates a copy of the
	// matched row, inserted directly after it.
	ExtraRows []map[string]string
}

// Engine merges scraped records into original tables.
type Engine struct {
	cfg config.MergeConfig
}

// NewEngine builds a merge engine.
func NewEngine(cfg config.MergeConfig) *Engine {
	return &Engine{cfg: cfg}
}

// mergedRow decorates a row with its origin so insertion and the final
// re-sort keep the user's order.
type mergedRow struct {
	origIdx int
	sub     int
	cells   []string
}

// Merge applies records to the table. rowNames and rowAddresses align with
// table.Rows and feed the fallback match strategies; protected columns are
// never overwritten when non-empty. Row count only grows, via multi-owner
// copies. The result is re-sorted by original index and stripped of
// scratch columns.
func (e *Engine) Merge(table *model.RawTable, records []Record, rowNames, rowAddresses, protected []string) *model.RawTable {
	colIdx := make(map[string]int, len(table.Columns))
	columns := append([]string(nil), table.Columns...)
	for i, c := range columns {
		colIdx[c] = i
	}
	ensureColumn := func(name string) int {
		if i, ok := colIdx[name]; ok {
			return i
		}
		columns = append(columns, name)
		colIdx[name] = len(columns) - 1
		return len(columns) - 1
	}
	prot := make(map[string]bool, len(protected))
	for _, c := range protected {
		prot[c] = true
	}

	rows := make([]*mergedRow, len(table.Rows))
	for i, r := range table.Rows {
		rows[i] = &mergedRow{origIdx: i, cells: append([]string(nil), r...)}
	}
	byIndex := make(map[int]*mergedRow, len(rows))
	for _, r := range rows {
		byIndex[r.origIdx] = r
	}

	apply := func(row *mergedRow, updates map[string]string) {
		for col, val := range updates {
			i := ensureColumn(col)
			for len(row.cells) < len(columns) {
				row.cells = append(row.cells, "")
			}
			if prot[col] && strings.TrimSpace(row.cells[i]) != "" {
				continue
			}
			row.cells[i] = val
		}
	}

	matched := 0
	var unmatched []Record
	var inserted []*mergedRow

	mergeOne := func(rec Record, row *mergedRow) {
		apply(row, rec.Updates)
		for k, extra := range rec.ExtraRows {
			copyRow := &mergedRow{
				origIdx: row.origIdx,
				sub:     k + 1,
				cells:   append([]string(nil), row.cells...),
			}
			for col, val := range extra {
				i := ensureColumn(col)
				for len(copyRow.cells) < len(columns) {
					copyRow.cells = append(copyRow.cells, "")
				}
				copyRow.cells[i] = val
			}
			inserted = append(inserted, copyRow)
		}
		matched++
	}

	// Strategy 1: stable index. Exclusive when the index is present.
	for _, rec := range records {
		if rec.OriginalIndex >= 0 {
			if row, ok := byIndex[rec.OriginalIndex]; ok {
				mergeOne(rec, row)
			}
			continue
		}
		unmatched = append(unmatched, rec)
	}

	// Strategy 2: name similarity weighted double plus address equality.
	var still []Record
	for _, rec := range unmatched {
		best, bestScore := -1, 0.0
		for i := range rows {
			nameScore := tokenSimilarity(rec.Name, rowNames[i])
			addrScore := 0.0
			if rec.Address != "" && address.Match(rec.Address, rowAddresses[i]).Matched {
				addrScore = 1.0
			}
			score := (nameScore*2 + addrScore) / 3
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		if best >= 0 && bestScore >= 0.6 {
			mergeOne(rec, rows[best])
			continue
		}
		still = append(still, rec)
	}

	// Strategy 3: fuzzy name prefix.
	unmatched, still = still, nil
	for _, rec := range unmatched {
		found := false
		for i := range rows {
			if prefixMatch(rec.Name, rowNames[i], 5) || prefixMatch(rec.Name, rowNames[i], 6) {
				mergeOne(rec, rows[i])
				found = true
				break
			}
		}
		if !found {
			still = append(still, rec)
		}
	}

	// Strategy 4: Jaccard on word sets, only while coverage is poor.
	if len(records) > 0 && float64(matched)/float64(len(records)) < 0.3 {
		for _, rec := range still {
			for i := range rows {
				if jaccard(rec.Name, rowNames[i]) >= 0.7 {
					mergeOne(rec, rows[i])
					break
				}
			}
		}
	}

	all := append(rows, inserted...)
	sort.SliceStable(all, func(a, b int) bool {
		if all[a].origIdx != all[b].origIdx {
			return all[a].origIdx < all[b].origIdx
		}
		return all[a].sub < all[b].sub
	})

	outColumns, keep := e.dropScratch(columns)
	outRows := make([][]string, len(all))
	for i, r := range all {
		for len(r.cells) < len(columns) {
			r.cells = append(r.cells, "")
		}
		row := make([]string, 0, len(outColumns))
		for _, j := range keep {
			row = append(row, r.cells[j])
		}
		outRows[i] = row
	}

	zap.L().Info("merge complete",
		zap.Int("records", len(records)),
		zap.Int("matched", matched),
		zap.Int("rows_in", len(table.Rows)),
		zap.Int("rows_out", len(outRows)),
	)

	return &model.RawTable{Columns: outColumns, Rows: outRows}
}

// dropScratch removes intermediate columns carrying the configured prefix.
func (e *Engine) dropScratch(columns []string) ([]string, []int) {
	prefix := e.cfg.ScratchColumnPrefix
	var out []string
	var keep []int
	for i, c := range columns {
		if prefix != "" && strings.HasPrefix(c, prefix) {
			continue
		}
		out = append(out, c)
		keep = append(keep, i)
	}
	return out, keep
}

// MergedFilename derives the output name from the original upload.
func MergedFilename(original string) string {
	base := filepath.Base(original)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("Merged_%s.csv", base)
}
