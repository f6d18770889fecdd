package phones

import (
	"context"

	"go.uber.org/zap"
)

// PhoneNumberColumn is the single output column carrying one mobile number
// per exploded row.
const PhoneNumberColumn = "Phone_Number"

// ExplodeMobile filters a table down to mobile numbers. Each input row with
// a primary and/or secondary phone becomes zero, one, or two output rows,
// each carrying exactly one mobile number in the Phone_Number column. The
// original phone columns are removed and row order is preserved.
func ExplodeMobile(ctx context.Context, cls Classifier, columns []string, rows [][]string, phoneColumns []string) ([]string, [][]string) {
	phoneIdx := map[int]bool{}
	for _, name := range phoneColumns {
		for i, c := range columns {
			if c == name {
				phoneIdx[i] = true
			}
		}
	}

	outColumns := make([]string, 0, len(columns)+1)
	for i, c := range columns {
		if !phoneIdx[i] {
			outColumns = append(outColumns, c)
		}
	}
	outColumns = append(outColumns, PhoneNumberColumn)

	// Classify every distinct number across the table in one pass so the
	// remote call batches well.
	var numbers []string
	index := map[string]int{}
	for _, row := range rows {
		for i := range row {
			if !phoneIdx[i] {
				continue
			}
			f := Format(row[i])
			if f == "" {
				continue
			}
			if _, ok := index[f]; !ok {
				index[f] = len(numbers)
				numbers = append(numbers, f)
			}
		}
	}
	labels := ClassifyWithFallback(ctx, cls, numbers)

	labelOf := func(formatted string) Label {
		i, ok := index[formatted]
		if !ok || i >= len(labels) {
			return LabelInvalid
		}
		return labels[i]
	}

	var outRows [][]string
	dropped := 0
	for _, row := range rows {
		var mobiles []string
		seen := map[string]bool{}
		for i := range row {
			if !phoneIdx[i] {
				continue
			}
			f := Format(row[i])
			if f == "" || seen[f] {
				continue
			}
			seen[f] = true
			if labelOf(f) == LabelMobile {
				mobiles = append(mobiles, f)
			}
		}
		if len(mobiles) == 0 {
			dropped++
			continue
		}
		base := make([]string, 0, len(outColumns)-1)
		for i, v := range row {
			if i < len(columns) && !phoneIdx[i] {
				base = append(base, v)
			}
		}
		for _, m := range mobiles {
			out := make([]string, len(base), len(base)+1)
			copy(out, base)
			out = append(out, m)
			outRows = append(outRows, out)
		}
	}

	zap.L().Info("mobile filter applied",
		zap.Int("input_rows", len(rows)),
		zap.Int("output_rows", len(outRows)),
		zap.Int("dropped_rows", dropped),
		zap.Int("distinct_numbers", len(numbers)),
	)

	return outColumns, outRows
}
