package tabular

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"
)

// WriteCSV writes a UTF-8 CSV file with a header row. Every output stage of
// the pipeline goes through here so the on-disk format stays uniform.
func WriteCSV(path string, columns []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "tabular: create output file")
	}

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		f.Close()
		return eris.Wrap(err, "tabular: write header")
	}
	for _, row := range rows {
		if len(row) < len(columns) {
			padded := make([]string, len(columns))
			copy(padded, row)
			row = padded
		}
		if err := w.Write(row[:len(columns)]); err != nil {
			f.Close()
			return eris.Wrap(err, "tabular: write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return eris.Wrap(err, "tabular: flush")
	}

	if err := f.Close(); err != nil {
		return eris.Wrap(err, "tabular: close output file")
	}
	return nil
}
