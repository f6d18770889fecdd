// Package tabular loads delimited and spreadsheet lead files into raw
// tables and writes the pipeline's CSV outputs.
package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/text/encoding/charmap"

	"github.com/blake-leads/enrich-cli/internal/model"
)

// ErrInputUnreadable marks a file that cannot be decoded or holds no rows.
// Jobs must not start when Read returns this.
var ErrInputUnreadable = eris.New("tabular: input unreadable")

// Read loads a lead file by extension: .csv (with encoding fallback),
// .xlsx, or .xls. Header names are synthesized as Column_1..Column_N when
// the file has no usable header row.
func Read(path string) (*model.RawTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readXLSX(path)
	case ".xls":
		return readXLS(path)
	default:
		return readCSV(path)
	}
}

// encodings is the decode ladder for delimited text, tried in order. The
// first decoder that accepts every byte wins.
var encodings = []struct {
	name   string
	decode func([]byte) (string, bool)
}{
	{"utf-8", decodeUTF8},
	{"latin-1", decodeLatin1},
	{"windows-1252", decodeWindows1252},
	{"iso-8859-1", decodeISO88591},
}

func readCSV(path string) (*model.RawTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "tabular: read csv file")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, eris.Wrap(ErrInputUnreadable, "empty file")
	}

	var text string
	decoded := false
	for _, enc := range encodings {
		if s, ok := enc.decode(raw); ok {
			text = s
			decoded = true
			break
		}
	}
	if !decoded {
		return nil, eris.Wrap(ErrInputUnreadable, "no encoding accepted the file")
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1 // allow variable fields
	reader.LazyQuotes = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "tabular: parse csv")
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		return nil, eris.Wrap(ErrInputUnreadable, "no rows")
	}

	return tableFromRecords(records), nil
}

func readXLSX(path string) (*model.RawTable, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(ErrInputUnreadable, err.Error())
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Wrap(ErrInputUnreadable, "no sheets")
	}

	var records [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		records = append(records, cells)
	}
	if len(records) == 0 {
		return nil, eris.Wrap(ErrInputUnreadable, "no rows")
	}

	return tableFromRecords(records), nil
}

func readXLS(path string) (*model.RawTable, error) {
	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, eris.Wrap(ErrInputUnreadable, err.Error())
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, eris.Wrap(ErrInputUnreadable, "no sheets")
	}

	var records [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			records = append(records, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		records = append(records, cells)
	}
	if len(records) == 0 {
		return nil, eris.Wrap(ErrInputUnreadable, "no rows")
	}

	return tableFromRecords(records), nil
}

// tableFromRecords decides whether the first record is a real header. Files
// produced by export tools often carry blank or auto-numbered placeholders
// instead of names; those get Column_1..Column_N headers, and the first
// record is kept as data when it reads like data.
func tableFromRecords(records [][]string) *model.RawTable {
	header := records[0]

	if !headerIsSynthetic(header) {
		return &model.RawTable{
			Columns: normalizeHeader(header),
			Rows:    padRows(records[1:], len(header)),
		}
	}

	width := 0
	for _, r := range records {
		if len(r) > width {
			width = len(r)
		}
	}
	columns := make([]string, width)
	for i := range columns {
		columns[i] = fmt.Sprintf("Column_%d", i+1)
	}

	rows := records[1:]
	if looksLikeData(header) && !hasPlaceholder(header) {
		rows = records
	}

	return &model.RawTable{
		Columns:          columns,
		Rows:             padRows(rows, width),
		SyntheticHeaders: true,
	}
}

var (
	placeholderRe = regexp.MustCompile(`(?i)^(unnamed|column)[:_ ]*\d*$`)
	numericRe     = regexp.MustCompile(`^\d+(\.\d+)?$`)
	alphaRunRe    = regexp.MustCompile(`[A-Za-z]{3,}`)
)

// headerIsSynthetic reports whether the first record looks like placeholder
// names rather than a real header: at least half of its cells are empty,
// purely numeric, or auto-numbered.
func headerIsSynthetic(header []string) bool {
	if len(header) == 0 {
		return true
	}
	synthetic := 0
	for _, c := range header {
		c = strings.TrimSpace(c)
		if c == "" || numericRe.MatchString(c) || placeholderRe.MatchString(c) {
			synthetic++
		}
	}
	return synthetic*2 >= len(header)
}

// hasPlaceholder reports whether any cell is an auto-numbered placeholder.
// A placeholder row is a discarded header even when it reads like data.
func hasPlaceholder(cells []string) bool {
	for _, c := range cells {
		if placeholderRe.MatchString(strings.TrimSpace(c)) {
			return true
		}
	}
	return false
}

// looksLikeData reports whether at least 3 of the first 5 non-empty cells
// contain an alphabetic run of length >= 3.
func looksLikeData(cells []string) bool {
	seen, hits := 0, 0
	for _, c := range cells {
		if strings.TrimSpace(c) == "" {
			continue
		}
		seen++
		if alphaRunRe.MatchString(c) {
			hits++
		}
		if seen == 5 {
			break
		}
	}
	return hits >= 3
}

// normalizeHeader fills blanks inside an otherwise real header.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, c := range header {
		c = strings.TrimSpace(c)
		if c == "" {
			c = fmt.Sprintf("Column_%d", i+1)
		}
		out[i] = c
	}
	return out
}

// padRows right-pads ragged rows so every row has exactly width cells.
func padRows(rows [][]string, width int) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		if len(r) >= width {
			out[i] = r[:width]
			continue
		}
		padded := make([]string, width)
		copy(padded, r)
		out[i] = padded
	}
	return out
}

func decodeUTF8(b []byte) (string, bool) {
	if !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

// decodeLatin1 is strict about the C1 control range: real Latin-1 text does
// not use 0x80-0x9F, and rejecting it lets Windows-1252 claim files that
// carry smart quotes.
func decodeLatin1(b []byte) (string, bool) {
	for _, c := range b {
		if c >= 0x80 && c <= 0x9F {
			return "", false
		}
	}
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", false
	}
	return string(s), true
}

// windows1252Undefined are the five code points CP1252 leaves unmapped.
var windows1252Undefined = map[byte]bool{0x81: true, 0x8D: true, 0x8F: true, 0x90: true, 0x9D: true}

func decodeWindows1252(b []byte) (string, bool) {
	for _, c := range b {
		if windows1252Undefined[c] {
			return "", false
		}
	}
	s, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return "", false
	}
	return string(s), true
}

// decodeISO88591 is the permissive last rung: every byte maps to something.
func decodeISO88591(b []byte) (string, bool) {
	s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", false
	}
	return string(s), true
}
