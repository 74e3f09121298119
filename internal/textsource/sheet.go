package textsource

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// preferredSheets are checked in order before falling back to the first
// sheet of a workbook.
var preferredSheets = []string{"statement", "transactions", "account statement", "sheet1"}

// SheetSource flattens spreadsheet exports into one text line per row.
// Cells are joined with two spaces so narrations with single spaces stay
// distinguishable from column breaks.
type SheetSource struct{}

func (SheetSource) Name() string { return "sheet" }

// Extract reads an XLSX workbook.
func (s SheetSource) Extract(_ context.Context, data []byte) (*Text, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := findStatementSheet(f.GetSheetList())
	if sheet == "" {
		return nil, ErrNoText
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return rowsText(rows, s.Name())
}

// CSVSource reads delimited text exports. The delimiter is detected from
// the first lines.
type CSVSource struct{}

func (CSVSource) Name() string { return "csv" }

// Extract parses the file leniently; ragged rows are kept.
func (s CSVSource) Extract(_ context.Context, data []byte) (*Text, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = detectDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		rows = append(rows, rec)
	}
	return rowsText(rows, s.Name())
}

func findStatementSheet(sheets []string) string {
	if len(sheets) == 0 {
		return ""
	}
	for _, preferred := range preferredSheets {
		for _, sheet := range sheets {
			if strings.EqualFold(sheet, preferred) {
				return sheet
			}
		}
	}
	return sheets[0]
}

// detectDelimiter picks the separator that occurs most often across the
// first few lines.
func detectDelimiter(data []byte) rune {
	lines := strings.SplitN(string(data), "\n", 6)
	if len(lines) > 5 {
		lines = lines[:5]
	}
	sample := strings.Join(lines, "\n")

	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t', '|'} {
		if n := strings.Count(sample, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func rowsText(rows [][]string, source string) (*Text, error) {
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			if c := strings.TrimSpace(cell); c != "" {
				cells = append(cells, c)
			}
		}
		if len(cells) > 0 {
			lines = append(lines, strings.Join(cells, "  "))
		}
	}
	if len(lines) == 0 {
		return nil, ErrNoText
	}
	return &Text{Content: strings.Join(lines, "\n"), Pages: 1, Source: source}, nil
}
