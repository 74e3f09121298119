package textsource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type placed struct {
	text string
	x, y int
}

// buildPDF writes a single-page PDF whose text objects sit at the given
// positions, computing xref offsets as it goes.
func buildPDF(t *testing.T, items []placed) []byte {
	t.Helper()

	var content strings.Builder
	for _, it := range items {
		fmt.Fprintf(&content, "BT /F1 10 Tf %d %d Td (%s) Tj ET\n", it.x, it.y, it.text)
	}

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf strings.Builder
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f\r\n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n\r\n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return []byte(buf.String())
}

func statementPDF(t *testing.T) []byte {
	return buildPDF(t, []placed{
		{"Account Holder Name: Jane Doe", 50, 760},
		{"Date", 50, 700},
		{"Narration", 120, 700},
		{"Withdrawal", 300, 700},
		{"Deposit", 380, 700},
		{"Balance", 460, 700},
		{"01/02/2024", 50, 680},
		{"ATM cash", 120, 680},
		{"250.00", 300, 680},
		{"4,750.00", 460, 680},
	})
}

func fakeRunner(out string, err error, calls *[]string) runner {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		if calls != nil {
			*calls = append(*calls, name+" "+strings.Join(args, " "))
		}
		return []byte(out), err
	}
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
		data        string
		want        Kind
	}{
		{"pdf magic", "upload.bin", "", "%PDF-1.7", KindPDF},
		{"png magic", "scan", "", "\x89PNG\r\n", KindImage},
		{"jpeg magic", "scan", "", "\xff\xd8\xff\xe0", KindImage},
		{"pdf extension", "Statement.PDF", "", "garbage", KindPDF},
		{"image extension", "page.tiff", "", "x", KindImage},
		{"xlsx extension", "export.xlsx", "", "PK\x03\x04", KindSpreadsheet},
		{"csv extension", "export.csv", "", "a,b", KindCSV},
		{"text extension", "statement.txt", "", "Name: x", KindText},
		{"content type", "upload", "text/plain; charset=utf-8", "Name: x", KindText},
		{"bare zip", "upload", "", "PK\x03\x04", KindSpreadsheet},
		{"unknown", "upload", "application/octet-stream", "\x00\x01", KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sniff(tt.filename, tt.contentType, []byte(tt.data)))
		})
	}
}

func TestPDFSource_TextLayer(t *testing.T) {
	src := NewPDFSource("", slog.New(slog.DiscardHandler))

	text, err := src.Extract(context.Background(), statementPDF(t))
	require.NoError(t, err)
	assert.Equal(t, 1, text.Pages)
	assert.Equal(t, "pdf", text.Source)
	assert.Contains(t, text.Content, "Account Holder Name: Jane Doe")
	assert.Contains(t, text.Content, "01/02/2024 ATM cash 250.00 4,750.00")

	var cell *placed
	for _, f := range text.Fragments {
		if f.Text == "ATM cash" {
			cell = &placed{f.Text, int(f.X), int(f.Y)}
		}
	}
	require.NotNil(t, cell)
	assert.Equal(t, 120, cell.x)
	assert.Equal(t, 680, cell.y)
}

func TestPDFSource_FallsBackToPdftotext(t *testing.T) {
	var calls []string
	src := NewPDFSource("pdftotext", slog.New(slog.DiscardHandler))
	src.run = fakeRunner("01-02-2024 CREDIT UPI 500.00 12845.67 Salary\n", nil, &calls)

	text, err := src.Extract(context.Background(), []byte("%PDF-1.4\nnot really a pdf"))
	require.NoError(t, err)
	assert.Equal(t, "pdftotext", text.Source)
	assert.Nil(t, text.Fragments)
	assert.Contains(t, text.Content, "Salary")
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], "-layout")
}

func TestPDFSource_SparseLayerUsesFallback(t *testing.T) {
	src := NewPDFSource("pdftotext", slog.New(slog.DiscardHandler))
	src.run = fakeRunner("Scanned text from layout pass", nil, nil)

	text, err := src.Extract(context.Background(), buildPDF(t, []placed{{"p1", 50, 700}}))
	require.NoError(t, err)
	assert.Equal(t, "Scanned text from layout pass", text.Content)
}

func TestPDFSource_Errors(t *testing.T) {
	src := NewPDFSource("", slog.New(slog.DiscardHandler))
	_, err := src.Extract(context.Background(), []byte("%PDF-1.4\nbroken"))
	require.Error(t, err)

	_, err = src.Extract(context.Background(), buildPDF(t, []placed{{"p1", 50, 700}}))
	assert.ErrorIs(t, err, ErrNoText)

	src = NewPDFSource("pdftotext", slog.New(slog.DiscardHandler))
	src.run = fakeRunner("", errors.New("exit status 1"), nil)
	_, err = src.Extract(context.Background(), []byte("%PDF-1.4\nbroken"))
	assert.ErrorContains(t, err, "pdftotext")
}

func TestOCRSource(t *testing.T) {
	var calls []string
	src := NewOCRSource("tesseract", "")
	src.run = fakeRunner("Name: Jane Doe\n", nil, &calls)

	text, err := src.Extract(context.Background(), []byte("\x89PNG"))
	require.NoError(t, err)
	assert.Equal(t, "Name: Jane Doe\n", text.Content)
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], "-l eng")

	src.run = fakeRunner("  \n", nil, nil)
	_, err = src.Extract(context.Background(), []byte("\x89PNG"))
	assert.ErrorIs(t, err, ErrNoText)

	_, err = NewOCRSource("", "eng").Extract(context.Background(), []byte("\x89PNG"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSheetSource(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	_, err := f.NewSheet("Statement")
	require.NoError(t, err)
	rows := [][]any{
		{"Account Holder Name: Jane Doe"},
		{"Date", "Narration", "Withdrawal", "Deposit", "Balance"},
		{"01/02/2024", "ATM cash", "250.00", "", "4,750.00"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Statement", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	text, err := SheetSource{}.Extract(context.Background(), buf.Bytes())
	require.NoError(t, err)
	lines := strings.Split(text.Content, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date  Narration  Withdrawal  Deposit  Balance", lines[1])
	assert.Equal(t, "01/02/2024  ATM cash  250.00  4,750.00", lines[2])

	_, err = SheetSource{}.Extract(context.Background(), []byte("not a workbook"))
	assert.Error(t, err)
}

func TestCSVSource(t *testing.T) {
	data := "\xef\xbb\xbfDate;Narration;Amount;Balance\n01-02-2024;\"UPI; Salary\";500.00;12845.67\n\n"

	text, err := CSVSource{}.Extract(context.Background(), []byte(data))
	require.NoError(t, err)
	assert.Equal(t, "Date  Narration  Amount  Balance\n01-02-2024  UPI; Salary  500.00  12845.67", text.Content)

	_, err = CSVSource{}.Extract(context.Background(), []byte(" , ,\n"))
	assert.ErrorIs(t, err, ErrNoText)
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, ';', detectDelimiter([]byte("a;b;c\n1;2;3")))
	assert.Equal(t, '\t', detectDelimiter([]byte("a\tb\tc")))
	assert.Equal(t, ',', detectDelimiter([]byte("single column")))
}

func TestFindStatementSheet(t *testing.T) {
	assert.Equal(t, "", findStatementSheet(nil))
	assert.Equal(t, "STATEMENT", findStatementSheet([]string{"Summary", "STATEMENT"}))
	assert.Equal(t, "Summary", findStatementSheet([]string{"Summary", "Notes"}))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(Config{}, nil)

	text, err := r.Extract(context.Background(), "statement.txt", "", []byte("\xef\xbb\xbfName: Jane"))
	require.NoError(t, err)
	assert.Equal(t, "Name: Jane", text.Content)
	assert.Equal(t, "text", text.Source)

	_, err = r.Extract(context.Background(), "blob.bin", "application/octet-stream", []byte{0, 1})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = r.Extract(context.Background(), "scan.png", "", []byte("\x89PNG"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	r.Register(KindImage, PlainSource{})
	src, kind, err := r.For("scan.png", "", []byte("\x89PNG"))
	require.NoError(t, err)
	assert.Equal(t, KindImage, kind)
	assert.Equal(t, "text", src.Name())
}
