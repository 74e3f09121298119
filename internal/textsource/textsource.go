// Package textsource turns uploaded statement files into the text the
// extractor reads. PDFs keep their positioned fragments so the ledger can
// read column layouts; other formats yield plain lines.
package textsource

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/ledger"
)

var (
	// ErrUnsupportedFormat is returned when no source handles a file.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrNoText is returned when a file was read but held no text.
	ErrNoText = errors.New("no text found in file")
)

// Kind is the detected format of an uploaded file.
type Kind string

const (
	KindUnknown     Kind = "unknown"
	KindPDF         Kind = "pdf"
	KindImage       Kind = "image"
	KindSpreadsheet Kind = "xlsx"
	KindCSV         Kind = "csv"
	KindText        Kind = "text"
)

// Text is the output of a Source.
type Text struct {
	Content   string
	Fragments []ledger.Fragment // nil unless the source knows positions
	Pages     int
	Source    string // name of the producing source
}

// Source extracts text from the raw bytes of one file.
type Source interface {
	Name() string
	Extract(ctx context.Context, data []byte) (*Text, error)
}

// runner executes an external command and returns its stdout.
type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- command comes from configuration
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, errors.Join(err, errors.New(msg))
		}
		return nil, err
	}
	return out, nil
}

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".tif": true, ".tiff": true,
}

// Sniff detects a file's format from its leading bytes, falling back to
// the extension and then the declared content type.
func Sniff(filename, contentType string, data []byte) Kind {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return KindPDF
	case bytes.HasPrefix(data, []byte("\x89PNG")),
		bytes.HasPrefix(data, []byte("\xff\xd8\xff")),
		bytes.HasPrefix(data, []byte("GIF8")),
		bytes.HasPrefix(data, []byte("II*\x00")),
		bytes.HasPrefix(data, []byte("MM\x00*")):
		return KindImage
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case ext == ".pdf":
		return KindPDF
	case imageExtensions[ext]:
		return KindImage
	case ext == ".xlsx" || ext == ".xlsm":
		return KindSpreadsheet
	case ext == ".csv" || ext == ".tsv":
		return KindCSV
	case ext == ".txt" || ext == ".text":
		return KindText
	}

	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "pdf"):
		return KindPDF
	case strings.HasPrefix(ct, "image/"):
		return KindImage
	case strings.Contains(ct, "spreadsheetml"):
		return KindSpreadsheet
	case strings.Contains(ct, "csv"):
		return KindCSV
	case strings.HasPrefix(ct, "text/"):
		return KindText
	}

	// Zip containers without a known extension are most likely workbooks.
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		return KindSpreadsheet
	}
	return KindUnknown
}
