package textsource

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"
)

// PlainSource passes text files through unchanged apart from a leading
// byte order mark. Encoding is validated by the extractor.
type PlainSource struct{}

func (PlainSource) Name() string { return "text" }

func (s PlainSource) Extract(_ context.Context, data []byte) (*Text, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	return &Text{Content: string(data), Pages: 1, Source: s.Name()}, nil
}

// Config selects the external tools used by the registry.
type Config struct {
	PDFToTextPath string
	TesseractPath string
	OCRLanguage   string
	Timeout       time.Duration
}

// Registry maps detected formats to sources.
type Registry struct {
	sources map[Kind]Source
	timeout time.Duration
	logger  *slog.Logger
}

// NewRegistry wires the default source for every supported format.
func NewRegistry(cfg Config, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		sources: map[Kind]Source{
			KindPDF:         NewPDFSource(cfg.PDFToTextPath, logger),
			KindImage:       NewOCRSource(cfg.TesseractPath, cfg.OCRLanguage),
			KindSpreadsheet: SheetSource{},
			KindCSV:         CSVSource{},
			KindText:        PlainSource{},
		},
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Register replaces the source for a format.
func (r *Registry) Register(kind Kind, src Source) {
	r.sources[kind] = src
}

// For returns the source for a file.
func (r *Registry) For(filename, contentType string, data []byte) (Source, Kind, error) {
	kind := Sniff(filename, contentType, data)
	src, ok := r.sources[kind]
	if !ok {
		return nil, kind, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
	return src, kind, nil
}

// Extract detects the format and extracts the file's text.
func (r *Registry) Extract(ctx context.Context, filename, contentType string, data []byte) (*Text, error) {
	src, kind, err := r.For(filename, contentType, data)
	if err != nil {
		return nil, err
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.logger.Debug("extracting text",
		slog.String("file", filename),
		slog.String("kind", string(kind)),
		slog.String("source", src.Name()),
	)
	return src.Extract(ctx, data)
}
