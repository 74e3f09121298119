package textsource

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/ledger"
)

// scannedThreshold is the number of characters per page below which a PDF
// is treated as a scanned image with no usable text layer.
const scannedThreshold = 50

// PDFSource reads the text layer of a PDF. When the layer is missing or
// unreadable and a pdftotext command is configured, it falls back to
// pdftotext -layout.
type PDFSource struct {
	pdftotext string
	run       runner
	logger    *slog.Logger
}

// NewPDFSource creates a PDF source. An empty pdftotext disables the
// fallback.
func NewPDFSource(pdftotext string, logger *slog.Logger) *PDFSource {
	return &PDFSource{pdftotext: pdftotext, run: execRunner, logger: logger}
}

func (s *PDFSource) Name() string { return "pdf" }

// Extract reads positioned text from every page.
func (s *PDFSource) Extract(ctx context.Context, data []byte) (*Text, error) {
	frags, pages, err := readFragments(data)
	if err == nil {
		content := joinRows(ledger.GroupRows(frags, ledger.DefaultRowTolerance))
		if !isLikelyScanned(content, pages) {
			return &Text{Content: content, Fragments: frags, Pages: pages, Source: s.Name()}, nil
		}
		s.logger.Debug("pdf text layer is sparse",
			slog.Int("pages", pages),
			slog.Int("chars", len(content)),
		)
	} else {
		s.logger.Debug("pdf text layer unreadable", slog.Any("error", err))
	}

	if s.pdftotext == "" {
		if err != nil {
			return nil, fmt.Errorf("failed to read pdf: %w", err)
		}
		return nil, ErrNoText
	}

	content, ferr := s.layoutText(ctx, data)
	if ferr != nil {
		return nil, fmt.Errorf("failed to run %s: %w", s.pdftotext, ferr)
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrNoText
	}
	return &Text{Content: content, Pages: pages, Source: s.pdftotext}, nil
}

func (s *PDFSource) layoutText(ctx context.Context, data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	out, err := s.run(ctx, s.pdftotext, "-layout", "-enc", "UTF-8", tmp.Name(), "-")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// readFragments walks each page's glyphs and merges adjacent ones into
// word-level fragments. The pdf library panics on some malformed inputs.
func readFragments(data []byte) (frags []ledger.Fragment, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			frags, err = nil, fmt.Errorf("panic during pdf read: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, 0, err
	}

	pages = reader.NumPage()
	for i := 1; i <= pages; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		frags = append(frags, mergeGlyphs(p.Content().Text, i)...)
	}
	return frags, pages, nil
}

// mergeGlyphs joins glyphs in content order while they stay on one
// baseline and the horizontal gap is under most of an em.
func mergeGlyphs(glyphs []pdf.Text, page int) []ledger.Fragment {
	var (
		out  []ledger.Fragment
		cur  strings.Builder
		x, y float64
		end  float64
		open bool
	)
	flush := func() {
		if t := strings.TrimSpace(cur.String()); t != "" {
			out = append(out, ledger.Fragment{Text: t, X: x, Y: y, Page: page})
		}
		cur.Reset()
		open = false
	}

	for _, g := range glyphs {
		gap := math.Max(0.8*g.FontSize, 2)
		if open && (math.Abs(g.Y-y) > 1 || g.X-end > gap || g.X < x) {
			flush()
		}
		if !open {
			if strings.TrimSpace(g.S) == "" {
				continue
			}
			x, y, end, open = g.X, g.Y, g.X, true
		}
		cur.WriteString(g.S)
		end = math.Max(end, g.X+g.W)
	}
	flush()
	return out
}

func joinRows(rows []ledger.Row) string {
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		if t := r.Text(); t != "" {
			lines = append(lines, t)
		}
	}
	return strings.Join(lines, "\n")
}

func isLikelyScanned(text string, pages int) bool {
	if pages <= 0 {
		pages = 1
	}
	return len(strings.TrimSpace(text))/pages < scannedThreshold
}
