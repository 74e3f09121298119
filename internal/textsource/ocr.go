package textsource

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// OCRSource recognises text in scanned statement images with tesseract.
type OCRSource struct {
	tesseract string
	language  string
	run       runner
}

// NewOCRSource creates an OCR source. An empty command disables OCR.
func NewOCRSource(tesseract, language string) *OCRSource {
	if language == "" {
		language = "eng"
	}
	return &OCRSource{tesseract: tesseract, language: language, run: execRunner}
}

func (s *OCRSource) Name() string { return "ocr" }

// Extract runs tesseract on the image and returns the recognised text.
func (s *OCRSource) Extract(ctx context.Context, data []byte) (*Text, error) {
	if s.tesseract == "" {
		return nil, fmt.Errorf("%w: ocr is disabled", ErrUnsupportedFormat)
	}

	tmp, err := os.CreateTemp("", "statement-*.img")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}

	// --psm 6 reads the page as a single uniform block, which keeps table
	// rows on one line.
	out, err := s.run(ctx, s.tesseract, tmp.Name(), "stdout", "-l", s.language, "--psm", "6")
	if err != nil {
		return nil, fmt.Errorf("failed to run %s: %w", s.tesseract, err)
	}

	content := string(out)
	if strings.TrimSpace(content) == "" {
		return nil, ErrNoText
	}
	return &Text{Content: content, Pages: 1, Source: s.Name()}, nil
}
