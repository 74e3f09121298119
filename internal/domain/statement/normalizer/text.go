// Package normalizer prepares raw statement text for extraction.
// text.go handles Unicode folding, line splitting and narration cleanup.
package normalizer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Document is statement text after normalization.
type Document struct {
	Text   string   // NFKC text with LF line endings
	Lines  []string // trimmed, non-empty lines in source order
	Folded string   // lower-cased Text, used for keyword scoring
}

var (
	spaceRun      = regexp.MustCompile(`[ \t]+`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// Normalize folds compatibility glyphs, unifies line endings and splits the
// text into trimmed lines.
func Normalize(raw string) Document {
	if raw == "" {
		return Document{Lines: []string{}}
	}

	text := norm.NFKC.String(raw)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case r == '\u200b' || r == '\ufeff' || r == '\u00ad':
			return -1
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, text)

	raws := strings.Split(text, "\n")
	lines := make([]string, 0, len(raws))
	for i, l := range raws {
		l = strings.TrimSpace(spaceRun.ReplaceAllString(l, " "))
		raws[i] = l
		if l != "" {
			lines = append(lines, l)
		}
	}
	text = strings.Join(raws, "\n")

	return Document{
		Text:   text,
		Lines:  lines,
		Folded: strings.ToLower(text),
	}
}

// CleanNarration collapses whitespace and strips dangling separators.
func CleanNarration(s string) string {
	s = whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
	return strings.TrimSpace(strings.TrimRight(s, " -/,:;|"))
}

// CollapseSpaces joins multi-line captures into a single spaced string.
func CollapseSpaces(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// Coalesce returns the first non-blank value.
func Coalesce(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
