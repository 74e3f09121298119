// Package fields pulls scalar values out of statement text with a table of
// named, case-insensitive patterns. A pattern that fails to compile, or finds
// nothing, yields the caller's default; extraction itself never fails.
package fields

import (
	"fmt"
	"regexp"
	"strings"
)

// NamedPattern is a case-insensitive regular expression with exactly one
// capture group.
type NamedPattern struct {
	Name string
	Expr string
	re   *regexp.Regexp
	err  error
}

// NewPattern compiles expr case-insensitively. Compilation problems are kept
// on the pattern instead of being returned, so a broken entry in a table
// degrades to its default while the rest of the table still works.
func NewPattern(name, expr string) NamedPattern {
	p := NamedPattern{Name: name, Expr: expr}

	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		p.err = fmt.Errorf("pattern %s: %w", name, err)
		return p
	}
	if n := re.NumSubexp(); n != 1 {
		p.err = fmt.Errorf("pattern %s: want 1 capture group, got %d", name, n)
		return p
	}
	p.re = re
	return p
}

// Err reports why the pattern is unusable, or nil.
func (p NamedPattern) Err() error {
	return p.err
}

// Valid reports whether the pattern compiled with one capture group.
func (p NamedPattern) Valid() bool {
	return p.re != nil
}

// ExtractField returns the trimmed capture of the first match of p in text.
// It returns def when the pattern is invalid, does not match, or captures
// only whitespace.
func ExtractField(text string, p NamedPattern, def string) string {
	if p.re == nil || text == "" {
		return def
	}
	m := p.re.FindStringSubmatch(text)
	if len(m) < 2 {
		return def
	}
	if v := strings.TrimSpace(m[1]); v != "" {
		return v
	}
	return def
}
