package classifier

import (
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/model"
)

const (
	// Lines longer than this are body text, not letterhead.
	maxFuzzyLineLen = 48
	// Aliases shorter than this are too ambiguous for fuzzy matching.
	minFuzzyAliasLen = 8
	maxFuzzyDistance = 2
)

type aliasRef struct {
	institution int
	alias       string
}

type institutionIndex struct {
	institutions []Institution
	mu           sync.Mutex
	matcher      *ahocorasick.Matcher
	aliases      []aliasRef
}

func newInstitutionIndex(institutions []Institution) *institutionIndex {
	idx := &institutionIndex{institutions: institutions}

	terms := make([]string, 0, len(institutions)*2)
	for i, inst := range institutions {
		for _, a := range inst.Aliases {
			a = strings.ToLower(strings.TrimSpace(a))
			if a == "" {
				continue
			}
			terms = append(terms, a)
			idx.aliases = append(idx.aliases, aliasRef{institution: i, alias: a})
		}
	}
	if len(terms) > 0 {
		idx.matcher = ahocorasick.NewStringMatcher(terms)
	}
	return idx
}

// resolve prefers the longest alias present in the text, then falls back to
// fuzzy matching short lines against long aliases to survive OCR noise.
func (idx *institutionIndex) resolve(text string, t model.InstrumentType) string {
	if idx.matcher == nil || text == "" {
		return ""
	}
	folded := strings.ToLower(text)

	best := -1
	bestLen := 0
	idx.mu.Lock()
	hits := idx.matcher.Match([]byte(folded))
	idx.mu.Unlock()

	for _, m := range hits {
		if m < 0 || m >= len(idx.aliases) {
			continue
		}
		ref := idx.aliases[m]
		if !accepts(idx.institutions[ref.institution].Type, t) {
			continue
		}
		if !wordBounded(folded, ref.alias) {
			continue
		}
		if len(ref.alias) > bestLen {
			best, bestLen = ref.institution, len(ref.alias)
		}
	}
	if best >= 0 {
		return idx.institutions[best].Name
	}

	return idx.fuzzyResolve(folded, t)
}

func (idx *institutionIndex) fuzzyResolve(folded string, t model.InstrumentType) string {
	for _, line := range strings.Split(folded, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) > maxFuzzyLineLen {
			continue
		}
		for _, ref := range idx.aliases {
			if len(ref.alias) < minFuzzyAliasLen || !accepts(idx.institutions[ref.institution].Type, t) {
				continue
			}
			candidate := line
			if len(candidate) > len(ref.alias) {
				candidate = candidate[:len(ref.alias)]
			}
			if fuzzy.LevenshteinDistance(candidate, ref.alias) <= maxFuzzyDistance {
				return idx.institutions[ref.institution].Name
			}
		}
	}
	return ""
}

// accepts lets ETF statements resolve to the depository or broker holding them.
func accepts(inst, want model.InstrumentType) bool {
	if inst == want {
		return true
	}
	return want == model.InstrumentETF && inst == model.InstrumentEquities
}

// wordBounded reports whether some occurrence of term is not embedded in a
// longer word, so "axis" does not match "praxis".
func wordBounded(text, term string) bool {
	from := 0
	for {
		i := strings.Index(text[from:], term)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(term)
		if (start == 0 || !isWordByte(text[start-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		from = start + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}
