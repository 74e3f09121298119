// Package classifier decides which instrument type a statement describes.
//
// Every indicator term is loaded into one Aho-Corasick automaton so a single
// pass over the text finds all terms present. Present terms are then counted
// so the score grows with repeated mentions: keywords add 10 per occurrence,
// institution names add 20. The highest total wins; ties go to the type with
// the higher priority and a text with no indicator at all is DEPOSIT.
package classifier

import (
	"sort"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"

	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/model"
)

type indicator struct {
	Type   model.InstrumentType
	Weight int
}

// Classifier scores statement text against weighted indicator terms.
// It is safe for concurrent use.
type Classifier struct {
	sets     []IndicatorSet
	mu       sync.Mutex // Match mutates the automaton's hit counters
	matcher  *ahocorasick.Matcher
	patterns []string      // unique terms in matcher order
	metadata [][]indicator // every (type, weight) a term contributes to

	institutions *institutionIndex
}

// New builds a classifier from indicator sets and known institutions.
func New(sets []IndicatorSet, institutions []Institution) *Classifier {
	c := &Classifier{sets: sets}

	patternToIndex := make(map[string]int)
	add := func(term string, ind indicator) {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			return
		}
		if idx, ok := patternToIndex[term]; ok {
			c.metadata[idx] = append(c.metadata[idx], ind)
			return
		}
		patternToIndex[term] = len(c.patterns)
		c.patterns = append(c.patterns, term)
		c.metadata = append(c.metadata, []indicator{ind})
	}

	for _, set := range sets {
		for _, kw := range set.Keywords {
			add(kw, indicator{Type: set.Type, Weight: KeywordWeight})
		}
		for _, inst := range set.Institutions {
			add(inst, indicator{Type: set.Type, Weight: InstitutionWeight})
		}
	}

	if len(c.patterns) > 0 {
		c.matcher = ahocorasick.NewStringMatcher(c.patterns)
	}
	c.institutions = newInstitutionIndex(institutions)
	return c
}

// NewDefault builds a classifier with the default vocabulary.
func NewDefault() *Classifier {
	return New(DefaultIndicators(), DefaultInstitutions())
}

// Indicators returns the vocabulary the classifier was built with.
func (c *Classifier) Indicators() []IndicatorSet {
	return c.sets
}

// Scores returns the weighted score of every instrument type.
func (c *Classifier) Scores(text string) map[model.InstrumentType]int {
	scores := make(map[model.InstrumentType]int, len(c.sets))
	for _, set := range c.sets {
		scores[set.Type] = 0
	}
	if c.matcher == nil || text == "" {
		return scores
	}

	folded := strings.ToLower(text)
	c.mu.Lock()
	hits := c.matcher.Match([]byte(folded))
	c.mu.Unlock()

	for _, idx := range hits {
		if idx < 0 || idx >= len(c.patterns) {
			continue
		}
		occurrences := strings.Count(folded, c.patterns[idx])
		for _, ind := range c.metadata[idx] {
			scores[ind.Type] += ind.Weight * occurrences
		}
	}
	return scores
}

// Classify returns the instrument type with the strictly highest score.
// DEPOSIT is returned when nothing scores; this is a policy default.
func (c *Classifier) Classify(text string) model.InstrumentType {
	scores := c.Scores(text)

	best := model.InstrumentDeposit
	bestScore := 0
	for _, t := range c.priorityOrder() {
		if scores[t] > bestScore {
			best = t
			bestScore = scores[t]
		}
	}
	return best
}

// Institution returns the display name of the institution the text names
// for the given instrument type, or "".
func (c *Classifier) Institution(text string, t model.InstrumentType) string {
	return c.institutions.resolve(text, t)
}

func (c *Classifier) priorityOrder() []model.InstrumentType {
	byPriority := make([]IndicatorSet, len(c.sets))
	copy(byPriority, c.sets)
	sort.SliceStable(byPriority, func(i, j int) bool {
		return byPriority[i].Priority < byPriority[j].Priority
	})

	order := make([]model.InstrumentType, len(byPriority))
	for i, s := range byPriority {
		order[i] = s.Type
	}
	return order
}
