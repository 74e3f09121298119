package normalizer

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/model"
)

// ChannelPattern maps narration keywords to a payment channel.
type ChannelPattern struct {
	Pattern *regexp.Regexp
	Mode    model.Mode
}

// ChannelTagger tags transactions with a payment channel by scanning their
// narration. Patterns are tried in order, so earlier entries win when a
// narration mentions several channels.
type ChannelTagger struct {
	patterns []ChannelPattern
}

// NewChannelTagger creates a tagger with the default Indian banking channels
func NewChannelTagger() *ChannelTagger {
	return &ChannelTagger{patterns: defaultChannelPatterns()}
}

// Tag returns the channel for a narration, OTHERS when nothing matches.
func (t *ChannelTagger) Tag(narration string) model.Mode {
	upper := strings.ToUpper(narration)
	for _, p := range t.patterns {
		if p.Pattern.MatchString(upper) {
			return p.Mode
		}
	}
	return model.ModeOthers
}

// AddPattern appends a custom channel pattern with the lowest priority
func (t *ChannelTagger) AddPattern(pattern string, mode model.Mode) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	t.patterns = append(t.patterns, ChannelPattern{Pattern: re, Mode: mode})
	return nil
}

func defaultChannelPatterns() []ChannelPattern {
	return []ChannelPattern{
		{regexp.MustCompile(`\bUPI\b|@|\bGPAY\b|\bGOOGLE ?PAY\b|\bPHONE ?PE\b|\bPAYTM\b|\bBHIM\b`), model.ModeUPI},
		{regexp.MustCompile(`\bATM\b|\bWDL\b|\bNWD\b`), model.ModeATM},
		{regexp.MustCompile(`\bCASH\b|\bCSH\b`), model.ModeCash},
		{regexp.MustCompile(`\bCARD\b|\bPOS\b|\bVISA\b|\bMASTERCARD\b|\bRUPAY\b`), model.ModeCard},
		{regexp.MustCompile(`\bNEFT\b|\bRTGS\b|\bIMPS\b|\bINB\b|\bTRANSFER\b|\bTRF\b|\bFT\b`), model.ModeFT},
		{regexp.MustCompile(`\bCHEQUE\b|\bCHQ\b|\bCLG\b|\bCLEARING\b`), model.ModeCheque},
	}
}

var modeTokens = map[string]model.Mode{
	"UPI":      model.ModeUPI,
	"ATM":      model.ModeATM,
	"CASH":     model.ModeCash,
	"CARD":     model.ModeCard,
	"POS":      model.ModeCard,
	"FT":       model.ModeFT,
	"NEFT":     model.ModeFT,
	"RTGS":     model.ModeFT,
	"IMPS":     model.ModeFT,
	"TRANSFER": model.ModeFT,
	"CHEQUE":   model.ModeCheque,
	"CHQ":      model.ModeCheque,
	"OTHERS":   model.ModeOthers,
	"OTHER":    model.ModeOthers,
}

// ParseMode recognises a standalone mode column value.
func ParseMode(token string) (model.Mode, bool) {
	m, ok := modeTokens[strings.ToUpper(strings.Trim(token, ".,:;"))]
	return m, ok
}
