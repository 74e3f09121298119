package assembler

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/model"
)

// Segment is the part of a statement that belongs to one account. Type,
// Institution and AccountID come from the banner that opened the segment
// and are empty when the statement had no banner.
type Segment struct {
	Text        string
	Type        model.InstrumentType
	Institution string
	AccountID   string
}

// HasBanner reports whether the segment was opened by an account banner.
func (s Segment) HasBanner() bool {
	return s.Type != ""
}

// "HDFC Bank - Deposit - 50100123456789"
var bannerPattern = regexp.MustCompile(`(?im)^[ \t]*([^\n]*?[A-Za-z][^\n]*?)[ \t]+-[ \t]+(deposits?|equities|equity|mutual[ \t]+funds?|etfs?)[ \t]+-[ \t]+([A-Za-z0-9/\-]*\d[A-Za-z0-9/\-]*)[ \t]*$`)

func bannerType(label string) model.InstrumentType {
	l := strings.ToLower(label)
	switch {
	case strings.HasPrefix(l, "deposit"):
		return model.InstrumentDeposit
	case strings.HasPrefix(l, "equit"):
		return model.InstrumentEquities
	case strings.HasPrefix(l, "mutual"):
		return model.InstrumentMutualFunds
	case strings.HasPrefix(l, "etf"):
		return model.InstrumentETF
	}
	return ""
}

// Split cuts text on account banners. The text before the first banner is
// returned as the preamble. Without banners the whole text is a single
// segment and the preamble is empty.
func Split(text string) (string, []Segment) {
	matches := bannerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return "", []Segment{{Text: text}}
	}

	preamble := strings.TrimSpace(text[:matches[0][0]])
	segments := make([]Segment, 0, len(matches))
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		segments = append(segments, Segment{
			Text:        strings.TrimSpace(text[m[1]:end]),
			Institution: strings.TrimSpace(text[m[2]:m[3]]),
			Type:        bannerType(text[m[4]:m[5]]),
			AccountID:   text[m[6]:m[7]],
		})
	}
	return preamble, segments
}
