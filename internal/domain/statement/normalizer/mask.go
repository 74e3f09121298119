package normalizer

import "strings"

const (
	maskRune      = 'X'
	visibleSuffix = 4
)

// MaskPlaceholder is returned for identifiers too short to partially reveal.
const MaskPlaceholder = "XXXX"

// Mask redacts all but the last four characters of an identifier while
// keeping its length. Identifiers of four characters or fewer are fully
// replaced by MaskPlaceholder.
func Mask(raw string) string {
	runes := []rune(raw)
	if len(runes) <= visibleSuffix {
		return MaskPlaceholder
	}

	var b strings.Builder
	b.Grow(len(raw))
	for range len(runes) - visibleSuffix {
		b.WriteRune(maskRune)
	}
	b.WriteString(string(runes[len(runes)-visibleSuffix:]))
	return b.String()
}
