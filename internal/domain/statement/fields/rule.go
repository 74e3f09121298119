package fields

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/model"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/normalizer"
	"github.com/FACorreiaa/fi-statement-converter/pkg/money"
)

// Kind selects how a captured value is cleaned before it is stored.
type Kind int

const (
	KindText Kind = iota
	KindName
	KindUpper
	KindDigits
	KindIdentifier
	KindDate
	KindAmount
	KindAddress
	KindCurrency
	KindHolderType
	KindAccountType
	KindAccountStatus
)

// Rule extracts one field. Patterns are alternatives tried in order; the
// first capture that survives post-processing wins.
type Rule struct {
	Field    string
	Patterns []NamedPattern
	Default  string
	Kind     Kind
}

// NewRule builds a rule from raw expressions.
func NewRule(field string, kind Kind, def string, exprs ...string) Rule {
	r := Rule{Field: field, Kind: kind, Default: def}
	for i, expr := range exprs {
		name := field
		if i > 0 {
			name = field + "#" + string(rune('0'+i))
		}
		r.Patterns = append(r.Patterns, NewPattern(name, expr))
	}
	return r
}

// Apply runs the rule against text.
func (r Rule) Apply(text string) string {
	for _, p := range r.Patterns {
		raw := ExtractField(text, p, "")
		if raw == "" {
			continue
		}
		if v, ok := clean(raw, r.Kind); ok && v != "" {
			return v
		}
	}
	return r.Default
}

// Labels that commonly follow a value on the same printed line.
var trailingLabel = regexp.MustCompile(`(?i)\s+(?:dob|d\.o\.b|date\s+of\s+birth|mobile|mob\.?|e-?mail|pan(?:\s+no)?|ifsc|micr|facility|nominee|address|c?kyc|landline|phone|tel|customer\s+id|cif|folio|isin|nav|units|scheme|current\s+value|cost\s+value|holder\s+type|type|branch|status|account\s+(?:no|number|type))\b.*$`)

var (
	nonDigit    = regexp.MustCompile(`[^\d]`)
	nonIdent    = regexp.MustCompile(`[^A-Za-z0-9]`)
	hasLetter   = regexp.MustCompile(`[A-Za-z]`)
	nameTrailer = regexp.MustCompile(`[\s.,:;\-]+$`)
)

func trimLabels(s string) string {
	return strings.TrimSpace(trailingLabel.ReplaceAllString(s, ""))
}

func clean(raw string, kind Kind) (string, bool) {
	switch kind {
	case KindText:
		return normalizer.CollapseSpaces(trimLabels(raw)), true
	case KindName:
		v := nameTrailer.ReplaceAllString(normalizer.CollapseSpaces(trimLabels(raw)), "")
		if strings.HasPrefix(strings.ToLower(v), "of ") {
			return "", false
		}
		return v, hasLetter.MatchString(v)
	case KindAddress:
		return strings.Trim(normalizer.CollapseSpaces(trimLabels(raw)), " ,"), true
	case KindUpper:
		return strings.ToUpper(strings.TrimSpace(raw)), true
	case KindDigits:
		v := strings.TrimSpace(raw)
		plus := strings.HasPrefix(v, "+")
		v = nonDigit.ReplaceAllString(v, "")
		if plus && v != "" {
			v = "+" + v
		}
		return v, v != ""
	case KindIdentifier:
		v := strings.ToUpper(nonIdent.ReplaceAllString(raw, ""))
		return v, v != ""
	case KindDate:
		return normalizer.ParseDate(raw)
	case KindAmount:
		v, err := money.NormalizeAmount(raw)
		return v, err == nil
	case KindCurrency:
		v := strings.ToUpper(strings.TrimSpace(raw))
		return v, money.IsKnownCurrency(v)
	case KindHolderType:
		return holderType(raw)
	case KindAccountType:
		return accountType(raw)
	case KindAccountStatus:
		return accountStatus(raw)
	}
	return strings.TrimSpace(raw), true
}

func holderType(raw string) (string, bool) {
	v := strings.ToLower(normalizer.CollapseSpaces(raw))
	switch {
	case v == "single" || v == "individual" || v == "sole":
		return string(model.HolderSingle), true
	case strings.Contains(v, "joint") || strings.Contains(v, "survivor"):
		return string(model.HolderJoint), true
	}
	return "", false
}

func accountType(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "savings", "saving", "sb":
		return string(model.AccountSavings), true
	case "current", "ca":
		return string(model.AccountCurrent), true
	}
	return "", false
}

func accountStatus(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active", "operative", "regular":
		return string(model.StatusActive), true
	case "inactive", "inoperative", "closed":
		return string(model.StatusInactive), true
	case "dormant":
		return string(model.StatusDormant), true
	}
	return "", false
}
