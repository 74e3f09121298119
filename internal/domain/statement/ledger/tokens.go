package ledger

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/model"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/normalizer"
	"github.com/FACorreiaa/fi-statement-converter/pkg/money"
)

var (
	// 8 to 12 digit transaction ids, never containing a decimal point
	inlineIDToken = regexp.MustCompile(`^\d{8,12}$`)
	// ids that open a multi-line record, e.g. "M1234567" or "S0012345678"
	prefixIDToken = regexp.MustCompile(`^[A-Za-z]{0,4}\d{7,20}$`)
	// amounts with a glued CR/DR marker, e.g. "500.00Cr"
	suffixedAmount = regexp.MustCompile(`(?i)^(.*\d\.\d{1,4})(CR|DR)\.?$`)
	wordSplit      = regexp.MustCompile(`[^A-Za-z0-9@]+`)
	dayToken       = regexp.MustCompile(`^\d{1,2}$`)
	monthToken     = regexp.MustCompile(`^[A-Za-z]{3,9}[.,]?$`)
	yearToken      = regexp.MustCompile(`^(?:\d{2}|\d{4})[.,;:|]?$`)
)

var explicitTypes = map[string]model.TransactionType{
	"CREDIT": model.TxnCredit,
	"CR":     model.TxnCredit,
	"DEBIT":  model.TxnDebit,
	"DR":     model.TxnDebit,
}

var investmentTypes = map[string]model.TransactionType{
	"BUY":        model.TxnBuy,
	"PURCHASE":   model.TxnBuy,
	"SIP":        model.TxnBuy,
	"SELL":       model.TxnSell,
	"REDEMPTION": model.TxnSell,
	"REDEEM":     model.TxnSell,
}

// switchTypes maps the word after SWITCH in investment narrations.
var switchTypes = map[string]model.TransactionType{
	"IN":  model.TxnBuy,
	"OUT": model.TxnSell,
}

var creditKeywords = map[string]bool{
	"CR": true, "CREDIT": true, "CREDITED": true, "DEP": true, "DEPOSIT": true,
	"RECEIVED": true, "REVERSAL": true, "REFUND": true,
}

var debitKeywords = map[string]bool{
	"DR": true, "DEBIT": true, "DEBITED": true, "WDL": true, "WITHDRAWAL": true,
	"PAYMENT": true, "PAID": true,
}

// tokenize splits a line on whitespace, keeps "01 Feb 2024" style dates as
// one token and separates glued CR/DR markers.
func tokenize(line string) []string {
	raw := strings.Fields(line)
	out := make([]string, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if date, ok := spacedDate(raw, i); ok {
			out = append(out, date)
			i += 2
			continue
		}
		tok := raw[i]
		if m := suffixedAmount.FindStringSubmatch(tok); m != nil {
			out = append(out, m[1], m[2])
			continue
		}
		out = append(out, tok)
	}
	return out
}

// spacedDate joins raw[i:i+3] when the three words spell a day, a month name
// and a year.
func spacedDate(raw []string, i int) (string, bool) {
	if i+2 >= len(raw) || !dayToken.MatchString(raw[i]) ||
		!monthToken.MatchString(raw[i+1]) || !yearToken.MatchString(raw[i+2]) {
		return "", false
	}
	joined := raw[i] + " " + strings.TrimRight(raw[i+1], ".,") + " " + raw[i+2]
	if _, ok := dateValue(joined); !ok {
		return "", false
	}
	return joined, true
}

func trimPunct(tok string) string {
	return strings.Trim(tok, ".,:;|")
}

// explicitType reads a column value such as "CREDIT" or "Dr.".
func explicitType(tok string, investment bool) (model.TransactionType, bool) {
	key := strings.ToUpper(trimPunct(tok))
	if t, ok := explicitTypes[key]; ok {
		return t, true
	}
	if investment {
		if t, ok := investmentTypes[key]; ok {
			return t, true
		}
	}
	return "", false
}

// keywordType derives a type from words anywhere in a narration. Investment
// words are checked first ("SWITCH IN" and "SWITCH OUT" before single
// words), then credit words, then debit words. Lines with no signal are
// DEBIT.
func keywordType(text string, investment bool) model.TransactionType {
	words := wordSplit.Split(strings.ToUpper(text), -1)

	if investment {
		for i := 0; i+1 < len(words); i++ {
			if words[i] != "SWITCH" {
				continue
			}
			if t, ok := switchTypes[words[i+1]]; ok {
				return t
			}
		}
		for _, w := range words {
			if t, ok := investmentTypes[w]; ok {
				return t
			}
		}
	}
	for _, w := range words {
		if creditKeywords[w] {
			return model.TxnCredit
		}
	}
	for _, w := range words {
		if debitKeywords[w] {
			return model.TxnDebit
		}
	}
	return model.TxnDebit
}

// isSideMarker reports a bare CR or DR column marker.
func isSideMarker(tok string) bool {
	w := strings.ToUpper(trimPunct(tok))
	return w == "CR" || w == "DR"
}

func isAmount(tok string) bool {
	return money.IsDecimalToken(tok)
}

func amountValue(tok string) (string, bool) {
	v, err := money.NormalizeAmount(tok)
	if err != nil {
		return "", false
	}
	return money.Abs(v), true
}

func dateValue(tok string) (string, bool) {
	return normalizer.ParseDate(trimPunct(tok))
}

func startsWithDate(line string) bool {
	toks := tokenize(line)
	if len(toks) == 0 {
		return false
	}
	_, ok := dateValue(toks[0])
	return ok
}

func startsWithID(line string) bool {
	toks := strings.Fields(line)
	return len(toks) > 0 && prefixIDToken.MatchString(toks[0])
}
