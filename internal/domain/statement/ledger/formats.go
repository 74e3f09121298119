package ledger

import (
	"strings"

	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/model"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/normalizer"
)

// draft is a transaction before ids, timestamps and balances are settled.
type draft struct {
	txn        model.Transaction
	hasBalance bool
}

// lineFormat is one recognised transaction line shape. match reads the
// record starting at lines[i] and reports how many lines it consumed.
type lineFormat interface {
	match(lines []string, i int, cfg *config) (draft, int, bool)
}

// formats in the order they are attempted on each line.
func formats() []lineFormat {
	return []lineFormat{singleLine{}, multiLine{}, looseLine{}}
}

// singleLine: date [id] type [mode] amount [balance] [timestamp] narration
type singleLine struct{}

func (singleLine) match(lines []string, i int, cfg *config) (draft, int, bool) {
	toks := tokenize(lines[i])
	if len(toks) < 3 {
		return draft{}, 0, false
	}
	date, ok := dateValue(toks[0])
	if !ok {
		return draft{}, 0, false
	}

	d := draft{txn: model.Transaction{ValueDate: date}}
	j := 1
	if j < len(toks) {
		if vd, ok := dateValue(toks[j]); ok {
			d.txn.ValueDate = vd
			j++
		}
	}
	if j < len(toks) && inlineIDToken.MatchString(toks[j]) {
		d.txn.ID = toks[j]
		j++
	}
	if j >= len(toks) {
		return draft{}, 0, false
	}
	t, ok := explicitType(toks[j], cfg.investment)
	if !ok {
		return draft{}, 0, false
	}
	d.txn.Type = t
	j++

	if j < len(toks) {
		if m, ok := normalizer.ParseMode(toks[j]); ok {
			d.txn.Mode = m
			j++
		}
	}

	var amounts []string
	for j < len(toks) && isAmount(toks[j]) {
		if v, ok := amountValue(toks[j]); ok {
			amounts = append(amounts, v)
		}
		j++
	}
	if len(amounts) == 0 {
		return draft{}, 0, false
	}
	d.txn.Amount = amounts[0]
	if len(amounts) > 1 {
		d.txn.RunningBalance = amounts[1]
		d.hasBalance = true
	}

	if j < len(toks) && normalizer.IsTimestamp(toks[j]) {
		d.txn.Timestamp = toks[j]
		j++
	}
	if j < len(toks) && isSideMarker(toks[j]) {
		j++
	}
	d.txn.Narration = strings.Join(toks[j:], " ")
	return d, 1, true
}

// multiLine: id type mode amount balance timestamp valueDate narration,
// either on one line or continued over the following lines.
type multiLine struct{}

const (
	slotType = iota
	slotMode
	slotAmount
	slotBalance
	slotTimestamp
	slotValueDate
	slotNarration
)

// maxContinuation bounds how many lines one record may span.
const maxContinuation = 8

func (multiLine) match(lines []string, i int, cfg *config) (draft, int, bool) {
	toks := tokenize(lines[i])
	if len(toks) == 0 || !prefixIDToken.MatchString(toks[0]) {
		return draft{}, 0, false
	}

	f := &slotFiller{d: draft{txn: model.Transaction{ID: toks[0]}}, investment: cfg.investment}
	for _, tok := range toks[1:] {
		if !f.feed(tok) {
			return draft{}, 0, false
		}
	}

	consumed := 1
	for len(f.narration) == 0 && i+consumed < len(lines) && consumed <= maxContinuation {
		next := lines[i+consumed]
		if startsWithID(next) || isSummary(next) || isHeader(next) {
			break
		}
		// dates only continue the record where a timestamp or value date is due
		if f.slot < slotTimestamp && startsWithDate(next) {
			break
		}
		for _, tok := range tokenize(next) {
			if !f.feed(tok) {
				return draft{}, 0, false
			}
		}
		consumed++
	}

	if f.d.txn.Type == "" || f.d.txn.Amount == "" {
		return draft{}, 0, false
	}
	d := f.d
	d.txn.Narration = strings.Join(f.narration, " ")
	if d.txn.ValueDate == "" && d.txn.Timestamp != "" {
		d.txn.ValueDate, _ = normalizer.ParseDate(d.txn.Timestamp)
	}
	return d, consumed, true
}

// slotFiller assigns tokens to the multi-line slots positionally. Optional
// slots are skipped when the token does not fit them.
type slotFiller struct {
	d          draft
	slot       int
	narration  []string
	investment bool
}

// feed consumes one token; false means the record is malformed.
func (f *slotFiller) feed(tok string) bool {
	for {
		switch f.slot {
		case slotType:
			t, ok := explicitType(tok, f.investment)
			if !ok {
				return false
			}
			f.d.txn.Type = t
			f.slot++
			return true
		case slotMode:
			f.slot++
			if m, ok := normalizer.ParseMode(tok); ok {
				f.d.txn.Mode = m
				return true
			}
		case slotAmount:
			v, ok := amountValue(tok)
			if !ok {
				return false
			}
			f.d.txn.Amount = v
			f.slot++
			return true
		case slotBalance:
			f.slot++
			if isAmount(tok) {
				if v, ok := amountValue(tok); ok {
					f.d.txn.RunningBalance = v
					f.d.hasBalance = true
					return true
				}
			}
		case slotTimestamp:
			f.slot++
			if normalizer.IsTimestamp(tok) {
				f.d.txn.Timestamp = tok
				return true
			}
		case slotValueDate:
			f.slot++
			if v, ok := dateValue(tok); ok {
				f.d.txn.ValueDate = v
				return true
			}
		default:
			f.narration = append(f.narration, tok)
			return true
		}
	}
}

// looseLine: any line with a date and at least one decimal amount. The
// first amount is the transaction amount, the last (when there are two or
// more) the running balance.
type looseLine struct{}

func (looseLine) match(lines []string, i int, cfg *config) (draft, int, bool) {
	line := lines[i]
	if isSummary(line) {
		return draft{}, 0, false
	}
	toks := tokenize(line)

	var (
		date      string
		amounts   []string
		narration []string
	)
	for _, tok := range toks {
		if v, ok := dateValue(tok); ok {
			if date == "" {
				date = v
			}
			continue
		}
		if isAmount(tok) {
			if v, ok := amountValue(tok); ok {
				amounts = append(amounts, v)
				continue
			}
		}
		if isSideMarker(tok) {
			continue
		}
		narration = append(narration, tok)
	}
	if date == "" || len(amounts) == 0 {
		return draft{}, 0, false
	}

	d := draft{txn: model.Transaction{
		ValueDate: date,
		Amount:    amounts[0],
		Type:      keywordType(line, cfg.investment),
		Narration: strings.Join(narration, " "),
	}}
	if len(amounts) > 1 {
		d.txn.RunningBalance = amounts[len(amounts)-1]
		d.hasBalance = true
	}
	return d, 1, true
}
