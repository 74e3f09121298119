// Package ledger turns the transaction section of a statement into an
// ordered list of transactions. Lines are scanned by a small state machine:
// it looks for a table header, then parses every following line against a
// fixed set of line formats, then settles ids, timestamps, channels and
// running balances.
package ledger

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/fields"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/model"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/normalizer"
	"github.com/FACorreiaa/fi-statement-converter/pkg/money"
)

// FirstSyntheticID is the first id handed to transactions that carry none.
const FirstSyntheticID = 100000000

type state int

const (
	stateSeekingHeader state = iota
	stateParsing
	stateDone
)

type config struct {
	investment bool
	tagger     *normalizer.ChannelTagger
	firstID    int64
	tolerance  float64
}

// Option configures an extraction.
type Option func(*config)

// WithInvestment also accepts BUY and SELL as transaction types.
func WithInvestment(on bool) Option {
	return func(c *config) { c.investment = on }
}

// WithChannelTagger replaces the default narration channel tagger.
func WithChannelTagger(t *normalizer.ChannelTagger) Option {
	return func(c *config) {
		if t != nil {
			c.tagger = t
		}
	}
}

// WithFirstID sets the first synthetic transaction id.
func WithFirstID(id int64) Option {
	return func(c *config) { c.firstID = id }
}

// WithRowTolerance sets the Y tolerance used to group layout fragments.
func WithRowTolerance(t float64) Option {
	return func(c *config) { c.tolerance = t }
}

func newConfig(opts []Option) *config {
	c := &config{
		tagger:    normalizer.NewChannelTagger(),
		firstID:   FirstSyntheticID,
		tolerance: DefaultRowTolerance,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	headerLead  = regexp.MustCompile(`(?i)\b(?:transaction|txn|type|mode|date)\b`)
	headerTail  = regexp.MustCompile(`(?i)\b(?:description|particulars|narration|remarks|details)\b`)
	summaryLine = regexp.MustCompile(`(?i)\b(?:opening|closing|current|available|ledger|total)[ \t]+balance\b|\bbalance[ \t]+as[ \t]+(?:on|of)\b|\btotal[ \t]+(?:debits?|credits?|withdrawals?|deposits?|amount)\b|\bstatement[ \t]+(?:period|date)\b|\bpage[ \t]+\d+|\bgenerated[ \t]+on\b|\bend[ \t]+of[ \t]+statement\b|\bb/f\b|\bc/f\b|\bbrought[ \t]+forward\b|\bcarried[ \t]+forward\b|\bdate[ \t]+of[ \t]+birth\b|\bopening[ \t]+date\b`)

	// labels that only mark a summary line when they lead it
	summaryLabel = regexp.MustCompile(`(?i)^[ \t]*(?:total|nav|period)\b`)
)

// isHeader reports a transaction table header: a date/type/mode column and
// a narration column, and no amounts.
func isHeader(line string) bool {
	if !headerLead.MatchString(line) || !headerTail.MatchString(line) {
		return false
	}
	for _, tok := range strings.Fields(line) {
		if isAmount(tok) {
			return false
		}
	}
	return true
}

// isSummary reports footers and balance summaries that must never become
// transactions. Words such as "total" or "nav" inside a narration do not
// count.
func isSummary(line string) bool {
	return summaryLine.MatchString(line) || summaryLabel.MatchString(line)
}

// ExtractText normalizes text and extracts its transaction ledger.
func ExtractText(text string, opts ...Option) model.TransactionLedger {
	doc := normalizer.Normalize(text)
	return Extract(doc.Lines, opts...)
}

// Extract reads a ledger from normalized lines. When no header is found the
// whole input is parsed.
func Extract(lines []string, opts ...Option) model.TransactionLedger {
	cfg := newConfig(opts)
	fmts := formats()

	var drafts []draft
	st, i := stateSeekingHeader, 0
	for st != stateDone {
		switch st {
		case stateSeekingHeader:
			if i >= len(lines) {
				st, i = stateParsing, 0
				continue
			}
			if isHeader(lines[i]) {
				st = stateParsing
			}
			i++
		case stateParsing:
			if i >= len(lines) {
				st = stateDone
				continue
			}
			d, consumed, ok := parseLine(fmts, lines, i, cfg)
			if ok {
				drafts = append(drafts, d)
				i += consumed
				continue
			}
			i++
		}
	}

	return settle(drafts, strings.Join(lines, "\n"), cfg)
}

// ExtractFragments groups positioned fragments into rows and reads the
// table through its header columns. Rows the columns cannot explain are
// parsed as text lines.
func ExtractFragments(frags []Fragment, opts ...Option) model.TransactionLedger {
	cfg := newConfig(opts)
	rows := GroupRows(frags, cfg.tolerance)

	texts := make([]string, len(rows))
	for i, r := range rows {
		texts[i] = normalizer.CollapseSpaces(r.Text())
	}

	headerAt := -1
	for i, r := range rows {
		if isLayoutHeader(r) {
			headerAt = i
			break
		}
	}
	if headerAt < 0 {
		return Extract(texts, opts...)
	}

	fmts := formats()
	var (
		drafts []draft
		cols   = headerColumns(rows[headerAt])
	)
	for i := headerAt + 1; i < len(rows); i++ {
		if isLayoutHeader(rows[i]) {
			// repeated header on a new page
			cols = headerColumns(rows[i])
			continue
		}
		if isSummary(texts[i]) {
			continue
		}
		if d, ok := rowDraft(rows[i], cols, cfg); ok {
			drafts = append(drafts, d)
			continue
		}
		if d, consumed, ok := parseLine(fmts, texts, i, cfg); ok {
			drafts = append(drafts, d)
			i += consumed - 1
		}
	}
	return settle(drafts, strings.Join(texts, "\n"), cfg)
}

func parseLine(fmts []lineFormat, lines []string, i int, cfg *config) (draft, int, bool) {
	for _, f := range fmts {
		if d, consumed, ok := f.match(lines, i, cfg); ok {
			return d, consumed, true
		}
	}
	return draft{}, 0, false
}

// settle fills timestamps, channels and references, orders entries by value
// date, numbers entries without an id and reconstructs missing running
// balances.
func settle(drafts []draft, text string, cfg *config) model.TransactionLedger {
	if len(drafts) == 0 {
		l := model.EmptyLedger()
		l.StartDate, l.EndDate = Period(text)
		return l
	}

	for i := range drafts {
		t := &drafts[i].txn
		t.Narration = normalizer.CleanNarration(t.Narration)
		if t.Type == "" {
			t.Type = model.TxnDebit
		}
		if t.Mode == "" {
			t.Mode = cfg.tagger.Tag(t.Narration)
		}
		if t.Timestamp == "" {
			t.Timestamp = normalizer.NoonTimestamp(t.ValueDate)
		}
		if t.Reference == "" {
			t.Reference = Reference(t.Narration)
		}
	}

	sort.SliceStable(drafts, func(i, j int) bool {
		return drafts[i].txn.ValueDate < drafts[j].txn.ValueDate
	})

	next := cfg.firstID
	for i := range drafts {
		if drafts[i].txn.ID == "" {
			drafts[i].txn.ID = strconv.FormatInt(next, 10)
			next++
		}
	}

	reconstructed := reconstructBalances(drafts)

	entries := make([]model.Transaction, len(drafts))
	for i, d := range drafts {
		entries[i] = d.txn
	}

	start, end := Period(text)
	if start == "" && len(entries) > 0 {
		start = entries[0].ValueDate
	}
	if end == "" && len(entries) > 0 {
		end = entries[len(entries)-1].ValueDate
	}

	return model.TransactionLedger{
		StartDate:                   start,
		EndDate:                     end,
		Entries:                     entries,
		RunningBalanceReconstructed: reconstructed,
	}
}

func signed(t model.Transaction) decimal.Decimal {
	amt, err := money.ParseDecimal(t.Amount)
	if err != nil {
		return decimal.Zero
	}
	if t.Type.Inflow() {
		return amt
	}
	return amt.Neg()
}

// reconstructBalances fills missing running balances. With no stated
// balance at all the ledger is accumulated from zero; otherwise gaps are
// derived from the nearest stated balance, backwards for leading entries
// and forwards for the rest. It reports whether anything was filled.
func reconstructBalances(drafts []draft) bool {
	if len(drafts) == 0 {
		return false
	}

	first := -1
	for i, d := range drafts {
		if d.hasBalance {
			first = i
			break
		}
	}

	filled := false
	if first < 0 {
		bal := decimal.Zero
		for i := range drafts {
			bal = bal.Add(signed(drafts[i].txn))
			drafts[i].txn.RunningBalance = money.Fixed(bal)
		}
		return true
	}

	for i := first - 1; i >= 0; i-- {
		after, _ := money.ParseDecimal(drafts[i+1].txn.RunningBalance)
		drafts[i].txn.RunningBalance = money.Fixed(after.Sub(signed(drafts[i+1].txn)))
		filled = true
	}
	for i := first + 1; i < len(drafts); i++ {
		if drafts[i].hasBalance {
			continue
		}
		before, _ := money.ParseDecimal(drafts[i-1].txn.RunningBalance)
		drafts[i].txn.RunningBalance = money.Fixed(before.Add(signed(drafts[i].txn)))
		filled = true
	}
	return filled
}

var (
	referencePatterns = []fields.NamedPattern{
		fields.NewPattern("reference", `\b(?:ref(?:erence)?|utr|chq|cheque)(?:[ \t]*no)?\.?[ \t]*[:#\-]?[ \t]*([A-Za-z0-9]*\d[A-Za-z0-9]{5,})`),
		fields.NewPattern("upi reference", `\b(?:upi|imps)[/\-](\d{8,22})\b`),
	}

	periodDate       = `(\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4}|\d{4}-\d{2}-\d{2}|\d{1,2}[- ]?[A-Za-z]{3,9}[- ,]*\d{2,4})`
	periodDateNoCap  = `(?:\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4}|\d{4}-\d{2}-\d{2}|\d{1,2}[- ]?[A-Za-z]{3,9}[- ,]*\d{2,4})`
	periodLead       = `\b(?:statement[ \t]+period|period|from)[ \t]*[:\-]?[ \t]*`
	periodJoin       = `[ \t]*(?:to|till|until|-)[ \t]*`
	periodStart      = fields.NewPattern("period start", periodLead+periodDate+periodJoin+periodDateNoCap)
	periodEnd        = fields.NewPattern("period end", periodLead+periodDateNoCap+periodJoin+periodDate)
	labelledStart    = fields.NewPattern("start date", `\b(?:start|from)[ \t]+date[ \t:]*`+periodDate)
	labelledEnd      = fields.NewPattern("end date", `\b(?:end|to)[ \t]+date[ \t:]*`+periodDate)
)

// Reference pulls a cheque, UTR or UPI reference out of a narration.
func Reference(narration string) string {
	for _, p := range referencePatterns {
		if v := fields.ExtractField(narration, p, ""); v != "" {
			return strings.ToUpper(v)
		}
	}
	return ""
}

// Period reads the statement period from its printed labels. Either side
// may be "" when it is not printed.
func Period(text string) (string, string) {
	start, _ := normalizer.ParseDate(normalizer.Coalesce(
		fields.ExtractField(text, periodStart, ""),
		fields.ExtractField(text, labelledStart, ""),
	))
	end, _ := normalizer.ParseDate(normalizer.Coalesce(
		fields.ExtractField(text, periodEnd, ""),
		fields.ExtractField(text, labelledEnd, ""),
	))
	return start, end
}
