package ledger

import (
	"math"
	"sort"
	"strings"

	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/model"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/normalizer"
)

// DefaultRowTolerance is the vertical distance within which fragments are
// treated as one printed row.
const DefaultRowTolerance = 3.0

// Fragment is a positioned piece of text from a laid-out page. Y grows
// upwards, as in PDF user space.
type Fragment struct {
	Text string
	X    float64
	Y    float64
	Page int
}

// Row is a set of fragments sharing a baseline, ordered left to right.
type Row struct {
	Page  int
	Y     float64
	Cells []Fragment
}

// Text joins the row's cells with single spaces.
func (r Row) Text() string {
	parts := make([]string, 0, len(r.Cells))
	for _, c := range r.Cells {
		if t := strings.TrimSpace(c.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// GroupRows orders fragments top to bottom and page by page, then merges
// fragments whose Y is within tolerance of the row's first fragment.
func GroupRows(frags []Fragment, tolerance float64) []Row {
	if len(frags) == 0 {
		return nil
	}
	if tolerance <= 0 {
		tolerance = DefaultRowTolerance
	}

	sorted := make([]Fragment, len(frags))
	copy(sorted, frags)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Page != sorted[j].Page {
			return sorted[i].Page < sorted[j].Page
		}
		return sorted[i].Y > sorted[j].Y
	})

	var rows []Row
	for _, f := range sorted {
		n := len(rows)
		if n > 0 && rows[n-1].Page == f.Page && math.Abs(rows[n-1].Y-f.Y) <= tolerance {
			rows[n-1].Cells = append(rows[n-1].Cells, f)
			continue
		}
		rows = append(rows, Row{Page: f.Page, Y: f.Y, Cells: []Fragment{f}})
	}
	for i := range rows {
		cells := rows[i].Cells
		sort.SliceStable(cells, func(a, b int) bool { return cells[a].X < cells[b].X })
	}
	return rows
}

type columnKind int

const (
	colUnknown columnKind = iota
	colDate
	colValueDate
	colID
	colType
	colMode
	colAmount
	colDebit
	colCredit
	colBalance
	colNarration
	colTimestamp
	colReference
)

type column struct {
	kind columnKind
	x    float64
}

func classifyHeaderCell(text string) columnKind {
	t := strings.ToLower(strings.TrimSpace(text))
	switch {
	case t == "":
		return colUnknown
	case strings.Contains(t, "value"):
		return colValueDate
	case strings.Contains(t, "timestamp") || t == "time":
		return colTimestamp
	case strings.Contains(t, "date") || t == "dt":
		return colDate
	case strings.Contains(t, "balance"):
		return colBalance
	case strings.Contains(t, "withdrawal") || strings.Contains(t, "debit"):
		return colDebit
	case strings.Contains(t, "deposit") || strings.Contains(t, "credit"):
		return colCredit
	case strings.Contains(t, "amount") || t == "amt":
		return colAmount
	case strings.Contains(t, "mode") || strings.Contains(t, "channel"):
		return colMode
	case strings.Contains(t, "type") || t == "dr/cr" || t == "cr/dr":
		return colType
	case strings.Contains(t, "ref") || strings.Contains(t, "chq") || strings.Contains(t, "cheque"):
		return colReference
	case strings.Contains(t, "narration") || strings.Contains(t, "description") ||
		strings.Contains(t, "particulars") || strings.Contains(t, "remarks") || strings.Contains(t, "details"):
		return colNarration
	case t == "id" || strings.Contains(t, "txn id") || strings.Contains(t, "transaction id") || t == "txn":
		return colID
	}
	return colUnknown
}

// headerColumns maps each recognised header cell to a column. A second date
// column is read as the value date.
func headerColumns(r Row) []column {
	var cols []column
	seen := map[columnKind]bool{}
	for _, c := range r.Cells {
		kind := classifyHeaderCell(c.Text)
		if kind == colUnknown {
			continue
		}
		if kind == colDate && seen[colDate] {
			kind = colValueDate
		}
		if seen[kind] {
			continue
		}
		seen[kind] = true
		cols = append(cols, column{kind: kind, x: c.X})
	}
	return cols
}

// isLayoutHeader accepts the textual header test or a row naming at least
// a date, an amount-like column and a narration-like column.
func isLayoutHeader(r Row) bool {
	if isHeader(r.Text()) {
		return true
	}
	cols := headerColumns(r)
	var date, amount, narration bool
	for _, c := range cols {
		switch c.kind {
		case colDate, colValueDate:
			date = true
		case colAmount, colDebit, colCredit:
			amount = true
		case colNarration:
			narration = true
		}
	}
	return date && amount && narration
}

func nearestColumn(cols []column, x float64) columnKind {
	best, dist := colUnknown, math.MaxFloat64
	for _, c := range cols {
		if d := math.Abs(c.x - x); d < dist {
			best, dist = c.kind, d
		}
	}
	return best
}

// rowDraft reads a data row through the header's columns.
func rowDraft(r Row, cols []column, cfg *config) (draft, bool) {
	cells := map[columnKind][]string{}
	for _, c := range r.Cells {
		k := nearestColumn(cols, c.X)
		cells[k] = append(cells[k], strings.TrimSpace(c.Text))
	}
	get := func(k columnKind) string { return strings.Join(cells[k], " ") }

	var d draft
	date, ok := dateValue(get(colDate))
	if !ok {
		date, ok = dateValue(get(colValueDate))
	}
	if !ok {
		return draft{}, false
	}
	d.txn.ValueDate = date
	if vd, ok := dateValue(get(colValueDate)); ok {
		d.txn.ValueDate = vd
	}

	narration := get(colNarration)
	d.txn.Narration = narration
	d.txn.ID = strings.TrimSpace(get(colID))
	d.txn.Reference = strings.TrimSpace(get(colReference))
	if ts := get(colTimestamp); normalizer.IsTimestamp(ts) {
		d.txn.Timestamp = ts
	}
	if m, ok := normalizer.ParseMode(get(colMode)); ok {
		d.txn.Mode = m
	}

	debit, hasDebit := amountValue(get(colDebit))
	credit, hasCredit := amountValue(get(colCredit))
	amount, hasAmount := amountValue(get(colAmount))
	switch {
	case hasAmount:
		d.txn.Amount = amount
	case hasDebit && !isZero(debit):
		d.txn.Amount = debit
		d.txn.Type = model.TxnDebit
	case hasCredit && !isZero(credit):
		d.txn.Amount = credit
		d.txn.Type = model.TxnCredit
	default:
		return draft{}, false
	}

	if t, ok := explicitType(get(colType), cfg.investment); ok {
		d.txn.Type = t
	}
	if d.txn.Type == "" {
		d.txn.Type = keywordType(narration, cfg.investment)
	}

	if bal, ok := amountValue(get(colBalance)); ok {
		d.txn.RunningBalance = bal
		d.hasBalance = true
	}
	return d, true
}

func isZero(amount string) bool {
	return strings.Trim(amount, "0.") == ""
}
