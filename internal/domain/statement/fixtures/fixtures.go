// Package fixtures generates synthetic statement text with gofakeit for
// tests. Every generated statement carries the values an extractor is
// expected to recover from it.
package fixtures

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/model"
)

// Generator produces statements from a seeded faker.
type Generator struct {
	faker *gofakeit.Faker
	month time.Time
}

// New creates a generator. The same seed yields the same statements.
func New(seed int64) *Generator {
	return &Generator{
		faker: gofakeit.New(seed),
		month: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Txn is one generated ledger line.
type Txn struct {
	Date      time.Time
	Type      model.TransactionType
	Mode      model.Mode
	Amount    decimal.Decimal
	Balance   decimal.Decimal
	Narration string
}

// Statement is generated text plus the values it encodes.
type Statement struct {
	Text          string
	Type          model.InstrumentType
	Institution   string
	Holder        string
	PAN           string
	AccountNumber string
	Balance       string
	Transactions  []Txn
}

var banks = []string{"HDFC Bank", "ICICI Bank", "State Bank of India", "Axis Bank", "Kotak Mahindra Bank"}

var amcs = []string{"ICICI Prudential", "Nippon India", "Aditya Birla Sun Life", "Franklin Templeton"}

var schemes = []string{"Bluechip Fund", "Flexi Cap Fund", "Small Cap Fund", "Balanced Advantage Fund", "Liquid Fund"}

var firstNames = []string{"Aarav", "Ananya", "Rohan", "Priya", "Vikram", "Meera", "Arjun", "Kavya", "Rahul", "Sneha"}

var lastNames = []string{"Sharma", "Iyer", "Patel", "Reddy", "Gupta", "Nair", "Menon", "Kulkarni", "Joshi", "Bose"}

var narrations = map[model.Mode][]string{
	model.ModeUPI:  {"Grocery store", "Mobile recharge", "Dinner with friends", "Rent share"},
	model.ModeATM:  {"Cash withdrawal"},
	model.ModeCard: {"Online shopping", "Fuel station", "Pharmacy"},
	model.ModeFT:   {"Salary", "Transfer to savings", "Electricity bill", "Insurance premium"},
}

var modes = []model.Mode{model.ModeUPI, model.ModeATM, model.ModeCard, model.ModeFT}

var modeTokens = map[model.Mode][]string{
	model.ModeUPI:  {"UPI"},
	model.ModeATM:  {"ATM"},
	model.ModeCard: {"CARD", "POS"},
	model.ModeFT:   {"NEFT", "IMPS", "RTGS"},
}

// Deposit generates a savings account statement with n transactions in
// single-line layout. Transaction dates are deliberately unordered.
func (g *Generator) Deposit(n int) Statement {
	st := Statement{
		Type:          model.InstrumentDeposit,
		Institution:   g.faker.RandomString(banks),
		Holder:        g.name(),
		PAN:           g.pan(),
		AccountNumber: g.faker.Numerify("5010##########"),
	}

	balance := decimal.New(int64(g.faker.Number(1000000, 50000000)), -2)

	var ledger strings.Builder
	ledger.WriteString("Date Type Mode Amount Balance Narration\n")
	for range n {
		txn := g.txn(balance)
		balance = txn.Balance
		st.Transactions = append(st.Transactions, txn)
		fmt.Fprintf(&ledger, "%s %s %s %s %s %s\n",
			txn.Date.Format("02-01-2006"),
			txn.Type,
			g.faker.RandomString(modeTokens[txn.Mode]),
			grouped(txn.Amount),
			grouped(txn.Balance),
			txn.Narration,
		)
	}
	st.Balance = balance.StringFixed(2)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\nSavings Account Statement\n", st.Institution)
	fmt.Fprintf(&b, "Account Holder Name: %s\n", st.Holder)
	fmt.Fprintf(&b, "Account Number: %s\n", st.AccountNumber)
	fmt.Fprintf(&b, "PAN: %s\n", st.PAN)
	fmt.Fprintf(&b, "Email: %s\n", g.email(st.Holder))
	fmt.Fprintf(&b, "Current Balance: %s\n", grouped(balance))
	fmt.Fprintf(&b, "Statement Period: %s to %s\n",
		g.month.Format("02-01-2006"), g.month.AddDate(0, 1, -1).Format("02-01-2006"))
	b.WriteString(ledger.String())
	b.WriteString("Page 1 of 1\n")
	st.Text = b.String()
	return st
}

// MutualFund generates a consolidated account statement for one folio.
func (g *Generator) MutualFund() Statement {
	amc := g.faker.RandomString(amcs)
	st := Statement{
		Type:          model.InstrumentMutualFunds,
		Institution:   amc,
		Holder:        g.name(),
		PAN:           g.pan(),
		AccountNumber: g.faker.Numerify("#######/##"),
	}

	units := decimal.New(int64(g.faker.Number(10000, 9999999)), -3)
	nav := decimal.New(int64(g.faker.Number(1000, 99999)), -2)
	st.Balance = units.Mul(nav).StringFixed(2)

	var b strings.Builder
	fmt.Fprintf(&b, "%s Mutual Fund\n", amc)
	fmt.Fprintf(&b, "Investor Name: %s\n", st.Holder)
	fmt.Fprintf(&b, "PAN: %s\n", st.PAN)
	fmt.Fprintf(&b, "Folio No: %s\n", st.AccountNumber)
	fmt.Fprintf(&b, "Scheme Name: %s %s - Growth\n", amc, g.faker.RandomString(schemes))
	fmt.Fprintf(&b, "Units: %s\n", units.StringFixed(3))
	fmt.Fprintf(&b, "NAV: %s\n", nav.StringFixed(2))
	st.Text = b.String()
	return st
}

// Banner returns the line that introduces st in a multi-account document.
func Banner(st Statement) string {
	kind := "Deposit"
	if st.Type == model.InstrumentMutualFunds {
		kind = "Mutual Funds"
	}
	return fmt.Sprintf("%s - %s - %s", st.Institution, kind, st.AccountNumber)
}

func (g *Generator) txn(prev decimal.Decimal) Txn {
	mode := modes[g.faker.Number(0, len(modes)-1)]
	typ := model.TxnDebit
	if mode == model.ModeFT && g.faker.Bool() {
		typ = model.TxnCredit
	}

	amount := decimal.New(int64(g.faker.Number(100, 2500000)), -2)
	if amount.GreaterThan(prev) {
		typ = model.TxnCredit
	}
	balance := prev.Sub(amount)
	if typ == model.TxnCredit {
		balance = prev.Add(amount)
	}

	return Txn{
		Date:      g.month.AddDate(0, 0, g.faker.Number(0, 27)),
		Type:      typ,
		Mode:      mode,
		Amount:    amount,
		Balance:   balance,
		Narration: g.faker.RandomString(narrations[mode]),
	}
}

func (g *Generator) name() string {
	return g.faker.RandomString(firstNames) + " " + g.faker.RandomString(lastNames)
}

func (g *Generator) email(name string) string {
	local := strings.ToLower(strings.ReplaceAll(name, " ", "."))
	return local + "@" + g.faker.DomainName()
}

func (g *Generator) pan() string {
	return g.faker.Regex(`[A-Z]{5}[0-9]{4}[A-Z]`)
}

// grouped formats d with two decimals and comma thousands separators.
func grouped(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}
