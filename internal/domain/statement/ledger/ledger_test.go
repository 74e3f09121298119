package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/model"
)

func TestExtract_SingleLine(t *testing.T) {
	text := "Name: Jane Doe\nPAN: ABCDE1234F\nCurrent Balance: 12,345.67\n01-02-2024 CREDIT UPI 500.00 12845.67 Salary"

	l := ExtractText(text)
	require.Len(t, l.Entries, 1)

	e := l.Entries[0]
	assert.Equal(t, model.TxnCredit, e.Type)
	assert.Equal(t, model.ModeUPI, e.Mode)
	assert.Equal(t, "500.00", e.Amount)
	assert.Equal(t, "12845.67", e.RunningBalance)
	assert.Equal(t, "2024-02-01", e.ValueDate)
	assert.Equal(t, "2024-02-01T12:00:00.000Z", e.Timestamp)
	assert.Equal(t, "Salary", e.Narration)
	assert.Equal(t, "100000000", e.ID)
	assert.False(t, l.RunningBalanceReconstructed)
	assert.Equal(t, "2024-02-01", l.StartDate)
	assert.Equal(t, "2024-02-01", l.EndDate)
}

func TestExtract_ReconstructsFromZero(t *testing.T) {
	lines := []string{
		"01-01-2024 Salary credit 100.00",
		"02-01-2024 ATM WDL 30.00",
		"03-01-2024 Refund received 5.00",
	}

	l := Extract(lines)
	require.Len(t, l.Entries, 3)
	assert.True(t, l.RunningBalanceReconstructed)

	assert.Equal(t, model.TxnCredit, l.Entries[0].Type)
	assert.Equal(t, model.TxnDebit, l.Entries[1].Type)
	assert.Equal(t, model.ModeATM, l.Entries[1].Mode)
	assert.Equal(t, model.TxnCredit, l.Entries[2].Type)

	var balances []string
	for _, e := range l.Entries {
		balances = append(balances, e.RunningBalance)
	}
	assert.Equal(t, []string{"100.00", "70.00", "75.00"}, balances)
}

func TestExtract_FillsGapsFromStatedBalances(t *testing.T) {
	lines := []string{
		"29-02-2024 DEBIT 100.00 opening fee",
		"01-03-2024 CREDIT FT 1000.00 2000.00 NEFT salary",
		"02-03-2024 DEBIT CASH 200.00 Cash withdrawal",
	}

	l := Extract(lines)
	require.Len(t, l.Entries, 3)
	assert.True(t, l.RunningBalanceReconstructed)
	assert.Equal(t, "1000.00", l.Entries[0].RunningBalance)
	assert.Equal(t, "2000.00", l.Entries[1].RunningBalance)
	assert.Equal(t, "1800.00", l.Entries[2].RunningBalance)
	assert.Equal(t, model.ModeCash, l.Entries[2].Mode)
	assert.Equal(t, "Cash withdrawal", l.Entries[2].Narration)
}

func TestExtract_StableSortByValueDate(t *testing.T) {
	lines := []string{
		"05-01-2024 CREDIT 10.00 20.00 third",
		"01-01-2024 CREDIT 1.00 1.00 first",
		"05-01-2024 CREDIT 5.00 25.00 fourth",
		"03-01-2024 CREDIT 9.00 10.00 second",
	}

	l := Extract(lines)
	require.Len(t, l.Entries, 4)

	var got []string
	for _, e := range l.Entries {
		got = append(got, e.Narration)
	}
	assert.Equal(t, []string{"first", "second", "third", "fourth"}, got)
	assert.Equal(t, "2024-01-01", l.StartDate)
	assert.Equal(t, "2024-01-05", l.EndDate)

	// sorting an ordered ledger changes nothing
	again := Extract([]string{lines[1], lines[3], lines[0], lines[2]})
	assert.Equal(t, l.Entries, again.Entries)
}

func TestExtract_HeaderSkipsPreamble(t *testing.T) {
	preamble := "Joined 01-01-2020 fee 500.00"
	row := "02-01-2024 NEFT payment 250.00 750.00"

	withHeader := Extract([]string{preamble, "Date Narration Withdrawal Deposit Balance", row})
	require.Len(t, withHeader.Entries, 1)
	assert.Equal(t, "250.00", withHeader.Entries[0].Amount)
	assert.Equal(t, "750.00", withHeader.Entries[0].RunningBalance)
	assert.Equal(t, model.ModeFT, withHeader.Entries[0].Mode)

	headerless := Extract([]string{preamble, row})
	assert.Len(t, headerless.Entries, 2)
}

func TestExtract_MultiLineRecords(t *testing.T) {
	lines := []string{
		"Transaction ID Type Mode Amount Balance Timestamp Value Date Narration",
		"M1234567 CREDIT UPI 500.00 1500.00 2024-02-01T10:15:00Z 2024-02-01 UPI/412345678901/grocer",
		"S7654321 DEBIT",
		"CARD 120.50",
		"1379.50",
		"2024-02-03T09:00:00Z",
		"2024-02-03",
		"POS AMAZON",
		"Page 1 of 1",
	}

	l := Extract(lines)
	require.Len(t, l.Entries, 2)
	assert.False(t, l.RunningBalanceReconstructed)

	first := l.Entries[0]
	assert.Equal(t, "M1234567", first.ID)
	assert.Equal(t, model.ModeUPI, first.Mode)
	assert.Equal(t, "2024-02-01T10:15:00Z", first.Timestamp)
	assert.Equal(t, "412345678901", first.Reference)

	second := l.Entries[1]
	assert.Equal(t, "S7654321", second.ID)
	assert.Equal(t, model.TxnDebit, second.Type)
	assert.Equal(t, model.ModeCard, second.Mode)
	assert.Equal(t, "120.50", second.Amount)
	assert.Equal(t, "1379.50", second.RunningBalance)
	assert.Equal(t, "2024-02-03T09:00:00Z", second.Timestamp)
	assert.Equal(t, "2024-02-03", second.ValueDate)
	assert.Equal(t, "POS AMAZON", second.Narration)
}

func TestExtract_MultiLineWithoutTypeIsRejected(t *testing.T) {
	l := Extract([]string{"M1234567 UPI 500.00"})
	assert.Empty(t, l.Entries)
}

func TestExtract_SkipsSummaryLines(t *testing.T) {
	lines := []string{
		"Statement Period: 01-01-2024 to 31-01-2024",
		"Opening Balance 01-01-2024 1,000.00",
		"15-01-2024 CREDIT 500.00 1500.00 Interest",
		"Closing Balance 31-01-2024 1,500.00",
		"Page 1 of 2",
	}

	l := Extract(lines)
	require.Len(t, l.Entries, 1)
	assert.Equal(t, "Interest", l.Entries[0].Narration)
	assert.Equal(t, "2024-01-01", l.StartDate)
	assert.Equal(t, "2024-01-31", l.EndDate)
}

func TestExtract_InvestmentTypes(t *testing.T) {
	line := []string{"05-02-2024 Purchase of units 5000.00"}

	assert.Equal(t, model.TxnBuy, Extract(line, WithInvestment(true)).Entries[0].Type)
	assert.Equal(t, model.TxnDebit, Extract(line).Entries[0].Type)

	sell := Extract([]string{"06-02-2024 SELL 1200.00 INFY"}, WithInvestment(true))
	require.Len(t, sell.Entries, 1)
	assert.Equal(t, model.TxnSell, sell.Entries[0].Type)

	switches := Extract([]string{
		"15-01-2024 Switch In from Liquid Fund 5,000.00 100.000",
		"16-01-2024 Switch Out to Gilt Fund 2,000.00 60.000",
	}, WithInvestment(true))
	require.Len(t, switches.Entries, 2)
	assert.Equal(t, model.TxnBuy, switches.Entries[0].Type)
	assert.Equal(t, model.TxnSell, switches.Entries[1].Type)
}

func TestExtract_SummaryWordsInNarration(t *testing.T) {
	lines := []string{
		"01-02-2024 UPI/TOTAL ENERGIES PUMP 500.00",
		"02-02-2024 POS NAV BHARAT STORES 120.00",
		"03-02-2024 NEFT rent for period Jan 1,000.00",
		"04-02-2024 POS Grocer 50.00",
		"Total 1,670.00",
		"NAV: 23.45",
	}

	l := Extract(lines)
	require.Len(t, l.Entries, 4)
	assert.Equal(t, "500.00", l.Entries[0].Amount)
	assert.Equal(t, "120.00", l.Entries[1].Amount)
	assert.Equal(t, "1000.00", l.Entries[2].Amount)
	assert.Equal(t, "50.00", l.Entries[3].Amount)
}

func TestExtract_MonthNameDates(t *testing.T) {
	lines := []string{
		"01 Feb 2024 CREDIT UPI 500.00 1500.00 Salary",
		"03 Feb 2024 ATM WDL 200.00 1300.00",
	}

	l := Extract(lines)
	require.Len(t, l.Entries, 2)
	assert.Equal(t, "2024-02-01", l.Entries[0].ValueDate)
	assert.Equal(t, model.TxnCredit, l.Entries[0].Type)
	assert.Equal(t, "Salary", l.Entries[0].Narration)
	assert.Equal(t, "2024-02-03", l.Entries[1].ValueDate)
	assert.Equal(t, "1300.00", l.Entries[1].RunningBalance)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"01 Feb 2024", "CREDIT", "500.00"}, tokenize("01 Feb 2024 CREDIT 500.00"))
	assert.Equal(t, []string{"12", "units", "24", "500.00", "Cr"}, tokenize("12 units 24 500.00Cr"))
}

func TestExtract_Options(t *testing.T) {
	l := Extract([]string{"01-01-2024 CREDIT 1.00 x", "02-01-2024 CREDIT 2.00 y"}, WithFirstID(42))
	require.Len(t, l.Entries, 2)
	assert.Equal(t, "42", l.Entries[0].ID)
	assert.Equal(t, "43", l.Entries[1].ID)
}

func TestExtract_Empty(t *testing.T) {
	l := Extract(nil)
	assert.Empty(t, l.Entries)
	assert.Equal(t, "", l.StartDate)
	assert.False(t, l.RunningBalanceReconstructed)
}

func TestExtractFragments(t *testing.T) {
	frags := []Fragment{
		{Text: "Date", X: 50, Y: 700, Page: 1},
		{Text: "Narration", X: 120, Y: 700, Page: 1},
		{Text: "Withdrawal", X: 300, Y: 700, Page: 1},
		{Text: "Deposit", X: 380, Y: 700, Page: 1},
		{Text: "Balance", X: 460, Y: 700, Page: 1},

		{Text: "01/02/2024", X: 50, Y: 680, Page: 1},
		{Text: "UPI/412345678901/shop", X: 120, Y: 680, Page: 1},
		{Text: "250.00", X: 300, Y: 681, Page: 1},
		{Text: "4,750.00", X: 460, Y: 680, Page: 1},

		{Text: "14,750.00", X: 461, Y: 660, Page: 1},
		{Text: "NEFT salary", X: 118, Y: 660, Page: 1},
		{Text: "10,000.00", X: 382, Y: 660, Page: 1},
		{Text: "02/02/2024", X: 50, Y: 660, Page: 1},
	}

	l := ExtractFragments(frags)
	require.Len(t, l.Entries, 2)

	assert.Equal(t, model.TxnDebit, l.Entries[0].Type)
	assert.Equal(t, "250.00", l.Entries[0].Amount)
	assert.Equal(t, "4750.00", l.Entries[0].RunningBalance)
	assert.Equal(t, model.ModeUPI, l.Entries[0].Mode)
	assert.Equal(t, "412345678901", l.Entries[0].Reference)

	assert.Equal(t, model.TxnCredit, l.Entries[1].Type)
	assert.Equal(t, "10000.00", l.Entries[1].Amount)
	assert.Equal(t, model.ModeFT, l.Entries[1].Mode)
	assert.Equal(t, "NEFT salary", l.Entries[1].Narration)
}

func TestGroupRows(t *testing.T) {
	rows := GroupRows([]Fragment{
		{Text: "b", X: 20, Y: 100, Page: 2},
		{Text: "a", X: 10, Y: 101.5, Page: 2},
		{Text: "top", X: 10, Y: 500, Page: 1},
		{Text: "low", X: 10, Y: 90, Page: 2},
	}, 0)

	require.Len(t, rows, 3)
	assert.Equal(t, "top", rows[0].Text())
	assert.Equal(t, "a b", rows[1].Text())
	assert.Equal(t, "low", rows[2].Text())
	assert.Nil(t, GroupRows(nil, 3))
}

func TestReference(t *testing.T) {
	tests := []struct {
		narration string
		want      string
	}{
		{"CHQ NO 123456 paid", "123456"},
		{"NEFT Ref No: abc1234567 vendor", "ABC1234567"},
		{"UPI/412345678901/grocer@okaxis", "412345678901"},
		{"Salary", ""},
	}
	for _, tt := range tests {
		t.Run(tt.narration, func(t *testing.T) {
			assert.Equal(t, tt.want, Reference(tt.narration))
		})
	}
}

func TestPeriod(t *testing.T) {
	start, end := Period("Statement Period: 01-Jan-2024 to 31-Jan-2024")
	assert.Equal(t, "2024-01-01", start)
	assert.Equal(t, "2024-01-31", end)

	start, end = Period("Start Date: 01/04/2023\nEnd Date: 31/03/2024")
	assert.Equal(t, "2023-04-01", start)
	assert.Equal(t, "2024-03-31", end)

	start, end = Period("nothing")
	assert.Empty(t, start)
	assert.Empty(t, end)
}

func TestIsHeader(t *testing.T) {
	assert.True(t, isHeader("Date Narration Chq./Ref.No. Value Dt Withdrawal Amt. Deposit Amt. Closing Balance"))
	assert.True(t, isHeader("Transaction Details"))
	assert.False(t, isHeader("Date 01-01-2024 Narration 500.00"))
	assert.False(t, isHeader("Account Holder Name: Jane"))
}
