package fixtures

import (
	"regexp"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/model"
)

func TestGenerator_Deterministic(t *testing.T) {
	a := New(7).Deposit(5)
	b := New(7).Deposit(5)
	assert.Equal(t, a.Text, b.Text)
	assert.NotEqual(t, a.Text, New(8).Deposit(5).Text)
}

func TestGenerator_Deposit(t *testing.T) {
	st := New(1).Deposit(6)

	assert.Equal(t, model.InstrumentDeposit, st.Type)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z]{5}\d{4}[A-Z]$`), st.PAN)
	assert.Len(t, st.AccountNumber, 14)
	require.Len(t, st.Transactions, 6)
	assert.Contains(t, st.Text, "Account Holder Name: "+st.Holder)

	for _, txn := range st.Transactions {
		assert.True(t, txn.Amount.IsPositive())
		assert.False(t, txn.Balance.IsNegative())
	}
	assert.Equal(t, st.Transactions[5].Balance.StringFixed(2), st.Balance)
}

func TestGenerator_MutualFund(t *testing.T) {
	st := New(3).MutualFund()
	assert.Equal(t, model.InstrumentMutualFunds, st.Type)
	assert.Contains(t, st.Text, "Folio No: "+st.AccountNumber)
	assert.True(t, strings.HasPrefix(Banner(st), st.Institution+" - Mutual Funds - "))
}

func TestGrouped(t *testing.T) {
	tests := map[string]string{
		"0":         "0.00",
		"999.5":     "999.50",
		"1000":      "1,000.00",
		"1234567.8": "1,234,567.80",
		"-12345":    "-12,345.00",
	}
	for in, want := range tests {
		assert.Equal(t, want, grouped(decimal.RequireFromString(in)), in)
	}
}
