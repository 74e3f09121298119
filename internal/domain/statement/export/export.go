// Package export renders normalized records as downloadable files.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/model"
	"github.com/FACorreiaa/fi-statement-converter/pkg/money"
)

// ErrUnsupportedFormat is returned for unknown export formats.
var ErrUnsupportedFormat = errors.New("unsupported export format")

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts a format name in any case; empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/json"
}

// Extension returns the file extension of the format, with the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// LedgerRow is one transaction flattened with its account context.
type LedgerRow struct {
	LinkReference  string `csv:"link_reference"`
	Account        string `csv:"masked_account"`
	Institution    string `csv:"institution"`
	InstrumentType string `csv:"instrument_type"`
	ID             string `csv:"id"`
	ValueDate      string `csv:"value_date"`
	Timestamp      string `csv:"timestamp"`
	Type           string `csv:"type"`
	Mode           string `csv:"mode"`
	Amount         string `csv:"amount"`
	RunningBalance string `csv:"running_balance"`
	Reference      string `csv:"reference"`
	Narration      string `csv:"narration"`
}

// Rows flattens every account's transactions in record order.
func Rows(rec *model.NormalizedRecord) []LedgerRow {
	rows := []LedgerRow{}
	if rec == nil {
		return rows
	}
	for _, acc := range rec.Accounts {
		for _, e := range acc.Transactions.Entries {
			rows = append(rows, LedgerRow{
				LinkReference:  acc.LinkReferenceNumber,
				Account:        acc.MaskedAccountNumber,
				Institution:    acc.InstitutionName,
				InstrumentType: string(acc.InstrumentType),
				ID:             e.ID,
				ValueDate:      e.ValueDate,
				Timestamp:      e.Timestamp,
				Type:           string(e.Type),
				Mode:           string(e.Mode),
				Amount:         e.Amount,
				RunningBalance: e.RunningBalance,
				Reference:      e.Reference,
				Narration:      e.Narration,
			})
		}
	}
	return rows
}

// Write renders rec in the given format.
func Write(w io.Writer, rec *model.NormalizedRecord, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	case FormatCSV:
		return WriteCSV(w, rec)
	case FormatXLSX:
		return WriteXLSX(w, rec)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// WriteCSV writes the flattened ledger with a header row.
func WriteCSV(w io.Writer, rec *model.NormalizedRecord) error {
	rows := Rows(rec)
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

const (
	accountsSheet     = "Accounts"
	transactionsSheet = "Transactions"
)

var accountHeaders = []any{
	"Link Reference", "Masked Account", "Instrument Type", "Institution",
	"Holder", "PAN", "Balance / Value", "Currency", "Transactions",
	"Start Date", "End Date", "Balance Reconstructed",
}

var transactionHeaders = []any{
	"Link Reference", "Masked Account", "Institution", "Instrument Type",
	"ID", "Value Date", "Timestamp", "Type", "Mode", "Amount",
	"Running Balance", "Reference", "Narration",
}

// WriteXLSX writes a workbook with an account summary sheet and a
// transactions sheet. Amounts are stored as numbers.
func WriteXLSX(w io.Writer, rec *model.NormalizedRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", accountsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(transactionsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := writeRow(f, accountsSheet, 1, accountHeaders); err != nil {
		return err
	}
	if err := f.SetRowStyle(accountsSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	var accounts []model.AccountRecord
	if rec != nil {
		accounts = rec.Accounts
	}
	for i, acc := range accounts {
		holder := model.DefaultHolder()
		if len(acc.Profile.Holders) > 0 {
			holder = acc.Profile.Holders[0]
		}
		value, currency := headline(acc)
		row := []any{
			acc.LinkReferenceNumber, acc.MaskedAccountNumber, string(acc.InstrumentType), acc.InstitutionName,
			holder.Name, holder.PAN, numeric(value), currency, len(acc.Transactions.Entries),
			acc.Transactions.StartDate, acc.Transactions.EndDate, acc.Transactions.RunningBalanceReconstructed,
		}
		if err := writeRow(f, accountsSheet, i+2, row); err != nil {
			return err
		}
	}
	if len(accounts) > 0 {
		if err := f.SetCellStyle(accountsSheet, "G2", fmt.Sprintf("G%d", len(accounts)+1), amount); err != nil {
			return fmt.Errorf("failed to style amounts: %w", err)
		}
	}

	if err := writeRow(f, transactionsSheet, 1, transactionHeaders); err != nil {
		return err
	}
	if err := f.SetRowStyle(transactionsSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	rows := Rows(rec)
	for i, r := range rows {
		row := []any{
			r.LinkReference, r.Account, r.Institution, r.InstrumentType,
			r.ID, r.ValueDate, r.Timestamp, r.Type, r.Mode, numeric(r.Amount),
			numeric(r.RunningBalance), r.Reference, r.Narration,
		}
		if err := writeRow(f, transactionsSheet, i+2, row); err != nil {
			return err
		}
	}
	if len(rows) > 0 {
		if err := f.SetCellStyle(transactionsSheet, "J2", fmt.Sprintf("K%d", len(rows)+1), amount); err != nil {
			return fmt.Errorf("failed to style amounts: %w", err)
		}
	}

	if err := f.SetColWidth(transactionsSheet, "M", "M", 48); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, n int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, n, err)
	}
	return nil
}

func headline(acc model.AccountRecord) (string, string) {
	switch {
	case acc.Summary.Investment != nil:
		return acc.Summary.Investment.CurrentValue, "INR"
	case acc.Summary.Deposit != nil:
		return acc.Summary.Deposit.CurrentBalance, acc.Summary.Deposit.Currency
	}
	return model.ZeroAmount, "INR"
}

// numeric converts a decimal string to a float for spreadsheet cells,
// keeping the text when it does not parse.
func numeric(s string) any {
	d, err := money.ParseDecimal(s)
	if err != nil {
		return s
	}
	return d.InexactFloat64()
}
