// Package model defines the normalized Account Aggregator record produced by
// the statement extractor. Every field is always present in the JSON output.
package model

import (
	"encoding/json"
)

// SchemaVersion is the version stamped on every normalized record.
const SchemaVersion = "1.21.0"

// Record status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ZeroAmount is the default for every monetary field.
const ZeroAmount = "0.00"

// InstrumentType is the financial instrument category of an account.
type InstrumentType string

const (
	InstrumentDeposit     InstrumentType = "DEPOSIT"
	InstrumentEquities    InstrumentType = "EQUITIES"
	InstrumentMutualFunds InstrumentType = "MUTUAL_FUNDS"
	InstrumentETF         InstrumentType = "ETF"
)

// InstrumentTypes lists every instrument type in classifier priority order.
var InstrumentTypes = []InstrumentType{
	InstrumentDeposit,
	InstrumentMutualFunds,
	InstrumentEquities,
	InstrumentETF,
}

// IsInvestment reports whether the type carries an investment summary.
func (t InstrumentType) IsInvestment() bool {
	return t == InstrumentEquities || t == InstrumentMutualFunds || t == InstrumentETF
}

// Valid reports whether t is a known instrument type.
func (t InstrumentType) Valid() bool {
	switch t {
	case InstrumentDeposit, InstrumentEquities, InstrumentMutualFunds, InstrumentETF:
		return true
	}
	return false
}

type HolderType string

const (
	HolderSingle HolderType = "SINGLE"
	HolderJoint  HolderType = "JOINT"
)

type AccountType string

const (
	AccountSavings AccountType = "SAVINGS"
	AccountCurrent AccountType = "CURRENT"
)

type AccountStatus string

const (
	StatusActive   AccountStatus = "ACTIVE"
	StatusInactive AccountStatus = "INACTIVE"
	StatusDormant  AccountStatus = "DORMANT"
)

// TransactionType carries the sign of a transaction amount.
type TransactionType string

const (
	TxnCredit TransactionType = "CREDIT"
	TxnDebit  TransactionType = "DEBIT"
	TxnBuy    TransactionType = "BUY"
	TxnSell   TransactionType = "SELL"
)

// Inflow reports whether the transaction increases the balance.
func (t TransactionType) Inflow() bool {
	return t == TxnCredit || t == TxnSell
}

// Mode is the payment channel of a transaction.
type Mode string

const (
	ModeUPI    Mode = "UPI"
	ModeATM    Mode = "ATM"
	ModeCash   Mode = "CASH"
	ModeCard   Mode = "CARD"
	ModeFT     Mode = "FT"
	ModeCheque Mode = "CHEQUE"
	ModeOthers Mode = "OTHERS"
)

// NormalizedRecord is the top-level output of one extraction.
type NormalizedRecord struct {
	Version  string          `json:"version"`
	Status   string          `json:"status"`
	Error    string          `json:"error,omitempty"`
	Accounts []AccountRecord `json:"accounts"`
}

// NewRecord returns a successful record holding the given accounts.
func NewRecord(accounts ...AccountRecord) *NormalizedRecord {
	if accounts == nil {
		accounts = []AccountRecord{}
	}
	return &NormalizedRecord{
		Version:  SchemaVersion,
		Status:   StatusSuccess,
		Accounts: accounts,
	}
}

// ErrorRecord returns a record flagged with status "error".
func ErrorRecord(err error) *NormalizedRecord {
	rec := NewRecord()
	rec.Status = StatusError
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}

// AccountRecord is one account found in a statement.
type AccountRecord struct {
	LinkReferenceNumber string            `json:"linkReferenceNumber"`
	MaskedAccountNumber string            `json:"maskedAccountNumber"`
	InstrumentType      InstrumentType    `json:"instrumentType"`
	InstitutionName     string            `json:"institutionName"`
	Profile             HolderProfile     `json:"profile"`
	Summary             AccountSummary    `json:"summary"`
	Transactions        TransactionLedger `json:"transactions"`
}

type HolderProfile struct {
	HolderType HolderType `json:"holderType"`
	Holders    []Holder   `json:"holders"`
}

// Holder is one account holder. DematID and FolioNumber are only populated
// for investment accounts.
type Holder struct {
	Name        string `json:"name"`
	DateOfBirth string `json:"dateOfBirth"`
	Mobile      string `json:"mobile"`
	Email       string `json:"email"`
	PAN         string `json:"pan"`
	Address     string `json:"address"`
	Nominee     string `json:"nominee"`
	Landline    string `json:"landline"`
	KYCStatus   string `json:"kycStatus"`
	DematID     string `json:"dematId"`
	FolioNumber string `json:"folioNumber"`
}

// DepositSummary is the summary variant for DEPOSIT accounts.
type DepositSummary struct {
	CurrentBalance  string        `json:"currentBalance"`
	Currency        string        `json:"currency"`
	AccountType     AccountType   `json:"accountType"`
	Branch          string        `json:"branch"`
	IFSCCode        string        `json:"ifscCode"`
	MICRCode        string        `json:"micrCode"`
	OpeningDate     string        `json:"openingDate"`
	DrawingLimit    string        `json:"drawingLimit"`
	Status          AccountStatus `json:"status"`
	BalanceDateTime string        `json:"balanceDateTime"`
	Facility        string        `json:"facility"`
	CurrentODLimit  string        `json:"currentODLimit"`
}

// InvestmentSummary is the summary variant for EQUITIES, MUTUAL_FUNDS and ETF.
type InvestmentSummary struct {
	CostValue    string    `json:"costValue"`
	CurrentValue string    `json:"currentValue"`
	Holdings     []Holding `json:"holdings"`
}

type Holding struct {
	Identifier  string `json:"identifier"`
	Units       string `json:"units"`
	Price       string `json:"price"`
	SchemeName  string `json:"schemeName"`
	ISIN        string `json:"isin"`
	AMC         string `json:"amc"`
	NAVDate     string `json:"navDate"`
	FolioNumber string `json:"folioNumber"`
}

// AccountSummary holds exactly one of the two summary variants.
type AccountSummary struct {
	Deposit    *DepositSummary
	Investment *InvestmentSummary
}

// MarshalJSON emits the fields of whichever variant is set.
func (s AccountSummary) MarshalJSON() ([]byte, error) {
	switch {
	case s.Investment != nil:
		inv := *s.Investment
		if inv.Holdings == nil {
			inv.Holdings = []Holding{}
		}
		return json.Marshal(inv)
	case s.Deposit != nil:
		return json.Marshal(s.Deposit)
	default:
		return json.Marshal(DefaultDepositSummary())
	}
}

// UnmarshalJSON picks the variant from the keys present.
func (s *AccountSummary) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if _, ok := probe["holdings"]; ok {
		var inv InvestmentSummary
		if err := json.Unmarshal(data, &inv); err != nil {
			return err
		}
		s.Investment, s.Deposit = &inv, nil
		return nil
	}
	var dep DepositSummary
	if err := json.Unmarshal(data, &dep); err != nil {
		return err
	}
	s.Deposit, s.Investment = &dep, nil
	return nil
}

// TransactionLedger is the ordered list of transactions for one account.
type TransactionLedger struct {
	StartDate                   string        `json:"startDate"`
	EndDate                     string        `json:"endDate"`
	Entries                     []Transaction `json:"entries"`
	RunningBalanceReconstructed bool          `json:"runningBalanceReconstructed"`
}

type Transaction struct {
	ID             string          `json:"id"`
	Type           TransactionType `json:"type"`
	Mode           Mode            `json:"mode"`
	Amount         string          `json:"amount"`
	RunningBalance string          `json:"runningBalance"`
	ValueDate      string          `json:"valueDate"`
	Timestamp      string          `json:"timestamp"`
	Narration      string          `json:"narration"`
	Reference      string          `json:"reference"`
}

// DefaultHolder returns a holder with every field empty.
func DefaultHolder() Holder {
	return Holder{}
}

// DefaultProfile returns a SINGLE profile with one empty holder.
func DefaultProfile() HolderProfile {
	return HolderProfile{
		HolderType: HolderSingle,
		Holders:    []Holder{DefaultHolder()},
	}
}

func DefaultDepositSummary() *DepositSummary {
	return &DepositSummary{
		CurrentBalance: ZeroAmount,
		Currency:       "INR",
		AccountType:    AccountSavings,
		DrawingLimit:   ZeroAmount,
		Status:         StatusActive,
		CurrentODLimit: ZeroAmount,
	}
}

func DefaultInvestmentSummary() *InvestmentSummary {
	return &InvestmentSummary{
		CostValue:    ZeroAmount,
		CurrentValue: ZeroAmount,
		Holdings:     []Holding{},
	}
}

// DefaultSummary returns the all-default summary variant for t.
func DefaultSummary(t InstrumentType) AccountSummary {
	if t.IsInvestment() {
		return AccountSummary{Investment: DefaultInvestmentSummary()}
	}
	return AccountSummary{Deposit: DefaultDepositSummary()}
}

// EmptyLedger returns a ledger with no entries.
func EmptyLedger() TransactionLedger {
	return TransactionLedger{Entries: []Transaction{}}
}
