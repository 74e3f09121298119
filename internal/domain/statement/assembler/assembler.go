// Package assembler merges classifier output, extracted fields and the
// transaction ledger into one schema-complete account record.
package assembler

import (
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/fields"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/model"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/normalizer"
	"github.com/FACorreiaa/fi-statement-converter/pkg/money"
)

type options struct {
	institution   string
	accountID     string
	linkReference string
	fallback      fields.Values
	holdings      []model.Holding
}

// Option overrides a part of the assembled record.
type Option func(*options)

// WithInstitution sets the institution name, e.g. from a banner or the
// classifier.
func WithInstitution(name string) Option {
	return func(o *options) { o.institution = name }
}

// WithAccountID sets the raw account, folio or demat id to be masked.
func WithAccountID(id string) Option {
	return func(o *options) { o.accountID = id }
}

// WithLinkReference sets the link reference number.
func WithLinkReference(ref string) Option {
	return func(o *options) { o.linkReference = ref }
}

// WithFallback supplies holder values used when the account's own text
// does not carry them, e.g. the preamble of a multi-account statement.
func WithFallback(v fields.Values) Option {
	return func(o *options) { o.fallback = v }
}

// WithHoldings sets the holdings of an investment account.
func WithHoldings(h []model.Holding) Option {
	return func(o *options) { o.holdings = h }
}

// Assemble builds the account record for type t. Absent values take their
// schema defaults; nothing in the result is nil.
func Assemble(t model.InstrumentType, values fields.Values, ledger model.TransactionLedger, opts ...Option) model.AccountRecord {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if !t.Valid() {
		t = model.InstrumentDeposit
	}
	if values == nil {
		values = fields.Values{}
	}

	account := normalizer.Coalesce(o.accountID, accountID(t, values))

	if ledger.Entries == nil {
		ledger.Entries = []model.Transaction{}
	}

	return model.AccountRecord{
		LinkReferenceNumber: normalizer.Coalesce(o.linkReference, values.Get(fields.FieldLinkReference)),
		MaskedAccountNumber: normalizer.Mask(account),
		InstrumentType:      t,
		InstitutionName:     normalizer.Coalesce(o.institution, values.Get(fields.FieldInstitution)),
		Profile:             profile(values, o.fallback),
		Summary:             summary(t, values, o.holdings),
		Transactions:        ledger,
	}
}

// accountID picks the identifier that best names an account of type t.
func accountID(t model.InstrumentType, v fields.Values) string {
	switch t {
	case model.InstrumentMutualFunds:
		return normalizer.Coalesce(v.Get(fields.FieldFolioNumber), v.Get(fields.FieldAccountNumber))
	case model.InstrumentEquities, model.InstrumentETF:
		return normalizer.Coalesce(v.Get(fields.FieldDematID), v.Get(fields.FieldAccountNumber), v.Get(fields.FieldFolioNumber))
	}
	return v.Get(fields.FieldAccountNumber)
}

func profile(v, fallback fields.Values) model.HolderProfile {
	get := func(field string) string {
		return normalizer.Coalesce(v.Get(field), fallback.Get(field))
	}

	p := model.DefaultProfile()
	if v.Get(fields.FieldHolderType) == string(model.HolderJoint) ||
		fallback.Get(fields.FieldHolderType) == string(model.HolderJoint) {
		p.HolderType = model.HolderJoint
	}

	h := &p.Holders[0]
	h.Name = get(fields.FieldName)
	h.DateOfBirth = get(fields.FieldDateOfBirth)
	h.Mobile = get(fields.FieldMobile)
	h.Email = get(fields.FieldEmail)
	h.PAN = get(fields.FieldPAN)
	h.Address = get(fields.FieldAddress)
	h.Nominee = get(fields.FieldNominee)
	h.Landline = get(fields.FieldLandline)
	h.KYCStatus = get(fields.FieldKYCStatus)
	h.DematID = get(fields.FieldDematID)
	h.FolioNumber = get(fields.FieldFolioNumber)
	return p
}

func summary(t model.InstrumentType, v fields.Values, holdings []model.Holding) model.AccountSummary {
	set := func(dst *string, field string) {
		if val := v.Get(field); val != "" {
			*dst = val
		}
	}

	s := model.DefaultSummary(t)
	if d := s.Deposit; d != nil {
		set(&d.CurrentBalance, fields.FieldCurrentBalance)
		set(&d.Currency, fields.FieldCurrency)
		set(&d.Branch, fields.FieldBranch)
		set(&d.IFSCCode, fields.FieldIFSC)
		set(&d.MICRCode, fields.FieldMICR)
		set(&d.OpeningDate, fields.FieldOpeningDate)
		set(&d.DrawingLimit, fields.FieldDrawingLimit)
		set(&d.BalanceDateTime, fields.FieldBalanceDateTime)
		set(&d.Facility, fields.FieldFacility)
		set(&d.CurrentODLimit, fields.FieldCurrentODLimit)
		if at := v.Get(fields.FieldAccountType); at != "" {
			d.AccountType = model.AccountType(at)
		}
		if st := v.Get(fields.FieldStatus); st != "" {
			d.Status = model.AccountStatus(st)
		}
		return s
	}

	inv := s.Investment
	if holdings != nil {
		inv.Holdings = holdings
	}
	for i := range inv.Holdings {
		if inv.Holdings[i].AMC == "" {
			inv.Holdings[i].AMC = v.Get(fields.FieldAMC)
		}
	}

	set(&inv.CostValue, fields.FieldCostValue)
	set(&inv.CurrentValue, fields.FieldCurrentValue)
	if isZero(inv.CurrentValue) {
		if total, ok := marketValue(inv.Holdings); ok {
			inv.CurrentValue = total
		}
	}
	return s
}

// marketValue sums units times price over holdings that state both.
func marketValue(holdings []model.Holding) (string, bool) {
	total := decimal.Zero
	priced := false
	for _, h := range holdings {
		units, err := money.ParseDecimal(h.Units)
		if err != nil {
			continue
		}
		price, err := money.ParseDecimal(h.Price)
		if err != nil {
			continue
		}
		total = total.Add(units.Mul(price))
		priced = true
	}
	if !priced {
		return "", false
	}
	return money.Fixed(total), true
}

func isZero(amount string) bool {
	d, err := money.ParseDecimal(amount)
	return err != nil || d.IsZero()
}
