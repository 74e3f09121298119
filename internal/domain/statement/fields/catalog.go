package fields

import (
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/model"
)

// Field names
const (
	FieldName          = "name"
	FieldDateOfBirth   = "dateOfBirth"
	FieldMobile        = "mobile"
	FieldEmail         = "email"
	FieldPAN           = "pan"
	FieldAddress       = "address"
	FieldNominee       = "nominee"
	FieldLandline      = "landline"
	FieldKYCStatus     = "kycStatus"
	FieldHolderType    = "holderType"
	FieldAccountNumber = "accountNumber"
	FieldFolioNumber   = "folioNumber"
	FieldDematID       = "dematId"
	FieldInstitution   = "institutionName"
	FieldLinkReference = "linkReferenceNumber"

	FieldCurrentBalance  = "currentBalance"
	FieldCurrency        = "currency"
	FieldAccountType     = "accountType"
	FieldBranch          = "branch"
	FieldIFSC            = "ifscCode"
	FieldMICR            = "micrCode"
	FieldOpeningDate     = "openingDate"
	FieldDrawingLimit    = "drawingLimit"
	FieldCurrentODLimit  = "currentODLimit"
	FieldStatus          = "status"
	FieldBalanceDateTime = "balanceDateTime"
	FieldFacility        = "facility"

	FieldCostValue    = "costValue"
	FieldCurrentValue = "currentValue"
	FieldNAV          = "nav"
	FieldNAVDate      = "navDate"
	FieldUnits        = "units"
	FieldISIN         = "isin"
	FieldSchemeCode   = "schemeCode"
	FieldSchemeName   = "schemeName"
	FieldAMC          = "amc"
)

// Shared sub-expressions. sep stays on one line so a label never captures
// the value printed under the next label.
const (
	sep       = `[ \t:]*(?:-[ \t]+)?`
	amountExp = `(\(?-?(?:₹|Rs\.?|INR)?[ \t]?-?\d[\d,]*(?:\.\d+)?\)?)`
	dateExp   = `(\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4}|\d{4}-\d{2}-\d{2}(?:T[\d:.]+Z?)?|\d{1,2}[- ]?[A-Za-z]{3,9}[- ,]*\d{2,4})`
	rupeeUnit = `(?:[ \t]*\((?:₹|rs\.?|inr)\))?`
	asOn      = `(?:[ \t]+(?:as[ \t]+)?on[ \t]+\S+)?`
	panExpr   = `\bpan(?:[ \t]*(?:no|number|card))?\.?` + sep + `([A-Z]{5}[0-9]{4}[A-Z])\b`
)

// standaloneCode matches an upper-case code printed as its own token on a
// line that does not start with a digit, so codes inside dated transaction
// narrations are never picked up.
func standaloneCode(capture string) string {
	return `(?m)^(?:[^0-9\n][^\n]*[ \t,|:])?(?-i:` + capture + `)(?:[ \t,|]|$)`
}

// PANPattern matches a labelled Permanent Account Number.
var PANPattern = NewPattern(FieldPAN, panExpr)

// Values holds extracted field values keyed by field name.
type Values map[string]string

// Get returns the value for field, or "".
func (v Values) Get(field string) string {
	return v[field]
}

// Catalog maps each instrument type to its ordered extraction rules. Common
// rules apply to every type and run first.
type Catalog struct {
	common []Rule
	byType map[model.InstrumentType][]Rule
}

// NewCatalog builds a catalog from rule tables.
func NewCatalog(common []Rule, byType map[model.InstrumentType][]Rule) *Catalog {
	if byType == nil {
		byType = map[model.InstrumentType][]Rule{}
	}
	return &Catalog{common: common, byType: byType}
}

// Rules returns the common rules followed by the rules for t.
func (c *Catalog) Rules(t model.InstrumentType) []Rule {
	rules := make([]Rule, 0, len(c.common)+len(c.byType[t]))
	rules = append(rules, c.common...)
	return append(rules, c.byType[t]...)
}

// Extract applies every rule for t to text. Every field of every rule is
// present in the result, holding the rule's default when nothing matched.
func (c *Catalog) Extract(text string, t model.InstrumentType) Values {
	rules := c.Rules(t)
	out := make(Values, len(rules))
	for _, r := range rules {
		out[r.Field] = r.Apply(text)
	}
	return out
}

// DefaultCatalog returns the rule table for Indian bank, demat and mutual
// fund statements.
func DefaultCatalog() *Catalog {
	investment := investmentRules()
	return NewCatalog(commonRules(), map[model.InstrumentType][]Rule{
		model.InstrumentDeposit:     depositRules(),
		model.InstrumentMutualFunds: investment,
		model.InstrumentEquities:    investment,
		model.InstrumentETF:         investment,
	})
}

func commonRules() []Rule {
	return []Rule{
		NewRule(FieldName, KindName, "",
			`(?m)^[ \t]*(?:account[ \t]+holder(?:'s)?[ \t]+name|customer[ \t]+name|holder[ \t]+name|investor[ \t]+name|first[ \t]+holder|name[ \t]+of[ \t]+(?:the[ \t]+)?(?:account[ \t]+)?holder|name)`+sep+`([^\n]+)`,
			`(?m)^[ \t]*(?:mr|mrs|ms|miss|dr)\.?[ \t]+([A-Za-z][A-Za-z .']+)$`,
		),
		NewRule(FieldDateOfBirth, KindDate, "",
			`\b(?:date[ \t]+of[ \t]+birth|d\.?o\.?b\.?)`+sep+dateExp,
		),
		NewRule(FieldMobile, KindDigits, "",
			`\b(?:mobile|mob|cell)(?:[ \t]*(?:no|number|num)\.?)?`+sep+`(\+?\d[\d \-]{8,14}\d)`,
		),
		NewRule(FieldEmail, KindText, "",
			`\be-?mail(?:[ \t]*(?:id|address))?`+sep+`([A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,})`,
			`\b([A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(?:\.[A-Za-z0-9\-]+)*\.[A-Za-z]{2,})\b`,
		),
		NewRule(FieldPAN, KindUpper, "",
			panExpr,
			`(?-i:\b([A-Z]{5}[0-9]{4}[A-Z])\b)`,
		),
		NewRule(FieldAddress, KindAddress, "",
			`(?m)^[ \t]*(?:(?:communication|registered|correspondence|mailing|residential)[ \t]+)?(?:address|addr\.?)(?:[ \t]+line[ \t]*1)?`+sep+`([^\n]+)`,
			`\b(?:communication|registered|correspondence|mailing|residential)[ \t]+address`+sep+`([^\n]+)`,
		),
		NewRule(FieldNominee, KindName, "",
			`\bnominee(?:[ \t]+(?:name|1))?`+sep+`([A-Za-z][^\n]*)`,
		),
		NewRule(FieldLandline, KindDigits, "",
			`\b(?:landline|telephone|tel|phone[ \t]*\(?(?:res|off|o|r)\)?)(?:[ \t]*(?:no|number)\.?)?`+sep+`(\+?\d[\d \-]{5,14}\d)`,
		),
		NewRule(FieldKYCStatus, KindUpper, "",
			`\bc?kyc(?:[ \t]+(?:status|compliance|compliant))?`+sep+`(verified|registered|compliant|validated|yes|no|true|false|pending|on[ \t]*hold|rejected)\b`,
		),
		NewRule(FieldHolderType, KindHolderType, string(model.HolderSingle),
			`\b(?:holder[ \t]*type|holding[ \t]+type|mode[ \t]+of[ \t]+(?:holding|operation)|account[ \t]+holding|type)`+sep+`(single|joint|individual|jointly|(?:either|anyone|former)[ \t]+or[ \t]+survivor)\b`,
		),
		NewRule(FieldAccountNumber, KindIdentifier, "",
			`\b(?:account|a/c|acct)\.?[ \t]*(?:no|number|num)\.?`+sep+`([A-Z0-9\-]*\d[A-Z0-9\-]*)`,
			`\baccount[ \t]*id`+sep+`([A-Z0-9\-]*\d[A-Z0-9\-]*)`,
		),
		NewRule(FieldFolioNumber, KindText, "",
			`\bfolio(?:[ \t]*(?:no|number))?\.?`+sep+`([A-Z0-9/\-]*\d[A-Z0-9/\-]*)`,
		),
		NewRule(FieldDematID, KindIdentifier, "",
			`\b(?:demat(?:[ \t]+account)?|bo|dp[ \t]*client|client)[ \t]*(?:id|no|number)\.?`+sep+`([A-Z]{0,2}\d{6,16}(?:[ \t]*\d{8})?)`,
		),
		NewRule(FieldInstitution, KindText, "",
			`(?m)^[ \t]*(?:bank[ \t]+name|name[ \t]+of[ \t]+(?:the[ \t]+)?bank|amc(?:[ \t]+name)?|depository(?:[ \t]+participant)?|dp[ \t]+name|broker(?:[ \t]+name)?|institution)[ \t]*[:\-][ \t]*([^\n]+)`,
		),
		NewRule(FieldLinkReference, KindText, "",
			`\blink[ \t]*ref(?:erence)?(?:[ \t]*(?:no|number))?\.?`+sep+`([A-Z0-9][A-Z0-9\-]{5,40})`,
		),
	}
}

func depositRules() []Rule {
	return []Rule{
		NewRule(FieldCurrentBalance, KindAmount, model.ZeroAmount,
			`\bcurrent[ \t]+balance`+asOn+sep+amountExp,
			`\bavailable[ \t]+balance`+asOn+sep+amountExp,
			`\bclosing[ \t]+balance`+asOn+sep+amountExp,
			`\bbalance[ \t]+as[ \t]+on[ \t]+\S+`+sep+amountExp,
		),
		NewRule(FieldCurrency, KindCurrency, "INR",
			`\bcurrency`+sep+`([A-Z]{3})\b`,
		),
		NewRule(FieldAccountType, KindAccountType, string(model.AccountSavings),
			`\b(?:account[ \t]+type|a/c[ \t]+type|type[ \t]+of[ \t]+account|product(?:[ \t]+type)?)`+sep+`(savings|saving|current|sb|ca)\b`,
			`\b(savings|current)[ \t]+(?:bank[ \t]+)?account\b`,
		),
		NewRule(FieldBranch, KindText, "",
			`\bbranch(?:[ \t]+(?:name|address))?[ \t]*[:\-][ \t]*([^\n]+)`,
			`(?m)^[ \t]*branch[ \t]+([A-Za-z][^\n]*)`,
		),
		NewRule(FieldIFSC, KindUpper, "",
			`\bifsc(?:[ \t]*code)?`+sep+`([A-Z]{4}0[A-Z0-9]{6})\b`,
			standaloneCode(`([A-Z]{4}0[A-Z0-9]{6})`),
		),
		NewRule(FieldMICR, KindDigits, "",
			`\bmicr(?:[ \t]*code)?`+sep+`(\d{9})\b`,
		),
		NewRule(FieldOpeningDate, KindDate, "",
			`\b(?:(?:account|a/c)[ \t]+)?open(?:ing)?[ \t]+date`+sep+dateExp,
			`\bdate[ \t]+of[ \t]+(?:account[ \t]+)?opening`+sep+dateExp,
		),
		NewRule(FieldDrawingLimit, KindAmount, model.ZeroAmount,
			`\bdrawing[ \t]+(?:power|limit)`+sep+amountExp,
		),
		NewRule(FieldCurrentODLimit, KindAmount, model.ZeroAmount,
			`\b(?:current[ \t]+)?od[ \t]+limit`+sep+amountExp,
		),
		NewRule(FieldStatus, KindAccountStatus, string(model.StatusActive),
			`\b(?:account[ \t]+)?status`+sep+`(active|inactive|dormant|operative|inoperative|closed|regular)\b`,
		),
		NewRule(FieldBalanceDateTime, KindText, "",
			`\bbalance[ \t]+date(?:[ \t]*time)?`+sep+`(\d{4}-\d{2}-\d{2}T[\d:.]+Z?)`,
		),
		NewRule(FieldFacility, KindUpper, "",
			`\bfacility`+sep+`(OD|CC|SOD|NONE|NA|overdraft|cash[ \t]+credit)\b`,
		),
	}
}

func investmentRules() []Rule {
	return []Rule{
		NewRule(FieldCostValue, KindAmount, model.ZeroAmount,
			`\b(?:total[ \t]+)?(?:cost[ \t]+value|invested[ \t]+(?:amount|value)|amount[ \t]+invested|total[ \t]+cost|purchase[ \t]+(?:value|cost)|total[ \t]+investment)`+rupeeUnit+sep+amountExp,
		),
		NewRule(FieldCurrentValue, KindAmount, model.ZeroAmount,
			`\b(?:total[ \t]+)?(?:current[ \t]+value|market[ \t]+value|valuation|portfolio[ \t]+value|holding[ \t]+value)`+asOn+rupeeUnit+sep+amountExp,
		),
		NewRule(FieldNAV, KindAmount, "",
			`\bnav`+rupeeUnit+asOn+sep+amountExp,
		),
		NewRule(FieldNAVDate, KindDate, "",
			`\bnav[ \t]+(?:date|as[ \t]+on|on)`+sep+dateExp,
		),
		NewRule(FieldUnits, KindAmount, "",
			`\b(?:closing[ \t]+)?(?:unit[ \t]+balance|units[ \t]+held|balance[ \t]+units|closing[ \t]+units|units|quantity|qty)`+sep+`(\d[\d,]*(?:\.\d+)?)`,
		),
		NewRule(FieldISIN, KindUpper, "",
			`\bisin(?:[ \t]*(?:code|no))?`+sep+`([A-Z]{2}[A-Z0-9]{9}\d)\b`,
			`\b(IN[EF][A-Z0-9]{8}\d)\b`,
		),
		NewRule(FieldSchemeCode, KindUpper, "",
			`\b(?:amfi|scheme|product)[ \t]*code`+sep+`([A-Z0-9]*\d[A-Z0-9]*)`,
		),
		NewRule(FieldSchemeName, KindText, "",
			`\bscheme(?:[ \t]+name)?[ \t]*[:\-][ \t]*([^\n]+)`,
			`\b(?:security|company|scrip|instrument|etf)[ \t]+name[ \t]*[:\-][ \t]*([^\n]+)`,
		),
		NewRule(FieldAMC, KindText, "",
			`\bamc(?:[ \t]+name)?[ \t]*[:\-][ \t]*([^\n]+)`,
			`(?m)^[ \t]*([A-Za-z][A-Za-z&. ]*?[ \t]+mutual[ \t]+fund)\b`,
		),
	}
}
