package classifier

import "github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/model"

// Indicator weights
const (
	KeywordWeight     = 10
	InstitutionWeight = 20
)

// IndicatorSet is the scoring vocabulary for one instrument type.
type IndicatorSet struct {
	Type         model.InstrumentType `json:"type"`
	Priority     int                  `json:"priority"`
	Keywords     []string             `json:"keywords"`
	Institutions []string             `json:"institutions"`
}

// Institution is a display name plus the lower-case aliases that identify it.
type Institution struct {
	Name    string               `json:"name"`
	Type    model.InstrumentType `json:"type"`
	Aliases []string             `json:"aliases"`
}

// DefaultIndicators returns the weighted vocabulary, in priority order.
func DefaultIndicators() []IndicatorSet {
	return []IndicatorSet{
		{
			Type:     model.InstrumentDeposit,
			Priority: 1,
			Keywords: []string{
				"savings account", "current account", "bank statement", "account summary",
				"deposit account", "ifsc", "branch", "cheque",
			},
			Institutions: []string{
				"sbi", "hdfc", "icici", "axis", "kotak", "pnb", "bank of baroda",
				"canara", "union bank", "bank",
			},
		},
		{
			Type:     model.InstrumentMutualFunds,
			Priority: 2,
			Keywords: []string{
				"mutual fund", "folio", "nav", "units", "scheme", "amc", "fund house",
				"systematic", "redemption", "switch",
			},
			Institutions: []string{
				"hdfc mutual", "icici prudential", "sbi mutual", "axis mutual",
				"kotak mutual", "aditya birla", "nippon", "franklin",
			},
		},
		{
			Type:     model.InstrumentEquities,
			Priority: 3,
			Keywords: []string{
				"demat", "shares", "equity", "stock", "securities", "depository",
				"cdsl", "nsdl", "isin", "trading",
			},
			Institutions: []string{
				"zerodha", "upstox", "groww", "angel", "icici direct",
				"hdfc securities", "kotak securities",
			},
		},
		{
			Type:     model.InstrumentETF,
			Priority: 4,
			Keywords: []string{
				"etf", "exchange traded fund", "index fund", "nifty", "sensex",
				"gold etf", "liquid etf",
			},
			Institutions: []string{},
		},
	}
}

// DefaultInstitutions returns the known institutions with their display names.
func DefaultInstitutions() []Institution {
	dep := model.InstrumentDeposit
	mf := model.InstrumentMutualFunds
	eq := model.InstrumentEquities
	etf := model.InstrumentETF

	return []Institution{
		{"State Bank of India", dep, []string{"state bank of india", "sbi"}},
		{"HDFC Bank", dep, []string{"hdfc bank", "hdfc"}},
		{"ICICI Bank", dep, []string{"icici bank", "icici"}},
		{"Axis Bank", dep, []string{"axis bank", "axis"}},
		{"Kotak Mahindra Bank", dep, []string{"kotak mahindra bank", "kotak"}},
		{"Punjab National Bank", dep, []string{"punjab national bank", "pnb"}},
		{"Bank of Baroda", dep, []string{"bank of baroda"}},
		{"Canara Bank", dep, []string{"canara bank", "canara"}},
		{"Union Bank of India", dep, []string{"union bank of india", "union bank"}},
		{"IDFC FIRST Bank", dep, []string{"idfc first bank", "idfc first"}},
		{"Yes Bank", dep, []string{"yes bank"}},

		{"HDFC Mutual Fund", mf, []string{"hdfc mutual fund", "hdfc mutual"}},
		{"ICICI Prudential Mutual Fund", mf, []string{"icici prudential mutual fund", "icici prudential"}},
		{"SBI Mutual Fund", mf, []string{"sbi mutual fund", "sbi mutual"}},
		{"Axis Mutual Fund", mf, []string{"axis mutual fund", "axis mutual"}},
		{"Kotak Mutual Fund", mf, []string{"kotak mutual fund", "kotak mutual"}},
		{"Aditya Birla Sun Life Mutual Fund", mf, []string{"aditya birla sun life", "aditya birla"}},
		{"Nippon India Mutual Fund", mf, []string{"nippon india mutual fund", "nippon"}},
		{"Franklin Templeton Mutual Fund", mf, []string{"franklin templeton", "franklin"}},
		{"CAMS", mf, []string{"computer age management services", "cams rta", "cams"}},
		{"KFintech", mf, []string{"kfin technologies", "kfintech", "karvy"}},

		{"Zerodha", eq, []string{"zerodha"}},
		{"Upstox", eq, []string{"upstox"}},
		{"Groww", eq, []string{"groww"}},
		{"Angel One", eq, []string{"angel one", "angel broking", "angel"}},
		{"ICICI Direct", eq, []string{"icici direct", "icicidirect"}},
		{"HDFC Securities", eq, []string{"hdfc securities"}},
		{"Kotak Securities", eq, []string{"kotak securities"}},
		{"Central Depository Services Limited", eq, []string{"central depository services", "cdsl"}},
		{"National Securities Depository Limited", eq, []string{"national securities depository", "nsdl"}},

		{"Nippon India ETF", etf, []string{"nippon india etf"}},
		{"SBI ETF", etf, []string{"sbi etf"}},
	}
}
