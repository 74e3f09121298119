package fields

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/model"
	"github.com/FACorreiaa/fi-statement-converter/internal/domain/statement/normalizer"
	"github.com/FACorreiaa/fi-statement-converter/pkg/money"
)

var (
	isinToken    = regexp.MustCompile(`^IN[A-Z0-9]{9}\d$`)
	numericToken = regexp.MustCompile(`^\(?[\d,]*\d(?:\.\d+)?\)?$`)
)

// Holdings reads one holding per line that carries an ISIN and at least one
// number: the first number is units, the second price. Names are the words
// around the ISIN. When no such line exists a single holding is assembled
// from the scalar fields, if any of them was found.
func Holdings(lines []string, values Values) []model.Holding {
	holdings := make([]model.Holding, 0)

	for _, line := range lines {
		h, ok := holdingLine(line)
		if !ok {
			continue
		}
		h.FolioNumber = values.Get(FieldFolioNumber)
		holdings = append(holdings, h)
	}
	if len(holdings) > 0 {
		return holdings
	}

	if values.Get(FieldISIN) == "" && values.Get(FieldUnits) == "" &&
		values.Get(FieldNAV) == "" && values.Get(FieldSchemeName) == "" {
		return holdings
	}

	return append(holdings, model.Holding{
		Identifier:  normalizer.Coalesce(values.Get(FieldISIN), values.Get(FieldSchemeCode), values.Get(FieldFolioNumber)),
		Units:       values.Get(FieldUnits),
		Price:       values.Get(FieldNAV),
		SchemeName:  values.Get(FieldSchemeName),
		ISIN:        values.Get(FieldISIN),
		AMC:         values.Get(FieldAMC),
		NAVDate:     values.Get(FieldNAVDate),
		FolioNumber: values.Get(FieldFolioNumber),
	})
}

func holdingLine(line string) (model.Holding, bool) {
	tokens := strings.Fields(line)

	isinAt := -1
	for i, tok := range tokens {
		if isinToken.MatchString(strings.Trim(tok, ",;:|")) {
			isinAt = i
			break
		}
	}
	if isinAt < 0 {
		return model.Holding{}, false
	}

	var names, numbers []string
	for i, tok := range tokens {
		if i == isinAt || tok == "-" || tok == "|" {
			continue
		}
		if i < isinAt {
			// serial numbers before the ISIN are not quantities
			if !numericToken.MatchString(tok) {
				names = append(names, tok)
			}
			continue
		}
		if numericToken.MatchString(tok) {
			if v, err := money.NormalizeAmount(tok); err == nil {
				numbers = append(numbers, v)
				continue
			}
		}
		if len(numbers) == 0 {
			names = append(names, tok)
		}
	}
	if len(numbers) == 0 {
		return model.Holding{}, false
	}

	isin := strings.Trim(tokens[isinAt], ",;:|")
	h := model.Holding{
		Identifier: isin,
		ISIN:       isin,
		Units:      numbers[0],
		SchemeName: normalizer.CleanNarration(strings.Join(names, " ")),
	}
	if len(numbers) > 1 {
		h.Price = numbers[1]
	}
	return h, true
}
