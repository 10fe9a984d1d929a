package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/msahsan119/finman/internal/models"
)

// Field names, current first, legacy aliases after.
var (
	keyCategories           = []string{"categories"}
	keySubcategories        = []string{"subcategories"}
	keyHomeExpenses         = []string{"expenses", "transactions"}
	keyForeignExpenses      = []string{"foreign_expenses", "bd_transactions"}
	keyIncome               = []string{"income_sources", "income"}
	keyInvestments          = []string{"investments"}
	keyReturns              = []string{"investment_returns", "returns"}
	keyInvestmentCategories = []string{"investment_categories"}
	keyForeignBalance       = []string{"foreign_balance", "bd_balance"}
	keyConversionRate       = []string{"conversion_rate", "bd_conversion_rate"}
	keyInitialBalance       = []string{"initial_balance", "initial_euro_balance"}
)

type expenseDTO struct {
	Category       string  `json:"category"`
	Subcategory    string  `json:"subcategory"`
	Subsubcategory string  `json:"subsubcategory"`
	Amount         amount  `json:"amount"`
	Date           dateVal `json:"date"`
	Location       string  `json:"location,omitempty"`
}

type incomeDTO struct {
	Source string  `json:"source"`
	Amount amount  `json:"amount"`
	Date   dateVal `json:"date"`
}

type investmentDTO struct {
	Category            string  `json:"category"`
	Amount              amount  `json:"amount"`
	Date                dateVal `json:"date"`
	Description         string  `json:"description,omitempty"`
	Type                string  `json:"type,omitempty"`
	CounterpartyName    string  `json:"counterparty_name,omitempty"`
	CounterpartyAddress string  `json:"counterparty_address,omitempty"`
}

// Encode writes s in the current layout, indented like the files the
// original tool produced.
func Encode(s *Snapshot) ([]byte, error) {
	cats, err := encodeCategories(s.Categories)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString("{\n")
	first := true
	field := func(key string, v any) error {
		var raw []byte
		switch val := v.(type) {
		case json.RawMessage:
			raw = val
		default:
			var err error
			if raw, err = json.Marshal(v); err != nil {
				return fmt.Errorf("encoding %s: %w", key, err)
			}
		}
		if !first {
			buf.WriteString(",\n")
		}
		first = false
		fmt.Fprintf(&buf, "  %q: ", key)
		return json.Indent(&buf, raw, "  ", "  ")
	}

	steps := []struct {
		key string
		val any
	}{
		{keyCategories[0], json.RawMessage(cats)},
		{keyHomeExpenses[0], toExpenseDTOs(s.HomeExpenses)},
		{keyForeignExpenses[0], toExpenseDTOs(s.ForeignExpenses)},
		{keyIncome[0], toIncomeDTOs(s.Income)},
		{keyInvestments[0], toInvestmentDTOs(s.Investments)},
		{keyReturns[0], toReturnDTOs(s.Returns)},
		{keyInvestmentCategories[0], nonNil(s.InvestmentCategories)},
		{keyForeignBalance[0], amount(s.ForeignBalance)},
		{keyConversionRate[0], amount(s.ConversionRate)},
		{keyInitialBalance[0], amount(s.InitialBalance)},
	}
	for _, st := range steps {
		if err := field(st.key, st.val); err != nil {
			return nil, err
		}
	}
	buf.WriteString("\n}\n")
	return buf.Bytes(), nil
}

// Issue is a part of a document that Decode could not read and left out.
// Index is the element position within Section, or -1 when the whole
// section was unusable.
type Issue struct {
	Section string
	Index   int
	Err     error
}

func (i Issue) Error() string {
	if i.Index < 0 {
		return fmt.Sprintf("%s: %v", i.Section, i.Err)
	}
	return fmt.Sprintf("%s[%d]: %v", i.Section, i.Index, i.Err)
}

// Decode parses a document in the current or a legacy layout. Missing
// sections decode as empty; a missing rate falls back to the default.
// Malformed records and settings are left out and reported as issues so the
// rest of the document still loads. Only a document that is not a JSON
// object is an error.
func Decode(data []byte) (*Snapshot, []Issue, error) {
	doc, err := decodeObject(data)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot is not a JSON object: %w", err)
	}
	fields := make(map[string]json.RawMessage, len(doc))
	for _, kv := range doc {
		fields[kv.Key] = kv.Value
	}
	pick := func(keys []string) json.RawMessage {
		for _, k := range keys {
			if v, ok := fields[k]; ok && !isNull(v) {
				return v
			}
		}
		return nil
	}

	var issues []Issue
	s := &Snapshot{}
	if s.Categories, err = decodeCategories(pick(keyCategories), pick(keySubcategories)); err != nil {
		issues = append(issues, Issue{Section: keyCategories[0], Index: -1, Err: err})
	}

	s.HomeExpenses = fromExpenseDTOs(decodeEach[expenseDTO](pick(keyHomeExpenses), keyHomeExpenses[0], &issues), models.RegionHome)
	s.ForeignExpenses = fromExpenseDTOs(decodeEach[expenseDTO](pick(keyForeignExpenses), keyForeignExpenses[0], &issues), models.RegionForeign)
	s.Income = fromIncomeDTOs(decodeEach[incomeDTO](pick(keyIncome), keyIncome[0], &issues))
	s.Investments = fromInvestmentDTOs(decodeEach[investmentDTO](pick(keyInvestments), keyInvestments[0], &issues))
	s.Returns = fromReturnDTOs(decodeEach[investmentDTO](pick(keyReturns), keyReturns[0], &issues))
	s.InvestmentCategories = decodeEach[string](pick(keyInvestmentCategories), keyInvestmentCategories[0], &issues)

	for _, sc := range []struct {
		keys []string
		dst  *decimal.Decimal
		def  decimal.Decimal
	}{
		{keyForeignBalance, &s.ForeignBalance, decimal.Zero},
		{keyConversionRate, &s.ConversionRate, DefaultConversionRate},
		{keyInitialBalance, &s.InitialBalance, decimal.Zero},
	} {
		*sc.dst = sc.def
		raw := pick(sc.keys)
		if raw == nil {
			continue
		}
		var a amount
		if err := json.Unmarshal(raw, &a); err != nil {
			issues = append(issues, Issue{Section: sc.keys[0], Index: -1, Err: err})
			continue
		}
		*sc.dst = decimal.Decimal(a)
	}
	if !s.ConversionRate.IsPositive() {
		s.ConversionRate = DefaultConversionRate
	}
	return s, issues, nil
}

// decodeEach unmarshals the elements of a JSON list one at a time, leaving
// out and reporting those that do not decode.
func decodeEach[T any](raw json.RawMessage, section string, issues *[]Issue) []T {
	if raw == nil {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		*issues = append(*issues, Issue{Section: section, Index: -1, Err: err})
		return nil
	}
	out := make([]T, 0, len(elems))
	for i, el := range elems {
		var v T
		if err := json.Unmarshal(el, &v); err != nil {
			*issues = append(*issues, Issue{Section: section, Index: i, Err: err})
			continue
		}
		out = append(out, v)
	}
	return out
}

// amount reads a JSON number or a string such as "12,50" or "€ 12.50" and
// writes a plain JSON number.
type amount decimal.Decimal

func (a amount) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(a).String()), nil
}

func (a *amount) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		*a = amount(decimal.Zero)
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	d, err := models.ParseAmount(s)
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", string(b), err)
	}
	*a = amount(d)
	return nil
}

// dateVal reads any supported layout and writes ISO dates.
type dateVal models.Date

func (d dateVal) MarshalJSON() ([]byte, error) {
	return json.Marshal(models.Date(d).String())
}

func (d *dateVal) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		*d = dateVal{}
		return nil
	}
	parsed, err := models.ParseDate(s)
	if err != nil {
		return err
	}
	*d = dateVal(parsed)
	return nil
}

func toExpenseDTOs(in []models.Expense) []expenseDTO {
	out := make([]expenseDTO, len(in))
	for i, e := range in {
		out[i] = expenseDTO{
			Category:       e.Category,
			Subcategory:    e.Subcategory,
			Subsubcategory: e.Subsubcategory,
			Amount:         amount(e.Amount),
			Date:           dateVal(e.Date),
			Location:       e.Location,
		}
	}
	return out
}

func fromExpenseDTOs(in []expenseDTO, region models.Region) []models.Expense {
	out := make([]models.Expense, len(in))
	for i, e := range in {
		out[i] = models.Expense{
			Region:         region,
			Category:       strings.TrimSpace(e.Category),
			Subcategory:    strings.TrimSpace(e.Subcategory),
			Subsubcategory: strings.TrimSpace(e.Subsubcategory),
			Amount:         decimal.Decimal(e.Amount),
			Date:           models.Date(e.Date),
			Location:       e.Location,
		}
	}
	return out
}

func toIncomeDTOs(in []models.IncomeEntry) []incomeDTO {
	out := make([]incomeDTO, len(in))
	for i, r := range in {
		out[i] = incomeDTO{Source: r.Source, Amount: amount(r.Amount), Date: dateVal(r.Date)}
	}
	return out
}

func fromIncomeDTOs(in []incomeDTO) []models.IncomeEntry {
	out := make([]models.IncomeEntry, len(in))
	for i, r := range in {
		out[i] = models.IncomeEntry{Source: r.Source, Amount: decimal.Decimal(r.Amount), Date: models.Date(r.Date)}
	}
	return out
}

func toInvestmentDTOs(in []models.InvestmentEntry) []investmentDTO {
	out := make([]investmentDTO, len(in))
	for i, r := range in {
		out[i] = investmentDTO{
			Category:            r.Category,
			Amount:              amount(r.Amount),
			Date:                dateVal(r.Date),
			Description:         r.Description,
			CounterpartyName:    r.CounterpartyName,
			CounterpartyAddress: r.CounterpartyAddress,
		}
	}
	return out
}

func fromInvestmentDTOs(in []investmentDTO) []models.InvestmentEntry {
	out := make([]models.InvestmentEntry, len(in))
	for i, r := range in {
		out[i] = models.InvestmentEntry{
			Category:            r.Category,
			Amount:              decimal.Decimal(r.Amount),
			Date:                models.Date(r.Date),
			Description:         r.Description,
			CounterpartyName:    r.CounterpartyName,
			CounterpartyAddress: r.CounterpartyAddress,
		}
	}
	return out
}

func toReturnDTOs(in []models.ReturnEntry) []investmentDTO {
	out := make([]investmentDTO, len(in))
	for i, r := range in {
		out[i] = investmentDTO{
			Category:            r.Category,
			Amount:              amount(r.Amount),
			Date:                dateVal(r.Date),
			Description:         r.Description,
			Type:                r.Kind,
			CounterpartyName:    r.CounterpartyName,
			CounterpartyAddress: r.CounterpartyAddress,
		}
	}
	return out
}

func fromReturnDTOs(in []investmentDTO) []models.ReturnEntry {
	out := make([]models.ReturnEntry, len(in))
	for i, r := range in {
		out[i] = models.ReturnEntry{
			Category:            r.Category,
			Kind:                r.Type,
			Amount:              decimal.Decimal(r.Amount),
			Date:                models.Date(r.Date),
			Description:         r.Description,
			CounterpartyName:    r.CounterpartyName,
			CounterpartyAddress: r.CounterpartyAddress,
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func isNull(b []byte) bool {
	return len(bytes.TrimSpace(b)) == 0 || string(bytes.TrimSpace(b)) == "null"
}
