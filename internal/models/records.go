package models

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/msahsan119/finman/internal/ledgererr"
)

// Expense is a spending record in one currency region. Names are copies of
// the taxonomy path at write time; NodeID is the deepest node the path
// resolved to, empty for orphans.
type Expense struct {
	ID             string
	NodeID         string
	Region         Region
	Category       string
	Subcategory    string
	Subsubcategory string
	Amount         decimal.Decimal
	Date           Date
	Location       string
}

// Field returns the name stored for taxonomy level 1, 2 or 3.
func (e *Expense) Field(level int) string {
	switch level {
	case 1:
		return e.Category
	case 2:
		return e.Subcategory
	case 3:
		return e.Subsubcategory
	default:
		return ""
	}
}

// SetField overwrites the name stored for taxonomy level 1, 2 or 3.
func (e *Expense) SetField(level int, name string) {
	switch level {
	case 1:
		e.Category = name
	case 2:
		e.Subcategory = name
	case 3:
		e.Subsubcategory = name
	}
}

// Names returns the stored taxonomy path, dropping trailing empty levels.
func (e *Expense) Names() []string {
	names := []string{e.Category, e.Subcategory, e.Subsubcategory}
	for len(names) > 0 && names[len(names)-1] == "" {
		names = names[:len(names)-1]
	}
	return names
}

// Validate checks the fields required at append time.
func (e *Expense) Validate() error {
	collection := string(e.Region) + " expense"
	if !e.Region.IsRecordRegion() {
		return &ledgererr.InvalidRecordError{Collection: "expense", Field: "region", Reason: "must be home or foreign"}
	}
	if strings.TrimSpace(e.Category) == "" {
		return &ledgererr.InvalidRecordError{Collection: collection, Field: "category", Reason: "is required"}
	}
	if e.Subsubcategory != "" && e.Subcategory == "" {
		return &ledgererr.InvalidRecordError{Collection: collection, Field: "subcategory", Reason: "is required when a sub-subcategory is set"}
	}
	return validateCommon(collection, e.Date)
}

// IncomeEntry is money received in the home currency.
type IncomeEntry struct {
	ID     string
	Source string
	Amount decimal.Decimal
	Date   Date
}

// Validate checks the fields required at append time.
func (i *IncomeEntry) Validate() error {
	if strings.TrimSpace(i.Source) == "" {
		return &ledgererr.InvalidRecordError{Collection: "income", Field: "source", Reason: "is required"}
	}
	return validateCommon("income", i.Date)
}

// InvestmentEntry records money moved into an investment. Category is a
// free-form label, not a taxonomy reference.
type InvestmentEntry struct {
	ID                  string
	Category            string
	Amount              decimal.Decimal
	Date                Date
	Description         string
	CounterpartyName    string
	CounterpartyAddress string
}

// Validate checks the fields required at append time.
func (i *InvestmentEntry) Validate() error {
	if strings.TrimSpace(i.Category) == "" {
		return &ledgererr.InvalidRecordError{Collection: "investment", Field: "category", Reason: "is required"}
	}
	return validateCommon("investment", i.Date)
}

// ReturnEntry records money received back from an investment.
type ReturnEntry struct {
	ID                  string
	Category            string
	Kind                string
	Amount              decimal.Decimal
	Date                Date
	Description         string
	CounterpartyName    string
	CounterpartyAddress string
}

// Validate checks the fields required at append time.
func (r *ReturnEntry) Validate() error {
	if strings.TrimSpace(r.Category) == "" {
		return &ledgererr.InvalidRecordError{Collection: "return", Field: "category", Reason: "is required"}
	}
	return validateCommon("return", r.Date)
}

func validateCommon(collection string, date Date) error {
	if date.IsZero() {
		return &ledgererr.InvalidRecordError{Collection: collection, Field: "date", Reason: "is required"}
	}
	return nil
}

func (e *Expense) GetID() string       { return e.ID }
func (e *Expense) SetID(id string)     { e.ID = id }
func (i *IncomeEntry) GetID() string   { return i.ID }
func (i *IncomeEntry) SetID(id string) { i.ID = id }

func (i *InvestmentEntry) GetID() string   { return i.ID }
func (i *InvestmentEntry) SetID(id string) { i.ID = id }
func (r *ReturnEntry) GetID() string       { return r.ID }
func (r *ReturnEntry) SetID(id string)     { r.ID = id }
