package ledger

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/msahsan119/finman/internal/models"
)

// Name identifies a collection.
type Name string

const (
	HomeExpenses    Name = "home_expenses"
	ForeignExpenses Name = "foreign_expenses"
	Income          Name = "income"
	Investments     Name = "investments"
	Returns         Name = "returns"
)

// Names lists every collection in a stable order.
func Names() []Name {
	return []Name{HomeExpenses, ForeignExpenses, Income, Investments, Returns}
}

// ExpenseCollection returns the expense collection name for a record region.
func ExpenseCollection(r models.Region) (Name, error) {
	switch r {
	case models.RegionHome:
		return HomeExpenses, nil
	case models.RegionForeign:
		return ForeignExpenses, nil
	default:
		return "", fmt.Errorf("no expense collection for region %q", r)
	}
}

// Record is any value held by a collection.
type Record interface {
	Validate() error
	GetID() string
}

// Resolver maps a stored name path to the deepest taxonomy node identifier,
// "" when the category is unknown.
type Resolver interface {
	ResolveID(names []string) string
}

// Store holds the five collections plus the investment category registry.
// Expense records are kept attached to taxonomy nodes through the resolver.
type Store struct {
	home        *Collection[*models.Expense]
	foreign     *Collection[*models.Expense]
	income      *Collection[*models.IncomeEntry]
	investments *Collection[*models.InvestmentEntry]
	returns     *Collection[*models.ReturnEntry]

	index    map[models.Region]*NodeIndex
	resolver Resolver

	investmentCategories []string
}

// NewStore returns an empty store. A nil resolver leaves every expense
// unattached.
func NewStore(resolver Resolver) *Store {
	s := &Store{
		home:        NewCollection[*models.Expense](HomeExpenses),
		foreign:     NewCollection[*models.Expense](ForeignExpenses),
		income:      NewCollection[*models.IncomeEntry](Income),
		investments: NewCollection[*models.InvestmentEntry](Investments),
		returns:     NewCollection[*models.ReturnEntry](Returns),
		index: map[models.Region]*NodeIndex{
			models.RegionHome:    newNodeIndex(),
			models.RegionForeign: newNodeIndex(),
		},
		resolver: resolver,
	}
	s.hookIndex(s.home, models.RegionHome)
	s.hookIndex(s.foreign, models.RegionForeign)
	return s
}

func (s *Store) hookIndex(c *Collection[*models.Expense], region models.Region) {
	ix := s.index[region]
	c.onAdd = func(e *models.Expense) {
		e.Region = region
		e.NodeID = s.resolve(e.Names())
		ix.add(e)
	}
	c.onRemove = ix.remove
}

func (s *Store) resolve(names []string) string {
	if s.resolver == nil {
		return ""
	}
	return s.resolver.ResolveID(names)
}

// SetResolver replaces the resolver and re-attaches every expense.
func (s *Store) SetResolver(r Resolver) {
	s.resolver = r
	s.Reattach()
}

// Reattach recomputes the node of every expense from its stored names.
// It returns the number of records whose node changed.
func (s *Store) Reattach() int {
	moved := 0
	for _, region := range []models.Region{models.RegionHome, models.RegionForeign} {
		ix := s.index[region]
		for e := range s.Expenses(region).All() {
			id := s.resolve(e.Names())
			if id != e.NodeID {
				ix.move(e, id)
				moved++
			}
		}
	}
	return moved
}

// Adopt re-resolves the records attached to parentID whose name at level
// equals name. Call it after a node named name appears under parentID,
// whether added or renamed, so records that already carried that name
// attach to it. It returns the number of records moved.
func (s *Store) Adopt(parentID string, level int, name string) int {
	moved := 0
	for _, region := range []models.Region{models.RegionHome, models.RegionForeign} {
		ix := s.index[region]
		for e := range ix.attachedTo([]string{parentID}) {
			if e.Field(level) != name {
				continue
			}
			if id := s.resolve(e.Names()); id != e.NodeID {
				ix.move(e, id)
				moved++
			}
		}
	}
	return moved
}

// Attached returns the expenses of region attached to any of nodeIDs, in
// collection order. The records come from the node index; the collection is
// not scanned.
func (s *Store) Attached(region models.Region, nodeIDs []string) []*models.Expense {
	ix, ok := s.index[region]
	if !ok {
		return nil
	}
	return ix.inOrder(ix.attachedTo(nodeIDs))
}

// Index returns the node index for a record region.
func (s *Store) Index(region models.Region) *NodeIndex {
	return s.index[region]
}

// Expenses returns the expense collection of a record region. It panics on
// RegionAll, which is a query-only value.
func (s *Store) Expenses(region models.Region) *Collection[*models.Expense] {
	switch region {
	case models.RegionHome:
		return s.home
	case models.RegionForeign:
		return s.foreign
	default:
		panic(fmt.Sprintf("ledger: no expense collection for region %q", region))
	}
}

func (s *Store) Income() *Collection[*models.IncomeEntry]          { return s.income }
func (s *Store) Investments() *Collection[*models.InvestmentEntry] { return s.investments }
func (s *Store) Returns() *Collection[*models.ReturnEntry]         { return s.returns }

// AllExpenses yields home expenses then foreign expenses.
func (s *Store) AllExpenses() iter.Seq[*models.Expense] {
	return func(yield func(*models.Expense) bool) {
		for e := range s.home.All() {
			if !yield(e) {
				return
			}
		}
		for e := range s.foreign.All() {
			if !yield(e) {
				return
			}
		}
	}
}

// Append validates rec and adds it to the named collection. The record
// type must match.
func (s *Store) Append(name Name, rec Record) error {
	return s.add(name, rec, true)
}

// Restore adds a persisted record without validation, so incomplete legacy
// records survive a load and save cycle. Expenses that do not resolve stay
// orphans. Only a type mismatch is an error.
func (s *Store) Restore(name Name, rec Record) error {
	return s.add(name, rec, false)
}

func (s *Store) add(name Name, rec Record, validate bool) error {
	switch name {
	case HomeExpenses, ForeignExpenses:
		e, ok := rec.(*models.Expense)
		if !ok {
			return mismatch(name, rec)
		}
		c := s.home
		e.Region = models.RegionHome
		if name == ForeignExpenses {
			c = s.foreign
			e.Region = models.RegionForeign
		}
		return put(c, e, validate)
	case Income:
		r, ok := rec.(*models.IncomeEntry)
		if !ok {
			return mismatch(name, rec)
		}
		return put(s.income, r, validate)
	case Investments:
		r, ok := rec.(*models.InvestmentEntry)
		if !ok {
			return mismatch(name, rec)
		}
		if err := put(s.investments, r, validate); err != nil {
			return err
		}
		s.RegisterInvestmentCategory(r.Category)
		return nil
	case Returns:
		r, ok := rec.(*models.ReturnEntry)
		if !ok {
			return mismatch(name, rec)
		}
		if err := put(s.returns, r, validate); err != nil {
			return err
		}
		s.RegisterInvestmentCategory(r.Category)
		return nil
	default:
		return fmt.Errorf("unknown collection %q", name)
	}
}

func put[T Entry](c *Collection[T], rec T, validate bool) error {
	if validate {
		return c.Append(rec)
	}
	c.Restore(rec)
	return nil
}

// Filter yields the records of the named collection matching pred.
func (s *Store) Filter(name Name, pred func(Record) bool) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		switch name {
		case HomeExpenses:
			filterInto(s.home, pred, yield)
		case ForeignExpenses:
			filterInto(s.foreign, pred, yield)
		case Income:
			filterInto(s.income, pred, yield)
		case Investments:
			filterInto(s.investments, pred, yield)
		case Returns:
			filterInto(s.returns, pred, yield)
		}
	}
}

// RemoveWhere removes matching records from the named collection. A nil
// pred removes every record, as Filter with a nil pred yields every record.
func (s *Store) RemoveWhere(name Name, pred func(Record) bool) int {
	switch name {
	case HomeExpenses:
		return s.home.RemoveWhere(narrow[*models.Expense](pred))
	case ForeignExpenses:
		return s.foreign.RemoveWhere(narrow[*models.Expense](pred))
	case Income:
		return s.income.RemoveWhere(narrow[*models.IncomeEntry](pred))
	case Investments:
		return s.investments.RemoveWhere(narrow[*models.InvestmentEntry](pred))
	case Returns:
		return s.returns.RemoveWhere(narrow[*models.ReturnEntry](pred))
	default:
		return 0
	}
}

func narrow[T Entry](pred func(Record) bool) func(T) bool {
	if pred == nil {
		return nil
	}
	return func(rec T) bool { return pred(rec) }
}

// Len returns the number of records in the named collection.
func (s *Store) Len(name Name) int {
	switch name {
	case HomeExpenses:
		return s.home.Len()
	case ForeignExpenses:
		return s.foreign.Len()
	case Income:
		return s.income.Len()
	case Investments:
		return s.investments.Len()
	case Returns:
		return s.returns.Len()
	default:
		return 0
	}
}

// InvestmentCategories returns the registered investment labels in
// registration order.
func (s *Store) InvestmentCategories() []string {
	return slices.Clone(s.investmentCategories)
}

// RegisterInvestmentCategory adds label to the registry unless present.
// It reports whether the label was new.
func (s *Store) RegisterInvestmentCategory(label string) bool {
	label = strings.TrimSpace(label)
	if label == "" || slices.Contains(s.investmentCategories, label) {
		return false
	}
	s.investmentCategories = append(s.investmentCategories, label)
	return true
}

func filterInto[T Entry](c *Collection[T], pred func(Record) bool, yield func(Record) bool) {
	for rec := range c.All() {
		if pred != nil && !pred(rec) {
			continue
		}
		if !yield(rec) {
			return
		}
	}
}

func mismatch(name Name, rec Record) error {
	return fmt.Errorf("collection %s cannot hold %T", name, rec)
}
