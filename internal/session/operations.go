package session

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/msahsan119/finman/internal/ledger"
	"github.com/msahsan119/finman/internal/ledgererr"
	"github.com/msahsan119/finman/internal/logging"
	"github.com/msahsan119/finman/internal/models"
	"github.com/msahsan119/finman/internal/snapshot"
	"github.com/msahsan119/finman/internal/taxonomy"
)

// AddNode adds the taxonomy node named by path and attaches any records
// that already carried its name.
func (s *Session) AddNode(path taxonomy.Path) (ChangeLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, err := s.tree.Add(path)
	if err != nil {
		return nil, err
	}
	res := s.cascade.OnAdd(ev)
	log := ChangeLog{{Op: OpAddNode, Target: pathTarget(ev.Path), Detail: ev.Level.String()}}
	if res.Adopted > 0 {
		log = append(log, Change{Op: OpAdopt, Target: pathTarget(ev.Path), Count: res.Adopted})
	}
	return log, nil
}

// AddCategory adds a top-level category.
func (s *Session) AddCategory(name string) (ChangeLog, error) {
	return s.AddNode(taxonomy.Path{name})
}

// AddSubcategory adds a subcategory.
func (s *Session) AddSubcategory(category, name string) (ChangeLog, error) {
	return s.AddNode(taxonomy.Path{category, name})
}

// AddSubsubcategory adds a sub-subcategory.
func (s *Session) AddSubsubcategory(category, subcategory, name string) (ChangeLog, error) {
	return s.AddNode(taxonomy.Path{category, subcategory, name})
}

// Rename renames a node and cascades the new name into both expense
// collections. Renaming to the current name returns an empty log.
func (s *Session) Rename(path taxonomy.Path, newName string) (ChangeLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, err := s.tree.Rename(path, newName)
	if err != nil || ev == nil {
		return nil, err
	}
	res := s.cascade.OnRename(ev)
	log := ChangeLog{
		{Op: OpRenameNode, Target: pathTarget(ev.Path), Detail: "to " + ev.NewName},
		{Op: OpCascadeRename, Target: pathTarget(ev.Path), Count: res.Touched(), Detail: regionCounts(res.Renamed)},
	}
	if res.Adopted > 0 {
		log = append(log, Change{Op: OpAdopt, Target: pathTarget(ev.Path.Parent().Child(ev.NewName)), Count: res.Adopted})
	}
	return log, nil
}

// Delete removes a node, its descendants and every expense filed under them.
func (s *Session) Delete(path taxonomy.Path) (ChangeLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, err := s.tree.Delete(path)
	if err != nil {
		return nil, err
	}
	res := s.cascade.OnDelete(ev)
	return ChangeLog{
		{Op: OpDeleteNode, Target: pathTarget(ev.Path), Count: len(ev.Subtree)},
		{Op: OpCascadeDelete, Target: pathTarget(ev.Path), Count: res.Touched(), Detail: regionCounts(res.Removed)},
	}, nil
}

// AddExpense appends an expense to the collection of its region. Foreign
// expenses are paid from the foreign account.
func (s *Session) AddExpense(e *models.Expense) (ChangeLog, error) {
	name, err := ledger.ExpenseCollection(e.Region)
	if err != nil {
		return nil, &ledgererr.InvalidRecordError{Collection: "expense", Field: "region", Reason: "must be home or foreign"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Append(name, e); err != nil {
		return nil, err
	}
	if e.Region == models.RegionForeign {
		s.foreign.Spend(e.Amount)
	}
	if e.NodeID == "" {
		s.logger.Warn("Expense category is not in the taxonomy",
			logging.F(logging.FieldCategory, e.Category),
			logging.F(logging.FieldRegion, string(e.Region)))
	}
	return ChangeLog{{Op: OpAppend, Target: string(name), Count: 1}}, nil
}

// AddIncome appends an income entry.
func (s *Session) AddIncome(r *models.IncomeEntry) (ChangeLog, error) {
	return s.appendRecord(ledger.Income, r)
}

// AddInvestment appends an investment and registers its category.
func (s *Session) AddInvestment(r *models.InvestmentEntry) (ChangeLog, error) {
	return s.appendRecord(ledger.Investments, r)
}

// AddReturn appends an investment return and registers its category.
func (s *Session) AddReturn(r *models.ReturnEntry) (ChangeLog, error) {
	return s.appendRecord(ledger.Returns, r)
}

func (s *Session) appendRecord(name ledger.Name, rec ledger.Record) (ChangeLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Append(name, rec); err != nil {
		return nil, err
	}
	return ChangeLog{{Op: OpAppend, Target: string(name), Count: 1}}, nil
}

// RemoveRecords deletes matching records from a collection. Removing a
// foreign expense does not refund the foreign account.
func (s *Session) RemoveRecords(name ledger.Name, pred func(ledger.Record) bool) ChangeLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.store.RemoveWhere(name, pred)
	if n == 0 {
		return nil
	}
	return ChangeLog{{Op: OpRemove, Target: string(name), Count: n}}
}

// Merge appends every record of other, as CSV import does. Taxonomy and
// settings of other are ignored. Invalid records are skipped and counted.
func (s *Session) Merge(other *snapshot.Snapshot) (ChangeLog, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var log ChangeLog
	skipped := 0
	counts := make(map[ledger.Name]int)
	try := func(name ledger.Name, rec ledger.Record) {
		if err := s.store.Append(name, rec); err != nil {
			skipped++
			return
		}
		counts[name]++
	}
	for _, e := range other.HomeExpenses {
		try(ledger.HomeExpenses, &e)
	}
	for _, e := range other.ForeignExpenses {
		try(ledger.ForeignExpenses, &e)
	}
	for _, r := range other.Income {
		try(ledger.Income, &r)
	}
	for _, r := range other.Investments {
		try(ledger.Investments, &r)
	}
	for _, r := range other.Returns {
		try(ledger.Returns, &r)
	}
	for _, name := range ledger.Names() {
		if counts[name] > 0 {
			log = append(log, Change{Op: OpAppend, Target: string(name), Count: counts[name]})
		}
	}
	return log, skipped
}

// SetConversionRate replaces the foreign-to-home rate.
func (s *Session) SetConversionRate(rate decimal.Decimal) (ChangeLog, error) {
	if !rate.IsPositive() {
		return nil, &ledgererr.InvalidRateError{Rate: rate.String()}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if rate.Equal(s.rate) {
		return nil, nil
	}
	s.rate = rate
	return ChangeLog{{Op: OpSetting, Target: "conversion_rate", Detail: rate.String()}}, nil
}

// SetInitialBalance replaces the opening home balance.
func (s *Session) SetInitialBalance(amount decimal.Decimal) ChangeLog {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount.Equal(s.initial) {
		return nil
	}
	s.initial = amount
	return ChangeLog{{Op: OpSetting, Target: "initial_balance", Detail: amount.String()}}
}

// DepositForeign credits the foreign account in foreign units.
func (s *Session) DepositForeign(amount decimal.Decimal) (ChangeLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.foreign.Deposit(amount); err != nil {
		return nil, err
	}
	return ChangeLog{{Op: OpSetting, Target: "foreign_balance", Detail: "+" + amount.String()}}, nil
}

// DepositForeignFromHome converts a home amount at rate, credits the
// foreign account and adopts rate as the session rate.
func (s *Session) DepositForeignFromHome(home, rate decimal.Decimal) (ChangeLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	credited, err := s.foreign.DepositFromHome(home, rate)
	if err != nil {
		return nil, err
	}
	log := ChangeLog{{Op: OpSetting, Target: "foreign_balance", Detail: "+" + credited.String()}}
	if !rate.Equal(s.rate) {
		s.rate = rate
		log = append(log, Change{Op: OpSetting, Target: "conversion_rate", Detail: rate.String()})
	}
	return log, nil
}

func regionCounts(counts map[models.Region]int) string {
	return fmt.Sprintf("home=%d foreign=%d", counts[models.RegionHome], counts[models.RegionForeign])
}
