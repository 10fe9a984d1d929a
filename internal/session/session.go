// Package session owns the live ledger state. Every mutation runs under the
// write lock together with its cascade; queries take the read lock, so no
// reader observes a half-applied taxonomy edit.
package session

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/msahsan119/finman/internal/aggregation"
	"github.com/msahsan119/finman/internal/balance"
	"github.com/msahsan119/finman/internal/cascade"
	"github.com/msahsan119/finman/internal/ledger"
	"github.com/msahsan119/finman/internal/logging"
	"github.com/msahsan119/finman/internal/models"
	"github.com/msahsan119/finman/internal/snapshot"
	"github.com/msahsan119/finman/internal/taxonomy"
)

// Options configures the engines a session builds.
type Options struct {
	Strategy          cascade.Strategy
	AveragePolicy     aggregation.AveragePolicy
	SavingsCategories []string
	Logger            logging.Logger
}

// Session is the in-memory ledger.
type Session struct {
	mu sync.RWMutex

	tree    *taxonomy.Tree
	store   *ledger.Store
	cascade *cascade.Engine
	agg     *aggregation.Engine
	calc    *balance.Calculator

	foreign balance.ForeignAccount
	rate    decimal.Decimal
	initial decimal.Decimal

	logger logging.Logger
}

// New builds a session from a snapshot. Persisted data is kept even when
// incomplete: categories with invalid names are dropped with a warning, and
// records that would fail validation are loaded as they are, unattached when
// they resolve to no node. The number of such records is returned.
func New(snap *snapshot.Snapshot, opts Options) (*Session, int, error) {
	logger := logging.OrDefault(opts.Logger)
	if snap == nil {
		snap = snapshot.Default(nil, snapshot.DefaultConversionRate)
	}

	tree := taxonomy.LoadSpec(snap.Categories, func(p taxonomy.Path, err error) {
		logger.WithError(err).Warn("Skipping category with invalid name",
			logging.F(logging.FieldPath, p.String()))
	})
	store := ledger.NewStore(tree)

	s := &Session{
		tree:    tree,
		store:   store,
		rate:    snap.ConversionRate,
		initial: snap.InitialBalance,
		foreign: balance.ForeignAccount{Balance: snap.ForeignBalance},
		logger:  logger,
	}
	if !s.rate.IsPositive() {
		s.rate = snapshot.DefaultConversionRate
	}
	s.cascade = cascade.NewEngine(store, opts.Strategy, logger)
	s.agg = aggregation.NewEngine(tree, store, opts.AveragePolicy, logger)
	s.calc = balance.NewCalculator(s.agg, opts.SavingsCategories)

	for _, c := range snap.InvestmentCategories {
		store.RegisterInvestmentCategory(c)
	}
	incomplete, err := s.load(snap)
	if err != nil {
		return nil, 0, err
	}
	if incomplete > 0 {
		logger.Warn("Loaded incomplete records from snapshot",
			logging.F(logging.FieldCount, incomplete))
	}
	return s, incomplete, nil
}

func (s *Session) load(snap *snapshot.Snapshot) (int, error) {
	incomplete := 0
	var failed error
	try := func(name ledger.Name, rec ledger.Record) {
		if failed != nil {
			return
		}
		if err := s.store.Restore(name, rec); err != nil {
			failed = fmt.Errorf("loading %s: %w", name, err)
			return
		}
		if err := rec.Validate(); err != nil {
			incomplete++
			s.logger.WithError(err).Debug("Keeping incomplete record",
				logging.F(logging.FieldCollection, string(name)))
		}
	}
	for _, e := range snap.HomeExpenses {
		try(ledger.HomeExpenses, &e)
	}
	for _, e := range snap.ForeignExpenses {
		try(ledger.ForeignExpenses, &e)
	}
	for _, r := range snap.Income {
		try(ledger.Income, &r)
	}
	for _, r := range snap.Investments {
		try(ledger.Investments, &r)
	}
	for _, r := range snap.Returns {
		try(ledger.Returns, &r)
	}
	return incomplete, failed
}

// Snapshot copies the current state into a persistable document.
func (s *Session) Snapshot() *snapshot.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := &snapshot.Snapshot{
		Categories:           s.tree.Spec(),
		InvestmentCategories: s.store.InvestmentCategories(),
		Settings: snapshot.Settings{
			ConversionRate: s.rate,
			InitialBalance: s.initial,
			ForeignBalance: s.foreign.Balance,
		},
	}
	for e := range s.store.Expenses(models.RegionHome).All() {
		out.HomeExpenses = append(out.HomeExpenses, detach(*e))
	}
	for e := range s.store.Expenses(models.RegionForeign).All() {
		out.ForeignExpenses = append(out.ForeignExpenses, detach(*e))
	}
	for r := range s.store.Income().All() {
		c := *r
		c.ID = ""
		out.Income = append(out.Income, c)
	}
	for r := range s.store.Investments().All() {
		c := *r
		c.ID = ""
		out.Investments = append(out.Investments, c)
	}
	for r := range s.store.Returns().All() {
		c := *r
		c.ID = ""
		out.Returns = append(out.Returns, c)
	}
	return out
}

func detach(e models.Expense) models.Expense {
	e.ID = ""
	e.NodeID = ""
	return e
}
