package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msahsan119/finman/internal/aggregation"
	"github.com/msahsan119/finman/internal/cascade"
	"github.com/msahsan119/finman/internal/ledger"
	"github.com/msahsan119/finman/internal/ledgererr"
	"github.com/msahsan119/finman/internal/logging"
	"github.com/msahsan119/finman/internal/models"
	"github.com/msahsan119/finman/internal/snapshot"
	"github.com/msahsan119/finman/internal/taxonomy"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newSession(t *testing.T, strategy cascade.Strategy) (*Session, *logging.MockLogger) {
	t.Helper()
	logger := logging.NewMockLogger()
	s, skipped, err := New(snapshot.Default(nil, d("140")), Options{
		Strategy:          strategy,
		AveragePolicy:     aggregation.AverageFixed,
		SavingsCategories: []string{"Savings cost"},
		Logger:            logger,
	})
	require.NoError(t, err)
	require.Zero(t, skipped)
	return s, logger
}

func TestScenario_RenameThenPivot(t *testing.T) {
	for _, strategy := range []cascade.Strategy{cascade.StrategyIndex, cascade.StrategyScan} {
		t.Run(string(strategy), func(t *testing.T) {
			s, _ := newSession(t, strategy)

			_, err := s.AddCategory("Food")
			require.NoError(t, err)
			_, err = s.AddSubcategory("Food", "Groceries")
			require.NoError(t, err)
			_, err = s.AddExpense(&models.Expense{
				Region: models.RegionHome, Category: "Food", Subcategory: "Groceries",
				Amount: d("50"), Date: models.MustParseDate("2024-03-10"),
			})
			require.NoError(t, err)

			log, err := s.Rename(taxonomy.Path{"Food", "Groceries"}, "Market")
			require.NoError(t, err)
			assert.Equal(t, 1, log.Count(OpCascadeRename))

			stored := s.Expenses(models.RegionHome, 0)
			require.Len(t, stored, 1)
			assert.Equal(t, "Market", stored[0].Subcategory)

			m, err := s.Pivot(aggregation.Query{Year: 2024, Region: models.RegionHome, Filter: taxonomy.Path{"Food"}})
			require.NoError(t, err)
			col := m.Column("Market")
			require.GreaterOrEqual(t, col, 0)
			assert.Equal(t, "50.00", m.Cell(time.March, col).StringFixed(2))
			assert.Equal(t, "50.00", m.Total.Cells[col].StringFixed(2))
			assert.Equal(t, "4.17", m.Average.Cells[col].StringFixed(2))
		})
	}
}

func TestRename_NoOpAndErrors(t *testing.T) {
	s, _ := newSession(t, cascade.StrategyIndex)
	_, err := s.AddCategory("Food")
	require.NoError(t, err)
	_, err = s.AddCategory("Car")
	require.NoError(t, err)

	log, err := s.Rename(taxonomy.Path{"Food"}, "Food")
	require.NoError(t, err)
	assert.True(t, log.Empty())

	_, err = s.Rename(taxonomy.Path{"Food"}, "Car")
	assert.ErrorIs(t, err, ledgererr.ErrDuplicateName)
	assert.Equal(t, []string{"Food", "Car"}, mustChildren(t, s, nil))
}

func TestDelete_CascadesAcrossRegions(t *testing.T) {
	s, _ := newSession(t, cascade.StrategyIndex)
	_, err := s.AddCategory("Car")
	require.NoError(t, err)
	_, err = s.AddCategory("Health")
	require.NoError(t, err)
	for _, region := range []models.Region{models.RegionHome, models.RegionForeign} {
		_, err = s.AddExpense(&models.Expense{Region: region, Category: "Car", Amount: d("10"), Date: models.MustParseDate("2024-01-01")})
		require.NoError(t, err)
		_, err = s.AddExpense(&models.Expense{Region: region, Category: "Health", Amount: d("5"), Date: models.MustParseDate("2024-01-01")})
		require.NoError(t, err)
	}

	log, err := s.Delete(taxonomy.Path{"Car"})
	require.NoError(t, err)
	assert.Equal(t, 2, log.Count(OpCascadeDelete))
	assert.Equal(t, 1, s.Count(ledger.HomeExpenses))
	assert.Equal(t, 1, s.Count(ledger.ForeignExpenses))

	foreign, _, err := s.ForeignBalance()
	require.NoError(t, err)
	assert.Equal(t, "-15", foreign.String(), "cascade delete does not refund the foreign account")
}

func TestAddNode_AdoptsOrphans(t *testing.T) {
	s, logger := newSession(t, cascade.StrategyIndex)
	_, err := s.AddExpense(&models.Expense{Region: models.RegionHome, Category: "Travel", Amount: d("99"), Date: models.MustParseDate("2024-07-01")})
	require.NoError(t, err)
	assert.True(t, logger.HasEntry("WARN", "Expense category is not in the taxonomy"))

	log, err := s.AddCategory("Travel")
	require.NoError(t, err)
	assert.Equal(t, 1, log.Count(OpAdopt))

	_, err = s.Rename(taxonomy.Path{"Travel"}, "Trips")
	require.NoError(t, err)
	assert.Equal(t, "Trips", s.Expenses(models.RegionHome, 2024)[0].Category)
}

func TestAddExpense_Validation(t *testing.T) {
	s, _ := newSession(t, cascade.StrategyIndex)

	_, err := s.AddExpense(&models.Expense{Region: models.RegionAll, Category: "Car", Amount: d("1"), Date: models.MustParseDate("2024-01-01")})
	assert.ErrorIs(t, err, ledgererr.ErrInvalidRecord)

	_, err = s.AddIncome(&models.IncomeEntry{Amount: d("1"), Date: models.MustParseDate("2024-01-01")})
	assert.ErrorIs(t, err, ledgererr.ErrInvalidRecord)
	assert.Zero(t, s.Count(ledger.Income))
}

func TestSettingsAndForeignAccount(t *testing.T) {
	s, _ := newSession(t, cascade.StrategyIndex)

	_, err := s.SetConversionRate(d("0"))
	assert.ErrorIs(t, err, ledgererr.ErrInvalidRate)

	log, err := s.SetConversionRate(d("140"))
	require.NoError(t, err)
	assert.True(t, log.Empty(), "unchanged rate is not a change")

	log, err = s.DepositForeignFromHome(d("10"), d("150"))
	require.NoError(t, err)
	assert.Len(t, log, 2)
	assert.True(t, s.ConversionRate().Equal(d("150")))

	_, err = s.DepositForeign(d("500"))
	require.NoError(t, err)
	foreign, home, err := s.ForeignBalance()
	require.NoError(t, err)
	assert.Equal(t, "2000", foreign.String())
	assert.Equal(t, "13.33", home.StringFixed(2))

	assert.False(t, s.SetInitialBalance(d("250")).Empty())
	assert.True(t, s.InitialBalance().Equal(d("250")))
}

func TestBalanceQueries(t *testing.T) {
	s, _ := newSession(t, cascade.StrategyIndex)
	_, err := s.AddIncome(&models.IncomeEntry{Source: "Salary", Amount: d("1000"), Date: models.MustParseDate("2024-01-31")})
	require.NoError(t, err)
	_, err = s.AddExpense(&models.Expense{Region: models.RegionHome, Category: "Rent", Amount: d("400"), Date: models.MustParseDate("2024-01-02")})
	require.NoError(t, err)
	_, err = s.AddInvestment(&models.InvestmentEntry{Category: "Stocks", Amount: d("150"), Date: models.MustParseDate("2024-01-03")})
	require.NoError(t, err)
	_, err = s.AddReturn(&models.ReturnEntry{Category: "Stocks", Amount: d("50"), Date: models.MustParseDate("2024-01-04")})
	require.NoError(t, err)
	_, err = s.AddExpense(&models.Expense{Region: models.RegionForeign, Category: "Rent", Amount: d("14000"), Date: models.MustParseDate("2024-01-05")})
	require.NoError(t, err)

	sum, err := s.YearSummary(2024)
	require.NoError(t, err)
	assert.Equal(t, "400.00", sum.Rows[0].Balance.StringFixed(2))

	current, err := s.CurrentBalance()
	require.NoError(t, err)
	assert.Equal(t, "400.00", current.StringFixed(2))

	inv := s.InvestmentSummary()
	assert.Equal(t, "-100", inv.NetProfit.String())
	assert.Equal(t, []int{2024}, s.Years())
}

func TestSnapshotRoundTrip(t *testing.T) {
	s, _ := newSession(t, cascade.StrategyIndex)
	_, err := s.AddCategory("Food")
	require.NoError(t, err)
	_, err = s.AddSubcategory("Food", "Groceries")
	require.NoError(t, err)
	_, err = s.AddExpense(&models.Expense{Region: models.RegionHome, Category: "Food", Subcategory: "Groceries", Amount: d("3"), Date: models.MustParseDate("2024-02-02")})
	require.NoError(t, err)
	_, err = s.AddExpense(&models.Expense{Region: models.RegionForeign, Category: "Ghost", Amount: d("7"), Date: models.MustParseDate("2024-02-03")})
	require.NoError(t, err)
	_, err = s.AddReturn(&models.ReturnEntry{Category: "Bonds", Kind: "Interest", Amount: d("2"), Date: models.MustParseDate("2024-02-04")})
	require.NoError(t, err)

	first := s.Snapshot()
	assert.Empty(t, first.HomeExpenses[0].ID)
	assert.Empty(t, first.HomeExpenses[0].NodeID)

	reloaded, skipped, err := New(first, Options{})
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.True(t, first.Equal(reloaded.Snapshot()))
}

func TestNew_KeepsIncompleteRecords(t *testing.T) {
	snap := snapshot.Default([]string{"Car"}, d("140"))
	snap.HomeExpenses = []models.Expense{
		{Category: "Car", Amount: d("1"), Date: models.MustParseDate("2024-01-01")},
		{Category: "", Amount: d("2"), Date: models.MustParseDate("2024-01-01")},
	}
	snap.ForeignExpenses = []models.Expense{
		{Category: "Car", Subsubcategory: "Tyres", Amount: d("3"), Date: models.MustParseDate("2024-01-02")},
	}
	logger := logging.NewMockLogger()
	s, incomplete, err := New(snap, Options{Logger: logger})
	require.NoError(t, err)
	assert.Equal(t, 2, incomplete)
	assert.Equal(t, 2, s.Count(ledger.HomeExpenses))
	assert.Equal(t, 1, s.Count(ledger.ForeignExpenses))
	assert.True(t, logger.HasEntry("WARN", "Loaded incomplete records from snapshot"))

	saved := s.Snapshot()
	require.Len(t, saved.HomeExpenses, 2)
	assert.Empty(t, saved.HomeExpenses[1].Category)
	assert.Equal(t, "Tyres", saved.ForeignExpenses[0].Subsubcategory)
}

func TestNew_SkipsInvalidCategoryNames(t *testing.T) {
	snap := snapshot.Default([]string{"Food", "", "  "}, d("140"))
	snap.HomeExpenses = []models.Expense{
		{Category: "Food", Amount: d("4"), Date: models.MustParseDate("2024-01-01")},
	}
	logger := logging.NewMockLogger()
	s, incomplete, err := New(snap, Options{Logger: logger})
	require.NoError(t, err)
	assert.Zero(t, incomplete)
	assert.Equal(t, []taxonomy.CategorySpec{{Name: "Food"}}, s.Taxonomy())
	assert.True(t, logger.HasEntry("WARN", "Skipping category with invalid name"))
}

func TestMerge(t *testing.T) {
	s, _ := newSession(t, cascade.StrategyIndex)
	other := &snapshot.Snapshot{
		HomeExpenses: []models.Expense{{Category: "Car", Amount: d("1"), Date: models.MustParseDate("2024-01-01")}},
		Income:       []models.IncomeEntry{{Source: "Gift", Amount: d("5"), Date: models.MustParseDate("2024-01-01")}, {Source: "Bad"}},
		Investments:  []models.InvestmentEntry{{Category: "Gold", Amount: d("9"), Date: models.MustParseDate("2024-01-01")}},
	}
	log, skipped := s.Merge(other)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, 3, log.Count(OpAppend))
	assert.Equal(t, []string{"Gold"}, s.Snapshot().InvestmentCategories)
}

func TestConcurrentReadersDuringWrites(t *testing.T) {
	s, _ := newSession(t, cascade.StrategyIndex)
	_, err := s.AddCategory("Food")
	require.NoError(t, err)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				before := len(s.Expenses(models.RegionHome, 0))
				m, err := s.Pivot(aggregation.Query{Year: 2024, Region: models.RegionHome})
				after := len(s.Expenses(models.RegionHome, 0))
				if !assert.NoError(t, err) {
					return
				}
				// a half-renamed collection would leave records outside the only column
				assert.GreaterOrEqual(t, m.Records, before)
				assert.LessOrEqual(t, m.Records, after)
			}
		}()
	}

	cur, next := "Food", "Meals"
	for i := 0; i < 50; i++ {
		_, err := s.AddExpense(&models.Expense{Region: models.RegionHome, Category: cur, Amount: d("1"), Date: models.MustParseDate("2024-05-05")})
		require.NoError(t, err)
		_, err = s.Rename(taxonomy.Path{cur}, next)
		require.NoError(t, err)
		cur, next = next, cur
	}
	close(stop)
	wg.Wait()

	m, err := s.Pivot(aggregation.Query{Year: 2024, Region: models.RegionHome})
	require.NoError(t, err)
	assert.Equal(t, 50, m.Records)
}

type flakySaver struct {
	mu       sync.Mutex
	failures int
	calls    int
	saved    *snapshot.Snapshot
}

func (f *flakySaver) Save(_ context.Context, snap *snapshot.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return errors.New("disk full")
	}
	f.saved = snap
	return nil
}

func (f *flakySaver) Backend() string { return "test" }

func TestService_PersistsChanges(t *testing.T) {
	s, _ := newSession(t, cascade.StrategyIndex)
	saver := &flakySaver{failures: 1}
	svc := NewService(s, saver, 2, logging.NewMockLogger())
	svc.SetRetryDelay(0)

	hooked := 0
	svc.OnSaved(func(context.Context, *snapshot.Snapshot) error {
		hooked++
		return errors.New("backup failed")
	})

	log, err := svc.Apply(context.Background(), func(s *Session) (ChangeLog, error) { return s.AddCategory("Food") })
	require.NoError(t, err)
	assert.False(t, log.Empty())
	assert.Equal(t, 2, saver.calls)
	require.NotNil(t, saver.saved)
	assert.Equal(t, "Food", saver.saved.Categories[0].Name)
	assert.Equal(t, 1, hooked)

	_, err = svc.Apply(context.Background(), func(s *Session) (ChangeLog, error) { return s.Rename(taxonomy.Path{"Food"}, "Food") })
	require.NoError(t, err)
	assert.Equal(t, 2, saver.calls, "no-op does not save")
}

func TestService_SaveErrorKeepsState(t *testing.T) {
	s, _ := newSession(t, cascade.StrategyIndex)
	saver := &flakySaver{failures: 10}
	svc := NewService(s, saver, 2, logging.NewMockLogger())
	svc.SetRetryDelay(0)

	_, err := svc.Apply(context.Background(), func(s *Session) (ChangeLog, error) { return s.AddCategory("Food") })
	require.Error(t, err)
	assert.ErrorIs(t, err, ledgererr.ErrSave)

	var saveErr *ledgererr.SaveError
	require.ErrorAs(t, err, &saveErr)
	assert.Equal(t, 3, saveErr.Attempts)
	assert.Equal(t, []string{"Food"}, mustChildren(t, svc.Session(), nil))

	_, err = svc.Apply(context.Background(), func(s *Session) (ChangeLog, error) { return s.AddCategory("Food") })
	assert.ErrorIs(t, err, ledgererr.ErrDuplicateName)
}

func mustChildren(t *testing.T, s *Session, path taxonomy.Path) []string {
	t.Helper()
	names, err := s.Children(path)
	require.NoError(t, err)
	return names
}

func TestRemoveRecords(t *testing.T) {
	s, _ := newSession(t, cascade.StrategyIndex)
	_, err := s.AddCategory("Car")
	require.NoError(t, err)
	for _, amt := range []string{"1", "2", "3"} {
		_, err = s.AddExpense(&models.Expense{Region: models.RegionHome, Category: "Car", Amount: d(amt), Date: models.MustParseDate("2024-01-01")})
		require.NoError(t, err)
	}

	log := s.RemoveRecords(ledger.HomeExpenses, func(r ledger.Record) bool {
		return r.(*models.Expense).Amount.Equal(d("2"))
	})
	assert.Equal(t, "remove home_expenses (1)", log.String())
	assert.Equal(t, 2, s.Count(ledger.HomeExpenses))

	assert.Nil(t, s.RemoveRecords(ledger.Income, nil))
	assert.Equal(t, 2, s.RemoveRecords(ledger.HomeExpenses, nil).Count(OpRemove))
	assert.Zero(t, s.Count(ledger.HomeExpenses))
}
