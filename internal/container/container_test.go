package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msahsan119/finman/internal/config"
	"github.com/msahsan119/finman/internal/ledger"
	"github.com/msahsan119/finman/internal/logging"
	"github.com/msahsan119/finman/internal/session"
	"github.com/msahsan119/finman/internal/store"
)

func testConfig(t *testing.T) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	cfg, err := config.InitializeConfig()
	require.NoError(t, err)
	cfg.Data.File = filepath.Join(dir, "finance_data.json")
	cfg.Data.SQLitePath = filepath.Join(dir, "finance_data.db")
	cfg.Data.BackupFile = filepath.Join(dir, "backup.csv")
	cfg.Data.SaveRetries = 0
	cfg.Ledger.TaxonomySeed = filepath.Join(dir, "categories.yaml")
	return cfg, dir
}

func TestNewContainer_NilConfig(t *testing.T) {
	_, err := NewContainer(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration cannot be nil")
}

func TestNewContainer_FreshJSONLedger(t *testing.T) {
	cfg, _ := testConfig(t)
	logger := logging.NewMockLogger()

	c, err := NewContainerWithLogger(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, store.BackendJSON, c.GetStore().Backend())
	assert.Same(t, cfg, c.GetConfig())
	assert.NotNil(t, c.GetReports())
	assert.NotNil(t, c.GetExporter())
	assert.NotNil(t, c.GetSeedFile())

	specs := c.GetSession().Taxonomy()
	require.Len(t, specs, len(config.DefaultCategories))
	assert.Equal(t, "Household cost", specs[0].Name)
	assert.True(t, logger.HasEntry("WARN", "Snapshot file not found, starting from defaults"))
}

func TestNewContainer_PersistsAndBacksUp(t *testing.T) {
	cfg, _ := testConfig(t)
	ctx := context.Background()

	c, err := NewContainerWithLogger(ctx, cfg, logging.NewMockLogger())
	require.NoError(t, err)
	_, err = c.GetService().Apply(ctx, func(s *session.Session) (session.ChangeLog, error) {
		return s.AddCategory("Travel")
	})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = os.Stat(cfg.Data.File)
	assert.NoError(t, err, "snapshot written")
	_, err = os.Stat(cfg.Data.BackupFile)
	assert.NoError(t, err, "backup written")

	reopened, err := NewContainerWithLogger(ctx, cfg, logging.NewMockLogger())
	require.NoError(t, err)
	defer reopened.Close()
	specs := reopened.GetSession().Taxonomy()
	assert.Equal(t, "Travel", specs[len(specs)-1].Name)
}

func TestNewContainer_SeedFile(t *testing.T) {
	cfg, _ := testConfig(t)
	cfg.Data.BackupEnabled = false
	require.NoError(t, os.WriteFile(cfg.Ledger.TaxonomySeed, []byte(`- name: Food
  subcategories:
    - name: Groceries
      items: [Market]
`), 0600))

	c, err := NewContainerWithLogger(context.Background(), cfg, logging.NewMockLogger())
	require.NoError(t, err)
	defer c.Close()

	children, err := c.GetSession().Children([]string{"Food", "Groceries"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Market"}, children)
}

func TestNewContainer_SQLiteBackend(t *testing.T) {
	cfg, _ := testConfig(t)
	cfg.Data.Backend = "sqlite"
	cfg.Data.BackupEnabled = false
	ctx := context.Background()

	c, err := NewContainerWithLogger(ctx, cfg, logging.NewMockLogger())
	require.NoError(t, err)
	assert.Equal(t, store.BackendSQLite, c.GetStore().Backend())
	require.NoError(t, c.GetService().Persist(ctx))
	require.NoError(t, c.Close())

	reopened, err := NewContainerWithLogger(ctx, cfg, logging.NewMockLogger())
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, 0, reopened.GetSession().Count(ledger.HomeExpenses))
}

func TestNewContainer_InvalidSettings(t *testing.T) {
	cfg, _ := testConfig(t)
	cfg.Cascade.Strategy = "guess"
	_, err := NewContainerWithLogger(context.Background(), cfg, logging.NewMockLogger())
	assert.Error(t, err)

	cfg, _ = testConfig(t)
	cfg.Data.Backend = "bigquery"
	_, err = NewContainerWithLogger(context.Background(), cfg, logging.NewMockLogger())
	assert.Error(t, err)
}

func TestNewContainer_LoadsLedgerWithBlankCategory(t *testing.T) {
	cfg, _ := testConfig(t)
	cfg.Data.BackupEnabled = false
	require.NoError(t, os.WriteFile(cfg.Data.File, []byte(`{
  "categories": ["Food", ""],
  "expenses": [
    {"category": "Food", "amount": 4, "date": "2024-01-01"},
    {"category": "", "amount": 5, "date": "2024-01-02"}
  ]
}`), 0600))
	logger := logging.NewMockLogger()

	c, err := NewContainerWithLogger(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer c.Close()

	specs := c.GetSession().Taxonomy()
	require.Len(t, specs, 1)
	assert.Equal(t, "Food", specs[0].Name)
	assert.Equal(t, 2, c.GetSession().Count(ledger.HomeExpenses))
	assert.True(t, logger.HasEntry("WARN", "Skipping category with invalid name"))
	assert.True(t, logger.HasEntry("WARN", "Loaded incomplete records from snapshot"))
}
