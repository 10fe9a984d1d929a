package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msahsan119/finman/internal/logging"
	"github.com/msahsan119/finman/internal/models"
	"github.com/msahsan119/finman/internal/snapshot"
	"github.com/msahsan119/finman/internal/taxonomy"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	err := os.WriteFile(path, []byte(content), 0600)
	require.NoError(t, err)
}

func sampleSnapshot() *snapshot.Snapshot {
	s := snapshot.Default([]string{"Food", "Transport"}, decimal.NewFromInt(140))
	s.Categories[0].Subcategories = []taxonomy.SubcategorySpec{{Name: "Groceries", Items: []string{"Market"}}}
	s.HomeExpenses = []models.Expense{{
		Region:         models.RegionHome,
		Category:       "Food",
		Subcategory:    "Groceries",
		Subsubcategory: "Market",
		Amount:         decimal.RequireFromString("50"),
		Date:           models.NewDate(2024, time.March, 5),
		Location:       "Lidl",
	}}
	s.Income = []models.IncomeEntry{{Source: "Salary", Amount: decimal.NewFromInt(1000), Date: models.NewDate(2024, time.March, 1)}}
	s.InitialBalance = decimal.NewFromInt(250)
	return s
}

func fallbackWith(categories ...string) Fallback {
	return func() *snapshot.Snapshot {
		return snapshot.Default(categories, snapshot.DefaultConversionRate)
	}
}

func TestNew_SelectsBackend(t *testing.T) {
	dir := t.TempDir()

	s, err := New(Options{Backend: "json", File: filepath.Join(dir, "data.json")})
	require.NoError(t, err)
	assert.Equal(t, BackendJSON, s.Backend())

	s, err = New(Options{Backend: "SQLite", SQLitePath: filepath.Join(dir, "data.db")})
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, BackendSQLite, s.Backend())

	_, err = New(Options{Backend: "bigquery"})
	assert.Error(t, err)
}

func TestJSONFileStore_MissingFileFailsOpen(t *testing.T) {
	logger := logging.NewMockLogger()
	s := NewJSONFileStore(filepath.Join(t.TempDir(), "missing.json"), fallbackWith("Food"), logger)

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Categories, 1)
	assert.Equal(t, "Food", snap.Categories[0].Name)
	assert.True(t, logger.HasEntry("WARN", "Snapshot file not found, starting from defaults"))
}

func TestJSONFileStore_CorruptFileFailsOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	writeFile(t, path, "{not json")
	logger := logging.NewMockLogger()
	s := NewJSONFileStore(path, nil, logger)
	ctx := context.Background()

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Records())
	assert.True(t, snap.ConversionRate.Equal(snapshot.DefaultConversionRate))
	assert.True(t, logger.HasEntry("WARN", "Snapshot file is corrupt, moved aside and starting from defaults"))

	aside := asideFiles(t, path)
	require.Len(t, aside, 1)
	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, s.Save(ctx, snap))
	kept, err := os.ReadFile(aside[0])
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(kept))
}

func TestJSONFileStore_MalformedRecordKeepsTheRest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	doc := `{
  "categories": ["Car"],
  "expenses": [
    {"category": "Car", "amount": 10, "date": "2024-03-01"},
    {"category": "Car", "amount": 20, "date": "2024/3/5"}
  ],
  "income_sources": [{"source": "Salary", "amount": 1000, "date": "2024-03-01"}]
}`
	writeFile(t, path, doc)
	logger := logging.NewMockLogger()
	s := NewJSONFileStore(path, fallbackWith("Food"), logger)

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Categories, 1)
	assert.Equal(t, "Car", snap.Categories[0].Name)
	require.Len(t, snap.HomeExpenses, 1)
	assert.Equal(t, "10", snap.HomeExpenses[0].Amount.String())
	assert.Len(t, snap.Income, 1)
	assert.True(t, logger.HasEntry("WARN", "Skipping malformed snapshot entry"))
	assert.True(t, logger.HasEntry("WARN", "Snapshot loaded with unreadable entries"))

	aside := asideFiles(t, path)
	require.Len(t, aside, 1)
	kept, err := os.ReadFile(aside[0])
	require.NoError(t, err)
	assert.Equal(t, doc, string(kept))
}

func asideFiles(t *testing.T, path string) []string {
	t.Helper()
	matches, err := filepath.Glob(path + ".corrupt-*")
	require.NoError(t, err)
	return matches
}

func TestJSONFileStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.json")
	s := NewJSONFileStore(path, nil, logging.NewMockLogger())
	ctx := context.Background()
	orig := sampleSnapshot()

	require.NoError(t, s.Save(ctx, orig))
	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.True(t, orig.Equal(loaded))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary files are removed")
	assert.Equal(t, "data.json", entries[0].Name())
}

func TestJSONFileStore_SaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s := NewJSONFileStore(path, nil, logging.NewMockLogger())
	ctx := context.Background()

	first := sampleSnapshot()
	require.NoError(t, s.Save(ctx, first))
	second := sampleSnapshot()
	second.HomeExpenses = nil
	require.NoError(t, s.Save(ctx, second))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded.HomeExpenses)
	assert.Len(t, loaded.Income, 1)
}

func TestJSONFileStore_CancelledContext(t *testing.T) {
	s := NewJSONFileStore(filepath.Join(t.TempDir(), "data.json"), nil, logging.NewMockLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Save(ctx, sampleSnapshot()), context.Canceled)
	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSQLiteStore_EmptyDatabaseFailsOpen(t *testing.T) {
	logger := logging.NewMockLogger()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "data.db"), fallbackWith("Rent"), logger)
	require.NoError(t, err)
	defer s.Close()

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Categories, 1)
	assert.Equal(t, "Rent", snap.Categories[0].Name)
	assert.True(t, logger.HasEntry("WARN", "No stored snapshot, starting from defaults"))
}

func TestSQLiteStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")
	ctx := context.Background()
	orig := sampleSnapshot()

	s, err := NewSQLiteStore(path, nil, logging.NewMockLogger())
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, orig))
	require.NoError(t, s.Save(ctx, orig))
	rev, err := s.Revision(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, rev)
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path, nil, logging.NewMockLogger())
	require.NoError(t, err)
	defer reopened.Close()
	loaded, err := reopened.Load(ctx)
	require.NoError(t, err)
	assert.True(t, orig.Equal(loaded))
}

func TestSQLiteStore_CorruptDocumentFailsOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.db")
	ctx := context.Background()
	logger := logging.NewMockLogger()
	s, err := NewSQLiteStore(path, fallbackWith("Rent"), logger)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.db.ExecContext(ctx, upsertSnapshot, "{not json", time.Now().UTC().Format(time.RFC3339))
	require.NoError(t, err)

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Rent", snap.Categories[0].Name)
	assert.True(t, logger.HasEntry("WARN", "Stored snapshot is corrupt, starting from defaults"))

	aside := asideFiles(t, path)
	require.Len(t, aside, 1)
	kept, err := os.ReadFile(aside[0])
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(kept))
}

func TestSeedFile_LoadValidAndMissing(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "categories.yaml")
	writeFile(t, file, `- name: Food
  subcategories:
    - name: Groceries
      items: [Market, Bakery]
- name: Transport
`)
	seed := NewSeedFile(file, logging.NewMockLogger())
	specs, err := seed.Load()
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, []string{"Market", "Bakery"}, specs[0].Subcategories[0].Items)
	assert.Equal(t, "Transport", specs[1].Name)

	missing := NewSeedFile(filepath.Join(dir, "missing.yaml"), logging.NewMockLogger())
	specs, err = missing.Load()
	assert.NoError(t, err)
	assert.Nil(t, specs)
}

func TestSeedFile_Malformed(t *testing.T) {
	file := filepath.Join(t.TempDir(), "categories.yaml")
	writeFile(t, file, "name: [unterminated")
	_, err := NewSeedFile(file, logging.NewMockLogger()).Load()
	assert.Error(t, err)

	writeFile(t, file, "- name: \"  \"\n")
	_, err = NewSeedFile(file, logging.NewMockLogger()).Load()
	assert.Error(t, err, "blank names are rejected")
}

func TestSeedFile_SaveThenLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "seed", "categories.yaml")
	seed := NewSeedFile(file, logging.NewMockLogger())
	specs := []taxonomy.CategorySpec{
		{Name: "Food", Subcategories: []taxonomy.SubcategorySpec{{Name: "Groceries", Items: []string{"Market"}}}},
		{Name: "Transport"},
	}

	path, err := seed.Save(specs)
	require.NoError(t, err)
	assert.Equal(t, file, path)

	loaded, err := seed.Load()
	require.NoError(t, err)
	assert.Equal(t, specs, loaded)
}

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	testFile := filepath.Join(dir, "test.yaml")
	writeFile(t, testFile, "test content")

	file, err := FindConfigFile(testFile)
	assert.NoError(t, err)
	assert.Equal(t, testFile, file)

	_, err = FindConfigFile(filepath.Join(dir, "nonexistent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMockStore(t *testing.T) {
	ctx := context.Background()
	m := &MockStore{FailSaves: 1}

	assert.ErrorIs(t, m.Save(ctx, sampleSnapshot()), ErrMockSave)
	require.NoError(t, m.Save(ctx, sampleSnapshot()))
	assert.Equal(t, 1, m.Saves)

	loaded, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded.HomeExpenses, 1)
}
