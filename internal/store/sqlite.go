package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/msahsan119/finman/internal/logging"
	"github.com/msahsan119/finman/internal/snapshot"
)

const (
	selectSnapshot = `SELECT document, revision FROM snapshot WHERE id = 1`
	upsertSnapshot = `INSERT INTO snapshot (id, document, saved_at, revision) VALUES (1, ?, ?, 1)
ON CONFLICT(id) DO UPDATE SET document = excluded.document, saved_at = excluded.saved_at, revision = snapshot.revision + 1`
)

// SQLiteStore keeps the current snapshot document in a single table row.
type SQLiteStore struct {
	db       *sql.DB
	path     string
	fallback Fallback
	logger   logging.Logger
}

// NewSQLiteStore opens the database at path and runs the migrations.
func NewSQLiteStore(path string, fallback Fallback, logger logging.Logger) (*SQLiteStore, error) {
	if path == "" {
		path = "finance_data.db"
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(path); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{
		db:       db,
		path:     path,
		fallback: fallback,
		logger:   logging.OrDefault(logger),
	}, nil
}

// Backend implements SnapshotStore.
func (s *SQLiteStore) Backend() string { return BackendSQLite }

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Load reads the stored document. No row or an undecodable document yields
// the fallback. A document that does not load in full is first copied to
// "<path>.corrupt-<time>".
func (s *SQLiteStore) Load(ctx context.Context) (*snapshot.Snapshot, error) {
	log := s.logger.WithField(logging.FieldFile, s.path)

	var doc string
	var revision int
	err := s.db.QueryRowContext(ctx, selectSnapshot).Scan(&doc, &revision)
	if errors.Is(err, sql.ErrNoRows) {
		log.Warn("No stored snapshot, starting from defaults")
		return s.fallback.build(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}

	snap, issues, err := snapshot.Decode([]byte(doc))
	if err != nil || len(issues) > 0 {
		aside, asideErr := setAside(s.path, []byte(doc))
		if asideErr != nil {
			return nil, asideErr
		}
		log = log.WithField("copy", aside)
	}
	if err != nil {
		log.WithError(err).Warn("Stored snapshot is corrupt, starting from defaults")
		return s.fallback.build(), nil
	}
	if len(issues) > 0 {
		reportIssues(log, issues)
	}
	log.Debug("Loaded snapshot",
		logging.F(logging.FieldCount, snap.Records()),
		logging.F("revision", revision))
	return snap, nil
}

// Save replaces the stored document.
func (s *SQLiteStore) Save(ctx context.Context, snap *snapshot.Snapshot) error {
	data, err := snapshot.Encode(snap)
	if err != nil {
		return fmt.Errorf("error encoding snapshot: %w", err)
	}
	savedAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx, upsertSnapshot, string(data), savedAt); err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	s.logger.Debug("Saved snapshot",
		logging.F(logging.FieldFile, s.path),
		logging.F(logging.FieldCount, snap.Records()))
	return nil
}

// Revision returns how many times the snapshot row has been written.
func (s *SQLiteStore) Revision(ctx context.Context) (int, error) {
	var revision int
	err := s.db.QueryRowContext(ctx, `SELECT revision FROM snapshot WHERE id = 1`).Scan(&revision)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query revision: %w", err)
	}
	return revision, nil
}
