// Package store persists ledger snapshots and the taxonomy seed file.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/msahsan119/finman/internal/logging"
	"github.com/msahsan119/finman/internal/snapshot"
)

// Backend names accepted by New.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// SnapshotStore loads and saves the ledger snapshot.
//
// Load fails open: a missing or unreadable document yields the fallback
// snapshot and a warning, and malformed records are left out with a
// warning each. The original document is copied aside first whenever Load
// returns less than it read, so a later Save cannot destroy it. Save errors
// are returned to the caller.
type SnapshotStore interface {
	Load(ctx context.Context) (*snapshot.Snapshot, error)
	Save(ctx context.Context, snap *snapshot.Snapshot) error
	Backend() string
	Close() error
}

// Fallback builds the snapshot used when no stored document can be read.
type Fallback func() *snapshot.Snapshot

// Options selects and configures a backend.
type Options struct {
	Backend    string
	File       string
	SQLitePath string
	Fallback   Fallback
	Logger     logging.Logger
}

// New creates the backend named by opts.Backend.
func New(opts Options) (SnapshotStore, error) {
	logger := logging.OrDefault(opts.Logger)
	switch strings.ToLower(opts.Backend) {
	case "", BackendJSON:
		logger.Debug("Using JSON snapshot backend", logging.F(logging.FieldFile, opts.File))
		return NewJSONFileStore(opts.File, opts.Fallback, logger), nil
	case BackendSQLite:
		logger.Debug("Using SQLite snapshot backend", logging.F(logging.FieldFile, opts.SQLitePath))
		return NewSQLiteStore(opts.SQLitePath, opts.Fallback, logger)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", opts.Backend)
	}
}

func (f Fallback) build() *snapshot.Snapshot {
	if f == nil {
		return snapshot.Default(nil, snapshot.DefaultConversionRate)
	}
	if s := f(); s != nil {
		return s
	}
	return snapshot.Default(nil, snapshot.DefaultConversionRate)
}

// FindConfigFile looks for filename in the standard locations: as given,
// under ./config, under ./data and under $HOME/.finman.
func FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if _, err := os.Stat(filename); err == nil {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
		filepath.Join("data", filename),
	}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(home, ".finman", filename))
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}
	return "", os.ErrNotExist
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}
	return nil
}

// setAside writes data next to path under a timestamped name ending in
// ".corrupt-<time>" and returns that name.
func setAside(path string, data []byte) (string, error) {
	if err := ensureDir(path); err != nil {
		return "", err
	}
	name := asideName(path)
	if err := os.WriteFile(name, data, 0600); err != nil {
		return "", fmt.Errorf("error setting aside unreadable snapshot: %w", err)
	}
	return name, nil
}

func asideName(path string) string {
	return fmt.Sprintf("%s.corrupt-%s", path, time.Now().UTC().Format("20060102T150405.000000000"))
}

// reportIssues logs each part of a document that decoding left out.
func reportIssues(log logging.Logger, issues []snapshot.Issue) {
	for _, is := range issues {
		fields := []logging.Field{logging.F(logging.FieldCollection, is.Section)}
		if is.Index >= 0 {
			fields = append(fields, logging.F("index", is.Index))
		}
		log.WithError(is.Err).Warn("Skipping malformed snapshot entry", fields...)
	}
	log.Warn("Snapshot loaded with unreadable entries", logging.F(logging.FieldCount, len(issues)))
}
