package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/msahsan119/finman/internal/logging"
	"github.com/msahsan119/finman/internal/snapshot"
)

// JSONFileStore keeps the snapshot in a single JSON document.
type JSONFileStore struct {
	path     string
	fallback Fallback
	logger   logging.Logger
}

// NewJSONFileStore creates a file backend writing to path.
func NewJSONFileStore(path string, fallback Fallback, logger logging.Logger) *JSONFileStore {
	if path == "" {
		path = "finance_data.json"
	}
	return &JSONFileStore{path: path, fallback: fallback, logger: logging.OrDefault(logger)}
}

// Path returns the document location.
func (s *JSONFileStore) Path() string { return s.path }

// Backend implements SnapshotStore.
func (s *JSONFileStore) Backend() string { return BackendJSON }

// Close implements SnapshotStore.
func (s *JSONFileStore) Close() error { return nil }

// Load reads the document. A missing file yields the fallback, as does a
// corrupt one after it is renamed to "<path>.corrupt-<time>".
func (s *JSONFileStore) Load(ctx context.Context) (*snapshot.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := s.logger.WithField(logging.FieldFile, s.path)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn("Snapshot file not found, starting from defaults")
			return s.fallback.build(), nil
		}
		return nil, fmt.Errorf("error reading snapshot file: %w", err)
	}

	snap, issues, err := snapshot.Decode(data)
	if err != nil {
		aside, moveErr := s.moveAside()
		if moveErr != nil {
			return nil, fmt.Errorf("snapshot file is corrupt and could not be moved aside: %w", moveErr)
		}
		log.WithError(err).Warn("Snapshot file is corrupt, moved aside and starting from defaults",
			logging.F("moved_to", aside))
		return s.fallback.build(), nil
	}
	if len(issues) > 0 {
		aside, err := setAside(s.path, data)
		if err != nil {
			return nil, err
		}
		reportIssues(log.WithField("copy", aside), issues)
	}
	log.Debug("Loaded snapshot", logging.F(logging.FieldCount, snap.Records()))
	return snap, nil
}

func (s *JSONFileStore) moveAside() (string, error) {
	name := asideName(s.path)
	if err := os.Rename(s.path, name); err != nil {
		return "", err
	}
	return name, nil
}

// Save writes the document to a temporary file and renames it over the
// previous one.
func (s *JSONFileStore) Save(ctx context.Context, snap *snapshot.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := snapshot.Encode(snap)
	if err != nil {
		return fmt.Errorf("error encoding snapshot: %w", err)
	}
	if err := ensureDir(s.path); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("error syncing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("error replacing snapshot file: %w", err)
	}

	s.logger.Debug("Saved snapshot",
		logging.F(logging.FieldFile, s.path),
		logging.F(logging.FieldCount, snap.Records()))
	return nil
}
