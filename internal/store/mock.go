package store

import (
	"context"
	"errors"
	"sync"

	"github.com/msahsan119/finman/internal/snapshot"
)

// ErrMockSave is returned by MockStore while FailSaves is positive.
var ErrMockSave = errors.New("mock save failure")

// MockStore is an in-memory SnapshotStore for tests.
type MockStore struct {
	mu sync.Mutex

	Snapshot *snapshot.Snapshot
	Saves    int

	// Error flags for testing error conditions
	LoadError error
	SaveError error
	// FailSaves makes the next n saves return ErrMockSave.
	FailSaves int
}

// Load returns a copy of the stored snapshot, or the default snapshot.
func (m *MockStore) Load(ctx context.Context) (*snapshot.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LoadError != nil {
		return nil, m.LoadError
	}
	if m.Snapshot == nil {
		return snapshot.Default(nil, snapshot.DefaultConversionRate), nil
	}
	return roundTrip(m.Snapshot)
}

// Save records the snapshot.
func (m *MockStore) Save(ctx context.Context, snap *snapshot.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveError != nil {
		return m.SaveError
	}
	if m.FailSaves > 0 {
		m.FailSaves--
		return ErrMockSave
	}
	stored, err := roundTrip(snap)
	if err != nil {
		return err
	}
	m.Snapshot = stored
	m.Saves++
	return nil
}

// Backend implements SnapshotStore.
func (m *MockStore) Backend() string { return "mock" }

// Close implements SnapshotStore.
func (m *MockStore) Close() error { return nil }

func roundTrip(s *snapshot.Snapshot) (*snapshot.Snapshot, error) {
	data, err := snapshot.Encode(s)
	if err != nil {
		return nil, err
	}
	out, _, err := snapshot.Decode(data)
	return out, err
}
