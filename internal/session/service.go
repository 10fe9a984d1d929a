package session

import (
	"context"
	"time"

	"github.com/msahsan119/finman/internal/ledgererr"
	"github.com/msahsan119/finman/internal/logging"
	"github.com/msahsan119/finman/internal/snapshot"
)

// Saver persists snapshots.
type Saver interface {
	Save(ctx context.Context, snap *snapshot.Snapshot) error
	Backend() string
}

// SaveHook runs after a successful save. Hook errors are logged, not
// returned.
type SaveHook func(ctx context.Context, snap *snapshot.Snapshot) error

// Service wraps a session with write-through persistence: every operation
// that reports a change is followed by a save.
type Service struct {
	sess       *Session
	saver      Saver
	retries    int
	retryDelay time.Duration
	hooks      []SaveHook
	logger     logging.Logger
}

// NewService creates a service. retries is the number of extra attempts
// after a failed save.
func NewService(sess *Session, saver Saver, retries int, logger logging.Logger) *Service {
	if retries < 0 {
		retries = 0
	}
	return &Service{
		sess:       sess,
		saver:      saver,
		retries:    retries,
		retryDelay: 100 * time.Millisecond,
		logger:     logging.OrDefault(logger),
	}
}

// SetRetryDelay changes the pause between save attempts.
func (s *Service) SetRetryDelay(d time.Duration) { s.retryDelay = d }

// OnSaved registers a hook to run after each successful save.
func (s *Service) OnSaved(h SaveHook) { s.hooks = append(s.hooks, h) }

// Session returns the wrapped session for queries.
func (s *Service) Session() *Session { return s.sess }

// Apply runs op and persists the result when op reports a change. On a save
// failure the in-memory change is kept and a *ledgererr.SaveError is
// returned together with the log.
func (s *Service) Apply(ctx context.Context, op func(*Session) (ChangeLog, error)) (ChangeLog, error) {
	log, err := op(s.sess)
	if err != nil {
		return nil, err
	}
	if log.Empty() {
		return log, nil
	}
	for _, c := range log {
		s.logger.Debug("Ledger change", logging.F(logging.FieldOperation, c.String()))
	}
	return log, s.Persist(ctx)
}

// Persist saves the current snapshot, retrying on failure.
func (s *Service) Persist(ctx context.Context) error {
	snap := s.sess.Snapshot()

	var lastErr error
	attempts := 0
retry:
	for {
		attempts++
		if lastErr = s.saver.Save(ctx, snap); lastErr == nil {
			break
		}
		s.logger.WithError(lastErr).Warn("Saving snapshot failed",
			logging.F(logging.FieldBackend, s.saver.Backend()),
			logging.F(logging.FieldAttempt, attempts))
		if attempts > s.retries {
			break
		}
		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			break retry
		case <-time.After(s.retryDelay * time.Duration(attempts)):
		}
	}
	if lastErr != nil {
		return &ledgererr.SaveError{Backend: s.saver.Backend(), Attempts: attempts, Err: lastErr}
	}

	for _, h := range s.hooks {
		if err := h(ctx, snap); err != nil {
			s.logger.WithError(err).Warn("Post-save hook failed")
		}
	}
	return nil
}
