package recorder

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/exp/slog"

	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/model"
)

// DefaultFailureLimit is the failure streak that escalates to an error
// diagnostic.
const DefaultFailureLimit = 5

// RecordError wraps a failed append.
type RecordError struct {
	Backend string
	Err     error
}

func (e *RecordError) Error() string { return fmt.Sprintf("%s recorder: %v", e.Backend, e.Err) }

func (e *RecordError) Unwrap() error { return e.Err }

// Backend appends one tick to durable storage.
type Backend interface {
	Name() string
	Record(ctx context.Context, s model.Sample, alerts []model.Alert) error
}

// Tracker wraps a Backend and tells single lost rows apart from a log
// that has stopped accepting writes.
type Tracker struct {
	lo      *slog.Logger
	backend Backend
	limit   int

	mu     sync.Mutex
	streak int
}

func NewTracker(lo *slog.Logger, b Backend, limit int) *Tracker {
	if limit <= 0 {
		limit = DefaultFailureLimit
	}
	return &Tracker{lo: lo.With("backend", b.Name()), backend: b, limit: limit}
}

func (t *Tracker) Name() string { return t.backend.Name() }

// Record forwards to the backend and updates the failure streak.
func (t *Tracker) Record(ctx context.Context, s model.Sample, alerts []model.Alert) error {
	err := t.backend.Record(ctx, s, alerts)

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.streak++
		if t.streak == t.limit {
			t.lo.Error("recorder persistently failing, metrics are not being persisted",
				"consecutive_failures", t.streak, "error", err)
		}
		return err
	}
	if t.streak >= t.limit {
		t.lo.Info("recorder recovered", "failed_ticks", t.streak)
	}
	t.streak = 0
	return nil
}

// Streak returns the current number of consecutive failures.
func (t *Tracker) Streak() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.streak
}

// Failing reports whether the streak has reached the limit.
func (t *Tracker) Failing() bool { return t.Streak() >= t.limit }
