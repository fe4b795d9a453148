package recorder

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/exp/slog"

	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/model"
)

type flakyBackend struct{ fail bool }

func (f *flakyBackend) Name() string { return "flaky" }

func (f *flakyBackend) Record(ctx context.Context, s model.Sample, alerts []model.Alert) error {
	if f.fail {
		return &RecordError{Backend: "flaky", Err: errors.New("io error")}
	}
	return nil
}

func TestTrackerEscalatesPersistentFailure(t *testing.T) {
	var logs bytes.Buffer
	lo := slog.New(slog.NewTextHandler(&logs, nil))
	b := &flakyBackend{fail: true}
	tr := NewTracker(lo, b, 3)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := tr.Record(ctx, model.Sample{}, nil); err == nil {
			t.Fatalf("expected error")
		}
	}
	if tr.Failing() || strings.Contains(logs.String(), "persistently failing") {
		t.Fatalf("escalated too early: %s", logs.String())
	}

	_ = tr.Record(ctx, model.Sample{}, nil)
	_ = tr.Record(ctx, model.Sample{}, nil)
	if !tr.Failing() || tr.Streak() != 4 {
		t.Fatalf("streak = %d", tr.Streak())
	}
	if n := strings.Count(logs.String(), "persistently failing"); n != 1 {
		t.Fatalf("diagnostic logged %d times:\n%s", n, logs.String())
	}

	b.fail = false
	if err := tr.Record(ctx, model.Sample{}, nil); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if tr.Streak() != 0 || !strings.Contains(logs.String(), "recorder recovered") {
		t.Fatalf("recovery not tracked: streak=%d logs=%s", tr.Streak(), logs.String())
	}
}
