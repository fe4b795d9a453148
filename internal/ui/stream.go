package ui

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/monitor"
	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/report"
)

// Stream writes one JSON frame per line, for headless runs.
type Stream struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewStream(w io.Writer) *Stream { return &Stream{enc: json.NewEncoder(w)} }

func (s *Stream) Start(context.Context) error { return nil }

func (s *Stream) Show(f report.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(f)
}

func (s *Stream) Stop() error { return nil }

// Multi fans frames out to several displays.
type Multi []monitor.Display

func (m Multi) Start(ctx context.Context) error {
	for i, d := range m {
		if err := d.Start(ctx); err != nil {
			for _, started := range m[:i] {
				_ = started.Stop()
			}
			return err
		}
	}
	return nil
}

func (m Multi) Show(f report.Frame) error {
	var errs []error
	for _, d := range m {
		if err := d.Show(f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Stop() error {
	var errs []error
	for _, d := range m {
		if err := d.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
