package notify

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/exp/slog"

	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/alert"
	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/model"
)

const (
	DefaultSubject = "Critical System Alert"
	DefaultTimeout = 5 * time.Second
)

// ErrInFlight is returned when the previous send has not finished yet.
var ErrInFlight = errors.New("previous notification still in flight")

// TransportError wraps a failed send.
type TransportError struct {
	Transport string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport: %v", e.Transport, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Transport delivers one message.
type Transport interface {
	Name() string
	Send(ctx context.Context, subject, body string) error
}

type Opts struct {
	Subject string
	Timeout time.Duration
}

// Notifier sends a tick's alerts through a Transport. Each send runs on its
// own goroutine and the caller waits at most Opts.Timeout for it.
type Notifier struct {
	lo        *slog.Logger
	transport Transport
	opts      Opts

	inFlight atomic.Bool
}

// New returns a Notifier. A nil transport disables sending.
func New(lo *slog.Logger, t Transport, opts Opts) *Notifier {
	if opts.Subject == "" {
		opts.Subject = DefaultSubject
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Notifier{lo: lo, transport: t, opts: opts}
}

// Enabled reports whether a transport is configured.
func (n *Notifier) Enabled() bool { return n.transport != nil }

// Notify sends alerts as one message. It does nothing for an empty list.
func (n *Notifier) Notify(ctx context.Context, alerts []model.Alert) error {
	if len(alerts) == 0 || n.transport == nil {
		return nil
	}
	if !n.inFlight.CompareAndSwap(false, true) {
		return &TransportError{Transport: n.transport.Name(), Err: ErrInFlight}
	}

	ctx, cancel := context.WithTimeout(ctx, n.opts.Timeout)
	defer cancel()

	var (
		body = alert.Body(alerts)
		done = make(chan error, 1)
	)
	go func() {
		defer n.inFlight.Store(false)
		done <- n.transport.Send(ctx, n.opts.Subject, body)
	}()

	select {
	case err := <-done:
		if err != nil {
			return &TransportError{Transport: n.transport.Name(), Err: err}
		}
		n.lo.Debug("notification sent", "transport", n.transport.Name(), "alerts", len(alerts))
		return nil
	case <-ctx.Done():
		return &TransportError{
			Transport: n.transport.Name(),
			Err:       fmt.Errorf("send abandoned after %s: %w", n.opts.Timeout, ctx.Err()),
		}
	}
}
