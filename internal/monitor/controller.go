package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"

	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/alert"
	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/model"
	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/report"
	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/sampler"
)

var (
	// ErrSourceUnavailable is returned by Run when the metric source fails
	// at startup or for too many consecutive ticks.
	ErrSourceUnavailable = errors.New("metric source unavailable")
	ErrAlreadyStarted    = errors.New("controller already started")
	// ErrSinkBusy is reported for a sink whose previous call has not
	// returned yet. The sink is skipped for that tick.
	ErrSinkBusy = errors.New("sink still busy with a previous tick")
)

// Sink names used in logs and metrics.
const (
	SinkNotifier  = "notifier"
	SinkRecorder  = "recorder"
	SinkPresenter = "presenter"
)

// State of the controller lifecycle.
type State int32

const (
	Idle State = iota
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Collector produces one sample per tick.
type Collector interface {
	Collect(ctx context.Context, src sampler.Source) (model.Sample, error)
}

type Notifier interface {
	Notify(ctx context.Context, alerts []model.Alert) error
}

type Recorder interface {
	Record(ctx context.Context, s model.Sample, alerts []model.Alert) error
}

// Display draws frames. It is started before the first tick and stopped
// once on shutdown.
type Display interface {
	Start(ctx context.Context) error
	Show(f report.Frame) error
	Stop() error
}

// Observer receives tick outcomes. It must not block.
type Observer interface {
	ObserveSample(s model.Sample, alerts []model.Alert)
	ObserveSink(sink string, err error)
	ObserveSourceFailure(err error)
}

type Opts struct {
	Interval          time.Duration
	Thresholds        model.Thresholds
	MaxSourceFailures int

	NotifyTimeout  time.Duration
	RecordTimeout  time.Duration
	DisplayTimeout time.Duration
}

// Deps are the collaborators of the loop. Observer is optional.
type Deps struct {
	Source    sampler.Source
	Collector Collector
	Notifier  Notifier
	Recorder  Recorder
	Display   Display
	Observer  Observer
}

// Controller drives the fixed-interval sampling loop.
type Controller struct {
	lo   *slog.Logger
	opts Opts
	deps Deps

	mu    sync.Mutex
	state State

	busy map[string]*atomic.Bool
}

func New(lo *slog.Logger, opts Opts, deps Deps) (*Controller, error) {
	if deps.Source == nil || deps.Collector == nil {
		return nil, errors.New("source and collector are required")
	}
	if deps.Notifier == nil || deps.Recorder == nil || deps.Display == nil {
		return nil, errors.New("notifier, recorder and display are required")
	}
	if err := opts.Thresholds.Validate(); err != nil {
		return nil, err
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.MaxSourceFailures <= 0 {
		opts.MaxSourceFailures = 5
	}
	for _, d := range []*time.Duration{&opts.NotifyTimeout, &opts.RecordTimeout, &opts.DisplayTimeout} {
		if *d <= 0 {
			*d = opts.Interval
		}
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	return &Controller{
		lo:   lo,
		opts: opts,
		deps: deps,
		busy: map[string]*atomic.Bool{
			SinkNotifier:  new(atomic.Bool),
			SinkRecorder:  new(atomic.Bool),
			SinkPresenter: new(atomic.Bool),
		},
	}, nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	prev := c.state
	c.state = s
	c.mu.Unlock()
	c.lo.Debug("state change", "from", prev, "to", s)
}

// Run probes the source, starts the display and ticks until ctx is
// cancelled. It returns nil on a graceful stop, ErrSourceUnavailable
// when sampling is impossible and the display's error if it exited
// abnormally. A controller runs once.
func (c *Controller) Run(ctx context.Context) error {
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.state = Running
	c.mu.Unlock()

	if _, err := c.deps.Source.Read(ctx); err != nil {
		c.setState(Stopped)
		return fmt.Errorf("%w: startup probe: %w", ErrSourceUnavailable, err)
	}

	if err := c.deps.Display.Start(ctx); err != nil {
		c.setState(Stopped)
		return fmt.Errorf("starting display: %w", err)
	}
	c.lo.Info("monitor started", "interval", c.opts.Interval)

	err := c.loop(ctx)

	c.setState(Stopping)
	if serr := c.deps.Display.Stop(); serr != nil {
		c.lo.Error("display failed", "error", serr)
		if err == nil {
			err = fmt.Errorf("display: %w", serr)
		}
	}
	c.setState(Stopped)
	c.lo.Info("monitor stopped")
	return err
}

func (c *Controller) loop(ctx context.Context) error {
	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		// Cancellation wins over a tick that fired at the same time.
		if ctx.Err() != nil {
			return nil
		}

		if err := c.Tick(ctx); err != nil {
			failures++
			c.lo.Error("tick aborted", "error", err, "consecutive_failures", failures)
			if failures >= c.opts.MaxSourceFailures {
				return fmt.Errorf("%w: %d consecutive failures: %w", ErrSourceUnavailable, failures, err)
			}
			continue
		}
		failures = 0
	}
}

// Tick runs one full iteration: collect, evaluate, then the three sinks
// concurrently. The returned error is only ever a collection failure;
// sink failures are logged and counted. A tick that has started is not
// cut short by cancellation of ctx.
func (c *Controller) Tick(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)

	s, err := c.deps.Collector.Collect(ctx, c.deps.Source)
	if err != nil {
		c.deps.Observer.ObserveSourceFailure(err)
		return err
	}

	alerts := alert.Evaluate(s, c.opts.Thresholds)
	c.deps.Observer.ObserveSample(s, alerts)
	if len(alerts) > 0 {
		c.lo.Info("alerts raised", "count", len(alerts))
	}

	// Sinks never return errors to the group so one cannot cancel another.
	var g errgroup.Group
	g.Go(func() error {
		c.runSink(ctx, SinkNotifier, c.opts.NotifyTimeout, func(ctx context.Context) error {
			return c.deps.Notifier.Notify(ctx, alerts)
		})
		return nil
	})
	g.Go(func() error {
		c.runSink(ctx, SinkRecorder, c.opts.RecordTimeout, func(ctx context.Context) error {
			return c.deps.Recorder.Record(ctx, s, alerts)
		})
		return nil
	})
	g.Go(func() error {
		c.runSink(ctx, SinkPresenter, c.opts.DisplayTimeout, func(ctx context.Context) error {
			return c.deps.Display.Show(report.Render(s, alerts))
		})
		return nil
	})
	_ = g.Wait()
	return nil
}

// runSink invokes fn unless the sink's previous call is still running.
// The busy flag is cleared when fn returns, not when bounded gives up on it.
func (c *Controller) runSink(ctx context.Context, name string, timeout time.Duration, fn func(context.Context) error) {
	var err error
	busy := c.busy[name]
	if !busy.CompareAndSwap(false, true) {
		err = ErrSinkBusy
	} else {
		err = bounded(ctx, timeout, func(ctx context.Context) error {
			defer busy.Store(false)
			return fn(ctx)
		})
	}
	if err != nil {
		c.lo.Warn("sink failed", "sink", name, "error", err)
	}
	c.deps.Observer.ObserveSink(name, err)
}

// bounded runs fn with a deadline and waits at most timeout for it,
// even if fn ignores its context.
func bounded(ctx context.Context, timeout time.Duration, fn func(context.Context) error) (err error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("sink panic: %v", r)
			}
		}()
		done <- fn(ctx)
	}()

	select {
	case err = <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("sink abandoned after %s: %w", timeout, ctx.Err())
	}
}

type nopObserver struct{}

func (nopObserver) ObserveSample(model.Sample, []model.Alert) {}
func (nopObserver) ObserveSink(string, error)                 {}
func (nopObserver) ObserveSourceFailure(error)                {}
