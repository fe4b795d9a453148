package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/config"
	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/monitor"
	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/sampler"
	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/ui"
)

const shutdownTimeout = 3 * time.Second

var (
	// Version of the build. This is injected at build-time.
	buildString = "unknown"
	exit        = func() { os.Exit(1) }
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "sysmon: %v\n", err)
		exit()
		return
	}

	lo, logCloser, err := initLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sysmon: %v\n", err)
		exit()
		return
	}
	defer logCloser.Close()
	lo.Info("booting sysmon", "version", buildString, "mode", cfg.App.Mode)

	hostname, err := os.Hostname()
	if err != nil {
		lo.Warn("reading hostname", "error", err)
	}

	notifier, err := initNotifier(cfg, lo, hostname)
	if err != nil {
		lo.Error("failed to init notifier", "error", err)
		exit()
		return
	}

	rec, err := initRecorder(cfg, lo)
	if err != nil {
		lo.Error("failed to init recorder", "error", err)
		exit()
		return
	}

	// Create a new context which is cancelled when `SIGINT`/`SIGTERM` is received.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	display := initDisplay(cfg, cancel)
	srv, metrics, hub := initServer(cfg, lo)

	deps := monitor.Deps{
		Source:    sampler.NewHostSource(ctx),
		Collector: sampler.NewAssembler(lo.With("stage", "sampler"), sampler.NetworkMode(cfg.Network.Mode), nil),
		Notifier:  notifier,
		Recorder:  rec,
		Display:   display,
	}
	if srv != nil {
		deps.Display = ui.Multi{display, hub}
		deps.Observer = metrics
		if err := srv.Start(); err != nil {
			lo.Error("failed to start server", "error", err)
			exit()
			return
		}
		defer shutdownServer(srv, lo)
	}

	ctrl, err := monitor.New(lo, monitor.Opts{
		Interval:          cfg.App.Interval,
		Thresholds:        cfg.Thresholds,
		MaxSourceFailures: cfg.App.MaxSourceFailures,
		NotifyTimeout:     cfg.Notify.Timeout,
		RecordTimeout:     cfg.Recorder.Timeout,
		DisplayTimeout:    cfg.Display.Timeout,
	}, deps)
	if err != nil {
		lo.Error("failed to init monitor", "error", err)
		exit()
		return
	}

	if err := ctrl.Run(ctx); err != nil {
		lo.Error("monitor exited", "error", err)
		shutdownServer(srv, lo)
		cancel()
		_ = logCloser.Close()
		fmt.Fprintf(os.Stderr, "sysmon: %v\n", err)
		exit()
		return
	}
	lo.Info("shutting down")
}
