package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/exp/slog"

	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/config"
	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/monitor"
	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/notify"
	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/observability"
	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/recorder"
	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/ui"
)

const defaultTUILog = "sysmon.log"

// initLogger initialises a logger. The TUI owns the terminal, so in that
// mode logs go to a file unless one is configured explicitly.
func initLogger(cfg config.Config) (*slog.Logger, io.Closer, error) {
	opts := slog.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelInfo,
	}
	if cfg.App.LogLevel == "debug" {
		opts.Level = slog.LevelDebug
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer = io.NopCloser(nil)
		path             = cfg.App.LogFile
	)
	if path == "" && cfg.App.Mode == config.ModeTUI {
		path = defaultTUILog
	}
	if path != "" {
		fd, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		w, closer = fd, fd
	}

	lo := slog.New(slog.NewTextHandler(w, &opts))
	return lo.With("component", "sysmon"), closer, nil
}

func initNotifier(cfg config.Config, lo *slog.Logger, hostname string) (*notify.Notifier, error) {
	var tr notify.Transport
	switch cfg.Notify.Transport {
	case config.TransportSMTP:
		t, err := notify.NewSMTPTransport(notify.SMTPOpts{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			To:       cfg.Notify.Destination,
		})
		if err != nil {
			return nil, err
		}
		tr = t
	case config.TransportDiscord:
		t, err := notify.NewDiscordTransport(cfg.Discord.WebhookURL, hostname)
		if err != nil {
			return nil, err
		}
		tr = t
	}

	n := notify.New(lo.With("sink", monitor.SinkNotifier), tr, notify.Opts{
		Subject: cfg.Notify.Subject,
		Timeout: cfg.Notify.Timeout,
	})
	if !n.Enabled() {
		lo.Info("alert notifications disabled")
	}
	return n, nil
}

func initRecorder(cfg config.Config, lo *slog.Logger) (*recorder.Tracker, error) {
	var (
		b   recorder.Backend
		err error
	)
	switch cfg.Recorder.Backend {
	case config.BackendElastic:
		b, err = recorder.NewElasticRecorder(recorder.ElasticOpts{
			Addresses: cfg.Elasticsearch.Addresses,
			Index:     cfg.Elasticsearch.Index,
			Username:  cfg.Elasticsearch.Username,
			Password:  cfg.Elasticsearch.Password,
		})
	default:
		b, err = recorder.NewCSVRecorder(cfg.Recorder.Path)
	}
	if err != nil {
		return nil, err
	}
	return recorder.NewTracker(lo.With("sink", monitor.SinkRecorder), b, cfg.Recorder.FailureLimit), nil
}

// initDisplay builds the terminal display. onQuit is called when the user
// quits the TUI.
func initDisplay(cfg config.Config, onQuit func()) monitor.Display {
	if cfg.App.Mode == config.ModeStream {
		return ui.NewStream(os.Stdout)
	}
	return ui.NewTUI(onQuit)
}

// initServer wires the optional metrics and websocket endpoint. It returns
// nils when serve.addr is empty.
func initServer(cfg config.Config, lo *slog.Logger) (*observability.Server, *observability.Metrics, *observability.Hub) {
	if cfg.Serve.Addr == "" {
		return nil, nil, nil
	}
	var (
		m   = observability.NewMetrics()
		hub = observability.NewHub(lo.With("sink", "hub"))
	)
	return observability.NewServer(lo, cfg.Serve.Addr, m, hub), m, hub
}

func shutdownServer(srv *observability.Server, lo *slog.Logger) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lo.Warn("shutting down server", "error", err)
	}
}
