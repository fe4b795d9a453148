package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	flag "github.com/spf13/pflag"

	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/model"
	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/notify"
	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/recorder"
	"github.com/Morph3uss/Real-time-system-monitoring-project/internal/sampler"
)

const (
	DefaultConfigPath = "sysmon.toml"
	EnvPrefix         = "SYSMON_"
)

// Display modes.
const (
	ModeTUI    = "tui"
	ModeStream = "stream"
)

// Notification transports.
const (
	TransportNone    = "none"
	TransportSMTP    = "smtp"
	TransportDiscord = "discord"
)

// Recorder backends.
const (
	BackendCSV     = "csv"
	BackendElastic = "elasticsearch"
)

// Config carries runtime options for sysmon.
type Config struct {
	App struct {
		Interval          time.Duration `koanf:"interval"`
		LogLevel          string        `koanf:"log_level"`
		LogFile           string        `koanf:"log_file"`
		Mode              string        `koanf:"mode"`
		MaxSourceFailures int           `koanf:"max_source_failures"`
	} `koanf:"app"`

	Thresholds model.Thresholds `koanf:"thresholds"`

	Network struct {
		Mode string `koanf:"mode"`
	} `koanf:"network"`

	Notify struct {
		Transport   string        `koanf:"transport"`
		Subject     string        `koanf:"subject"`
		Destination []string      `koanf:"destination"`
		Timeout     time.Duration `koanf:"timeout"`
	} `koanf:"notify"`

	SMTP struct {
		Host     string `koanf:"host"`
		Port     int    `koanf:"port"`
		Username string `koanf:"username"`
		Password string `koanf:"password"`
		From     string `koanf:"from"`
	} `koanf:"smtp"`

	Discord struct {
		WebhookURL string `koanf:"webhook_url"`
	} `koanf:"discord"`

	Recorder struct {
		Backend      string        `koanf:"backend"`
		Path         string        `koanf:"path"`
		Timeout      time.Duration `koanf:"timeout"`
		FailureLimit int           `koanf:"failure_limit"`
	} `koanf:"recorder"`

	Elasticsearch struct {
		Addresses []string `koanf:"addresses"`
		Index     string   `koanf:"index"`
		Username  string   `koanf:"username"`
		Password  string   `koanf:"password"`
	} `koanf:"elasticsearch"`

	Display struct {
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"display"`

	Serve struct {
		Addr string `koanf:"addr"`
	} `koanf:"serve"`
}

func Default() Config {
	var cfg Config
	cfg.App.Interval = time.Second
	cfg.App.LogLevel = "info"
	cfg.App.Mode = ModeTUI
	cfg.App.MaxSourceFailures = 5
	cfg.Thresholds = model.DefaultThresholds()
	cfg.Network.Mode = string(sampler.ModeRate)
	cfg.Notify.Transport = TransportNone
	cfg.Notify.Subject = notify.DefaultSubject
	cfg.Notify.Timeout = notify.DefaultTimeout
	cfg.SMTP.Port = 587
	cfg.Recorder.Backend = BackendCSV
	cfg.Recorder.Path = recorder.DefaultPath
	cfg.Recorder.Timeout = 2 * time.Second
	cfg.Recorder.FailureLimit = recorder.DefaultFailureLimit
	cfg.Elasticsearch.Index = recorder.DefaultIndex
	cfg.Display.Timeout = time.Second
	return cfg
}

// flagKeys maps command line flags to config keys.
var flagKeys = map[string]string{
	"interval":           "app.interval",
	"mode":               "app.mode",
	"log-level":          "app.log_level",
	"cpu-threshold":      "thresholds.cpu",
	"ram-threshold":      "thresholds.ram",
	"network-threshold":  "thresholds.network",
	"disk-threshold":     "thresholds.disk",
	"notify-destination": "notify.destination",
	"log-path":           "recorder.path",
}

// Load builds the config from defaults, an optional config file,
// SYSMON_ environment variables and finally explicitly set flags.
func Load(args []string) (Config, error) {
	var (
		cfg = Default()
		ko  = koanf.New(".")
		f   = flag.NewFlagSet("sysmon", flag.ContinueOnError)
	)

	cfgPath := f.String("config", DefaultConfigPath, "Path to a TOML or YAML config file to load.")
	f.Duration("interval", cfg.App.Interval, "Sampling interval.")
	f.String("mode", cfg.App.Mode, "Display mode: tui|stream.")
	f.String("log-level", cfg.App.LogLevel, "Log level: info|debug.")
	f.Float64("cpu-threshold", cfg.Thresholds.CPU, "CPU alert threshold in percent.")
	f.Float64("ram-threshold", cfg.Thresholds.RAM, "RAM alert threshold in percent.")
	f.Float64("network-threshold", cfg.Thresholds.Network, "Network alert threshold in MB/s.")
	f.Float64("disk-threshold", cfg.Thresholds.Disk, "Per-device disk alert threshold in percent.")
	f.StringSlice("notify-destination", nil, "Alert recipient address(es).")
	f.String("log-path", cfg.Recorder.Path, "CSV metrics log path.")

	if err := f.Parse(args); err != nil {
		return cfg, err
	}

	if err := loadFile(ko, *cfgPath, f.Changed("config")); err != nil {
		return cfg, err
	}

	// Load environment variables and merge into the loaded config.
	err := ko.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "__", ".", -1)
	}), nil)
	if err != nil {
		return cfg, fmt.Errorf("loading environment: %w", err)
	}

	var setErr error
	f.Visit(func(fl *flag.Flag) {
		key, ok := flagKeys[fl.Name]
		if !ok || setErr != nil {
			return
		}
		var val interface{} = fl.Value.String()
		if sv, ok := fl.Value.(flag.SliceValue); ok {
			val = sv.GetSlice()
		}
		setErr = ko.Set(key, val)
	})
	if setErr != nil {
		return cfg, fmt.Errorf("applying flags: %w", setErr)
	}

	if err := ko.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, cfg.Validate()
}

// loadFile loads path if it exists. A missing file is only an error when
// it was asked for explicitly.
func loadFile(ko *koanf.Koanf, path string, explicit bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("config file: %w", err)
	}

	var parser koanf.Parser = toml.Parser()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	}
	if err := ko.Load(file.Provider(path), parser); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Validate checks option values that would otherwise fail deep inside the
// loop.
func (c Config) Validate() error {
	if c.App.Interval <= 0 {
		return fmt.Errorf("app.interval must be positive, got %s", c.App.Interval)
	}
	if err := c.Thresholds.Validate(); err != nil {
		return err
	}
	switch c.App.Mode {
	case ModeTUI, ModeStream:
	default:
		return fmt.Errorf("unknown app.mode %q", c.App.Mode)
	}
	if !sampler.NetworkMode(c.Network.Mode).Valid() {
		return fmt.Errorf("unknown network.mode %q", c.Network.Mode)
	}
	switch c.Notify.Transport {
	case TransportNone:
	case TransportSMTP:
		if c.SMTP.Host == "" || len(c.Notify.Destination) == 0 {
			return errors.New("smtp transport needs smtp.host and notify.destination")
		}
	case TransportDiscord:
		if c.Discord.WebhookURL == "" {
			return errors.New("discord transport needs discord.webhook_url")
		}
	default:
		return fmt.Errorf("unknown notify.transport %q", c.Notify.Transport)
	}
	switch c.Recorder.Backend {
	case BackendCSV:
		if c.Recorder.Path == "" {
			return errors.New("recorder.path is required for the csv backend")
		}
	case BackendElastic:
		if len(c.Elasticsearch.Addresses) == 0 {
			return errors.New("elasticsearch.addresses is required for the elasticsearch backend")
		}
	default:
		return fmt.Errorf("unknown recorder.backend %q", c.Recorder.Backend)
	}
	return nil
}
