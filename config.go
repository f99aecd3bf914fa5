package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	UIWeb  = "web"
	UITUI  = "tui"
	UINone = "none"
)

// Config is resolved in layers: defaults, YAML file, environment
// (ADMINDASH_*), then command-line flags.
type Config struct {
	BaseURL string `yaml:"base_url" env:"ADMINDASH_BASE_URL"`
	Listen  string `yaml:"listen"   env:"ADMINDASH_LISTEN"`
	UI      string `yaml:"ui"       env:"ADMINDASH_UI"`

	Stream         bool          `yaml:"stream"          env:"ADMINDASH_STREAM"`
	StreamPath     string        `yaml:"stream_path"     env:"ADMINDASH_STREAM_PATH"`
	FetchMode      string        `yaml:"fetch_mode"      env:"ADMINDASH_FETCH_MODE"`
	PollInterval   time.Duration `yaml:"poll_interval"   env:"ADMINDASH_POLL_INTERVAL"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay" env:"ADMINDASH_RECONNECT_DELAY"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"ADMINDASH_REQUEST_TIMEOUT"`

	SequenceRefreshes bool `yaml:"sequence_refreshes" env:"ADMINDASH_SEQUENCE_REFRESHES"`

	TimeLayout string `yaml:"time_layout" env:"ADMINDASH_TIME_LAYOUT"`
	TimeZone   string `yaml:"time_zone"   env:"ADMINDASH_TIME_ZONE"`

	LogLevel string `yaml:"log_level" env:"ADMINDASH_LOG_LEVEL"`
	LogFile  string `yaml:"log_file"  env:"ADMINDASH_LOG_FILE"`

	loc *time.Location
}

func DefaultConfig() Config {
	return Config{
		BaseURL:        "http://localhost:8080",
		Listen:         ":8093",
		UI:             UIWeb,
		Stream:         true,
		StreamPath:     pathStream,
		PollInterval:   DefaultPollInterval,
		ReconnectDelay: DefaultReconnectDelay,
		RequestTimeout: 10 * time.Second,
		TimeLayout:     DefaultTimeLayout,
		LogLevel:       "info",
		LogFile:        "admindash.log",
	}
}

// LoadConfig parses args and resolves every layer. The YAML path comes from
// -config or ADMINDASH_CONFIG; a missing path means no file layer.
func LoadConfig(args []string, stderr io.Writer) (Config, error) {
	fs := flag.NewFlagSet("admindash", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var fl Config
	configPath := fs.String("config", os.Getenv("ADMINDASH_CONFIG"), "Path to YAML config file")
	fs.StringVar(&fl.BaseURL, "base-url", "", "Backend base URL")
	fs.StringVar(&fl.Listen, "listen", "", "Listen address for the web UI")
	fs.StringVar(&fl.UI, "ui", "", "Surface: web|tui|none")
	fs.BoolVar(&fl.Stream, "stream", false, "Use the server-sent event stream (false = poll)")
	fs.StringVar(&fl.StreamPath, "stream-path", "", "Event stream path")
	fs.StringVar(&fl.FetchMode, "fetch-mode", "", "One-shot fetch: dashboard|split (default depends on -stream)")
	fs.DurationVar(&fl.PollInterval, "poll-interval", 0, "Poll interval in poll mode")
	fs.DurationVar(&fl.ReconnectDelay, "reconnect-delay", 0, "Fixed delay between stream reconnects")
	fs.DurationVar(&fl.RequestTimeout, "request-timeout", 0, "Per-request timeout for one-shot fetches")
	fs.BoolVar(&fl.SequenceRefreshes, "sequence-refreshes", false, "Drop refresh responses superseded by a newer request")
	fs.StringVar(&fl.TimeLayout, "time-layout", "", "Go time layout for timestamps")
	fs.StringVar(&fl.TimeZone, "time-zone", "", "IANA zone for timestamps (default local)")
	fs.StringVar(&fl.LogLevel, "log-level", "", "Log level: debug|info|warn|error")
	fs.StringVar(&fl.LogFile, "log-file", "", "Log file used by the tui surface")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	if *configPath != "" {
		if err := loadConfigFile(*configPath, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "base-url":
			cfg.BaseURL = fl.BaseURL
		case "listen":
			cfg.Listen = fl.Listen
		case "ui":
			cfg.UI = fl.UI
		case "stream":
			cfg.Stream = fl.Stream
		case "stream-path":
			cfg.StreamPath = fl.StreamPath
		case "fetch-mode":
			cfg.FetchMode = fl.FetchMode
		case "poll-interval":
			cfg.PollInterval = fl.PollInterval
		case "reconnect-delay":
			cfg.ReconnectDelay = fl.ReconnectDelay
		case "request-timeout":
			cfg.RequestTimeout = fl.RequestTimeout
		case "sequence-refreshes":
			cfg.SequenceRefreshes = fl.SequenceRefreshes
		case "time-layout":
			cfg.TimeLayout = fl.TimeLayout
		case "time-zone":
			cfg.TimeZone = fl.TimeZone
		case "log-level":
			cfg.LogLevel = fl.LogLevel
		case "log-file":
			cfg.LogFile = fl.LogFile
		}
	})

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadConfigFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate normalises cfg in place and reports every invalid field.
func (c *Config) Validate() error {
	var errs []error

	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("base_url %q must be an absolute http(s) URL", c.BaseURL))
	}

	c.UI = strings.ToLower(strings.TrimSpace(c.UI))
	switch c.UI {
	case UIWeb, UITUI, UINone:
	default:
		errs = append(errs, fmt.Errorf("ui %q must be one of web|tui|none", c.UI))
	}

	c.FetchMode = strings.ToLower(strings.TrimSpace(c.FetchMode))
	switch c.FetchMode {
	case "", FetchDashboard, FetchSplit:
	default:
		errs = append(errs, fmt.Errorf("fetch_mode %q must be dashboard or split", c.FetchMode))
	}

	if c.StreamPath == "" {
		c.StreamPath = pathStream
	}
	if !strings.HasPrefix(c.StreamPath, "/") {
		errs = append(errs, fmt.Errorf("stream_path %q must start with /", c.StreamPath))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive"))
	}
	if c.ReconnectDelay <= 0 {
		errs = append(errs, fmt.Errorf("reconnect_delay must be positive"))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("request_timeout must not be negative"))
	}
	if c.TimeLayout == "" {
		c.TimeLayout = DefaultTimeLayout
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	switch strings.TrimSpace(c.TimeZone) {
	case "", "Local":
		c.loc = time.Local
	default:
		loc, err := time.LoadLocation(c.TimeZone)
		if err != nil {
			errs = append(errs, fmt.Errorf("time_zone %q: %w", c.TimeZone, err))
		}
		c.loc = loc
	}

	return errors.Join(errs...)
}

func (c Config) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

func (c Config) TimeFormatter() TimeFormatter {
	return TimeFormatter{Layout: c.TimeLayout, ClockLayout: DefaultClockLayout, Loc: c.Location()}
}
