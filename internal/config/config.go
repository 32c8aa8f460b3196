package config

import (
	"fmt"
	"time"

	"golang.org/x/mod/semver"

	"github.com/dshills/anaclient/internal/logging"
)

// Config is the complete client configuration.
type Config struct {
	Engine     EngineConfig     `toml:"engine" yaml:"engine"`
	Client     ClientConfig     `toml:"client" yaml:"client"`
	Supervisor SupervisorConfig `toml:"supervisor" yaml:"supervisor"`
	Logging    LoggingConfig    `toml:"logging" yaml:"logging"`
	Metrics    MetricsConfig    `toml:"metrics" yaml:"metrics"`
}

// EngineConfig describes how the engine process is launched.
type EngineConfig struct {
	Command     string            `toml:"command" yaml:"command"`
	Args        []string          `toml:"args" yaml:"args"`
	Env         map[string]string `toml:"env" yaml:"env"`
	WorkDir     string            `toml:"workDir" yaml:"workDir"`
	StopTimeout Duration          `toml:"stopTimeout" yaml:"stopTimeout"`
	RequestTime bool              `toml:"requestTime" yaml:"requestTime"`
}

// ClientConfig holds protocol client settings.
type ClientConfig struct {
	VersionCheck  bool     `toml:"versionCheck" yaml:"versionCheck"`
	MinVersion    string   `toml:"minVersion" yaml:"minVersion"`
	MaxVersion    string   `toml:"maxVersion" yaml:"maxVersion"`
	WatchInterval Duration `toml:"watchInterval" yaml:"watchInterval"`
}

// SupervisorConfig holds restart settings.
type SupervisorConfig struct {
	Enabled           bool     `toml:"enabled" yaml:"enabled"`
	MaxRestarts       int      `toml:"maxRestarts" yaml:"maxRestarts"`
	InitialBackoff    Duration `toml:"initialBackoff" yaml:"initialBackoff"`
	MaxBackoff        Duration `toml:"maxBackoff" yaml:"maxBackoff"`
	BackoffMultiplier float64  `toml:"backoffMultiplier" yaml:"backoffMultiplier"`
	ResetWindow       Duration `toml:"resetWindow" yaml:"resetWindow"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// MetricsConfig holds metrics settings. An empty Addr disables the endpoint.
type MetricsConfig struct {
	Addr string `toml:"addr" yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Command:     "dart",
			Args:        []string{"language-server", "--protocol=analyzer"},
			StopTimeout: Duration(5 * time.Second),
			RequestTime: true,
		},
		Client: ClientConfig{
			VersionCheck:  true,
			MinVersion:    "1.9.0",
			MaxVersion:    "2.0.0",
			WatchInterval: Duration(2 * time.Second),
		},
		Supervisor: SupervisorConfig{
			Enabled:           true,
			MaxRestarts:       5,
			InitialBackoff:    Duration(time.Second),
			MaxBackoff:        Duration(time.Minute),
			BackoffMultiplier: 2.0,
			ResetWindow:       Duration(5 * time.Minute),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: logging.FormatAuto,
		},
	}
}

// Validate checks the configuration and reports every invalid setting.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(path, msg string, value any) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value})
	}

	if c.Engine.Command == "" {
		add("engine.command", "must not be empty", nil)
	}
	if c.Engine.StopTimeout < 0 {
		add("engine.stopTimeout", "must not be negative", c.Engine.StopTimeout)
	}

	if c.Client.VersionCheck {
		if !semver.IsValid(canonical(c.Client.MinVersion)) {
			add("client.minVersion", "not a semantic version", c.Client.MinVersion)
		}
		if !semver.IsValid(canonical(c.Client.MaxVersion)) {
			add("client.maxVersion", "not a semantic version", c.Client.MaxVersion)
		} else if semver.Compare(canonical(c.Client.MinVersion), canonical(c.Client.MaxVersion)) >= 0 {
			add("client.maxVersion", "must be greater than client.minVersion", c.Client.MaxVersion)
		}
	}
	if c.Client.WatchInterval < 0 {
		add("client.watchInterval", "must not be negative", c.Client.WatchInterval)
	}

	if c.Supervisor.Enabled {
		if c.Supervisor.MaxRestarts < 0 {
			add("supervisor.maxRestarts", "must not be negative", c.Supervisor.MaxRestarts)
		}
		if c.Supervisor.InitialBackoff <= 0 {
			add("supervisor.initialBackoff", "must be positive", c.Supervisor.InitialBackoff)
		}
		if c.Supervisor.MaxBackoff < c.Supervisor.InitialBackoff {
			add("supervisor.maxBackoff", "must not be less than supervisor.initialBackoff", c.Supervisor.MaxBackoff)
		}
		if c.Supervisor.BackoffMultiplier < 1 {
			add("supervisor.backoffMultiplier", "must be at least 1", c.Supervisor.BackoffMultiplier)
		}
	}

	if c.Logging.Level != "" {
		if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
			add("logging.level", err.Error(), nil)
		}
	}
	switch c.Logging.Format {
	case "", logging.FormatAuto, logging.FormatConsole, logging.FormatJSON:
	default:
		add("logging.format", "must be auto, console or json", c.Logging.Format)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func canonical(v string) string {
	if v == "" || v[0] == 'v' {
		return v
	}
	return "v" + v
}

// Duration is a time.Duration written as a string such as "5s" in config
// files.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// String returns the duration in time.Duration notation.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
