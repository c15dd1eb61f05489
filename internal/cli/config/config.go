package config

import (
	"os"
	"path/filepath"
	"time"
)

// EnvAPIURL names the variable users are told to set.
const EnvAPIURL = "STAFFDESK_API_URL"

// CLIConfig is the merged CLI configuration.
type CLIConfig struct {
	API         APIConfig         `koanf:"api" yaml:"api"`
	Credentials CredentialsConfig `koanf:"credentials" yaml:"credentials"`
	Output      OutputConfig      `koanf:"output" yaml:"output"`
	Log         LogConfig         `koanf:"log" yaml:"log"`
	Telemetry   TelemetryConfig   `koanf:"telemetry" yaml:"telemetry"`
	Health      HealthConfig      `koanf:"health" yaml:"health"`
	History     HistoryConfig     `koanf:"history" yaml:"history"`
}

// APIConfig describes how to reach the backend.
type APIConfig struct {
	URL       string        `koanf:"url" yaml:"url" validate:"required,apiurl"`
	Timeout   time.Duration `koanf:"timeout" yaml:"timeout" validate:"gt=0"`
	CAFile    string        `koanf:"cafile" yaml:"cafile,omitempty" validate:"omitempty,file"`
	Insecure  bool          `koanf:"insecure" yaml:"insecure,omitempty"`
	RateLimit float64       `koanf:"ratelimit" yaml:"ratelimit" validate:"gte=0"`
	Burst     int           `koanf:"burst" yaml:"burst" validate:"gte=0"`
}

// CredentialsConfig selects where the session token is kept.
type CredentialsConfig struct {
	Backend string `koanf:"backend" yaml:"backend" validate:"oneof=file badger memory"`
	Path    string `koanf:"path" yaml:"path,omitempty"`
}

// OutputConfig controls how results are printed.
type OutputConfig struct {
	Format  string `koanf:"format" yaml:"format" validate:"oneof=table json yaml"`
	NoColor bool   `koanf:"nocolor" yaml:"nocolor,omitempty"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" yaml:"format" validate:"oneof=text json"`
	File   string `koanf:"file" yaml:"file,omitempty"`
}

// TelemetryConfig enables local metrics and tracing output.
type TelemetryConfig struct {
	MetricsFile string `koanf:"metricsfile" yaml:"metricsfile,omitempty"`
	Trace       bool   `koanf:"trace" yaml:"trace,omitempty"`
}

// HealthConfig tunes the connectivity probe.
type HealthConfig struct {
	Timeout time.Duration `koanf:"timeout" yaml:"timeout" validate:"gt=0"`
}

// HistoryConfig tunes the interactive shell history.
type HistoryConfig struct {
	File string `koanf:"file" yaml:"file,omitempty"`
	Size int    `koanf:"size" yaml:"size" validate:"gte=0"`
}

// Default returns the configuration used when nothing overrides it.
// API.URL is deliberately empty.
func Default() *CLIConfig {
	return &CLIConfig{
		API: APIConfig{
			Timeout: 30 * time.Second,
			Burst:   1,
		},
		Credentials: CredentialsConfig{Backend: "file"},
		Output:      OutputConfig{Format: "table"},
		Log:         LogConfig{Level: "warn", Format: "text"},
		Health:      HealthConfig{Timeout: 2 * time.Second},
		History:     HistoryConfig{Size: 500},
	}
}

// defaults flattens Default into dotted keys for the loader.
func defaults() map[string]any {
	d := Default()
	return map[string]any{
		"api.timeout":         d.API.Timeout.String(),
		"api.ratelimit":       d.API.RateLimit,
		"api.burst":           d.API.Burst,
		"credentials.backend": d.Credentials.Backend,
		"output.format":       d.Output.Format,
		"log.level":           d.Log.Level,
		"log.format":          d.Log.Format,
		"health.timeout":      d.Health.Timeout.String(),
		"history.size":        d.History.Size,
	}
}

// Dir returns the staffdesk configuration directory.
func Dir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "staffdesk")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".staffdesk")
}

// DefaultPath returns the default configuration file.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// HistoryPath returns the shell history file.
func (c *CLIConfig) HistoryPath() string {
	if c.History.File != "" {
		return c.History.File
	}
	return filepath.Join(Dir(), "history")
}

// CredentialsDir returns where credential stores keep their files.
func (c *CLIConfig) CredentialsDir() string {
	if c.Credentials.Path != "" {
		return c.Credentials.Path
	}
	return Dir()
}
