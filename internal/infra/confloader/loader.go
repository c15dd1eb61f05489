package confloader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "STAFFDESK_"

// Loader merges configuration from defaults, a file, the environment and
// overrides.
type Loader struct {
	k            *koanf.Koanf
	envPrefix    string
	filePath     string
	optionalFile bool
	defaults     map[string]any
	overrides    map[string]any
	fileLoaded   bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the configuration file path. A missing file is an
// error unless optional is true.
func WithConfigFile(path string, optional bool) Option {
	return func(l *Loader) {
		l.filePath = path
		l.optionalFile = optional
	}
}

// WithDefaults sets the lowest priority values, keyed by dotted path.
func WithDefaults(values map[string]any) Option {
	return func(l *Loader) {
		l.defaults = values
	}
}

// WithOverrides sets the highest priority values, keyed by dotted path.
// Empty strings and nil values are ignored so unset flags do not mask
// lower layers.
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) {
		l.overrides = values
	}
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load merges every source and unmarshals the result into target using
// koanf struct tags.
func (l *Loader) Load(target any) error {
	if len(l.defaults) > 0 {
		if err := l.LoadMap(l.defaults); err != nil {
			return fmt.Errorf("load defaults: %w", err)
		}
	}

	if err := l.LoadFile(l.filePath); err != nil {
		return fmt.Errorf("load config file: %w", err)
	}

	if err := l.LoadEnv(); err != nil {
		return err
	}

	if over := compact(l.overrides); len(over) > 0 {
		if err := l.LoadMap(over); err != nil {
			return fmt.Errorf("load overrides: %w", err)
		}
	}

	if err := l.Unmarshal(target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	return nil
}

// LoadFile merges a YAML file.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && l.optionalFile {
			return nil
		}
		return err
	}
	if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("load file %s: %w", path, err)
	}
	l.fileLoaded = true
	return nil
}

// LoadEnv merges environment variables carrying the prefix.
// STAFFDESK_API_TIMEOUT=5s sets api.timeout.
func (l *Loader) LoadEnv() error {
	transform := func(s string) string {
		s = strings.TrimPrefix(s, l.envPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "_", ".")
	}
	if err := l.k.Load(env.Provider(l.envPrefix, ".", transform), nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// LoadMap merges a map keyed by dotted path.
func (l *Loader) LoadMap(data map[string]any) error {
	if err := l.k.Load(mapProvider(data), nil); err != nil {
		return fmt.Errorf("load map: %w", err)
	}
	return nil
}

// Unmarshal decodes the merged configuration into target.
func (l *Loader) Unmarshal(target any) error {
	return l.k.Unmarshal("", target)
}

// Set assigns a single key.
func (l *Loader) Set(key string, value any) error {
	return l.k.Set(key, value)
}

// Get returns the merged value of key.
func (l *Loader) Get(key string) any {
	return l.k.Get(key)
}

// String returns the merged value of key as a string.
func (l *Loader) String(key string) string {
	return l.k.String(key)
}

// Keys returns every key present in the merged configuration.
func (l *Loader) Keys() []string {
	return l.k.Keys()
}

// FileLoaded reports whether a configuration file contributed values.
func (l *Loader) FileLoaded() bool {
	return l.fileLoaded
}

// MarshalYAML renders the merged configuration as YAML.
func (l *Loader) MarshalYAML() ([]byte, error) {
	return l.k.Marshal(yaml.Parser())
}

// compact drops empty overrides.
func compact(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		switch tv := v.(type) {
		case nil:
			continue
		case string:
			if tv == "" {
				continue
			}
		}
		out[k] = v
	}
	return out
}
