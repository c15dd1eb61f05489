package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/yndnr/staffdesk-go/internal/core/domain"
	"github.com/yndnr/staffdesk-go/internal/infra/confloader"
)

// LoadOptions locate the configuration sources.
type LoadOptions struct {
	// Path is the configuration file. Empty means DefaultPath, which may
	// be absent.
	Path string
	// Overrides are flag values keyed by dotted path.
	Overrides map[string]any
}

// Load merges every source and validates the result.
func Load(opts LoadOptions) (*CLIConfig, error) {
	cfg, _, err := load(opts)
	if err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadUnchecked merges every source without validating, for commands
// that inspect or repair the configuration.
func LoadUnchecked(opts LoadOptions) (*CLIConfig, *confloader.Loader, error) {
	return load(opts)
}

func load(opts LoadOptions) (*CLIConfig, *confloader.Loader, error) {
	path, optional := opts.Path, false
	if path == "" {
		path, optional = DefaultPath(), true
	}

	l := confloader.NewLoader(
		confloader.WithConfigFile(path, optional),
		confloader.WithDefaults(defaults()),
		confloader.WithOverrides(opts.Overrides),
	)
	cfg := &CLIConfig{}
	if err := l.Load(cfg); err != nil {
		return nil, nil, err
	}
	sanitize(cfg)
	return cfg, l, nil
}

func sanitize(cfg *CLIConfig) {
	cfg.API.URL = strings.TrimRight(strings.TrimSpace(cfg.API.URL), "/")
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Credentials.Backend = strings.ToLower(strings.TrimSpace(cfg.Credentials.Backend))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("apiurl", func(fl validator.FieldLevel) bool {
		return validAPIURL(fl.Field().String())
	})
	return v
}

func validAPIURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Validate checks cfg. A missing backend URL yields ErrConfigMissing,
// anything else ErrValidation.
func Validate(cfg *CLIConfig) error {
	if cfg.API.URL == "" {
		return domain.ErrConfigMissing.WithDetails(EnvAPIURL + " is required")
	}
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.ErrValidation.WithCause(err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return domain.ErrValidation.WithDetails(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	key := configKey(fe.Namespace())
	switch fe.Tag() {
	case "apiurl":
		return fmt.Sprintf("%s must be an absolute http(s) URL, got %q", key, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", key, fe.Param())
	case "file":
		return fmt.Sprintf("%s: file %q not found", key, fe.Value())
	case "gt", "gte":
		return fmt.Sprintf("%s must be %s %s", key, map[string]string{"gt": ">", "gte": ">="}[fe.Tag()], fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", key, fe.Tag())
	}
}

// configKey turns "CLIConfig.API.RateLimit" into "api.ratelimit".
func configKey(namespace string) string {
	_, rest, _ := strings.Cut(namespace, ".")
	return strings.ToLower(rest)
}

// Save writes cfg as YAML with owner-only permissions.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return writeFile(path, data)
}

// SetKey updates one dotted key in the file at path, creating it when
// missing, and returns the resulting configuration without validating it.
func SetKey(path, key, value string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultPath()
	}
	if !knownKey(key) {
		return nil, domain.ErrValidation.WithDetails(fmt.Sprintf("unknown key %q", key))
	}

	l := confloader.NewLoader(confloader.WithConfigFile(path, true))
	if err := l.LoadFile(path); err != nil {
		return nil, err
	}
	if err := l.Set(key, scalar(value)); err != nil {
		return nil, err
	}
	data, err := l.MarshalYAML()
	if err != nil {
		return nil, err
	}
	if err := writeFile(path, data); err != nil {
		return nil, err
	}

	cfg, _, err := load(LoadOptions{Path: path})
	return cfg, err
}

// scalar decodes value as a YAML scalar so "true" and "3" keep their type.
func scalar(value string) any {
	var v any
	if err := yaml.Unmarshal([]byte(value), &v); err != nil || v == nil {
		return value
	}
	switch v.(type) {
	case bool, int, float64:
		return v
	}
	return value
}

// Keys lists every settable key.
func Keys() []string {
	return []string{
		"api.url", "api.timeout", "api.cafile", "api.insecure", "api.ratelimit", "api.burst",
		"credentials.backend", "credentials.path",
		"output.format", "output.nocolor",
		"log.level", "log.format", "log.file",
		"telemetry.metricsfile", "telemetry.trace",
		"health.timeout",
		"history.file", "history.size",
	}
}

func knownKey(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
