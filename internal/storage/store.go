package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// CredentialKey is the only key ever written to a store.
const CredentialKey = "auth.token"

// Backend names accepted by NewStore.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendBadger = "badger"
)

var (
	// ErrNoCredential is returned by Load when nothing is stored.
	ErrNoCredential = errors.New("storage: no credential stored")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("storage: store closed")
)

// CredentialStore holds the bearer token.
type CredentialStore interface {
	// Load returns the stored token or ErrNoCredential.
	Load(ctx context.Context) (string, error)

	// Save replaces the stored token.
	Save(ctx context.Context, token string) error

	// Clear removes the stored token. Clearing an empty store is not an error.
	Clear(ctx context.Context) error

	// Name returns the backend name.
	Name() string

	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend string
	// Dir holds the credential file, the badger directory and the machine key.
	Dir    string
	Logger *slog.Logger
}

// DefaultDir returns the per-user state directory.
func DefaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "staffdesk")
	}
	return filepath.Join(os.TempDir(), "staffdesk")
}

// NewStore opens the backend named in cfg.
func NewStore(cfg Config) (CredentialStore, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Dir == "" {
		cfg.Dir = DefaultDir()
	}

	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile, "":
		return NewFileStore(cfg.Dir, cfg.Logger)
	case BackendBadger:
		return NewBadgerStore(BadgerOptions{Dir: filepath.Join(cfg.Dir, "db"), KeyDir: cfg.Dir}, cfg.Logger)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.Backend)
	}
}
