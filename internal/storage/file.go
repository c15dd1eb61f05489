package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/yndnr/staffdesk-go/pkg/token"
)

const credentialFile = "credentials.json"

// fileRecord is the on-disk layout of the credential file.
type fileRecord struct {
	Version int       `json:"version"`
	Key     string    `json:"key"`
	SavedAt time.Time `json:"savedAt"`
	Sealed  []byte    `json:"sealed"`
}

// FileStore keeps the sealed token in a single file.
type FileStore struct {
	path   string
	sealer *sealer
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewFileStore opens the credential file in dir.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("storage: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s, err := newSealer(dir)
	if err != nil {
		return nil, err
	}
	return &FileStore{
		path:   filepath.Join(dir, credentialFile),
		sealer: s,
		logger: logger,
	}, nil
}

// Path returns the credential file location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrClosed
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNoCredential
	}
	if err != nil {
		return "", fmt.Errorf("storage: read credentials: %w", err)
	}

	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil || rec.Key != CredentialKey {
		s.logger.Warn("discarding unreadable credential file", "path", s.path)
		return "", ErrNoCredential
	}

	value, err := s.sealer.open(rec.Sealed)
	if err != nil {
		// Sealed with a different machine key.
		s.logger.Warn("discarding credential sealed with another key", "path", s.path)
		return "", ErrNoCredential
	}
	return value, nil
}

func (s *FileStore) Save(ctx context.Context, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if value == "" {
		return s.Clear(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	sealed, err := s.sealer.seal(value)
	if err != nil {
		return fmt.Errorf("storage: seal: %w", err)
	}
	data, err := json.Marshal(fileRecord{
		Version: 1,
		Key:     CredentialKey,
		SavedAt: time.Now().UTC(),
		Sealed:  sealed,
	})
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("storage: write credentials: %w", err)
	}

	s.logger.Debug("credential saved", "path", s.path, "fingerprint", token.Fingerprint(value))
	return nil
}

func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: remove credentials: %w", err)
	}
	s.logger.Debug("credential cleared", "path", s.path)
	return nil
}

func (s *FileStore) Name() string { return BackendFile }

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
