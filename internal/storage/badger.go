package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v3"
)

// BadgerOptions configures a BadgerStore.
type BadgerOptions struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string
	// KeyDir holds the machine key. Empty means an ephemeral key.
	KeyDir string
	// InMemory keeps the database in memory, for tests.
	InMemory bool
}

// BadgerStore keeps the sealed token in an embedded Badger database.
type BadgerStore struct {
	db       *badger.DB
	sealer   *sealer
	logger   *slog.Logger
	inMemory bool

	mu     sync.Mutex
	closed bool
}

// NewBadgerStore opens the Badger database described by opts.
func NewBadgerStore(opts BadgerOptions, logger *slog.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("badger: dir is required")
	}

	s, err := newSealer(opts.KeyDir)
	if err != nil {
		return nil, err
	}

	bopts := badger.DefaultOptions(opts.Dir).
		WithLogger(&badgerLogger{logger: logger}).
		WithSyncWrites(true).
		WithNumVersionsToKeep(1)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").
			WithInMemory(true).
			WithLogger(&badgerLogger{logger: logger})
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	logger.Debug("badger credential store opened", "dir", opts.Dir, "in_memory", opts.InMemory)
	return &BadgerStore{db: db, sealer: s, logger: logger, inMemory: opts.InMemory}, nil
}

func (s *BadgerStore) Load(ctx context.Context) (string, error) {
	if err := s.check(ctx); err != nil {
		return "", err
	}

	var sealed []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(CredentialKey))
		if err != nil {
			return err
		}
		sealed, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNoCredential
	}
	if err != nil {
		return "", fmt.Errorf("badger: get: %w", err)
	}

	value, err := s.sealer.open(sealed)
	if err != nil {
		s.logger.Warn("discarding credential sealed with another key")
		return "", ErrNoCredential
	}
	return value, nil
}

func (s *BadgerStore) Save(ctx context.Context, value string) error {
	if value == "" {
		return s.Clear(ctx)
	}
	if err := s.check(ctx); err != nil {
		return err
	}

	sealed, err := s.sealer.seal(value)
	if err != nil {
		return fmt.Errorf("badger: seal: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(CredentialKey), sealed)
	})
}

func (s *BadgerStore) Clear(ctx context.Context) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(CredentialKey))
	})
}

func (s *BadgerStore) Name() string { return BackendBadger }

// Close runs a value log GC pass and closes the database.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if !s.inMemory {
		if err := s.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
			s.logger.Debug("badger gc skipped", "error", err)
		}
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("badger: close db: %w", err)
	}
	return nil
}

func (s *BadgerStore) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
// Badger is chatty at info level, so info goes to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
