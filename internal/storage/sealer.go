package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yndnr/staffdesk-go/pkg/crypto/adaptive"
	"github.com/yndnr/staffdesk-go/pkg/token"
)

const machineKeyFile = "machine.key"

// sealer encrypts values with a key derived from the machine key.
type sealer struct {
	key []byte
}

// newSealer reads the machine key in dir, creating it on first use.
// An empty dir yields an ephemeral key.
func newSealer(dir string) (*sealer, error) {
	secret, err := loadMachineKey(dir)
	if err != nil {
		return nil, err
	}
	key, err := adaptive.DeriveKey(secret, "credentials")
	if err != nil {
		return nil, err
	}
	return &sealer{key: key}, nil
}

func (s *sealer) seal(value string) ([]byte, error) {
	return adaptive.Seal(s.key, []byte(value), []byte(CredentialKey))
}

func (s *sealer) open(box []byte) (string, error) {
	plain, err := adaptive.Open(s.key, box, []byte(CredentialKey))
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func loadMachineKey(dir string) ([]byte, error) {
	if dir == "" {
		return token.GenerateBytes(adaptive.KeySize)
	}

	path := filepath.Join(dir, machineKeyFile)
	secret, err := os.ReadFile(path)
	if err == nil {
		if len(secret) != adaptive.KeySize {
			return nil, fmt.Errorf("storage: machine key %s is corrupt", path)
		}
		return secret, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("storage: read machine key: %w", err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("storage: create dir: %w", err)
	}
	secret, err = token.GenerateBytes(adaptive.KeySize)
	if err != nil {
		return nil, err
	}
	if err := writeFileAtomic(path, secret); err != nil {
		return nil, fmt.Errorf("storage: write machine key: %w", err)
	}
	return secret, nil
}

// writeFileAtomic writes data with mode 0600 through a rename so a
// reader never sees a partial file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
