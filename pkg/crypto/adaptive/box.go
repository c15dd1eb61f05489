// Package adaptive provides adaptive encryption with automatic algorithm selection.
package adaptive

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// boxVersion is the first byte of every sealed box.
const boxVersion byte = 1

var cipherIDs = map[CipherType]byte{
	CipherAESGCM:   1,
	CipherChaCha20: 2,
}

// ErrMalformedBox is returned by Open for input not produced by Seal.
var ErrMalformedBox = errors.New("adaptive: malformed sealed box")

// DeriveKey expands secret into a KeySize key bound to purpose.
func DeriveKey(secret []byte, purpose string) ([]byte, error) {
	if len(secret) == 0 {
		return nil, errors.New("adaptive: empty secret")
	}
	key := make([]byte, KeySize)
	r := hkdf.New(sha256.New, secret, nil, []byte("staffdesk/"+purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("adaptive: derive key: %w", err)
	}
	return key, nil
}

// Seal encrypts plaintext with the preferred cipher and prefixes the
// result with a version byte and the cipher id.
func Seal(key, plaintext, additionalData []byte) ([]byte, error) {
	c, err := New(key)
	if err != nil {
		return nil, err
	}
	ct, err := c.Encrypt(plaintext, additionalData)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(ct)+2)
	out = append(out, boxVersion, cipherIDs[c.Type()])
	return append(out, ct...), nil
}

// Open decrypts a box produced by Seal, whichever cipher sealed it.
func Open(key, box, additionalData []byte) ([]byte, error) {
	if len(box) < 2 || box[0] != boxVersion {
		return nil, ErrMalformedBox
	}

	var cipherType CipherType
	for t, id := range cipherIDs {
		if id == box[1] {
			cipherType = t
		}
	}
	if cipherType == "" {
		return nil, ErrMalformedBox
	}

	c, err := NewWithType(key, cipherType)
	if err != nil {
		return nil, err
	}
	return c.Decrypt(box[2:], additionalData)
}
