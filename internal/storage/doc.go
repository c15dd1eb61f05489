// Package storage persists the credential token between runs.
//
// Exactly one value is stored, under CredentialKey. Its absence means the
// user is logged out. Three backends are available:
//
//   - memory: process lifetime only, used by tests and --no-persist
//   - file: a single sealed file next to a random machine key
//   - badger: an embedded Badger database holding the sealed value
//
// The file and badger backends encrypt the token with pkg/crypto/adaptive
// using a key derived from the machine key.
package storage
