// Package adaptive provides adaptive encryption for staffdesk.
//
// It picks the best authenticated cipher for the running CPU and wraps
// it in a small self-describing format so data sealed on one machine
// can be opened on another.
//
// Supported Algorithms:
//
//   - AES-256-GCM: preferred when the CPU has AES instructions
//   - ChaCha20-Poly1305: used otherwise
//
// Usage:
//
//	key, err := adaptive.DeriveKey(secret, "credentials")
//	box, err := adaptive.Seal(key, plaintext, aad)
//	plaintext, err := adaptive.Open(key, box, aad)
package adaptive
