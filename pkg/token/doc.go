// Package token provides helpers for the bearer tokens issued by the
// staffdesk backend.
//
// The backend issues JWTs. The client never verifies signatures, it only
// reads the claims to show expiry information and to skip requests with
// a token that has obviously expired. Tokens are logged by fingerprint
// only.
package token
