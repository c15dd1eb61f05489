// Package tlsroots builds the TLS client configuration used to reach the
// backend: system roots, an optional private CA bundle, and an opt-in
// switch to skip verification for local development servers.
package tlsroots
