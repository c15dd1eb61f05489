// Package logger provides structured logging for staffdesk.
//
// It wraps log/slog and redacts credentials before they reach the output:
// bearer headers, JWTs and values stored under password or token keys.
// The CLI logs to stderr in text form by default so that command output
// on stdout stays machine readable.
package logger
