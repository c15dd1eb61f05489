// Package service provides the client-side services of staffdesk.
//
// SessionManager owns the authentication lifecycle: it restores the
// persisted token, validates it against the backend, logs users in and
// out and reacts to the backend ending a session. It builds the API
// client itself so the client's token source and 401 handler are the
// manager's own methods.
//
// The resource services (employees, departments, leaves, time entries,
// dashboard, companies, account) are thin typed wrappers over the API
// client that normalize every response with pkg/envelope.
//
// All services are safe for concurrent use.
package service
