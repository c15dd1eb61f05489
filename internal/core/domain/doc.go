// Package domain defines the core domain models for staffdesk.
//
// Domain models are pure value objects without IO dependencies or
// framework coupling. This package contains:
//
//   - Session: client-side authentication state and its transitions
//   - User and Role: the signed-in identity
//   - Resource models: employees, departments, leaves, time entries,
//     dashboard statistics and companies as served by the backend
//   - Errors: the client error taxonomy
package domain
