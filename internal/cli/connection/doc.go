// Package connection is the request pipeline between staffdesk and the
// backend REST API.
//
// A single HTTPClient is built at startup with its interceptors given as
// options. Outgoing requests get their path rooted under /api, carry the
// bearer token when one exists and a ULID request id, wait on the rate
// limiter and are traced and counted. Non-2xx responses become
// *TransportError. A 401 calls the unauthorized handler before the error
// is returned to the caller.
package connection
