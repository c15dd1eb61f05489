package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yndnr/staffdesk-go/internal/cli/connection"
	"github.com/yndnr/staffdesk-go/internal/storage"
	"github.com/yndnr/staffdesk-go/internal/telemetry/logger"
)

// recordedRequest is a request seen by the fake backend.
type recordedRequest struct {
	Method        string
	Path          string
	RawPath       string
	Query         string
	Authorization string
	Body          map[string]any
}

// fakeBackend is an httptest server with per-route handlers.
type fakeBackend struct {
	t      *testing.T
	server *httptest.Server
	hits   atomic.Int64

	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	requests []recordedRequest
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{t: t, routes: make(map[string]http.HandlerFunc)}
	b.server = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.server.Close)
	return b
}

// handle registers a handler for "METHOD /api/path".
func (b *fakeBackend) handle(route string, h http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[route] = h
}

// reply registers a fixed JSON response.
func (b *fakeBackend) reply(route string, status int, body string) {
	b.handle(route, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	})
}

func (b *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	b.hits.Add(1)
	rec := recordedRequest{
		Method:        r.Method,
		Path:          r.URL.Path,
		RawPath:       r.URL.EscapedPath(),
		Query:         r.URL.RawQuery,
		Authorization: r.Header.Get("Authorization"),
	}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		json.Unmarshal(data, &rec.Body)
	}

	b.mu.Lock()
	b.requests = append(b.requests, rec)
	h, ok := b.routes[r.Method+" "+r.URL.Path]
	b.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"success":false,"message":"not found"}`)
		return
	}
	h(w, r)
}

func (b *fakeBackend) last() recordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	require.NotEmpty(b.t, b.requests, "no request recorded")
	return b.requests[len(b.requests)-1]
}

// factory builds real pipeline clients against the fake backend.
func (b *fakeBackend) factory() ClientFactory {
	return func(h Hooks) API {
		c, err := connection.NewHTTPClient(b.server.URL,
			connection.WithTokenSource(connection.TokenFunc(h.Token)),
			connection.WithUnauthorizedHandler(h.OnUnauthorized),
			connection.WithLogger(logger.Discard()),
		)
		require.NoError(b.t, err)
		return c
	}
}

// client returns a pipeline client that always sends token.
func (b *fakeBackend) client(token string) API {
	return b.factory()(Hooks{Token: func() string { return token }, OnUnauthorized: func() {}})
}

// newTestManager returns a manager over a memory store seeded with token.
func newTestManager(t *testing.T, b *fakeBackend, token string) (*SessionManager, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	if token != "" {
		require.NoError(t, store.Save(context.Background(), token))
	}
	return NewSessionManager(store, b.factory(), WithSessionLogger(logger.Discard())), store
}
