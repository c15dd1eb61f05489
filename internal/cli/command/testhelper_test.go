package command

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yndnr/staffdesk-go/internal/cli/config"
	"github.com/yndnr/staffdesk-go/internal/core/domain"
	"github.com/yndnr/staffdesk-go/internal/storage"
)

// account is a user known to the fake backend.
type account struct {
	password string
	token    string
	user     domain.User
}

// backend is a minimal staffdesk API.
type backend struct {
	server *httptest.Server

	mu          sync.Mutex
	accounts    map[string]account
	paths       []string
	healthDelay time.Duration
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{accounts: map[string]account{
		"ada@acme.io": {
			password: "secret",
			token:    "tok-admin",
			user:     domain.User{ID: "u1", Email: "ada@acme.io", Role: domain.RoleAdmin, FirstName: "Ada", LastName: "Lovelace", Company: domain.Ref{ID: "c1"}},
		},
		"bob@acme.io": {
			password: "secret",
			token:    "tok-employee",
			user:     domain.User{ID: "u2", Email: "bob@acme.io", Role: domain.RoleEmployee, FirstName: "Bob", Company: domain.Ref{ID: "c1"}},
		},
	}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", b.login)
	mux.HandleFunc("GET /api/auth/me", b.authed(func(w http.ResponseWriter, _ *http.Request, u domain.User) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"user": u}})
	}))
	mux.HandleFunc("GET /api/employees", b.authed(func(w http.ResponseWriter, r *http.Request, _ domain.User) {
		list := []domain.Employee{
			{ID: "e1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@acme.io", Status: "active"},
			{ID: "e2", FirstName: "Bob", LastName: "Stone", Email: "bob@acme.io", Status: "pending"},
		}
		if status := r.URL.Query().Get("status"); status != "" {
			list = []domain.Employee{list[1]}
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": list})
	}))
	mux.HandleFunc("GET /api/departments", b.authed(func(w http.ResponseWriter, _ *http.Request, _ domain.User) {
		writeJSON(w, http.StatusOK, []domain.Department{{ID: "d1", Name: "Engineering", Status: "active"}})
	}))
	mux.HandleFunc("POST /api/auth/check-email", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email string `json:"email"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		_, exists := b.accounts[body.Email]
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]bool{"exists": exists}})
	})
	mux.HandleFunc("POST /api/auth/register", b.authed(func(w http.ResponseWriter, r *http.Request, _ domain.User) {
		var req domain.AccountRequest
		json.NewDecoder(r.Body).Decode(&req)
		user := domain.User{ID: "u9", Email: req.Email, Role: req.Role, Company: domain.Ref{ID: req.Company}}
		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "data": map[string]any{"user": user}})
	}))
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		delay := b.healthDelay
		b.mu.Unlock()
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.paths = append(b.paths, r.Method+" "+r.URL.Path)
		b.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.server.Close)
	return b
}

func (b *backend) login(w http.ResponseWriter, r *http.Request) {
	var creds domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Malformed body"})
		return
	}
	acc, ok := b.accounts[creds.Email]
	if !ok || acc.password != creds.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{"token": acc.token, "user": acc.user}})
}

func (b *backend) authed(next func(http.ResponseWriter, *http.Request, domain.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		for _, acc := range b.accounts {
			if token != "" && acc.token == token {
				next(w, r, acc.user)
				return
			}
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Token expired"})
	}
}

// slowHealth delays every /api/health answer by d.
func (b *backend) slowHealth(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.healthDelay = d
}

// requested reports how many requests hit path ("GET /api/auth/me").
func (b *backend) requested(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, p := range b.paths {
		if p == path {
			n++
		}
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// harness runs commands against one Runtime, the way the shell does.
type harness struct {
	t       *testing.T
	backend *backend
	store   *storage.MemoryStore
	rt      *Runtime
	out     *bytes.Buffer
	errOut  *bytes.Buffer
	in      *strings.Reader
}

func newHarness(t *testing.T, input string) *harness {
	t.Helper()
	isolateConfig(t)

	h := &harness{
		t:       t,
		backend: newBackend(t),
		store:   storage.NewMemoryStore(),
		out:     &bytes.Buffer{},
		errOut:  &bytes.Buffer{},
		in:      strings.NewReader(input),
	}

	cfg := config.Default()
	cfg.API.URL = h.backend.server.URL
	rt, err := NewRuntime(cfg, RuntimeOptions{
		In:    h.in,
		Out:   h.out,
		Err:   h.errOut,
		Store: h.store,
	})
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close(context.Background()) })
	h.rt = rt
	return h
}

// run executes one command line and returns its error.
func (h *harness) run(args ...string) error {
	h.t.Helper()
	app := App()
	app.Reader, app.Writer, app.ErrWriter = h.in, h.out, h.errOut
	app.Metadata = map[string]any{runtimeKey: h.rt}
	return app.RunContext(context.Background(), append([]string{"staffdesk"}, args...))
}

// signIn stores the token of email as if a previous run had logged in.
func (h *harness) signIn(email string) {
	h.t.Helper()
	require.NoError(h.t, h.store.Save(context.Background(), h.backend.accounts[email].token))
}

// isolateConfig points the config directory at a temp dir and clears
// the STAFFDESK_* variables.
func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	for _, key := range []string{config.EnvAPIURL, "STAFFDESK_CONFIG", "STAFFDESK_PASSWORD", "STAFFDESK_OUTPUT_FORMAT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return dir
}
