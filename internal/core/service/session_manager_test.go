package service

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yndnr/staffdesk-go/internal/core/domain"
	"github.com/yndnr/staffdesk-go/internal/storage"
	"github.com/yndnr/staffdesk-go/internal/telemetry/logger"
	"github.com/yndnr/staffdesk-go/internal/telemetry/metric"
	"github.com/yndnr/staffdesk-go/pkg/envelope"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreAnyFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreAnyFunction("net/http.(*persistConn).writeLoop"),
		// Started by glog's init, reached through badger.
		goleak.IgnoreTopFunction("github.com/golang/glog.(*loggingT).flushDaemon"),
	)
}

const adminMe = `{"success":true,"data":{"user":{"_id":"u1","email":"ada@acme.io","firstName":"Ada"},"role":"admin"}}`

func TestSessionManager_InitialState(t *testing.T) {
	b := newFakeBackend(t)
	m, _ := newTestManager(t, b, "")

	s := m.State()
	assert.Equal(t, domain.StatusUnknown, s.Status)
	assert.Empty(t, s.Token)
	assert.Nil(t, s.User)
	assert.NotNil(t, m.Client())
}

func TestSessionManager_CheckAuth_NoToken(t *testing.T) {
	b := newFakeBackend(t)
	m, _ := newTestManager(t, b, "")

	require.NoError(t, m.CheckAuth(context.Background()))

	s := m.State()
	assert.Equal(t, domain.StatusUnauthenticated, s.Status)
	assert.Nil(t, s.User)
	assert.Zero(t, b.hits.Load(), "no request without a stored token")
}

func TestSessionManager_CheckAuth_Restores(t *testing.T) {
	b := newFakeBackend(t)
	b.reply("GET /api/auth/me", http.StatusOK, adminMe)
	m, _ := newTestManager(t, b, "stored-token")

	require.NoError(t, m.CheckAuth(context.Background()))

	s := m.State()
	require.Equal(t, domain.StatusAuthenticated, s.Status)
	assert.Equal(t, "stored-token", s.Token)
	require.NotNil(t, s.User)
	assert.Equal(t, "u1", s.User.ID)
	assert.Equal(t, domain.RoleAdmin, s.User.Role)
	assert.Equal(t, "Bearer stored-token", b.last().Authorization)
}

func TestSessionManager_CheckAuth_BareUser(t *testing.T) {
	b := newFakeBackend(t)
	b.reply("GET /api/auth/me", http.StatusOK, `{"id":"u9","email":"hr@acme.io","role":"HR"}`)
	m, _ := newTestManager(t, b, "tok")

	require.NoError(t, m.CheckAuth(context.Background()))

	s := m.State()
	require.Equal(t, domain.StatusAuthenticated, s.Status)
	assert.Equal(t, "u9", s.User.ID)
	assert.Equal(t, domain.RoleHR, s.User.Role)
}

func TestSessionManager_CheckAuth_Unauthorized(t *testing.T) {
	b := newFakeBackend(t)
	b.reply("GET /api/auth/me", http.StatusUnauthorized, `{"success":false,"message":"Token expired"}`)
	m, store := newTestManager(t, b, "stale")

	err := m.CheckAuth(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)

	s := m.State()
	assert.Equal(t, domain.StatusUnauthenticated, s.Status)
	assert.Empty(t, s.Token)
	assert.Equal(t, "Token expired", s.LastError)

	_, lerr := store.Load(context.Background())
	assert.ErrorIs(t, lerr, storage.ErrNoCredential)
	assert.EqualValues(t, 1, b.hits.Load())
}

func TestSessionManager_CheckAuth_ServerError(t *testing.T) {
	b := newFakeBackend(t)
	b.reply("GET /api/auth/me", http.StatusInternalServerError, `{"message":"db down"}`)
	m, store := newTestManager(t, b, "tok")

	err := m.CheckAuth(context.Background())
	require.Error(t, err)

	s := m.State()
	assert.Equal(t, domain.StatusError, s.Status)
	assert.Equal(t, "db down", s.LastError)
	assert.Empty(t, s.Token)

	_, lerr := store.Load(context.Background())
	assert.ErrorIs(t, lerr, storage.ErrNoCredential)
}

func TestSessionManager_CheckAuth_DeadlineClearsStore(t *testing.T) {
	b := newFakeBackend(t)
	b.handle("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(300 * time.Millisecond):
			w.Write([]byte(adminMe))
		case <-r.Context().Done():
		}
	})
	store, err := storage.NewFileStore(t.TempDir(), nil)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Save(context.Background(), "tok"))
	m := NewSessionManager(store, b.factory(), WithSessionLogger(logger.Discard()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.Error(t, m.CheckAuth(ctx))

	assert.Equal(t, domain.StatusError, m.State().Status)
	_, lerr := store.Load(context.Background())
	assert.ErrorIs(t, lerr, storage.ErrNoCredential)
}

func TestSessionManager_CheckAuth_EmptyPayload(t *testing.T) {
	b := newFakeBackend(t)
	b.reply("GET /api/auth/me", http.StatusOK, `{"success":true,"data":null}`)
	m, _ := newTestManager(t, b, "tok")

	err := m.CheckAuth(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidServerResponse)
	assert.Equal(t, domain.StatusError, m.State().Status)
	assert.Equal(t, "Invalid response from server", m.State().LastError)
}

func TestSessionManager_Login(t *testing.T) {
	b := newFakeBackend(t)
	b.reply("POST /api/auth/login", http.StatusOK,
		`{"success":true,"data":{"token":"fresh","user":{"_id":"u2","email":"a@b.com","role":"employee"}}}`)
	m, store := newTestManager(t, b, "")
	require.NoError(t, m.CheckAuth(context.Background()))

	user, err := m.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u2", user.ID)

	req := b.last()
	assert.Equal(t, "a@b.com", req.Body["email"])
	assert.Equal(t, "pw", req.Body["password"])
	assert.Empty(t, req.Authorization)

	s := m.State()
	assert.Equal(t, domain.StatusAuthenticated, s.Status)
	assert.Equal(t, "fresh", s.Token)
	assert.Equal(t, domain.RoleEmployee, s.User.Role)

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fresh", saved)
}

func TestSessionManager_Login_BareResponse(t *testing.T) {
	b := newFakeBackend(t)
	b.reply("POST /api/auth/login", http.StatusOK, `{"token":"t","user":{"_id":"u3","email":"c@d.com"}}`)
	m, _ := newTestManager(t, b, "")

	_, err := m.Login(context.Background(), "c@d.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAuthenticated, m.State().Status)
}

func TestSessionManager_Login_Rejected(t *testing.T) {
	b := newFakeBackend(t)
	b.reply("POST /api/auth/login", http.StatusUnauthorized, `{"success":false,"message":"Invalid credentials"}`)
	m, store := newTestManager(t, b, "")
	require.NoError(t, m.CheckAuth(context.Background()))

	_, err := m.Login(context.Background(), "a@b.com", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuthenticationFailure)
	assert.Equal(t, "Invalid credentials", envelope.ExtractErrorMessage(err))

	s := m.State()
	assert.Equal(t, domain.StatusUnauthenticated, s.Status)
	assert.Empty(t, s.Token)

	_, lerr := store.Load(context.Background())
	assert.ErrorIs(t, lerr, storage.ErrNoCredential)
}

func TestSessionManager_Login_FailedEnvelope(t *testing.T) {
	b := newFakeBackend(t)
	b.reply("POST /api/auth/login", http.StatusOK, `{"success":false,"message":"Account pending approval"}`)
	m, _ := newTestManager(t, b, "")

	_, err := m.Login(context.Background(), "a@b.com", "pw")
	assert.ErrorIs(t, err, domain.ErrAuthenticationFailure)
	assert.Equal(t, "Account pending approval", envelope.ExtractErrorMessage(err))
}

func TestSessionManager_Login_FallbackMessage(t *testing.T) {
	b := newFakeBackend(t)
	b.reply("POST /api/auth/login", http.StatusBadGateway, `<html>bad gateway</html>`)
	m, _ := newTestManager(t, b, "")

	_, err := m.Login(context.Background(), "a@b.com", "pw")
	assert.Equal(t, "Login failed", envelope.ExtractErrorMessage(err))
}

func TestSessionManager_Login_InvalidServerResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing token", `{"success":true,"data":{"user":{"_id":"u1"}}}`},
		{"missing user", `{"success":true,"data":{"token":"t"}}`},
		{"null data", `{"success":true,"data":null}`},
		{"not json", `ok`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newFakeBackend(t)
			b.reply("POST /api/auth/login", http.StatusOK, tt.body)
			m, store := newTestManager(t, b, "")

			_, err := m.Login(context.Background(), "a@b.com", "pw")
			assert.ErrorIs(t, err, domain.ErrInvalidServerResponse)
			assert.False(t, errors.Is(err, domain.ErrAuthenticationFailure))
			assert.NotEqual(t, domain.StatusAuthenticated, m.State().Status)

			_, lerr := store.Load(context.Background())
			assert.ErrorIs(t, lerr, storage.ErrNoCredential)
		})
	}
}

func TestSessionManager_Login_Validation(t *testing.T) {
	b := newFakeBackend(t)
	m, _ := newTestManager(t, b, "")

	_, err := m.Login(context.Background(), "", "pw")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, b.hits.Load())
}

func TestSessionManager_Login_KeepsSessionOnFailure(t *testing.T) {
	b := newFakeBackend(t)
	b.reply("GET /api/auth/me", http.StatusOK, adminMe)
	b.reply("POST /api/auth/login", http.StatusBadRequest, `{"message":"Invalid credentials"}`)
	m, _ := newTestManager(t, b, "tok")
	require.NoError(t, m.CheckAuth(context.Background()))

	_, err := m.Login(context.Background(), "x@y.com", "bad")
	require.Error(t, err)
	assert.Equal(t, domain.StatusAuthenticated, m.State().Status)
	assert.Equal(t, "tok", m.State().Token)
}

func TestSessionManager_Register(t *testing.T) {
	b := newFakeBackend(t)
	b.reply("POST /api/auth/register", http.StatusCreated,
		`{"success":true,"data":{"token":"new","user":{"_id":"u5","email":"n@acme.io"}}}`)
	m, _ := newTestManager(t, b, "")

	user, err := m.Register(context.Background(), "n@acme.io", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u5", user.ID)
	assert.Equal(t, domain.StatusAuthenticated, m.State().Status)
	assert.Equal(t, "new", m.Token())
}

func TestSessionManager_Register_Rejected(t *testing.T) {
	b := newFakeBackend(t)
	b.reply("POST /api/auth/register", http.StatusConflict, `{}`)
	m, _ := newTestManager(t, b, "")

	_, err := m.Register(context.Background(), "n@acme.io", "secret1")
	assert.ErrorIs(t, err, domain.ErrAuthenticationFailure)
	assert.Equal(t, "Registration failed", envelope.ExtractErrorMessage(err))
}

func TestSessionManager_RegisterAccount(t *testing.T) {
	b := newFakeBackend(t)
	b.reply("GET /api/auth/me", http.StatusOK, adminMe)
	b.reply("POST /api/auth/register", http.StatusCreated,
		`{"success":true,"data":{"user":{"_id":"u7","email":"new@acme.io","role":"hr"}}}`)
	m, _ := newTestManager(t, b, "admin-token")
	require.NoError(t, m.CheckAuth(context.Background()))

	user, err := m.RegisterAccount(context.Background(), domain.AccountRequest{
		Email: "new@acme.io", Password: "secret1", Role: domain.RoleHR,
		Company: "c1", FirstName: "New", LastName: "Hire",
	})
	require.NoError(t, err)
	assert.Equal(t, "u7", user.ID)

	s := m.State()
	assert.Equal(t, "admin-token", s.Token, "session must not switch to the new account")
	assert.Equal(t, "u1", s.User.ID)
	assert.Equal(t, "Bearer admin-token", b.last().Authorization)
}

func TestSessionManager_RegisterAccount_Validation(t *testing.T) {
	b := newFakeBackend(t)
	m, _ := newTestManager(t, b, "")

	_, err := m.RegisterAccount(context.Background(), domain.AccountRequest{Email: "bad"})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "Email must be a valid email address")
	assert.Zero(t, b.hits.Load())
}

func TestSessionManager_Logout(t *testing.T) {
	b := newFakeBackend(t)
	b.reply("GET /api/auth/me", http.StatusOK, adminMe)
	m, store := newTestManager(t, b, "tok")
	require.NoError(t, m.CheckAuth(context.Background()))
	hits := b.hits.Load()

	require.NoError(t, m.Logout(context.Background()))
	s := m.State()
	assert.Equal(t, domain.StatusUnauthenticated, s.Status)
	assert.Empty(t, s.Token)
	assert.Nil(t, s.User)

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, storage.ErrNoCredential)

	require.NoError(t, m.Logout(context.Background()), "second logout is a no-op")
	assert.Equal(t, domain.StatusUnauthenticated, m.State().Status)
	assert.Equal(t, hits, b.hits.Load(), "logout never calls the backend")
}

func TestSessionManager_UnauthorizedForcesLogout(t *testing.T) {
	b := newFakeBackend(t)
	b.reply("GET /api/auth/me", http.StatusOK, adminMe)
	b.reply("GET /api/employees", http.StatusUnauthorized, `{"message":"jwt expired"}`)

	reg := prometheus.NewRegistry()
	mt := metric.NewMetrics(reg)
	store := storage.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), "tok"))
	m := NewSessionManager(store, b.factory(), WithSessionLogger(logger.Discard()), WithSessionMetrics(mt))
	require.NoError(t, m.CheckAuth(context.Background()))

	var (
		mu   sync.Mutex
		seen []domain.Status
	)
	cancel := m.Subscribe(func(s domain.Session) {
		mu.Lock()
		seen = append(seen, s.Status)
		mu.Unlock()
	})
	defer cancel()

	before := b.hits.Load()
	_, err := NewEmployeeService(m.Client()).List(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.Equal(t, before+1, b.hits.Load(), "exactly one request, no retry")

	s := m.State()
	assert.Equal(t, domain.StatusUnauthenticated, s.Status)
	assert.Empty(t, s.Token)
	_, lerr := store.Load(context.Background())
	assert.ErrorIs(t, lerr, storage.ErrNoCredential)

	mu.Lock()
	assert.Equal(t, []domain.Status{domain.StatusUnauthenticated}, seen)
	mu.Unlock()
	assert.Equal(t, 1.0, testutil.ToFloat64(mt.ForcedLogouts))
}

func TestSessionManager_ForceLogout_NoRequests(t *testing.T) {
	b := newFakeBackend(t)
	m, _ := newTestManager(t, b, "")
	require.NoError(t, m.CheckAuth(context.Background()))

	m.ForceLogout()
	m.ForceLogout()
	assert.Equal(t, domain.StatusUnauthenticated, m.State().Status)
	assert.Zero(t, b.hits.Load())
}

func TestSessionManager_SubscribeOrder(t *testing.T) {
	b := newFakeBackend(t)
	m, _ := newTestManager(t, b, "")

	var order []string
	c1 := m.Subscribe(func(domain.Session) { order = append(order, "first") })
	c2 := m.Subscribe(func(domain.Session) { order = append(order, "second") })

	require.NoError(t, m.CheckAuth(context.Background()))
	assert.Equal(t, []string{"first", "second"}, order)

	c1()
	c1()
	require.NoError(t, m.Logout(context.Background()))
	assert.Equal(t, []string{"first", "second"}, order, "unchanged state is not broadcast")

	b.reply("POST /api/auth/login", http.StatusOK, `{"token":"t","user":{"_id":"u1","email":"a@b.com"}}`)
	_, err := m.Login(context.Background(), "a@b.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "second"}, order)
	c2()
}

func TestSessionManager_SubscriberSeesCommittedState(t *testing.T) {
	b := newFakeBackend(t)
	m, _ := newTestManager(t, b, "")

	var got domain.Session
	cancel := m.Subscribe(func(domain.Session) {
		// The lock is released before subscribers run.
		got = m.State()
	})
	defer cancel()

	require.NoError(t, m.CheckAuth(context.Background()))
	assert.Equal(t, domain.StatusUnauthenticated, got.Status)
}

func TestSessionManager_ConcurrentUpdatesEndOnCurrentState(t *testing.T) {
	b := newFakeBackend(t)
	m, _ := newTestManager(t, b, "")
	require.NoError(t, m.CheckAuth(context.Background()))

	var (
		inFlight atomic.Int32
		overlap  atomic.Bool
		mu       sync.Mutex
		last     domain.Session
	)
	cancel := m.Subscribe(func(s domain.Session) {
		if inFlight.Add(1) > 1 {
			overlap.Store(true)
		}
		time.Sleep(time.Millisecond)
		mu.Lock()
		last = s
		mu.Unlock()
		inFlight.Add(-1)
	})
	defer cancel()

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.update(func(domain.Session) domain.Session {
				return domain.Session{Status: domain.StatusUnauthenticated, LastError: strconv.Itoa(i)}
			})
		}()
	}
	wg.Wait()

	assert.False(t, overlap.Load(), "broadcasts overlapped")
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, m.State(), last)
}

func TestSessionManager_Watch(t *testing.T) {
	b := newFakeBackend(t)
	b.handle("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(20 * time.Millisecond)
		w.Write([]byte(adminMe))
	})
	m, _ := newTestManager(t, b, "tok")

	ctx, cancel := context.WithCancel(context.Background())
	ch := m.Watch(ctx)

	first := <-ch
	assert.Equal(t, domain.StatusUnknown, first.Status)

	go m.CheckAuth(context.Background())

	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-ch:
			if s.Status == domain.StatusAuthenticated {
				cancel()
				for range ch {
				}
				return
			}
		case <-deadline:
			cancel()
			t.Fatal("never observed authenticated state")
		}
	}
}

func TestSessionManager_WaitSettled(t *testing.T) {
	b := newFakeBackend(t)
	b.reply("GET /api/auth/me", http.StatusOK, adminMe)
	m, _ := newTestManager(t, b, "tok")

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.CheckAuth(context.Background())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := m.WaitSettled(ctx)
	require.NoError(t, err)
	assert.True(t, s.Status.IsSettled())
	<-done
	assert.Equal(t, domain.StatusAuthenticated, m.State().Status)
}

func TestSessionManager_WaitSettled_Cancelled(t *testing.T) {
	b := newFakeBackend(t)
	m, _ := newTestManager(t, b, "")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	s, err := m.WaitSettled(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, domain.StatusUnknown, s.Status)
}

func TestSessionManager_Transitions_Metrics(t *testing.T) {
	b := newFakeBackend(t)
	b.reply("GET /api/auth/me", http.StatusOK, adminMe)

	reg := prometheus.NewRegistry()
	mt := metric.NewMetrics(reg)
	store := storage.NewMemoryStore()
	store.Save(context.Background(), "tok")
	m := NewSessionManager(store, b.factory(), WithSessionLogger(logger.Discard()), WithSessionMetrics(mt))

	require.NoError(t, m.CheckAuth(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(mt.SessionTransitions.WithLabelValues("unknown", "authenticating")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mt.SessionTransitions.WithLabelValues("authenticating", "authenticated")))
}
