package service

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"

	"github.com/yndnr/staffdesk-go/internal/core/domain"
	"github.com/yndnr/staffdesk-go/internal/storage"
	"github.com/yndnr/staffdesk-go/internal/telemetry/logger"
	"github.com/yndnr/staffdesk-go/internal/telemetry/metric"
	"github.com/yndnr/staffdesk-go/pkg/envelope"
	"github.com/yndnr/staffdesk-go/pkg/token"
)

// Auth endpoints.
const (
	pathLogin    = "/auth/login"
	pathRegister = "/auth/register"
	pathMe       = "/auth/me"
)

// CredentialRepository persists the bearer token.
type CredentialRepository interface {
	// Load returns storage.ErrNoCredential when nothing is stored.
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// SessionOption configures a SessionManager.
type SessionOption func(*SessionManager)

// WithSessionLogger sets the logger.
func WithSessionLogger(l logger.Logger) SessionOption {
	return func(m *SessionManager) { m.logger = l }
}

// WithSessionMetrics records state transitions and forced logouts.
func WithSessionMetrics(mt *metric.Metrics) SessionOption {
	return func(m *SessionManager) { m.metrics = mt }
}

type subscriber struct {
	id int
	fn func(domain.Session)
}

// SessionManager owns the authentication state of the client.
type SessionManager struct {
	store   CredentialRepository
	api     API
	logger  logger.Logger
	metrics *metric.Metrics

	mu     sync.Mutex
	state  domain.Session
	subs   []subscriber
	nextID int
	seq    uint64

	// notifyMu orders broadcasts. notified is the seq of the newest
	// snapshot delivered so far.
	notifyMu sync.Mutex
	notified uint64
}

// NewSessionManager creates a manager in the unknown state. newClient is
// called once with hooks bound to the new manager.
func NewSessionManager(store CredentialRepository, newClient ClientFactory, opts ...SessionOption) *SessionManager {
	m := &SessionManager{
		store:  store,
		logger: logger.Default(),
		state:  domain.Session{Status: domain.StatusUnknown},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.api = newClient(Hooks{Token: m.Token, OnUnauthorized: m.ForceLogout})
	return m
}

// Client returns the API client built for this manager.
func (m *SessionManager) Client() API {
	return m.api
}

// State returns a snapshot of the current session.
func (m *SessionManager) State() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Token returns the current bearer token. It never blocks on I/O.
func (m *SessionManager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Token
}

// ============================================================================
// Lifecycle Operations
// ============================================================================

// CheckAuth restores the persisted session. Without a stored token the
// session becomes unauthenticated and no request is made. Otherwise the
// token is validated with GET /auth/me. On failure the stored token is
// removed and the error is recorded in the session and returned for
// logging; callers are not expected to treat it as fatal.
func (m *SessionManager) CheckAuth(ctx context.Context) error {
	stored, err := m.store.Load(ctx)
	if err != nil && !errors.Is(err, storage.ErrNoCredential) {
		m.logger.Warn("credential store unreadable, starting logged out", "error", err)
	}
	if stored == "" {
		_, cerr := m.update(func(domain.Session) domain.Session {
			return domain.Session{Status: domain.StatusUnauthenticated}
		})
		return cerr
	}

	if _, err := m.update(func(domain.Session) domain.Session {
		return domain.Session{Status: domain.StatusAuthenticating, Token: stored}
	}); err != nil {
		return err
	}

	user, err := m.fetchMe(ctx)
	if err == nil {
		_, err = m.update(func(cur domain.Session) domain.Session {
			return domain.Session{Status: domain.StatusAuthenticated, Token: stored, User: user}
		})
		if err == nil {
			m.logger.Debug("session restored", "user", user.Email, "role", user.Role)
			return nil
		}
	}

	// The token goes even when ctx is already done.
	m.clearStore(context.WithoutCancel(ctx))
	msg := envelope.ExtractErrorMessage(err)
	m.logger.Info("stored session rejected", "error", msg)
	_, uerr := m.update(func(cur domain.Session) domain.Session {
		// A 401 has already forced a logout.
		if cur.Status == domain.StatusUnauthenticated {
			return domain.Session{Status: domain.StatusUnauthenticated, LastError: msg}
		}
		return domain.Session{Status: domain.StatusError, LastError: msg}
	})
	if uerr != nil {
		return uerr
	}
	return err
}

// Login authenticates with email and password.
func (m *SessionManager) Login(ctx context.Context, email, password string) (*domain.User, error) {
	return m.authenticate(ctx, pathLogin, domain.Credentials{Email: email, Password: password}, "Login failed")
}

// Register creates an account and signs it in.
func (m *SessionManager) Register(ctx context.Context, email, password string) (*domain.User, error) {
	return m.authenticate(ctx, pathRegister, domain.Credentials{Email: email, Password: password}, "Registration failed")
}

// RegisterAccount creates a user on behalf of a company admin. The current
// session is not changed.
func (m *SessionManager) RegisterAccount(ctx context.Context, req domain.AccountRequest) (*domain.User, error) {
	if err := validatePayload(req); err != nil {
		return nil, err
	}
	body, err := m.api.Post(ctx, pathRegister, req)
	if err != nil {
		return nil, authFailure(err, "Registration failed")
	}
	res, err := envelope.Decode[authResponse](body)
	if err != nil {
		return nil, authFailure(err, "Registration failed")
	}
	if res.User == nil {
		return nil, domain.ErrInvalidServerResponse
	}
	return res.User, nil
}

// Logout ends the session. Logging out while logged out is a no-op.
func (m *SessionManager) Logout(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Warn("failed to clear stored credential", "error", err)
	}
	_, err := m.update(func(domain.Session) domain.Session {
		return domain.Session{Status: domain.StatusUnauthenticated}
	})
	return err
}

// ForceLogout ends the session after the backend rejected the token. It
// never issues HTTP requests.
func (m *SessionManager) ForceLogout() {
	m.metrics.ObserveForcedLogout()
	if err := m.store.Clear(context.Background()); err != nil {
		m.logger.Warn("failed to clear stored credential", "error", err)
	}
	if _, err := m.update(func(cur domain.Session) domain.Session {
		return domain.Session{Status: domain.StatusUnauthenticated, LastError: cur.LastError}
	}); err != nil {
		m.logger.Error("forced logout rejected", "error", err)
	}
}

// ============================================================================
// Subscriptions
// ============================================================================

// Subscribe registers fn to receive new session snapshots. Callbacks run
// after the state lock is released, in registration order, one broadcast
// at a time. A snapshot superseded before its broadcast starts is skipped,
// so the last one a subscriber sees is the current state. Callbacks must
// not change the session. The returned function removes the subscription.
func (m *SessionManager) Subscribe(fn func(domain.Session)) (cancel func()) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.subs = append(m.subs, subscriber{id: id, fn: fn})
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.subs = slices.DeleteFunc(m.subs, func(s subscriber) bool { return s.id == id })
		})
	}
}

// Watch streams session snapshots until ctx is done, starting with the
// current one. Slow readers only see the latest snapshot.
func (m *SessionManager) Watch(ctx context.Context) <-chan domain.Session {
	out := make(chan domain.Session, 1)
	latest := make(chan domain.Session, 1)

	push := func(s domain.Session) {
		select {
		case <-latest:
		default:
		}
		latest <- s
	}

	var pushMu sync.Mutex
	cancel := m.Subscribe(func(s domain.Session) {
		pushMu.Lock()
		defer pushMu.Unlock()
		push(s)
	})
	pushMu.Lock()
	push(m.State())
	pushMu.Unlock()

	go func() {
		defer close(out)
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-latest:
				select {
				case out <- s:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// WaitSettled blocks until the session is authenticated, unauthenticated
// or in error, and returns that snapshot.
func (m *SessionManager) WaitSettled(ctx context.Context) (domain.Session, error) {
	if s := m.State(); s.Status.IsSettled() {
		return s, nil
	}
	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	for s := range m.Watch(watchCtx) {
		if s.Status.IsSettled() {
			return s, nil
		}
	}
	return m.State(), ctx.Err()
}

// ============================================================================
// Internals
// ============================================================================

// update applies fn to the current state under the lock, validates the
// result and notifies subscribers. An invalid result leaves the state
// unchanged.
func (m *SessionManager) update(fn func(cur domain.Session) domain.Session) (domain.Session, error) {
	m.mu.Lock()
	prev := m.state
	next := fn(prev)
	if next == prev {
		m.mu.Unlock()
		return prev, nil
	}
	if _, err := prev.Transition(next.Status); err != nil {
		m.mu.Unlock()
		m.logger.Error("rejected session transition", "from", prev.Status, "to", next.Status)
		return prev, err
	}
	if err := next.Validate(); err != nil {
		m.mu.Unlock()
		m.logger.Error("rejected invalid session", "status", next.Status, "error", err)
		return prev, err
	}
	m.state = next
	m.seq++
	seq := m.seq
	m.mu.Unlock()

	m.metrics.ObserveTransition(prev.Status.String(), next.Status.String())
	m.broadcast(seq, next)
	return next, nil
}

func (m *SessionManager) broadcast(seq uint64, s domain.Session) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	if seq <= m.notified {
		return
	}
	m.notified = seq

	m.mu.Lock()
	subs := slices.Clone(m.subs)
	m.mu.Unlock()
	for _, sub := range subs {
		sub.fn(s)
	}
}

type authResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (m *SessionManager) authenticate(ctx context.Context, path string, creds domain.Credentials, fallback string) (*domain.User, error) {
	if err := validatePayload(creds); err != nil {
		return nil, err
	}

	res, err := m.postCredentials(ctx, path, creds, fallback)
	if err != nil {
		m.logger.Debug("authentication failed", "path", path, "error", err)
		m.update(func(cur domain.Session) domain.Session {
			switch cur.Status {
			case domain.StatusAuthenticated, domain.StatusAuthenticating:
				return cur
			}
			return domain.Session{Status: domain.StatusUnauthenticated}
		})
		return nil, err
	}

	if err := m.store.Save(ctx, res.Token); err != nil {
		return nil, domain.ErrCredentialStore.WithCause(err)
	}
	if _, err := m.update(func(domain.Session) domain.Session {
		return domain.Session{Status: domain.StatusAuthenticated, Token: res.Token, User: res.User}
	}); err != nil {
		return nil, err
	}

	m.logger.Info("signed in", "user", res.User.Email, "token_fingerprint", token.Fingerprint(res.Token))
	return res.User, nil
}

func (m *SessionManager) postCredentials(ctx context.Context, path string, creds domain.Credentials, fallback string) (*authResponse, error) {
	body, err := m.api.Post(ctx, path, creds)
	if err != nil {
		return nil, authFailure(err, fallback)
	}
	res, err := envelope.Decode[authResponse](body)
	if err != nil {
		var fe *envelope.FailureError
		if errors.As(err, &fe) {
			return nil, authFailure(err, fallback)
		}
		return nil, domain.ErrInvalidServerResponse.WithCause(err)
	}
	if res.Token == "" || res.User == nil {
		return nil, domain.ErrInvalidServerResponse
	}
	return &res, nil
}

// authFailure wraps a rejected login or registration. The message is the
// backend's, or fallback when the backend gave none.
func authFailure(err error, fallback string) error {
	msg := fallback
	var responder envelope.Responder
	if errors.As(err, &responder) {
		if m := envelope.Message(responder.ResponseBody()); m != "" {
			msg = m
		}
	}
	var fe *envelope.FailureError
	if errors.As(err, &fe) && fe.Message != "" {
		msg = fe.Message
	}
	return domain.ErrAuthenticationFailure.WithDetails(msg).WithCause(err)
}

// fetchMe asks the backend who the token belongs to. The payload is either
// {user, role} or the user object itself.
func (m *SessionManager) fetchMe(ctx context.Context) (*domain.User, error) {
	body, err := m.api.Get(ctx, pathMe)
	if err != nil {
		return nil, err
	}
	data, err := envelope.Decode[json.RawMessage](body)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, domain.ErrInvalidServerResponse
	}

	var wrapped struct {
		User *domain.User `json:"user"`
		Role string       `json:"role"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, domain.ErrInvalidServerResponse.WithCause(err)
	}
	user := wrapped.User
	if user == nil {
		user = new(domain.User)
		if err := json.Unmarshal(data, user); err != nil {
			return nil, domain.ErrInvalidServerResponse.WithCause(err)
		}
	} else if user.Role == "" {
		user.Role = domain.ParseRole(wrapped.Role)
	}
	if user.ID == "" && user.Email == "" {
		return nil, domain.ErrInvalidServerResponse
	}
	return user, nil
}

func (m *SessionManager) clearStore(ctx context.Context) {
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Warn("failed to clear stored credential", "error", err)
	}
}
