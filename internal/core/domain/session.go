// Package domain defines the core domain models for staffdesk.
package domain

import "fmt"

// Status is the authentication status of the client session.
type Status string

const (
	StatusUnknown         Status = "unknown"
	StatusAuthenticating  Status = "authenticating"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
	StatusError           Status = "error"
)

// String implements fmt.Stringer.
func (s Status) String() string {
	return string(s)
}

// IsSettled reports whether the status is final until the next
// session operation.
func (s Status) IsSettled() bool {
	switch s {
	case StatusAuthenticated, StatusUnauthenticated, StatusError:
		return true
	default:
		return false
	}
}

// transitions lists the allowed status changes.
var transitions = map[Status]map[Status]struct{}{
	StatusUnknown: {
		StatusAuthenticating:  {},
		StatusAuthenticated:   {},
		StatusUnauthenticated: {},
	},
	StatusAuthenticating: {
		StatusAuthenticated:   {},
		StatusUnauthenticated: {},
		StatusError:           {},
	},
	StatusAuthenticated: {
		StatusAuthenticating:  {},
		StatusAuthenticated:   {},
		StatusUnauthenticated: {},
	},
	StatusUnauthenticated: {
		StatusAuthenticating:  {},
		StatusAuthenticated:   {},
		StatusUnauthenticated: {},
	},
	StatusError: {
		StatusAuthenticating:  {},
		StatusAuthenticated:   {},
		StatusUnauthenticated: {},
	},
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to Status) bool {
	next, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// Session is an immutable snapshot of the client authentication state.
type Session struct {
	Status    Status `json:"status"`
	Token     string `json:"-"`
	User      *User  `json:"user,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// HasToken reports whether a credential token is held.
func (s Session) HasToken() bool {
	return s.Token != ""
}

// IsAuthenticated reports whether a user is signed in.
func (s Session) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && s.User != nil
}

// Validate checks the session invariants.
func (s Session) Validate() error {
	if (s.User != nil) != (s.Status == StatusAuthenticated) {
		return ErrInvalidTransition.WithDetails(
			fmt.Sprintf("user presence does not match status %s", s.Status))
	}
	switch s.Status {
	case StatusAuthenticated, StatusAuthenticating:
		if s.Token == "" {
			return ErrInvalidTransition.WithDetails(
				fmt.Sprintf("status %s requires a token", s.Status))
		}
	case StatusUnauthenticated:
		if s.Token != "" {
			return ErrInvalidTransition.WithDetails("unauthenticated session holds a token")
		}
	}
	return nil
}

// Transition returns a copy of the session moved to status to.
// The token and user are left for the caller to set.
func (s Session) Transition(to Status) (Session, error) {
	if !CanTransition(s.Status, to) {
		return s, ErrInvalidTransition.WithDetails(fmt.Sprintf("%s -> %s", s.Status, to))
	}
	next := s
	next.Status = to
	return next, nil
}
