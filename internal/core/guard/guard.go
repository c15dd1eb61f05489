// Package guard decides whether a protected screen or command may run for
// a given session snapshot.
package guard

import (
	"context"
	"fmt"

	"github.com/yndnr/staffdesk-go/internal/core/domain"
)

// Navigation targets.
const (
	SignInPath  = "/auth"
	LandingPath = "/dashboard"
)

// Action is what a guard wants the caller to do.
type Action int

const (
	// Loading means the session has not settled yet.
	Loading Action = iota
	// Render means the protected content may be shown.
	Render
	// Redirect means the caller must navigate to Decision.Target.
	Redirect
)

// String implements fmt.Stringer.
func (a Action) String() string {
	switch a {
	case Loading:
		return "loading"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Decision is the outcome of a guard check.
type Decision struct {
	Action Action
	Target string
}

// Check maps a session snapshot to a decision. Checks never mutate the
// session.
type Check func(domain.Session) Decision

// RequiresAuthentication renders for any signed-in user.
func RequiresAuthentication(s domain.Session) Decision {
	switch s.Status {
	case domain.StatusUnknown, domain.StatusAuthenticating:
		return Decision{Action: Loading}
	case domain.StatusAuthenticated:
		return Decision{Action: Render}
	default:
		return Decision{Action: Redirect, Target: SignInPath}
	}
}

// RequiresRole renders only for a signed-in user holding exactly role.
// Other signed-in users are sent to the landing page.
func RequiresRole(role domain.Role) Check {
	return func(s domain.Session) Decision {
		d := RequiresAuthentication(s)
		if d.Action != Render {
			return d
		}
		if s.User == nil || s.User.Role != role {
			return Decision{Action: Redirect, Target: LandingPath}
		}
		return d
	}
}

// RequiresAnyRole is RequiresRole for a set of roles.
func RequiresAnyRole(roles ...domain.Role) Check {
	return func(s domain.Session) Decision {
		d := RequiresAuthentication(s)
		if d.Action != Render {
			return d
		}
		if s.User != nil {
			for _, r := range roles {
				if s.User.Role == r {
					return d
				}
			}
		}
		return Decision{Action: Redirect, Target: LandingPath}
	}
}

// SessionSource is the part of the session manager guards read from.
type SessionSource interface {
	State() domain.Session
	Watch(ctx context.Context) <-chan domain.Session
}

// Resolve evaluates check, waiting on src while the decision is Loading.
func Resolve(ctx context.Context, src SessionSource, check Check) (Decision, error) {
	if d := check(src.State()); d.Action != Loading {
		return d, nil
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	for s := range src.Watch(watchCtx) {
		if d := check(s); d.Action != Loading {
			return d, nil
		}
	}
	return Decision{Action: Loading}, ctx.Err()
}

// Err converts a decision into the error a command reports. Render and
// Loading yield nil.
func Err(d Decision, required ...domain.Role) error {
	if d.Action != Redirect {
		return nil
	}
	switch d.Target {
	case SignInPath:
		return domain.ErrNotAuthenticated.WithDetails("not signed in, run `staffdesk login` first")
	case LandingPath:
		if len(required) > 0 {
			return domain.ErrForbidden.WithDetails(fmt.Sprintf("requires %s role", joinRoles(required)))
		}
		return domain.ErrForbidden
	default:
		return domain.ErrForbidden.WithDetails("redirected to " + d.Target)
	}
}

func joinRoles(roles []domain.Role) string {
	out := ""
	for i, r := range roles {
		if i > 0 {
			out += " or "
		}
		out += string(r)
	}
	return out
}
