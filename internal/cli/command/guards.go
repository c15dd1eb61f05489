package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/staffdesk-go/internal/core/domain"
	"github.com/yndnr/staffdesk-go/internal/core/guard"
)

// requireAuth is a Before hook admitting any signed-in user.
func requireAuth() cli.BeforeFunc {
	return guarded(guard.RequiresAuthentication)
}

// requireRole is a Before hook admitting users holding one of roles.
func requireRole(roles ...domain.Role) cli.BeforeFunc {
	if len(roles) == 1 {
		return guarded(guard.RequiresRole(roles[0]), roles...)
	}
	return guarded(guard.RequiresAnyRole(roles...), roles...)
}

func guarded(check guard.Check, roles ...domain.Role) cli.BeforeFunc {
	return func(c *cli.Context) error {
		rt, err := runtimeFrom(c)
		if err != nil {
			return err
		}
		rt.RestoreSession(c.Context)

		d, err := guard.Resolve(c.Context, rt.Session, check)
		if err != nil {
			return err
		}
		return guard.Err(d, roles...)
	}
}

// currentUser returns the signed-in user. Callers run behind a guard.
func currentUser(rt *Runtime) *domain.User {
	if u := rt.Session.State().User; u != nil {
		return u
	}
	return &domain.User{}
}

func requireArg(c *cli.Context, name string) (string, error) {
	v := strings.TrimSpace(c.Args().First())
	if v == "" {
		return "", domain.ErrMissingArgument.WithDetails(name + " is required")
	}
	return v, nil
}

const dateLayout = "2006-01-02"

func parseDate(flag, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, domain.ErrValidation.WithDetails(fmt.Sprintf("--%s must be YYYY-MM-DD", flag))
	}
	return t, nil
}

// withSpinner runs fn while a spinner is shown in table mode.
func withSpinner(rt *Runtime, msg string, fn func() error) error {
	sp := rt.Printer.Spinner(msg)
	err := fn()
	sp.Stop()
	return err
}

func ctxOf(c *cli.Context) context.Context {
	if c.Context != nil {
		return c.Context
	}
	return context.Background()
}
