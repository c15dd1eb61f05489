package command

import (
	"errors"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/staffdesk-go/internal/core/domain"
	"github.com/yndnr/staffdesk-go/pkg/token"
)

var (
	emailFlag = &cli.StringFlag{
		Name:    "email",
		Aliases: []string{"e"},
		Usage:   "Account email (prompted when omitted)",
	}
	passwordFlag = &cli.StringFlag{
		Name:    "password",
		Aliases: []string{"p"},
		Usage:   "Account password (prompted when omitted)",
		EnvVars: []string{"STAFFDESK_PASSWORD"},
	}
)

// LoginCommand signs in and stores the session token.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:   "login",
		Usage:  "Sign in",
		Flags:  []cli.Flag{emailFlag, passwordFlag},
		Action: authLogin,
	}
}

// RegisterCommand creates an account and signs it in.
func RegisterCommand() *cli.Command {
	return &cli.Command{
		Name:   "register",
		Usage:  "Create an account and sign in",
		Flags:  []cli.Flag{emailFlag, passwordFlag},
		Action: authRegister,
	}
}

// LogoutCommand forgets the stored session.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Sign out and remove the stored token",
		Action: authLogout,
	}
}

// WhoamiCommand shows the signed-in user.
func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Show the signed-in user and token details",
		Before: requireAuth(),
		Action: authWhoami,
	}
}

// StatusCommand shows the session state without failing when logged out.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show session status",
		Action: authStatus,
	}
}

// PasswordCommand groups password operations.
func PasswordCommand() *cli.Command {
	return &cli.Command{
		Name:  "password",
		Usage: "Manage your password",
		Subcommands: []*cli.Command{
			{
				Name:   "change",
				Usage:  "Change your password",
				Before: requireAuth(),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "current", Usage: "Current password (prompted when omitted)"},
					&cli.StringFlag{Name: "new", Usage: "New password, at least 6 characters (prompted when omitted)"},
					&cli.BoolFlag{Name: "employee", Usage: "Change it through your employee record (enrolled employees)"},
				},
				Action: passwordChange,
			},
		},
	}
}

// EnrollCommand creates a user account in the admin's company.
func EnrollCommand() *cli.Command {
	return &cli.Command{
		Name:   "enroll",
		Usage:  "Create a user account for a colleague",
		Before: requireRole(domain.RoleAdmin, domain.RoleHR),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true, Usage: "Account email"},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Initial password (prompted when omitted)"},
			&cli.StringFlag{Name: "first-name", Required: true},
			&cli.StringFlag{Name: "last-name", Required: true},
			&cli.StringFlag{Name: "role", Value: string(domain.RoleEmployee), Usage: "employee, hr or admin"},
			&cli.StringFlag{Name: "company", Usage: "Company id (defaults to yours)"},
			&cli.StringFlag{Name: "status", Value: "active"},
		},
		Action: authEnroll,
	}
}

func credentials(c *cli.Context, rt *Runtime) (string, string, error) {
	email, err := valueOrPrompt(rt, c.String("email"), "Email", false)
	if err != nil {
		return "", "", err
	}
	password, err := valueOrPrompt(rt, c.String("password"), "Password", true)
	if err != nil {
		return "", "", err
	}
	return email, password, nil
}

func authLogin(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	email, password, err := credentials(c, rt)
	if err != nil {
		return err
	}

	var user *domain.User
	err = withSpinner(rt, "Signing in", func() (err error) {
		user, err = rt.Session.Login(ctxOf(c), email, password)
		return err
	})
	if err != nil {
		return err
	}
	return printSignedIn(rt, user)
}

func authRegister(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	email, password, err := credentials(c, rt)
	if err != nil {
		return err
	}

	var user *domain.User
	err = withSpinner(rt, "Creating account", func() (err error) {
		user, err = rt.Session.Register(ctxOf(c), email, password)
		return err
	})
	if err != nil {
		return err
	}
	return printSignedIn(rt, user)
}

func printSignedIn(rt *Runtime, user *domain.User) error {
	if rt.Printer.Structured() {
		return rt.Printer.Print(user)
	}
	rt.Printer.Successf("Signed in as %s (%s)", user.DisplayName(), user.Role)
	return nil
}

func authLogout(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	if err := rt.Session.Logout(ctxOf(c)); err != nil {
		return err
	}
	rt.Printer.Successf("Signed out")
	return nil
}

type identity struct {
	ID          string        `json:"id"`
	Email       string        `json:"email"`
	Name        string        `json:"name"`
	Role        domain.Role   `json:"role"`
	Company     string        `json:"company,omitempty"`
	Token       string        `json:"token"`
	TokenKind   string        `json:"tokenKind"`
	ExpiresAt   *time.Time    `json:"expiresAt,omitempty"`
	ExpiresIn   time.Duration `json:"expiresIn,omitempty"`
	Credentials string        `json:"credentials"`
}

func authWhoami(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	state := rt.Session.State()
	user := currentUser(rt)

	id := identity{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.DisplayName(),
		Role:        user.Role,
		Company:     user.Company.String(),
		Token:       token.Fingerprint(state.Token),
		TokenKind:   "opaque",
		Credentials: rt.Store.Name(),
	}
	info, err := token.Inspect(state.Token)
	if err != nil && !errors.Is(err, token.ErrEmpty) {
		rt.Logger.Debug("token not inspectable", "error", err)
	}
	if err == nil && !info.Opaque {
		id.TokenKind = "jwt"
		if !info.ExpiresAt.IsZero() {
			exp := info.ExpiresAt
			id.ExpiresAt = &exp
			id.ExpiresIn = info.Remaining(time.Now()).Round(time.Second)
		}
	}
	return rt.Printer.Print(id)
}

type sessionStatus struct {
	Status      domain.Status `json:"status"`
	User        string        `json:"user,omitempty"`
	Role        domain.Role   `json:"role,omitempty"`
	API         string        `json:"api"`
	Credentials string        `json:"credentials"`
	LastError   string        `json:"lastError,omitempty"`
}

func authStatus(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	rt.RestoreSession(ctxOf(c))
	state, err := rt.Session.WaitSettled(ctxOf(c))
	if err != nil {
		return err
	}

	st := sessionStatus{
		Status:      state.Status,
		API:         rt.Client.BaseURL(),
		Credentials: rt.Store.Name(),
		LastError:   state.LastError,
	}
	if state.User != nil {
		st.User = state.User.Email
		st.Role = state.User.Role
	}
	return rt.Printer.Print(st)
}

func passwordChange(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	current, err := valueOrPrompt(rt, c.String("current"), "Current password", true)
	if err != nil {
		return err
	}
	next, err := valueOrPrompt(rt, c.String("new"), "New password", true)
	if err != nil {
		return err
	}

	req := domain.PasswordChange{CurrentPassword: current, NewPassword: next}
	change := rt.Accounts.ChangePassword
	if c.Bool("employee") {
		change = rt.Employees.ChangePassword
	}
	if err := change(ctxOf(c), req); err != nil {
		return err
	}
	rt.Printer.Successf("Password changed")
	return nil
}

func authEnroll(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	email := c.String("email")
	exists, err := rt.Accounts.EmailExists(ctxOf(c), email)
	switch {
	case err != nil && errors.Is(err, domain.ErrValidation):
		return err
	case err != nil:
		rt.Logger.Debug("email check unavailable", "error", err)
	case exists:
		return domain.ErrValidation.WithDetails(email + " is already registered")
	}

	password, err := valueOrPrompt(rt, c.String("password"), "Initial password", true)
	if err != nil {
		return err
	}
	company := c.String("company")
	if company == "" {
		company = currentUser(rt).Company.ID
	}

	req := domain.AccountRequest{
		Email:     email,
		Password:  password,
		Role:      domain.ParseRole(c.String("role")),
		Company:   company,
		FirstName: c.String("first-name"),
		LastName:  c.String("last-name"),
		Status:    c.String("status"),
	}
	user, err := rt.Session.RegisterAccount(ctxOf(c), req)
	if err != nil {
		return err
	}
	if rt.Printer.Structured() {
		return rt.Printer.Print(user)
	}
	rt.Printer.Successf("Enrolled %s as %s", user.Email, user.Role)
	return nil
}
