package service

import (
	"context"
	"strings"

	"github.com/yndnr/staffdesk-go/internal/core/domain"
)

// AccountService covers account endpoints that do not change the session.
type AccountService struct {
	api API
}

// NewAccountService creates a new AccountService.
func NewAccountService(api API) *AccountService {
	return &AccountService{api: api}
}

// EmailExists reports whether an account already uses email.
func (s *AccountService) EmailExists(ctx context.Context, email string) (bool, error) {
	email = strings.TrimSpace(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return false, domain.ErrValidation.WithDetails("a valid email is required")
	}
	res, err := decodeOne[struct {
		Exists bool `json:"exists"`
	}](s.api.Post(ctx, "/auth/check-email", map[string]string{"email": email}))
	if err != nil {
		return false, err
	}
	return res.Exists, nil
}

// ChangePassword changes the password of the signed-in user.
func (s *AccountService) ChangePassword(ctx context.Context, req domain.PasswordChange) error {
	if err := validatePayload(req); err != nil {
		return err
	}
	return decodeNone(s.api.Post(ctx, "/auth/change-password", req))
}
