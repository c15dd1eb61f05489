package service

import (
	"context"

	"github.com/yndnr/staffdesk-go/internal/core/domain"
	"github.com/yndnr/staffdesk-go/pkg/envelope"
)

// Employee list filters.
const (
	EmployeeStatusPending = "pending"
	EmployeeStatusActive  = "active"
)

// InviteRequest asks the backend for an enrollment link.
type InviteRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Position   string `json:"position,omitempty"`
	Department string `json:"department,omitempty"`
}

// Invite is the generated enrollment link.
type Invite struct {
	InviteLink string `json:"inviteLink"`
}

// EmployeeService manages employee records.
type EmployeeService struct {
	api API
}

// NewEmployeeService creates a new EmployeeService.
func NewEmployeeService(api API) *EmployeeService {
	return &EmployeeService{api: api}
}

// Me returns the employee record of the signed-in user.
func (s *EmployeeService) Me(ctx context.Context) (*domain.Employee, error) {
	return decodeOne[domain.Employee](s.api.Get(ctx, "/employees/me"))
}

// List returns employees, optionally filtered by status.
func (s *EmployeeService) List(ctx context.Context, status string) ([]domain.Employee, error) {
	path := withQuery("/employees", map[string]string{"status": status})
	return decodeMany[domain.Employee](s.api.Get(ctx, path))
}

// Get returns one employee.
func (s *EmployeeService) Get(ctx context.Context, id string) (*domain.Employee, error) {
	if err := requireID("employee", id); err != nil {
		return nil, err
	}
	return decodeOne[domain.Employee](s.api.Get(ctx, idPath("/employees", id)))
}

// ReportingToMe returns the direct reports of the signed-in user.
func (s *EmployeeService) ReportingToMe(ctx context.Context) ([]domain.Employee, error) {
	return decodeMany[domain.Employee](s.api.Get(ctx, "/employees/reporting-to-me"))
}

// Create adds an employee record.
func (s *EmployeeService) Create(ctx context.Context, e *domain.Employee) (*domain.Employee, error) {
	if e.FirstName == "" || e.LastName == "" || e.Email == "" {
		return nil, domain.ErrValidation.WithDetails("firstName, lastName and email are required")
	}
	if e.WorkSchedule == nil {
		ws := domain.DefaultWorkSchedule()
		e.WorkSchedule = &ws
	}
	return decodeOne[domain.Employee](s.api.Post(ctx, "/employees", e))
}

// Update replaces the fields of an employee record.
func (s *EmployeeService) Update(ctx context.Context, id string, fields map[string]any) (*domain.Employee, error) {
	if err := requireID("employee", id); err != nil {
		return nil, err
	}
	return decodeOne[domain.Employee](s.api.Put(ctx, idPath("/employees", id), fields))
}

// Delete removes an employee record.
func (s *EmployeeService) Delete(ctx context.Context, id string) error {
	if err := requireID("employee", id); err != nil {
		return err
	}
	return decodeNone(s.api.Delete(ctx, idPath("/employees", id)))
}

// ChangePassword changes the password of the signed-in employee.
func (s *EmployeeService) ChangePassword(ctx context.Context, req domain.PasswordChange) error {
	if err := validatePayload(req); err != nil {
		return err
	}
	return decodeNone(s.api.Post(ctx, "/employees/change-password", req))
}

// GenerateInvite creates an enrollment link for a new hire.
func (s *EmployeeService) GenerateInvite(ctx context.Context, req InviteRequest) (*Invite, error) {
	if err := validatePayload(req); err != nil {
		return nil, err
	}
	return decodeOne[Invite](s.api.Post(ctx, "/employees/generate-invite", req))
}

// ApproveEnrollment activates a pending employee with the given role.
func (s *EmployeeService) ApproveEnrollment(ctx context.Context, id string, role domain.Role) error {
	if err := requireID("employee", id); err != nil {
		return err
	}
	if !role.IsValid() {
		return domain.ErrValidation.WithDetails("role must be one of: employee hr admin")
	}
	body := map[string]domain.Role{"role": role}
	return decodeNone(s.api.Post(ctx, idPath("/employees", id)+"/approve-enrollment", body))
}

// ============================================================================
// Response helpers
// ============================================================================

// decodeOne normalizes a single-object response.
func decodeOne[T any](body []byte, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	v, err := envelope.Decode[T](body)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// decodeMany normalizes a list response. Non-list payloads yield an empty
// slice.
func decodeMany[T any](body []byte, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	return envelope.DecodeList[T](body)
}

// decodeNone checks a response whose payload is not needed.
func decodeNone(body []byte, err error) error {
	if err != nil {
		return err
	}
	if envelope.IsErrorResponse(body) {
		return &envelope.FailureError{Message: envelope.Message(body)}
	}
	return nil
}
