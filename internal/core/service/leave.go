package service

import (
	"context"
	"strconv"

	"github.com/yndnr/staffdesk-go/internal/core/domain"
)

// Leave list views.
const (
	ViewMyLeaves   = "my-leaves"
	ViewTeamLeaves = "team-leaves"
	ViewAllLeaves  = "all-leaves"
)

// LeaveService manages leave requests.
type LeaveService struct {
	api API
}

// NewLeaveService creates a new LeaveService.
func NewLeaveService(api API) *LeaveService {
	return &LeaveService{api: api}
}

// List returns leave requests for a view. An empty view means my-leaves.
func (s *LeaveService) List(ctx context.Context, view string) ([]domain.Leave, error) {
	switch view {
	case "":
		view = ViewMyLeaves
	case ViewMyLeaves, ViewTeamLeaves, ViewAllLeaves:
	default:
		return nil, domain.ErrValidation.WithDetails("view must be one of: my-leaves team-leaves all-leaves")
	}
	return decodeMany[domain.Leave](s.api.Get(ctx, withQuery("/leaves", map[string]string{"view": view})))
}

// ForEmployee returns the leave requests of one employee.
func (s *LeaveService) ForEmployee(ctx context.Context, employeeID string) ([]domain.Leave, error) {
	if err := requireID("employee", employeeID); err != nil {
		return nil, err
	}
	return decodeMany[domain.Leave](s.api.Get(ctx, idPath("/leaves/employee", employeeID)))
}

// Request files a new leave request.
func (s *LeaveService) Request(ctx context.Context, l *domain.Leave) (*domain.Leave, error) {
	if err := validatePayload(l); err != nil {
		return nil, err
	}
	return decodeOne[domain.Leave](s.api.Post(ctx, "/leaves", l))
}

// SetStatus approves or rejects a request as HR or admin.
func (s *LeaveService) SetStatus(ctx context.Context, id, status string) error {
	if err := requireID("leave", id); err != nil {
		return err
	}
	if err := checkDecision(status); err != nil {
		return err
	}
	return decodeNone(s.api.Put(ctx, idPath("/leaves", id), map[string]string{"status": status}))
}

// ManagerApproval records the reporting manager's decision.
func (s *LeaveService) ManagerApproval(ctx context.Context, id string, a domain.Approval) error {
	if err := requireID("leave", id); err != nil {
		return err
	}
	if err := checkDecision(a.Status); err != nil {
		return err
	}
	return decodeNone(s.api.Put(ctx, idPath("/leaves", id)+"/manager-approval", a))
}

// Delete withdraws a leave request.
func (s *LeaveService) Delete(ctx context.Context, id string) error {
	if err := requireID("leave", id); err != nil {
		return err
	}
	return decodeNone(s.api.Delete(ctx, idPath("/leaves", id)))
}

func checkDecision(status string) error {
	if status != domain.LeaveApproved && status != domain.LeaveRejected {
		return domain.ErrValidation.WithDetails("status must be approved or rejected")
	}
	return nil
}

// TimeEntryService records attendance.
type TimeEntryService struct {
	api API
}

// NewTimeEntryService creates a new TimeEntryService.
func NewTimeEntryService(api API) *TimeEntryService {
	return &TimeEntryService{api: api}
}

// Today returns today's entry, or nil when the user has not clocked in.
func (s *TimeEntryService) Today(ctx context.Context) (*domain.TimeEntry, error) {
	entry, err := decodeOne[domain.TimeEntry](s.api.Get(ctx, "/time-entries/today"))
	if err != nil {
		return nil, err
	}
	if entry.ID == "" && entry.ClockIn == nil {
		return nil, nil
	}
	return entry, nil
}

// Recent returns the latest entries. limit <= 0 uses the backend default.
func (s *TimeEntryService) Recent(ctx context.Context, limit int) ([]domain.TimeEntry, error) {
	params := map[string]string{}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}
	return decodeMany[domain.TimeEntry](s.api.Get(ctx, withQuery("/time-entries", params)))
}

// Team returns today's entries of the user's reports.
func (s *TimeEntryService) Team(ctx context.Context) ([]domain.TimeEntry, error) {
	return decodeMany[domain.TimeEntry](s.api.Get(ctx, "/time-entries/team"))
}

// ClockIn starts today's entry.
func (s *TimeEntryService) ClockIn(ctx context.Context, location string) (*domain.TimeEntry, error) {
	if location == "" {
		location = "Office"
	}
	return decodeOne[domain.TimeEntry](s.api.Post(ctx, "/time-entries/clock-in", map[string]string{"location": location}))
}

// ClockOut closes today's entry.
func (s *TimeEntryService) ClockOut(ctx context.Context, location, notes string) (*domain.TimeEntry, error) {
	if location == "" {
		location = "Office"
	}
	body := map[string]string{"location": location, "notes": notes}
	return decodeOne[domain.TimeEntry](s.api.Post(ctx, "/time-entries/clock-out", body))
}
