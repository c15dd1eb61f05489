package service

import (
	"context"

	"github.com/yndnr/staffdesk-go/internal/core/domain"
)

// DepartmentService manages departments.
type DepartmentService struct {
	api API
}

// NewDepartmentService creates a new DepartmentService.
func NewDepartmentService(api API) *DepartmentService {
	return &DepartmentService{api: api}
}

// List returns all departments.
func (s *DepartmentService) List(ctx context.Context) ([]domain.Department, error) {
	return decodeMany[domain.Department](s.api.Get(ctx, "/departments"))
}

// Create adds a department.
func (s *DepartmentService) Create(ctx context.Context, d *domain.Department) (*domain.Department, error) {
	if err := validatePayload(d); err != nil {
		return nil, err
	}
	return decodeOne[domain.Department](s.api.Post(ctx, "/departments", d))
}

// Update changes a department.
func (s *DepartmentService) Update(ctx context.Context, id string, d *domain.Department) (*domain.Department, error) {
	if err := requireID("department", id); err != nil {
		return nil, err
	}
	if err := validatePayload(d); err != nil {
		return nil, err
	}
	return decodeOne[domain.Department](s.api.Put(ctx, idPath("/departments", id), d))
}

// Delete removes a department.
func (s *DepartmentService) Delete(ctx context.Context, id string) error {
	if err := requireID("department", id); err != nil {
		return err
	}
	return decodeNone(s.api.Delete(ctx, idPath("/departments", id)))
}

// CompanyService manages tenants.
type CompanyService struct {
	api API
}

// NewCompanyService creates a new CompanyService.
func NewCompanyService(api API) *CompanyService {
	return &CompanyService{api: api}
}

// Register signs up a company and its first admin. No session is needed.
func (s *CompanyService) Register(ctx context.Context, reg domain.CompanyRegistration) (*domain.Company, error) {
	if err := validatePayload(reg); err != nil {
		return nil, err
	}
	return decodeOne[domain.Company](s.api.Post(ctx, "/companies/register", reg))
}

// List returns all companies.
func (s *CompanyService) List(ctx context.Context) ([]domain.Company, error) {
	return decodeMany[domain.Company](s.api.Get(ctx, "/companies"))
}

// Create adds a company.
func (s *CompanyService) Create(ctx context.Context, c *domain.Company) (*domain.Company, error) {
	if err := validatePayload(c); err != nil {
		return nil, err
	}
	return decodeOne[domain.Company](s.api.Post(ctx, "/companies", c))
}

// Update changes a company.
func (s *CompanyService) Update(ctx context.Context, id string, c *domain.Company) (*domain.Company, error) {
	if err := requireID("company", id); err != nil {
		return nil, err
	}
	if err := validatePayload(c); err != nil {
		return nil, err
	}
	return decodeOne[domain.Company](s.api.Put(ctx, idPath("/companies", id), c))
}

// Delete removes a company.
func (s *CompanyService) Delete(ctx context.Context, id string) error {
	if err := requireID("company", id); err != nil {
		return err
	}
	return decodeNone(s.api.Delete(ctx, idPath("/companies", id)))
}

// DashboardService reads the dashboard aggregates.
type DashboardService struct {
	api API
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(api API) *DashboardService {
	return &DashboardService{api: api}
}

// Stats returns the headline numbers.
func (s *DashboardService) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	return decodeOne[domain.DashboardStats](s.api.Get(ctx, "/dashboard/stats"))
}

// RecentActivities returns the activity feed.
func (s *DashboardService) RecentActivities(ctx context.Context) ([]domain.Activity, error) {
	return decodeMany[domain.Activity](s.api.Get(ctx, "/dashboard/recent-activities"))
}

// RecentLeaves returns the latest leave requests.
func (s *DashboardService) RecentLeaves(ctx context.Context) ([]domain.Leave, error) {
	return decodeMany[domain.Leave](s.api.Get(ctx, "/dashboard/recent-leaves"))
}
