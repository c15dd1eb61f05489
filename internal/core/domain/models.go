// Package domain defines the core domain models for staffdesk.
package domain

import "time"

// Address is a postal address.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
}

// LeaveBalance tracks leave days of an employee.
type LeaveBalance struct {
	Total     float64 `json:"total"`
	Used      float64 `json:"used"`
	Remaining float64 `json:"remaining"`
}

// WorkSchedule describes the regular working hours of an employee.
type WorkSchedule struct {
	StartTime   string   `json:"startTime,omitempty"`
	EndTime     string   `json:"endTime,omitempty"`
	WorkingDays []string `json:"workingDays,omitempty"`
}

// DefaultWorkSchedule is applied to newly enrolled employees.
func DefaultWorkSchedule() WorkSchedule {
	return WorkSchedule{
		StartTime:   "09:00",
		EndTime:     "18:00",
		WorkingDays: []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
	}
}

// Employee is an employee record.
type Employee struct {
	ID               string        `json:"_id,omitempty" table:"id"`
	FirstName        string        `json:"firstName"`
	LastName         string        `json:"lastName"`
	Email            string        `json:"email"`
	Position         string        `json:"position,omitempty"`
	Department       Ref           `json:"department,omitzero"`
	Role             Role          `json:"role,omitempty"`
	Status           string        `json:"status,omitempty"`
	PhoneNumber      string        `json:"phoneNumber,omitempty" table:"wide"`
	ReportingManager Ref           `json:"reportingManager,omitzero" table:"wide"`
	Address          *Address      `json:"address,omitempty" table:"-"`
	EnrollmentStatus string        `json:"enrollmentStatus,omitempty" table:"wide"`
	JoinDate         *time.Time    `json:"joinDate,omitempty" table:"wide"`
	Company          Ref           `json:"company,omitzero" table:"-"`
	UserID           string        `json:"userId,omitempty" table:"-"`
	LeaveBalance     *LeaveBalance `json:"leaveBalance,omitempty" table:"-"`
	WorkSchedule     *WorkSchedule `json:"workSchedule,omitempty" table:"-"`
}

// FullName returns the employee's full name.
func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// Department is an organizational unit.
type Department struct {
	ID          string `json:"_id,omitempty" table:"id"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

// Leave types.
const (
	LeaveAnnual   = "annual"
	LeaveSick     = "sick"
	LeavePersonal = "personal"
	LeaveUnpaid   = "unpaid"
	LeaveOther    = "other"
)

// Leave statuses.
const (
	LeavePending  = "pending"
	LeaveApproved = "approved"
	LeaveRejected = "rejected"
)

// Approval is a manager decision on a leave request.
type Approval struct {
	Status   string `json:"status,omitempty"`
	Comments string `json:"comments,omitempty"`
}

// Leave is a leave request.
type Leave struct {
	ID              string    `json:"_id,omitempty" table:"id"`
	Employee        Ref       `json:"employee,omitzero"`
	Type            string    `json:"type" validate:"required,oneof=annual sick personal unpaid other"`
	StartDate       time.Time `json:"startDate" validate:"required"`
	EndDate         time.Time `json:"endDate" validate:"required,gtefield=StartDate"`
	Reason          string    `json:"reason,omitempty"`
	Status          string    `json:"status,omitempty"`
	ManagerApproval *Approval `json:"managerApproval,omitempty" table:"-"`
}

// Days returns the number of calendar days covered by the request.
func (l *Leave) Days() int {
	if l.EndDate.Before(l.StartDate) {
		return 0
	}
	return int(l.EndDate.Sub(l.StartDate).Hours()/24) + 1
}

// Punch is a clock-in or clock-out event.
type Punch struct {
	Time     *time.Time `json:"time,omitempty"`
	Location string     `json:"location,omitempty"`
}

// TimeEntry is a daily attendance record.
type TimeEntry struct {
	ID         string     `json:"_id,omitempty" table:"id"`
	Employee   Ref        `json:"employee,omitzero"`
	Date       *time.Time `json:"date,omitempty"`
	ClockIn    *Punch     `json:"clockIn,omitempty" table:"-"`
	ClockOut   *Punch     `json:"clockOut,omitempty" table:"-"`
	TotalHours float64    `json:"totalHours,omitempty"`
	Notes      string     `json:"notes,omitempty" table:"wide"`
	Status     string     `json:"status,omitempty"`
}

// IsOpen reports whether the entry has a clock-in without a clock-out.
func (t *TimeEntry) IsOpen() bool {
	return t.ClockIn != nil && t.ClockIn.Time != nil &&
		(t.ClockOut == nil || t.ClockOut.Time == nil)
}

// DashboardStats are the headline numbers of the dashboard.
type DashboardStats struct {
	TotalEmployees  int `json:"totalEmployees"`
	ActiveEmployees int `json:"activeEmployees"`
	PendingLeaves   int `json:"pendingLeaves"`
	Departments     int `json:"departments"`
	TodayAttendance int `json:"todayAttendance"`
}

// Activity is an entry of the recent activity feed.
type Activity struct {
	Type        string     `json:"type"`
	Description string     `json:"description"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
}

// Company is a tenant of the system.
type Company struct {
	ID          string `json:"_id,omitempty" table:"id"`
	Name        string `json:"name" validate:"required"`
	EmailDomain string `json:"emailDomain,omitempty" validate:"omitempty,fqdn"`
	Status      string `json:"status,omitempty"`
}

// CompanyRegistration is the self-service signup of a company and its
// first admin.
type CompanyRegistration struct {
	CompanyName    string `json:"companyName" validate:"required"`
	EmailDomain    string `json:"emailDomain" validate:"required,fqdn"`
	AdminFirstName string `json:"adminFirstName" validate:"required"`
	AdminLastName  string `json:"adminLastName" validate:"required"`
	AdminEmail     string `json:"adminEmail" validate:"required,email"`
	AdminPassword  string `json:"adminPassword" validate:"required,min=6"`
}

// Credentials is the body of the login and register endpoints.
type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AccountRequest creates a user account on behalf of a company admin.
type AccountRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Role      Role   `json:"role" validate:"required,oneof=employee hr admin"`
	Company   string `json:"company" validate:"required"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Status    string `json:"status,omitempty"`
}

// PasswordChange is the body of the change-password endpoints.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,nefield=CurrentPassword"`
}
