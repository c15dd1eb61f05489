package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/staffdesk-go/internal/core/domain"
	"github.com/yndnr/staffdesk-go/internal/core/service"
)

var managers = []domain.Role{domain.RoleAdmin, domain.RoleHR}

// EmployeeCommand returns the employee subcommand group.
func EmployeeCommand() *cli.Command {
	return &cli.Command{
		Name:    "employee",
		Aliases: []string{"emp"},
		Usage:   "Manage employees",
		Subcommands: []*cli.Command{
			{
				Name:   "me",
				Usage:  "Show your employee record",
				Before: requireAuth(),
				Action: employeeMe,
			},
			{
				Name:   "list",
				Usage:  "List employees",
				Before: requireRole(managers...),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "Filter by status: pending, active"},
				},
				Action: employeeList,
			},
			{
				Name:      "get",
				Usage:     "Show an employee",
				ArgsUsage: "EMPLOYEE_ID",
				Before:    requireRole(managers...),
				Action:    employeeGet,
			},
			{
				Name:   "reports",
				Usage:  "List employees reporting to you",
				Before: requireAuth(),
				Action: employeeReports,
			},
			{
				Name:   "create",
				Usage:  "Create an employee record",
				Before: requireRole(managers...),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "first-name", Required: true},
					&cli.StringFlag{Name: "last-name", Required: true},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true},
					&cli.StringFlag{Name: "position"},
					&cli.StringFlag{Name: "department", Usage: "Department id"},
					&cli.StringFlag{Name: "manager", Usage: "Reporting manager id"},
					&cli.StringFlag{Name: "phone"},
					&cli.StringFlag{Name: "role", Value: string(domain.RoleEmployee)},
				},
				Action: employeeCreate,
			},
			{
				Name:      "update",
				Usage:     "Update fields of an employee",
				ArgsUsage: "EMPLOYEE_ID",
				Before:    requireRole(managers...),
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "set",
						Aliases:  []string{"s"},
						Usage:    "Field as KEY=VALUE (e.g., position=Engineer)",
						Required: true,
					},
				},
				Action: employeeUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete an employee",
				ArgsUsage: "EMPLOYEE_ID",
				Before:    requireRole(domain.RoleAdmin),
				Flags:     []cli.Flag{forceFlag},
				Action:    employeeDelete,
			},
			{
				Name:   "invite",
				Usage:  "Generate an enrollment link for a new hire",
				Before: requireRole(managers...),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Required: true},
					&cli.StringFlag{Name: "position"},
					&cli.StringFlag{Name: "department", Usage: "Department id"},
				},
				Action: employeeInvite,
			},
			{
				Name:      "approve",
				Usage:     "Approve a pending enrollment",
				ArgsUsage: "EMPLOYEE_ID",
				Before:    requireRole(domain.RoleAdmin),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "role", Value: string(domain.RoleEmployee), Usage: "employee, hr or admin"},
				},
				Action: employeeApprove,
			},
		},
	}
}

func employeeMe(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	e, err := rt.Employees.Me(ctxOf(c))
	if err != nil {
		return err
	}
	return rt.Printer.Print(e)
}

func employeeList(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	status := c.String("status")
	if status != "" && status != service.EmployeeStatusPending && status != service.EmployeeStatusActive {
		return domain.ErrValidation.WithDetails("--status must be pending or active")
	}

	var list []domain.Employee
	err = withSpinner(rt, "Loading employees", func() (err error) {
		list, err = rt.Employees.List(ctxOf(c), status)
		return err
	})
	if err != nil {
		return err
	}
	return rt.Printer.Print(list)
}

func employeeGet(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	id, err := requireArg(c, "EMPLOYEE_ID")
	if err != nil {
		return err
	}
	e, err := rt.Employees.Get(ctxOf(c), id)
	if err != nil {
		return err
	}
	return rt.Printer.Print(e)
}

func employeeReports(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	list, err := rt.Employees.ReportingToMe(ctxOf(c))
	if err != nil {
		return err
	}
	return rt.Printer.Print(list)
}

func employeeCreate(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	e := &domain.Employee{
		FirstName:        c.String("first-name"),
		LastName:         c.String("last-name"),
		Email:            c.String("email"),
		Position:         c.String("position"),
		Department:       domain.Ref{ID: c.String("department")},
		ReportingManager: domain.Ref{ID: c.String("manager")},
		PhoneNumber:      c.String("phone"),
		Role:             domain.ParseRole(c.String("role")),
		Company:          currentUser(rt).Company,
	}
	created, err := rt.Employees.Create(ctxOf(c), e)
	if err != nil {
		return err
	}
	if rt.Printer.Structured() {
		return rt.Printer.Print(created)
	}
	rt.Printer.Successf("Created employee %s (%s)", created.FullName(), created.ID)
	return nil
}

// parseFields turns KEY=VALUE pairs into an update body.
func parseFields(pairs []string) (map[string]any, error) {
	fields := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, domain.ErrValidation.WithDetails(fmt.Sprintf("invalid field %q, want KEY=VALUE", p))
		}
		fields[key] = value
	}
	return fields, nil
}

func employeeUpdate(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	id, err := requireArg(c, "EMPLOYEE_ID")
	if err != nil {
		return err
	}
	fields, err := parseFields(c.StringSlice("set"))
	if err != nil {
		return err
	}
	updated, err := rt.Employees.Update(ctxOf(c), id, fields)
	if err != nil {
		return err
	}
	return rt.Printer.Print(updated)
}

func employeeDelete(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	id, err := requireArg(c, "EMPLOYEE_ID")
	if err != nil {
		return err
	}
	ok, err := confirm(rt, c.Bool("force"), "Delete employee "+id+"?")
	if err != nil || !ok {
		rt.Printer.Infof("Aborted")
		return err
	}
	if err := rt.Employees.Delete(ctxOf(c), id); err != nil {
		return err
	}
	rt.Printer.Successf("Deleted employee %s", id)
	return nil
}

func employeeInvite(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	inv, err := rt.Employees.GenerateInvite(ctxOf(c), service.InviteRequest{
		Email:      c.String("email"),
		Position:   c.String("position"),
		Department: c.String("department"),
	})
	if err != nil {
		return err
	}
	if rt.Printer.Structured() {
		return rt.Printer.Print(inv)
	}
	rt.Printer.Successf("Invite link: %s", inv.InviteLink)
	return nil
}

func employeeApprove(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	id, err := requireArg(c, "EMPLOYEE_ID")
	if err != nil {
		return err
	}
	role := domain.ParseRole(c.String("role"))
	if err := rt.Employees.ApproveEnrollment(ctxOf(c), id, role); err != nil {
		return err
	}
	rt.Printer.Successf("Approved %s as %s", id, role)
	return nil
}
