package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/staffdesk-go/internal/core/domain"
)

// DepartmentCommand returns the department subcommand group.
func DepartmentCommand() *cli.Command {
	departmentFlags := func(required bool) []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: required},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}},
			&cli.StringFlag{Name: "status", Usage: "active or inactive"},
		}
	}

	return &cli.Command{
		Name:    "department",
		Aliases: []string{"dept"},
		Usage:   "Manage departments",
		Before:  requireAuth(),
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List departments",
				Action: departmentList,
			},
			{
				Name:   "create",
				Usage:  "Create a department",
				Before: requireRole(domain.RoleAdmin),
				Flags:  departmentFlags(true),
				Action: departmentCreate,
			},
			{
				Name:      "update",
				Usage:     "Update a department",
				ArgsUsage: "DEPARTMENT_ID",
				Before:    requireRole(domain.RoleAdmin),
				Flags:     departmentFlags(true),
				Action:    departmentUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a department",
				ArgsUsage: "DEPARTMENT_ID",
				Before:    requireRole(domain.RoleAdmin),
				Flags:     []cli.Flag{forceFlag},
				Action:    departmentDelete,
			},
		},
	}
}

func departmentFrom(c *cli.Context) *domain.Department {
	return &domain.Department{
		Name:        c.String("name"),
		Description: c.String("description"),
		Status:      c.String("status"),
	}
}

func departmentList(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	list, err := rt.Departments.List(ctxOf(c))
	if err != nil {
		return err
	}
	return rt.Printer.Print(list)
}

func departmentCreate(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	d, err := rt.Departments.Create(ctxOf(c), departmentFrom(c))
	if err != nil {
		return err
	}
	if rt.Printer.Structured() {
		return rt.Printer.Print(d)
	}
	rt.Printer.Successf("Created department %s (%s)", d.Name, d.ID)
	return nil
}

func departmentUpdate(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	id, err := requireArg(c, "DEPARTMENT_ID")
	if err != nil {
		return err
	}
	d, err := rt.Departments.Update(ctxOf(c), id, departmentFrom(c))
	if err != nil {
		return err
	}
	return rt.Printer.Print(d)
}

func departmentDelete(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	id, err := requireArg(c, "DEPARTMENT_ID")
	if err != nil {
		return err
	}
	ok, err := confirm(rt, c.Bool("force"), "Delete department "+id+"?")
	if err != nil || !ok {
		rt.Printer.Infof("Aborted")
		return err
	}
	if err := rt.Departments.Delete(ctxOf(c), id); err != nil {
		return err
	}
	rt.Printer.Successf("Deleted department %s", id)
	return nil
}

// DashboardCommand returns the dashboard subcommand group.
func DashboardCommand() *cli.Command {
	return &cli.Command{
		Name:    "dashboard",
		Aliases: []string{"dash"},
		Usage:   "Company overview",
		Before:  requireAuth(),
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show headline numbers",
				Action: dashboardStats,
			},
			{
				Name:   "activities",
				Usage:  "Show recent activity",
				Action: dashboardActivities,
			},
			{
				Name:   "leaves",
				Usage:  "Show recent leave requests",
				Action: dashboardLeaves,
			},
		},
	}
}

func dashboardStats(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	stats, err := rt.Dashboard.Stats(ctxOf(c))
	if err != nil {
		return err
	}
	return rt.Printer.Print(stats)
}

func dashboardActivities(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	list, err := rt.Dashboard.RecentActivities(ctxOf(c))
	if err != nil {
		return err
	}
	return rt.Printer.Print(list)
}

func dashboardLeaves(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	list, err := rt.Dashboard.RecentLeaves(ctxOf(c))
	if err != nil {
		return err
	}
	return rt.Printer.Print(list)
}

// CompanyCommand returns the company subcommand group.
func CompanyCommand() *cli.Command {
	companyFlags := []cli.Flag{
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true},
		&cli.StringFlag{Name: "email-domain", Usage: "e.g., acme.io"},
		&cli.StringFlag{Name: "status"},
	}

	return &cli.Command{
		Name:  "company",
		Usage: "Register and manage companies",
		Subcommands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Register a company and its first admin",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true},
					&cli.StringFlag{Name: "email-domain", Required: true},
					&cli.StringFlag{Name: "admin-first-name", Required: true},
					&cli.StringFlag{Name: "admin-last-name", Required: true},
					&cli.StringFlag{Name: "admin-email", Required: true},
					&cli.StringFlag{Name: "admin-password", Usage: "Prompted when omitted"},
				},
				Action: companyRegister,
			},
			{
				Name:   "list",
				Usage:  "List companies",
				Before: requireRole(domain.RoleAdmin),
				Action: companyList,
			},
			{
				Name:   "create",
				Usage:  "Create a company",
				Before: requireRole(domain.RoleAdmin),
				Flags:  companyFlags,
				Action: companyCreate,
			},
			{
				Name:      "update",
				Usage:     "Update a company",
				ArgsUsage: "COMPANY_ID",
				Before:    requireRole(domain.RoleAdmin),
				Flags:     companyFlags,
				Action:    companyUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a company",
				ArgsUsage: "COMPANY_ID",
				Before:    requireRole(domain.RoleAdmin),
				Flags:     []cli.Flag{forceFlag},
				Action:    companyDelete,
			},
		},
	}
}

func companyFrom(c *cli.Context) *domain.Company {
	return &domain.Company{
		Name:        c.String("name"),
		EmailDomain: c.String("email-domain"),
		Status:      c.String("status"),
	}
}

func companyRegister(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	password, err := valueOrPrompt(rt, c.String("admin-password"), "Admin password", true)
	if err != nil {
		return err
	}

	reg := domain.CompanyRegistration{
		CompanyName:    c.String("name"),
		EmailDomain:    c.String("email-domain"),
		AdminFirstName: c.String("admin-first-name"),
		AdminLastName:  c.String("admin-last-name"),
		AdminEmail:     c.String("admin-email"),
		AdminPassword:  password,
	}
	company, err := rt.Companies.Register(ctxOf(c), reg)
	if err != nil {
		return err
	}
	if rt.Printer.Structured() {
		return rt.Printer.Print(company)
	}
	rt.Printer.Successf("Registered %s, sign in with `staffdesk login -e %s`", company.Name, reg.AdminEmail)
	return nil
}

func companyList(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	list, err := rt.Companies.List(ctxOf(c))
	if err != nil {
		return err
	}
	return rt.Printer.Print(list)
}

func companyCreate(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	company, err := rt.Companies.Create(ctxOf(c), companyFrom(c))
	if err != nil {
		return err
	}
	return rt.Printer.Print(company)
}

func companyUpdate(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	id, err := requireArg(c, "COMPANY_ID")
	if err != nil {
		return err
	}
	company, err := rt.Companies.Update(ctxOf(c), id, companyFrom(c))
	if err != nil {
		return err
	}
	return rt.Printer.Print(company)
}

func companyDelete(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	id, err := requireArg(c, "COMPANY_ID")
	if err != nil {
		return err
	}
	ok, err := confirm(rt, c.Bool("force"), "Delete company "+id+"?")
	if err != nil || !ok {
		rt.Printer.Infof("Aborted")
		return err
	}
	if err := rt.Companies.Delete(ctxOf(c), id); err != nil {
		return err
	}
	rt.Printer.Successf("Deleted company %s", id)
	return nil
}
