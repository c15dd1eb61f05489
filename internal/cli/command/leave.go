package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/staffdesk-go/internal/core/domain"
	"github.com/yndnr/staffdesk-go/internal/core/service"
)

// LeaveCommand returns the leave subcommand group.
func LeaveCommand() *cli.Command {
	return &cli.Command{
		Name:   "leave",
		Usage:  "Request and review leave",
		Before: requireAuth(),
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List leave requests",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "view",
						Value: service.ViewMyLeaves,
						Usage: "my-leaves, team-leaves or all-leaves",
					},
				},
				Action: leaveList,
			},
			{
				Name:      "get-for",
				Usage:     "List the leave requests of an employee",
				ArgsUsage: "EMPLOYEE_ID",
				Before:    requireRole(managers...),
				Action:    leaveForEmployee,
			},
			{
				Name:  "request",
				Usage: "Request leave",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Value: domain.LeaveAnnual, Usage: "annual, sick, personal, unpaid or other"},
					&cli.StringFlag{Name: "from", Required: true, Usage: "First day (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "to", Usage: "Last day (YYYY-MM-DD), defaults to --from"},
					&cli.StringFlag{Name: "reason", Aliases: []string{"r"}},
				},
				Action: leaveRequest,
			},
			{
				Name:      "set-status",
				Usage:     "Approve or reject a request as HR or admin",
				ArgsUsage: "LEAVE_ID",
				Before:    requireRole(managers...),
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Required: true, Usage: "approved or rejected"},
				},
				Action: leaveSetStatus,
			},
			{
				Name:      "approve",
				Usage:     "Approve a request of one of your reports",
				ArgsUsage: "LEAVE_ID",
				Flags:     []cli.Flag{commentsFlag},
				Action:    leaveDecision(domain.LeaveApproved),
			},
			{
				Name:      "reject",
				Usage:     "Reject a request of one of your reports",
				ArgsUsage: "LEAVE_ID",
				Flags:     []cli.Flag{commentsFlag},
				Action:    leaveDecision(domain.LeaveRejected),
			},
			{
				Name:      "delete",
				Usage:     "Withdraw a leave request",
				ArgsUsage: "LEAVE_ID",
				Flags:     []cli.Flag{forceFlag},
				Action:    leaveDelete,
			},
		},
	}
}

var commentsFlag = &cli.StringFlag{Name: "comments", Aliases: []string{"m"}, Usage: "Note for the requester"}

func leaveList(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	leaves, err := rt.Leaves.List(ctxOf(c), c.String("view"))
	if err != nil {
		return err
	}
	return rt.Printer.Print(leaves)
}

func leaveForEmployee(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	id, err := requireArg(c, "EMPLOYEE_ID")
	if err != nil {
		return err
	}
	leaves, err := rt.Leaves.ForEmployee(ctxOf(c), id)
	if err != nil {
		return err
	}
	return rt.Printer.Print(leaves)
}

func leaveRequest(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	from, err := parseDate("from", c.String("from"))
	if err != nil {
		return err
	}
	to := from
	if c.String("to") != "" {
		if to, err = parseDate("to", c.String("to")); err != nil {
			return err
		}
	}

	l := &domain.Leave{
		Type:      c.String("type"),
		StartDate: from,
		EndDate:   to,
		Reason:    c.String("reason"),
	}
	created, err := rt.Leaves.Request(ctxOf(c), l)
	if err != nil {
		return err
	}
	if rt.Printer.Structured() {
		return rt.Printer.Print(created)
	}
	rt.Printer.Successf("Requested %d day(s) of %s leave (%s)", l.Days(), l.Type, created.ID)
	return nil
}

func leaveSetStatus(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	id, err := requireArg(c, "LEAVE_ID")
	if err != nil {
		return err
	}
	status := c.String("status")
	if err := rt.Leaves.SetStatus(ctxOf(c), id, status); err != nil {
		return err
	}
	rt.Printer.Successf("Leave %s %s", id, status)
	return nil
}

func leaveDecision(status string) cli.ActionFunc {
	return func(c *cli.Context) error {
		rt, err := runtimeFrom(c)
		if err != nil {
			return err
		}
		id, err := requireArg(c, "LEAVE_ID")
		if err != nil {
			return err
		}
		a := domain.Approval{Status: status, Comments: c.String("comments")}
		if err := rt.Leaves.ManagerApproval(ctxOf(c), id, a); err != nil {
			return err
		}
		rt.Printer.Successf("Leave %s %s", id, status)
		return nil
	}
}

func leaveDelete(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	id, err := requireArg(c, "LEAVE_ID")
	if err != nil {
		return err
	}
	ok, err := confirm(rt, c.Bool("force"), "Withdraw leave request "+id+"?")
	if err != nil || !ok {
		rt.Printer.Infof("Aborted")
		return err
	}
	if err := rt.Leaves.Delete(ctxOf(c), id); err != nil {
		return err
	}
	rt.Printer.Successf("Withdrew leave request %s", id)
	return nil
}
