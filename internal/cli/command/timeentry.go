package command

import (
	"time"

	"github.com/urfave/cli/v2"
)

// TimeCommand returns the attendance subcommand group.
func TimeCommand() *cli.Command {
	return &cli.Command{
		Name:   "time",
		Usage:  "Clock in, clock out and review attendance",
		Before: requireAuth(),
		Subcommands: []*cli.Command{
			{
				Name:   "today",
				Usage:  "Show today's entry",
				Action: timeToday,
			},
			{
				Name:  "clock-in",
				Usage: "Start today's entry",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "location", Aliases: []string{"l"}, Value: "Office"},
				},
				Action: timeClockIn,
			},
			{
				Name:  "clock-out",
				Usage: "Close today's entry",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "location", Aliases: []string{"l"}, Value: "Office"},
					&cli.StringFlag{Name: "notes", Aliases: []string{"n"}},
				},
				Action: timeClockOut,
			},
			{
				Name:  "list",
				Usage: "List your recent entries",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 10, Usage: "Number of entries"},
				},
				Action: timeList,
			},
			{
				Name:   "team",
				Usage:  "Show today's entries of your reports",
				Action: timeTeam,
			},
		},
	}
}

func timeToday(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	entry, err := rt.TimeEntries.Today(ctxOf(c))
	if err != nil {
		return err
	}
	if entry == nil {
		if rt.Printer.Structured() {
			return rt.Printer.Print(nil)
		}
		rt.Printer.Infof("Not clocked in today.")
		return nil
	}
	return rt.Printer.Print(entry)
}

func timeClockIn(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	entry, err := rt.TimeEntries.ClockIn(ctxOf(c), c.String("location"))
	if err != nil {
		return err
	}
	if rt.Printer.Structured() {
		return rt.Printer.Print(entry)
	}
	at := time.Now()
	if entry.ClockIn != nil && entry.ClockIn.Time != nil {
		at = *entry.ClockIn.Time
	}
	rt.Printer.Successf("Clocked in at %s (%s)", at.Local().Format("15:04"), c.String("location"))
	return nil
}

func timeClockOut(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	entry, err := rt.TimeEntries.ClockOut(ctxOf(c), c.String("location"), c.String("notes"))
	if err != nil {
		return err
	}
	if rt.Printer.Structured() {
		return rt.Printer.Print(entry)
	}
	rt.Printer.Successf("Clocked out, %.2f hours today", entry.TotalHours)
	return nil
}

func timeList(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	entries, err := rt.TimeEntries.Recent(ctxOf(c), c.Int("limit"))
	if err != nil {
		return err
	}
	return rt.Printer.Print(entries)
}

func timeTeam(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	entries, err := rt.TimeEntries.Team(ctxOf(c))
	if err != nil {
		return err
	}
	return rt.Printer.Print(entries)
}
