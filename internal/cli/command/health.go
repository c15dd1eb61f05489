package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/staffdesk-go/internal/core/domain"
	"github.com/yndnr/staffdesk-go/internal/core/service"
)

// HealthCommand probes the backend.
func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Check that the backend is reachable",
		Action: healthProbe,
	}
}

func healthProbe(c *cli.Context) error {
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}

	var report *service.HealthReport
	err = withSpinner(rt, "Contacting "+rt.Client.BaseURL(), func() (err error) {
		report, err = rt.Health.Probe(ctxOf(c))
		return err
	})
	if err != nil {
		return err
	}

	switch report.Result {
	case service.ProbeSlow:
		rt.Printer.Warnf("first health check timed out after %s, the backend answered on retry", rt.Config.Health.Timeout)
	case service.ProbeFailed:
		rt.Printer.Warnf("backend is unreachable, some features may not work")
	}
	if err := rt.Printer.Print(report); err != nil {
		return err
	}
	if !report.Reachable() {
		return domain.ErrTransport.WithDetails(report.Message)
	}
	return nil
}
