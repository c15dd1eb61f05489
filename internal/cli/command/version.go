package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/staffdesk-go/internal/cli/output"
	"github.com/yndnr/staffdesk-go/internal/infra/buildinfo"
)

// VersionCommand prints build information.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Action: func(c *cli.Context) error {
			p, err := configPrinter(c)
			if err != nil {
				return err
			}
			if c.String("output") == "" {
				p.SetFormat(output.FormatTable, output.Options{})
			}
			return p.Print(buildinfo.Get())
		},
	}
}
