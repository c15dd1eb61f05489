package command

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/staffdesk-go/internal/cli/config"
	"github.com/yndnr/staffdesk-go/internal/cli/output"
	"github.com/yndnr/staffdesk-go/internal/infra/buildinfo"
	"github.com/yndnr/staffdesk-go/internal/infra/shutdown"
	"github.com/yndnr/staffdesk-go/internal/telemetry/logger"
	"github.com/yndnr/staffdesk-go/pkg/envelope"
)

// Metadata keys.
const (
	runtimeKey = "staffdesk.runtime"
	envKey     = "staffdesk.env"
	printerKey = "staffdesk.printer"
)

// environment is what Run hands down to the lazily built Runtime.
type environment struct {
	in       io.Reader
	shutdown *shutdown.Handler
}

// commands that run without a backend configuration.
var offline = []string{"", "help", "h", "version", "config"}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:                 "staffdesk",
		Usage:                "Employee management from the command line",
		Version:              buildinfo.String(),
		Flags:                globalFlags(),
		EnableBashCompletion: true,
		Commands:             commands(),
		Before: func(c *cli.Context) error {
			if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
				pushOutput(c, rt)
				return nil
			}
			if slices.Contains(offline, c.Args().First()) {
				return nil
			}
			_, err := runtimeFrom(c)
			return err
		},
		After: popOutput,
		// Errors are reported by Run, and the shell must survive them.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func commands() []*cli.Command {
	return []*cli.Command{
		LoginCommand(),
		RegisterCommand(),
		LogoutCommand(),
		WhoamiCommand(),
		StatusCommand(),
		PasswordCommand(),
		EnrollCommand(),
		EmployeeCommand(),
		DepartmentCommand(),
		LeaveCommand(),
		TimeCommand(),
		DashboardCommand(),
		CompanyCommand(),
		HealthCommand(),
		ConfigCommand(),
		ShellCommand(),
		VersionCommand(),
	}
}

// globalFlags returns the global CLI flags. Values left unset fall back
// to STAFFDESK_* variables, the config file and the defaults.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "api-url",
			Usage: "Backend base URL (e.g., https://hr.example.com)",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file",
			EnvVars: []string{"STAFFDESK_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "Disable colored output",
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "Skip TLS certificate verification",
		},
		&cli.StringFlag{
			Name:  "ca-file",
			Usage: "PEM bundle of additional trusted CAs",
		},
		&cli.StringFlag{
			Name:  "credentials",
			Usage: "Credential backend: file, badger, memory",
		},
		&cli.StringFlag{
			Name:  "metrics-file",
			Usage: "Write Prometheus metrics to this file on exit",
		},
		&cli.BoolFlag{
			Name:  "trace",
			Usage: "Print OpenTelemetry spans to stderr",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "Write logs to this file instead of stderr",
		},
	}
}

// overrides maps global flags onto config keys. Unset string flags are
// dropped by the loader.
func overrides(c *cli.Context) map[string]any {
	o := map[string]any{
		"api.url":               c.String("api-url"),
		"api.cafile":            c.String("ca-file"),
		"output.format":         c.String("output"),
		"credentials.backend":   c.String("credentials"),
		"telemetry.metricsfile": c.String("metrics-file"),
		"log.file":              c.String("log-file"),
	}
	if c.Bool("insecure") {
		o["api.insecure"] = true
	}
	if c.Bool("no-color") {
		o["output.nocolor"] = true
	}
	if c.Bool("trace") {
		o["telemetry.trace"] = true
	}
	if c.Bool("verbose") {
		o["log.level"] = "debug"
	}
	return o
}

func loadOptions(c *cli.Context) config.LoadOptions {
	return config.LoadOptions{Path: c.String("config"), Overrides: overrides(c)}
}

// runtimeFrom returns the Runtime of the app, building it on first use.
func runtimeFrom(c *cli.Context) (*Runtime, error) {
	if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
		return rt, nil
	}

	opts := loadOptions(c)
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, err
	}

	rtOpts := RuntimeOptions{
		Out:        c.App.Writer,
		Err:        c.App.ErrWriter,
		ConfigPath: opts.Path,
		Wide:       c.Bool("wide"),
	}
	if env, ok := c.App.Metadata[envKey].(*environment); ok {
		rtOpts.In = env.in
		rtOpts.Shutdown = env.shutdown
	}

	rt, err := NewRuntime(cfg, rtOpts)
	if err != nil {
		return nil, err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[runtimeKey] = rt
	return rt, nil
}

// pushOutput applies the output flags of one shell line on top of the
// runtime's printer settings. popOutput restores them.
func pushOutput(c *cli.Context, rt *Runtime) {
	if !c.IsSet("output") && !c.IsSet("wide") && !c.IsSet("no-color") {
		return
	}
	format, opts := rt.Printer.Format(), rt.Printer.Options()
	saved := func() { rt.Printer.SetFormat(format, opts) }

	next := opts
	if c.IsSet("wide") {
		next.Wide = c.Bool("wide")
	}
	if c.IsSet("no-color") {
		next.NoColor = c.Bool("no-color")
	}
	nextFormat := format
	if c.IsSet("output") {
		f, err := output.ParseFormat(c.String("output"))
		if err != nil {
			rt.Printer.Warnf("%v, keeping %s output", err, format)
		} else {
			nextFormat = f
		}
	}
	rt.Printer.SetFormat(nextFormat, next)
	c.App.Metadata[printerKey] = saved
}

func popOutput(c *cli.Context) error {
	if restore, ok := c.App.Metadata[printerKey].(func()); ok {
		delete(c.App.Metadata, printerKey)
		restore()
	}
	return nil
}

// Run executes args and returns the process exit code. Failures are
// printed as "Error: <message>".
func Run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	h := shutdown.NewHandler(shutdown.DefaultTimeout, logger.Default())
	ctx, stop := h.NotifyContext(ctx)
	defer stop()

	app := App()
	app.Reader, app.Writer, app.ErrWriter = in, out, errOut
	app.Metadata = map[string]any{envKey: &environment{in: in, shutdown: h}}

	err := app.RunContext(ctx, args)
	if serr := h.Shutdown(context.Background()); serr != nil {
		logger.Default().Warn("cleanup failed", "error", serr)
	}
	if err != nil {
		fmt.Fprintf(errOut, "Error: %s\n", envelope.ExtractErrorMessage(err))
		return 1
	}
	return 0
}
