package command

import (
	"context"
	"net/url"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/staffdesk-go/internal/cli/config"
	"github.com/yndnr/staffdesk-go/internal/cli/output"
	"github.com/yndnr/staffdesk-go/internal/cli/repl"
	"github.com/yndnr/staffdesk-go/internal/core/domain"
	"github.com/yndnr/staffdesk-go/internal/core/service"
	"github.com/yndnr/staffdesk-go/internal/infra/confloader"
	"github.com/yndnr/staffdesk-go/internal/telemetry/logger"
)

const shellKey = "staffdesk.shell"

// ShellCommand starts the interactive shell.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:        "shell",
		Usage:       "Start an interactive shell",
		Description: "Runs commands against one session without reloading credentials.\n   Type 'help' for commands, 'history' for recent lines and 'exit' to leave.",
		Action:      runShell,
	}
}

func runShell(c *cli.Context) error {
	if active, _ := c.App.Metadata[shellKey].(bool); active {
		return domain.ErrValidation.WithDetails("already inside the shell")
	}
	rt, err := runtimeFrom(c)
	if err != nil {
		return err
	}
	c.App.Metadata[shellKey] = true
	defer delete(c.App.Metadata, shellKey)

	ctx := ctxOf(c)
	probeBackend(ctx, rt)
	rt.RestoreSession(ctx)

	history := repl.NewHistory(rt.Config.HistoryPath(), rt.Config.History.Size)
	if err := history.Load(); err != nil {
		rt.Logger.Warn("history not loaded", "error", err)
	}
	rt.onShutdown("history", func(context.Context) error { return history.Save() })

	shell := repl.New(func(ctx context.Context, args []string) error {
		return c.App.RunContext(ctx, append([]string{c.App.Name}, args...))
	},
		repl.WithIO(rt.Input(), c.App.Writer),
		repl.WithHistory(history),
		repl.WithCompleter(repl.FromCommands(c.App.Commands)),
	)

	host := apiHost(rt.Config.API.URL)
	shell.SetPrompt(shellPrompt(rt.Session.State(), host))
	unsubscribe := rt.Session.Subscribe(func(s domain.Session) {
		shell.SetPrompt(shellPrompt(s, host))
	})
	defer unsubscribe()

	if path := configFile(c); path != "" {
		opts := loadOptions(c)
		opts.Path = path
		if w, err := confloader.NewWatcher(path, confloader.WithWatcherLogger(rt.Logger.Slog())); err != nil {
			rt.Logger.Debug("config watcher disabled", "error", err)
		} else {
			defer w.Close()
			w.OnChange(func(string) { reloadConfig(rt, opts) })
			go w.Run(ctx)
		}
	}

	rt.Printer.Infof("staffdesk %s, type 'help' for commands or 'exit' to leave", c.App.Version)
	return shell.Run(ctx)
}

// probeBackend warns when the backend does not answer at startup. The
// retry may take up to three times the first attempt's timeout.
func probeBackend(ctx context.Context, rt *Runtime) {
	ctx, cancel := context.WithTimeout(ctx, 4*rt.Config.Health.Timeout)
	defer cancel()

	report, _ := rt.Health.Probe(ctx)
	switch report.Result {
	case service.ProbeSlow:
		rt.Printer.Warnf("backend at %s answered slowly", rt.Client.BaseURL())
	case service.ProbeFailed:
		rt.Printer.Warnf("backend at %s is unreachable, some features may not work", rt.Client.BaseURL())
	}
}

// reloadConfig applies the settings that can change without a new
// session: log level and output format.
func reloadConfig(rt *Runtime, opts config.LoadOptions) {
	cfg, _, err := config.LoadUnchecked(opts)
	if err != nil {
		rt.Logger.Warn("config reload failed", "error", err)
		return
	}
	logger.SetLevel(cfg.Log.Level)

	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		rt.Logger.Warn("config reload failed", "error", err)
		return
	}
	current := rt.Printer.Options()
	rt.Printer.SetFormat(format, output.Options{Wide: current.Wide, NoColor: cfg.Output.NoColor})
	rt.Logger.Info("config reloaded", "format", format, "level", cfg.Log.Level)
}

// shellPrompt renders "<user>@<host>> " while signed in.
func shellPrompt(s domain.Session, host string) string {
	if s.Status != domain.StatusAuthenticated || s.User == nil {
		return repl.DefaultPrompt
	}
	name, _, _ := strings.Cut(s.User.Email, "@")
	if host == "" {
		return name + "> "
	}
	return name + "@" + host + "> "
}

func apiHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
