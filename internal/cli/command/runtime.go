package command

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/yndnr/staffdesk-go/internal/cli/config"
	"github.com/yndnr/staffdesk-go/internal/cli/connection"
	"github.com/yndnr/staffdesk-go/internal/cli/output"
	"github.com/yndnr/staffdesk-go/internal/core/service"
	"github.com/yndnr/staffdesk-go/internal/infra/buildinfo"
	"github.com/yndnr/staffdesk-go/internal/infra/shutdown"
	"github.com/yndnr/staffdesk-go/internal/infra/tlsroots"
	"github.com/yndnr/staffdesk-go/internal/storage"
	"github.com/yndnr/staffdesk-go/internal/telemetry/logger"
	"github.com/yndnr/staffdesk-go/internal/telemetry/metric"
	"github.com/yndnr/staffdesk-go/internal/telemetry/tracer"
)

// Runtime holds everything a command needs to talk to the backend.
type Runtime struct {
	Config     *config.CLIConfig
	ConfigPath string

	In      io.Reader
	input   *bufio.Reader
	Printer *output.Printer
	Logger  logger.Logger
	Metrics *metric.Registry
	Tracer  *tracer.Provider
	Store   storage.CredentialStore
	Client  *connection.HTTPClient
	Session *service.SessionManager

	Employees   *service.EmployeeService
	Leaves      *service.LeaveService
	TimeEntries *service.TimeEntryService
	Departments *service.DepartmentService
	Companies   *service.CompanyService
	Dashboard   *service.DashboardService
	Accounts    *service.AccountService
	Health      *service.HealthService

	shutdown *shutdown.Handler
	checked  bool
}

// RuntimeOptions carry the process streams and optional overrides.
type RuntimeOptions struct {
	In         io.Reader
	Out        io.Writer
	Err        io.Writer
	ConfigPath string
	Wide       bool
	// Store replaces the configured credential backend.
	Store storage.CredentialStore
	// Shutdown receives the cleanup hooks. A private handler is used
	// when nil.
	Shutdown *shutdown.Handler
}

// NewRuntime wires the client stack for cfg. cfg must have passed
// config.Validate.
func NewRuntime(cfg *config.CLIConfig, opts RuntimeOptions) (*Runtime, error) {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}

	rt := &Runtime{
		Config:     cfg,
		ConfigPath: opts.ConfigPath,
		In:         opts.In,
		shutdown:   opts.Shutdown,
	}

	var logFile *os.File
	logOut := opts.Err
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		logFile, logOut = f, f
	}
	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: logOut})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	rt.Logger = log
	if rt.shutdown == nil {
		rt.shutdown = shutdown.NewHandler(shutdown.DefaultTimeout, log)
	}
	if logFile != nil {
		rt.onShutdown("log file", func(context.Context) error { return logFile.Close() })
	}

	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}
	rt.Printer = output.NewPrinter(opts.Out, opts.Err, format, output.Options{
		Wide:    opts.Wide,
		NoColor: cfg.Output.NoColor,
	})

	rt.Metrics = metric.NewRegistry()
	if path := cfg.Telemetry.MetricsFile; path != "" {
		rt.onShutdown("metrics", func(context.Context) error {
			return rt.Metrics.WriteTextfile(path)
		})
	}

	rt.Tracer = tracer.Noop()
	if cfg.Telemetry.Trace {
		if rt.Tracer, err = tracer.New("staffdesk-cli", buildinfo.Version, opts.Err); err != nil {
			return nil, err
		}
		rt.onShutdown("tracer", rt.Tracer.Shutdown)
	}

	rt.Store = opts.Store
	if rt.Store == nil {
		rt.Store, err = storage.NewStore(storage.Config{
			Backend: cfg.Credentials.Backend,
			Dir:     cfg.CredentialsDir(),
			Logger:  log.Slog(),
		})
		if err != nil {
			return nil, err
		}
	}
	store := rt.Store
	rt.onShutdown("credentials", func(context.Context) error { return store.Close() })

	tlsConfig, err := tlsroots.ClientConfig(tlsroots.Options{CAFile: cfg.API.CAFile, Insecure: cfg.API.Insecure})
	if err != nil {
		return nil, fmt.Errorf("load CA bundle: %w", err)
	}
	if cfg.API.Insecure {
		log.Warn("TLS certificate verification disabled")
	}

	clientOpts := []connection.Option{
		connection.WithTimeout(cfg.API.Timeout),
		connection.WithTLSConfig(tlsConfig),
		connection.WithRateLimit(cfg.API.RateLimit, cfg.API.Burst),
		connection.WithMetrics(rt.Metrics.Metrics),
		connection.WithTracer(rt.Tracer.Tracer()),
		connection.WithLogger(log),
		connection.WithUserAgent(buildinfo.UserAgent()),
	}

	var clientErr error
	rt.Session = service.NewSessionManager(rt.Store, func(h service.Hooks) service.API {
		rt.Client, clientErr = connection.NewHTTPClient(cfg.API.URL, append(clientOpts,
			connection.WithTokenSource(connection.TokenFunc(h.Token)),
			connection.WithUnauthorizedHandler(h.OnUnauthorized),
		)...)
		return rt.Client
	}, service.WithSessionLogger(log), service.WithSessionMetrics(rt.Metrics.Metrics))
	if clientErr != nil {
		return nil, clientErr
	}

	api := rt.Session.Client()
	rt.Employees = service.NewEmployeeService(api)
	rt.Leaves = service.NewLeaveService(api)
	rt.TimeEntries = service.NewTimeEntryService(api)
	rt.Departments = service.NewDepartmentService(api)
	rt.Companies = service.NewCompanyService(api)
	rt.Dashboard = service.NewDashboardService(api)
	rt.Accounts = service.NewAccountService(api)
	rt.Health = service.NewHealthService(api, cfg.Health.Timeout, log, rt.Metrics.Metrics)

	log.Debug("runtime ready", "api", rt.Client.BaseURL(), "credentials", rt.Store.Name())
	return rt, nil
}

func (rt *Runtime) onShutdown(name string, fn func(context.Context) error) {
	rt.shutdown.OnShutdown(name, fn)
}

// RestoreSession runs CheckAuth once per runtime. A rejected token is
// not an error here: the session records it and guards react to the
// resulting state.
func (rt *Runtime) RestoreSession(ctx context.Context) {
	if rt.checked {
		return
	}
	rt.checked = true
	if err := rt.Session.CheckAuth(ctx); err != nil {
		rt.Logger.Debug("session restore failed", "error", err)
	}
}

// Close runs the cleanup hooks.
func (rt *Runtime) Close(ctx context.Context) error {
	return rt.shutdown.Shutdown(ctx)
}

// Input returns the shared buffered reader over In.
func (rt *Runtime) Input() *bufio.Reader {
	if rt.input == nil {
		rt.input = bufio.NewReader(rt.In)
	}
	return rt.input
}
