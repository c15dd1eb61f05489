package service

import (
	"context"
	"time"

	"github.com/yndnr/staffdesk-go/internal/telemetry/logger"
	"github.com/yndnr/staffdesk-go/internal/telemetry/metric"
	"github.com/yndnr/staffdesk-go/pkg/envelope"
)

// DefaultProbeTimeout bounds the first connectivity attempt.
const DefaultProbeTimeout = 2 * time.Second

// Probe results.
const (
	ProbeOK     = "ok"
	ProbeSlow   = "slow"
	ProbeFailed = "failed"
)

// HealthReport is the outcome of a connectivity probe.
type HealthReport struct {
	Result   string        `json:"result"`
	Latency  time.Duration `json:"latency"`
	Attempts int           `json:"attempts"`
	Message  string        `json:"message,omitempty"`
}

// Reachable reports whether the backend answered at all.
func (r *HealthReport) Reachable() bool {
	return r.Result != ProbeFailed
}

// HealthService checks that the backend is reachable.
type HealthService struct {
	api     API
	timeout time.Duration
	logger  logger.Logger
	metrics *metric.Metrics
}

// NewHealthService creates a probe. timeout <= 0 uses DefaultProbeTimeout.
func NewHealthService(api API, timeout time.Duration, l logger.Logger, m *metric.Metrics) *HealthService {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if l == nil {
		l = logger.Default()
	}
	return &HealthService{api: api, timeout: timeout, logger: l, metrics: m}
}

// Probe calls GET /health with the short timeout. When that fails it
// retries once bounded only by ctx and logs a warning. A failed probe is
// reported, not returned as an error; the error is only set when ctx
// itself ends.
func (s *HealthService) Probe(ctx context.Context) (*HealthReport, error) {
	start := time.Now()

	short, cancel := context.WithTimeout(ctx, s.timeout)
	_, err := s.api.Get(short, "/health")
	cancel()
	if err == nil {
		return s.report(ProbeOK, start, 1, ""), nil
	}
	if ctx.Err() != nil {
		return s.report(ProbeFailed, start, 1, envelope.ExtractErrorMessage(err)), ctx.Err()
	}

	s.logger.Warn("backend health check failed, retrying", "timeout", s.timeout, "error", err)

	if _, err = s.api.Get(ctx, "/health"); err == nil {
		return s.report(ProbeSlow, start, 2, ""), nil
	}

	msg := envelope.ExtractErrorMessage(err)
	s.logger.Warn("backend is unreachable, some features may not work", "error", msg)
	return s.report(ProbeFailed, start, 2, msg), ctx.Err()
}

func (s *HealthService) report(result string, start time.Time, attempts int, msg string) *HealthReport {
	s.metrics.ObserveProbe(result)
	return &HealthReport{
		Result:   result,
		Latency:  time.Since(start),
		Attempts: attempts,
		Message:  msg,
	}
}
