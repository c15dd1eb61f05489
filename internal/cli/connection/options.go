package connection

import (
	"crypto/tls"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/yndnr/staffdesk-go/internal/telemetry/logger"
	"github.com/yndnr/staffdesk-go/internal/telemetry/metric"
)

// TokenSource supplies the current bearer token. An empty string means
// no token.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token implements TokenSource.
func (f TokenFunc) Token() string { return f() }

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTokenSource sets where the bearer token comes from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *HTTPClient) { c.tokens = ts }
}

// WithUnauthorizedHandler registers the callback run on every 401.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *HTTPClient) { c.onUnauthorized = fn }
}

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.client = hc }
}

// WithTimeout sets the overall request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.timeout = d }
}

// WithTLSConfig sets the TLS configuration of the default transport.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *HTTPClient) { c.tlsConfig = cfg }
}

// WithRateLimit limits outgoing requests to rps per second with the given
// burst. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *HTTPClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMetrics records request counts and latency.
func WithMetrics(m *metric.Metrics) Option {
	return func(c *HTTPClient) { c.metrics = m }
}

// WithTracer wraps every request in a client span.
func WithTracer(t trace.Tracer) Option {
	return func(c *HTTPClient) { c.tracer = t }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *HTTPClient) { c.logger = l }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *HTTPClient) { c.userAgent = ua }
}
