package connection

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/time/rate"

	"github.com/yndnr/staffdesk-go/internal/telemetry/logger"
	"github.com/yndnr/staffdesk-go/internal/telemetry/metric"
)

// APIRoot prefixes every relative request path.
const APIRoot = "/api"

// DefaultTimeout is used when no timeout option is given.
const DefaultTimeout = 30 * time.Second

const (
	defaultUserAgent = "staffdesk-cli"
	maxBodySize      = 8 << 20
)

// HTTPClient talks to the backend REST API.
type HTTPClient struct {
	baseURL   string
	client    *http.Client
	timeout   time.Duration
	tlsConfig *tls.Config

	tokens         TokenSource
	onUnauthorized func()
	limiter        *rate.Limiter
	metrics        *metric.Metrics
	tracer         trace.Tracer
	logger         logger.Logger
	userAgent      string
}

// NewHTTPClient creates a client for the API served at baseURL, which
// must be an absolute http or https URL.
func NewHTTPClient(baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("connection: parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("connection: base url %q must be an absolute http(s) url", baseURL)
	}
	u.RawQuery, u.Fragment = "", ""

	c := &HTTPClient{
		baseURL:   strings.TrimRight(u.String(), "/"),
		timeout:   DefaultTimeout,
		tokens:    TokenFunc(func() string { return "" }),
		tracer:    noop.NewTracerProvider().Tracer(""),
		logger:    logger.Default(),
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if c.tlsConfig != nil {
			transport.TLSClientConfig = c.tlsConfig
		}
		c.client = &http.Client{Transport: transport, Timeout: c.timeout}
	}

	return c, nil
}

// BaseURL returns the base URL without trailing slash.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// NormalizePath roots relative targets under APIRoot. Targets already
// under APIRoot and absolute http(s) URLs are returned unchanged.
func NormalizePath(target string) string {
	if isAbsolute(target) {
		return target
	}
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	if target == APIRoot || strings.HasPrefix(target, APIRoot+"/") || strings.HasPrefix(target, APIRoot+"?") {
		return target
	}
	return APIRoot + target
}

// ResolveURL returns the full URL a request for target goes to.
func (c *HTTPClient) ResolveURL(target string) string {
	target = NormalizePath(target)
	if isAbsolute(target) {
		return target
	}
	return c.baseURL + target
}

func isAbsolute(target string) bool {
	lower := strings.ToLower(target)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string) ([]byte, error) {
	return c.Do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, path string, body any) ([]byte, error) {
	return c.Do(ctx, http.MethodPost, path, body)
}

// Put performs a PUT request with a JSON body.
func (c *HTTPClient) Put(ctx context.Context, path string, body any) ([]byte, error) {
	return c.Do(ctx, http.MethodPut, path, body)
}

// Patch performs a PATCH request with a JSON body.
func (c *HTTPClient) Patch(ctx context.Context, path string, body any) ([]byte, error) {
	return c.Do(ctx, http.MethodPatch, path, body)
}

// Delete performs a DELETE request.
func (c *HTTPClient) Delete(ctx context.Context, path string) ([]byte, error) {
	return c.Do(ctx, http.MethodDelete, path, nil)
}

// Do sends a request through the pipeline and returns the response body of
// a 2xx response. body may be nil, raw JSON bytes or any value encodable
// as JSON.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body any) ([]byte, error) {
	target := c.ResolveURL(path)
	route := routeLabel(NormalizePath(path))

	payload, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("connection: encode body: %w", err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Method: method, URL: target, Cause: err}
		}
	}

	requestID := ulid.Make().String()
	ctx = logger.WithRequestID(ctx, requestID)
	ctx, span := c.tracer.Start(ctx, method+" "+route,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", target),
			attribute.String("staffdesk.request_id", requestID),
		))
	defer span.End()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("connection: create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token := c.tokens.Token()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log := logger.L(logger.WithLogger(ctx, c.logger))
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(method, route, 0, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		log.Debug("api request failed", "method", method, "url", target, "error", err)
		return nil, &TransportError{Method: method, URL: target, Authenticated: token != "", Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	elapsed := time.Since(start)
	c.metrics.ObserveRequest(method, route, resp.StatusCode, elapsed)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	log.Debug("api request",
		"method", method,
		"url", target,
		"status", resp.StatusCode,
		"duration", elapsed,
	)
	if err != nil {
		span.RecordError(err)
		return nil, &TransportError{Method: method, URL: target, StatusCode: resp.StatusCode, Authenticated: token != "", Cause: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}

	span.SetStatus(codes.Error, resp.Status)
	terr := &TransportError{
		Method:        method,
		URL:           target,
		StatusCode:    resp.StatusCode,
		Body:          data,
		Authenticated: token != "",
	}
	if terr.Unauthorized() && c.onUnauthorized != nil {
		log.Info("backend rejected credentials, ending session", "url", target)
		c.onUnauthorized()
	}
	return nil, terr
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	default:
		return json.Marshal(b)
	}
}

// routeLabel reduces a normalized path to its resource name so that ids
// do not end up in metric labels.
func routeLabel(path string) string {
	if isAbsolute(path) {
		if u, err := url.Parse(path); err == nil {
			return u.Host
		}
		return "external"
	}
	path = strings.TrimPrefix(path, APIRoot)
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return "root"
	}
	if i := strings.Index(path, "/"); i >= 0 {
		return path[:i]
	}
	return path
}

// IsUnauthorized reports whether err is a 401 transport error.
func IsUnauthorized(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Unauthorized()
}
