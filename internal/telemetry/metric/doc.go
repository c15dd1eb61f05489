// Package metric provides Prometheus metrics for staffdesk.
//
// A CLI process does not serve /metrics. Instead the registry can be
// written to a node_exporter textfile on exit (--metrics-file), which is
// how cron-driven invocations get scraped.
//
// Metrics:
//
//   - staffdesk_http_requests_total{method,route,code}
//   - staffdesk_http_request_duration_seconds{method,route}
//   - staffdesk_session_transitions_total{from,to}
//   - staffdesk_session_forced_logouts_total
//   - staffdesk_health_probes_total{result}
package metric
