// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for gcalauth.
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, route, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Google API Metrics:
//   - google_api_operations_total: Counter of Google API operations by service, operation, status
//   - google_api_operation_duration_seconds: Histogram of Google API operation durations
//   - calendar_service_builds_total: Calendar service lookups by cache outcome (hit, miss)
//
// OAuth Metrics:
//   - oauth_auth_total: Counter of authorization code exchanges by result
//   - oauth_token_refresh_total: Counter of token refresh attempts by result
//
// # Tracing
//
// Spans are created for incoming HTTP requests, OAuth code exchanges and
// refreshes (auth.*), and Calendar API calls (google.calendar.<operation>).
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: gcalauth)
//   - METRICS_DETAILED_LABELS: Add calendar IDs to metric labels (default: false)
//   - AUDIT_LOGGING_ENABLED / AUDIT_LOGGING_INCLUDE_PII
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	metrics := provider.Metrics()
//	metrics.RecordCalendarOperation(ctx, instrumentation.ServiceCalendar,
//		instrumentation.OperationList, instrumentation.StatusSuccess, calendarID, time.Since(start))
package instrumentation
