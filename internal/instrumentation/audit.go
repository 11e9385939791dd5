package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Operation captures one OAuth or calendar operation for audit logging.
//
// CalendarID is usually the owner's email address. LogAttrs reduces it to
// its domain; LogAuditAttrs carries it in full.
type Operation struct {
	// Name identifies the operation, e.g. "calendar.get_events".
	Name string

	ServiceName string // oauth2 or calendar
	Kind        string // list, get, exchange, refresh
	CalendarID  string
	EventID     string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewOperation starts timing an operation. Call Complete when it finishes.
func NewOperation(name string) *Operation {
	return &Operation{
		Name:      name,
		StartTime: time.Now(),
	}
}

// WithService sets the Google service and operation kind.
func (op *Operation) WithService(serviceName, kind string) *Operation {
	op.ServiceName = serviceName
	op.Kind = kind
	return op
}

// WithCalendar sets the calendar and, optionally, event the operation
// targets.
func (op *Operation) WithCalendar(calendarID, eventID string) *Operation {
	op.CalendarID = calendarID
	op.EventID = eventID
	return op
}

// WithSpanContext copies the trace and span IDs from the span in ctx.
func (op *Operation) WithSpanContext(ctx context.Context) *Operation {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		op.TraceID = span.SpanContext().TraceID().String()
		op.SpanID = span.SpanContext().SpanID().String()
	}
	return op
}

// Complete stops the timer and records the outcome. A non-nil err marks
// the operation as failed.
func (op *Operation) Complete(err error) *Operation {
	op.Duration = time.Since(op.StartTime)
	op.Success = err == nil
	if err != nil {
		op.Error = err.Error()
	}
	return op
}

// Status returns StatusSuccess or StatusError.
func (op *Operation) Status() string {
	if op.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes with the calendar ID reduced to its
// domain.
func (op *Operation) LogAttrs() []slog.Attr {
	attrs := op.baseAttrs()
	if op.CalendarID != "" {
		attrs = append(attrs, slog.String("calendar_domain", ExtractUserDomain(op.CalendarID)))
	}
	return op.appendTail(attrs, false)
}

// LogAuditAttrs returns slog attributes including the full calendar and
// event IDs.
func (op *Operation) LogAuditAttrs() []slog.Attr {
	attrs := op.baseAttrs()
	if op.CalendarID != "" {
		attrs = append(attrs, slog.String("calendar", op.CalendarID))
	}
	if op.EventID != "" {
		attrs = append(attrs, slog.String("event", op.EventID))
	}
	return op.appendTail(attrs, true)
}

func (op *Operation) baseAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("operation", op.Name),
		slog.Duration("duration", op.Duration),
		slog.Bool("success", op.Success),
	}
	if op.ServiceName != "" {
		attrs = append(attrs, slog.String("service", op.ServiceName))
	}
	if op.Kind != "" {
		attrs = append(attrs, slog.String("kind", op.Kind))
	}
	return attrs
}

func (op *Operation) appendTail(attrs []slog.Attr, withSpan bool) []slog.Attr {
	if op.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", op.TraceID))
	}
	if withSpan && op.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", op.SpanID))
	}
	if op.Error != "" {
		attrs = append(attrs, slog.String("error", op.Error))
	}
	return attrs
}

// AuditLogger writes one structured record per completed operation.
// A nil *AuditLogger discards everything.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an enabled AuditLogger that omits PII.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates an AuditLogger from config.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogOperation logs op at info level on success and warn level on failure.
func (al *AuditLogger) LogOperation(ctx context.Context, op *Operation) {
	if al == nil || !al.enabled {
		return
	}

	attrs := op.LogAttrs()
	if al.includePII {
		attrs = op.LogAuditAttrs()
	}

	if op.Success {
		al.logger.LogAttrs(ctx, slog.LevelInfo, "operation_completed", attrs...)
	} else {
		al.logger.LogAttrs(ctx, slog.LevelWarn, "operation_failed", attrs...)
	}
}
