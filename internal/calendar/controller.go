package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/teemow/gcalauth/internal/config"
	"github.com/teemow/gcalauth/internal/google"
	"github.com/teemow/gcalauth/internal/instrumentation"
	"github.com/teemow/gcalauth/internal/logging"
)

// Controller proxies read operations to the Calendar API on behalf of the
// holder of an access token.
//
// The controller keeps the service built for the most recent access token
// and rebuilds it only when a call arrives with a different token. It is
// not safe for concurrent use.
type Controller struct {
	settings   config.Settings
	clientOpts []google.ClientOption
	newService ServiceFactory
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
	audit      *instrumentation.AuditLogger

	token   string
	service Service
	local   *time.Location
}

// Option configures a Controller.
type Option func(*Controller)

// WithClientOptions passes options to every *google.Client the controller
// builds.
func WithClientOptions(opts ...google.ClientOption) Option {
	return func(c *Controller) {
		c.clientOpts = append(c.clientOpts, opts...)
	}
}

// WithServiceFactory replaces the Calendar API service constructor.
func WithServiceFactory(f ServiceFactory) Option {
	return func(c *Controller) {
		c.newService = f
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithMetrics enables metric recording.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithAuditLogger records one audit entry per API call.
func WithAuditLogger(al *instrumentation.AuditLogger) Option {
	return func(c *Controller) {
		c.audit = al
	}
}

// NewController creates a calendar controller reading its settings from s.
// GOOGLE_CALENDAR_ENDPOINT, when set, redirects API calls.
func NewController(s config.Settings, opts ...Option) *Controller {
	c := &Controller{
		settings:   s,
		newService: NewService,
		logger:     slog.Default(),
	}
	if ep, err := s.Setting(config.KeyCalendarEndpoint); err == nil {
		c.clientOpts = append(c.clientOpts, google.WithAPIEndpoint(ep))
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize prepares the controller for authToken. The client and service
// are rebuilt only when authToken differs from the token of the previous
// call; refreshToken is attached to a newly built client and otherwise
// ignored.
func (c *Controller) Initialize(ctx context.Context, authToken, refreshToken string) error {
	if c.service != nil && c.token == authToken {
		instrumentation.AddSpanEvent(trace.SpanFromContext(ctx), "calendar.service_reused")
		c.metrics.RecordCalendarServiceLookup(ctx, instrumentation.CacheHit)
		return nil
	}

	ctx, span := instrumentation.StartSpan(ctx, "calendar.initialize",
		instrumentation.NewSpanAttributeBuilder().WithCacheHit(false).Build()...)
	defer span.End()

	local, err := c.localZone()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return err
	}

	client, err := google.NewClientBuilder(c.settings, c.clientOpts...).
		LoadAuthConfigFromFile().
		SetCalendarScope().
		SetAccessToken(authToken).
		SetRefreshToken(refreshToken).
		Make()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return fmt.Errorf("failed to build calendar client: %w", err)
	}

	svc, err := c.newService(ctx, client)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return err
	}

	c.token = authToken
	c.service = svc
	c.local = local
	c.metrics.RecordCalendarServiceLookup(ctx, instrumentation.CacheMiss)
	c.logger.Debug("calendar service built",
		slog.String("access_token", logging.SanitizeToken(authToken)))
	return nil
}

// localZone returns LOCAL_ZONE, or the process zone when unset.
func (c *Controller) localZone() (*time.Location, error) {
	loc, err := config.LocalZone(c.settings)
	if err == nil {
		return loc, nil
	}
	var cerr *config.Error
	if errors.As(err, &cerr) && cerr.Reason == config.ReasonMissing {
		return time.Local, nil
	}
	return nil, err
}

// GetCalendar returns the calendar metadata for calendarID.
func (c *Controller) GetCalendar(ctx context.Context, authToken, calendarID string, opts ...googleapi.CallOption) (*calendar.Calendar, error) {
	if err := c.Initialize(ctx, authToken, ""); err != nil {
		return nil, err
	}

	var cal *calendar.Calendar
	err := c.observe(ctx, "calendar.get_calendar", instrumentation.OperationGet, calendarID, "", func(ctx context.Context) error {
		var err error
		cal, err = c.service.GetCalendar(ctx, calendarID, opts...)
		return err
	})
	return cal, err
}

// GetCalendarList returns the calendars on the authorized account's
// calendar list.
func (c *Controller) GetCalendarList(ctx context.Context, authToken, refreshToken string, opts ...googleapi.CallOption) (*calendar.CalendarList, error) {
	if err := c.Initialize(ctx, authToken, refreshToken); err != nil {
		return nil, err
	}

	var list *calendar.CalendarList
	err := c.observe(ctx, "calendar.get_calendar_list", instrumentation.OperationList, "", "", func(ctx context.Context) error {
		var err error
		list, err = c.service.ListCalendars(ctx, opts...)
		return err
	})
	return list, err
}

// GetEvents returns the events of one result page of calendarID, in the
// order the API returned them. Use googleapi.QueryParameter to pass list
// options such as timeMin, singleEvents or pageToken.
func (c *Controller) GetEvents(ctx context.Context, authToken, refreshToken, calendarID string, opts ...googleapi.CallOption) ([]*Event, error) {
	if err := c.Initialize(ctx, authToken, refreshToken); err != nil {
		return nil, err
	}

	var page *calendar.Events
	err := c.observe(ctx, "calendar.get_events", instrumentation.OperationList, calendarID, "", func(ctx context.Context) error {
		var err error
		page, err = c.service.ListEvents(ctx, calendarID, opts...)
		return err
	})
	if err != nil {
		return nil, err
	}

	events := make([]*Event, 0, len(page.Items))
	for _, item := range page.Items {
		events = append(events, NewEvent(item, c.local))
	}
	return events, nil
}

// GetEvent returns a single event of calendarID.
func (c *Controller) GetEvent(ctx context.Context, authToken, refreshToken, calendarID, eventID string, opts ...googleapi.CallOption) (*Event, error) {
	if err := c.Initialize(ctx, authToken, refreshToken); err != nil {
		return nil, err
	}

	var item *calendar.Event
	err := c.observe(ctx, "calendar.get_event", instrumentation.OperationGet, calendarID, eventID, func(ctx context.Context) error {
		var err error
		item, err = c.service.GetEvent(ctx, calendarID, eventID, opts...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return NewEvent(item, c.local), nil
}

// observe runs call inside a Google API span and records its metrics and
// audit entry.
func (c *Controller) observe(ctx context.Context, name, kind, calendarID, eventID string, call func(context.Context) error) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, kind,
		instrumentation.NewSpanAttributeBuilder().WithCalendar(calendarID, eventID).Build()...)
	defer span.End()

	op := instrumentation.NewOperation(name).
		WithService(instrumentation.ServiceCalendar, kind).
		WithCalendar(calendarID, eventID).
		WithSpanContext(ctx)

	err := call(ctx)
	op.Complete(err)

	if err != nil {
		instrumentation.SetSpanError(span, err)
		attrs := []any{logging.Operation(name), logging.Calendar(calendarID), logging.Err(err)}
		if eventID != "" {
			attrs = append(attrs, logging.Event(eventID))
		}
		c.logger.Warn("calendar API call failed", attrs...)
	} else {
		instrumentation.SetSpanSuccess(span)
	}

	c.metrics.RecordCalendarOperation(ctx, instrumentation.ServiceCalendar, kind, op.Status(), calendarID, op.Duration)
	c.audit.LogOperation(ctx, op)
	return err
}
