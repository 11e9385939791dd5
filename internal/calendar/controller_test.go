package calendar

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/teemow/gcalauth/internal/calendar/calendartest"
	"github.com/teemow/gcalauth/internal/config"
	"github.com/teemow/gcalauth/internal/google"
	"github.com/teemow/gcalauth/internal/google/googletest"
	"github.com/teemow/gcalauth/internal/instrumentation"
)

type fixture struct {
	api      *calendartest.Server
	settings *config.Config
	builds   int
}

func newFixture(t *testing.T, values map[string]string) *fixture {
	t.Helper()
	oauth := googletest.NewServer()
	t.Cleanup(oauth.Close)
	api := calendartest.NewServer()
	t.Cleanup(api.Close)

	root := t.TempDir()
	settings := map[string]string{
		config.KeyCredentials:      oauth.WriteCredentials(t, root, "config/credentials.json"),
		config.KeyCalendarEndpoint: api.Endpoint(),
		config.KeyLocalZone:        "America/Los_Angeles",
	}
	for k, v := range values {
		settings[k] = v
	}
	return &fixture{api: api, settings: config.New(settings, root)}
}

func (f *fixture) controller(opts ...Option) *Controller {
	counting := WithServiceFactory(func(ctx context.Context, c *google.Client) (Service, error) {
		f.builds++
		return NewService(ctx, c)
	})
	return NewController(f.settings, append([]Option{counting}, opts...)...)
}

func TestController_ReusesServiceForSameToken(t *testing.T) {
	f := newFixture(t, nil)
	f.api.AddCalendar(&calendar.Calendar{Id: "primary", Summary: "Me"})
	ctrl := f.controller()
	ctx := context.Background()

	_, err := ctrl.GetCalendarList(ctx, "T1", "R1")
	require.NoError(t, err)
	_, err = ctrl.GetCalendar(ctx, "T1", "primary")
	require.NoError(t, err)
	assert.Equal(t, 1, f.builds)

	_, err = ctrl.GetCalendar(ctx, "T2", "primary")
	require.NoError(t, err)
	assert.Equal(t, 2, f.builds)

	_, err = ctrl.GetCalendar(ctx, "T1", "primary")
	require.NoError(t, err)
	assert.Equal(t, 3, f.builds, "only the last token is remembered")

	reqs := f.api.Requests()
	require.Len(t, reqs, 4)
	assert.Equal(t, "Bearer T1", reqs[0].Header.Get("Authorization"))
	assert.Equal(t, "Bearer T2", reqs[2].Header.Get("Authorization"))
}

func TestController_GetCalendarList(t *testing.T) {
	f := newFixture(t, nil)
	f.api.AddCalendar(&calendar.Calendar{Id: "me@example.com", Summary: "Me"})
	f.api.AddCalendar(&calendar.Calendar{Id: "team@example.com", Summary: "Team"})

	list, err := f.controller().GetCalendarList(context.Background(), "T1", "R1")
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.True(t, list.Items[0].Primary)
	assert.Equal(t, "Team", list.Items[1].Summary)
}

func TestController_GetEvents(t *testing.T) {
	f := newFixture(t, nil)
	f.api.AddEvent("primary", &calendar.Event{
		Id:      "late",
		Summary: "Late",
		Start:   &calendar.EventDateTime{DateTime: "2024-03-01T15:00:00Z"},
	})
	f.api.AddEvent("primary", &calendar.Event{
		Id:      "early",
		Summary: "Early",
		Start:   &calendar.EventDateTime{Date: "2024-03-01"},
	})
	ctrl := f.controller()

	events, err := ctrl.GetEvents(context.Background(), "T1", "R1", "primary")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "late", events[0].ID(), "API order is preserved")
	assert.Equal(t, "early", events[1].ID())

	start, err := events[1].StartTime(nil)
	require.NoError(t, err)
	assert.Equal(t, "America/Los_Angeles", start.Location().String())
	assert.Equal(t, 0, start.Hour())

	events, err = ctrl.GetEvents(context.Background(), "T1", "R1", "primary",
		googleapi.QueryParameter("orderBy", "startTime"),
		googleapi.QueryParameter("singleEvents", "true"),
		googleapi.QueryParameter("maxResults", "1"))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "early", events[0].ID())

	reqs := f.api.Requests()
	q := reqs[len(reqs)-1].URL.Query()
	assert.Equal(t, "1", q.Get("maxResults"))
	assert.Equal(t, "true", q.Get("singleEvents"))
}

func TestController_GetEvent(t *testing.T) {
	f := newFixture(t, nil)
	f.api.AddEvent("team@example.com", &calendar.Event{Id: "e1", Summary: "Review"})
	ctrl := f.controller()
	ctx := context.Background()

	ev, err := ctrl.GetEvent(ctx, "T1", "", "team@example.com", "e1")
	require.NoError(t, err)
	assert.Equal(t, "Review", ev.Name())

	_, err = ev.StartTime(nil)
	assert.ErrorIs(t, err, ErrNoDate)

	_, err = ctrl.GetEvent(ctx, "T1", "", "team@example.com", "missing")
	var apiErr *googleapi.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Code)
}

func TestController_FailedEventLookupIsLogged(t *testing.T) {
	f := newFixture(t, nil)
	f.api.AddCalendar(&calendar.Calendar{Id: "primary"})

	var logs bytes.Buffer
	ctrl := f.controller(WithLogger(slog.New(slog.NewJSONHandler(&logs, nil))))

	_, err := ctrl.GetEvent(context.Background(), "T1", "", "primary", "e404")
	require.Error(t, err)

	assert.Contains(t, logs.String(), `"event":"e404"`)
	assert.Contains(t, logs.String(), `"calendar":"primary"`)
}

func TestController_ReuseAddsSpanEvent(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	f := newFixture(t, nil)
	ctrl := f.controller()

	ctx, span := tp.Tracer("test").Start(context.Background(), "request")
	require.NoError(t, ctrl.Initialize(ctx, "T1", ""))
	require.NoError(t, ctrl.Initialize(ctx, "T1", ""))
	span.End()

	var request sdktrace.ReadOnlySpan
	for _, s := range sr.Ended() {
		if s.Name() == "request" {
			request = s
		}
	}
	require.NotNil(t, request)
	require.Len(t, request.Events(), 1)
	assert.Equal(t, "calendar.service_reused", request.Events()[0].Name)
	assert.Equal(t, 1, f.builds)
}

func TestController_APIErrors(t *testing.T) {
	f := newFixture(t, nil)
	f.api.RequireToken("good")
	f.api.AddCalendar(&calendar.Calendar{Id: "primary"})
	ctrl := f.controller()
	ctx := context.Background()

	_, err := ctrl.GetCalendar(ctx, "bad", "primary")
	var apiErr *googleapi.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Code)

	_, err = ctrl.GetCalendar(ctx, "good", "nope")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Code)

	_, err = ctrl.GetEvents(ctx, "good", "", "nope")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Code)
}

func TestController_InitializeErrors(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		reason config.Reason
	}{
		{
			name:   "invalid local zone",
			values: map[string]string{config.KeyLocalZone: "Nowhere/Land"},
			reason: config.ReasonInvalid,
		},
		{
			name:   "credentials file missing",
			values: map[string]string{config.KeyCredentials: "config/other.json"},
			reason: config.ReasonPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.values)
			ctrl := f.controller()

			_, err := ctrl.GetCalendarList(context.Background(), "T1", "")
			var cerr *config.Error
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.reason, cerr.Reason)
			assert.Zero(t, f.builds)
			assert.Empty(t, f.api.Requests())
		})
	}
}

func TestController_MissingLocalZoneUsesProcessZone(t *testing.T) {
	f := newFixture(t, nil)
	f.settings = config.New(map[string]string{
		config.KeyCredentials:      "config/credentials.json",
		config.KeyCalendarEndpoint: f.api.Endpoint(),
	}, mustRoot(t, f.settings))
	f.api.AddEvent("primary", &calendar.Event{Id: "e1", Start: &calendar.EventDateTime{Date: "2024-03-01"}})

	ev, err := f.controller().GetEvent(context.Background(), "T1", "", "primary", "e1")
	require.NoError(t, err)
	start, err := ev.StartTime(nil)
	require.NoError(t, err)
	assert.Equal(t, "Local", start.Location().String())
}

func mustRoot(t *testing.T, s *config.Config) string {
	t.Helper()
	root, err := s.RootDir()
	require.NoError(t, err)
	return root
}

func TestController_ServiceFactoryError(t *testing.T) {
	f := newFixture(t, nil)
	boom := errors.New("boom")
	ctrl := NewController(f.settings, WithServiceFactory(func(context.Context, *google.Client) (Service, error) {
		return nil, boom
	}))

	_, err := ctrl.GetCalendarList(context.Background(), "T1", "")
	assert.ErrorIs(t, err, boom)
}

func TestController_Observability(t *testing.T) {
	f := newFixture(t, nil)
	f.api.AddCalendar(&calendar.Calendar{Id: "primary"})

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := instrumentation.NewMetrics(mp.Meter("test"), false)
	require.NoError(t, err)

	var logs bytes.Buffer
	audit := instrumentation.NewAuditLogger(slog.New(slog.NewJSONHandler(&logs, nil)))

	ctrl := f.controller(WithMetrics(metrics), WithAuditLogger(audit))
	ctx := context.Background()
	_, err = ctrl.GetCalendar(ctx, "T1", "primary")
	require.NoError(t, err)
	_, err = ctrl.GetCalendar(ctx, "T1", "primary")
	require.NoError(t, err)
	_, err = ctrl.GetCalendar(ctx, "T1", "missing")
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	lookups := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "calendar_service_builds_total" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				v, _ := dp.Attributes.Value(attribute.Key("cache"))
				lookups[v.AsString()] = dp.Value
			}
		}
	}
	assert.Equal(t, int64(1), lookups[instrumentation.CacheMiss])
	assert.Equal(t, int64(2), lookups[instrumentation.CacheHit])

	assert.Equal(t, 2, bytes.Count(logs.Bytes(), []byte("operation_completed")))
	assert.Equal(t, 1, bytes.Count(logs.Bytes(), []byte("operation_failed")))
}
