package calendar

import (
	"context"
	"fmt"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/gcalauth/internal/google"
)

// Service is the subset of the Calendar API the controller reads from.
type Service interface {
	GetCalendar(ctx context.Context, calendarID string, opts ...googleapi.CallOption) (*calendar.Calendar, error)
	ListCalendars(ctx context.Context, opts ...googleapi.CallOption) (*calendar.CalendarList, error)
	ListEvents(ctx context.Context, calendarID string, opts ...googleapi.CallOption) (*calendar.Events, error)
	GetEvent(ctx context.Context, calendarID, eventID string, opts ...googleapi.CallOption) (*calendar.Event, error)
}

// ServiceFactory builds a Service from an authenticated client.
type ServiceFactory func(ctx context.Context, client *google.Client) (Service, error)

type apiService struct {
	svc *calendar.Service
}

// NewService builds a Service backed by the Google Calendar API, using the
// client's token for authentication and its API endpoint override, if any.
func NewService(ctx context.Context, client *google.Client) (Service, error) {
	hc, err := client.HTTPClient(ctx)
	if err != nil {
		return nil, err
	}

	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if ep := client.APIEndpoint(); ep != "" {
		opts = append(opts, option.WithEndpoint(ep))
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return &apiService{svc: svc}, nil
}

func (s *apiService) GetCalendar(ctx context.Context, calendarID string, opts ...googleapi.CallOption) (*calendar.Calendar, error) {
	return s.svc.Calendars.Get(calendarID).Context(ctx).Do(opts...)
}

func (s *apiService) ListCalendars(ctx context.Context, opts ...googleapi.CallOption) (*calendar.CalendarList, error) {
	return s.svc.CalendarList.List().Context(ctx).Do(opts...)
}

func (s *apiService) ListEvents(ctx context.Context, calendarID string, opts ...googleapi.CallOption) (*calendar.Events, error) {
	return s.svc.Events.List(calendarID).Context(ctx).Do(opts...)
}

func (s *apiService) GetEvent(ctx context.Context, calendarID, eventID string, opts ...googleapi.CallOption) (*calendar.Event, error) {
	return s.svc.Events.Get(calendarID, eventID).Context(ctx).Do(opts...)
}
