// Package calendartest provides a mock Google Calendar API server for
// tests.
//
// The server implements the read endpoints gcalauth uses:
//
//   - GET /users/me/calendarList
//   - GET /calendars/{calendarId}
//   - GET /calendars/{calendarId}/events (maxResults, pageToken, timeMin, timeMax, orderBy=startTime)
//   - GET /calendars/{calendarId}/events/{eventId}
//
// Point a calendar service at it with option.WithEndpoint(server.Endpoint()).
// Missing calendars and events produce the API's notFound error payload.
package calendartest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	calendar "google.golang.org/api/calendar/v3"
)

// Server is a mock Google Calendar API server.
type Server struct {
	*httptest.Server

	mu        sync.RWMutex
	calendars map[string]*calendar.Calendar
	order     []string                     // calendar IDs in insertion order
	events    map[string][]*calendar.Event // calendarID -> events in insertion order
	tokens    map[string]bool
	requests  []*http.Request
}

// NewServer starts a mock Calendar API server.
func NewServer() *Server {
	s := &Server{
		calendars: make(map[string]*calendar.Calendar),
		events:    make(map[string][]*calendar.Event),
		tokens:    make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/me/calendarList", s.listCalendars)
	mux.HandleFunc("GET /calendars/{calendarID}", s.getCalendar)
	mux.HandleFunc("GET /calendars/{calendarID}/events", s.listEvents)
	mux.HandleFunc("GET /calendars/{calendarID}/events/{eventID}", s.getEvent)

	s.Server = httptest.NewServer(s.authorize(mux))
	return s
}

// Endpoint returns the base URL to pass to option.WithEndpoint.
func (s *Server) Endpoint() string {
	return s.URL + "/"
}

// RequireToken restricts access to requests bearing one of the registered
// access tokens. Without registered tokens every request is accepted.
func (s *Server) RequireToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = true
}

// AddCalendar registers a calendar. Calendars are listed in the order they
// were added.
func (s *Server) AddCalendar(cal *calendar.Calendar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.calendars[cal.Id]; !ok {
		s.order = append(s.order, cal.Id)
	}
	s.calendars[cal.Id] = cal
}

// AddEvent appends an event to a calendar, registering the calendar if
// needed.
func (s *Server) AddEvent(calendarID string, ev *calendar.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.calendars[calendarID]; !ok {
		s.calendars[calendarID] = &calendar.Calendar{Id: calendarID, Summary: calendarID}
		s.order = append(s.order, calendarID)
	}
	s.events[calendarID] = append(s.events[calendarID], ev)
}

// Requests returns copies of the requests served so far.
func (s *Server) Requests() []*http.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*http.Request(nil), s.requests...)
}

func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Clone(r.Context()))
		restricted := len(s.tokens) > 0
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		allowed := s.tokens[token]
		s.mu.Unlock()

		if restricted && !allowed {
			writeError(w, http.StatusUnauthorized, "authError", "Invalid Credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listCalendars(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := &calendar.CalendarList{Kind: "calendar#calendarList"}
	for i, id := range s.order {
		cal := s.calendars[id]
		list.Items = append(list.Items, &calendar.CalendarListEntry{
			Id:          cal.Id,
			Summary:     cal.Summary,
			Description: cal.Description,
			TimeZone:    cal.TimeZone,
			Primary:     i == 0,
			AccessRole:  "owner",
		})
	}
	writeJSON(w, list)
}

func (s *Server) getCalendar(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cal, ok := s.calendars[r.PathValue("calendarID")]
	if !ok {
		writeError(w, http.StatusNotFound, "notFound", "Not Found")
		return
	}
	writeJSON(w, cal)
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	calendarID := r.PathValue("calendarID")
	if _, ok := s.calendars[calendarID]; !ok {
		writeError(w, http.StatusNotFound, "notFound", "Not Found")
		return
	}

	q := r.URL.Query()
	timeMin, timeMax := q.Get("timeMin"), q.Get("timeMax")

	var events []*calendar.Event
	for _, ev := range s.events[calendarID] {
		start := startKey(ev)
		if timeMin != "" && start != "" && start < timeMin {
			continue
		}
		if timeMax != "" && start != "" && start >= timeMax {
			continue
		}
		events = append(events, ev)
	}

	if q.Get("orderBy") == "startTime" {
		sort.SliceStable(events, func(i, j int) bool {
			return startKey(events[i]) < startKey(events[j])
		})
	}

	startIdx := 0
	if tok := q.Get("pageToken"); tok != "" {
		n, err := strconv.Atoi(tok)
		if err != nil || n < 0 || n > len(events) {
			writeError(w, http.StatusBadRequest, "invalid", "Invalid page token")
			return
		}
		startIdx = n
	}
	endIdx := len(events)
	if mr := q.Get("maxResults"); mr != "" {
		if n, err := strconv.Atoi(mr); err == nil && n > 0 && startIdx+n < endIdx {
			endIdx = startIdx + n
		}
	}

	resp := &calendar.Events{
		Kind:    "calendar#events",
		Summary: calendarID,
		Items:   events[startIdx:endIdx],
	}
	if endIdx < len(events) {
		resp.NextPageToken = strconv.Itoa(endIdx)
	}
	writeJSON(w, resp)
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	eventID := r.PathValue("eventID")
	for _, ev := range s.events[r.PathValue("calendarID")] {
		if ev.Id == eventID {
			writeJSON(w, ev)
			return
		}
	}
	writeError(w, http.StatusNotFound, "notFound", "Not Found")
}

func startKey(ev *calendar.Event) string {
	if ev.Start == nil {
		return ""
	}
	if ev.Start.DateTime != "" {
		return ev.Start.DateTime
	}
	return ev.Start.Date
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, reason, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":%q,"errors":[{"domain":"global","reason":%q,"message":%q}]}}`,
		code, message, reason, message)
}
