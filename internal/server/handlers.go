package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/teemow/gcalauth/internal/auth"
	"github.com/teemow/gcalauth/internal/calendar"
)

// RefreshTokenHeader carries the refresh token on calendar requests.
const RefreshTokenHeader = "X-Refresh-Token"

type authURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

type eventsResponse struct {
	CalendarID string            `json:"calendar_id"`
	Items      []calendar.Record `json:"items"`
}

// handleAuthURL returns a fresh state with the URL. The server keeps no
// session, so the caller stores the state and compares it with the one
// echoed to the callback.
func (s *Server) handleAuthURL(w http.ResponseWriter, r *http.Request) {
	ctrl := s.authController()
	state := auth.NewState()
	ctrl.AddAuthModification(auth.OfflineAccess())
	ctrl.AddAuthModification(auth.State(state))
	if hint := r.URL.Query().Get("login_hint"); hint != "" {
		ctrl.AddAuthModification(auth.LoginHint(hint))
	}

	u, err := ctrl.GetAuthURL(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authURLResponse{URL: u, State: state})
}

// handleAuthCallback exchanges the code without checking state.
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctrl := s.authController()
	if err := ctrl.ParseResponseForTokens(r.Context(), r); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ctrl.GetLastTokenRecord())
}

func (s *Server) handleAuthRefresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := r.FormValue("refresh_token")
	if refreshToken == "" {
		s.writeError(w, r, &badRequest{fmt.Errorf("refresh_token is required")})
		return
	}

	rec, err := s.authController().RefreshAccessToken(r.Context(), refreshToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCalendarList(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	list, err := s.calendarController().GetCalendarList(r.Context(), token, r.Header.Get(RefreshTokenHeader), callOptions(r)...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	cal, err := s.calendarController().GetCalendar(r.Context(), token, r.PathValue("calendarID"), callOptions(r)...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	zone, err := outputZone(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	calendarID := r.PathValue("calendarID")
	events, err := s.calendarController().GetEvents(r.Context(), token, r.Header.Get(RefreshTokenHeader), calendarID, callOptions(r)...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	records, err := calendar.Records(events, zone)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eventsResponse{CalendarID: calendarID, Items: records})
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	zone, err := outputZone(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ev, err := s.calendarController().GetEvent(r.Context(), token, r.Header.Get(RefreshTokenHeader),
		r.PathValue("calendarID"), r.PathValue("eventID"), callOptions(r)...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := ev.Record(zone)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func bearerToken(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMissingBearer
	}
	return strings.TrimSpace(token), nil
}

// outputZone reads the optional zone query parameter.
func outputZone(r *http.Request) (*time.Location, error) {
	name := r.URL.Query().Get("zone")
	if name == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &badRequest{fmt.Errorf("invalid zone %q: %w", name, err)}
	}
	return loc, nil
}

// callOptions forwards the query string, minus server parameters, to the
// Calendar API.
func callOptions(r *http.Request) []googleapi.CallOption {
	var opts []googleapi.CallOption
	for key, values := range r.URL.Query() {
		if key == "zone" {
			continue
		}
		opts = append(opts, googleapi.QueryParameter(key, values...))
	}
	return opts
}
