package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/teemow/gcalauth/internal/auth"
	"github.com/teemow/gcalauth/internal/config"
	"github.com/teemow/gcalauth/internal/instrumentation"
	"github.com/teemow/gcalauth/internal/logging"
)

// ErrMissingBearer is returned for calendar requests without an access
// token.
var ErrMissingBearer = errors.New("missing bearer token")

// errorResponse is the JSON body of every error reply.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// badRequest marks client input the handler rejected itself.
type badRequest struct {
	err error
}

func (e *badRequest) Error() string { return e.err.Error() }
func (e *badRequest) Unwrap() error { return e.err }

// statusFor maps an error to its HTTP status and error code.
func statusFor(err error) (int, string) {
	var (
		usageErr    *auth.UsageError
		providerErr *auth.ProviderError
		apiErr      *googleapi.Error
		retrieveErr *oauth2.RetrieveError
		badReq      *badRequest
	)
	switch {
	case config.IsConfigError(err):
		return http.StatusInternalServerError, "configuration_error"
	case errors.As(err, &badReq):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, ErrMissingBearer):
		return http.StatusUnauthorized, "missing_token"
	case errors.As(err, &usageErr):
		return http.StatusBadRequest, "invalid_request"
	case errors.As(err, &providerErr):
		return http.StatusUnauthorized, providerErr.Code
	case errors.As(err, &apiErr):
		if apiErr.Code >= 400 && apiErr.Code < 500 {
			return apiErr.Code, "calendar_api_error"
		}
		return http.StatusBadGateway, "calendar_api_error"
	case errors.As(err, &retrieveErr):
		return http.StatusBadGateway, "token_endpoint_error"
	default:
		return http.StatusBadGateway, "upstream_error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError replies with the status statusFor assigns to err. Details of
// configuration errors are logged, not returned.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if config.IsConfigError(err) {
		msg = "server configuration error"
	}

	level := slog.LevelInfo
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	s.logger.Log(r.Context(), level, "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("trace_id", instrumentation.GetTraceID(r.Context())),
		slog.String("span_id", instrumentation.GetSpanID(r.Context())),
		logging.Err(err))

	writeJSON(w, status, errorResponse{Error: code, Message: msg})
}
