// Package logging provides structured logging helpers for gcalauth.
//
// All logging goes through log/slog. The helpers here keep attribute names
// consistent and keep credentials and calendar owners out of log output.
//
//	logger := logging.WithOperation(slog.Default(), "calendar.get_events")
//	logger.Info("events listed",
//	    logging.Calendar(calendarID),
//	    logging.Status(logging.StatusSuccess))
//
// Access and refresh tokens must only be logged through SanitizeToken.
package logging
