package instrumentation

import "strings"

// Label helpers that keep metric and log cardinality bounded. Calendar IDs
// and request paths carry user identifiers and must not become label values
// as-is.

// ExtractUserDomain returns the domain part of an email-shaped identifier
// such as a primary calendar ID.
//
//	ExtractUserDomain("jane@example.com")                 // "example.com"
//	ExtractUserDomain("abc123@group.calendar.google.com") // "group.calendar.google.com"
//	ExtractUserDomain("primary")                          // "unknown"
func ExtractUserDomain(email string) string {
	if email == "" {
		return "unknown"
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}

	return "unknown"
}

// RouteLabel returns the path label for an HTTP request: the matched
// route pattern without its method prefix, or "unmatched".
//
//	RouteLabel("GET /calendars/{calendarID}") // "/calendars/{calendarID}"
//	RouteLabel("")                            // "unmatched"
func RouteLabel(pattern string) string {
	if pattern == "" {
		return "unmatched"
	}
	if _, path, ok := strings.Cut(pattern, " "); ok {
		return path
	}
	return pattern
}

// Operation types for Google API metrics.
// Status, OAuth, and Service constants are defined in config.go.
const (
	OperationList     = "list"
	OperationGet      = "get"
	OperationExchange = "exchange"
	OperationRefresh  = "refresh"
)
