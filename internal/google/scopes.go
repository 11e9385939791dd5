package google

import (
	calendar "google.golang.org/api/calendar/v3"
)

// CalendarScopes are the scopes requested by SetCalendarScope.
// Full calendar access is requested so the same grant also covers future
// write operations.
var CalendarScopes = []string{
	calendar.CalendarScope,
}

// CalendarReadOnlyScopes can be passed to SetScopes by callers that only
// ever read.
var CalendarReadOnlyScopes = []string{
	calendar.CalendarReadonlyScope,
}

// Prompt values understood by the Google authorization endpoint.
const (
	PromptNone          = "none"
	PromptConsent       = "consent"
	PromptSelectAccount = "select_account"
)

// Access type values.
const (
	AccessTypeOnline  = "online"
	AccessTypeOffline = "offline"
)
