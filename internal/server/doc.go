// Package server exposes the auth and calendar controllers over HTTP.
//
// Routes:
//
//	GET  /auth/url                                  authorization URL with offline access and a fresh state
//	GET  /auth/callback                             code exchange, returns the token record
//	POST /auth/refresh                              refresh token exchange
//	GET  /calendars                                 calendar list
//	GET  /calendars/{calendarID}                    calendar metadata
//	GET  /calendars/{calendarID}/events             one page of event records
//	GET  /calendars/{calendarID}/events/{eventID}   one event record
//
// The server is stateless: /auth/callback does not verify the state
// parameter. Callers must keep the state returned by /auth/url and check
// it before forwarding the provider redirect.
//
// Calendar routes read the access token from "Authorization: Bearer" and
// the refresh token from the X-Refresh-Token header. Every controller is
// built per request.
//
// Health endpoints (/healthz, /readyz, /healthz/detailed) are served on
// the main listener; Prometheus metrics are served by a separate
// MetricsServer.
package server
