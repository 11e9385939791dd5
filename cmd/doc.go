// Package cmd implements the command-line interface for gcalauth.
//
// This package provides the following commands:
//   - serve: Start the HTTP server exposing the auth and calendar endpoints
//   - auth url|exchange|refresh: Run the OAuth flow from the terminal
//   - calendars, calendar: Read the calendar list or one calendar
//   - events, event: Read events as JSON, YAML or iCalendar
//   - version: Display version information
//
// Settings are read from .env files and the environment; see the config
// package for the keys.
package cmd
