// Package google provides the OAuth2 client handle and the deferred
// configuration builder used to talk to Google APIs.
//
// A Builder collects configuration steps (scopes, redirect URL, auth
// config file, tokens, prompt) without touching any client. Make creates a
// fresh client and applies every step in the order it was added, so
// callers can compose configuration conditionally and defer failures such
// as missing settings to a single point.
//
// The Client type wraps golang.org/x/oauth2 and exposes the operations the
// controllers need: authorization URL construction, code exchange, refresh
// exchange and an authenticated HTTP client for the Calendar API.
package google
