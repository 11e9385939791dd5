package server

import (
	"fmt"
	"net/url"
)

// ValidateRedirectURI checks that the OAuth redirect URI uses HTTPS.
// Plain HTTP is allowed only for loopback hosts (localhost, 127.0.0.1, ::1).
func ValidateRedirectURI(redirectURI string) error {
	if redirectURI == "" {
		return fmt.Errorf("redirect URI cannot be empty")
	}

	u, err := url.Parse(redirectURI)
	if err != nil {
		return fmt.Errorf("invalid redirect URI: %w", err)
	}

	switch u.Scheme {
	case "https":
	case "http":
		host := u.Hostname()
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			return fmt.Errorf("redirect URI must use HTTPS outside of localhost (got: %s)", redirectURI)
		}
	default:
		return fmt.Errorf("invalid redirect URI scheme %q, must be http (localhost only) or https", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("redirect URI %q has no host", redirectURI)
	}
	return nil
}
