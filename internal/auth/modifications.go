package auth

import (
	"github.com/google/uuid"

	"github.com/teemow/gcalauth/internal/google"
)

// OfflineAccess requests a refresh token along with the access token.
func OfflineAccess() Modification {
	return func(c AuthClient) error {
		c.SetAccessType(google.AccessTypeOffline)
		return nil
	}
}

// State sets the state string echoed back on the callback.
func State(state string) Modification {
	return func(c AuthClient) error {
		c.SetState(state)
		return nil
	}
}

// LoginHint pre-fills the account chooser with an email address.
func LoginHint(email string) Modification {
	return func(c AuthClient) error {
		c.SetAuthParam("login_hint", email)
		return nil
	}
}

// Prompt overrides the consent prompt applied by GetAuthURL.
func Prompt(prompt string) Modification {
	return func(c AuthClient) error {
		c.SetPrompt(prompt)
		return nil
	}
}

// NewState returns a random state value.
func NewState() string {
	return uuid.NewString()
}
