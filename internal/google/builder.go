package google

import (
	"fmt"

	"github.com/teemow/gcalauth/internal/config"
)

// Step applies one deferred setting to a client handle.
type Step[C any] func(C) error

// Builder accumulates configuration steps and applies them, in insertion
// order, to a freshly constructed client on every Make call.
//
// Steps are never removed. Calling Make twice on the same builder applies
// the full sequence again to a second, independent client.
type Builder[C Configurable] struct {
	settings  config.Settings
	newClient func() C
	steps     []Step[C]
}

// NewBuilder creates a builder for any Configurable client type.
func NewBuilder[C Configurable](settings config.Settings, newClient func() C) *Builder[C] {
	return &Builder[C]{
		settings:  settings,
		newClient: newClient,
	}
}

// NewClientBuilder creates a builder producing *Client handles.
func NewClientBuilder(settings config.Settings, opts ...ClientOption) *Builder[*Client] {
	return NewBuilder(settings, func() *Client {
		return NewClient(opts...)
	})
}

// Add enqueues an arbitrary step.
func (b *Builder[C]) Add(step Step[C]) *Builder[C] {
	b.steps = append(b.steps, step)
	return b
}

// Len returns the number of enqueued steps.
func (b *Builder[C]) Len() int {
	return len(b.steps)
}

// SetCalendarScope requests CalendarScopes.
func (b *Builder[C]) SetCalendarScope() *Builder[C] {
	return b.SetScopes(CalendarScopes...)
}

// SetScopes requests the given scopes.
func (b *Builder[C]) SetScopes(scopes ...string) *Builder[C] {
	scopes = append([]string(nil), scopes...)
	return b.Add(func(c C) error {
		c.SetScopes(scopes...)
		return nil
	})
}

// SetRedirectURL sets the OAuth callback URL.
func (b *Builder[C]) SetRedirectURL(url string) *Builder[C] {
	return b.Add(func(c C) error {
		c.SetRedirectURI(url)
		return nil
	})
}

// LoadRedirectURLFromSettings sets the callback URL from
// GOOGLE_REDIRECT_URI. The setting is read when the step is applied.
func (b *Builder[C]) LoadRedirectURLFromSettings() *Builder[C] {
	return b.Add(func(c C) error {
		url, err := b.settings.Setting(config.KeyRedirectURI)
		if err != nil {
			return err
		}
		c.SetRedirectURI(url)
		return nil
	})
}

// SetPrompt sets the authorization prompt type.
func (b *Builder[C]) SetPrompt(prompt string) *Builder[C] {
	return b.Add(func(c C) error {
		c.SetPrompt(prompt)
		return nil
	})
}

// SetAccessToken sets the access token.
func (b *Builder[C]) SetAccessToken(token string) *Builder[C] {
	return b.Add(func(c C) error {
		c.SetAccessToken(token)
		return nil
	})
}

// SetRefreshToken sets the refresh token.
func (b *Builder[C]) SetRefreshToken(token string) *Builder[C] {
	return b.Add(func(c C) error {
		c.SetRefreshToken(token)
		return nil
	})
}

// LoadAuthConfigFromFile loads client credentials from the file named by
// GOOGLE_APPLICATION_CREDENTIALS, resolved against the root directory.
func (b *Builder[C]) LoadAuthConfigFromFile() *Builder[C] {
	return b.Add(func(c C) error {
		rel, err := b.settings.Setting(config.KeyCredentials)
		if err != nil {
			return err
		}
		path, err := config.ResolvePath(b.settings, config.KeyCredentials, rel)
		if err != nil {
			return err
		}
		return c.SetAuthConfig(path)
	})
}

// Make constructs a new client and applies every step in order. The first
// failing step aborts the build.
func (b *Builder[C]) Make() (C, error) {
	c := b.newClient()
	for i, step := range b.steps {
		if err := step(c); err != nil {
			var zero C
			return zero, fmt.Errorf("failed to apply client configuration step %d: %w", i+1, err)
		}
	}
	return c, nil
}
