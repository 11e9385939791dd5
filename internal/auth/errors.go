package auth

import (
	"errors"
	"fmt"
)

// ErrNoAuthCode is wrapped by the UsageError returned when the callback
// request carries no authorization code.
var ErrNoAuthCode = errors.New("no authorization code in request")

// UsageError reports that a controller method was called outside the
// context it requires, e.g. token parsing on a non-callback request.
type UsageError struct {
	Op  string
	Err error
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// ProviderError reports an error payload returned by the OAuth provider in
// place of a token.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("oauth provider returned error %q", e.Code)
	}
	return fmt.Sprintf("oauth provider returned error %q: %s", e.Code, e.Description)
}
