package config

import (
	"errors"
	"fmt"
)

// Reason classifies a configuration failure.
type Reason string

const (
	ReasonMissing Reason = "missing"
	ReasonInvalid Reason = "invalid"
	ReasonPath    Reason = "path"
)

// Error reports a missing or unusable setting.
type Error struct {
	Key    string
	Reason Reason
	Path   string
	Err    error
}

func (e *Error) Error() string {
	switch e.Reason {
	case ReasonMissing:
		return fmt.Sprintf("configuration error: please add a setting for %s", e.Key)
	case ReasonPath:
		if e.Err != nil {
			return fmt.Sprintf("configuration error: unable to locate path for %s at %q: %v", e.Key, e.Path, e.Err)
		}
		return fmt.Sprintf("configuration error: unable to locate path for %s at %q", e.Key, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("configuration error: invalid value for %s: %v", e.Key, e.Err)
		}
		return fmt.Sprintf("configuration error: invalid value for %s", e.Key)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is, or wraps, a *Error.
func IsConfigError(err error) bool {
	var cfgErr *Error
	return errors.As(err, &cfgErr)
}
