// Package config resolves the settings gcalauth needs at runtime.
//
// Settings come from the process environment overlaid on one or more
// dotenv files. A setting that is absent, or that carries the NOTSET
// sentinel, is reported as a *Error naming the missing key so callers can
// tell configuration problems apart from transport failures.
//
// The package also locates the application root directory, against which
// relative paths such as GOOGLE_APPLICATION_CREDENTIALS are resolved.
package config
