package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/teemow/gcalauth/internal/config"
	"github.com/teemow/gcalauth/internal/google"
	"github.com/teemow/gcalauth/internal/instrumentation"
	"github.com/teemow/gcalauth/internal/logging"
)

// AuthClient is the client handle surface the controller drives.
// *google.Client implements it.
type AuthClient interface {
	google.Configurable

	SetAccessType(accessType string)
	SetState(state string)
	SetAuthParam(key, value string)
	CreateAuthURL() string
	FetchAccessTokenWithAuthCode(ctx context.Context, code string) (google.TokenRecord, error)
	FetchAccessTokenWithRefreshToken(ctx context.Context, refreshToken string) (google.TokenRecord, error)
}

// Modification applies ad-hoc configuration to the client right before an
// authorization URL is generated.
type Modification func(AuthClient) error

// Controller drives the authorization code flow for one request/response
// cycle. It holds the most recently exchanged token record and is not safe
// for concurrent use.
type Controller struct {
	settings  config.Settings
	newClient func() AuthClient
	logger    *slog.Logger
	metrics   *instrumentation.Metrics

	modifications []Modification
	record        *google.TokenRecord
	state         string
}

// Option configures a Controller.
type Option func(*Controller)

// WithClientFactory replaces the client constructor.
func WithClientFactory(newClient func() AuthClient) Option {
	return func(c *Controller) {
		c.newClient = newClient
	}
}

// WithClientOptions passes options to every *google.Client the controller
// builds.
func WithClientOptions(opts ...google.ClientOption) Option {
	return func(c *Controller) {
		c.newClient = func() AuthClient {
			return google.NewClient(opts...)
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithMetrics enables metric recording.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// NewController creates an auth controller reading its settings from s.
func NewController(s config.Settings, opts ...Option) *Controller {
	c := &Controller{
		settings: s,
		newClient: func() AuthClient {
			return google.NewClient()
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) builder() *google.Builder[AuthClient] {
	return google.NewBuilder(c.settings, c.newClient).
		LoadAuthConfigFromFile().
		SetCalendarScope().
		SetPrompt(google.PromptConsent).
		LoadRedirectURLFromSettings()
}

// AddAuthModification queues fn to run against the client used by the
// next GetAuthURL call. Modifications run in the order they were added
// and each runs at most once.
func (c *Controller) AddAuthModification(fn Modification) {
	c.modifications = append(c.modifications, fn)
}

// GetAuthURL returns the URL the end user must visit to grant calendar
// access.
func (c *Controller) GetAuthURL(ctx context.Context) (string, error) {
	_, span := instrumentation.StartSpan(ctx, "auth.get_auth_url")
	defer span.End()

	client, err := c.builder().Make()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return "", fmt.Errorf("failed to build auth client: %w", err)
	}

	mods := c.modifications
	c.modifications = nil
	for i, mod := range mods {
		if err := mod(client); err != nil {
			instrumentation.SetSpanError(span, err)
			return "", fmt.Errorf("auth modification %d failed: %w", i+1, err)
		}
	}

	return client.CreateAuthURL(), nil
}

// ParseResponseForTokens exchanges the authorization code carried by the
// provider callback request for a token record and stores it on the
// controller.
//
// A request without a code fails with *UsageError before any client is
// built. An error payload from the provider fails with *ProviderError.
// Transport failures are returned unchanged.
func (c *Controller) ParseResponseForTokens(ctx context.Context, r *http.Request) error {
	const op = "auth.parse_response_for_tokens"
	logger := logging.WithOperation(c.logger, op)

	code := r.FormValue("code")
	if code == "" {
		err := &UsageError{Op: op, Err: ErrNoAuthCode}
		if providerCode := r.FormValue("error"); providerCode != "" {
			err.Err = errors.Join(ErrNoAuthCode, &ProviderError{
				Code:        providerCode,
				Description: r.FormValue("error_description"),
			})
		}
		c.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		return err
	}
	c.state = r.FormValue("state")

	ctx, span := instrumentation.StartSpan(ctx, "auth.exchange_code")
	defer span.End()

	client, err := google.NewBuilder(c.settings, c.newClient).
		LoadAuthConfigFromFile().
		SetCalendarScope().
		LoadRedirectURLFromSettings().
		Make()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return fmt.Errorf("failed to build auth client: %w", err)
	}

	rec, err := client.FetchAccessTokenWithAuthCode(ctx, code)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		logger.Warn("authorization code exchange failed", logging.Err(err))
		return err
	}
	if rec.HasError() {
		perr := &ProviderError{Code: rec.Error, Description: rec.ErrorDescription}
		instrumentation.SetSpanError(span, perr)
		c.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultFailure)
		logger.Warn("provider rejected authorization code", logging.Err(perr))
		return perr
	}

	c.store(rec)
	c.metrics.RecordOAuthAuth(ctx, instrumentation.OAuthResultSuccess)
	logger.Info("authorization code exchanged",
		logging.Status(logging.StatusSuccess),
		slog.String("access_token", logging.SanitizeToken(rec.AccessToken)),
		slog.Bool("has_refresh_token", rec.RefreshToken != ""))
	return nil
}

// RefreshAccessToken exchanges refreshToken for a new access token and
// returns whatever the provider yields. A successful result is stored like
// a code exchange.
func (c *Controller) RefreshAccessToken(ctx context.Context, refreshToken string) (google.TokenRecord, error) {
	const op = "auth.refresh_access_token"
	logger := logging.WithOperation(c.logger, op)

	ctx, span := instrumentation.StartSpan(ctx, op)
	defer span.End()

	client, err := google.NewBuilder(c.settings, c.newClient).
		LoadAuthConfigFromFile().
		SetRefreshToken(refreshToken).
		Make()
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return google.TokenRecord{}, fmt.Errorf("failed to build auth client: %w", err)
	}

	rec, err := client.FetchAccessTokenWithRefreshToken(ctx, refreshToken)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		return google.TokenRecord{}, err
	}
	if rec.HasError() {
		c.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultExpired)
		logger.Warn("provider rejected refresh token",
			slog.String("error_code", rec.Error))
		return rec, &ProviderError{Code: rec.Error, Description: rec.ErrorDescription}
	}

	c.store(rec)
	c.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultSuccess)
	logger.Debug("access token refreshed",
		slog.String("access_token", logging.SanitizeToken(rec.AccessToken)))
	return rec, nil
}

func (c *Controller) store(rec google.TokenRecord) {
	c.record = &rec
}

// GetToken returns the access token of the last stored record, or "".
func (c *Controller) GetToken() string {
	if c.record == nil {
		return ""
	}
	return c.record.AccessToken
}

// GetRefreshToken returns the refresh token of the last stored record,
// or "".
func (c *Controller) GetRefreshToken() string {
	if c.record == nil {
		return ""
	}
	return c.record.RefreshToken
}

// GetLastTokenRecord returns a copy of the last stored record, or nil if
// no exchange has succeeded yet.
func (c *Controller) GetLastTokenRecord() *google.TokenRecord {
	if c.record == nil {
		return nil
	}
	rec := *c.record
	return &rec
}

// GetState returns the state parameter echoed on the last callback.
func (c *Controller) GetState() string {
	return c.state
}
