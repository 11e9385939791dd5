package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Configurable is the set of settings a Builder step may apply to a
// client handle.
type Configurable interface {
	SetAuthConfig(path string) error
	SetScopes(scopes ...string)
	SetRedirectURI(uri string)
	SetPrompt(prompt string)
	SetAccessToken(token string)
	SetRefreshToken(token string)
}

// Client is an OAuth2 client handle for Google APIs. It is not safe for
// concurrent mutation; builders create one per Make call.
type Client struct {
	config      *oauth2.Config
	token       *oauth2.Token
	prompt      string
	accessType  string
	state       string
	authParams  map[string]string
	apiEndpoint string

	endpointOverride *oauth2.Endpoint
	httpClient       *http.Client
	now              func() time.Time
}

// ClientOption configures a Client at construction.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for token exchanges and as the
// base transport of authenticated API clients.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithOAuthEndpoint overrides the authorization and token URLs, including
// any read from an auth config file.
func WithOAuthEndpoint(ep oauth2.Endpoint) ClientOption {
	return func(c *Client) {
		c.endpointOverride = &ep
		c.config.Endpoint = ep
	}
}

// WithAPIEndpoint points API services built from this client at a
// different base URL, e.g. a local emulator.
func WithAPIEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.apiEndpoint = endpoint
	}
}

// WithClock replaces time.Now for token record timestamps.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates an unconfigured client targeting Google's OAuth
// endpoints.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		config:     &oauth2.Config{Endpoint: google.Endpoint},
		authParams: make(map[string]string),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetAuthConfig loads client credentials from a Google OAuth client JSON
// file ("web" or "installed"). Scopes and redirect URL already set on the
// client are kept.
func (c *Client) SetAuthConfig(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("unable to read auth config file: %w", err)
	}
	return c.SetAuthConfigJSON(b)
}

// SetAuthConfigJSON is SetAuthConfig for in-memory credentials.
func (c *Client) SetAuthConfigJSON(b []byte) error {
	conf, err := google.ConfigFromJSON(b, c.config.Scopes...)
	if err != nil {
		return fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	if c.config.RedirectURL != "" {
		conf.RedirectURL = c.config.RedirectURL
	}
	if c.endpointOverride != nil {
		conf.Endpoint = *c.endpointOverride
	}
	c.config = conf
	return nil
}

// SetScopes replaces the requested scopes.
func (c *Client) SetScopes(scopes ...string) {
	c.config.Scopes = append([]string(nil), scopes...)
}

// SetRedirectURI sets the OAuth callback URL.
func (c *Client) SetRedirectURI(uri string) {
	c.config.RedirectURL = uri
}

// SetPrompt sets the prompt parameter sent with the authorization URL.
func (c *Client) SetPrompt(prompt string) {
	c.prompt = prompt
}

// SetAccessType sets the access_type parameter ("online" or "offline").
func (c *Client) SetAccessType(accessType string) {
	c.accessType = accessType
}

// SetState sets the opaque state echoed back on the callback.
func (c *Client) SetState(state string) {
	c.state = state
}

// SetAuthParam adds an arbitrary parameter to the authorization URL.
func (c *Client) SetAuthParam(key, value string) {
	c.authParams[key] = value
}

// SetAccessToken sets the bearer token used by authenticated requests.
func (c *Client) SetAccessToken(token string) {
	c.ensureToken().AccessToken = token
}

// SetRefreshToken records the refresh token alongside the access token.
// No exchange happens until FetchAccessTokenWithRefreshToken is called.
func (c *Client) SetRefreshToken(token string) {
	c.ensureToken().RefreshToken = token
}

func (c *Client) ensureToken() *oauth2.Token {
	if c.token == nil {
		c.token = &oauth2.Token{TokenType: "Bearer"}
	}
	return c.token
}

// Config returns the underlying OAuth2 configuration.
func (c *Client) Config() *oauth2.Config {
	return c.config
}

// Token returns the current token, or nil if none has been set.
func (c *Client) Token() *oauth2.Token {
	return c.token
}

// Prompt returns the configured prompt.
func (c *Client) Prompt() string {
	return c.prompt
}

// State returns the configured state.
func (c *Client) State() string {
	return c.state
}

// APIEndpoint returns the API base URL override, or "" for the default.
func (c *Client) APIEndpoint() string {
	return c.apiEndpoint
}

// CreateAuthURL returns the provider URL the end user must visit to grant
// access.
func (c *Client) CreateAuthURL() string {
	var opts []oauth2.AuthCodeOption
	switch c.accessType {
	case "":
	case AccessTypeOffline:
		opts = append(opts, oauth2.AccessTypeOffline)
	default:
		opts = append(opts, oauth2.SetAuthURLParam("access_type", c.accessType))
	}
	if c.prompt != "" {
		opts = append(opts, oauth2.SetAuthURLParam("prompt", c.prompt))
	}
	for k, v := range c.authParams {
		opts = append(opts, oauth2.SetAuthURLParam(k, v))
	}
	return c.config.AuthCodeURL(c.state, opts...)
}

// FetchAccessTokenWithAuthCode exchanges an authorization code for a
// token. When the provider answers with an OAuth error payload the error
// is embedded in the returned record and err is nil; transport failures
// are returned unchanged.
func (c *Client) FetchAccessTokenWithAuthCode(ctx context.Context, code string) (TokenRecord, error) {
	tok, err := c.config.Exchange(c.exchangeContext(ctx), code)
	if err != nil {
		return providerErrorRecord(err)
	}
	c.token = tok
	return newTokenRecord(tok, c.now()), nil
}

// FetchAccessTokenWithRefreshToken exchanges a refresh token for a new
// access token. An empty refreshToken falls back to the one already set
// on the client. Error handling matches FetchAccessTokenWithAuthCode.
func (c *Client) FetchAccessTokenWithRefreshToken(ctx context.Context, refreshToken string) (TokenRecord, error) {
	if refreshToken == "" && c.token != nil {
		refreshToken = c.token.RefreshToken
	}
	if refreshToken == "" {
		return TokenRecord{}, errors.New("refresh token must be set")
	}

	// A token without an access token is always invalid, which forces the
	// token source to refresh.
	ts := c.config.TokenSource(c.exchangeContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := ts.Token()
	if err != nil {
		return providerErrorRecord(err)
	}
	c.token = tok
	return newTokenRecord(tok, c.now()), nil
}

func providerErrorRecord(err error) (TokenRecord, error) {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) && rErr.ErrorCode != "" {
		return TokenRecord{
			Error:            rErr.ErrorCode,
			ErrorDescription: rErr.ErrorDescription,
		}, nil
	}
	return TokenRecord{}, err
}

// HTTPClient returns an HTTP client that authenticates requests with the
// client's token. The token is used as-is; it is only refreshed if it
// carries an expiry that has passed and a refresh token.
func (c *Client) HTTPClient(ctx context.Context) (*http.Client, error) {
	if c.token == nil || c.token.AccessToken == "" {
		return nil, errors.New("access token must be set")
	}
	return c.config.Client(c.exchangeContext(ctx), c.token), nil
}

// exchangeContext injects the base HTTP client used by oauth2. By default
// HTTP/2 is disabled to avoid stream errors seen against Google APIs.
func (c *Client) exchangeContext(ctx context.Context) context.Context {
	hc := c.httpClient
	if hc == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.ForceAttemptHTTP2 = false
		hc = &http.Client{Transport: transport}
	}
	return context.WithValue(ctx, oauth2.HTTPClient, hc)
}
