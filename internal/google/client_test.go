package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/gcalauth/internal/google/googletest"
)

func newTestClient(t *testing.T, srv *googletest.Server, now time.Time) *Client {
	t.Helper()
	c := NewClient(WithClock(func() time.Time { return now }))
	require.NoError(t, c.SetAuthConfigJSON(srv.CredentialsJSON()))
	c.SetRedirectURI("https://app.example.com/callback")
	return c
}

func TestClient_CreateAuthURL(t *testing.T) {
	srv := googletest.NewServer()
	defer srv.Close()

	c := newTestClient(t, srv, time.Now())
	c.SetScopes(CalendarScopes...)
	c.SetPrompt(PromptConsent)
	c.SetAccessType(AccessTypeOffline)
	c.SetState("xyz")
	c.SetAuthParam("login_hint", "user@example.com")

	raw := c.CreateAuthURL()
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, srv.AuthURL(), u.Scheme+"://"+u.Host+u.Path)
	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "test-client-id.apps.googleusercontent.com", q.Get("client_id"))
	assert.Equal(t, "https://app.example.com/callback", q.Get("redirect_uri"))
	assert.Equal(t, CalendarScopes[0], q.Get("scope"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "xyz", q.Get("state"))
	assert.Equal(t, "user@example.com", q.Get("login_hint"))
}

func TestClient_SetAuthConfigKeepsEarlierSettings(t *testing.T) {
	srv := googletest.NewServer()
	defer srv.Close()

	c := NewClient()
	c.SetScopes("s1")
	c.SetRedirectURI("https://first.example.com")
	require.NoError(t, c.SetAuthConfigJSON(srv.CredentialsJSON()))

	assert.Equal(t, []string{"s1"}, c.Config().Scopes)
	assert.Equal(t, "https://first.example.com", c.Config().RedirectURL)
}

func TestClient_SetAuthConfigRejectsGarbage(t *testing.T) {
	c := NewClient()
	assert.Error(t, c.SetAuthConfigJSON([]byte(`{"nope":true}`)))
	assert.Error(t, c.SetAuthConfig("/does/not/exist.json"))
}

func TestClient_WithOAuthEndpointWinsOverFile(t *testing.T) {
	srv := googletest.NewServer()
	defer srv.Close()

	ep := oauth2.Endpoint{AuthURL: "https://auth.local/auth", TokenURL: "https://auth.local/token"}
	c := NewClient(WithOAuthEndpoint(ep))
	require.NoError(t, c.SetAuthConfigJSON(srv.CredentialsJSON()))
	assert.Equal(t, ep, c.Config().Endpoint)
}

func TestClient_FetchAccessTokenWithAuthCode(t *testing.T) {
	srv := googletest.NewServer()
	defer srv.Close()
	srv.AddCode("good", googletest.TokenResponse{
		AccessToken:  "T1",
		TokenType:    "Bearer",
		ExpiresIn:    3600,
		RefreshToken: "R1",
	})
	srv.AddCode("denied", googletest.ErrorResponse{
		Error:            "access_denied",
		ErrorDescription: "user cancelled",
	})

	now := time.Unix(1000, 0)

	t.Run("success", func(t *testing.T) {
		c := newTestClient(t, srv, now)
		rec, err := c.FetchAccessTokenWithAuthCode(context.Background(), "good")
		require.NoError(t, err)
		assert.False(t, rec.HasError())
		assert.Equal(t, "T1", rec.AccessToken)
		assert.Equal(t, "Bearer", rec.TokenType)
		assert.Equal(t, "R1", rec.RefreshToken)
		assert.Equal(t, int64(1000), rec.Created)
		assert.NotZero(t, rec.ExpiresIn)
		require.NotNil(t, c.Token())
		assert.Equal(t, "T1", c.Token().AccessToken)
	})

	t.Run("embedded error", func(t *testing.T) {
		c := newTestClient(t, srv, now)
		rec, err := c.FetchAccessTokenWithAuthCode(context.Background(), "denied")
		require.NoError(t, err)
		assert.True(t, rec.HasError())
		assert.Equal(t, "access_denied", rec.Error)
		assert.Equal(t, "user cancelled", rec.ErrorDescription)
		assert.Nil(t, c.Token())
	})

	t.Run("unknown code", func(t *testing.T) {
		c := newTestClient(t, srv, now)
		rec, err := c.FetchAccessTokenWithAuthCode(context.Background(), "other")
		require.NoError(t, err)
		assert.Equal(t, "invalid_grant", rec.Error)
	})
}

func TestClient_FetchAccessTokenTransportError(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	c := NewClient(WithOAuthEndpoint(oauth2.Endpoint{
		AuthURL:  broken.URL + "/auth",
		TokenURL: broken.URL + "/token",
	}))
	rec, err := c.FetchAccessTokenWithAuthCode(context.Background(), "code")
	require.Error(t, err)
	assert.Equal(t, TokenRecord{}, rec)
}

func TestClient_FetchAccessTokenWithRefreshToken(t *testing.T) {
	srv := googletest.NewServer()
	defer srv.Close()
	srv.AddRefreshToken("R1", googletest.TokenResponse{
		AccessToken: "T2",
		TokenType:   "Bearer",
		ExpiresIn:   3599,
	})

	c := newTestClient(t, srv, time.Unix(2000, 0))

	_, err := c.FetchAccessTokenWithRefreshToken(context.Background(), "")
	require.Error(t, err, "no refresh token available")

	c.SetRefreshToken("R1")
	rec, err := c.FetchAccessTokenWithRefreshToken(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "T2", rec.AccessToken)
	assert.Equal(t, "R1", rec.RefreshToken, "refresh token is carried over when the provider omits it")
	assert.Equal(t, int64(2000), rec.Created)

	rec, err = c.FetchAccessTokenWithRefreshToken(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Equal(t, "invalid_grant", rec.Error)
}

func TestClient_HTTPClient(t *testing.T) {
	var gotAuth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer api.Close()

	c := NewClient()
	_, err := c.HTTPClient(context.Background())
	require.Error(t, err)

	c.SetAccessToken("T1")
	hc, err := c.HTTPClient(context.Background())
	require.NoError(t, err)

	resp, err := hc.Get(api.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "Bearer T1", gotAuth)
}
