package google

import (
	"time"

	"golang.org/x/oauth2"
)

// TokenRecord is the flat token structure produced by an authorization
// code or refresh token exchange. Error and ErrorDescription are only set
// when the provider answered with an error payload instead of a token.
type TokenRecord struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Created      int64  `json:"created"`

	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// HasError reports whether the provider embedded an error in the record.
func (r TokenRecord) HasError() bool {
	return r.Error != ""
}

// newTokenRecord flattens tok. created is the issue time.
func newTokenRecord(tok *oauth2.Token, created time.Time) TokenRecord {
	rec := TokenRecord{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    tok.ExpiresIn,
		Created:      created.Unix(),
	}
	if rec.ExpiresIn == 0 && !tok.Expiry.IsZero() {
		rec.ExpiresIn = int64(tok.Expiry.Sub(created).Round(time.Second).Seconds())
	}
	return rec
}
