// Package auth implements the OAuth2 authorization code flow against
// Google for calendar access.
//
// A Controller produces the authorization URL the end user is sent to and,
// once the provider redirects back, exchanges the authorization code for a
// token record. The record lives on the controller only for the current
// request; callers persist it themselves.
//
// Example usage:
//
//	ctrl := auth.NewController(cfg)
//	ctrl.AddAuthModification(auth.OfflineAccess())
//	url, err := ctrl.GetAuthURL(ctx)
//
//	// in the callback handler
//	if err := ctrl.ParseResponseForTokens(ctx, r); err != nil {
//	    ...
//	}
//	token := ctrl.GetToken()
package auth
