package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRedirectURI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		wantErr bool
	}{
		{name: "https", uri: "https://app.example.com/auth/callback"},
		{name: "https with port", uri: "https://app.example.com:8443/auth/callback"},
		{name: "http localhost", uri: "http://localhost:8080/auth/callback"},
		{name: "http 127.0.0.1", uri: "http://127.0.0.1:8080/auth/callback"},
		{name: "http ipv6 loopback", uri: "http://[::1]:8080/auth/callback"},
		{name: "http remote host", uri: "http://app.example.com/auth/callback", wantErr: true},
		{name: "localhost as subdomain", uri: "http://localhost.example.com/cb", wantErr: true},
		{name: "loopback prefix in domain", uri: "http://127.0.0.1.example.com/cb", wantErr: true},
		{name: "empty", uri: "", wantErr: true},
		{name: "not a url", uri: "not a url", wantErr: true},
		{name: "other scheme", uri: "ftp://example.com", wantErr: true},
		{name: "no host", uri: "https:///callback", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRedirectURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
