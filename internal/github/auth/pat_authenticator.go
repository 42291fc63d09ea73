package auth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// PATAuthenticator implements Authenticator using a static token
type PATAuthenticator struct {
	token      string
	httpClient *http.Client
}

// NewPATAuthenticator creates a new PAT authenticator
func NewPATAuthenticator(token string) *PATAuthenticator {
	return &PATAuthenticator{
		token: token,
	}
}

// HTTPClient returns an HTTP client that sends the token on every request
func (p *PATAuthenticator) HTTPClient(ctx context.Context, owner, repo string) (*http.Client, error) {
	if p.token == "" {
		return nil, fmt.Errorf("GitHub token is not configured")
	}

	// oauth2 wraps the base client found in the context
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: p.token})
	return oauth2.NewClient(ctx, ts), nil
}

// GetAuthInfo returns authentication information
func (p *PATAuthenticator) GetAuthInfo() AuthInfo {
	return AuthInfo{Type: AuthTypePAT}
}

// IsConfigured returns whether the PAT authenticator is properly configured
func (p *PATAuthenticator) IsConfigured() bool {
	return p.token != ""
}

// SetHTTPClient sets the base HTTP client (useful for testing)
func (p *PATAuthenticator) SetHTTPClient(client *http.Client) {
	p.httpClient = client
}
