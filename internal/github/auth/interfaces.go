package auth

import (
	"context"
	"net/http"
)

// AuthType represents the type of authentication being used
type AuthType string

const (
	AuthTypePAT  AuthType = "pat" // Personal Access Token or the workflow GITHUB_TOKEN
	AuthTypeApp  AuthType = "app" // GitHub App
	AuthTypeNone AuthType = "none"
)

// AuthInfo contains information about the current authentication
type AuthInfo struct {
	Type  AuthType `json:"type"`
	AppID int64    `json:"app_id,omitempty"` // GitHub App ID (only for App auth)
}

// Authenticator hands out HTTP clients that are authenticated against GitHub.
// The same client serves the REST and the GraphQL API.
type Authenticator interface {
	// HTTPClient returns a client allowed to act on owner/repo.
	// Token authenticators ignore the repository.
	HTTPClient(ctx context.Context, owner, repo string) (*http.Client, error)

	// GetAuthInfo returns information about the current authentication
	GetAuthInfo() AuthInfo

	// IsConfigured returns whether the authenticator is properly configured
	IsConfigured() bool
}
