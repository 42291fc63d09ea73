package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/qiniu/x/log"

	"github.com/qiniu/tfplan-comment/internal/config"
)

// AuthenticatorBuilder helps build authenticators from configuration
type AuthenticatorBuilder struct {
	config *config.Config
}

// NewAuthenticatorBuilder creates a new authenticator builder
func NewAuthenticatorBuilder(cfg *config.Config) *AuthenticatorBuilder {
	return &AuthenticatorBuilder{config: cfg}
}

// BuildAuthenticator builds an authenticator based on the configuration.
// In auto mode a configured GitHub App wins and the token is kept as fallback.
func (b *AuthenticatorBuilder) BuildAuthenticator() (Authenticator, error) {
	if b.config == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	if err := b.config.ValidateGitHubConfig(); err != nil {
		return nil, fmt.Errorf("invalid GitHub configuration: %w", err)
	}

	switch b.config.GitHub.AuthMode {
	case config.AuthModeToken:
		return b.buildPATAuthenticator()
	case config.AuthModeApp:
		return b.buildAppAuthenticator()
	}

	var primary Authenticator
	if b.config.IsGitHubAppConfigured() {
		appAuth, err := b.buildAppAuthenticator()
		if err == nil {
			primary = appAuth
		} else {
			log.Warnf("GitHub App configuration failed, falling back to token: %v", err)
		}
	}

	if !b.config.IsGitHubTokenConfigured() {
		if primary == nil {
			return nil, fmt.Errorf("no valid GitHub authentication configuration found")
		}
		return primary, nil
	}

	pat, err := b.buildPATAuthenticator()
	if err != nil {
		return nil, err
	}
	if primary == nil {
		return pat, nil
	}
	return NewHybridAuthenticator(primary, pat), nil
}

// buildPATAuthenticator builds a PAT authenticator
func (b *AuthenticatorBuilder) buildPATAuthenticator() (Authenticator, error) {
	if !b.config.IsGitHubTokenConfigured() {
		return nil, fmt.Errorf("GitHub token is not configured")
	}

	return NewPATAuthenticator(b.config.GitHub.Token), nil
}

// buildAppAuthenticator builds a GitHub App authenticator using ghinstallation
func (b *AuthenticatorBuilder) buildAppAuthenticator() (Authenticator, error) {
	appConfig := b.config.GitHub.App

	var transport *ghinstallation.AppsTransport
	var err error

	if appConfig.PrivateKeyPath != "" {
		transport, err = ghinstallation.NewAppsTransportKeyFromFile(http.DefaultTransport, appConfig.AppID, appConfig.PrivateKeyPath)
	} else if appConfig.PrivateKey != "" {
		transport, err = ghinstallation.NewAppsTransport(http.DefaultTransport, appConfig.AppID, []byte(appConfig.PrivateKey))
	} else {
		return nil, fmt.Errorf("no private key source configured")
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub App transport: %w", err)
	}

	return NewGitHubAppAuthenticator(transport, appConfig.AppID, appConfig.InstallationID, b.config.GitHub.APIURL), nil
}

// HybridAuthenticator wraps multiple authenticators and provides fallback behavior
type HybridAuthenticator struct {
	primary  Authenticator
	fallback Authenticator
}

// NewHybridAuthenticator creates a hybrid authenticator with primary and fallback
func NewHybridAuthenticator(primary, fallback Authenticator) *HybridAuthenticator {
	return &HybridAuthenticator{
		primary:  primary,
		fallback: fallback,
	}
}

// HTTPClient tries primary first, then fallback
func (h *HybridAuthenticator) HTTPClient(ctx context.Context, owner, repo string) (*http.Client, error) {
	if h.primary != nil && h.primary.IsConfigured() {
		client, err := h.primary.HTTPClient(ctx, owner, repo)
		if err == nil {
			return client, nil
		}
		log.Warnf("primary authenticator failed: %v", err)
	}

	if h.fallback != nil && h.fallback.IsConfigured() {
		return h.fallback.HTTPClient(ctx, owner, repo)
	}

	return nil, fmt.Errorf("no working authenticator available")
}

// GetAuthInfo returns info from the working authenticator
func (h *HybridAuthenticator) GetAuthInfo() AuthInfo {
	if h.primary != nil && h.primary.IsConfigured() {
		return h.primary.GetAuthInfo()
	}

	if h.fallback != nil && h.fallback.IsConfigured() {
		return h.fallback.GetAuthInfo()
	}

	return AuthInfo{Type: AuthTypeNone}
}

// IsConfigured returns true if at least one authenticator is configured
func (h *HybridAuthenticator) IsConfigured() bool {
	return (h.primary != nil && h.primary.IsConfigured()) ||
		(h.fallback != nil && h.fallback.IsConfigured())
}
