package github

import (
	"context"
	"fmt"

	"github.com/qiniu/x/log"

	"github.com/qiniu/tfplan-comment/internal/config"
	"github.com/qiniu/tfplan-comment/internal/github/auth"
)

// ClientManager builds REST and GraphQL clients from configuration
type ClientManager struct {
	config        *config.Config
	authenticator auth.Authenticator
	monitor       *RateLimitMonitor
}

// NewClientManager creates a client manager with the configured authentication
func NewClientManager(cfg *config.Config) (*ClientManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	authenticator, err := auth.NewAuthenticatorBuilder(cfg).BuildAuthenticator()
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}

	return NewClientManagerWithAuthenticator(cfg, authenticator), nil
}

// NewClientManagerWithAuthenticator creates a client manager around an existing authenticator
func NewClientManagerWithAuthenticator(cfg *config.Config, authenticator auth.Authenticator) *ClientManager {
	return &ClientManager{
		config:        cfg,
		authenticator: authenticator,
		monitor:       NewRateLimitMonitor(cfg.GitHub.EnableRateMonitoring, DefaultRateLimitThreshold),
	}
}

// Clients returns the REST and GraphQL clients allowed to act on owner/repo
func (m *ClientManager) Clients(ctx context.Context, owner, repo string) (*Client, *GraphQLClient, error) {
	authInfo := m.authenticator.GetAuthInfo()
	log.Infof("Using GitHub authentication: type=%s", authInfo.Type)

	httpClient, err := m.authenticator.HTTPClient(ctx, owner, repo)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to authenticate for %s/%s: %w", owner, repo, err)
	}

	rest, err := NewClient(httpClient, m.config.GitHub.APIURL, m.monitor)
	if err != nil {
		return nil, nil, err
	}

	return rest, NewGraphQLClient(httpClient, m.config.GitHub.GraphQLURL, m.monitor), nil
}

// Monitor returns the rate limit monitor shared by all clients
func (m *ClientManager) Monitor() *RateLimitMonitor {
	return m.monitor
}
