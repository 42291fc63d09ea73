package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v58/github"
	"github.com/qiniu/x/xlog"
)

// GitHubAppAuthenticator implements Authenticator using a GitHub App installation.
// When no installation ID is configured it is looked up from the repository.
type GitHubAppAuthenticator struct {
	transport      *ghinstallation.AppsTransport
	appID          int64
	installationID int64
	apiURL         string
}

// NewGitHubAppAuthenticator creates a new GitHub App authenticator.
// apiURL may be empty for github.com.
func NewGitHubAppAuthenticator(transport *ghinstallation.AppsTransport, appID, installationID int64, apiURL string) *GitHubAppAuthenticator {
	apiURL = strings.TrimSuffix(apiURL, "/")
	if transport != nil && apiURL != "" {
		transport.BaseURL = apiURL
	}
	return &GitHubAppAuthenticator{
		transport:      transport,
		appID:          appID,
		installationID: installationID,
		apiURL:         apiURL,
	}
}

// HTTPClient returns a client authenticated as the installation that covers owner/repo
func (g *GitHubAppAuthenticator) HTTPClient(ctx context.Context, owner, repo string) (*http.Client, error) {
	if !g.IsConfigured() {
		return nil, fmt.Errorf("GitHub App is not configured")
	}

	installationID := g.installationID
	if installationID == 0 {
		id, err := g.findInstallation(ctx, owner, repo)
		if err != nil {
			return nil, err
		}
		installationID = id
	}

	itr := ghinstallation.NewFromAppsTransport(g.transport, installationID)
	if g.apiURL != "" {
		itr.BaseURL = g.apiURL
	}

	return &http.Client{Transport: itr}, nil
}

func (g *GitHubAppAuthenticator) findInstallation(ctx context.Context, owner, repo string) (int64, error) {
	xl := xlog.NewWith(ctx)

	client := github.NewClient(&http.Client{Transport: g.transport})
	if g.apiURL != "" {
		base, err := url.Parse(g.apiURL + "/")
		if err != nil {
			return 0, fmt.Errorf("invalid GitHub API URL %q: %w", g.apiURL, err)
		}
		client.BaseURL = base
	}

	installation, _, err := client.Apps.FindRepositoryInstallation(ctx, owner, repo)
	if err != nil {
		return 0, fmt.Errorf("failed to find GitHub App installation for %s/%s: %w", owner, repo, err)
	}

	xl.Infof("Using GitHub App installation %d for %s/%s", installation.GetID(), owner, repo)
	return installation.GetID(), nil
}

// GetAuthInfo returns authentication information
func (g *GitHubAppAuthenticator) GetAuthInfo() AuthInfo {
	return AuthInfo{
		Type:  AuthTypeApp,
		AppID: g.appID,
	}
}

// IsConfigured returns whether the GitHub App authenticator is properly configured
func (g *GitHubAppAuthenticator) IsConfigured() bool {
	return g.transport != nil && g.appID != 0
}
