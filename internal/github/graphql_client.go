package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/qiniu/x/xlog"
	"github.com/shurcooL/githubv4"
)

// ErrNoPullRequest is returned when a commit is not part of any open pull request.
var ErrNoPullRequest = errors.New("no open pull request found for commit")

// GraphQLClient wraps the GitHub GraphQL API client
type GraphQLClient struct {
	client  *githubv4.Client
	monitor *RateLimitMonitor
}

// NewGraphQLClient creates a GraphQL client on top of an authenticated HTTP client.
// graphqlURL may be empty for github.com.
func NewGraphQLClient(httpClient *http.Client, graphqlURL string, monitor *RateLimitMonitor) *GraphQLClient {
	var client *githubv4.Client
	if graphqlURL == "" || graphqlURL == "https://api.github.com/graphql" {
		client = githubv4.NewClient(httpClient)
	} else {
		client = githubv4.NewEnterpriseClient(graphqlURL, httpClient)
	}

	return &GraphQLClient{
		client:  client,
		monitor: monitor,
	}
}

type associatedPullRequestsQuery struct {
	Repository struct {
		Object struct {
			Commit struct {
				AssociatedPullRequests struct {
					Nodes []struct {
						Number githubv4.Int
						State  githubv4.PullRequestState
					}
				} `graphql:"associatedPullRequests(first: 10)"`
			} `graphql:"... on Commit"`
		} `graphql:"object(oid: $sha)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
	RateLimit struct {
		Limit     githubv4.Int
		Cost      githubv4.Int
		Remaining githubv4.Int
		ResetAt   githubv4.DateTime
	}
}

// FindPullRequestForCommit returns the number of the first open pull request
// that contains the commit.
func (gc *GraphQLClient) FindPullRequestForCommit(ctx context.Context, owner, repo, sha string) (int, error) {
	xl := xlog.NewWith(ctx)

	var query associatedPullRequestsQuery
	variables := map[string]interface{}{
		"owner": githubv4.String(owner),
		"name":  githubv4.String(repo),
		"sha":   githubv4.GitObjectID(sha),
	}

	if err := gc.client.Query(ctx, &query, variables); err != nil {
		return 0, fmt.Errorf("failed to query pull requests for commit %s: %w", sha, err)
	}

	if gc.monitor != nil {
		rl := query.RateLimit
		gc.monitor.RecordGraphQLAPICall(int(rl.Limit), int(rl.Remaining), int(rl.Cost), rl.ResetAt.Time)
	}

	for _, pr := range query.Repository.Object.Commit.AssociatedPullRequests.Nodes {
		if pr.State == githubv4.PullRequestStateOpen {
			xl.Infof("Commit %s belongs to pull request #%d", sha, pr.Number)
			return int(pr.Number), nil
		}
	}

	return 0, fmt.Errorf("%w: %s", ErrNoPullRequest, sha)
}
