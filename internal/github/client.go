package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v58/github"
	"github.com/qiniu/x/xlog"
)

// CommentsPerPage is the page size used when listing issue comments.
const CommentsPerPage = 100

// maxCommentPages stops pagination on runaway responses.
const maxCommentPages = 1000

// Client wraps the go-github REST client with the issue comment calls we need.
type Client struct {
	client  *github.Client
	monitor *RateLimitMonitor
}

// NewClient creates a REST client on top of an authenticated HTTP client.
// apiURL may be empty for github.com; monitor may be nil.
func NewClient(httpClient *http.Client, apiURL string, monitor *RateLimitMonitor) (*Client, error) {
	client := github.NewClient(httpClient)
	if apiURL != "" && apiURL != "https://api.github.com" {
		base, err := url.Parse(strings.TrimSuffix(apiURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", apiURL, err)
		}
		client.BaseURL = base
		client.UploadURL = base
	}

	return &Client{
		client:  client,
		monitor: monitor,
	}, nil
}

// ListComments returns every comment on an issue or pull request, oldest first.
func (c *Client) ListComments(ctx context.Context, owner, repo string, issueNumber int) ([]*github.IssueComment, error) {
	xl := xlog.NewWith(ctx)

	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: CommentsPerPage},
	}

	var all []*github.IssueComment
	for page := 1; page <= maxCommentPages; page++ {
		comments, resp, err := c.client.Issues.ListComments(ctx, owner, repo, issueNumber, opts)
		c.record(resp)
		if err != nil {
			return nil, fmt.Errorf("failed to list comments (page %d): %w", page, err)
		}
		all = append(all, comments...)

		xl.Debugf("Retrieved comments page %d: %d comments", page, len(comments))

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return all, nil
}

// CreateComment posts a new comment on an issue or pull request.
func (c *Client) CreateComment(ctx context.Context, owner, repo string, issueNumber int, body string) (*github.IssueComment, error) {
	comment, resp, err := c.client.Issues.CreateComment(ctx, owner, repo, issueNumber, &github.IssueComment{
		Body: github.String(body),
	})
	c.record(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return comment, nil
}

// UpdateComment replaces the body of an existing comment.
func (c *Client) UpdateComment(ctx context.Context, owner, repo string, commentID int64, body string) (*github.IssueComment, error) {
	comment, resp, err := c.client.Issues.EditComment(ctx, owner, repo, commentID, &github.IssueComment{
		Body: github.String(body),
	})
	c.record(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to update comment %d: %w", commentID, err)
	}
	return comment, nil
}

func (c *Client) record(resp *github.Response) {
	if c.monitor == nil || resp == nil {
		return
	}
	c.monitor.RecordRESTAPICall(resp.Rate.Limit, resp.Rate.Remaining, resp.Rate.Reset.Time)
}
