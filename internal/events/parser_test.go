package events

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-github/v58/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	payload, err := json.Marshal(v)
	require.NoError(t, err)
	return payload
}

func testRepo() *github.Repository {
	return &github.Repository{
		FullName: github.String("acme/infra"),
		Name:     github.String("infra"),
		Owner:    &github.User{Login: github.String("acme")},
	}
}

func TestEventParser_ParsePullRequestEvent(t *testing.T) {
	parser := NewEventParser()
	ctx := context.Background()

	payload := marshal(t, &github.PullRequestEvent{
		Action: github.String("synchronize"),
		Number: github.Int(42),
		Repo:   testRepo(),
		Sender: &github.User{Login: github.String("octocat")},
		PullRequest: &github.PullRequest{
			Number: github.Int(42),
			Head:   &github.PullRequestBranch{SHA: github.String("abc123")},
		},
	})

	for _, eventType := range []string{"pull_request", "pull_request_target"} {
		t.Run(eventType, func(t *testing.T) {
			event, err := parser.ParseEvent(ctx, eventType, payload)
			require.NoError(t, err)

			assert.Equal(t, EventType(eventType), event.Type)
			assert.Equal(t, "synchronize", event.Action)
			assert.Equal(t, 42, event.Number)
			assert.Equal(t, "abc123", event.HeadSHA)
			assert.True(t, event.IsPR)
			assert.True(t, event.HasNumber())
		})
	}
}

func TestEventParser_ParseIssueCommentEvent(t *testing.T) {
	parser := NewEventParser()
	ctx := context.Background()

	tests := []struct {
		name   string
		issue  *github.Issue
		wantPR bool
	}{
		{
			name:  "issue comment",
			issue: &github.Issue{Number: github.Int(123)},
		},
		{
			name: "pull request comment",
			issue: &github.Issue{
				Number:           github.Int(124),
				PullRequestLinks: &github.PullRequestLinks{URL: github.String("https://api.github.com/repos/acme/infra/pulls/124")},
			},
			wantPR: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := marshal(t, &github.IssueCommentEvent{
				Action:  github.String("created"),
				Repo:    testRepo(),
				Sender:  &github.User{Login: github.String("octocat")},
				Issue:   tt.issue,
				Comment: &github.IssueComment{Body: github.String("terraform plan please")},
			})

			event, err := parser.ParseEvent(ctx, "issue_comment", payload)
			require.NoError(t, err)
			assert.Equal(t, tt.issue.GetNumber(), event.Number)
			assert.Equal(t, tt.wantPR, event.IsPR)
			assert.Empty(t, event.HeadSHA)
		})
	}
}

func TestEventParser_ParseReviewEvents(t *testing.T) {
	parser := NewEventParser()
	ctx := context.Background()
	pr := &github.PullRequest{
		Number: github.Int(9),
		Head:   &github.PullRequestBranch{SHA: github.String("def456")},
	}

	review, err := parser.ParseEvent(ctx, "pull_request_review", marshal(t, &github.PullRequestReviewEvent{
		Action:      github.String("submitted"),
		PullRequest: pr,
		Review:      &github.PullRequestReview{State: github.String("approved")},
	}))
	require.NoError(t, err)
	assert.Equal(t, 9, review.Number)
	assert.Equal(t, "def456", review.HeadSHA)

	reviewComment, err := parser.ParseEvent(ctx, "pull_request_review_comment", marshal(t, &github.PullRequestReviewCommentEvent{
		Action:      github.String("created"),
		PullRequest: pr,
	}))
	require.NoError(t, err)
	assert.Equal(t, EventPullRequestReviewComment, reviewComment.Type)
	assert.Equal(t, 9, reviewComment.Number)
}

func TestEventParser_ParseIssuesEvent(t *testing.T) {
	event, err := NewEventParser().ParseEvent(context.Background(), "issues", marshal(t, &github.IssuesEvent{
		Action: github.String("opened"),
		Issue:  &github.Issue{Number: github.Int(3)},
	}))
	require.NoError(t, err)
	assert.Equal(t, 3, event.Number)
	assert.False(t, event.IsPR)
}

func TestEventParser_ParsePushEvent(t *testing.T) {
	parser := NewEventParser()
	ctx := context.Background()

	event, err := parser.ParseEvent(ctx, "push", marshal(t, &github.PushEvent{
		Ref:   github.String("refs/heads/feature"),
		After: github.String("0123abcd"),
		Repo:  &github.PushEventRepository{FullName: github.String("acme/infra")},
	}))
	require.NoError(t, err)
	assert.Equal(t, EventPush, event.Type)
	assert.Equal(t, "0123abcd", event.HeadSHA)
	assert.False(t, event.HasNumber())

	event, err = parser.ParseEvent(ctx, "push", marshal(t, &github.PushEvent{
		HeadCommit: &github.HeadCommit{ID: github.String("feedbeef")},
	}))
	require.NoError(t, err)
	assert.Equal(t, "feedbeef", event.HeadSHA)

	_, err = parser.ParseEvent(ctx, "push", []byte(`{"ref":"refs/tags/v1"}`))
	assert.ErrorIs(t, err, ErrMissingHeadCommit)
}

func TestEventParser_Errors(t *testing.T) {
	parser := NewEventParser()
	ctx := context.Background()

	_, err := parser.ParseEvent(ctx, "workflow_dispatch", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnsupportedEventType)

	_, err = parser.ParseEvent(ctx, "pull_request", []byte(`{"action":"opened"}`))
	assert.ErrorIs(t, err, ErrMissingPullRequest)

	_, err = parser.ParseEvent(ctx, "issue_comment", []byte(`{"action":"created"}`))
	assert.ErrorIs(t, err, ErrMissingIssue)

	_, err = parser.ParseEvent(ctx, "issues", []byte(`not json`))
	var eventErr *EventError
	require.True(t, errors.As(err, &eventErr))
	assert.Equal(t, "parse", eventErr.Op)
	assert.Equal(t, "issues", eventErr.EventType)
}

func TestEventParser_ParseEventFile(t *testing.T) {
	parser := NewEventParser()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "event.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"number":7,"pull_request":{"number":7,"head":{"sha":"aaa"}}}`), 0o644))

	event, err := parser.ParseEventFile(ctx, "pull_request", path)
	require.NoError(t, err)
	assert.Equal(t, 7, event.Number)

	_, err = parser.ParseEventFile(ctx, "pull_request", "")
	assert.ErrorIs(t, err, ErrEventNotFound)

	_, err = parser.ParseEventFile(ctx, "pull_request", filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestEventError_Error(t *testing.T) {
	err := NewEventError("validate", "push", ErrMissingHeadCommit, "refs/tags/v1")
	assert.Equal(t, "cannot validate push event payload: payload has no head commit (refs/tags/v1)", err.Error())

	err = NewEventError("read", "", ErrEventNotFound, "")
	assert.Equal(t, "cannot read event payload: event payload not found", err.Error())
}

func TestIsSupportedEventType(t *testing.T) {
	assert.True(t, IsSupportedEventType("pull_request_target"))
	assert.True(t, IsSupportedEventType("push"))
	assert.False(t, IsSupportedEventType("schedule"))
}
