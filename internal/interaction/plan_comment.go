package interaction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	githubapi "github.com/google/go-github/v58/github"
	"github.com/qiniu/x/xlog"
)

// BotUserType is the author type GitHub reports for app and Actions accounts.
const BotUserType = "Bot"

var (
	ErrEmptyMarker   = errors.New("comment marker is empty")
	ErrMissingMarker = errors.New("comment body does not contain its marker")
	ErrInvalidTarget = errors.New("invalid comment target")
)

// GitHubCommentClient GitHub评论客户端接口
type GitHubCommentClient interface {
	ListComments(ctx context.Context, owner, repo string, issueNumber int) ([]*githubapi.IssueComment, error)
	CreateComment(ctx context.Context, owner, repo string, issueNumber int, body string) (*githubapi.IssueComment, error)
	UpdateComment(ctx context.Context, owner, repo string, commentID int64, body string) (*githubapi.IssueComment, error)
}

// Target 评论所在的 issue 或 PR
type Target struct {
	Owner  string
	Repo   string
	Number int
}

func (t Target) String() string {
	return fmt.Sprintf("%s/%s#%d", t.Owner, t.Repo, t.Number)
}

func (t Target) validate() error {
	if t.Owner == "" || t.Repo == "" || t.Number <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTarget, t)
	}
	return nil
}

// UpsertResult 描述一次发布的结果
type UpsertResult struct {
	CommentID int64
	Created   bool
	URL       string
}

// PlanCommentManager keeps one plan comment per marker on a pull request.
// It is not transactional: two runs that list before either creates will
// both create a comment.
type PlanCommentManager struct {
	github GitHubCommentClient
	target Target
	// author 非空时按登录名识别自己的评论，否则只认 Bot 账号
	author string
}

// NewPlanCommentManager 创建计划评论管理器
func NewPlanCommentManager(github GitHubCommentClient, target Target, author string) *PlanCommentManager {
	return &PlanCommentManager{
		github: github,
		target: target,
		author: author,
	}
}

// IsOwnComment reports whether the comment was written by the identity we post as.
func (m *PlanCommentManager) IsOwnComment(comment *githubapi.IssueComment) bool {
	user := comment.GetUser()
	if user == nil {
		return false
	}
	if m.author != "" {
		return strings.EqualFold(user.GetLogin(), m.author)
	}
	return user.GetType() == BotUserType
}

// FindExisting returns the oldest comment of ours that carries the marker, or nil.
func (m *PlanCommentManager) FindExisting(ctx context.Context, marker string) (*githubapi.IssueComment, error) {
	xl := xlog.NewWith(ctx)

	comments, err := m.github.ListComments(ctx, m.target.Owner, m.target.Repo, m.target.Number)
	if err != nil {
		return nil, err
	}
	xl.Debugf("Scanning %d comments on %s for marker", len(comments), m.target)

	for _, c := range comments {
		if m.IsOwnComment(c) && strings.Contains(c.GetBody(), marker) {
			return c, nil
		}
	}
	return nil, nil
}

// Upsert updates the existing comment carrying marker, or creates one.
func (m *PlanCommentManager) Upsert(ctx context.Context, body, marker string) (*UpsertResult, error) {
	xl := xlog.NewWith(ctx)

	if marker == "" {
		return nil, ErrEmptyMarker
	}
	if !strings.Contains(body, marker) {
		return nil, ErrMissingMarker
	}
	if err := m.target.validate(); err != nil {
		return nil, err
	}

	existing, err := m.FindExisting(ctx, marker)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		updated, err := m.github.UpdateComment(ctx, m.target.Owner, m.target.Repo, existing.GetID(), body)
		if err != nil {
			return nil, err
		}
		xl.Infof("Updated plan comment %d on %s", existing.GetID(), m.target)
		return &UpsertResult{
			CommentID: existing.GetID(),
			URL:       firstNonEmpty(updated.GetHTMLURL(), existing.GetHTMLURL()),
		}, nil
	}

	created, err := m.github.CreateComment(ctx, m.target.Owner, m.target.Repo, m.target.Number, body)
	if err != nil {
		return nil, err
	}
	xl.Infof("Created plan comment %d on %s", created.GetID(), m.target)
	return &UpsertResult{
		CommentID: created.GetID(),
		Created:   true,
		URL:       created.GetHTMLURL(),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
