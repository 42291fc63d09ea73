package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/go-github/v58/github"
	"github.com/qiniu/x/xlog"
)

// EventType is the workflow trigger name found in GITHUB_EVENT_NAME.
type EventType string

const (
	EventPullRequest              EventType = "pull_request"
	EventPullRequestTarget        EventType = "pull_request_target"
	EventPullRequestReview        EventType = "pull_request_review"
	EventPullRequestReviewComment EventType = "pull_request_review_comment"
	EventIssueComment             EventType = "issue_comment"
	EventIssues                   EventType = "issues"
	EventPush                     EventType = "push"
)

// SupportedEventTypes 返回能从中解析出 PR 信息的事件类型
func SupportedEventTypes() []EventType {
	return []EventType{
		EventPullRequest,
		EventPullRequestTarget,
		EventPullRequestReview,
		EventPullRequestReviewComment,
		EventIssueComment,
		EventIssues,
		EventPush,
	}
}

// IsSupportedEventType reports whether the parser understands eventType.
func IsSupportedEventType(eventType string) bool {
	for _, t := range SupportedEventTypes() {
		if string(t) == eventType {
			return true
		}
	}
	return false
}

// Event is the part of a workflow event payload needed to locate the comment target.
type Event struct {
	Type   EventType
	Action string
	// Number is the issue or pull request number, zero when the event has none.
	Number int
	// HeadSHA is the commit the run was triggered for, when the payload names one.
	HeadSHA string
	// IsPR is false for issues and comments on plain issues.
	IsPR bool
}

// HasNumber reports whether the payload identified an issue or pull request.
func (e *Event) HasNumber() bool {
	return e != nil && e.Number > 0
}

// EventParser 事件解析器
type EventParser struct{}

// NewEventParser 创建新的事件解析器
func NewEventParser() *EventParser {
	return &EventParser{}
}

// ParseEventFile reads the payload file the runner writes to GITHUB_EVENT_PATH.
func (p *EventParser) ParseEventFile(ctx context.Context, eventType, path string) (*Event, error) {
	if path == "" {
		return nil, NewEventError("read", eventType, ErrEventNotFound, "GITHUB_EVENT_PATH is empty")
	}
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, NewEventError("read", eventType, fmt.Errorf("%w: %v", ErrEventNotFound, err), path)
	}
	return p.ParseEvent(ctx, eventType, payload)
}

// ParseEvent 解析工作流事件负载
func (p *EventParser) ParseEvent(ctx context.Context, eventType string, payload []byte) (*Event, error) {
	xl := xlog.NewWith(ctx)

	var (
		event *Event
		err   error
	)
	switch EventType(eventType) {
	case EventPullRequest, EventPullRequestTarget:
		event, err = p.parsePullRequestEvent(eventType, payload)
	case EventPullRequestReview:
		event, err = p.parsePullRequestReviewEvent(payload)
	case EventPullRequestReviewComment:
		event, err = p.parsePullRequestReviewCommentEvent(payload)
	case EventIssueComment:
		event, err = p.parseIssueCommentEvent(payload)
	case EventIssues:
		event, err = p.parseIssuesEvent(payload)
	case EventPush:
		event, err = p.parsePushEvent(payload)
	default:
		return nil, UnsupportedEventTypeError(eventType)
	}
	if err != nil {
		return nil, err
	}

	xl.Debugf("Parsed %s event: action=%s number=%d sha=%s", event.Type, event.Action, event.Number, event.HeadSHA)
	return event, nil
}

// parsePullRequestEvent 解析 PR 事件，pull_request_target 与之共用负载格式
func (p *EventParser) parsePullRequestEvent(eventType string, payload []byte) (*Event, error) {
	var event github.PullRequestEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ParsingError(eventType, err)
	}
	if event.PullRequest == nil {
		return nil, ValidationError(eventType, ErrMissingPullRequest, "")
	}

	number := event.GetNumber()
	if number == 0 {
		number = event.PullRequest.GetNumber()
	}

	return &Event{
		Type:    EventType(eventType),
		Action:  event.GetAction(),
		Number:  number,
		HeadSHA: event.PullRequest.GetHead().GetSHA(),
		IsPR:    true,
	}, nil
}

// parsePullRequestReviewEvent 解析PR Review事件
func (p *EventParser) parsePullRequestReviewEvent(payload []byte) (*Event, error) {
	var event github.PullRequestReviewEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ParsingError(string(EventPullRequestReview), err)
	}
	if event.PullRequest == nil {
		return nil, ValidationError(string(EventPullRequestReview), ErrMissingPullRequest, "")
	}

	return &Event{
		Type:    EventPullRequestReview,
		Action:  event.GetAction(),
		Number:  event.PullRequest.GetNumber(),
		HeadSHA: event.PullRequest.GetHead().GetSHA(),
		IsPR:    true,
	}, nil
}

// parsePullRequestReviewCommentEvent 解析PR Review评论事件
func (p *EventParser) parsePullRequestReviewCommentEvent(payload []byte) (*Event, error) {
	var event github.PullRequestReviewCommentEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ParsingError(string(EventPullRequestReviewComment), err)
	}
	if event.PullRequest == nil {
		return nil, ValidationError(string(EventPullRequestReviewComment), ErrMissingPullRequest, "")
	}

	return &Event{
		Type:    EventPullRequestReviewComment,
		Action:  event.GetAction(),
		Number:  event.PullRequest.GetNumber(),
		HeadSHA: event.PullRequest.GetHead().GetSHA(),
		IsPR:    true,
	}, nil
}

// parseIssueCommentEvent 解析Issue评论事件，PR 上的评论也走这里
func (p *EventParser) parseIssueCommentEvent(payload []byte) (*Event, error) {
	var event github.IssueCommentEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ParsingError(string(EventIssueComment), err)
	}
	if event.Issue == nil {
		return nil, ValidationError(string(EventIssueComment), ErrMissingIssue, "")
	}

	return &Event{
		Type:    EventIssueComment,
		Action:  event.GetAction(),
		Number:  event.Issue.GetNumber(),
		IsPR:    event.Issue.IsPullRequest(),
	}, nil
}

// parseIssuesEvent 解析Issues事件
func (p *EventParser) parseIssuesEvent(payload []byte) (*Event, error) {
	var event github.IssuesEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ParsingError(string(EventIssues), err)
	}
	if event.Issue == nil {
		return nil, ValidationError(string(EventIssues), ErrMissingIssue, "")
	}

	return &Event{
		Type:    EventIssues,
		Action:  event.GetAction(),
		Number:  event.Issue.GetNumber(),
		IsPR:    event.Issue.IsPullRequest(),
	}, nil
}

// parsePushEvent 解析Push事件，push 没有 PR 编号，只带出提交 SHA
func (p *EventParser) parsePushEvent(payload []byte) (*Event, error) {
	var event github.PushEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ParsingError(string(EventPush), err)
	}

	sha := event.GetAfter()
	if sha == "" {
		sha = event.GetHeadCommit().GetID()
	}
	if sha == "" {
		return nil, ValidationError(string(EventPush), ErrMissingHeadCommit, event.GetRef())
	}

	return &Event{
		Type:    EventPush,
		HeadSHA: sha,
	}, nil
}
