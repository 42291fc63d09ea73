package events

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedEventType = errors.New("event type carries no pull request")
	ErrEventNotFound        = errors.New("event payload not found")

	ErrMissingIssue       = errors.New("payload has no issue")
	ErrMissingPullRequest = errors.New("payload has no pull_request")
	ErrMissingHeadCommit  = errors.New("payload has no head commit")
)

// EventError reports a workflow event payload that could not be used.
type EventError struct {
	Op        string // read, parse or validate
	EventType string
	Err       error
	Context   string // path or ref, optional
}

func (e *EventError) Error() string {
	var msg string
	if e.EventType != "" {
		msg = fmt.Sprintf("cannot %s %s event payload: %v", e.Op, e.EventType, e.Err)
	} else {
		msg = fmt.Sprintf("cannot %s event payload: %v", e.Op, e.Err)
	}
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

func (e *EventError) Unwrap() error {
	return e.Err
}

func NewEventError(op, eventType string, err error, context string) *EventError {
	return &EventError{
		Op:        op,
		EventType: eventType,
		Err:       err,
		Context:   context,
	}
}

func UnsupportedEventTypeError(eventType string) error {
	return NewEventError("parse", eventType, ErrUnsupportedEventType, "")
}

func ParsingError(eventType string, err error) error {
	return NewEventError("parse", eventType, err, "")
}

func ValidationError(eventType string, err error, context string) error {
	return NewEventError("validate", eventType, err, context)
}
