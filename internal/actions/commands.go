package actions

import (
	"io"
	"os"

	"github.com/sethvargo/go-githubactions"
)

// Step output names.
const (
	OutputCommentID  = "comment-id"
	OutputCommentURL = "comment-url"
	OutputStage      = "stage"
	OutputSummary    = "summary"
)

// Commands emits workflow commands (annotations and step outputs).
type Commands struct {
	action *githubactions.Action
}

// NewCommands writes commands to w and resolves GITHUB_OUTPUT through getenv.
// Both may be nil for stdout and the process environment.
func NewCommands(w io.Writer, getenv func(string) string) *Commands {
	if w == nil {
		w = os.Stdout
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	return &Commands{
		action: githubactions.New(githubactions.WithWriter(w), githubactions.WithGetenv(getenv)),
	}
}

// Errorf marks the step as failed in the workflow log.
func (c *Commands) Errorf(format string, args ...interface{}) {
	c.action.Errorf(format, args...)
}

// Infof writes a plain line to the workflow log.
func (c *Commands) Infof(format string, args ...interface{}) {
	c.action.Infof(format, args...)
}

// Warningf emits a warning annotation.
func (c *Commands) Warningf(format string, args ...interface{}) {
	c.action.Warningf(format, args...)
}

// SetOutputs sets step outputs in order.
func (c *Commands) SetOutputs(outputs []Output) {
	for _, o := range outputs {
		c.action.SetOutput(o.Name, o.Value)
	}
}

// Output is a single step output.
type Output struct {
	Name  string
	Value string
}
