package comment

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/dustin/go-humanize"

	"github.com/qiniu/tfplan-comment/internal/marker"
	"github.com/qiniu/tfplan-comment/internal/plan"
)

// Limit is the largest comment body we post. GitHub rejects bodies over 65,536
// characters; the margin absorbs Markdown rendering overhead.
const Limit = 65000

const (
	heading        = "### Terraform Plan"
	defaultSummary = "Show Plan"
	omittedNote    = "_State refresh output omitted due to size._"
)

// Stage says which rung of the size ladder produced a comment.
type Stage string

const (
	StageFull             Stage = "full"
	StageWithoutRefresh   Stage = "without-refresh"
	StageTruncatedPointer Stage = "truncated"
)

// Input is everything the assembler needs for one comment.
type Input struct {
	Plan       string
	ExitCode   plan.ExitCode
	WorkingDir string
	Workspace  string
	Theme      string
	Actor      string
	EventName  string
	RunURL     string
}

// Result is an assembled comment.
type Result struct {
	Body    string
	Stage   Stage
	Marker  string
	Summary string
	// FullLength is the length of the untrimmed comment, in characters.
	FullLength int
}

// Assemble builds the comment body for a plan and shrinks it until it fits Limit:
// first by dropping the state refresh section, then by replacing the plan with a
// pointer to the workflow run.
func Assemble(in Input) Result {
	if in.WorkingDir == "" {
		in.WorkingDir = "."
	}

	summary := plan.Summarize(in.Plan, in.ExitCode, in.Theme)
	sections := plan.Split(in.Plan)
	mark := marker.Make(in.WorkingDir, in.Workspace)

	b := builder{in: in, marker: mark, summary: summary, sections: sections}

	full := b.full()
	res := Result{
		Body:       full,
		Stage:      StageFull,
		Marker:     mark,
		Summary:    summary,
		FullLength: Length(full),
	}
	if res.FullLength <= Limit {
		return res
	}

	if sections.HasRefresh() {
		withoutRefresh := b.withoutRefresh()
		if Length(withoutRefresh) <= Limit {
			res.Body = withoutRefresh
			res.Stage = StageWithoutRefresh
			return res
		}
	}

	res.Body = b.truncated(res.FullLength)
	res.Stage = StageTruncatedPointer
	return res
}

// Length counts characters the way the GitHub API does, in UTF-16 code units.
func Length(s string) int {
	n := 0
	for _, r := range s {
		n += len(utf16.Encode([]rune{r}))
	}
	return n
}

type builder struct {
	in       Input
	marker   string
	summary  string
	sections plan.Sections
}

func (b builder) dirNote() string {
	if b.in.WorkingDir == "." {
		return ""
	}
	return fmt.Sprintf("\n📁 `%s`\n", b.in.WorkingDir)
}

func (b builder) summaryTag() string {
	s := b.summary
	if s == "" {
		s = defaultSummary
	}
	return fmt.Sprintf("<details><summary>%s</summary>", s)
}

func (b builder) footer() string {
	return fmt.Sprintf("*Pusher: @%s, Action: `%s`*", b.in.Actor, b.in.EventName)
}

func (b builder) full() string {
	var content []string
	if b.sections.HasRefresh() {
		content = []string{
			"<details><summary>State refresh</summary>",
			"",
			"```",
			b.sections.Refresh,
			"```",
			"</details>",
			"",
			"```terraform",
			b.sections.Changes,
			"```",
		}
	} else {
		content = []string{"```terraform", b.in.Plan, "```"}
	}

	lines := []string{b.marker, heading, b.dirNote(), b.summaryTag(), ""}
	lines = append(lines, content...)
	lines = append(lines, "", "</details>", "", b.footer())
	return strings.Join(lines, "\n")
}

func (b builder) withoutRefresh() string {
	return strings.Join([]string{
		b.marker,
		heading,
		b.dirNote(),
		b.summaryTag(),
		"",
		"```terraform",
		b.sections.Changes,
		"```",
		"",
		"</details>",
		"",
		omittedNote,
		"",
		b.footer(),
	}, "\n")
}

func (b builder) truncated(fullLength int) string {
	return strings.Join([]string{
		b.marker,
		heading,
		b.dirNote(),
		fmt.Sprintf("⚠️ Plan output is too large for GitHub comment (%s chars).", humanize.Comma(int64(fullLength))),
		"",
		fmt.Sprintf("View the full plan in the [workflow run](%s).", b.in.RunURL),
		"",
		b.summary,
		"",
		fmt.Sprintf("*Pusher: @%s*", b.in.Actor),
	}, "\n")
}
