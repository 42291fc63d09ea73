package comment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qiniu/tfplan-comment/internal/plan"
)

const runURL = "https://github.com/acme/infra/actions/runs/42"

func baseInput(planText string, code plan.ExitCode) Input {
	return Input{
		Plan:       planText,
		ExitCode:   code,
		WorkingDir: ".",
		Workspace:  "default",
		Theme:      "default",
		Actor:      "octocat",
		EventName:  "pull_request",
		RunURL:     runURL,
	}
}

func refreshPlan(refreshLines, changeLines int) string {
	var sb strings.Builder
	for i := 0; i < refreshLines; i++ {
		sb.WriteString("aws_s3_bucket.logs: Refreshing state... [id=logs-bucket-0000000000]\n")
	}
	sb.WriteString("\nTerraform used the selected providers to generate the following execution plan.\n\n")
	for i := 0; i < changeLines; i++ {
		sb.WriteString(`  + resource "aws_s3_object" "o" { key = "k" }` + "\n")
	}
	sb.WriteString("\nPlan: 1 to add, 0 to change, 0 to destroy.\n")
	return sb.String()
}

func TestAssemble_FullWithoutRefresh(t *testing.T) {
	text := "No changes. Your infrastructure matches the configuration."

	res := Assemble(baseInput(text, plan.ExitCodeSuccess))

	want := strings.Join([]string{
		"<!-- terraform-plan-comment:root:default -->",
		"### Terraform Plan",
		"",
		"<details><summary>✅ No changes</summary>",
		"",
		"```terraform",
		text,
		"```",
		"",
		"</details>",
		"",
		"*Pusher: @octocat, Action: `pull_request`*",
	}, "\n")
	assert.Equal(t, want, res.Body)
	assert.Equal(t, StageFull, res.Stage)
	assert.Equal(t, Length(want), res.FullLength)
}

func TestAssemble_FullWithRefresh(t *testing.T) {
	text := refreshPlan(2, 1)
	in := baseInput(text, plan.ExitCodeChangesPresent)
	in.WorkingDir = "envs/prod"
	in.Workspace = "prod"

	res := Assemble(in)

	assert.Equal(t, StageFull, res.Stage)
	assert.True(t, strings.HasPrefix(res.Body, "<!-- terraform-plan-comment:envs-prod:prod -->\n### Terraform Plan\n\n📁 `envs/prod`\n\n"))
	assert.Contains(t, res.Body, "<details><summary>🟢 <strong>create</strong> <code>1</code>")
	assert.Contains(t, res.Body, "<details><summary>State refresh</summary>\n\n```\naws_s3_bucket.logs: Refreshing state...")
	assert.Contains(t, res.Body, "```terraform\nTerraform used the selected providers")
	assert.NotContains(t, res.Body, omittedNote)
	assert.Equal(t, 1, strings.Count(res.Body, res.Marker))
}

func TestAssemble_NoSummaryFallsBackToShowPlan(t *testing.T) {
	res := Assemble(baseInput("random text", plan.ExitCodeChangesPresent))

	assert.Equal(t, "", res.Summary)
	assert.Contains(t, res.Body, "<details><summary>Show Plan</summary>")
}

func TestAssemble_Idempotent(t *testing.T) {
	in := baseInput(refreshPlan(10, 10), plan.ExitCodeChangesPresent)

	assert.Equal(t, Assemble(in), Assemble(in))
}

func TestAssemble_DropsRefreshWhenTooLarge(t *testing.T) {
	// ~70 chars per refresh line, ~47 per change line.
	text := refreshPlan(600, 600)
	in := baseInput(text, plan.ExitCodeChangesPresent)

	res := Assemble(in)

	require.Greater(t, res.FullLength, Limit)
	assert.Equal(t, StageWithoutRefresh, res.Stage)
	assert.LessOrEqual(t, Length(res.Body), Limit)
	assert.Contains(t, res.Body, omittedNote)
	assert.NotContains(t, res.Body, "Refreshing state...")
	assert.NotContains(t, res.Body, "<summary>State refresh</summary>")
	assert.Contains(t, res.Body, "Plan: 1 to add")
	assert.Equal(t, 1, strings.Count(res.Body, res.Marker))
}

func TestAssemble_TruncatesWhenChangesAloneTooLarge(t *testing.T) {
	text := refreshPlan(10, 2000)
	in := baseInput(text, plan.ExitCodeChangesPresent)
	in.WorkingDir = "envs/prod"

	res := Assemble(in)

	assert.Equal(t, StageTruncatedPointer, res.Stage)
	assert.Less(t, Length(res.Body), 1000)
	assert.Contains(t, res.Body, "View the full plan in the [workflow run]("+runURL+").")
	assert.Contains(t, res.Body, "📁 `envs/prod`")
	assert.Contains(t, res.Body, "🟢 <strong>create</strong> <code>1</code>")
	assert.Contains(t, res.Body, "*Pusher: @octocat*")
	assert.NotContains(t, res.Body, "Action:")
	assert.True(t, strings.HasPrefix(res.Body, res.Marker+"\n"))
}

func TestAssemble_TruncatesWithoutRefreshSection(t *testing.T) {
	text := strings.Repeat("x", Limit+10)

	res := Assemble(baseInput(text, plan.ExitCodeChangesPresent))

	assert.Equal(t, StageTruncatedPointer, res.Stage)
	assert.Contains(t, res.Body, "⚠️ Plan output is too large for GitHub comment (65,")
	assert.NotContains(t, res.Body, omittedNote)
}

func TestAssemble_TruncatedReportsFullLength(t *testing.T) {
	text := strings.Repeat("y", 100000)

	res := Assemble(baseInput(text, plan.ExitCodeChangesPresent))

	assert.Equal(t, StageTruncatedPointer, res.Stage)
	assert.Greater(t, res.FullLength, 100000)
	assert.Contains(t, res.Body, "(100,")
}

func TestAssemble_DefaultsEmptyWorkingDir(t *testing.T) {
	in := baseInput("Plan: 1 to add", plan.ExitCodeChangesPresent)
	in.WorkingDir = ""

	res := Assemble(in)

	assert.Equal(t, "<!-- terraform-plan-comment:root:default -->", res.Marker)
	assert.NotContains(t, res.Body, "📁")
}

func TestLength(t *testing.T) {
	assert.Equal(t, 0, Length(""))
	assert.Equal(t, 3, Length("abc"))
	assert.Equal(t, 1, Length("é"))
	assert.Equal(t, 2, Length("📁"))
	assert.Equal(t, 1, Length("✅"))
}

func TestAssemble_LimitBoundary(t *testing.T) {
	// A plan of n "x" characters has no summary and no refresh section, so the
	// full body grows by exactly one character per plan character.
	base := Length(Assemble(baseInput("", plan.ExitCodeChangesPresent)).Body)
	n := Limit - base

	atLimit := Assemble(baseInput(strings.Repeat("x", n), plan.ExitCodeChangesPresent))
	assert.Equal(t, StageFull, atLimit.Stage)
	assert.Equal(t, Limit, Length(atLimit.Body))

	overLimit := Assemble(baseInput(strings.Repeat("x", n+1), plan.ExitCodeChangesPresent))
	assert.Equal(t, StageTruncatedPointer, overLimit.Stage)
	assert.Equal(t, Limit+1, overLimit.FullLength)
}
