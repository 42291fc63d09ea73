package plan

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// NoChangesSummary is returned when the plan has nothing to apply.
	NoChangesSummary = "✅ No changes"
	// FailedSummary is returned when terraform plan exited with an error.
	FailedSummary = "❌ Plan failed"

	noChangesPhrase = "No changes."
	badgeSeparator  = " · "
)

var (
	addPattern     = regexp.MustCompile(`(\d+) to add`)
	changePattern  = regexp.MustCompile(`(\d+) to change`)
	destroyPattern = regexp.MustCompile(`(\d+) to destroy`)
	importPattern  = regexp.MustCompile(`(\d+) to import`)
)

// Counts holds the change counts found in a plan. A nil field means the
// corresponding phrase was not present, which is different from a zero count.
type Counts struct {
	Import  *string
	Create  *string
	Update  *string
	Destroy *string
}

// Empty reports whether no count was found at all.
func (c Counts) Empty() bool {
	return c.Import == nil && c.Create == nil && c.Update == nil && c.Destroy == nil
}

// ExtractCounts finds the first "<N> to add|change|destroy|import" of each kind.
func ExtractCounts(text string) Counts {
	return Counts{
		Import:  firstCount(importPattern, text),
		Create:  firstCount(addPattern, text),
		Update:  firstCount(changePattern, text),
		Destroy: firstCount(destroyPattern, text),
	}
}

func firstCount(re *regexp.Regexp, text string) *string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return &m[1]
}

// Summarize renders a one-line badge summary of a plan.
//
// The exit code and the "No changes." phrase take precedence over any counts.
// An empty result means no plan summary line could be recognized; callers should
// show the full output without a summary.
func Summarize(text string, code ExitCode, theme string) string {
	if code == ExitCodeSuccess || strings.Contains(text, noChangesPhrase) {
		return NoChangesSummary
	}
	if code == ExitCodeError {
		return FailedSummary
	}

	counts := ExtractCounts(text)
	if counts.Empty() {
		return ""
	}

	t, _ := LookupTheme(theme)
	glyphs := t.Badges()

	parts := make([]string, 0, 4)
	if counts.Import != nil {
		parts = append(parts, badge(glyphs.Import, "import", *counts.Import))
	}
	if counts.Create != nil {
		parts = append(parts, badge(glyphs.Create, "create", *counts.Create))
	}
	if counts.Update != nil {
		parts = append(parts, badge(glyphs.Update, "update", *counts.Update))
	}
	if counts.Destroy != nil {
		parts = append(parts, badge(glyphs.Destroy, "destroy", *counts.Destroy))
	}
	return strings.Join(parts, badgeSeparator)
}

func badge(glyph, label, count string) string {
	return fmt.Sprintf("%s <strong>%s</strong> <code>%s</code>", glyph, label, count)
}
