package plan

import "strings"

// SplitAnchor marks the start of the execution plan in terraform output.
const SplitAnchor = "Terraform used the selected providers"

// Sections is a plan divided into the state refresh preamble and the changes.
type Sections struct {
	Refresh string
	Changes string
}

// HasRefresh reports whether a refresh preamble was found.
func (s Sections) HasRefresh() bool {
	return s.Refresh != ""
}

// Split divides plan output at the first SplitAnchor. Without the anchor the whole
// text is returned untouched as Changes.
func Split(text string) Sections {
	idx := strings.Index(text, SplitAnchor)
	if idx == -1 {
		return Sections{Changes: text}
	}
	return Sections{
		Refresh: strings.TrimSpace(text[:idx]),
		Changes: strings.TrimSpace(text[idx:]),
	}
}
