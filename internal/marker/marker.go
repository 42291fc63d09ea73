// Package marker derives the hidden identity embedded in plan comments.
//
// A marker is an HTML comment, invisible once GitHub renders the Markdown, that
// names the working directory and Terraform workspace a comment belongs to. Later
// runs find their previous comment by searching for the same marker substring.
package marker

import (
	"fmt"
	"strings"
)

const (
	prefix = "terraform-plan-comment"

	// RootDir is the token used for the repository root working directory.
	RootDir = "root"
	// DefaultWorkspace is the Terraform workspace used when none is given.
	DefaultWorkspace = "default"
)

// Make returns the marker for a working directory and workspace.
//
// "." becomes "root" and every path separator becomes "-". Distinct paths that
// normalize to the same token ("a/b" and "a-b", or a directory literally named
// "root") share a marker. ":" is not escaped, so ("a:b", "c") and ("a", "b:c")
// share one too.
func Make(workingDir, workspace string) string {
	if workspace == "" {
		workspace = DefaultWorkspace
	}
	return fmt.Sprintf("<!-- %s:%s:%s -->", prefix, NormalizeDir(workingDir), workspace)
}

// NormalizeDir turns a working directory into the token used inside a marker.
func NormalizeDir(workingDir string) string {
	if workingDir == "" || workingDir == "." {
		return RootDir
	}
	return strings.NewReplacer("/", "-", `\`, "-").Replace(workingDir)
}
