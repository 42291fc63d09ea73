package plan

import (
	"strconv"
	"strings"
)

// ExitCode is the detailed exit code of `terraform plan -detailed-exitcode`.
type ExitCode int

const (
	ExitCodeUnknown        ExitCode = -1
	ExitCodeSuccess        ExitCode = 0
	ExitCodeError          ExitCode = 1
	ExitCodeChangesPresent ExitCode = 2
)

// ParseExitCode converts the textual exit code handed over by the workflow.
// An empty value means success; anything that is not an integer is ExitCodeUnknown.
func ParseExitCode(s string) ExitCode {
	s = strings.TrimSpace(s)
	if s == "" {
		return ExitCodeSuccess
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return ExitCodeUnknown
	}
	return ExitCode(n)
}

func (c ExitCode) String() string {
	switch c {
	case ExitCodeSuccess:
		return "success"
	case ExitCodeError:
		return "error"
	case ExitCodeChangesPresent:
		return "changes-present"
	case ExitCodeUnknown:
		return "unknown"
	default:
		return strconv.Itoa(int(c))
	}
}
