package document

import (
	"errors"
	"fmt"
	"strings"
)

var ErrTemplateMissing = errors.New("document template not found")

// FillError is returned for every fill failure: a missing template, a tool
// that exits non-zero, a tool that outlives the timeout, or local I/O.
type FillError struct {
	ExitCode int
	Stderr   string
	Timeout  bool
	Err      error
}

func (e *FillError) Error() string {
	switch {
	case e.Timeout:
		return "document fill timed out"
	case e.ExitCode != 0:
		msg := fmt.Sprintf("document fill tool exited with code %d", e.ExitCode)
		if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
			msg += ": " + stderr
		}
		return msg
	case e.Err != nil:
		return "document fill failed: " + e.Err.Error()
	default:
		return "document fill failed"
	}
}

func (e *FillError) Unwrap() error {
	return e.Err
}
