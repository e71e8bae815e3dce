package submissionController

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrSessionExpired means the session no longer holds what the
	// signature step needs. The session has been cleared and the user must
	// start again from the draft step.
	ErrSessionExpired   = errors.New("please restart")
	ErrNoSession        = errors.New("no submission in progress")
	ErrDocumentNotReady = errors.New("document is not available")
)

// ValidationError carries one message per offending raw key and the
// input that was submitted so it can be shown again.
type ValidationError struct {
	Fields map[string]string
	Input  map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "invalid submission: " + strings.Join(keys, ", ")
}

// FinalDocumentError reports that the claim was finalized in storage but
// the signed document could not be produced.
type FinalDocumentError struct {
	ClaimID   string
	Reference string
	Err       error
}

func (e *FinalDocumentError) Error() string {
	return "final document for " + e.Reference + " could not be generated: " + e.Err.Error()
}

func (e *FinalDocumentError) Unwrap() error {
	return e.Err
}
