package models

import (
	"time"

	"form95/internal/fieldmap"
)

type SubmissionState string

const (
	SubmissionStateDraft             SubmissionState = "draft"
	SubmissionStateAwaitingSignature SubmissionState = "awaiting_signature"
	SubmissionStateFinal             SubmissionState = "final"
)

// SubmissionSession is the server-side context carried between the draft
// and signature steps. The claim row stays the source of truth.
type SubmissionSession struct {
	State            SubmissionState   `json:"state"`
	ClaimID          string            `json:"claimId"`
	DocumentFilename string            `json:"documentFilename"`
	FieldMap         fieldmap.FieldMap `json:"fieldMap"`
	DisplayName      string            `json:"displayName"`
	Email            string            `json:"email"`
	UserID           string            `json:"userId,omitempty"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

// Ready reports whether the session still holds what finalization needs.
func (s *SubmissionSession) Ready() bool {
	return s != nil && s.ClaimID != "" && !s.FieldMap.Empty()
}
