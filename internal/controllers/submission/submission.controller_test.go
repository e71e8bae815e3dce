package submissionController

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"form95/internal/document"
	"form95/internal/events"
	"form95/internal/fieldmap"
	. "form95/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	controller *SubmissionController
	claims     *memoryClaims
	users      *memoryUsers
	sessions   *memorySessions
	filler     *fakeFiller
	notifier   *fakeNotifier
}

var fixedNow = time.Date(2026, 10, 16, 15, 4, 5, 0, time.UTC)

func newHarness() *harness {
	h := &harness{
		claims:   newMemoryClaims(),
		users:    &memoryUsers{},
		sessions: newMemorySessions(),
		filler:   &fakeFiller{},
		notifier: &fakeNotifier{},
	}
	h.controller = New(
		fieldmap.NewMapper(),
		h.filler,
		h.claims,
		h.users,
		h.sessions,
		directTx{},
		h.notifier,
		document.Paths{Template: "templates/sf95.pdf", OutputDir: "out"},
	)
	h.controller.now = func() time.Time { return fixedNow }
	return h
}

func minimalDraft(email string) map[string]string {
	return map[string]string{
		fieldmap.InputName:         "Alice Smith",
		fieldmap.InputAddress:      "1 Main St",
		fieldmap.InputEmail:        email,
		fieldmap.InputBasisOfClaim: "Injured while working on the west front.",
	}
}

func TestSubmitDraft_DefaultsAndStorage(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	result, err := h.controller.SubmitDraft(ctx, "token", minimalDraft("alice@example.com"))
	require.NoError(t, err)

	assert.Equal(t, "$90,000.00", result.FieldMap.Text(fieldmap.FieldPersonalInjury))
	assert.Equal(t, "$90,000.00", result.FieldMap.Text(fieldmap.FieldTotal))
	assert.Equal(t, "Civilian", result.FieldMap.Text(fieldmap.FieldEmploymentType))
	assert.Equal(t, "alice-example-com_SF95.pdf", result.DocumentFilename)
	assert.NoError(t, result.PreviewError)
	assert.Equal(t, "out/drafts/alice-example-com_SF95.pdf", result.PreviewPath)

	claim := h.claims.byID(result.ClaimID)
	require.NotNil(t, claim)
	assert.Equal(t, "Civilian", claim.EmploymentType)
	assert.Equal(t, 90000.0, claim.Total)
	assert.Equal(t, ClaimStatusDraft, claim.Status)

	session, err := h.sessions.Load(ctx, "token")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, SubmissionStateAwaitingSignature, session.State)
	assert.Equal(t, result.ClaimID, session.ClaimID)
	assert.Equal(t, "Alice Smith", session.DisplayName)
	assert.Equal(t, "alice@example.com", session.Email)
	assert.Equal(t, "user-alice@example.com", session.UserID)

	require.Len(t, h.notifier.events, 1)
	assert.Equal(t, events.ClaimDrafted, h.notifier.events[0].eventType)
}

func TestSubmitDraft_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(map[string]string)
		invalid string
	}{
		{name: "missing name", mutate: func(r map[string]string) { r[fieldmap.InputName] = "  " }, invalid: fieldmap.InputName},
		{name: "missing address", mutate: func(r map[string]string) { delete(r, fieldmap.InputAddress) }, invalid: fieldmap.InputAddress},
		{name: "missing email", mutate: func(r map[string]string) { r[fieldmap.InputEmail] = "" }, invalid: fieldmap.InputEmail},
		{name: "malformed email", mutate: func(r map[string]string) { r[fieldmap.InputEmail] = "alice-at-example" }, invalid: fieldmap.InputEmail},
		{name: "no description", mutate: func(r map[string]string) { r[fieldmap.InputBasisOfClaim] = "" }, invalid: fieldmap.InputBasisOfClaim},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			raw := minimalDraft("alice@example.com")
			tt.mutate(raw)

			_, err := h.controller.SubmitDraft(context.Background(), "token", raw)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, tt.invalid)
			assert.Equal(t, raw, verr.Input)
			assert.Zero(t, h.claims.count())
			assert.Empty(t, h.filler.calls)
		})
	}
}

func TestSubmitDraft_NatureOfInjuryAloneIsEnough(t *testing.T) {
	h := newHarness()
	raw := minimalDraft("alice@example.com")
	delete(raw, fieldmap.InputBasisOfClaim)
	raw[fieldmap.InputNatureOfInjury] = "Concussion"

	_, err := h.controller.SubmitDraft(context.Background(), "token", raw)
	assert.NoError(t, err)
}

func TestSubmitDraft_SameEmailUpdatesSameClaim(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	first, err := h.controller.SubmitDraft(ctx, "token", minimalDraft("alice@example.com"))
	require.NoError(t, err)

	raw := minimalDraft("ALICE@example.com ")
	raw[fieldmap.InputPersonalInjury] = "1,000"
	second, err := h.controller.SubmitDraft(ctx, "other-token", raw)
	require.NoError(t, err)

	assert.Equal(t, first.ClaimID, second.ClaimID)
	assert.Equal(t, 1, h.claims.count())
	assert.Equal(t, 1000.0, h.claims.byID(first.ClaimID).Total)
}

func TestSubmitDraft_PreviewFailureIsNotFatal(t *testing.T) {
	h := newHarness()
	h.filler.err = &document.FillError{ExitCode: 1, Stderr: "boom"}

	result, err := h.controller.SubmitDraft(context.Background(), "token", minimalDraft("alice@example.com"))
	require.NoError(t, err)
	assert.Error(t, result.PreviewError)
	assert.Empty(t, result.PreviewPath)
	assert.Equal(t, 1, h.claims.count())
}

func TestSubmitDraft_SignsInOnlyUnprotectedClaimants(t *testing.T) {
	tests := []struct {
		name     string
		existing *User
		signedIn bool
	}{
		{name: "new account", signedIn: true},
		{name: "claimant without password", existing: &User{Role: UserRoleClaimant}, signedIn: true},
		{name: "claimant with password", existing: &User{Role: UserRoleClaimant, PasswordHash: "hash"}},
		{name: "admin", existing: &User{Role: UserRoleAdmin, PasswordHash: "hash"}},
		{name: "admin without password", existing: &User{Role: UserRoleAdmin}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			ctx := context.Background()
			if tt.existing != nil {
				tt.existing.ID = "existing"
				tt.existing.Username = "ops@example.com"
				h.users.users = map[string]*User{"ops@example.com": tt.existing}
			}

			result, err := h.controller.SubmitDraft(ctx, "token", minimalDraft("ops@example.com"))
			require.NoError(t, err)

			session, err := h.sessions.Load(ctx, "token")
			require.NoError(t, err)
			require.NotNil(t, session)

			if tt.signedIn {
				assert.NotEmpty(t, result.UserID)
				assert.Equal(t, result.UserID, session.UserID)
			} else {
				assert.Empty(t, result.UserID)
				assert.Empty(t, session.UserID)
			}
			assert.NotEmpty(t, result.ClaimID)
		})
	}
}

func TestSubmitDraft_AfterFinalStartsUnsigned(t *testing.T) {
	h := newHarness()
	h.controller.paths = document.Paths{Template: "templates/sf95.pdf", OutputDir: t.TempDir()}
	ctx := context.Background()

	draft, err := h.controller.SubmitDraft(ctx, "token", minimalDraft("alice@example.com"))
	require.NoError(t, err)
	final, err := h.controller.Finalize(ctx, "token", map[string]string{fieldmap.InputSignature: "Alice Smith"})
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(final.DocumentPath), 0o755))
	require.NoError(t, os.WriteFile(final.DocumentPath, []byte("%PDF"), 0o644))

	raw := minimalDraft("alice@example.com")
	raw[fieldmap.InputName] = "Mallory"
	again, err := h.controller.SubmitDraft(ctx, "token", raw)
	require.NoError(t, err)
	assert.Equal(t, draft.ClaimID, again.ClaimID)

	claim := h.claims.byID(draft.ClaimID)
	assert.Equal(t, "Mallory", claim.Name)
	assert.Equal(t, ClaimStatusDraft, claim.Status)
	assert.Empty(t, claim.Signature)
	assert.Nil(t, claim.SignedAt)
	assert.False(t, claim.Signed())

	_, err = os.Stat(final.DocumentPath)
	assert.True(t, os.IsNotExist(err))

	_, _, err = h.controller.Document(ctx, "alice@example.com")
	assert.ErrorIs(t, err, ErrDocumentNotReady)
}

func TestSubmitDraft_SessionSaveFailure(t *testing.T) {
	h := newHarness()
	h.sessions.saveErr = errors.New("cache unavailable")

	_, err := h.controller.SubmitDraft(context.Background(), "token", minimalDraft("alice@example.com"))
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, 1, h.claims.count())
}

func TestFinalize_CaseInsensitiveSignature(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	draft, err := h.controller.SubmitDraft(ctx, "token", minimalDraft("alice@example.com"))
	require.NoError(t, err)

	result, err := h.controller.Finalize(ctx, "token", map[string]string{
		fieldmap.InputSignature:  "alice  smith",
		fieldmap.InputDateSigned: "01/01/1999",
	})
	require.NoError(t, err)
	assert.Equal(t, draft.ClaimID, result.ClaimID)
	assert.Equal(t, "out/alice-example-com_SF95.pdf", result.DocumentPath)
	assert.Equal(t, fixedNow, result.SignedAt)

	final := h.filler.calls[len(h.filler.calls)-1]
	assert.Equal(t, "out/alice-example-com_SF95.pdf", final.output)
	assert.Equal(t, "templates/sf95.pdf", final.template)
	assert.Equal(t, "alice smith", final.fm.Text(fieldmap.FieldSignature))
	assert.Equal(t, "10/16/2026", final.fm.Text(fieldmap.FieldDateSigned))
	assert.Equal(t, "$90,000.00", final.fm.Text(fieldmap.FieldTotal))
	assert.Equal(t, draft.FieldMap.Text(fieldmap.FieldClaimant), final.fm.Text(fieldmap.FieldClaimant))

	claim := h.claims.byID(draft.ClaimID)
	assert.Equal(t, ClaimStatusFinal, claim.Status)
	assert.Equal(t, "alice smith", claim.Signature)
	require.NotNil(t, claim.SignedAt)
	assert.True(t, claim.SignedAt.Equal(fixedNow))
	assert.Empty(t, claim.DocumentError)

	_, err = h.controller.Resume(ctx, "token")
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, events.ClaimFinalized, h.notifier.events[len(h.notifier.events)-1].eventType)
}

func TestFinalize_SignatureRules(t *testing.T) {
	tests := []struct {
		name      string
		signature string
	}{
		{name: "empty", signature: "   "},
		{name: "different name", signature: "Bob Jones"},
		{name: "partial name", signature: "Alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			ctx := context.Background()

			draft, err := h.controller.SubmitDraft(ctx, "token", minimalDraft("alice@example.com"))
			require.NoError(t, err)
			fills := len(h.filler.calls)

			_, err = h.controller.Finalize(ctx, "token", map[string]string{fieldmap.InputSignature: tt.signature})

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, fieldmap.InputSignature)
			assert.Len(t, h.filler.calls, fills)
			assert.Equal(t, ClaimStatusDraft, h.claims.byID(draft.ClaimID).Status)

			session, err := h.controller.Resume(ctx, "token")
			require.NoError(t, err)
			assert.Equal(t, draft.ClaimID, session.ClaimID)
		})
	}
}

func TestFinalize_WithoutSession(t *testing.T) {
	tests := []struct {
		name    string
		session *SubmissionSession
	}{
		{name: "no session", session: nil},
		{name: "session without map", session: &SubmissionSession{State: SubmissionStateAwaitingSignature, ClaimID: "claim-1", DisplayName: "Alice Smith"}},
		{name: "session without claim id", session: &SubmissionSession{
			State:       SubmissionStateAwaitingSignature,
			DisplayName: "Alice Smith",
			FieldMap:    fieldmap.FieldMap{Values: []fieldmap.Value{{Key: fieldmap.FieldAgency, Kind: fieldmap.KindText, Text: "x"}}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			ctx := context.Background()
			if tt.session != nil {
				require.NoError(t, h.sessions.Save(ctx, "token", tt.session))
			}

			_, err := h.controller.Finalize(ctx, "token", map[string]string{fieldmap.InputSignature: "Alice Smith"})
			assert.ErrorIs(t, err, ErrSessionExpired)
			assert.Contains(t, h.sessions.cleared, "token")
			assert.Empty(t, h.filler.calls)
		})
	}
}

func TestFinalize_ClaimDeletedMeanwhile(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	draft, err := h.controller.SubmitDraft(ctx, "token", minimalDraft("alice@example.com"))
	require.NoError(t, err)
	h.claims.remove(draft.ClaimID)

	_, err = h.controller.Finalize(ctx, "token", map[string]string{fieldmap.InputSignature: "Alice Smith"})
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Contains(t, h.sessions.cleared, "token")
}

func TestFinalize_FillFailureIsBlocking(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	draft, err := h.controller.SubmitDraft(ctx, "token", minimalDraft("alice@example.com"))
	require.NoError(t, err)

	h.filler.err = &document.FillError{Timeout: true}
	_, err = h.controller.Finalize(ctx, "token", map[string]string{fieldmap.InputSignature: "Alice Smith"})

	var finalErr *FinalDocumentError
	require.True(t, errors.As(err, &finalErr))
	assert.Equal(t, draft.ClaimID, finalErr.ClaimID)
	assert.Equal(t, "alice-example-com_SF95.pdf", finalErr.Reference)

	var fillErr *document.FillError
	assert.True(t, errors.As(err, &fillErr))

	claim := h.claims.byID(draft.ClaimID)
	assert.Equal(t, ClaimStatusFinal, claim.Status)
	assert.Equal(t, "Alice Smith", claim.Signature)
	assert.Equal(t, "document fill timed out", claim.DocumentError)

	session, err := h.controller.Resume(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, draft.ClaimID, session.ClaimID)
	assert.Equal(t, events.ClaimFillFailed, h.notifier.events[len(h.notifier.events)-1].eventType)

	h.filler.err = nil
	_, err = h.controller.Finalize(ctx, "token", map[string]string{fieldmap.InputSignature: "Alice Smith"})
	require.NoError(t, err)
	assert.Empty(t, h.claims.byID(draft.ClaimID).DocumentError)
}

func TestAbandon_LeavesClaim(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	draft, err := h.controller.SubmitDraft(ctx, "token", minimalDraft("alice@example.com"))
	require.NoError(t, err)

	require.NoError(t, h.controller.Abandon(ctx, "token"))

	_, err = h.controller.Resume(ctx, "token")
	assert.ErrorIs(t, err, ErrNoSession)
	assert.NotNil(t, h.claims.byID(draft.ClaimID))
}

func TestDocument_NotReadyUntilFinal(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, _, err := h.controller.Document(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrDocumentNotReady)

	_, err = h.controller.SubmitDraft(ctx, "token", minimalDraft("alice@example.com"))
	require.NoError(t, err)

	claim, _, err := h.controller.Document(ctx, "alice@example.com")
	assert.ErrorIs(t, err, ErrDocumentNotReady)
	assert.Equal(t, ClaimStatusDraft, claim.Status)
}
