package submissionController

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"form95/internal/document"
	"form95/internal/events"
	"form95/internal/fieldmap"
	"form95/internal/logger"
	. "form95/internal/models"
	"form95/internal/repositories"
)

type ClaimStore interface {
	Upsert(ctx context.Context, claim *Claim) (string, error)
	Update(ctx context.Context, id string, fields map[string]any) (*Claim, error)
	GetByDocumentFilename(ctx context.Context, filename string) (*Claim, error)
}

type UserStore interface {
	EnsureUser(ctx context.Context, username string, role UserRole) (*User, error)
}

type SessionStore interface {
	Load(ctx context.Context, token string) (*SubmissionSession, error)
	Save(ctx context.Context, token string, session *SubmissionSession) error
	Clear(ctx context.Context, token string) error
}

type Transactor interface {
	Execute(ctx context.Context, fn func(txCtx context.Context) error) error
}

type Notifier interface {
	InvalidateClaim(ctx context.Context, claimID, eventType string, data map[string]any) error
}

type SubmissionController struct {
	mapper   *fieldmap.Mapper
	filler   document.Filler
	claims   ClaimStore
	users    UserStore
	sessions SessionStore
	tx       Transactor
	notifier Notifier
	paths    document.Paths
	now      func() time.Time
	log      logger.Logger
}

func New(
	mapper *fieldmap.Mapper,
	filler document.Filler,
	claims ClaimStore,
	users UserStore,
	sessions SessionStore,
	tx Transactor,
	notifier Notifier,
	paths document.Paths,
) *SubmissionController {
	return &SubmissionController{
		mapper:   mapper,
		filler:   filler,
		claims:   claims,
		users:    users,
		sessions: sessions,
		tx:       tx,
		notifier: notifier,
		paths:    paths,
		now:      time.Now,
		log:      logger.New("SubmissionController"),
	}
}

type DraftResult struct {
	ClaimID          string                `json:"claimId"`
	UserID           string                `json:"userId"`
	DocumentFilename string                `json:"documentFilename"`
	FieldMap         fieldmap.FieldMap     `json:"fieldMap"`
	Diagnostics      []fieldmap.Diagnostic `json:"diagnostics"`
	PreviewPath      string                `json:"-"`
	PreviewError     error                 `json:"-"`
}

type FinalResult struct {
	ClaimID          string    `json:"claimId"`
	DocumentFilename string    `json:"documentFilename"`
	DocumentPath     string    `json:"-"`
	SignedAt         time.Time `json:"signedAt"`
}

func validateDraft(raw map[string]string) *ValidationError {
	fields := map[string]string{}

	value := func(key string) string { return strings.TrimSpace(raw[key]) }

	if value(fieldmap.InputName) == "" {
		fields[fieldmap.InputName] = "name is required"
	}
	if value(fieldmap.InputAddress) == "" {
		fields[fieldmap.InputAddress] = "address is required"
	}
	if email := value(fieldmap.InputEmail); email == "" {
		fields[fieldmap.InputEmail] = "email is required"
	} else if !fieldmap.ValidEmail(email) {
		fields[fieldmap.InputEmail] = "email address is not valid"
	}
	if value(fieldmap.InputBasisOfClaim) == "" && value(fieldmap.InputNatureOfInjury) == "" {
		fields[fieldmap.InputBasisOfClaim] = "describe the basis of the claim or the nature of the injury"
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields, Input: raw}
}

// SubmitDraft maps the draft input, produces a best-effort preview and
// upserts the claim keyed by the email slug. The session moves to
// awaiting_signature.
func (sc *SubmissionController) SubmitDraft(ctx context.Context, token string, raw map[string]string) (*DraftResult, error) {
	log := sc.log.Function("SubmitDraft")

	if verr := validateDraft(raw); verr != nil {
		log.Info("draft rejected", "fields", verr.Fields)
		return nil, verr
	}

	mapped := sc.mapper.Map(raw, fieldmap.StageDraft, nil)

	claim := &Claim{Status: ClaimStatusDraft}
	claim.ApplyIdentity(raw)
	claim.ApplyFieldMap(mapped.Map)

	result := &DraftResult{
		DocumentFilename: claim.DocumentFilename,
		FieldMap:         mapped.Map,
		Diagnostics:      mapped.Diagnostics,
	}

	previewPath := sc.paths.PreviewPath(claim.DocumentFilename)
	if _, err := sc.filler.Fill(ctx, mapped.Map, sc.paths.Template, previewPath); err != nil {
		log.Warn("draft preview not generated", "documentFilename", claim.DocumentFilename, "error", err)
		result.PreviewError = err
	} else {
		result.PreviewPath = previewPath
	}

	err := sc.tx.Execute(ctx, func(txCtx context.Context) error {
		id, err := sc.claims.Upsert(txCtx, claim)
		if err != nil {
			return err
		}
		result.ClaimID = id

		user, err := sc.users.EnsureUser(txCtx, claim.Email, UserRoleClaimant)
		if err != nil {
			return err
		}
		if canSignInAs(user) {
			result.UserID = user.ID
		} else {
			log.Info("draft email belongs to a protected account", "role", user.Role)
		}
		return nil
	})
	if err != nil {
		return nil, log.Err("failed to save draft", err, "documentFilename", claim.DocumentFilename)
	}

	// The row is an unsigned draft again, so any earlier signed document is stale.
	sc.removeFinalDocument(claim.DocumentFilename)

	sc.notify(ctx, result.ClaimID, events.ClaimDrafted, map[string]any{
		"documentFilename": claim.DocumentFilename,
		"name":             claim.Name,
	})

	session := &SubmissionSession{
		State:            SubmissionStateAwaitingSignature,
		ClaimID:          result.ClaimID,
		DocumentFilename: claim.DocumentFilename,
		FieldMap:         mapped.Map,
		DisplayName:      claim.Name,
		Email:            claim.Email,
		UserID:           result.UserID,
	}
	// The claim is already stored; resubmitting the draft picks the same row.
	if err := sc.sessions.Save(ctx, token, session); err != nil {
		log.Er("claim saved but the submission session was not", err, "claimID", result.ClaimID)
		return nil, ErrSessionExpired
	}

	log.Info("draft saved", "claimID", result.ClaimID, "diagnostics", len(mapped.Diagnostics))
	return result, nil
}

// Finalize overlays the typed signature on the draft map and produces the
// signed document. The claim row is updated whether or not the document
// could be produced; a failed fill keeps the session so the user can retry.
func (sc *SubmissionController) Finalize(ctx context.Context, token string, raw map[string]string) (*FinalResult, error) {
	log := sc.log.Function("Finalize")

	session, err := sc.sessions.Load(ctx, token)
	if err != nil {
		return nil, log.Err("failed to load submission session", err)
	}
	if !session.Ready() {
		sc.clear(ctx, token)
		log.Info("finalize without a usable session")
		return nil, ErrSessionExpired
	}

	signature := strings.Join(strings.Fields(raw[fieldmap.InputSignature]), " ")
	if signature == "" {
		return nil, &ValidationError{
			Fields: map[string]string{fieldmap.InputSignature: "signature is required"},
			Input:  raw,
		}
	}
	if !fieldmap.NamesMatch(signature, session.DisplayName) {
		return nil, &ValidationError{
			Fields: map[string]string{fieldmap.InputSignature: "signature must match the claimant name"},
			Input:  raw,
		}
	}

	signedAt := sc.now().UTC()
	mapped := sc.mapper.Map(map[string]string{
		fieldmap.InputSignature:  signature,
		fieldmap.InputDateSigned: fieldmap.FormatDate(signedAt),
	}, fieldmap.StageFinal, &session.FieldMap)

	output := sc.paths.FinalPath(session.DocumentFilename)
	_, fillErr := sc.filler.Fill(ctx, mapped.Map, sc.paths.Template, output)

	fields := map[string]any{
		"signature":         signature,
		"signed_at":         &signedAt,
		"status":            ClaimStatusFinal,
		"document_filename": session.DocumentFilename,
		"document_error":    "",
	}
	if fillErr != nil {
		fields["document_error"] = fillErr.Error()
	}

	err = sc.tx.Execute(ctx, func(txCtx context.Context) error {
		_, err := sc.claims.Update(txCtx, session.ClaimID, fields)
		return err
	})
	if errors.Is(err, repositories.ErrNotFound) {
		sc.clear(ctx, token)
		log.Warn("claim vanished before finalization", "claimID", session.ClaimID)
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, log.Err("failed to finalize claim", err, "claimID", session.ClaimID)
	}

	if fillErr != nil {
		log.Er("final document not generated", fillErr, "claimID", session.ClaimID)
		sc.notify(ctx, session.ClaimID, events.ClaimFillFailed, map[string]any{
			"documentFilename": session.DocumentFilename,
			"error":            fillErr.Error(),
		})
		return nil, &FinalDocumentError{
			ClaimID:   session.ClaimID,
			Reference: session.DocumentFilename,
			Err:       fillErr,
		}
	}

	sc.clear(ctx, token)
	sc.notify(ctx, session.ClaimID, events.ClaimFinalized, map[string]any{
		"documentFilename": session.DocumentFilename,
		"name":             session.DisplayName,
	})

	log.Info("claim finalized", "claimID", session.ClaimID)
	return &FinalResult{
		ClaimID:          session.ClaimID,
		DocumentFilename: session.DocumentFilename,
		DocumentPath:     output,
		SignedAt:         signedAt,
	}, nil
}

// Abandon drops the session. The stored claim is left as it is.
func (sc *SubmissionController) Abandon(ctx context.Context, token string) error {
	if err := sc.sessions.Clear(ctx, token); err != nil {
		return sc.log.Function("Abandon").Err("failed to clear submission session", err)
	}
	return nil
}

// Resume returns the session so the signature step can be shown again.
func (sc *SubmissionController) Resume(ctx context.Context, token string) (*SubmissionSession, error) {
	session, err := sc.sessions.Load(ctx, token)
	if err != nil {
		return nil, sc.log.Function("Resume").Err("failed to load submission session", err)
	}
	if session == nil {
		return nil, ErrNoSession
	}
	if !session.Ready() {
		sc.clear(ctx, token)
		return nil, ErrSessionExpired
	}
	return session, nil
}

// Document returns the signed document for the claim belonging to email.
func (sc *SubmissionController) Document(ctx context.Context, email string) (*Claim, string, error) {
	claim, err := sc.claims.GetByDocumentFilename(ctx, fieldmap.DocumentFilename(email))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, "", ErrDocumentNotReady
	}
	if err != nil {
		return nil, "", sc.log.Function("Document").Err("failed to load claim", err)
	}

	if claim.Status != ClaimStatusFinal || claim.DocumentError != "" {
		return claim, "", ErrDocumentNotReady
	}

	path := sc.paths.FinalPath(claim.DocumentFilename)
	if _, err := os.Stat(path); err != nil {
		return claim, "", ErrDocumentNotReady
	}
	return claim, path, nil
}

// A draft only signs the sender in as a claimant account nobody has
// claimed with a password. Admins and password holders must log in.
func canSignInAs(user *User) bool {
	return user.Role == UserRoleClaimant && !user.HasPassword()
}

func (sc *SubmissionController) removeFinalDocument(filename string) {
	path := sc.paths.FinalPath(filename)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		sc.log.Function("removeFinalDocument").Warn("failed to remove stale document", "path", path, "error", err)
	}
}

func (sc *SubmissionController) clear(ctx context.Context, token string) {
	if err := sc.sessions.Clear(ctx, token); err != nil {
		sc.log.Function("clear").Warn("failed to clear submission session", "error", err)
	}
}

func (sc *SubmissionController) notify(ctx context.Context, claimID, eventType string, data map[string]any) {
	if sc.notifier == nil {
		return
	}
	if err := sc.notifier.InvalidateClaim(ctx, claimID, eventType, data); err != nil {
		sc.log.Function("notify").Warn("failed to publish claim change", "claimID", claimID, "type", eventType, "error", err)
	}
}
