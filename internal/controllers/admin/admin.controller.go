package adminController

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"form95/internal/document"
	"form95/internal/events"
	"form95/internal/fieldmap"
	"form95/internal/logger"
	. "form95/internal/models"
	"form95/internal/repositories"
	"form95/internal/utils"
)

// ErrInvalidInput wraps edits rejected before anything is written.
var ErrInvalidInput = errors.New("invalid claim input")

type Notifier interface {
	InvalidateClaim(ctx context.Context, claimID, eventType string, data map[string]any) error
}

type AdminController struct {
	claims   repositories.ClaimRepository
	mapper   *fieldmap.Mapper
	filler   document.Filler
	notifier Notifier
	paths    document.Paths
	dates    *utils.DateParser
	log      logger.Logger
}

func New(
	claims repositories.ClaimRepository,
	mapper *fieldmap.Mapper,
	filler document.Filler,
	notifier Notifier,
	paths document.Paths,
) *AdminController {
	return &AdminController{
		claims:   claims,
		mapper:   mapper,
		filler:   filler,
		notifier: notifier,
		paths:    paths,
		dates:    utils.NewDateParser(),
		log:      logger.New("AdminController"),
	}
}

type EditResult struct {
	Claim         *Claim                `json:"claim"`
	Diagnostics   []fieldmap.Diagnostic `json:"diagnostics"`
	DocumentError string                `json:"documentError,omitempty"`
}

func (c *AdminController) List(ctx context.Context, filter repositories.ClaimFilter) ([]*Claim, int64, error) {
	log := c.log.Function("List")

	claims, err := c.claims.List(ctx, filter)
	if err != nil {
		return nil, 0, log.Err("failed to list claims", err)
	}

	countFilter := filter
	countFilter.Limit, countFilter.Offset = 0, 0
	total, err := c.claims.Count(ctx, countFilter)
	if err != nil {
		return nil, 0, log.Err("failed to count claims", err)
	}

	return claims, total, nil
}

func (c *AdminController) Get(ctx context.Context, id string) (*Claim, error) {
	return c.claims.GetByID(ctx, id)
}

// stage picks final mapping for signed claims so signature fields are
// kept; unsigned claims map as drafts.
func stage(claim *Claim) fieldmap.Stage {
	if claim.Signature != "" {
		return fieldmap.StageFinal
	}
	return fieldmap.StageDraft
}

// Edit merges raw over the stored claim and runs the result through the
// mapper, so defaults, normalization and the total are applied exactly as
// for a submission. Keys left out of raw keep their stored value.
func (c *AdminController) Edit(ctx context.Context, id string, raw map[string]string, regenerate bool) (*EditResult, error) {
	log := c.log.Function("Edit")

	claim, err := c.claims.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousFilename := claim.DocumentFilename

	input := claim.Input()
	for key, value := range raw {
		input[key] = value
	}

	if email := strings.TrimSpace(input[fieldmap.InputEmail]); !fieldmap.ValidEmail(email) {
		log.Info("edit rejected", "id", id, "email", email)
		return nil, fmt.Errorf("%w: email address is not valid", ErrInvalidInput)
	}

	claim.ApplyIdentity(input)
	if claim.DocumentFilename != previousFilename {
		other, err := c.claims.GetByDocumentFilename(ctx, claim.DocumentFilename)
		switch {
		case err == nil && other.ID != claim.ID:
			log.Info("edit rejected", "id", id, "documentFilename", claim.DocumentFilename, "conflictID", other.ID)
			return nil, fmt.Errorf("%w: another claim already uses this email address", ErrInvalidInput)
		case err != nil && !errors.Is(err, repositories.ErrNotFound):
			return nil, log.Err("failed to check document filename", err, "id", id)
		}
	}
	claim.Signature = strings.Join(strings.Fields(input[fieldmap.InputSignature]), " ")
	if value, ok := raw[fieldmap.InputDateSigned]; ok {
		signedAt, err := c.parseSignedAt(value)
		if err != nil {
			log.Info("edit rejected", "id", id, "dateSigned", value)
			return nil, fmt.Errorf("%w: date signed: %v", ErrInvalidInput, err)
		}
		claim.SignedAt = signedAt
	}
	if claim.Signature == "" {
		claim.SignedAt = nil
	}

	mapped := c.mapper.Map(input, stage(claim), nil)
	claim.ApplyFieldMap(mapped.Map)

	if err := c.claims.Save(ctx, claim); err != nil {
		return nil, log.Err("failed to save claim", err, "id", id)
	}

	if previousFilename != claim.DocumentFilename {
		c.removeDocuments(previousFilename)
	}

	result := &EditResult{Claim: claim, Diagnostics: mapped.Diagnostics}
	if regenerate {
		regenerated, err := c.regenerate(ctx, claim)
		if err != nil && regenerated == nil {
			return nil, err
		}
		result.Claim = regenerated
		result.DocumentError = regenerated.DocumentError
	}

	c.notify(ctx, claim.ID, events.ClaimUpdated, map[string]any{"documentFilename": claim.DocumentFilename})
	return result, nil
}

func (c *AdminController) parseSignedAt(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, ok := c.dates.Parse(value)
	if !ok {
		return nil, errors.New("unrecognized date format")
	}
	signedAt := parsed.Time.UTC()
	return &signedAt, nil
}

// Regenerate refills the document for a stored claim without a prior
// field map. A fill failure is recorded on the claim and returned.
func (c *AdminController) Regenerate(ctx context.Context, id string) (*Claim, error) {
	claim, err := c.claims.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.regenerate(ctx, claim)
}

func (c *AdminController) regenerate(ctx context.Context, claim *Claim) (*Claim, error) {
	log := c.log.Function("regenerate")

	mapped := c.mapper.Map(claim.Input(), stage(claim), nil)

	output := c.paths.PreviewPath(claim.DocumentFilename)
	if claim.Status == ClaimStatusFinal {
		output = c.paths.FinalPath(claim.DocumentFilename)
	}

	_, fillErr := c.filler.Fill(ctx, mapped.Map, c.paths.Template, output)

	claim.DocumentError = ""
	if fillErr != nil {
		claim.DocumentError = fillErr.Error()
	}
	if err := c.claims.Save(ctx, claim); err != nil {
		return nil, log.Err("failed to record regeneration", err, "id", claim.ID)
	}

	c.notify(ctx, claim.ID, events.ClaimRegenerated, map[string]any{
		"documentFilename": claim.DocumentFilename,
		"documentError":    claim.DocumentError,
	})

	if fillErr != nil {
		log.Er("document regeneration failed", fillErr, "id", claim.ID)
		return claim, fillErr
	}

	log.Info("document regenerated", "id", claim.ID, "output", output)
	return claim, nil
}

// Delete removes the claim row and any generated documents.
func (c *AdminController) Delete(ctx context.Context, id string) error {
	log := c.log.Function("Delete")

	claim, err := c.claims.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := c.claims.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		return log.Err("failed to delete claim", err, "id", id)
	}

	c.removeDocuments(claim.DocumentFilename)
	c.notify(ctx, id, events.ClaimDeleted, map[string]any{"documentFilename": claim.DocumentFilename})
	return nil
}

func (c *AdminController) removeDocuments(filename string) {
	if filename == "" {
		return
	}
	for _, path := range []string{c.paths.FinalPath(filename), c.paths.PreviewPath(filename)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			c.log.Function("removeDocuments").Warn("failed to remove document", "path", path, "error", err)
		}
	}
}

func (c *AdminController) notify(ctx context.Context, claimID, eventType string, data map[string]any) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.InvalidateClaim(ctx, claimID, eventType, data); err != nil {
		c.log.Function("notify").Warn("failed to publish claim change", "claimID", claimID, "type", eventType, "error", err)
	}
}
