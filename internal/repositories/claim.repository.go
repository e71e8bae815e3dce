package repositories

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"form95/internal/database"
	"form95/internal/logger"
	. "form95/internal/models"
	"form95/internal/services"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	CLAIM_CACHE_EXPIRY = 1 * time.Hour
)

// ClaimFilter narrows admin listings. Zero values match everything.
type ClaimFilter struct {
	Name           string
	Email          string
	State          string
	EmploymentType string
	MaritalStatus  string
	Status         ClaimStatus
	Signed         *bool
	MinTotal       *float64
	MaxTotal       *float64
	SignedFrom     *time.Time
	SignedTo       *time.Time
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	Limit          int
	Offset         int
}

type ClaimRepository interface {
	Upsert(ctx context.Context, claim *Claim) (string, error)
	Update(ctx context.Context, id string, fields map[string]any) (*Claim, error)
	Save(ctx context.Context, claim *Claim) error
	GetByID(ctx context.Context, id string) (*Claim, error)
	GetByDocumentFilename(ctx context.Context, filename string) (*Claim, error)
	List(ctx context.Context, filter ClaimFilter) ([]*Claim, error)
	Count(ctx context.Context, filter ClaimFilter) (int64, error)
	Delete(ctx context.Context, id string) error
}

type claimRepository struct {
	db  database.DB
	log logger.Logger
}

func NewClaim(db database.DB) ClaimRepository {
	return &claimRepository{
		db:  db,
		log: logger.New("claimRepository"),
	}
}

// Columns a repeated draft overwrites. The signature columns are included
// so a new draft over a finalized row drops the old signature.
var draftUpsertColumns = func() []string {
	skip := map[string]bool{
		"id":                true,
		"created_at":        true,
		"document_filename": true,
	}

	var columns []string
	for _, c := range database.ClaimsTable().Columns {
		if !skip[c.Name] {
			columns = append(columns, c.Name)
		}
	}
	return columns
}()

func (r *claimRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := services.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

func (r *claimRepository) inTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if tx, ok := services.GetTransaction(ctx); ok {
		return fn(tx)
	}
	return r.db.SQLWithContext(ctx).Transaction(fn)
}

// Upsert inserts the claim as a draft or, when its document filename
// already exists, overwrites that row and resets it to an unsigned draft.
// The returned id is the stored row's id either way.
func (r *claimRepository) Upsert(ctx context.Context, claim *Claim) (string, error) {
	log := r.log.Function("Upsert")

	if claim.DocumentFilename == "" {
		return "", log.Error("claim has no document filename", "email", claim.Email)
	}

	err := r.inTransaction(ctx, func(tx *gorm.DB) error {
		claim.ID = ""
		claim.Status = ClaimStatusDraft
		claim.Signature = ""
		claim.SignedAt = nil
		claim.DocumentError = ""

		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_filename"}},
			DoUpdates: clause.AssignmentColumns(draftUpsertColumns),
		}).Create(claim).Error; err != nil {
			return err
		}

		var stored Claim
		if err := tx.Where("document_filename = ?", claim.DocumentFilename).Take(&stored).Error; err != nil {
			return err
		}
		*claim = stored
		return nil
	})
	if err != nil {
		return "", log.Err("failed to upsert claim", err, "documentFilename", claim.DocumentFilename)
	}

	r.removeFromCache(ctx, claim.ID)
	return claim.ID, nil
}

// Update loads the claim, applies fields keyed by column name and saves
// it. The total is recomputed by the model on save.
func (r *claimRepository) Update(ctx context.Context, id string, fields map[string]any) (*Claim, error) {
	log := r.log.Function("Update")

	var claim Claim
	err := r.inTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&claim).Error; err != nil {
			return err
		}

		if err := applyFields(ctx, tx, &claim, fields); err != nil {
			return err
		}

		return tx.Save(&claim).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, log.Err("failed to update claim", err, "id", id)
	}

	r.addToCache(ctx, &claim)
	return &claim, nil
}

func applyFields(ctx context.Context, tx *gorm.DB, claim *Claim, fields map[string]any) error {
	stmt := &gorm.Statement{DB: tx}
	if err := stmt.Parse(claim); err != nil {
		return err
	}

	value := reflect.ValueOf(claim).Elem()
	for column, v := range fields {
		if column == "id" || column == "created_at" {
			continue
		}

		field := stmt.Schema.LookUpField(column)
		if field == nil {
			return errors.New("unknown claim column: " + column)
		}
		if err := field.Set(ctx, value, v); err != nil {
			return err
		}
	}
	return nil
}

func (r *claimRepository) Save(ctx context.Context, claim *Claim) error {
	log := r.log.Function("Save")

	if err := r.inTransaction(ctx, func(tx *gorm.DB) error {
		return tx.Save(claim).Error
	}); err != nil {
		return log.Err("failed to save claim", err, "id", claim.ID)
	}

	r.addToCache(ctx, claim)
	return nil
}

func (r *claimRepository) GetByID(ctx context.Context, id string) (*Claim, error) {
	log := r.log.Function("GetByID")

	var claim Claim
	if r.getCacheByID(ctx, id, &claim) {
		return &claim, nil
	}

	err := r.getDB(ctx).Where("id = ?", id).Take(&claim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, log.Err("failed to get claim by id", err, "id", id)
	}

	r.addToCache(ctx, &claim)
	return &claim, nil
}

func (r *claimRepository) GetByDocumentFilename(ctx context.Context, filename string) (*Claim, error) {
	log := r.log.Function("GetByDocumentFilename")

	var claim Claim
	err := r.getDB(ctx).Where("document_filename = ?", filename).Take(&claim).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, log.Err("failed to get claim by document filename", err, "documentFilename", filename)
	}

	return &claim, nil
}

func (r *claimRepository) List(ctx context.Context, filter ClaimFilter) ([]*Claim, error) {
	log := r.log.Function("List")

	query := applyClaimFilter(r.getDB(ctx).Model(&Claim{}), filter).Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var claims []*Claim
	if err := query.Find(&claims).Error; err != nil {
		return nil, log.Err("failed to list claims", err, "filter", filter)
	}

	return claims, nil
}

func (r *claimRepository) Count(ctx context.Context, filter ClaimFilter) (int64, error) {
	log := r.log.Function("Count")

	var count int64
	if err := applyClaimFilter(r.getDB(ctx).Model(&Claim{}), filter).Count(&count).Error; err != nil {
		return 0, log.Err("failed to count claims", err, "filter", filter)
	}

	return count, nil
}

func applyClaimFilter(query *gorm.DB, filter ClaimFilter) *gorm.DB {
	like := func(query *gorm.DB, column, value string) *gorm.DB {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			return query
		}
		return query.Where("LOWER("+column+") LIKE ?", "%"+value+"%")
	}

	query = like(query, "name", filter.Name)
	query = like(query, "email", filter.Email)
	query = like(query, "employment_type", filter.EmploymentType)
	query = like(query, "marital_status", filter.MaritalStatus)

	if state := strings.TrimSpace(filter.State); state != "" {
		query = query.Where("UPPER(state) = ?", strings.ToUpper(state))
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Signed != nil {
		if *filter.Signed {
			query = query.Where("signature <> '' AND signed_at IS NOT NULL")
		} else {
			query = query.Where("signature = '' OR signature IS NULL OR signed_at IS NULL")
		}
	}
	if filter.MinTotal != nil {
		query = query.Where("total >= ?", *filter.MinTotal)
	}
	if filter.MaxTotal != nil {
		query = query.Where("total <= ?", *filter.MaxTotal)
	}
	if filter.SignedFrom != nil {
		query = query.Where("signed_at >= ?", *filter.SignedFrom)
	}
	if filter.SignedTo != nil {
		query = query.Where("signed_at <= ?", *filter.SignedTo)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	return query
}

func (r *claimRepository) Delete(ctx context.Context, id string) error {
	log := r.log.Function("Delete")

	result := r.getDB(ctx).Where("id = ?", id).Delete(&Claim{})
	if result.Error != nil {
		return log.Err("failed to delete claim", result.Error, "id", id)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	r.removeFromCache(ctx, id)
	return nil
}

func (r *claimRepository) getCacheByID(ctx context.Context, id string, claim *Claim) bool {
	if r.db.Cache.General == nil {
		return false
	}

	found, err := database.NewCacheBuilder(r.db.Cache.General, services.ClaimCacheKey(id)).
		WithContext(ctx).
		Get(claim)
	if err != nil {
		r.log.Function("getCacheByID").Warn("failed to get claim from cache", "id", id, "error", err)
		return false
	}

	return found
}

func (r *claimRepository) addToCache(ctx context.Context, claim *Claim) {
	if r.db.Cache.General == nil {
		return
	}
	// A write inside an open transaction may still roll back.
	if _, ok := services.GetTransaction(ctx); ok {
		r.removeFromCache(ctx, claim.ID)
		return
	}

	if err := database.NewCacheBuilder(r.db.Cache.General, services.ClaimCacheKey(claim.ID)).
		WithStruct(claim).
		WithTTL(CLAIM_CACHE_EXPIRY).
		WithContext(ctx).
		Set(); err != nil {
		r.log.Function("addToCache").Warn("failed to add claim to cache", "id", claim.ID, "error", err)
	}
}

func (r *claimRepository) removeFromCache(ctx context.Context, id string) {
	if r.db.Cache.General == nil || id == "" {
		return
	}

	if err := database.NewCacheBuilder(r.db.Cache.General, services.ClaimCacheKey(id)).
		WithContext(ctx).
		Delete(); err != nil {
		r.log.Function("removeFromCache").Warn("failed to remove claim from cache", "id", id, "error", err)
	}
}
