package repositories

import (
	"context"
	"testing"
	"time"

	. "form95/internal/models"
	"form95/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftClaim(email, name string) *Claim {
	claim := &Claim{}
	claim.ApplyIdentity(map[string]string{
		"field2_name":  name,
		"field2_email": email,
		"field2_state": "IL",
	})
	claim.EmploymentType = "Civilian"
	claim.PersonalInjury = 90000
	claim.PropertyDamage = 0.1
	claim.WrongfulDeath = 0.2
	return claim
}

func TestClaimRepository_UpsertIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewClaim(db)
	ctx := context.Background()

	first, err := repo.Upsert(ctx, draftClaim("alice@example.com", "Alice Smith"))
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := repo.Upsert(ctx, draftClaim("ALICE@example.com", "Alice B. Smith"))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	count, err := repo.Count(ctx, ClaimFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	stored, err := repo.GetByID(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "Alice B. Smith", stored.Name)
	assert.Equal(t, "alice-example-com_SF95.pdf", stored.DocumentFilename)
	assert.Equal(t, 90000.30, stored.Total)
	assert.Equal(t, ClaimStatusDraft, stored.Status)
}

func TestClaimRepository_UpsertOverFinalClearsSignature(t *testing.T) {
	db := newTestDB(t)
	repo := NewClaim(db)
	ctx := context.Background()

	id, err := repo.Upsert(ctx, draftClaim("alice@example.com", "Alice Smith"))
	require.NoError(t, err)

	signedAt := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	_, err = repo.Update(ctx, id, map[string]any{
		"signature":      "Alice Smith",
		"signed_at":      &signedAt,
		"status":         ClaimStatusFinal,
		"document_error": "fill tool exited with status 1",
	})
	require.NoError(t, err)

	redraft := draftClaim("alice@example.com", "Mallory")
	redraft.Status = ClaimStatusFinal
	redraft.Signature = "Alice Smith"
	again, err := repo.Upsert(ctx, redraft)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	stored, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Mallory", stored.Name)
	assert.Equal(t, ClaimStatusDraft, stored.Status)
	assert.Empty(t, stored.Signature)
	assert.Nil(t, stored.SignedAt)
	assert.Empty(t, stored.DocumentError)

	signed := true
	count, err := repo.Count(ctx, ClaimFilter{Signed: &signed})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestClaimRepository_UpdateRecomputesTotal(t *testing.T) {
	db := newTestDB(t)
	repo := NewClaim(db)
	ctx := context.Background()

	id, err := repo.Upsert(ctx, draftClaim("bob@example.com", "Bob Jones"))
	require.NoError(t, err)

	updated, err := repo.Update(ctx, id, map[string]any{
		"property_damage": 1000.5,
		"total":           1.0,
	})
	require.NoError(t, err)
	assert.Equal(t, 1000.5, updated.PropertyDamage)
	assert.Equal(t, 91000.7, updated.Total)

	_, err = repo.Update(ctx, id, map[string]any{"no_such_column": "x"})
	assert.Error(t, err)

	_, err = repo.Update(ctx, "missing", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClaimRepository_UpsertInsideTransaction(t *testing.T) {
	db := newTestDB(t)
	repo := NewClaim(db)
	tx := services.NewTransactionService(db)
	ctx := context.Background()

	var id string
	err := tx.Execute(ctx, func(txCtx context.Context) error {
		var err error
		id, err = repo.Upsert(txCtx, draftClaim("carol@example.com", "Carol King"))
		return err
	})
	require.NoError(t, err)

	stored, err := repo.GetByDocumentFilename(ctx, "carol-example-com_SF95.pdf")
	require.NoError(t, err)
	assert.Equal(t, id, stored.ID)
}

func TestClaimRepository_ListFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewClaim(db)
	ctx := context.Background()

	aliceID, err := repo.Upsert(ctx, draftClaim("alice@example.com", "Alice Smith"))
	require.NoError(t, err)
	_, err = repo.Upsert(ctx, draftClaim("bob@example.com", "Bob Jones"))
	require.NoError(t, err)

	signedAt := time.Now().UTC()
	_, err = repo.Update(ctx, aliceID, map[string]any{"signature": "Alice Smith", "signed_at": &signedAt})
	require.NoError(t, err)

	signed := true
	unsigned := false
	minTotal := 90000.0
	maxTotal := 10.0

	tests := []struct {
		name     string
		filter   ClaimFilter
		expected []string
	}{
		{name: "all", filter: ClaimFilter{}, expected: []string{"Alice Smith", "Bob Jones"}},
		{name: "name substring", filter: ClaimFilter{Name: "smi"}, expected: []string{"Alice Smith"}},
		{name: "email", filter: ClaimFilter{Email: "BOB@"}, expected: []string{"Bob Jones"}},
		{name: "state", filter: ClaimFilter{State: "il"}, expected: []string{"Alice Smith", "Bob Jones"}},
		{name: "signed", filter: ClaimFilter{Signed: &signed}, expected: []string{"Alice Smith"}},
		{name: "unsigned", filter: ClaimFilter{Signed: &unsigned}, expected: []string{"Bob Jones"}},
		{name: "min total", filter: ClaimFilter{MinTotal: &minTotal}, expected: []string{"Alice Smith", "Bob Jones"}},
		{name: "max total", filter: ClaimFilter{MaxTotal: &maxTotal}, expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)

			var names []string
			for _, c := range claims {
				names = append(names, c.Name)
			}
			assert.ElementsMatch(t, tt.expected, names)
		})
	}
}

func TestClaimRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	repo := NewClaim(db)
	ctx := context.Background()

	id, err := repo.Upsert(ctx, draftClaim("dave@example.com", "Dave Lee"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, id))

	_, err = repo.GetByID(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, id), ErrNotFound)

	again, err := repo.Upsert(ctx, draftClaim("dave@example.com", "Dave Lee"))
	require.NoError(t, err)
	assert.NotEqual(t, id, again)
}
