package repositories

import (
	"context"
	"path/filepath"
	"testing"

	"form95/config"
	"form95/internal/database"

	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) database.DB {
	t.Helper()

	db, err := database.NewSQLOnly(config.Config{DatabaseDbPath: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = database.EnsureSchema(context.Background(), db.SQL, db.Dialect, database.ClaimsTable())
	require.NoError(t, err)
	_, err = db.Migrate()
	require.NoError(t, err)

	return db
}
