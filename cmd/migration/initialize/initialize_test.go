package initialize

import (
	"context"
	"path/filepath"
	"testing"

	"form95/config"
	"form95/internal/database"
	"form95/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeTables_Idempotent(t *testing.T) {
	cfg := config.Config{DatabaseDbPath: filepath.Join(t.TempDir(), "test.db")}
	db, err := database.NewSQLOnly(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logger.New("initialize")
	require.NoError(t, InitializeTables(context.Background(), db, cfg, log))
	require.NoError(t, InitializeTables(context.Background(), db, cfg, log))

	assert.True(t, db.SQL.Migrator().HasTable("claims"))
	assert.True(t, db.SQL.Migrator().HasTable("users"))
}
