package initialize

import (
	"context"

	"form95/config"
	"form95/internal/database"
	"form95/internal/logger"
)

// InitializeTables brings the claims table up to the current column set
// and applies pending users migrations. Safe to run on every start.
func InitializeTables(ctx context.Context, db database.DB, config config.Config, log logger.Logger) error {
	log = log.Function("InitializeTables")
	log.Info("Initializing tables", "dialect", db.Dialect, "environment", config.Environment)

	added, err := database.EnsureSchema(ctx, db.SQL, db.Dialect, database.ClaimsTable())
	if err != nil {
		return log.Err("failed to ensure claims schema", err)
	}
	if len(added) > 0 {
		log.Info("Added claim columns", "columns", added)
	}

	applied, err := db.Migrate()
	if err != nil {
		return log.Err("failed to apply migrations", err)
	}

	log.Info("Table initialization complete", "migrationsApplied", applied)
	return nil
}
