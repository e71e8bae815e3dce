package database

import (
	"form95/internal/logger"

	migrate "github.com/rubenv/sql-migrate"
)

const migrationTable = "schema_migrations"

var migrations = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "0001_create_users",
			Up: []string{
				`CREATE TABLE IF NOT EXISTS users (
					id VARCHAR(64) PRIMARY KEY,
					username VARCHAR(255) NOT NULL,
					password_hash VARCHAR(255) NOT NULL DEFAULT '',
					role VARCHAR(32) NOT NULL DEFAULT 'claimant',
					created_at TIMESTAMP,
					updated_at TIMESTAMP
				)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users (username)`,
			},
			Down: []string{
				`DROP INDEX IF EXISTS idx_users_username`,
				`DROP TABLE IF EXISTS users`,
			},
		},
	},
}

// Migrate applies pending sql-migrate migrations and returns how many ran.
func (s *DB) Migrate() (int, error) {
	log := logger.New("database").File("migrations").Function("Migrate")

	sqlDB, err := s.SQL.DB()
	if err != nil {
		return 0, log.Err("failed to get database from GORM", err)
	}

	dialect := s.Dialect
	if dialect == "" {
		dialect = DialectSQLite
	}

	migrate.SetTable(migrationTable)
	applied, err := migrate.Exec(sqlDB, dialect, migrations, migrate.Up)
	if err != nil {
		return applied, log.Err("failed to apply migrations", err, "dialect", dialect)
	}

	log.Info("Applied migrations", "count", applied)
	return applied, nil
}
