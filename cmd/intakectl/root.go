package main

import (
	"context"
	"os"

	"form95/cmd/migration/initialize"
	"form95/config"
	"form95/internal/app"
	"form95/internal/database"
	"form95/internal/logger"

	"github.com/spf13/cobra"
)

type cli struct {
	noCache bool
	config  config.Config
	log     logger.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "intakectl",
		Short:         "Operate the SF-95 claim intake service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.InitConfig()
			if err != nil {
				return err
			}
			logger.Setup(cfg.Environment, cfg.LogLevel, cmd.ErrOrStderr())
			c.config = cfg
			c.log = logger.New("intakectl")
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "skip valkey; cached claims may stay stale until they expire")

	root.AddCommand(
		c.schemaCmd(),
		c.resetAdminCmd(),
		c.regenerateCmd(),
		c.exportCmd(),
	)
	return root
}

func (c *cli) openDB() (database.DB, error) {
	if c.noCache {
		return database.NewSQLOnly(c.config)
	}
	return database.New(c.config)
}

// openApp opens storage, brings the schema up to date and wires the
// controllers.
func (c *cli) openApp(ctx context.Context) (*app.App, error) {
	db, err := c.openDB()
	if err != nil {
		return nil, err
	}

	if err := initialize.InitializeTables(ctx, db, c.config, c.log); err != nil {
		_ = db.Close()
		return nil, err
	}

	application, err := app.Build(db, c.config)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return application, nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
