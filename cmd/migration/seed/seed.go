package seed

import (
	"context"

	"form95/config"
	"form95/internal/logger"
	. "form95/internal/models"
)

type AdminResetter interface {
	ResetAdmin(ctx context.Context, username, password string) (*User, error)
}

// Seed creates or resets the admin account when ADMIN_PASSWORD is set.
// Without a password nothing is written and an existing admin is kept.
func Seed(ctx context.Context, admins AdminResetter, config config.Config, log logger.Logger) error {
	log = log.Function("seed")

	if config.AdminPassword == "" {
		log.Info("ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	user, err := admins.ResetAdmin(ctx, config.AdminUsername, config.AdminPassword)
	if err != nil {
		return log.Err("failed to seed admin", err, "username", config.AdminUsername)
	}

	log.Info("Seeded admin", "username", user.Username)
	return nil
}
