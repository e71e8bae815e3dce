package repositories

import (
	"context"
	"errors"

	"form95/internal/database"
	"form95/internal/logger"
	. "form95/internal/models"
	"form95/internal/services"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// EnsureUser creates the user when the username is free and returns the
	// stored row either way.
	EnsureUser(ctx context.Context, username string, role UserRole) (*User, error)
	SetPassword(ctx context.Context, id, passwordHash string) error
	UpsertAdmin(ctx context.Context, username, passwordHash string) (*User, error)
}

type userRepository struct {
	db  database.DB
	log logger.Logger
}

func NewUser(db database.DB) UserRepository {
	return &userRepository{
		db:  db,
		log: logger.New("userRepository"),
	}
}

func (r *userRepository) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := services.GetTransaction(ctx); ok {
		return tx
	}
	return r.db.SQLWithContext(ctx)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.getBy(ctx, "GetByID", "id", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getBy(ctx, "GetByUsername", "username", username)
}

func (r *userRepository) getBy(ctx context.Context, function, column, value string) (*User, error) {
	var user User
	err := r.getDB(ctx).Where(column+" = ?", value).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, r.log.Function(function).Err("failed to get user", err, column, value)
	}
	return &user, nil
}

func (r *userRepository) EnsureUser(ctx context.Context, username string, role UserRole) (*User, error) {
	log := r.log.Function("EnsureUser")

	user := User{Username: username, Role: role}
	if err := r.getDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoNothing: true,
	}).Create(&user).Error; err != nil {
		return nil, log.Err("failed to create user", err, "username", username)
	}

	return r.GetByUsername(ctx, username)
}

func (r *userRepository) SetPassword(ctx context.Context, id, passwordHash string) error {
	log := r.log.Function("SetPassword")

	result := r.getDB(ctx).Model(&User{}).Where("id = ?", id).Update("password_hash", passwordHash)
	if result.Error != nil {
		return log.Err("failed to set password", result.Error, "id", id)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) UpsertAdmin(ctx context.Context, username, passwordHash string) (*User, error) {
	log := r.log.Function("UpsertAdmin")

	user := User{Username: username, PasswordHash: passwordHash, Role: UserRoleAdmin}
	if err := r.getDB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash", "role", "updated_at"}),
	}).Create(&user).Error; err != nil {
		return nil, log.Err("failed to upsert admin", err, "username", username)
	}

	return r.GetByUsername(ctx, username)
}
