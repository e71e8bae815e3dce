package userController

import (
	"context"
	"errors"
	"strings"

	"form95/internal/logger"
	. "form95/internal/models"
	"form95/internal/repositories"
	"form95/internal/services"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 8

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrUnauthenticated    = errors.New("not signed in")
)

type SessionStore interface {
	Create(ctx context.Context, user *User) (string, error)
	Get(ctx context.Context, token string) (*services.AuthSession, error)
	Revoke(ctx context.Context, token string) error
}

type UserController struct {
	users    repositories.UserRepository
	sessions SessionStore
	cost     int
	log      logger.Logger
}

func New(users repositories.UserRepository, sessions SessionStore) *UserController {
	return &UserController{
		users:    users,
		sessions: sessions,
		cost:     bcrypt.DefaultCost,
		log:      logger.New("UserController"),
	}
}

// Login checks the password and opens an auth session. Unknown users,
// users without a password and wrong passwords all fail the same way.
func (c *UserController) Login(ctx context.Context, username, password string) (*User, string, error) {
	log := c.log.Function("Login")

	username = normalizeUsername(username)
	user, err := c.users.GetByUsername(ctx, username)
	if errors.Is(err, repositories.ErrNotFound) {
		log.Info("login for unknown user", "username", username)
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", log.Err("failed to load user", err, "username", username)
	}

	if !user.HasPassword() {
		return nil, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		log.Info("login with wrong password", "username", username)
		return nil, "", ErrInvalidCredentials
	}

	token, err := c.sessions.Create(ctx, user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

func (c *UserController) Logout(ctx context.Context, token string) error {
	return c.sessions.Revoke(ctx, token)
}

// Current resolves a session token to its user.
func (c *UserController) Current(ctx context.Context, token string) (*User, error) {
	session, err := c.sessions.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrUnauthenticated
	}

	user, err := c.users.GetByID(ctx, session.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		_ = c.sessions.Revoke(ctx, token)
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// StartSession opens an auth session for a user provisioned during
// intake, who has no password yet.
// StartSession signs in a claimant without a password. Admins and accounts
// with a password only get a session through Login.
func (c *UserController) StartSession(ctx context.Context, userID string) (string, error) {
	user, err := c.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user.IsAdmin() || user.HasPassword() {
		c.log.Function("StartSession").Warn("refused passwordless session", "userID", userID, "role", user.Role)
		return "", ErrUnauthenticated
	}
	return c.sessions.Create(ctx, user)
}

func (c *UserController) SetPassword(ctx context.Context, userID, password string) error {
	log := c.log.Function("SetPassword")

	hash, err := c.hash(password)
	if err != nil {
		return err
	}
	if err := c.users.SetPassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		return log.Err("failed to set password", err, "userID", userID)
	}

	log.Info("password updated", "userID", userID)
	return nil
}

// ResetAdmin creates the admin account or replaces its password.
func (c *UserController) ResetAdmin(ctx context.Context, username, password string) (*User, error) {
	log := c.log.Function("ResetAdmin")

	username = normalizeUsername(username)
	if username == "" {
		return nil, log.Error("admin username is empty")
	}

	hash, err := c.hash(password)
	if err != nil {
		return nil, err
	}

	user, err := c.users.UpsertAdmin(ctx, username, hash)
	if err != nil {
		return nil, log.Err("failed to reset admin", err, "username", username)
	}

	log.Info("admin account reset", "username", username)
	return user, nil
}

func (c *UserController) hash(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return "", c.log.Function("hash").Err("failed to hash password", err)
	}
	return string(hash), nil
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
