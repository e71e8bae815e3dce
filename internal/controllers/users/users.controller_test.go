package userController

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"form95/config"
	"form95/internal/database"
	. "form95/internal/models"
	"form95/internal/repositories"
	"form95/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memorySessions struct {
	sessions map[string]services.AuthSession
	next     int
}

func (m *memorySessions) Create(ctx context.Context, user *User) (string, error) {
	if m.sessions == nil {
		m.sessions = map[string]services.AuthSession{}
	}
	m.next++
	token := fmt.Sprintf("token-%d", m.next)
	m.sessions[token] = services.AuthSession{UserID: user.ID, Role: user.Role}
	return token, nil
}

func (m *memorySessions) Get(ctx context.Context, token string) (*services.AuthSession, error) {
	session, ok := m.sessions[token]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

func (m *memorySessions) Revoke(ctx context.Context, token string) error {
	delete(m.sessions, token)
	return nil
}

func newController(t *testing.T) (*UserController, repositories.UserRepository, *memorySessions) {
	t.Helper()

	db, err := database.NewSQLOnly(config.Config{DatabaseDbPath: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Migrate()
	require.NoError(t, err)

	users := repositories.NewUser(db)
	sessions := &memorySessions{}
	controller := New(users, sessions)
	controller.cost = bcrypt.MinCost
	return controller, users, sessions
}

func TestResetAdminAndLogin(t *testing.T) {
	controller, _, sessions := newController(t)
	ctx := context.Background()

	admin, err := controller.ResetAdmin(ctx, " Admin ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "admin", admin.Username)
	assert.True(t, admin.IsAdmin())

	user, token, err := controller.Login(ctx, "ADMIN", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, user.ID)
	assert.Contains(t, sessions.sessions, token)

	current, err := controller.Current(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, current.ID)

	require.NoError(t, controller.Logout(ctx, token))
	_, err = controller.Current(ctx, token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResetAdmin_ReplacesPassword(t *testing.T) {
	controller, _, _ := newController(t)
	ctx := context.Background()

	first, err := controller.ResetAdmin(ctx, "admin", "first password")
	require.NoError(t, err)
	second, err := controller.ResetAdmin(ctx, "admin", "second password")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, _, err = controller.Login(ctx, "admin", "first password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = controller.Login(ctx, "admin", "second password")
	assert.NoError(t, err)
}

func TestLogin_Failures(t *testing.T) {
	controller, users, _ := newController(t)
	ctx := context.Background()

	_, err := controller.ResetAdmin(ctx, "admin", "correct horse")
	require.NoError(t, err)
	_, err = users.EnsureUser(ctx, "jane@example.com", UserRoleClaimant)
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "unknown user", username: "nobody", password: "correct horse"},
		{name: "wrong password", username: "admin", password: "wrong horse"},
		{name: "user without password", username: "jane@example.com", password: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, token, err := controller.Login(ctx, tt.username, tt.password)
			assert.ErrorIs(t, err, ErrInvalidCredentials)
			assert.Empty(t, token)
		})
	}
}

func TestSetPassword(t *testing.T) {
	controller, users, _ := newController(t)
	ctx := context.Background()

	claimant, err := users.EnsureUser(ctx, "jane@example.com", UserRoleClaimant)
	require.NoError(t, err)

	assert.ErrorIs(t, controller.SetPassword(ctx, claimant.ID, "short"), ErrPasswordTooShort)
	require.NoError(t, controller.SetPassword(ctx, claimant.ID, "long enough"))

	user, _, err := controller.Login(ctx, "jane@example.com", "long enough")
	require.NoError(t, err)
	assert.False(t, user.IsAdmin())

	assert.ErrorIs(t, controller.SetPassword(ctx, "missing", "long enough"), repositories.ErrNotFound)
}

func TestStartSession(t *testing.T) {
	controller, users, _ := newController(t)
	ctx := context.Background()

	claimant, err := users.EnsureUser(ctx, "jane@example.com", UserRoleClaimant)
	require.NoError(t, err)

	token, err := controller.StartSession(ctx, claimant.ID)
	require.NoError(t, err)

	current, err := controller.Current(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", current.Username)
}

func TestStartSession_RefusesProtectedAccounts(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, users repositories.UserRepository) string
	}{
		{
			name: "admin",
			setup: func(t *testing.T, users repositories.UserRepository) string {
				admin, err := users.UpsertAdmin(context.Background(), "ops@example.com", "hash")
				require.NoError(t, err)
				return admin.ID
			},
		},
		{
			name: "claimant with a password",
			setup: func(t *testing.T, users repositories.UserRepository) string {
				claimant, err := users.EnsureUser(context.Background(), "jane@example.com", UserRoleClaimant)
				require.NoError(t, err)
				require.NoError(t, users.SetPassword(context.Background(), claimant.ID, "hash"))
				return claimant.ID
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			controller, users, _ := newController(t)
			id := tt.setup(t, users)

			token, err := controller.StartSession(context.Background(), id)
			assert.ErrorIs(t, err, ErrUnauthenticated)
			assert.Empty(t, token)
		})
	}
}
