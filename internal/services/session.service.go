package services

import (
	"context"
	"time"

	"form95/internal/database"
	"form95/internal/logger"
	. "form95/internal/models"

	"github.com/google/uuid"
)

const (
	submissionKeyPattern = "submission:%s"
	authKeyPattern       = "auth:%s"
)

func NewToken() string {
	return uuid.NewString()
}

// SubmissionSessions keeps submission context in valkey under an opaque
// token. Writes are last-write-wins.
type SubmissionSessions struct {
	cache database.CacheClient
	ttl   time.Duration
	log   logger.Logger
}

func NewSubmissionSessions(cache database.CacheClient, ttl time.Duration) *SubmissionSessions {
	return &SubmissionSessions{
		cache: cache,
		ttl:   ttl,
		log:   logger.New("SubmissionSessions"),
	}
}

func (s *SubmissionSessions) item(token string) database.CacheItem[SubmissionSession] {
	pattern := submissionKeyPattern
	return database.CacheItem[SubmissionSession]{
		Cache:       s.cache,
		Key:         token,
		Expiry:      &s.ttl,
		HashPattern: &pattern,
	}
}

// Load returns nil without error when the token has no session.
func (s *SubmissionSessions) Load(ctx context.Context, token string) (*SubmissionSession, error) {
	if token == "" {
		return nil, nil
	}

	session, found, err := s.item(token).Get(ctx)
	if err != nil {
		return nil, s.log.Function("Load").Err("failed to load submission session", err)
	}
	if !found {
		return nil, nil
	}
	return &session, nil
}

func (s *SubmissionSessions) Save(ctx context.Context, token string, session *SubmissionSession) error {
	session.UpdatedAt = time.Now().UTC()

	item := s.item(token)
	item.Value = *session
	if err := item.Set(ctx); err != nil {
		return s.log.Function("Save").Err("failed to save submission session", err, "claimID", session.ClaimID)
	}
	return nil
}

func (s *SubmissionSessions) Clear(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.item(token).Delete(ctx); err != nil {
		return s.log.Function("Clear").Err("failed to clear submission session", err)
	}
	return nil
}

type AuthSession struct {
	UserID    string    `json:"userId"`
	Role      UserRole  `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthSessions maps login tokens to users.
type AuthSessions struct {
	cache database.CacheClient
	ttl   time.Duration
	log   logger.Logger
}

func NewAuthSessions(cache database.CacheClient, ttl time.Duration) *AuthSessions {
	return &AuthSessions{
		cache: cache,
		ttl:   ttl,
		log:   logger.New("AuthSessions"),
	}
}

func (s *AuthSessions) item(token string) database.CacheItem[AuthSession] {
	pattern := authKeyPattern
	return database.CacheItem[AuthSession]{
		Cache:       s.cache,
		Key:         token,
		Expiry:      &s.ttl,
		HashPattern: &pattern,
	}
}

func (s *AuthSessions) Create(ctx context.Context, user *User) (string, error) {
	token := NewToken()

	item := s.item(token)
	item.Value = AuthSession{UserID: user.ID, Role: user.Role, CreatedAt: time.Now().UTC()}
	if err := item.Set(ctx); err != nil {
		return "", s.log.Function("Create").Err("failed to create auth session", err, "userID", user.ID)
	}
	return token, nil
}

func (s *AuthSessions) Get(ctx context.Context, token string) (*AuthSession, error) {
	if token == "" {
		return nil, nil
	}

	session, found, err := s.item(token).Get(ctx)
	if err != nil {
		return nil, s.log.Function("Get").Err("failed to load auth session", err)
	}
	if !found {
		return nil, nil
	}
	return &session, nil
}

func (s *AuthSessions) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.item(token).Delete(ctx); err != nil {
		return s.log.Function("Revoke").Err("failed to revoke auth session", err)
	}
	return nil
}
