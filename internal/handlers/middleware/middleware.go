package middleware

import (
	"context"
	"time"

	"form95/config"
	"form95/internal/logger"
	. "form95/internal/models"
	"form95/internal/services"

	"github.com/gofiber/fiber/v2"
)

const (
	SubmissionCookieName = "form95_submission"
	submissionTokenKey   = "submissionToken"
	userKey              = "user"
)

type Authenticator interface {
	Current(ctx context.Context, token string) (*User, error)
}

type Middleware struct {
	Config config.Config
	auth   Authenticator
	log    logger.Logger
}

func New(config config.Config, auth Authenticator) Middleware {
	return Middleware{
		Config: config,
		auth:   auth,
		log:    logger.New("middleware"),
	}
}

// Authenticate loads the signed-in user into locals when the session
// cookie is valid. Requests without one pass through unchanged.
func (m Middleware) Authenticate(c *fiber.Ctx) error {
	token := c.Cookies(m.Config.SessionCookieName)
	if token == "" || m.auth == nil {
		return c.Next()
	}

	user, err := m.auth.Current(c.UserContext(), token)
	if err != nil {
		m.log.Function("Authenticate").Debug("session not resolved", "error", err)
		m.ClearSessionCookie(c)
		return c.Next()
	}

	c.Locals(userKey, *user)
	return c.Next()
}

func (m Middleware) RequireAuth(c *fiber.Ctx) error {
	if _, ok := CurrentUser(c); !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "not signed in"})
	}
	return c.Next()
}

func (m Middleware) RequireAdmin(c *fiber.Ctx) error {
	user, ok := CurrentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "not signed in"})
	}
	if !user.IsAdmin() {
		m.log.Function("RequireAdmin").Warn("admin route refused", "userID", user.ID, "path", c.Path())
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "forbidden"})
	}
	return c.Next()
}

// SubmissionToken gives every visitor an opaque token keying their
// submission session.
func (m Middleware) SubmissionToken(c *fiber.Ctx) error {
	token := c.Cookies(SubmissionCookieName)
	if token == "" {
		token = services.NewToken()
		c.Cookie(m.cookie(SubmissionCookieName, token, m.Config.SessionTTL))
	}
	c.Locals(submissionTokenKey, token)
	return c.Next()
}

func (m Middleware) SetSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(m.cookie(m.Config.SessionCookieName, token, m.Config.SessionTTL))
}

func (m Middleware) ClearSessionCookie(c *fiber.Ctx) {
	cookie := m.cookie(m.Config.SessionCookieName, "", 0)
	cookie.Expires = time.Unix(0, 0)
	cookie.MaxAge = -1
	c.Cookie(cookie)
}

func (m Middleware) cookie(name, value string, ttl time.Duration) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HTTPOnly: true,
		Secure:   m.Config.SecureCookies,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

func CurrentUser(c *fiber.Ctx) (User, bool) {
	user, ok := c.Locals(userKey).(User)
	if !ok || user.ID == "" {
		return User{}, false
	}
	return user, true
}

func SubmissionTokenFrom(c *fiber.Ctx) string {
	token, _ := c.Locals(submissionTokenKey).(string)
	return token
}
