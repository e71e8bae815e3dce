package handlers

import (
	"form95/internal/app"
	"form95/internal/handlers/middleware"
	"form95/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type Handler struct {
	middleware   middleware.Middleware
	log          logger.Logger
	router       fiber.Router
	supportEmail string
}

func newHandler(app app.App, router fiber.Router, file string) Handler {
	return Handler{
		middleware:   app.Middleware,
		log:          logger.New("handlers").File(file),
		router:       router,
		supportEmail: app.Config.SupportEmail,
	}
}

func Router(router fiber.Router, app *app.App) (err error) {
	router.Use(app.Middleware.Authenticate)
	setupWebSocketRoute(router, app)

	api := router.Group("/api")
	HealthHandler(api, *app)
	NewUserHandler(*app, api).Register()
	NewSubmissionHandler(*app, api).Register()
	NewAdminHandler(*app, api).Register()

	return nil
}

// The live claim feed is admin only; the role is checked before upgrade.
func setupWebSocketRoute(router fiber.Router, app *app.App) {
	router.Use("/ws", app.Middleware.RequireAdmin, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws", websocket.New(func(c *websocket.Conn) {
		app.Websocket.HandleWebSocket(c)
	}))
}
