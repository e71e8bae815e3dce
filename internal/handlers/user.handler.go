package handlers

import (
	"form95/internal/app"
	userController "form95/internal/controllers/users"
	"form95/internal/handlers/middleware"

	"github.com/gofiber/fiber/v2"
)

type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

type PasswordRequest struct {
	Password string `json:"password" form:"password"`
}

type UserHandler struct {
	Handler
	controller *userController.UserController
}

func NewUserHandler(app app.App, router fiber.Router) *UserHandler {
	return &UserHandler{
		controller: app.UserController,
		Handler:    newHandler(app, router, "user_handler"),
	}
}

func (h *UserHandler) Register() {
	users := h.router.Group("/users")
	users.Post("/login", h.login)

	users.Get("/", h.middleware.RequireAuth, h.getUser)
	users.Post("/logout", h.logout)
	users.Post("/password", h.middleware.RequireAuth, h.setPassword)
}

func (h *UserHandler) getUser(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		h.log.Function("getUser").ErMsg("No user found in locals")
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"message": "error", "error": "failed to get user"})
	}

	return c.JSON(fiber.Map{"message": "success", "user": user})
}

func (h *UserHandler) logout(c *fiber.Ctx) error {
	if err := h.controller.Logout(c.UserContext(), c.Cookies(h.middleware.Config.SessionCookieName)); err != nil {
		h.log.Function("logout").Warn("failed to revoke session", "error", err)
	}
	h.middleware.ClearSessionCookie(c)
	return c.JSON(fiber.Map{"message": "success"})
}

func (h *UserHandler) login(c *fiber.Ctx) error {
	log := h.log.Function("login")

	var loginRequest LoginRequest
	if err := c.BodyParser(&loginRequest); err != nil {
		log.Er("failed to parse login request", err)
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"message": "failed to parse login request"})
	}

	user, token, err := h.controller.Login(c.UserContext(), loginRequest.Username, loginRequest.Password)
	if err != nil {
		return h.respondError(c, err, "login failed")
	}

	h.middleware.SetSessionCookie(c, token)
	return c.JSON(fiber.Map{"message": "success", "user": user})
}

func (h *UserHandler) setPassword(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)

	var request PasswordRequest
	if err := c.BodyParser(&request); err != nil {
		h.log.Function("setPassword").Er("failed to parse password request", err)
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"message": "failed to parse password request"})
	}

	if err := h.controller.SetPassword(c.UserContext(), user.ID, request.Password); err != nil {
		return h.respondError(c, err, "password not saved")
	}
	return c.JSON(fiber.Map{"message": "success"})
}
