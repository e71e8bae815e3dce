package handlers

import (
	"form95/internal/app"
	submissionController "form95/internal/controllers/submission"
	userController "form95/internal/controllers/users"
	"form95/internal/handlers/middleware"

	"github.com/gofiber/fiber/v2"
)

type SubmissionHandler struct {
	Handler
	controller *submissionController.SubmissionController
	users      *userController.UserController
}

func NewSubmissionHandler(app app.App, router fiber.Router) *SubmissionHandler {
	return &SubmissionHandler{
		controller: app.SubmissionController,
		users:      app.UserController,
		Handler:    newHandler(app, router, "submission_handler"),
	}
}

func (h *SubmissionHandler) Register() {
	submissions := h.router.Group("/submissions", h.middleware.SubmissionToken)
	submissions.Post("/draft", h.draft)
	submissions.Get("/current", h.current)
	submissions.Post("/finalize", h.finalize)
	submissions.Post("/abandon", h.abandon)

	submissions.Get("/document", h.middleware.RequireAuth, h.document)
}

func (h *SubmissionHandler) draft(c *fiber.Ctx) error {
	log := h.log.Function("draft")

	raw, err := rawInput(c)
	if err != nil {
		log.Er("failed to parse draft", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "failed to parse submission"})
	}

	result, err := h.controller.SubmitDraft(c.UserContext(), middleware.SubmissionTokenFrom(c), raw)
	if err != nil {
		return h.respondError(c, err, "not saved")
	}

	// The claimant is signed in so the signed form can be downloaded later.
	// Accounts that are protected by a password come back without a user id.
	if result.UserID != "" {
		if token, err := h.users.StartSession(c.UserContext(), result.UserID); err != nil {
			log.Warn("failed to start claimant session", "userID", result.UserID, "error", err)
		} else {
			h.middleware.SetSessionCookie(c, token)
		}
	}

	response := fiber.Map{
		"message":          "success",
		"claimId":          result.ClaimID,
		"documentFilename": result.DocumentFilename,
		"fieldMap":         result.FieldMap,
		"diagnostics":      result.Diagnostics,
	}
	if result.PreviewError != nil {
		response["previewError"] = "the preview could not be generated, you can still sign"
	}
	return c.JSON(response)
}

func (h *SubmissionHandler) current(c *fiber.Ctx) error {
	session, err := h.controller.Resume(c.UserContext(), middleware.SubmissionTokenFrom(c))
	if err != nil {
		return h.respondError(c, err, "failed to load submission")
	}
	return c.JSON(fiber.Map{"message": "success", "session": session})
}

func (h *SubmissionHandler) finalize(c *fiber.Ctx) error {
	raw, err := rawInput(c)
	if err != nil {
		h.log.Function("finalize").Er("failed to parse signature", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "failed to parse submission"})
	}

	result, err := h.controller.Finalize(c.UserContext(), middleware.SubmissionTokenFrom(c), raw)
	if err != nil {
		return h.respondError(c, err, "not saved")
	}

	return c.JSON(fiber.Map{"message": "success", "result": result})
}

func (h *SubmissionHandler) abandon(c *fiber.Ctx) error {
	if err := h.controller.Abandon(c.UserContext(), middleware.SubmissionTokenFrom(c)); err != nil {
		return h.respondError(c, err, "failed to abandon submission")
	}
	return c.JSON(fiber.Map{"message": "success"})
}

func (h *SubmissionHandler) document(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)

	claim, path, err := h.controller.Document(c.UserContext(), user.Username)
	if err != nil {
		return h.respondError(c, err, "failed to load document")
	}
	return c.Download(path, claim.DocumentFilename)
}
