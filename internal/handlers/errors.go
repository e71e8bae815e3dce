package handlers

import (
	"errors"

	adminController "form95/internal/controllers/admin"
	submissionController "form95/internal/controllers/submission"
	userController "form95/internal/controllers/users"
	"form95/internal/document"
	"form95/internal/repositories"

	"github.com/gofiber/fiber/v2"
)

// respondError turns controller errors into responses. Anything not
// recognized is a 500 with fallback as the message.
func (h Handler) respondError(c *fiber.Ctx, err error, fallback string) error {
	var validation *submissionController.ValidationError
	var finalDocument *submissionController.FinalDocumentError
	var fill *document.FillError

	switch {
	case errors.As(err, &validation):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "please correct the highlighted fields",
			"fields":  validation.Fields,
			"input":   validation.Input,
		})
	case errors.Is(err, submissionController.ErrSessionExpired):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": err.Error()})
	case errors.As(err, &finalDocument):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message":      "your claim was saved but the signed form could not be generated, please contact support",
			"supportEmail": h.supportEmail,
			"reference":    finalDocument.Reference,
		})
	case errors.As(err, &fill):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message":      "the form could not be generated",
			"supportEmail": h.supportEmail,
		})
	case errors.Is(err, submissionController.ErrNoSession),
		errors.Is(err, submissionController.ErrDocumentNotReady),
		errors.Is(err, repositories.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, userController.ErrInvalidCredentials),
		errors.Is(err, userController.ErrUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, userController.ErrPasswordTooShort),
		errors.Is(err, adminController.ErrInvalidInput):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": err.Error()})
	}

	h.log.Function("respondError").Er(fallback, err, "path", c.Path())
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": fallback})
}
