package handlers

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"form95/internal/app"
	adminController "form95/internal/controllers/admin"
	"form95/internal/document"
	. "form95/internal/models"
	"form95/internal/repositories"
	"form95/internal/utils"

	"github.com/gofiber/fiber/v2"
)

const filterDateLayout = "2006-01-02"

type AdminHandler struct {
	Handler
	controller *adminController.AdminController
	paths      document.Paths
}

func NewAdminHandler(app app.App, router fiber.Router) *AdminHandler {
	return &AdminHandler{
		controller: app.AdminController,
		paths:      app.Paths,
		Handler:    newHandler(app, router, "admin_handler"),
	}
}

func (h *AdminHandler) Register() {
	admin := h.router.Group("/admin", h.middleware.RequireAdmin)

	claims := admin.Group("/claims")
	claims.Get("/", h.list)
	claims.Get("/export", h.export)
	claims.Get("/:id", h.get)
	claims.Get("/:id/document", h.document)
	claims.Put("/:id", h.edit)
	claims.Post("/:id/regenerate", h.regenerate)
	claims.Delete("/:id", h.delete)
}

// parseClaimFilter reads listing filters from the query string. Date
// bounds are whole days; the upper bound includes its day.
func parseClaimFilter(c *fiber.Ctx) (repositories.ClaimFilter, error) {
	filter := repositories.ClaimFilter{
		Name:           c.Query("name"),
		Email:          c.Query("email"),
		State:          c.Query("state"),
		EmploymentType: c.Query("employment"),
		MaritalStatus:  c.Query("marital"),
		Status:         ClaimStatus(c.Query("status")),
		Limit:          c.QueryInt("limit", 0),
		Offset:         c.QueryInt("offset", 0),
	}

	if signed := c.Query("signed"); signed != "" {
		value, err := strconv.ParseBool(signed)
		if err != nil {
			return filter, fmt.Errorf("signed: %w", err)
		}
		filter.Signed = &value
	}

	for _, bound := range []struct {
		key    string
		target **float64
	}{
		{"minTotal", &filter.MinTotal},
		{"maxTotal", &filter.MaxTotal},
	} {
		raw := strings.TrimSpace(c.Query(bound.key))
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(strings.NewReplacer("$", "", ",", "").Replace(raw), 64)
		if err != nil {
			return filter, fmt.Errorf("%s: %w", bound.key, err)
		}
		*bound.target = &value
	}

	for _, bound := range []struct {
		key    string
		target **time.Time
		end    bool
	}{
		{"signedFrom", &filter.SignedFrom, false},
		{"signedTo", &filter.SignedTo, true},
		{"createdFrom", &filter.CreatedFrom, false},
		{"createdTo", &filter.CreatedTo, true},
	} {
		raw := strings.TrimSpace(c.Query(bound.key))
		if raw == "" {
			continue
		}
		value, err := time.Parse(filterDateLayout, raw)
		if err != nil {
			return filter, fmt.Errorf("%s: %w", bound.key, err)
		}
		if bound.end {
			value = value.Add(24*time.Hour - time.Nanosecond)
		}
		*bound.target = &value
	}

	return filter, nil
}

func (h *AdminHandler) list(c *fiber.Ctx) error {
	filter, err := parseClaimFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid filter", "error": err.Error()})
	}

	claims, total, err := h.controller.List(c.UserContext(), filter)
	if err != nil {
		return h.respondError(c, err, "failed to list claims")
	}
	return c.JSON(fiber.Map{"message": "success", "claims": claims, "total": total})
}

func (h *AdminHandler) export(c *fiber.Ctx) error {
	filter, err := parseClaimFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid filter", "error": err.Error()})
	}
	filter.Limit, filter.Offset = 0, 0

	headers, rows, err := h.controller.Export(c.UserContext(), filter)
	if err != nil {
		return h.respondError(c, err, "failed to export claims")
	}

	var buf bytes.Buffer
	if err := utils.WriteCSV(c.UserContext(), &buf, headers, rows); err != nil {
		return h.respondError(c, err, "failed to export claims")
	}

	filename := fmt.Sprintf("claims_%s.csv", time.Now().UTC().Format("20060102_150405"))
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(buf.Bytes())
}

func (h *AdminHandler) get(c *fiber.Ctx) error {
	claim, err := h.controller.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err, "failed to load claim")
	}
	return c.JSON(fiber.Map{"message": "success", "claim": claim})
}

func (h *AdminHandler) document(c *fiber.Ctx) error {
	claim, err := h.controller.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err, "failed to load claim")
	}

	path := h.paths.PreviewPath(claim.DocumentFilename)
	if claim.Status == ClaimStatusFinal {
		path = h.paths.FinalPath(claim.DocumentFilename)
	}
	if _, err := os.Stat(path); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "document has not been generated"})
	}
	return c.Download(path, claim.DocumentFilename)
}

func (h *AdminHandler) edit(c *fiber.Ctx) error {
	raw, err := rawInput(c)
	if err != nil {
		h.log.Function("edit").Er("failed to parse claim edit", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "failed to parse claim edit"})
	}

	result, err := h.controller.Edit(c.UserContext(), c.Params("id"), raw, c.QueryBool("regenerate", false))
	if err != nil {
		return h.respondError(c, err, "not saved")
	}

	return c.JSON(fiber.Map{
		"message":       "success",
		"claim":         result.Claim,
		"diagnostics":   result.Diagnostics,
		"documentError": result.DocumentError,
	})
}

func (h *AdminHandler) regenerate(c *fiber.Ctx) error {
	claim, err := h.controller.Regenerate(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.respondError(c, err, "failed to regenerate document")
	}
	return c.JSON(fiber.Map{"message": "success", "claim": claim})
}

func (h *AdminHandler) delete(c *fiber.Ctx) error {
	if err := h.controller.Delete(c.UserContext(), c.Params("id")); err != nil {
		return h.respondError(c, err, "failed to delete claim")
	}
	return c.JSON(fiber.Map{"message": "success"})
}
