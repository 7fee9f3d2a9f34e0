package challenge

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/parislaw/stepchase/internal/middleware"
	"github.com/parislaw/stepchase/internal/models"
	"github.com/parislaw/stepchase/internal/verify"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Dashboard(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": true, "message": "Invalid user ID"})
	}

	resp, err := h.svc.Dashboard(c.UserContext(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": true, "message": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to load dashboard"})
	}

	return c.JSON(resp)
}

func (h *Handler) Leaderboard(c *fiber.Ctx) error {
	resp, err := h.svc.Leaderboard(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to load leaderboard"})
	}
	return c.JSON(resp)
}

// Submit accepts today's step screenshot as a base64 data URI.
func (h *Handler) Submit(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": true, "message": "Invalid user ID"})
	}

	var req SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Invalid request body"})
	}
	if req.PhotoDataURI == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "photoDataUri is required"})
	}
	if len(req.PhotoDataURI) > 6*1024*1024 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Image too large. Maximum 6MB encoded."})
	}

	return h.runSubmission(c, userID, req.PhotoDataURI)
}

// SubmitUpload is the multipart variant: the file is converted to a
// data URI server-side and fed to the same pipeline.
func (h *Handler) SubmitUpload(c *fiber.Ctx) error {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": true, "message": "Invalid user ID"})
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Image file is required"})
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/jpeg") && !strings.HasPrefix(contentType, "image/png") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Only JPEG and PNG images are supported"})
	}
	if file.Size > 4*1024*1024 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "Image too large. Maximum 4MB."})
	}

	f, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to read image"})
	}
	defer f.Close()

	fileBytes, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to read image data"})
	}

	dataURI := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(fileBytes)
	return h.runSubmission(c, userID, dataURI)
}

func (h *Handler) runSubmission(c *fiber.Ctx, userID, photoDataURI string) error {
	day := h.svc.CurrentDay()
	if day < 1 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "The challenge has not started yet"})
	}
	if day > models.ChallengeDays {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": "The challenge has ended"})
	}

	result, err := h.svc.Submit(c.UserContext(), userID, day, photoDataURI)
	if err != nil {
		switch {
		case errors.Is(err, verify.ErrInvalidImage):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": true, "message": err.Error()})
		case errors.Is(err, ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": true, "message": "User not found"})
		case errors.Is(err, ErrDayNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": true, "message": "Day not found"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to record submission"})
		}
	}

	// Rejections still return the raw verification payloads with 200 so
	// the client can display the reason.
	return c.JSON(result)
}

// =============================================================================
// AdminHandler
// =============================================================================

type AdminHandler struct {
	svc *Service
}

func NewAdminHandler(svc *Service) *AdminHandler {
	return &AdminHandler{svc: svc}
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	rows, err := h.svc.ListUsers(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": true, "message": "Failed to list users"})
	}
	return c.JSON(fiber.Map{"data": rows})
}

func (h *AdminHandler) OverrideSteps(c *fiber.Ctx) error {
	var req OverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(OverrideResponse{Success: false, Message: "Invalid request body"})
	}
	if req.UserID == "" || req.Day == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(OverrideResponse{Success: false, Message: "userId and day are required"})
	}

	err := h.svc.OverrideSteps(c.UserContext(), req.UserID, req.Day, req.Steps)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(OverrideResponse{Success: false, Message: "User not found"})
		case errors.Is(err, ErrDayNotFound):
			return c.Status(fiber.StatusNotFound).JSON(OverrideResponse{Success: false, Message: "Day not found"})
		case errors.Is(err, ErrInvalidSteps):
			return c.Status(fiber.StatusBadRequest).JSON(OverrideResponse{Success: false, Message: err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(OverrideResponse{Success: false, Message: "Failed to update steps"})
		}
	}

	return c.JSON(OverrideResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully updated steps for Day %d.", req.Day),
	})
}
