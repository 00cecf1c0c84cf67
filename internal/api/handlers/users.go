package handlers

import (
	"errors"

	"gamehub/internal/middleware"
	"gamehub/internal/models"
	"gamehub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UserHandler serves profiles and avatar management
type UserHandler struct {
	service *service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(service *service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// Me handles GET /api/v1/users/me
func (h *UserHandler) Me(c *fiber.Ctx) error {
	profile, err := h.service.Profile(c.Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
				Error: "User not found",
			})
		}
		return internalError(c, "Failed to load profile", err)
	}
	return c.JSON(profile)
}

// Profile handles GET /api/v1/users/:username
func (h *UserHandler) Profile(c *fiber.Ctx) error {
	username := c.Params("username")
	if username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: "Username cannot be empty",
		})
	}

	profile, err := h.service.PublicProfile(c.Context(), username)
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
				Error: "User not found",
			})
		}
		return internalError(c, "Failed to load profile", err)
	}
	return c.JSON(profile)
}

// UpdateAvatar handles PUT /api/v1/users/me/avatar
func (h *UserHandler) UpdateAvatar(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return badRequest(c, "Missing avatar file", err)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return badRequest(c, "Unreadable avatar file", err)
	}
	defer file.Close()

	avatarURL, err := h.service.UpdateAvatar(c.Context(), middleware.UserID(c), fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return badRequest(c, "Invalid avatar", err)
		case errors.Is(err, service.ErrAccountNotFound):
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
				Error: "User not found",
			})
		}
		return internalError(c, "Failed to update avatar", err)
	}

	return c.JSON(fiber.Map{
		"message":    "avatar updated successfully.",
		"avatar_url": avatarURL,
	})
}

// RemoveAvatar handles DELETE /api/v1/users/me/avatar
func (h *UserHandler) RemoveAvatar(c *fiber.Ctx) error {
	avatarURL, err := h.service.RemoveAvatar(c.Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, service.ErrAccountNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
				Error: "User not found",
			})
		}
		return internalError(c, "Failed to remove avatar", err)
	}

	return c.JSON(fiber.Map{
		"message":    "avatar deleted successfully.",
		"avatar_url": avatarURL,
	})
}
