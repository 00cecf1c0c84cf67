package handlers

import (
	"errors"

	"gamehub/internal/models"
	"gamehub/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles registration, verification, login and password
// reset requests
type AuthHandler struct {
	service   *service.AuthService
	validator *validator.Validate
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *service.AuthService) *AuthHandler {
	return &AuthHandler{
		service:   service,
		validator: validator.New(),
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, "Validation failed", err)
	}

	resp, err := h.service.Register(c.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateAccount) {
			return c.Status(fiber.StatusConflict).JSON(models.ErrorResponse{
				Error: "An account with these credentials already exists",
			})
		}
		return internalError(c, "Registration failed. Please try again", err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// VerifyEmail handles POST /api/v1/auth/verify-email/:code
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	err := h.service.VerifyEmail(c.Context(), c.Params("code"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCodeInvalid):
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
				Error: "Invalid verification code",
			})
		case errors.Is(err, service.ErrCodeExpired):
			return c.Status(fiber.StatusGone).JSON(models.ErrorResponse{
				Error: "Verification code has expired",
			})
		}
		return internalError(c, "Verification failed", err)
	}
	return c.JSON(fiber.Map{"message": "Email verified successfully."})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, "Validation failed", err)
	}

	resp, err := h.service.Login(c.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{
				Error: "Invalid username or password",
			})
		case errors.Is(err, service.ErrAccountInactive):
			return c.Status(fiber.StatusForbidden).JSON(models.ErrorResponse{
				Error: "Account is inactive",
			})
		}
		return internalError(c, "Login failed", err)
	}
	return c.JSON(resp)
}

// RequestPasswordReset handles POST /api/v1/auth/password-reset
func (h *AuthHandler) RequestPasswordReset(c *fiber.Ctx) error {
	var req models.PasswordResetRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, "Validation failed", err)
	}

	if err := h.service.RequestPasswordReset(c.Context(), req.Email); err != nil {
		return internalError(c, "Password reset request failed", err)
	}
	// identical response whether or not the address exists
	return c.JSON(fiber.Map{"message": "If the address is registered, a reset code has been sent."})
}

// ResetPassword handles POST /api/v1/auth/password-reset/confirm
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req models.PasswordResetConfirm
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, "Validation failed", err)
	}

	err := h.service.ResetPassword(c.Context(), req.Code, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCodeInvalid):
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
				Error: "Invalid reset code",
			})
		case errors.Is(err, service.ErrCodeExpired):
			return c.Status(fiber.StatusGone).JSON(models.ErrorResponse{
				Error: "Reset code has expired",
			})
		}
		return internalError(c, "Password reset failed", err)
	}
	return c.JSON(fiber.Map{"message": "Password updated successfully."})
}

func badRequest(c *fiber.Ctx, message string, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error:   message,
		Message: err.Error(),
	})
}

func internalError(c *fiber.Ctx, message string, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
		Error:   message,
		Message: err.Error(),
	})
}
