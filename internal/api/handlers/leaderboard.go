package handlers

import (
	"context"
	"errors"
	"strconv"

	"gamehub/internal/middleware"
	"gamehub/internal/models"
	"gamehub/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// HealthChecker reports readiness of a backing dependency
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// LeaderboardHandler handles score submission and ranked retrieval
type LeaderboardHandler struct {
	service   *service.LeaderboardService
	validator *validator.Validate
	health    []HealthChecker
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(service *service.LeaderboardService, health ...HealthChecker) *LeaderboardHandler {
	return &LeaderboardHandler{
		service:   service,
		validator: validator.New(),
		health:    health,
	}
}

// SubmitScore handles POST /api/v1/leaderboard/scores
func (h *LeaderboardHandler) SubmitScore(c *fiber.Ctx) error {
	var req models.SubmitScoreRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}
	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, "Validation failed", err)
	}

	resp, err := h.service.SubmitScore(c.Context(), middleware.UserID(c), req.GameID, req.Score)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPartialFailure):
			// the ledger write succeeded; report it, with rank fields
			// degraded until reconciliation catches up
			return c.Status(fiber.StatusAccepted).JSON(resp)
		case errors.Is(err, service.ErrValidation):
			return badRequest(c, "Validation failed", err)
		case errors.Is(err, service.ErrAccountNotFound):
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
				Error: "User not found",
			})
		case errors.Is(err, service.ErrAccountInactive):
			return c.Status(fiber.StatusForbidden).JSON(models.ErrorResponse{
				Error: "Account is inactive",
			})
		case errors.Is(err, service.ErrPersistence):
			return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
				Error:   "Score submission failed",
				Message: "Please retry",
			})
		}
		return internalError(c, "Score submission failed", err)
	}
	return c.JSON(resp)
}

// GetLeaderboard handles GET /api/v1/leaderboard/:game_id
func (h *LeaderboardHandler) GetLeaderboard(c *fiber.Ctx) error {
	gameID := c.Params("game_id")

	limit, err := strconv.Atoi(c.Query("limit", "10"))
	if err != nil || limit <= 0 {
		limit = 10
	}

	resp, err := h.service.GetTop(c.Context(), gameID, limit)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return badRequest(c, "Invalid game id", err)
		}
		return internalError(c, "Failed to retrieve leaderboard", err)
	}
	return c.JSON(resp)
}

// GetUserRank handles GET /api/v1/leaderboard/:game_id/rank
func (h *LeaderboardHandler) GetUserRank(c *fiber.Ctx) error {
	gameID := c.Params("game_id")

	resp, err := h.service.GetUserRank(c.Context(), middleware.UserID(c), gameID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotRanked):
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
				Error: "User not ranked yet",
			})
		case errors.Is(err, service.ErrAccountNotFound):
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
				Error: "User not found",
			})
		}
		return internalError(c, "Failed to retrieve rank", err)
	}
	return c.JSON(resp)
}

// HealthCheck handles GET /api/v1/health
func (h *LeaderboardHandler) HealthCheck(c *fiber.Ctx) error {
	for _, dep := range h.health {
		if err := dep.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
				Error:   "Health check failed",
				Message: err.Error(),
			})
		}
	}
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"message": "All systems operational",
	})
}
