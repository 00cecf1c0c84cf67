package middleware

import (
	"fmt"
	"log"

	"gamehub/internal/config"
	"gamehub/internal/models"
	"gamehub/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// RateLimit applies a Redis-backed fixed-window limit per client IP
// and route group. When Redis is unreachable the request is let
// through; losing rate limiting is preferable to failing all traffic.
func RateLimit(redisRepo *repository.RedisRepository, group string, cfg config.RateLimitConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		bucket := fmt.Sprintf("%s:%s", group, c.IP())

		count, err := redisRepo.IncrWindow(c.Context(), bucket, cfg.Window)
		if err != nil {
			log.Printf("⚠️  Rate limiter unavailable: %v", err)
			return c.Next()
		}

		if count > int64(cfg.Requests) {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error:   "Too many requests",
				Message: fmt.Sprintf("Limit is %d requests per %v", cfg.Requests, cfg.Window),
			})
		}
		return c.Next()
	}
}
