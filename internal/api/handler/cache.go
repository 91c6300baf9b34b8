package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// CacheInvalidator drops cached reference descriptors.
type CacheInvalidator interface {
	Invalidate(userID string)
	InvalidateAll()
}

type CacheHandler struct {
	cache  CacheInvalidator
	logger *slog.Logger
}

func NewCacheHandler(cache CacheInvalidator, logger *slog.Logger) *CacheHandler {
	return &CacheHandler{
		cache:  cache,
		logger: logger,
	}
}

func (h *CacheHandler) Invalidate(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	h.cache.Invalidate(userID)
	h.logger.Info("reference cache invalidated", slog.String("user_id", userID))
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CacheHandler) InvalidateAll(c *fiber.Ctx) error {
	h.cache.InvalidateAll()
	h.logger.Info("reference cache cleared")
	return c.SendStatus(fiber.StatusNoContent)
}
