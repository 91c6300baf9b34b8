package handler

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/ticketguard/faceverify/internal/domain"
)

// Verifier runs one full verification session for the claimed user.
type Verifier interface {
	Verify(ctx context.Context, userID string) (*domain.Outcome, error)
}

type VerifyHandler struct {
	verifier Verifier
	logger   *slog.Logger
}

func NewVerifyHandler(verifier Verifier, logger *slog.Logger) *VerifyHandler {
	return &VerifyHandler{
		verifier: verifier,
		logger:   logger,
	}
}

type VerifyResponse struct {
	SessionID  string  `json:"session_id"`
	UserID     string  `json:"user_id"`
	Verified   bool    `json:"verified"`
	Label      string  `json:"label,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
	ElapsedMS  int64   `json:"elapsed_ms"`
	PhotoCount int     `json:"photo_count"`
}

// Verify runs a verification session and blocks until it terminates. The
// camera admits a single session, so a concurrent request fails fast with
// CAMERA_DEVICE_BUSY.
func (h *VerifyHandler) Verify(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if userID == "" {
		return domain.ErrBadRequest
	}

	outcome, err := h.verifier.Verify(c.Context(), userID)
	if err != nil {
		return err
	}

	resp := VerifyResponse{
		SessionID:  outcome.SessionID.String(),
		UserID:     outcome.UserID,
		Verified:   outcome.Verified,
		ElapsedMS:  outcome.Elapsed.Milliseconds(),
		PhotoCount: len(outcome.Photos),
	}
	if outcome.Match != nil {
		resp.Label = outcome.Match.Label
		resp.Similarity = outcome.Match.Similarity()
	}

	h.logger.Info("verification completed",
		slog.String("user_id", outcome.UserID),
		slog.Bool("verified", outcome.Verified),
	)

	return c.JSON(resp)
}
