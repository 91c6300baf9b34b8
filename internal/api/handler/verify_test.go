package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ticketguard/faceverify/internal/api/middleware"
	"github.com/ticketguard/faceverify/internal/domain"
)

// MockVerifier is a mock implementation of Verifier
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, userID string) (*domain.Outcome, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Outcome), args.Error(1)
}

// testLogger returns a logger that discards all output
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp(verifier Verifier) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(testLogger()),
	})
	h := NewVerifyHandler(verifier, testLogger())
	app.Post("/v1/verify/:user_id", h.Verify)
	return app
}

func TestVerifyHandler_Verify(t *testing.T) {
	t.Run("successful verification", func(t *testing.T) {
		verifier := new(MockVerifier)
		verifier.On("Verify", mock.Anything, "user-123").Return(&domain.Outcome{
			SessionID: uuid.New(),
			UserID:    "user-123",
			Verified:  true,
			Match:     &domain.MatchResult{Label: "user-123", Distance: 0.2},
			Photos:    make([]domain.CapturedPhoto, 3),
			Elapsed:   8 * time.Second,
		}, nil)

		app := newTestApp(verifier)
		req := httptest.NewRequest("POST", "/v1/verify/user-123", nil)
		resp, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		body, _ := io.ReadAll(resp.Body)
		var result VerifyResponse
		assert.NoError(t, json.Unmarshal(body, &result))
		assert.True(t, result.Verified)
		assert.Equal(t, "user-123", result.Label)
		assert.InDelta(t, 80.0, result.Similarity, 0.001)
		assert.Equal(t, 3, result.PhotoCount)
		assert.Equal(t, int64(8000), result.ElapsedMS)

		verifier.AssertExpectations(t)
	})

	t.Run("identity mismatch maps to 403", func(t *testing.T) {
		verifier := new(MockVerifier)
		verifier.On("Verify", mock.Anything, "user-123").Return(nil, domain.ErrIdentityMismatch)

		app := newTestApp(verifier)
		req := httptest.NewRequest("POST", "/v1/verify/user-123", nil)
		resp, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, 403, resp.StatusCode)

		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), "IDENTITY_MISMATCH")
	})

	t.Run("busy camera maps to 409", func(t *testing.T) {
		verifier := new(MockVerifier)
		verifier.On("Verify", mock.Anything, "user-123").Return(nil, domain.ErrCameraBusy)

		app := newTestApp(verifier)
		req := httptest.NewRequest("POST", "/v1/verify/user-123", nil)
		resp, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, 409, resp.StatusCode)
	})

	t.Run("attempt limit maps to 429", func(t *testing.T) {
		verifier := new(MockVerifier)
		verifier.On("Verify", mock.Anything, "user-123").Return(nil, domain.ErrAttemptLimit)

		app := newTestApp(verifier)
		req := httptest.NewRequest("POST", "/v1/verify/user-123", nil)
		resp, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, 429, resp.StatusCode)
	})
}

// MockInvalidator is a mock implementation of CacheInvalidator
type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) Invalidate(userID string) { m.Called(userID) }
func (m *MockInvalidator) InvalidateAll()           { m.Called() }

func TestCacheHandler(t *testing.T) {
	t.Run("invalidate single user", func(t *testing.T) {
		cache := new(MockInvalidator)
		cache.On("Invalidate", "user-123").Return()

		app := fiber.New()
		h := NewCacheHandler(cache, testLogger())
		app.Delete("/v1/cache/:user_id", h.Invalidate)

		req := httptest.NewRequest("DELETE", "/v1/cache/user-123", nil)
		resp, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, 204, resp.StatusCode)

		cache.AssertExpectations(t)
	})

	t.Run("invalidate all", func(t *testing.T) {
		cache := new(MockInvalidator)
		cache.On("InvalidateAll").Return()

		app := fiber.New()
		h := NewCacheHandler(cache, testLogger())
		app.Delete("/v1/cache", h.InvalidateAll)

		req := httptest.NewRequest("DELETE", "/v1/cache", nil)
		resp, err := app.Test(req, -1)
		assert.NoError(t, err)
		assert.Equal(t, 204, resp.StatusCode)

		cache.AssertExpectations(t)
	})
}
