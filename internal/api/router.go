package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/ticketguard/faceverify/internal/api/handler"
	"github.com/ticketguard/faceverify/internal/api/middleware"
	"github.com/ticketguard/faceverify/internal/camera"
	"github.com/ticketguard/faceverify/internal/provider"
	"github.com/ticketguard/faceverify/internal/refcache"
)

type Dependencies struct {
	FaceProvider provider.FaceProvider
	Camera       *camera.Resource
	RefCache     *refcache.Service
}

type Router struct {
	app           *fiber.App
	logger        *slog.Logger
	deps          *Dependencies
	cancelSweeper context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "FaceVerify Agent",
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check endpoints
	healthHandler := handler.NewHealthHandler()
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	v1 := r.app.Group("/v1")

	if r.deps != nil {
		// Reference cache sweeper
		sweepCtx, sweepCancel := context.WithCancel(context.Background())
		r.cancelSweeper = sweepCancel
		go r.deps.RefCache.Run(sweepCtx)

		verifier := NewSessionVerifier(r.deps.FaceProvider, r.deps.RefCache, r.deps.Camera, r.logger)
		verifyHandler := handler.NewVerifyHandler(verifier, r.logger)
		v1.Post("/verify/:user_id", verifyHandler.Verify)

		cacheHandler := handler.NewCacheHandler(r.deps.RefCache, r.logger)
		v1.Delete("/cache/:user_id", cacheHandler.Invalidate)
		v1.Delete("/cache", cacheHandler.InvalidateAll)
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	if r.cancelSweeper != nil {
		r.cancelSweeper()
	}

	return r.app.Shutdown()
}
