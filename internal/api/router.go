package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	swagger "github.com/go-swagno/swagno-fiber/swagger"

	"github.com/chitralai/chitralai/internal/api/docs"
	"github.com/chitralai/chitralai/internal/api/handler"
	"github.com/chitralai/chitralai/internal/api/middleware"
	"github.com/chitralai/chitralai/internal/ws"
)

// Dependencies are the services the routes are served by.
type Dependencies struct {
	Events    handler.EventService
	Attendees interface {
		handler.AttendeeService
		handler.EventResolver
	}
	Groups          handler.GroupService
	Selfies         handler.SelfieService
	ReadinessChecks []handler.ReadinessCheck
	RateLimit       middleware.RateLimiterConfig
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
	wsHub       *ws.Hub
	cancelHub   context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Chitralai API",
		// Event photo batches are large.
		BodyLimit: 200 * 1024 * 1024,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept," + middleware.HeaderUserEmail + "," + middleware.HeaderPendingAction,
	}))

	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	var checks []handler.ReadinessCheck
	if r.deps != nil {
		checks = r.deps.ReadinessChecks
	}
	healthHandler := handler.NewHealthHandler(checks...)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	v1 := r.app.Group("/v1")
	v1.Use(middleware.Session())

	if r.deps == nil {
		return
	}

	r.wsHub = ws.NewHub()
	hubCtx, hubCancel := context.WithCancel(context.Background())
	r.cancelHub = hubCancel
	go r.wsHub.Run(hubCtx)

	// Keyed by session user, so it runs after Session.
	r.rateLimiter = middleware.NewRateLimiter(r.deps.RateLimit)
	v1.Use(r.rateLimiter.Handler())

	eventHandler := handler.NewEventHandler(r.deps.Events, r.deps.Attendees, r.logger)
	matchHandler := handler.NewMatchHandler(r.deps.Attendees, r.wsHub, r.logger)
	groupHandler := handler.NewGroupHandler(r.deps.Groups, r.wsHub, r.logger)
	selfieHandler := handler.NewSelfieHandler(r.deps.Selfies, r.logger)

	// Attendee routes
	v1.Get("/events/resolve", eventHandler.Resolve)
	v1.Post("/events/:id/matches", matchHandler.Find)
	v1.Get("/events/:id/matches", middleware.RequireUser(), matchHandler.Saved)
	v1.Put("/users/me/selfie", selfieHandler.Upload)
	v1.Get("/users/me/matches", middleware.RequireUser(), matchHandler.Mine)

	// Organizer routes
	v1.Post("/events", eventHandler.Create)
	v1.Get("/events", eventHandler.List)
	v1.Get("/events/:id", eventHandler.Get)
	v1.Delete("/events/:id", eventHandler.Delete)
	v1.Post("/events/:id/access", eventHandler.GrantAccess)
	v1.Post("/events/:id/images", eventHandler.UploadImages)
	v1.Get("/events/:id/groups", groupHandler.List)

	v1.Get("/ws", middleware.RequireUser(), ws.UpgradeMiddleware(), ws.Handler(r.wsHub))
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	if r.cancelHub != nil {
		r.cancelHub()
	}
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}
	return r.app.Shutdown()
}
