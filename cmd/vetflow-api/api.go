// Package main provides the Vetflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/vetflow/vetflow/pkg/orchestrator"
	"github.com/vetflow/vetflow/pkg/web"
)

type API struct {
	logger   *slog.Logger
	manager  *orchestrator.Manager
	validate *validator.Validate
}

func NewAPI(logger *slog.Logger, manager *orchestrator.Manager) *API {
	return &API{
		logger:   logger,
		manager:  manager,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.manager, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Vetflow API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.ListWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Post("/run-sync", handlers.RunWorkflowSync)
	w.Get("/:id", handlers.GetWorkflowStatus)
	w.Get("/:id/result", handlers.GetWorkflowResult)
	w.Post("/:id/cancel", handlers.CancelWorkflow)

	app.Post("/cleanup", handlers.CleanupWorkflows)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(app *fiber.App, port int) error {
	return app.Listen(":" + strconv.Itoa(port))
}
