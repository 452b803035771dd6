package api

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter(app *fiber.App, handler *RecommendHandler) {
	// Middleware
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New())

	app.Get("/api/healthcheck", handler.Healthcheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API versioning
	v1 := app.Group("/api/v1")
	v1.Get("/retrieval", handler.Retrieval)
	v1.Get("/ranking", handler.Ranking)
}
