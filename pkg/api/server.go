package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/travigo/gtfs-validator/pkg/api/routes"
	"github.com/travigo/gtfs-validator/pkg/metrics"
	"github.com/travigo/gtfs-validator/pkg/validator"
)

func NewApp(options validator.Options, maxUploadBytes int) *fiber.App {
	webApp := fiber.New(fiber.Config{
		BodyLimit:             maxUploadBytes,
		DisableStartupMessage: true,
	})
	webApp.Use(NewLogger())

	if options.Metrics == nil {
		options.Metrics = metrics.NewCollector()
	}
	webApp.Get("/metrics", adaptor.HTTPHandler(options.Metrics.Handler()))

	group := webApp.Group("/validator")

	group.Get("version", routes.APIVersion)

	routes.ValidatorRouter(group, options)

	return webApp
}

func SetupServer(listen string, options validator.Options, maxUploadBytes int) error {
	return NewApp(options, maxUploadBytes).Listen(listen)
}
