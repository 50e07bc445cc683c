package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/travigo/livetracker/pkg/api/routes"
)

func NewApp(engine routes.Engine) *fiber.App {
	webApp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	webApp.Use(NewLogger())

	webApp.Get("version", routes.APIVersion)
	webApp.Get("health", routes.Health)

	routes.VehiclesRouter(webApp.Group("/vehicles"), engine)
	routes.PathsRouter(webApp.Group("/paths"), engine)
	routes.ArrivalsRouter(webApp.Group("/arrivals"), engine)
	routes.RouteListRouter(webApp.Group("/routes"), engine)

	return webApp
}

func SetupServer(listen string, engine routes.Engine) error {
	return NewApp(engine).Listen(listen)
}
