package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

func RouteListRouter(router fiber.Router, engine Engine) {
	router.Get("/", func(c *fiber.Ctx) error {
		routes, err := engine.GetRoutes(c.Context())
		if err != nil {
			log.Error().Err(err).Msg("Serving empty route list")
		}

		return c.JSON(routes)
	})
}
