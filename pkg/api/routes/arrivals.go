package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

func ArrivalsRouter(router fiber.Router, engine Engine) {
	router.Get("/", func(c *fiber.Ctx) error {
		stop, err := getRequiredQuery(c, "stop")
		if err != nil {
			return sendError(c, fiber.StatusBadRequest, err.Error())
		}

		arrivals, err := engine.GetArrivals(c.Context(), stop)
		if err != nil {
			if isUnknownIdentifier(err) {
				return sendError(c, fiber.StatusNotFound, "Could not find Stop matching Stop Identifier")
			}

			log.Error().Err(err).Str("stop", stop).Msg("Serving empty arrivals")
		}

		return c.JSON(arrivals)
	})
}
