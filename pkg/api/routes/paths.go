package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

func PathsRouter(router fiber.Router, engine Engine) {
	router.Get("/", func(c *fiber.Ctx) error {
		route, err := getRequiredQuery(c, "route")
		if err != nil {
			return sendError(c, fiber.StatusBadRequest, err.Error())
		}

		paths, err := engine.GetPaths(c.Context(), route)
		if err != nil {
			if isUnknownIdentifier(err) {
				return sendError(c, fiber.StatusNotFound, "Could not find Route matching Route Identifier")
			}

			log.Error().Err(err).Str("route", route).Msg("Serving empty paths")
		}

		return c.JSON(paths)
	})
}
