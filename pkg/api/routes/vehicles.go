package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/liip/sheriff"
	"github.com/rs/zerolog/log"
)

func VehiclesRouter(router fiber.Router, engine Engine) {
	router.Get("/", func(c *fiber.Ctx) error {
		return listVehicles(c, engine)
	})
}

func listVehicles(c *fiber.Ctx, engine Engine) error {
	route, err := getRequiredQuery(c, "route")
	if err != nil {
		return sendError(c, fiber.StatusBadRequest, err.Error())
	}

	vehicles, err := engine.GetVehicles(c.Context(), route)
	if err != nil {
		if isUnknownIdentifier(err) {
			return sendError(c, fiber.StatusNotFound, "Could not find Route matching Route Identifier")
		}

		log.Error().Err(err).Str("route", route).Msg("Serving empty vehicle list")
	}

	groups := []string{"basic"}
	if c.QueryBool("detailed") {
		groups = append(groups, "detailed")
	}

	vehiclesReduced, err := sheriff.Marshal(&sheriff.Options{
		Groups: groups,
	}, vehicles)
	if err != nil {
		return sendError(c, fiber.StatusInternalServerError, "Sherrif could not reduce vehicles")
	}

	return c.JSON(vehiclesReduced)
}
