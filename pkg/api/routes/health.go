package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/travigo/livetracker/pkg/redis_client"
)

func Health(c *fiber.Ctx) error {
	if err := redis_client.Ping(c.Context()); err != nil {
		log.Error().Err(err).Msg("Health check failed")
		return c.Status(fiber.StatusInternalServerError).SendString("Redis unreachable")
	}

	return c.SendString("OK")
}
