package routes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/travigo/livetracker/pkg/ctdf"
	"github.com/travigo/livetracker/pkg/realtime"
)

// Engine is the part of the realtime engine the handlers use
type Engine interface {
	GetVehicles(ctx context.Context, route string) ([]ctdf.VehicleView, error)
	GetPaths(ctx context.Context, route string) (*realtime.PathsView, error)
	GetArrivals(ctx context.Context, stop string) ([]ctdf.Arrival, error)
	GetRoutes(ctx context.Context) ([]realtime.Route, error)
}

func getRequiredQuery(c *fiber.Ctx, name string) (string, error) {
	value := strings.TrimSpace(c.Query(name))

	if value == "" {
		return "", fmt.Errorf("Parameter %s must be provided", name)
	}

	return value, nil
}

func sendError(c *fiber.Ctx, status int, message string) error {
	c.Status(status)
	return c.JSON(fiber.Map{
		"error": message,
	})
}

func isUnknownIdentifier(err error) bool {
	return errors.Is(err, ctdf.ErrUnknownRoute) || errors.Is(err, ctdf.ErrUnknownStop)
}
