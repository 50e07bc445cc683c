package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

func NewLogger() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		startTime := time.Now()
		err = c.Next()

		msg := "HTTP Request"
		if err != nil {
			msg = err.Error()
		}

		code := c.Response().StatusCode()

		ipAddress := c.IP()
		if forwardedFor := c.Get(fiber.HeaderXForwardedFor, ""); forwardedFor != "" {
			ipAddress = strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
		}

		requestLogger := log.With().
			Int("status", code).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("query", string(c.Request().URI().QueryString())).
			Str("ip", ipAddress).
			Dur("latency", time.Since(startTime)).
			Logger()

		// pollers hit these every few seconds
		if code < fiber.StatusBadRequest && (c.Path() == "/vehicles" || c.Path() == "/health") {
			requestLogger.Debug().Msg(msg)
			return err
		}

		switch {
		case code >= fiber.StatusBadRequest && code < fiber.StatusInternalServerError:
			requestLogger.Warn().Msg(msg)
		case code >= http.StatusInternalServerError:
			requestLogger.Error().Msg(msg)
		default:
			requestLogger.Info().Msg(msg)
		}

		return err
	}
}
