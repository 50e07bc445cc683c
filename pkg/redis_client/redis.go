package redis_client

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/travigo/livetracker/pkg/util"
)

// Client is nil unless a Redis address is configured
var Client *redis.Client

const defaultConnectionPassword = ""
const defaultDatabase = 0

// Connect sets up the optional Redis client used as the shared feed cache.
func Connect() error {
	env := util.GetEnvironmentVariables()

	address := env["LIVETRACKER_REDIS_ADDRESS"]
	password := defaultConnectionPassword
	database := defaultDatabase

	if address == "" {
		log.Info().Msg("Skipping Redis setup, no address configured")
		return nil
	}

	if env["LIVETRACKER_REDIS_PASSWORD"] != "" {
		password = env["LIVETRACKER_REDIS_PASSWORD"]
	}

	if env["LIVETRACKER_REDIS_DATABASE"] != "" {
		if n, err := strconv.Atoi(env["LIVETRACKER_REDIS_DATABASE"]); err == nil {
			database = n
		} else {
			return err
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       database,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return err
	}

	Client = client

	log.Info().Str("address", address).Msg("Connected to Redis")

	return nil
}

// Ping reports whether the configured Redis is reachable. Without Redis it always succeeds.
func Ping(ctx context.Context) error {
	if Client == nil {
		return nil
	}

	return Client.Ping(ctx).Err()
}
