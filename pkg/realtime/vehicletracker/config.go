package vehicletracker

import (
	"os"
	"time"
)

type Config struct {
	// MaxAge is how long a refreshed route is served from memory
	MaxAge time.Duration
	// MinimumAgeDelta is the smallest gap between samples that shifts history
	MinimumAgeDelta time.Duration
}

var defaultConfig = Config{
	MaxAge:          12 * time.Second,
	MinimumAgeDelta: 5 * time.Second,
}

// GetConfig returns the tracker configuration from environment variables or defaults
func GetConfig() Config {
	config := defaultConfig

	if val := os.Getenv("LIVETRACKER_VEHICLE_MAX_AGE"); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			config.MaxAge = parsed
		}
	}

	if val := os.Getenv("LIVETRACKER_VEHICLE_MIN_AGE_DELTA"); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			config.MinimumAgeDelta = parsed
		}
	}

	return config
}
