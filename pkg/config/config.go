package config

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/travigo/livetracker/pkg/nextbus"
	"github.com/travigo/livetracker/pkg/util"
)

const (
	VehicleSourceNextBus = "nextbus"
	VehicleSourceGTFSRT  = "gtfsrt"
)

// Config is the process configuration, read from LIVETRACKER_ environment variables
type Config struct {
	NextBusURL        string `validate:"required,url"`
	Agency            string `validate:"required"`
	VehicleSource     string `validate:"oneof=nextbus gtfsrt"`
	GTFSRTVehiclesURL string `validate:"omitempty,url"`

	VehicleFeedTTL    time.Duration `validate:"gte=0"`
	PredictionFeedTTL time.Duration `validate:"gte=0"`
	SubwayFeedTTL     time.Duration `validate:"gte=0"`
	FetchTimeout      time.Duration `validate:"gt=0"`
	FetchRetries      int           `validate:"gte=0"`

	Snap    bool
	Predict bool

	SubwayConfigPath string
	Subway           *SubwayConfig
}

func FromEnvironment(env map[string]string) (*Config, error) {
	config := &Config{
		NextBusURL:        util.EnvironmentString(env, "LIVETRACKER_NEXTBUS_URL", nextbus.DefaultFeedURL),
		Agency:            util.EnvironmentString(env, "LIVETRACKER_AGENCY", "mbta"),
		VehicleSource:     util.EnvironmentString(env, "LIVETRACKER_VEHICLE_SOURCE", VehicleSourceNextBus),
		GTFSRTVehiclesURL: env["LIVETRACKER_GTFSRT_VEHICLES_URL"],

		VehicleFeedTTL:    util.EnvironmentDuration(env, "LIVETRACKER_VEHICLE_FEED_TTL", 5*time.Second),
		PredictionFeedTTL: util.EnvironmentDuration(env, "LIVETRACKER_PREDICTION_FEED_TTL", 30*time.Second),
		SubwayFeedTTL:     util.EnvironmentDuration(env, "LIVETRACKER_SUBWAY_FEED_TTL", 20*time.Second),
		FetchTimeout:      util.EnvironmentDuration(env, "LIVETRACKER_FETCH_TIMEOUT", 10*time.Second),
		FetchRetries:      util.EnvironmentInt(env, "LIVETRACKER_FETCH_RETRIES", 2),

		Snap:    env["LIVETRACKER_SNAP"] == "YES",
		Predict: env["LIVETRACKER_PREDICT"] == "YES",

		SubwayConfigPath: env["LIVETRACKER_SUBWAY_CONFIG"],
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, err
	}

	if config.VehicleSource == VehicleSourceGTFSRT && config.GTFSRTVehiclesURL == "" {
		return nil, errors.New("LIVETRACKER_GTFSRT_VEHICLES_URL is required for the gtfsrt vehicle source")
	}

	if config.SubwayConfigPath != "" {
		subway, err := LoadSubwayConfig(config.SubwayConfigPath)
		if err != nil {
			return nil, err
		}
		config.Subway = subway
	}

	return config, nil
}

// Load reads the configuration from the process environment
func Load() (*Config, error) {
	return FromEnvironment(util.GetEnvironmentVariables())
}
