package util

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func GetEnvironmentVariables() map[string]string {
	environmentVariables := map[string]string{}

	for _, variable := range os.Environ() {
		pair := strings.SplitN(variable, "=", 2)

		environmentVariables[pair[0]] = pair[1]
	}

	return environmentVariables
}

// EnvironmentDuration returns the parsed duration for key, or fallback if it is unset or invalid
func EnvironmentDuration(env map[string]string, key string, fallback time.Duration) time.Duration {
	if env[key] == "" {
		return fallback
	}

	parsed, err := time.ParseDuration(env[key])
	if err != nil {
		return fallback
	}

	return parsed
}

func EnvironmentInt(env map[string]string, key string, fallback int) int {
	if env[key] == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(env[key])
	if err != nil {
		return fallback
	}

	return parsed
}

func EnvironmentString(env map[string]string, key string, fallback string) string {
	if env[key] == "" {
		return fallback
	}

	return env[key]
}
