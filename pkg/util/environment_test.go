package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvironmentVariables(t *testing.T) {
	t.Setenv("LIVETRACKER_TEST_VALUE", "a=b")

	assert.Equal(t, "a=b", GetEnvironmentVariables()["LIVETRACKER_TEST_VALUE"])
}

func TestEnvironmentHelpers(t *testing.T) {
	env := map[string]string{
		"DURATION":     "30s",
		"BAD_DURATION": "soon",
		"INT":          "4",
		"BAD_INT":      "four",
		"STRING":       "gtfsrt",
	}

	assert.Equal(t, 30*time.Second, EnvironmentDuration(env, "DURATION", time.Second))
	assert.Equal(t, time.Second, EnvironmentDuration(env, "BAD_DURATION", time.Second))
	assert.Equal(t, time.Second, EnvironmentDuration(env, "MISSING", time.Second))

	assert.Equal(t, 4, EnvironmentInt(env, "INT", 2))
	assert.Equal(t, 2, EnvironmentInt(env, "BAD_INT", 2))

	assert.Equal(t, "gtfsrt", EnvironmentString(env, "STRING", "nextbus"))
	assert.Equal(t, "nextbus", EnvironmentString(env, "MISSING", "nextbus"))
}
