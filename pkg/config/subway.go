package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type SubwayConfig struct {
	Timezone string       `yaml:"timezone" validate:"required"`
	StopsURL string       `yaml:"stops_url" validate:"required"`
	Lines    []SubwayLine `yaml:"lines" validate:"required,min=1,dive"`
}

type SubwayLine struct {
	ID          string `yaml:"id" validate:"required"`
	Label       string `yaml:"label"`
	TripFeedURL string `yaml:"trip_feed_url" validate:"required,url"`

	// Headsigns maps a branch or direction flag to the destination shown on boards
	Headsigns map[string]string `yaml:"headsigns"`
}

func (l *SubwayLine) Headsign(directionTag string) string {
	if headsign, exists := l.Headsigns[directionTag]; exists {
		return headsign
	}

	return directionTag
}

func (l *SubwayLine) DisplayLabel() string {
	if l.Label != "" {
		return l.Label
	}

	return l.ID
}

func (c *SubwayConfig) Line(id string) *SubwayLine {
	if c == nil {
		return nil
	}

	for i := range c.Lines {
		if c.Lines[i].ID == id {
			return &c.Lines[i]
		}
	}

	return nil
}

func LoadSubwayConfig(path string) (*SubwayConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return ParseSubwayConfig(data)
}

func ParseSubwayConfig(data []byte) (*SubwayConfig, error) {
	var config SubwayConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	for _, line := range config.Lines {
		if seen[line.ID] {
			return nil, fmt.Errorf("subway line %s configured twice", line.ID)
		}
		seen[line.ID] = true
	}

	return &config, nil
}
