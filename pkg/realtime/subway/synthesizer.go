package subway

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/travigo/livetracker/pkg/config"
	"github.com/travigo/livetracker/pkg/ctdf"
	"github.com/travigo/livetracker/pkg/feedcache"
	"golang.org/x/exp/slices"
)

const trunkBranch = "Trunk"

// Synthesizer turns the subway schedule feeds into vehicles that render the
// same way as tracked buses.
type Synthesizer struct {
	Cache  *feedcache.FeedCache
	Config *config.SubwayConfig

	Location *time.Location
	TripTTL  time.Duration
	StopsTTL time.Duration

	Now func() time.Time
}

func NewSynthesizer(cache *feedcache.FeedCache, subwayConfig *config.SubwayConfig, tripTTL time.Duration) (*Synthesizer, error) {
	location, err := time.LoadLocation(subwayConfig.Timezone)
	if err != nil {
		return nil, fmt.Errorf("subway timezone: %w", err)
	}

	return &Synthesizer{
		Cache:    cache,
		Config:   subwayConfig,
		Location: location,
		TripTTL:  tripTTL,
		StopsTTL: 24 * time.Hour,
		Now:      time.Now,
	}, nil
}

func (s *Synthesizer) now() time.Time {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	if s.Location != nil {
		return now.In(s.Location)
	}

	return now
}

func (s *Synthesizer) IsSubwayLine(route string) bool {
	return s.Config.Line(route) != nil
}

func (s *Synthesizer) Lines() []config.SubwayLine {
	return s.Config.Lines
}

// Stops returns the platforms of every configured line keyed by stop id.
func (s *Synthesizer) Stops(ctx context.Context) ([]*ctdf.SubwayStop, error) {
	var payload []byte
	var err error

	if strings.HasPrefix(s.Config.StopsURL, "http://") || strings.HasPrefix(s.Config.StopsURL, "https://") {
		var result *feedcache.Result
		result, err = s.Cache.FetchValidated(ctx, s.Config.StopsURL, s.StopsTTL, ValidateStops)
		if result != nil {
			payload = result.Payload
		}
	} else {
		payload, err = os.ReadFile(s.Config.StopsURL)
	}
	if err != nil {
		return nil, err
	}

	var stops []*ctdf.SubwayStop
	if err := gocsv.UnmarshalBytes(payload, &stops); err != nil {
		return nil, fmt.Errorf("subway stops: %w", err)
	}

	return stops, nil
}

// ValidateStops accepts a stops CSV only if it decodes to at least one stop with an id.
func ValidateStops(payload []byte) error {
	var stops []*ctdf.SubwayStop
	if err := gocsv.UnmarshalBytes(payload, &stops); err != nil {
		return err
	}

	for _, stop := range stops {
		if stop.StopID != "" {
			return nil
		}
	}

	return fmt.Errorf("%w: stops file without stops", ctdf.ErrMalformedRecord)
}

func (s *Synthesizer) lineStops(ctx context.Context, line string) (map[string]*ctdf.SubwayStop, error) {
	stops, err := s.Stops(ctx)
	if err != nil {
		return nil, err
	}

	lineStops := map[string]*ctdf.SubwayStop{}
	for _, stop := range stops {
		if strings.EqualFold(stop.Line, line) {
			lineStops[stop.StopID] = stop
		}
	}

	return lineStops, nil
}

// Trips returns the trips currently running on a line.
func (s *Synthesizer) Trips(ctx context.Context, line string) (map[string]*ctdf.SubwayTrip, error) {
	lineConfig := s.Config.Line(line)
	if lineConfig == nil {
		return nil, fmt.Errorf("%w: %s", ctdf.ErrUnknownRoute, line)
	}

	result, err := s.Cache.FetchValidated(ctx, lineConfig.TripFeedURL, s.TripTTL, ValidateTripFeed)
	if err != nil {
		return nil, err
	}

	// scheduled times are absolute so a stale payload still gives waits relative to now
	events := ParseTripFeed(result.Payload, s.now())
	trips := GroupTrips(lineConfig.ID, events)

	lineStops, err := s.lineStops(ctx, lineConfig.ID)
	if err != nil {
		log.Error().Err(err).Str("line", line).Msg("Failed to load subway stops, skipping branch inference")
		return trips, nil
	}

	for _, trip := range trips {
		trip.Branch = InferBranch(trip, lineStops)
	}

	return trips, nil
}

// InferBranch names the branch of the first stop that only one branch serves.
// Direction flags in the feed are unreliable on forked lines so this wins.
func InferBranch(trip *ctdf.SubwayTrip, stops map[string]*ctdf.SubwayStop) string {
	for _, event := range trip.Events {
		stop := stops[event.StopID]
		if stop == nil || stop.Branch == "" || strings.EqualFold(stop.Branch, trunkBranch) {
			continue
		}

		return stop.Branch
	}

	return ""
}

// Vehicles builds one vehicle per trip, placed between its two soonest stops.
func (s *Synthesizer) Vehicles(ctx context.Context, line string) ([]*ctdf.SubwayVehicle, error) {
	trips, err := s.Trips(ctx, line)
	if err != nil {
		return nil, err
	}

	lineStops, err := s.lineStops(ctx, line)
	if err != nil {
		return nil, err
	}

	tripIDs := make([]string, 0, len(trips))
	for tripID := range trips {
		tripIDs = append(tripIDs, tripID)
	}
	slices.Sort(tripIDs)

	var vehicles []*ctdf.SubwayVehicle
	for _, tripID := range tripIDs {
		vehicle, err := NewVehicle(trips[tripID], lineStops)
		if err != nil {
			log.Warn().Err(err).Str("line", line).Str("trip", tripID).Msg("Skipping subway trip")
			continue
		}

		vehicles = append(vehicles, vehicle)
	}

	return vehicles, nil
}

func NewVehicle(trip *ctdf.SubwayTrip, stops map[string]*ctdf.SubwayStop) (*ctdf.SubwayVehicle, error) {
	if len(trip.Events) == 0 {
		return nil, errNoEvents
	}

	current := trip.Events[0]
	previous := current
	if len(trip.Events) > 1 {
		previous = trip.Events[1]
	}

	currentStop := stops[current.StopID]
	previousStop := stops[previous.StopID]
	if currentStop == nil {
		return nil, fmt.Errorf("%w: %s", ctdf.ErrUnknownStop, current.StopID)
	}
	if previousStop == nil {
		return nil, fmt.Errorf("%w: %s", ctdf.ErrUnknownStop, previous.StopID)
	}

	return &ctdf.SubwayVehicle{
		Trip:         trip,
		Previous:     previous,
		Current:      current,
		PreviousStop: previousStop.Stop(),
		CurrentStop:  currentStop.Stop(),
	}, nil
}

// PlatformArrivals lists the trips due at a platform, across every line that
// serves it. The boolean is false when the stop is not a subway platform.
func (s *Synthesizer) PlatformArrivals(ctx context.Context, stopID string) ([]ctdf.Arrival, bool, error) {
	stops, err := s.Stops(ctx)
	if err != nil {
		return nil, false, err
	}

	var lines []string
	for _, stop := range stops {
		if stop.StopID == stopID && !slices.Contains(lines, stop.Line) {
			lines = append(lines, stop.Line)
		}
	}
	if len(lines) == 0 {
		return nil, false, nil
	}

	var arrivals []ctdf.Arrival
	for _, line := range lines {
		lineConfig := s.Config.Line(line)
		if lineConfig == nil {
			continue
		}

		trips, err := s.Trips(ctx, line)
		if err != nil {
			log.Error().Err(err).Str("line", line).Str("stop", stopID).Msg("Failed to get subway trips for platform")
			continue
		}

		for _, trip := range trips {
			for _, event := range trip.Events {
				if event.StopID != stopID || event.WaitSeconds < 0 {
					continue
				}

				arrivals = append(arrivals, ctdf.Arrival{
					Minutes:       event.WaitSeconds / 60,
					RouteLabel:    lineConfig.DisplayLabel(),
					Headsign:      lineConfig.Headsign(trip.DirectionTag()),
					TransportType: ctdf.TransportTypeSubway,
				})
			}
		}
	}

	return arrivals, true, nil
}
