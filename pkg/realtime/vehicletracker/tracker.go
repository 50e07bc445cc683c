package vehicletracker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/livetracker/pkg/ctdf"
	"golang.org/x/exp/slices"
)

type VehicleSource interface {
	VehicleLocations(ctx context.Context, route string) ([]ctdf.VehicleSample, error)
}

type Predictor interface {
	Predict(ctx context.Context, route string, lastKnown map[string]ctdf.Location) map[string]*ctdf.NextStopEstimate
}

type Snapper interface {
	Snap(ctx context.Context, route string, location ctdf.Location) ctdf.Location
}

// SubwaySource produces subway trains from the schedule feed in place of live samples.
type SubwaySource interface {
	IsSubwayLine(route string) bool
	Vehicles(ctx context.Context, line string) ([]*ctdf.SubwayVehicle, error)
}

// Tracker keeps the two sample history of every vehicle on the routes it is
// asked about. Each route is refreshed under its own lock so a slow upstream
// for one route never holds up another.
type Tracker struct {
	Source    VehicleSource
	Predictor Predictor
	Snapper   Snapper
	Subway    SubwaySource

	Config Config
	Now    func() time.Time

	routesMutex sync.Mutex
	routes      map[string]*routeState
}

type routeState struct {
	mutex sync.Mutex

	lastRefresh time.Time
	histories   map[string]*ctdf.VehicleHistory
	vehicles    map[string]*ctdf.BusVehicle
}

func NewTracker(source VehicleSource, config Config) *Tracker {
	return &Tracker{
		Source: source,
		Config: config,
		Now:    time.Now,
		routes: map[string]*routeState{},
	}
}

func (t *Tracker) now() time.Time {
	if t.Now == nil {
		return time.Now()
	}

	return t.Now()
}

func (t *Tracker) route(route string) *routeState {
	t.routesMutex.Lock()
	defer t.routesMutex.Unlock()

	if t.routes == nil {
		t.routes = map[string]*routeState{}
	}

	state, exists := t.routes[route]
	if !exists {
		state = &routeState{
			histories: map[string]*ctdf.VehicleHistory{},
			vehicles:  map[string]*ctdf.BusVehicle{},
		}
		t.routes[route] = state
	}

	return state
}

// Refresh returns a view of every vehicle currently on the route. Within
// MaxAge of the last refresh the tracked set is reused and only the
// extrapolated positions move. On failure the result is empty but valid.
func (t *Tracker) Refresh(ctx context.Context, route string) (map[string]ctdf.VehicleView, error) {
	if t.Subway != nil && t.Subway.IsSubwayLine(route) {
		return t.refreshSubway(ctx, route)
	}

	state := t.route(route)
	state.mutex.Lock()
	defer state.mutex.Unlock()

	now := t.now()

	if state.lastRefresh.IsZero() || now.Sub(state.lastRefresh) > t.Config.MaxAge {
		if err := t.refreshBuses(ctx, route, state, now); err != nil {
			log.Error().Err(err).Str("route", route).Msg("Failed to refresh vehicles")
			return map[string]ctdf.VehicleView{}, err
		}
	}

	views := make(map[string]ctdf.VehicleView, len(state.vehicles))
	for vehicleID, vehicle := range state.vehicles {
		view := vehicle.View(now)

		if t.Snapper != nil {
			view.SetEstimatedLocation(t.Snapper.Snap(ctx, route, view.EstimatedLocation))
		}

		views[vehicleID] = view
	}

	return views, nil
}

func (t *Tracker) refreshBuses(ctx context.Context, route string, state *routeState, now time.Time) error {
	samples, err := t.Source.VehicleLocations(ctx, route)
	if err != nil {
		return err
	}

	seen := map[string]bool{}
	for _, sample := range samples {
		seen[sample.VehicleID] = true

		history, exists := state.histories[sample.VehicleID]
		if !exists {
			state.histories[sample.VehicleID] = ctdf.NewVehicleHistory(sample)
			continue
		}

		if updated, reason := UpdateHistory(history, sample, t.Config.MinimumAgeDelta); !updated {
			log.Debug().Str("route", route).Str("vehicle", sample.VehicleID).Str("reason", reason).Msg("Ignored vehicle sample")
		}
	}

	for vehicleID := range state.histories {
		if !seen[vehicleID] {
			delete(state.histories, vehicleID)
		}
	}

	state.vehicles = make(map[string]*ctdf.BusVehicle, len(state.histories))
	for vehicleID, history := range state.histories {
		state.vehicles[vehicleID] = &ctdf.BusVehicle{History: *history}
	}

	if t.Predictor != nil && len(state.vehicles) > 0 {
		lastKnown := make(map[string]ctdf.Location, len(state.histories))
		for vehicleID, history := range state.histories {
			lastKnown[vehicleID] = history.Current.Location
		}

		for vehicleID, estimate := range t.Predictor.Predict(ctx, route, lastKnown) {
			if vehicle := state.vehicles[vehicleID]; vehicle != nil {
				vehicle.NextStop = estimate
			}
		}
	}

	state.lastRefresh = now

	log.Debug().Str("route", route).Int("vehicles", len(state.vehicles)).Msg("Refreshed route vehicles")

	return nil
}

// refreshSubway always goes to the synthesizer, the schedule feed is cached one layer down.
func (t *Tracker) refreshSubway(ctx context.Context, line string) (map[string]ctdf.VehicleView, error) {
	now := t.now()

	vehicles, err := t.Subway.Vehicles(ctx, line)
	if err != nil {
		log.Error().Err(err).Str("line", line).Msg("Failed to synthesise subway vehicles")
		return map[string]ctdf.VehicleView{}, err
	}

	views := make(map[string]ctdf.VehicleView, len(vehicles))
	for _, vehicle := range vehicles {
		views[vehicle.Identifier()] = vehicle.View(now)
	}

	return views, nil
}

// GetVehicles is Refresh as a list ordered by vehicle id.
func (t *Tracker) GetVehicles(ctx context.Context, route string) ([]ctdf.VehicleView, error) {
	views, err := t.Refresh(ctx, route)

	vehicles := make([]ctdf.VehicleView, 0, len(views))
	for _, view := range views {
		vehicles = append(vehicles, view)
	}
	slices.SortFunc(vehicles, func(a, b ctdf.VehicleView) int {
		switch {
		case a.Identifier < b.Identifier:
			return -1
		case a.Identifier > b.Identifier:
			return 1
		default:
			return 0
		}
	})

	return vehicles, err
}
