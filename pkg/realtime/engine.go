package realtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/travigo/livetracker/pkg/config"
	"github.com/travigo/livetracker/pkg/ctdf"
	"github.com/travigo/livetracker/pkg/feedcache"
	"github.com/travigo/livetracker/pkg/nextbus"
	"github.com/travigo/livetracker/pkg/realtime/arrivals"
	"github.com/travigo/livetracker/pkg/realtime/gtfsrt"
	"github.com/travigo/livetracker/pkg/realtime/predictions"
	"github.com/travigo/livetracker/pkg/realtime/subway"
	"github.com/travigo/livetracker/pkg/realtime/vehicletracker"
	"github.com/travigo/livetracker/pkg/routegeometry"
	"golang.org/x/exp/slices"
)

// sharedCacheExpiration bounds how old a stale fallback from Redis can be
const sharedCacheExpiration = 24 * time.Hour

// Engine is everything the request handlers need: vehicles, paths, arrivals and routes.
type Engine struct {
	Cache    *feedcache.FeedCache
	NextBus  *nextbus.Client
	Geometry *routegeometry.Store
	Tracker  *vehicletracker.Tracker
	Subway   *subway.Synthesizer
	Arrivals *arrivals.Board
}

type Route struct {
	Tag           string             `json:"tag"`
	Title         string             `json:"title"`
	TransportType ctdf.TransportType `json:"type"`
}

type DirectionView struct {
	Tag   string   `json:"tag"`
	Name  string   `json:"name"`
	Stops []string `json:"stops"`
}

// PathsView is the route geometry in the shape the map client draws
type PathsView struct {
	Route      string            `json:"route"`
	Paths      [][]ctdf.Location `json:"paths"`
	Stops      []*ctdf.Stop      `json:"stops"`
	Directions []DirectionView   `json:"directions"`
}

// NewEngine wires the engine from configuration. redisClient may be nil.
func NewEngine(cfg *config.Config, redisClient *redis.Client) (*Engine, error) {
	cache := feedcache.New(feedcache.NewHTTPFetcher(cfg.FetchTimeout, uint64(cfg.FetchRetries)))
	if redisClient != nil {
		cache.Shared = feedcache.NewSharedStore(redisClient, sharedCacheExpiration)
	}

	nextBus := nextbus.NewClient(cfg.NextBusURL, cfg.Agency, cache)
	nextBus.VehicleTTL = cfg.VehicleFeedTTL
	nextBus.PredictionTTL = cfg.PredictionFeedTTL

	geometry := routegeometry.NewStore(routegeometry.NextBusLoader(nextBus))

	var source vehicletracker.VehicleSource = nextBus
	if cfg.VehicleSource == config.VehicleSourceGTFSRT {
		source = gtfsrt.NewVehiclePositions(cfg.GTFSRTVehiclesURL, cache, cfg.VehicleFeedTTL)
	}

	tracker := vehicletracker.NewTracker(source, vehicletracker.GetConfig())
	if cfg.Predict {
		tracker.Predictor = predictions.NewMerger(nextBus, geometry)
	}
	if cfg.Snap {
		tracker.Snapper = routegeometry.NewSnapper(geometry)
	}

	engine := &Engine{
		Cache:    cache,
		NextBus:  nextBus,
		Geometry: geometry,
		Tracker:  tracker,
		Arrivals: &arrivals.Board{Bus: nextBus},
	}

	if cfg.Subway != nil {
		synthesizer, err := subway.NewSynthesizer(cache, cfg.Subway, cfg.SubwayFeedTTL)
		if err != nil {
			return nil, err
		}

		engine.Subway = synthesizer
		tracker.Subway = synthesizer
		engine.Arrivals.Subway = synthesizer
	}

	log.Info().
		Str("source", cfg.VehicleSource).
		Bool("predict", cfg.Predict).
		Bool("snap", cfg.Snap).
		Bool("subway", cfg.Subway != nil).
		Bool("shared_cache", redisClient != nil).
		Msg("Realtime engine ready")

	return engine, nil
}

func (e *Engine) isSubwayLine(route string) bool {
	return e.Subway != nil && e.Subway.IsSubwayLine(route)
}

func (e *Engine) GetVehicles(ctx context.Context, route string) ([]ctdf.VehicleView, error) {
	return e.Tracker.GetVehicles(ctx, route)
}

func (e *Engine) GetArrivals(ctx context.Context, stop string) ([]ctdf.Arrival, error) {
	return e.Arrivals.GetArrivals(ctx, stop)
}

func (e *Engine) GetPaths(ctx context.Context, route string) (*PathsView, error) {
	if e.isSubwayLine(route) {
		return e.subwayPaths(ctx, route)
	}

	geometry, err := e.Geometry.Get(ctx, route)
	if err != nil {
		return NewPathsView(geometry), err
	}

	return NewPathsView(geometry), nil
}

func NewPathsView(geometry *ctdf.RouteGeometry) *PathsView {
	view := &PathsView{
		Route:      geometry.RouteID,
		Paths:      [][]ctdf.Location{},
		Stops:      []*ctdf.Stop{},
		Directions: []DirectionView{},
	}

	for _, path := range geometry.Paths {
		view.Paths = append(view.Paths, path.Points)
	}

	for _, stopTag := range geometry.StopTags() {
		view.Stops = append(view.Stops, geometry.Stops[stopTag])
	}

	for _, directionTag := range geometry.DirectionTags() {
		direction := geometry.Directions[directionTag]
		view.Directions = append(view.Directions, DirectionView{
			Tag:   direction.Tag,
			Name:  direction.Name,
			Stops: direction.StopTags(),
		})
	}

	return view
}

// subwayPaths has no polylines, only the platforms of the line
func (e *Engine) subwayPaths(ctx context.Context, line string) (*PathsView, error) {
	geometry := ctdf.NewRouteGeometry(line)

	stops, err := e.Subway.Stops(ctx)
	if err != nil {
		return NewPathsView(geometry), err
	}

	for _, stop := range stops {
		if strings.EqualFold(stop.Line, line) {
			geometry.Stops[stop.StopID] = stop.Stop()
		}
	}

	if geometry.IsEmpty() {
		return NewPathsView(geometry), fmt.Errorf("%w: %s", ctdf.ErrUnknownRoute, line)
	}

	return NewPathsView(geometry), nil
}

// GetRoutes lists the bus routes from the feed followed by the configured subway lines.
func (e *Engine) GetRoutes(ctx context.Context) ([]Route, error) {
	routes := []Route{}

	busRoutes, err := e.NextBus.RouteList(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to get bus route list")
	}
	for _, busRoute := range busRoutes {
		routes = append(routes, Route{
			Tag:           busRoute.Tag,
			Title:         busRoute.Title,
			TransportType: ctdf.TransportTypeBus,
		})
	}

	if e.Subway != nil {
		lines := e.Subway.Lines()
		for i := range lines {
			routes = append(routes, Route{
				Tag:           lines[i].ID,
				Title:         lines[i].DisplayLabel(),
				TransportType: ctdf.TransportTypeSubway,
			})
		}
	}

	if len(routes) == 0 && err != nil {
		return routes, err
	}

	return routes, nil
}

// SortedRouteTags is used by the CLI to print a stable route listing
func SortedRouteTags(routes []Route) []string {
	tags := make([]string, 0, len(routes))
	for _, route := range routes {
		tags = append(tags, route.Tag)
	}
	slices.Sort(tags)

	return tags
}
