package routegeometry

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/travigo/livetracker/pkg/ctdf"
	"golang.org/x/sync/singleflight"
)

// Loader builds the geometry of a route from upstream. An empty geometry means
// the upstream had nothing for the route right now.
type Loader func(ctx context.Context, route string) (*ctdf.RouteGeometry, error)

// Store holds route geometry for the lifetime of the process. Each route is
// built at most once, only the first population is synchronised.
type Store struct {
	Loader Loader

	routesMutex sync.RWMutex
	routes      map[string]*ctdf.RouteGeometry

	inflight singleflight.Group
}

func NewStore(loader Loader) *Store {
	return &Store{
		Loader: loader,
		routes: map[string]*ctdf.RouteGeometry{},
	}
}

// Get never fails hard. On upstream failure it returns an empty geometry along
// with the error, and nothing is cached so the next call tries again.
func (s *Store) Get(ctx context.Context, route string) (*ctdf.RouteGeometry, error) {
	s.routesMutex.RLock()
	geometry := s.routes[route]
	s.routesMutex.RUnlock()

	if geometry != nil {
		return geometry, nil
	}

	flightCtx := context.WithoutCancel(ctx)

	value, err, _ := s.inflight.Do(route, func() (interface{}, error) {
		s.routesMutex.RLock()
		existing := s.routes[route]
		s.routesMutex.RUnlock()
		if existing != nil {
			return existing, nil
		}

		loaded, err := s.Loader(flightCtx, route)
		if err != nil {
			return nil, err
		}
		if loaded.IsEmpty() {
			return nil, fmt.Errorf("%w: %s", ctdf.ErrUnknownRoute, route)
		}

		s.routesMutex.Lock()
		s.routes[route] = loaded
		s.routesMutex.Unlock()

		log.Info().
			Str("route", route).
			Int("stops", len(loaded.Stops)).
			Int("directions", len(loaded.Directions)).
			Int("paths", len(loaded.Paths)).
			Msg("Loaded route geometry")

		return loaded, nil
	})
	if err != nil {
		log.Error().Err(err).Str("route", route).Msg("Route geometry temporarily unknown")
		return ctdf.NewRouteGeometry(route), err
	}

	return value.(*ctdf.RouteGeometry), nil
}

// Stop looks a stop up in an already loaded route.
func (s *Store) Stop(ctx context.Context, route string, stopTag string) (*ctdf.Stop, error) {
	geometry, err := s.Get(ctx, route)
	if err != nil {
		return nil, err
	}

	stop := geometry.Stops[stopTag]
	if stop == nil {
		return nil, fmt.Errorf("%w: %s on route %s", ctdf.ErrUnknownStop, stopTag, route)
	}

	return stop, nil
}
