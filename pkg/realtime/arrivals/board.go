package arrivals

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/livetracker/pkg/ctdf"
	"github.com/travigo/livetracker/pkg/util"
	"golang.org/x/exp/slices"
)

type BusSource interface {
	StopArrivals(ctx context.Context, stopID string) ([]ctdf.Arrival, error)
}

type PlatformSource interface {
	PlatformArrivals(ctx context.Context, stopID string) ([]ctdf.Arrival, bool, error)
}

// Board answers arrival queries for a bus stop, a subway platform, or a comma
// separated list of either (the platforms of one station).
type Board struct {
	Bus    BusSource
	Subway PlatformSource
}

type stopResult struct {
	arrivals []ctdf.Arrival
	err      error
}

func (b *Board) GetArrivals(ctx context.Context, stop string) ([]ctdf.Arrival, error) {
	requested := strings.Split(stop, ",")
	for i := range requested {
		requested[i] = strings.TrimSpace(requested[i])
	}
	stopIDs := util.RemoveDuplicateStrings(requested, nil)

	p := pool.NewWithResults[stopResult]().WithMaxGoroutines(4)
	for _, stopID := range stopIDs {
		p.Go(func() stopResult {
			arrivals, err := b.stopArrivals(ctx, stopID)
			if err != nil {
				log.Error().Err(err).Str("stop", stopID).Msg("Failed to get stop arrivals")
			}

			return stopResult{arrivals: arrivals, err: err}
		})
	}

	var arrivals []ctdf.Arrival
	var lastErr error
	failed := 0
	results := p.Wait()
	for _, result := range results {
		if result.err != nil {
			failed++
			lastErr = result.err
			continue
		}

		arrivals = append(arrivals, result.arrivals...)
	}

	SortArrivals(arrivals)

	if arrivals == nil {
		arrivals = []ctdf.Arrival{}
	}

	// partial results win over an error
	if failed > 0 && failed == len(results) {
		return arrivals, lastErr
	}

	return arrivals, nil
}

func (b *Board) stopArrivals(ctx context.Context, stopID string) ([]ctdf.Arrival, error) {
	if b.Subway != nil {
		arrivals, isPlatform, err := b.Subway.PlatformArrivals(ctx, stopID)
		if err != nil {
			log.Debug().Err(err).Str("stop", stopID).Msg("Subway platform lookup failed, trying bus feed")
		} else if isPlatform {
			return arrivals, nil
		}
	}

	return b.Bus.StopArrivals(ctx, stopID)
}

// SortArrivals orders by minutes, then route and headsign so equal times are stable.
func SortArrivals(arrivals []ctdf.Arrival) {
	slices.SortStableFunc(arrivals, func(a, b ctdf.Arrival) int {
		if a.Minutes != b.Minutes {
			return a.Minutes - b.Minutes
		}
		if cmp := strings.Compare(a.RouteLabel, b.RouteLabel); cmp != 0 {
			return cmp
		}

		return strings.Compare(a.Headsign, b.Headsign)
	})
}
