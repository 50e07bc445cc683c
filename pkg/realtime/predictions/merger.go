package predictions

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/livetracker/pkg/ctdf"
	"golang.org/x/exp/slices"
)

const (
	DefaultBatchSize      = 50
	DefaultMinimumSeconds = 120
)

// Source returns raw predictions for a batch of stops along with the feed age.
type Source interface {
	PredictionsForStops(ctx context.Context, route string, stopTags []string) ([]ctdf.StopPrediction, time.Duration, error)
}

type GeometryProvider interface {
	Get(ctx context.Context, route string) (*ctdf.RouteGeometry, error)
}

// Merger reduces the per-stop predictions of a route to a single next stop per vehicle.
type Merger struct {
	Source   Source
	Geometry GeometryProvider

	BatchSize      int
	MinimumSeconds int
	MaxConcurrency int
}

func NewMerger(source Source, geometry GeometryProvider) *Merger {
	return &Merger{
		Source:         source,
		Geometry:       geometry,
		BatchSize:      DefaultBatchSize,
		MinimumSeconds: DefaultMinimumSeconds,
		MaxConcurrency: 4,
	}
}

// Predict returns the best next stop for every vehicle in lastKnown. Failures
// only ever remove estimates, vehicles without one are simply missing from the map.
func (m *Merger) Predict(ctx context.Context, route string, lastKnown map[string]ctdf.Location) map[string]*ctdf.NextStopEstimate {
	estimates := map[string]*ctdf.NextStopEstimate{}
	if len(lastKnown) == 0 {
		return estimates
	}

	geometry, err := m.Geometry.Get(ctx, route)
	if err != nil || geometry.IsEmpty() {
		return estimates
	}

	var predictions []ctdf.Prediction
	for _, batch := range m.fetchBatches(ctx, route, geometry.StopTags()) {
		predictions = append(predictions, batch...)
	}

	return Merge(predictions, geometry, lastKnown)
}

func (m *Merger) fetchBatches(ctx context.Context, route string, stopTags []string) [][]ctdf.Prediction {
	batchSize := m.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	p := pool.NewWithResults[[]ctdf.Prediction]()
	if m.MaxConcurrency > 0 {
		p = p.WithMaxGoroutines(m.MaxConcurrency)
	}

	for start := 0; start < len(stopTags); start += batchSize {
		batch := stopTags[start:min(start+batchSize, len(stopTags))]

		p.Go(func() []ctdf.Prediction {
			stopPredictions, age, err := m.Source.PredictionsForStops(ctx, route, batch)
			if err != nil {
				log.Error().Err(err).Str("route", route).Int("stops", len(batch)).Msg("Failed to fetch prediction batch")
				return nil
			}

			return Adjust(stopPredictions, age, m.MinimumSeconds)
		})
	}

	return p.Wait()
}

// Adjust corrects raw minute predictions for feed staleness and drops the ones
// that are too close to be reliable.
func Adjust(stopPredictions []ctdf.StopPrediction, feedAge time.Duration, minimumSeconds int) []ctdf.Prediction {
	ageSeconds := int(feedAge.Seconds())

	var predictions []ctdf.Prediction
	for _, stopPrediction := range stopPredictions {
		seconds := 60*stopPrediction.Minutes - ageSeconds
		if seconds < minimumSeconds {
			continue
		}

		predictions = append(predictions, ctdf.Prediction{
			VehicleID:    stopPrediction.VehicleID,
			StopTag:      stopPrediction.StopTag,
			DirectionTag: stopPrediction.DirectionTag,
			Seconds:      seconds,
		})
	}

	return predictions
}

// Merge keeps the soonest prediction per known vehicle. Equal ETAs go to the
// stop closest to the vehicle, which matters on loops that serve a stop twice.
func Merge(predictions []ctdf.Prediction, geometry *ctdf.RouteGeometry, lastKnown map[string]ctdf.Location) map[string]*ctdf.NextStopEstimate {
	byVehicle := map[string][]ctdf.Prediction{}
	for _, prediction := range predictions {
		if _, known := lastKnown[prediction.VehicleID]; !known {
			continue
		}
		if geometry.Stops[prediction.StopTag] == nil {
			continue
		}

		byVehicle[prediction.VehicleID] = append(byVehicle[prediction.VehicleID], prediction)
	}

	estimates := map[string]*ctdf.NextStopEstimate{}
	for vehicleID, vehiclePredictions := range byVehicle {
		location := lastKnown[vehicleID]

		slices.SortStableFunc(vehiclePredictions, func(a, b ctdf.Prediction) int {
			if a.Seconds != b.Seconds {
				return a.Seconds - b.Seconds
			}

			distanceA := location.SquaredDistance(geometry.Stops[a.StopTag].Location)
			distanceB := location.SquaredDistance(geometry.Stops[b.StopTag].Location)
			switch {
			case distanceA < distanceB:
				return -1
			case distanceA > distanceB:
				return 1
			default:
				return 0
			}
		})

		best := vehiclePredictions[0]
		estimate := &ctdf.NextStopEstimate{
			VehicleID: vehicleID,
			Seconds:   best.Seconds,
			Stop:      geometry.Stops[best.StopTag],
		}

		seen := map[string]bool{best.StopTag: true}
		for _, prediction := range vehiclePredictions[1:] {
			if seen[prediction.StopTag] {
				continue
			}
			seen[prediction.StopTag] = true

			estimate.Upcoming = append(estimate.Upcoming, ctdf.UpcomingStop{
				StopTag: prediction.StopTag,
				Minutes: prediction.Seconds / 60,
			})
		}

		estimates[vehicleID] = estimate
	}

	return estimates
}
