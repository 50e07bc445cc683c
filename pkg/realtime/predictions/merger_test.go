package predictions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/livetracker/pkg/ctdf"
)

type staticGeometry struct {
	geometry *ctdf.RouteGeometry
	err      error
}

func (s *staticGeometry) Get(ctx context.Context, route string) (*ctdf.RouteGeometry, error) {
	return s.geometry, s.err
}

type fakeSource struct {
	mutex   sync.Mutex
	batches [][]string

	predictions map[string][]ctdf.StopPrediction
	age         time.Duration
	failStop    string
}

func (f *fakeSource) PredictionsForStops(ctx context.Context, route string, stopTags []string) ([]ctdf.StopPrediction, time.Duration, error) {
	f.mutex.Lock()
	f.batches = append(f.batches, stopTags)
	f.mutex.Unlock()

	var predictions []ctdf.StopPrediction
	for _, stopTag := range stopTags {
		if stopTag == f.failStop {
			return nil, 0, errors.New("boom")
		}
		predictions = append(predictions, f.predictions[stopTag]...)
	}

	return predictions, f.age, nil
}

func testGeometry(stops ...*ctdf.Stop) *ctdf.RouteGeometry {
	geometry := ctdf.NewRouteGeometry("77")
	for _, stop := range stops {
		geometry.Stops[stop.Tag] = stop
	}

	return geometry
}

func TestAdjust(t *testing.T) {
	predictions := Adjust([]ctdf.StopPrediction{
		{StopTag: "A", VehicleID: "1", Minutes: 5},
		{StopTag: "B", VehicleID: "1", Minutes: 2},
		{StopTag: "C", VehicleID: "1", Minutes: 3},
	}, 30*time.Second, DefaultMinimumSeconds)

	require.Len(t, predictions, 2)
	assert.Equal(t, "A", predictions[0].StopTag)
	assert.Equal(t, 270, predictions[0].Seconds)
	assert.Equal(t, "C", predictions[1].StopTag)
	assert.Equal(t, 150, predictions[1].Seconds)
}

func TestMergeKeepsSoonest(t *testing.T) {
	geometry := testGeometry(
		&ctdf.Stop{Tag: "A", Location: ctdf.Location{Latitude: 42.0, Longitude: -71.0}},
		&ctdf.Stop{Tag: "B", Location: ctdf.Location{Latitude: 42.1, Longitude: -71.0}},
		&ctdf.Stop{Tag: "C", Location: ctdf.Location{Latitude: 42.2, Longitude: -71.0}},
	)

	estimates := Merge([]ctdf.Prediction{
		{VehicleID: "1", StopTag: "C", Seconds: 600},
		{VehicleID: "1", StopTag: "A", Seconds: 180},
		{VehicleID: "1", StopTag: "B", Seconds: 300},
		{VehicleID: "ghost", StopTag: "A", Seconds: 130},
		{VehicleID: "1", StopTag: "unknown", Seconds: 121},
	}, geometry, map[string]ctdf.Location{"1": {Latitude: 42.0, Longitude: -71.0}})

	require.Len(t, estimates, 1)
	estimate := estimates["1"]
	require.NotNil(t, estimate)
	assert.Equal(t, "A", estimate.Stop.Tag)
	assert.Equal(t, 180, estimate.Seconds)
	assert.Equal(t, []ctdf.UpcomingStop{{StopTag: "B", Minutes: 5}, {StopTag: "C", Minutes: 10}}, estimate.Upcoming)
}

func TestMergeTieBreaksOnDistance(t *testing.T) {
	geometry := testGeometry(
		&ctdf.Stop{Tag: "far", Location: ctdf.Location{Latitude: 42.5, Longitude: -71.0}},
		&ctdf.Stop{Tag: "near", Location: ctdf.Location{Latitude: 42.01, Longitude: -71.0}},
	)
	lastKnown := map[string]ctdf.Location{"1": {Latitude: 42.0, Longitude: -71.0}}

	for _, order := range [][]ctdf.Prediction{
		{{VehicleID: "1", StopTag: "far", Seconds: 240}, {VehicleID: "1", StopTag: "near", Seconds: 240}},
		{{VehicleID: "1", StopTag: "near", Seconds: 240}, {VehicleID: "1", StopTag: "far", Seconds: 240}},
	} {
		estimates := Merge(order, geometry, lastKnown)
		assert.Equal(t, "near", estimates["1"].Stop.Tag)
	}
}

func TestPredictBatches(t *testing.T) {
	geometry := testGeometry()
	for i := 0; i < 120; i++ {
		tag := string(rune('a'+i/26)) + string(rune('a'+i%26))
		geometry.Stops[tag] = &ctdf.Stop{Tag: tag, Location: ctdf.Location{Latitude: float64(i)}}
	}

	source := &fakeSource{
		age: 10 * time.Second,
		predictions: map[string][]ctdf.StopPrediction{
			"ab": {{StopTag: "ab", VehicleID: "1", Minutes: 4}},
			"cz": {{StopTag: "cz", VehicleID: "1", Minutes: 3}},
		},
	}

	merger := NewMerger(source, &staticGeometry{geometry: geometry})
	estimates := merger.Predict(context.Background(), "77", map[string]ctdf.Location{"1": {}})

	assert.Len(t, source.batches, 3)
	for _, batch := range source.batches {
		assert.LessOrEqual(t, len(batch), DefaultBatchSize)
	}

	require.Contains(t, estimates, "1")
	assert.Equal(t, "cz", estimates["1"].Stop.Tag)
	assert.Equal(t, 170, estimates["1"].Seconds)
}

func TestPredictDegradesOnBatchFailure(t *testing.T) {
	geometry := testGeometry(
		&ctdf.Stop{Tag: "A", Location: ctdf.Location{Latitude: 42.0}},
		&ctdf.Stop{Tag: "B", Location: ctdf.Location{Latitude: 42.1}},
	)
	source := &fakeSource{
		failStop: "A",
		predictions: map[string][]ctdf.StopPrediction{
			"B": {{StopTag: "B", VehicleID: "1", Minutes: 4}},
		},
	}

	merger := NewMerger(source, &staticGeometry{geometry: geometry})
	merger.BatchSize = 1

	estimates := merger.Predict(context.Background(), "77", map[string]ctdf.Location{"1": {}, "2": {}})

	require.Len(t, estimates, 1)
	assert.Equal(t, "B", estimates["1"].Stop.Tag)
}

func TestPredictWithoutGeometry(t *testing.T) {
	merger := NewMerger(&fakeSource{}, &staticGeometry{geometry: ctdf.NewRouteGeometry("77"), err: ctdf.ErrUnknownRoute})

	assert.Empty(t, merger.Predict(context.Background(), "77", map[string]ctdf.Location{"1": {}}))
}
