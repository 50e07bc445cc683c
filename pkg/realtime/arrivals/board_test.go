package arrivals

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/livetracker/pkg/ctdf"
)

type fakeBus map[string][]ctdf.Arrival

func (f fakeBus) StopArrivals(ctx context.Context, stopID string) ([]ctdf.Arrival, error) {
	arrivals, exists := f[stopID]
	if !exists {
		return nil, errors.New("no such stop")
	}

	return arrivals, nil
}

type fakePlatforms map[string][]ctdf.Arrival

func (f fakePlatforms) PlatformArrivals(ctx context.Context, stopID string) ([]ctdf.Arrival, bool, error) {
	arrivals, exists := f[stopID]
	return arrivals, exists, nil
}

func TestGetArrivalsBusStop(t *testing.T) {
	board := &Board{Bus: fakeBus{
		"02020": {
			{Minutes: 12, RouteLabel: "77", Headsign: "Harvard"},
			{Minutes: 3, RouteLabel: "79", Headsign: "Arlington Heights"},
			{Minutes: 3, RouteLabel: "77", Headsign: "Harvard"},
		},
	}}

	arrivals, err := board.GetArrivals(context.Background(), "02020")
	require.NoError(t, err)
	assert.Equal(t, []ctdf.Arrival{
		{Minutes: 3, RouteLabel: "77", Headsign: "Harvard"},
		{Minutes: 3, RouteLabel: "79", Headsign: "Arlington Heights"},
		{Minutes: 12, RouteLabel: "77", Headsign: "Harvard"},
	}, arrivals)
}

func TestGetArrivalsSubstops(t *testing.T) {
	board := &Board{
		Bus: fakeBus{},
		Subway: fakePlatforms{
			"RDAVN": {{Minutes: 4, RouteLabel: "Red Line", Headsign: "Alewife", TransportType: ctdf.TransportTypeSubway}},
			"RDAVS": {{Minutes: 2, RouteLabel: "Red Line", Headsign: "Ashmont", TransportType: ctdf.TransportTypeSubway}},
		},
	}

	arrivals, err := board.GetArrivals(context.Background(), "RDAVN, RDAVS,RDAVN")
	require.NoError(t, err)
	require.Len(t, arrivals, 2)
	assert.Equal(t, "Ashmont", arrivals[0].Headsign)
	assert.Equal(t, "Alewife", arrivals[1].Headsign)
}

func TestGetArrivalsDegrades(t *testing.T) {
	board := &Board{Bus: fakeBus{"1": {{Minutes: 1, RouteLabel: "77"}}}}

	arrivals, err := board.GetArrivals(context.Background(), "1,missing")
	require.NoError(t, err)
	assert.Len(t, arrivals, 1)

	arrivals, err = board.GetArrivals(context.Background(), "missing")
	assert.Error(t, err)
	assert.NotNil(t, arrivals)
	assert.Empty(t, arrivals)
}
