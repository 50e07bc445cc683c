package nextbus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/livetracker/pkg/ctdf"
	"github.com/travigo/livetracker/pkg/feedcache"
)

const vehicleLocationsXML = `<?xml version="1.0" encoding="utf-8" ?>
<body copyright="All data copyright MBTA 2024.">
<vehicle id="0612" routeTag="77" dirTag="77_0_var0" lat="42.3961" lon="-71.1279" secsSinceReport="12" predictable="true" heading="225"/>
<vehicle id="0613" routeTag="77" dirTag="77_1_var0" lat="not-a-number" lon="-71.1" secsSinceReport="3" predictable="true" heading="90"/>
<vehicle id="0614" routeTag="77" dirTag="77_1_var0" lat="42.38" lon="-71.11" secsSinceReport="0" predictable="true" heading="-4"/>
<lastTime time="1700000000000"/>
</body>`

const routeConfigXML = `<?xml version="1.0" encoding="utf-8" ?>
<body copyright="All data copyright MBTA 2024.">
<route tag="77" title="77" color="330000" oppositeColor="ffffff">
<stop tag="2020" title="Arlington Heights" lat="42.4246" lon="-71.1827" stopId="02020"/>
<stop tag="2021" title="Mass Ave @ Lowell St" lat="42.4201" lon="-71.1712" stopId="02021"/>
<direction tag="77_0_var0" title="Arlington Heights via Mass Ave" name="Outbound" useForUI="true">
<stop tag="2021"/>
<stop tag="2020"/>
</direction>
<path>
<tag id="77_0_var0_1"/>
<point lat="42.4201" lon="-71.1712"/>
<point lat="42.4246" lon="-71.1827"/>
</path>
</route>
</body>`

const predictionsXML = `<?xml version="1.0" encoding="utf-8" ?>
<body copyright="All data copyright MBTA 2024.">
<predictions agencyTitle="MBTA" routeTitle="77" routeTag="77" stopTitle="Arlington Heights" stopTag="2020">
<direction title="Harvard Station">
<prediction epochTime="1700000300000" seconds="300" minutes="5" isDeparture="false" dirTag="77_1_var0" vehicle="0612" block="T77_1" tripTag="1"/>
<prediction epochTime="1700000900000" seconds="900" minutes="15" isDeparture="false" dirTag="77_1_var0" vehicle="0614" block="T77_2" tripTag="2"/>
</direction>
</predictions>
</body>`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, time.Time) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	now := time.Unix(1_700_000_000, 0)
	cache := feedcache.New(feedcache.NewHTTPFetcher(time.Second, 0))
	cache.Now = func() time.Time { return now }

	return NewClient(server.URL, "mbta", cache), now
}

func TestVehicleLocations(t *testing.T) {
	client, now := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "vehicleLocations", r.URL.Query().Get("command"))
		assert.Equal(t, "mbta", r.URL.Query().Get("a"))
		assert.Equal(t, "77", r.URL.Query().Get("r"))
		w.Write([]byte(vehicleLocationsXML))
	})

	samples, err := client.VehicleLocations(context.Background(), "77")
	require.NoError(t, err)
	require.Len(t, samples, 2)

	assert.Equal(t, "0612", samples[0].VehicleID)
	assert.Equal(t, "77_0_var0", samples[0].DirectionTag)
	assert.Equal(t, 42.3961, samples[0].Location.Latitude)
	assert.Equal(t, 225, samples[0].Heading)
	assert.Equal(t, now.Add(-12*time.Second), samples[0].ObservedAt)

	assert.Equal(t, "0614", samples[1].VehicleID)
	assert.Equal(t, 0, samples[1].Heading)
}

func TestRouteConfig(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(routeConfigXML))
	})

	route, err := client.RouteConfig(context.Background(), "77")
	require.NoError(t, err)
	require.NotNil(t, route)

	assert.Len(t, route.Stops, 2)
	assert.Len(t, route.Directions, 1)
	assert.Equal(t, []string{"2021", "2020"}, []string{route.Directions[0].Stops[0].Tag, route.Directions[0].Stops[1].Tag})
	require.Len(t, route.Paths, 1)
	assert.Equal(t, "77_0_var0_1", route.Paths[0].Tags[0].ID)
	assert.Len(t, route.Paths[0].Points, 2)
}

func TestRouteConfigFeedError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<body><Error shouldRetry="false">Could not get route "999"</Error></body>`))
	})

	route, err := client.RouteConfig(context.Background(), "999")

	assert.ErrorIs(t, err, ctdf.ErrFetchFailed)
	assert.Nil(t, route)
}

func TestVehicleLocationsServesLastGoodDocumentOnFeedError(t *testing.T) {
	var throttled atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if throttled.Load() {
			w.Write([]byte(`<body><Error shouldRetry="true">Agency server cannot accept client while status is: agency name = mbta,status = UNINITIALIZED</Error></body>`))
			return
		}
		w.Write([]byte(vehicleLocationsXML))
	}))
	t.Cleanup(server.Close)

	now := time.Unix(1_700_000_000, 0)
	cache := feedcache.New(feedcache.NewHTTPFetcher(time.Second, 0))
	cache.Now = func() time.Time { return now }
	client := NewClient(server.URL, "mbta", cache)

	samples, err := client.VehicleLocations(context.Background(), "77")
	require.NoError(t, err)
	require.Len(t, samples, 2)

	throttled.Store(true)
	now = now.Add(time.Minute)

	samples, err = client.VehicleLocations(context.Background(), "77")
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, "0612", samples[0].VehicleID)
	// observation times keep the age of the stale document
	assert.Equal(t, time.Unix(1_700_000_000, 0).Add(-12*time.Second), samples[0].ObservedAt)
}

func TestValidatePayload(t *testing.T) {
	assert.NoError(t, ValidatePayload([]byte(vehicleLocationsXML)))
	assert.Error(t, ValidatePayload([]byte(`<body><Error shouldRetry="true">slow down</Error></body>`)))
	assert.Error(t, ValidatePayload([]byte("Service Unavailable")))
}

func TestPredictionsForStops(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, []string{"77|2020", "77|2021"}, r.URL.Query()["stops"])
		w.Write([]byte(predictionsXML))
	})

	predictions, age, err := client.PredictionsForStops(context.Background(), "77", []string{"2020", "2021"})
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), age)
	assert.Equal(t, []ctdf.StopPrediction{
		{StopTag: "2020", VehicleID: "0612", DirectionTag: "77_1_var0", Minutes: 5},
		{StopTag: "2020", VehicleID: "0614", DirectionTag: "77_1_var0", Minutes: 15},
	}, predictions)
}

func TestStopArrivals(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "02020", r.URL.Query().Get("stopId"))
		w.Write([]byte(predictionsXML))
	})

	arrivals, err := client.StopArrivals(context.Background(), "02020")
	require.NoError(t, err)

	assert.Equal(t, []ctdf.Arrival{
		{Minutes: 5, RouteLabel: "77", Headsign: "Harvard Station", TransportType: ctdf.TransportTypeBus},
		{Minutes: 15, RouteLabel: "77", Headsign: "Harvard Station", TransportType: ctdf.TransportTypeBus},
	}, arrivals)
}
