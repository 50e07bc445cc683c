package subway

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/livetracker/pkg/ctdf"
)

const redTripFeed = `1, R-101, RALEN, Predicted, 10/19/2026, 4:58:00, PM, 00:00:00, Revenue, S
2, R-101, RDAVN, Predicted, 10/19/2026, 5:01:00, PM, 00:01:00, Revenue, S
3, R-101, RPORS, Predicted, 10/19/2026, 5:04:30, PM, 00:04:30, Revenue, S
4, R-101, RALEN0, Predicted, 10/19/2026, 4:55:00, PM, 00:00:00, Revenue, S
5, R-102, RSAVN, Predicted, 10/19/2026 5:10:00 PM, 00:10:00, Revenue, S
6, R-102, RFIEN, Predicted, 10/19/2026 5:06:00 PM, 00:06:00, Revenue, S
7, R-103, RALEN, Predicted, 10/19/2026, 5:02:00, PM, 00:02:00, Non Revenue, S
8, R-104, broken
9, R-105, RALEN, Predicted, 10/19/2026, 13:00:00, PM, 00:00:00, Revenue, S
`

func TestParseClock(t *testing.T) {
	tests := []struct {
		clock    string
		meridiem string
		expected int
	}{
		{"12:00:00", "AM", 0},
		{"12:30", "AM", 30 * 60},
		{"1:05:09", "AM", 3600 + 5*60 + 9},
		{"12:00:00", "PM", 12 * 3600},
		{"5:04:31", "PM", 17*3600 + 4*60 + 31},
		{"11:59:59", "pm", 23*3600 + 59*60 + 59},
	}

	for _, test := range tests {
		seconds, err := ParseClock(test.clock, test.meridiem)
		require.NoError(t, err, test.clock)
		assert.Equal(t, test.expected, seconds, test.clock)
	}

	for _, bad := range [][2]string{{"13:00", "PM"}, {"0:10", "AM"}, {"5", "PM"}, {"5:xx", "PM"}, {"5:00", "XM"}} {
		_, err := ParseClock(bad[0], bad[1])
		assert.ErrorIs(t, err, ctdf.ErrMalformedRecord, bad[0])
	}
}

func TestWaitSecondsWrapsMidnight(t *testing.T) {
	assert.Equal(t, 120, WaitSeconds(1000, 880))
	assert.Equal(t, -60, WaitSeconds(1000, 1060))

	// 11:59 PM now, 12:01 AM scheduled
	assert.Equal(t, 120, WaitSeconds(60, secondsPerDay-60))
	// 12:01 AM now, 11:59 PM scheduled
	assert.Equal(t, -120, WaitSeconds(secondsPerDay-60, 60))
}

func TestParseTripFeed(t *testing.T) {
	now := time.Date(2026, 10, 19, 17, 0, 0, 0, time.UTC)

	events := ParseTripFeed([]byte(redTripFeed), now)

	require.Len(t, events, 6)
	assert.Equal(t, TripEvent{TripID: "R-101", Event: ctdf.SubwayStopEvent{StopID: "RALEN", Direction: "S", WaitSeconds: -120}}, events[0])
	assert.Equal(t, 270, events[2].Event.WaitSeconds)
	assert.Equal(t, TripEvent{TripID: "R-102", Event: ctdf.SubwayStopEvent{StopID: "RSAVN", Direction: "S", WaitSeconds: 600}}, events[4])
	for _, event := range events {
		assert.NotEqual(t, "R-103", event.TripID)
	}
}

func TestGroupTrips(t *testing.T) {
	now := time.Date(2026, 10, 19, 17, 0, 0, 0, time.UTC)

	trips := GroupTrips("Red", ParseTripFeed([]byte(redTripFeed), now))

	require.Len(t, trips, 2)

	first := trips["R-101"]
	assert.Equal(t, "Red", first.Line)
	assert.Equal(t, []ctdf.SubwayStopEvent{
		{StopID: "RALEN", Direction: "S", WaitSeconds: -120},
		{StopID: "RDAVN", Direction: "S", WaitSeconds: 60},
		{StopID: "RPORS", Direction: "S", WaitSeconds: 270},
	}, first.Events)

	second := trips["R-102"]
	assert.Equal(t, "RFIEN", second.Events[0].StopID)
	assert.Equal(t, "RSAVN", second.Events[1].StopID)
}

func TestInferBranch(t *testing.T) {
	stops := map[string]*ctdf.SubwayStop{
		"RDAVN": {StopID: "RDAVN", Branch: "Trunk"},
		"RSAVN": {StopID: "RSAVN", Branch: "Ashmont"},
		"RQUIN": {StopID: "RQUIN", Branch: "Braintree"},
	}

	trunk := &ctdf.SubwayTrip{Direction: "S", Events: []ctdf.SubwayStopEvent{{StopID: "RDAVN"}}}
	assert.Equal(t, "", InferBranch(trunk, stops))
	assert.Equal(t, "S", trunk.DirectionTag())

	ashmont := &ctdf.SubwayTrip{Direction: "N", Events: []ctdf.SubwayStopEvent{{StopID: "RDAVN"}, {StopID: "RSAVN"}}}
	ashmont.Branch = InferBranch(ashmont, stops)
	assert.Equal(t, "Ashmont", ashmont.DirectionTag())
}

func TestValidateTripFeed(t *testing.T) {
	assert.NoError(t, ValidateTripFeed([]byte(redTripFeed)))
	assert.NoError(t, ValidateTripFeed(nil))

	assert.ErrorIs(t, ValidateTripFeed([]byte("Service Unavailable\nTry again later\n")), ctdf.ErrMalformedRecord)
	assert.Error(t, ValidateTripFeed([]byte("<!DOCTYPE html>\n<html><body>502 Bad Gateway</body></html>")))
}
