package subway

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/livetracker/pkg/ctdf"
	"golang.org/x/exp/slices"
)

const secondsPerDay = 24 * 60 * 60

// TripEvent is one revenue row of the trip feed.
type TripEvent struct {
	TripID string
	Event  ctdf.SubwayStopEvent
}

// ParseTripFeed reads the per line text feed. Columns are sequence, trip id,
// stop id, source, date, time, AM/PM, wait, revenue flag and direction. Some
// feeds put date, time and AM/PM in one column. Bad rows are logged and skipped.
func ParseTripFeed(payload []byte, now time.Time) []TripEvent {
	reader := csv.NewReader(bytes.NewReader(payload))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	nowSeconds := secondsSinceMidnight(now)

	var events []TripEvent
	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn().Err(err).Int("row", row).Msg("Skipping unreadable subway feed row")
			continue
		}

		event, revenue, err := parseTripRow(record, nowSeconds)
		if err != nil {
			log.Warn().Err(err).Int("row", row).Msg("Skipping malformed subway feed row")
			continue
		}
		if !revenue {
			continue
		}

		events = append(events, event)
	}

	return events
}

// ValidateTripFeed rejects a payload that has rows but none of them is a trip
// row, which is what an HTML error page looks like to the parser. An empty feed
// is valid, it just means nothing is running.
func ValidateTripFeed(payload []byte) error {
	if trimmed := bytes.TrimSpace(payload); bytes.HasPrefix(trimmed, []byte("<")) {
		return errors.New("markup document instead of trip feed")
	}

	reader := csv.NewReader(bytes.NewReader(payload))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rows++
		if err != nil {
			continue
		}
		if _, _, err := parseTripRow(record, 0); err == nil {
			return nil
		}
	}

	if rows > 0 {
		return fmt.Errorf("%w: no trip rows in %d rows", ctdf.ErrMalformedRecord, rows)
	}

	return nil
}

func parseTripRow(record []string, nowSeconds int) (TripEvent, bool, error) {
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}

	var tripID, stopID, clock, meridiem, revenueFlag, direction string

	switch len(record) {
	case 10:
		tripID, stopID = record[1], record[2]
		clock, meridiem = record[5], record[6]
		revenueFlag, direction = record[8], record[9]
	case 8:
		// date, time and AM/PM share a column
		parts := strings.Fields(record[4])
		if len(parts) != 3 {
			return TripEvent{}, false, fmt.Errorf("%w: bad timestamp %q", ctdf.ErrMalformedRecord, record[4])
		}
		tripID, stopID = record[1], record[2]
		clock, meridiem = parts[1], parts[2]
		revenueFlag, direction = record[6], record[7]
	default:
		return TripEvent{}, false, fmt.Errorf("%w: %d fields", ctdf.ErrMalformedRecord, len(record))
	}

	if tripID == "" || stopID == "" {
		return TripEvent{}, false, fmt.Errorf("%w: missing trip or stop", ctdf.ErrMalformedRecord)
	}

	scheduled, err := ParseClock(clock, meridiem)
	if err != nil {
		return TripEvent{}, false, err
	}

	return TripEvent{
		TripID: tripID,
		Event: ctdf.SubwayStopEvent{
			StopID:      stopID,
			Direction:   direction,
			WaitSeconds: WaitSeconds(scheduled, nowSeconds),
		},
	}, strings.EqualFold(revenueFlag, "Revenue"), nil
}

// ParseClock converts a 12 hour h:mm[:ss] time to seconds since midnight.
// 12 AM is hour 0 and PM hours other than 12 move forward by 12.
func ParseClock(clock string, meridiem string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: bad time %q", ctdf.ErrMalformedRecord, clock)
	}

	values := make([]int, 3)
	for i, part := range parts {
		value, err := strconv.Atoi(part)
		if err != nil || value < 0 {
			return 0, fmt.Errorf("%w: bad time %q", ctdf.ErrMalformedRecord, clock)
		}
		values[i] = value
	}

	hour, minute, second := values[0], values[1], values[2]
	if hour < 1 || hour > 12 || minute > 59 || second > 59 {
		return 0, fmt.Errorf("%w: bad time %q", ctdf.ErrMalformedRecord, clock)
	}

	switch strings.ToUpper(meridiem) {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	default:
		return 0, fmt.Errorf("%w: bad meridiem %q", ctdf.ErrMalformedRecord, meridiem)
	}

	return hour*3600 + minute*60 + second, nil
}

// WaitSeconds is scheduled minus now, wrapped across midnight so it stays within half a day.
func WaitSeconds(scheduled int, now int) int {
	wait := scheduled - now

	if wait > secondsPerDay/2 {
		wait -= secondsPerDay
	} else if wait < -secondsPerDay/2 {
		wait += secondsPerDay
	}

	return wait
}

func secondsSinceMidnight(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

// GroupTrips collects the events of every trip, ordered by wait. A trip keeps
// at most one event in the past, the one it most recently left.
func GroupTrips(line string, events []TripEvent) map[string]*ctdf.SubwayTrip {
	trips := map[string]*ctdf.SubwayTrip{}

	for _, event := range events {
		trip, exists := trips[event.TripID]
		if !exists {
			trip = &ctdf.SubwayTrip{
				TripID:    event.TripID,
				Line:      line,
				Direction: event.Event.Direction,
			}
			trips[event.TripID] = trip
		}

		trip.Events = append(trip.Events, event.Event)
	}

	for _, trip := range trips {
		slices.SortStableFunc(trip.Events, func(a, b ctdf.SubwayStopEvent) int {
			return a.WaitSeconds - b.WaitSeconds
		})

		lastDeparted := -1
		for i, event := range trip.Events {
			if event.WaitSeconds < 0 {
				lastDeparted = i
			}
		}
		if lastDeparted > 0 {
			trip.Events = trip.Events[lastDeparted:]
		}
	}

	return trips
}

var errNoEvents = errors.New("trip has no events")
