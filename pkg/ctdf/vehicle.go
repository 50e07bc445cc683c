package ctdf

import (
	"math"
	"time"
)

// VehicleSample is a single reported position for a vehicle.
type VehicleSample struct {
	VehicleID    string
	RouteID      string
	DirectionTag string

	Location Location
	Heading  int

	// ObservedAt is the feed fetch time minus the reported age
	ObservedAt time.Time
}

func (s VehicleSample) Age(now time.Time) time.Duration {
	return now.Sub(s.ObservedAt)
}

// VehicleHistory keeps the two most recent meaningful samples for a vehicle.
// Current.ObservedAt is never before Previous.ObservedAt.
type VehicleHistory struct {
	Previous VehicleSample
	Current  VehicleSample
}

func NewVehicleHistory(sample VehicleSample) *VehicleHistory {
	return &VehicleHistory{
		Previous: sample,
		Current:  sample,
	}
}

// EstimateLocation dead-reckons the vehicle position at now from its two samples.
func (h *VehicleHistory) EstimateLocation(now time.Time) Location {
	return Location{
		Latitude:  EstimatePosition(h.Previous.Location.Latitude, h.Current.Location.Latitude, h.Previous.ObservedAt, h.Current.ObservedAt, now),
		Longitude: EstimatePosition(h.Previous.Location.Longitude, h.Current.Location.Longitude, h.Previous.ObservedAt, h.Current.ObservedAt, now),
	}
}

const stationaryThreshold = 0.00001

// EstimatePosition linearly extrapolates a single coordinate from (ti, li) and
// (tj, lj) to tk. It deliberately projects past tj rather than interpolating.
func EstimatePosition(li float64, lj float64, ti time.Time, tj time.Time, tk time.Time) float64 {
	if math.Abs(li-lj) < stationaryThreshold || ti.Unix() == tj.Unix() {
		return lj
	}

	deltaT := tj.Sub(ti).Seconds()
	elapsed := tk.Sub(tj).Seconds()

	return lj + elapsed*(lj-li)/deltaT
}

// RoundHeading buckets a heading to the icon set, which has one icon every 3 degrees.
func RoundHeading(heading int) int {
	heading = ((heading % 360) + 360) % 360

	return (heading / 3) * 3
}

// Vehicle is either a tracked bus or a subway trip synthesised from the schedule feed.
type Vehicle interface {
	Identifier() string
	View(now time.Time) VehicleView
}

type BusVehicle struct {
	History  VehicleHistory
	NextStop *NextStopEstimate
}

func (b *BusVehicle) Identifier() string {
	return b.History.Current.VehicleID
}

func (b *BusVehicle) View(now time.Time) VehicleView {
	current := b.History.Current
	previous := b.History.Previous

	view := VehicleView{
		Identifier:     current.VehicleID,
		DirectionTag:   current.DirectionTag,
		RoundedHeading: RoundHeading(current.Heading),

		EstimatedLocation: b.History.EstimateLocation(now),
		EstimatedAge:      0,

		PredictedLocation: current.Location,
		PredictedAge:      int(current.Age(now).Seconds()),

		RouteID:       current.RouteID,
		TransportType: TransportTypeBus,
		Latitude:      current.Location.Latitude,
		Longitude:     current.Location.Longitude,
		OldLatitude:   previous.Location.Latitude,
		OldLongitude:  previous.Location.Longitude,
		Timestamp:     unixSeconds(current.ObservedAt),
		OldTimestamp:  unixSeconds(previous.ObservedAt),
	}

	if b.NextStop != nil && b.NextStop.Stop != nil {
		view.PredictedLocation = b.NextStop.Stop.Location
		view.PredictedAge = -b.NextStop.Seconds
		view.NextStopTag = b.NextStop.Stop.Tag
		view.Upcoming = b.NextStop.Upcoming
	}

	view.flatten()

	return view
}

// SubwayVehicle is a trip whose "previous" point is the soonest-but-one
// scheduled stop and whose "current" point is the soonest one. The train
// travels from current towards previous, so that is the heading.
type SubwayVehicle struct {
	Trip *SubwayTrip

	Previous SubwayStopEvent
	Current  SubwayStopEvent

	PreviousStop *Stop
	CurrentStop  *Stop
}

func (s *SubwayVehicle) Identifier() string {
	return s.Trip.TripID
}

func (s *SubwayVehicle) View(now time.Time) VehicleView {
	view := VehicleView{
		Identifier:     s.Trip.TripID,
		DirectionTag:   s.Trip.DirectionTag(),
		RoundedHeading: RoundHeading(s.CurrentStop.Location.Bearing(s.PreviousStop.Location)),

		EstimatedLocation: s.PreviousStop.Location,
		EstimatedAge:      -s.Previous.WaitSeconds,

		PredictedLocation: s.CurrentStop.Location,
		PredictedAge:      -s.Current.WaitSeconds,

		NextStopTag: s.Current.StopID,

		RouteID:       s.Trip.Line,
		TransportType: TransportTypeSubway,
		Latitude:      s.CurrentStop.Location.Latitude,
		Longitude:     s.CurrentStop.Location.Longitude,
		OldLatitude:   s.PreviousStop.Location.Latitude,
		OldLongitude:  s.PreviousStop.Location.Longitude,
		Timestamp:     unixSeconds(now.Add(time.Duration(s.Current.WaitSeconds) * time.Second)),
		OldTimestamp:  unixSeconds(now.Add(time.Duration(s.Previous.WaitSeconds) * time.Second)),
	}

	// the first two events are already the j and i points
	for _, event := range s.Trip.Events[min(2, len(s.Trip.Events)):] {
		view.Upcoming = append(view.Upcoming, UpcomingStop{
			StopTag: event.StopID,
			Minutes: event.WaitSeconds / 60,
		})
	}

	view.flatten()

	return view
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
