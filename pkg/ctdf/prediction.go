package ctdf

// StopPrediction is a raw per-stop arrival prediction as published by the feed.
type StopPrediction struct {
	StopTag      string
	VehicleID    string
	DirectionTag string
	Minutes      int
}

// Prediction is a StopPrediction corrected for feed staleness. It only lives
// for a single refresh cycle.
type Prediction struct {
	VehicleID    string
	StopTag      string
	DirectionTag string
	Seconds      int
}

// NextStopEstimate is the single best upcoming stop for a vehicle.
type NextStopEstimate struct {
	VehicleID string
	Seconds   int
	Stop      *Stop

	Upcoming []UpcomingStop
}
