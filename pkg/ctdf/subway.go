package ctdf

type SubwayStopEvent struct {
	StopID    string
	Direction string

	// WaitSeconds is relative to now, negative means the train has just left
	WaitSeconds int
}

type SubwayTrip struct {
	TripID    string
	Line      string
	Direction string
	Branch    string

	// Events are ordered by wait, with at most one negative wait
	Events []SubwayStopEvent
}

// DirectionTag prefers the inferred branch over the feed's own direction flag.
func (t *SubwayTrip) DirectionTag() string {
	if t.Branch != "" {
		return t.Branch
	}

	return t.Direction
}

// SubwayStop is a row of the subway stop metadata table. One platform per row.
type SubwayStop struct {
	Line        string  `csv:"route"`
	StopID      string  `csv:"stop_id"`
	Branch      string  `csv:"branch"`
	Description string  `csv:"description"`
	Latitude    float64 `csv:"lat"`
	Longitude   float64 `csv:"lon"`
}

func (s *SubwayStop) Stop() *Stop {
	return &Stop{
		Tag:   s.StopID,
		Title: s.Description,
		Location: Location{
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
		},
	}
}
