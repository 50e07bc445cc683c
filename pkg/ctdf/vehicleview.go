package ctdf

// VehicleView is what clients animate: an estimated point (i) and a reference
// point (j), each with an age in seconds. Negative ages are in the future.
// The basic field names are a wire contract with the existing map client.
type VehicleView struct {
	EstimatedLocation Location `json:"-"`
	PredictedLocation Location `json:"-"`

	LatI float64 `json:"lat_i" groups:"basic"`
	LonI float64 `json:"lon_i" groups:"basic"`
	LatJ float64 `json:"lat_j" groups:"basic"`
	LonJ float64 `json:"lon_j" groups:"basic"`

	EstimatedAge int `json:"age_i" groups:"basic"`
	PredictedAge int `json:"age_j" groups:"basic"`

	RoundedHeading int    `json:"rhead" groups:"basic"`
	Identifier     string `json:"id" groups:"basic"`
	DirectionTag   string `json:"dir" groups:"basic"`

	Upcoming []UpcomingStop `json:"upcoming,omitempty" groups:"basic"`

	NextStopTag   string        `json:"next_stop,omitempty" groups:"detailed"`
	RouteID       string        `json:"route" groups:"detailed"`
	TransportType TransportType `json:"type" groups:"detailed"`

	Latitude     float64 `json:"lat" groups:"detailed"`
	Longitude    float64 `json:"lon" groups:"detailed"`
	OldLatitude  float64 `json:"oldLat" groups:"detailed"`
	OldLongitude float64 `json:"oldLon" groups:"detailed"`
	Timestamp    float64 `json:"t" groups:"detailed"`
	OldTimestamp float64 `json:"oldT" groups:"detailed"`
}

// SetEstimatedLocation replaces the i point, used after path snapping.
func (v *VehicleView) SetEstimatedLocation(location Location) {
	v.EstimatedLocation = location
	v.flatten()
}

func (v *VehicleView) flatten() {
	v.LatI = v.EstimatedLocation.Latitude
	v.LonI = v.EstimatedLocation.Longitude
	v.LatJ = v.PredictedLocation.Latitude
	v.LonJ = v.PredictedLocation.Longitude
}

type UpcomingStop struct {
	StopTag string `json:"stop" groups:"basic"`
	Minutes int    `json:"minutes" groups:"basic"`
}
