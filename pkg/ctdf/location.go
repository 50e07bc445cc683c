package ctdf

import "math"

// Location is a lat/lon point. All distance maths in the engine works on plain
// squared degrees, which is fine at the scale of a single route.
type Location struct {
	Latitude  float64 `json:"lat" groups:"basic"`
	Longitude float64 `json:"lng" groups:"basic"`
}

func (l Location) SquaredDistance(o Location) float64 {
	dLat := l.Latitude - o.Latitude
	dLon := l.Longitude - o.Longitude

	return dLat*dLat + dLon*dLon
}

// ClosestPointOnLine projects l onto the segment a-b and returns the projected
// point together with its squared distance from l.
// Shameless taken 'inspiration' from https://stackoverflow.com/a/6853926
func (l Location) ClosestPointOnLine(a Location, b Location) (Location, float64) {
	A := l.Latitude - a.Latitude
	B := l.Longitude - a.Longitude
	C := b.Latitude - a.Latitude
	D := b.Longitude - a.Longitude

	dot := A*C + B*D
	lenSq := C*C + D*D

	param := -1.0
	if lenSq != 0 {
		param = dot / lenSq
	}

	var projected Location
	if param < 0 {
		projected = a
	} else if param > 1 {
		projected = b
	} else {
		projected = Location{
			Latitude:  a.Latitude + param*C,
			Longitude: a.Longitude + param*D,
		}
	}

	return projected, l.SquaredDistance(projected)
}

// Bearing is the initial compass bearing in whole degrees (0-359) from l to o.
func (l Location) Bearing(o Location) int {
	lat1 := l.Latitude * math.Pi / 180
	lat2 := o.Latitude * math.Pi / 180
	dLon := (o.Longitude - l.Longitude) * math.Pi / 180

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	bearing := math.Atan2(y, x) * 180 / math.Pi

	return (int(math.Round(bearing)) + 360) % 360
}
