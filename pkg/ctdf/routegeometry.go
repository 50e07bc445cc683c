package ctdf

import "golang.org/x/exp/slices"

// RouteGeometry is built once per route and is read-only afterwards.
type RouteGeometry struct {
	RouteID string

	Stops      map[string]*Stop
	Directions map[string]*Direction
	Paths      []*Path
}

func NewRouteGeometry(routeID string) *RouteGeometry {
	return &RouteGeometry{
		RouteID:    routeID,
		Stops:      map[string]*Stop{},
		Directions: map[string]*Direction{},
	}
}

// IsEmpty means the geometry is temporarily unknown, not that the route has no stops.
func (r *RouteGeometry) IsEmpty() bool {
	return r == nil || (len(r.Stops) == 0 && len(r.Directions) == 0)
}

func (r *RouteGeometry) StopTags() []string {
	tags := make([]string, 0, len(r.Stops))
	for tag := range r.Stops {
		tags = append(tags, tag)
	}
	slices.Sort(tags)

	return tags
}

func (r *RouteGeometry) DirectionTags() []string {
	tags := make([]string, 0, len(r.Directions))
	for tag := range r.Directions {
		tags = append(tags, tag)
	}
	slices.Sort(tags)

	return tags
}
