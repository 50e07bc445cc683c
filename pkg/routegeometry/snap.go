package routegeometry

import (
	"context"

	"github.com/travigo/livetracker/pkg/ctdf"
)

// SnapThreshold is the largest squared distance, in squared degrees, a point
// may be from a path and still be moved onto it.
const SnapThreshold = 0.00001

// Snapper moves estimated vehicle positions onto the closest route path.
type Snapper struct {
	Store     *Store
	Threshold float64
}

func NewSnapper(store *Store) *Snapper {
	return &Snapper{
		Store:     store,
		Threshold: SnapThreshold,
	}
}

func (s *Snapper) Snap(ctx context.Context, route string, location ctdf.Location) ctdf.Location {
	geometry, err := s.Store.Get(ctx, route)
	if err != nil {
		return location
	}

	return SnapToPaths(geometry.Paths, location, s.Threshold)
}

// SnapToPaths projects location onto the globally closest segment of paths.
// Points further than threshold from every segment come back unchanged.
func SnapToPaths(paths []*ctdf.Path, location ctdf.Location, threshold float64) ctdf.Location {
	found := false
	closestDistance := 0.0
	var closestPoint ctdf.Location

	for _, path := range paths {
		for i := 0; i < len(path.Points)-1; i++ {
			point, distance := location.ClosestPointOnLine(path.Points[i], path.Points[i+1])

			if !found || distance < closestDistance {
				found = true
				closestDistance = distance
				closestPoint = point
			}
		}
	}

	if !found || closestDistance > threshold {
		return location
	}

	return closestPoint
}
