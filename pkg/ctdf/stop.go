package ctdf

import "strings"

type Stop struct {
	Tag      string   `json:"tag" groups:"basic"`
	Title    string   `json:"title" groups:"basic"`
	Location Location `json:"location" groups:"basic"`
}

// Direction references stops owned by the RouteGeometry stop table, the
// pointers are shared and must not be mutated.
type Direction struct {
	Tag   string  `json:"tag"`
	Name  string  `json:"name"`
	Stops []*Stop `json:"-"`
}

func (d *Direction) StopTags() []string {
	tags := make([]string, 0, len(d.Stops))
	for _, stop := range d.Stops {
		tags = append(tags, stop.Tag)
	}

	return tags
}

type Path struct {
	// DirectionTags is optional, an empty list means the path is shared by
	// every direction. Feed tags are prefixed by the direction tag.
	DirectionTags []string
	Points        []Location
}

func (p *Path) ServesDirection(directionTag string) bool {
	if len(p.DirectionTags) == 0 || directionTag == "" {
		return true
	}

	for _, tag := range p.DirectionTags {
		if strings.HasPrefix(tag, directionTag) {
			return true
		}
	}

	return false
}
