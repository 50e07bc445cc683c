package routegeometry

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/travigo/livetracker/pkg/ctdf"
	"github.com/travigo/livetracker/pkg/nextbus"
)

// NextBusLoader loads route geometry from the bus feed's routeConfig command.
func NextBusLoader(client *nextbus.Client) Loader {
	return func(ctx context.Context, route string) (*ctdf.RouteGeometry, error) {
		routeConfig, err := client.RouteConfig(ctx, route)
		if err != nil {
			return nil, err
		}

		return FromRouteConfig(route, routeConfig), nil
	}
}

// FromRouteConfig converts a routeConfig document. A stop tag is kept once even
// when several directions reference it, and stops without a latitude are
// placeholder records and get dropped.
func FromRouteConfig(routeID string, routeConfig *nextbus.Route) *ctdf.RouteGeometry {
	geometry := ctdf.NewRouteGeometry(routeID)
	if routeConfig == nil {
		return geometry
	}

	addStop := func(routeStop nextbus.RouteStop) {
		if _, exists := geometry.Stops[routeStop.Tag]; exists || routeStop.Tag == "" {
			return
		}

		if routeStop.Lat == "" {
			return
		}
		lat, errLat := strconv.ParseFloat(routeStop.Lat, 64)
		lon, errLon := strconv.ParseFloat(routeStop.Lon, 64)
		if errLat != nil || errLon != nil {
			log.Warn().Str("route", routeID).Str("stop", routeStop.Tag).Msg("Skipping stop with malformed location")
			return
		}

		geometry.Stops[routeStop.Tag] = &ctdf.Stop{
			Tag:   routeStop.Tag,
			Title: routeStop.Title,
			Location: ctdf.Location{
				Latitude:  lat,
				Longitude: lon,
			},
		}
	}

	for _, routeStop := range routeConfig.Stops {
		addStop(routeStop)
	}

	for _, routeDirection := range routeConfig.Directions {
		direction := &ctdf.Direction{
			Tag:  routeDirection.Tag,
			Name: routeDirection.Title,
		}
		if direction.Name == "" {
			direction.Name = routeDirection.Name
		}

		for _, directionStop := range routeDirection.Stops {
			// direction stops normally only carry the tag
			addStop(directionStop)

			if stop := geometry.Stops[directionStop.Tag]; stop != nil {
				direction.Stops = append(direction.Stops, stop)
			}
		}

		geometry.Directions[direction.Tag] = direction
	}

	for _, routePath := range routeConfig.Paths {
		path := &ctdf.Path{}
		for _, tag := range routePath.Tags {
			path.DirectionTags = append(path.DirectionTags, tag.ID)
		}

		for _, point := range routePath.Points {
			lat, errLat := strconv.ParseFloat(point.Lat, 64)
			lon, errLon := strconv.ParseFloat(point.Lon, 64)
			if errLat != nil || errLon != nil {
				continue
			}

			path.Points = append(path.Points, ctdf.Location{Latitude: lat, Longitude: lon})
		}

		if len(path.Points) > 0 {
			geometry.Paths = append(geometry.Paths, path)
		}
	}

	return geometry
}
