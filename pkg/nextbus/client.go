package nextbus

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/livetracker/pkg/ctdf"
	"github.com/travigo/livetracker/pkg/feedcache"
)

const DefaultFeedURL = "http://webservices.nextbus.com/service/publicXMLFeed"

type Client struct {
	BaseURL string
	Agency  string

	Cache *feedcache.FeedCache

	VehicleTTL     time.Duration
	PredictionTTL  time.Duration
	RouteConfigTTL time.Duration
	RouteListTTL   time.Duration
}

func NewClient(baseURL string, agency string, cache *feedcache.FeedCache) *Client {
	return &Client{
		BaseURL:        baseURL,
		Agency:         agency,
		Cache:          cache,
		VehicleTTL:     5 * time.Second,
		PredictionTTL:  30 * time.Second,
		RouteConfigTTL: 24 * time.Hour,
		RouteListTTL:   time.Hour,
	}
}

func (c *Client) CommandURL(command string, params url.Values) string {
	query := url.Values{}
	query.Set("command", command)
	query.Set("a", c.Agency)
	for key, values := range params {
		for _, value := range values {
			query.Add(key, value)
		}
	}

	return fmt.Sprintf("%s?%s", c.BaseURL, query.Encode())
}

func (c *Client) fetch(ctx context.Context, command string, params url.Values, ttl time.Duration) (*Body, time.Duration, error) {
	requestURL := c.CommandURL(command, params)

	result, err := c.Cache.FetchValidated(ctx, requestURL, ttl, ValidatePayload)
	if err != nil {
		return nil, 0, err
	}

	body, err := ParseXML(result.Payload)
	if err != nil {
		return nil, result.Age, fmt.Errorf("%s: %w", command, err)
	}

	return body, result.Age, nil
}

// VehicleLocations returns a sample for every vehicle currently reported on the route.
func (c *Client) VehicleLocations(ctx context.Context, route string) ([]ctdf.VehicleSample, error) {
	body, age, err := c.fetch(ctx, "vehicleLocations", url.Values{"r": {route}, "t": {"0"}}, c.VehicleTTL)
	if err != nil {
		return nil, err
	}

	fetchedAt := c.Cache.Now().Add(-age)

	samples := make([]ctdf.VehicleSample, 0, len(body.Vehicles))
	for _, vehicle := range body.Vehicles {
		sample, err := vehicle.Sample(fetchedAt)
		if err != nil {
			log.Warn().Err(err).Str("route", route).Str("vehicle", vehicle.ID).Msg("Skipping malformed vehicle record")
			continue
		}
		if sample.RouteID == "" {
			sample.RouteID = route
		}

		samples = append(samples, sample)
	}

	return samples, nil
}

// Sample converts the record, fetchedAt is when the document was downloaded.
func (v *Vehicle) Sample(fetchedAt time.Time) (ctdf.VehicleSample, error) {
	if v.ID == "" {
		return ctdf.VehicleSample{}, fmt.Errorf("%w: vehicle without id", ctdf.ErrMalformedRecord)
	}

	lat, errLat := strconv.ParseFloat(v.Lat, 64)
	lon, errLon := strconv.ParseFloat(v.Lon, 64)
	if errLat != nil || errLon != nil {
		return ctdf.VehicleSample{}, fmt.Errorf("%w: bad location %q,%q", ctdf.ErrMalformedRecord, v.Lat, v.Lon)
	}

	secsSinceReport, err := strconv.Atoi(v.SecsSinceReport)
	if err != nil {
		secsSinceReport = 0
	}

	heading, err := strconv.Atoi(v.Heading)
	if err != nil || heading < 0 {
		heading = 0
	}

	return ctdf.VehicleSample{
		VehicleID:    v.ID,
		RouteID:      v.RouteTag,
		DirectionTag: v.DirTag,
		Location: ctdf.Location{
			Latitude:  lat,
			Longitude: lon,
		},
		Heading:    heading,
		ObservedAt: fetchedAt.Add(-time.Duration(secsSinceReport) * time.Second),
	}, nil
}

// RouteConfig returns the raw route document, or nil if the feed does not know the route.
func (c *Client) RouteConfig(ctx context.Context, route string) (*Route, error) {
	body, _, err := c.fetch(ctx, "routeConfig", url.Values{"r": {route}}, c.RouteConfigTTL)
	if err != nil {
		return nil, err
	}

	for i := range body.Routes {
		if body.Routes[i].Tag == route || len(body.Routes) == 1 {
			return &body.Routes[i], nil
		}
	}

	return nil, nil
}

func (c *Client) RouteList(ctx context.Context) ([]RouteSummary, error) {
	body, _, err := c.fetch(ctx, "routeList", nil, c.RouteListTTL)
	if err != nil {
		return nil, err
	}

	routes := make([]RouteSummary, 0, len(body.Routes))
	for _, route := range body.Routes {
		routes = append(routes, RouteSummary{Tag: route.Tag, Title: route.Title})
	}

	return routes, nil
}

// PredictionsForStops fetches the raw predictions for a batch of stops on a
// route. The returned age is how stale the feed document is.
func (c *Client) PredictionsForStops(ctx context.Context, route string, stopTags []string) ([]ctdf.StopPrediction, time.Duration, error) {
	params := url.Values{}
	for _, stopTag := range stopTags {
		params.Add("stops", fmt.Sprintf("%s|%s", route, stopTag))
	}

	body, age, err := c.fetch(ctx, "predictionsForMultiStops", params, c.PredictionTTL)
	if err != nil {
		return nil, 0, err
	}

	var predictions []ctdf.StopPrediction
	for _, stopPredictions := range body.Predictions {
		for _, direction := range stopPredictions.Directions {
			for _, prediction := range direction.Predictions {
				minutes, err := strconv.Atoi(prediction.Minutes)
				if err != nil || prediction.Vehicle == "" {
					log.Warn().Str("route", route).Str("stop", stopPredictions.StopTag).Msg("Skipping malformed prediction record")
					continue
				}

				predictions = append(predictions, ctdf.StopPrediction{
					StopTag:      stopPredictions.StopTag,
					VehicleID:    prediction.Vehicle,
					DirectionTag: prediction.DirTag,
					Minutes:      minutes,
				})
			}
		}
	}

	return predictions, age, nil
}

// StopArrivals returns every route's predictions for a stop id, in feed order.
func (c *Client) StopArrivals(ctx context.Context, stopID string) ([]ctdf.Arrival, error) {
	body, age, err := c.fetch(ctx, "predictions", url.Values{"stopId": {stopID}}, c.PredictionTTL)
	if err != nil {
		return nil, err
	}

	var arrivals []ctdf.Arrival
	for _, stopPredictions := range body.Predictions {
		routeLabel := stopPredictions.RouteTitle
		if routeLabel == "" {
			routeLabel = stopPredictions.RouteTag
		}

		for _, direction := range stopPredictions.Directions {
			for _, prediction := range direction.Predictions {
				seconds, err := strconv.Atoi(prediction.Seconds)
				if err != nil {
					continue
				}

				seconds -= int(age.Seconds())
				if seconds < 0 {
					continue
				}

				arrivals = append(arrivals, ctdf.Arrival{
					Minutes:       seconds / 60,
					RouteLabel:    routeLabel,
					Headsign:      direction.Title,
					TransportType: ctdf.TransportTypeBus,
				})
			}
		}
	}

	return arrivals, nil
}
