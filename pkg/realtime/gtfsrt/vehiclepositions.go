package gtfsrt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/rs/zerolog/log"
	"github.com/travigo/livetracker/pkg/ctdf"
	"github.com/travigo/livetracker/pkg/feedcache"
	"google.golang.org/protobuf/proto"
)

// VehiclePositions reads vehicle samples from a GTFS-realtime VehiclePositions feed.
// The whole feed is one document, so every route shares the same cached payload.
type VehiclePositions struct {
	URL   string
	Cache *feedcache.FeedCache
	TTL   time.Duration
}

func NewVehiclePositions(url string, cache *feedcache.FeedCache, ttl time.Duration) *VehiclePositions {
	return &VehiclePositions{
		URL:   url,
		Cache: cache,
		TTL:   ttl,
	}
}

func (v *VehiclePositions) VehicleLocations(ctx context.Context, route string) ([]ctdf.VehicleSample, error) {
	result, err := v.Cache.FetchValidated(ctx, v.URL, v.TTL, ValidateFeed)
	if err != nil {
		return nil, err
	}

	return ParseVehiclePositions(result.Payload, route, v.Cache.Now().Add(-result.Age))
}

// ValidateFeed accepts only payloads that decode as a FeedMessage with a header.
// An HTML error page usually fails to decode, and if it happens to decode it has no header.
func ValidateFeed(payload []byte) error {
	feed := gtfs.FeedMessage{}
	if err := proto.Unmarshal(payload, &feed); err != nil {
		return err
	}
	if feed.GetHeader() == nil {
		return errors.New("feed message without header")
	}

	return nil
}

func ParseVehiclePositions(payload []byte, route string, fetchedAt time.Time) ([]ctdf.VehicleSample, error) {
	feed := gtfs.FeedMessage{}
	if err := proto.Unmarshal(payload, &feed); err != nil {
		return nil, fmt.Errorf("gtfs-rt vehicle positions: %w", err)
	}

	headerTime := fetchedAt
	if feed.GetHeader().GetTimestamp() > 0 {
		headerTime = time.Unix(int64(feed.GetHeader().GetTimestamp()), 0)
	}

	var samples []ctdf.VehicleSample
	for _, entity := range feed.GetEntity() {
		vehiclePosition := entity.GetVehicle()
		if vehiclePosition == nil || vehiclePosition.GetTrip().GetRouteId() != route {
			continue
		}

		if vehiclePosition.GetPosition() == nil {
			log.Warn().Str("route", route).Str("entity", entity.GetId()).Msg("Skipping vehicle position without a location")
			continue
		}

		vehicleID := vehiclePosition.GetVehicle().GetId()
		if vehicleID == "" {
			vehicleID = entity.GetId()
		}

		observedAt := headerTime
		if vehiclePosition.GetTimestamp() > 0 {
			observedAt = time.Unix(int64(vehiclePosition.GetTimestamp()), 0)
		}

		directionTag := ""
		if trip := vehiclePosition.GetTrip(); trip != nil && trip.DirectionId != nil {
			directionTag = strconv.FormatUint(uint64(trip.GetDirectionId()), 10)
		}

		samples = append(samples, ctdf.VehicleSample{
			VehicleID:    vehicleID,
			RouteID:      route,
			DirectionTag: directionTag,
			Location: ctdf.Location{
				Latitude:  float64(vehiclePosition.GetPosition().GetLatitude()),
				Longitude: float64(vehiclePosition.GetPosition().GetLongitude()),
			},
			Heading:    int(vehiclePosition.GetPosition().GetBearing()),
			ObservedAt: observedAt,
		})
	}

	return samples, nil
}
