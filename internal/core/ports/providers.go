package ports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tripsense/tripsense/internal/core/domain"
)

// ErrNoRoute is returned by a DirectionsProvider when no route exists
// between the requested points. Fatal for the whole pipeline.
var ErrNoRoute = errors.New("no route found")

// ErrNoRoadData is returned by a RoadLookupProvider when no road is known
// near the queried point. Not an error condition for the pipeline; the point
// resolves to the unknown road type.
var ErrNoRoadData = errors.New("no road data near point")

// UpstreamError carries the HTTP status of a failed upstream call so the
// caller can decide whether the failure is worth retrying.
type UpstreamError struct {
	Provider string
	Status   int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream returned HTTP %d", e.Provider, e.Status)
}

// DirectionsProvider computes one driving route between two points.
type DirectionsProvider interface {
	// FetchRoute fails with ErrNoRoute when no route is found; it never
	// returns an empty route.
	FetchRoute(ctx context.Context, origin, destination domain.GeoPoint, waypoints []domain.GeoPoint) (*domain.DirectionsRoute, error)
}

// ElevationProvider samples terrain elevation along a point sequence.
type ElevationProvider interface {
	// FetchSamples returns samples aligned to a possibly down-sampled subset
	// of the input points. An empty result means "no data", not an error.
	FetchSamples(ctx context.Context, points []domain.GeoPoint) ([]domain.ElevationSample, error)
}

// RoadInfo is the raw road data reported near a single point.
type RoadInfo struct {
	// ClassTag is the upstream road-class tag (e.g. "motorway"), empty when absent.
	ClassTag string
	// SpeedLimitRaw is the unparsed speed limit string (e.g. "50", "30 mph"),
	// empty when absent.
	SpeedLimitRaw string
}

// RoadLookupProvider resolves raw road data for a single point.
type RoadLookupProvider interface {
	// Lookup returns ErrNoRoadData when no road is known near the point and
	// *UpstreamError (or a transport error) when the call itself failed.
	Lookup(ctx context.Context, point domain.GeoPoint) (*RoadInfo, error)
}

// WeatherProvider fetches forecasts for a small set of route points.
type WeatherProvider interface {
	// FetchSnapshots returns the forecast record closest to travelAt for each
	// point it could resolve. The result may be empty.
	FetchSnapshots(ctx context.Context, points []domain.GeoPoint, travelAt time.Time) ([]domain.WeatherSnapshot, error)
}
