package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/tripsense/tripsense/internal/core/domain"
	"github.com/tripsense/tripsense/internal/core/ports"
	"github.com/tripsense/tripsense/internal/pkg/metrics"
)

const routeContextTTL = 15 * time.Minute

var tracer = otel.Tracer("github.com/tripsense/tripsense/internal/core/usecases")

// RouteInsightsService assembles the full RouteContext for a planned trip:
// geometry from the directions provider, then elevation, road classification,
// and weather fetched concurrently. Only a missing route is fatal; every
// enrichment degrades to a neutral fallback so one flaky upstream cannot
// take the endpoint down.
type RouteInsightsService struct {
	directions ports.DirectionsProvider
	elevation  ports.ElevationProvider
	classifier *RoadClassifier
	weather    ports.WeatherProvider
	cache      ports.CacheService
	log        *slog.Logger
}

// NewRouteInsightsService creates a RouteInsightsService. cache may be nil.
func NewRouteInsightsService(
	directions ports.DirectionsProvider,
	elevation ports.ElevationProvider,
	classifier *RoadClassifier,
	weather ports.WeatherProvider,
	cache ports.CacheService,
	log *slog.Logger,
) *RouteInsightsService {
	return &RouteInsightsService{
		directions: directions,
		elevation:  elevation,
		classifier: classifier,
		weather:    weather,
		cache:      cache,
		log:        log,
	}
}

// FetchRouteContext builds the route context for the given trip. The result
// is cached briefly keyed on the trip coordinates and the travel hour, since
// forecasts and road data barely move within that window.
func (s *RouteInsightsService) FetchRouteContext(ctx context.Context, origin, destination domain.GeoPoint, waypoints []domain.GeoPoint, travelAt time.Time) (*domain.RouteContext, error) {
	cacheKey := routeContextKey(origin, destination, waypoints, travelAt)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var rc domain.RouteContext
			if err := json.Unmarshal(data, &rc); err == nil {
				metrics.CacheHits.WithLabelValues("route_context").Inc()
				return &rc, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("route_context").Inc()
	}

	ctx, span := tracer.Start(ctx, "pipeline.route_context")
	defer span.End()

	start := time.Now()
	dirCtx, dirSpan := tracer.Start(ctx, "pipeline.directions")
	route, err := s.directions.FetchRoute(dirCtx, origin, destination, waypoints)
	dirSpan.End()
	metrics.ObserveStage("directions", start)
	if err != nil {
		return nil, fmt.Errorf("fetch route: %w", err)
	}

	rc := &domain.RouteContext{
		Polyline:             route.Polyline,
		Points:               route.Points,
		TotalDistanceMeters:  route.TotalDistanceMeters,
		TotalDurationSeconds: route.TotalDurationSeconds,
	}

	// Weather is sampled at the trip's fixed stops, not along the decoded
	// polyline: the forecast at the origin, each waypoint, and the destination
	// is what the traveller plans around.
	weatherPoints := make([]domain.GeoPoint, 0, len(waypoints)+2)
	weatherPoints = append(weatherPoints, origin)
	weatherPoints = append(weatherPoints, waypoints...)
	weatherPoints = append(weatherPoints, destination)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		start := time.Now()
		stageCtx, stageSpan := tracer.Start(ctx, "pipeline.elevation")
		rc.ElevationSamples = s.fetchElevation(stageCtx, route.Points)
		stageSpan.End()
		metrics.ObserveStage("elevation", start)
	}()

	go func() {
		defer wg.Done()
		start := time.Now()
		stageCtx, stageSpan := tracer.Start(ctx, "pipeline.roads")
		classification := s.classifier.Classify(stageCtx, route.Points)
		stageSpan.End()
		rc.RoadBreakdown = classification.Breakdown
		rc.RoadSegments = classification.Segments
		metrics.ObserveStage("roads", start)
	}()

	go func() {
		defer wg.Done()
		start := time.Now()
		stageCtx, stageSpan := tracer.Start(ctx, "pipeline.weather")
		rc.WeatherSnapshots = s.fetchWeather(stageCtx, weatherPoints, travelAt)
		stageSpan.End()
		metrics.ObserveStage("weather", start)
	}()

	wg.Wait()

	rc.RepresentativeWeather = representativeWeather(rc.WeatherSnapshots)

	if s.cache != nil {
		if data, err := json.Marshal(rc); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, routeContextTTL)
		}
	}

	return rc, nil
}

// fetchElevation returns elevation samples, synthesising a flat profile when
// the provider fails or returns nothing. The synthetic profile uses the point
// index as a pseudo-distance so downstream slope math stays well-defined and
// yields zero gradients.
func (s *RouteInsightsService) fetchElevation(ctx context.Context, points []domain.GeoPoint) []domain.ElevationSample {
	samples, err := s.elevation.FetchSamples(ctx, points)
	if err == nil && len(samples) > 0 {
		return samples
	}
	if err != nil {
		metrics.UpstreamFailures.WithLabelValues("elevation").Inc()
		s.log.Warn("elevation fetch failed, assuming flat route", "error", err)
	}

	flat := make([]domain.ElevationSample, len(points))
	for i, pt := range points {
		flat[i] = domain.ElevationSample{
			Point:                    pt,
			ElevationMeters:          0,
			CumulativeDistanceMeters: float64(i),
		}
	}
	return flat
}

// fetchWeather returns weather snapshots, degrading to a single clear-sky
// snapshot at the route start when the provider fails or returns nothing.
func (s *RouteInsightsService) fetchWeather(ctx context.Context, points []domain.GeoPoint, travelAt time.Time) []domain.WeatherSnapshot {
	snapshots, err := s.weather.FetchSnapshots(ctx, points, travelAt)
	if err == nil && len(snapshots) > 0 {
		return snapshots
	}
	if err != nil {
		metrics.UpstreamFailures.WithLabelValues("weather").Inc()
		s.log.Warn("weather fetch failed, assuming clear conditions", "error", err)
	}
	if len(points) == 0 {
		return nil
	}

	return []domain.WeatherSnapshot{{
		Point: points[0],
		Time:  travelAt,
		Condition: domain.WeatherCondition{
			Type:        domain.WeatherClear,
			Severity:    domain.SeverityLow,
			Description: "no forecast available",
		},
		Metrics: domain.WeatherMetrics{
			TemperatureC:     20,
			WindSpeedMps:     2,
			VisibilityMeters: 10000,
		},
	}}
}

// representativeWeather picks the most severe snapshot along the route.
func representativeWeather(snapshots []domain.WeatherSnapshot) *domain.WeatherSnapshot {
	if len(snapshots) == 0 {
		return nil
	}
	worst := snapshots[0]
	for _, snap := range snapshots[1:] {
		if snap.SeverityRank() > worst.SeverityRank() {
			worst = snap
		}
	}
	return &worst
}

func routeContextKey(origin, destination domain.GeoPoint, waypoints []domain.GeoPoint, travelAt time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "route:ctx:%.5f:%.5f:%.5f:%.5f", origin.Lat, origin.Lon, destination.Lat, destination.Lon)
	for _, wp := range waypoints {
		fmt.Fprintf(&b, ":%.5f:%.5f", wp.Lat, wp.Lon)
	}
	fmt.Fprintf(&b, ":%d", travelAt.Truncate(time.Hour).Unix())
	return b.String()
}
