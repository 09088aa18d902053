package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/tripsense/tripsense/internal/core/domain"
	"github.com/tripsense/tripsense/internal/core/ports"
	"github.com/tripsense/tripsense/internal/pkg/metrics"
)

// ErrInvalidInput marks request validation failures. Wrapped errors carry the
// specific field complaint.
var ErrInvalidInput = errors.New("invalid input")

// RecommendationService runs the full recommendation pipeline: route context
// assembly, difficulty analysis, and rule evaluation, then publishes an event
// for downstream consumers.
type RecommendationService struct {
	insights *RouteInsightsService
	analysis *RouteAnalysisService
	engine   *RecommendationEngine
	events   ports.EventPublisher
	log      *slog.Logger
}

// NewRecommendationService creates a RecommendationService. events may be nil.
func NewRecommendationService(
	insights *RouteInsightsService,
	analysis *RouteAnalysisService,
	engine *RecommendationEngine,
	events ports.EventPublisher,
	log *slog.Logger,
) *RecommendationService {
	return &RecommendationService{
		insights: insights,
		analysis: analysis,
		engine:   engine,
		events:   events,
		log:      log,
	}
}

// ComputeRecommendation validates the request, assembles the route context,
// scores it, and picks a vehicle. Event publishing is best-effort: a broker
// outage never fails the request.
func (s *RecommendationService) ComputeRecommendation(ctx context.Context, req *domain.TripRequest) (*domain.RecommendationResult, error) {
	if err := validateTripRequest(req); err != nil {
		return nil, err
	}

	rc, err := s.insights.FetchRouteContext(ctx, req.Origin, req.Destination, req.Waypoints, req.TravelAt)
	if err != nil {
		return nil, err
	}

	analysis := s.analysis.Analyze(rc)
	recommendation := s.engine.Recommend(req.Preferences, analysis, rc.RoadBreakdown)

	result := &domain.RecommendationResult{
		ID:                    uuid.NewString(),
		Route:                 summariseRoute(rc),
		Analysis:              *analysis,
		Recommendation:        *recommendation,
		RepresentativeWeather: rc.RepresentativeWeather,
		CreatedAt:             time.Now().UTC(),
	}

	metrics.RecommendationsTotal.WithLabelValues(recommendation.RecommendedVehicle.Group).Inc()
	s.publishEvent(ctx, result)

	return result, nil
}

func (s *RecommendationService) publishEvent(ctx context.Context, result *domain.RecommendationResult) {
	if s.events == nil {
		return
	}

	event := &domain.RecommendationEvent{
		ID:                     result.ID,
		Group:                  result.Recommendation.RecommendedVehicle.Group,
		OverallDifficultyScore: result.Analysis.OverallDifficultyScore,
		TotalDistanceMeters:    result.Route.TotalDistanceMeters,
		ProtectionOffered:      result.Recommendation.Protection != nil,
		CreatedAt:              result.CreatedAt,
	}
	if err := s.events.PublishRecommendation(ctx, event); err != nil {
		s.log.Warn("failed to publish recommendation event", "id", event.ID, "error", err)
	}
}

func summariseRoute(rc *domain.RouteContext) domain.RouteSummary {
	hours := int(math.Ceil(rc.TotalDurationSeconds / 3600))
	if hours < 1 {
		hours = 1
	}

	avgSpeed := breakdownWeightedSpeed(rc.RoadBreakdown)
	if rc.TotalDurationSeconds > 0 {
		avgSpeed = rc.TotalDistanceMeters / rc.TotalDurationSeconds * 3.6
	}

	return domain.RouteSummary{
		TotalDistanceMeters:  rc.TotalDistanceMeters,
		TotalDurationSeconds: rc.TotalDurationSeconds,
		TripLengthKm:         rc.TotalDistanceMeters / 1000,
		EstimatedDriveHours:  hours,
		AverageSpeedKph:      avgSpeed,
	}
}

// breakdownWeightedSpeed estimates an average speed from the road-type mix
// when the directions upstream reported no duration.
func breakdownWeightedSpeed(breakdown map[domain.RoadType]float64) float64 {
	var speed float64
	for rt, fraction := range breakdown {
		speed += fraction * rt.ReferenceSpeedKph()
	}
	return speed
}

func validateTripRequest(req *domain.TripRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request body is required", ErrInvalidInput)
	}
	if err := validatePoint("origin", req.Origin); err != nil {
		return err
	}
	if err := validatePoint("destination", req.Destination); err != nil {
		return err
	}
	for i, wp := range req.Waypoints {
		if err := validatePoint(fmt.Sprintf("waypoints[%d]", i), wp); err != nil {
			return err
		}
	}
	if req.Origin == req.Destination {
		return fmt.Errorf("%w: origin and destination must differ", ErrInvalidInput)
	}
	if req.Preferences.Travellers < 1 {
		return fmt.Errorf("%w: travellers must be at least 1", ErrInvalidInput)
	}
	if req.Preferences.Bags < 0 {
		return fmt.Errorf("%w: bags must not be negative", ErrInvalidInput)
	}
	switch req.Preferences.Focus {
	case domain.FocusComfort, domain.FocusSafety, domain.FocusPrice:
	default:
		return fmt.Errorf("%w: focus must be one of COMFORT, SAFETY, PRICE", ErrInvalidInput)
	}
	if req.TravelAt.IsZero() {
		return fmt.Errorf("%w: travel_at is required", ErrInvalidInput)
	}
	if req.RentalDays < 1 {
		return fmt.Errorf("%w: rental_days must be at least 1", ErrInvalidInput)
	}
	return nil
}

func validatePoint(field string, pt domain.GeoPoint) error {
	if pt.Lat < -90 || pt.Lat > 90 {
		return fmt.Errorf("%w: %s latitude must be within [-90, 90]", ErrInvalidInput, field)
	}
	if pt.Lon < -180 || pt.Lon > 180 {
		return fmt.Errorf("%w: %s longitude must be within [-180, 180]", ErrInvalidInput, field)
	}
	return nil
}
