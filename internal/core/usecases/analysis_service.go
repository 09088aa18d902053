package usecases

import (
	"math"

	"github.com/tripsense/tripsense/internal/core/domain"
)

const (
	slopeWeight   = 0.4
	roadWeight    = 0.3
	weatherWeight = 0.3

	// maxSlopeReference is the gradient (percent) at which the slope score
	// saturates at 1.0. Roughly the steepest grade on public mountain roads.
	maxSlopeReference = 18.0
)

// RouteAnalysisService turns an assembled route context into difficulty
// scores. All computations are pure and deterministic.
type RouteAnalysisService struct{}

// NewRouteAnalysisService creates a RouteAnalysisService.
func NewRouteAnalysisService() *RouteAnalysisService {
	return &RouteAnalysisService{}
}

// Analyze computes slope metrics and the individual and overall difficulty
// scores for the given route context.
func (s *RouteAnalysisService) Analyze(rc *domain.RouteContext) *domain.RouteAnalysisResult {
	slope := s.CalculateSlopeMetrics(rc.ElevationSamples)
	roadScore := s.ComputeRoadDifficultyScore(rc.RoadBreakdown)
	weatherScore := s.ComputeWeatherSeverityScore(rc.WeatherSnapshots)

	slopeScore := math.Min(slope.MaxSlopePercent/maxSlopeReference, 1.0)
	overall := slopeWeight*slopeScore + roadWeight*roadScore + weatherWeight*weatherScore

	return &domain.RouteAnalysisResult{
		SlopeMetrics:           slope,
		SlopeScore:             slopeScore,
		RoadDifficultyScore:    roadScore,
		WeatherSeverityScore:   weatherScore,
		OverallDifficultyScore: overall,
	}
}

// CalculateSlopeMetrics derives gradient statistics from consecutive
// elevation samples. Pairs with non-increasing distance are skipped so a
// duplicated or out-of-order sample cannot produce an infinite gradient.
func (s *RouteAnalysisService) CalculateSlopeMetrics(samples []domain.ElevationSample) domain.SlopeMetrics {
	if len(samples) < 2 {
		return domain.SlopeMetrics{}
	}

	var (
		maxSlope float64
		sumAbs   float64
		ascent   float64
		descent  float64
		segments int
	)

	for i := 1; i < len(samples); i++ {
		dDist := samples[i].CumulativeDistanceMeters - samples[i-1].CumulativeDistanceMeters
		if dDist <= 0 {
			continue
		}
		dElev := samples[i].ElevationMeters - samples[i-1].ElevationMeters
		slope := dElev / dDist * 100

		if math.Abs(slope) > maxSlope {
			maxSlope = math.Abs(slope)
		}
		sumAbs += math.Abs(slope)
		segments++

		if dElev > 0 {
			ascent += dElev
		} else {
			descent += -dElev
		}
	}

	if segments == 0 {
		return domain.SlopeMetrics{}
	}

	return domain.SlopeMetrics{
		MaxSlopePercent:     maxSlope,
		AverageSlopePercent: sumAbs / float64(segments),
		TotalAscentMeters:   ascent,
		TotalDescentMeters:  descent,
	}
}

// ComputeRoadDifficultyScore folds the road-type breakdown into a single
// score in [0,1]. Fractions are weighted by how demanding each road class
// is to drive; the sum is capped at 1.
func (s *RouteAnalysisService) ComputeRoadDifficultyScore(breakdown map[domain.RoadType]float64) float64 {
	if len(breakdown) == 0 {
		return 0.0
	}

	var score float64
	for rt, fraction := range breakdown {
		score += fraction * rt.Weight()
	}
	return math.Min(score, 1.0)
}

// ComputeWeatherSeverityScore averages the severity weights of all weather
// snapshots along the route. No snapshots means no known adversity.
func (s *RouteAnalysisService) ComputeWeatherSeverityScore(snapshots []domain.WeatherSnapshot) float64 {
	if len(snapshots) == 0 {
		return 0.0
	}

	var sum float64
	for _, snap := range snapshots {
		sum += snap.Condition.Severity.Weight()
	}
	return sum / float64(len(snapshots))
}
