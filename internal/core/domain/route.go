package domain

// RoadType classifies a stretch of road by its OSM-style highway class.
type RoadType string

const (
	RoadMotorway    RoadType = "MOTORWAY"
	RoadTrunk       RoadType = "TRUNK"
	RoadPrimary     RoadType = "PRIMARY"
	RoadSecondary   RoadType = "SECONDARY"
	RoadTertiary    RoadType = "TERTIARY"
	RoadResidential RoadType = "RESIDENTIAL"
	RoadService     RoadType = "SERVICE"
	RoadRamp        RoadType = "RAMP"
	RoadUnknown     RoadType = "UNKNOWN"
)

// DefaultSpeedKph is assumed when neither a speed limit nor a road class is known.
const DefaultSpeedKph = 50.0

// RoadTypeWeights maps each road type to its difficulty weight. Narrow or
// slow road types weigh more. Kept as a table, separate from the type
// definition, so the scoring policy can be tested on its own.
var RoadTypeWeights = map[RoadType]float64{
	RoadMotorway:    0.1,
	RoadTrunk:       0.2,
	RoadPrimary:     0.3,
	RoadSecondary:   0.4,
	RoadTertiary:    0.5,
	RoadResidential: 0.7,
	RoadService:     0.8,
	RoadRamp:        0.6,
	RoadUnknown:     0.5,
}

// DefaultRoadWeight applies to any road type missing from RoadTypeWeights.
const DefaultRoadWeight = 0.5

// RoadTypeSpeeds maps each road type to its reference speed in km/h, used
// when the upstream reports a class but no speed limit.
var RoadTypeSpeeds = map[RoadType]float64{
	RoadMotorway:    120,
	RoadTrunk:       100,
	RoadPrimary:     90,
	RoadSecondary:   80,
	RoadTertiary:    70,
	RoadResidential: 50,
	RoadService:     30,
	RoadRamp:        60,
	RoadUnknown:     DefaultSpeedKph,
}

// Weight returns the difficulty weight for the road type.
func (t RoadType) Weight() float64 {
	if w, ok := RoadTypeWeights[t]; ok {
		return w
	}
	return DefaultRoadWeight
}

// ReferenceSpeedKph returns the reference speed for the road type.
func (t RoadType) ReferenceSpeedKph() float64 {
	if s, ok := RoadTypeSpeeds[t]; ok {
		return s
	}
	return DefaultSpeedKph
}

// ElevationSample is one point along the route with its elevation and the
// cumulative distance from the route start. Samples are ordered along the
// route; cumulative distance is non-decreasing.
type ElevationSample struct {
	Point                    GeoPoint `json:"point"`
	ElevationMeters          float64  `json:"elevation_meters"`
	CumulativeDistanceMeters float64  `json:"cumulative_distance_meters"`
}

// RoadSegment is a sampled route point with its resolved road type and speed.
type RoadSegment struct {
	Point    GeoPoint `json:"point"`
	RoadType RoadType `json:"road_type"`
	SpeedKph float64  `json:"speed_kph"`
}

// DirectionsRoute is the computed route returned by a directions provider.
type DirectionsRoute struct {
	Polyline             string     `json:"polyline"`
	Points               []GeoPoint `json:"points"`
	TotalDistanceMeters  float64    `json:"total_distance_meters"`
	TotalDurationSeconds float64    `json:"total_duration_seconds"`
}

// RoadClassification is the per-route output of road classification: the
// fractional distribution over road types (fractions sum to 1 when non-empty)
// and the resolved segments in sample order.
type RoadClassification struct {
	Breakdown map[RoadType]float64 `json:"breakdown"`
	Segments  []RoadSegment        `json:"segments"`
}

// RouteContext aggregates everything known about a planned route: geometry,
// elevation profile, road-type mix, and weather along the way. Built fresh
// per request and discarded afterward.
type RouteContext struct {
	Polyline              string               `json:"polyline"`
	Points                []GeoPoint           `json:"points"`
	TotalDistanceMeters   float64              `json:"total_distance_meters"`
	TotalDurationSeconds  float64              `json:"total_duration_seconds"`
	ElevationSamples      []ElevationSample    `json:"elevation_samples"`
	RoadBreakdown         map[RoadType]float64 `json:"road_breakdown"`
	RoadSegments          []RoadSegment        `json:"road_segments"`
	WeatherSnapshots      []WeatherSnapshot    `json:"weather_snapshots"`
	RepresentativeWeather *WeatherSnapshot     `json:"representative_weather,omitempty"`
}

// SlopeMetrics summarises the elevation profile of a route.
type SlopeMetrics struct {
	MaxSlopePercent     float64 `json:"max_slope_percent"`
	TotalAscentMeters   float64 `json:"total_ascent_meters"`
	TotalDescentMeters  float64 `json:"total_descent_meters"`
	AverageSlopePercent float64 `json:"average_slope_percent"`
}

// RouteAnalysisResult holds the computed difficulty scores for a route.
// All scores are in [0,1].
type RouteAnalysisResult struct {
	SlopeMetrics           SlopeMetrics `json:"slope_metrics"`
	SlopeScore             float64      `json:"slope_score"`
	RoadDifficultyScore    float64      `json:"road_difficulty_score"`
	WeatherSeverityScore   float64      `json:"weather_severity_score"`
	OverallDifficultyScore float64      `json:"overall_difficulty_score"`
}
