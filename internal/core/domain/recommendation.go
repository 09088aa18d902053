package domain

import "time"

// Focus is what the traveller optimises for when choosing a vehicle.
type Focus string

const (
	FocusComfort Focus = "COMFORT"
	FocusSafety  Focus = "SAFETY"
	FocusPrice   Focus = "PRICE"
)

// ConfidenceLevel is the traveller's self-reported confidence driving in
// bad weather.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "LOW"
	ConfidenceMedium ConfidenceLevel = "MEDIUM"
	ConfidenceHigh   ConfidenceLevel = "HIGH"
)

// UserPreferences captures the traveller's party size and priorities.
type UserPreferences struct {
	Travellers        int             `json:"travellers"`
	Bags              int             `json:"bags"`
	Focus             Focus           `json:"focus"`
	TravelingWithKids bool            `json:"traveling_with_kids"`
	WeatherConfidence ConfidenceLevel `json:"weather_confidence"`
	PreferAutomatic   bool            `json:"prefer_automatic"`
}

// UpgradeOption is an alternative vehicle group with its price delta
// relative to the recommended group.
type UpgradeOption struct {
	Group      string `json:"group"`
	Model      string `json:"model"`
	PriceDelta string `json:"price_delta"`
}

// RecommendedVehicle is the chosen vehicle group with human-readable reasons.
type RecommendedVehicle struct {
	Group          string          `json:"group"`
	ModelExample   string          `json:"model_example"`
	Reasons        []string        `json:"reasons"`
	UpgradeOptions []UpgradeOption `json:"upgrade_options"`
}

// ProtectionRecommendation suggests an insurance package when route
// conditions warrant extra cover.
type ProtectionRecommendation struct {
	PackageName string `json:"package_name"`
	Reason      string `json:"reason"`
}

// VehicleRecommendation is the full recommendation output: a vehicle plus an
// optional protection package.
type VehicleRecommendation struct {
	RecommendedVehicle RecommendedVehicle        `json:"recommended_vehicle"`
	Protection         *ProtectionRecommendation `json:"protection_recommendation,omitempty"`
}

// TripRequest is a fully-parsed recommendation request: where, when, and who
// is travelling.
type TripRequest struct {
	Origin      GeoPoint        `json:"origin"`
	Destination GeoPoint        `json:"destination"`
	Waypoints   []GeoPoint      `json:"waypoints,omitempty"`
	TravelAt    time.Time       `json:"travel_at"`
	RentalDays  int             `json:"rental_days"`
	Preferences UserPreferences `json:"preferences"`
}

// RouteSummary condenses the route geometry into caller-facing numbers.
type RouteSummary struct {
	TotalDistanceMeters  float64 `json:"total_distance_meters"`
	TotalDurationSeconds float64 `json:"total_duration_seconds"`
	TripLengthKm         float64 `json:"trip_length_km"`
	EstimatedDriveHours  int     `json:"estimated_drive_hours"`
	AverageSpeedKph      float64 `json:"average_speed_kph"`
}

// RecommendationResult is the complete response to a recommendation request.
type RecommendationResult struct {
	ID                    string                `json:"id"`
	Route                 RouteSummary          `json:"route"`
	Analysis              RouteAnalysisResult   `json:"analysis"`
	Recommendation        VehicleRecommendation `json:"recommendation"`
	RepresentativeWeather *WeatherSnapshot      `json:"representative_weather,omitempty"`
	CreatedAt             time.Time             `json:"created_at"`
}

// RecommendationEvent is published after a recommendation is computed.
type RecommendationEvent struct {
	ID                     string    `json:"id"`
	Group                  string    `json:"group"`
	OverallDifficultyScore float64   `json:"overall_difficulty_score"`
	TotalDistanceMeters    float64   `json:"total_distance_meters"`
	ProtectionOffered      bool      `json:"protection_offered"`
	CreatedAt              time.Time `json:"created_at"`
}
