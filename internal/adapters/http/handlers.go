package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tripsense/tripsense/internal/core/domain"
	"github.com/tripsense/tripsense/internal/core/ports"
	"github.com/tripsense/tripsense/internal/core/usecases"
)

// GeoPointDTO is a latitude/longitude pair in the request body.
type GeoPointDTO struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PreferencesDTO carries the traveller's party size and priorities.
type PreferencesDTO struct {
	Travellers        int    `json:"travellers"`
	Bags              int    `json:"bags"`
	Focus             string `json:"focus"`
	TravelingWithKids bool   `json:"traveling_with_kids"`
	WeatherConfidence string `json:"weather_confidence"`
	PreferAutomatic   bool   `json:"prefer_automatic"`
}

// RecommendationRequest is the POST /v1/recommendations body.
type RecommendationRequest struct {
	Origin      GeoPointDTO    `json:"origin"`
	Destination GeoPointDTO    `json:"destination"`
	Waypoints   []GeoPointDTO  `json:"waypoints,omitempty"`
	TravelAt    string         `json:"travel_at"`
	RentalDays  int            `json:"rental_days"`
	Preferences PreferencesDTO `json:"preferences"`
}

// RecommendationHandler runs the recommendation pipeline for a planned trip.
func RecommendationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body RecommendationRequest
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid JSON body: "+err.Error())
		}

		req, err := body.toDomain()
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		result, err := deps.Recommendations.ComputeRecommendation(c.UserContext(), req)
		if err != nil {
			switch {
			case errors.Is(err, usecases.ErrInvalidInput):
				return errBadRequest(c, err.Error())
			case errors.Is(err, ports.ErrNoRoute):
				return errNotFound(c, "no drivable route found between the given points")
			default:
				var ue *ports.UpstreamError
				if errors.As(err, &ue) {
					return errBadGateway(c, ue.Error())
				}
				LoggerFromCtx(c.UserContext()).Error("recommendation pipeline failed", "error", err)
				return errInternal(c, "failed to compute recommendation")
			}
		}

		return c.JSON(result)
	}
}

func (r *RecommendationRequest) toDomain() (*domain.TripRequest, error) {
	var travelAt time.Time
	if r.TravelAt != "" {
		parsed, err := time.Parse(time.RFC3339, r.TravelAt)
		if err != nil {
			return nil, errors.New("travel_at must be an RFC 3339 timestamp")
		}
		travelAt = parsed
	}

	waypoints := make([]domain.GeoPoint, len(r.Waypoints))
	for i, wp := range r.Waypoints {
		waypoints[i] = domain.GeoPoint{Lat: wp.Lat, Lon: wp.Lon}
	}

	return &domain.TripRequest{
		Origin:      domain.GeoPoint{Lat: r.Origin.Lat, Lon: r.Origin.Lon},
		Destination: domain.GeoPoint{Lat: r.Destination.Lat, Lon: r.Destination.Lon},
		Waypoints:   waypoints,
		TravelAt:    travelAt,
		RentalDays:  r.RentalDays,
		Preferences: domain.UserPreferences{
			Travellers:        r.Preferences.Travellers,
			Bags:              r.Preferences.Bags,
			Focus:             domain.Focus(r.Preferences.Focus),
			TravelingWithKids: r.Preferences.TravelingWithKids,
			WeatherConfidence: domain.ConfidenceLevel(r.Preferences.WeatherConfidence),
			PreferAutomatic:   r.Preferences.PreferAutomatic,
		},
	}, nil
}
