package usecases

import (
	"fmt"
	"math"
	"strings"

	"github.com/tripsense/tripsense/internal/core/domain"
)

const (
	steepSlopeThreshold   = 8.0
	harshWeatherThreshold = 0.5
	tightRoadsThreshold   = 0.3
	roughRoadsThreshold   = 0.5
)

// RecommendationEngine maps a route analysis plus user preferences onto a
// fleet group, upgrade options, and an optional protection package. Pure
// rule evaluation: same inputs, same output.
type RecommendationEngine struct{}

// NewRecommendationEngine creates a RecommendationEngine.
func NewRecommendationEngine() *RecommendationEngine {
	return &RecommendationEngine{}
}

// Recommend evaluates the decision rules against the analysed route.
func (e *RecommendationEngine) Recommend(prefs domain.UserPreferences, analysis *domain.RouteAnalysisResult, breakdown map[domain.RoadType]float64) *domain.VehicleRecommendation {
	slope := analysis.SlopeMetrics.MaxSlopePercent
	roadDifficulty := analysis.RoadDifficultyScore
	weatherSeverity := analysis.WeatherSeverityScore
	tightRoadsShare := breakdown[domain.RoadResidential] + breakdown[domain.RoadService]

	travelingHeavy := prefs.Travellers >= 4 || prefs.Bags >= 3
	steepRoute := slope >= steepSlopeThreshold
	harshWeather := weatherSeverity >= harshWeatherThreshold
	narrowRoads := tightRoadsShare >= tightRoadsThreshold && !travelingHeavy

	var (
		group   string
		model   string
		reasons []string
	)

	switch {
	case steepRoute || travelingHeavy || harshWeather:
		if prefs.Focus == domain.FocusComfort {
			group, model = "SUV Premium", "BMW X3"
		} else {
			group, model = "SUV Standard", "Toyota RAV4"
		}
		reasons = append(reasons, steepReason(steepRoute, weatherSeverity))
		if travelingHeavy {
			reasons = append(reasons, fmt.Sprintf(
				"You travel with %d people & %d bags → mid-sized SUV provides room.",
				prefs.Travellers, prefs.Bags))
		}
		if prefs.Focus == domain.FocusComfort {
			reasons = append(reasons, "You prioritise comfort → premium SUV trim adds quieter cabin and seats.")
		}
	case narrowRoads:
		group, model = "Compact Sedan", "Audi A3"
		reasons = append(reasons, fmt.Sprintf(
			"Route has %d%% narrow or residential roads → compact car handles tight turns.",
			int(math.Round(tightRoadsShare*100))))
		if prefs.Focus == domain.FocusPrice {
			reasons = append(reasons, "Focus on price → compact sedans keep rental cost low.")
		}
	default:
		group, model = "Crossover Comfort", "Volvo XC40"
		reasons = append(reasons, "Balanced route difficulty → crossover gives higher seating without big footprint.")
	}

	if harshWeather {
		reasons = append(reasons, "Forecast indicates challenging weather → AWD & safety aids recommended.")
		if prefs.WeatherConfidence == domain.ConfidenceLow {
			reasons = append(reasons, "You reported low confidence in bad weather → driver assistance prioritized.")
		}
	}

	if prefs.TravelingWithKids {
		reasons = append(reasons, "Travelling with kids → ISOFIX mounts & driver assists add safety.")
	}

	return &domain.VehicleRecommendation{
		RecommendedVehicle: domain.RecommendedVehicle{
			Group:          group,
			ModelExample:   model,
			Reasons:        dedupe(reasons),
			UpgradeOptions: upgradeOptionsFor(group),
		},
		Protection: protectionFor(roadDifficulty, weatherSeverity, tightRoadsShare),
	}
}

func steepReason(steepRoute bool, weatherSeverity float64) string {
	switch {
	case steepRoute && weatherSeverity >= harshWeatherThreshold:
		return "Steep climbs plus harsh weather expected → AWD SUV for grip & torque."
	case steepRoute:
		return "Route features notable elevation changes → SUV handles slopes better."
	default:
		return "Harsh weather expected along the route → SUV traction & stability helpful."
	}
}

func upgradeOptionsFor(group string) []domain.UpgradeOption {
	switch group {
	case "SUV Premium":
		return []domain.UpgradeOption{
			{Group: "SUV Luxury", Model: "BMW X5", PriceDelta: "+€40/day"},
			{Group: "Sedan Compact", Model: "Audi A3", PriceDelta: "-€10/day"},
		}
	case "SUV Standard":
		return []domain.UpgradeOption{
			{Group: "SUV Premium", Model: "BMW X3", PriceDelta: "+€25/day"},
			{Group: "Crossover Comfort", Model: "Volvo XC40", PriceDelta: "+€10/day"},
		}
	case "Compact Sedan":
		return []domain.UpgradeOption{
			{Group: "Crossover Comfort", Model: "Volvo XC40", PriceDelta: "+€8/day"},
			{Group: "EV City", Model: "VW ID.3", PriceDelta: "+€5/day"},
		}
	default:
		return []domain.UpgradeOption{
			{Group: "SUV Premium", Model: "BMW X3", PriceDelta: "+€20/day"},
			{Group: "Compact Sedan", Model: "Audi A3", PriceDelta: "same-day upgrade"},
		}
	}
}

func protectionFor(roadDifficulty, weatherSeverity, tightRoadsShare float64) *domain.ProtectionRecommendation {
	needsExtraCover := roadDifficulty >= roughRoadsThreshold ||
		weatherSeverity >= harshWeatherThreshold ||
		tightRoadsShare >= tightRoadsThreshold
	if !needsExtraCover {
		return nil
	}

	var parts []string
	if tightRoadsShare >= tightRoadsThreshold {
		parts = append(parts, "narrow residential streets increase parking scuff risk")
	}
	if roadDifficulty >= roughRoadsThreshold {
		parts = append(parts, "mixed road surfaces add chance of wheel/tire damage")
	}
	if weatherSeverity >= harshWeatherThreshold {
		parts = append(parts, "bad weather raises accident probability")
	}

	return &domain.ProtectionRecommendation{
		PackageName: "Smart Protection Plus",
		Reason:      strings.Join(parts, " & "),
	}
}

// dedupe removes duplicate reasons, preserving first-seen order.
func dedupe(reasons []string) []string {
	seen := make(map[string]struct{}, len(reasons))
	out := reasons[:0]
	for _, r := range reasons {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
