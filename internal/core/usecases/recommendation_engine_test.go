package usecases_test

import (
	"reflect"
	"strings"
	"testing"

	"github.com/tripsense/tripsense/internal/core/domain"
	"github.com/tripsense/tripsense/internal/core/usecases"
)

func analysisWith(maxSlope, roadScore, weatherScore float64) *domain.RouteAnalysisResult {
	return &domain.RouteAnalysisResult{
		SlopeMetrics:         domain.SlopeMetrics{MaxSlopePercent: maxSlope},
		RoadDifficultyScore:  roadScore,
		WeatherSeverityScore: weatherScore,
	}
}

func hasReasonContaining(reasons []string, substr string) bool {
	for _, r := range reasons {
		if strings.Contains(r, substr) {
			return true
		}
	}
	return false
}

func TestRecommend_HeavyLoadTriggersSUV(t *testing.T) {
	engine := usecases.NewRecommendationEngine()

	prefs := domain.UserPreferences{Travellers: 5, Bags: 4, Focus: domain.FocusSafety}
	analysis := analysisWith(3.0, 0.1, 0.1)
	breakdown := map[domain.RoadType]float64{domain.RoadMotorway: 1.0}

	rec := engine.Recommend(prefs, analysis, breakdown)

	if rec.RecommendedVehicle.Group != "SUV Standard" {
		t.Errorf("expected SUV Standard, got %s", rec.RecommendedVehicle.Group)
	}
	if rec.RecommendedVehicle.ModelExample != "Toyota RAV4" {
		t.Errorf("expected Toyota RAV4, got %s", rec.RecommendedVehicle.ModelExample)
	}
	if !hasReasonContaining(rec.RecommendedVehicle.Reasons, "5 people & 4 bags") {
		t.Errorf("expected heavy-load reason, got %v", rec.RecommendedVehicle.Reasons)
	}
	if rec.Protection != nil {
		t.Errorf("expected no protection recommendation, got %+v", rec.Protection)
	}
}

func TestRecommend_ComfortFocusUpgradesToPremium(t *testing.T) {
	engine := usecases.NewRecommendationEngine()

	prefs := domain.UserPreferences{Travellers: 4, Bags: 1, Focus: domain.FocusComfort}
	rec := engine.Recommend(prefs, analysisWith(2.0, 0.1, 0.1), nil)

	if rec.RecommendedVehicle.Group != "SUV Premium" {
		t.Errorf("expected SUV Premium, got %s", rec.RecommendedVehicle.Group)
	}
	if rec.RecommendedVehicle.ModelExample != "BMW X3" {
		t.Errorf("expected BMW X3, got %s", rec.RecommendedVehicle.ModelExample)
	}
	if !hasReasonContaining(rec.RecommendedVehicle.Reasons, "prioritise comfort") {
		t.Errorf("expected comfort reason, got %v", rec.RecommendedVehicle.Reasons)
	}
	if len(rec.RecommendedVehicle.UpgradeOptions) != 2 {
		t.Fatalf("expected 2 upgrade options, got %d", len(rec.RecommendedVehicle.UpgradeOptions))
	}
	if rec.RecommendedVehicle.UpgradeOptions[0].Group != "SUV Luxury" {
		t.Errorf("expected SUV Luxury upgrade, got %s", rec.RecommendedVehicle.UpgradeOptions[0].Group)
	}
}

func TestRecommend_SteepAndHarshWeatherCombined(t *testing.T) {
	engine := usecases.NewRecommendationEngine()

	prefs := domain.UserPreferences{Travellers: 2, Bags: 1, Focus: domain.FocusSafety}
	analysis := analysisWith(10.0, 0.6, 0.6)
	breakdown := map[domain.RoadType]float64{domain.RoadTertiary: 1.0}

	rec := engine.Recommend(prefs, analysis, breakdown)

	if rec.RecommendedVehicle.Group != "SUV Standard" {
		t.Errorf("expected SUV Standard, got %s", rec.RecommendedVehicle.Group)
	}
	if !hasReasonContaining(rec.RecommendedVehicle.Reasons, "Steep climbs plus harsh weather") {
		t.Errorf("expected combined steep+weather reason, got %v", rec.RecommendedVehicle.Reasons)
	}
	if !hasReasonContaining(rec.RecommendedVehicle.Reasons, "AWD & safety aids") {
		t.Errorf("expected AWD safety reason, got %v", rec.RecommendedVehicle.Reasons)
	}
	if rec.Protection == nil {
		t.Fatal("expected protection recommendation")
	}
	if rec.Protection.PackageName != "Smart Protection Plus" {
		t.Errorf("expected Smart Protection Plus, got %s", rec.Protection.PackageName)
	}
	if !strings.Contains(rec.Protection.Reason, "wheel/tire damage") ||
		!strings.Contains(rec.Protection.Reason, "accident probability") {
		t.Errorf("expected surface and weather clauses in protection reason, got %q", rec.Protection.Reason)
	}
}

func TestRecommend_NarrowRoadsPickCompact(t *testing.T) {
	engine := usecases.NewRecommendationEngine()

	prefs := domain.UserPreferences{Travellers: 2, Bags: 1, Focus: domain.FocusPrice}
	breakdown := map[domain.RoadType]float64{
		domain.RoadResidential: 0.25,
		domain.RoadService:     0.15,
		domain.RoadPrimary:     0.60,
	}

	rec := engine.Recommend(prefs, analysisWith(2.0, 0.2, 0.1), breakdown)

	if rec.RecommendedVehicle.Group != "Compact Sedan" {
		t.Errorf("expected Compact Sedan, got %s", rec.RecommendedVehicle.Group)
	}
	if !hasReasonContaining(rec.RecommendedVehicle.Reasons, "40% narrow or residential roads") {
		t.Errorf("expected narrow-roads reason with rounded share, got %v", rec.RecommendedVehicle.Reasons)
	}
	if !hasReasonContaining(rec.RecommendedVehicle.Reasons, "rental cost low") {
		t.Errorf("expected price reason, got %v", rec.RecommendedVehicle.Reasons)
	}
	// Tight roads alone still warrant extra cover.
	if rec.Protection == nil {
		t.Fatal("expected protection for narrow-road route")
	}
	if !strings.Contains(rec.Protection.Reason, "parking scuff risk") {
		t.Errorf("expected parking clause, got %q", rec.Protection.Reason)
	}
}

func TestRecommend_NarrowRoadsOverriddenByHeavyParty(t *testing.T) {
	engine := usecases.NewRecommendationEngine()

	prefs := domain.UserPreferences{Travellers: 4, Bags: 0, Focus: domain.FocusSafety}
	breakdown := map[domain.RoadType]float64{domain.RoadResidential: 0.5, domain.RoadPrimary: 0.5}

	rec := engine.Recommend(prefs, analysisWith(2.0, 0.2, 0.1), breakdown)

	if rec.RecommendedVehicle.Group != "SUV Standard" {
		t.Errorf("heavy party should win over narrow roads, got %s", rec.RecommendedVehicle.Group)
	}
}

func TestRecommend_BalancedRouteDefaultsToCrossover(t *testing.T) {
	engine := usecases.NewRecommendationEngine()

	prefs := domain.UserPreferences{Travellers: 2, Bags: 1, Focus: domain.FocusSafety}
	breakdown := map[domain.RoadType]float64{domain.RoadPrimary: 1.0}

	rec := engine.Recommend(prefs, analysisWith(2.0, 0.3, 0.2), breakdown)

	if rec.RecommendedVehicle.Group != "Crossover Comfort" {
		t.Errorf("expected Crossover Comfort, got %s", rec.RecommendedVehicle.Group)
	}
	if rec.RecommendedVehicle.ModelExample != "Volvo XC40" {
		t.Errorf("expected Volvo XC40, got %s", rec.RecommendedVehicle.ModelExample)
	}
	if rec.Protection != nil {
		t.Errorf("expected no protection on mild route, got %+v", rec.Protection)
	}
}

func TestRecommend_KidsAndLowConfidenceReasons(t *testing.T) {
	engine := usecases.NewRecommendationEngine()

	prefs := domain.UserPreferences{
		Travellers:        2,
		Bags:              1,
		Focus:             domain.FocusSafety,
		TravelingWithKids: true,
		WeatherConfidence: domain.ConfidenceLow,
	}
	rec := engine.Recommend(prefs, analysisWith(2.0, 0.2, 0.8), nil)

	if !hasReasonContaining(rec.RecommendedVehicle.Reasons, "ISOFIX") {
		t.Errorf("expected kids reason, got %v", rec.RecommendedVehicle.Reasons)
	}
	if !hasReasonContaining(rec.RecommendedVehicle.Reasons, "low confidence in bad weather") {
		t.Errorf("expected low-confidence reason, got %v", rec.RecommendedVehicle.Reasons)
	}
}

func TestRecommend_Deterministic(t *testing.T) {
	engine := usecases.NewRecommendationEngine()

	prefs := domain.UserPreferences{Travellers: 3, Bags: 2, Focus: domain.FocusComfort}
	analysis := analysisWith(9.0, 0.4, 0.55)
	breakdown := map[domain.RoadType]float64{
		domain.RoadMotorway:    0.4,
		domain.RoadResidential: 0.35,
		domain.RoadService:     0.25,
	}

	first := engine.Recommend(prefs, analysis, breakdown)
	for i := 0; i < 10; i++ {
		if got := engine.Recommend(prefs, analysis, breakdown); !reflect.DeepEqual(first, got) {
			t.Fatalf("recommendation not deterministic on run %d:\nfirst: %+v\ngot:   %+v", i, first, got)
		}
	}
}
