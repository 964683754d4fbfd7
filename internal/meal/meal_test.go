package meal

import (
	"math"
	"testing"
	"time"

	"github.com/mrcode/oref-go/internal/cob"
	"github.com/mrcode/oref-go/internal/models"
	"github.com/mrcode/oref-go/internal/profile"
)

// stubEstimator returns a fixed COB result, standing in for the deviation
// engine.
type stubEstimator struct {
	result cob.Result
}

func (s *stubEstimator) Calculate(_ *profile.Profile, _ []models.GlucoseEntry, _ []models.Treatment, _ time.Time) (cob.Result, error) {
	return s.result, nil
}

func mealProfile() *profile.Profile {
	p := profile.Default()
	p.MaxMealAbsorptionHours = 6
	p.MaxCOB = 120
	return p
}

func TestAggregateCarbs_RecentEntry(t *testing.T) {
	now := time.Now().UTC()
	p := mealProfile()

	treatments := []models.Treatment{
		models.NewCarbs(50, "", now.Add(-time.Hour)),
	}

	totals := AggregateCarbs(p, treatments, now)

	if totals.Carbs != 50 {
		t.Errorf("Carbs = %v, want 50", totals.Carbs)
	}
	if totals.NSCarbs != 50 {
		t.Errorf("untagged entries should default to the network bucket, NSCarbs = %v", totals.NSCarbs)
	}
}

func TestAggregateCarbs_IgnoresOldEntries(t *testing.T) {
	now := time.Now().UTC()
	p := mealProfile()

	treatments := []models.Treatment{
		models.NewCarbs(50, models.SourceNetwork, now.Add(-7*time.Hour)),
	}

	if totals := AggregateCarbs(p, treatments, now); totals.Carbs != 0 {
		t.Errorf("Carbs = %v, want 0 for entries outside the window", totals.Carbs)
	}
}

func TestAggregateCarbs_IgnoresFutureEntries(t *testing.T) {
	now := time.Now().UTC()
	p := mealProfile()

	treatments := []models.Treatment{
		models.NewCarbs(50, models.SourceNetwork, now.Add(time.Hour)),
	}

	if totals := AggregateCarbs(p, treatments, now); totals.Carbs != 0 {
		t.Errorf("Carbs = %v, want 0 for future entries", totals.Carbs)
	}
}

func TestAggregateCarbs_NoiseFloor(t *testing.T) {
	now := time.Now().UTC()
	p := mealProfile()

	treatments := []models.Treatment{
		models.NewCarbs(0.5, models.SourceNetwork, now.Add(-time.Hour)),
		models.NewCarbs(30, models.SourceNetwork, now.Add(-2*time.Hour)),
	}

	totals := AggregateCarbs(p, treatments, now)

	if totals.Carbs != 30 {
		t.Errorf("Carbs = %v, want 30 (entries under 1 g excluded)", totals.Carbs)
	}
}

func TestAggregateCarbs_SourceBuckets(t *testing.T) {
	now := time.Now().UTC()
	p := mealProfile()

	treatments := []models.Treatment{
		models.NewCarbs(30, models.SourceNetwork, now.Add(-time.Hour)),
		models.NewCarbs(20, models.SourceBolusWizard, now.Add(-2*time.Hour)),
		models.NewCarbs(15, models.SourceJournal, now.Add(-3*time.Hour)),
		models.NewCarbs(10, "", now.Add(-4*time.Hour)),
	}

	totals := AggregateCarbs(p, treatments, now)

	if totals.Carbs != 75 {
		t.Errorf("Carbs = %v, want 75", totals.Carbs)
	}
	if sum := totals.NSCarbs + totals.BWCarbs + totals.JournalCarbs; sum != totals.Carbs {
		t.Errorf("per-source sum = %v, want %v", sum, totals.Carbs)
	}
	if totals.NSCarbs != 40 {
		t.Errorf("NSCarbs = %v, want 40", totals.NSCarbs)
	}
	if totals.BWCarbs != 20 {
		t.Errorf("BWCarbs = %v, want 20", totals.BWCarbs)
	}
	if totals.JournalCarbs != 15 {
		t.Errorf("JournalCarbs = %v, want 15", totals.JournalCarbs)
	}
	if !totals.BWFound {
		t.Error("BWFound should be set when bolus wizard carbs are present")
	}
}

func TestAggregateCarbs_LastCarbTime(t *testing.T) {
	now := time.Now().UTC()
	p := mealProfile()

	latest := now.Add(-30 * time.Minute)
	treatments := []models.Treatment{
		models.NewCarbs(20, models.SourceNetwork, now.Add(-3*time.Hour)),
		models.NewCarbs(30, models.SourceNetwork, latest),
	}

	totals := AggregateCarbs(p, treatments, now)

	if totals.LastCarbTime != latest.UnixMilli() {
		t.Errorf("LastCarbTime = %d, want %d", totals.LastCarbTime, latest.UnixMilli())
	}
}

func TestAggregateCarbs_Empty(t *testing.T) {
	now := time.Now().UTC()
	totals := AggregateCarbs(mealProfile(), nil, now)

	if totals.Carbs != 0 || totals.LastCarbTime != 0 {
		t.Errorf("empty history should produce zero totals, got %+v", totals)
	}
}

func TestGenerate_COBCappedByEnteredCarbs(t *testing.T) {
	now := time.Now().UTC()
	p := mealProfile()

	treatments := []models.Treatment{
		models.NewCarbs(40, models.SourceNetwork, now.Add(-time.Hour)),
	}
	est := &stubEstimator{result: cob.Result{MealCOB: 90}}

	data, err := Generate(p, treatments, nil, now, est)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if data.MealCOB != 40 {
		t.Errorf("MealCOB = %v, want 40 (capped by entered carbs)", data.MealCOB)
	}
}

func TestGenerate_COBCappedByMaxCOB(t *testing.T) {
	now := time.Now().UTC()
	p := mealProfile()
	p.MaxCOB = 50

	treatments := []models.Treatment{
		models.NewCarbs(150, models.SourceNetwork, now.Add(-time.Hour)),
	}
	est := &stubEstimator{result: cob.Result{MealCOB: 140}}

	data, err := Generate(p, treatments, nil, now, est)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if data.MealCOB != 50 {
		t.Errorf("MealCOB = %v, want 50 (capped by max COB)", data.MealCOB)
	}
}

func TestGenerate_PassesThroughDeviationStats(t *testing.T) {
	now := time.Now().UTC()
	p := mealProfile()

	est := &stubEstimator{result: cob.Result{
		CurrentDeviation: 3.456,
		MaxDeviation:     7.891,
		MinDeviation:     -2.344,
		SlopeFromMax:     -0.5,
		SlopeFromMin:     1.25,
	}}

	data, err := Generate(p, nil, nil, now, est)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if math.Abs(data.CurrentDeviation-3.46) > 1e-9 {
		t.Errorf("CurrentDeviation = %v, want 3.46 (rounded)", data.CurrentDeviation)
	}
	if math.Abs(data.MaxDeviation-7.89) > 1e-9 {
		t.Errorf("MaxDeviation = %v, want 7.89", data.MaxDeviation)
	}
	if math.Abs(data.MinDeviation-(-2.34)) > 1e-9 {
		t.Errorf("MinDeviation = %v, want -2.34", data.MinDeviation)
	}
}

func TestFindMeals(t *testing.T) {
	now := time.Now().UTC()
	p := mealProfile()

	treatments := []models.Treatment{
		models.NewCarbs(30, models.SourceNetwork, now.Add(-time.Hour)),
		models.NewCarbs(20, models.SourceNetwork, now.Add(-8*time.Hour)), // too old
		models.NewBolus(2.0, now.Add(-time.Hour)),                        // not carbs
	}

	meals := FindMeals(p, treatments, now)

	if len(meals) != 1 {
		t.Fatalf("got %d meals, want 1", len(meals))
	}
	if meals[0].Carbs != 30 {
		t.Errorf("meal carbs = %v, want 30", meals[0].Carbs)
	}
}
