// Package meal windows and categorizes carbohydrate entries and combines
// them with the deviation-based COB estimate into a meal snapshot.
package meal

import (
	"math"
	"time"

	"github.com/mrcode/oref-go/internal/cob"
	"github.com/mrcode/oref-go/internal/models"
	"github.com/mrcode/oref-go/internal/profile"
)

// Estimator is the contract with the deviation-based COB engine.
type Estimator interface {
	Calculate(p *profile.Profile, glucose []models.GlucoseEntry, treatments []models.Treatment, clock time.Time) (cob.Result, error)
}

// CarbTotals is the windowed carb aggregation: overall total, per-source
// buckets and the time of the most recent qualifying entry.
type CarbTotals struct {
	Carbs        float64
	NSCarbs      float64
	BWCarbs      float64
	JournalCarbs float64
	LastCarbTime int64 // Unix millis, 0 if none
	BWFound      bool
}

// AggregateCarbs sums carb entries within the meal absorption window
// [clock - maxMealAbsorptionHours, clock]. Entries below one gram are noise
// and ignored. Each qualifying entry lands in exactly one source bucket;
// entries without a source tag default to the network bucket.
func AggregateCarbs(p *profile.Profile, treatments []models.Treatment, clock time.Time) CarbTotals {
	var totals CarbTotals

	clockMillis := clock.UnixMilli()
	windowStart := clockMillis - int64(p.MaxMealAbsorptionHours*60*60*1000)

	for i := range treatments {
		t := &treatments[i]
		at := t.EffectiveDate()
		if at < windowStart || at > clockMillis {
			continue
		}
		if !t.HasCarbs() || t.Carbs < 1 {
			continue
		}

		totals.Carbs += t.Carbs
		if at > totals.LastCarbTime {
			totals.LastCarbTime = at
		}

		switch t.CarbSource {
		case models.SourceBolusWizard:
			totals.BWCarbs += t.Carbs
			totals.BWFound = true
		case models.SourceJournal:
			totals.JournalCarbs += t.Carbs
		default:
			totals.NSCarbs += t.Carbs
		}
	}

	return totals
}

// Generate produces the full meal snapshot: windowed carb totals plus the
// estimator's deviation-derived COB. The reported COB never exceeds the
// configured ceiling or the carbs actually logged.
func Generate(p *profile.Profile, treatments []models.Treatment, glucose []models.GlucoseEntry, clock time.Time, est Estimator) (models.MealData, error) {
	totals := AggregateCarbs(p, treatments, clock)

	cobResult, err := est.Calculate(p, glucose, treatments, clock)
	if err != nil {
		return models.MealData{}, err
	}

	mealCOB := math.Min(cobResult.MealCOB, math.Min(p.MaxCOB, totals.Carbs))

	data := models.MealData{
		Carbs:                 totals.Carbs,
		NSCarbs:               totals.NSCarbs,
		BWCarbs:               totals.BWCarbs,
		JournalCarbs:          totals.JournalCarbs,
		MealCOB:               mealCOB,
		CurrentDeviation:      cobResult.CurrentDeviation,
		MaxDeviation:          cobResult.MaxDeviation,
		MinDeviation:          cobResult.MinDeviation,
		SlopeFromMaxDeviation: cobResult.SlopeFromMax,
		SlopeFromMinDeviation: cobResult.SlopeFromMin,
		AllDeviations:         cobResult.AllDeviations,
		LastCarbTime:          totals.LastCarbTime,
		BWFound:               totals.BWFound,
	}

	return data.Rounded(), nil
}

// FindMeals returns the carb-bearing treatments within the meal absorption
// window, for reuse by other consumers.
func FindMeals(p *profile.Profile, treatments []models.Treatment, clock time.Time) []models.Treatment {
	clockMillis := clock.UnixMilli()
	windowStart := clockMillis - int64(p.MaxMealAbsorptionHours*60*60*1000)

	var meals []models.Treatment
	for i := range treatments {
		t := treatments[i]
		at := t.EffectiveDate()
		if at >= windowStart && at <= clockMillis && t.HasCarbs() {
			meals = append(meals, t)
		}
	}
	return meals
}
