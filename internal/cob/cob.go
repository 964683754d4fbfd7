// Package cob estimates carbs on board from glucose deviation analysis.
//
// The estimator compares observed 5-minute glucose deltas against the delta
// expected from insulin activity alone; the positive surplus is attributed
// to carb absorption. Consumers see only the Result snapshot.
package cob

import (
	"math"
	"sort"
	"time"

	"github.com/mrcode/oref-go/internal/history"
	"github.com/mrcode/oref-go/internal/iob"
	"github.com/mrcode/oref-go/internal/models"
	"github.com/mrcode/oref-go/internal/profile"
)

// Result is the deviation-derived COB estimate with its supporting
// deviation statistics.
type Result struct {
	MealCOB          float64
	CurrentDeviation float64
	MaxDeviation     float64
	MinDeviation     float64
	SlopeFromMax     float64
	SlopeFromMin     float64
	AllDeviations    []float64
}

// Calculator computes deviation-based COB. It is stateless; every call
// works on its own snapshot of inputs.
type Calculator struct{}

// New returns a Calculator.
func New() *Calculator {
	return &Calculator{}
}

// Calculate derives carbs on board at clock time from the glucose series
// and treatment history. Carbs entered within the meal absorption window
// are consumed by observed absorption; what remains is the COB estimate.
func (c *Calculator) Calculate(p *profile.Profile, glucose []models.GlucoseEntry, treatments []models.Treatment, clock time.Time) (Result, error) {
	var result Result

	carbs, firstCarbTime := enteredCarbs(p, treatments, clock)
	if len(glucose) < 2 {
		// Without a usable series the entered total is the best estimate.
		result.MealCOB = math.Min(carbs, p.MaxCOB)
		return result, nil
	}

	series := make([]models.GlucoseEntry, len(glucose))
	copy(series, glucose)
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })

	doses := history.FindInsulinTreatments(p, treatments, clock, 0)
	csf := p.Sens / p.CarbRatio // mg/dL per gram

	var (
		deviations []float64
		maxDev     = math.Inf(-1)
		minDev     = math.Inf(1)
		maxDevAt   int64
		minDevAt   int64
		absorbed   float64
	)

	windowStart := clock.Add(-time.Duration(p.MaxMealAbsorptionHours * float64(time.Hour))).UnixMilli()

	for i := 1; i < len(series); i++ {
		cur, prev := &series[i], &series[i-1]
		if cur.Date < windowStart || cur.Date > clock.UnixMilli() {
			continue
		}

		gap := float64(cur.Date-prev.Date) / 60000
		if gap < 4 || gap > 6 {
			continue
		}

		actualDelta := float64(cur.SGV - prev.SGV)
		expectedDelta := -insulinActivityBetween(p, doses, prev.Time(), cur.Time()) * p.Sens
		deviation := actualDelta - expectedDelta

		deviations = append(deviations, deviation)
		if deviation > maxDev {
			maxDev = deviation
			maxDevAt = cur.Date
		}
		if deviation < minDev {
			minDev = deviation
			minDevAt = cur.Date
		}

		// Absorption only counts after carbs were logged, and never below
		// the configured minimum impact while carbs remain.
		if firstCarbTime > 0 && cur.Date >= firstCarbTime && absorbed < carbs {
			impact := deviation
			if impact < p.Min5mCarbImpact {
				impact = p.Min5mCarbImpact
			}
			absorbed += impact / csf
		}
	}

	if len(deviations) > 0 {
		current := deviations[len(deviations)-1]
		result.CurrentDeviation = current
		result.MaxDeviation = maxDev
		result.MinDeviation = minDev
		result.AllDeviations = deviations
		lastAt := series[len(series)-1].Date
		result.SlopeFromMax = slopePer5m(current, maxDev, lastAt, maxDevAt)
		result.SlopeFromMin = slopePer5m(current, minDev, lastAt, minDevAt)
	}

	remaining := carbs - absorbed
	if remaining < 0 {
		remaining = 0
	}
	result.MealCOB = math.Min(remaining, p.MaxCOB)
	return result, nil
}

func enteredCarbs(p *profile.Profile, treatments []models.Treatment, clock time.Time) (total float64, firstAt int64) {
	windowStart := clock.UnixMilli() - int64(p.MaxMealAbsorptionHours*60*60*1000)
	for i := range treatments {
		t := &treatments[i]
		if !t.HasCarbs() || t.Carbs < 1 {
			continue
		}
		at := t.EffectiveDate()
		if at < windowStart || at > clock.UnixMilli() {
			continue
		}
		total += t.Carbs
		if firstAt == 0 || at < firstAt {
			firstAt = at
		}
	}
	return total, firstAt
}

func slopePer5m(current, extreme float64, currentAt, extremeAt int64) float64 {
	elapsed := float64(currentAt-extremeAt) / 60000
	if elapsed <= 0 {
		return 0
	}
	return (current - extreme) / elapsed * 5
}

// insulinActivityBetween sums the fraction of each dose consumed in
// (from, to], in units. Negative doses (net-negative temp basal chunks)
// contribute negative activity.
func insulinActivityBetween(p *profile.Profile, doses []models.Treatment, from, to time.Time) float64 {
	var used float64
	for i := range doses {
		d := &doses[i]
		at := d.Time()
		before := iob.ActivityRemaining(p, from.Sub(at).Minutes())
		after := iob.ActivityRemaining(p, to.Sub(at).Minutes())
		used += d.Insulin * (before - after)
	}
	return used
}
