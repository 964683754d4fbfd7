// Package iob computes insulin on board from decomposed doses.
package iob

import (
	"math"
	"time"

	"github.com/mrcode/oref-go/internal/models"
	"github.com/mrcode/oref-go/internal/profile"
)

// Result is the insulin-on-board snapshot at a point in time.
type Result struct {
	IOB      float64 `json:"iob"`      // units still active
	Activity float64 `json:"activity"` // units consumed per minute
}

// Calculate sums the remaining activity of each decomposed dose at clock
// time. Net-negative temp basal chunks carry negative insulin and reduce
// the total.
func Calculate(p *profile.Profile, doses []models.Treatment, clock time.Time) Result {
	var r Result
	for i := range doses {
		d := &doses[i]
		minutes := clock.Sub(d.Time()).Minutes()
		r.IOB += d.Insulin * ActivityRemaining(p, minutes)
		r.Activity += d.Insulin * ActivityAt(p, minutes)
	}
	r.IOB = math.Round(r.IOB*1000) / 1000
	r.Activity = math.Round(r.Activity*10000) / 10000
	return r
}

// ActivityRemaining returns the fraction of a dose still active after the
// given minutes, per the profile's insulin curve.
func ActivityRemaining(p *profile.Profile, minutesSince float64) float64 {
	if minutesSince <= 0 {
		return 1
	}
	diaMinutes := p.EffectiveDIA() * 60
	if minutesSince >= diaMinutes {
		return 0
	}
	if p.Curve == profile.CurveBilinear {
		return bilinearRemaining(p.EffectiveDIA(), minutesSince)
	}
	return exponentialRemaining(diaMinutes, float64(p.EffectivePeak()), minutesSince)
}

// ActivityAt returns the instantaneous activity of one unit, in units per
// minute, after the given minutes.
func ActivityAt(p *profile.Profile, minutesSince float64) float64 {
	diaMinutes := p.EffectiveDIA() * 60
	if minutesSince <= 0 || minutesSince >= diaMinutes {
		return 0
	}
	if p.Curve == profile.CurveBilinear {
		return bilinearActivity(p.EffectiveDIA(), minutesSince)
	}
	return exponentialActivity(diaMinutes, float64(p.EffectivePeak()), minutesSince)
}

// bilinearRemaining follows the legacy curve: a 3-hour reference table with
// the time axis rescaled to the configured DIA.
func bilinearRemaining(diaHours, minutesSince float64) float64 {
	t := minutesSince * 3 / diaHours
	var iob float64
	switch {
	case t < 75:
		x := t/5 + 1
		iob = 1 - 0.001852*x*x + 0.001852*x
	case t < 180:
		x := (t - 75) / 5
		iob = 0.001323*x*x - 0.054233*x + 0.55556
	}
	return math.Max(0, math.Min(1, iob))
}

// bilinearActivity is the triangle matching bilinearRemaining: activity ramps
// up to the peak then down to zero at end of DIA, integrating to one unit.
func bilinearActivity(diaHours, minutesSince float64) float64 {
	end := diaHours * 60
	peak := 75 * diaHours / 3
	activityPeak := 2 / end
	if minutesSince < peak {
		return activityPeak * minutesSince / peak
	}
	return activityPeak * (1 - (minutesSince-peak)/(end-peak))
}

func exponentialRemaining(diaMinutes, peak, minutesSince float64) float64 {
	tau, s := exponentialParams(diaMinutes, peak)
	remaining := 1 - s*(1-(1+minutesSince/tau)*math.Exp(-minutesSince/tau))
	return math.Max(0, math.Min(1, remaining))
}

func exponentialActivity(diaMinutes, peak, minutesSince float64) float64 {
	tau, s := exponentialParams(diaMinutes, peak)
	return s * (minutesSince / (tau * tau)) * math.Exp(-minutesSince/tau)
}

func exponentialParams(diaMinutes, peak float64) (tau, s float64) {
	tau = peak * (1 - peak/diaMinutes)
	if tau <= 0 {
		tau = peak * 0.75
	}
	a := 2 * tau / diaMinutes
	s = 1 / (1 - a + (1+a)*math.Exp(-diaMinutes/tau))
	return tau, s
}
