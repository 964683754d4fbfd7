package iob

import (
	"math"
	"testing"
	"time"

	"github.com/mrcode/oref-go/internal/models"
	"github.com/mrcode/oref-go/internal/profile"
)

func TestActivityRemaining_Bounds(t *testing.T) {
	p := profile.Default()

	if got := ActivityRemaining(p, 0); got != 1 {
		t.Errorf("ActivityRemaining(0) = %v, want 1", got)
	}
	if got := ActivityRemaining(p, -10); got != 1 {
		t.Errorf("ActivityRemaining(-10) = %v, want 1", got)
	}
	if got := ActivityRemaining(p, p.EffectiveDIA()*60); got != 0 {
		t.Errorf("ActivityRemaining(DIA) = %v, want 0", got)
	}
}

func TestActivityRemaining_MonotoneDecreasing(t *testing.T) {
	for _, curve := range []profile.InsulinCurve{
		profile.CurveBilinear,
		profile.CurveRapidActing,
		profile.CurveUltraRapid,
	} {
		p := profile.Default()
		p.Curve = curve

		prev := 1.0
		for m := 5.0; m < p.EffectiveDIA()*60; m += 5 {
			got := ActivityRemaining(p, m)
			if got > prev+1e-9 {
				t.Errorf("%s: remaining increased at %v min: %v > %v", curve, m, got, prev)
			}
			if got < 0 || got > 1 {
				t.Errorf("%s: remaining out of range at %v min: %v", curve, m, got)
			}
			prev = got
		}
	}
}

func TestActivityAt_PeaksMidCurve(t *testing.T) {
	p := profile.Default()
	peak := float64(p.EffectivePeak())

	atPeak := ActivityAt(p, peak)
	if atPeak <= 0 {
		t.Fatalf("ActivityAt(peak) = %v, want > 0", atPeak)
	}
	if early := ActivityAt(p, 5); early >= atPeak {
		t.Errorf("ActivityAt(5) = %v, should be below peak %v", early, atPeak)
	}
	if late := ActivityAt(p, p.EffectiveDIA()*60-10); late >= atPeak {
		t.Errorf("activity near end = %v, should be below peak %v", late, atPeak)
	}
	if got := ActivityAt(p, p.EffectiveDIA()*60); got != 0 {
		t.Errorf("ActivityAt(DIA) = %v, want 0", got)
	}
}

func TestCalculate_FreshBolus(t *testing.T) {
	p := profile.Default()
	clock := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	doses := []models.Treatment{models.NewBolus(3.0, clock)}
	r := Calculate(p, doses, clock)

	if r.IOB != 3.0 {
		t.Errorf("IOB = %v, want 3.0 for a dose at clock time", r.IOB)
	}
}

func TestCalculate_ExpiredBolus(t *testing.T) {
	p := profile.Default()
	clock := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	old := clock.Add(-time.Duration(p.EffectiveDIA()+1) * time.Hour)
	doses := []models.Treatment{models.NewBolus(3.0, old)}

	if r := Calculate(p, doses, clock); r.IOB != 0 {
		t.Errorf("IOB = %v, want 0 past end of DIA", r.IOB)
	}
}

func TestCalculate_DecaysOverTime(t *testing.T) {
	p := profile.Default()
	clock := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	doses := []models.Treatment{models.NewBolus(3.0, clock.Add(-2*time.Hour))}

	r := Calculate(p, doses, clock)
	if r.IOB <= 0 || r.IOB >= 3.0 {
		t.Errorf("IOB = %v, want strictly between 0 and 3 two hours in", r.IOB)
	}
	if r.Activity <= 0 {
		t.Errorf("Activity = %v, want > 0 mid-curve", r.Activity)
	}
}

func TestCalculate_NegativeDosesReduceIOB(t *testing.T) {
	p := profile.Default()
	clock := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	at := clock.Add(-time.Hour)
	positive := []models.Treatment{models.NewBolus(2.0, at)}
	mixed := []models.Treatment{
		models.NewBolus(2.0, at),
		{Kind: models.KindBolus, Insulin: -0.5, Date: at.UnixMilli()},
	}

	a := Calculate(p, positive, clock)
	b := Calculate(p, mixed, clock)
	if b.IOB >= a.IOB {
		t.Errorf("IOB with negative dose = %v, want less than %v", b.IOB, a.IOB)
	}
}

func TestCalculate_BilinearMatchesReferenceTable(t *testing.T) {
	p := profile.Default()
	p.Curve = profile.CurveBilinear
	p.DIA = 3

	// At 75 minutes into a 3-hour DIA the reference table gives:
	// x = 16, 1 - 0.001852*256 + 0.001852*16 = 0.5556.
	got := ActivityRemaining(p, 75)
	if math.Abs(got-0.5556) > 0.001 {
		t.Errorf("bilinear remaining at 75 min = %v, want ~0.5556", got)
	}
}

func TestCalculate_Empty(t *testing.T) {
	r := Calculate(profile.Default(), nil, time.Now())
	if r.IOB != 0 || r.Activity != 0 {
		t.Errorf("empty doses should give zero result, got %+v", r)
	}
}
