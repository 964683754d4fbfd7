package models

import (
	"testing"
	"time"
)

func TestConstructors_Shape(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	bolus := NewBolus(2.0, now)
	if !bolus.IsBolus() || bolus.IsTempBasal() || bolus.HasCarbs() {
		t.Errorf("bolus shape wrong: %+v", bolus)
	}
	if bolus.Insulin != 2.0 {
		t.Errorf("insulin = %v, want 2.0", bolus.Insulin)
	}

	temp := NewTempBasal(1.5, 30, now)
	if !temp.IsTempBasal() || temp.IsBolus() || temp.HasCarbs() {
		t.Errorf("temp basal shape wrong: %+v", temp)
	}

	carbs := NewCarbs(45, SourceJournal, now)
	if !carbs.HasCarbs() || carbs.IsBolus() || carbs.IsTempBasal() {
		t.Errorf("carbs shape wrong: %+v", carbs)
	}
	if carbs.CarbSource != SourceJournal {
		t.Errorf("carb source = %q, want journal", carbs.CarbSource)
	}
}

func TestEffectiveDate_PrefersDate(t *testing.T) {
	tr := Treatment{Date: 1704110400000, Timestamp: "2020-01-01T00:00:00Z"}
	if got := tr.EffectiveDate(); got != 1704110400000 {
		t.Errorf("EffectiveDate() = %d, want 1704110400000", got)
	}
}

func TestEffectiveDate_FallsBackToTimestamp(t *testing.T) {
	tr := Treatment{Timestamp: "2024-01-01T12:00:00Z"}
	want := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	if got := tr.EffectiveDate(); got != want {
		t.Errorf("EffectiveDate() = %d, want %d", got, want)
	}
}

func TestEffectiveDate_FallsBackToStartedAt(t *testing.T) {
	tr := Treatment{Timestamp: "garbage", StartedAt: "2024-01-01 06:30:00"}
	want := time.Date(2024, 1, 1, 6, 30, 0, 0, time.UTC).UnixMilli()
	if got := tr.EffectiveDate(); got != want {
		t.Errorf("EffectiveDate() = %d, want %d", got, want)
	}
}

func TestEffectiveDate_Unresolvable(t *testing.T) {
	tr := Treatment{Timestamp: "garbage"}
	if got := tr.EffectiveDate(); got != 0 {
		t.Errorf("EffectiveDate() = %d, want 0", got)
	}
}

func TestTempBasal_ZeroDurationIsNotTempBasal(t *testing.T) {
	tr := Treatment{Kind: KindTempBasal, Rate: 1.0}
	if tr.IsTempBasal() {
		t.Error("temp basal with zero duration should not qualify")
	}
}

func TestMealDataRounded(t *testing.T) {
	data := MealData{Carbs: 10.20504, MealCOB: 5.5555, CurrentDeviation: -0.126}
	rounded := data.Rounded()
	if rounded.Carbs != 10.21 {
		t.Errorf("Carbs = %v, want 10.21", rounded.Carbs)
	}
	if rounded.MealCOB != 5.56 {
		t.Errorf("MealCOB = %v, want 5.56", rounded.MealCOB)
	}
	if rounded.CurrentDeviation != -0.13 {
		t.Errorf("CurrentDeviation = %v, want -0.13", rounded.CurrentDeviation)
	}
}
