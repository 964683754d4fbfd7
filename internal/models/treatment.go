// Package models contains data structures used throughout the application
package models

import (
	"time"

	"github.com/mrcode/oref-go/internal/timeutil"
)

// TreatmentKind distinguishes the three record shapes a Treatment may take.
type TreatmentKind string

const (
	KindBolus     TreatmentKind = "bolus"
	KindTempBasal TreatmentKind = "tempBasal"
	KindCarbs     TreatmentKind = "carbs"
)

// CarbSource tags where a carb entry was logged.
type CarbSource string

const (
	SourceNetwork     CarbSource = "ns"
	SourceBolusWizard CarbSource = "bw"
	SourceJournal     CarbSource = "journal"
)

// Treatment is a single logged or derived pump event. A Treatment is either
// a bolus (Insulin set), a temp basal (Rate and Duration set) or a carb
// entry (Carbs set); the Kind field makes the shape explicit. Treatments are
// value records: new ones are derived, never mutated in place.
type Treatment struct {
	Kind TreatmentKind `json:"kind"`

	Insulin float64 `json:"insulin,omitempty"` // Units of insulin

	Rate     float64 `json:"rate,omitempty"`     // Temp basal rate (U/hr)
	Duration float64 `json:"duration,omitempty"` // Temp basal duration (minutes)

	Carbs      float64    `json:"carbs,omitempty"` // Grams of carbohydrates
	CarbSource CarbSource `json:"carbSource,omitempty"`

	Date      int64  `json:"date,omitempty"` // Unix timestamp in milliseconds
	Timestamp string `json:"timestamp,omitempty"`
	StartedAt string `json:"startedAt,omitempty"`
}

// NewBolus creates a bolus-shaped treatment.
func NewBolus(insulin float64, at time.Time) Treatment {
	return Treatment{
		Kind:      KindBolus,
		Insulin:   insulin,
		Date:      at.UnixMilli(),
		Timestamp: timeutil.FormatTimestamp(at),
	}
}

// NewTempBasal creates a temp-basal-shaped treatment. Duration is in minutes.
func NewTempBasal(rate, duration float64, at time.Time) Treatment {
	return Treatment{
		Kind:      KindTempBasal,
		Rate:      rate,
		Duration:  duration,
		Date:      at.UnixMilli(),
		Timestamp: timeutil.FormatTimestamp(at),
	}
}

// NewCarbs creates a carb-shaped treatment. An empty source defaults to
// network-entered when aggregated.
func NewCarbs(grams float64, source CarbSource, at time.Time) Treatment {
	return Treatment{
		Kind:       KindCarbs,
		Carbs:      grams,
		CarbSource: source,
		Date:       at.UnixMilli(),
		Timestamp:  timeutil.FormatTimestamp(at),
	}
}

// EffectiveDate resolves the treatment's absolute instant in Unix
// milliseconds. The explicit Date wins; otherwise the Timestamp and
// StartedAt strings are parsed in that order. Returns 0 if nothing resolves.
func (t *Treatment) EffectiveDate() int64 {
	if t.Date > 0 {
		return t.Date
	}
	for _, s := range []string{t.Timestamp, t.StartedAt} {
		if s == "" {
			continue
		}
		if parsed, err := timeutil.ParseTimestamp(s); err == nil {
			return parsed.UnixMilli()
		}
	}
	return 0
}

// Time returns the treatment's effective instant.
func (t *Treatment) Time() time.Time {
	return time.UnixMilli(t.EffectiveDate()).UTC()
}

// IsBolus returns true if this is a bolus-shaped treatment.
func (t *Treatment) IsBolus() bool {
	return t.Kind == KindBolus
}

// IsTempBasal returns true if this is a temp basal with a positive duration.
func (t *Treatment) IsTempBasal() bool {
	return t.Kind == KindTempBasal && t.Duration > 0
}

// HasCarbs returns true if this treatment includes carbohydrates.
func (t *Treatment) HasCarbs() bool {
	return t.Kind == KindCarbs && t.Carbs > 0
}
