// Package models contains data structures used throughout the application
package models

import "math"

// MealData is the aggregated meal snapshot: entered carb totals by source
// plus the deviation-derived carbs-on-board estimate. Created fresh on every
// aggregation call.
type MealData struct {
	Carbs        float64 `json:"carbs"`
	NSCarbs      float64 `json:"nsCarbs"`
	BWCarbs      float64 `json:"bwCarbs"`
	JournalCarbs float64 `json:"journalCarbs"`
	MealCOB      float64 `json:"mealCOB"`

	CurrentDeviation      float64   `json:"currentDeviation"`
	MaxDeviation          float64   `json:"maxDeviation"`
	MinDeviation          float64   `json:"minDeviation"`
	SlopeFromMaxDeviation float64   `json:"slopeFromMaxDeviation"`
	SlopeFromMinDeviation float64   `json:"slopeFromMinDeviation"`
	AllDeviations         []float64 `json:"allDeviations,omitempty"`

	LastCarbTime int64 `json:"lastCarbTime"` // Unix millis, 0 if no carbs in window
	BWFound      bool  `json:"bwFound"`
}

// Rounded returns a copy with all numeric fields rounded to two decimals for
// presentation stability. The unrounded values are never used internally.
func (m MealData) Rounded() MealData {
	m.Carbs = round2(m.Carbs)
	m.NSCarbs = round2(m.NSCarbs)
	m.BWCarbs = round2(m.BWCarbs)
	m.JournalCarbs = round2(m.JournalCarbs)
	m.MealCOB = round2(m.MealCOB)
	m.CurrentDeviation = round2(m.CurrentDeviation)
	m.MaxDeviation = round2(m.MaxDeviation)
	m.MinDeviation = round2(m.MinDeviation)
	m.SlopeFromMaxDeviation = round2(m.SlopeFromMaxDeviation)
	m.SlopeFromMinDeviation = round2(m.SlopeFromMinDeviation)
	return m
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
