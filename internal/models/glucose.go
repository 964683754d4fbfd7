// Package models contains data structures used throughout the application
package models

import "time"

// GlucoseEntry represents a single glucose reading from a CGM feed. The core
// treats the series as opaque and only hands it to the COB estimator.
type GlucoseEntry struct {
	ID        string `json:"_id,omitempty"`
	SGV       int    `json:"sgv"`  // Sensor glucose value in mg/dL
	Date      int64  `json:"date"` // Unix timestamp in milliseconds
	DateStr   string `json:"dateString,omitempty"`
	Direction string `json:"direction,omitempty"`
	Device    string `json:"device,omitempty"`
	Type      string `json:"type,omitempty"`
}

// Time returns the time of the glucose entry.
func (g *GlucoseEntry) Time() time.Time {
	return time.UnixMilli(g.Date).UTC()
}

// ValueMgDL returns the glucose value in mg/dL.
func (g *GlucoseEntry) ValueMgDL() int {
	return g.SGV
}

// ValueMmolL returns the glucose value in mmol/L.
func (g *GlucoseEntry) ValueMmolL() float64 {
	return float64(g.SGV) / 18.0182
}
