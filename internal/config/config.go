// Package config loads and validates profile configuration from YAML.
package config

import (
	"fmt"
	"os"
	"sort"

	"github.com/mrcode/oref-go/internal/profile"

	"gopkg.in/yaml.v3"
)

// LoadProfile reads a YAML profile file over the documented defaults and
// validates it.
func LoadProfile(path string) (*profile.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file '%s': %w", path, err)
	}

	p := profile.Default()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse profile from YAML: %w", err)
	}

	if err := Validate(p); err != nil {
		return nil, fmt.Errorf("profile validation failed: %w", err)
	}

	return p, nil
}

// Validate performs basic profile validation. Schedule entries must carry
// offsets in [0, 1440) and their index order must agree with their
// minutes-from-midnight order: the core orders canonically by minutes, so a
// profile where the two disagree is rejected here instead of silently
// resolving differently in different components.
func Validate(p *profile.Profile) error {
	if p.DIA <= 0 {
		return fmt.Errorf("dia must be positive, got %v", p.DIA)
	}
	if p.CurrentBasal < 0 {
		return fmt.Errorf("currentBasal cannot be negative, got %v", p.CurrentBasal)
	}
	if p.CarbRatio <= 0 {
		return fmt.Errorf("carbRatio must be positive, got %v", p.CarbRatio)
	}
	if p.Sens <= 0 {
		return fmt.Errorf("sens must be positive, got %v", p.Sens)
	}
	if p.MaxCOB < 0 {
		return fmt.Errorf("maxCOB cannot be negative, got %v", p.MaxCOB)
	}
	if p.MaxMealAbsorptionHours <= 0 {
		return fmt.Errorf("maxMealAbsorptionHours must be positive, got %v", p.MaxMealAbsorptionHours)
	}

	switch p.Curve {
	case profile.CurveBilinear, profile.CurveRapidActing, profile.CurveUltraRapid:
	default:
		return fmt.Errorf("unknown insulin curve %q", p.Curve)
	}

	basalMinutes := make([]entryOrder, 0, len(p.BasalSchedule))
	for _, e := range p.BasalSchedule {
		if e.Minutes < 0 || e.Minutes >= 1440 {
			return fmt.Errorf("basal schedule entry %d: minutes %d out of range [0, 1440)", e.Index, e.Minutes)
		}
		if e.Rate < 0 {
			return fmt.Errorf("basal schedule entry %d: rate cannot be negative", e.Index)
		}
		basalMinutes = append(basalMinutes, entryOrder{index: e.Index, minutes: e.Minutes})
	}
	if err := checkOrdering("basal", basalMinutes); err != nil {
		return err
	}

	ratioMinutes := make([]entryOrder, 0, len(p.CarbRatioSchedule))
	for _, e := range p.CarbRatioSchedule {
		if e.Minutes < 0 || e.Minutes >= 1440 {
			return fmt.Errorf("carb ratio schedule entry %d: minutes %d out of range [0, 1440)", e.Index, e.Minutes)
		}
		if e.Ratio <= 0 {
			return fmt.Errorf("carb ratio schedule entry %d: ratio must be positive", e.Index)
		}
		ratioMinutes = append(ratioMinutes, entryOrder{index: e.Index, minutes: e.Minutes})
	}
	return checkOrdering("carb ratio", ratioMinutes)
}

type entryOrder struct {
	index   int
	minutes int
}

// checkOrdering rejects schedules where sorting by index and sorting by
// minutes would disagree on which entry is next, and duplicate offsets.
func checkOrdering(name string, entries []entryOrder) error {
	sorted := make([]entryOrder, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].index < sorted[j].index })

	for i := 1; i < len(sorted); i++ {
		if sorted[i].index == sorted[i-1].index {
			return fmt.Errorf("%s schedule: duplicate index %d", name, sorted[i].index)
		}
		if sorted[i].minutes == sorted[i-1].minutes {
			return fmt.Errorf("%s schedule: duplicate offset %d minutes", name, sorted[i].minutes)
		}
		if sorted[i].minutes < sorted[i-1].minutes {
			return fmt.Errorf("%s schedule: entry index order disagrees with start minutes (index %d at %d min follows index %d at %d min)",
				name, sorted[i].index, sorted[i].minutes, sorted[i-1].index, sorted[i-1].minutes)
		}
	}
	return nil
}
