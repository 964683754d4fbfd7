package profile

import (
	"math"
	"sort"
	"time"
)

const minutesPerDay = 24 * 60

// BasalAt returns the scheduled basal rate at the given time, rounded to
// three decimals. With an empty schedule the scalar CurrentBasal applies.
//
// Entries are ordered by minutes from midnight on a local copy; the caller's
// schedule is never mutated. A time of day before the first entry's offset
// or at/after the last entry's offset resolves to the last entry (the last
// span wraps past midnight back to the first).
func (p *Profile) BasalAt(t time.Time) float64 {
	if len(p.BasalSchedule) == 0 {
		return p.CurrentBasal
	}

	sched := make([]BasalEntry, len(p.BasalSchedule))
	copy(sched, p.BasalSchedule)
	sort.Slice(sched, func(i, j int) bool { return sched[i].Minutes < sched[j].Minutes })

	nowMinutes := minutesFromMidnight(t)

	rate := sched[len(sched)-1].Rate
	for i, entry := range sched {
		next := minutesPerDay
		if i+1 < len(sched) {
			next = sched[i+1].Minutes
		}
		if nowMinutes >= entry.Minutes && nowMinutes < next {
			rate = entry.Rate
			break
		}
	}

	return math.Round(rate*1000) / 1000
}

// CarbRatioAt returns the scheduled carb ratio at the given time. With an
// empty schedule the scalar CarbRatio applies. Same wrap rule as BasalAt;
// the ratio is not rounded.
func (p *Profile) CarbRatioAt(t time.Time) float64 {
	if len(p.CarbRatioSchedule) == 0 {
		return p.CarbRatio
	}

	sched := make([]CarbRatioEntry, len(p.CarbRatioSchedule))
	copy(sched, p.CarbRatioSchedule)
	sort.Slice(sched, func(i, j int) bool { return sched[i].Minutes < sched[j].Minutes })

	nowMinutes := minutesFromMidnight(t)

	ratio := sched[len(sched)-1].Ratio
	for i, entry := range sched {
		next := minutesPerDay
		if i+1 < len(sched) {
			next = sched[i+1].Minutes
		}
		if nowMinutes >= entry.Minutes && nowMinutes < next {
			ratio = entry.Ratio
			break
		}
	}

	return ratio
}

// MaxDailyBasal returns the maximum rate across the basal schedule, or the
// scalar CurrentBasal if the schedule is empty.
func (p *Profile) MaxDailyBasal() float64 {
	if len(p.BasalSchedule) == 0 {
		return p.CurrentBasal
	}
	max := 0.0
	for _, entry := range p.BasalSchedule {
		if entry.Rate > max {
			max = entry.Rate
		}
	}
	return max
}

func minutesFromMidnight(t time.Time) int {
	utc := t.UTC()
	return utc.Hour()*60 + utc.Minute()
}
