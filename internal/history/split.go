package history

import (
	"sort"
	"time"

	"github.com/mrcode/oref-go/internal/models"
	"github.com/mrcode/oref-go/internal/profile"
)

// SplitTempBasal splits a temp basal into sub-segments so that no segment
// crosses a basal schedule boundary, including the wrap past midnight.
// Segment lengths sum to the original duration and each segment preserves
// the original rate and metadata.
//
// Anything that is not a temp basal with positive duration, or a profile
// with an empty basal schedule, returns the input unchanged as a single
// segment. This function never fails; it degrades to a no-op split.
func SplitTempBasal(t models.Treatment, p *profile.Profile) []models.Treatment {
	if !t.IsTempBasal() || len(p.BasalSchedule) == 0 {
		return []models.Treatment{t}
	}

	sched := make([]profile.BasalEntry, len(p.BasalSchedule))
	copy(sched, p.BasalSchedule)
	sort.Slice(sched, func(i, j int) bool { return sched[i].Minutes < sched[j].Minutes })

	startMillis := t.EffectiveDate()
	startTime := time.UnixMilli(startMillis).UTC()
	startMinutes := startTime.Hour()*60 + startTime.Minute()

	duration := int(t.Duration)
	var segments []models.Treatment

	for offset := 0; offset < duration; {
		nowMinutes := (startMinutes + offset) % (24 * 60)

		// Smallest boundary strictly after the current time of day,
		// wrapping to the next day's first boundary if none remains.
		nextChange := 24 * 60
		for _, entry := range sched {
			if entry.Minutes > nowMinutes && entry.Minutes < nextChange {
				nextChange = entry.Minutes
			}
		}

		untilChange := nextChange - nowMinutes
		if nextChange <= nowMinutes {
			untilChange = (24*60 - nowMinutes) + nextChange
		}

		segment := duration - offset
		if untilChange < segment {
			segment = untilChange
		}
		if segment <= 0 {
			break
		}

		segments = append(segments, models.Treatment{
			Kind:      models.KindTempBasal,
			Rate:      t.Rate,
			Duration:  float64(segment),
			Date:      startMillis + int64(offset)*60*1000,
			Timestamp: t.Timestamp,
			StartedAt: t.StartedAt,
		})

		offset += segment
	}

	if len(segments) == 0 {
		return []models.Treatment{t}
	}
	return segments
}
