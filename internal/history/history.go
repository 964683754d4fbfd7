// Package history decomposes raw pump treatment history into a time-ordered
// sequence of discrete insulin doses suitable for IOB calculation.
package history

import (
	"math"
	"sort"
	"time"

	"github.com/mrcode/oref-go/internal/models"
	"github.com/mrcode/oref-go/internal/profile"
)

const (
	chunkMinutes = 5
	chunkMillis  = int64(chunkMinutes) * 60 * 1000

	// Chunks below this insulin delta are numerically insignificant.
	minChunkInsulin = 0.0001
)

// FindInsulinTreatments converts history into discrete insulin-delta
// records within the look-back window [clock - effective DIA, clock].
//
// Boluses pass through unchanged. Temp basals are decomposed into 5-minute
// chunks of net insulin relative to the scheduled basal at the event's
// start; chunks starting after clock are dropped. If zeroTempMinutes > 0, a
// hypothetical zero-temp projection is appended: future 5-minute chunks
// each carrying -currentBasal*5/60 units, modeling suspended basal
// delivery.
//
// Output is sorted ascending by date. Ordering of records with equal dates
// is not guaranteed.
func FindInsulinTreatments(p *profile.Profile, hist []models.Treatment, clock time.Time, zeroTempMinutes int) []models.Treatment {
	var treatments []models.Treatment

	nowMillis := clock.UnixMilli()
	diaAgo := nowMillis - int64(p.EffectiveDIA()*60*60*1000)

	for i := range hist {
		event := &hist[i]
		eventDate := event.EffectiveDate()

		// Outside the look-back window.
		if eventDate < diaAgo || eventDate > nowMillis {
			continue
		}

		if event.IsBolus() && event.Insulin > 0 {
			startedAt := event.StartedAt
			if startedAt == "" {
				startedAt = event.Timestamp
			}
			treatments = append(treatments, models.Treatment{
				Kind:      models.KindBolus,
				Insulin:   event.Insulin,
				Date:      eventDate,
				Timestamp: event.Timestamp,
				StartedAt: startedAt,
			})
		}

		if event.IsTempBasal() {
			scheduledBasal := p.BasalAt(time.UnixMilli(eventDate).UTC())
			netRate := event.Rate - scheduledBasal

			chunks := int(math.Ceil(event.Duration / chunkMinutes))
			for chunk := 0; chunk < chunks; chunk++ {
				chunkStart := eventDate + int64(chunk)*chunkMillis
				if chunkStart > nowMillis {
					break
				}

				chunkDuration := float64(chunkMinutes)
				if chunk == chunks-1 {
					chunkDuration = event.Duration - float64(chunk*chunkMinutes)
				}

				chunkInsulin := netRate * chunkDuration / 60
				if math.Abs(chunkInsulin) > minChunkInsulin {
					treatments = append(treatments, models.Treatment{
						Kind:    models.KindBolus,
						Insulin: chunkInsulin,
						Date:    chunkStart,
					})
				}
			}
		}
	}

	if zeroTempMinutes > 0 {
		chunkInsulin := -p.CurrentBasal * chunkMinutes / 60
		for chunk := 0; chunk < zeroTempMinutes/chunkMinutes; chunk++ {
			treatments = append(treatments, models.Treatment{
				Kind:    models.KindBolus,
				Insulin: chunkInsulin,
				Date:    nowMillis + int64(chunk)*chunkMillis,
			})
		}
	}

	sort.Slice(treatments, func(i, j int) bool {
		return treatments[i].Date < treatments[j].Date
	})

	return treatments
}
