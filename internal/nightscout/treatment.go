package nightscout

import (
	"strings"

	"github.com/mrcode/oref-go/internal/models"
)

// wireTreatment is the raw Nightscout treatment document.
type wireTreatment struct {
	ID        string  `json:"_id"`
	EventType string  `json:"eventType"`
	Date      int64   `json:"date"`
	CreatedAt string  `json:"created_at"`
	Timestamp string  `json:"timestamp"`
	Insulin   float64 `json:"insulin"`
	Carbs     float64 `json:"carbs"`
	Rate      float64 `json:"rate"`
	Absolute  float64 `json:"absolute"`
	Duration  float64 `json:"duration"` // minutes
	EnteredBy string  `json:"enteredBy"`
}

func (w *wireTreatment) timestamp() string {
	if w.Timestamp != "" {
		return w.Timestamp
	}
	return w.CreatedAt
}

// carbSource buckets a carb entry by where it was logged. Bolus Wizard
// entries come from the pump; journal entries are tagged by the uploader;
// everything else counts as network-entered.
func (w *wireTreatment) carbSource() models.CarbSource {
	if strings.Contains(w.EventType, "Bolus Wizard") {
		return models.SourceBolusWizard
	}
	if strings.Contains(strings.ToLower(w.EnteredBy), "journal") {
		return models.SourceJournal
	}
	return models.SourceNetwork
}

// records converts the wire document into typed treatment records.
func (w *wireTreatment) records() []models.Treatment {
	var out []models.Treatment

	if w.EventType == "Temp Basal" && w.Duration > 0 {
		rate := w.Absolute
		if rate == 0 {
			rate = w.Rate
		}
		out = append(out, models.Treatment{
			Kind:      models.KindTempBasal,
			Rate:      rate,
			Duration:  w.Duration,
			Date:      w.Date,
			Timestamp: w.timestamp(),
		})
		return out
	}

	if w.Insulin > 0 {
		out = append(out, models.Treatment{
			Kind:      models.KindBolus,
			Insulin:   w.Insulin,
			Date:      w.Date,
			Timestamp: w.timestamp(),
		})
	}

	if w.Carbs > 0 {
		out = append(out, models.Treatment{
			Kind:       models.KindCarbs,
			Carbs:      w.Carbs,
			CarbSource: w.carbSource(),
			Date:       w.Date,
			Timestamp:  w.timestamp(),
		})
	}

	return out
}
