package scoring

import (
	"time"

	"github.com/devang-458/HealthIQ/internal/models"
)

// GeneralScorer assesses overall data freshness and activity frequency. It is
// also the fallback for unknown domains. A user with no health records at all
// scores 50: the engine cannot assess them, which is moderate uncertainty
// rather than zero risk.
type GeneralScorer struct{}

func (s *GeneralScorer) Score(w *models.MeasurementWindow, now time.Time) (float64, map[string]any) {
	factors := map[string]any{
		"overall": "general health assessment",
	}

	if len(w.HealthRecords) == 0 {
		factors["dataStatus"] = "no_records"
		return 50, factors
	}

	var risk float64
	latest := w.HealthRecords[0]
	daysSince := now.Sub(latest.Date).Hours() / 24
	if daysSince > staleDataDays {
		risk += 10
		factors["dataStatus"] = "stale"
	} else {
		factors["dataStatus"] = "recent"
	}

	monthly := MonthlyActivityCount(w.Activities, now)
	factors["monthlyActivities"] = monthly
	if monthly < 10 {
		risk += 15
	}

	return risk, factors
}
