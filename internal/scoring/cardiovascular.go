package scoring

import (
	"time"

	"github.com/devang-458/HealthIQ/internal/models"
)

// CardiovascularScorer assesses heart-disease-style risk from mean blood
// pressure and trailing-week activity volume.
type CardiovascularScorer struct{}

func (s *CardiovascularScorer) Score(w *models.MeasurementWindow, now time.Time) (float64, map[string]any) {
	var risk float64
	factors := map[string]any{
		"bloodPressure": ClassifyBloodPressure(w.HealthRecords),
	}

	if meanSys, meanDia, n := MeanBloodPressure(w.HealthRecords); n > 0 {
		factors["meanSystolic"] = meanSys
		factors["meanDiastolic"] = meanDia
		switch {
		case meanSys > float64(systolicStage2) || meanDia > float64(diastolicStage2):
			risk += 35
		case meanSys > float64(systolicStage1) || meanDia > float64(diastolicStage1):
			risk += 20
		}
	}

	weeklyMinutes := WeeklyActivityMinutes(w.Activities, now)
	factors["activityLevel"] = ClassifyActivityLevel(weeklyMinutes)
	if weeklyMinutes < WeeklyActivityGoal {
		risk += 25
	}

	return risk, factors
}
