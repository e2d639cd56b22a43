package scoring

import (
	"time"

	"github.com/devang-458/HealthIQ/internal/models"
)

// MetabolicScorer assesses diabetes-style risk from body mass index and
// blood glucose labs. A missing term contributes nothing; it is never an error.
type MetabolicScorer struct{}

func (s *MetabolicScorer) Score(w *models.MeasurementWindow, _ time.Time) (float64, map[string]any) {
	var risk float64
	factors := map[string]any{
		"glucoseTrend": AnalyzeGlucoseTrend(w.LabResults),
	}

	if bmi, ok := BMI(w.HealthRecords); ok {
		factors["bmi"] = bmi
		switch {
		case bmi > bmiObese:
			risk += 30
		case bmi > bmiOverweight:
			risk += 15
		}
	}

	if mean, n := MeanGlucose(w.LabResults); n > 0 {
		factors["meanGlucose"] = mean
		switch {
		case mean > glucoseDiabetic:
			risk += 40
		case mean > glucosePrediabetic:
			risk += 20
		}
	}

	return risk, factors
}
