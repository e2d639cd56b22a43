package scoring

import (
	"sort"
	"time"

	"github.com/devang-458/HealthIQ/internal/models"
)

// Clinical-style thresholds shared by the scorers and insight generation.
const (
	bmiObese      = 30.0
	bmiOverweight = 25.0

	glucoseDiabetic    = 126.0
	glucosePrediabetic = 100.0

	systolicCrisis   = 180
	diastolicCrisis  = 120
	systolicStage2   = 140
	diastolicStage2  = 90
	systolicStage1   = 130
	diastolicStage1  = 80
	systolicElevated = 120

	// WeeklyActivityGoal is the recommended weekly minutes of moderate activity.
	WeeklyActivityGoal = 150

	trendChangePercent = 10.0
	staleDataDays      = 30
)

// BMI returns body mass index from the most recent record carrying both
// weight and height. The second return is false when no such record exists.
func BMI(records []models.HealthRecord) (float64, bool) {
	for _, r := range records {
		if r.Weight != nil && r.Height != nil && *r.Height > 0 {
			heightM := *r.Height / 100
			return *r.Weight / (heightM * heightM), true
		}
	}
	return 0, false
}

// MeanGlucose returns the mean of blood sugar lab values and the sample count.
func MeanGlucose(labs []models.LabResult) (float64, int) {
	var sum float64
	var n int
	for _, l := range labs {
		if l.TestType == models.LabTestBloodSugar {
			sum += l.Value
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

// AnalyzeGlucoseTrend classifies the direction of the blood sugar series by
// comparing the earliest and latest values: a change beyond ±10% is
// increasing or decreasing, anything between is stable. Fewer than two data
// points yields insufficient_data.
func AnalyzeGlucoseTrend(labs []models.LabResult) models.GlucoseTrend {
	var glucose []models.LabResult
	for _, l := range labs {
		if l.TestType == models.LabTestBloodSugar {
			glucose = append(glucose, l)
		}
	}
	if len(glucose) < 2 {
		return models.TrendInsufficientData
	}
	sort.SliceStable(glucose, func(i, j int) bool { return glucose[i].Date.Before(glucose[j].Date) })

	first := glucose[0].Value
	last := glucose[len(glucose)-1].Value
	if first == 0 {
		return models.TrendInsufficientData
	}
	change := (last - first) / first * 100
	switch {
	case change > trendChangePercent:
		return models.TrendIncreasing
	case change < -trendChangePercent:
		return models.TrendDecreasing
	default:
		return models.TrendStable
	}
}

// MeanBloodPressure returns the mean systolic and diastolic pressure over the
// records carrying both values, plus the sample count.
func MeanBloodPressure(records []models.HealthRecord) (systolic, diastolic float64, n int) {
	var sumSys, sumDia int
	for _, r := range records {
		if r.BloodPressureSystolic != nil && r.BloodPressureDiastolic != nil {
			sumSys += *r.BloodPressureSystolic
			sumDia += *r.BloodPressureDiastolic
			n++
		}
	}
	if n == 0 {
		return 0, 0, 0
	}
	return float64(sumSys) / float64(n), float64(sumDia) / float64(n), n
}

// ClassifyBloodPressure categorizes the most recent complete blood pressure
// reading using fixed clinical thresholds (inclusive at each boundary).
func ClassifyBloodPressure(records []models.HealthRecord) models.BloodPressureCategory {
	for _, r := range records {
		if r.BloodPressureSystolic == nil || r.BloodPressureDiastolic == nil {
			continue
		}
		sys, dia := *r.BloodPressureSystolic, *r.BloodPressureDiastolic
		switch {
		case sys >= systolicCrisis || dia >= diastolicCrisis:
			return models.BPHypertensiveCrisis
		case sys >= systolicStage2 || dia >= diastolicStage2:
			return models.BPStage2Hypertension
		case sys >= systolicStage1 || dia >= diastolicStage1:
			return models.BPStage1Hypertension
		case sys >= systolicElevated:
			return models.BPElevated
		default:
			return models.BPNormal
		}
	}
	return models.BPNoData
}

// WeeklyActivityMinutes sums logged activity minutes over the trailing 7 days.
func WeeklyActivityMinutes(activities []models.Activity, now time.Time) int {
	weekAgo := now.AddDate(0, 0, -7)
	total := 0
	for _, a := range activities {
		if a.Date.After(weekAgo) {
			total += a.Duration
		}
	}
	return total
}

// MonthlyActivityCount counts activities logged over the trailing month.
func MonthlyActivityCount(activities []models.Activity, now time.Time) int {
	monthAgo := now.AddDate(0, -1, 0)
	count := 0
	for _, a := range activities {
		if a.Date.After(monthAgo) {
			count++
		}
	}
	return count
}

// ClassifyActivityLevel maps weekly activity minutes onto a coarse level.
func ClassifyActivityLevel(weeklyMinutes int) models.ActivityLevel {
	switch {
	case weeklyMinutes >= 300:
		return models.ActivityVeryActive
	case weeklyMinutes >= 150:
		return models.ActivityActive
	case weeklyMinutes >= 75:
		return models.ActivityModeratelyActive
	default:
		return models.ActivitySedentary
	}
}
