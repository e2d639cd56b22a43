package scoring

import (
	"testing"
	"time"

	"github.com/devang-458/HealthIQ/internal/models"
)

func fixedNow() time.Time {
	return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func newTestEngine() *Engine {
	e := NewEngine()
	e.now = fixedNow
	return e
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func bloodSugar(date time.Time, value float64) models.LabResult {
	return models.LabResult{TestType: models.LabTestBloodSugar, Date: date, Value: value, Unit: "mg/dL"}
}

func TestMetabolicScoreExample(t *testing.T) {
	now := fixedNow()
	// BMI 32: 89.9 kg at 167.6 cm
	w := &models.MeasurementWindow{
		UserID: "u1",
		HealthRecords: []models.HealthRecord{
			{Date: now.AddDate(0, 0, -1), Weight: fptr(89.9), Height: fptr(167.6)},
		},
		LabResults: []models.LabResult{
			bloodSugar(now.AddDate(0, 0, -1), 135),
			bloodSugar(now.AddDate(0, 0, -5), 130),
			bloodSugar(now.AddDate(0, 0, -10), 125),
		},
	}

	e := newTestEngine()
	a := e.Score(models.DomainDiabetes, w)
	if a.RiskScore != 70 {
		t.Errorf("Expected risk score 70 (30 BMI + 40 glucose), got %v", a.RiskScore)
	}
	if a.Domain != models.DomainDiabetes {
		t.Errorf("Expected domain %s, got %s", models.DomainDiabetes, a.Domain)
	}
	if a.Confidence != models.DefaultConfidence {
		t.Errorf("Expected confidence %v, got %v", models.DefaultConfidence, a.Confidence)
	}
	if a.Factors["glucoseTrend"] == nil {
		t.Error("Expected glucoseTrend factor to be present")
	}
}

func TestCardiovascularScoreExample(t *testing.T) {
	now := fixedNow()
	// Mean systolic 145, mean diastolic 70, 90 weekly activity minutes
	w := &models.MeasurementWindow{
		UserID: "u1",
		HealthRecords: []models.HealthRecord{
			{Date: now.AddDate(0, 0, -1), BloodPressureSystolic: iptr(150), BloodPressureDiastolic: iptr(70)},
			{Date: now.AddDate(0, 0, -2), BloodPressureSystolic: iptr(140), BloodPressureDiastolic: iptr(70)},
		},
		Activities: []models.Activity{
			{Date: now.AddDate(0, 0, -2), Type: "running", Duration: 90},
		},
	}

	e := newTestEngine()
	a := e.Score(models.DomainHeartDisease, w)
	if a.RiskScore != 60 {
		t.Errorf("Expected risk score 60 (35 BP + 25 activity), got %v", a.RiskScore)
	}
	if a.Factors["activityLevel"] != models.ActivityModeratelyActive {
		t.Errorf("Expected moderately_active level, got %v", a.Factors["activityLevel"])
	}
}

func TestCardiovascularMonotonicAboveStageTwo(t *testing.T) {
	now := fixedNow()
	score := func(systolic int) float64 {
		w := &models.MeasurementWindow{
			UserID: "u1",
			HealthRecords: []models.HealthRecord{
				{Date: now.AddDate(0, 0, -1), BloodPressureSystolic: iptr(systolic), BloodPressureDiastolic: iptr(70)},
			},
			Activities: []models.Activity{
				{Date: now.AddDate(0, 0, -2), Type: "running", Duration: 90},
			},
		}
		risk, _ := (&CardiovascularScorer{}).Score(w, now)
		return risk
	}

	// Raising mean systolic with activity and diastolic held fixed never
	// lowers the score, including across and beyond the stage 2 boundary.
	prev := score(120)
	for _, systolic := range []int{131, 141, 170, 200} {
		got := score(systolic)
		if got < prev {
			t.Errorf("Expected non-decreasing risk, systolic %d scored %v after %v", systolic, got, prev)
		}
		prev = got
	}
	if score(141) != score(170) {
		t.Errorf("Expected one tier above stage 2, got %v at 141 and %v at 170", score(141), score(170))
	}
}

func TestCardiovascularScoreNoBloodPressureRecords(t *testing.T) {
	now := fixedNow()
	w := &models.MeasurementWindow{
		UserID: "u1",
		Activities: []models.Activity{
			{Date: now.AddDate(0, 0, -2), Type: "walking", Duration: 30},
		},
	}

	risk, factors := (&CardiovascularScorer{}).Score(w, now)
	if risk != 25 {
		t.Errorf("Expected only the activity shortfall to contribute, got risk %v", risk)
	}
	if _, ok := factors["meanSystolic"]; ok {
		t.Error("Expected no meanSystolic factor without blood pressure readings")
	}
	if factors["bloodPressure"] != models.BPNoData {
		t.Errorf("Expected no_data blood pressure category, got %v", factors["bloodPressure"])
	}
}

func TestBMIBoundaryExactlyTwentyFive(t *testing.T) {
	now := fixedNow()
	// BMI exactly 25.0: 64 kg at 160 cm
	w := &models.MeasurementWindow{
		UserID: "u1",
		HealthRecords: []models.HealthRecord{
			{Date: now, Weight: fptr(64), Height: fptr(160)},
		},
	}

	risk, factors := (&MetabolicScorer{}).Score(w, now)
	if risk != 0 {
		t.Errorf("Expected BMI 25.0 to contribute 0, got risk %v", risk)
	}
	bmi, ok := factors["bmi"].(float64)
	if !ok || bmi < 24.99 || bmi > 25.0 {
		t.Errorf("Expected bmi factor of 25.0, got %v", factors["bmi"])
	}
}

func TestBMIBoundaryJustAboveTwentyFive(t *testing.T) {
	now := fixedNow()
	// BMI 25.04: 64.1 kg at 160 cm
	w := &models.MeasurementWindow{
		UserID: "u1",
		HealthRecords: []models.HealthRecord{
			{Date: now, Weight: fptr(64.1), Height: fptr(160)},
		},
	}

	risk, _ := (&MetabolicScorer{}).Score(w, now)
	if risk != 15 {
		t.Errorf("Expected BMI just above 25 to contribute 15, got risk %v", risk)
	}
}

func TestMissingDataYieldsZeroMetabolicRisk(t *testing.T) {
	w := &models.MeasurementWindow{UserID: "u1"}
	risk, factors := (&MetabolicScorer{}).Score(w, fixedNow())
	if risk != 0 {
		t.Errorf("Expected empty window to score 0, got %v", risk)
	}
	if factors["glucoseTrend"] != models.TrendInsufficientData {
		t.Errorf("Expected insufficient_data trend, got %v", factors["glucoseTrend"])
	}
	if _, ok := factors["bmi"]; ok {
		t.Error("Expected no bmi factor when BMI is not computable")
	}
}

func TestGeneralScoreNoRecords(t *testing.T) {
	w := &models.MeasurementWindow{UserID: "u1"}
	risk, factors := (&GeneralScorer{}).Score(w, fixedNow())
	if risk != 50 {
		t.Errorf("Expected 50 for a user with no records, got %v", risk)
	}
	if factors["dataStatus"] != "no_records" {
		t.Errorf("Expected dataStatus no_records, got %v", factors["dataStatus"])
	}
}

func TestGeneralScoreStaleDataAndLowActivity(t *testing.T) {
	now := fixedNow()
	w := &models.MeasurementWindow{
		UserID: "u1",
		HealthRecords: []models.HealthRecord{
			{Date: now.AddDate(0, 0, -45)},
		},
	}
	risk, factors := (&GeneralScorer{}).Score(w, now)
	if risk != 25 {
		t.Errorf("Expected 25 (10 stale + 15 low activity), got %v", risk)
	}
	if factors["dataStatus"] != "stale" {
		t.Errorf("Expected dataStatus stale, got %v", factors["dataStatus"])
	}
}

func TestGeneralScoreRecentDataActiveUser(t *testing.T) {
	now := fixedNow()
	w := &models.MeasurementWindow{
		UserID:        "u1",
		HealthRecords: []models.HealthRecord{{Date: now.AddDate(0, 0, -2)}},
	}
	for i := 0; i < 12; i++ {
		w.Activities = append(w.Activities, models.Activity{Date: now.AddDate(0, 0, -i-1), Duration: 30})
	}
	risk, _ := (&GeneralScorer{}).Score(w, now)
	if risk != 0 {
		t.Errorf("Expected 0 for fresh data and frequent activity, got %v", risk)
	}
}

func TestUnknownDomainFallsBackToGeneral(t *testing.T) {
	e := newTestEngine()
	a := e.Score(models.RiskDomain("cholesterol_risk"), &models.MeasurementWindow{UserID: "u1"})
	if a.Domain != models.DomainGeneral {
		t.Errorf("Expected unknown domain to be relabeled %s, got %s", models.DomainGeneral, a.Domain)
	}
	if a.RiskScore != 50 {
		t.Errorf("Expected general fallback score 50, got %v", a.RiskScore)
	}
}

func TestScoreClampedToHundred(t *testing.T) {
	e := newTestEngine()
	e.Register(models.DomainDiabetes, scorerFunc(func(w *models.MeasurementWindow, now time.Time) (float64, map[string]any) {
		return 240, map[string]any{}
	}))
	a := e.Score(models.DomainDiabetes, &models.MeasurementWindow{UserID: "u1"})
	if a.RiskScore != 100 {
		t.Errorf("Expected score clamped to 100, got %v", a.RiskScore)
	}
}

func TestScoreExpirySetFromValidity(t *testing.T) {
	e := newTestEngine()
	a := e.Score(models.DomainGeneral, &models.MeasurementWindow{UserID: "u1"})
	want := fixedNow().Add(models.AssessmentValidity)
	if !a.ExpiresAt.Equal(want) {
		t.Errorf("Expected expiry %v, got %v", want, a.ExpiresAt)
	}
	if !a.Active(fixedNow()) {
		t.Error("Expected a fresh assessment to be active")
	}
	if a.Active(want.Add(time.Second)) {
		t.Error("Expected assessment to be inactive past its expiry")
	}
}

type scorerFunc func(w *models.MeasurementWindow, now time.Time) (float64, map[string]any)

func (f scorerFunc) Score(w *models.MeasurementWindow, now time.Time) (float64, map[string]any) {
	return f(w, now)
}
