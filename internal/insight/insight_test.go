package insight

import (
	"strings"
	"testing"
	"time"

	"github.com/devang-458/HealthIQ/internal/models"
)

func fixedNow() time.Time {
	return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
}

func newTestGenerator() *Generator {
	g := NewGenerator()
	g.now = fixedNow
	return g
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func containsSubstring(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func TestGenerateEmptyWindow(t *testing.T) {
	g := newTestGenerator()
	out := g.Generate(&models.MeasurementWindow{UserID: "u1"}, nil)
	if out.Insights == nil || out.Recommendations == nil || out.Alerts == nil {
		t.Error("Expected empty slices, not nil")
	}
	if len(out.Insights)+len(out.Recommendations)+len(out.Alerts) != 0 {
		t.Errorf("Expected no output for an empty window, got %+v", out)
	}
}

func TestWeightChangeInsight(t *testing.T) {
	now := fixedNow()
	w := &models.MeasurementWindow{
		UserID: "u1",
		HealthRecords: []models.HealthRecord{
			{Date: now, Weight: fptr(90)},
			{Date: now.AddDate(0, 0, -7), Weight: fptr(80)},
			{Date: now.AddDate(0, 0, -14), Weight: fptr(80)},
		},
	}
	out := newTestGenerator().Generate(w, nil)
	if !containsSubstring(out.Insights, "weight has increased") {
		t.Errorf("Expected weight increase insight, got %v", out.Insights)
	}
}

func TestStableWeightNoInsight(t *testing.T) {
	now := fixedNow()
	w := &models.MeasurementWindow{
		UserID: "u1",
		HealthRecords: []models.HealthRecord{
			{Date: now, Weight: fptr(80.5)},
			{Date: now.AddDate(0, 0, -7), Weight: fptr(80)},
		},
	}
	out := newTestGenerator().Generate(w, nil)
	if containsSubstring(out.Insights, "weight") {
		t.Errorf("Expected no weight insight for a small change, got %v", out.Insights)
	}
}

func TestElevatedBloodPressureAlert(t *testing.T) {
	now := fixedNow()
	w := &models.MeasurementWindow{
		UserID: "u1",
		HealthRecords: []models.HealthRecord{
			{Date: now, BloodPressureSystolic: iptr(135), BloodPressureDiastolic: iptr(78)},
		},
	}
	out := newTestGenerator().Generate(w, nil)
	if !containsSubstring(out.Alerts, "blood pressure is elevated") {
		t.Errorf("Expected blood pressure alert, got %v", out.Alerts)
	}
	if !containsSubstring(out.Recommendations, "sodium") {
		t.Errorf("Expected blood pressure recommendation, got %v", out.Recommendations)
	}
}

func TestShortSleepInsight(t *testing.T) {
	now := fixedNow()
	w := &models.MeasurementWindow{
		UserID: "u1",
		HealthRecords: []models.HealthRecord{
			{Date: now, SleepHours: fptr(6)},
			{Date: now.AddDate(0, 0, -1), SleepHours: fptr(5.5)},
		},
	}
	out := newTestGenerator().Generate(w, nil)
	if !containsSubstring(out.Insights, "hours of sleep") {
		t.Errorf("Expected sleep insight, got %v", out.Insights)
	}
	if !containsSubstring(out.Recommendations, "sleep schedule") {
		t.Errorf("Expected sleep recommendation, got %v", out.Recommendations)
	}
}

func TestActivityBelowGoalRecommendation(t *testing.T) {
	now := fixedNow()
	w := &models.MeasurementWindow{
		UserID: "u1",
		Activities: []models.Activity{
			{Date: now.AddDate(0, 0, -1), Duration: 60},
		},
	}
	out := newTestGenerator().Generate(w, nil)
	if !containsSubstring(out.Recommendations, "150 minutes per week") {
		t.Errorf("Expected activity recommendation, got %v", out.Recommendations)
	}
}

func TestActivityMeetingGoalInsight(t *testing.T) {
	now := fixedNow()
	w := &models.MeasurementWindow{
		UserID: "u1",
		Activities: []models.Activity{
			{Date: now.AddDate(0, 0, -1), Duration: 90},
			{Date: now.AddDate(0, 0, -3), Duration: 80},
		},
	}
	out := newTestGenerator().Generate(w, nil)
	if !containsSubstring(out.Insights, "meeting the weekly physical activity") {
		t.Errorf("Expected positive activity insight, got %v", out.Insights)
	}
}

func TestHighRiskAssessmentBecomesAlert(t *testing.T) {
	assessments := []models.RiskAssessment{
		{Domain: models.DomainDiabetes, RiskScore: 85},
		{Domain: models.DomainHeartDisease, RiskScore: 40},
	}
	out := newTestGenerator().Generate(&models.MeasurementWindow{UserID: "u1"}, assessments)
	if len(out.Alerts) != 1 {
		t.Fatalf("Expected exactly 1 alert, got %v", out.Alerts)
	}
	if !strings.Contains(out.Alerts[0], "diabetes risk") {
		t.Errorf("Expected readable domain label, got %q", out.Alerts[0])
	}
}
