// Package insight derives human-readable trend statements and recommendations
// from a measurement window.
//
// It is advisory text generation over already-computed facts, deliberately
// separate from scoring so the numeric engine stays deterministic and testable
// without string-formatting concerns.
package insight

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/devang-458/HealthIQ/internal/models"
	"github.com/devang-458/HealthIQ/internal/scoring"
)

const (
	weightChangePercent = 5.0
	recommendedSleep    = 7.0
)

// Generator produces insight bundles from measurement windows.
type Generator struct {
	now func() time.Time
}

// NewGenerator creates an insight generator.
func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// Generate derives insight, recommendation, and alert strings from the window
// and the user's current assessments. Any assessment scoring above the alert
// threshold becomes an alert string.
func (g *Generator) Generate(w *models.MeasurementWindow, assessments []models.RiskAssessment) models.HealthInsights {
	out := models.HealthInsights{
		Insights:        []string{},
		Recommendations: []string{},
		Alerts:          []string{},
	}
	now := g.now()

	if len(w.HealthRecords) > 0 {
		latest := w.HealthRecords[0]
		g.weightInsights(&out, latest, w.HealthRecords)
		g.bloodPressureInsights(&out, latest)
		g.sleepInsights(&out, w.HealthRecords)
	}

	if len(w.Activities) > 0 {
		weekly := scoring.WeeklyActivityMinutes(w.Activities, now)
		if weekly < scoring.WeeklyActivityGoal {
			out.Recommendations = append(out.Recommendations,
				fmt.Sprintf("Increase your physical activity to reach the recommended %d minutes per week. You're currently at %d minutes.", scoring.WeeklyActivityGoal, weekly))
		} else {
			out.Insights = append(out.Insights,
				fmt.Sprintf("Great job! You're meeting the weekly physical activity recommendations with %d minutes.", weekly))
		}
	}

	for _, a := range assessments {
		if a.RiskScore > models.RiskAlertThreshold {
			out.Alerts = append(out.Alerts,
				fmt.Sprintf("High risk detected for %s: %.0f%% risk score.", domainLabel(a.Domain), a.RiskScore))
		}
	}

	slog.Debug("Generator.Generate: insights derived", "userID", w.UserID,
		"insights", len(out.Insights), "recommendations", len(out.Recommendations), "alerts", len(out.Alerts))
	return out
}

func (g *Generator) weightInsights(out *models.HealthInsights, latest models.HealthRecord, records []models.HealthRecord) {
	if latest.Weight == nil {
		return
	}
	var sum float64
	var n int
	for _, r := range records {
		if r.Weight != nil {
			sum += *r.Weight
			n++
		}
	}
	if n == 0 {
		return
	}
	avg := sum / float64(n)
	if avg == 0 {
		return
	}
	change := (*latest.Weight - avg) / avg * 100
	if math.Abs(change) > weightChangePercent {
		direction := "increased"
		if change < 0 {
			direction = "decreased"
		}
		out.Insights = append(out.Insights,
			fmt.Sprintf("Your weight has %s by %.1f%% recently.", direction, math.Abs(change)))
	}
}

func (g *Generator) bloodPressureInsights(out *models.HealthInsights, latest models.HealthRecord) {
	if latest.BloodPressureSystolic == nil || latest.BloodPressureDiastolic == nil {
		return
	}
	if *latest.BloodPressureSystolic > 130 || *latest.BloodPressureDiastolic > 80 {
		out.Alerts = append(out.Alerts,
			"Your blood pressure is elevated. Consider lifestyle modifications and consult your doctor.")
		out.Recommendations = append(out.Recommendations,
			"Reduce sodium intake, increase physical activity, and practice stress management.")
	}
}

func (g *Generator) sleepInsights(out *models.HealthInsights, records []models.HealthRecord) {
	var sum float64
	var n int
	for _, r := range records {
		if r.SleepHours != nil {
			sum += *r.SleepHours
			n++
		}
	}
	if n == 0 {
		return
	}
	avg := sum / float64(n)
	if avg < recommendedSleep {
		out.Insights = append(out.Insights,
			fmt.Sprintf("You're averaging %.1f hours of sleep, which is below the recommended 7-9 hours.", avg))
		out.Recommendations = append(out.Recommendations,
			"Establish a consistent sleep schedule and create a relaxing bedtime routine.")
	}
}

func domainLabel(d models.RiskDomain) string {
	return strings.ReplaceAll(string(d), "_", " ")
}
