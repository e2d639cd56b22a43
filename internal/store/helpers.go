package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/devang-458/HealthIQ/internal/models"
)

// containsRef reports whether a notification message references the given id.
func containsRef(message, ref string) bool {
	return ref != "" && strings.Contains(message, ref)
}

// scanHealthRecord scans a HealthRecord from sql.Rows.
func scanHealthRecord(rows *sql.Rows) (models.HealthRecord, error) {
	var r models.HealthRecord
	var weight, height, sleepHours sql.NullFloat64
	var systolic, diastolic, heartRate sql.NullInt64
	err := rows.Scan(&r.ID, &r.UserID, &r.Date, &weight, &height, &systolic, &diastolic, &heartRate, &sleepHours, &r.CreatedAt)
	if err != nil {
		return r, fmt.Errorf("scan health record failed: %w", err)
	}
	r.Weight = nullFloat(weight)
	r.Height = nullFloat(height)
	r.BloodPressureSystolic = nullInt(systolic)
	r.BloodPressureDiastolic = nullInt(diastolic)
	r.HeartRate = nullInt(heartRate)
	r.SleepHours = nullFloat(sleepHours)
	return r, nil
}

// scanActivity scans an Activity from sql.Rows.
func scanActivity(rows *sql.Rows) (models.Activity, error) {
	var a models.Activity
	var distance sql.NullFloat64
	var calories sql.NullInt64
	err := rows.Scan(&a.ID, &a.UserID, &a.Date, &a.Type, &a.Duration, &distance, &calories)
	if err != nil {
		return a, fmt.Errorf("scan activity failed: %w", err)
	}
	a.Distance = nullFloat(distance)
	a.Calories = nullInt(calories)
	return a, nil
}

// scanLabResult scans a LabResult from sql.Rows.
func scanLabResult(rows *sql.Rows) (models.LabResult, error) {
	var l models.LabResult
	var normalRange sql.NullString
	err := rows.Scan(&l.ID, &l.UserID, &l.Date, &l.TestType, &l.Value, &l.Unit, &normalRange)
	if err != nil {
		return l, fmt.Errorf("scan lab result failed: %w", err)
	}
	if normalRange.Valid {
		l.NormalRange = &normalRange.String
	}
	return l, nil
}

// scanAssessment scans a RiskAssessment from a row scanner, decoding the
// factors JSON column.
func scanAssessment(scan func(dest ...any) error) (models.RiskAssessment, error) {
	var a models.RiskAssessment
	var factorsJSON sql.NullString
	err := scan(&a.ID, &a.UserID, &a.Domain, &a.RiskScore, &a.Confidence, &factorsJSON, &a.CreatedAt, &a.ExpiresAt)
	if err != nil {
		return a, err
	}
	if factorsJSON.Valid && factorsJSON.String != "" {
		a.Factors = make(map[string]any)
		if err := json.Unmarshal([]byte(factorsJSON.String), &a.Factors); err != nil {
			slog.Error("store: failed to decode assessment factors", "error", err, "id", a.ID)
			// Continue with empty map rather than failing the read.
			a.Factors = make(map[string]any)
		}
	}
	return a, nil
}

// scanNotification scans a Notification from sql.Rows.
func scanNotification(rows *sql.Rows) (models.Notification, error) {
	var n models.Notification
	err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Message, &n.Read, &n.CreatedAt)
	if err != nil {
		return n, fmt.Errorf("scan notification failed: %w", err)
	}
	return n, nil
}

// marshalFactors encodes a factors map to JSON for storage. A nil map
// stores as NULL.
func marshalFactors(factors map[string]any) (any, error) {
	if len(factors) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(factors)
	if err != nil {
		return nil, fmt.Errorf("marshal factors failed: %w", err)
	}
	return string(b), nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
