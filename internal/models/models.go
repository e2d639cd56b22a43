// Package models defines the core data structures for HealthIQ.
//
// It includes the measurement types consumed by the risk engine, the derived
// assessment and notification artifacts, and the wire-level event payloads
// shared across modules.
package models

import (
	"errors"
	"time"
)

// RiskDomain identifies a health domain the scoring engine can assess.
type RiskDomain string

const (
	// DomainDiabetes scores metabolic risk from BMI and blood glucose.
	DomainDiabetes RiskDomain = "diabetes_risk"
	// DomainHeartDisease scores cardiovascular risk from blood pressure and activity.
	DomainHeartDisease RiskDomain = "heart_disease_risk"
	// DomainGeneral scores overall data freshness and activity frequency.
	DomainGeneral RiskDomain = "general_health"
)

// Risk scoring constants shared across modules.
const (
	// RiskAlertThreshold is the score above which an assessment raises an alert.
	RiskAlertThreshold = 70
	// DefaultConfidence is the confidence reported when no richer model is supplied.
	DefaultConfidence = 0.8
	// AssessmentValidity is how long an assessment counts as active.
	AssessmentValidity = 30 * 24 * time.Hour
)

// Default per-series fetch limits for measurement windows.
const (
	DefaultHealthRecordLimit = 30
	DefaultActivityLimit     = 30
	DefaultLabResultLimit    = 10
	// GoalTrendRecordLimit is the wider health record window used for goal trends.
	GoalTrendRecordLimit = 60
)

// Error variables for better error handling and testability
var (
	ErrEmptyUserID        = errors.New("user id cannot be empty")
	ErrInvalidDate        = errors.New("date must be in RFC 3339 format")
	ErrInvalidDuration    = errors.New("duration must be at least one minute")
	ErrEmptyActivityType  = errors.New("activity type cannot be empty")
	ErrEmptyTestType      = errors.New("lab test type cannot be empty")
	ErrEmptyCredential    = errors.New("credential cannot be empty")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrAssessmentNotFound   = errors.New("assessment not found")
)

// HealthRecord is a single dated set of vital measurements. Optional fields
// are pointers: nil means the measurement was not taken, never zero.
type HealthRecord struct {
	ID                     string    `json:"id"`
	UserID                 string    `json:"user_id"`
	Date                   time.Time `json:"date"`
	Weight                 *float64  `json:"weight,omitempty"` // kg
	Height                 *float64  `json:"height,omitempty"` // cm
	BloodPressureSystolic  *int      `json:"blood_pressure_systolic,omitempty"`
	BloodPressureDiastolic *int      `json:"blood_pressure_diastolic,omitempty"`
	HeartRate              *int      `json:"heart_rate,omitempty"`
	SleepHours             *float64  `json:"sleep_hours,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
}

// Activity is a single logged physical activity session.
type Activity struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	Date     time.Time `json:"date"`
	Type     string    `json:"type"`
	Duration int       `json:"duration"` // minutes
	Distance *float64  `json:"distance,omitempty"`
	Calories *int      `json:"calories,omitempty"`
}

// LabResult is a single lab test measurement.
type LabResult struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Date        time.Time `json:"date"`
	TestType    string    `json:"test_type"`
	Value       float64   `json:"value"`
	Unit        string    `json:"unit"`
	NormalRange *string   `json:"normal_range,omitempty"`
}

// LabTestBloodSugar is the test type the metabolic scorer reads.
const LabTestBloodSugar = "blood_sugar"

// MeasurementWindow is a bounded read-only snapshot of a user's recent
// measurements, each series ordered most recent first. It is owned
// exclusively by the scoring invocation it was fetched for.
type MeasurementWindow struct {
	UserID        string
	HealthRecords []HealthRecord
	Activities    []Activity
	LabResults    []LabResult
}

// RiskAssessment is the scored artifact produced for one domain.
type RiskAssessment struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	Domain     RiskDomain     `json:"type"`
	RiskScore  float64        `json:"risk_score"` // always within [0,100]
	Confidence float64        `json:"confidence"` // always within [0,1]
	Factors    map[string]any `json:"factors"`
	CreatedAt  time.Time      `json:"created_at"`
	ExpiresAt  time.Time      `json:"expires_at"`
}

// Active reports whether the assessment has not yet expired at the given time.
func (a RiskAssessment) Active(now time.Time) bool {
	return !a.ExpiresAt.Before(now)
}

// GlucoseTrend classifies the direction of a user's blood sugar series.
type GlucoseTrend string

const (
	TrendIncreasing       GlucoseTrend = "increasing"
	TrendDecreasing       GlucoseTrend = "decreasing"
	TrendStable           GlucoseTrend = "stable"
	TrendInsufficientData GlucoseTrend = "insufficient_data"
)

// BloodPressureCategory classifies a blood pressure reading using
// fixed clinical-style thresholds.
type BloodPressureCategory string

const (
	BPHypertensiveCrisis BloodPressureCategory = "hypertensive_crisis"
	BPStage2Hypertension BloodPressureCategory = "stage_2_hypertension"
	BPStage1Hypertension BloodPressureCategory = "stage_1_hypertension"
	BPElevated           BloodPressureCategory = "elevated"
	BPNormal             BloodPressureCategory = "normal"
	BPNoData             BloodPressureCategory = "no_data"
)

// ActivityLevel classifies weekly activity volume against the 150-minute guideline.
type ActivityLevel string

const (
	ActivityVeryActive       ActivityLevel = "very_active"
	ActivityActive           ActivityLevel = "active"
	ActivityModeratelyActive ActivityLevel = "moderately_active"
	ActivitySedentary        ActivityLevel = "sedentary"
)

// NotificationKind distinguishes the purpose of a notification.
type NotificationKind string

const (
	NotificationAlert          NotificationKind = "alert"
	NotificationInfo           NotificationKind = "info"
	NotificationRecommendation NotificationKind = "recommendation"
	NotificationReminder       NotificationKind = "reminder"
)

// Notification is a persisted message for a user. The core creates
// notifications but never mutates them afterwards; the read flag is
// flipped only through user interaction.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Kind      NotificationKind `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// HealthInsights is the advisory text bundle derived from a measurement window.
type HealthInsights struct {
	Insights        []string `json:"insights"`
	Recommendations []string `json:"recommendations"`
	Alerts          []string `json:"alerts"`
}
