package models

import "fmt"

// Event names published through the real-time hub.
const (
	EventHealthAlert         = "health_alert"
	EventHealthAlerts        = "health_alerts"
	EventHealthUpdate        = "health_update"
	EventHealthRecordCreated = "health_record_created"
	EventActivityCreated     = "activity_created"
	EventLabResultCreated    = "lab_result_created"
	EventAuthenticated       = "authenticated"
	EventAuthenticationError = "authentication_error"
)

// UserChannel is the channel carrying targeted alerts and updates for a user.
func UserChannel(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

// HealthChannel is the passive subscription channel for dashboard refresh hints.
func HealthChannel(userID string) string {
	return fmt.Sprintf("health:%s", userID)
}

// Severity labels attached to health alert events.
const (
	SeverityHigh = "high"
)

// HealthAlertPayload is the wire payload of a health_alert event.
type HealthAlertPayload struct {
	AssessmentID string  `json:"assessment_id"`
	Domain       string  `json:"type"`
	RiskScore    float64 `json:"risk_score"`
	Severity     string  `json:"severity"`
}

// HealthAlertsPayload is the wire payload of a health_alerts event.
type HealthAlertsPayload struct {
	Alerts []string `json:"alerts"`
}

// HealthUpdatePayload is the wire payload of a health_update refresh hint.
type HealthUpdatePayload struct {
	Kind   string `json:"type"`
	Entity any    `json:"entity,omitempty"`
}
