package models

import "time"

// IsValidRiskDomain checks if the given risk domain is one the engine knows.
// Unknown domains are still scored (the engine falls back to the general
// scorer), so this is informational rather than a validation gate.
func IsValidRiskDomain(d RiskDomain) bool {
	switch d {
	case DomainDiabetes, DomainHeartDisease, DomainGeneral:
		return true
	default:
		return false
	}
}

// GenerateAssessmentRequest is the payload for generating a risk assessment.
type GenerateAssessmentRequest struct {
	Type RiskDomain `json:"type,omitempty"` // defaults to general_health
}

// HealthRecordRequest is the payload for logging a health record.
type HealthRecordRequest struct {
	Date                   string   `json:"date"`
	Weight                 *float64 `json:"weight,omitempty"`
	Height                 *float64 `json:"height,omitempty"`
	BloodPressureSystolic  *int     `json:"blood_pressure_systolic,omitempty"`
	BloodPressureDiastolic *int     `json:"blood_pressure_diastolic,omitempty"`
	HeartRate              *int     `json:"heart_rate,omitempty"`
	SleepHours             *float64 `json:"sleep_hours,omitempty"`
}

// Validate checks the health record payload and returns the parsed date.
func (r *HealthRecordRequest) Validate() (time.Time, error) {
	return parseDate(r.Date)
}

// ActivityRequest is the payload for logging an activity.
type ActivityRequest struct {
	Date     string   `json:"date"`
	Type     string   `json:"type"`
	Duration int      `json:"duration"`
	Distance *float64 `json:"distance,omitempty"`
	Calories *int     `json:"calories,omitempty"`
}

// Validate checks the activity payload and returns the parsed date.
func (r *ActivityRequest) Validate() (time.Time, error) {
	if r.Type == "" {
		return time.Time{}, ErrEmptyActivityType
	}
	if r.Duration < 1 {
		return time.Time{}, ErrInvalidDuration
	}
	return parseDate(r.Date)
}

// LabResultRequest is the payload for logging a lab result.
type LabResultRequest struct {
	Date        string  `json:"date"`
	TestType    string  `json:"test_type"`
	Value       float64 `json:"value"`
	Unit        string  `json:"unit"`
	NormalRange *string `json:"normal_range,omitempty"`
}

// Validate checks the lab result payload and returns the parsed date.
func (r *LabResultRequest) Validate() (time.Time, error) {
	if r.TestType == "" {
		return time.Time{}, ErrEmptyTestType
	}
	return parseDate(r.Date)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}
