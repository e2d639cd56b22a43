package models

import (
	"errors"
	"testing"
	"time"
)

func TestHealthRecordRequestValidate(t *testing.T) {
	r := HealthRecordRequest{Date: "2026-08-01T10:00:00Z"}
	date, err := r.Validate()
	if err != nil {
		t.Fatalf("Expected valid date, got %v", err)
	}
	if date.Year() != 2026 || date.Month() != time.August {
		t.Errorf("Unexpected parsed date %v", date)
	}

	r.Date = "01/08/2026"
	if _, err := r.Validate(); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("Expected ErrInvalidDate, got %v", err)
	}
}

func TestActivityRequestValidate(t *testing.T) {
	valid := ActivityRequest{Date: "2026-08-01T10:00:00Z", Type: "running", Duration: 30}
	if _, err := valid.Validate(); err != nil {
		t.Errorf("Expected valid request, got %v", err)
	}

	missing := ActivityRequest{Date: "2026-08-01T10:00:00Z", Duration: 30}
	if _, err := missing.Validate(); !errors.Is(err, ErrEmptyActivityType) {
		t.Errorf("Expected ErrEmptyActivityType, got %v", err)
	}

	short := ActivityRequest{Date: "2026-08-01T10:00:00Z", Type: "running", Duration: 0}
	if _, err := short.Validate(); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("Expected ErrInvalidDuration, got %v", err)
	}
}

func TestLabResultRequestValidate(t *testing.T) {
	valid := LabResultRequest{Date: "2026-08-01T10:00:00Z", TestType: LabTestBloodSugar, Value: 98, Unit: "mg/dL"}
	if _, err := valid.Validate(); err != nil {
		t.Errorf("Expected valid request, got %v", err)
	}

	missing := LabResultRequest{Date: "2026-08-01T10:00:00Z", Value: 98}
	if _, err := missing.Validate(); !errors.Is(err, ErrEmptyTestType) {
		t.Errorf("Expected ErrEmptyTestType, got %v", err)
	}
}

func TestIsValidRiskDomain(t *testing.T) {
	for _, d := range []RiskDomain{DomainDiabetes, DomainHeartDisease, DomainGeneral} {
		if !IsValidRiskDomain(d) {
			t.Errorf("Expected %s to be valid", d)
		}
	}
	if IsValidRiskDomain("cholesterol_risk") {
		t.Error("Expected unknown domain to be invalid")
	}
}

func TestChannelNames(t *testing.T) {
	if UserChannel("42") != "user:42" {
		t.Errorf("Unexpected user channel %s", UserChannel("42"))
	}
	if HealthChannel("42") != "health:42" {
		t.Errorf("Unexpected health channel %s", HealthChannel("42"))
	}
}

func TestAssessmentActive(t *testing.T) {
	now := time.Now()
	a := RiskAssessment{ExpiresAt: now.Add(time.Hour)}
	if !a.Active(now) {
		t.Error("Expected unexpired assessment to be active")
	}
	if !a.Active(a.ExpiresAt) {
		t.Error("Expected assessment active at the exact expiry instant")
	}
	if a.Active(a.ExpiresAt.Add(time.Second)) {
		t.Error("Expected assessment inactive past expiry")
	}
}
