package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/devang-458/HealthIQ/internal/models"
)

func TestWriteJSONEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusCreated, models.Success(map[string]string{"id": "a1"}))

	if rec.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json content type, got %q", ct)
	}
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Status != string(models.APIStatusOK) {
		t.Errorf("Expected ok status, got %q", resp.Status)
	}
}

func TestWriteJSONUnmarshalableValueDegradesToError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]any{"ch": make(chan int)})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rec.Code)
	}
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Expected a valid JSON fallback body, got %q: %v", rec.Body.String(), err)
	}
	if resp.Status != string(models.APIStatusError) || resp.Message != "Internal server error" {
		t.Errorf("Expected the canned error envelope, got %+v", resp)
	}
}
