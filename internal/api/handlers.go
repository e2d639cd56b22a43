package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/devang-458/HealthIQ/internal/aggregator"
	"github.com/devang-458/HealthIQ/internal/models"
)

// generatePredictionHandler scores a new risk assessment for the caller.
// An empty or missing body defaults to the general health domain.
func (s *Server) generatePredictionHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	var req models.GenerateAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, models.Error("Invalid request body"))
		return
	}

	assessment, err := s.svc.Generate(r.Context(), userID, req.Type)
	if err != nil {
		if errors.Is(err, aggregator.ErrDataUnavailable) {
			writeJSON(w, http.StatusServiceUnavailable, models.Error("Health data unavailable"))
			return
		}
		slog.Error("Server.generatePredictionHandler: generation failed", "error", err, "userID", userID)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to generate prediction"))
		return
	}

	writeJSON(w, http.StatusCreated, models.Success(assessment))
}

// listPredictionsHandler lists the caller's assessments, optionally filtered
// by domain and restricted to unexpired ones with active=true.
func (s *Server) listPredictionsHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	domain := models.RiskDomain(r.URL.Query().Get("type"))
	var activeAt *time.Time
	if r.URL.Query().Get("active") == "true" {
		now := time.Now()
		activeAt = &now
	}

	assessments, err := s.st.ListAssessments(r.Context(), userID, domain, activeAt)
	if err != nil {
		slog.Error("Server.listPredictionsHandler: listing failed", "error", err, "userID", userID)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to fetch predictions"))
		return
	}

	writeJSON(w, http.StatusOK, models.Success(assessments))
}

func (s *Server) getPredictionHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	id := r.PathValue("id")

	assessment, err := s.st.GetAssessment(r.Context(), userID, id)
	if err != nil {
		slog.Error("Server.getPredictionHandler: lookup failed", "error", err, "userID", userID, "id", id)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to fetch prediction"))
		return
	}
	if assessment == nil {
		writeJSON(w, http.StatusNotFound, models.Error("Prediction not found"))
		return
	}

	writeJSON(w, http.StatusOK, models.Success(assessment))
}

// acknowledgePredictionHandler marks the alert notifications that reference
// the given assessment as read.
func (s *Server) acknowledgePredictionHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	id := r.PathValue("id")

	assessment, err := s.st.GetAssessment(r.Context(), userID, id)
	if err != nil {
		slog.Error("Server.acknowledgePredictionHandler: lookup failed", "error", err, "userID", userID, "id", id)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to acknowledge prediction"))
		return
	}
	if assessment == nil {
		writeJSON(w, http.StatusNotFound, models.Error("Prediction not found"))
		return
	}

	updated, err := s.st.MarkNotificationsReadByReference(r.Context(), userID, id)
	if err != nil {
		slog.Error("Server.acknowledgePredictionHandler: mark read failed", "error", err, "userID", userID, "id", id)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to acknowledge prediction"))
		return
	}

	writeJSON(w, http.StatusOK, models.SuccessWithMessage("Prediction acknowledged", map[string]int{
		"notifications_read": updated,
	}))
}

// insightsHandler generates fresh advisory insights for the caller.
func (s *Server) insightsHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	insights, err := s.svc.Insights(r.Context(), userID)
	if err != nil {
		if errors.Is(err, aggregator.ErrDataUnavailable) {
			writeJSON(w, http.StatusServiceUnavailable, models.Error("Health data unavailable"))
			return
		}
		slog.Error("Server.insightsHandler: generation failed", "error", err, "userID", userID)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to generate insights"))
		return
	}

	writeJSON(w, http.StatusOK, models.Success(insights))
}
