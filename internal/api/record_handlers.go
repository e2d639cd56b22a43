package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/devang-458/HealthIQ/internal/models"
	"github.com/devang-458/HealthIQ/internal/scoring"
	"github.com/devang-458/HealthIQ/internal/store"
)

// recordQueryFrom builds a bounded series query from the request parameters.
func recordQueryFrom(r *http.Request, defaultLimit int) store.RecordQuery {
	q := store.RecordQuery{Limit: defaultLimit}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			q.Limit = n
		}
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			q.From = &t
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			q.To = &t
		}
	}
	q.Type = r.URL.Query().Get("type")
	return q
}

func (s *Server) listHealthRecordsHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	records, err := s.st.ListHealthRecords(r.Context(), userID, recordQueryFrom(r, models.DefaultHealthRecordLimit))
	if err != nil {
		slog.Error("Server.listHealthRecordsHandler: listing failed", "error", err, "userID", userID)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to fetch health records"))
		return
	}

	writeJSON(w, http.StatusOK, models.Success(records))
}

// createHealthRecordHandler stores a new vitals record, notifies the user's
// live connections, and hints dashboards to refresh.
func (s *Server) createHealthRecordHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	var req models.HealthRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.Error("Invalid request body"))
		return
	}
	date, err := req.Validate()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	record := models.HealthRecord{
		ID:                     uuid.NewString(),
		UserID:                 userID,
		Date:                   date,
		Weight:                 req.Weight,
		Height:                 req.Height,
		BloodPressureSystolic:  req.BloodPressureSystolic,
		BloodPressureDiastolic: req.BloodPressureDiastolic,
		HeartRate:              req.HeartRate,
		SleepHours:             req.SleepHours,
		CreatedAt:              time.Now(),
	}
	if err := s.st.CreateHealthRecord(r.Context(), record); err != nil {
		slog.Error("Server.createHealthRecordHandler: create failed", "error", err, "userID", userID)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to create health record"))
		return
	}

	s.publish(models.UserChannel(userID), models.EventHealthRecordCreated, record)
	s.publish(models.HealthChannel(userID), models.EventHealthUpdate, models.HealthUpdatePayload{
		Kind:   models.EventHealthRecordCreated,
		Entity: record,
	})
	s.snapshots.Put(userID, record, 0)

	writeJSON(w, http.StatusCreated, models.Success(record))
}

// ActivitySummary aggregates a listed activity window.
type ActivitySummary struct {
	Count         int     `json:"count"`
	TotalDuration int     `json:"total_duration"` // minutes
	TotalDistance float64 `json:"total_distance"`
	TotalCalories int     `json:"total_calories"`
	Level         string  `json:"level"`
}

func (s *Server) listActivitiesHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	activities, err := s.st.ListActivities(r.Context(), userID, recordQueryFrom(r, models.DefaultActivityLimit))
	if err != nil {
		slog.Error("Server.listActivitiesHandler: listing failed", "error", err, "userID", userID)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to fetch activities"))
		return
	}

	summary := ActivitySummary{Count: len(activities)}
	for _, a := range activities {
		summary.TotalDuration += a.Duration
		if a.Distance != nil {
			summary.TotalDistance += *a.Distance
		}
		if a.Calories != nil {
			summary.TotalCalories += *a.Calories
		}
	}
	summary.Level = string(scoring.ClassifyActivityLevel(scoring.WeeklyActivityMinutes(activities, time.Now())))

	writeJSON(w, http.StatusOK, models.Success(map[string]any{
		"activities": activities,
		"summary":    summary,
	}))
}

func (s *Server) createActivityHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	var req models.ActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.Error("Invalid request body"))
		return
	}
	date, err := req.Validate()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	activity := models.Activity{
		ID:       uuid.NewString(),
		UserID:   userID,
		Date:     date,
		Type:     req.Type,
		Duration: req.Duration,
		Distance: req.Distance,
		Calories: req.Calories,
	}
	if err := s.st.CreateActivity(r.Context(), activity); err != nil {
		slog.Error("Server.createActivityHandler: create failed", "error", err, "userID", userID)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to create activity"))
		return
	}

	s.publish(models.UserChannel(userID), models.EventActivityCreated, activity)
	s.publish(models.HealthChannel(userID), models.EventHealthUpdate, models.HealthUpdatePayload{
		Kind:   models.EventActivityCreated,
		Entity: activity,
	})

	writeJSON(w, http.StatusCreated, models.Success(activity))
}

func (s *Server) listLabResultsHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	results, err := s.st.ListLabResults(r.Context(), userID, recordQueryFrom(r, models.DefaultLabResultLimit))
	if err != nil {
		slog.Error("Server.listLabResultsHandler: listing failed", "error", err, "userID", userID)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to fetch lab results"))
		return
	}

	writeJSON(w, http.StatusOK, models.Success(results))
}

func (s *Server) createLabResultHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	var req models.LabResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.Error("Invalid request body"))
		return
	}
	date, err := req.Validate()
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	result := models.LabResult{
		ID:          uuid.NewString(),
		UserID:      userID,
		Date:        date,
		TestType:    req.TestType,
		Value:       req.Value,
		Unit:        req.Unit,
		NormalRange: req.NormalRange,
	}
	if err := s.st.CreateLabResult(r.Context(), result); err != nil {
		slog.Error("Server.createLabResultHandler: create failed", "error", err, "userID", userID)
		writeJSON(w, http.StatusInternalServerError, models.Error("Failed to create lab result"))
		return
	}

	s.publish(models.UserChannel(userID), models.EventLabResultCreated, result)
	s.publish(models.HealthChannel(userID), models.EventHealthUpdate, models.HealthUpdatePayload{
		Kind:   models.EventLabResultCreated,
		Entity: result,
	})

	writeJSON(w, http.StatusCreated, models.Success(result))
}

// publish pushes an event to the hub and logs delivery failures. Real-time
// delivery is best effort; the REST write already succeeded.
func (s *Server) publish(channel, event string, payload any) {
	if err := s.hub.Publish(channel, event, payload); err != nil {
		slog.Warn("Server.publish: event delivery failed", "error", err, "channel", channel, "event", event)
	}
}
