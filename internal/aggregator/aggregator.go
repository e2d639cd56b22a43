// Package aggregator assembles bounded measurement windows for the risk engine.
//
// It pulls a recent slice of each input series for one user from the backing
// store and normalizes ordering. Retry policy belongs to the store client,
// not here: an unreachable store surfaces as ErrDataUnavailable.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/devang-458/HealthIQ/internal/models"
	"github.com/devang-458/HealthIQ/internal/store"
)

// ErrDataUnavailable indicates the backing store could not be reached.
var ErrDataUnavailable = errors.New("health data unavailable")

// Limits bounds the number of rows fetched per series.
type Limits struct {
	HealthRecords int
	Activities    int
	LabResults    int
}

// DefaultLimits returns the window bounds used for general assessment and insight.
func DefaultLimits() Limits {
	return Limits{
		HealthRecords: models.DefaultHealthRecordLimit,
		Activities:    models.DefaultActivityLimit,
		LabResults:    models.DefaultLabResultLimit,
	}
}

// GoalTrendLimits returns the wider health record window used for goal trends.
func GoalTrendLimits() Limits {
	l := DefaultLimits()
	l.HealthRecords = models.GoalTrendRecordLimit
	return l
}

// Aggregator fetches measurement windows from a read-only record source.
type Aggregator struct {
	source store.RecordSource
}

// New creates an Aggregator over the given record source.
func New(source store.RecordSource) *Aggregator {
	return &Aggregator{source: source}
}

// Fetch returns a measurement window for the user with each series sorted
// descending by date. The window is a fresh snapshot owned by the caller;
// missing numeric fields stay nil and are never coerced to zero.
func (a *Aggregator) Fetch(ctx context.Context, userID string, limits Limits) (*models.MeasurementWindow, error) {
	if userID == "" {
		return nil, models.ErrEmptyUserID
	}

	records, err := a.source.ListHealthRecords(ctx, userID, store.RecordQuery{Limit: limits.HealthRecords})
	if err != nil {
		slog.Error("Aggregator.Fetch: health record query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	activities, err := a.source.ListActivities(ctx, userID, store.RecordQuery{Limit: limits.Activities})
	if err != nil {
		slog.Error("Aggregator.Fetch: activity query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	labs, err := a.source.ListLabResults(ctx, userID, store.RecordQuery{Limit: limits.LabResults})
	if err != nil {
		slog.Error("Aggregator.Fetch: lab result query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	w := &models.MeasurementWindow{
		UserID:        userID,
		HealthRecords: records,
		Activities:    activities,
		LabResults:    labs,
	}
	normalize(w)
	slog.Debug("Aggregator.Fetch: window assembled", "userID", userID,
		"records", len(w.HealthRecords), "activities", len(w.Activities), "labs", len(w.LabResults))
	return w, nil
}

// normalize enforces the most-recent-first ordering contract regardless of
// what the backend returned.
func normalize(w *models.MeasurementWindow) {
	sort.SliceStable(w.HealthRecords, func(i, j int) bool {
		return w.HealthRecords[i].Date.After(w.HealthRecords[j].Date)
	})
	sort.SliceStable(w.Activities, func(i, j int) bool {
		return w.Activities[i].Date.After(w.Activities[j].Date)
	})
	sort.SliceStable(w.LabResults, func(i, j int) bool {
		return w.LabResults[i].Date.After(w.LabResults[j].Date)
	})
}
