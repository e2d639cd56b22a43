// Package assess orchestrates assessment generation: aggregate a measurement
// window, score it, persist the artifact, and dispatch alerts.
//
// Scoring is pure computation; every I/O step checks the caller's context so
// a cancelled request discards its assessment instead of leaving partial
// side effects.
package assess

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/devang-458/HealthIQ/internal/aggregator"
	"github.com/devang-458/HealthIQ/internal/cache"
	"github.com/devang-458/HealthIQ/internal/dispatch"
	"github.com/devang-458/HealthIQ/internal/insight"
	"github.com/devang-458/HealthIQ/internal/models"
	"github.com/devang-458/HealthIQ/internal/scoring"
	"github.com/devang-458/HealthIQ/internal/store"
	"github.com/google/uuid"
)

// Service wires the scoring pipeline together behind a single entry point.
type Service struct {
	aggregator  *aggregator.Aggregator
	engine      *scoring.Engine
	insights    *insight.Generator
	assessments store.AssessmentStore
	notes       store.NotificationStore
	dispatcher  *dispatch.Dispatcher
	publisher   dispatch.Publisher
	snapshots   *cache.SnapshotCache
}

// New creates the assessment service.
func New(
	agg *aggregator.Aggregator,
	engine *scoring.Engine,
	insights *insight.Generator,
	assessments store.AssessmentStore,
	notes store.NotificationStore,
	dispatcher *dispatch.Dispatcher,
	publisher dispatch.Publisher,
	snapshots *cache.SnapshotCache,
) *Service {
	return &Service{
		aggregator:  agg,
		engine:      engine,
		insights:    insights,
		assessments: assessments,
		notes:       notes,
		dispatcher:  dispatcher,
		publisher:   publisher,
		snapshots:   snapshots,
	}
}

// Generate computes, persists, and dispatches a risk assessment for the user
// and domain. If the context is cancelled after scoring but before
// persistence, the assessment is discarded: not stored, not published.
func (s *Service) Generate(ctx context.Context, userID string, domain models.RiskDomain) (*models.RiskAssessment, error) {
	if domain == "" {
		domain = models.DomainGeneral
	}

	window, err := s.aggregator.Fetch(ctx, userID, aggregator.DefaultLimits())
	if err != nil {
		return nil, err
	}

	a := s.engine.Score(domain, window)

	if err := ctx.Err(); err != nil {
		slog.Debug("Service.Generate: cancelled before persistence, discarding assessment", "userID", userID, "domain", domain)
		return nil, err
	}

	if err := s.assessments.CreateAssessment(ctx, a); err != nil {
		slog.Error("Service.Generate: assessment persistence failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to persist assessment: %w", err)
	}

	// Dispatch failures never fail generation; the assessment is already stored.
	if _, err := s.dispatcher.Dispatch(ctx, a); err != nil {
		slog.Warn("Service.Generate: alert dispatch failed", "error", err, "assessmentID", a.ID)
	}

	s.snapshots.Put(userID, a, 0)

	slog.Info("Service.Generate: assessment generated", "userID", userID, "domain", a.Domain, "riskScore", a.RiskScore)
	return &a, nil
}

// Insights derives the advisory text bundle for the user from a fresh window
// and their active assessments. Trend insights compare against longer
// baselines than scoring does, so the window uses the wider goal-trend
// record limit. Each alert string is persisted as a notification and the
// full set is published as one health_alerts event.
func (s *Service) Insights(ctx context.Context, userID string) (models.HealthInsights, error) {
	window, err := s.aggregator.Fetch(ctx, userID, aggregator.GoalTrendLimits())
	if err != nil {
		return models.HealthInsights{}, err
	}

	now := time.Now()
	active, err := s.assessments.ListAssessments(ctx, userID, "", &now)
	if err != nil {
		return models.HealthInsights{}, fmt.Errorf("failed to list active assessments: %w", err)
	}

	bundle := s.insights.Generate(window, active)

	if err := ctx.Err(); err != nil {
		return models.HealthInsights{}, err
	}

	for _, alert := range bundle.Alerts {
		n := models.Notification{
			ID:        uuid.NewString(),
			UserID:    userID,
			Kind:      models.NotificationAlert,
			Title:     "Health Insight Alert",
			Message:   alert,
			CreatedAt: now,
		}
		if err := s.notes.CreateNotification(ctx, n); err != nil {
			slog.Error("Service.Insights: alert notification persistence failed", "error", err, "userID", userID)
		}
	}
	if len(bundle.Alerts) > 0 {
		payload := models.HealthAlertsPayload{Alerts: bundle.Alerts}
		if err := s.publisher.Publish(models.UserChannel(userID), models.EventHealthAlerts, payload); err != nil {
			slog.Warn("Service.Insights: publish failed", "error", err, "userID", userID)
		}
	}

	return bundle, nil
}

// Latest returns the cached most-recent artifact for the user, if any. A
// miss only means the caller should recompute, never that no data exists.
func (s *Service) Latest(userID string) (any, bool) {
	return s.snapshots.Get(userID)
}
