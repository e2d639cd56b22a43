// Package scheduler provides scheduling logic for HealthIQ.
//
// It drives periodic background work, such as refreshing risk assessments
// for users with existing assessments, using cron expressions.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/devang-458/HealthIQ/internal/models"
	"github.com/robfig/cron/v3"
)

// RefreshRunner generates an assessment for one user and domain.
type RefreshRunner interface {
	Generate(ctx context.Context, userID string, domain models.RiskDomain) (*models.RiskAssessment, error)
}

// UserLister enumerates the users eligible for a scheduled refresh.
type UserLister interface {
	ListAssessedUsers(ctx context.Context) ([]string, error)
}

// Scheduler provides cron-based job scheduling.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler creates and starts a cron scheduler.
func NewScheduler() *Scheduler {
	// Use standard 5-field cron parser (min, hour, dom, month, dow) and enable recovery
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	c.Start()
	return &Scheduler{cron: c}
}

// AddJob schedules a task using the provided cron expression.
// It returns an error if the expression is invalid.
func (s *Scheduler) AddJob(expr string, task func()) error {
	_, err := s.cron.AddFunc(expr, task)
	return err
}

// ScheduleRefresh registers a recurring job that regenerates the general
// assessment for every user with stored assessments. Per-user failures are
// logged and skipped; one bad user never aborts the run.
func (s *Scheduler) ScheduleRefresh(expr string, users UserLister, runner RefreshRunner, timeout time.Duration) error {
	return s.AddJob(expr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		ids, err := users.ListAssessedUsers(ctx)
		if err != nil {
			slog.Error("Scheduler refresh: user listing failed", "error", err)
			return
		}
		refreshed := 0
		for _, id := range ids {
			if _, err := runner.Generate(ctx, id, models.DomainGeneral); err != nil {
				slog.Warn("Scheduler refresh: assessment generation failed", "error", err, "userID", id)
				continue
			}
			refreshed++
		}
		slog.Info("Scheduler refresh: run complete", "users", len(ids), "refreshed", refreshed)
	})
}

// Stop stops the cron scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
