package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/devang-458/HealthIQ/internal/models"
)

func TestSchedulerAddJob(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()
	// Should add a valid cron job without error
	if err := s.AddJob("* * * * *", func() {}); err != nil {
		t.Errorf("Expected no error adding job, got %v", err)
	}
}

func TestSchedulerRejectsInvalidExpression(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()
	if err := s.AddJob("not-a-cron", func() {}); err == nil {
		t.Error("Expected error for invalid cron expression")
	}
}

type fakeUserLister struct {
	ids []string
}

func (f *fakeUserLister) ListAssessedUsers(context.Context) ([]string, error) {
	return f.ids, nil
}

type fakeRunner struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeRunner) Generate(_ context.Context, userID string, domain models.RiskDomain) (*models.RiskAssessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userID+"/"+string(domain))
	return &models.RiskAssessment{UserID: userID, Domain: domain}, nil
}

func TestScheduleRefreshRegisters(t *testing.T) {
	s := NewScheduler()
	defer s.Stop()

	users := &fakeUserLister{ids: []string{"u1", "u2"}}
	runner := &fakeRunner{}
	if err := s.ScheduleRefresh("0 6 * * *", users, runner, time.Minute); err != nil {
		t.Fatalf("Expected valid schedule, got %v", err)
	}
	if err := s.ScheduleRefresh("bad", users, runner, time.Minute); err == nil {
		t.Error("Expected error for invalid refresh expression")
	}
}
