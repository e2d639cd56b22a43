package assess

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/devang-458/HealthIQ/internal/aggregator"
	"github.com/devang-458/HealthIQ/internal/cache"
	"github.com/devang-458/HealthIQ/internal/dispatch"
	"github.com/devang-458/HealthIQ/internal/insight"
	"github.com/devang-458/HealthIQ/internal/models"
	"github.com/devang-458/HealthIQ/internal/scoring"
	"github.com/devang-458/HealthIQ/internal/store"
)

type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) Publish(_, event string, _ any) error {
	p.events = append(p.events, event)
	return nil
}

func newTestService(st *store.InMemoryStore) (*Service, *scoring.Engine, *recordingPublisher) {
	pub := &recordingPublisher{}
	engine := scoring.NewEngine()
	return New(
		aggregator.New(st),
		engine,
		insight.NewGenerator(),
		st,
		st,
		dispatch.New(st, pub),
		pub,
		cache.New(time.Hour),
	), engine, pub
}

// fixedScorer always reports the same risk, regardless of the window.
type fixedScorer struct {
	risk float64
}

func (f *fixedScorer) Score(_ *models.MeasurementWindow, _ time.Time) (float64, map[string]any) {
	return f.risk, map[string]any{}
}

func TestGeneratePersistsAndDispatches(t *testing.T) {
	st := store.NewInMemoryStore()
	svc, engine, pub := newTestService(st)
	engine.Register(models.DomainDiabetes, &fixedScorer{risk: 85})

	a, err := svc.Generate(context.Background(), "u1", models.DomainDiabetes)
	if err != nil {
		t.Fatalf("Expected generation to succeed, got %v", err)
	}
	if a.RiskScore != 85 {
		t.Fatalf("Expected risk score 85, got %v", a.RiskScore)
	}

	stored, err := st.GetAssessment(context.Background(), "u1", a.ID)
	if err != nil || stored == nil {
		t.Fatal("Expected assessment to be persisted")
	}

	notes, _ := st.ListNotifications(context.Background(), "u1", false, 0)
	if len(notes) != 1 || notes[0].Kind != models.NotificationAlert {
		t.Errorf("Expected one alert notification, got %v", notes)
	}
	if len(pub.events) != 1 || pub.events[0] != models.EventHealthAlert {
		t.Errorf("Expected one health_alert event, got %v", pub.events)
	}

	if _, ok := svc.Latest("u1"); !ok {
		t.Error("Expected the assessment to be cached")
	}
}

func TestGenerateDefaultsToGeneralDomain(t *testing.T) {
	st := store.NewInMemoryStore()
	svc, _, _ := newTestService(st)

	a, err := svc.Generate(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("Expected generation to succeed, got %v", err)
	}
	if a.Domain != models.DomainGeneral {
		t.Errorf("Expected general domain by default, got %s", a.Domain)
	}
	if a.RiskScore != 50 {
		t.Errorf("Expected 50 for a user with no records, got %v", a.RiskScore)
	}
}

func TestGenerateCancelledBeforePersistence(t *testing.T) {
	st := store.NewInMemoryStore()
	svc, engine, pub := newTestService(st)
	engine.Register(models.DomainDiabetes, &fixedScorer{risk: 85})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Generate(ctx, "u1", models.DomainDiabetes)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}

	// The scored assessment must be discarded entirely.
	assessments, _ := st.ListAssessments(context.Background(), "u1", "", nil)
	if len(assessments) != 0 {
		t.Errorf("Expected no persisted assessment after cancellation, got %d", len(assessments))
	}
	if len(pub.events) != 0 {
		t.Errorf("Expected no published events after cancellation, got %v", pub.events)
	}
	if _, ok := svc.Latest("u1"); ok {
		t.Error("Expected nothing cached after cancellation")
	}
}

func TestGenerateRepeatCallsDispatchIndependently(t *testing.T) {
	st := store.NewInMemoryStore()
	svc, engine, _ := newTestService(st)
	engine.Register(models.DomainDiabetes, &fixedScorer{risk: 85})

	if _, err := svc.Generate(context.Background(), "u1", models.DomainDiabetes); err != nil {
		t.Fatalf("Expected generation to succeed, got %v", err)
	}
	if _, err := svc.Generate(context.Background(), "u1", models.DomainDiabetes); err != nil {
		t.Fatalf("Expected second generation to succeed, got %v", err)
	}

	// Each generation is a fresh assessment id, so both raise alerts.
	notes, _ := st.ListNotifications(context.Background(), "u1", false, 0)
	if len(notes) != 2 {
		t.Errorf("Expected 2 alert notifications, got %d", len(notes))
	}
}

func TestInsightsPersistsAlertNotifications(t *testing.T) {
	st := store.NewInMemoryStore()
	svc, _, pub := newTestService(st)

	now := time.Now()
	sys, dia := 150, 95
	st.CreateHealthRecord(context.Background(), models.HealthRecord{
		ID: "r1", UserID: "u1", Date: now.AddDate(0, 0, -1),
		BloodPressureSystolic: &sys, BloodPressureDiastolic: &dia,
	})

	bundle, err := svc.Insights(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Expected insights to succeed, got %v", err)
	}
	if len(bundle.Alerts) == 0 {
		t.Fatal("Expected a blood pressure alert")
	}

	notes, _ := st.ListNotifications(context.Background(), "u1", false, 0)
	if len(notes) != len(bundle.Alerts) {
		t.Errorf("Expected %d notifications, got %d", len(bundle.Alerts), len(notes))
	}
	found := false
	for _, ev := range pub.events {
		if ev == models.EventHealthAlerts {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected one health_alerts event, got %v", pub.events)
	}
}

func TestInsightsNoAlertsNoPublish(t *testing.T) {
	st := store.NewInMemoryStore()
	svc, _, pub := newTestService(st)

	bundle, err := svc.Insights(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Expected insights to succeed, got %v", err)
	}
	if len(bundle.Alerts) != 0 {
		t.Errorf("Expected no alerts for an empty window, got %v", bundle.Alerts)
	}
	if len(pub.events) != 0 {
		t.Errorf("Expected no events without alerts, got %v", pub.events)
	}
}

// limitRecordingStore captures the health record limit each fetch requested.
type limitRecordingStore struct {
	*store.InMemoryStore
	recordLimits []int
}

func (s *limitRecordingStore) ListHealthRecords(ctx context.Context, userID string, q store.RecordQuery) ([]models.HealthRecord, error) {
	s.recordLimits = append(s.recordLimits, q.Limit)
	return s.InMemoryStore.ListHealthRecords(ctx, userID, q)
}

func TestInsightsUsesGoalTrendWindow(t *testing.T) {
	st := store.NewInMemoryStore()
	src := &limitRecordingStore{InMemoryStore: st}
	pub := &recordingPublisher{}
	svc := New(
		aggregator.New(src),
		scoring.NewEngine(),
		insight.NewGenerator(),
		st,
		st,
		dispatch.New(st, pub),
		pub,
		cache.New(time.Hour),
	)

	if _, err := svc.Insights(context.Background(), "u1"); err != nil {
		t.Fatalf("Expected insights to succeed, got %v", err)
	}
	if len(src.recordLimits) != 1 || src.recordLimits[0] != models.GoalTrendRecordLimit {
		t.Errorf("Expected health record limit %d, got %v", models.GoalTrendRecordLimit, src.recordLimits)
	}
}
