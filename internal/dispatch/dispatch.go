// Package dispatch decides whether a risk assessment materializes a
// notification and a real-time alert.
//
// Dispatch is idempotent per assessment id: the dispatcher tracks which
// assessments it has already acted on, so repeated calls for the same
// assessment create at most one notification and one publish.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/devang-458/HealthIQ/internal/models"
	"github.com/google/uuid"
)

// Publisher delivers an event to every subscribed connection on a channel.
// Delivery is best-effort; a failure never blocks or fails dispatch.
type Publisher interface {
	Publish(channel, event string, payload any) error
}

// NotificationWriter persists notifications to the external store.
type NotificationWriter interface {
	CreateNotification(ctx context.Context, n models.Notification) error
}

// Result reports what a dispatch call did.
type Result struct {
	Notification *models.Notification
	AlertRaised  bool
}

// Dispatcher enforces the severity threshold and idempotency rules for
// raising alerts from assessments.
type Dispatcher struct {
	notifications NotificationWriter
	publisher     Publisher

	mu   sync.Mutex
	seen map[string]time.Time // assessment id -> assessment expiry
	now  func() time.Time
}

// New creates a Dispatcher writing through the given store and publisher.
func New(notifications NotificationWriter, publisher Publisher) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		publisher:     publisher,
		seen:          make(map[string]time.Time),
		now:           time.Now,
	}
}

// Dispatch raises an alert for the assessment if its score exceeds the alert
// threshold: exactly one notification of kind alert is created and one
// health_alert event is published to the user's channel. Below the threshold
// it is a no-op. A repeat call with an already-dispatched assessment id is
// silently suppressed.
func (d *Dispatcher) Dispatch(ctx context.Context, a models.RiskAssessment) (Result, error) {
	if a.RiskScore <= models.RiskAlertThreshold {
		slog.Debug("Dispatcher.Dispatch: below alert threshold, no action", "assessmentID", a.ID, "riskScore", a.RiskScore)
		return Result{}, nil
	}

	if !d.claim(a) {
		slog.Debug("Dispatcher.Dispatch: duplicate dispatch suppressed", "assessmentID", a.ID)
		return Result{}, nil
	}

	n := models.Notification{
		ID:     uuid.NewString(),
		UserID: a.UserID,
		Kind:   models.NotificationAlert,
		Title:  "Health Alert",
		Message: fmt.Sprintf("High risk detected for %s. Please consult your healthcare provider. (assessment %s)",
			a.Domain, a.ID),
		CreatedAt: d.now(),
	}
	if err := d.notifications.CreateNotification(ctx, n); err != nil {
		// Release the claim so a later retry can act on this assessment.
		d.release(a.ID)
		slog.Error("Dispatcher.Dispatch: notification persistence failed", "error", err, "assessmentID", a.ID)
		return Result{}, fmt.Errorf("failed to create alert notification: %w", err)
	}

	payload := models.HealthAlertPayload{
		AssessmentID: a.ID,
		Domain:       string(a.Domain),
		RiskScore:    a.RiskScore,
		Severity:     models.SeverityHigh,
	}
	if err := d.publisher.Publish(models.UserChannel(a.UserID), models.EventHealthAlert, payload); err != nil {
		// Delivery is best-effort; the notification already persisted.
		slog.Warn("Dispatcher.Dispatch: publish failed", "error", err, "assessmentID", a.ID, "userID", a.UserID)
	}

	slog.Info("Dispatcher.Dispatch: alert raised", "assessmentID", a.ID, "userID", a.UserID, "riskScore", a.RiskScore)
	return Result{Notification: &n, AlertRaised: true}, nil
}

// claim records the assessment id in the idempotency set, evicting entries
// whose assessments have expired. It returns false if the id was already
// claimed.
func (d *Dispatcher) claim(a models.RiskAssessment) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for id, expiry := range d.seen {
		if expiry.Before(now) {
			delete(d.seen, id)
		}
	}

	if _, dup := d.seen[a.ID]; dup {
		return false
	}
	d.seen[a.ID] = a.ExpiresAt
	return true
}

func (d *Dispatcher) release(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, id)
}
