// Package store provides storage backends for HealthIQ.
//
// It defines the narrow query and persistence interfaces the core consumes,
// plus in-memory, SQLite, and PostgreSQL implementations. The core never
// depends on a concrete backend; each component takes only the sub-interface
// it needs.
package store

import (
	"context"
	"time"

	"github.com/devang-458/HealthIQ/internal/models"
)

// RecordQuery bounds a read of one measurement series.
type RecordQuery struct {
	Limit int        // maximum rows returned; 0 means backend default
	From  *time.Time // inclusive lower date bound
	To    *time.Time // inclusive upper date bound
	Type  string     // activity type filter; empty matches all
}

// RecordSource is the read-only query surface the aggregator pulls from.
// All series are returned sorted descending by date.
type RecordSource interface {
	ListHealthRecords(ctx context.Context, userID string, q RecordQuery) ([]models.HealthRecord, error)
	ListActivities(ctx context.Context, userID string, q RecordQuery) ([]models.Activity, error)
	ListLabResults(ctx context.Context, userID string, q RecordQuery) ([]models.LabResult, error)
}

// MeasurementWriter persists raw measurements logged through the API.
type MeasurementWriter interface {
	CreateHealthRecord(ctx context.Context, r models.HealthRecord) error
	CreateActivity(ctx context.Context, a models.Activity) error
	CreateLabResult(ctx context.Context, l models.LabResult) error
}

// AssessmentStore persists scoring artifacts. Expiry is a query-time
// filter: expired assessments stay in place and are simply excluded
// from active listings.
type AssessmentStore interface {
	CreateAssessment(ctx context.Context, a models.RiskAssessment) error
	GetAssessment(ctx context.Context, userID, id string) (*models.RiskAssessment, error)
	ListAssessments(ctx context.Context, userID string, domain models.RiskDomain, activeAt *time.Time) ([]models.RiskAssessment, error)
}

// NotificationStore persists notifications and their read state.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n models.Notification) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	CountUnreadNotifications(ctx context.Context, userID string) (int, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int, error)
	MarkNotificationsReadByReference(ctx context.Context, userID, ref string) (int, error)
	DeleteNotification(ctx context.Context, userID, id string) error
}

// Store is the full persistence surface a backend implements.
type Store interface {
	RecordSource
	MeasurementWriter
	AssessmentStore
	NotificationStore

	// ListAssessedUsers returns the ids of users with at least one stored
	// assessment, for scheduled refresh runs.
	ListAssessedUsers(ctx context.Context) ([]string, error)

	Close() error
}
