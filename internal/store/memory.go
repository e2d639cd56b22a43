// Package store provides storage backends for HealthIQ.
//
// This file implements an in-memory store used for development and tests.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/devang-458/HealthIQ/internal/models"
)

// InMemoryStore is a mutex-guarded implementation of Store with no persistence.
type InMemoryStore struct {
	mu            sync.RWMutex
	healthRecords []models.HealthRecord
	activities    []models.Activity
	labResults    []models.LabResult
	assessments   []models.RiskAssessment
	notifications []models.Notification
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) CreateHealthRecord(_ context.Context, r models.HealthRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthRecords = append(s.healthRecords, r)
	return nil
}

func (s *InMemoryStore) CreateActivity(_ context.Context, a models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities = append(s.activities, a)
	return nil
}

func (s *InMemoryStore) CreateLabResult(_ context.Context, l models.LabResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labResults = append(s.labResults, l)
	return nil
}

func (s *InMemoryStore) ListHealthRecords(_ context.Context, userID string, q RecordQuery) ([]models.HealthRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.HealthRecord
	for _, r := range s.healthRecords {
		if r.UserID == userID && dateInRange(r.Date, q) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return capSlice(out, q.Limit), nil
}

func (s *InMemoryStore) ListActivities(_ context.Context, userID string, q RecordQuery) ([]models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Activity
	for _, a := range s.activities {
		if a.UserID != userID || !dateInRange(a.Date, q) {
			continue
		}
		if q.Type != "" && a.Type != q.Type {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return capSlice(out, q.Limit), nil
}

func (s *InMemoryStore) ListLabResults(_ context.Context, userID string, q RecordQuery) ([]models.LabResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.LabResult
	for _, l := range s.labResults {
		if l.UserID == userID && dateInRange(l.Date, q) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return capSlice(out, q.Limit), nil
}

func (s *InMemoryStore) CreateAssessment(_ context.Context, a models.RiskAssessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assessments = append(s.assessments, a)
	return nil
}

func (s *InMemoryStore) GetAssessment(_ context.Context, userID, id string) (*models.RiskAssessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.assessments {
		if a.UserID == userID && a.ID == id {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (s *InMemoryStore) ListAssessments(_ context.Context, userID string, domain models.RiskDomain, activeAt *time.Time) ([]models.RiskAssessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.RiskAssessment
	for _, a := range s.assessments {
		if a.UserID != userID {
			continue
		}
		if domain != "" && a.Domain != domain {
			continue
		}
		if activeAt != nil && !a.Active(*activeAt) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) ListAssessedUsers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, a := range s.assessments {
		if !seen[a.UserID] {
			seen[a.UserID] = true
			out = append(out, a.UserID)
		}
	}
	return out, nil
}

func (s *InMemoryStore) CreateNotification(_ context.Context, n models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, n)
	return nil
}

func (s *InMemoryStore) ListNotifications(_ context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return capSlice(out, limit), nil
}

func (s *InMemoryStore) CountUnreadNotifications(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) MarkNotificationRead(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].UserID == userID && s.notifications[i].ID == id {
			s.notifications[i].Read = true
			return nil
		}
	}
	return models.ErrNotificationNotFound
}

func (s *InMemoryStore) MarkAllNotificationsRead(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for i := range s.notifications {
		if s.notifications[i].UserID == userID && !s.notifications[i].Read {
			s.notifications[i].Read = true
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) MarkNotificationsReadByReference(_ context.Context, userID, ref string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for i := range s.notifications {
		if s.notifications[i].UserID == userID && !s.notifications[i].Read && containsRef(s.notifications[i].Message, ref) {
			s.notifications[i].Read = true
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) DeleteNotification(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].UserID == userID && s.notifications[i].ID == id {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			return nil
		}
	}
	return models.ErrNotificationNotFound
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }

func dateInRange(d time.Time, q RecordQuery) bool {
	if q.From != nil && d.Before(*q.From) {
		return false
	}
	if q.To != nil && d.After(*q.To) {
		return false
	}
	return true
}

func capSlice[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}
