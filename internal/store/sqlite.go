// Package store provides storage backends for HealthIQ.
//
// This file implements an SQLite-backed store for measurements, assessments,
// and notifications.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/devang-458/HealthIQ/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateHealthRecord(ctx context.Context, r models.HealthRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO health_records (id, user_id, date, weight, height, blood_pressure_systolic, blood_pressure_diastolic, heart_rate, sleep_hours, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.Date, r.Weight, r.Height, r.BloodPressureSystolic, r.BloodPressureDiastolic, r.HeartRate, r.SleepHours, r.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore CreateHealthRecord failed", "error", err, "userID", r.UserID)
		return fmt.Errorf("failed to insert health record: %w", err)
	}
	slog.Debug("SQLiteStore CreateHealthRecord succeeded", "id", r.ID, "userID", r.UserID)
	return nil
}

func (s *SQLiteStore) CreateActivity(ctx context.Context, a models.Activity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (id, user_id, date, type, duration, distance, calories)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Date, a.Type, a.Duration, a.Distance, a.Calories)
	if err != nil {
		slog.Error("SQLiteStore CreateActivity failed", "error", err, "userID", a.UserID)
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	slog.Debug("SQLiteStore CreateActivity succeeded", "id", a.ID, "userID", a.UserID)
	return nil
}

func (s *SQLiteStore) CreateLabResult(ctx context.Context, l models.LabResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lab_results (id, user_id, date, test_type, value, unit, normal_range)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.Date, l.TestType, l.Value, l.Unit, l.NormalRange)
	if err != nil {
		slog.Error("SQLiteStore CreateLabResult failed", "error", err, "userID", l.UserID)
		return fmt.Errorf("failed to insert lab result: %w", err)
	}
	slog.Debug("SQLiteStore CreateLabResult succeeded", "id", l.ID, "userID", l.UserID)
	return nil
}

func (s *SQLiteStore) ListHealthRecords(ctx context.Context, userID string, q RecordQuery) ([]models.HealthRecord, error) {
	query := `SELECT id, user_id, date, weight, height, blood_pressure_systolic, blood_pressure_diastolic, heart_rate, sleep_hours, created_at
		FROM health_records WHERE user_id = ?`
	args := []any{userID}
	query, args = appendDateFilterSQLite(query, args, q)
	query += ` ORDER BY date DESC`
	query, args = appendLimitSQLite(query, args, q.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error("SQLiteStore ListHealthRecords query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query health records: %w", err)
	}
	defer rows.Close()

	var records []models.HealthRecord
	for rows.Next() {
		r, err := scanHealthRecord(rows)
		if err != nil {
			slog.Error("SQLiteStore ListHealthRecords scan failed", "error", err)
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate health record rows: %w", err)
	}
	slog.Debug("SQLiteStore ListHealthRecords succeeded", "userID", userID, "count", len(records))
	return records, nil
}

func (s *SQLiteStore) ListActivities(ctx context.Context, userID string, q RecordQuery) ([]models.Activity, error) {
	query := `SELECT id, user_id, date, type, duration, distance, calories FROM activities WHERE user_id = ?`
	args := []any{userID}
	if q.Type != "" {
		query += ` AND type = ?`
		args = append(args, q.Type)
	}
	query, args = appendDateFilterSQLite(query, args, q)
	query += ` ORDER BY date DESC`
	query, args = appendLimitSQLite(query, args, q.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error("SQLiteStore ListActivities query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			slog.Error("SQLiteStore ListActivities scan failed", "error", err)
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity rows: %w", err)
	}
	slog.Debug("SQLiteStore ListActivities succeeded", "userID", userID, "count", len(activities))
	return activities, nil
}

func (s *SQLiteStore) ListLabResults(ctx context.Context, userID string, q RecordQuery) ([]models.LabResult, error) {
	query := `SELECT id, user_id, date, test_type, value, unit, normal_range FROM lab_results WHERE user_id = ?`
	args := []any{userID}
	query, args = appendDateFilterSQLite(query, args, q)
	query += ` ORDER BY date DESC`
	query, args = appendLimitSQLite(query, args, q.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error("SQLiteStore ListLabResults query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query lab results: %w", err)
	}
	defer rows.Close()

	var results []models.LabResult
	for rows.Next() {
		l, err := scanLabResult(rows)
		if err != nil {
			slog.Error("SQLiteStore ListLabResults scan failed", "error", err)
			return nil, err
		}
		results = append(results, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lab result rows: %w", err)
	}
	slog.Debug("SQLiteStore ListLabResults succeeded", "userID", userID, "count", len(results))
	return results, nil
}

func (s *SQLiteStore) CreateAssessment(ctx context.Context, a models.RiskAssessment) error {
	factors, err := marshalFactors(a.Factors)
	if err != nil {
		slog.Error("SQLiteStore CreateAssessment marshal failed", "error", err, "id", a.ID)
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO predictions (id, user_id, type, risk_score, confidence, factors, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Domain, a.RiskScore, a.Confidence, factors, a.CreatedAt, a.ExpiresAt)
	if err != nil {
		slog.Error("SQLiteStore CreateAssessment failed", "error", err, "id", a.ID)
		return fmt.Errorf("failed to insert assessment: %w", err)
	}
	slog.Debug("SQLiteStore CreateAssessment succeeded", "id", a.ID, "userID", a.UserID, "domain", a.Domain)
	return nil
}

func (s *SQLiteStore) GetAssessment(ctx context.Context, userID, id string) (*models.RiskAssessment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, type, risk_score, confidence, factors, created_at, expires_at
		FROM predictions WHERE id = ? AND user_id = ?`, id, userID)
	a, err := scanAssessment(row.Scan)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetAssessment not found", "id", id, "userID", userID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetAssessment failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to query assessment: %w", err)
	}
	return &a, nil
}

func (s *SQLiteStore) ListAssessments(ctx context.Context, userID string, domain models.RiskDomain, activeAt *time.Time) ([]models.RiskAssessment, error) {
	query := `SELECT id, user_id, type, risk_score, confidence, factors, created_at, expires_at
		FROM predictions WHERE user_id = ?`
	args := []any{userID}
	if domain != "" {
		query += ` AND type = ?`
		args = append(args, domain)
	}
	if activeAt != nil {
		query += ` AND expires_at >= ?`
		args = append(args, *activeAt)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error("SQLiteStore ListAssessments query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	defer rows.Close()

	var assessments []models.RiskAssessment
	for rows.Next() {
		a, err := scanAssessment(rows.Scan)
		if err != nil {
			slog.Error("SQLiteStore ListAssessments scan failed", "error", err)
			return nil, err
		}
		assessments = append(assessments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assessment rows: %w", err)
	}
	slog.Debug("SQLiteStore ListAssessments succeeded", "userID", userID, "count", len(assessments))
	return assessments, nil
}

func (s *SQLiteStore) ListAssessedUsers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM predictions`)
	if err != nil {
		slog.Error("SQLiteStore ListAssessedUsers query failed", "error", err)
		return nil, fmt.Errorf("failed to query assessed users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id failed: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

func (s *SQLiteStore) CreateNotification(ctx context.Context, n models.Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Kind, n.Title, n.Message, n.Read, n.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore CreateNotification failed", "error", err, "id", n.ID)
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	slog.Debug("SQLiteStore CreateNotification succeeded", "id", n.ID, "userID", n.UserID, "kind", n.Kind)
	return nil
}

func (s *SQLiteStore) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	query := `SELECT id, user_id, type, title, message, read, created_at FROM notifications WHERE user_id = ?`
	args := []any{userID}
	if unreadOnly {
		query += ` AND read = 0`
	}
	query += ` ORDER BY created_at DESC`
	query, args = appendLimitSQLite(query, args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error("SQLiteStore ListNotifications query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			slog.Error("SQLiteStore ListNotifications scan failed", "error", err)
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *SQLiteStore) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = 0`, userID).Scan(&count)
	if err != nil {
		slog.Error("SQLiteStore CountUnreadNotifications failed", "error", err, "userID", userID)
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		slog.Error("SQLiteStore MarkNotificationRead failed", "error", err, "id", id)
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotificationNotFound
	}
	return nil
}

func (s *SQLiteStore) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE user_id = ? AND read = 0`, userID)
	if err != nil {
		slog.Error("SQLiteStore MarkAllNotificationsRead failed", "error", err, "userID", userID)
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *SQLiteStore) MarkNotificationsReadByReference(ctx context.Context, userID, ref string) (int, error) {
	if ref == "" {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE user_id = ? AND read = 0 AND message LIKE ?`,
		userID, "%"+ref+"%")
	if err != nil {
		slog.Error("SQLiteStore MarkNotificationsReadByReference failed", "error", err, "userID", userID)
		return 0, fmt.Errorf("failed to mark referenced notifications read: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *SQLiteStore) DeleteNotification(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		slog.Error("SQLiteStore DeleteNotification failed", "error", err, "id", id)
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotificationNotFound
	}
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}

func appendDateFilterSQLite(query string, args []any, q RecordQuery) (string, []any) {
	if q.From != nil {
		query += ` AND date >= ?`
		args = append(args, *q.From)
	}
	if q.To != nil {
		query += ` AND date <= ?`
		args = append(args, *q.To)
	}
	return query, args
}

func appendLimitSQLite(query string, args []any, limit int) (string, []any) {
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return query, args
}
