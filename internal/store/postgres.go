// Package store provides storage backends for HealthIQ.
//
// This file implements a PostgreSQL-backed store for measurements,
// assessments, and notifications.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/devang-458/HealthIQ/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = DefaultMaxOpenConns
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(min(DefaultMaxIdleConns, maxOpen))
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}
	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) CreateHealthRecord(ctx context.Context, r models.HealthRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO health_records (id, user_id, date, weight, height, blood_pressure_systolic, blood_pressure_diastolic, heart_rate, sleep_hours, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.ID, r.UserID, r.Date, r.Weight, r.Height, r.BloodPressureSystolic, r.BloodPressureDiastolic, r.HeartRate, r.SleepHours, r.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore CreateHealthRecord failed", "error", err, "userID", r.UserID)
		return fmt.Errorf("failed to insert health record: %w", err)
	}
	slog.Debug("PostgresStore CreateHealthRecord succeeded", "id", r.ID, "userID", r.UserID)
	return nil
}

func (s *PostgresStore) CreateActivity(ctx context.Context, a models.Activity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (id, user_id, date, type, duration, distance, calories)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.UserID, a.Date, a.Type, a.Duration, a.Distance, a.Calories)
	if err != nil {
		slog.Error("PostgresStore CreateActivity failed", "error", err, "userID", a.UserID)
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	slog.Debug("PostgresStore CreateActivity succeeded", "id", a.ID, "userID", a.UserID)
	return nil
}

func (s *PostgresStore) CreateLabResult(ctx context.Context, l models.LabResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lab_results (id, user_id, date, test_type, value, unit, normal_range)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		l.ID, l.UserID, l.Date, l.TestType, l.Value, l.Unit, l.NormalRange)
	if err != nil {
		slog.Error("PostgresStore CreateLabResult failed", "error", err, "userID", l.UserID)
		return fmt.Errorf("failed to insert lab result: %w", err)
	}
	slog.Debug("PostgresStore CreateLabResult succeeded", "id", l.ID, "userID", l.UserID)
	return nil
}

func (s *PostgresStore) ListHealthRecords(ctx context.Context, userID string, q RecordQuery) ([]models.HealthRecord, error) {
	b := newPredicateBuilder(`SELECT id, user_id, date, weight, height, blood_pressure_systolic, blood_pressure_diastolic, heart_rate, sleep_hours, created_at
		FROM health_records WHERE user_id = $1`, userID)
	b.dateRange(q)
	b.orderBy(`date DESC`)
	b.limit(q.Limit)

	rows, err := s.db.QueryContext(ctx, b.query, b.args...)
	if err != nil {
		slog.Error("PostgresStore ListHealthRecords query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query health records: %w", err)
	}
	defer rows.Close()

	var records []models.HealthRecord
	for rows.Next() {
		r, err := scanHealthRecord(rows)
		if err != nil {
			slog.Error("PostgresStore ListHealthRecords scan failed", "error", err)
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate health record rows: %w", err)
	}
	slog.Debug("PostgresStore ListHealthRecords succeeded", "userID", userID, "count", len(records))
	return records, nil
}

func (s *PostgresStore) ListActivities(ctx context.Context, userID string, q RecordQuery) ([]models.Activity, error) {
	b := newPredicateBuilder(`SELECT id, user_id, date, type, duration, distance, calories FROM activities WHERE user_id = $1`, userID)
	if q.Type != "" {
		b.where(`type`, `=`, q.Type)
	}
	b.dateRange(q)
	b.orderBy(`date DESC`)
	b.limit(q.Limit)

	rows, err := s.db.QueryContext(ctx, b.query, b.args...)
	if err != nil {
		slog.Error("PostgresStore ListActivities query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			slog.Error("PostgresStore ListActivities scan failed", "error", err)
			return nil, err
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activity rows: %w", err)
	}
	slog.Debug("PostgresStore ListActivities succeeded", "userID", userID, "count", len(activities))
	return activities, nil
}

func (s *PostgresStore) ListLabResults(ctx context.Context, userID string, q RecordQuery) ([]models.LabResult, error) {
	b := newPredicateBuilder(`SELECT id, user_id, date, test_type, value, unit, normal_range FROM lab_results WHERE user_id = $1`, userID)
	b.dateRange(q)
	b.orderBy(`date DESC`)
	b.limit(q.Limit)

	rows, err := s.db.QueryContext(ctx, b.query, b.args...)
	if err != nil {
		slog.Error("PostgresStore ListLabResults query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query lab results: %w", err)
	}
	defer rows.Close()

	var results []models.LabResult
	for rows.Next() {
		l, err := scanLabResult(rows)
		if err != nil {
			slog.Error("PostgresStore ListLabResults scan failed", "error", err)
			return nil, err
		}
		results = append(results, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lab result rows: %w", err)
	}
	slog.Debug("PostgresStore ListLabResults succeeded", "userID", userID, "count", len(results))
	return results, nil
}

func (s *PostgresStore) CreateAssessment(ctx context.Context, a models.RiskAssessment) error {
	factors, err := marshalFactors(a.Factors)
	if err != nil {
		slog.Error("PostgresStore CreateAssessment marshal failed", "error", err, "id", a.ID)
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO predictions (id, user_id, type, risk_score, confidence, factors, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.UserID, a.Domain, a.RiskScore, a.Confidence, factors, a.CreatedAt, a.ExpiresAt)
	if err != nil {
		slog.Error("PostgresStore CreateAssessment failed", "error", err, "id", a.ID)
		return fmt.Errorf("failed to insert assessment: %w", err)
	}
	slog.Debug("PostgresStore CreateAssessment succeeded", "id", a.ID, "userID", a.UserID, "domain", a.Domain)
	return nil
}

func (s *PostgresStore) GetAssessment(ctx context.Context, userID, id string) (*models.RiskAssessment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, type, risk_score, confidence, factors, created_at, expires_at
		FROM predictions WHERE id = $1 AND user_id = $2`, id, userID)
	a, err := scanAssessment(row.Scan)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetAssessment not found", "id", id, "userID", userID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetAssessment failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to query assessment: %w", err)
	}
	return &a, nil
}

func (s *PostgresStore) ListAssessments(ctx context.Context, userID string, domain models.RiskDomain, activeAt *time.Time) ([]models.RiskAssessment, error) {
	b := newPredicateBuilder(`SELECT id, user_id, type, risk_score, confidence, factors, created_at, expires_at
		FROM predictions WHERE user_id = $1`, userID)
	if domain != "" {
		b.where(`type`, `=`, string(domain))
	}
	if activeAt != nil {
		b.where(`expires_at`, `>=`, *activeAt)
	}
	b.orderBy(`created_at DESC`)

	rows, err := s.db.QueryContext(ctx, b.query, b.args...)
	if err != nil {
		slog.Error("PostgresStore ListAssessments query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	defer rows.Close()

	var assessments []models.RiskAssessment
	for rows.Next() {
		a, err := scanAssessment(rows.Scan)
		if err != nil {
			slog.Error("PostgresStore ListAssessments scan failed", "error", err)
			return nil, err
		}
		assessments = append(assessments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assessment rows: %w", err)
	}
	slog.Debug("PostgresStore ListAssessments succeeded", "userID", userID, "count", len(assessments))
	return assessments, nil
}

func (s *PostgresStore) ListAssessedUsers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM predictions`)
	if err != nil {
		slog.Error("PostgresStore ListAssessedUsers query failed", "error", err)
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

func (s *PostgresStore) CreateNotification(ctx context.Context, n models.Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.UserID, n.Kind, n.Title, n.Message, n.Read, n.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore CreateNotification failed", "error", err, "id", n.ID)
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	slog.Debug("PostgresStore CreateNotification succeeded", "id", n.ID, "userID", n.UserID, "kind", n.Kind)
	return nil
}

func (s *PostgresStore) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	b := newPredicateBuilder(`SELECT id, user_id, type, title, message, read, created_at FROM notifications WHERE user_id = $1`, userID)
	if unreadOnly {
		b.raw(` AND read = FALSE`)
	}
	b.orderBy(`created_at DESC`)
	b.limit(limit)

	rows, err := s.db.QueryContext(ctx, b.query, b.args...)
	if err != nil {
		slog.Error("PostgresStore ListNotifications query failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			slog.Error("PostgresStore ListNotifications scan failed", "error", err)
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *PostgresStore) CountUnreadNotifications(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE`, userID).Scan(&count)
	if err != nil {
		slog.Error("PostgresStore CountUnreadNotifications failed", "error", err, "userID", userID)
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) MarkNotificationRead(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		slog.Error("PostgresStore MarkNotificationRead failed", "error", err, "id", id)
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotificationNotFound
	}
	return nil
}

func (s *PostgresStore) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`, userID)
	if err != nil {
		slog.Error("PostgresStore MarkAllNotificationsRead failed", "error", err, "userID", userID)
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *PostgresStore) MarkNotificationsReadByReference(ctx context.Context, userID, ref string) (int, error) {
	if ref == "" {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE AND message LIKE $2`,
		userID, "%"+ref+"%")
	if err != nil {
		slog.Error("PostgresStore MarkNotificationsReadByReference failed", "error", err, "userID", userID)
		return 0, fmt.Errorf("failed to mark referenced notifications read: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *PostgresStore) DeleteNotification(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		slog.Error("PostgresStore DeleteNotification failed", "error", err, "id", id)
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotificationNotFound
	}
	return nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close Postgres database", "error", err)
	}
	return err
}

// predicateBuilder accumulates numbered Postgres placeholders for
// dynamically filtered queries.
type predicateBuilder struct {
	query string
	args  []any
}

func newPredicateBuilder(base string, args ...any) *predicateBuilder {
	return &predicateBuilder{query: base, args: args}
}

func (b *predicateBuilder) where(column, op string, value any) {
	b.args = append(b.args, value)
	b.query += fmt.Sprintf(" AND %s %s $%d", column, op, len(b.args))
}

func (b *predicateBuilder) raw(clause string) {
	b.query += clause
}

func (b *predicateBuilder) dateRange(q RecordQuery) {
	if q.From != nil {
		b.where(`date`, `>=`, *q.From)
	}
	if q.To != nil {
		b.where(`date`, `<=`, *q.To)
	}
}

func (b *predicateBuilder) orderBy(clause string) {
	b.query += ` ORDER BY ` + clause
}

func (b *predicateBuilder) limit(n int) {
	if n > 0 {
		b.args = append(b.args, n)
		b.query += fmt.Sprintf(" LIMIT $%d", len(b.args))
	}
}
