package repo

import (
	"context"
	"database/sql"
	"errors"

	"talentos/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

func New(db *sql.DB) Repo {
	return Repo{DB: db}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullablePtr(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func ptrFrom(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// Stats returns the dashboard headline counters.
func (r Repo) Stats(ctx context.Context) (domain.DashboardStats, error) {
	var s domain.DashboardStats
	row := r.DB.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM talents),
		(SELECT COUNT(*) FROM talents WHERE verification_status='verified'),
		(SELECT COUNT(*) FROM personas),
		(SELECT COUNT(*) FROM personas WHERE status='active'),
		(SELECT COUNT(*) FROM consents WHERE status='active'),
		(SELECT COUNT(*) FROM incidents WHERE status IN ('open','investigating')),
		(SELECT COUNT(*) FROM tasks WHERE status='pending')`)
	if err := row.Scan(&s.Talents, &s.VerifiedTalents, &s.Personas, &s.ActivePersonas, &s.ActiveConsents, &s.OpenIncidents, &s.PendingTasks); err != nil {
		return s, err
	}
	return s, nil
}
