package repo

import (
	"context"
	"strings"

	"talentos/internal/domain"
)

func (r Repo) InsertWellbeingCheckin(ctx context.Context, w domain.WellbeingCheckin) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO wellbeing_checkins(id,talent_id,mood,stress,note,created_by,created_at) VALUES (?,?,?,?,?,?,?)`,
		w.ID, w.TalentID, w.Mood, w.Stress, w.Note, w.CreatedBy, w.CreatedAt)
	return err
}

func (r Repo) ListWellbeingCheckins(ctx context.Context, talentID string, limit int) ([]domain.WellbeingCheckin, error) {
	query := `SELECT id,talent_id,mood,stress,note,created_by,created_at FROM wellbeing_checkins WHERE talent_id=? ORDER BY created_at DESC, id DESC`
	args := []any{talentID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.WellbeingCheckin
	for rows.Next() {
		var w domain.WellbeingCheckin
		if err := rows.Scan(&w.ID, &w.TalentID, &w.Mood, &w.Stress, &w.Note, &w.CreatedBy, &w.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, w)
	}
	return res, rows.Err()
}

func (r Repo) InsertRevenueEntry(ctx context.Context, e domain.RevenueEntry) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO revenue_entries(id,persona_id,type,gross_amount,platform_fee,net_amount,occurred_at,created_by,created_at) VALUES (?,?,?,?,?,?,?,?,?)`,
		e.ID, e.PersonaID, e.Type, e.GrossAmount, e.PlatformFee, e.NetAmount, e.OccurredAt, e.CreatedBy, e.CreatedAt)
	return err
}

type RevenueFilters struct {
	PersonaID string
	Type      string
	Limit     int
}

func (r Repo) ListRevenueEntries(ctx context.Context, f RevenueFilters) ([]domain.RevenueEntry, error) {
	var clauses []string
	var args []any
	if f.PersonaID != "" {
		clauses = append(clauses, "persona_id=?")
		args = append(args, f.PersonaID)
	}
	if f.Type != "" {
		clauses = append(clauses, "type=?")
		args = append(args, f.Type)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT id,persona_id,type,gross_amount,platform_fee,net_amount,occurred_at,created_by,created_at FROM revenue_entries ` + where + ` ORDER BY occurred_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.RevenueEntry
	for rows.Next() {
		var e domain.RevenueEntry
		if err := rows.Scan(&e.ID, &e.PersonaID, &e.Type, &e.GrossAmount, &e.PlatformFee, &e.NetAmount, &e.OccurredAt, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// SummarizeRevenue aggregates entries with occurred_at in [from, to).
// personaID may be empty for an agency-wide summary.
func (r Repo) SummarizeRevenue(ctx context.Context, personaID, from, to string) (domain.RevenueSummary, error) {
	var s domain.RevenueSummary
	s.PersonaID = personaID
	query := `SELECT COALESCE(SUM(gross_amount),0), COALESCE(SUM(platform_fee),0), COALESCE(SUM(net_amount),0), COUNT(*) FROM revenue_entries WHERE occurred_at >= ? AND occurred_at < ?`
	args := []any{from, to}
	if personaID != "" {
		query += " AND persona_id=?"
		args = append(args, personaID)
	}
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&s.Gross, &s.Fees, &s.Net, &s.Entries); err != nil {
		return s, err
	}
	return s, nil
}
