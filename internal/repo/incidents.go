package repo

import (
	"context"
	"database/sql"
	"strings"

	"talentos/internal/domain"
)

const incidentColumns = `id,talent_id,persona_id,type,severity,description,status,resolution_notes,reported_by,created_at,updated_at,resolved_at`

func scanIncident(scan func(dest ...any) error) (domain.Incident, error) {
	var in domain.Incident
	var talentID, personaID, notes, resolvedAt sql.NullString
	err := scan(&in.ID, &talentID, &personaID, &in.Type, &in.Severity, &in.Description, &in.Status, &notes, &in.ReportedBy, &in.CreatedAt, &in.UpdatedAt, &resolvedAt)
	if err == sql.ErrNoRows {
		return in, ErrNotFound
	}
	if err != nil {
		return in, err
	}
	in.TalentID = ptrFrom(talentID)
	in.PersonaID = ptrFrom(personaID)
	in.ResolutionNotes = ptrFrom(notes)
	in.ResolvedAt = ptrFrom(resolvedAt)
	return in, nil
}

func (r Repo) InsertIncident(ctx context.Context, in domain.Incident) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO incidents(`+incidentColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		in.ID, nullablePtr(in.TalentID), nullablePtr(in.PersonaID), in.Type, in.Severity, in.Description, in.Status, nullablePtr(in.ResolutionNotes), in.ReportedBy, in.CreatedAt, in.UpdatedAt, nullablePtr(in.ResolvedAt))
	return err
}

func (r Repo) GetIncident(ctx context.Context, id string) (domain.Incident, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+incidentColumns+` FROM incidents WHERE id=?`, id)
	return scanIncident(row.Scan)
}

type IncidentFilters struct {
	TalentID        string
	PersonaID       string
	Status          string
	Severity        string
	Limit           int
	CursorCreatedAt string
	CursorID        string
}

func (r Repo) ListIncidents(ctx context.Context, f IncidentFilters) ([]domain.Incident, error) {
	var clauses []string
	var args []any
	if f.TalentID != "" {
		clauses = append(clauses, "talent_id=?")
		args = append(args, f.TalentID)
	}
	if f.PersonaID != "" {
		clauses = append(clauses, "persona_id=?")
		args = append(args, f.PersonaID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.Severity != "" {
		clauses = append(clauses, "severity=?")
		args = append(args, f.Severity)
	}
	if f.CursorCreatedAt != "" && f.CursorID != "" {
		clauses = append(clauses, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, f.CursorCreatedAt, f.CursorCreatedAt, f.CursorID)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + incidentColumns + ` FROM incidents ` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Incident
	for rows.Next() {
		in, err := scanIncident(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, in)
	}
	return res, rows.Err()
}

// SetIncidentStatus moves the incident only when the current status matches.
// Returns the number of rows changed.
func (r Repo) SetIncidentStatus(ctx context.Context, id, from, to string, notes *string, resolvedAt *string, updatedAt string) (int64, error) {
	var set []string
	var args []any
	set = append(set, "status=?", "updated_at=?")
	args = append(args, to, updatedAt)
	if notes != nil {
		set = append(set, "resolution_notes=?")
		args = append(args, *notes)
	}
	if resolvedAt != nil {
		set = append(set, "resolved_at=?")
		args = append(args, *resolvedAt)
	}
	args = append(args, id, from)
	res, err := r.DB.ExecContext(ctx, `UPDATE incidents SET `+strings.Join(set, ",")+` WHERE id=? AND status=?`, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// HasUnresolvedCriticalIncident reports whether a critical incident that is
// still open or under investigation is linked to the talent, either directly
// or through one of its personas.
func (r Repo) HasUnresolvedCriticalIncident(ctx context.Context, talentID string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM incidents
		WHERE severity='critical' AND status IN ('open','investigating')
		AND (talent_id=? OR persona_id IN (SELECT id FROM personas WHERE talent_id=?))`,
		talentID, talentID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// OpenIncidentsBySeverity returns open or investigating incidents at the
// given severities, newest first.
func (r Repo) OpenIncidentsBySeverity(ctx context.Context, severities []string) ([]domain.Incident, error) {
	if len(severities) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimRight(strings.Repeat("?,", len(severities)), ",")
	args := make([]any, 0, len(severities))
	for _, s := range severities {
		args = append(args, s)
	}
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE status IN ('open','investigating') AND severity IN (` + placeholders + `) ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Incident
	for rows.Next() {
		in, err := scanIncident(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, in)
	}
	return res, rows.Err()
}
