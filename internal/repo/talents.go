package repo

import (
	"context"
	"database/sql"
	"strings"

	"talentos/internal/domain"
)

const talentColumns = `id,display_id,legal_name,stage_name,email,phone,verification_status,onboarding_complete,notes,created_by,created_at,updated_at,
	(SELECT COUNT(*) FROM personas p WHERE p.talent_id=talents.id) AS persona_count`

func scanTalent(scan func(dest ...any) error) (domain.Talent, error) {
	var t domain.Talent
	var notes sql.NullString
	var complete int
	err := scan(&t.ID, &t.DisplayID, &t.LegalName, &t.StageName, &t.Email, &t.Phone, &t.VerificationStatus, &complete, &notes, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt, &t.PersonaCount)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	t.OnboardingComplete = complete != 0
	t.Notes = ptrFrom(notes)
	return t, nil
}

func (r Repo) InsertTalentTx(ctx context.Context, tx *sql.Tx, t domain.Talent) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO talents(id,display_id,legal_name,stage_name,email,phone,verification_status,onboarding_complete,notes,created_by,created_at,updated_at) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.DisplayID, t.LegalName, t.StageName, t.Email, t.Phone, t.VerificationStatus, boolToInt(t.OnboardingComplete), nullablePtr(t.Notes), t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	return err
}

func (r Repo) GetTalent(ctx context.Context, id string) (domain.Talent, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+talentColumns+` FROM talents WHERE id=?`, id)
	return scanTalent(row.Scan)
}

func (r Repo) GetTalentByDisplayID(ctx context.Context, displayID string) (domain.Talent, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+talentColumns+` FROM talents WHERE display_id=?`, displayID)
	return scanTalent(row.Scan)
}

type TalentFilters struct {
	VerificationStatus string
	OnboardingComplete *bool
	Search             string
	Limit              int
	CursorCreatedAt    string
	CursorID           string
}

func (r Repo) ListTalents(ctx context.Context, f TalentFilters) ([]domain.Talent, error) {
	var clauses []string
	var args []any
	if f.VerificationStatus != "" {
		clauses = append(clauses, "verification_status=?")
		args = append(args, f.VerificationStatus)
	}
	if f.OnboardingComplete != nil {
		clauses = append(clauses, "onboarding_complete=?")
		args = append(args, boolToInt(*f.OnboardingComplete))
	}
	if f.Search != "" {
		clauses = append(clauses, "(legal_name LIKE ? OR stage_name LIKE ? OR display_id LIKE ?)")
		like := "%" + f.Search + "%"
		args = append(args, like, like, like)
	}
	if f.CursorCreatedAt != "" && f.CursorID != "" {
		clauses = append(clauses, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, f.CursorCreatedAt, f.CursorCreatedAt, f.CursorID)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + talentColumns + ` FROM talents ` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Talent
	for rows.Next() {
		t, err := scanTalent(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// SetTalentVerification writes the new status only when the current status
// matches. Returns the number of rows changed.
func (r Repo) SetTalentVerification(ctx context.Context, id, from, to, updatedAt string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE talents SET verification_status=?, updated_at=? WHERE id=? AND verification_status=?`,
		to, updatedAt, id, from)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r Repo) SetOnboardingCompleteTx(ctx context.Context, tx *sql.Tx, id, updatedAt string) error {
	_, err := tx.ExecContext(ctx, `UPDATE talents SET onboarding_complete=1, updated_at=? WHERE id=?`, updatedAt, id)
	return err
}

func (r Repo) UpdateTalent(ctx context.Context, id string, fields map[string]any, updatedAt string) error {
	if len(fields) == 0 {
		return nil
	}
	var set []string
	var args []any
	for col, val := range fields {
		set = append(set, col+"=?")
		args = append(args, val)
	}
	set = append(set, "updated_at=?")
	args = append(args, updatedAt, id)
	res, err := r.DB.ExecContext(ctx, `UPDATE talents SET `+strings.Join(set, ",")+` WHERE id=?`, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTalentTx removes the talent; personas, onboarding steps, wellbeing
// check-ins, and dependent consents go with it via foreign key cascades.
func (r Repo) DeleteTalentTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM talents WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
