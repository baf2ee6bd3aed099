package repo

import (
	"context"
	"database/sql"

	"talentos/internal/domain"
)

func (r Repo) InsertOnboardingStepTx(ctx context.Context, tx *sql.Tx, s domain.OnboardingStep) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO onboarding_steps(talent_id,step_id,name,position,completed,completed_by,completed_at) VALUES (?,?,?,?,?,?,?)`,
		s.TalentID, s.StepID, s.Name, s.Position, boolToInt(s.Completed), nullablePtr(s.CompletedBy), nullablePtr(s.CompletedAt))
	return err
}

func (r Repo) ListOnboardingSteps(ctx context.Context, talentID string) ([]domain.OnboardingStep, error) {
	return listOnboardingSteps(ctx, r.DB.QueryContext, talentID)
}

func (r Repo) ListOnboardingStepsTx(ctx context.Context, tx *sql.Tx, talentID string) ([]domain.OnboardingStep, error) {
	return listOnboardingSteps(ctx, tx.QueryContext, talentID)
}

func listOnboardingSteps(ctx context.Context, query func(ctx context.Context, q string, args ...any) (*sql.Rows, error), talentID string) ([]domain.OnboardingStep, error) {
	rows, err := query(ctx, `SELECT talent_id,step_id,name,position,completed,completed_by,completed_at FROM onboarding_steps WHERE talent_id=? ORDER BY position ASC`, talentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.OnboardingStep
	for rows.Next() {
		var s domain.OnboardingStep
		var completed int
		var completedBy, completedAt sql.NullString
		if err := rows.Scan(&s.TalentID, &s.StepID, &s.Name, &s.Position, &completed, &completedBy, &completedAt); err != nil {
			return nil, err
		}
		s.Completed = completed != 0
		s.CompletedBy = ptrFrom(completedBy)
		s.CompletedAt = ptrFrom(completedAt)
		res = append(res, s)
	}
	return res, rows.Err()
}

func (r Repo) GetOnboardingStepTx(ctx context.Context, tx *sql.Tx, talentID, stepID string) (domain.OnboardingStep, error) {
	var s domain.OnboardingStep
	var completed int
	var completedBy, completedAt sql.NullString
	err := tx.QueryRowContext(ctx, `SELECT talent_id,step_id,name,position,completed,completed_by,completed_at FROM onboarding_steps WHERE talent_id=? AND step_id=?`, talentID, stepID).
		Scan(&s.TalentID, &s.StepID, &s.Name, &s.Position, &completed, &completedBy, &completedAt)
	if err == sql.ErrNoRows {
		return s, ErrNotFound
	}
	if err != nil {
		return s, err
	}
	s.Completed = completed != 0
	s.CompletedBy = ptrFrom(completedBy)
	s.CompletedAt = ptrFrom(completedAt)
	return s, nil
}

// CompleteOnboardingStepTx marks the step done only if it is still open.
// Returns the number of rows changed.
func (r Repo) CompleteOnboardingStepTx(ctx context.Context, tx *sql.Tx, talentID, stepID, completedBy, completedAt string) (int64, error) {
	res, err := tx.ExecContext(ctx, `UPDATE onboarding_steps SET completed=1, completed_by=?, completed_at=? WHERE talent_id=? AND step_id=? AND completed=0`,
		completedBy, completedAt, talentID, stepID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
