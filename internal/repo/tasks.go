package repo

import (
	"context"
	"database/sql"
	"strings"

	"talentos/internal/domain"
)

const taskColumns = `id,title,type,priority,status,assignee_id,talent_id,due_date,description,created_by,created_at,updated_at,completed_at`

func scanTask(scan func(dest ...any) error) (domain.Task, error) {
	var t domain.Task
	var assignee, talentID, dueDate, completedAt sql.NullString
	err := scan(&t.ID, &t.Title, &t.Type, &t.Priority, &t.Status, &assignee, &talentID, &dueDate, &t.Description, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt, &completedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	t.AssigneeID = ptrFrom(assignee)
	t.TalentID = ptrFrom(talentID)
	t.DueDate = ptrFrom(dueDate)
	t.CompletedAt = ptrFrom(completedAt)
	return t, nil
}

func (r Repo) InsertTask(ctx context.Context, t domain.Task) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO tasks(`+taskColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.Title, t.Type, t.Priority, t.Status, nullablePtr(t.AssigneeID), nullablePtr(t.TalentID), nullablePtr(t.DueDate), t.Description, t.CreatedBy, t.CreatedAt, t.UpdatedAt, nullablePtr(t.CompletedAt))
	return err
}

func (r Repo) GetTask(ctx context.Context, id string) (domain.Task, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id)
	return scanTask(row.Scan)
}

type TaskFilters struct {
	Status          string
	Type            string
	Priority        string
	AssigneeID      string
	TalentID        string
	Limit           int
	CursorCreatedAt string
	CursorID        string
}

func (r Repo) ListTasks(ctx context.Context, f TaskFilters) ([]domain.Task, error) {
	var clauses []string
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.Type != "" {
		clauses = append(clauses, "type=?")
		args = append(args, f.Type)
	}
	if f.Priority != "" {
		clauses = append(clauses, "priority=?")
		args = append(args, f.Priority)
	}
	if f.AssigneeID != "" {
		clauses = append(clauses, "assignee_id=?")
		args = append(args, f.AssigneeID)
	}
	if f.TalentID != "" {
		clauses = append(clauses, "talent_id=?")
		args = append(args, f.TalentID)
	}
	if f.CursorCreatedAt != "" && f.CursorID != "" {
		clauses = append(clauses, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, f.CursorCreatedAt, f.CursorCreatedAt, f.CursorID)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + taskColumns + ` FROM tasks ` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

// SetTaskStatus moves the task only when the current status matches.
// Returns the number of rows changed.
func (r Repo) SetTaskStatus(ctx context.Context, id, from, to string, completedAt *string, updatedAt string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE tasks SET status=?, completed_at=?, updated_at=? WHERE id=? AND status=?`,
		to, nullablePtr(completedAt), updatedAt, id, from)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r Repo) UpdateTask(ctx context.Context, id string, fields map[string]any, updatedAt string) error {
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
	res, err := r.DB.ExecContext(ctx, `UPDATE tasks SET `+strings.Join(set, ",")+` WHERE id=?`, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) CountTasksByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// OverdueTasks returns pending or in-progress tasks whose due date has passed.
func (r Repo) OverdueTasks(ctx context.Context, now string) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE status IN ('pending','in_progress') AND due_date IS NOT NULL AND due_date < ? ORDER BY due_date ASC`
	rows, err := r.DB.QueryContext(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}
