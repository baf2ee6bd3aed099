package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"talentos/internal/domain"
	"talentos/internal/ids"
)

// Trail appends to and reads the audit log. Entries are immutable; there is
// deliberately no update or delete path.
type Trail struct {
	DB  *sql.DB
	Now func() time.Time
}

func New(db *sql.DB, now func() time.Time) Trail {
	if now == nil {
		now = time.Now
	}
	return Trail{DB: db, Now: now}
}

// Append writes one entry. It runs outside the caller's transaction: record
// writes must not be rolled back when the trail is unavailable.
func (t Trail) Append(ctx context.Context, entityKind, entityID, action, actorID, note string, payload any) error {
	var payloadJSON string
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("audit payload: %w", err)
		}
		payloadJSON = string(data)
	}
	ts := t.Now().UTC().Format(time.RFC3339)
	_, err := t.DB.ExecContext(ctx, `INSERT INTO audit_entries(ref,ts,entity_kind,entity_id,action,actor_id,note,payload) VALUES (?,?,?,?,?,?,?,?)`,
		ids.New(), ts, entityKind, entityID, action, actorID, note, payloadJSON)
	if err != nil {
		return fmt.Errorf("audit append: %w", err)
	}
	return nil
}

const entryColumns = `seq,ref,ts,entity_kind,entity_id,action,actor_id,note,payload`

// ForEntity returns the trail for one entity in creation order.
func (t Trail) ForEntity(ctx context.Context, entityKind, entityID string, limit int) ([]domain.AuditEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM audit_entries WHERE entity_kind=? AND entity_id=? ORDER BY seq ASC`
	args := []any{entityKind, entityID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return t.query(ctx, query, args...)
}

type Filters struct {
	EntityKind string
	ActorID    string
	Action     string
	AfterSeq   int64
	Limit      int
}

// Recent returns the newest entries first, optionally filtered.
func (t Trail) Recent(ctx context.Context, f Filters) ([]domain.AuditEntry, error) {
	var clauses []string
	var args []any
	if f.EntityKind != "" {
		clauses = append(clauses, "entity_kind=?")
		args = append(args, f.EntityKind)
	}
	if f.ActorID != "" {
		clauses = append(clauses, "actor_id=?")
		args = append(args, f.ActorID)
	}
	if f.Action != "" {
		clauses = append(clauses, "action=?")
		args = append(args, f.Action)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + entryColumns + ` FROM audit_entries ` + where + ` ORDER BY seq DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	return t.query(ctx, query, args...)
}

// After returns entries with seq greater than the cursor in ascending order.
func (t Trail) After(ctx context.Context, seq int64, limit int) ([]domain.AuditEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM audit_entries WHERE seq > ? ORDER BY seq ASC`
	args := []any{seq}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return t.query(ctx, query, args...)
}

// LatestSeq returns the highest assigned sequence number, 0 when empty.
func (t Trail) LatestSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := t.DB.QueryRowContext(ctx, `SELECT MAX(seq) FROM audit_entries`).Scan(&seq); err != nil {
		return 0, err
	}
	return seq.Int64, nil
}

func (t Trail) query(ctx context.Context, query string, args ...any) ([]domain.AuditEntry, error) {
	rows, err := t.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(&e.Seq, &e.Ref, &e.TS, &e.EntityKind, &e.EntityID, &e.Action, &e.ActorID, &e.Note, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}
