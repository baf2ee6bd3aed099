package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"talentos/internal/domain"
)

const consentColumns = `id,persona_id,act_type,partner_ids_json,distribution_scope,revocation_rules,status,expiry_date,created_by,created_at,revoked_by,revoked_at`

func scanConsent(scan func(dest ...any) error) (domain.Consent, error) {
	var c domain.Consent
	var partners, expiry, revokedBy, revokedAt sql.NullString
	err := scan(&c.ID, &c.PersonaID, &c.ActType, &partners, &c.DistributionScope, &c.RevocationRules, &c.Status, &expiry, &c.CreatedBy, &c.CreatedAt, &revokedBy, &revokedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	if err != nil {
		return c, err
	}
	if partners.Valid && partners.String != "" {
		if err := json.Unmarshal([]byte(partners.String), &c.PartnerIDs); err != nil {
			return c, err
		}
	}
	c.ExpiryDate = ptrFrom(expiry)
	c.RevokedBy = ptrFrom(revokedBy)
	c.RevokedAt = ptrFrom(revokedAt)
	return c, nil
}

func partnerIDsJSON(ids []string) any {
	if len(ids) == 0 {
		return nil
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return nil
	}
	return string(data)
}

func (r Repo) InsertConsent(ctx context.Context, c domain.Consent) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO consents(`+consentColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		c.ID, c.PersonaID, c.ActType, partnerIDsJSON(c.PartnerIDs), c.DistributionScope, c.RevocationRules, c.Status, nullablePtr(c.ExpiryDate), c.CreatedBy, c.CreatedAt, nullablePtr(c.RevokedBy), nullablePtr(c.RevokedAt))
	return err
}

func (r Repo) GetConsent(ctx context.Context, id string) (domain.Consent, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+consentColumns+` FROM consents WHERE id=?`, id)
	return scanConsent(row.Scan)
}

type ConsentFilters struct {
	PersonaID string
	Status    string
	Limit     int
}

func (r Repo) ListConsents(ctx context.Context, f ConsentFilters) ([]domain.Consent, error) {
	var clauses []string
	var args []any
	if f.PersonaID != "" {
		clauses = append(clauses, "persona_id=?")
		args = append(args, f.PersonaID)
	}
	// Status filtering on the derived status happens in the engine; the
	// stored status may lag behind for expired records.
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + consentColumns + ` FROM consents ` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Consent
	for rows.Next() {
		c, err := scanConsent(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// RevokeConsent stamps revocation only when the record is still active.
// Returns the number of rows changed.
func (r Repo) RevokeConsent(ctx context.Context, id, revokedBy, revokedAt string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE consents SET status='revoked', revoked_by=?, revoked_at=? WHERE id=? AND status='active'`,
		revokedBy, revokedAt, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MarkConsentExpired persists a lazily derived expiry. Conditional on the
// stored status so it never overwrites a revocation.
func (r Repo) MarkConsentExpired(ctx context.Context, id string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE consents SET status='expired' WHERE id=? AND status='active'`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
