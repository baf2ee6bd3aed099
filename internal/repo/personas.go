package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"talentos/internal/domain"
)

const personaColumns = `id,talent_id,name,branding_tone,niche_tags_json,allowed_platforms_json,prohibited_acts_json,handles_json,pricing_tier,status,risk_rating,created_at,updated_at`

func scanPersona(scan func(dest ...any) error) (domain.Persona, error) {
	var p domain.Persona
	var nicheTags, allowedPlatforms, prohibitedActs, handles sql.NullString
	err := scan(&p.ID, &p.TalentID, &p.Name, &p.BrandingTone, &nicheTags, &allowedPlatforms, &prohibitedActs, &handles, &p.PricingTier, &p.Status, &p.RiskRating, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, err
	}
	if err := unmarshalList(nicheTags, &p.NicheTags); err != nil {
		return p, err
	}
	if err := unmarshalList(allowedPlatforms, &p.AllowedPlatforms); err != nil {
		return p, err
	}
	if err := unmarshalList(prohibitedActs, &p.ProhibitedActs); err != nil {
		return p, err
	}
	if handles.Valid && handles.String != "" {
		if err := json.Unmarshal([]byte(handles.String), &p.Handles); err != nil {
			return p, err
		}
	}
	return p, nil
}

func unmarshalList(col sql.NullString, dest *[]string) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), dest)
}

func handlesJSON(h map[string]string) any {
	if len(h) == 0 {
		return nil
	}
	data, err := json.Marshal(h)
	if err != nil {
		return nil
	}
	return string(data)
}

func listJSON(items []string) any {
	if len(items) == 0 {
		return nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil
	}
	return string(data)
}

func (r Repo) InsertPersona(ctx context.Context, p domain.Persona) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO personas(`+personaColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.TalentID, p.Name, p.BrandingTone, listJSON(p.NicheTags), listJSON(p.AllowedPlatforms), listJSON(p.ProhibitedActs), handlesJSON(p.Handles), p.PricingTier, p.Status, p.RiskRating, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r Repo) GetPersona(ctx context.Context, id string) (domain.Persona, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+personaColumns+` FROM personas WHERE id=?`, id)
	return scanPersona(row.Scan)
}

type PersonaFilters struct {
	TalentID      string
	Status        string
	MinRiskRating int
	Limit         int
}

func (r Repo) ListPersonas(ctx context.Context, f PersonaFilters) ([]domain.Persona, error) {
	var clauses []string
	var args []any
	if f.TalentID != "" {
		clauses = append(clauses, "talent_id=?")
		args = append(args, f.TalentID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.MinRiskRating > 0 {
		clauses = append(clauses, "risk_rating>=?")
		args = append(args, f.MinRiskRating)
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	query := `SELECT ` + personaColumns + ` FROM personas ` + where + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Persona
	for rows.Next() {
		p, err := scanPersona(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r Repo) UpdatePersona(ctx context.Context, id string, fields map[string]any, updatedAt string) error {
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
	res, err := r.DB.ExecContext(ctx, `UPDATE personas SET `+strings.Join(set, ",")+` WHERE id=?`, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
