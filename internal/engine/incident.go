package engine

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"talentos/internal/domain"
	"talentos/internal/repo"
)

var (
	incidentTypes = map[string]struct{}{
		"boundary_violation":  {},
		"client_misconduct":   {},
		"platform_dispute":    {},
		"internal_escalation": {},
	}
	incidentSeverities = map[string]struct{}{
		"low":      {},
		"medium":   {},
		"high":     {},
		"critical": {},
	}
	// Forward-only edges. open may skip straight to resolved.
	incidentTransitions = map[string]map[string]struct{}{
		"open":          {"investigating": {}, "resolved": {}},
		"investigating": {"resolved": {}},
		"resolved":      {"closed": {}},
		"closed":        {},
	}
)

func ensureIncidentTransition(kind, id, from, to string) error {
	if _, ok := incidentTransitions[to]; !ok {
		return invalid(kind, "status", "must be one of open, investigating, resolved, closed")
	}
	if _, ok := incidentTransitions[from][to]; !ok {
		return conflict(kind, id, "transition", "cannot move from "+from+" to "+to)
	}
	return nil
}

// IncidentCreateOptions are parameters for reporting an incident.
type IncidentCreateOptions struct {
	TalentID    string
	PersonaID   string
	Type        string
	Severity    string
	Description string
	ActorID     string
}

func (e Engine) CreateIncident(ctx context.Context, opts IncidentCreateOptions) (domain.Incident, error) {
	if _, ok := incidentTypes[opts.Type]; !ok {
		return domain.Incident{}, invalid("incident", "type", "must be one of boundary_violation, client_misconduct, platform_dispute, internal_escalation")
	}
	if _, ok := incidentSeverities[opts.Severity]; !ok {
		return domain.Incident{}, invalid("incident", "severity", "must be one of low, medium, high, critical")
	}
	if strings.TrimSpace(opts.Description) == "" {
		return domain.Incident{}, invalid("incident", "description", "required")
	}
	if opts.TalentID != "" {
		if _, err := e.Repo.GetTalent(ctx, opts.TalentID); err != nil {
			return domain.Incident{}, mapGetErr("talent", opts.TalentID, err)
		}
	}
	if opts.PersonaID != "" {
		if _, err := e.Repo.GetPersona(ctx, opts.PersonaID); err != nil {
			return domain.Incident{}, mapGetErr("persona", opts.PersonaID, err)
		}
	}
	now := e.nowRFC3339()
	in := domain.Incident{
		ID:          uuid.New().String(),
		Type:        opts.Type,
		Severity:    opts.Severity,
		Description: strings.TrimSpace(opts.Description),
		Status:      "open",
		ReportedBy:  opts.ActorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if opts.TalentID != "" {
		in.TalentID = strPtr(opts.TalentID)
	}
	if opts.PersonaID != "" {
		in.PersonaID = strPtr(opts.PersonaID)
	}
	if err := e.Repo.InsertIncident(ctx, in); err != nil {
		return domain.Incident{}, storage("incident", "create", err)
	}
	return in, e.appendAudit(ctx, "incident", in.ID, "created", opts.ActorID, in.Severity+" "+in.Type, nil)
}

func (e Engine) GetIncident(ctx context.Context, id string) (domain.Incident, error) {
	in, err := e.Repo.GetIncident(ctx, id)
	if err != nil {
		return domain.Incident{}, mapGetErr("incident", id, err)
	}
	return in, nil
}

func (e Engine) ListIncidents(ctx context.Context, f repo.IncidentFilters) ([]domain.Incident, error) {
	res, err := e.Repo.ListIncidents(ctx, f)
	if err != nil {
		return nil, storage("incident", "list", err)
	}
	return res, nil
}

// SetIncidentStatus applies a forward transition. Moving to resolved requires
// notes and goes through ResolveIncident.
func (e Engine) SetIncidentStatus(ctx context.Context, id, status, actorID string) (domain.Incident, error) {
	in, err := e.Repo.GetIncident(ctx, id)
	if err != nil {
		return domain.Incident{}, mapGetErr("incident", id, err)
	}
	if status == "resolved" {
		return domain.Incident{}, invalid("incident", "status", "resolving requires resolution notes; use resolve")
	}
	if err := ensureIncidentTransition("incident", id, in.Status, status); err != nil {
		return domain.Incident{}, err
	}
	rows, err := e.Repo.SetIncidentStatus(ctx, id, in.Status, status, nil, nil, e.nowRFC3339())
	if err != nil {
		return domain.Incident{}, storage("incident", "transition", err)
	}
	if rows == 0 {
		if _, err := e.Repo.GetIncident(ctx, id); err != nil {
			return domain.Incident{}, mapGetErr("incident", id, err)
		}
		return domain.Incident{}, conflict("incident", id, "transition", "status changed concurrently")
	}
	in, err = e.Repo.GetIncident(ctx, id)
	if err != nil {
		return domain.Incident{}, mapGetErr("incident", id, err)
	}
	return in, e.appendAudit(ctx, "incident", id, "status_"+status, actorID, "", nil)
}

// ResolveIncident moves an open or investigating incident to resolved with
// the mandatory notes.
func (e Engine) ResolveIncident(ctx context.Context, id, notes, actorID string) (domain.Incident, error) {
	if strings.TrimSpace(notes) == "" {
		return domain.Incident{}, invalid("incident", "resolution_notes", "required")
	}
	in, err := e.Repo.GetIncident(ctx, id)
	if err != nil {
		return domain.Incident{}, mapGetErr("incident", id, err)
	}
	if err := ensureIncidentTransition("incident", id, in.Status, "resolved"); err != nil {
		return domain.Incident{}, err
	}
	now := e.nowRFC3339()
	trimmed := strings.TrimSpace(notes)
	rows, err := e.Repo.SetIncidentStatus(ctx, id, in.Status, "resolved", &trimmed, &now, now)
	if err != nil {
		return domain.Incident{}, storage("incident", "resolve", err)
	}
	if rows == 0 {
		if _, err := e.Repo.GetIncident(ctx, id); err != nil {
			return domain.Incident{}, mapGetErr("incident", id, err)
		}
		return domain.Incident{}, conflict("incident", id, "resolve", "status changed concurrently")
	}
	in, err = e.Repo.GetIncident(ctx, id)
	if err != nil {
		return domain.Incident{}, mapGetErr("incident", id, err)
	}
	return in, e.appendAudit(ctx, "incident", id, "resolved", actorID, trimmed, nil)
}
