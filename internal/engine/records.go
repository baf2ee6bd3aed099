package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"talentos/internal/domain"
	"talentos/internal/repo"
)

var revenueTypes = map[string]struct{}{
	"subscription": {},
	"ppv":          {},
	"tips":         {},
	"custom":       {},
	"experience":   {},
}

// WellbeingCreateOptions are parameters for recording a check-in.
type WellbeingCreateOptions struct {
	TalentID string
	Mood     int
	Stress   int
	Note     string
	ActorID  string
}

func (e Engine) CreateWellbeingCheckin(ctx context.Context, opts WellbeingCreateOptions) (domain.WellbeingCheckin, error) {
	if opts.Mood < 1 || opts.Mood > 10 {
		return domain.WellbeingCheckin{}, invalid("wellbeing", "mood", "must be between 1 and 10")
	}
	if opts.Stress < 1 || opts.Stress > 10 {
		return domain.WellbeingCheckin{}, invalid("wellbeing", "stress", "must be between 1 and 10")
	}
	if _, err := e.Repo.GetTalent(ctx, opts.TalentID); err != nil {
		return domain.WellbeingCheckin{}, mapGetErr("talent", opts.TalentID, err)
	}
	w := domain.WellbeingCheckin{
		ID:        uuid.New().String(),
		TalentID:  opts.TalentID,
		Mood:      opts.Mood,
		Stress:    opts.Stress,
		Note:      strings.TrimSpace(opts.Note),
		CreatedBy: opts.ActorID,
		CreatedAt: e.nowRFC3339(),
	}
	if err := e.Repo.InsertWellbeingCheckin(ctx, w); err != nil {
		return domain.WellbeingCheckin{}, storage("wellbeing", "create", err)
	}
	return w, e.appendAudit(ctx, "talent", opts.TalentID, "wellbeing_checkin", opts.ActorID, fmt.Sprintf("mood %d stress %d", opts.Mood, opts.Stress), nil)
}

func (e Engine) ListWellbeingCheckins(ctx context.Context, talentID string, limit int) ([]domain.WellbeingCheckin, error) {
	if _, err := e.Repo.GetTalent(ctx, talentID); err != nil {
		return nil, mapGetErr("talent", talentID, err)
	}
	res, err := e.Repo.ListWellbeingCheckins(ctx, talentID, limit)
	if err != nil {
		return nil, storage("wellbeing", "list", err)
	}
	return res, nil
}

// RevenueCreateOptions are parameters for recording an earning line.
type RevenueCreateOptions struct {
	PersonaID   string
	Type        string
	GrossAmount float64
	PlatformFee float64
	OccurredAt  string
	ActorID     string
}

func (e Engine) CreateRevenueEntry(ctx context.Context, opts RevenueCreateOptions) (domain.RevenueEntry, error) {
	if _, ok := revenueTypes[opts.Type]; !ok {
		return domain.RevenueEntry{}, invalid("revenue", "type", "must be one of subscription, ppv, tips, custom, experience")
	}
	if opts.GrossAmount <= 0 {
		return domain.RevenueEntry{}, invalid("revenue", "gross_amount", "must be positive")
	}
	if opts.PlatformFee < 0 || opts.PlatformFee > opts.GrossAmount {
		return domain.RevenueEntry{}, invalid("revenue", "platform_fee", "must be between 0 and gross_amount")
	}
	occurred := e.nowRFC3339()
	if strings.TrimSpace(opts.OccurredAt) != "" {
		ts, err := time.Parse(time.RFC3339, opts.OccurredAt)
		if err != nil {
			return domain.RevenueEntry{}, invalid("revenue", "occurred_at", "must be RFC 3339")
		}
		occurred = ts.UTC().Format(time.RFC3339)
	}
	if _, err := e.Repo.GetPersona(ctx, opts.PersonaID); err != nil {
		return domain.RevenueEntry{}, mapGetErr("persona", opts.PersonaID, err)
	}
	entry := domain.RevenueEntry{
		ID:          uuid.New().String(),
		PersonaID:   opts.PersonaID,
		Type:        opts.Type,
		GrossAmount: opts.GrossAmount,
		PlatformFee: opts.PlatformFee,
		NetAmount:   opts.GrossAmount - opts.PlatformFee,
		OccurredAt:  occurred,
		CreatedBy:   opts.ActorID,
		CreatedAt:   e.nowRFC3339(),
	}
	if err := e.Repo.InsertRevenueEntry(ctx, entry); err != nil {
		return domain.RevenueEntry{}, storage("revenue", "create", err)
	}
	return entry, e.appendAudit(ctx, "persona", opts.PersonaID, "revenue_recorded", opts.ActorID, opts.Type, nil)
}

func (e Engine) ListRevenueEntries(ctx context.Context, f repo.RevenueFilters) ([]domain.RevenueEntry, error) {
	if f.Type != "" {
		if _, ok := revenueTypes[f.Type]; !ok {
			return nil, invalid("revenue", "type", "must be one of subscription, ppv, tips, custom, experience")
		}
	}
	res, err := e.Repo.ListRevenueEntries(ctx, f)
	if err != nil {
		return nil, storage("revenue", "list", err)
	}
	return res, nil
}

// RevenueMonthToDate summarizes entries from the start of the current month.
// personaID may be empty for the agency-wide view.
func (e Engine) RevenueMonthToDate(ctx context.Context, personaID string) (domain.RevenueSummary, error) {
	now := e.now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	s, err := e.Repo.SummarizeRevenue(ctx, personaID, from.Format(time.RFC3339), now.Add(time.Second).Format(time.RFC3339))
	if err != nil {
		return domain.RevenueSummary{}, storage("revenue", "summarize", err)
	}
	s.Period = from.Format("2006-01")
	return s, nil
}

// DashboardStats returns the headline counters.
func (e Engine) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	s, err := e.Repo.Stats(ctx)
	if err != nil {
		return domain.DashboardStats{}, storage("dashboard", "stats", err)
	}
	return s, nil
}

// DashboardAlerts surfaces open high-severity incidents, critical-risk
// personas, and overdue work.
func (e Engine) DashboardAlerts(ctx context.Context) ([]domain.Alert, error) {
	alerts := []domain.Alert{}

	incidents, err := e.Repo.OpenIncidentsBySeverity(ctx, []string{"high", "critical"})
	if err != nil {
		return nil, storage("dashboard", "alerts", err)
	}
	for _, in := range incidents {
		sev := "high"
		if in.Severity == "critical" {
			sev = "critical"
		}
		alerts = append(alerts, domain.Alert{
			Kind:       "incident_open",
			Severity:   sev,
			EntityKind: "incident",
			EntityID:   in.ID,
			Message:    fmt.Sprintf("%s %s incident is %s", in.Severity, in.Type, in.Status),
		})
	}

	personas, err := e.Repo.ListPersonas(ctx, repo.PersonaFilters{MinRiskRating: 80})
	if err != nil {
		return nil, storage("dashboard", "alerts", err)
	}
	for _, p := range personas {
		alerts = append(alerts, domain.Alert{
			Kind:       "persona_high_risk",
			Severity:   "critical",
			EntityKind: "persona",
			EntityID:   p.ID,
			Message:    fmt.Sprintf("persona %s has risk rating %d", p.Name, p.RiskRating),
		})
	}

	tasks, err := e.Repo.OverdueTasks(ctx, e.nowRFC3339())
	if err != nil {
		return nil, storage("dashboard", "alerts", err)
	}
	for _, t := range tasks {
		alerts = append(alerts, domain.Alert{
			Kind:       "task_overdue",
			Severity:   "high",
			EntityKind: "task",
			EntityID:   t.ID,
			Message:    fmt.Sprintf("task %q is past due", t.Title),
		})
	}
	return alerts, nil
}
