package engine

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"talentos/internal/domain"
	"talentos/internal/ids"
	"talentos/internal/repo"
	"talentos/internal/scoring"
)

var verificationStatuses = map[string]struct{}{
	"pending":  {},
	"verified": {},
	"rejected": {},
}

// TalentCreateOptions are parameters for registering a talent.
type TalentCreateOptions struct {
	LegalName string
	StageName string
	Email     string
	Phone     string
	Notes     string
	ActorID   string
}

// CreateTalent registers a talent and seeds its onboarding checklist in the
// same transaction.
func (e Engine) CreateTalent(ctx context.Context, opts TalentCreateOptions) (domain.Talent, error) {
	if strings.TrimSpace(opts.LegalName) == "" {
		return domain.Talent{}, invalid("talent", "legal_name", "required")
	}
	if strings.TrimSpace(opts.StageName) == "" {
		return domain.Talent{}, invalid("talent", "stage_name", "required")
	}
	now := e.nowRFC3339()
	t := domain.Talent{
		ID:                 uuid.New().String(),
		DisplayID:          ids.Display("TL"),
		LegalName:          strings.TrimSpace(opts.LegalName),
		StageName:          strings.TrimSpace(opts.StageName),
		Email:              strings.TrimSpace(opts.Email),
		Phone:              strings.TrimSpace(opts.Phone),
		VerificationStatus: "pending",
		CreatedBy:          opts.ActorID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if n := strings.TrimSpace(opts.Notes); n != "" {
		t.Notes = &n
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Talent{}, storage("talent", "create", err)
	}
	defer tx.Rollback()
	if err := e.Repo.InsertTalentTx(ctx, tx, t); err != nil {
		return domain.Talent{}, storage("talent", "create", err)
	}
	for i, step := range e.Config.Onboarding.Steps {
		s := domain.OnboardingStep{
			TalentID: t.ID,
			StepID:   step.ID,
			Name:     step.Name,
			Position: i + 1,
		}
		if err := e.Repo.InsertOnboardingStepTx(ctx, tx, s); err != nil {
			return domain.Talent{}, storage("talent", "create", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.Talent{}, storage("talent", "create", err)
	}
	return t, e.appendAudit(ctx, "talent", t.ID, "created", opts.ActorID, t.DisplayID, nil)
}

func (e Engine) GetTalent(ctx context.Context, id string) (domain.Talent, error) {
	t, err := e.Repo.GetTalent(ctx, id)
	if err != nil {
		return domain.Talent{}, mapGetErr("talent", id, err)
	}
	return t, nil
}

func (e Engine) ListTalents(ctx context.Context, f repo.TalentFilters) ([]domain.Talent, error) {
	res, err := e.Repo.ListTalents(ctx, f)
	if err != nil {
		return nil, storage("talent", "list", err)
	}
	return res, nil
}

// SetTalentVerification moves the verification status with a conditional
// write; a concurrent change surfaces as a conflict.
func (e Engine) SetTalentVerification(ctx context.Context, id, status, actorID string) (domain.Talent, error) {
	if _, ok := verificationStatuses[status]; !ok {
		return domain.Talent{}, invalid("talent", "verification_status", "must be one of pending, verified, rejected")
	}
	t, err := e.Repo.GetTalent(ctx, id)
	if err != nil {
		return domain.Talent{}, mapGetErr("talent", id, err)
	}
	if t.VerificationStatus == status {
		return t, nil
	}
	rows, err := e.Repo.SetTalentVerification(ctx, id, t.VerificationStatus, status, e.nowRFC3339())
	if err != nil {
		return domain.Talent{}, storage("talent", "verify", err)
	}
	if rows == 0 {
		if _, err := e.Repo.GetTalent(ctx, id); err != nil {
			return domain.Talent{}, mapGetErr("talent", id, err)
		}
		return domain.Talent{}, conflict("talent", id, "verify", "verification changed concurrently")
	}
	t, err = e.Repo.GetTalent(ctx, id)
	if err != nil {
		return domain.Talent{}, mapGetErr("talent", id, err)
	}
	return t, e.appendAudit(ctx, "talent", id, "verification_"+status, actorID, "", nil)
}

// TalentUpdateOptions carries optional field updates; nil means unchanged.
type TalentUpdateOptions struct {
	LegalName *string
	StageName *string
	Email     *string
	Phone     *string
	Notes     *string
	ActorID   string
}

func (e Engine) UpdateTalent(ctx context.Context, id string, opts TalentUpdateOptions) (domain.Talent, error) {
	fields := map[string]any{}
	if opts.LegalName != nil {
		if strings.TrimSpace(*opts.LegalName) == "" {
			return domain.Talent{}, invalid("talent", "legal_name", "must not be empty")
		}
		fields["legal_name"] = strings.TrimSpace(*opts.LegalName)
	}
	if opts.StageName != nil {
		if strings.TrimSpace(*opts.StageName) == "" {
			return domain.Talent{}, invalid("talent", "stage_name", "must not be empty")
		}
		fields["stage_name"] = strings.TrimSpace(*opts.StageName)
	}
	if opts.Email != nil {
		fields["email"] = strings.TrimSpace(*opts.Email)
	}
	if opts.Phone != nil {
		fields["phone"] = strings.TrimSpace(*opts.Phone)
	}
	if opts.Notes != nil {
		fields["notes"] = strings.TrimSpace(*opts.Notes)
	}
	if err := e.Repo.UpdateTalent(ctx, id, fields, e.nowRFC3339()); err != nil {
		return domain.Talent{}, mapGetErr("talent", id, err)
	}
	t, err := e.Repo.GetTalent(ctx, id)
	if err != nil {
		return domain.Talent{}, mapGetErr("talent", id, err)
	}
	return t, e.appendAudit(ctx, "talent", id, "updated", opts.ActorID, "", nil)
}

// DeleteTalent removes the talent and, via cascade, its personas, onboarding
// steps, wellbeing check-ins, and persona consents.
func (e Engine) DeleteTalent(ctx context.Context, id, actorID string) error {
	t, err := e.Repo.GetTalent(ctx, id)
	if err != nil {
		return mapGetErr("talent", id, err)
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return storage("talent", "delete", err)
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteTalentTx(ctx, tx, id); err != nil {
		return mapGetErr("talent", id, err)
	}
	if err := tx.Commit(); err != nil {
		return storage("talent", "delete", err)
	}
	return e.appendAudit(ctx, "talent", id, "deleted", actorID, t.DisplayID, nil)
}

// Readiness computes the derived operational readiness view for a talent.
func (e Engine) Readiness(ctx context.Context, talentID string) (domain.Readiness, error) {
	t, err := e.Repo.GetTalent(ctx, talentID)
	if err != nil {
		return domain.Readiness{}, mapGetErr("talent", talentID, err)
	}
	steps, err := e.Repo.ListOnboardingSteps(ctx, talentID)
	if err != nil {
		return domain.Readiness{}, storage("talent", "readiness", err)
	}
	critical, err := e.Repo.HasUnresolvedCriticalIncident(ctx, talentID)
	if err != nil {
		return domain.Readiness{}, storage("talent", "readiness", err)
	}
	pct := onboardingProgress(steps)
	w := scoring.Weights{
		Onboarding:   e.Config.Readiness.Weights.Onboarding,
		Verification: e.Config.Readiness.Weights.Verification,
		Incidents:    e.Config.Readiness.Weights.Incidents,
	}
	if w.Onboarding+w.Verification+w.Incidents <= 0 {
		w = scoring.DefaultWeights
	}
	score := scoring.TalentReadiness(w, scoring.ReadinessInput{
		OnboardingPct:              pct,
		VerificationStatus:         t.VerificationStatus,
		UnresolvedCriticalIncident: critical,
	})
	return domain.Readiness{
		TalentID:         talentID,
		Score:            score,
		OnboardingPct:    pct,
		Verification:     t.VerificationStatus,
		CriticalIncident: critical,
	}, nil
}
