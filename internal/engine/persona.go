package engine

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"talentos/internal/domain"
	"talentos/internal/repo"
	"talentos/internal/scoring"
)

var (
	pricingTiers = map[string]struct{}{
		"budget":    {},
		"standard":  {},
		"premium":   {},
		"exclusive": {},
	}
	personaStatuses = map[string]struct{}{
		"active":   {},
		"inactive": {},
	}
)

// PersonaCreateOptions are parameters for creating a persona.
type PersonaCreateOptions struct {
	TalentID         string
	Name             string
	BrandingTone     string
	NicheTags        []string
	AllowedPlatforms []string
	ProhibitedActs   []string
	Handles          map[string]string
	PricingTier      string
	RiskRating       int
	ActorID          string
}

func (e Engine) CreatePersona(ctx context.Context, opts PersonaCreateOptions) (domain.Persona, error) {
	if strings.TrimSpace(opts.Name) == "" {
		return domain.Persona{}, invalid("persona", "name", "required")
	}
	tier := opts.PricingTier
	if tier == "" {
		tier = "standard"
	}
	if _, ok := pricingTiers[tier]; !ok {
		return domain.Persona{}, invalid("persona", "pricing_tier", "must be one of budget, standard, premium, exclusive")
	}
	if opts.RiskRating < 0 || opts.RiskRating > 100 {
		return domain.Persona{}, invalid("persona", "risk_rating", "must be between 0 and 100")
	}
	if _, err := e.Repo.GetTalent(ctx, opts.TalentID); err != nil {
		return domain.Persona{}, mapGetErr("talent", opts.TalentID, err)
	}
	now := e.nowRFC3339()
	p := domain.Persona{
		ID:               uuid.New().String(),
		TalentID:         opts.TalentID,
		Name:             strings.TrimSpace(opts.Name),
		BrandingTone:     strings.TrimSpace(opts.BrandingTone),
		NicheTags:        opts.NicheTags,
		AllowedPlatforms: opts.AllowedPlatforms,
		ProhibitedActs:   opts.ProhibitedActs,
		Handles:          opts.Handles,
		PricingTier:      tier,
		Status:           "active",
		RiskRating:       opts.RiskRating,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := e.Repo.InsertPersona(ctx, p); err != nil {
		return domain.Persona{}, storage("persona", "create", err)
	}
	return p, e.appendAudit(ctx, "persona", p.ID, "created", opts.ActorID, p.Name, nil)
}

func (e Engine) GetPersona(ctx context.Context, id string) (domain.Persona, error) {
	p, err := e.Repo.GetPersona(ctx, id)
	if err != nil {
		return domain.Persona{}, mapGetErr("persona", id, err)
	}
	return p, nil
}

func (e Engine) ListPersonas(ctx context.Context, f repo.PersonaFilters) ([]domain.Persona, error) {
	if f.Status != "" {
		if _, ok := personaStatuses[f.Status]; !ok {
			return nil, invalid("persona", "status", "must be one of active, inactive")
		}
	}
	res, err := e.Repo.ListPersonas(ctx, f)
	if err != nil {
		return nil, storage("persona", "list", err)
	}
	return res, nil
}

// PersonaUpdateOptions carries optional field updates; nil means unchanged.
type PersonaUpdateOptions struct {
	Name             *string
	BrandingTone     *string
	NicheTags        []string
	AllowedPlatforms []string
	ProhibitedActs   []string
	Handles          map[string]string
	PricingTier      *string
	Status           *string
	RiskRating       *int
	ActorID          string
}

func (e Engine) UpdatePersona(ctx context.Context, id string, opts PersonaUpdateOptions) (domain.Persona, error) {
	fields := map[string]any{}
	if opts.Name != nil {
		if strings.TrimSpace(*opts.Name) == "" {
			return domain.Persona{}, invalid("persona", "name", "must not be empty")
		}
		fields["name"] = strings.TrimSpace(*opts.Name)
	}
	if opts.BrandingTone != nil {
		fields["branding_tone"] = strings.TrimSpace(*opts.BrandingTone)
	}
	if opts.NicheTags != nil {
		fields["niche_tags_json"] = stringListValue(opts.NicheTags)
	}
	if opts.AllowedPlatforms != nil {
		fields["allowed_platforms_json"] = stringListValue(opts.AllowedPlatforms)
	}
	if opts.ProhibitedActs != nil {
		fields["prohibited_acts_json"] = stringListValue(opts.ProhibitedActs)
	}
	if opts.Handles != nil {
		fields["handles_json"] = handlesValue(opts.Handles)
	}
	if opts.PricingTier != nil {
		if _, ok := pricingTiers[*opts.PricingTier]; !ok {
			return domain.Persona{}, invalid("persona", "pricing_tier", "must be one of budget, standard, premium, exclusive")
		}
		fields["pricing_tier"] = *opts.PricingTier
	}
	if opts.Status != nil {
		if _, ok := personaStatuses[*opts.Status]; !ok {
			return domain.Persona{}, invalid("persona", "status", "must be one of active, inactive")
		}
		fields["status"] = *opts.Status
	}
	if opts.RiskRating != nil {
		if *opts.RiskRating < 0 || *opts.RiskRating > 100 {
			return domain.Persona{}, invalid("persona", "risk_rating", "must be between 0 and 100")
		}
		fields["risk_rating"] = *opts.RiskRating
	}
	if err := e.Repo.UpdatePersona(ctx, id, fields, e.nowRFC3339()); err != nil {
		return domain.Persona{}, mapGetErr("persona", id, err)
	}
	p, err := e.Repo.GetPersona(ctx, id)
	if err != nil {
		return domain.Persona{}, mapGetErr("persona", id, err)
	}
	return p, e.appendAudit(ctx, "persona", id, "updated", opts.ActorID, "", nil)
}

func handlesValue(h map[string]string) any {
	if len(h) == 0 {
		return nil
	}
	data, err := json.Marshal(h)
	if err != nil {
		return nil
	}
	return string(data)
}

func stringListValue(items []string) any {
	if len(items) == 0 {
		return nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil
	}
	return string(data)
}

// PersonaRiskTier buckets a persona's rating using the scoring thresholds.
func PersonaRiskTier(p domain.Persona) string {
	return scoring.PersonaRiskTier(p.RiskRating)
}
