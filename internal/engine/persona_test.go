package engine_test

import (
	"errors"
	"testing"

	"talentos/internal/engine"
	"talentos/internal/repo"
)

func TestPersonaCreateProfileFields(t *testing.T) {
	env := newTestEnv(t)
	talent := env.createTalent(t)

	p, err := env.Engine.CreatePersona(env.Ctx, engine.PersonaCreateOptions{
		TalentID:         talent.ID,
		Name:             "Nova",
		BrandingTone:     "playful",
		NicheTags:        []string{"cosplay", "gaming"},
		AllowedPlatforms: []string{"fansly", "onlyfans"},
		ProhibitedActs:   []string{"collab"},
		PricingTier:      "budget",
		RiskRating:       10,
		ActorID:          "tester",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.PricingTier != "budget" || p.Status != "active" {
		t.Fatalf("tier=%q status=%q", p.PricingTier, p.Status)
	}

	got, err := env.Engine.GetPersona(env.Ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.BrandingTone != "playful" {
		t.Fatalf("branding_tone = %q", got.BrandingTone)
	}
	if len(got.NicheTags) != 2 || got.NicheTags[0] != "cosplay" {
		t.Fatalf("niche_tags = %v", got.NicheTags)
	}
	if len(got.AllowedPlatforms) != 2 || len(got.ProhibitedActs) != 1 {
		t.Fatalf("platforms = %v acts = %v", got.AllowedPlatforms, got.ProhibitedActs)
	}
}

func TestPersonaPricingTiers(t *testing.T) {
	env := newTestEnv(t)
	talent := env.createTalent(t)

	for _, tier := range []string{"budget", "standard", "premium", "exclusive"} {
		if _, err := env.Engine.CreatePersona(env.Ctx, engine.PersonaCreateOptions{
			TalentID:    talent.ID,
			Name:        "Nova " + tier,
			PricingTier: tier,
			ActorID:     "tester",
		}); err != nil {
			t.Fatalf("tier %s: %v", tier, err)
		}
	}

	_, err := env.Engine.CreatePersona(env.Ctx, engine.PersonaCreateOptions{
		TalentID:    talent.ID,
		Name:        "Nova",
		PricingTier: "vip",
		ActorID:     "tester",
	})
	var ve *engine.ValidationError
	if !errors.As(err, &ve) || ve.Field != "pricing_tier" {
		t.Fatalf("unknown tier: %v", err)
	}
}

func TestPersonaStatusUpdate(t *testing.T) {
	env := newTestEnv(t)
	talent := env.createTalent(t)
	persona := env.createPersona(t, talent.ID)

	inactive := "inactive"
	got, err := env.Engine.UpdatePersona(env.Ctx, persona.ID, engine.PersonaUpdateOptions{
		Status:  &inactive,
		ActorID: "tester",
	})
	if err != nil || got.Status != "inactive" {
		t.Fatalf("deactivate: %v %q", err, got.Status)
	}

	paused := "paused"
	_, err = env.Engine.UpdatePersona(env.Ctx, persona.ID, engine.PersonaUpdateOptions{
		Status:  &paused,
		ActorID: "tester",
	})
	var ve *engine.ValidationError
	if !errors.As(err, &ve) || ve.Field != "status" {
		t.Fatalf("unknown status: %v", err)
	}

	items, err := env.Engine.ListPersonas(env.Ctx, repo.PersonaFilters{TalentID: talent.ID, Status: "inactive"})
	if err != nil || len(items) != 1 {
		t.Fatalf("list inactive: %v %d", err, len(items))
	}
}

func TestPersonaUpdateProfileFields(t *testing.T) {
	env := newTestEnv(t)
	talent := env.createTalent(t)
	persona := env.createPersona(t, talent.ID)

	tone := "professional"
	got, err := env.Engine.UpdatePersona(env.Ctx, persona.ID, engine.PersonaUpdateOptions{
		BrandingTone:     &tone,
		NicheTags:        []string{"fitness"},
		AllowedPlatforms: []string{"instagram"},
		ActorID:          "tester",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.BrandingTone != "professional" || len(got.NicheTags) != 1 || got.NicheTags[0] != "fitness" {
		t.Fatalf("updated persona: %+v", got)
	}
	if len(got.AllowedPlatforms) != 1 || got.AllowedPlatforms[0] != "instagram" {
		t.Fatalf("platforms = %v", got.AllowedPlatforms)
	}
}
