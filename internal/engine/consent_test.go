package engine_test

import (
	"errors"
	"testing"
	"time"

	"talentos/internal/domain"
	"talentos/internal/engine"
	"talentos/internal/repo"
)

func TestConsentCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	talent := env.createTalent(t)
	persona := env.createPersona(t, talent.ID)

	var ve *engine.ValidationError
	_, err := env.Engine.CreateConsent(env.Ctx, engine.ConsentCreateOptions{
		PersonaID:         persona.ID,
		DistributionScope: "platform_only",
		RevocationRules:   "on request",
		ActorID:           "tester",
	})
	if !errors.As(err, &ve) || ve.Field != "act_type" {
		t.Fatalf("missing act_type: %v", err)
	}

	_, err = env.Engine.CreateConsent(env.Ctx, engine.ConsentCreateOptions{
		PersonaID:         persona.ID,
		ActType:           "solo",
		DistributionScope: "platform_only",
		RevocationRules:   "   ",
		ActorID:           "tester",
	})
	if !errors.As(err, &ve) || ve.Field != "revocation_rules" {
		t.Fatalf("blank revocation rules: %v", err)
	}

	_, err = env.Engine.CreateConsent(env.Ctx, engine.ConsentCreateOptions{
		PersonaID:         persona.ID,
		ActType:           "solo",
		DistributionScope: "worldwide",
		RevocationRules:   "on request",
		ActorID:           "tester",
	})
	if !errors.As(err, &ve) || ve.Field != "distribution_scope" {
		t.Fatalf("unknown scope: %v", err)
	}

	_, err = env.Engine.CreateConsent(env.Ctx, engine.ConsentCreateOptions{
		PersonaID:         "missing",
		ActType:           "solo",
		DistributionScope: "platform_only",
		RevocationRules:   "on request",
		ActorID:           "tester",
	})
	var nf *engine.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("missing persona: %v", err)
	}
}

func TestConsentCreatedPastExpiry(t *testing.T) {
	env := newTestEnv(t)
	talent := env.createTalent(t)
	persona := env.createPersona(t, talent.ID)

	c, err := env.Engine.CreateConsent(env.Ctx, engine.ConsentCreateOptions{
		PersonaID:         persona.ID,
		ActType:           "solo",
		DistributionScope: "platform_only",
		RevocationRules:   "on request",
		ExpiryDate:        "2024-02-01T00:00:00Z", // before the pinned clock
		ActorID:           "tester",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// the record is born effectively expired
	got, err := env.Engine.GetConsent(env.Ctx, c.ID)
	if err != nil || got.Status != "expired" {
		t.Fatalf("effective status: %v %q", err, got.Status)
	}
	_, err = env.Engine.RevokeConsent(env.Ctx, c.ID, "manager")
	var ce *engine.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("revoke expired: %v", err)
	}
}

func TestConsentRevoke(t *testing.T) {
	env := newTestEnv(t)
	talent := env.createTalent(t)
	persona := env.createPersona(t, talent.ID)

	var flagged []domain.Consent
	env.Engine.OnConsentRevoked = func(c domain.Consent) { flagged = append(flagged, c) }

	c, err := env.Engine.CreateConsent(env.Ctx, engine.ConsentCreateOptions{
		PersonaID:         persona.ID,
		ActType:           "solo",
		DistributionScope: "platform_only",
		RevocationRules:   "on request",
		ActorID:           "tester",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := env.Engine.RevokeConsent(env.Ctx, c.ID, "manager")
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if got.Status != "revoked" || got.RevokedBy == nil || *got.RevokedBy != "manager" {
		t.Fatalf("revoked record: %+v", got)
	}
	if len(flagged) != 1 {
		t.Fatalf("revocation hook fired %d times", len(flagged))
	}

	_, err = env.Engine.RevokeConsent(env.Ctx, c.ID, "manager")
	var ce *engine.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("second revoke: %v", err)
	}

	entries, err := env.Engine.Trail.ForEntity(env.Ctx, "consent", c.ID, 10)
	if err != nil {
		t.Fatalf("trail: %v", err)
	}
	var actions []string
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	want := []string{"created", "revoked", "content_review_flagged"}
	if len(actions) != len(want) {
		t.Fatalf("actions = %v", actions)
	}
	for i := range want {
		if actions[i] != want[i] {
			t.Fatalf("actions = %v, want %v", actions, want)
		}
	}
}

func TestConsentExpiry(t *testing.T) {
	env := newTestEnv(t)
	talent := env.createTalent(t)
	persona := env.createPersona(t, talent.ID)

	c, err := env.Engine.CreateConsent(env.Ctx, engine.ConsentCreateOptions{
		PersonaID:         persona.ID,
		ActType:           "collab",
		DistributionScope: "unrestricted",
		RevocationRules:   "on request",
		ExpiryDate:        "2024-03-02T00:00:00Z",
		ActorID:           "tester",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// still active at the pinned clock
	got, err := env.Engine.GetConsent(env.Ctx, c.ID)
	if err != nil || got.Status != "active" {
		t.Fatalf("before expiry: %v %q", err, got.Status)
	}

	env.Engine.Now = func() time.Time { return time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC) }

	got, err = env.Engine.GetConsent(env.Ctx, c.ID)
	if err != nil || got.Status != "expired" {
		t.Fatalf("after expiry: %v %q", err, got.Status)
	}

	// reads never write; the stored row still says active
	stored, err := env.Engine.Repo.GetConsent(env.Ctx, c.ID)
	if err != nil || stored.Status != "active" {
		t.Fatalf("stored status: %v %q", err, stored.Status)
	}

	// revoking an expired consent conflicts and persists the expiry
	_, err = env.Engine.RevokeConsent(env.Ctx, c.ID, "manager")
	var ce *engine.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("revoke expired: %v", err)
	}
	stored, err = env.Engine.Repo.GetConsent(env.Ctx, c.ID)
	if err != nil || stored.Status != "expired" {
		t.Fatalf("persisted status: %v %q", err, stored.Status)
	}
}

func TestConsentListFiltersDerivedStatus(t *testing.T) {
	env := newTestEnv(t)
	talent := env.createTalent(t)
	persona := env.createPersona(t, talent.ID)

	mk := func(actType, expiry string) domain.Consent {
		t.Helper()
		c, err := env.Engine.CreateConsent(env.Ctx, engine.ConsentCreateOptions{
			PersonaID:         persona.ID,
			ActType:           actType,
			DistributionScope: "platform_only",
			RevocationRules:   "on request",
			ExpiryDate:        expiry,
			ActorID:           "tester",
		})
		if err != nil {
			t.Fatalf("create %s: %v", actType, err)
		}
		return c
	}
	mk("solo", "")
	mk("collab", "2024-03-02T00:00:00Z")

	env.Engine.Now = func() time.Time { return time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC) }

	active, err := env.Engine.ListConsents(env.Ctx, repo.ConsentFilters{PersonaID: persona.ID, Status: "active"})
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	expired, err := env.Engine.ListConsents(env.Ctx, repo.ConsentFilters{PersonaID: persona.ID, Status: "expired"})
	if err != nil {
		t.Fatalf("list expired: %v", err)
	}
	if len(active) != 1 || active[0].ActType != "solo" {
		t.Fatalf("active = %+v", active)
	}
	if len(expired) != 1 || expired[0].ActType != "collab" {
		t.Fatalf("expired = %+v", expired)
	}
}
