package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"talentos/internal/config"
	"talentos/internal/db"
	"talentos/internal/domain"
	"talentos/internal/engine"
	"talentos/internal/migrate"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

var testClock = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn, config.Default())
	eng.Now = func() time.Time { return testClock }
	return testEnv{Engine: eng, Ctx: context.Background()}
}

func (env testEnv) createTalent(t *testing.T) domain.Talent {
	t.Helper()
	talent, err := env.Engine.CreateTalent(env.Ctx, engine.TalentCreateOptions{
		LegalName: "Jane Doe",
		StageName: "Starlight",
		ActorID:   "tester",
	})
	if err != nil {
		t.Fatalf("create talent: %v", err)
	}
	return talent
}

func (env testEnv) createPersona(t *testing.T, talentID string) domain.Persona {
	t.Helper()
	p, err := env.Engine.CreatePersona(env.Ctx, engine.PersonaCreateOptions{
		TalentID: talentID,
		Name:     "Nova",
		ActorID:  "tester",
	})
	if err != nil {
		t.Fatalf("create persona: %v", err)
	}
	return p
}

func TestCreateTalentSeedsOnboarding(t *testing.T) {
	env := newTestEnv(t)
	talent := env.createTalent(t)
	if talent.DisplayID == "" || talent.DisplayID[:3] != "TL-" {
		t.Fatalf("display id %q", talent.DisplayID)
	}
	if talent.VerificationStatus != "pending" {
		t.Fatalf("verification = %q, want pending", talent.VerificationStatus)
	}
	st, err := env.Engine.Onboarding(env.Ctx, talent.ID)
	if err != nil {
		t.Fatalf("onboarding: %v", err)
	}
	if len(st.Steps) != len(config.Default().Onboarding.Steps) {
		t.Fatalf("got %d steps", len(st.Steps))
	}
	if st.ProgressPct != 0 || st.Complete {
		t.Fatalf("fresh checklist: pct=%d complete=%v", st.ProgressPct, st.Complete)
	}
}

func TestCreateTalentValidation(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.CreateTalent(env.Ctx, engine.TalentCreateOptions{StageName: "X", ActorID: "tester"})
	var ve *engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if ve.Field != "legal_name" {
		t.Fatalf("field = %q", ve.Field)
	}
}

func TestSetTalentVerification(t *testing.T) {
	env := newTestEnv(t)
	talent := env.createTalent(t)
	got, err := env.Engine.SetTalentVerification(env.Ctx, talent.ID, "verified", "tester")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.VerificationStatus != "verified" {
		t.Fatalf("status = %q", got.VerificationStatus)
	}
	// same status again is a no-op
	if _, err := env.Engine.SetTalentVerification(env.Ctx, talent.ID, "verified", "tester"); err != nil {
		t.Fatalf("repeat verify: %v", err)
	}
	_, err = env.Engine.SetTalentVerification(env.Ctx, talent.ID, "bogus", "tester")
	var ve *engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want ValidationError for bad status, got %v", err)
	}
	_, err = env.Engine.SetTalentVerification(env.Ctx, "missing", "verified", "tester")
	var nf *engine.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
}

func TestDeleteTalentCascades(t *testing.T) {
	env := newTestEnv(t)
	talent := env.createTalent(t)
	persona := env.createPersona(t, talent.ID)
	if err := env.Engine.DeleteTalent(env.Ctx, talent.ID, "tester"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.Engine.GetTalent(env.Ctx, talent.ID); err == nil {
		t.Fatal("talent still readable after delete")
	}
	if _, err := env.Engine.GetPersona(env.Ctx, persona.ID); err == nil {
		t.Fatal("persona survived cascade")
	}
}

func TestReadinessScore(t *testing.T) {
	env := newTestEnv(t)
	talent := env.createTalent(t)

	r, err := env.Engine.Readiness(env.Ctx, talent.ID)
	if err != nil {
		t.Fatalf("readiness: %v", err)
	}
	// pending verification contributes half its weight, nothing else
	if r.Score != 35 {
		t.Fatalf("fresh score = %d, want 35", r.Score)
	}

	if _, err := env.Engine.SetTalentVerification(env.Ctx, talent.ID, "verified", "tester"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	for _, step := range config.Default().Onboarding.Steps {
		if _, err := env.Engine.CompleteOnboardingStep(env.Ctx, talent.ID, step.ID, "tester"); err != nil {
			t.Fatalf("complete %s: %v", step.ID, err)
		}
	}
	r, err = env.Engine.Readiness(env.Ctx, talent.ID)
	if err != nil {
		t.Fatalf("readiness: %v", err)
	}
	if r.Score != 100 {
		t.Fatalf("full score = %d, want 100", r.Score)
	}
	if r.CriticalIncident {
		t.Fatalf("critical incident flag set unexpectedly")
	}

	// an unresolved critical incident zeroes the incident component
	if _, err := env.Engine.CreateIncident(env.Ctx, engine.IncidentCreateOptions{
		TalentID:    talent.ID,
		Type:        "boundary_violation",
		Severity:    "critical",
		Description: "line crossed",
		ActorID:     "tester",
	}); err != nil {
		t.Fatalf("incident: %v", err)
	}
	r, err = env.Engine.Readiness(env.Ctx, talent.ID)
	if err != nil {
		t.Fatalf("readiness: %v", err)
	}
	if r.Score != 80 || !r.CriticalIncident {
		t.Fatalf("score = %d critical = %v, want 80 true", r.Score, r.CriticalIncident)
	}
}

func TestReadinessCountsPersonaLinkedIncidents(t *testing.T) {
	env := newTestEnv(t)
	talent := env.createTalent(t)
	persona := env.createPersona(t, talent.ID)

	// incident linked only through the persona, not the talent directly
	if _, err := env.Engine.CreateIncident(env.Ctx, engine.IncidentCreateOptions{
		PersonaID:   persona.ID,
		Type:        "client_misconduct",
		Severity:    "critical",
		Description: "platform report against persona",
		ActorID:     "tester",
	}); err != nil {
		t.Fatalf("incident: %v", err)
	}
	r, err := env.Engine.Readiness(env.Ctx, talent.ID)
	if err != nil {
		t.Fatalf("readiness: %v", err)
	}
	// 0% onboarding, pending verification at half weight, incident component zeroed
	if !r.CriticalIncident || r.Score != 15 {
		t.Fatalf("score = %d critical = %v, want 15 true", r.Score, r.CriticalIncident)
	}
}

func TestAuditTrailRecordsLifecycle(t *testing.T) {
	env := newTestEnv(t)
	talent := env.createTalent(t)
	if _, err := env.Engine.SetTalentVerification(env.Ctx, talent.ID, "verified", "ops"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	entries, err := env.Engine.Trail.ForEntity(env.Ctx, "talent", talent.ID, 10)
	if err != nil {
		t.Fatalf("trail: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Action != "created" || entries[1].Action != "verification_verified" {
		t.Fatalf("actions = %q, %q", entries[0].Action, entries[1].Action)
	}
	if entries[0].Seq >= entries[1].Seq {
		t.Fatalf("seq not increasing: %d then %d", entries[0].Seq, entries[1].Seq)
	}
	if entries[1].ActorID != "ops" {
		t.Fatalf("actor = %q", entries[1].ActorID)
	}
}
