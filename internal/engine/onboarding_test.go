package engine_test

import (
	"errors"
	"testing"

	"talentos/internal/config"
	"talentos/internal/engine"
)

func TestOnboardingProgression(t *testing.T) {
	env := newTestEnv(t)
	talent := env.createTalent(t)
	steps := config.Default().Onboarding.Steps

	st, err := env.Engine.CompleteOnboardingStep(env.Ctx, talent.ID, steps[0].ID, "tester")
	if err != nil {
		t.Fatalf("complete first: %v", err)
	}
	if st.ProgressPct != 20 || st.Complete {
		t.Fatalf("after one of five: pct=%d complete=%v", st.ProgressPct, st.Complete)
	}

	for _, step := range steps[1:] {
		st, err = env.Engine.CompleteOnboardingStep(env.Ctx, talent.ID, step.ID, "tester")
		if err != nil {
			t.Fatalf("complete %s: %v", step.ID, err)
		}
	}
	if st.ProgressPct != 100 || !st.Complete {
		t.Fatalf("after all: pct=%d complete=%v", st.ProgressPct, st.Complete)
	}

	got, err := env.Engine.GetTalent(env.Ctx, talent.ID)
	if err != nil || !got.OnboardingComplete {
		t.Fatalf("talent flag: %v %v", err, got.OnboardingComplete)
	}
}

func TestOnboardingCompleteStepTwice(t *testing.T) {
	env := newTestEnv(t)
	talent := env.createTalent(t)
	stepID := config.Default().Onboarding.Steps[0].ID

	if _, err := env.Engine.CompleteOnboardingStep(env.Ctx, talent.ID, stepID, "tester"); err != nil {
		t.Fatalf("first: %v", err)
	}
	_, err := env.Engine.CompleteOnboardingStep(env.Ctx, talent.ID, stepID, "tester")
	var ce *engine.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("second: %v", err)
	}
}

func TestOnboardingUnknownStep(t *testing.T) {
	env := newTestEnv(t)
	talent := env.createTalent(t)
	_, err := env.Engine.CompleteOnboardingStep(env.Ctx, talent.ID, "no_such_step", "tester")
	var nf *engine.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("unknown step: %v", err)
	}
	_, err = env.Engine.CompleteOnboardingStep(env.Ctx, "missing", "identity_verification", "tester")
	if !errors.As(err, &nf) {
		t.Fatalf("unknown talent: %v", err)
	}
}

func TestOnboardingStepAudited(t *testing.T) {
	env := newTestEnv(t)
	talent := env.createTalent(t)
	stepID := config.Default().Onboarding.Steps[0].ID
	if _, err := env.Engine.CompleteOnboardingStep(env.Ctx, talent.ID, stepID, "coach"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	entries, err := env.Engine.Trail.ForEntity(env.Ctx, "talent", talent.ID, 10)
	if err != nil {
		t.Fatalf("trail: %v", err)
	}
	found := false
	for _, entry := range entries {
		if entry.Action == "onboarding_step_completed" && entry.Note == stepID && entry.ActorID == "coach" {
			found = true
		}
	}
	if !found {
		t.Fatalf("no step entry in %+v", entries)
	}
}
