package engine

import (
	"context"
	"errors"
	"math"

	"talentos/internal/domain"
	"talentos/internal/repo"
)

func onboardingProgress(steps []domain.OnboardingStep) int {
	if len(steps) == 0 {
		return 0
	}
	done := 0
	for _, s := range steps {
		if s.Completed {
			done++
		}
	}
	return int(math.Round(100 * float64(done) / float64(len(steps))))
}

// Onboarding returns the checklist view for a talent.
func (e Engine) Onboarding(ctx context.Context, talentID string) (domain.OnboardingStatus, error) {
	t, err := e.Repo.GetTalent(ctx, talentID)
	if err != nil {
		return domain.OnboardingStatus{}, mapGetErr("talent", talentID, err)
	}
	steps, err := e.Repo.ListOnboardingSteps(ctx, talentID)
	if err != nil {
		return domain.OnboardingStatus{}, storage("onboarding", "list", err)
	}
	return domain.OnboardingStatus{
		TalentID:    talentID,
		Steps:       steps,
		ProgressPct: onboardingProgress(steps),
		Complete:    t.OnboardingComplete,
	}, nil
}

// CompleteOnboardingStep marks one step done. Completing a step twice is a
// conflict, not a no-op. When the checklist reaches 100% the talent's
// onboarding flag flips in the same transaction.
func (e Engine) CompleteOnboardingStep(ctx context.Context, talentID, stepID, actorID string) (domain.OnboardingStatus, error) {
	if _, err := e.Repo.GetTalent(ctx, talentID); err != nil {
		return domain.OnboardingStatus{}, mapGetErr("talent", talentID, err)
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.OnboardingStatus{}, storage("onboarding", "complete", err)
	}
	defer tx.Rollback()

	now := e.nowRFC3339()
	rows, err := e.Repo.CompleteOnboardingStepTx(ctx, tx, talentID, stepID, actorID, now)
	if err != nil {
		return domain.OnboardingStatus{}, storage("onboarding", "complete", err)
	}
	if rows == 0 {
		step, err := e.Repo.GetOnboardingStepTx(ctx, tx, talentID, stepID)
		if errors.Is(err, repo.ErrNotFound) {
			return domain.OnboardingStatus{}, notFound("onboarding_step", stepID)
		}
		if err != nil {
			return domain.OnboardingStatus{}, storage("onboarding", "complete", err)
		}
		if step.Completed {
			return domain.OnboardingStatus{}, conflict("onboarding_step", stepID, "complete", "step already completed")
		}
		return domain.OnboardingStatus{}, conflict("onboarding_step", stepID, "complete", "step changed concurrently")
	}

	steps, err := e.Repo.ListOnboardingStepsTx(ctx, tx, talentID)
	if err != nil {
		return domain.OnboardingStatus{}, storage("onboarding", "complete", err)
	}
	pct := onboardingProgress(steps)
	complete := pct == 100
	if complete {
		if err := e.Repo.SetOnboardingCompleteTx(ctx, tx, talentID, now); err != nil {
			return domain.OnboardingStatus{}, storage("onboarding", "complete", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.OnboardingStatus{}, storage("onboarding", "complete", err)
	}

	status := domain.OnboardingStatus{
		TalentID:    talentID,
		Steps:       steps,
		ProgressPct: pct,
		Complete:    complete,
	}
	return status, e.appendAudit(ctx, "talent", talentID, "onboarding_step_completed", actorID, stepID, nil)
}
