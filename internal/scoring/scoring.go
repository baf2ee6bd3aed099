package scoring

import "math"

// Risk tiers for persona risk ratings.
const (
	TierLow      = "low"
	TierMedium   = "medium"
	TierCritical = "critical"
)

const (
	mediumThreshold   = 50
	criticalThreshold = 80
)

// PersonaRiskTier buckets a 0..100 risk rating.
func PersonaRiskTier(rating int) string {
	switch {
	case rating >= criticalThreshold:
		return TierCritical
	case rating >= mediumThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

// Weights drive the readiness score. Any non-negative values with a positive
// sum are valid; the score normalizes by the sum.
type Weights struct {
	Onboarding   float64
	Verification float64
	Incidents    float64
}

// DefaultWeights matches the shipped policy file.
var DefaultWeights = Weights{Onboarding: 0.5, Verification: 0.3, Incidents: 0.2}

// ReadinessInput is the snapshot a readiness score is computed from.
type ReadinessInput struct {
	OnboardingPct      int
	VerificationStatus string
	// UnresolvedCriticalIncident is true when the talent has a critical
	// incident that is still open or under investigation.
	UnresolvedCriticalIncident bool
}

// TalentReadiness computes a 0..100 readiness score from the weighted
// components. Verification contributes fully when verified, half when
// pending, nothing when rejected. The incident component is all or nothing.
func TalentReadiness(w Weights, in ReadinessInput) int {
	sum := w.Onboarding + w.Verification + w.Incidents
	if sum <= 0 {
		return 0
	}
	onboarding := clampPct(in.OnboardingPct) / 100.0

	var verification float64
	switch in.VerificationStatus {
	case "verified":
		verification = 1.0
	case "pending":
		verification = 0.5
	}

	incidents := 1.0
	if in.UnresolvedCriticalIncident {
		incidents = 0.0
	}

	score := (w.Onboarding*onboarding + w.Verification*verification + w.Incidents*incidents) / sum
	return int(math.Round(score * 100))
}

func clampPct(v int) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return float64(v)
}
