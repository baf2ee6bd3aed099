package scoring

import "testing"

func TestPersonaRiskTier(t *testing.T) {
	cases := []struct {
		rating int
		want   string
	}{
		{0, TierLow},
		{49, TierLow},
		{50, TierMedium},
		{79, TierMedium},
		{80, TierCritical},
		{100, TierCritical},
	}
	for _, tc := range cases {
		if got := PersonaRiskTier(tc.rating); got != tc.want {
			t.Errorf("PersonaRiskTier(%d) = %q, want %q", tc.rating, got, tc.want)
		}
	}
}

func TestTalentReadiness(t *testing.T) {
	cases := []struct {
		name string
		w    Weights
		in   ReadinessInput
		want int
	}{
		{
			name: "fully ready",
			w:    DefaultWeights,
			in:   ReadinessInput{OnboardingPct: 100, VerificationStatus: "verified"},
			want: 100,
		},
		{
			name: "fresh talent",
			w:    DefaultWeights,
			in:   ReadinessInput{OnboardingPct: 0, VerificationStatus: "pending"},
			want: 35,
		},
		{
			name: "rejected verification",
			w:    DefaultWeights,
			in:   ReadinessInput{OnboardingPct: 100, VerificationStatus: "rejected"},
			want: 70,
		},
		{
			name: "critical incident zeroes component",
			w:    DefaultWeights,
			in:   ReadinessInput{OnboardingPct: 100, VerificationStatus: "verified", UnresolvedCriticalIncident: true},
			want: 80,
		},
		{
			name: "weights normalize by sum",
			w:    Weights{Onboarding: 1, Verification: 1, Incidents: 2},
			in:   ReadinessInput{OnboardingPct: 100, VerificationStatus: "rejected"},
			want: 75,
		},
		{
			name: "zero weights",
			w:    Weights{},
			in:   ReadinessInput{OnboardingPct: 100, VerificationStatus: "verified"},
			want: 0,
		},
		{
			name: "out of range pct clamps",
			w:    Weights{Onboarding: 1},
			in:   ReadinessInput{OnboardingPct: 250},
			want: 100,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TalentReadiness(tc.w, tc.in); got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}
