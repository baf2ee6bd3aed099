package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if len(cfg.Onboarding.Steps) != 5 {
		t.Fatalf("got %d onboarding steps", len(cfg.Onboarding.Steps))
	}
	if cfg.Onboarding.Steps[0].ID != "identity_verification" {
		t.Fatalf("first step = %q", cfg.Onboarding.Steps[0].ID)
	}
	w := cfg.Readiness.Weights
	if w.Onboarding != 0.5 || w.Verification != 0.3 || w.Incidents != 0.2 {
		t.Fatalf("weights = %+v", w)
	}
}

func TestGenerateDefaultRoundTrips(t *testing.T) {
	cfg, err := FromYAML([]byte(GenerateDefault("Acme Talent")))
	if err != nil {
		t.Fatalf("parse generated: %v", err)
	}
	if cfg.Agency.Name != "Acme Talent" {
		t.Fatalf("agency = %q", cfg.Agency.Name)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no steps", func(c *Config) { c.Onboarding.Steps = nil }, "steps is required"},
		{"empty step id", func(c *Config) { c.Onboarding.Steps[0].ID = "" }, "empty id"},
		{"duplicate step", func(c *Config) { c.Onboarding.Steps[1].ID = c.Onboarding.Steps[0].ID }, "declared twice"},
		{"negative weight", func(c *Config) { c.Readiness.Weights.Onboarding = -1 }, "non-negative"},
		{"zero weights", func(c *Config) { c.Readiness.Weights = ReadinessWeights{} }, "positive sum"},
		{"missing owner role", func(c *Config) { delete(c.RBAC.Roles, "owner") }, "must include owner"},
		{"enabled webhook without url", func(c *Config) { c.Webhooks = []WebhookConfig{{}} }, "empty url"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want substring %q", err, tc.want)
			}
		})
	}
}

func TestRoleAreas(t *testing.T) {
	cfg := Default()
	if areas := cfg.RoleAreas("owner"); len(areas) != 1 || areas[0] != "*" {
		t.Fatalf("owner areas = %v", areas)
	}
	if areas := cfg.RoleAreas("marketing_ops"); len(areas) != 2 {
		t.Fatalf("marketing_ops areas = %v", areas)
	}
	if areas := cfg.RoleAreas("nobody"); len(areas) != 0 {
		t.Fatalf("unknown role areas = %v", areas)
	}

	// nil config falls back to built-in roles
	var nilCfg *Config
	if areas := nilCfg.RoleAreas("safety_support"); len(areas) == 0 {
		t.Fatal("builtin fallback missing")
	}
}

func TestLoadOptional(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadOptional(dir)
	if err != nil || cfg != nil {
		t.Fatalf("missing file: %v %v", err, cfg)
	}

	path := filepath.Join(dir, "talentos.yml")
	if err := os.WriteFile(path, []byte(GenerateDefault("Loaded")), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err = LoadOptional(dir)
	if err != nil || cfg == nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Agency.Name != "Loaded" {
		t.Fatalf("agency = %q", cfg.Agency.Name)
	}

	if _, err := os.Stat(Path(dir)); err != nil {
		t.Fatalf("path: %v", err)
	}
}
