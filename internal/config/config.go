package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models talentos.yml.
type Config struct {
	Agency struct {
		Name string `yaml:"name"`
	} `yaml:"agency"`
	Onboarding struct {
		Steps []OnboardingStep `yaml:"steps"`
	} `yaml:"onboarding"`
	Readiness struct {
		Weights ReadinessWeights `yaml:"weights"`
	} `yaml:"readiness"`
	RBAC struct {
		Roles map[string]RBACRole `yaml:"roles"`
	} `yaml:"rbac"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

type OnboardingStep struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// ReadinessWeights drive the talent readiness score. They are normalized by
// their sum, so any non-negative values with a positive sum are valid.
type ReadinessWeights struct {
	Onboarding   float64 `yaml:"onboarding"`
	Verification float64 `yaml:"verification"`
	Incidents    float64 `yaml:"incidents"`
}

type RBACRole struct {
	Description string   `yaml:"description"`
	Areas       []string `yaml:"areas"`
}

type WebhookConfig struct {
	URL            string   `yaml:"url"`
	Secret         string   `yaml:"secret"`
	Events         []string `yaml:"events"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	Enabled        *bool    `yaml:"enabled"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; generate with talentos config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if len(c.Onboarding.Steps) == 0 {
		return fmt.Errorf("config.onboarding.steps is required")
	}
	seen := make(map[string]struct{}, len(c.Onboarding.Steps))
	for i, step := range c.Onboarding.Steps {
		if step.ID == "" {
			return fmt.Errorf("onboarding step %d has empty id", i)
		}
		if step.Name == "" {
			return fmt.Errorf("onboarding step %s has empty name", step.ID)
		}
		if _, ok := seen[step.ID]; ok {
			return fmt.Errorf("onboarding step %s declared twice", step.ID)
		}
		seen[step.ID] = struct{}{}
	}
	w := c.Readiness.Weights
	if w.Onboarding < 0 || w.Verification < 0 || w.Incidents < 0 {
		return fmt.Errorf("config.readiness.weights must be non-negative")
	}
	if w.Onboarding+w.Verification+w.Incidents <= 0 {
		return fmt.Errorf("config.readiness.weights must have a positive sum")
	}
	if len(c.RBAC.Roles) > 0 {
		if _, ok := c.RBAC.Roles["owner"]; !ok {
			return fmt.Errorf("config.rbac.roles must include owner")
		}
		for roleID, role := range c.RBAC.Roles {
			if roleID == "" {
				return fmt.Errorf("config.rbac.roles contains empty role id")
			}
			for _, area := range role.Areas {
				if area == "" {
					return fmt.Errorf("role %s has empty permission area", roleID)
				}
			}
		}
	}
	for i, hook := range c.Webhooks {
		if hook.Enabled != nil && !*hook.Enabled {
			continue
		}
		if hook.URL == "" {
			return fmt.Errorf("webhook %d has empty url", i)
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "talentos.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault(agencyName string) string {
	return fmt.Sprintf(defaultTemplate, agencyName)
}

// Default returns the default Config struct.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, "Default Agency"))).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// RoleAreas returns the permission areas for a role, falling back to the
// built-in role map when the config does not declare roles.
func (c *Config) RoleAreas(role string) []string {
	if c != nil && len(c.RBAC.Roles) > 0 {
		return c.RBAC.Roles[role].Areas
	}
	return builtinRoles[role]
}

var builtinRoles = map[string][]string{
	"owner":          {"*"},
	"ops_director":   {"talents", "personas", "consents", "incidents", "tasks", "wellbeing", "finance", "audit"},
	"talent_manager": {"talents", "personas", "consents", "tasks", "wellbeing"},
	"marketing_ops":  {"personas", "tasks"},
	"finance":        {"finance", "personas"},
	"safety_support": {"incidents", "consents", "wellbeing", "audit"},
}

const defaultTemplate = `agency:
  name: %q

onboarding:
  steps:
    - id: identity_verification
      name: "Government ID verified"
    - id: contract_signing
      name: "Management contract signed"
    - id: persona_setup
      name: "Initial persona configured"
    - id: safety_briefing
      name: "Safety and boundaries briefing held"
    - id: platform_access
      name: "Platform accounts provisioned"

readiness:
  weights:
    onboarding: 0.5
    verification: 0.3
    incidents: 0.2

rbac:
  roles:
    owner:
      description: "Agency owner"
      areas: ["*"]
    ops_director:
      description: "Operations director"
      areas: [talents, personas, consents, incidents, tasks, wellbeing, finance, audit]
    talent_manager:
      description: "Talent manager"
      areas: [talents, personas, consents, tasks, wellbeing]
    marketing_ops:
      description: "Marketing operations"
      areas: [personas, tasks]
    finance:
      description: "Finance"
      areas: [finance, personas]
    safety_support:
      description: "Safety and support"
      areas: [incidents, consents, wellbeing, audit]
`
