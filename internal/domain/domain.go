package domain

type Talent struct {
	ID                 string  `json:"id"`
	DisplayID          string  `json:"display_id"`
	LegalName          string  `json:"legal_name"`
	StageName          string  `json:"stage_name"`
	Email              string  `json:"email,omitempty"`
	Phone              string  `json:"phone,omitempty"`
	VerificationStatus string  `json:"verification_status" enum:"pending,verified,rejected"`
	OnboardingComplete bool    `json:"onboarding_complete"`
	PersonaCount       int     `json:"persona_count"`
	Notes              *string `json:"notes,omitempty"`
	CreatedBy          string  `json:"created_by"`
	CreatedAt          string  `json:"created_at" format:"date-time"`
	UpdatedAt          string  `json:"updated_at" format:"date-time"`
}

type Persona struct {
	ID               string            `json:"id"`
	TalentID         string            `json:"talent_id"`
	Name             string            `json:"name"`
	BrandingTone     string            `json:"branding_tone,omitempty"`
	NicheTags        []string          `json:"niche_tags,omitempty"`
	AllowedPlatforms []string          `json:"allowed_platforms,omitempty"`
	ProhibitedActs   []string          `json:"prohibited_acts,omitempty"`
	Handles          map[string]string `json:"handles,omitempty"`
	PricingTier      string            `json:"pricing_tier" enum:"budget,standard,premium,exclusive"`
	Status           string            `json:"status" enum:"active,inactive"`
	RiskRating       int               `json:"risk_rating" minimum:"0" maximum:"100"`
	CreatedAt        string            `json:"created_at" format:"date-time"`
	UpdatedAt        string            `json:"updated_at" format:"date-time"`
}

// Consent is immutable after creation except for its status.
type Consent struct {
	ID                string   `json:"id"`
	PersonaID         string   `json:"persona_id"`
	ActType           string   `json:"act_type"`
	PartnerIDs        []string `json:"partner_ids,omitempty"`
	DistributionScope string   `json:"distribution_scope" enum:"platform_only,multi_platform,exclusive,unrestricted"`
	RevocationRules   string   `json:"revocation_rules"`
	Status            string   `json:"status" enum:"active,revoked,expired"`
	ExpiryDate        *string  `json:"expiry_date,omitempty" format:"date-time"`
	CreatedBy         string   `json:"created_by"`
	CreatedAt         string   `json:"created_at" format:"date-time"`
	RevokedBy         *string  `json:"revoked_by,omitempty"`
	RevokedAt         *string  `json:"revoked_at,omitempty" format:"date-time"`
}

type Incident struct {
	ID              string  `json:"id"`
	TalentID        *string `json:"talent_id,omitempty"`
	PersonaID       *string `json:"persona_id,omitempty"`
	Type            string  `json:"type" enum:"boundary_violation,client_misconduct,platform_dispute,internal_escalation"`
	Severity        string  `json:"severity" enum:"low,medium,high,critical"`
	Description     string  `json:"description"`
	Status          string  `json:"status" enum:"open,investigating,resolved,closed"`
	ResolutionNotes *string `json:"resolution_notes,omitempty"`
	ReportedBy      string  `json:"reported_by"`
	CreatedAt       string  `json:"created_at" format:"date-time"`
	UpdatedAt       string  `json:"updated_at" format:"date-time"`
	ResolvedAt      *string `json:"resolved_at,omitempty" format:"date-time"`
}

type Task struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Type        string  `json:"type" enum:"platform_appeal,brand_deal,crisis_response,talent_request,general"`
	Priority    string  `json:"priority" enum:"low,medium,high,urgent"`
	Status      string  `json:"status" enum:"pending,in_progress,completed,blocked"`
	AssigneeID  *string `json:"assignee_id,omitempty"`
	TalentID    *string `json:"talent_id,omitempty"`
	DueDate     *string `json:"due_date,omitempty" format:"date-time"`
	Description string  `json:"description,omitempty"`
	CreatedBy   string  `json:"created_by"`
	CreatedAt   string  `json:"created_at" format:"date-time"`
	UpdatedAt   string  `json:"updated_at" format:"date-time"`
	CompletedAt *string `json:"completed_at,omitempty" format:"date-time"`
}

type OnboardingStep struct {
	TalentID    string  `json:"talent_id"`
	StepID      string  `json:"step_id"`
	Name        string  `json:"name"`
	Position    int     `json:"position"`
	Completed   bool    `json:"completed"`
	CompletedBy *string `json:"completed_by,omitempty"`
	CompletedAt *string `json:"completed_at,omitempty" format:"date-time"`
}

type OnboardingStatus struct {
	TalentID    string           `json:"talent_id"`
	Steps       []OnboardingStep `json:"steps"`
	ProgressPct int              `json:"progress_pct"`
	Complete    bool             `json:"complete"`
}

// AuditEntry is one immutable line of the audit trail. Seq is assigned by
// storage and defines creation order.
type AuditEntry struct {
	Seq        int64  `json:"seq"`
	Ref        string `json:"ref"`
	TS         string `json:"ts" format:"date-time"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id"`
	Action     string `json:"action"`
	ActorID    string `json:"actor_id"`
	Note       string `json:"note,omitempty"`
	Payload    string `json:"payload,omitempty"`
}

type WellbeingCheckin struct {
	ID        string `json:"id"`
	TalentID  string `json:"talent_id"`
	Mood      int    `json:"mood" minimum:"1" maximum:"10"`
	Stress    int    `json:"stress" minimum:"1" maximum:"10"`
	Note      string `json:"note,omitempty"`
	CreatedBy string `json:"created_by"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type RevenueEntry struct {
	ID          string  `json:"id"`
	PersonaID   string  `json:"persona_id"`
	Type        string  `json:"type" enum:"subscription,ppv,tips,custom,experience"`
	GrossAmount float64 `json:"gross_amount"`
	PlatformFee float64 `json:"platform_fee"`
	NetAmount   float64 `json:"net_amount"`
	OccurredAt  string  `json:"occurred_at" format:"date-time"`
	CreatedBy   string  `json:"created_by"`
	CreatedAt   string  `json:"created_at" format:"date-time"`
}

type RevenueSummary struct {
	PersonaID string  `json:"persona_id,omitempty"`
	Period    string  `json:"period"`
	Gross     float64 `json:"gross"`
	Fees      float64 `json:"fees"`
	Net       float64 `json:"net"`
	Entries   int     `json:"entries"`
}

type DashboardStats struct {
	Talents         int `json:"talents"`
	VerifiedTalents int `json:"verified_talents"`
	Personas        int `json:"personas"`
	ActivePersonas  int `json:"active_personas"`
	ActiveConsents  int `json:"active_consents"`
	OpenIncidents   int `json:"open_incidents"`
	PendingTasks    int `json:"pending_tasks"`
}

type Alert struct {
	Kind       string `json:"kind" enum:"incident_open,persona_high_risk,task_overdue"`
	Severity   string `json:"severity" enum:"high,critical"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id"`
	Message    string `json:"message"`
}

// APIKey never carries the raw secret; it is shown once at creation and only
// the hash is stored.
type APIKey struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	KeyHash    string  `json:"-"`
	CreatedAt  string  `json:"created_at" format:"date-time"`
	LastUsedAt *string `json:"last_used_at,omitempty" format:"date-time"`
}

// Readiness is the derived operational readiness view for a talent.
type Readiness struct {
	TalentID         string `json:"talent_id"`
	Score            int    `json:"score" minimum:"0" maximum:"100"`
	OnboardingPct    int    `json:"onboarding_pct"`
	Verification     string `json:"verification"`
	CriticalIncident bool   `json:"critical_incident"`
}
