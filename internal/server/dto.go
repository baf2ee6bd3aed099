package server

import (
	"encoding/base64"
	"strings"

	"talentos/internal/domain"
	"talentos/internal/engine"
)

// Request payloads

type CreateTalentRequest struct {
	LegalName string `json:"legal_name" doc:"Legal name of the talent"`
	StageName string `json:"stage_name" doc:"Public stage name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type UpdateTalentRequest struct {
	LegalName *string `json:"legal_name,omitempty"`
	StageName *string `json:"stage_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

type CreatePersonaRequest struct {
	TalentID         string            `json:"talent_id"`
	Name             string            `json:"name"`
	BrandingTone     string            `json:"branding_tone,omitempty"`
	NicheTags        []string          `json:"niche_tags,omitempty"`
	AllowedPlatforms []string          `json:"allowed_platforms,omitempty"`
	ProhibitedActs   []string          `json:"prohibited_acts,omitempty"`
	Handles          map[string]string `json:"handles,omitempty"`
	PricingTier      string            `json:"pricing_tier,omitempty" enum:"budget,standard,premium,exclusive"`
	RiskRating       int               `json:"risk_rating,omitempty" minimum:"0" maximum:"100"`
}

type UpdatePersonaRequest struct {
	Name             *string           `json:"name,omitempty"`
	BrandingTone     *string           `json:"branding_tone,omitempty"`
	NicheTags        []string          `json:"niche_tags,omitempty"`
	AllowedPlatforms []string          `json:"allowed_platforms,omitempty"`
	ProhibitedActs   []string          `json:"prohibited_acts,omitempty"`
	Handles          map[string]string `json:"handles,omitempty"`
	PricingTier      *string           `json:"pricing_tier,omitempty" enum:"budget,standard,premium,exclusive"`
	Status           *string           `json:"status,omitempty" enum:"active,inactive"`
	RiskRating       *int              `json:"risk_rating,omitempty" minimum:"0" maximum:"100"`
}

type CreateConsentRequest struct {
	PersonaID         string   `json:"persona_id"`
	ActType           string   `json:"act_type"`
	PartnerIDs        []string `json:"partner_ids,omitempty"`
	DistributionScope string   `json:"distribution_scope" enum:"platform_only,multi_platform,exclusive,unrestricted"`
	RevocationRules   string   `json:"revocation_rules"`
	ExpiryDate        string   `json:"expiry_date,omitempty" format:"date-time"`
}

type CreateIncidentRequest struct {
	TalentID    string `json:"talent_id,omitempty"`
	PersonaID   string `json:"persona_id,omitempty"`
	Type        string `json:"type" enum:"boundary_violation,client_misconduct,platform_dispute,internal_escalation"`
	Severity    string `json:"severity" enum:"low,medium,high,critical"`
	Description string `json:"description"`
}

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Type        string `json:"type,omitempty" enum:"platform_appeal,brand_deal,crisis_response,talent_request,general"`
	Priority    string `json:"priority,omitempty" enum:"low,medium,high,urgent"`
	AssigneeID  string `json:"assignee_id,omitempty"`
	TalentID    string `json:"talent_id,omitempty"`
	DueDate     string `json:"due_date,omitempty" format:"date-time"`
	Description string `json:"description,omitempty"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Priority    *string `json:"priority,omitempty" enum:"low,medium,high,urgent"`
	AssigneeID  *string `json:"assignee_id,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	Description *string `json:"description,omitempty"`
}

type CreateWellbeingRequest struct {
	Mood   int    `json:"mood" minimum:"1" maximum:"10"`
	Stress int    `json:"stress" minimum:"1" maximum:"10"`
	Note   string `json:"note,omitempty"`
}

type CreateRevenueRequest struct {
	PersonaID   string  `json:"persona_id"`
	Type        string  `json:"type" enum:"subscription,ppv,tips,custom,experience"`
	GrossAmount float64 `json:"gross_amount"`
	PlatformFee float64 `json:"platform_fee,omitempty"`
	OccurredAt  string  `json:"occurred_at,omitempty" format:"date-time"`
}

type CreateAPIKeyRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Response payloads. Mutation responses carry an optional audit warning set
// when the write committed but the trail append failed.

type TalentResponse struct {
	domain.Talent
	AuditWarning string `json:"audit_warning,omitempty"`
}

// TalentDetailResponse is the single-talent view, which also carries the most
// recent wellbeing check-in when one exists.
type TalentDetailResponse struct {
	domain.Talent
	LatestWellbeing *domain.WellbeingCheckin `json:"latest_wellbeing,omitempty"`
}

type PersonaResponse struct {
	domain.Persona
	RiskTier     string `json:"risk_tier" enum:"low,medium,critical"`
	AuditWarning string `json:"audit_warning,omitempty"`
}

func personaResponse(p domain.Persona) PersonaResponse {
	return PersonaResponse{Persona: p, RiskTier: engine.PersonaRiskTier(p)}
}

func mapPersonas(items []domain.Persona) []PersonaResponse {
	res := make([]PersonaResponse, 0, len(items))
	for _, p := range items {
		res = append(res, personaResponse(p))
	}
	return res
}

type ConsentResponse struct {
	domain.Consent
	AuditWarning string `json:"audit_warning,omitempty"`
}

type IncidentResponse struct {
	domain.Incident
	AuditWarning string `json:"audit_warning,omitempty"`
}

type TaskResponse struct {
	domain.Task
	AuditWarning string `json:"audit_warning,omitempty"`
}

type OnboardingResponse struct {
	domain.OnboardingStatus
	AuditWarning string `json:"audit_warning,omitempty"`
}

type WellbeingResponse struct {
	domain.WellbeingCheckin
	AuditWarning string `json:"audit_warning,omitempty"`
}

type RevenueResponse struct {
	domain.RevenueEntry
	AuditWarning string `json:"audit_warning,omitempty"`
}

type APIKeyCreatedResponse struct {
	domain.APIKey
	// Key is the raw secret, returned exactly once.
	Key string `json:"key"`
}

type paginatedTalents struct {
	Items      []domain.Talent `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type paginatedIncidents struct {
	Items      []domain.Incident `json:"items"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

type paginatedTasks struct {
	Items      []domain.Task `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// warnString extracts the audit warning text from an operation result.
func warnString(err error) string {
	if err != nil && engine.IsAuditWarning(err) {
		return err.Error()
	}
	return ""
}

// Cursors encode the (created_at, id) position of the last item in a page.
func encodeCursor(createdAt, id string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(createdAt + "|" + id))
}

func decodeCursor(cursor string) (createdAt, id string) {
	if cursor == "" {
		return "", ""
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", ""
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return parts[0], parts[1]
}

func nonNilTalents(items []domain.Talent) []domain.Talent {
	if items == nil {
		return []domain.Talent{}
	}
	return items
}

func nonNilIncidents(items []domain.Incident) []domain.Incident {
	if items == nil {
		return []domain.Incident{}
	}
	return items
}

func nonNilTasks(items []domain.Task) []domain.Task {
	if items == nil {
		return []domain.Task{}
	}
	return items
}

func nonNilConsents(items []domain.Consent) []domain.Consent {
	if items == nil {
		return []domain.Consent{}
	}
	return items
}
