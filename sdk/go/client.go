package talentossdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal TalentOS HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Talent represents the API talent model (partial).
type Talent struct {
	ID                 string `json:"id"`
	DisplayID          string `json:"display_id"`
	LegalName          string `json:"legal_name"`
	StageName          string `json:"stage_name"`
	VerificationStatus string `json:"verification_status"`
	OnboardingComplete bool   `json:"onboarding_complete"`
	AuditWarning       string `json:"audit_warning,omitempty"`
}

// Consent represents a consent record.
type Consent struct {
	ID                string   `json:"id"`
	PersonaID         string   `json:"persona_id"`
	ActType           string   `json:"act_type"`
	PartnerIDs        []string `json:"partner_ids,omitempty"`
	DistributionScope string   `json:"distribution_scope"`
	Status            string   `json:"status"`
	ExpiryDate        *string  `json:"expiry_date,omitempty"`
	AuditWarning      string   `json:"audit_warning,omitempty"`
}

// Incident represents a safety incident.
type Incident struct {
	ID              string  `json:"id"`
	TalentID        *string `json:"talent_id,omitempty"`
	Type            string  `json:"type"`
	Severity        string  `json:"severity"`
	Status          string  `json:"status"`
	Description     string  `json:"description"`
	ResolutionNotes *string `json:"resolution_notes,omitempty"`
	AuditWarning    string  `json:"audit_warning,omitempty"`
}

// Task represents an operational task.
type Task struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Type         string  `json:"type"`
	Priority     string  `json:"priority"`
	Status       string  `json:"status"`
	AssigneeID   *string `json:"assignee_id,omitempty"`
	AuditWarning string  `json:"audit_warning,omitempty"`
}

// AuditEntry is one line of the audit trail.
type AuditEntry struct {
	Seq        int64  `json:"seq"`
	Ref        string `json:"ref"`
	TS         string `json:"ts"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id"`
	Action     string `json:"action"`
	ActorID    string `json:"actor_id"`
	Note       string `json:"note,omitempty"`
}

// Readiness is the derived readiness view.
type Readiness struct {
	TalentID         string `json:"talent_id"`
	Score            int    `json:"score"`
	OnboardingPct    int    `json:"onboarding_pct"`
	Verification     string `json:"verification"`
	CriticalIncident bool   `json:"critical_incident"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// PaginatedTalents wraps talent list responses with cursors.
type PaginatedTalents struct {
	Items      []Talent `json:"items"`
	NextCursor string   `json:"next_cursor"`
}

// CreateTalent registers a talent.
func (c *Client) CreateTalent(ctx context.Context, legalName, stageName string) (Talent, error) {
	body := map[string]any{
		"legal_name": legalName,
		"stage_name": stageName,
	}
	var resp Talent
	err := c.do(ctx, http.MethodPost, "v1/talents", body, &resp)
	return resp, err
}

// GetTalent fetches a talent by id.
func (c *Client) GetTalent(ctx context.Context, id string) (Talent, error) {
	var resp Talent
	err := c.do(ctx, http.MethodGet, "v1/talents/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// Talents returns one page of talents.
func (c *Client) Talents(ctx context.Context, limit int, cursor string) (PaginatedTalents, error) {
	endpoint := "v1/talents"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	if cursor != "" {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		endpoint = fmt.Sprintf("%s%scursor=%s", endpoint, sep, url.QueryEscape(cursor))
	}
	var resp PaginatedTalents
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Readiness fetches the readiness score for a talent.
func (c *Client) Readiness(ctx context.Context, talentID string) (Readiness, error) {
	var resp Readiness
	endpoint := fmt.Sprintf("v1/talents/%s/readiness", url.PathEscape(talentID))
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// CreateConsent records consent for a persona.
func (c *Client) CreateConsent(ctx context.Context, personaID, actType, scope, revocationRules string, partnerIDs []string, expiry string) (Consent, error) {
	body := map[string]any{
		"persona_id":         personaID,
		"act_type":           actType,
		"distribution_scope": scope,
		"revocation_rules":   revocationRules,
	}
	if len(partnerIDs) > 0 {
		body["partner_ids"] = partnerIDs
	}
	if expiry != "" {
		body["expiry_date"] = expiry
	}
	var resp Consent
	err := c.do(ctx, http.MethodPost, "v1/consents", body, &resp)
	return resp, err
}

// RevokeConsent permanently revokes a consent record.
func (c *Client) RevokeConsent(ctx context.Context, id string) (Consent, error) {
	var resp Consent
	endpoint := fmt.Sprintf("v1/consents/%s/revoke", url.PathEscape(id))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// ReportIncident opens a safety incident.
func (c *Client) ReportIncident(ctx context.Context, incidentType, severity, description string, talentID string) (Incident, error) {
	body := map[string]any{
		"type":        incidentType,
		"severity":    severity,
		"description": description,
	}
	if talentID != "" {
		body["talent_id"] = talentID
	}
	var resp Incident
	err := c.do(ctx, http.MethodPost, "v1/incidents", body, &resp)
	return resp, err
}

// ResolveIncident resolves an incident with notes.
func (c *Client) ResolveIncident(ctx context.Context, id, notes string) (Incident, error) {
	body := map[string]any{"resolution_notes": notes}
	var resp Incident
	endpoint := fmt.Sprintf("v1/incidents/%s/resolve", url.PathEscape(id))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, title, taskType, priority string) (Task, error) {
	body := map[string]any{"title": title}
	if taskType != "" {
		body["type"] = taskType
	}
	if priority != "" {
		body["priority"] = priority
	}
	var resp Task
	err := c.do(ctx, http.MethodPost, "v1/tasks", body, &resp)
	return resp, err
}

// SetTaskStatus transitions a task.
func (c *Client) SetTaskStatus(ctx context.Context, id, status string) (Task, error) {
	body := map[string]any{"status": status}
	var resp Task
	endpoint := fmt.Sprintf("v1/tasks/%s/status", url.PathEscape(id))
	err := c.do(ctx, http.MethodPost, endpoint, body, &resp)
	return resp, err
}

// AuditTrail returns the audit history for one entity, oldest first.
func (c *Client) AuditTrail(ctx context.Context, entityKind, entityID string, limit int) ([]AuditEntry, error) {
	endpoint := fmt.Sprintf("v1/audit?entity_kind=%s&entity_id=%s",
		url.QueryEscape(entityKind), url.QueryEscape(entityID))
	if limit > 0 {
		endpoint = fmt.Sprintf("%s&limit=%d", endpoint, limit)
	}
	var resp []AuditEntry
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
