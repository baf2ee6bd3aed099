package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"talentos/internal/config"
	"talentos/internal/db"
	"talentos/internal/engine"
	"talentos/internal/migrate"
	"talentos/internal/server"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) (*httptest.Server, engine.Engine) {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn, config.Default())
	eng.Now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	handler, err := server.New(server.Config{
		Engine:   eng,
		BasePath: "/v1",
		Auth: server.AuthConfig{
			JWTSecret:              testSecret,
			AllowLegacyActorHeader: true,
		},
	})
	if err != nil {
		t.Fatalf("server: %v", err)
	}
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts, eng
}

func signToken(t *testing.T, subject, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	var decoded map[string]any
	if len(data) > 0 {
		_ = json.Unmarshal(data, &decoded)
	}
	return resp, decoded
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestHealthNoAuth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, ts.URL+"/v1/health", "", nil)
	if resp.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health: %d %v", resp.StatusCode, body)
	}
}

func TestUnauthenticatedRejected(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, ts.URL+"/v1/talents", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if errorCode(body) != "unauthorized" {
		t.Fatalf("code = %q", errorCode(body))
	}
}

func TestInvalidTokenRejected(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, body := doJSON(t, http.MethodGet, ts.URL+"/v1/talents", "not-a-jwt", nil)
	if resp.StatusCode != http.StatusUnauthorized || errorCode(body) != "invalid_credentials" {
		t.Fatalf("status = %d code = %q", resp.StatusCode, errorCode(body))
	}
}

func TestTalentLifecycleOverHTTP(t *testing.T) {
	ts, _ := newTestServer(t)
	token := signToken(t, "owner-1", "owner")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/v1/talents", token, map[string]any{
		"legal_name": "Jane Doe",
		"stage_name": "Starlight",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d %v", resp.StatusCode, body)
	}
	if _, present := body["audit_warning"]; present {
		t.Fatalf("unexpected audit_warning: %v", body)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatalf("no id in %v", body)
	}

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/v1/talents/"+id, token, nil)
	if resp.StatusCode != http.StatusOK || body["stage_name"] != "Starlight" {
		t.Fatalf("get: %d %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/v1/talents/"+id+"/verification", token, map[string]any{"status": "verified"})
	if resp.StatusCode != http.StatusOK || body["verification_status"] != "verified" {
		t.Fatalf("verify: %d %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/v1/talents/"+id+"/onboarding", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("onboarding: %d %v", resp.StatusCode, body)
	}
	steps, _ := body["steps"].([]any)
	if len(steps) != 5 {
		t.Fatalf("steps = %v", body)
	}

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/v1/talents/missing", token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing talent: %d", resp.StatusCode)
	}
}

func TestConsentRevokeConflictOverHTTP(t *testing.T) {
	ts, eng := newTestServer(t)
	token := signToken(t, "owner-1", "owner")
	ctx := context.Background()

	talent, err := eng.CreateTalent(ctx, engine.TalentCreateOptions{LegalName: "A", StageName: "B", ActorID: "seed"})
	if err != nil {
		t.Fatalf("seed talent: %v", err)
	}
	persona, err := eng.CreatePersona(ctx, engine.PersonaCreateOptions{TalentID: talent.ID, Name: "Nova", ActorID: "seed"})
	if err != nil {
		t.Fatalf("seed persona: %v", err)
	}

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/v1/consents", token, map[string]any{
		"persona_id":         persona.ID,
		"act_type":           "solo",
		"distribution_scope": "platform_only",
		"revocation_rules":   "on request",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create consent: %d %v", resp.StatusCode, body)
	}
	id, _ := body["id"].(string)

	revokeURL := fmt.Sprintf("%s/v1/consents/%s/revoke", ts.URL, id)
	resp, body = doJSON(t, http.MethodPost, revokeURL, token, nil)
	if resp.StatusCode != http.StatusOK || body["status"] != "revoked" {
		t.Fatalf("revoke: %d %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodPost, revokeURL, token, nil)
	if resp.StatusCode != http.StatusConflict || errorCode(body) != "conflict" {
		t.Fatalf("second revoke: %d %v", resp.StatusCode, body)
	}
}

func TestIncidentResolveValidationOverHTTP(t *testing.T) {
	ts, _ := newTestServer(t)
	token := signToken(t, "owner-1", "owner")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/v1/incidents", token, map[string]any{
		"type":        "platform_dispute",
		"severity":    "high",
		"description": "takedown request",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d %v", resp.StatusCode, body)
	}
	id, _ := body["id"].(string)

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/v1/incidents/"+id+"/resolve", token, map[string]any{
		"resolution_notes": "  ",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity || errorCode(body) != "validation_failed" {
		t.Fatalf("empty notes: %d %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/v1/incidents/"+id+"/resolve", token, map[string]any{
		"resolution_notes": "appeal accepted, content restored",
	})
	if resp.StatusCode != http.StatusOK || body["status"] != "resolved" {
		t.Fatalf("resolve: %d %v", resp.StatusCode, body)
	}
}

func TestRoleAreasEnforced(t *testing.T) {
	ts, _ := newTestServer(t)
	marketing := signToken(t, "mk-1", "marketing_ops")

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/v1/personas", marketing, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("personas: %d", resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/v1/consents", marketing, nil)
	if resp.StatusCode != http.StatusForbidden || errorCode(body) != "forbidden" {
		t.Fatalf("consents: %d %v", resp.StatusCode, body)
	}
}

func TestUnknownRoleHasNoAccess(t *testing.T) {
	ts, _ := newTestServer(t)
	token := signToken(t, "x-1", "intern")
	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/v1/talents", token, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	ts, eng := newTestServer(t)
	_, raw, err := eng.CreateAPIKey(context.Background(), "ci", "talent_manager")
	if err != nil {
		t.Fatalf("create key: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/talents", nil)
	req.Header.Set("X-Api-Key", raw)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("api key auth: %d", resp.StatusCode)
	}

	// a talent_manager key cannot read the audit trail
	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/v1/audit", nil)
	req.Header.Set("X-Api-Key", raw)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("audit with manager key: %d", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/v1/talents", nil)
	req.Header.Set("X-Api-Key", "wrong")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad key: %d", resp.StatusCode)
	}
}

func TestLegacyActorHeader(t *testing.T) {
	ts, _ := newTestServer(t)
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/talents", nil)
	req.Header.Set("X-Actor-Id", "legacy-user")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("legacy header: %d", resp.StatusCode)
	}
}

func TestTaskBoardOverHTTP(t *testing.T) {
	ts, _ := newTestServer(t)
	token := signToken(t, "owner-1", "owner")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/v1/tasks", token, map[string]any{
		"title":    "handle appeal",
		"type":     "platform_appeal",
		"priority": "urgent",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create task: %d %v", resp.StatusCode, body)
	}
	id, _ := body["id"].(string)

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/v1/tasks/"+id+"/status", token, map[string]any{"status": "completed"})
	if resp.StatusCode != http.StatusOK || body["status"] != "completed" {
		t.Fatalf("complete: %d %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/v1/tasks/"+id+"/status", token, map[string]any{"status": "pending"})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("reopen completed: %d %v", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/v1/tasks/board", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("board: %d", resp.StatusCode)
	}
	completed, _ := body["completed"].([]any)
	if len(completed) != 1 {
		t.Fatalf("board = %v", body)
	}
}

func TestAuditTrailOverHTTP(t *testing.T) {
	ts, _ := newTestServer(t)
	token := signToken(t, "owner-1", "owner")

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/v1/talents", token, map[string]any{
		"legal_name": "A", "stage_name": "B",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d", resp.StatusCode)
	}
	id, _ := body["id"].(string)

	url := fmt.Sprintf("%s/v1/audit?entity_kind=talent&entity_id=%s", ts.URL, id)
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	httpResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		t.Fatalf("audit: %d", httpResp.StatusCode)
	}
	var entries []map[string]any
	if err := json.NewDecoder(httpResp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0]["action"] != "created" || entries[0]["actor_id"] != "owner-1" {
		t.Fatalf("entries = %v", entries)
	}
}

func TestPaginationCursor(t *testing.T) {
	ts, eng := newTestServer(t)
	token := signToken(t, "owner-1", "owner")
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		offset := time.Duration(i) * time.Minute
		eng.Now = func() time.Time { return base.Add(offset) }
		if _, err := eng.CreateTalent(ctx, engine.TalentCreateOptions{
			LegalName: fmt.Sprintf("Talent %d", i),
			StageName: fmt.Sprintf("Stage %d", i),
			ActorID:   "seed",
		}); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	resp, body := doJSON(t, http.MethodGet, ts.URL+"/v1/talents?limit=3", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("page 1: %d", resp.StatusCode)
	}
	items, _ := body["items"].([]any)
	cursor, _ := body["next_cursor"].(string)
	if len(items) != 3 || cursor == "" {
		t.Fatalf("page 1: %d items cursor=%q", len(items), cursor)
	}

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/v1/talents?limit=3&cursor="+cursor, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("page 2: %d", resp.StatusCode)
	}
	items, _ = body["items"].([]any)
	if len(items) != 2 {
		t.Fatalf("page 2: %d items", len(items))
	}
	if _, present := body["next_cursor"]; present {
		t.Fatalf("page 2 has cursor: %v", body)
	}
}
