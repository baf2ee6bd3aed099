package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"talentos/internal/audit"
	"talentos/internal/domain"
	"talentos/internal/engine"
	"talentos/internal/obs"
	"talentos/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
	// RateLimitPerSecond caps requests per client IP; zero disables limiting.
	RateLimitPerSecond int
	RateLimitBurst     int
	MaxBodyBytes       int64
	EnableMetrics      bool
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"conflict"`
	Message string         `json:"message" example:"cannot revoke consent: already revoked"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

type requestKey struct{}
type bodyBytesKey struct{}

// apiError models the required error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the TalentOS API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the required envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema/request validation errors should be 400 bad_request
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(requestLogging)
	router.Use(securityHeaders)
	if cfg.MaxBodyBytes > 0 {
		router.Use(maxBodyBytes(cfg.MaxBodyBytes))
	}
	if cfg.RateLimitPerSecond > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = cfg.RateLimitPerSecond
		}
		router.Use(rateLimit(cfg.RateLimitPerSecond, burst))
	}
	if cfg.EnableMetrics {
		router.Use(obs.Instrument)
		router.Method(http.MethodGet, "/metrics", obs.Handler())
	}
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bodyData, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(bodyData))
			ctx := context.WithValue(r.Context(), requestKey{}, r)
			ctx = context.WithValue(ctx, bodyBytesKey{}, bodyData)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Engine.Config, cfg.Engine.Repo))

	hcfg := huma.DefaultConfig("TalentOS API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerTalents(group, cfg.Engine)
	registerPersonas(group, cfg.Engine)
	registerConsents(group, cfg.Engine)
	registerIncidents(group, cfg.Engine)
	registerTasks(group, cfg.Engine)
	registerWellbeing(group, cfg.Engine)
	registerRevenue(group, cfg.Engine)
	registerAudit(group, cfg.Engine)
	registerDashboard(group, cfg.Engine)
	registerAPIKeys(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	startWebhookDispatcher(cfg.Engine)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var fe ForbiddenError
	if errors.As(err, &fe) {
		return newAPIError(http.StatusForbidden, "forbidden", err.Error(), map[string]any{"area": fe.Area})
	}
	var ve *engine.ValidationError
	if errors.As(err, &ve) {
		return newAPIError(http.StatusUnprocessableEntity, "validation_failed", err.Error(), map[string]any{"kind": ve.Kind, "field": ve.Field})
	}
	var nf *engine.NotFoundError
	if errors.As(err, &nf) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), map[string]any{"kind": nf.Kind, "id": nf.ID})
	}
	var ce *engine.ConflictError
	if errors.As(err, &ce) {
		return newAPIError(http.StatusConflict, "conflict", err.Error(), map[string]any{"kind": ce.Kind, "id": ce.ID, "action": ce.Action})
	}
	var se *engine.StorageError
	if errors.As(err, &se) {
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	if strings.Contains(err.Error(), "authentication required") {
		return newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func bodyBytes(ctx context.Context) []byte {
	if b, ok := ctx.Value(bodyBytesKey{}).([]byte); ok {
		return b
	}
	return nil
}

var mutationErrors = []int{
	http.StatusBadRequest,
	http.StatusForbidden,
	http.StatusNotFound,
	http.StatusConflict,
	http.StatusUnprocessableEntity,
	http.StatusInternalServerError,
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"},
					},
				},
			}
		}
	}
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	oas.Components.SecuritySchemes["apiKeyAuth"] = &huma.SecurityScheme{
		Type: "apiKey",
		In:   "header",
		Name: "X-Api-Key",
	}
	security := []map[string][]string{
		{"bearerAuth": {}},
		{"apiKeyAuth": {}},
	}
	oas.Security = security
	healthPath := path.Join(basePath, "health")
	if !strings.HasPrefix(healthPath, "/") {
		healthPath = "/" + healthPath
	}
	for route, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if route == healthPath {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>TalentOS API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt; or X-Api-Key.
    </p>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerTalents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-talent",
		Method:        http.MethodPost,
		Path:          "/talents",
		Summary:       "Register talent",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateTalentRequest `json:"body"`
	}) (*struct {
		Body TalentResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if err := requireArea(ctx, "talents"); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.CreateTalent(ctx, engine.TalentCreateOptions{
			LegalName: input.Body.LegalName,
			StageName: input.Body.StageName,
			Email:     input.Body.Email,
			Phone:     input.Body.Phone,
			Notes:     input.Body.Notes,
			ActorID:   actorID,
		})
		if err != nil && !engine.IsAuditWarning(err) {
			return nil, handleError(err)
		}
		return &struct {
			Body TalentResponse `json:"body"`
		}{Body: TalentResponse{Talent: t, AuditWarning: warnString(err)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-talents",
		Method:      http.MethodGet,
		Path:        "/talents",
		Summary:     "List talents",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		VerificationStatus string `query:"verification_status" enum:"pending,verified,rejected" required:"false"`
		Search             string `query:"q" required:"false"`
		Limit              int    `query:"limit" required:"false"`
		Cursor             string `query:"cursor" required:"false"`
	}) (*struct {
		Body paginatedTalents `json:"body"`
	}, error) {
		if err := requireArea(ctx, "talents"); err != nil {
			return nil, handleError(err)
		}
		limit := input.Limit
		if limit <= 0 || limit > 200 {
			limit = 50
		}
		cursorCreatedAt, cursorID := decodeCursor(input.Cursor)
		items, err := e.ListTalents(ctx, repo.TalentFilters{
			VerificationStatus: input.VerificationStatus,
			Search:             input.Search,
			Limit:              limit + 1,
			CursorCreatedAt:    cursorCreatedAt,
			CursorID:           cursorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		next := ""
		if len(items) > limit {
			items = items[:limit]
			last := items[len(items)-1]
			next = encodeCursor(last.CreatedAt, last.ID)
		}
		return &struct {
			Body paginatedTalents `json:"body"`
		}{Body: paginatedTalents{Items: nonNilTalents(items), NextCursor: next}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-talent",
		Method:      http.MethodGet,
		Path:        "/talents/{talent_id}",
		Summary:     "Get talent",
		Errors:      []int{http.StatusNotFound, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		TalentID string `path:"talent_id"`
	}) (*struct {
		Body TalentDetailResponse `json:"body"`
	}, error) {
		if err := requireArea(ctx, "talents"); err != nil {
			return nil, handleError(err)
		}
		t, err := e.GetTalent(ctx, input.TalentID)
		if err != nil {
			return nil, handleError(err)
		}
		resp := TalentDetailResponse{Talent: t}
		if checkins, err := e.ListWellbeingCheckins(ctx, t.ID, 1); err == nil && len(checkins) > 0 {
			resp.LatestWellbeing = &checkins[0]
		}
		return &struct {
			Body TalentDetailResponse `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-talent",
		Method:      http.MethodPatch,
		Path:        "/talents/{talent_id}",
		Summary:     "Update talent",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		TalentID string              `path:"talent_id"`
		Body     UpdateTalentRequest `json:"body"`
	}) (*struct {
		Body TalentResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if err := requireArea(ctx, "talents"); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.UpdateTalent(ctx, input.TalentID, engine.TalentUpdateOptions{
			LegalName: input.Body.LegalName,
			StageName: input.Body.StageName,
			Email:     input.Body.Email,
			Phone:     input.Body.Phone,
			Notes:     input.Body.Notes,
			ActorID:   actorID,
		})
		if err != nil && !engine.IsAuditWarning(err) {
			return nil, handleError(err)
		}
		return &struct {
			Body TalentResponse `json:"body"`
		}{Body: TalentResponse{Talent: t, AuditWarning: warnString(err)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-talent",
		Method:      http.MethodDelete,
		Path:        "/talents/{talent_id}",
		Summary:     "Delete talent and dependent records",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		TalentID string `path:"talent_id"`
	}) (*struct{}, error) {
		if err := requireArea(ctx, "talents"); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteTalent(ctx, input.TalentID, actorID); err != nil && !engine.IsAuditWarning(err) {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-talent-verification",
		Method:      http.MethodPost,
		Path:        "/talents/{talent_id}/verification",
		Summary:     "Set verification status",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		TalentID string `path:"talent_id"`
		Body     struct {
			Status string `json:"status" enum:"pending,verified,rejected"`
		} `json:"body"`
	}) (*struct {
		Body TalentResponse `json:"body"`
	}, error) {
		if err := requireArea(ctx, "talents"); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.SetTalentVerification(ctx, input.TalentID, input.Body.Status, actorID)
		if err != nil && !engine.IsAuditWarning(err) {
			return nil, handleError(err)
		}
		return &struct {
			Body TalentResponse `json:"body"`
		}{Body: TalentResponse{Talent: t, AuditWarning: warnString(err)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-talent-readiness",
		Method:      http.MethodGet,
		Path:        "/talents/{talent_id}/readiness",
		Summary:     "Readiness score",
		Errors:      []int{http.StatusNotFound, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		TalentID string `path:"talent_id"`
	}) (*struct {
		Body domain.Readiness `json:"body"`
	}, error) {
		if err := requireArea(ctx, "talents"); err != nil {
			return nil, handleError(err)
		}
		r, err := e.Readiness(ctx, input.TalentID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Readiness `json:"body"`
		}{Body: r}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-onboarding",
		Method:      http.MethodGet,
		Path:        "/talents/{talent_id}/onboarding",
		Summary:     "Onboarding checklist",
		Errors:      []int{http.StatusNotFound, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		TalentID string `path:"talent_id"`
	}) (*struct {
		Body OnboardingResponse `json:"body"`
	}, error) {
		if err := requireArea(ctx, "talents"); err != nil {
			return nil, handleError(err)
		}
		st, err := e.Onboarding(ctx, input.TalentID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body OnboardingResponse `json:"body"`
		}{Body: OnboardingResponse{OnboardingStatus: st}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-onboarding-step",
		Method:      http.MethodPost,
		Path:        "/talents/{talent_id}/onboarding/{step_id}/complete",
		Summary:     "Complete onboarding step",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		TalentID string `path:"talent_id"`
		StepID   string `path:"step_id"`
	}) (*struct {
		Body OnboardingResponse `json:"body"`
	}, error) {
		if err := requireArea(ctx, "talents"); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		st, err := e.CompleteOnboardingStep(ctx, input.TalentID, input.StepID, actorID)
		if err != nil && !engine.IsAuditWarning(err) {
			return nil, handleError(err)
		}
		return &struct {
			Body OnboardingResponse `json:"body"`
		}{Body: OnboardingResponse{OnboardingStatus: st, AuditWarning: warnString(err)}}, nil
	})
}

func registerPersonas(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-persona",
		Method:        http.MethodPost,
		Path:          "/personas",
		Summary:       "Create persona",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body CreatePersonaRequest `json:"body"`
	}) (*struct {
		Body PersonaResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if err := requireArea(ctx, "personas"); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.CreatePersona(ctx, engine.PersonaCreateOptions{
			TalentID:         input.Body.TalentID,
			Name:             input.Body.Name,
			BrandingTone:     input.Body.BrandingTone,
			NicheTags:        input.Body.NicheTags,
			AllowedPlatforms: input.Body.AllowedPlatforms,
			ProhibitedActs:   input.Body.ProhibitedActs,
			Handles:          input.Body.Handles,
			PricingTier:      input.Body.PricingTier,
			RiskRating:       input.Body.RiskRating,
			ActorID:          actorID,
		})
		if err != nil && !engine.IsAuditWarning(err) {
			return nil, handleError(err)
		}
		resp := personaResponse(p)
		resp.AuditWarning = warnString(err)
		return &struct {
			Body PersonaResponse `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-personas",
		Method:      http.MethodGet,
		Path:        "/personas",
		Summary:     "List personas",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		TalentID string `query:"talent_id" required:"false"`
		Status   string `query:"status" enum:"active,inactive" required:"false"`
		Limit    int    `query:"limit" required:"false"`
	}) (*struct {
		Body []PersonaResponse `json:"body"`
	}, error) {
		if err := requireArea(ctx, "personas"); err != nil {
			return nil, handleError(err)
		}
		items, err := e.ListPersonas(ctx, repo.PersonaFilters{
			TalentID: input.TalentID,
			Status:   input.Status,
			Limit:    input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []PersonaResponse `json:"body"`
		}{Body: mapPersonas(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-persona",
		Method:      http.MethodGet,
		Path:        "/personas/{persona_id}",
		Summary:     "Get persona",
		Errors:      []int{http.StatusNotFound, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		PersonaID string `path:"persona_id"`
	}) (*struct {
		Body PersonaResponse `json:"body"`
	}, error) {
		if err := requireArea(ctx, "personas"); err != nil {
			return nil, handleError(err)
		}
		p, err := e.GetPersona(ctx, input.PersonaID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body PersonaResponse `json:"body"`
		}{Body: personaResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-persona",
		Method:      http.MethodPatch,
		Path:        "/personas/{persona_id}",
		Summary:     "Update persona",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		PersonaID string               `path:"persona_id"`
		Body      UpdatePersonaRequest `json:"body"`
	}) (*struct {
		Body PersonaResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if err := requireArea(ctx, "personas"); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		p, err := e.UpdatePersona(ctx, input.PersonaID, engine.PersonaUpdateOptions{
			Name:             input.Body.Name,
			BrandingTone:     input.Body.BrandingTone,
			NicheTags:        input.Body.NicheTags,
			AllowedPlatforms: input.Body.AllowedPlatforms,
			ProhibitedActs:   input.Body.ProhibitedActs,
			Handles:          input.Body.Handles,
			PricingTier:      input.Body.PricingTier,
			Status:           input.Body.Status,
			RiskRating:       input.Body.RiskRating,
			ActorID:          actorID,
		})
		if err != nil && !engine.IsAuditWarning(err) {
			return nil, handleError(err)
		}
		resp := personaResponse(p)
		resp.AuditWarning = warnString(err)
		return &struct {
			Body PersonaResponse `json:"body"`
		}{Body: resp}, nil
	})
}

func registerConsents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-consent",
		Method:        http.MethodPost,
		Path:          "/consents",
		Summary:       "Record consent",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateConsentRequest `json:"body"`
	}) (*struct {
		Body ConsentResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if err := requireArea(ctx, "consents"); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		c, err := e.CreateConsent(ctx, engine.ConsentCreateOptions{
			PersonaID:         input.Body.PersonaID,
			ActType:           input.Body.ActType,
			PartnerIDs:        input.Body.PartnerIDs,
			DistributionScope: input.Body.DistributionScope,
			RevocationRules:   input.Body.RevocationRules,
			ExpiryDate:        input.Body.ExpiryDate,
			ActorID:           actorID,
		})
		if err != nil && !engine.IsAuditWarning(err) {
			return nil, handleError(err)
		}
		return &struct {
			Body ConsentResponse `json:"body"`
		}{Body: ConsentResponse{Consent: c, AuditWarning: warnString(err)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-consents",
		Method:      http.MethodGet,
		Path:        "/consents",
		Summary:     "List consents",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		PersonaID string `query:"persona_id" required:"false"`
		Status    string `query:"status" enum:"active,revoked,expired" required:"false"`
		Limit     int    `query:"limit" required:"false"`
	}) (*struct {
		Body []domain.Consent `json:"body"`
	}, error) {
		if err := requireArea(ctx, "consents"); err != nil {
			return nil, handleError(err)
		}
		items, err := e.ListConsents(ctx, repo.ConsentFilters{
			PersonaID: input.PersonaID,
			Status:    input.Status,
			Limit:     input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Consent `json:"body"`
		}{Body: nonNilConsents(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-consent",
		Method:      http.MethodGet,
		Path:        "/consents/{consent_id}",
		Summary:     "Get consent",
		Errors:      []int{http.StatusNotFound, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		ConsentID string `path:"consent_id"`
	}) (*struct {
		Body ConsentResponse `json:"body"`
	}, error) {
		if err := requireArea(ctx, "consents"); err != nil {
			return nil, handleError(err)
		}
		c, err := e.GetConsent(ctx, input.ConsentID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ConsentResponse `json:"body"`
		}{Body: ConsentResponse{Consent: c}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "revoke-consent",
		Method:      http.MethodPost,
		Path:        "/consents/{consent_id}/revoke",
		Summary:     "Revoke consent",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		ConsentID string `path:"consent_id"`
	}) (*struct {
		Body ConsentResponse `json:"body"`
	}, error) {
		if err := requireArea(ctx, "consents"); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		c, err := e.RevokeConsent(ctx, input.ConsentID, actorID)
		if err != nil && !engine.IsAuditWarning(err) {
			return nil, handleError(err)
		}
		return &struct {
			Body ConsentResponse `json:"body"`
		}{Body: ConsentResponse{Consent: c, AuditWarning: warnString(err)}}, nil
	})
}

func registerIncidents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-incident",
		Method:        http.MethodPost,
		Path:          "/incidents",
		Summary:       "Report incident",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateIncidentRequest `json:"body"`
	}) (*struct {
		Body IncidentResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if err := requireArea(ctx, "incidents"); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		in, err := e.CreateIncident(ctx, engine.IncidentCreateOptions{
			TalentID:    input.Body.TalentID,
			PersonaID:   input.Body.PersonaID,
			Type:        input.Body.Type,
			Severity:    input.Body.Severity,
			Description: input.Body.Description,
			ActorID:     actorID,
		})
		if err != nil && !engine.IsAuditWarning(err) {
			return nil, handleError(err)
		}
		return &struct {
			Body IncidentResponse `json:"body"`
		}{Body: IncidentResponse{Incident: in, AuditWarning: warnString(err)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-incidents",
		Method:      http.MethodGet,
		Path:        "/incidents",
		Summary:     "List incidents",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		TalentID  string `query:"talent_id" required:"false"`
		PersonaID string `query:"persona_id" required:"false"`
		Status    string `query:"status" enum:"open,investigating,resolved,closed" required:"false"`
		Severity  string `query:"severity" enum:"low,medium,high,critical" required:"false"`
		Limit     int    `query:"limit" required:"false"`
		Cursor    string `query:"cursor" required:"false"`
	}) (*struct {
		Body paginatedIncidents `json:"body"`
	}, error) {
		if err := requireArea(ctx, "incidents"); err != nil {
			return nil, handleError(err)
		}
		limit := input.Limit
		if limit <= 0 || limit > 200 {
			limit = 50
		}
		cursorCreatedAt, cursorID := decodeCursor(input.Cursor)
		items, err := e.ListIncidents(ctx, repo.IncidentFilters{
			TalentID:        input.TalentID,
			PersonaID:       input.PersonaID,
			Status:          input.Status,
			Severity:        input.Severity,
			Limit:           limit + 1,
			CursorCreatedAt: cursorCreatedAt,
			CursorID:        cursorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		next := ""
		if len(items) > limit {
			items = items[:limit]
			last := items[len(items)-1]
			next = encodeCursor(last.CreatedAt, last.ID)
		}
		return &struct {
			Body paginatedIncidents `json:"body"`
		}{Body: paginatedIncidents{Items: nonNilIncidents(items), NextCursor: next}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-incident",
		Method:      http.MethodGet,
		Path:        "/incidents/{incident_id}",
		Summary:     "Get incident",
		Errors:      []int{http.StatusNotFound, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		IncidentID string `path:"incident_id"`
	}) (*struct {
		Body IncidentResponse `json:"body"`
	}, error) {
		if err := requireArea(ctx, "incidents"); err != nil {
			return nil, handleError(err)
		}
		in, err := e.GetIncident(ctx, input.IncidentID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body IncidentResponse `json:"body"`
		}{Body: IncidentResponse{Incident: in}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-incident-status",
		Method:      http.MethodPost,
		Path:        "/incidents/{incident_id}/status",
		Summary:     "Transition incident",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		IncidentID string `path:"incident_id"`
		Body       struct {
			Status string `json:"status" enum:"investigating,closed"`
		} `json:"body"`
	}) (*struct {
		Body IncidentResponse `json:"body"`
	}, error) {
		if err := requireArea(ctx, "incidents"); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		in, err := e.SetIncidentStatus(ctx, input.IncidentID, input.Body.Status, actorID)
		if err != nil && !engine.IsAuditWarning(err) {
			return nil, handleError(err)
		}
		return &struct {
			Body IncidentResponse `json:"body"`
		}{Body: IncidentResponse{Incident: in, AuditWarning: warnString(err)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "resolve-incident",
		Method:      http.MethodPost,
		Path:        "/incidents/{incident_id}/resolve",
		Summary:     "Resolve incident",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		IncidentID string `path:"incident_id"`
		Body       struct {
			ResolutionNotes string `json:"resolution_notes"`
		} `json:"body"`
	}) (*struct {
		Body IncidentResponse `json:"body"`
	}, error) {
		if err := requireArea(ctx, "incidents"); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		in, err := e.ResolveIncident(ctx, input.IncidentID, input.Body.ResolutionNotes, actorID)
		if err != nil && !engine.IsAuditWarning(err) {
			return nil, handleError(err)
		}
		return &struct {
			Body IncidentResponse `json:"body"`
		}{Body: IncidentResponse{Incident: in, AuditWarning: warnString(err)}}, nil
	})
}

func registerTasks(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create task",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateTaskRequest `json:"body"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if err := requireArea(ctx, "tasks"); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.CreateTask(ctx, engine.TaskCreateOptions{
			Title:       input.Body.Title,
			Type:        input.Body.Type,
			Priority:    input.Body.Priority,
			AssigneeID:  input.Body.AssigneeID,
			TalentID:    input.Body.TalentID,
			DueDate:     input.Body.DueDate,
			Description: input.Body.Description,
			ActorID:     actorID,
		})
		if err != nil && !engine.IsAuditWarning(err) {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: TaskResponse{Task: t, AuditWarning: warnString(err)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Status     string `query:"status" enum:"pending,in_progress,completed,blocked" required:"false"`
		Type       string `query:"type" enum:"platform_appeal,brand_deal,crisis_response,talent_request,general" required:"false"`
		Priority   string `query:"priority" enum:"low,medium,high,urgent" required:"false"`
		AssigneeID string `query:"assignee_id" required:"false"`
		TalentID   string `query:"talent_id" required:"false"`
		Limit      int    `query:"limit" required:"false"`
		Cursor     string `query:"cursor" required:"false"`
	}) (*struct {
		Body paginatedTasks `json:"body"`
	}, error) {
		if err := requireArea(ctx, "tasks"); err != nil {
			return nil, handleError(err)
		}
		limit := input.Limit
		if limit <= 0 || limit > 200 {
			limit = 50
		}
		cursorCreatedAt, cursorID := decodeCursor(input.Cursor)
		items, err := e.ListTasks(ctx, repo.TaskFilters{
			Status:          input.Status,
			Type:            input.Type,
			Priority:        input.Priority,
			AssigneeID:      input.AssigneeID,
			TalentID:        input.TalentID,
			Limit:           limit + 1,
			CursorCreatedAt: cursorCreatedAt,
			CursorID:        cursorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		next := ""
		if len(items) > limit {
			items = items[:limit]
			last := items[len(items)-1]
			next = encodeCursor(last.CreatedAt, last.ID)
		}
		return &struct {
			Body paginatedTasks `json:"body"`
		}{Body: paginatedTasks{Items: nonNilTasks(items), NextCursor: next}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task-board",
		Method:      http.MethodGet,
		Path:        "/tasks/board",
		Summary:     "Tasks grouped by status",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		AssigneeID string `query:"assignee_id" required:"false"`
		TalentID   string `query:"talent_id" required:"false"`
	}) (*struct {
		Body map[string][]domain.Task `json:"body"`
	}, error) {
		if err := requireArea(ctx, "tasks"); err != nil {
			return nil, handleError(err)
		}
		board, err := e.TaskBoard(ctx, repo.TaskFilters{
			AssigneeID: input.AssigneeID,
			TalentID:   input.TalentID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string][]domain.Task `json:"body"`
		}{Body: board}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{task_id}",
		Summary:     "Get task",
		Errors:      []int{http.StatusNotFound, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		if err := requireArea(ctx, "tasks"); err != nil {
			return nil, handleError(err)
		}
		t, err := e.GetTask(ctx, input.TaskID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: TaskResponse{Task: t}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPatch,
		Path:        "/tasks/{task_id}",
		Summary:     "Update task fields",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		TaskID string            `path:"task_id"`
		Body   UpdateTaskRequest `json:"body"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if err := requireArea(ctx, "tasks"); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.UpdateTask(ctx, input.TaskID, engine.TaskUpdateOptions{
			Title:       input.Body.Title,
			Priority:    input.Body.Priority,
			AssigneeID:  input.Body.AssigneeID,
			DueDate:     input.Body.DueDate,
			Description: input.Body.Description,
			ActorID:     actorID,
		})
		if err != nil && !engine.IsAuditWarning(err) {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: TaskResponse{Task: t, AuditWarning: warnString(err)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-task-status",
		Method:      http.MethodPost,
		Path:        "/tasks/{task_id}/status",
		Summary:     "Transition task",
		Errors:      mutationErrors,
	}, func(ctx context.Context, input *struct {
		TaskID string `path:"task_id"`
		Body   struct {
			Status string `json:"status" enum:"pending,in_progress,completed,blocked"`
		} `json:"body"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		if err := requireArea(ctx, "tasks"); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		t, err := e.SetTaskStatus(ctx, input.TaskID, input.Body.Status, actorID)
		if err != nil && !engine.IsAuditWarning(err) {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: TaskResponse{Task: t, AuditWarning: warnString(err)}}, nil
	})
}

func registerWellbeing(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-wellbeing-checkin",
		Method:        http.MethodPost,
		Path:          "/talents/{talent_id}/wellbeing",
		Summary:       "Record wellbeing check-in",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		TalentID string                 `path:"talent_id"`
		Body     CreateWellbeingRequest `json:"body"`
	}) (*struct {
		Body WellbeingResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if err := requireArea(ctx, "wellbeing"); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		w, err := e.CreateWellbeingCheckin(ctx, engine.WellbeingCreateOptions{
			TalentID: input.TalentID,
			Mood:     input.Body.Mood,
			Stress:   input.Body.Stress,
			Note:     input.Body.Note,
			ActorID:  actorID,
		})
		if err != nil && !engine.IsAuditWarning(err) {
			return nil, handleError(err)
		}
		return &struct {
			Body WellbeingResponse `json:"body"`
		}{Body: WellbeingResponse{WellbeingCheckin: w, AuditWarning: warnString(err)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-wellbeing-checkins",
		Method:      http.MethodGet,
		Path:        "/talents/{talent_id}/wellbeing",
		Summary:     "List wellbeing check-ins",
		Errors:      []int{http.StatusNotFound, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		TalentID string `path:"talent_id"`
		Limit    int    `query:"limit" required:"false"`
	}) (*struct {
		Body []domain.WellbeingCheckin `json:"body"`
	}, error) {
		if err := requireArea(ctx, "wellbeing"); err != nil {
			return nil, handleError(err)
		}
		items, err := e.ListWellbeingCheckins(ctx, input.TalentID, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.WellbeingCheckin{}
		}
		return &struct {
			Body []domain.WellbeingCheckin `json:"body"`
		}{Body: items}, nil
	})
}

func registerRevenue(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-revenue-entry",
		Method:        http.MethodPost,
		Path:          "/revenue",
		Summary:       "Record revenue",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateRevenueRequest `json:"body"`
	}) (*struct {
		Body RevenueResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if err := requireArea(ctx, "finance"); err != nil {
			return nil, handleError(err)
		}
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		entry, err := e.CreateRevenueEntry(ctx, engine.RevenueCreateOptions{
			PersonaID:   input.Body.PersonaID,
			Type:        input.Body.Type,
			GrossAmount: input.Body.GrossAmount,
			PlatformFee: input.Body.PlatformFee,
			OccurredAt:  input.Body.OccurredAt,
			ActorID:     actorID,
		})
		if err != nil && !engine.IsAuditWarning(err) {
			return nil, handleError(err)
		}
		return &struct {
			Body RevenueResponse `json:"body"`
		}{Body: RevenueResponse{RevenueEntry: entry, AuditWarning: warnString(err)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-revenue-entries",
		Method:      http.MethodGet,
		Path:        "/revenue",
		Summary:     "List revenue entries",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		PersonaID string `query:"persona_id" required:"false"`
		Type      string `query:"type" enum:"subscription,ppv,tips,custom,experience" required:"false"`
		Limit     int    `query:"limit" required:"false"`
	}) (*struct {
		Body []domain.RevenueEntry `json:"body"`
	}, error) {
		if err := requireArea(ctx, "finance"); err != nil {
			return nil, handleError(err)
		}
		items, err := e.ListRevenueEntries(ctx, repo.RevenueFilters{
			PersonaID: input.PersonaID,
			Type:      input.Type,
			Limit:     input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.RevenueEntry{}
		}
		return &struct {
			Body []domain.RevenueEntry `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-revenue-summary",
		Method:      http.MethodGet,
		Path:        "/revenue/summary",
		Summary:     "Month-to-date revenue summary",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		PersonaID string `query:"persona_id" required:"false"`
	}) (*struct {
		Body domain.RevenueSummary `json:"body"`
	}, error) {
		if err := requireArea(ctx, "finance"); err != nil {
			return nil, handleError(err)
		}
		s, err := e.RevenueMonthToDate(ctx, input.PersonaID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.RevenueSummary `json:"body"`
		}{Body: s}, nil
	})
}

func registerAudit(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-audit-entries",
		Method:      http.MethodGet,
		Path:        "/audit",
		Summary:     "Read the audit trail",
		Description: "With entity_kind and entity_id, returns that entity's trail in creation order. Otherwise returns recent entries, newest first.",
		Errors:      []int{http.StatusBadRequest, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		EntityKind string `query:"entity_kind" required:"false"`
		EntityID   string `query:"entity_id" required:"false"`
		ActorID    string `query:"actor_id" required:"false"`
		Action     string `query:"action" required:"false"`
		Limit      int    `query:"limit" required:"false"`
	}) (*struct {
		Body []domain.AuditEntry `json:"body"`
	}, error) {
		if err := requireArea(ctx, "audit"); err != nil {
			return nil, handleError(err)
		}
		limit := input.Limit
		if limit <= 0 || limit > 500 {
			limit = 100
		}
		var (
			items []domain.AuditEntry
			err   error
		)
		if input.EntityKind != "" && input.EntityID != "" {
			items, err = e.Trail.ForEntity(ctx, input.EntityKind, input.EntityID, limit)
		} else {
			items, err = e.Trail.Recent(ctx, audit.Filters{
				EntityKind: input.EntityKind,
				ActorID:    input.ActorID,
				Action:     input.Action,
				Limit:      limit,
			})
		}
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.AuditEntry{}
		}
		return &struct {
			Body []domain.AuditEntry `json:"body"`
		}{Body: items}, nil
	})
}

func registerDashboard(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "dashboard-stats",
		Method:      http.MethodGet,
		Path:        "/dashboard/stats",
		Summary:     "Dashboard counters",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body domain.DashboardStats `json:"body"`
	}, error) {
		if err := requireArea(ctx, "talents"); err != nil {
			return nil, handleError(err)
		}
		s, err := e.DashboardStats(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.DashboardStats `json:"body"`
		}{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "dashboard-alerts",
		Method:      http.MethodGet,
		Path:        "/dashboard/alerts",
		Summary:     "Dashboard alerts",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.Alert `json:"body"`
	}, error) {
		if err := requireArea(ctx, "talents"); err != nil {
			return nil, handleError(err)
		}
		alerts, err := e.DashboardAlerts(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Alert `json:"body"`
		}{Body: alerts}, nil
	})
}

func registerAPIKeys(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-api-key",
		Method:        http.MethodPost,
		Path:          "/apikeys",
		Summary:       "Create API key",
		DefaultStatus: http.StatusCreated,
		Errors:        mutationErrors,
	}, func(ctx context.Context, input *struct {
		Body CreateAPIKeyRequest `json:"body"`
	}) (*struct {
		Body APIKeyCreatedResponse `json:"body"`
	}, error) {
		if len(bodyBytes(ctx)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "body required", nil)
		}
		if err := requireArea(ctx, "admin"); err != nil {
			return nil, handleError(err)
		}
		if strings.TrimSpace(input.Body.Name) == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "name is required", nil)
		}
		if len(e.Config.RoleAreas(input.Body.Role)) == 0 {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "unknown role", nil)
		}
		key, raw, err := e.CreateAPIKey(ctx, input.Body.Name, input.Body.Role)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body APIKeyCreatedResponse `json:"body"`
		}{Body: APIKeyCreatedResponse{APIKey: key, Key: raw}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-api-keys",
		Method:      http.MethodGet,
		Path:        "/apikeys",
		Summary:     "List API keys",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.APIKey `json:"body"`
	}, error) {
		if err := requireArea(ctx, "admin"); err != nil {
			return nil, handleError(err)
		}
		keys, err := e.Repo.ListAPIKeys(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		if keys == nil {
			keys = []domain.APIKey{}
		}
		return &struct {
			Body []domain.APIKey `json:"body"`
		}{Body: keys}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-api-key",
		Method:      http.MethodDelete,
		Path:        "/apikeys/{key_id}",
		Summary:     "Delete API key",
		Errors:      []int{http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		KeyID string `path:"key_id"`
	}) (*struct{}, error) {
		if err := requireArea(ctx, "admin"); err != nil {
			return nil, handleError(err)
		}
		if err := e.Repo.DeleteAPIKey(ctx, input.KeyID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}
