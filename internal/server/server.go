package server

import (
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
	"github.com/google/uuid"

	"lairkeep/internal/config"
	"lairkeep/internal/domain"
	"lairkeep/internal/engine"
	"lairkeep/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Lairkeep API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v0"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth, cfg.Engine.Repo))
	hcfg := huma.DefaultConfig("Lairkeep API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerMinions(group, cfg.Engine)
	registerSchemes(group, cfg.Engine)
	registerEquipment(group, cfg.Engine)
	registerBases(group, cfg.Engine)
	registerReport(group, cfg.Engine)
	registerSettings(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerAPIKeys(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

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
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "at capacity"):
		return newAPIError(http.StatusConflict, "conflict", msg, nil)
	case strings.Contains(lowered, "unknown"),
		strings.Contains(lowered, "invalid"),
		strings.Contains(lowered, "required"),
		strings.Contains(lowered, "out of range"),
		strings.Contains(lowered, "must be"),
		strings.Contains(lowered, "must not"),
		strings.Contains(lowered, "must satisfy"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
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
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
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
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
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
    <title>Lairkeep API Docs</title>
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

func registerMinions(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-minion",
		Method:        http.MethodPost,
		Path:          "/minions",
		Summary:       "Hire minion",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusConflict, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body CreateMinionRequest `json:"body"`
	}) (*struct {
		Body domain.Minion `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		m, err := e.CreateMinion(ctx, engine.MinionCreateOptions{
			Name:         input.Body.Name,
			SkillLevel:   input.Body.SkillLevel,
			Specialty:    input.Body.Specialty,
			Loyalty:      input.Body.Loyalty,
			SalaryDemand: input.Body.SalaryDemand,
			BaseID:       input.Body.BaseID,
			SchemeID:     input.Body.SchemeID,
			ActorID:      actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Minion `json:"body"`
		}{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-minions",
		Method:      http.MethodGet,
		Path:        "/minions",
		Summary:     "List minions",
	}, func(ctx context.Context, input *struct {
		SchemeID  int64  `query:"scheme_id"`
		BaseID    int64  `query:"base_id"`
		Specialty string `query:"specialty"`
	}) (*struct {
		Body []domain.Minion `json:"body"`
	}, error) {
		items, err := e.Repo.ListMinions(ctx, repo.MinionFilters{
			SchemeID:  input.SchemeID,
			BaseID:    input.BaseID,
			Specialty: input.Specialty,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Minion `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-minion",
		Method:      http.MethodGet,
		Path:        "/minions/{minion_id}",
		Summary:     "Get minion",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MinionID int64 `path:"minion_id"`
	}) (*struct {
		Body domain.Minion `json:"body"`
	}, error) {
		m, err := e.Repo.GetMinion(ctx, input.MinionID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Minion `json:"body"`
		}{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-minion",
		Method:      http.MethodPatch,
		Path:        "/minions/{minion_id}",
		Summary:     "Update minion",
		Errors:      []int{http.StatusBadRequest, http.StatusConflict, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MinionID int64               `path:"minion_id"`
		Body     UpdateMinionRequest `json:"body"`
	}) (*struct {
		Body domain.Minion `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		m, err := e.UpdateMinion(ctx, engine.MinionUpdateOptions{
			ID:           input.MinionID,
			Name:         input.Body.Name,
			SkillLevel:   input.Body.SkillLevel,
			Specialty:    input.Body.Specialty,
			Loyalty:      input.Body.Loyalty,
			SalaryDemand: input.Body.SalaryDemand,
			SetBase:      input.Body.BaseID,
			SetScheme:    input.Body.SchemeID,
			ActorID:      actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Minion `json:"body"`
		}{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-minion",
		Method:        http.MethodDelete,
		Path:          "/minions/{minion_id}",
		Summary:       "Delete minion",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MinionID int64 `path:"minion_id"`
	}) (*struct{}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteMinion(ctx, input.MinionID, actorID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "pay-minion",
		Method:      http.MethodPost,
		Path:        "/minions/{minion_id}/pay",
		Summary:     "Pay minion",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MinionID int64            `path:"minion_id"`
		Body     PayMinionRequest `json:"body"`
	}) (*struct {
		Body PayMinionResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		m, err := e.PayMinion(ctx, input.MinionID, input.Body.Amount, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body PayMinionResponse `json:"body"`
		}{Body: PayMinionResponse{Minion: m, Amount: input.Body.Amount}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "refresh-minion-mood",
		Method:      http.MethodPost,
		Path:        "/minions/{minion_id}/mood",
		Summary:     "Re-derive minion mood from loyalty",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		MinionID int64 `path:"minion_id"`
	}) (*struct {
		Body domain.Minion `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		m, err := e.RefreshMood(ctx, input.MinionID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Minion `json:"body"`
		}{Body: m}, nil
	})
}

func registerSchemes(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-scheme",
		Method:        http.MethodPost,
		Path:          "/schemes",
		Summary:       "Plot scheme",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateSchemeRequest `json:"body"`
	}) (*struct {
		Body domain.Scheme `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		s, err := e.CreateScheme(ctx, engine.SchemeCreateOptions{
			Name:               input.Body.Name,
			Description:        input.Body.Description,
			Budget:             input.Body.Budget,
			RequiredSkillLevel: input.Body.RequiredSkillLevel,
			RequiredSpecialty:  input.Body.RequiredSpecialty,
			Status:             input.Body.Status,
			StartDate:          input.Body.StartDate,
			TargetDate:         input.Body.TargetDate,
			DiabolicalRating:   input.Body.DiabolicalRating,
			ActorID:            actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Scheme `json:"body"`
		}{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-schemes",
		Method:      http.MethodGet,
		Path:        "/schemes",
		Summary:     "List schemes",
	}, func(ctx context.Context, input *struct {
		Status     string `query:"status"`
		OverBudget bool   `query:"over_budget"`
		Overdue    bool   `query:"overdue"`
	}) (*struct {
		Body []domain.Scheme `json:"body"`
	}, error) {
		var items []domain.Scheme
		var err error
		switch {
		case input.OverBudget:
			items, err = e.Repo.ListOverBudgetSchemes(ctx)
		case input.Overdue:
			items, err = e.ListOverdueSchemes(ctx)
		default:
			items, err = e.Repo.ListSchemes(ctx, input.Status)
		}
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Scheme `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-scheme",
		Method:      http.MethodGet,
		Path:        "/schemes/{scheme_id}",
		Summary:     "Get scheme",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SchemeID int64 `path:"scheme_id"`
	}) (*struct {
		Body domain.Scheme `json:"body"`
	}, error) {
		s, err := e.Repo.GetScheme(ctx, input.SchemeID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Scheme `json:"body"`
		}{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-scheme",
		Method:      http.MethodPatch,
		Path:        "/schemes/{scheme_id}",
		Summary:     "Update scheme",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SchemeID int64               `path:"scheme_id"`
		Body     UpdateSchemeRequest `json:"body"`
	}) (*struct {
		Body domain.Scheme `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		s, err := e.UpdateScheme(ctx, engine.SchemeUpdateOptions{
			ID:                 input.SchemeID,
			Name:               input.Body.Name,
			Description:        input.Body.Description,
			Budget:             input.Body.Budget,
			Spend:              input.Body.Spend,
			RequiredSkillLevel: input.Body.RequiredSkillLevel,
			RequiredSpecialty:  input.Body.RequiredSpecialty,
			Status:             input.Body.Status,
			StartDate:          input.Body.StartDate,
			TargetDate:         input.Body.TargetDate,
			DiabolicalRating:   input.Body.DiabolicalRating,
			ActorID:            actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Scheme `json:"body"`
		}{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-scheme",
		Method:        http.MethodDelete,
		Path:          "/schemes/{scheme_id}",
		Summary:       "Delete scheme",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SchemeID int64 `path:"scheme_id"`
	}) (*struct{}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteScheme(ctx, input.SchemeID, actorID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "scheme-success",
		Method:      http.MethodGet,
		Path:        "/schemes/{scheme_id}/success",
		Summary:     "Compute success likelihood without persisting",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SchemeID int64 `path:"scheme_id"`
	}) (*struct {
		Body SchemeSuccessResponse `json:"body"`
	}, error) {
		s, err := e.Repo.GetScheme(ctx, input.SchemeID)
		if err != nil {
			return nil, handleError(err)
		}
		score, err := e.SuccessLikelihood(ctx, &s)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SchemeSuccessResponse `json:"body"`
		}{Body: SchemeSuccessResponse{SchemeID: s.ID, SuccessLikelihood: score}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "rescore-scheme",
		Method:      http.MethodPost,
		Path:        "/schemes/{scheme_id}/rescore",
		Summary:     "Recompute and persist success likelihood",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SchemeID int64 `path:"scheme_id"`
	}) (*struct {
		Body domain.Scheme `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		s, err := e.RescoreScheme(ctx, input.SchemeID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Scheme `json:"body"`
		}{Body: s}, nil
	})
}

func registerEquipment(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-equipment",
		Method:        http.MethodPost,
		Path:          "/equipment",
		Summary:       "Register equipment",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body CreateEquipmentRequest `json:"body"`
	}) (*struct {
		Body domain.Equipment `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		eq, err := e.CreateEquipment(ctx, engine.EquipmentCreateOptions{
			Name:               input.Body.Name,
			Category:           input.Body.Category,
			Condition:          input.Body.Condition,
			PurchasePrice:      input.Body.PurchasePrice,
			SchemeID:           input.Body.SchemeID,
			BaseID:             input.Body.BaseID,
			RequiresSpecialist: input.Body.RequiresSpecialist,
			ActorID:            actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Equipment `json:"body"`
		}{Body: eq}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-equipment",
		Method:      http.MethodGet,
		Path:        "/equipment",
		Summary:     "List equipment",
	}, func(ctx context.Context, input *struct {
		SchemeID int64  `query:"scheme_id"`
		BaseID   int64  `query:"base_id"`
		Category string `query:"category"`
	}) (*struct {
		Body []domain.Equipment `json:"body"`
	}, error) {
		items, err := e.Repo.ListEquipment(ctx, repo.EquipmentFilters{
			SchemeID: input.SchemeID,
			BaseID:   input.BaseID,
			Category: input.Category,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Equipment `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-equipment",
		Method:      http.MethodGet,
		Path:        "/equipment/{equipment_id}",
		Summary:     "Get equipment",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		EquipmentID int64 `path:"equipment_id"`
	}) (*struct {
		Body domain.Equipment `json:"body"`
	}, error) {
		eq, err := e.Repo.GetEquipment(ctx, input.EquipmentID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Equipment `json:"body"`
		}{Body: eq}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-equipment",
		Method:      http.MethodPatch,
		Path:        "/equipment/{equipment_id}",
		Summary:     "Update equipment",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		EquipmentID int64                  `path:"equipment_id"`
		Body        UpdateEquipmentRequest `json:"body"`
	}) (*struct {
		Body domain.Equipment `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		eq, err := e.UpdateEquipment(ctx, engine.EquipmentUpdateOptions{
			ID:                 input.EquipmentID,
			Name:               input.Body.Name,
			Category:           input.Body.Category,
			Condition:          input.Body.Condition,
			PurchasePrice:      input.Body.PurchasePrice,
			SetScheme:          input.Body.SchemeID,
			SetBase:            input.Body.BaseID,
			RequiresSpecialist: input.Body.RequiresSpecialist,
			ActorID:            actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Equipment `json:"body"`
		}{Body: eq}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-equipment",
		Method:        http.MethodDelete,
		Path:          "/equipment/{equipment_id}",
		Summary:       "Delete equipment",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		EquipmentID int64 `path:"equipment_id"`
	}) (*struct{}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteEquipment(ctx, input.EquipmentID, actorID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "degrade-equipment",
		Method:      http.MethodPost,
		Path:        "/equipment/{equipment_id}/degrade",
		Summary:     "Apply one wear step",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		EquipmentID int64 `path:"equipment_id"`
	}) (*struct {
		Body domain.Equipment `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		eq, err := e.DegradeEquipment(ctx, input.EquipmentID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Equipment `json:"body"`
		}{Body: eq}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "maintain-equipment",
		Method:      http.MethodPost,
		Path:        "/equipment/{equipment_id}/maintain",
		Summary:     "Restore condition and compute cost",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		EquipmentID int64 `path:"equipment_id"`
	}) (*struct {
		Body MaintainEquipmentResponse `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		eq, cost, err := e.MaintainEquipment(ctx, input.EquipmentID, actorID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MaintainEquipmentResponse `json:"body"`
		}{Body: MaintainEquipmentResponse{Equipment: eq, Cost: cost}}, nil
	})
}

func registerBases(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-base",
		Method:        http.MethodPost,
		Path:          "/bases",
		Summary:       "Establish base",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateBaseRequest `json:"body"`
	}) (*struct {
		Body domain.Base `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		b, err := e.CreateBase(ctx, engine.BaseCreateOptions{
			Name:              input.Body.Name,
			Location:          input.Body.Location,
			Capacity:          input.Body.Capacity,
			SecurityLevel:     input.Body.SecurityLevel,
			MonthlyUpkeep:     input.Body.MonthlyUpkeep,
			HasDoomsdayDevice: input.Body.HasDoomsdayDevice,
			ActorID:           actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Base `json:"body"`
		}{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-bases",
		Method:      http.MethodGet,
		Path:        "/bases",
		Summary:     "List bases",
	}, func(ctx context.Context, input *struct {
		Location    string `query:"location"`
		Doomsday    bool   `query:"doomsday"`
		Compromised bool   `query:"compromised"`
	}) (*struct {
		Body []domain.Base `json:"body"`
	}, error) {
		items, err := e.Repo.ListBases(ctx, repo.BaseFilters{
			Location:    input.Location,
			Doomsday:    input.Doomsday,
			Compromised: input.Compromised,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Base `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-base",
		Method:      http.MethodGet,
		Path:        "/bases/{base_id}",
		Summary:     "Get base with occupancy",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		BaseID int64 `path:"base_id"`
	}) (*struct {
		Body BaseResponse `json:"body"`
	}, error) {
		b, err := e.Repo.GetBase(ctx, input.BaseID)
		if err != nil {
			return nil, handleError(err)
		}
		occupancy, err := e.BaseOccupancy(ctx, b.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body BaseResponse `json:"body"`
		}{Body: BaseResponse{Base: b, Occupancy: occupancy, AtCapacity: occupancy >= b.Capacity}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-base",
		Method:      http.MethodPatch,
		Path:        "/bases/{base_id}",
		Summary:     "Update base",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		BaseID int64             `path:"base_id"`
		Body   UpdateBaseRequest `json:"body"`
	}) (*struct {
		Body domain.Base `json:"body"`
	}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		b, err := e.UpdateBase(ctx, engine.BaseUpdateOptions{
			ID:                input.BaseID,
			Name:              input.Body.Name,
			Location:          input.Body.Location,
			Capacity:          input.Body.Capacity,
			SecurityLevel:     input.Body.SecurityLevel,
			MonthlyUpkeep:     input.Body.MonthlyUpkeep,
			HasDoomsdayDevice: input.Body.HasDoomsdayDevice,
			Compromised:       input.Body.Compromised,
			Inspected:         input.Body.Inspected,
			ActorID:           actorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Base `json:"body"`
		}{Body: b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-base",
		Method:        http.MethodDelete,
		Path:          "/bases/{base_id}",
		Summary:       "Delete base",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		BaseID int64 `path:"base_id"`
	}) (*struct{}, error) {
		actorID, authErr := actorIDFromContext(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.DeleteBase(ctx, input.BaseID, actorID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerReport(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "report",
		Method:      http.MethodGet,
		Path:        "/report",
		Summary:     "Fleet-wide status report",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body ReportResponse `json:"body"`
	}, error) {
		rep, err := e.BuildReport(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ReportResponse `json:"body"`
		}{Body: rep}, nil
	})
}

func registerSettings(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-settings",
		Method:      http.MethodGet,
		Path:        "/settings",
		Summary:     "Get rule tunables",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body config.Config `json:"body"`
	}, error) {
		stored, err := e.Repo.GetSettings(ctx)
		if err != nil {
			if !errors.Is(err, repo.ErrNotFound) {
				return nil, handleError(err)
			}
			cfg := e.Tunables()
			stored = &cfg
		}
		return &struct {
			Body config.Config `json:"body"`
		}{Body: *stored}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "put-settings",
		Method:      http.MethodPut,
		Path:        "/settings",
		Summary:     "Replace rule tunables",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body config.Config `json:"body"`
	}) (*struct {
		Body config.Config `json:"body"`
	}, error) {
		cfg := input.Body
		if err := cfg.Validate(); err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), nil)
		}
		if err := e.Repo.UpsertSettings(ctx, &cfg); err != nil {
			return nil, handleError(err)
		}
		e.ReplaceConfig(cfg)
		return &struct {
			Body config.Config `json:"body"`
		}{Body: cfg}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List audit events",
	}, func(ctx context.Context, input *struct {
		Limit      int    `query:"limit"`
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind"`
		EntityID   int64  `query:"entity_id"`
	}) (*struct {
		Body []domain.Event `json:"body"`
	}, error) {
		items, err := e.Repo.ListEvents(ctx, input.Limit, input.Type, input.EntityKind, input.EntityID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Event `json:"body"`
		}{Body: items}, nil
	})
}

func registerAPIKeys(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-api-key",
		Method:        http.MethodPost,
		Path:          "/apikeys",
		Summary:       "Create API key",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreateAPIKeyRequest `json:"body"`
	}) (*struct {
		Body APIKeyResponse `json:"body"`
	}, error) {
		if input.Body.ActorID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "actor_id is required", nil)
		}
		plaintext := uuid.NewString()
		key := domain.APIKey{
			ID:      uuid.NewString(),
			ActorID: input.Body.ActorID,
			Name:    input.Body.Name,
			KeyHash: repo.HashAPIKey(plaintext),
		}
		if err := e.Repo.InsertAPIKey(ctx, key); err != nil {
			return nil, handleError(err)
		}
		stored, err := e.Repo.GetAPIKeyByHash(ctx, key.KeyHash)
		if err != nil {
			return nil, handleError(err)
		}
		resp := apiKeyResponse(stored)
		resp.Key = plaintext
		return &struct {
			Body APIKeyResponse `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-api-keys",
		Method:      http.MethodGet,
		Path:        "/apikeys",
		Summary:     "List API keys",
	}, func(ctx context.Context, input *struct {
		ActorID string `query:"actor_id"`
	}) (*struct {
		Body []APIKeyResponse `json:"body"`
	}, error) {
		keys, err := e.Repo.ListAPIKeys(ctx, input.ActorID)
		if err != nil {
			return nil, handleError(err)
		}
		out := make([]APIKeyResponse, 0, len(keys))
		for _, k := range keys {
			out = append(out, apiKeyResponse(k))
		}
		return &struct {
			Body []APIKeyResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-api-key",
		Method:        http.MethodDelete,
		Path:          "/apikeys/{key_id}",
		Summary:       "Delete API key",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		KeyID string `path:"key_id"`
	}) (*struct{}, error) {
		if err := e.Repo.DeleteAPIKey(ctx, input.KeyID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}
