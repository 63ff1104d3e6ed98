package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/modreg/internal/app"
	"github.com/neomorfeo/modreg/internal/domain"
)

// ModuleResponse is the API representation of a module.
type ModuleResponse struct {
	Key          string   `json:"key" doc:"Canonical identifier"`
	DisplayName  string   `json:"display_name" doc:"Human label"`
	Description  string   `json:"description,omitempty" doc:"Optional description"`
	IsCore       bool     `json:"is_core" doc:"Protected core module"`
	IsEnabled    bool     `json:"is_enabled" doc:"Operator toggle"`
	Status       string   `json:"status" doc:"Lifecycle status"`
	IsAvailable  bool     `json:"is_available" doc:"Enabled AND active; the predicate routing should trust"`
	Dependencies []string `json:"dependencies,omitempty" doc:"Immediate dependency keys"`
	MenuOrder    int      `json:"menu_order" doc:"Menu position"`
	ShowInMenu   bool     `json:"show_in_menu" doc:"Menu visibility"`
	URLPattern   string   `json:"url_pattern,omitempty" doc:"Routing prefix, opaque to the engine"`
	CreatedAt    string   `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt    string   `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
	CreatedBy    string   `json:"created_by,omitempty" doc:"Creating actor"`
	UpdatedBy    string   `json:"updated_by,omitempty" doc:"Last updating actor"`
}

const timeFormat = "2006-01-02T15:04:05Z"

func toModuleResponse(m domain.Module) ModuleResponse {
	return ModuleResponse{
		Key:          m.Key,
		DisplayName:  m.DisplayName,
		Description:  m.Description,
		IsCore:       m.IsCore,
		IsEnabled:    m.IsEnabled,
		Status:       string(m.Status),
		IsAvailable:  m.IsAvailable(),
		Dependencies: m.Dependencies,
		MenuOrder:    m.MenuOrder,
		ShowInMenu:   m.ShowInMenu,
		URLPattern:   m.URLPattern,
		CreatedAt:    m.CreatedAt.Format(timeFormat),
		UpdatedAt:    m.UpdatedAt.Format(timeFormat),
		CreatedBy:    m.CreatedBy,
		UpdatedBy:    m.UpdatedBy,
	}
}

func toModuleResponses(modules []domain.Module) []ModuleResponse {
	resp := make([]ModuleResponse, len(modules))
	for i, m := range modules {
		resp[i] = toModuleResponse(m)
	}
	return resp
}

// --- Create Module ---

type CreateModuleInput struct {
	Actor string `header:"X-Actor" required:"false" doc:"Acting administrator"`
	Body  struct {
		Key          string   `json:"key" minLength:"1" maxLength:"100" pattern:"^[a-z0-9._]+(?:-[a-z0-9._]+)*$" doc:"Canonical identifier (lowercase)"`
		DisplayName  string   `json:"display_name" minLength:"1" maxLength:"255" doc:"Human label"`
		Description  string   `json:"description,omitempty" doc:"Optional description"`
		Dependencies []string `json:"dependencies,omitempty" doc:"Immediate dependency keys"`
		MenuOrder    int      `json:"menu_order,omitempty" doc:"Menu position"`
		ShowInMenu   bool     `json:"show_in_menu,omitempty" default:"true" doc:"Menu visibility"`
		URLPattern   string   `json:"url_pattern,omitempty" doc:"Routing prefix"`
	}
}

type CreateModuleOutput struct {
	Body ModuleResponse
}

// --- Get Module ---

type GetModuleInput struct {
	Key string `path:"key" doc:"Module key (namespaced spelling tolerated)"`
}

type GetModuleOutput struct {
	Body ModuleResponse
}

// --- List Modules ---

type ListModulesInput struct {
	View string `query:"view" required:"false" default:"all" enum:"all,enabled,available,menu" doc:"Catalog slice to return"`
}

type ListModulesOutput struct {
	Body []ModuleResponse
}

// --- Enable / Disable ---

type ToggleModuleInput struct {
	Key   string `path:"key" doc:"Module key"`
	Actor string `header:"X-Actor" required:"false" doc:"Acting administrator"`
}

type ToggleModuleOutput struct {
	Body ModuleResponse
}

// --- Update Module ---

type UpdateModuleInput struct {
	Key   string `path:"key" doc:"Module key"`
	Actor string `header:"X-Actor" required:"false" doc:"Acting administrator"`
	Body  struct {
		DisplayName  *string   `json:"display_name,omitempty" maxLength:"255" doc:"Human label"`
		Description  *string   `json:"description,omitempty" doc:"Description"`
		Dependencies *[]string `json:"dependencies,omitempty" doc:"Immediate dependency keys"`
		MenuOrder    *int      `json:"menu_order,omitempty" doc:"Menu position"`
		ShowInMenu   *bool     `json:"show_in_menu,omitempty" doc:"Menu visibility"`
		URLPattern   *string   `json:"url_pattern,omitempty" doc:"Routing prefix"`
		Status       *string   `json:"status,omitempty" enum:"active,inactive,maintenance" doc:"Lifecycle status"`
	}
}

type UpdateModuleOutput struct {
	Body ModuleResponse
}

// --- Delete Module ---

type DeleteModuleInput struct {
	Key   string `path:"key" doc:"Module key"`
	Actor string `header:"X-Actor" required:"false" doc:"Acting administrator"`
}

// --- Sync ---

type SyncInput struct {
	Actor string `header:"X-Actor" required:"false" doc:"Acting deploy hook"`
	Body  struct {
		Installed []string `json:"installed" doc:"Installed package identifiers"`
		Core      []string `json:"core,omitempty" doc:"Keys that must stay enabled and active"`
	}
}

type SyncOutput struct {
	Body struct {
		Created  []string `json:"created" doc:"Keys registered by this pass"`
		Promoted []string `json:"promoted" doc:"Keys promoted to core by this pass"`
	}
}

// --- Statistics ---

type StatisticsOutput struct {
	Body struct {
		Total    int `json:"total"`
		Enabled  int `json:"enabled"`
		Disabled int `json:"disabled"`
		Core     int `json:"core"`
		Custom   int `json:"custom"`
	}
}

// Register adds all module registry API routes to the Huma API.
func Register(api huma.API, svc *app.ModuleService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-module",
		Method:      http.MethodPost,
		Path:        "/api/v1/modules",
		Summary:     "Register a new module",
		Tags:        []string{"Modules"},
	}, func(ctx context.Context, input *CreateModuleInput) (*CreateModuleOutput, error) {
		m, err := svc.Create(ctx, app.CreateModule{
			Key:          input.Body.Key,
			DisplayName:  input.Body.DisplayName,
			Description:  input.Body.Description,
			Dependencies: input.Body.Dependencies,
			MenuOrder:    input.Body.MenuOrder,
			ShowInMenu:   input.Body.ShowInMenu,
			URLPattern:   input.Body.URLPattern,
		}, input.Actor)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateModuleOutput{Body: toModuleResponse(m)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-modules",
		Method:      http.MethodGet,
		Path:        "/api/v1/modules",
		Summary:     "List modules",
		Tags:        []string{"Modules"},
	}, func(ctx context.Context, input *ListModulesInput) (*ListModulesOutput, error) {
		var (
			modules []domain.Module
			err     error
		)
		switch input.View {
		case "enabled":
			modules, err = svc.ListEnabled(ctx)
		case "available":
			modules, err = svc.ListAvailable(ctx)
		case "menu":
			modules, err = svc.ListMenu(ctx)
		default:
			modules, err = svc.ListAll(ctx)
		}
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ListModulesOutput{Body: toModuleResponses(modules)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "module-statistics",
		Method:      http.MethodGet,
		Path:        "/api/v1/modules/statistics",
		Summary:     "Summarize the catalog",
		Tags:        []string{"Modules"},
	}, func(ctx context.Context, _ *struct{}) (*StatisticsOutput, error) {
		stats, err := svc.Statistics(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		out := &StatisticsOutput{}
		out.Body.Total = stats.Total
		out.Body.Enabled = stats.Enabled
		out.Body.Disabled = stats.Disabled
		out.Body.Core = stats.Core
		out.Body.Custom = stats.Custom
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-module",
		Method:      http.MethodGet,
		Path:        "/api/v1/modules/{key}",
		Summary:     "Get a module by key",
		Tags:        []string{"Modules"},
	}, func(ctx context.Context, input *GetModuleInput) (*GetModuleOutput, error) {
		m, err := svc.Get(ctx, input.Key)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetModuleOutput{Body: toModuleResponse(m)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-module",
		Method:      http.MethodPatch,
		Path:        "/api/v1/modules/{key}",
		Summary:     "Edit module metadata, dependencies, or status",
		Tags:        []string{"Modules"},
	}, func(ctx context.Context, input *UpdateModuleInput) (*UpdateModuleOutput, error) {
		fields := app.UpdateModule{
			DisplayName:  input.Body.DisplayName,
			Description:  input.Body.Description,
			Dependencies: input.Body.Dependencies,
			MenuOrder:    input.Body.MenuOrder,
			ShowInMenu:   input.Body.ShowInMenu,
			URLPattern:   input.Body.URLPattern,
		}
		if input.Body.Status != nil {
			status := domain.Status(*input.Body.Status)
			fields.Status = &status
		}

		m, err := svc.Update(ctx, input.Key, fields, input.Actor)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &UpdateModuleOutput{Body: toModuleResponse(m)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-module",
		Method:      http.MethodDelete,
		Path:        "/api/v1/modules/{key}",
		Summary:     "Remove a non-core module",
		Tags:        []string{"Modules"},
	}, func(ctx context.Context, input *DeleteModuleInput) (*struct{}, error) {
		if err := svc.Delete(ctx, input.Key, input.Actor); err != nil {
			return nil, toHumaError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "enable-module",
		Method:      http.MethodPost,
		Path:        "/api/v1/modules/{key}/enable",
		Summary:     "Enable a module",
		Tags:        []string{"Modules"},
	}, func(ctx context.Context, input *ToggleModuleInput) (*ToggleModuleOutput, error) {
		m, err := svc.Enable(ctx, input.Key, input.Actor)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ToggleModuleOutput{Body: toModuleResponse(m)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "disable-module",
		Method:      http.MethodPost,
		Path:        "/api/v1/modules/{key}/disable",
		Summary:     "Disable a module",
		Tags:        []string{"Modules"},
	}, func(ctx context.Context, input *ToggleModuleInput) (*ToggleModuleOutput, error) {
		m, err := svc.Disable(ctx, input.Key, input.Actor)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ToggleModuleOutput{Body: toModuleResponse(m)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "sync-modules",
		Method:      http.MethodPost,
		Path:        "/api/v1/modules/sync",
		Summary:     "Reconcile the catalog with the installed package set",
		Tags:        []string{"Modules"},
	}, func(ctx context.Context, input *SyncInput) (*SyncOutput, error) {
		report, err := svc.Sync(ctx, input.Body.Installed, input.Body.Core, input.Actor)
		if err != nil {
			return nil, toHumaError(err)
		}
		out := &SyncOutput{}
		out.Body.Created = report.Created
		out.Body.Promoted = report.Promoted
		if out.Body.Created == nil {
			out.Body.Created = []string{}
		}
		if out.Body.Promoted == nil {
			out.Body.Promoted = []string{}
		}
		return out, nil
	})
}

// toHumaError translates domain errors to Huma HTTP errors. Dependency
// failures carry each offending key as a structured detail so operators see
// exactly which module is missing, inactive, or blocking.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrModuleNotFound) {
		return huma.Error404NotFound("module not found")
	}

	var dupErr *domain.DuplicateKeyError
	if errors.As(err, &dupErr) {
		return huma.Error409Conflict(dupErr.Error())
	}

	var valErr *domain.ValidationError
	if errors.As(err, &valErr) {
		return huma.Error422UnprocessableEntity(valErr.Error())
	}

	var unmetErr *domain.DependencyUnmetError
	if errors.As(err, &unmetErr) {
		details := make([]error, 0, len(unmetErr.Missing)+len(unmetErr.Inactive))
		for _, key := range unmetErr.Missing {
			details = append(details, &huma.ErrorDetail{
				Message:  "dependency is not registered",
				Location: "dependencies.missing",
				Value:    key,
			})
		}
		for _, key := range unmetErr.Inactive {
			details = append(details, &huma.ErrorDetail{
				Message:  "dependency is not available",
				Location: "dependencies.inactive",
				Value:    key,
			})
		}
		return huma.Error409Conflict(unmetErr.Error(), details...)
	}

	var depErr *domain.DependentsError
	if errors.As(err, &depErr) {
		details := make([]error, 0, len(depErr.Blockers))
		for _, key := range depErr.Blockers {
			details = append(details, &huma.ErrorDetail{
				Message:  "enabled module depends on this one",
				Location: "dependents",
				Value:    key,
			})
		}
		return huma.Error409Conflict(depErr.Error(), details...)
	}

	var coreErr *domain.CoreProtectedError
	if errors.As(err, &coreErr) {
		return huma.Error403Forbidden(coreErr.Error())
	}

	var coreStatusErr *domain.CoreStatusError
	if errors.As(err, &coreStatusErr) {
		return huma.Error403Forbidden(coreStatusErr.Error())
	}

	var cycErr *domain.CycleError
	if errors.As(err, &cycErr) {
		details := make([]error, 0, len(cycErr.Path))
		for _, key := range cycErr.Path {
			details = append(details, &huma.ErrorDetail{
				Message:  "part of dependency cycle",
				Location: "dependencies.cycle",
				Value:    key,
			})
		}
		return huma.Error422UnprocessableEntity(cycErr.Error(), details...)
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
