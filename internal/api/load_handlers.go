package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/boatyard/boatyard-server/internal/domain"
	domainerrors "github.com/boatyard/boatyard-server/internal/errors"
	"github.com/boatyard/boatyard-server/internal/service"
)

const (
	loadsCollection = "loads"
	msgNoSuchLoad   = "No load with this load_id exists"
)

func (s *Server) registerLoadRoutes() {
	jsonOnly := huma.Middlewares{s.requireJSON}

	huma.Register(s.api, huma.Operation{
		OperationID: "listLoads",
		Method:      http.MethodGet,
		Path:        "/loads",
		Summary:     "List loads",
		Description: "Returns all loads, five per page, with the total count",
		Tags:        []string{"Loads"},
		Middlewares: jsonOnly,
	}, s.handleListLoads)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createLoad",
		Method:        http.MethodPost,
		Path:          "/loads",
		Summary:       "Create load",
		Description:   "Creates a load that is not on any boat",
		Tags:          []string{"Loads"},
		Middlewares:   jsonOnly,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateLoad)

	huma.Register(s.api, huma.Operation{
		OperationID: "getLoad",
		Method:      http.MethodGet,
		Path:        "/loads/{load_id}",
		Summary:     "Get load",
		Tags:        []string{"Loads"},
		Middlewares: jsonOnly,
	}, s.handleGetLoad)

	huma.Register(s.api, huma.Operation{
		OperationID: "replaceLoad",
		Method:      http.MethodPut,
		Path:        "/loads/{load_id}",
		Summary:     "Replace load",
		Description: "Overwrites weight, country and manufacturer. The carrier is kept",
		Tags:        []string{"Loads"},
		Middlewares: jsonOnly,
	}, s.handleReplaceLoad)

	huma.Register(s.api, huma.Operation{
		OperationID: "patchLoad",
		Method:      http.MethodPatch,
		Path:        "/loads/{load_id}",
		Summary:     "Update load",
		Description: "Updates the supplied fields and keeps the rest",
		Tags:        []string{"Loads"},
		Middlewares: jsonOnly,
	}, s.handlePatchLoad)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteLoad",
		Method:        http.MethodDelete,
		Path:          "/loads/{load_id}",
		Summary:       "Delete load",
		Description:   "Deletes the load and takes it off its boat, which must belong to the caller",
		Tags:          []string{"Loads"},
		Security:      bearerSecurity,
		Middlewares:   huma.Middlewares{s.requireSubject},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteLoad)
}

// === DTOs ===

// LoadResponse contains load data in API responses.
type LoadResponse struct {
	ID           int64   `json:"id" doc:"Load ID"`
	Weight       float64 `json:"weight" doc:"Weight in pounds"`
	Country      string  `json:"country" doc:"Country of origin"`
	Manufacturer string  `json:"manufacturer" doc:"Manufacturer name"`
	Carrier      int64   `json:"carrier" doc:"ID of the boat carrying the load, or -1"`
	Self         string  `json:"self" doc:"Canonical URL of this load"`
}

// LoadOutput wraps a load response for Huma.
type LoadOutput struct {
	Body LoadResponse
}

// LoadListResponse is one page of loads.
type LoadListResponse struct {
	Items []LoadResponse `json:"items" doc:"Loads on this page"`
	Next  string         `json:"next,omitempty" doc:"URL of the next page"`
	Total int            `json:"total" doc:"Number of loads"`
}

// LoadListOutput wraps a load page for Huma.
type LoadListOutput struct {
	Body LoadListResponse
}

// ListLoadsInput contains parameters for listing loads.
type ListLoadsInput struct {
	Cursor string `query:"cursor" doc:"Continuation cursor from a previous page"`
}

// LoadBody is the request body for creating or replacing a load.
type LoadBody struct {
	_            struct{} `additionalProperties:"true"`
	Weight       float64  `json:"weight,omitempty" doc:"Weight in pounds"`
	Country      string   `json:"country,omitempty" doc:"Country of origin"`
	Manufacturer string   `json:"manufacturer,omitempty" doc:"Manufacturer name"`
}

// LoadPatchBody is the request body for a partial load update.
type LoadPatchBody struct {
	_            struct{} `additionalProperties:"true"`
	Weight       *float64 `json:"weight,omitempty" doc:"Weight in pounds"`
	Country      *string  `json:"country,omitempty" doc:"Country of origin"`
	Manufacturer *string  `json:"manufacturer,omitempty" doc:"Manufacturer name"`
}

// CreateLoadInput wraps the create load request for Huma.
type CreateLoadInput struct {
	Body LoadBody
}

// LoadPathInput identifies a load.
type LoadPathInput struct {
	LoadID string `path:"load_id" doc:"Load ID"`
}

// ReplaceLoadInput wraps the replace load request for Huma.
type ReplaceLoadInput struct {
	LoadID string `path:"load_id" doc:"Load ID"`
	Body   LoadBody
}

// PatchLoadInput wraps the patch load request for Huma.
type PatchLoadInput struct {
	LoadID string `path:"load_id" doc:"Load ID"`
	Body   LoadPatchBody
}

// === Handlers ===

func (s *Server) handleListLoads(ctx context.Context, input *ListLoadsInput) (*LoadListOutput, error) {
	page, err := s.services.Loads.List(ctx, input.Cursor)
	if err != nil {
		return nil, toAPIError(err)
	}

	items := make([]LoadResponse, len(page.Items))
	for i, l := range page.Items {
		items[i] = loadResponse(ctx, l)
	}

	return &LoadListOutput{Body: LoadListResponse{
		Items: items,
		Next:  nextLink(ctx, loadsCollection, page.Cursor),
		Total: page.Total,
	}}, nil
}

func (s *Server) handleCreateLoad(ctx context.Context, input *CreateLoadInput) (*LoadOutput, error) {
	l, err := s.services.Loads.Create(ctx, input.Body.request())
	if err != nil {
		return nil, toAPIError(err)
	}
	return &LoadOutput{Body: loadResponse(ctx, l)}, nil
}

func (s *Server) handleGetLoad(ctx context.Context, input *LoadPathInput) (*LoadOutput, error) {
	id, ok := parseID(input.LoadID)
	if !ok {
		return nil, toAPIError(domainerrors.NotFound(msgNoSuchLoad))
	}

	l, err := s.services.Loads.Get(ctx, id)
	if err != nil {
		return nil, toAPIError(err)
	}
	return &LoadOutput{Body: loadResponse(ctx, l)}, nil
}

func (s *Server) handleReplaceLoad(ctx context.Context, input *ReplaceLoadInput) (*LoadOutput, error) {
	id, ok := parseID(input.LoadID)
	if !ok {
		return nil, toAPIError(domainerrors.NotFound(msgNoSuchLoad))
	}

	l, err := s.services.Loads.Replace(ctx, id, input.Body.request())
	if err != nil {
		return nil, toAPIError(err)
	}
	return &LoadOutput{Body: loadResponse(ctx, l)}, nil
}

func (s *Server) handlePatchLoad(ctx context.Context, input *PatchLoadInput) (*LoadOutput, error) {
	id, ok := parseID(input.LoadID)
	if !ok {
		return nil, toAPIError(domainerrors.NotFound(msgNoSuchLoad))
	}

	l, err := s.services.Loads.Patch(ctx, id, domain.LoadPatch{
		Weight:       input.Body.Weight,
		Country:      input.Body.Country,
		Manufacturer: input.Body.Manufacturer,
	})
	if err != nil {
		return nil, toAPIError(err)
	}
	return &LoadOutput{Body: loadResponse(ctx, l)}, nil
}

func (s *Server) handleDeleteLoad(ctx context.Context, input *LoadPathInput) (*struct{}, error) {
	id, ok := parseID(input.LoadID)
	if !ok {
		return nil, toAPIError(domainerrors.NotFound(msgNoSuchLoad))
	}

	if err := s.services.Relationships.DeleteLoad(ctx, id, subject(ctx)); err != nil {
		return nil, toAPIError(err)
	}
	return nil, nil
}

func (b LoadBody) request() service.LoadRequest {
	return service.LoadRequest{Weight: b.Weight, Country: b.Country, Manufacturer: b.Manufacturer}
}

func loadResponse(ctx context.Context, l *domain.Load) LoadResponse {
	return LoadResponse{
		ID:           l.ID,
		Weight:       l.Weight,
		Country:      l.Country,
		Manufacturer: l.Manufacturer,
		Carrier:      l.Carrier,
		Self:         selfLink(ctx, loadsCollection, l.ID),
	}
}
