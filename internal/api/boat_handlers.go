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
	boatsCollection = "boats"
	msgNoSuchBoat   = "No boat with this boat_id exists"
)

func (s *Server) registerBoatRoutes() {
	owned := huma.Middlewares{s.requireSubject, s.requireJSON}

	huma.Register(s.api, huma.Operation{
		OperationID: "listBoats",
		Method:      http.MethodGet,
		Path:        "/boats",
		Summary:     "List boats",
		Description: "Returns the caller's boats, five per page, with the total count",
		Tags:        []string{"Boats"},
		Security:    bearerSecurity,
		Middlewares: owned,
	}, s.handleListBoats)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBoat",
		Method:        http.MethodPost,
		Path:          "/boats",
		Summary:       "Create boat",
		Description:   "Creates a boat owned by the caller with no loads",
		Tags:          []string{"Boats"},
		Security:      bearerSecurity,
		Middlewares:   owned,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBoat)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBoat",
		Method:      http.MethodGet,
		Path:        "/boats/{boat_id}",
		Summary:     "Get boat",
		Description: "Returns one of the caller's boats",
		Tags:        []string{"Boats"},
		Security:    bearerSecurity,
		Middlewares: owned,
	}, s.handleGetBoat)

	huma.Register(s.api, huma.Operation{
		OperationID: "replaceBoat",
		Method:      http.MethodPut,
		Path:        "/boats/{boat_id}",
		Summary:     "Replace boat",
		Description: "Overwrites name, type and length. The load list is kept",
		Tags:        []string{"Boats"},
		Security:    bearerSecurity,
		Middlewares: owned,
	}, s.handleReplaceBoat)

	huma.Register(s.api, huma.Operation{
		OperationID: "patchBoat",
		Method:      http.MethodPatch,
		Path:        "/boats/{boat_id}",
		Summary:     "Update boat",
		Description: "Updates the supplied fields and keeps the rest",
		Tags:        []string{"Boats"},
		Security:    bearerSecurity,
		Middlewares: owned,
	}, s.handlePatchBoat)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteBoat",
		Method:        http.MethodDelete,
		Path:          "/boats/{boat_id}",
		Summary:       "Delete boat",
		Description:   "Deletes the boat and unloads everything it carried",
		Tags:          []string{"Boats"},
		Security:      bearerSecurity,
		Middlewares:   huma.Middlewares{s.requireSubject},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteBoat)
}

// === DTOs ===

// BoatResponse contains boat data in API responses.
type BoatResponse struct {
	ID     int64   `json:"id" doc:"Boat ID"`
	Name   string  `json:"name" doc:"Boat name"`
	Type   string  `json:"type" doc:"Kind of vessel"`
	Length float64 `json:"length" doc:"Length in feet"`
	Owner  string  `json:"owner" doc:"Subject of the owning account"`
	Loads  []int64 `json:"loads" doc:"IDs of the loads on this boat, in assignment order"`
	Self   string  `json:"self" doc:"Canonical URL of this boat"`
}

// BoatOutput wraps a boat response for Huma.
type BoatOutput struct {
	Body BoatResponse
}

// BoatListResponse is one page of boats.
type BoatListResponse struct {
	Items []BoatResponse `json:"items" doc:"Boats on this page"`
	Next  string         `json:"next,omitempty" doc:"URL of the next page"`
	Total int            `json:"total" doc:"Number of boats the caller owns"`
}

// BoatListOutput wraps a boat page for Huma.
type BoatListOutput struct {
	Body BoatListResponse
}

// ListBoatsInput contains parameters for listing boats.
type ListBoatsInput struct {
	Cursor string `query:"cursor" doc:"Continuation cursor from a previous page"`
}

// BoatBody is the request body for creating or replacing a boat.
// Presence and ranges are checked by the boat service so every failure
// carries the same message.
type BoatBody struct {
	_      struct{} `additionalProperties:"true"`
	Name   string   `json:"name,omitempty" doc:"Boat name"`
	Type   string   `json:"type,omitempty" doc:"Kind of vessel"`
	Length float64  `json:"length,omitempty" doc:"Length in feet"`
}

// BoatPatchBody is the request body for a partial boat update.
type BoatPatchBody struct {
	_      struct{} `additionalProperties:"true"`
	Name   *string  `json:"name,omitempty" doc:"Boat name"`
	Type   *string  `json:"type,omitempty" doc:"Kind of vessel"`
	Length *float64 `json:"length,omitempty" doc:"Length in feet"`
}

// CreateBoatInput wraps the create boat request for Huma.
type CreateBoatInput struct {
	Body BoatBody
}

// BoatPathInput identifies a boat.
type BoatPathInput struct {
	BoatID string `path:"boat_id" doc:"Boat ID"`
}

// ReplaceBoatInput wraps the replace boat request for Huma.
type ReplaceBoatInput struct {
	BoatID string `path:"boat_id" doc:"Boat ID"`
	Body   BoatBody
}

// PatchBoatInput wraps the patch boat request for Huma.
type PatchBoatInput struct {
	BoatID string `path:"boat_id" doc:"Boat ID"`
	Body   BoatPatchBody
}

// === Handlers ===

func (s *Server) handleListBoats(ctx context.Context, input *ListBoatsInput) (*BoatListOutput, error) {
	page, err := s.services.Boats.List(ctx, subject(ctx), input.Cursor)
	if err != nil {
		return nil, toAPIError(err)
	}

	items := make([]BoatResponse, len(page.Items))
	for i, b := range page.Items {
		items[i] = boatResponse(ctx, b)
	}

	return &BoatListOutput{Body: BoatListResponse{
		Items: items,
		Next:  nextLink(ctx, boatsCollection, page.Cursor),
		Total: page.Total,
	}}, nil
}

func (s *Server) handleCreateBoat(ctx context.Context, input *CreateBoatInput) (*BoatOutput, error) {
	b, err := s.services.Boats.Create(ctx, subject(ctx), input.Body.request())
	if err != nil {
		return nil, toAPIError(err)
	}
	return &BoatOutput{Body: boatResponse(ctx, b)}, nil
}

func (s *Server) handleGetBoat(ctx context.Context, input *BoatPathInput) (*BoatOutput, error) {
	id, ok := parseID(input.BoatID)
	if !ok {
		return nil, toAPIError(domainerrors.NotFound(msgNoSuchBoat))
	}

	b, err := s.services.Boats.Get(ctx, id, subject(ctx))
	if err != nil {
		return nil, toAPIError(err)
	}
	return &BoatOutput{Body: boatResponse(ctx, b)}, nil
}

func (s *Server) handleReplaceBoat(ctx context.Context, input *ReplaceBoatInput) (*BoatOutput, error) {
	id, ok := parseID(input.BoatID)
	if !ok {
		return nil, toAPIError(domainerrors.NotFound(msgNoSuchBoat))
	}

	b, err := s.services.Boats.Replace(ctx, id, subject(ctx), input.Body.request())
	if err != nil {
		return nil, toAPIError(err)
	}
	return &BoatOutput{Body: boatResponse(ctx, b)}, nil
}

func (s *Server) handlePatchBoat(ctx context.Context, input *PatchBoatInput) (*BoatOutput, error) {
	id, ok := parseID(input.BoatID)
	if !ok {
		return nil, toAPIError(domainerrors.NotFound(msgNoSuchBoat))
	}

	b, err := s.services.Boats.Patch(ctx, id, subject(ctx), domain.BoatPatch{
		Name:   input.Body.Name,
		Type:   input.Body.Type,
		Length: input.Body.Length,
	})
	if err != nil {
		return nil, toAPIError(err)
	}
	return &BoatOutput{Body: boatResponse(ctx, b)}, nil
}

func (s *Server) handleDeleteBoat(ctx context.Context, input *BoatPathInput) (*struct{}, error) {
	id, ok := parseID(input.BoatID)
	if !ok {
		return nil, toAPIError(domainerrors.NotFound(msgNoSuchBoat))
	}

	if err := s.services.Relationships.DeleteBoat(ctx, id, subject(ctx)); err != nil {
		return nil, toAPIError(err)
	}
	return nil, nil
}

func (b BoatBody) request() service.BoatRequest {
	return service.BoatRequest{Name: b.Name, Type: b.Type, Length: b.Length}
}

func boatResponse(ctx context.Context, b *domain.Boat) BoatResponse {
	loads := b.Loads
	if loads == nil {
		loads = []int64{}
	}
	return BoatResponse{
		ID:     b.ID,
		Name:   b.Name,
		Type:   b.Type,
		Length: b.Length,
		Owner:  b.Owner,
		Loads:  loads,
		Self:   selfLink(ctx, boatsCollection, b.ID),
	}
}
