package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/boatyard/boatyard-server/internal/errors"
)

const msgNoSuchPair = "No boat with this boat_id exists, and/or no load with this load_id exists."

func (s *Server) registerRelationshipRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "assignLoad",
		Method:        http.MethodPut,
		Path:          "/boats/{boat_id}/loads/{load_id}",
		Summary:       "Put load on boat",
		Description:   "Assigns an unassigned load to one of the caller's boats",
		Tags:          []string{"Relationships"},
		Security:      bearerSecurity,
		Middlewares:   huma.Middlewares{s.requireSubject},
		DefaultStatus: http.StatusNoContent,
	}, s.handleAssignLoad)

	huma.Register(s.api, huma.Operation{
		OperationID:   "unassignLoad",
		Method:        http.MethodPut,
		Path:          "/loads/{load_id}/boats/{boat_id}",
		Summary:       "Take load off boat",
		Description:   "Removes a load from the caller's boat that carries it",
		Tags:          []string{"Relationships"},
		Security:      bearerSecurity,
		Middlewares:   huma.Middlewares{s.requireSubject},
		DefaultStatus: http.StatusNoContent,
	}, s.handleUnassignLoad)
}

// PairInput names a boat and a load.
type PairInput struct {
	BoatID string `path:"boat_id" doc:"Boat ID"`
	LoadID string `path:"load_id" doc:"Load ID"`
}

func (in *PairInput) ids() (boatID, loadID int64, err error) {
	boatID, okBoat := parseID(in.BoatID)
	loadID, okLoad := parseID(in.LoadID)
	if !okBoat || !okLoad {
		return 0, 0, domainerrors.NotFound(msgNoSuchPair)
	}
	return boatID, loadID, nil
}

func (s *Server) handleAssignLoad(ctx context.Context, input *PairInput) (*struct{}, error) {
	boatID, loadID, err := input.ids()
	if err != nil {
		return nil, toAPIError(err)
	}

	if err := s.services.Relationships.Assign(ctx, boatID, loadID, subject(ctx)); err != nil {
		return nil, toAPIError(err)
	}
	return nil, nil
}

func (s *Server) handleUnassignLoad(ctx context.Context, input *PairInput) (*struct{}, error) {
	boatID, loadID, err := input.ids()
	if err != nil {
		return nil, toAPIError(err)
	}

	if err := s.services.Relationships.Unassign(ctx, loadID, boatID, subject(ctx)); err != nil {
		return nil, toAPIError(err)
	}
	return nil, nil
}
