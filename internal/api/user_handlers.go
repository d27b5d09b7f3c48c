package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listUsers",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users",
		Description: "Returns every account that has signed in through /oauth",
		Tags:        []string{"Users"},
		Middlewares: huma.Middlewares{s.requireJSON},
	}, s.handleListUsers)
}

// UserResponse contains user data in API responses.
type UserResponse struct {
	ID   int64  `json:"id" doc:"User ID"`
	Name string `json:"name" doc:"Display name from the Google profile"`
	Sub  string `json:"sub" doc:"Subject of the Google account"`
}

// ListUsersOutput wraps the user list for Huma.
type ListUsersOutput struct {
	Body []UserResponse
}

func (s *Server) handleListUsers(ctx context.Context, _ *struct{}) (*ListUsersOutput, error) {
	users, err := s.services.Users.List(ctx)
	if err != nil {
		return nil, toAPIError(err)
	}

	resp := make([]UserResponse, len(users))
	for i, u := range users {
		resp[i] = UserResponse{ID: u.ID, Name: u.Name, Sub: u.Sub}
	}
	return &ListUsersOutput{Body: resp}, nil
}
