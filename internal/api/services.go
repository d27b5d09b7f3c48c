package api

import "github.com/boatyard/boatyard-server/internal/service"

// Services groups the business services used by the API server.
type Services struct {
	Boats         *service.BoatService
	Loads         *service.LoadService
	Relationships *service.RelationshipService
	Users         *service.UserService
	Login         *service.LoginService
}
