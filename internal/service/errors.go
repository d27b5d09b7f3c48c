package service

import (
	"errors"

	domainerrors "github.com/boatyard/boatyard-server/internal/errors"
	"github.com/boatyard/boatyard-server/internal/store"
)

// Messages returned to API clients.
const (
	msgBoatNotFound     = "No boat with this boat_id exists"
	msgLoadNotFound     = "No load with this load_id exists"
	msgPairNotFound     = "No boat with this boat_id exists, and/or no load with this load_id exists."
	msgLoadAssigned     = "Load is already on a boat."
	msgLoadNotOnBoat    = "This load is not on this boat."
	msgCarrierNotOwned  = "This load is on a boat owned by someone else."
	msgInvalidCursor    = "The cursor is not valid for this collection."
	msgStoreUnavailable = "The data store is unavailable. Try again later."
)

// fromStore converts store failures into domain errors. A missing entity
// becomes NotFound with notFound as message; anything unrecognised passes through.
func fromStore(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.NotFound(notFound).WithCause(err)
	case errors.Is(err, store.ErrInvalidCursor):
		return domainerrors.Validation(msgInvalidCursor).WithCause(err)
	case errors.Is(err, store.ErrUnavailable):
		return domainerrors.Unavailable(msgStoreUnavailable).WithCause(err)
	default:
		return err
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, domainerrors.ErrNotFound)
}
