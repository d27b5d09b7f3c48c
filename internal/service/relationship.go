package service

import (
	"context"
	"log/slog"
	"slices"

	"github.com/boatyard/boatyard-server/internal/domain"
	domainerrors "github.com/boatyard/boatyard-server/internal/errors"
)

// RelationshipService keeps boat.loads and load.carrier pointing at each other.
//
// For every boat B and load L, L.id is in B.loads exactly when L.carrier is B.id.
// The store has no multi-entity transactions, so each operation writes the
// load first and the boat second; when the second write fails the first one
// is undone. Within one process, boat and load locks are always taken in that
// order (boat, then load) so concurrent operations on the same pair serialise.
type RelationshipService struct {
	boats  *BoatService
	loads  *LoadService
	logger *slog.Logger
}

// NewRelationshipService creates a relationship service over the two registries.
func NewRelationshipService(boats *BoatService, loads *LoadService, logger *slog.Logger) *RelationshipService {
	return &RelationshipService{boats: boats, loads: loads, logger: logger}
}

// Assign puts an unassigned load on one of owner's boats.
func (s *RelationshipService) Assign(ctx context.Context, boatID, loadID int64, owner string) error {
	defer s.boats.locks.lock(boatID)()
	defer s.loads.locks.lock(loadID)()

	boat, load, err := s.pair(ctx, boatID, loadID, owner)
	if err != nil {
		return err
	}
	if load.Assigned() {
		return domainerrors.Conflict(msgLoadAssigned)
	}

	load.Carrier = boatID
	if err := s.loads.write(ctx, load); err != nil {
		return err
	}

	if !boat.HasLoad(loadID) {
		boat.AddLoad(loadID)
	}
	if err := s.boats.write(ctx, boat); err != nil {
		load.Carrier = domain.NoCarrier
		s.restoreLoad(ctx, load, err)
		return err
	}

	s.logger.Info("load assigned", "boat_id", boatID, "load_id", loadID, "owner", owner)
	return nil
}

// Unassign takes a load off the boat that currently carries it.
// The boat named by the caller must be the load's carrier.
func (s *RelationshipService) Unassign(ctx context.Context, loadID, boatID int64, owner string) error {
	defer s.boats.locks.lock(boatID)()
	defer s.loads.locks.lock(loadID)()

	boat, load, err := s.pair(ctx, boatID, loadID, owner)
	if err != nil {
		return err
	}
	if load.Carrier != boatID {
		return domainerrors.Conflict(msgLoadNotOnBoat)
	}

	load.Carrier = domain.NoCarrier
	if err := s.loads.write(ctx, load); err != nil {
		return err
	}

	boat.RemoveLoad(loadID)
	if err := s.boats.write(ctx, boat); err != nil {
		load.Carrier = boatID
		s.restoreLoad(ctx, load, err)
		return err
	}

	s.logger.Info("load unassigned", "boat_id", boatID, "load_id", loadID, "owner", owner)
	return nil
}

// DeleteBoat unassigns every load the boat carries, then deletes the boat.
// Loads that name the boat as carrier without being on its list are
// released too, so none is left pointing at a deleted boat.
func (s *RelationshipService) DeleteBoat(ctx context.Context, boatID int64, owner string) error {
	defer s.boats.locks.lock(boatID)()

	boat, err := s.boats.Get(ctx, boatID, owner)
	if err != nil {
		return err
	}
	carried, err := s.loads.carriedBy(ctx, boatID)
	if err != nil {
		return err
	}

	listed := make(map[int64]bool, len(boat.Loads))
	for _, loadID := range boat.Loads {
		listed[loadID] = true
	}
	for _, loadID := range carried {
		if !listed[loadID] {
			s.logger.Warn("load names a boat that does not list it", "boat_id", boatID, "load_id", loadID)
		}
	}

	var released []*domain.Load
	seen := make(map[int64]bool, len(boat.Loads)+len(carried))
	for _, loadID := range slices.Concat(boat.Loads, carried) {
		if seen[loadID] {
			continue
		}
		seen[loadID] = true

		load, err := s.release(ctx, boatID, loadID)
		if err != nil {
			s.reassign(ctx, boatID, released)
			return err
		}
		if load != nil {
			released = append(released, load)
		}
	}

	if err := s.boats.remove(ctx, boatID); err != nil {
		s.reassign(ctx, boatID, released)
		return err
	}

	s.logger.Info("boat deleted", "boat_id", boatID, "owner", owner, "released_loads", len(released))
	return nil
}

// release sets one load's carrier to NoCarrier when it still points at boatID.
// It returns nil when the load is gone or already points elsewhere.
func (s *RelationshipService) release(ctx context.Context, boatID, loadID int64) (*domain.Load, error) {
	defer s.loads.locks.lock(loadID)()

	load, err := s.loads.Get(ctx, loadID)
	if isNotFound(err) {
		s.logger.Warn("boat lists a missing load", "boat_id", boatID, "load_id", loadID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if load.Carrier != boatID {
		s.logger.Warn("boat lists a load carried elsewhere",
			"boat_id", boatID, "load_id", loadID, "carrier", load.Carrier)
		return nil, nil
	}

	load.Carrier = domain.NoCarrier
	if err := s.loads.write(ctx, load); err != nil {
		return nil, err
	}
	return load, nil
}

// DeleteLoad removes the load from its carrier's list, then deletes it.
// The carrier must belong to owner. A carrier that no longer exists is ignored.
func (s *RelationshipService) DeleteLoad(ctx context.Context, loadID int64, owner string) error {
	for {
		load, err := s.loads.Get(ctx, loadID)
		if err != nil {
			return err
		}

		done, err := s.deleteLoadVia(ctx, load.Carrier, loadID, owner)
		if done || err != nil {
			return err
		}
		// The carrier changed between the unlocked read and taking the locks.
	}
}

func (s *RelationshipService) deleteLoadVia(ctx context.Context, carrier, loadID int64, owner string) (bool, error) {
	if carrier != domain.NoCarrier {
		defer s.boats.locks.lock(carrier)()
	}
	defer s.loads.locks.lock(loadID)()

	load, err := s.loads.Get(ctx, loadID)
	if err != nil {
		return true, err
	}
	if load.Carrier != carrier {
		return false, nil
	}

	if !load.Assigned() {
		return true, s.deleteLoadRecord(ctx, loadID, owner)
	}

	boat, err := s.boats.fetch(ctx, carrier)
	if isNotFound(err) {
		s.logger.Warn("load carried by a missing boat", "load_id", loadID, "carrier", carrier)
		return true, s.deleteLoadRecord(ctx, loadID, owner)
	}
	if err != nil {
		return true, err
	}
	if !boat.OwnedBy(owner) {
		return true, domainerrors.Conflict(msgCarrierNotOwned)
	}

	boat.RemoveLoad(loadID)
	if err := s.boats.write(ctx, boat); err != nil {
		return true, err
	}

	if err := s.loads.remove(ctx, loadID); err != nil {
		boat.AddLoad(loadID)
		if rerr := s.boats.write(ctx, boat); rerr != nil {
			s.logger.Error("failed to restore boat after load delete failed",
				"boat_id", carrier, "load_id", loadID, "error", rerr, "cause", err)
		}
		return true, err
	}

	s.logger.Info("load deleted", "load_id", loadID, "carrier", carrier, "owner", owner)
	return true, nil
}

func (s *RelationshipService) deleteLoadRecord(ctx context.Context, loadID int64, owner string) error {
	if err := s.loads.remove(ctx, loadID); err != nil {
		return err
	}
	s.logger.Info("load deleted", "load_id", loadID, "owner", owner)
	return nil
}

// pair loads both sides of a relationship. A missing load, or a boat that is
// missing or not owner's, yields one shared not-found message.
func (s *RelationshipService) pair(ctx context.Context, boatID, loadID int64, owner string) (*domain.Boat, *domain.Load, error) {
	boat, err := s.boats.Get(ctx, boatID, owner)
	if isNotFound(err) {
		return nil, nil, domainerrors.NotFound(msgPairNotFound)
	}
	if err != nil {
		return nil, nil, err
	}

	load, err := s.loads.Get(ctx, loadID)
	if isNotFound(err) {
		return nil, nil, domainerrors.NotFound(msgPairNotFound)
	}
	if err != nil {
		return nil, nil, err
	}
	return boat, load, nil
}

// restoreLoad undoes a load write after the matching boat write failed.
func (s *RelationshipService) restoreLoad(ctx context.Context, load *domain.Load, cause error) {
	if err := s.loads.write(ctx, load); err != nil {
		s.logger.Error("failed to restore load carrier",
			"load_id", load.ID, "carrier", load.Carrier, "error", err, "cause", cause)
		return
	}
	s.logger.Warn("restored load carrier after boat write failed",
		"load_id", load.ID, "carrier", load.Carrier, "cause", cause)
}

// reassign points released loads back at boatID after a failed boat delete.
// Callers hold the boat lock.
func (s *RelationshipService) reassign(ctx context.Context, boatID int64, loads []*domain.Load) {
	for _, load := range loads {
		unlock := s.loads.locks.lock(load.ID)
		load.Carrier = boatID
		if err := s.loads.write(ctx, load); err != nil {
			s.logger.Error("failed to reassign load after boat delete failed",
				"boat_id", boatID, "load_id", load.ID, "error", err)
		}
		unlock()
	}
}
