package service

import (
	"context"
	"log/slog"

	"github.com/boatyard/boatyard-server/internal/domain"
	domainerrors "github.com/boatyard/boatyard-server/internal/errors"
	"github.com/boatyard/boatyard-server/internal/store"
	"github.com/boatyard/boatyard-server/internal/validation"
)

// BoatRequest is the full set of caller-writable boat fields.
type BoatRequest struct {
	Name   string  `json:"name" validate:"required,notblank,max=100"`
	Type   string  `json:"type" validate:"required,notblank,max=100"`
	Length float64 `json:"length" validate:"required,gt=0"`
}

// BoatService is the owner-scoped boat registry.
// Owner is set once at creation. Loads is written only through the relationship engine.
type BoatService struct {
	boats     *store.Entity[domain.Boat]
	validator *validation.Validator
	locks     *keyedMutex[int64]
	logger    *slog.Logger
}

// NewBoatService creates a new boat service.
func NewBoatService(st store.Store, v *validation.Validator, logger *slog.Logger) *BoatService {
	return &BoatService{
		boats:     store.NewEntity[domain.Boat](st, domain.KindBoat),
		validator: v,
		locks:     newKeyedMutex[int64](),
		logger:    logger,
	}
}

// Create stores a new boat owned by owner with an empty load list.
func (s *BoatService) Create(ctx context.Context, owner string, req BoatRequest) (*domain.Boat, error) {
	if owner == "" {
		return nil, domainerrors.Unauthorized("Missing or invalid token")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	b := &domain.Boat{
		Name:   req.Name,
		Type:   req.Type,
		Length: req.Length,
		Owner:  owner,
		Loads:  []int64{},
	}
	id, err := s.boats.Create(ctx, b)
	if err != nil {
		return nil, fromStore(err, msgBoatNotFound)
	}
	b.ID = id

	s.logger.Info("boat created", "boat_id", id, "owner", owner)
	return b, nil
}

// Get returns the boat if it exists and belongs to owner.
// A boat of another owner is reported exactly like a missing one.
func (s *BoatService) Get(ctx context.Context, id int64, owner string) (*domain.Boat, error) {
	b, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.OwnedBy(owner) {
		return nil, domainerrors.NotFound(msgBoatNotFound)
	}
	return b, nil
}

// Replace overwrites every caller-writable field. Owner and loads are kept.
func (s *BoatService) Replace(ctx context.Context, id int64, owner string, req BoatRequest) (*domain.Boat, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	return s.modify(ctx, id, owner, func(b *domain.Boat) {
		b.Name = req.Name
		b.Type = req.Type
		b.Length = req.Length
	})
}

// Patch updates only the fields present in patch.
func (s *BoatService) Patch(ctx context.Context, id int64, owner string, patch domain.BoatPatch) (*domain.Boat, error) {
	if err := s.validator.Validate(patch); err != nil {
		return nil, err
	}
	return s.modify(ctx, id, owner, patch.Apply)
}

func (s *BoatService) modify(ctx context.Context, id int64, owner string, change func(*domain.Boat)) (*domain.Boat, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	b, err := s.Get(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	change(b)
	if err := s.write(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// List returns one page of owner's boats and the total count of them.
func (s *BoatService) List(ctx context.Context, owner, cursor string) (*ListResult[domain.Boat], error) {
	filters := []store.Filter{{Field: "owner", Value: owner}}

	total, err := s.boats.Count(ctx, filters)
	if err != nil {
		return nil, fromStore(err, msgBoatNotFound)
	}
	items, next, err := s.boats.List(ctx, filters, store.PageSize, cursor)
	if err != nil {
		return nil, fromStore(err, msgBoatNotFound)
	}
	return &ListResult[domain.Boat]{Items: items, Cursor: next, Total: total}, nil
}

// fetch reads a boat without an ownership check.
func (s *BoatService) fetch(ctx context.Context, id int64) (*domain.Boat, error) {
	b, err := s.boats.Get(ctx, id)
	if err != nil {
		return nil, fromStore(err, msgBoatNotFound)
	}
	if b.Loads == nil {
		b.Loads = []int64{}
	}
	return b, nil
}

// write persists the whole boat, loads included.
func (s *BoatService) write(ctx context.Context, b *domain.Boat) error {
	return fromStore(s.boats.Update(ctx, b.ID, b), msgBoatNotFound)
}

func (s *BoatService) remove(ctx context.Context, id int64) error {
	return fromStore(s.boats.Delete(ctx, id), msgBoatNotFound)
}
