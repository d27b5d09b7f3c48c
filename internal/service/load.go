package service

import (
	"context"
	"log/slog"

	"github.com/boatyard/boatyard-server/internal/domain"
	"github.com/boatyard/boatyard-server/internal/store"
	"github.com/boatyard/boatyard-server/internal/validation"
)

// LoadRequest is the full set of caller-writable load fields.
type LoadRequest struct {
	Weight       float64 `json:"weight" validate:"required,gt=0"`
	Country      string  `json:"country" validate:"required,notblank,max=100"`
	Manufacturer string  `json:"manufacturer" validate:"required,notblank,max=100"`
}

// LoadService is the load registry. Loads have no owner.
// Carrier is written only through the relationship engine.
type LoadService struct {
	loads     *store.Entity[domain.Load]
	validator *validation.Validator
	locks     *keyedMutex[int64]
	logger    *slog.Logger
}

// NewLoadService creates a new load service.
func NewLoadService(st store.Store, v *validation.Validator, logger *slog.Logger) *LoadService {
	return &LoadService{
		loads:     store.NewEntity[domain.Load](st, domain.KindLoad),
		validator: v,
		locks:     newKeyedMutex[int64](),
		logger:    logger,
	}
}

// Create stores a new unassigned load.
func (s *LoadService) Create(ctx context.Context, req LoadRequest) (*domain.Load, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	l := &domain.Load{
		Weight:       req.Weight,
		Country:      req.Country,
		Manufacturer: req.Manufacturer,
		Carrier:      domain.NoCarrier,
	}
	id, err := s.loads.Create(ctx, l)
	if err != nil {
		return nil, fromStore(err, msgLoadNotFound)
	}
	l.ID = id

	s.logger.Info("load created", "load_id", id)
	return l, nil
}

// Get returns a load by id.
func (s *LoadService) Get(ctx context.Context, id int64) (*domain.Load, error) {
	l, err := s.loads.Get(ctx, id)
	if err != nil {
		return nil, fromStore(err, msgLoadNotFound)
	}
	return l, nil
}

// Replace overwrites every caller-writable field. Carrier is kept.
func (s *LoadService) Replace(ctx context.Context, id int64, req LoadRequest) (*domain.Load, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	return s.modify(ctx, id, func(l *domain.Load) {
		l.Weight = req.Weight
		l.Country = req.Country
		l.Manufacturer = req.Manufacturer
	})
}

// Patch updates only the fields present in patch.
func (s *LoadService) Patch(ctx context.Context, id int64, patch domain.LoadPatch) (*domain.Load, error) {
	if err := s.validator.Validate(patch); err != nil {
		return nil, err
	}
	return s.modify(ctx, id, patch.Apply)
}

func (s *LoadService) modify(ctx context.Context, id int64, change func(*domain.Load)) (*domain.Load, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	change(l)
	if err := s.write(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

// List returns one page of loads and the total number of loads.
func (s *LoadService) List(ctx context.Context, cursor string) (*ListResult[domain.Load], error) {
	total, err := s.loads.Count(ctx, nil)
	if err != nil {
		return nil, fromStore(err, msgLoadNotFound)
	}
	items, next, err := s.loads.List(ctx, nil, store.PageSize, cursor)
	if err != nil {
		return nil, fromStore(err, msgLoadNotFound)
	}
	return &ListResult[domain.Load]{Items: items, Cursor: next, Total: total}, nil
}

// carriedBy returns the ids of every load whose carrier is boatID.
func (s *LoadService) carriedBy(ctx context.Context, boatID int64) ([]int64, error) {
	loads, _, err := s.loads.List(ctx, []store.Filter{{Field: "carrier", Value: boatID}}, 0, "")
	if err != nil {
		return nil, fromStore(err, msgLoadNotFound)
	}
	ids := make([]int64, 0, len(loads))
	for _, l := range loads {
		ids = append(ids, l.ID)
	}
	return ids, nil
}

// write persists the whole load, carrier included.
func (s *LoadService) write(ctx context.Context, l *domain.Load) error {
	return fromStore(s.loads.Update(ctx, l.ID, l), msgLoadNotFound)
}

func (s *LoadService) remove(ctx context.Context, id int64) error {
	return fromStore(s.loads.Delete(ctx, id), msgLoadNotFound)
}
