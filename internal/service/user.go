package service

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/boatyard/boatyard-server/internal/domain"
	"github.com/boatyard/boatyard-server/internal/store"
)

const msgUserNotFound = "No user with this id exists"

// UserService caches the identities that completed a login.
type UserService struct {
	users  *store.Entity[domain.User]
	locks  *keyedMutex[string]
	logger *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(st store.Store, logger *slog.Logger) *UserService {
	return &UserService{
		users:  store.NewEntity[domain.User](st, domain.KindUser),
		locks:  newKeyedMutex[string](),
		logger: logger,
	}
}

// List returns every cached user.
func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, _, err := s.users.List(ctx, nil, 0, "")
	if err != nil {
		return nil, fromStore(err, msgUserNotFound)
	}
	return users, nil
}

// FindBySub returns the user for sub, or nil when none exists.
func (s *UserService) FindBySub(ctx context.Context, sub string) (*domain.User, error) {
	users, _, err := s.users.List(ctx, []store.Filter{{Field: "sub", Value: sub}}, 1, "")
	if err != nil {
		return nil, fromStore(err, msgUserNotFound)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users[0], nil
}

// FindOrCreate returns the user for sub, creating it with name when absent.
// The bool reports whether a user was created.
func (s *UserService) FindOrCreate(ctx context.Context, sub, name string) (*domain.User, bool, error) {
	defer s.locks.lock(sub)()

	existing, err := s.FindBySub(ctx, sub)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	u := &domain.User{Name: NormalizeName(name), Sub: sub}
	id, err := s.users.Create(ctx, u)
	if err != nil {
		return nil, false, fromStore(err, msgUserNotFound)
	}
	u.ID = id

	s.logger.Info("user created", "user_id", id, "sub", sub)
	return u, true, nil
}

// NormalizeName collapses whitespace and converts to NFC so the same name
// typed on different platforms is stored identically.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.Join(strings.Fields(name), " "))
}
