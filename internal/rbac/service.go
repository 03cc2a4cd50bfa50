package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/odyssey-hr/internal/shared"
)

var (
	// ErrNotFound indicates that the requested record does not exist.
	ErrNotFound = errors.New("rbac: not found")
	// ErrInactive indicates the account exists but is disabled.
	ErrInactive = errors.New("rbac: account inactive")
)

// RepositoryPort defines data access needed to build principals.
type RepositoryPort interface {
	GetAccount(ctx context.Context, id UserID) (Account, error)
	UserEffectivePermissions(ctx context.Context, id UserID) ([]string, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
}

// Service builds principals from stored grants.
type Service struct {
	repo   RepositoryPort
	cache  *PermissionCache
	logger *slog.Logger
	group  singleflight.Group
}

// NewService constructs a Service. cache may be nil.
func NewService(repo RepositoryPort, cache *PermissionCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

// ListPermissions returns all stored permissions ordered by name.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// EffectivePermissions returns the permission names granted to a user,
// consulting the cache first.
func (s *Service) EffectivePermissions(ctx context.Context, id UserID) ([]string, error) {
	grants, err := s.grants(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(grants.Permissions))
	copy(out, grants.Permissions)
	return out, nil
}

// LoadPrincipal builds the principal for a user. Concurrent loads for the same
// user share one lookup. The shared lookup ignores caller cancellation; each
// caller returns as soon as its own context is done.
func (s *Service) LoadPrincipal(ctx context.Context, id UserID) (*User, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(strconv.FormatInt(int64(id), 10), func() (interface{}, error) {
		grants, err := s.grants(loadCtx, id)
		if err != nil {
			return nil, err
		}
		return s.toPrincipal(id, grants), nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*User), nil
	}
}

// Invalidate forgets cached grants for a user, e.g. after a role change.
func (s *Service) Invalidate(ctx context.Context, id UserID) error {
	return s.cache.Invalidate(ctx, id)
}

// grants reads the account on every call; only permission names are cached.
func (s *Service) grants(ctx context.Context, id UserID) (cachedGrants, error) {
	acc, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return cachedGrants{}, fmt.Errorf("rbac: load account %d: %w", id, err)
	}
	if !acc.IsActive {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			s.logger.Warn("rbac cache invalidate", slog.Int64("user_id", int64(id)), slog.Any("error", err))
		}
		return cachedGrants{}, ErrInactive
	}
	cached, ok, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.Warn("rbac cache get", slog.Int64("user_id", int64(id)), slog.Any("error", err))
	}
	if ok {
		cached.Email = acc.Email
		return cached, nil
	}
	names, err := s.repo.UserEffectivePermissions(ctx, id)
	if err != nil {
		return cachedGrants{}, fmt.Errorf("rbac: load permissions %d: %w", id, err)
	}
	grants := cachedGrants{Email: acc.Email, Permissions: names}
	if err := s.cache.Set(ctx, id, grants); err != nil {
		s.logger.Warn("rbac cache set", slog.Int64("user_id", int64(id)), slog.Any("error", err))
	}
	return grants, nil
}

func (s *Service) toPrincipal(id UserID, grants cachedGrants) *User {
	aliases := make([]shared.PermissionAlias, 0, len(grants.Permissions))
	for _, name := range grants.Permissions {
		alias, ok := shared.ParsePermissionAlias(name)
		if !ok {
			// Permissions of other modules share the table; they carry no HR meaning.
			s.logger.Debug("rbac skip permission", slog.String("name", name))
			continue
		}
		aliases = append(aliases, alias)
	}
	return NewUser(id, grants.Email, aliases...)
}
