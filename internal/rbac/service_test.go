package rbac

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-hr/internal/shared"
)

type stubRepo struct {
	accounts    map[UserID]Account
	permissions map[UserID][]string
	loads       atomic.Int32
	permLoads   atomic.Int32
	gate        chan struct{}
	err         error
}

func (s *stubRepo) GetAccount(ctx context.Context, id UserID) (Account, error) {
	s.loads.Add(1)
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return Account{}, ctx.Err()
		}
	}
	if s.err != nil {
		return Account{}, s.err
	}
	acc, ok := s.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acc, nil
}

func (s *stubRepo) UserEffectivePermissions(ctx context.Context, id UserID) ([]string, error) {
	s.permLoads.Add(1)
	return s.permissions[id], nil
}

func (s *stubRepo) ListPermissions(ctx context.Context) ([]Permission, error) {
	return []Permission{{ID: 1, Name: "hr.payslip.view"}}, nil
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		accounts: map[UserID]Account{
			1: {ID: 1, Email: "admin@odyssey.local", IsActive: true},
			2: {ID: 2, Email: "gone@odyssey.local", IsActive: false},
		},
		permissions: map[UserID][]string{
			1: {"hr.profile.view", "hr.payslip.create", "finance.gl.view"},
		},
	}
}

func newTestCache(t *testing.T) (*PermissionCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewPermissionCache(client, time.Minute), mr
}

func TestLoadPrincipalBuildsGrants(t *testing.T) {
	svc := NewService(newStubRepo(), nil, nil)

	u, err := svc.LoadPrincipal(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, UserID(1), u.Identity())
	require.Equal(t, "admin@odyssey.local", u.Email())
	require.Equal(t, []shared.PermissionAlias{shared.PermPayslipCreate, shared.PermProfileView}, u.Permissions())
}

func TestLoadPrincipalRejectsUnknownAndInactive(t *testing.T) {
	svc := NewService(newStubRepo(), nil, nil)

	_, err := svc.LoadPrincipal(context.Background(), 0)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.LoadPrincipal(context.Background(), 99)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.LoadPrincipal(context.Background(), 2)
	require.ErrorIs(t, err, ErrInactive)
}

func TestLoadPrincipalWrapsRepositoryErrors(t *testing.T) {
	repo := newStubRepo()
	repo.err = errors.New("connection reset")
	svc := NewService(repo, nil, nil)

	_, err := svc.LoadPrincipal(context.Background(), 1)
	require.Error(t, err)
	require.Contains(t, err.Error(), "connection reset")
	require.False(t, errors.Is(err, ErrNotFound))
}

func TestLoadPrincipalUsesCache(t *testing.T) {
	repo := newStubRepo()
	cache, mr := newTestCache(t)
	svc := NewService(repo, cache, nil)
	ctx := context.Background()

	_, err := svc.LoadPrincipal(ctx, 1)
	require.NoError(t, err)
	require.True(t, mr.Exists("rbac:perms:1"))
	require.EqualValues(t, 1, repo.permLoads.Load())

	u, err := svc.LoadPrincipal(ctx, 1)
	require.NoError(t, err)
	require.True(t, u.HasPermission(shared.PermProfileView))
	require.EqualValues(t, 1, repo.permLoads.Load())

	require.NoError(t, svc.Invalidate(ctx, 1))
	require.False(t, mr.Exists("rbac:perms:1"))
	_, err = svc.LoadPrincipal(ctx, 1)
	require.NoError(t, err)
	require.EqualValues(t, 2, repo.permLoads.Load())
}

func TestLoadPrincipalRejectsDeactivatedAccountWithCachedGrants(t *testing.T) {
	repo := newStubRepo()
	cache, mr := newTestCache(t)
	svc := NewService(repo, cache, nil)
	ctx := context.Background()

	_, err := svc.LoadPrincipal(ctx, 1)
	require.NoError(t, err)
	require.True(t, mr.Exists("rbac:perms:1"))

	repo.accounts[1] = Account{ID: 1, Email: "admin@odyssey.local", IsActive: false}

	_, err = svc.LoadPrincipal(ctx, 1)
	require.ErrorIs(t, err, ErrInactive)
	require.False(t, mr.Exists("rbac:perms:1"))
}

func TestCacheTreatsCorruptEntryAsMiss(t *testing.T) {
	cache, mr := newTestCache(t)
	require.NoError(t, mr.Set("rbac:perms:1", "{not json"))

	_, ok, err := cache.Get(context.Background(), 1)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNilCacheIsDisabled(t *testing.T) {
	var cache *PermissionCache
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, cache.Set(ctx, 1, cachedGrants{}))
	require.NoError(t, cache.Invalidate(ctx, 1))
}

func TestLoadPrincipalSharesConcurrentLookups(t *testing.T) {
	repo := newStubRepo()
	repo.gate = make(chan struct{})
	svc := NewService(repo, nil, nil)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*User, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.LoadPrincipal(context.Background(), 1)
		}(i)
	}
	require.Eventually(t, func() bool { return repo.loads.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(repo.gate)
	wg.Wait()

	require.Less(t, repo.loads.Load(), int32(callers))
	for i, u := range results {
		require.NoError(t, errs[i])
		require.Equal(t, UserID(1), u.Identity())
	}
}

func TestLoadPrincipalSurvivesCancelledPeer(t *testing.T) {
	repo := newStubRepo()
	repo.gate = make(chan struct{})
	svc := NewService(repo, nil, nil)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.LoadPrincipal(firstCtx, 1)
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return repo.loads.Load() >= 1 }, time.Second, time.Millisecond)

	type result struct {
		user *User
		err  error
	}
	second := make(chan result, 1)
	go func() {
		u, err := svc.LoadPrincipal(context.Background(), 1)
		second <- result{u, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(repo.gate)
	select {
	case res := <-second:
		require.NoError(t, res.err)
		require.Equal(t, UserID(1), res.user.Identity())
	case <-time.After(time.Second):
		t.Fatal("waiting caller did not return")
	}
	require.EqualValues(t, 1, repo.loads.Load())
}

func TestEffectivePermissionsReturnsCopy(t *testing.T) {
	svc := NewService(newStubRepo(), nil, nil)

	names, err := svc.EffectivePermissions(context.Background(), 1)
	require.NoError(t, err)
	require.Contains(t, names, "finance.gl.view")

	perms, err := svc.ListPermissions(context.Background())
	require.NoError(t, err)
	require.Len(t, perms, 1)
}
