package profiles

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-hr/internal/shared"
)

type memoryRepo struct {
	profiles map[uuid.UUID]Profile
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{profiles: make(map[uuid.UUID]Profile)}
}

func (r *memoryRepo) GetProfile(ctx context.Context, id uuid.UUID) (Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) ListProfiles(ctx context.Context, filters ListFilters) ([]Profile, int, error) {
	var out []Profile
	for _, p := range r.profiles {
		if filters.Department != "" && p.Department != filters.Department {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *memoryRepo) CreateProfile(ctx context.Context, p Profile) error {
	for _, existing := range r.profiles {
		if p.OwnerID != 0 && existing.OwnerID == p.OwnerID {
			return ErrDuplicate
		}
	}
	r.profiles[p.ID] = p
	return nil
}

func (r *memoryRepo) UpdateProfile(ctx context.Context, p Profile) error {
	if _, ok := r.profiles[p.ID]; !ok {
		return ErrNotFound
	}
	r.profiles[p.ID] = p
	return nil
}

func (r *memoryRepo) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.profiles[id]; !ok {
		return ErrNotFound
	}
	delete(r.profiles, id)
	return nil
}

type auditSpy struct {
	logs []shared.AuditLog
}

func (a *auditSpy) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func strPtr(s string) *string { return &s }

func TestProfileLifecycle(t *testing.T) {
	repo := newMemoryRepo()
	audit := &auditSpy{}
	svc := NewService(repo, audit, nil)
	fixed := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return fixed }
	ctx := context.Background()

	created, err := svc.CreateProfile(ctx, CreateProfileRequest{
		OwnerID:    5,
		FullName:   "  Ayu Lestari ",
		Email:      "Ayu@Odyssey.Local",
		Department: "Finance",
	}, 1)
	require.NoError(t, err)
	require.Equal(t, "Ayu Lestari", created.FullName)
	require.Equal(t, "ayu@odyssey.local", created.Email)
	require.EqualValues(t, 5, created.OwnerID)
	require.Equal(t, fixed, created.CreatedAt)

	updated, err := svc.UpdateProfile(ctx, created, UpdateProfileRequest{Title: strPtr("Analyst")}, 5)
	require.NoError(t, err)
	require.Equal(t, "Analyst", updated.Title)
	require.Equal(t, "Ayu Lestari", updated.FullName)

	require.NoError(t, svc.DeleteProfile(ctx, created.ID, 1))
	_, err = svc.GetProfile(ctx, created.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.Len(t, audit.logs, 3)
	require.Equal(t, "CREATE", audit.logs[0].Action)
	require.Equal(t, "UPDATE", audit.logs[1].Action)
	require.EqualValues(t, 5, audit.logs[1].ActorID)
	require.Equal(t, "DELETE", audit.logs[2].Action)
}

func TestCreateProfileValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	ctx := context.Background()

	_, err := svc.CreateProfile(ctx, CreateProfileRequest{FullName: "", Email: "x@odyssey.local"}, 1)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateProfile(ctx, CreateProfileRequest{FullName: "X", Email: "not-an-email"}, 1)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateProfile(ctx, CreateProfileRequest{OwnerID: -1, FullName: "X", Email: "x@odyssey.local"}, 1)
	require.ErrorIs(t, err, ErrValidation)
}

func TestUpdateProfileRejectsBlankName(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	p, err := svc.CreateProfile(context.Background(), CreateProfileRequest{FullName: "X", Email: "x@odyssey.local"}, 1)
	require.NoError(t, err)

	_, err = svc.UpdateProfile(context.Background(), p, UpdateProfileRequest{FullName: strPtr("   ")}, 1)
	require.ErrorIs(t, err, ErrValidation)
}

func TestListProfilesByDepartment(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil)
	ctx := context.Background()
	for _, dept := range []string{"Finance", "Finance", "People"} {
		_, err := svc.CreateProfile(ctx, CreateProfileRequest{FullName: "X", Email: "x@odyssey.local", Department: dept}, 1)
		require.NoError(t, err)
	}

	rows, paging, err := svc.ListProfiles(ctx, ListFilters{Department: " Finance "})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, 2, paging.Total)
	require.Equal(t, 20, paging.PerPage)
}
