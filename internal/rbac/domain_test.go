package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-hr/internal/shared"
)

func TestNewUserDropsInvalidAliases(t *testing.T) {
	u := NewUser(7, "a@odyssey.local", shared.PermProfileView, shared.PermissionAlias(0), shared.PermissionAlias(250), shared.PermProfileView)

	require.Equal(t, UserID(7), u.Identity())
	require.Equal(t, "a@odyssey.local", u.Email())
	require.Equal(t, []shared.PermissionAlias{shared.PermProfileView}, u.Permissions())
	require.True(t, u.HasPermission(shared.PermProfileView))
	require.False(t, u.HasPermission(shared.PermProfileUpdate))
}

func TestUserPermissionsSorted(t *testing.T) {
	u := NewUser(1, "", shared.PermProfileDelete, shared.PermPayslipCreate, shared.PermProfileView)
	require.Equal(t, []shared.PermissionAlias{
		shared.PermPayslipCreate,
		shared.PermProfileView,
		shared.PermProfileDelete,
	}, u.Permissions())
}

func TestNilUserIsSafe(t *testing.T) {
	var u *User
	require.Zero(t, u.Identity())
	require.Empty(t, u.Email())
	require.Nil(t, u.Permissions())
	require.False(t, u.HasPermission(shared.PermPayslipView))
}

func TestHasPermissionHelper(t *testing.T) {
	u := NewUser(3, "", shared.PermPayslipList)

	require.True(t, HasPermission(u, shared.PermPayslipList))
	require.False(t, HasPermission(u, shared.PermPayslipView))
	require.False(t, HasPermission(nil, shared.PermPayslipList))
	require.False(t, HasPermission(u, shared.PermissionAlias(0)))
}

func TestIdentityOf(t *testing.T) {
	id, ok := IdentityOf(NewUser(42, ""))
	require.True(t, ok)
	require.Equal(t, UserID(42), id)

	_, ok = IdentityOf(nil)
	require.False(t, ok)

	_, ok = IdentityOf(NewUser(0, "", shared.PermProfileView))
	require.False(t, ok)

	var typedNil *User
	_, ok = IdentityOf(typedNil)
	require.False(t, ok)
}

func TestPrincipalContextRoundTrip(t *testing.T) {
	require.Nil(t, PrincipalFromContext(t.Context()))

	u := NewUser(5, "")
	ctx := ContextWithPrincipal(t.Context(), u)
	got := PrincipalFromContext(ctx)
	require.NotNil(t, got)
	require.Equal(t, UserID(5), got.Identity())
}
