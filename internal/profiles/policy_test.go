package profiles

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-hr/internal/rbac"
	"github.com/odyssey-erp/odyssey-hr/internal/shared"
)

func TestPolicyOwnerMayViewAndEdit(t *testing.T) {
	pol := Policy{}
	owner := rbac.NewUser(5, "")
	profile := &Profile{OwnerID: 5}

	require.True(t, pol.CanView(owner, profile))
	require.True(t, pol.CanEdit(owner, profile))
	require.False(t, pol.CanDelete(owner, profile))
	require.False(t, pol.CanCreate(owner))
	require.False(t, pol.CanList(owner))
}

func TestPolicyPermissionGrantsAccessToAnyProfile(t *testing.T) {
	pol := Policy{}
	profile := &Profile{OwnerID: 5}

	viewer := rbac.NewUser(1, "", shared.PermProfileView)
	require.True(t, pol.CanView(viewer, profile))
	require.False(t, pol.CanEdit(viewer, profile))

	editor := rbac.NewUser(2, "", shared.PermProfileUpdate)
	require.True(t, pol.CanEdit(editor, profile))
	require.False(t, pol.CanView(editor, profile))

	admin := rbac.NewUser(3, "", shared.PermProfileCreate, shared.PermProfileDelete, shared.PermProfileList)
	require.True(t, pol.CanCreate(admin))
	require.True(t, pol.CanDelete(admin, profile))
	require.True(t, pol.CanList(admin))
}

func TestPolicyStrangerWithoutGrants(t *testing.T) {
	pol := Policy{}
	stranger := rbac.NewUser(6, "")
	profile := &Profile{OwnerID: 5}

	require.False(t, pol.CanView(stranger, profile))
	require.False(t, pol.CanEdit(stranger, profile))
	require.False(t, pol.CanDelete(stranger, profile))
}

func TestPolicyUnownedProfile(t *testing.T) {
	pol := Policy{}
	unowned := &Profile{}

	require.False(t, pol.CanView(rbac.NewUser(0, ""), unowned))
	require.False(t, pol.CanEdit(rbac.NewUser(5, ""), unowned))
	require.False(t, pol.CanView(nil, unowned))
}
