package profiles

import (
	"github.com/odyssey-erp/odyssey-hr/internal/policy"
	"github.com/odyssey-erp/odyssey-hr/internal/rbac"
	"github.com/odyssey-erp/odyssey-hr/internal/shared"
)

// Policy governs employee profiles. The owner of a profile may view and edit
// it without holding the matching permission; deletion needs the permission.
type Policy struct{}

var _ policy.Policy = Policy{}

// CanCreate implements policy.Policy.
func (Policy) CanCreate(p rbac.Principal) bool {
	return rbac.HasPermission(p, shared.PermProfileCreate)
}

// CanEdit implements policy.Policy.
func (Policy) CanEdit(p rbac.Principal, r policy.Resource) bool {
	return rbac.HasPermission(p, shared.PermProfileUpdate) || policy.IsOwner(p, r)
}

// CanDelete implements policy.Policy.
func (Policy) CanDelete(p rbac.Principal, _ policy.Resource) bool {
	return rbac.HasPermission(p, shared.PermProfileDelete)
}

// CanView implements policy.Policy.
func (Policy) CanView(p rbac.Principal, r policy.Resource) bool {
	return rbac.HasPermission(p, shared.PermProfileView) || policy.IsOwner(p, r)
}

// CanList implements policy.Policy.
func (Policy) CanList(p rbac.Principal) bool {
	return rbac.HasPermission(p, shared.PermProfileList)
}
