// Package policy dispatches authorization decisions to the policy registered
// for a resource type. Every decision is a pure function of the principal's
// grants, its identity and the resource's ownership data.
package policy

import "github.com/odyssey-erp/odyssey-hr/internal/rbac"

// ResourceType tags a governed resource kind.
type ResourceType string

// Governed resource types.
const (
	ResourcePayslip ResourceType = "payslip"
	ResourceProfile ResourceType = "profile"
)

// Resource is an already-loaded domain entity.
type Resource interface {
	ResourceType() ResourceType
}

// Owned is implemented by resources that may record an owning user.
type Owned interface {
	Owner() (rbac.UserID, bool)
}

// Policy decides the five actions for one resource type. Resources passed to
// CanEdit, CanDelete and CanView are of the policy's own type.
type Policy interface {
	CanCreate(p rbac.Principal) bool
	CanEdit(p rbac.Principal, r Resource) bool
	CanDelete(p rbac.Principal, r Resource) bool
	CanView(p rbac.Principal, r Resource) bool
	CanList(p rbac.Principal) bool
}

// IsOwner reports whether the principal's identity equals the resource owner.
// It is false whenever either side has no identity.
func IsOwner(p rbac.Principal, r Resource) bool {
	id, ok := rbac.IdentityOf(p)
	if !ok || r == nil {
		return false
	}
	owned, isOwned := r.(Owned)
	if !isOwned {
		return false
	}
	owner, ok := owned.Owner()
	if !ok || owner == 0 {
		return false
	}
	return id == owner
}
