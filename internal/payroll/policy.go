package payroll

import (
	"github.com/odyssey-erp/odyssey-hr/internal/policy"
	"github.com/odyssey-erp/odyssey-hr/internal/rbac"
	"github.com/odyssey-erp/odyssey-hr/internal/shared"
)

// Policy governs payslips. Issued payslips are immutable: nobody may edit or
// delete them, and owning a payslip grants nothing.
type Policy struct{}

var _ policy.Policy = Policy{}

// CanCreate implements policy.Policy.
func (Policy) CanCreate(p rbac.Principal) bool {
	return rbac.HasPermission(p, shared.PermPayslipCreate)
}

// CanEdit implements policy.Policy.
func (Policy) CanEdit(rbac.Principal, policy.Resource) bool {
	return false
}

// CanDelete implements policy.Policy.
func (Policy) CanDelete(rbac.Principal, policy.Resource) bool {
	return false
}

// CanView implements policy.Policy.
func (Policy) CanView(p rbac.Principal, _ policy.Resource) bool {
	return rbac.HasPermission(p, shared.PermPayslipView)
}

// CanList implements policy.Policy.
func (Policy) CanList(p rbac.Principal) bool {
	return rbac.HasPermission(p, shared.PermPayslipList)
}
