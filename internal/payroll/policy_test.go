package payroll

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-hr/internal/rbac"
	"github.com/odyssey-erp/odyssey-hr/internal/shared"
)

func TestPolicyGrantsByPermission(t *testing.T) {
	pol := Policy{}
	slip := &Payslip{EmployeeID: 9}

	officer := rbac.NewUser(1, "", shared.PermPayslipCreate, shared.PermPayslipView, shared.PermPayslipList)
	require.True(t, pol.CanCreate(officer))
	require.True(t, pol.CanView(officer, slip))
	require.True(t, pol.CanList(officer))

	nobody := rbac.NewUser(2, "")
	require.False(t, pol.CanCreate(nobody))
	require.False(t, pol.CanView(nobody, slip))
	require.False(t, pol.CanList(nobody))
}

func TestPolicyIssuedPayslipsAreImmutable(t *testing.T) {
	pol := Policy{}
	slip := &Payslip{EmployeeID: 9}

	everything := rbac.NewUser(1, "", shared.HRScopes()...)
	require.False(t, pol.CanEdit(everything, slip))
	require.False(t, pol.CanDelete(everything, slip))

	owner := rbac.NewUser(9, "", shared.HRScopes()...)
	require.False(t, pol.CanEdit(owner, slip))
	require.False(t, pol.CanDelete(owner, slip))
	require.False(t, pol.CanEdit(nil, slip))
}

func TestPolicyOwnershipGrantsNothing(t *testing.T) {
	pol := Policy{}
	employee := rbac.NewUser(9, "")
	slip := &Payslip{EmployeeID: 9}

	require.False(t, pol.CanView(employee, slip))
	require.False(t, pol.CanEdit(employee, slip))
	require.False(t, pol.CanDelete(employee, slip))
}

func TestPayslipOwner(t *testing.T) {
	owner, ok := (&Payslip{EmployeeID: 4}).Owner()
	require.True(t, ok)
	require.Equal(t, rbac.UserID(4), owner)

	_, ok = (&Payslip{}).Owner()
	require.False(t, ok)

	var nilSlip *Payslip
	_, ok = nilSlip.Owner()
	require.False(t, ok)
}
