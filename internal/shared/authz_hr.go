package shared

import "strings"

// PermissionAlias is a named capability a principal may hold. The set is
// closed: only the constants below are valid.
type PermissionAlias uint8

// HR permissions declared for RBAC.
const (
	permUnknown PermissionAlias = iota

	// Payslip permissions
	PermPayslipCreate
	PermPayslipView
	PermPayslipList
	PermPayslipUpdate
	PermPayslipDelete

	// Profile permissions
	PermProfileCreate
	PermProfileView
	PermProfileList
	PermProfileUpdate
	PermProfileDelete

	permSentinel
)

type aliasNames struct {
	storage string
	alias   string
}

var permissionNames = [...]aliasNames{
	PermPayslipCreate: {"hr.payslip.create", "CREATE_PAYSLIP"},
	PermPayslipView:   {"hr.payslip.view", "VIEW_PAYSLIP"},
	PermPayslipList:   {"hr.payslip.list", "LIST_PAYSLIP"},
	PermPayslipUpdate: {"hr.payslip.update", "UPDATE_PAYSLIP"},
	PermPayslipDelete: {"hr.payslip.delete", "DELETE_PAYSLIP"},
	PermProfileCreate: {"hr.profile.create", "CREATE_PROFILE"},
	PermProfileView:   {"hr.profile.view", "VIEW_PROFILE"},
	PermProfileList:   {"hr.profile.list", "LIST_PROFILE"},
	PermProfileUpdate: {"hr.profile.update", "UPDATE_PROFILE"},
	PermProfileDelete: {"hr.profile.delete", "DELETE_PROFILE"},
}

var permissionsByName = func() map[string]PermissionAlias {
	m := make(map[string]PermissionAlias, 2*len(permissionNames))
	for _, p := range HRScopes() {
		m[permissionNames[p].storage] = p
		m[strings.ToLower(permissionNames[p].alias)] = p
	}
	return m
}()

// Valid reports whether p is a member of the enumeration.
func (p PermissionAlias) Valid() bool {
	return p > permUnknown && p < permSentinel
}

// String returns the storage name, e.g. "hr.payslip.create".
func (p PermissionAlias) String() string {
	if !p.Valid() {
		return "unknown"
	}
	return permissionNames[p].storage
}

// Alias returns the upper-case alias, e.g. "CREATE_PAYSLIP".
func (p PermissionAlias) Alias() string {
	if !p.Valid() {
		return "UNKNOWN"
	}
	return permissionNames[p].alias
}

// ParsePermissionAlias resolves a storage name or alias. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParsePermissionAlias(name string) (PermissionAlias, bool) {
	p, ok := permissionsByName[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// HRScopes lists all permissions related to the HR module.
func HRScopes() []PermissionAlias {
	return []PermissionAlias{
		PermPayslipCreate,
		PermPayslipView,
		PermPayslipList,
		PermPayslipUpdate,
		PermPayslipDelete,
		PermProfileCreate,
		PermProfileView,
		PermProfileList,
		PermProfileUpdate,
		PermProfileDelete,
	}
}
