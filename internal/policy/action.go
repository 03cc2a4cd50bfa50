package policy

import (
	"strings"

	"github.com/odyssey-erp/odyssey-hr/internal/rbac"
)

// Action is an operation a principal attempts on a resource.
type Action string

const (
	ActionCreate Action = "create"
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionList   Action = "list"
)

// ParseAction resolves an action name.
func ParseAction(s string) (Action, bool) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionCreate, ActionView, ActionEdit, ActionDelete, ActionList:
		return a, true
	}
	return "", false
}

// NeedsResource reports whether the action is evaluated against an instance.
func (a Action) NeedsResource() bool {
	return a == ActionView || a == ActionEdit || a == ActionDelete
}

// Check runs the operation of pol matching action. Unknown actions and
// instance actions without a resource are denied.
func Check(pol Policy, action Action, p rbac.Principal, r Resource) bool {
	if pol == nil {
		return false
	}
	if action.NeedsResource() && r == nil {
		return false
	}
	switch action {
	case ActionCreate:
		return pol.CanCreate(p)
	case ActionView:
		return pol.CanView(p, r)
	case ActionEdit:
		return pol.CanEdit(p, r)
	case ActionDelete:
		return pol.CanDelete(p, r)
	case ActionList:
		return pol.CanList(p)
	default:
		return false
	}
}
