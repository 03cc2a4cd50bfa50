package rbac

import (
	"sort"
	"time"

	"github.com/odyssey-erp/odyssey-hr/internal/shared"
)

// Role represents a high-level permission grouping.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission represents an atomic capability as stored.
type Permission struct {
	ID          int64
	Name        string
	Description string
}

// Assignment ties a permission to a role.
type Assignment struct {
	RoleID       int64
	PermissionID int64
	CreatedAt    time.Time
}

// UserRole links a user to a role.
type UserRole struct {
	UserID    int64
	RoleID    int64
	CreatedAt time.Time
}

// UserID is the stable identity of a user account. Zero means no identity.
type UserID int64

// Principal describes the authenticated actor.
type Principal interface {
	Identity() UserID
	HasPermission(alias shared.PermissionAlias) bool
}

// HasPermission reports whether alias is in the principal's granted set.
func HasPermission(p Principal, alias shared.PermissionAlias) bool {
	if p == nil || !alias.Valid() {
		return false
	}
	return p.HasPermission(alias)
}

// IdentityOf returns the identity used for ownership comparison. ok is false
// when the principal is nil or carries no identity.
func IdentityOf(p Principal) (UserID, bool) {
	if p == nil {
		return 0, false
	}
	id := p.Identity()
	return id, id != 0
}

// User is the principal built for a request. It is immutable once constructed.
type User struct {
	id     UserID
	email  string
	grants map[shared.PermissionAlias]struct{}
}

// NewUser builds a principal with the given grants. Invalid aliases are dropped.
func NewUser(id UserID, email string, aliases ...shared.PermissionAlias) *User {
	grants := make(map[shared.PermissionAlias]struct{}, len(aliases))
	for _, a := range aliases {
		if !a.Valid() {
			continue
		}
		grants[a] = struct{}{}
	}
	return &User{id: id, email: email, grants: grants}
}

// Identity implements Principal.
func (u *User) Identity() UserID {
	if u == nil {
		return 0
	}
	return u.id
}

// HasPermission implements Principal.
func (u *User) HasPermission(alias shared.PermissionAlias) bool {
	if u == nil {
		return false
	}
	_, ok := u.grants[alias]
	return ok
}

// Email returns the address of the persisted account record.
func (u *User) Email() string {
	if u == nil {
		return ""
	}
	return u.email
}

// Permissions returns the granted aliases in declaration order.
func (u *User) Permissions() []shared.PermissionAlias {
	if u == nil {
		return nil
	}
	out := make([]shared.PermissionAlias, 0, len(u.grants))
	for a := range u.grants {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
