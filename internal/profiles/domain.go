package profiles

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-hr/internal/policy"
	"github.com/odyssey-erp/odyssey-hr/internal/rbac"
)

var (
	// ErrNotFound indicates the profile does not exist.
	ErrNotFound = errors.New("profiles: profile not found")
	// ErrDuplicate indicates the owner already has a profile.
	ErrDuplicate = errors.New("profiles: profile already exists")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("profiles: invalid profile")
)

// Profile is an employee profile. OwnerID is zero for profiles not linked
// to a user account.
type Profile struct {
	ID         uuid.UUID   `json:"id"`
	OwnerID    rbac.UserID `json:"owner_id,omitempty"`
	FullName   string      `json:"full_name"`
	Email      string      `json:"email"`
	Department string      `json:"department"`
	Title      string      `json:"title"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// ResourceType implements policy.Resource.
func (p *Profile) ResourceType() policy.ResourceType {
	return policy.ResourceProfile
}

// Owner implements policy.Owned.
func (p *Profile) Owner() (rbac.UserID, bool) {
	if p == nil || p.OwnerID == 0 {
		return 0, false
	}
	return p.OwnerID, true
}

// CreateProfileRequest is the input for creating a profile.
type CreateProfileRequest struct {
	OwnerID    int64  `json:"owner_id" validate:"gte=0"`
	FullName   string `json:"full_name" validate:"required,max=200"`
	Email      string `json:"email" validate:"required,email"`
	Department string `json:"department" validate:"max=100"`
	Title      string `json:"title" validate:"max=100"`
}

// UpdateProfileRequest carries optional field updates.
type UpdateProfileRequest struct {
	FullName   *string `json:"full_name" validate:"omitempty,min=1,max=200"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Department *string `json:"department" validate:"omitempty,max=100"`
	Title      *string `json:"title" validate:"omitempty,max=100"`
}

// ListFilters narrows profile listings.
type ListFilters struct {
	Department string
	Page       int
	Limit      int
}
