package payroll

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-hr/internal/policy"
	"github.com/odyssey-erp/odyssey-hr/internal/rbac"
)

var (
	// ErrNotFound indicates the payslip does not exist.
	ErrNotFound = errors.New("payroll: payslip not found")
	// ErrDuplicate indicates a payslip already exists for the employee and period.
	ErrDuplicate = errors.New("payroll: payslip already issued for period")
	// ErrValidation indicates the issue request is malformed.
	ErrValidation = errors.New("payroll: invalid payslip")
)

// Payslip is an issued pay statement. It is immutable once issued.
type Payslip struct {
	ID         uuid.UUID   `json:"id"`
	EmployeeID rbac.UserID `json:"employee_id"`
	Period     string      `json:"period"`
	GrossCents int64       `json:"gross_cents"`
	NetCents   int64       `json:"net_cents"`
	Currency   string      `json:"currency"`
	IssuedBy   rbac.UserID `json:"issued_by"`
	IssuedAt   time.Time   `json:"issued_at"`
}

// ResourceType implements policy.Resource.
func (p *Payslip) ResourceType() policy.ResourceType {
	return policy.ResourcePayslip
}

// Owner implements policy.Owned. The employee is the owner of a payslip.
func (p *Payslip) Owner() (rbac.UserID, bool) {
	if p == nil || p.EmployeeID == 0 {
		return 0, false
	}
	return p.EmployeeID, true
}

// IssuePayslipRequest is the input for issuing a payslip.
type IssuePayslipRequest struct {
	EmployeeID int64  `json:"employee_id" validate:"required,gt=0"`
	Period     string `json:"period" validate:"required,len=7"`
	GrossCents int64  `json:"gross_cents" validate:"gte=0"`
	NetCents   int64  `json:"net_cents" validate:"gte=0,ltefield=GrossCents"`
	Currency   string `json:"currency" validate:"required,len=3,alpha"`

	// IdempotencyKey comes from the Idempotency-Key header.
	IdempotencyKey string `json:"-" validate:"omitempty,max=128"`
}

// ListFilters narrows payslip listings.
type ListFilters struct {
	Period     string
	EmployeeID rbac.UserID
	Page       int
	Limit      int
}
