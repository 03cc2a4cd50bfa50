package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-hr/internal/rbac"
	"github.com/odyssey-erp/odyssey-hr/internal/shared"
)

// RepositoryPort defines data access methods for payslips.
type RepositoryPort interface {
	GetPayslip(ctx context.Context, id uuid.UUID) (Payslip, error)
	ListPayslips(ctx context.Context, filters ListFilters) ([]Payslip, int, error)
	CreatePayslip(ctx context.Context, p Payslip) error
}

// Notifier is told about newly issued payslips.
type Notifier interface {
	PayslipIssued(ctx context.Context, p Payslip) error
}

// IdempotencyStore remembers processed request keys.
type IdempotencyStore interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

const idempotencyModule = "payroll"

// Service handles payslip business logic. It does not authorize; callers do.
type Service struct {
	repo     RepositoryPort
	audit    shared.AuditRecorder
	notifier Notifier
	keys     IdempotencyStore
	validate *validator.Validate
	logger   *slog.Logger
	clock    func() time.Time
}

// NewService builds Service instance. audit and notifier may be nil.
func NewService(repo RepositoryPort, audit shared.AuditRecorder, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		audit:    audit,
		notifier: notifier,
		validate: validator.New(),
		logger:   logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// WithIdempotency makes IssuePayslip reject replayed request keys.
func (s *Service) WithIdempotency(store IdempotencyStore) *Service {
	s.keys = store
	return s
}

// GetPayslip returns a single payslip.
func (s *Service) GetPayslip(ctx context.Context, id uuid.UUID) (Payslip, error) {
	return s.repo.GetPayslip(ctx, id)
}

// ListPayslips returns a page of payslips.
func (s *Service) ListPayslips(ctx context.Context, filters ListFilters) ([]Payslip, shared.Pagination, error) {
	if filters.Period != "" {
		if _, err := shared.ParsePeriod(filters.Period); err != nil {
			return nil, shared.Pagination{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	paging := shared.NewPagination(filters.Page, filters.Limit, 0)
	filters.Page, filters.Limit = paging.Page, paging.PerPage
	rows, total, err := s.repo.ListPayslips(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return rows, shared.NewPagination(filters.Page, filters.Limit, total), nil
}

// IssuePayslip validates and stores a new payslip.
func (s *Service) IssuePayslip(ctx context.Context, req IssuePayslipRequest, issuedBy rbac.UserID) (Payslip, error) {
	req.Period = strings.TrimSpace(req.Period)
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if err := s.validate.Struct(req); err != nil {
		return Payslip{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	period, err := shared.ParsePeriod(req.Period)
	if err != nil {
		return Payslip{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if req.IdempotencyKey != "" && s.keys != nil {
		if err := s.keys.CheckAndInsert(ctx, req.IdempotencyKey, idempotencyModule); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return Payslip{}, fmt.Errorf("%w: request %s already processed", ErrDuplicate, req.IdempotencyKey)
			}
			return Payslip{}, err
		}
	}
	p := Payslip{
		ID:         uuid.New(),
		EmployeeID: rbac.UserID(req.EmployeeID),
		Period:     shared.FormatPeriod(period),
		GrossCents: req.GrossCents,
		NetCents:   req.NetCents,
		Currency:   req.Currency,
		IssuedBy:   issuedBy,
		IssuedAt:   s.clock(),
	}
	if err := s.repo.CreatePayslip(ctx, p); err != nil {
		s.releaseKey(ctx, req.IdempotencyKey)
		return Payslip{}, err
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  int64(issuedBy),
			Action:   "CREATE",
			Entity:   "payslips",
			EntityID: p.ID.String(),
			Meta:     map[string]any{"employee_id": req.EmployeeID, "period": p.Period},
			At:       p.IssuedAt,
		}); err != nil {
			s.logger.Warn("payroll audit", slog.String("payslip_id", p.ID.String()), slog.Any("error", err))
		}
	}
	if s.notifier != nil {
		if err := s.notifier.PayslipIssued(ctx, p); err != nil {
			s.logger.Warn("payroll notify", slog.String("payslip_id", p.ID.String()), slog.Any("error", err))
		}
	}
	return p, nil
}

func (s *Service) releaseKey(ctx context.Context, key string) {
	if key == "" || s.keys == nil {
		return
	}
	if err := s.keys.Delete(ctx, key); err != nil {
		s.logger.Warn("payroll release idempotency key", slog.String("key", key), slog.Any("error", err))
	}
}
