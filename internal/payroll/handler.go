package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-hr/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-hr/internal/policy"
	"github.com/odyssey-erp/odyssey-hr/internal/rbac"
	"github.com/odyssey-erp/odyssey-hr/internal/shared"
)

// IdempotencyHeader lets clients retry an issue request safely.
const IdempotencyHeader = "Idempotency-Key"

// ServicePort is the subset of Service used by the handler.
type ServicePort interface {
	GetPayslip(ctx context.Context, id uuid.UUID) (Payslip, error)
	ListPayslips(ctx context.Context, filters ListFilters) ([]Payslip, shared.Pagination, error)
	IssuePayslip(ctx context.Context, req IssuePayslipRequest, issuedBy rbac.UserID) (Payslip, error)
}

// Handler exposes payslip endpoints.
type Handler struct {
	logger  *slog.Logger
	service ServicePort
	authz   *policy.Authorizer
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service ServicePort, authz *policy.Authorizer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, authz: authz}
}

// MountRoutes registers payslip routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listPayslips)
	r.Post("/", h.issuePayslip)
	r.Get("/{id}", h.showPayslip)
	r.Put("/{id}", h.updatePayslip)
	r.Delete("/{id}", h.deletePayslip)
}

func (h *Handler) listPayslips(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, policy.ActionList, nil) {
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	employeeID, _ := strconv.ParseInt(r.URL.Query().Get("employee_id"), 10, 64)
	rows, paging, err := h.service.ListPayslips(r.Context(), ListFilters{
		Period:     r.URL.Query().Get("period"),
		EmployeeID: rbac.UserID(employeeID),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		h.respondError(w, "list payslips", err)
		return
	}
	if rows == nil {
		rows = []Payslip{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payslips": rows, "paging": paging})
}

func (h *Handler) issuePayslip(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, policy.ActionCreate, nil) {
		return
	}
	var req IssuePayslipRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	req.IdempotencyKey = r.Header.Get(IdempotencyHeader)
	issuedBy, _ := rbac.IdentityOf(rbac.PrincipalFromContext(r.Context()))
	p, err := h.service.IssuePayslip(r.Context(), req, issuedBy)
	if err != nil {
		h.respondError(w, "issue payslip", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) showPayslip(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadPayslip(w, r)
	if !ok {
		return
	}
	if !h.authorize(w, r, policy.ActionView, &p) {
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) updatePayslip(w http.ResponseWriter, r *http.Request) {
	h.mutateIssued(w, r, policy.ActionEdit)
}

func (h *Handler) deletePayslip(w http.ResponseWriter, r *http.Request) {
	h.mutateIssued(w, r, policy.ActionDelete)
}

// mutateIssued guards edit and delete. No storage operation exists for either.
func (h *Handler) mutateIssued(w http.ResponseWriter, r *http.Request, action policy.Action) {
	p, ok := h.loadPayslip(w, r)
	if !ok {
		return
	}
	if !h.authorize(w, r, action, &p) {
		return
	}
	httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "issued payslips cannot be changed")
}

// loadPayslip runs before authorization: ownership lives on the stored record,
// so a caller without access gets 404 for unknown ids and 403 for known ones.
func (h *Handler) loadPayslip(w http.ResponseWriter, r *http.Request) (Payslip, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid payslip id", httpx.ErrValidation))
		return Payslip{}, false
	}
	p, err := h.service.GetPayslip(r.Context(), id)
	if err != nil {
		h.respondError(w, "get payslip", err)
		return Payslip{}, false
	}
	return p, true
}

// authorize writes the response and returns false unless the action is allowed.
// A nil instance means a type-level check (create, list).
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, action policy.Action, p *Payslip) bool {
	principal := rbac.PrincipalFromContext(r.Context())
	var (
		allowed bool
		err     error
	)
	if p == nil {
		allowed, err = h.authz.AuthorizeType(r.Context(), principal, action, policy.ResourcePayslip)
	} else {
		allowed, err = h.authz.Authorize(r.Context(), principal, action, policy.ResourcePayslip, p)
	}
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrMisconfigured, err))
		return false
	}
	if !allowed {
		httpx.RespondError(w, httpx.ErrForbidden)
		return false
	}
	return true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrNotFound, err))
	case errors.Is(err, ErrDuplicate):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrDuplicate, err))
	case errors.Is(err, ErrValidation):
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
