package profiles

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

// ServicePort is the subset of Service used by the handler.
type ServicePort interface {
	GetProfile(ctx context.Context, id uuid.UUID) (Profile, error)
	ListProfiles(ctx context.Context, filters ListFilters) ([]Profile, shared.Pagination, error)
	CreateProfile(ctx context.Context, req CreateProfileRequest, actor rbac.UserID) (Profile, error)
	UpdateProfile(ctx context.Context, current Profile, req UpdateProfileRequest, actor rbac.UserID) (Profile, error)
	DeleteProfile(ctx context.Context, id uuid.UUID, actor rbac.UserID) error
}

// Handler exposes profile endpoints.
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

// MountRoutes registers profile routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listProfiles)
	r.Post("/", h.createProfile)
	r.Get("/{id}", h.showProfile)
	r.Put("/{id}", h.updateProfile)
	r.Delete("/{id}", h.deleteProfile)
}

func (h *Handler) listProfiles(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, policy.ActionList, nil) {
		return
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, paging, err := h.service.ListProfiles(r.Context(), ListFilters{
		Department: r.URL.Query().Get("department"),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		h.respondError(w, "list profiles", err)
		return
	}
	if rows == nil {
		rows = []Profile{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"profiles": rows, "paging": paging})
}

func (h *Handler) createProfile(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, policy.ActionCreate, nil) {
		return
	}
	var req CreateProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	p, err := h.service.CreateProfile(r.Context(), req, h.actor(r))
	if err != nil {
		h.respondError(w, "create profile", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) showProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProfile(w, r)
	if !ok {
		return
	}
	if !h.authorize(w, r, policy.ActionView, &p) {
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProfile(w, r)
	if !ok {
		return
	}
	if !h.authorize(w, r, policy.ActionEdit, &p) {
		return
	}
	var req UpdateProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrValidation, err))
		return
	}
	updated, err := h.service.UpdateProfile(r.Context(), p, req, h.actor(r))
	if err != nil {
		h.respondError(w, "update profile", err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := h.loadProfile(w, r)
	if !ok {
		return
	}
	if !h.authorize(w, r, policy.ActionDelete, &p) {
		return
	}
	if err := h.service.DeleteProfile(r.Context(), p.ID, h.actor(r)); err != nil {
		h.respondError(w, "delete profile", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// loadProfile runs before authorization: ownership lives on the stored record,
// so a caller without access gets 404 for unknown ids and 403 for known ones.
func (h *Handler) loadProfile(w http.ResponseWriter, r *http.Request) (Profile, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid profile id", httpx.ErrValidation))
		return Profile{}, false
	}
	p, err := h.service.GetProfile(r.Context(), id)
	if err != nil {
		h.respondError(w, "get profile", err)
		return Profile{}, false
	}
	return p, true
}

func (h *Handler) actor(r *http.Request) rbac.UserID {
	id, _ := rbac.IdentityOf(rbac.PrincipalFromContext(r.Context()))
	return id
}

// authorize writes the response and returns false unless the action is allowed.
// A nil instance means a type-level check (create, list).
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, action policy.Action, p *Profile) bool {
	principal := rbac.PrincipalFromContext(r.Context())
	var (
		allowed bool
		err     error
	)
	if p == nil {
		allowed, err = h.authz.AuthorizeType(r.Context(), principal, action, policy.ResourceProfile)
	} else {
		allowed, err = h.authz.Authorize(r.Context(), principal, action, policy.ResourceProfile, p)
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
