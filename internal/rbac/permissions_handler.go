package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-hr/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-hr/internal/shared"
)

// PermissionsHandler exposes the permission catalogue.
type PermissionsHandler struct {
	logger *slog.Logger
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger) *PermissionsHandler {
	return &PermissionsHandler{logger: logger}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.listPermissions)
	r.Get("/me", h.myPermissions)
}

type permissionView struct {
	Name  string `json:"name"`
	Alias string `json:"alias"`
}

func toViews(aliases []shared.PermissionAlias) []permissionView {
	out := make([]permissionView, 0, len(aliases))
	for _, a := range aliases {
		out = append(out, permissionView{Name: a.String(), Alias: a.Alias()})
	}
	return out
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": toViews(shared.HRScopes())})
}

func (h *PermissionsHandler) myPermissions(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var granted []shared.PermissionAlias
	for _, a := range shared.HRScopes() {
		if HasPermission(principal, a) {
			granted = append(granted, a)
		}
	}
	id, _ := IdentityOf(principal)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"user_id":     int64(id),
		"permissions": toViews(granted),
	})
}
