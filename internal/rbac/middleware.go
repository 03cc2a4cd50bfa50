package rbac

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/odyssey-erp/odyssey-hr/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-hr/internal/shared"
)

// UserHeader carries the authenticated user ID set by the upstream gateway.
const UserHeader = "X-Odyssey-User"

// PrincipalLoader builds principals for authenticated user IDs.
type PrincipalLoader interface {
	LoadPrincipal(ctx context.Context, id UserID) (*User, error)
}

// Middleware wires RBAC helpers for HTTP handlers.
type Middleware struct {
	Loader PrincipalLoader
	Logger *slog.Logger
}

// Principal resolves the caller and stores it in the request context.
func (m Middleware) Principal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := m.currentUserID(r)
		if !ok {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		principal, err := m.Loader.LoadPrincipal(r.Context(), id)
		if err != nil {
			if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInactive) {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			m.logger().Error("rbac load principal", slog.Int64("user_id", int64(id)), slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
	})
}

// RequireAny ensures the current principal holds at least one of the aliases.
func (m Middleware) RequireAny(aliases ...shared.PermissionAlias) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(aliases) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principal := PrincipalFromContext(r.Context())
			if principal == nil {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			for _, a := range aliases {
				if HasPermission(principal, a) {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.RespondError(w, httpx.ErrForbidden)
		})
	}
}

func (m Middleware) currentUserID(r *http.Request) (UserID, bool) {
	raw := strings.TrimSpace(r.Header.Get(UserHeader))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		m.logger().Warn("rbac parse user id", slog.String("value", raw))
		return 0, false
	}
	return UserID(id), true
}

func (m Middleware) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}
