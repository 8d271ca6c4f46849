package edificios

import (
	"log/slog"
	"net/http"

	"github.com/consorcia/consorcia/internal/platform/httpx"
	"github.com/consorcia/consorcia/internal/shared"
)

// Middleware resolves the tenant identity from the session and enforces role
// policy on write routes.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAuth rejects requests without a complete tenant identity and places
// it in the request context for handlers and services.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil {
			httpx.Fail(w, http.StatusUnauthorized, "sesion requerida")
			return
		}
		id, ok := sess.Identity()
		if !ok {
			httpx.Fail(w, http.StatusUnauthorized, "sesion requerida")
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), id)))
	})
}

// RequireWrite allows only roles with write permission (admin, comite).
func (m Middleware) RequireWrite(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := shared.IdentityFromContext(r.Context())
		if !ok {
			httpx.Fail(w, http.StatusUnauthorized, "sesion requerida")
			return
		}
		if !id.Rol.CanWrite() {
			if m.Logger != nil {
				m.Logger.Warn("write denied", slog.Int64("user", id.UserID), slog.String("rol", string(id.Rol)), slog.String("path", r.URL.Path))
			}
			httpx.Fail(w, http.StatusForbidden, "operacion no permitida para el rol")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin restricts building configuration changes to administrators.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := shared.IdentityFromContext(r.Context())
		if !ok {
			httpx.Fail(w, http.StatusUnauthorized, "sesion requerida")
			return
		}
		if id.Rol != shared.RolAdmin {
			httpx.Fail(w, http.StatusForbidden, "operacion reservada al administrador")
			return
		}
		next.ServeHTTP(w, r)
	})
}
