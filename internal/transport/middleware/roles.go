package middleware

import (
	"net/http"

	"github.com/frahmantamala/expense-console/internal"
	"github.com/frahmantamala/expense-console/internal/core/user"
	"github.com/frahmantamala/expense-console/internal/session"
	"github.com/frahmantamala/expense-console/internal/transport"
)

// RequireRoles lets the request through only for a signed-in user holding
// one of roles.
func RequireRoles(base *transport.BaseHandler, roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := session.FromContext(r.Context())
			if sess == nil || !sess.IsAuthenticated() {
				base.WriteAppError(w, r, internal.ErrNotAuthenticated, "Please sign in to continue")
				return
			}

			u := sess.CurrentUser()
			for _, role := range roles {
				if u.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			base.Logger.Warn("Access denied: role not allowed",
				"user_id", u.ID,
				"role", u.Role,
				"required_roles", roles)
			base.WriteAppError(w, r, internal.ErrRoleNotAllowed, "Your role cannot access this view")
		})
	}
}
