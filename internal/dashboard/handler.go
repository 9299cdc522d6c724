package dashboard

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/expense-console/internal"
	"github.com/frahmantamala/expense-console/internal/approval"
	"github.com/frahmantamala/expense-console/internal/company"
	"github.com/frahmantamala/expense-console/internal/landing"
	"github.com/frahmantamala/expense-console/internal/session"
	"github.com/frahmantamala/expense-console/internal/transport"
	"github.com/frahmantamala/expense-console/internal/view"
)

type ApprovalsLoader interface {
	LoadSection(ctx context.Context, token string) approval.Section
}

type CompaniesLoader interface {
	LoadSection(ctx context.Context, token string) company.Section
}

// CookieRenewer re-issues the session cookie with a fresh expiry.
type CookieRenewer interface {
	Renew(w http.ResponseWriter, sess *session.Session) error
}

// Notices are the placeholder messages of features the console does not
// offer yet.
var Notices = map[string]string{
	"create-flow":      "Create approval flow view coming soon!",
	"manage-companies": "Companies management feature coming soon!",
	"system-users":     "System users management feature coming soon!",
	"system-analytics": "System analytics feature coming soon!",
}

type Handler struct {
	*transport.BaseHandler
	Landing *landing.Content
	Cookies CookieRenewer
	src     sources
}

func NewHandler(base *transport.BaseHandler, content *landing.Content, cookies CookieRenewer, approvals ApprovalsLoader, companies CompaniesLoader, defaultCurrency string) *Handler {
	return &Handler{
		BaseHandler: base,
		Landing:     content,
		Cookies:     cookies,
		src: sources{
			approvals:       approvals,
			companies:       companies,
			defaultCurrency: defaultCurrency,
		},
	}
}

// Home mounts the landing page or the dashboard of the signed-in user. The
// profile is refreshed first so a role change on the server takes effect.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil || !sess.IsAuthenticated() {
		h.RenderPage(w, http.StatusOK, view.PageLanding, view.Page{
			Title: h.Landing.Hero.Title,
			Body:  h.Landing,
		})
		return
	}

	// a successful refresh extends stored entries; the cookie follows
	if err := sess.RefreshUser(r.Context()); err != nil {
		h.Logger.Debug("Home: profile refresh failed", "error", err)
	} else if err := h.Cookies.Renew(w, sess); err != nil {
		h.Logger.Error("Home: failed to renew session cookie", "error", err)
	}
	u := sess.CurrentUser()

	variant, err := For(u.Role)
	if err != nil {
		h.Logger.Error("Home: no dashboard for role", "role", u.Role, "user_id", u.ID)
		h.WriteAppError(w, r, err, "Your account cannot use this console")
		return
	}

	h.RenderPage(w, http.StatusOK, variant.Page(), view.Page{
		Title: variant.Title(),
		User:  u,
		Body:  variant.build(r.Context(), h.src, u, sess.Token()),
	})
}

// Notice answers a placeholder action with its message as a toast.
func (h *Handler) Notice(w http.ResponseWriter, r *http.Request) {
	feature := chi.URLParam(r, "feature")
	msg, ok := Notices[feature]
	if !ok {
		h.WriteAppError(w, r, internal.NewNotFoundError("Unknown feature", internal.ErrCodeValidationFailed), "Unknown feature")
		return
	}
	h.Trigger(w, msg)
	w.WriteHeader(http.StatusOK)
}
