package approval

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/expense-console/internal"
	"github.com/frahmantamala/expense-console/internal/backend"
	"github.com/frahmantamala/expense-console/internal/core/user"
	"github.com/frahmantamala/expense-console/internal/modal"
	"github.com/frahmantamala/expense-console/internal/session"
	"github.com/frahmantamala/expense-console/internal/transport"
)

// Roles that review expenses.
var Roles = []user.Role{user.RoleManager, user.RoleAdmin}

type ServiceAPI interface {
	Overview(ctx context.Context, token string) (*Overview, error)
	Act(ctx context.Context, actor *user.Profile, token string, d Decision) error
	TeamExpenses(ctx context.Context, token string) ([]backend.Expense, error)
	History(ctx context.Context, token string) ([]backend.ApprovalRecord, error)
}

// Section is the data of the approvals fragment of the manager dashboard.
type Section struct {
	Overview *Overview
	Err      string
	Alert    transport.Alert
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(base *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: base,
		Service:     service,
	}
}

func (h *Handler) Definitions() []modal.Definition {
	return []modal.Definition{
		{
			Kind:     modal.KindTeamExpenses,
			Template: "modal/team-expenses",
			Roles:    Roles,
			Load: func(sess *session.Session, _ url.Values) modal.LoadFunc {
				token := sess.Token()
				return func(ctx context.Context) (any, error) {
					return h.Service.TeamExpenses(ctx, token)
				}
			},
		},
		{
			Kind:     modal.KindApprovalHistory,
			Template: "modal/approval-history",
			Roles:    Roles,
			Load: func(sess *session.Session, _ url.Values) modal.LoadFunc {
				token := sess.Token()
				return func(ctx context.Context) (any, error) {
					return h.Service.History(ctx, token)
				}
			},
		},
	}
}

// LoadSection fetches the overview; a failure degrades to an inline error.
func (h *Handler) LoadSection(ctx context.Context, token string) Section {
	overview, err := h.Service.Overview(ctx, token)
	if err != nil {
		return Section{Err: internal.UserMessage(err, "Failed to load pending approvals")}
	}
	return Section{Overview: overview}
}

// Pending re-renders the approvals section.
func (h *Handler) Pending(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	h.RenderFragment(w, http.StatusOK, "partial/approvals", h.LoadSection(r.Context(), sess.Token()))
}

// Act approves or rejects one expense, then reloads the pending list and the
// statistics together.
func (h *Handler) Act(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		h.Logger.Error("ActOnExpense: invalid form", "error", err)
		h.WriteAppError(w, r, err, "Invalid form submission")
		return
	}

	d := Decision{
		ExpenseID: chi.URLParam(r, "expenseID"),
		Action:    backend.ApprovalAction(strings.ToLower(r.PostForm.Get("action"))),
		Comments:  strings.TrimSpace(r.PostForm.Get("comments")),
	}

	err := h.Service.Act(r.Context(), sess.CurrentUser(), sess.Token(), d)
	section := h.LoadSection(r.Context(), sess.Token())
	if err != nil {
		h.Logger.Error("ActOnExpense: service error", "error", err, "expense_id", d.ExpenseID)
		section.Alert = transport.Alert{Level: "error", Message: internal.UserMessage(err, "Failed to process approval")}
		h.RenderFragment(w, http.StatusOK, "partial/approvals", section)
		return
	}

	h.Logger.Info("ActOnExpense: expense actioned", "expense_id", d.ExpenseID, "action", d.Action)
	h.Trigger(w, d.SuccessMessage())
	h.RenderFragment(w, http.StatusOK, "partial/approvals", section)
}
