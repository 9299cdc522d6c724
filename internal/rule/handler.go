package rule

import (
	"context"
	"net/http"
	"net/url"

	"github.com/frahmantamala/expense-console/internal/backend"
	"github.com/frahmantamala/expense-console/internal/core/user"
	"github.com/frahmantamala/expense-console/internal/modal"
	"github.com/frahmantamala/expense-console/internal/session"
	"github.com/frahmantamala/expense-console/internal/transport"
)

// Roles that manage approval rules.
var Roles = []user.Role{user.RoleManager, user.RoleAdmin}

type ServiceAPI interface {
	Summary(ctx context.Context, token string) (*backend.RulesSummary, error)
	ManagerData(ctx context.Context, token string) (*ManagerData, error)
	Create(ctx context.Context, actor *user.Profile, token string, form Form) (*backend.ApprovalRule, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	Modals  *modal.Handler
}

func NewHandler(base *transport.BaseHandler, service ServiceAPI, modals *modal.Handler) *Handler {
	return &Handler{
		BaseHandler: base,
		Service:     service,
		Modals:      modals,
	}
}

func (h *Handler) Definitions() []modal.Definition {
	return []modal.Definition{
		{
			Kind:     modal.KindConditionalRules,
			Template: "modal/conditional-rules",
			Roles:    Roles,
			Load: func(sess *session.Session, _ url.Values) modal.LoadFunc {
				token := sess.Token()
				return func(ctx context.Context) (any, error) {
					return h.Service.Summary(ctx, token)
				}
			},
		},
		{
			Kind:     modal.KindRuleManager,
			Template: "modal/rule-manager",
			Roles:    Roles,
			Load: func(sess *session.Session, _ url.Values) modal.LoadFunc {
				token := sess.Token()
				return func(ctx context.Context) (any, error) {
					return h.Service.ManagerData(ctx, token)
				}
			},
		},
	}
}

// CreateRule creates a rule from the create tab, then switches to the rules
// tab and reloads the manager in place.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	req, ok := h.Modals.Lookup(w, r, modal.KindRuleManager)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.Logger.Error("CreateRule: invalid form", "error", err)
		h.WriteAppError(w, r, err, "Invalid form submission")
		return
	}

	created, err := h.Service.Create(r.Context(), req.Session.CurrentUser(), req.Session.Token(), FormFromValues(r.PostForm))
	if err != nil {
		h.Logger.Info("CreateRule: rejected", "error", err)
		req.Instance.SetParam("tab", TabCreate)
		h.Modals.Fail(w, r, req, r.PostForm, err, "Failed to create approval rule")
		return
	}

	h.Logger.Info("CreateRule: rule created", "rule_id", created.ID, "name", created.Name)
	req.Instance.ClearForm()
	req.Instance.SetFlash(modal.SuccessFlash("Approval rule created successfully!"))
	req.Instance.SetParam("tab", TabRules)
	h.Modals.Reload(req)
	h.Trigger(w, "Approval rule created successfully!")
	h.Modals.Render(w, r, http.StatusOK, req.Session, req.Instance)
}
