package expense

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

type ServiceAPI interface {
	SubmissionData(ctx context.Context, token, currency string) (*SubmissionData, error)
	Submit(ctx context.Context, actor *user.Profile, token string, form SubmissionForm, fallbackCurrency string) (*backend.Expense, error)
	History(ctx context.Context, token string) (*History, error)
}

type Handler struct {
	*transport.BaseHandler
	Service         ServiceAPI
	Modals          *modal.Handler
	DefaultCurrency string
}

func NewHandler(base *transport.BaseHandler, service ServiceAPI, modals *modal.Handler, defaultCurrency string) *Handler {
	return &Handler{
		BaseHandler:     base,
		Service:         service,
		Modals:          modals,
		DefaultCurrency: defaultCurrency,
	}
}

func (h *Handler) Definitions() []modal.Definition {
	return []modal.Definition{
		{
			Kind:     modal.KindExpenseSubmission,
			Template: "modal/expense-submission",
			Load: func(sess *session.Session, _ url.Values) modal.LoadFunc {
				token, currency := sess.Token(), h.currencyOf(sess)
				return func(ctx context.Context) (any, error) {
					return h.Service.SubmissionData(ctx, token, currency)
				}
			},
		},
		{
			Kind:     modal.KindExpenseHistory,
			Template: "modal/expense-history",
			Load: func(sess *session.Session, _ url.Values) modal.LoadFunc {
				token := sess.Token()
				return func(ctx context.Context) (any, error) {
					return h.Service.History(ctx, token)
				}
			},
		},
	}
}

func (h *Handler) currencyOf(sess *session.Session) string {
	if u := sess.CurrentUser(); u != nil {
		return u.Currency(h.DefaultCurrency)
	}
	return h.DefaultCurrency
}

// Submit creates the expense and closes the modal. Invalid input never
// reaches the remote API.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	req, ok := h.Modals.Lookup(w, r, modal.KindExpenseSubmission)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.Logger.Error("SubmitExpense: invalid form", "error", err)
		h.WriteAppError(w, r, err, "Invalid form submission")
		return
	}

	form := SubmissionFormFromValues(r.PostForm)
	created, err := h.Service.Submit(r.Context(), req.Session.CurrentUser(), req.Session.Token(), form, h.currencyOf(req.Session))
	if err != nil {
		h.Logger.Info("SubmitExpense: rejected", "error", err)
		h.Modals.Fail(w, r, req, r.PostForm, err, "Failed to submit expense")
		return
	}

	h.Logger.Info("SubmitExpense: expense submitted", "expense_id", created.ID)
	h.Modals.Complete(w, r, req, "Expense submitted successfully!")
}
