package company

import (
	"context"
	"net/http"

	"github.com/frahmantamala/expense-console/internal"
	"github.com/frahmantamala/expense-console/internal/backend"
	"github.com/frahmantamala/expense-console/internal/core/user"
	"github.com/frahmantamala/expense-console/internal/modal"
	"github.com/frahmantamala/expense-console/internal/session"
	"github.com/frahmantamala/expense-console/internal/transport"
)

// EventChanged is triggered after a company was created so the list reloads.
const EventChanged = "companies-changed"

type ServiceAPI interface {
	List(ctx context.Context, token string) ([]backend.Company, error)
	Create(ctx context.Context, actor *user.Profile, token string, form Form) (*backend.Company, error)
}

// Section is the data of the company list fragment.
type Section struct {
	Companies []backend.Company
	Err       string
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
			Kind:     modal.KindCreateCompany,
			Template: "modal/create-company",
			Roles:    []user.Role{user.RoleSuperUser},
		},
	}
}

// LoadSection fetches the companies; a failure degrades to an inline error.
func (h *Handler) LoadSection(ctx context.Context, token string) Section {
	companies, err := h.Service.List(ctx, token)
	if err != nil {
		return Section{Err: internal.UserMessage(err, "Failed to load companies")}
	}
	return Section{Companies: companies}
}

// List re-renders the company list.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	h.RenderFragment(w, http.StatusOK, "partial/companies", h.LoadSection(r.Context(), sess.Token()))
}

// Create provisions the company with its admin and closes the modal.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.Modals.Lookup(w, r, modal.KindCreateCompany)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.Logger.Error("CreateCompany: invalid form", "error", err)
		h.WriteAppError(w, r, err, "Invalid form submission")
		return
	}

	created, err := h.Service.Create(r.Context(), req.Session.CurrentUser(), req.Session.Token(), FormFromValues(r.PostForm))
	if err != nil {
		h.Logger.Info("CreateCompany: rejected", "error", err)
		h.Modals.Fail(w, r, req, r.PostForm, err, "Failed to create company")
		return
	}

	h.Logger.Info("CreateCompany: company created", "company_id", created.ID, "name", created.Name)
	h.Modals.Complete(w, r, req, "Company created successfully!")
}
