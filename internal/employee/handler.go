package employee

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/expense-console/internal"
	"github.com/frahmantamala/expense-console/internal/backend"
	"github.com/frahmantamala/expense-console/internal/core/user"
	"github.com/frahmantamala/expense-console/internal/modal"
	"github.com/frahmantamala/expense-console/internal/session"
	"github.com/frahmantamala/expense-console/internal/transport"
)

// ManagingRoles lists the roles that manage employees.
var ManagingRoles = []user.Role{user.RoleManager, user.RoleAdmin}

var errEmployeeNotFound = internal.NewNotFoundError("Employee not found. Reload the list and try again.", internal.ErrCodeInvalidIdentifier)

type ServiceAPI interface {
	List(ctx context.Context, token string) (*Data, error)
	Create(ctx context.Context, actor *user.Profile, token string, form Form) (*backend.Employee, error)
	Toggle(ctx context.Context, actor *user.Profile, token string, e backend.Employee) error
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
			Kind:     modal.KindEmployees,
			Template: "modal/employees",
			Roles:    ManagingRoles,
			Load: func(sess *session.Session, _ url.Values) modal.LoadFunc {
				token := sess.Token()
				return func(ctx context.Context) (any, error) {
					return h.Service.List(ctx, token)
				}
			},
		},
	}
}

// Create adds an employee and reloads the list in place.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.Modals.Lookup(w, r, modal.KindEmployees)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.Logger.Error("CreateEmployee: invalid form", "error", err)
		h.WriteAppError(w, r, err, "Invalid form submission")
		return
	}

	created, err := h.Service.Create(r.Context(), req.Session.CurrentUser(), req.Session.Token(), FormFromValues(r.PostForm))
	if err != nil {
		h.Logger.Info("CreateEmployee: rejected", "error", err)
		h.Modals.Fail(w, r, req, r.PostForm, err, "Failed to add employee")
		return
	}

	h.Logger.Info("CreateEmployee: employee created", "user_id", created.ID)
	h.reloaded(w, r, req, "Employee added successfully!")
}

// Toggle flips the active status of the employee named in the URL, using the
// status shown in the loaded list.
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	req, ok := h.Modals.Lookup(w, r, modal.KindEmployees)
	if !ok {
		return
	}

	data, _ := req.Instance.View().Data.(*Data)
	if data == nil {
		h.WriteAppError(w, r, errEmployeeNotFound, "Employee not found")
		return
	}
	target, found := data.Find(chi.URLParam(r, "userID"))
	if !found {
		h.Logger.Warn("ToggleEmployee: unknown employee", "user_id", chi.URLParam(r, "userID"))
		req.Instance.SetFlash(modal.ErrorFlash(errEmployeeNotFound.Message))
		h.Modals.Render(w, r, http.StatusNotFound, req.Session, req.Instance)
		return
	}

	if err := h.Service.Toggle(r.Context(), req.Session.CurrentUser(), req.Session.Token(), target); err != nil {
		h.Logger.Info("ToggleEmployee: rejected", "error", err, "user_id", target.ID)
		req.Instance.SetFlash(modal.ErrorFlash(internal.UserMessage(err, "Failed to update employee")))
		h.Modals.Render(w, r, transport.StatusFor(err), req.Session, req.Instance)
		return
	}

	h.Logger.Info("ToggleEmployee: status changed", "user_id", target.ID, "is_active", !target.IsActive)
	h.reloaded(w, r, req, ToggleMessage(target))
}

func (h *Handler) reloaded(w http.ResponseWriter, r *http.Request, req *modal.Request, message string) {
	req.Instance.ClearForm()
	req.Instance.SetFlash(modal.SuccessFlash(message))
	h.Modals.Reload(req)
	h.Trigger(w, message)
	h.Modals.Render(w, r, http.StatusOK, req.Session, req.Instance)
}
