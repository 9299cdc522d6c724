package auth

import (
	"context"
	"net/http"

	"github.com/frahmantamala/expense-console/internal/modal"
	"github.com/frahmantamala/expense-console/internal/session"
	"github.com/frahmantamala/expense-console/internal/transport"
)

// SessionRotator moves a session to a fresh id and cookie.
type SessionRotator interface {
	Rotate(ctx context.Context, w http.ResponseWriter, sess *session.Session) error
}

type Handler struct {
	*transport.BaseHandler
	Modals  *modal.Handler
	Cookies SessionRotator
}

func NewHandler(base *transport.BaseHandler, modals *modal.Handler, cookies SessionRotator) *Handler {
	return &Handler{
		BaseHandler: base,
		Modals:      modals,
		Cookies:     cookies,
	}
}

func (h *Handler) Definitions() []modal.Definition {
	return []modal.Definition{
		{Kind: modal.KindLogin, Template: "modal/login", Anonymous: true},
		{Kind: modal.KindSignup, Template: "modal/signup", Anonymous: true},
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := h.Modals.Lookup(w, r, modal.KindLogin)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.Logger.Error("Login: invalid form", "error", err)
		h.WriteAppError(w, r, err, "Invalid form submission")
		return
	}

	res := req.Session.Login(r.Context(), loginFormFromValues(r.PostForm))
	if !res.Success {
		h.Logger.Info("Login: rejected", "message", res.Message)
		req.Instance.SetFormFailure(modal.WithoutSecrets(r.PostForm), res.Message, res.Fields)
		h.Modals.Render(w, r, http.StatusUnprocessableEntity, req.Session, req.Instance)
		return
	}

	h.signedIn(w, r, req)
}

// Signup registers the account and signs it in. A password mismatch is
// answered without contacting the remote API.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	req, ok := h.Modals.Lookup(w, r, modal.KindSignup)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.Logger.Error("Signup: invalid form", "error", err)
		h.WriteAppError(w, r, err, "Invalid form submission")
		return
	}

	res := req.Session.Signup(r.Context(), signupFormFromValues(r.PostForm))
	if !res.Success {
		h.Logger.Info("Signup: rejected", "message", res.Message)
		req.Instance.SetFormFailure(modal.WithoutSecrets(r.PostForm), res.Message, res.Fields)
		h.Modals.Render(w, r, http.StatusUnprocessableEntity, req.Session, req.Instance)
		return
	}

	h.signedIn(w, r, req)
}

// signedIn closes the modal and remounts the page so the dashboard replaces
// the landing page.
func (h *Handler) signedIn(w http.ResponseWriter, r *http.Request, req *modal.Request) {
	req.Registry.Close(req.Instance.ID)
	oldID := req.Session.ID()
	if err := h.Cookies.Rotate(r.Context(), w, req.Session); err != nil {
		h.Logger.Error("Auth: failed to rotate session", "error", err)
	}
	h.Modals.Hub().Drop(oldID)
	h.Logger.Info("Auth: signed in", "username", req.Session.CurrentUser().Username)
	h.Redirect(w, r, "/")
}

// Logout clears the session whatever the remote API answers and remounts
// the landing page.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess != nil {
		sess.Logout(r.Context())
		oldID := sess.ID()
		if err := h.Cookies.Rotate(r.Context(), w, sess); err != nil {
			h.Logger.Error("Auth: failed to rotate session", "error", err)
		}
		h.Modals.Hub().Drop(oldID)
	}
	h.Redirect(w, r, "/")
}
