package modal

import (
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/expense-console/internal"
	"github.com/frahmantamala/expense-console/internal/core/user"
	"github.com/frahmantamala/expense-console/internal/session"
	"github.com/frahmantamala/expense-console/internal/transport"
)

// ParamOnSuccess names the event the opener wants triggered after a
// successful action.
const ParamOnSuccess = "on_success"

var eventPattern = regexp.MustCompile(`^[a-z][a-z0-9:-]{0,63}$`)

var errAlreadySignedIn = internal.NewForbiddenError("You are already signed in", internal.ErrCodeRoleNotAllowed)

// Definition describes one kind of modal.
type Definition struct {
	Kind     Kind
	Template string
	// Anonymous modals are only offered to signed-out sessions.
	Anonymous bool
	// Roles limits the modal to these roles; empty allows any signed-in user.
	Roles []user.Role
	// Load builds the loader of a new instance. Nil means nothing to load.
	Load func(sess *session.Session, params url.Values) LoadFunc
}

func (d Definition) allows(sess *session.Session) error {
	if d.Anonymous {
		if sess.IsAuthenticated() {
			return errAlreadySignedIn
		}
		return nil
	}
	if !sess.IsAuthenticated() {
		return internal.ErrNotAuthenticated
	}
	if len(d.Roles) == 0 {
		return nil
	}
	role := sess.CurrentUser().Role
	for _, r := range d.Roles {
		if r == role {
			return nil
		}
	}
	return internal.ErrRoleNotAllowed
}

func (d Definition) loader(sess *session.Session, params url.Values) LoadFunc {
	if d.Load == nil {
		return nil
	}
	return d.Load(sess, params)
}

// Data is what a modal template receives.
type Data struct {
	View
	User *user.Profile
}

// Request is an action posted to an open modal.
type Request struct {
	Session    *session.Session
	Registry   *Registry
	Instance   *Instance
	Definition Definition
}

type Handler struct {
	*transport.BaseHandler
	hub  *Hub
	defs map[Kind]Definition
}

func NewHandler(base *transport.BaseHandler, hub *Hub, defs ...Definition) *Handler {
	h := &Handler{
		BaseHandler: base,
		hub:         hub,
		defs:        map[Kind]Definition{},
	}
	h.Register(defs...)
	return h
}

func (h *Handler) Register(defs ...Definition) {
	for _, d := range defs {
		h.defs[d.Kind] = d
	}
}

func (h *Handler) Hub() *Hub {
	return h.hub
}

// Routes mounts the lifecycle routes. Feature actions are mounted by their
// own handlers next to them.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/{kind}", h.Open)
	r.Get("/{kind}/{id}", h.Show)
	r.Delete("/{kind}/{id}", h.Destroy)
}

// Open replaces the session's modal with a new instance and answers with its
// first render, normally the loading placeholder.
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	kind := Kind(chi.URLParam(r, "kind"))
	def, ok := h.defs[kind]
	if !ok {
		h.Logger.Warn("Modal: unknown kind", "kind", kind)
		h.WriteAppError(w, r, internal.NewNotFoundError("Unknown dialog", internal.ErrCodeUnknownModal), "Unknown dialog")
		return
	}

	sess := session.FromContext(r.Context())
	if sess == nil {
		h.Logger.Error("Modal: session missing from context")
		h.WriteAppError(w, r, internal.ErrSessionInvalid, "Session is invalid")
		return
	}
	if err := def.allows(sess); err != nil {
		h.Logger.Info("Modal: open refused", "kind", kind, "error", err)
		h.WriteAppError(w, r, err, "You cannot open this dialog")
		return
	}

	params := openParams(r.URL.Query())
	reg := h.hub.Registry(sess.ID())
	inst := reg.Open(kind, params, def.loader(sess, params))
	h.Render(w, r, http.StatusOK, sess, inst)
}

// Show renders the current state of an open modal. A tab parameter switches
// the active tab first.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	req, ok := h.Lookup(w, r, Kind(chi.URLParam(r, "kind")))
	if !ok {
		return
	}
	if tab := r.URL.Query().Get("tab"); tab != "" {
		req.Instance.SetParam("tab", tab)
	}
	h.Render(w, r, http.StatusOK, req.Session, req.Instance)
}

// Destroy closes the modal. Closing one that is already gone succeeds.
func (h *Handler) Destroy(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess != nil {
		id := chi.URLParam(r, "id")
		if h.hub.Registry(sess.ID()).Close(id) {
			h.Logger.Debug("Modal: closed by user", "modal_id", id)
		}
	}
	w.WriteHeader(http.StatusOK)
}

// Lookup resolves the open modal of kind named by the id URL parameter. On
// failure the response has been written and ok is false.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request, kind Kind) (*Request, bool) {
	def, ok := h.defs[kind]
	if !ok {
		h.WriteAppError(w, r, internal.NewNotFoundError("Unknown dialog", internal.ErrCodeUnknownModal), "Unknown dialog")
		return nil, false
	}

	sess := session.FromContext(r.Context())
	if sess == nil {
		h.Logger.Error("Modal: session missing from context")
		h.WriteAppError(w, r, internal.ErrSessionInvalid, "Session is invalid")
		return nil, false
	}
	if err := def.allows(sess); err != nil {
		h.WriteAppError(w, r, err, "You cannot use this dialog")
		return nil, false
	}

	reg := h.hub.Registry(sess.ID())
	inst, err := reg.Get(chi.URLParam(r, "id"))
	if err != nil || inst.Kind != kind {
		h.WriteAppError(w, r, internal.ErrModalNotFound, "This dialog is no longer open")
		return nil, false
	}
	return &Request{Session: sess, Registry: reg, Instance: inst, Definition: def}, true
}

// Render writes the modal's fragment.
func (h *Handler) Render(w http.ResponseWriter, r *http.Request, status int, sess *session.Session, inst *Instance) {
	def := h.defs[inst.Kind]
	h.RenderFragment(w, status, def.Template, Data{View: inst.View(), User: sess.CurrentUser()})
}

// Reload starts a fresh load of the modal's data in place.
func (h *Handler) Reload(req *Request) {
	req.Registry.Reload(req.Instance, req.Definition.loader(req.Session, req.Instance.View().Params))
}

// Complete closes the modal after a successful action and hands control back
// to the opener through the event it asked for.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request, req *Request, toast string) {
	onSuccess := req.Instance.Param(ParamOnSuccess)
	req.Registry.Close(req.Instance.ID)
	h.Trigger(w, toast, onSuccess)
	w.WriteHeader(http.StatusOK)
}

// Fail keeps the modal open with the submitted values and an inline message.
func (h *Handler) Fail(w http.ResponseWriter, r *http.Request, req *Request, form url.Values, err error, fallback string) {
	req.Instance.SetFormError(WithoutSecrets(form), err, fallback)
	h.Render(w, r, transport.StatusFor(err), req.Session, req.Instance)
}

// WithoutSecrets copies v without password fields so a failed form is
// rendered again without them.
func WithoutSecrets(v url.Values) url.Values {
	out := url.Values{}
	for key, values := range v {
		if strings.Contains(key, "password") {
			continue
		}
		out[key] = values
	}
	return out
}

func openParams(query url.Values) url.Values {
	params := url.Values{}
	for key, values := range query {
		if len(values) == 0 {
			continue
		}
		if key == ParamOnSuccess && !eventPattern.MatchString(values[0]) {
			continue
		}
		params.Set(key, values[0])
	}
	return params
}
