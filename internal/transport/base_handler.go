package transport

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/expense-console/internal"
	"github.com/frahmantamala/expense-console/internal/view"
	"github.com/frahmantamala/expense-console/pkg/logger"
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
	Views  *view.Renderer
}

// NewBaseHandler creates a base handler with logger and templates
func NewBaseHandler(lg *slog.Logger, views *view.Renderer) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg, Views: views}
}

// Alert is the data of the inline alert fragment.
type Alert struct {
	Level   string
	Message string
}

// ErrorPage is the body of the full error page.
type ErrorPage struct {
	Status  int
	Message string
}

// IsHTMX reports whether r was issued by htmx rather than a full page load.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// RenderPage renders a full page. Nothing is written when the template fails.
func (h *BaseHandler) RenderPage(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.Views.Page(&buf, name, data); err != nil {
		h.Logger.Error("failed to render page", "page", name, "error", err)
		http.Error(w, "Something went wrong. Please reload the page.", http.StatusInternalServerError)
		return
	}
	h.writeHTML(w, status, &buf)
}

// RenderFragment renders a template without the layout.
func (h *BaseHandler) RenderFragment(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.Views.Fragment(&buf, name, data); err != nil {
		h.Logger.Error("failed to render fragment", "fragment", name, "error", err)
		http.Error(w, "Something went wrong. Please try again.", http.StatusInternalServerError)
		return
	}
	h.writeHTML(w, status, &buf)
}

func (h *BaseHandler) writeHTML(w http.ResponseWriter, status int, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.Logger.Debug("failed to write response", "error", err)
	}
}

// StatusFor returns the HTTP status carried by err.
func StatusFor(err error) int {
	if appErr, ok := internal.IsAppError(err); ok && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// WriteAppError answers with the user facing message of err: an inline
// alert for htmx requests, the error page otherwise.
func (h *BaseHandler) WriteAppError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := StatusFor(err)
	msg := internal.UserMessage(err, fallback)

	if IsHTMX(r) {
		h.RenderFragment(w, status, "alert", Alert{Level: "error", Message: msg})
		return
	}
	h.RenderPage(w, status, view.PageError, view.Page{
		Title: "Something went wrong",
		Body:  ErrorPage{Status: status, Message: msg},
	})
}

// Trigger sets HX-Trigger with a toast message and the named events.
func (h *BaseHandler) Trigger(w http.ResponseWriter, toast string, events ...string) {
	payload := map[string]any{}
	if toast != "" {
		payload["toast"] = toast
	}
	for _, e := range events {
		if e != "" {
			payload[e] = true
		}
	}
	if len(payload) == 0 {
		return
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		h.Logger.Error("failed to encode trigger", "error", err)
		return
	}
	w.Header().Set("HX-Trigger", string(encoded))
}

// Redirect sends the browser to url: HX-Redirect for htmx, 303 otherwise.
func (h *BaseHandler) Redirect(w http.ResponseWriter, r *http.Request, url string) {
	if IsHTMX(r) {
		w.Header().Set("HX-Redirect", url)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
