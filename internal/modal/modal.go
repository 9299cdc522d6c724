// Package modal implements the overlay lifecycle of the console. Each
// session has at most one open modal; opening another destroys the current
// one first. A modal is built synchronously, loads its data asynchronously
// under its own lifetime context and never changes state once destroyed.
package modal

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/frahmantamala/expense-console/internal"
	"github.com/google/uuid"
)

type Kind string

const (
	KindLogin             Kind = "login"
	KindSignup            Kind = "signup"
	KindExpenseSubmission Kind = "expense-submission"
	KindExpenseHistory    Kind = "expense-history"
	KindConditionalRules  Kind = "conditional-rules"
	KindRuleManager       Kind = "rule-manager"
	KindEmployees         Kind = "employees"
	KindTeamExpenses      Kind = "team-expenses"
	KindApprovalHistory   Kind = "approval-history"
	KindCreateCompany     Kind = "create-company"
)

type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateFailed  State = "failed"
)

// LoadFunc fetches the data a modal renders. ctx ends when the modal is destroyed.
type LoadFunc func(ctx context.Context) (any, error)

// Flash is a dismissible inline message.
type Flash struct {
	Level   string
	Message string
}

func ErrorFlash(msg string) Flash {
	return Flash{Level: "error", Message: msg}
}

func SuccessFlash(msg string) Flash {
	return Flash{Level: "success", Message: msg}
}

// View is a consistent snapshot of an instance for rendering.
type View struct {
	ID     string
	Kind   Kind
	State  State
	Data   any
	Err    error
	Flash  Flash
	Params url.Values
	Form   url.Values
	Fields internal.ValidationErrors
}

// ErrMessage is the user facing text of a failed load.
func (v View) ErrMessage() string {
	return internal.UserMessage(v.Err, "Failed to load data")
}

func (v View) Loading() bool {
	return v.State == StateLoading
}

func (v View) Failed() bool {
	return v.State == StateFailed
}

func (v View) Param(key string) string {
	return v.Params.Get(key)
}

// FieldError returns the message recorded for a form field.
func (v View) FieldError(field string) string {
	return v.Fields.FieldMessage(field)
}

// Value returns a submitted form value so forms keep their input on failure.
func (v View) Value(field string) string {
	return v.Form.Get(field)
}

type Instance struct {
	ID   string
	Kind Kind

	mu      sync.Mutex
	params  url.Values
	state   State
	data    any
	err     error
	flash   Flash
	form    url.Values
	fields  internal.ValidationErrors
	alive   bool
	gen     uint64
	touched time.Time
	ctx     context.Context
	cancel  context.CancelFunc
}

func newInstance(kind Kind, params url.Values, now time.Time) *Instance {
	ctx, cancel := context.WithCancel(context.Background())
	return &Instance{
		ID:      uuid.NewString(),
		Kind:    kind,
		params:  params,
		state:   StateLoading,
		alive:   true,
		touched: now,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Context ends when the instance is destroyed.
func (i *Instance) Context() context.Context {
	return i.ctx
}

func (i *Instance) Alive() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.alive
}

func (i *Instance) View() View {
	i.mu.Lock()
	defer i.mu.Unlock()
	return View{
		ID:     i.ID,
		Kind:   i.Kind,
		State:  i.state,
		Data:   i.data,
		Err:    i.err,
		Flash:  i.flash,
		Params: i.params,
		Form:   i.form,
		Fields: i.fields,
	}
}

// SetFlash records an inline message, ignored once destroyed.
func (i *Instance) SetFlash(f Flash) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.alive {
		i.flash = f
	}
}

// SetFormError keeps the submitted values and the failure so the form
// renders again with its input and an inline message.
func (i *Instance) SetFormError(form url.Values, err error, fallback string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.alive {
		return
	}
	i.form = form
	i.fields = internal.ValidationErrors{}
	if appErr, ok := internal.IsAppError(err); ok {
		if fields, ok := appErr.Details.(internal.ValidationErrors); ok {
			i.fields = fields
		}
	}
	i.flash = ErrorFlash(internal.UserMessage(err, fallback))
}

// SetFormFailure is SetFormError for callers that already hold the message
// and the field errors.
func (i *Instance) SetFormFailure(form url.Values, message string, fields internal.ValidationErrors) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.alive {
		return
	}
	i.form = form
	i.fields = fields
	i.flash = ErrorFlash(message)
}

// ClearForm drops remembered input and messages.
func (i *Instance) ClearForm() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.form = nil
	i.fields = internal.ValidationErrors{}
	i.flash = Flash{}
}

// SetParam replaces a view parameter such as the active tab.
func (i *Instance) SetParam(key, value string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	params := url.Values{}
	for k, v := range i.params {
		params[k] = v
	}
	params.Set(key, value)
	i.params = params
}

func (i *Instance) Param(key string) string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.params.Get(key)
}

// Destroy detaches the instance and cancels its in-flight load.
func (i *Instance) Destroy() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.alive {
		return
	}
	i.alive = false
	i.data = nil
	i.cancel()
}

func (i *Instance) touch(now time.Time) {
	i.mu.Lock()
	i.touched = now
	i.mu.Unlock()
}

func (i *Instance) idleSince() time.Time {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.touched
}

// beginLoad moves the instance to loading and returns the generation that
// the load's completion must match.
func (i *Instance) beginLoad() (uint64, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.alive {
		return 0, false
	}
	i.gen++
	i.state = StateLoading
	i.err = nil
	return i.gen, true
}

// complete applies a load result. Results of destroyed instances or of
// superseded loads are dropped.
func (i *Instance) complete(gen uint64, data any, err error) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.alive || gen != i.gen {
		return false
	}
	if err != nil {
		i.state = StateFailed
		i.err = err
		i.data = nil
		return true
	}
	i.state = StateReady
	i.data = data
	return true
}
