package modal

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/frahmantamala/expense-console/internal"
)

// Runner executes loads asynchronously. *Pool satisfies it.
type Runner interface {
	Submit(job Job) error
}

// GoRunner runs every load on its own goroutine.
type GoRunner struct{}

func (GoRunner) Submit(job Job) error {
	go job()
	return nil
}

// Observer receives lifecycle measurements. *metrics.Metrics satisfies it.
type Observer interface {
	ObserveModalLoad(kind string, failed bool, elapsed time.Duration)
	IncModalsOpen()
	DecModalsOpen()
	IncModalEvictions(n int)
}

type noopObserver struct{}

func (noopObserver) ObserveModalLoad(string, bool, time.Duration) {}
func (noopObserver) IncModalsOpen()                               {}
func (noopObserver) DecModalsOpen()                               {}
func (noopObserver) IncModalEvictions(int)                        {}

// Registry owns the open modal of one session. Once the hub forgets it the
// registry is retired and forwards opens to the session's live registry.
type Registry struct {
	mu        sync.Mutex
	current   *Instance
	retired   bool
	hub       *Hub
	sessionID string
	runner    Runner
	observer  Observer
	logger    *slog.Logger
	now       func() time.Time
}

// Open destroys the current modal, registers a new one of kind and starts
// its load. With a nil load the modal is ready immediately.
func (r *Registry) Open(kind Kind, params url.Values, load LoadFunc) *Instance {
	r.mu.Lock()
	if r.retired {
		r.mu.Unlock()
		return r.hub.Registry(r.sessionID).Open(kind, params, load)
	}
	inst := newInstance(kind, params, r.now())
	previous := r.current
	r.current = inst
	r.mu.Unlock()

	if previous != nil {
		r.destroy(previous)
	}
	r.observer.IncModalsOpen()
	r.logger.Debug("Modal: opened", "kind", kind, "modal_id", inst.ID)

	r.Reload(inst, load)
	return inst
}

// Reload starts a fresh load for inst. A completion of an earlier load is
// discarded once this one has begun.
func (r *Registry) Reload(inst *Instance, load LoadFunc) {
	gen, ok := inst.beginLoad()
	if !ok {
		return
	}
	if load == nil {
		inst.complete(gen, nil, nil)
		return
	}

	ctx := inst.Context()
	job := func() {
		started := time.Now()
		data, err := load(ctx)
		if inst.complete(gen, data, err) {
			r.observer.ObserveModalLoad(string(inst.Kind), err != nil, time.Since(started))
			if err != nil {
				r.logger.Info("Modal: load failed", "kind", inst.Kind, "modal_id", inst.ID, "error", err)
			}
			return
		}
		r.logger.Debug("Modal: dropped stale load result", "kind", inst.Kind, "modal_id", inst.ID)
	}
	if err := r.runner.Submit(job); err != nil {
		r.logger.Warn("Modal: could not schedule load", "kind", inst.Kind, "error", err)
		inst.complete(gen, nil, internal.NewInternalError("The console is busy. Please try again.", err))
	}
}

// Get returns the open modal with id.
func (r *Registry) Get(id string) (*Instance, error) {
	r.mu.Lock()
	inst := r.current
	r.mu.Unlock()

	if inst == nil || inst.ID != id || !inst.Alive() {
		return nil, internal.ErrModalNotFound
	}
	inst.touch(r.now())
	return inst, nil
}

// Current returns the open modal, or nil.
func (r *Registry) Current() *Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Close destroys the modal with id. It reports whether it was open.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	inst := r.current
	if inst == nil || inst.ID != id {
		r.mu.Unlock()
		return false
	}
	r.current = nil
	r.mu.Unlock()

	r.destroy(inst)
	return true
}

// CloseAll destroys whatever modal is open.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	inst := r.current
	r.current = nil
	r.mu.Unlock()

	if inst != nil {
		r.destroy(inst)
	}
}

func (r *Registry) destroy(inst *Instance) {
	if !inst.Alive() {
		return
	}
	inst.Destroy()
	r.observer.DecModalsOpen()
	r.logger.Debug("Modal: destroyed", "kind", inst.Kind, "modal_id", inst.ID)
}

// evictIdle destroys the open modal when it has not been used since cutoff.
func (r *Registry) evictIdle(cutoff time.Time) bool {
	r.mu.Lock()
	inst := r.current
	if inst == nil || !inst.idleSince().Before(cutoff) {
		r.mu.Unlock()
		return false
	}
	r.current = nil
	r.mu.Unlock()

	r.destroy(inst)
	return true
}

func (r *Registry) empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current == nil
}

// retireIfEmpty retires the registry when nothing is open. The hub lock
// must be held.
func (r *Registry) retireIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		return false
	}
	r.retired = true
	return true
}

func (r *Registry) retire() {
	r.mu.Lock()
	r.retired = true
	r.mu.Unlock()
}

type HubOption func(*Hub)

func WithObserver(o Observer) HubOption {
	return func(h *Hub) {
		h.observer = o
	}
}

func WithClock(now func() time.Time) HubOption {
	return func(h *Hub) {
		h.now = now
	}
}

// Hub maps session ids to their registries.
type Hub struct {
	mu         sync.Mutex
	registries map[string]*Registry
	runner     Runner
	observer   Observer
	idleTTL    time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

func NewHub(runner Runner, idleTTL time.Duration, logger *slog.Logger, opts ...HubOption) *Hub {
	h := &Hub{
		registries: map[string]*Registry{},
		runner:     runner,
		observer:   noopObserver{},
		idleTTL:    idleTTL,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Registry returns the registry of sessionID, creating it on first use.
func (h *Hub) Registry(sessionID string) *Registry {
	h.mu.Lock()
	defer h.mu.Unlock()

	reg, ok := h.registries[sessionID]
	if !ok {
		reg = &Registry{
			hub:       h,
			sessionID: sessionID,
			runner:    h.runner,
			observer:  h.observer,
			logger:    h.logger.With("session_id", sessionID),
			now:       h.now,
		}
		h.registries[sessionID] = reg
	}
	return reg
}

// Drop destroys the modal of sessionID and forgets the registry.
func (h *Hub) Drop(sessionID string) {
	h.mu.Lock()
	reg, ok := h.registries[sessionID]
	delete(h.registries, sessionID)
	if ok {
		reg.retire()
	}
	h.mu.Unlock()

	if ok {
		reg.CloseAll()
	}
}

// Sweep evicts modals idle for longer than the idle TTL and forgets empty
// registries. It returns the number of evicted modals.
func (h *Hub) Sweep(now time.Time) int {
	if h.idleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-h.idleTTL)

	h.mu.Lock()
	regs := make(map[string]*Registry, len(h.registries))
	for id, reg := range h.registries {
		regs[id] = reg
	}
	h.mu.Unlock()

	evicted := 0
	for id, reg := range regs {
		if reg.evictIdle(cutoff) {
			evicted++
		}
		if reg.empty() {
			h.mu.Lock()
			if h.registries[id] == reg && reg.retireIfEmpty() {
				delete(h.registries, id)
			}
			h.mu.Unlock()
		}
	}

	if evicted > 0 {
		h.observer.IncModalEvictions(evicted)
		h.logger.Info("Modal: evicted idle modals", "count", evicted)
	}
	return evicted
}

// Run sweeps periodically until ctx is done.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Sweep(h.now())
		}
	}
}

// Len returns the number of tracked sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.registries)
}
