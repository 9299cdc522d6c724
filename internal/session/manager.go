package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/expense-console/internal"
	"github.com/frahmantamala/expense-console/internal/core/user"
	"github.com/frahmantamala/expense-console/pkg/logger"
	"github.com/google/uuid"
)

type ctxKey struct{}

// Manager is the single owner of session construction and persistence.
type Manager struct {
	repo      RepositoryAPI
	api       API
	publisher Publisher
	cookies   *CookieSigner
	ttl       time.Duration
	logger    *slog.Logger
}

func NewManager(repo RepositoryAPI, api API, cookies *CookieSigner, cfg internal.SessionConfig, logger *slog.Logger) *Manager {
	return &Manager{
		repo:    repo,
		api:     api,
		cookies: cookies,
		ttl:     cfg.TTL,
		logger:  logger,
	}
}

// SetPublisher makes sessions announce logins and logouts.
func (m *Manager) SetPublisher(p Publisher) {
	m.publisher = p
}

func (m *Manager) newSession(id string) *Session {
	return &Session{
		id:        id,
		repo:      m.repo,
		api:       m.api,
		publisher: m.publisher,
		ttl:       m.ttl,
		base:      m.logger,
		logger:    m.logger.With("session_id", id),
	}
}

// Load reconstructs a session from storage. Storage holding only one of the
// two entries, or an undecodable profile, is treated as absent and removed.
func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	sess := m.newSession(id)

	entries, err := m.repo.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	token, hasToken := entries[KeyToken]
	rawUser, hasUser := entries[KeyUser]
	if !hasToken && !hasUser {
		return sess, nil
	}

	var profile user.Profile
	if hasToken && hasUser && token != "" && json.Unmarshal([]byte(rawUser), &profile) == nil {
		sess.token = token
		sess.user = &profile
		return sess, nil
	}

	m.logger.Warn("SessionManager: discarding inconsistent session", "session_id", id)
	if err := m.repo.Delete(ctx, id); err != nil {
		m.logger.Error("SessionManager: failed to delete inconsistent session", "session_id", id, "error", err)
	}
	return sess, nil
}

// Middleware resolves the session named by the cookie and stores it in the
// request context. A missing, tampered or expired cookie starts a new
// anonymous session.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(CookieName); err == nil {
			if sid, err := m.cookies.Verify(c.Value); err == nil {
				id = sid
			} else {
				m.cookies.Clear(w)
			}
		}
		if id == "" {
			id = uuid.NewString()
			if err := m.cookies.Set(w, id); err != nil {
				m.logger.Error("SessionManager: failed to sign cookie", "error", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
		}

		sess, err := m.Load(r.Context(), id)
		if err != nil {
			// storage outage degrades to an anonymous session
			m.logger.Error("SessionManager: failed to load session", "session_id", id, "error", err)
			sess = m.newSession(id)
		}

		ctx := NewContext(r.Context(), sess)
		ctx = internal.ContextWithSessionID(ctx, id)
		ctx = logger.With(ctx, "session_id", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Renew extends the cookie lifetime of the current session id.
func (m *Manager) Renew(w http.ResponseWriter, sess *Session) error {
	return m.cookies.Set(w, sess.ID())
}

// Rotate gives sess a fresh id and cookie, carrying any signed-in state over.
// It runs on every sign-in and sign-out so an id never survives a change of
// authentication. When the new cookie cannot be signed the cookie is cleared
// and the next request starts an anonymous session.
func (m *Manager) Rotate(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if err := sess.rotate(ctx, uuid.NewString()); err != nil {
		return err
	}
	if err := m.cookies.Set(w, sess.ID()); err != nil {
		m.cookies.Clear(w)
		return err
	}
	return nil
}

// Purge deletes expired entries and returns how many were removed.
func (m *Manager) Purge(ctx context.Context) (int64, error) {
	return m.repo.PurgeExpired(ctx, time.Now())
}

func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext returns the request session, or nil outside the middleware.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(ctxKey{}).(*Session)
	return sess
}
