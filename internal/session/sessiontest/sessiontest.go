// Package sessiontest builds sessions for handler tests without cookies or
// a database.
package sessiontest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/expense-console/internal"
	"github.com/frahmantamala/expense-console/internal/core/user"
	"github.com/frahmantamala/expense-console/internal/session"
)

// MemoryRepository keeps session entries in memory.
type MemoryRepository struct {
	mu        sync.Mutex
	data      map[string]map[string]string
	deleteErr error
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{data: map[string]map[string]string{}}
}

func (m *MemoryRepository) Load(_ context.Context, id string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]string{}
	for k, v := range m.data[id] {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryRepository) Save(_ context.Context, id string, entries map[string]string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[id] == nil {
		m.data[id] = map[string]string{}
	}
	for k, v := range entries {
		m.data[id][k] = v
	}
	return nil
}

// FailDeletes makes every Delete return err until called with nil.
func (m *MemoryRepository) FailDeletes(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteErr = err
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.data, id)
	return nil
}

func (m *MemoryRepository) PurgeExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

// Has reports whether any entry is stored for id.
func (m *MemoryRepository) Has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data[id]) > 0
}

// Sessions hands out sessions backed by a MemoryRepository.
type Sessions struct {
	Repo    *MemoryRepository
	Manager *session.Manager
}

// New builds sessions talking to api. The cookie signer is real so
// Manager.Rotate, Manager.Renew and Manager.Middleware work.
func New(api session.API) *Sessions {
	repo := NewMemoryRepository()
	cookies := session.NewCookieSigner("test-secret-test-secret-test-secret", time.Hour, false)
	lg := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &Sessions{
		Repo:    repo,
		Manager: session.NewManager(repo, api, cookies, internal.SessionConfig{TTL: time.Hour}, lg),
	}
}

// Anonymous returns a new signed-out session.
func (s *Sessions) Anonymous() *session.Session {
	sess, err := s.Manager.Load(context.Background(), uuid.NewString())
	if err != nil {
		panic(err)
	}
	return sess
}

// SignedIn returns a session authenticated as profile with token.
func (s *Sessions) SignedIn(profile *user.Profile, token string) *session.Session {
	id := uuid.NewString()
	encoded, err := json.Marshal(profile)
	if err != nil {
		panic(err)
	}
	_ = s.Repo.Save(context.Background(), id, map[string]string{
		session.KeyToken: token,
		session.KeyUser:  string(encoded),
	}, time.Now().Add(time.Hour))
	sess, err := s.Manager.Load(context.Background(), id)
	if err != nil {
		panic(err)
	}
	return sess
}

// Profile is a minimal signed-in user of role.
func Profile(role user.Role) *user.Profile {
	return &user.Profile{
		ID:        "7",
		Username:  "jdoe",
		Email:     "jdoe@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		Role:      role,
		IsActive:  true,
		Company:   &user.Company{ID: "1", Name: "Acme", Currency: "INR"},
	}
}

// Request builds a request carrying sess. htmx marks it as issued by htmx.
func Request(method, target string, body io.Reader, sess *session.Session, htmx bool) *http.Request {
	r := httptest.NewRequest(method, target, body)
	if body != nil {
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if htmx {
		r.Header.Set("HX-Request", "true")
	}
	if sess != nil {
		r = r.WithContext(session.NewContext(r.Context(), sess))
	}
	return r
}
