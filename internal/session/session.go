// Package session holds the authentication state of one browser session:
// the remote API token and the user profile, persisted as two durable
// entries that are always written and removed together.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/expense-console/internal"
	"github.com/frahmantamala/expense-console/internal/backend"
	"github.com/frahmantamala/expense-console/internal/core/common/validation"
	"github.com/frahmantamala/expense-console/internal/core/events"
	"github.com/frahmantamala/expense-console/internal/core/user"
)

const (
	KeyToken = "auth_token"
	KeyUser  = "auth_user"
)

// RepositoryAPI persists session entries.
type RepositoryAPI interface {
	// Load returns the unexpired entries of a session.
	Load(ctx context.Context, sessionID string) (map[string]string, error)
	// Save upserts all entries in one transaction.
	Save(ctx context.Context, sessionID string, entries map[string]string, expiresAt time.Time) error
	// Delete removes every entry of a session in one transaction.
	Delete(ctx context.Context, sessionID string) error
	// PurgeExpired removes entries that expired before now.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// API is the part of the remote API the session talks to.
type API interface {
	Login(ctx context.Context, req backend.LoginRequest) (*backend.AuthResponse, error)
	Register(ctx context.Context, req backend.RegisterRequest) (*backend.AuthResponse, error)
	Logout(ctx context.Context, token string) error
	Profile(ctx context.Context, token string) (*user.Profile, error)
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

type SignupForm struct {
	Username        string `form:"username" validate:"required"`
	Email           string `form:"email" validate:"required,email"`
	FirstName       string `form:"first_name" validate:"required"`
	LastName        string `form:"last_name" validate:"required"`
	Password        string `form:"password" validate:"required"`
	PasswordConfirm string `form:"password_confirm" validate:"required"`
	CompanyName     string `form:"company_name"`
	Phone           string `form:"phone"`
	Department      string `form:"department"`
}

// Result is the outcome of Login or Signup. Message is user facing.
type Result struct {
	Success bool
	Message string
	User    *user.Profile
	Fields  internal.ValidationErrors
}

func failure(err error, fallback string) Result {
	res := Result{Message: internal.UserMessage(err, fallback)}
	if appErr, ok := internal.IsAppError(err); ok {
		if fields, ok := appErr.Details.(internal.ValidationErrors); ok {
			res.Fields = fields
		}
	}
	return res
}

type Session struct {
	id        string
	repo      RepositoryAPI
	api       API
	publisher Publisher
	ttl       time.Duration
	base      *slog.Logger
	logger    *slog.Logger

	mu    sync.RWMutex
	token string
	user  *user.Profile
}

func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// IsAuthenticated reports whether both the token and the profile are present.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

// CurrentUser returns a copy of the profile, or nil when anonymous.
func (s *Session) CurrentUser() *user.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Login(ctx context.Context, form LoginForm) Result {
	if appErr := validation.Struct(form); appErr != nil {
		return failure(appErr, "Please fill in all fields")
	}

	resp, err := s.api.Login(ctx, backend.LoginRequest{Username: form.Username, Password: form.Password})
	if err != nil {
		s.logger.Info("Session: login rejected", "username", form.Username, "error", err)
		return failure(err, "Login failed")
	}
	return s.establish(ctx, resp, "Login failed")
}

// Signup registers a new account and signs it in. A password confirmation
// mismatch is reported without contacting the remote API.
func (s *Session) Signup(ctx context.Context, form SignupForm) Result {
	if form.Password != form.PasswordConfirm {
		return failure(internal.ErrPasswordMismatch, "Passwords do not match")
	}
	if appErr := validation.Struct(form); appErr != nil {
		return failure(appErr, "Please fill in all required fields")
	}

	resp, err := s.api.Register(ctx, backend.RegisterRequest{
		Username:        form.Username,
		Email:           form.Email,
		FirstName:       form.FirstName,
		LastName:        form.LastName,
		Password:        form.Password,
		PasswordConfirm: form.PasswordConfirm,
		CompanyName:     form.CompanyName,
		Phone:           form.Phone,
		Department:      form.Department,
	})
	if err != nil {
		s.logger.Info("Session: registration rejected", "username", form.Username, "error", err)
		return failure(err, "Registration failed")
	}
	return s.establish(ctx, resp, "Registration failed")
}

func (s *Session) establish(ctx context.Context, resp *backend.AuthResponse, fallback string) Result {
	if resp.Token == "" || resp.User == nil {
		s.logger.Error("Session: auth response without token or user")
		return Result{Message: fallback + ": unexpected server response"}
	}

	if err := s.persist(ctx, resp.Token, resp.User); err != nil {
		s.logger.Error("Session: failed to persist session", "error", err)
		return Result{Message: "Could not start your session. Please try again."}
	}

	s.publish(ctx, events.NewLoggedInEvent(s.ID(), resp.User.Username, string(resp.User.Role)))
	return Result{Success: true, User: s.CurrentUser()}
}

// Logout notifies the remote API on a best-effort basis and then clears the
// session whatever the outcome.
func (s *Session) Logout(ctx context.Context) {
	token := s.Token()
	username := ""
	if u := s.CurrentUser(); u != nil {
		username = u.Username
	}

	if token != "" {
		if err := s.api.Logout(ctx, token); err != nil {
			s.logger.Warn("Session: remote logout failed", "error", err)
		}
	}

	id := s.ID()
	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Session: failed to delete session entries", "error", err)
	}

	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if token != "" {
		s.publish(ctx, events.NewLoggedOutEvent(id, username))
	}
}

// RefreshUser reloads the profile. It is a no-op when anonymous and leaves
// the stored profile untouched on failure.
func (s *Session) RefreshUser(ctx context.Context) error {
	token := s.Token()
	if token == "" {
		return nil
	}

	profile, err := s.api.Profile(ctx, token)
	if err != nil {
		s.logger.Warn("Session: profile refresh failed", "error", err)
		return err
	}
	return s.persist(ctx, token, profile)
}

func (s *Session) persist(ctx context.Context, token string, profile *user.Profile) error {
	encoded, err := json.Marshal(profile)
	if err != nil {
		return internal.NewInternalError("failed to encode profile", err)
	}

	entries := map[string]string{
		KeyToken: token,
		KeyUser:  string(encoded),
	}
	if err := s.repo.Save(ctx, s.ID(), entries, time.Now().Add(s.ttl)); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	s.user = profile
	s.mu.Unlock()
	return nil
}

// rotate moves the session to newID. Signed-in state is saved under the new
// id before the old entries are removed; a failed removal leaves them
// unreachable until they expire.
func (s *Session) rotate(ctx context.Context, newID string) error {
	s.mu.RLock()
	oldID, token, profile := s.id, s.token, s.user
	s.mu.RUnlock()

	if token != "" && profile != nil {
		encoded, err := json.Marshal(profile)
		if err != nil {
			return internal.NewInternalError("failed to encode profile", err)
		}
		entries := map[string]string{KeyToken: token, KeyUser: string(encoded)}
		if err := s.repo.Save(ctx, newID, entries, time.Now().Add(s.ttl)); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.id = newID
	s.logger = s.base.With("session_id", newID)
	s.mu.Unlock()

	if err := s.repo.Delete(ctx, oldID); err != nil {
		s.logger.Error("Session: failed to delete rotated session entries", "old_session_id", oldID, "error", err)
	}
	return nil
}

func (s *Session) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Session: failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
