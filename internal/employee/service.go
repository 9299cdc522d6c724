package employee

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/expense-console/internal/backend"
	"github.com/frahmantamala/expense-console/internal/core/events"
	"github.com/frahmantamala/expense-console/internal/core/user"
)

// API is the part of the remote API serving company users.
type API interface {
	ListUsers(ctx context.Context, token string) ([]backend.Employee, error)
	CreateUser(ctx context.Context, token string, req backend.CreateEmployeeRequest) (*backend.Employee, error)
	UpdateUser(ctx context.Context, token, userID string, req backend.UpdateEmployeeRequest) error
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	api       API
	publisher Publisher
	logger    *slog.Logger
}

func NewService(api API, logger *slog.Logger) *Service {
	return &Service{
		api:    api,
		logger: logger,
	}
}

func (s *Service) SetPublisher(p Publisher) {
	s.publisher = p
}

func (s *Service) List(ctx context.Context, token string) (*Data, error) {
	employees, err := s.api.ListUsers(ctx, token)
	if err != nil {
		s.logger.Error("failed to list employees", "error", err)
		return nil, err
	}
	return NewData(employees), nil
}

// Create validates the form and adds the employee. Nothing is sent when
// validation fails.
func (s *Service) Create(ctx context.Context, actor *user.Profile, token string, form Form) (*backend.Employee, error) {
	req, err := form.ToRequest(actor)
	if err != nil {
		return nil, err
	}

	created, err := s.api.CreateUser(ctx, token, req)
	if err != nil {
		s.logger.Error("failed to create employee", "username", req.Username, "error", err)
		return nil, err
	}
	s.logger.Info("employee created", "username", req.Username, "role", req.Role)

	s.publish(ctx, events.NewRecordEvent(events.EventTypeEmployeeCreated, actorName(actor), req.Username, map[string]interface{}{
		"role": string(req.Role),
	}))
	return created, nil
}

// Toggle flips the active status of e.
func (s *Service) Toggle(ctx context.Context, actor *user.Profile, token string, e backend.Employee) error {
	active := !e.IsActive
	if err := s.api.UpdateUser(ctx, token, e.ID.String(), backend.UpdateEmployeeRequest{IsActive: &active}); err != nil {
		s.logger.Error("failed to update employee status", "user_id", e.ID, "error", err)
		return err
	}
	s.logger.Info("employee status changed", "user_id", e.ID, "is_active", active)

	s.publish(ctx, events.NewRecordEvent(events.EventTypeEmployeeToggled, actorName(actor), e.Username, map[string]interface{}{
		"is_active": active,
	}))
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish employee event", "event_type", event.EventType(), "error", err)
	}
}

func actorName(actor *user.Profile) string {
	if actor == nil {
		return ""
	}
	return actor.Username
}
