package company

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/expense-console/internal/backend"
	"github.com/frahmantamala/expense-console/internal/core/events"
	"github.com/frahmantamala/expense-console/internal/core/user"
)

// API is the part of the remote API serving companies.
type API interface {
	Companies(ctx context.Context, token string) ([]backend.Company, error)
	CreateCompany(ctx context.Context, token string, req backend.CreateCompanyRequest) (*backend.Company, error)
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

func (s *Service) List(ctx context.Context, token string) ([]backend.Company, error) {
	companies, err := s.api.Companies(ctx, token)
	if err != nil {
		s.logger.Error("failed to list companies", "error", err)
		return nil, err
	}
	return companies, nil
}

// Create provisions a company and its admin user in one call. Nothing is
// sent when validation fails.
func (s *Service) Create(ctx context.Context, actor *user.Profile, token string, form Form) (*backend.Company, error) {
	req, err := form.ToRequest()
	if err != nil {
		return nil, err
	}

	created, err := s.api.CreateCompany(ctx, token, req)
	if err != nil {
		s.logger.Error("failed to create company", "name", req.Name, "error", err)
		return nil, err
	}
	s.logger.Info("company created", "name", req.Name, "admin_username", req.AdminUsername)

	if s.publisher != nil {
		actorName := ""
		if actor != nil {
			actorName = actor.Username
		}
		event := events.NewRecordEvent(events.EventTypeCompanyCreated, actorName, req.Name, map[string]interface{}{
			"currency": req.Currency,
		})
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish company event", "error", err)
		}
	}
	return created, nil
}
