package category

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/expense-console/internal/backend"
)

// API is the part of the remote API serving categories.
type API interface {
	Categories(ctx context.Context, token string) ([]backend.Category, error)
}

type Service struct {
	api    API
	logger *slog.Logger
}

func NewService(api API, logger *slog.Logger) *Service {
	return &Service{
		api:    api,
		logger: logger,
	}
}

// List returns the selectable categories in backend order.
func (s *Service) List(ctx context.Context, token string) ([]Category, error) {
	remote, err := s.api.Categories(ctx, token)
	if err != nil {
		s.logger.Error("failed to get categories from backend", "error", err)
		return nil, err
	}

	categories := make([]Category, 0, len(remote))
	for _, c := range remote {
		if cat := FromBackend(c); cat.Usable() {
			categories = append(categories, cat)
		}
	}

	s.logger.Debug("retrieved categories", "count", len(categories))
	return categories, nil
}
