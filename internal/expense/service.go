package expense

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/expense-console/internal/backend"
	"github.com/frahmantamala/expense-console/internal/category"
	"github.com/frahmantamala/expense-console/internal/core/common/validation"
	"github.com/frahmantamala/expense-console/internal/core/events"
	"github.com/frahmantamala/expense-console/internal/core/user"
)

// API is the part of the remote API serving expenses.
type API interface {
	CreateExpense(ctx context.Context, token string, req backend.ExpenseRequest) (*backend.Expense, error)
	MyExpenseHistory(ctx context.Context, token string) (*backend.ExpenseHistory, error)
}

type CategoryLister interface {
	List(ctx context.Context, token string) ([]category.Category, error)
}

type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	api        API
	categories CategoryLister
	publisher  Publisher
	logger     *slog.Logger
}

func NewService(api API, categories CategoryLister, logger *slog.Logger) *Service {
	return &Service{
		api:        api,
		categories: categories,
		logger:     logger,
	}
}

func (s *Service) SetPublisher(p Publisher) {
	s.publisher = p
}

// SubmissionData loads the categories for the submission form.
func (s *Service) SubmissionData(ctx context.Context, token, currency string) (*SubmissionData, error) {
	categories, err := s.categories.List(ctx, token)
	if err != nil {
		return nil, err
	}
	return &SubmissionData{
		Categories: categories,
		Currencies: Currencies,
		Currency:   currency,
		Today:      validation.Now().Format(validation.DateLayout),
	}, nil
}

// Submit validates the form and creates the expense. Nothing is sent when
// validation fails.
func (s *Service) Submit(ctx context.Context, actor *user.Profile, token string, form SubmissionForm, fallbackCurrency string) (*backend.Expense, error) {
	req, err := form.ToRequest(fallbackCurrency)
	if err != nil {
		s.logger.Debug("expense validation failed", "error", err)
		return nil, err
	}

	created, err := s.api.CreateExpense(ctx, token, req)
	if err != nil {
		s.logger.Error("failed to create expense", "error", err)
		return nil, err
	}

	s.logger.Info("expense submitted",
		"expense_id", created.ID,
		"amount", req.Amount.String(),
		"currency", req.Currency)

	if s.publisher != nil {
		actorName := ""
		if actor != nil {
			actorName = actor.Username
		}
		event := events.NewExpenseSubmittedEvent(actorName, created.ID.String(), req.Amount.String(), req.Currency)
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish expense event", "error", err)
		}
	}
	return created, nil
}

func (s *Service) History(ctx context.Context, token string) (*History, error) {
	history, err := s.api.MyExpenseHistory(ctx, token)
	if err != nil {
		s.logger.Error("failed to get expense history", "error", err)
		return nil, err
	}
	return NewHistory(history), nil
}
