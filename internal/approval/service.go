package approval

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/expense-console/internal/backend"
	"github.com/frahmantamala/expense-console/internal/core/events"
	"github.com/frahmantamala/expense-console/internal/core/user"
)

// API is the part of the remote API serving approvals.
type API interface {
	PendingApprovals(ctx context.Context, token string) ([]backend.PendingExpense, error)
	ApprovalStatistics(ctx context.Context, token string) (*backend.ApprovalStatistics, error)
	ActOnExpense(ctx context.Context, token, expenseID string, req backend.ActionRequest) error
	TeamExpenses(ctx context.Context, token string) ([]backend.Expense, error)
	ApprovalHistory(ctx context.Context, token string) ([]backend.ApprovalRecord, error)
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

// Overview fetches the pending queue and the statistics concurrently and
// returns once both have arrived.
func (s *Service) Overview(ctx context.Context, token string) (*Overview, error) {
	var (
		pending []backend.PendingExpense
		stats   *backend.ApprovalStatistics
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pending, err = s.api.PendingApprovals(gctx, token)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = s.api.ApprovalStatistics(gctx, token)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load approval overview", "error", err)
		return nil, err
	}

	overview := &Overview{Pending: pending}
	if stats != nil {
		overview.Stats = *stats
	}
	return overview, nil
}

// Act approves or rejects one expense. An empty comment is sent as "".
func (s *Service) Act(ctx context.Context, actor *user.Profile, token string, d Decision) error {
	if err := d.Validate(); err != nil {
		return err
	}

	req := backend.ActionRequest{Action: d.Action, Comments: d.Comments}
	if err := s.api.ActOnExpense(ctx, token, d.ExpenseID, req); err != nil {
		s.logger.Error("failed to act on expense", "expense_id", d.ExpenseID, "action", d.Action, "error", err)
		return err
	}
	s.logger.Info("expense actioned", "expense_id", d.ExpenseID, "action", d.Action)

	if s.publisher != nil {
		actorName := ""
		if actor != nil {
			actorName = actor.Username
		}
		if err := s.publisher.Publish(ctx, events.NewApprovalActionedEvent(actorName, d.ExpenseID, string(d.Action))); err != nil {
			s.logger.Warn("failed to publish approval event", "error", err)
		}
	}
	return nil
}

func (s *Service) TeamExpenses(ctx context.Context, token string) ([]backend.Expense, error) {
	expenses, err := s.api.TeamExpenses(ctx, token)
	if err != nil {
		s.logger.Error("failed to get team expenses", "error", err)
		return nil, err
	}
	return expenses, nil
}

func (s *Service) History(ctx context.Context, token string) ([]backend.ApprovalRecord, error) {
	records, err := s.api.ApprovalHistory(ctx, token)
	if err != nil {
		s.logger.Error("failed to get approval history", "error", err)
		return nil, err
	}
	return records, nil
}
