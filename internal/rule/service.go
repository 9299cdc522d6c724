package rule

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/expense-console/internal/backend"
	"github.com/frahmantamala/expense-console/internal/core/events"
	"github.com/frahmantamala/expense-console/internal/core/user"
)

// API is the part of the remote API serving approval rules.
type API interface {
	ConditionalRules(ctx context.Context, token string) (*backend.RulesSummary, error)
	ApprovalRules(ctx context.Context, token string) ([]backend.ApprovalRule, error)
	ApprovalFlows(ctx context.Context, token string) ([]backend.ApprovalFlow, error)
	ListUsers(ctx context.Context, token string) ([]backend.Employee, error)
	CreateApprovalRule(ctx context.Context, token string, req backend.CreateRuleRequest) (*backend.ApprovalRule, error)
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

func (s *Service) Summary(ctx context.Context, token string) (*backend.RulesSummary, error) {
	summary, err := s.api.ConditionalRules(ctx, token)
	if err != nil {
		s.logger.Error("failed to get conditional rules", "error", err)
		return nil, err
	}
	return summary, nil
}

// ManagerData fetches rules, flows and company users concurrently.
func (s *Service) ManagerData(ctx context.Context, token string) (*ManagerData, error) {
	data := &ManagerData{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data.Rules, err = s.api.ApprovalRules(gctx, token)
		return err
	})
	g.Go(func() error {
		var err error
		data.Flows, err = s.api.ApprovalFlows(gctx, token)
		return err
	})
	g.Go(func() error {
		var err error
		data.Users, err = s.api.ListUsers(gctx, token)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load rule manager data", "error", err)
		return nil, err
	}
	return data, nil
}

// Create validates the form and creates the rule. Nothing is sent when
// validation fails.
func (s *Service) Create(ctx context.Context, actor *user.Profile, token string, form Form) (*backend.ApprovalRule, error) {
	req, err := form.ToRequest()
	if err != nil {
		return nil, err
	}

	created, err := s.api.CreateApprovalRule(ctx, token, req)
	if err != nil {
		s.logger.Error("failed to create approval rule", "name", req.Name, "error", err)
		return nil, err
	}
	s.logger.Info("approval rule created", "name", req.Name, "rule_type", req.RuleType)

	if s.publisher != nil {
		actorName := ""
		if actor != nil {
			actorName = actor.Username
		}
		event := events.NewRecordEvent(events.EventTypeRuleCreated, actorName, req.Name, map[string]interface{}{
			"rule_type": string(req.RuleType),
		})
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish rule event", "error", err)
		}
	}
	return created, nil
}
