package backend

import (
	"context"
	"net/http"

	"github.com/frahmantamala/expense-console/internal"
)

// ConditionalRules returns the rules summary. A response with success=false
// is reported as an error.
func (c *Client) ConditionalRules(ctx context.Context, token string) (*RulesSummary, error) {
	var resp ConditionalRulesResponse
	if err := c.do(ctx, http.MethodGet, "/conditional-approval-rules/", token, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "Failed to load approval rules"
		}
		return nil, internal.NewExternalError(msg, internal.ErrCodeUpstream, http.StatusOK)
	}
	return &resp.RulesSummary, nil
}

// ApprovalRules lists configured rules from the same endpoint in its list form.
func (c *Client) ApprovalRules(ctx context.Context, token string) ([]ApprovalRule, error) {
	return getList[ApprovalRule](ctx, c, "/conditional-approval-rules/", token)
}

func (c *Client) CreateApprovalRule(ctx context.Context, token string, req CreateRuleRequest) (*ApprovalRule, error) {
	var rule ApprovalRule
	if err := c.do(ctx, http.MethodPost, "/create-approval-rule/", token, req, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

func (c *Client) ApprovalFlows(ctx context.Context, token string) ([]ApprovalFlow, error) {
	return getList[ApprovalFlow](ctx, c, "/approval-flows-list/", token)
}
