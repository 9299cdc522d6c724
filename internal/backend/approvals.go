package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

func (c *Client) PendingApprovals(ctx context.Context, token string) ([]PendingExpense, error) {
	return getList[PendingExpense](ctx, c, "/pending-approvals/", token)
}

func (c *Client) ApprovalStatistics(ctx context.Context, token string) (*ApprovalStatistics, error) {
	var stats ApprovalStatistics
	if err := c.do(ctx, http.MethodGet, "/approval-statistics/", token, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ActOnExpense approves or rejects a pending expense.
func (c *Client) ActOnExpense(ctx context.Context, token, expenseID string, req ActionRequest) error {
	path := fmt.Sprintf("/approve-expense/%s/", url.PathEscape(expenseID))
	return c.do(ctx, http.MethodPost, path, token, req, nil)
}

func (c *Client) ApprovalHistory(ctx context.Context, token string) ([]ApprovalRecord, error) {
	return getList[ApprovalRecord](ctx, c, "/general-approval-history/", token)
}
