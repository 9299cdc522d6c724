package backend

import (
	"context"
	"net/http"
)

func (c *Client) CreateExpense(ctx context.Context, token string, req ExpenseRequest) (*Expense, error) {
	var expense Expense
	if err := c.do(ctx, http.MethodPost, "/expenses/", token, req, &expense); err != nil {
		return nil, err
	}
	return &expense, nil
}

// Categories lists expense categories, falling back to the legacy
// /categories/ endpoint when /expense-categories/ does not exist.
func (c *Client) Categories(ctx context.Context, token string) ([]Category, error) {
	categories, err := getList[Category](ctx, c, "/expense-categories/", token)
	if err == nil {
		return categories, nil
	}
	if !isNotFound(err) {
		return nil, err
	}
	c.logger.Debug("backend: expense-categories missing, using categories")
	return getList[Category](ctx, c, "/categories/", token)
}

func (c *Client) MyExpenseHistory(ctx context.Context, token string) (*ExpenseHistory, error) {
	var history ExpenseHistory
	if err := c.do(ctx, http.MethodGet, "/my-expense-history/", token, nil, &history); err != nil {
		return nil, err
	}
	return &history, nil
}

func (c *Client) TeamExpenses(ctx context.Context, token string) ([]Expense, error) {
	return getList[Expense](ctx, c, "/team-expenses/", token)
}
