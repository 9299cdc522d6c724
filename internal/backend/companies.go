package backend

import (
	"context"
	"net/http"
)

func (c *Client) Companies(ctx context.Context, token string) ([]Company, error) {
	return getList[Company](ctx, c, "/super-user/companies/", token)
}

func (c *Client) CreateCompany(ctx context.Context, token string, req CreateCompanyRequest) (*Company, error) {
	var company Company
	if err := c.do(ctx, http.MethodPost, "/super-user/companies/create/", token, req, &company); err != nil {
		return nil, err
	}
	return &company, nil
}
