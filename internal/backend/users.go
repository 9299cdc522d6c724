package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

func (c *Client) ListUsers(ctx context.Context, token string) ([]Employee, error) {
	return getList[Employee](ctx, c, "/admin/users/", token)
}

func (c *Client) CreateUser(ctx context.Context, token string, req CreateEmployeeRequest) (*Employee, error) {
	var employee Employee
	if err := c.do(ctx, http.MethodPost, "/admin/users/create/", token, req, &employee); err != nil {
		return nil, err
	}
	return &employee, nil
}

func (c *Client) UpdateUser(ctx context.Context, token, userID string, req UpdateEmployeeRequest) error {
	path := fmt.Sprintf("/admin/users/%s/update/", url.PathEscape(userID))
	return c.do(ctx, http.MethodPatch, path, token, req, nil)
}
