// Package backend is the typed client of the remote expense REST API. Every
// call goes through Client.do, which owns authentication headers, contract
// checks and the single error-normalization policy.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/frahmantamala/expense-console/internal"
	"github.com/frahmantamala/expense-console/pkg/logger"
)

const maxResponseBytes = 4 << 20

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	contract   *Contract
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTransport wraps the client transport, e.g. for instrumentation.
func WithTransport(wrap func(http.RoundTripper) http.RoundTripper) Option {
	return func(c *Client) {
		next := c.httpClient.Transport
		if next == nil {
			next = http.DefaultTransport
		}
		hc := *c.httpClient
		hc.Transport = wrap(next)
		c.httpClient = &hc
	}
}

func WithContract(contract *Contract) Option {
	return func(c *Client) {
		c.contract = contract
	}
}

func WithLogger(lg *slog.Logger) Option {
	return func(c *Client) {
		c.logger = lg
	}
}

func NewClient(cfg internal.BackendConfig, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}

	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.LoggerWrapper(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Ping checks that the API host answers HTTP at all; any status counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL.String()+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return internal.NewNetworkError(err)
	}
	resp.Body.Close()
	return nil
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + path
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return internal.NewInternalError("failed to encode request", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), bytes.NewReader(payload))
	if err != nil {
		return internal.NewInternalError("failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	if c.contract != nil {
		if err := c.contract.ValidateRequest(ctx, req, payload, c.baseURL.Path); err != nil {
			c.logger.Error("backend: request violates contract", "method", method, "path", path, "error", err)
			return internal.NewExternalError("Request rejected: "+err.Error(), internal.ErrCodeContract, 0).WithCause(err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("backend: request failed", "method", method, "path", path, "error", err)
		return internal.NewNetworkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return internal.NewNetworkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		appErr := errorFromResponse(resp.StatusCode, data)
		c.logger.Info("backend: non-success response",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"message", appErr.Message)
		return appErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return invalidFormat(resp.StatusCode, err)
	}
	return nil
}

func invalidFormat(status int, cause error) *internal.AppError {
	return internal.NewExternalError(
		fmt.Sprintf("Server error (%d): Invalid response format", status),
		internal.ErrCodeInvalidResponse,
		status,
	).WithCause(cause)
}

// errorFromResponse turns a non-2xx answer into a user-facing error. A JSON
// body is searched for error, detail and message, then for field errors
// ("field: a, b" joined by "; "). Anything else becomes
// "Server error (<status>): <status text>".
func errorFromResponse(status int, data []byte) *internal.AppError {
	fallback := fmt.Sprintf("Server error (%d): %s", status, http.StatusText(status))

	var payload any
	if err := json.Unmarshal(data, &payload); err != nil {
		return internal.NewExternalError(fallback, internal.ErrCodeUpstream, status)
	}

	if msg := topLevelMessage(payload); msg != "" {
		return internal.NewExternalError(msg, internal.ErrCodeUpstream, status)
	}

	fields := fieldErrors(payload)
	if len(fields) == 0 {
		return internal.NewExternalError(fallback, internal.ErrCodeUpstream, status)
	}

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Message
	}
	return internal.NewExternalError(strings.Join(parts, "; "), internal.ErrCodeUpstream, status).
		WithDetails(internal.ValidationErrors{Errors: fields})
}

func topLevelMessage(payload any) string {
	switch v := payload.(type) {
	case string:
		return v
	case []any:
		return joinMessages(v)
	case map[string]any:
		for _, key := range []string{"error", "detail", "message"} {
			if msg := textOf(v[key]); msg != "" {
				return msg
			}
		}
	}
	return ""
}

func fieldErrors(payload any) []internal.ValidationError {
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []internal.ValidationError
	for _, k := range keys {
		msg := textOf(obj[k])
		if msg == "" {
			continue
		}
		if k != "non_field_errors" {
			msg = k + ": " + msg
		}
		out = append(out, internal.ValidationError{
			Field:   k,
			Message: msg,
			Code:    string(internal.ErrCodeUpstream),
		})
	}
	return out
}

func textOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		return joinMessages(t)
	}
	return ""
}

func joinMessages(items []any) string {
	var parts []string
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
