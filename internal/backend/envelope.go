package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/frahmantamala/expense-console/internal"
)

// listKeys are the object keys a collection may be wrapped in.
var listKeys = []string{"results", "users", "companies", "rules", "flows", "expenses", "approvals", "data"}

// decodeList accepts a bare JSON array or an object wrapping the array under
// one of the known envelope keys.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}

	if raw[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, err
		}
		found := false
		for _, key := range listKeys {
			if inner, ok := obj[key]; ok {
				raw = bytes.TrimSpace(inner)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("no collection found in response object")
		}
		if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
			return []T{}, nil
		}
	}

	items := []T{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func getList[T any](ctx context.Context, c *Client, path, token string) ([]T, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, token, nil, &raw); err != nil {
		return nil, err
	}
	items, err := decodeList[T](raw)
	if err != nil {
		return nil, invalidFormat(http.StatusOK, err)
	}
	return items, nil
}

// isNotFound reports whether err is a 404 answered by the remote API.
func isNotFound(err error) bool {
	appErr, ok := internal.IsAppError(err)
	return ok && appErr.UpstreamStatus == http.StatusNotFound
}
