package backend

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
)

// Spec is the OpenAPI description of the endpoints this client consumes.
//
//go:embed backend.yml
var Spec []byte

// Contract validates outbound requests against Spec before they are sent.
type Contract struct {
	router routers.Router
}

func LoadContract(ctx context.Context) (*Contract, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(Spec)
	if err != nil {
		return nil, fmt.Errorf("load backend contract: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid backend contract: %w", err)
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build contract router: %w", err)
	}
	return &Contract{router: router}, nil
}

// ValidateRequest checks req against the contract. basePath is stripped from
// the request path since the document describes paths relative to the API root.
func (c *Contract) ValidateRequest(ctx context.Context, req *http.Request, body []byte, basePath string) error {
	probe := req.Clone(ctx)
	u := *req.URL
	u.Path = strings.TrimPrefix(u.Path, strings.TrimRight(basePath, "/"))
	u.Scheme = ""
	u.Host = ""
	probe.URL = &u
	probe.Host = ""
	probe.Body = io.NopCloser(bytes.NewReader(body))

	route, params, err := c.router.FindRoute(probe)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, u.Path, err)
	}

	input := &openapi3filter.RequestValidationInput{
		Request:    probe,
		PathParams: params,
		Route:      route,
		Options: &openapi3filter.Options{
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			MultiError:         false,
		},
	}
	return openapi3filter.ValidateRequest(ctx, input)
}
