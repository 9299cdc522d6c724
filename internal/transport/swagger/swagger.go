package swagger

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/frahmantamala/expense-console/internal/backend"
)

// SpecPath is where the contract of the remote API is served.
const SpecPath = "/openapi.yml"

// Handler serves Swagger UI for the remote API contract.
func Handler() http.Handler {
	return httpSwagger.Handler(
		httpSwagger.URL(SpecPath),
	)
}

// Spec serves the embedded contract document.
func Spec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(backend.Spec)
}
