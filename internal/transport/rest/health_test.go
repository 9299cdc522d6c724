package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func healthy(context.Context) error { return nil }

func failing(context.Context) error { return errors.New("connection refused") }

func checkHealth(components map[string]Pinger) (int, HealthResponse) {
	rec := httptest.NewRecorder()
	NewHealthHandler(components).healthCheckHandler(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var resp HealthResponse
	Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
	return rec.Code, resp
}

var _ = Describe("HealthHandler", func() {
	It("is healthy when every component answers", func() {
		code, resp := checkHealth(map[string]Pinger{
			"session_store": PingFunc(healthy),
			"backend":       PingFunc(healthy),
		})

		Expect(code).To(Equal(http.StatusOK))
		Expect(resp.Status).To(Equal(HealthHealthy))
		Expect(resp.Components).To(HaveLen(2))
	})

	It("fails readiness when the session store is down", func() {
		code, resp := checkHealth(map[string]Pinger{
			"session_store": PingFunc(failing),
			"backend":       PingFunc(healthy),
		})

		Expect(code).To(Equal(http.StatusServiceUnavailable))
		Expect(resp.Components["session_store"].Message).To(Equal("connection refused"))
	})

	It("only reports an unreachable remote API", func() {
		code, resp := checkHealth(map[string]Pinger{
			"session_store": PingFunc(healthy),
			"backend":       PingFunc(failing),
		})

		Expect(code).To(Equal(http.StatusOK))
		Expect(resp.Status).To(Equal(HealthHealthy))
		Expect(resp.Components["backend"].Status).To(Equal(HealthUnhealthy))
		Expect(resp.Components["backend"].Details).To(HaveKeyWithValue("optional", true))
	})
})

var _ = Describe("RegisterAllRoutes", func() {
	var router *chi.Mux

	BeforeEach(func() {
		router = chi.NewRouter()
		RegisterAllRoutes(router, Handlers{
			Health:   NewHealthHandler(map[string]Pinger{"session_store": PingFunc(healthy)}),
			Sessions: func(next http.Handler) http.Handler { return next },
		}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	get := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec
	}

	It("answers the liveness probe with a trace id", func() {
		rec := get("/ping")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"OK"`))
		Expect(rec.Header().Get("X-Trace-ID")).NotTo(BeEmpty())
	})

	It("serves the remote API contract", func() {
		rec := get("/openapi.yml")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/yaml"))
		Expect(rec.Body.String()).To(ContainSubstring("openapi"))
	})
})
