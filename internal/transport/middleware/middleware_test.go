package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-console/internal/core/user"
	"github.com/frahmantamala/expense-console/internal/session/sessiontest"
	"github.com/frahmantamala/expense-console/internal/transport"
	"github.com/frahmantamala/expense-console/internal/view"
	"github.com/frahmantamala/expense-console/pkg/logger"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var noContent = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

var _ = Describe("RequireRoles", func() {
	var (
		sessions *sessiontest.Sessions
		handler  http.Handler
	)

	BeforeEach(func() {
		sessions = sessiontest.New(nil)
		base := transport.NewBaseHandler(quietLogger, view.MustNew())
		handler = RequireRoles(base, user.RoleManager, user.RoleAdmin)(noContent)
	})

	serve := func(role user.Role, signedIn bool) int {
		sess := sessions.Anonymous()
		if signedIn {
			sess = sessions.SignedIn(sessiontest.Profile(role), "tok")
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, sessiontest.Request(http.MethodGet, "/dashboard/manager/pending", nil, sess, true))
		return rec.Code
	}

	It("lets allowed roles through", func() {
		Expect(serve(user.RoleManager, true)).To(Equal(http.StatusNoContent))
		Expect(serve(user.RoleAdmin, true)).To(Equal(http.StatusNoContent))
	})

	It("refuses other roles", func() {
		Expect(serve(user.RoleEmployee, true)).To(Equal(http.StatusForbidden))
	})

	It("asks anonymous sessions to sign in", func() {
		Expect(serve("", false)).To(Equal(http.StatusUnauthorized))
	})
})

var _ = Describe("RequestID", func() {
	It("keeps an incoming trace id and puts it on the request logger", func() {
		var hasLogger bool
		handler := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			_, hasLogger = logger.Lookup(r.Context())
		}))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Trace-ID", "trace-42")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		Expect(rec.Header().Get("X-Trace-ID")).To(Equal("trace-42"))
		Expect(hasLogger).To(BeTrue())
	})

	It("generates one when missing", func() {
		rec := httptest.NewRecorder()
		RequestID(noContent).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Header().Get("X-Trace-ID")).NotTo(BeEmpty())
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("answers a panic with the fallback page", func() {
		handler := RecoveryMiddleware(quietLogger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Body.String()).To(ContainSubstring("Something went wrong"))
	})
})

type recordingObserver struct {
	method, pattern string
	status          int
}

func (o *recordingObserver) ObserveHTTPRequest(method, pattern string, status int, _ time.Duration) {
	o.method, o.pattern, o.status = method, pattern, status
}

var _ = Describe("Metrics", func() {
	It("records the route pattern instead of the raw path", func() {
		obs := &recordingObserver{}
		router := chi.NewRouter()
		router.Use(Metrics(obs))
		router.Get("/modals/{kind}/{id}", noContent)

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/modals/login/123", nil))

		Expect(obs.pattern).To(Equal("/modals/{kind}/{id}"))
		Expect(obs.status).To(Equal(http.StatusNoContent))
		Expect(obs.method).To(Equal(http.MethodGet))
	})
})
