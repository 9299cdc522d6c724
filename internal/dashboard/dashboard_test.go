package dashboard_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-console/internal"
	"github.com/frahmantamala/expense-console/internal/approval"
	"github.com/frahmantamala/expense-console/internal/backend/backendtest"
	"github.com/frahmantamala/expense-console/internal/company"
	"github.com/frahmantamala/expense-console/internal/core/user"
	"github.com/frahmantamala/expense-console/internal/dashboard"
	"github.com/frahmantamala/expense-console/internal/landing"
	"github.com/frahmantamala/expense-console/internal/session"
	"github.com/frahmantamala/expense-console/internal/session/sessiontest"
	"github.com/frahmantamala/expense-console/internal/transport"
	"github.com/frahmantamala/expense-console/internal/view"
)

func TestDashboard(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Dashboard Suite")
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubApprovals struct {
	section approval.Section
	calls   int
}

func (s *stubApprovals) LoadSection(context.Context, string) approval.Section {
	s.calls++
	return s.section
}

type stubCompanies struct {
	section company.Section
	calls   int
}

func (s *stubCompanies) LoadSection(context.Context, string) company.Section {
	s.calls++
	return s.section
}

var _ = Describe("For", func() {
	DescribeTable("maps roles to dashboards",
		func(role user.Role, page string) {
			variant, err := dashboard.For(role)

			Expect(err).NotTo(HaveOccurred())
			Expect(variant.Page()).To(Equal(page))
		},
		Entry("employee", user.RoleEmployee, view.PageEmployee),
		Entry("manager", user.RoleManager, view.PageManager),
		Entry("admin shares the manager dashboard", user.RoleAdmin, view.PageManager),
		Entry("super user", user.RoleSuperUser, view.PageSuperUser),
	)

	It("refuses roles it does not know", func() {
		_, err := dashboard.For(user.Role("AUDITOR"))

		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(http.StatusForbidden))
	})
})

var _ = Describe("Dashboard Handler", func() {
	var (
		api       *backendtest.Server
		sessions  *sessiontest.Sessions
		approvals *stubApprovals
		companies *stubCompanies
		router    *chi.Mux
		sess      *session.Session
	)

	get := func(target string, htmx bool) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, sessiontest.Request(http.MethodGet, target, nil, sess, htmx))
		return rec
	}

	BeforeEach(func() {
		api = backendtest.NewServer()
		sessions = sessiontest.New(api.Client())
		approvals = &stubApprovals{section: approval.Section{Err: "Approvals are unavailable"}}
		companies = &stubCompanies{section: company.Section{Err: "Companies are unavailable"}}

		content, err := landing.Default()
		Expect(err).NotTo(HaveOccurred())
		base := transport.NewBaseHandler(quietLogger, view.MustNew())
		handler := dashboard.NewHandler(base, content, sessions.Manager, approvals, companies, "USD")

		router = chi.NewRouter()
		router.Get("/", handler.Home)
		router.Post("/dashboard/notice/{feature}", handler.Notice)
		sess = sessions.Anonymous()
	})

	AfterEach(func() {
		api.Close()
	})

	It("shows the landing page to anonymous visitors", func() {
		rec := get("/", false)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("Accounting, Simplified."))
		Expect(api.Requests()).To(BeEmpty())
	})

	It("shows the employee dashboard with the company details", func() {
		sess = sessions.SignedIn(sessiontest.Profile(user.RoleEmployee), "tok-emp")

		rec := get("/", false)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("Welcome back, Jane!"))
		Expect(rec.Body.String()).To(ContainSubstring("Acme"))
		Expect(approvals.calls).To(Equal(0))
	})

	It("picks the dashboard from the refreshed profile", func() {
		sess = sessions.SignedIn(sessiontest.Profile(user.RoleEmployee), "tok-emp")
		api.Reply(http.MethodGet, "/profile/", http.StatusOK, sessiontest.Profile(user.RoleManager))

		rec := get("/", false)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("Approvals are unavailable"))
		Expect(approvals.calls).To(Equal(1))
		Expect(sess.CurrentUser().Role).To(Equal(user.RoleManager))
		Expect(rec.Header().Get("Set-Cookie")).To(ContainSubstring(session.CookieName))
	})

	It("keeps the cookie when the profile cannot be refreshed", func() {
		sess = sessions.SignedIn(sessiontest.Profile(user.RoleEmployee), "tok-emp")
		api.Reply(http.MethodGet, "/profile/", http.StatusUnauthorized, map[string]any{"detail": "Invalid token."})

		rec := get("/", false)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("Welcome back, Jane!"))
		Expect(rec.Header().Get("Set-Cookie")).To(BeEmpty())
	})

	It("loads the company list for super users", func() {
		sess = sessions.SignedIn(sessiontest.Profile(user.RoleSuperUser), "tok-su")

		rec := get("/", false)

		Expect(rec.Body.String()).To(ContainSubstring("Companies are unavailable"))
		Expect(rec.Body.String()).To(ContainSubstring(`id="company-id"`))
		Expect(companies.calls).To(Equal(1))
	})

	It("answers an unsupported role with the error page", func() {
		sess = sessions.SignedIn(sessiontest.Profile(user.Role("AUDITOR")), "tok-x")

		rec := get("/", false)

		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(rec.Body.String()).To(ContainSubstring("role this console does not support"))
	})

	Describe("Notice", func() {
		It("answers a known feature with a toast", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, sessiontest.Request(http.MethodPost, "/dashboard/notice/create-flow", nil, sess, true))

			Expect(rec.Code).To(Equal(http.StatusOK))
			var trigger map[string]any
			Expect(json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &trigger)).To(Succeed())
			Expect(trigger).To(HaveKeyWithValue("toast", dashboard.Notices["create-flow"]))
		})

		It("answers an unknown feature with 404", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, sessiontest.Request(http.MethodPost, "/dashboard/notice/teleport", nil, sess, true))

			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})
})
