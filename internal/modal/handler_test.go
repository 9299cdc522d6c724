package modal_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-console/internal/backend"
	"github.com/frahmantamala/expense-console/internal/core/user"
	"github.com/frahmantamala/expense-console/internal/modal"
	"github.com/frahmantamala/expense-console/internal/session"
	"github.com/frahmantamala/expense-console/internal/session/sessiontest"
	"github.com/frahmantamala/expense-console/internal/transport"
	"github.com/frahmantamala/expense-console/internal/view"
)

var _ = Describe("Modal Handler", func() {
	var (
		runner   *heldRunner
		hub      *modal.Hub
		handler  *modal.Handler
		router   *chi.Mux
		sessions *sessiontest.Sessions
	)

	serve := func(method, target string, sess *session.Session) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, sessiontest.Request(method, target, nil, sess, true))
		return rec
	}

	BeforeEach(func() {
		runner = &heldRunner{}
		hub = modal.NewHub(runner, time.Minute, quietLogger)
		base := transport.NewBaseHandler(quietLogger, view.MustNew())
		handler = modal.NewHandler(base, hub,
			modal.Definition{Kind: modal.KindLogin, Template: "modal/login", Anonymous: true},
			modal.Definition{
				Kind:     modal.KindTeamExpenses,
				Template: "modal/team-expenses",
				Roles:    []user.Role{user.RoleManager, user.RoleAdmin},
				Load: func(sess *session.Session, _ url.Values) modal.LoadFunc {
					return func(context.Context) (any, error) {
						return []backend.Expense{{ID: "9", Description: "Taxi to airport", Currency: "INR", Status: "pending"}}, nil
					}
				},
			},
		)
		router = chi.NewRouter()
		router.Route("/modals", handler.Routes)
		sessions = sessiontest.New(nil)
	})

	It("renders a loading placeholder that polls until the data arrives", func() {
		sess := sessions.SignedIn(sessiontest.Profile(user.RoleManager), "tok")

		rec := serve(http.MethodGet, "/modals/team-expenses", sess)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("Loading..."))

		inst := hub.Registry(sess.ID()).Current()
		Expect(inst).NotTo(BeNil())
		Expect(rec.Body.String()).To(ContainSubstring(`hx-get="/modals/team-expenses/` + inst.ID + `"`))

		runner.RunAll()
		rec = serve(http.MethodGet, "/modals/team-expenses/"+inst.ID, sess)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("Taxi to airport"))
		Expect(rec.Body.String()).NotTo(ContainSubstring("Loading..."))
	})

	It("answers 404 for an unknown kind", func() {
		rec := serve(http.MethodGet, "/modals/nope", sessions.Anonymous())

		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(rec.Body.String()).To(ContainSubstring("Unknown dialog"))
	})

	It("refuses signed-in modals to anonymous sessions", func() {
		rec := serve(http.MethodGet, "/modals/team-expenses", sessions.Anonymous())

		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("refuses a role outside the definition", func() {
		sess := sessions.SignedIn(sessiontest.Profile(user.RoleEmployee), "tok")

		rec := serve(http.MethodGet, "/modals/team-expenses", sess)

		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(hub.Registry(sess.ID()).Current()).To(BeNil())
	})

	It("refuses anonymous-only modals to signed-in sessions", func() {
		sess := sessions.SignedIn(sessiontest.Profile(user.RoleEmployee), "tok")

		rec := serve(http.MethodGet, "/modals/login", sess)

		Expect(rec.Code).To(Equal(http.StatusForbidden))
	})

	It("closes the modal and succeeds when it is already gone", func() {
		sess := sessions.Anonymous()
		serve(http.MethodGet, "/modals/login", sess)
		inst := hub.Registry(sess.ID()).Current()

		rec := serve(http.MethodDelete, "/modals/login/"+inst.ID, sess)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(BeEmpty())
		Expect(inst.Alive()).To(BeFalse())

		rec = serve(http.MethodDelete, "/modals/login/"+inst.ID, sess)
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("answers 404 for a modal that is no longer open", func() {
		sess := sessions.Anonymous()
		serve(http.MethodGet, "/modals/login", sess)
		first := hub.Registry(sess.ID()).Current()
		serve(http.MethodGet, "/modals/login", sess)

		rec := serve(http.MethodGet, "/modals/login/"+first.ID, sess)

		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(rec.Body.String()).To(ContainSubstring("no longer open"))
	})

	It("keeps a valid success event and drops a malformed one", func() {
		sess := sessions.SignedIn(sessiontest.Profile(user.RoleManager), "tok")

		serve(http.MethodGet, "/modals/team-expenses?on_success=expense-submitted", sess)
		Expect(hub.Registry(sess.ID()).Current().Param(modal.ParamOnSuccess)).To(Equal("expense-submitted"))

		serve(http.MethodGet, "/modals/team-expenses?on_success=%3Cscript%3E", sess)
		Expect(hub.Registry(sess.ID()).Current().Param(modal.ParamOnSuccess)).To(BeEmpty())
	})

	It("strips password fields from re-rendered forms", func() {
		out := modal.WithoutSecrets(url.Values{
			"username":         {"jdoe"},
			"password":         {"secret"},
			"password_confirm": {"secret"},
		})

		Expect(out).To(HaveKey("username"))
		Expect(out).NotTo(HaveKey("password"))
		Expect(out).NotTo(HaveKey("password_confirm"))
	})
})
