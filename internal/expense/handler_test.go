package expense_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-console/internal/backend/backendtest"
	"github.com/frahmantamala/expense-console/internal/category"
	"github.com/frahmantamala/expense-console/internal/core/common/validation"
	"github.com/frahmantamala/expense-console/internal/core/user"
	"github.com/frahmantamala/expense-console/internal/expense"
	"github.com/frahmantamala/expense-console/internal/modal"
	"github.com/frahmantamala/expense-console/internal/session"
	"github.com/frahmantamala/expense-console/internal/session/sessiontest"
	"github.com/frahmantamala/expense-console/internal/transport"
	"github.com/frahmantamala/expense-console/internal/view"
)

var _ = Describe("Expense Handler", func() {
	var (
		api     *backendtest.Server
		hub     *modal.Hub
		router  *chi.Mux
		sess    *session.Session
		restore func() time.Time
	)

	do := func(method, target string, form url.Values) *httptest.ResponseRecorder {
		var body *strings.Reader
		rec := httptest.NewRecorder()
		if form != nil {
			body = strings.NewReader(form.Encode())
			router.ServeHTTP(rec, sessiontest.Request(method, target, body, sess, true))
		} else {
			router.ServeHTTP(rec, sessiontest.Request(method, target, nil, sess, true))
		}
		return rec
	}

	open := func(target string) *modal.Instance {
		rec := do(http.MethodGet, target, nil)
		ExpectWithOffset(1, rec.Code).To(Equal(http.StatusOK))
		return hub.Registry(sess.ID()).Current()
	}

	BeforeEach(func() {
		restore = validation.Now
		validation.Now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local) }

		api = backendtest.NewServer()
		client := api.Client()
		api.Reply(http.MethodGet, "/expense-categories/", http.StatusOK, []map[string]any{
			{"id": 3, "name": "Meals"},
			{"id": 4, "name": "Travel"},
		})

		hub = modal.NewHub(inlineRunner{}, time.Minute, quietLogger)
		base := transport.NewBaseHandler(quietLogger, view.MustNew())
		modals := modal.NewHandler(base, hub)
		service := expense.NewService(client, category.NewService(client, quietLogger), quietLogger)
		handler := expense.NewHandler(base, service, modals, "USD")
		modals.Register(handler.Definitions()...)

		router = chi.NewRouter()
		router.Route("/modals", func(r chi.Router) {
			modals.Routes(r)
			r.Post("/expense-submission/{id}", handler.Submit)
		})
		sess = sessiontest.New(client).SignedIn(sessiontest.Profile(user.RoleEmployee), "tok-1")
	})

	AfterEach(func() {
		validation.Now = restore
		api.Close()
	})

	It("renders the form with the categories and the company currency", func() {
		inst := open("/modals/expense-submission")

		rec := do(http.MethodGet, "/modals/expense-submission/"+inst.ID, nil)

		Expect(rec.Body.String()).To(ContainSubstring("Meals"))
		Expect(rec.Body.String()).To(ContainSubstring(`<option value="INR" selected>`))
		Expect(rec.Body.String()).To(ContainSubstring(`value="2025-03-10"`))
		req, ok := api.Last(http.MethodGet, "/expense-categories/")
		Expect(ok).To(BeTrue())
		Expect(req.Authorization).To(Equal("Token tok-1"))
	})

	It("creates the expense, closes the modal and triggers the opener's event", func() {
		api.Reply(http.MethodPost, "/expenses/", http.StatusCreated, map[string]any{"id": 42, "amount": "99.90", "currency": "INR"})
		inst := open("/modals/expense-submission?on_success=expense-submitted")

		rec := do(http.MethodPost, "/modals/expense-submission/"+inst.ID, url.Values{
			"amount":       {"99.90"},
			"category":     {"3"},
			"description":  {"Team lunch"},
			"expense_date": {"2025-03-09"},
		})

		Expect(rec.Code).To(Equal(http.StatusOK))
		var trigger map[string]any
		Expect(json.Unmarshal([]byte(rec.Header().Get("HX-Trigger")), &trigger)).To(Succeed())
		Expect(trigger).To(HaveKeyWithValue("toast", "Expense submitted successfully!"))
		Expect(trigger).To(HaveKeyWithValue("expense-submitted", true))
		Expect(inst.Alive()).To(BeFalse())

		sent, ok := api.Last(http.MethodPost, "/expenses/")
		Expect(ok).To(BeTrue())
		Expect(string(sent.Body)).To(ContainSubstring(`"amount":99.9`))
		Expect(sent.JSON()).To(HaveKeyWithValue("currency", "INR"))
		Expect(sent.JSON()).To(HaveKeyWithValue("category", BeNumerically("==", 3)))
	})

	It("keeps the modal open with inline errors for invalid input", func() {
		inst := open("/modals/expense-submission")

		rec := do(http.MethodPost, "/modals/expense-submission/"+inst.ID, url.Values{
			"amount":       {"0"},
			"category":     {"3"},
			"description":  {"Team lunch"},
			"expense_date": {"2025-03-09"},
		})

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring("Please enter a valid amount greater than 0"))
		Expect(rec.Body.String()).To(ContainSubstring("Team lunch"))
		Expect(inst.Alive()).To(BeTrue())
		Expect(api.Count(http.MethodPost, "/expenses/")).To(Equal(0))
	})

	It("shows the remote API's field errors", func() {
		api.Reply(http.MethodPost, "/expenses/", http.StatusBadRequest, map[string]any{
			"description": []string{"Description is too vague."},
		})
		inst := open("/modals/expense-submission")

		rec := do(http.MethodPost, "/modals/expense-submission/"+inst.ID, url.Values{
			"amount":       {"12"},
			"category":     {"4"},
			"description":  {"stuff"},
			"expense_date": {"2025-03-09"},
		})

		Expect(rec.Body.String()).To(ContainSubstring("Description is too vague."))
		Expect(inst.Alive()).To(BeTrue())
	})

	It("refuses actions on a modal that was closed", func() {
		inst := open("/modals/expense-submission")
		hub.Registry(sess.ID()).Close(inst.ID)

		rec := do(http.MethodPost, "/modals/expense-submission/"+inst.ID, url.Values{"amount": {"5"}})

		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(api.Count(http.MethodPost, "/expenses/")).To(Equal(0))
	})
})
