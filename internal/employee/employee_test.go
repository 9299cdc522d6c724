package employee_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-console/internal/backend"
	"github.com/frahmantamala/expense-console/internal/backend/backendtest"
	"github.com/frahmantamala/expense-console/internal/core/user"
	"github.com/frahmantamala/expense-console/internal/employee"
	"github.com/frahmantamala/expense-console/internal/modal"
	"github.com/frahmantamala/expense-console/internal/session"
	"github.com/frahmantamala/expense-console/internal/session/sessiontest"
	"github.com/frahmantamala/expense-console/internal/transport"
	"github.com/frahmantamala/expense-console/internal/view"
)

func TestEmployee(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Employee Suite")
}

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type inlineRunner struct{}

func (inlineRunner) Submit(job modal.Job) error {
	job()
	return nil
}

func completeForm() url.Values {
	return url.Values{
		"username":   {"rkumar"},
		"email":      {"rkumar@example.com"},
		"first_name": {"Ravi"},
		"last_name":  {"Kumar"},
		"password":   {"s3cret!"},
		"role":       {"EMPLOYEE"},
		"manager_id": {"3"},
	}
}

var _ = Describe("Employee Form", func() {
	It("forces the manager to the acting manager", func() {
		manager := &user.Profile{ID: "12", Role: user.RoleManager}

		req, err := employee.FormFromValues(completeForm()).ToRequest(manager)

		Expect(err).NotTo(HaveOccurred())
		Expect(*req.ManagerID).To(Equal("12"))
	})

	It("keeps the chosen manager for admins", func() {
		admin := &user.Profile{ID: "1", Role: user.RoleAdmin}

		req, err := employee.FormFromValues(completeForm()).ToRequest(admin)

		Expect(err).NotTo(HaveOccurred())
		Expect(*req.ManagerID).To(Equal("3"))
	})

	It("refuses roles other than employee and manager", func() {
		form := completeForm()
		form.Set("role", "ADMIN")

		_, err := employee.FormFromValues(form).ToRequest(nil)

		Expect(err).To(HaveOccurred())
	})

	It("lists managers and admins as possible managers", func() {
		data := employee.NewData([]backend.Employee{
			{ID: "1", Role: user.RoleAdmin},
			{ID: "2", Role: user.RoleEmployee},
			{ID: "3", Role: user.RoleManager},
		})

		Expect(data.Managers).To(HaveLen(2))
		_, found := data.Find("2")
		Expect(found).To(BeTrue())
		_, found = data.Find("99")
		Expect(found).To(BeFalse())
	})
})

var _ = Describe("Employees Handler", func() {
	var (
		api    *backendtest.Server
		hub    *modal.Hub
		router *chi.Mux
		sess   *session.Session
	)

	do := func(method, target string, form url.Values) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		if form == nil {
			router.ServeHTTP(rec, sessiontest.Request(method, target, nil, sess, true))
		} else {
			router.ServeHTTP(rec, sessiontest.Request(method, target, strings.NewReader(form.Encode()), sess, true))
		}
		return rec
	}

	openList := func() *modal.Instance {
		do(http.MethodGet, "/modals/employees", nil)
		return hub.Registry(sess.ID()).Current()
	}

	BeforeEach(func() {
		api = backendtest.NewServer()
		client := api.Client()
		api.Reply(http.MethodGet, "/admin/users/", http.StatusOK, map[string]any{
			"users": []map[string]any{
				{"id": 3, "username": "mgr", "first_name": "Mina", "last_name": "Rao", "role": "MANAGER", "is_active": true},
				{"id": 4, "username": "emp", "first_name": "Eli", "last_name": "Shah", "role": "EMPLOYEE", "is_active": false},
			},
		})

		hub = modal.NewHub(inlineRunner{}, time.Minute, quietLogger)
		base := transport.NewBaseHandler(quietLogger, view.MustNew())
		modals := modal.NewHandler(base, hub)
		handler := employee.NewHandler(base, employee.NewService(client, quietLogger), modals)
		modals.Register(handler.Definitions()...)

		router = chi.NewRouter()
		router.Route("/modals", func(r chi.Router) {
			modals.Routes(r)
			r.Post("/employees/{id}", handler.Create)
			r.Post("/employees/{id}/{userID}/toggle", handler.Toggle)
		})
		sess = sessiontest.New(client).SignedIn(sessiontest.Profile(user.RoleAdmin), "tok-a")
	})

	AfterEach(func() {
		api.Close()
	})

	It("lists the company's users", func() {
		inst := openList()

		rec := do(http.MethodGet, "/modals/employees/"+inst.ID, nil)

		Expect(rec.Body.String()).To(ContainSubstring("Mina Rao"))
		Expect(rec.Body.String()).To(ContainSubstring("Eli Shah"))
	})

	It("adds an employee and reloads the list", func() {
		api.Reply(http.MethodPost, "/admin/users/create/", http.StatusCreated, map[string]any{"id": 5, "username": "rkumar"})
		inst := openList()

		rec := do(http.MethodPost, "/modals/employees/"+inst.ID, completeForm())

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("HX-Trigger")).To(ContainSubstring("Employee added successfully!"))
		Expect(api.Count(http.MethodGet, "/admin/users/")).To(Equal(2))
		sent, _ := api.Last(http.MethodPost, "/admin/users/create/")
		Expect(sent.JSON()).To(HaveKeyWithValue("username", "rkumar"))
		Expect(sent.JSON()).To(HaveKeyWithValue("manager_id", "3"))
	})

	It("never echoes the password back after a failure", func() {
		inst := openList()
		form := completeForm()
		form.Set("email", "not-an-email")

		rec := do(http.MethodPost, "/modals/employees/"+inst.ID, form)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(ContainSubstring("not-an-email"))
		Expect(rec.Body.String()).NotTo(ContainSubstring("s3cret!"))
		Expect(api.Count(http.MethodPost, "/admin/users/create/")).To(Equal(0))
	})

	It("flips the status shown in the list", func() {
		api.Reply(http.MethodPatch, "/admin/users/4/update/", http.StatusOK, map[string]any{})
		inst := openList()

		rec := do(http.MethodPost, "/modals/employees/"+inst.ID+"/4/toggle", url.Values{})

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("HX-Trigger")).To(ContainSubstring("Employee activated successfully!"))
		sent, ok := api.Last(http.MethodPatch, "/admin/users/4/update/")
		Expect(ok).To(BeTrue())
		Expect(sent.JSON()).To(Equal(map[string]any{"is_active": true}))
	})

	It("refuses to toggle a user missing from the list", func() {
		inst := openList()

		rec := do(http.MethodPost, "/modals/employees/"+inst.ID+"/99/toggle", url.Values{})

		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(rec.Body.String()).To(ContainSubstring("Employee not found"))
		Expect(api.Requests()).To(HaveLen(1))
	})
})
