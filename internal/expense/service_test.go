package expense_test

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-console/internal"
	"github.com/frahmantamala/expense-console/internal/backend"
	"github.com/frahmantamala/expense-console/internal/category"
	"github.com/frahmantamala/expense-console/internal/core/common/validation"
	"github.com/frahmantamala/expense-console/internal/core/events"
	"github.com/frahmantamala/expense-console/internal/core/user"
	"github.com/frahmantamala/expense-console/internal/expense"
)

type mockExpenseAPI struct {
	created  []backend.ExpenseRequest
	history  *backend.ExpenseHistory
	err      error
	response *backend.Expense
}

func (m *mockExpenseAPI) CreateExpense(_ context.Context, _ string, req backend.ExpenseRequest) (*backend.Expense, error) {
	m.created = append(m.created, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *mockExpenseAPI) MyExpenseHistory(context.Context, string) (*backend.ExpenseHistory, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.history, nil
}

type mockCategories struct {
	categories []category.Category
	err        error
}

func (m *mockCategories) List(context.Context, string) ([]category.Category, error) {
	return m.categories, m.err
}

type mockPublisher struct {
	events []events.Event
}

func (m *mockPublisher) Publish(_ context.Context, e events.Event) error {
	m.events = append(m.events, e)
	return nil
}

func validForm() expense.SubmissionForm {
	return expense.SubmissionForm{
		Amount:      "1250.50",
		Category:    "3",
		Description: "Client dinner",
		ExpenseDate: "2025-03-01",
	}
}

var _ = Describe("Expense Service", func() {
	var (
		api        *mockExpenseAPI
		categories *mockCategories
		publisher  *mockPublisher
		service    *expense.Service
		restore    func() time.Time
	)

	BeforeEach(func() {
		restore = validation.Now
		validation.Now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local) }

		api = &mockExpenseAPI{response: &backend.Expense{ID: "42"}}
		categories = &mockCategories{categories: []category.Category{{ID: "3", Name: "Meals"}}}
		publisher = &mockPublisher{}
		service = expense.NewService(api, categories, quietLogger)
		service.SetPublisher(publisher)
	})

	AfterEach(func() {
		validation.Now = restore
	})

	Describe("SubmissionData", func() {
		It("offers the categories, the currencies and today's date", func() {
			data, err := service.SubmissionData(context.Background(), "tok", "INR")

			Expect(err).NotTo(HaveOccurred())
			Expect(data.Categories).To(HaveLen(1))
			Expect(data.Currency).To(Equal("INR"))
			Expect(data.Today).To(Equal("2025-03-10"))
			Expect(data.Currencies).To(ContainElement(expense.Currency{Code: "JPY", Name: "Japanese Yen"}))
		})

		It("fails when the categories cannot be loaded", func() {
			categories.err = errors.New("down")

			_, err := service.SubmissionData(context.Background(), "tok", "INR")

			Expect(err).To(MatchError("down"))
		})
	})

	Describe("Submit", func() {
		It("sends the amount as a JSON number and the fallback currency", func() {
			created, err := service.Submit(context.Background(), &user.Profile{Username: "jdoe"}, "tok", validForm(), "INR")

			Expect(err).NotTo(HaveOccurred())
			Expect(created.ID.String()).To(Equal("42"))
			Expect(api.created).To(HaveLen(1))
			Expect(api.created[0].Amount).To(Equal(json.Number("1250.5")))
			Expect(api.created[0].Category).To(Equal(int64(3)))
			Expect(api.created[0].Currency).To(Equal("INR"))
			Expect(publisher.events).To(HaveLen(1))
			Expect(publisher.events[0].EventType()).To(Equal(events.EventTypeExpenseSubmitted))
		})

		DescribeTable("rejects invalid input without calling the API",
			func(mutate func(*expense.SubmissionForm), field string) {
				form := validForm()
				mutate(&form)

				_, err := service.Submit(context.Background(), nil, "tok", form, "INR")

				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Details.(internal.ValidationErrors).FieldMessage(field)).NotTo(BeEmpty())
				Expect(api.created).To(BeEmpty())
			},
			Entry("zero amount", func(f *expense.SubmissionForm) { f.Amount = "0" }, "amount"),
			Entry("negative amount", func(f *expense.SubmissionForm) { f.Amount = "-4" }, "amount"),
			Entry("text amount", func(f *expense.SubmissionForm) { f.Amount = "ten" }, "amount"),
			Entry("missing category", func(f *expense.SubmissionForm) { f.Category = "" }, "category"),
			Entry("non numeric category", func(f *expense.SubmissionForm) { f.Category = "meals" }, "category"),
			Entry("missing description", func(f *expense.SubmissionForm) { f.Description = "" }, "description"),
			Entry("future date", func(f *expense.SubmissionForm) { f.ExpenseDate = "2025-03-11" }, "expense_date"),
			Entry("malformed date", func(f *expense.SubmissionForm) { f.ExpenseDate = "03/01/2025" }, "expense_date"),
			Entry("bad currency", func(f *expense.SubmissionForm) { f.Currency = "RUPEE" }, "currency"),
		)

		It("accepts today's date", func() {
			form := validForm()
			form.ExpenseDate = "2025-03-10"

			_, err := service.Submit(context.Background(), nil, "tok", form, "INR")

			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("History", func() {
		It("groups expenses for the tabs", func() {
			api.history = &backend.ExpenseHistory{}
			api.history.Summary.TotalExpenses = 0

			history, err := service.History(context.Background(), "tok")

			Expect(err).NotTo(HaveOccurred())
			Expect(history.Tabs()[0].Key).To(Equal(expense.TabAll))
			Expect(history.ActiveTab("bogus")).To(Equal(expense.TabAll))
			Expect(history.ActiveTab("pending")).To(Equal("pending"))
		})
	})
})
