package expense

import (
	"github.com/frahmantamala/expense-console/internal/backend"
	"github.com/frahmantamala/expense-console/internal/category"
)

const TabAll = "all"

// Currencies offered by the submission form.
var Currencies = []Currency{
	{Code: "USD", Name: "US Dollar"},
	{Code: "CAD", Name: "Canadian Dollar"},
	{Code: "GBP", Name: "British Pound"},
	{Code: "AUD", Name: "Australian Dollar"},
	{Code: "EUR", Name: "Euro"},
	{Code: "INR", Name: "Indian Rupee"},
	{Code: "JPY", Name: "Japanese Yen"},
}

type Currency struct {
	Code string
	Name string
}

// SubmissionData is what the submission form needs before it can render.
type SubmissionData struct {
	Categories []category.Category
	Currencies []Currency
	Currency   string
	Today      string
}

type Tab struct {
	Key   string
	Label string
	Count int
}

// History is the expense history grouped by status.
type History struct {
	*backend.ExpenseHistory
}

func NewHistory(h *backend.ExpenseHistory) *History {
	if h == nil {
		h = &backend.ExpenseHistory{}
	}
	return &History{ExpenseHistory: h}
}

// NormalizeTab maps unknown tabs to TabAll.
func NormalizeTab(tab string) string {
	for _, status := range backend.HistoryStatuses {
		if tab == status {
			return tab
		}
	}
	return TabAll
}

// Tabs lists the filter tabs with their counts.
func (h *History) Tabs() []Tab {
	tabs := []Tab{{Key: TabAll, Label: "All", Count: h.Summary.TotalExpenses}}
	for _, status := range backend.HistoryStatuses {
		group := h.Group(status)
		tabs = append(tabs, Tab{
			Key:   status,
			Label: statusLabels[status],
			Count: group.Count,
		})
	}
	return tabs
}

// Expenses returns the expenses shown under tab.
func (h *History) Expenses(tab string) []backend.Expense {
	tab = NormalizeTab(tab)
	if tab == TabAll {
		return h.All()
	}
	return h.Group(tab).Expenses
}

var statusLabels = map[string]string{
	"draft":    "Draft",
	"pending":  "Pending",
	"approved": "Approved",
	"rejected": "Rejected",
	"paid":     "Paid",
}

// ActiveTab is the tab actually shown for the requested one.
func (h *History) ActiveTab(tab string) string {
	return NormalizeTab(tab)
}
