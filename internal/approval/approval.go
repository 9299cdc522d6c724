// Package approval serves the manager side of the expense workflow: the
// pending queue with its statistics, approve/reject, and the read-only team
// expense and approval history views.
package approval

import (
	"regexp"

	"github.com/frahmantamala/expense-console/internal"
	"github.com/frahmantamala/expense-console/internal/backend"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// Overview is the manager dashboard's approval section.
type Overview struct {
	Pending []backend.PendingExpense
	Stats   backend.ApprovalStatistics
}

// Decision is an approve or reject request for one pending expense.
type Decision struct {
	ExpenseID string
	Action    backend.ApprovalAction
	Comments  string
}

func (d Decision) Validate() error {
	if !identifierPattern.MatchString(d.ExpenseID) {
		return internal.NewValidationFieldError("expense_id", "Invalid expense identifier", internal.ErrCodeInvalidIdentifier)
	}
	if !d.Action.Valid() {
		return internal.NewValidationFieldError("action", "Action must be approve or reject", internal.ErrCodeInvalidAction)
	}
	return nil
}

// SuccessMessage is the toast shown after the decision went through.
func (d Decision) SuccessMessage() string {
	if d.Action == backend.ActionApprove {
		return "Expense approved successfully!"
	}
	return "Expense rejected successfully!"
}
