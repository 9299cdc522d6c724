package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeLoggedIn         = "session.logged_in"
	EventTypeLoggedOut        = "session.logged_out"
	EventTypeExpenseSubmitted = "expense.submitted"
	EventTypeApprovalActioned = "approval.actioned"
	EventTypeRuleCreated      = "rule.created"
	EventTypeEmployeeCreated  = "employee.created"
	EventTypeEmployeeToggled  = "employee.status_changed"
	EventTypeCompanyCreated   = "company.created"
)

var AllTypes = []string{
	EventTypeLoggedIn,
	EventTypeLoggedOut,
	EventTypeExpenseSubmitted,
	EventTypeApprovalActioned,
	EventTypeRuleCreated,
	EventTypeEmployeeCreated,
	EventTypeEmployeeToggled,
	EventTypeCompanyCreated,
}

func newBase(eventType, actor string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Actor:     actor,
		Timestamp: time.Now(),
		Data:      data,
	}
}

type SessionEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
}

func NewLoggedInEvent(sessionID, username, role string) *SessionEvent {
	return &SessionEvent{
		BaseEvent: newBase(EventTypeLoggedIn, username, map[string]interface{}{
			"session_id": sessionID,
			"role":       role,
		}),
		SessionID: sessionID,
		Role:      role,
	}
}

func NewLoggedOutEvent(sessionID, username string) *SessionEvent {
	return &SessionEvent{
		BaseEvent: newBase(EventTypeLoggedOut, username, map[string]interface{}{
			"session_id": sessionID,
		}),
		SessionID: sessionID,
	}
}

type ExpenseSubmittedEvent struct {
	BaseEvent
	ExpenseID string `json:"expense_id"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
}

func NewExpenseSubmittedEvent(actor, expenseID, amount, currency string) *ExpenseSubmittedEvent {
	return &ExpenseSubmittedEvent{
		BaseEvent: newBase(EventTypeExpenseSubmitted, actor, map[string]interface{}{
			"expense_id": expenseID,
			"amount":     amount,
			"currency":   currency,
		}),
		ExpenseID: expenseID,
		Amount:    amount,
		Currency:  currency,
	}
}

type ApprovalActionedEvent struct {
	BaseEvent
	ExpenseID string `json:"expense_id"`
	Action    string `json:"action"`
}

func NewApprovalActionedEvent(actor, expenseID, action string) *ApprovalActionedEvent {
	return &ApprovalActionedEvent{
		BaseEvent: newBase(EventTypeApprovalActioned, actor, map[string]interface{}{
			"expense_id": expenseID,
			"action":     action,
		}),
		ExpenseID: expenseID,
		Action:    action,
	}
}

// NewRecordEvent describes the creation or update of an administrative
// record (rule, employee, company) identified by name.
func NewRecordEvent(eventType, actor, name string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["name"] = name
	return newBase(eventType, actor, data)
}
