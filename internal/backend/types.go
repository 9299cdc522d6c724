package backend

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/frahmantamala/expense-console/internal/core/common/types"
	"github.com/frahmantamala/expense-console/internal/core/user"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	CompanyName     string `json:"company_name,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Department      string `json:"department,omitempty"`
}

type AuthResponse struct {
	Token string        `json:"token"`
	User  *user.Profile `json:"user"`
}

type Category struct {
	ID          types.ID `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
}

// ExpenseRequest is the body of POST /expenses/. Amount is a json.Number so
// the submitted decimal is sent as a JSON number without float rounding.
type ExpenseRequest struct {
	Amount       json.Number `json:"amount"`
	Currency     string      `json:"currency"`
	Category     int64       `json:"category"`
	Description  string      `json:"description"`
	ExpenseDate  string      `json:"expense_date"`
	MerchantName string      `json:"merchant_name,omitempty"`
}

type ApprovalRecord struct {
	ID            types.ID   `json:"id"`
	Expense       types.ID   `json:"expense"`
	Approver      types.ID   `json:"approver"`
	ApproverName  string     `json:"approver_name"`
	ApproverEmail string     `json:"approver_email,omitempty"`
	Status        string     `json:"status"`
	Comments      string     `json:"comments"`
	ApprovedAt    *time.Time `json:"approved_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

type Expense struct {
	ID                  types.ID         `json:"id"`
	Amount              types.Amount     `json:"amount"`
	Currency            string           `json:"currency"`
	CategoryName        string           `json:"category_name"`
	Description         string           `json:"description"`
	ExpenseDate         string           `json:"expense_date"`
	Status              string           `json:"status"`
	StatusDisplay       string           `json:"status_display"`
	MerchantName        string           `json:"merchant_name"`
	SubmittedAt         *time.Time       `json:"submitted_at"`
	ApprovedAt          *time.Time       `json:"approved_at"`
	CurrentApproverName string           `json:"current_approver_name"`
	ApprovalHistory     []ApprovalRecord `json:"approval_history"`
	SubmittedByName     string           `json:"submitted_by_name,omitempty"`
}

type StatusGroup struct {
	Count       int          `json:"count"`
	TotalAmount types.Amount `json:"total_amount"`
	Expenses    []Expense    `json:"expenses"`
}

type HistorySummary struct {
	TotalExpenses int          `json:"total_expenses"`
	TotalAmount   types.Amount `json:"total_amount"`
	PendingCount  int          `json:"pending_count"`
	ApprovedCount int          `json:"approved_count"`
	RejectedCount int          `json:"rejected_count"`
}

type ExpenseHistory struct {
	Draft    StatusGroup    `json:"draft"`
	Pending  StatusGroup    `json:"pending"`
	Approved StatusGroup    `json:"approved"`
	Rejected StatusGroup    `json:"rejected"`
	Paid     StatusGroup    `json:"paid"`
	Summary  HistorySummary `json:"summary"`
}

// HistoryStatuses lists the status groups in display order.
var HistoryStatuses = []string{"draft", "pending", "approved", "rejected", "paid"}

// Group returns the group for status, or nil for an unknown status.
func (h *ExpenseHistory) Group(status string) *StatusGroup {
	switch status {
	case "draft":
		return &h.Draft
	case "pending":
		return &h.Pending
	case "approved":
		return &h.Approved
	case "rejected":
		return &h.Rejected
	case "paid":
		return &h.Paid
	}
	return nil
}

// All returns every expense across groups in status order.
func (h *ExpenseHistory) All() []Expense {
	var all []Expense
	for _, status := range HistoryStatuses {
		all = append(all, h.Group(status).Expenses...)
	}
	return all
}

type CategoryRef struct {
	ID   types.ID `json:"id"`
	Name string   `json:"name"`
}

// UnmarshalJSON accepts the nested object or a bare foreign key.
func (c *CategoryRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '{' {
		type plain CategoryRef
		var p plain
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*c = CategoryRef(p)
		return nil
	}
	var id types.ID
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	*c = CategoryRef{ID: id}
	return nil
}

// PendingExpense is an expense awaiting the current user's decision. The API
// sends category and submitter either nested or as keys with *_name fields.
type PendingExpense struct {
	ID          types.ID     `json:"id"`
	Amount      types.Amount `json:"amount"`
	Currency    string       `json:"currency"`
	Category    CategoryRef  `json:"category"`
	Description string       `json:"description"`
	ExpenseDate string       `json:"expense_date"`
	SubmittedBy user.Ref     `json:"submitted_by"`
	Status      string       `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (e *PendingExpense) UnmarshalJSON(data []byte) error {
	type plain PendingExpense
	var aux struct {
		plain
		CategoryName    string `json:"category_name"`
		SubmittedByName string `json:"submitted_by_name"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = PendingExpense(aux.plain)
	if e.Category.Name == "" {
		e.Category.Name = aux.CategoryName
	}
	e.SubmittedBy.Named(aux.SubmittedByName)
	return nil
}

type ApprovalStatistics struct {
	PendingCount   int `json:"pending_count"`
	ApprovedCount  int `json:"approved_count"`
	RejectedCount  int `json:"rejected_count"`
	TotalProcessed int `json:"total_processed"`
}

type ApprovalAction string

const (
	ActionApprove ApprovalAction = "approve"
	ActionReject  ApprovalAction = "reject"
)

func (a ApprovalAction) Valid() bool {
	return a == ActionApprove || a == ActionReject
}

// ActionRequest always carries comments, empty when none were given.
type ActionRequest struct {
	Action   ApprovalAction `json:"action"`
	Comments string         `json:"comments"`
}

type RuleTier struct {
	Amount      types.Amount `json:"amount"`
	Approver    string       `json:"approver"`
	Description string       `json:"description"`
}

type RuleTiers struct {
	AutoApprove       RuleTier `json:"auto_approve"`
	DepartmentManager RuleTier `json:"department_manager"`
	FinanceHead       RuleTier `json:"finance_head"`
	ManagingDirector  RuleTier `json:"managing_director"`
}

type RulesSummary struct {
	Rules                RuleTiers          `json:"rules"`
	EscalationCategories []string           `json:"escalation_categories"`
	RequiredDocuments    []string           `json:"required_documents"`
	CurrencyRates        map[string]float64 `json:"currency_rates"`
}

type ConditionalRulesResponse struct {
	Success      bool         `json:"success"`
	RulesSummary RulesSummary `json:"rules_summary"`
	Error        string       `json:"error,omitempty"`
}

type RuleType string

const (
	RuleTypePercentage       RuleType = "PERCENTAGE"
	RuleTypeSpecificApprover RuleType = "SPECIFIC_APPROVER"
	RuleTypeHybrid           RuleType = "HYBRID"
)

func (t RuleType) Valid() bool {
	switch t {
	case RuleTypePercentage, RuleTypeSpecificApprover, RuleTypeHybrid:
		return true
	}
	return false
}

type ApprovalRule struct {
	ID                  types.ID      `json:"id"`
	Name                string        `json:"name"`
	Description         string        `json:"description"`
	RuleType            RuleType      `json:"rule_type"`
	PercentageThreshold *int          `json:"percentage_threshold"`
	SpecificApprover    *user.Ref     `json:"specific_approver"`
	MinAmount           *types.Amount `json:"min_amount"`
	MaxAmount           *types.Amount `json:"max_amount"`
	IsActive            bool          `json:"is_active"`
}

type FlowStep struct {
	ID          types.ID `json:"id"`
	StepNumber  int      `json:"step_number"`
	Approver    user.Ref `json:"approver"`
	IsRequired  bool     `json:"is_required"`
	CanEscalate bool     `json:"can_escalate"`
}

type ApprovalFlow struct {
	ID          types.ID       `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	IsActive    bool           `json:"is_active"`
	Steps       []FlowStep     `json:"steps"`
	Rules       []ApprovalRule `json:"rules"`
}

// CreateRuleRequest sends null for the unused rule parameters.
type CreateRuleRequest struct {
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	RuleType            RuleType `json:"rule_type"`
	PercentageThreshold *int     `json:"percentage_threshold"`
	SpecificApproverID  *string  `json:"specific_approver_id"`
}

type Employee struct {
	ID                types.ID   `json:"id"`
	Username          string     `json:"username"`
	Email             string     `json:"email"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	Role              user.Role  `json:"role"`
	Phone             string     `json:"phone"`
	Department        string     `json:"department"`
	EmployeeID        string     `json:"employee_id"`
	IsManagerApprover bool       `json:"is_manager_approver"`
	IsActive          bool       `json:"is_active"`
	Manager           *user.Ref  `json:"manager"`
	CreatedAt         *time.Time `json:"created_at"`
}

func (e *Employee) UnmarshalJSON(data []byte) error {
	type plain Employee
	var aux struct {
		plain
		ManagerName string `json:"manager_name"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = Employee(aux.plain)
	if e.Manager != nil {
		e.Manager.Named(aux.ManagerName)
	}
	return nil
}

func (e Employee) FullName() string {
	return user.Ref{FirstName: e.FirstName, LastName: e.LastName, Email: e.Username}.FullName()
}

type CreateEmployeeRequest struct {
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	Password          string    `json:"password"`
	Role              user.Role `json:"role"`
	Phone             string    `json:"phone,omitempty"`
	Department        string    `json:"department,omitempty"`
	EmployeeID        string    `json:"employee_id,omitempty"`
	ManagerID         *string   `json:"manager_id,omitempty"`
	IsManagerApprover bool      `json:"is_manager_approver"`
}

type UpdateEmployeeRequest struct {
	IsActive *bool `json:"is_active,omitempty"`
}

type Company struct {
	ID             types.ID   `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Currency       string     `json:"currency"`
	Country        string     `json:"country"`
	AdminUser      types.ID   `json:"admin_user"`
	AdminUserName  string     `json:"admin_user_name,omitempty"`
	AdminUserEmail string     `json:"admin_user_email,omitempty"`
	CreatedAt      *time.Time `json:"created_at"`
	UserCount      int        `json:"user_count"`
}

// CreateCompanyRequest provisions a company together with its first admin.
type CreateCompanyRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Currency       string `json:"currency"`
	Country        string `json:"country"`
	AdminUsername  string `json:"admin_username"`
	AdminEmail     string `json:"admin_email"`
	AdminFirstName string `json:"admin_first_name"`
	AdminLastName  string `json:"admin_last_name"`
	AdminPassword  string `json:"admin_password"`
}
