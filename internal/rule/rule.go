// Package rule covers the conditional approval rules summary and the
// approval rule manager with its rule creation form.
package rule

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/frahmantamala/expense-console/internal"
	"github.com/frahmantamala/expense-console/internal/backend"
	"github.com/frahmantamala/expense-console/internal/core/common/validation"
)

const (
	TabRules  = "rules"
	TabFlows  = "flows"
	TabCreate = "create"
)

// Tabs of the rule manager in display order.
var Tabs = []Tab{
	{Key: TabRules, Label: "Approval Rules"},
	{Key: TabFlows, Label: "Approval Flows"},
	{Key: TabCreate, Label: "Create Rule"},
}

type Tab struct {
	Key   string
	Label string
}

// NormalizeTab maps unknown tabs to TabRules.
func NormalizeTab(tab string) string {
	switch tab {
	case TabRules, TabFlows, TabCreate:
		return tab
	}
	return TabRules
}

// RuleTypes offered by the creation form.
var RuleTypes = []RuleTypeOption{
	{Value: backend.RuleTypePercentage, Label: "Percentage Rule (e.g., 60% of approvers approve)"},
	{Value: backend.RuleTypeSpecificApprover, Label: "Specific Approver Rule (e.g., CFO approval)"},
	{Value: backend.RuleTypeHybrid, Label: "Hybrid Rule (combine percentage and specific approver)"},
}

type RuleTypeOption struct {
	Value backend.RuleType
	Label string
}

// ManagerData is everything the rule manager renders.
type ManagerData struct {
	Rules []backend.ApprovalRule
	Flows []backend.ApprovalFlow
	Users []backend.Employee
}

func (d *ManagerData) Tabs() []Tab { return Tabs }

func (d *ManagerData) RuleTypes() []RuleTypeOption { return RuleTypes }

func (d *ManagerData) ActiveTab(tab string) string { return NormalizeTab(tab) }

func (d *ManagerData) Describe(r backend.ApprovalRule) string { return Describe(r) }

// Describe returns the one-line explanation shown under a rule.
func Describe(r backend.ApprovalRule) string {
	switch r.RuleType {
	case backend.RuleTypePercentage:
		if r.PercentageThreshold != nil {
			return fmt.Sprintf("Requires %d%% of approvers to approve", *r.PercentageThreshold)
		}
	case backend.RuleTypeSpecificApprover:
		if r.SpecificApprover != nil {
			return fmt.Sprintf("Auto-approves when %s approves", r.SpecificApprover.FullName())
		}
	case backend.RuleTypeHybrid:
		return "Hybrid rule combining percentage and specific approver logic"
	}
	return ""
}

// Form is the rule creation form as posted by the browser.
type Form struct {
	Name               string `form:"name" validate:"required"`
	Description        string `form:"description"`
	RuleType           string `form:"rule_type" validate:"required"`
	Threshold          string `form:"percentage_threshold"`
	SpecificApproverID string `form:"specific_approver_id"`
}

func FormFromValues(v url.Values) Form {
	return Form{
		Name:               strings.TrimSpace(v.Get("name")),
		Description:        strings.TrimSpace(v.Get("description")),
		RuleType:           strings.TrimSpace(v.Get("rule_type")),
		Threshold:          strings.TrimSpace(v.Get("percentage_threshold")),
		SpecificApproverID: strings.TrimSpace(v.Get("specific_approver_id")),
	}
}

// ToRequest validates the form. A percentage rule needs a threshold between
// 1 and 100, a specific approver rule needs an approver and a hybrid rule
// needs at least one of the two. Absent values are sent as null.
func (f Form) ToRequest() (backend.CreateRuleRequest, error) {
	if appErr := validation.Struct(f); appErr != nil {
		return backend.CreateRuleRequest{}, appErr
	}

	ruleType := backend.RuleType(f.RuleType)
	if !ruleType.Valid() {
		return backend.CreateRuleRequest{}, internal.NewValidationFieldError("rule_type",
			"Please select a valid rule type", internal.ErrCodeInvalidRuleType)
	}

	var threshold *int
	if f.Threshold != "" {
		n, err := strconv.Atoi(f.Threshold)
		if err != nil || n < 1 || n > 100 {
			return backend.CreateRuleRequest{}, internal.NewValidationFieldError("percentage_threshold",
				"Percentage threshold must be between 1 and 100", internal.ErrCodeInvalidThreshold)
		}
		threshold = &n
	}

	var approver *string
	if f.SpecificApproverID != "" {
		id := f.SpecificApproverID
		approver = &id
	}

	switch ruleType {
	case backend.RuleTypePercentage:
		if threshold == nil {
			return backend.CreateRuleRequest{}, internal.NewValidationFieldError("percentage_threshold",
				"Percentage threshold is required for percentage rules", internal.ErrCodeInvalidThreshold)
		}
		approver = nil
	case backend.RuleTypeSpecificApprover:
		if approver == nil {
			return backend.CreateRuleRequest{}, internal.NewValidationFieldError("specific_approver_id",
				"Please select an approver", internal.ErrCodeMissingApprover)
		}
		threshold = nil
	case backend.RuleTypeHybrid:
		if threshold == nil && approver == nil {
			return backend.CreateRuleRequest{}, internal.NewValidationFieldError("percentage_threshold",
				"A hybrid rule needs a percentage threshold or a specific approver", internal.ErrCodeMissingApprover)
		}
	}

	return backend.CreateRuleRequest{
		Name:                f.Name,
		Description:         f.Description,
		RuleType:            ruleType,
		PercentageThreshold: threshold,
		SpecificApproverID:  approver,
	}, nil
}
