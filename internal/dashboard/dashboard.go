// Package dashboard picks and renders the console's home page: the landing
// page for anonymous sessions, otherwise the dashboard of the user's role.
package dashboard

import (
	"context"

	"github.com/frahmantamala/expense-console/internal"
	"github.com/frahmantamala/expense-console/internal/approval"
	"github.com/frahmantamala/expense-console/internal/company"
	"github.com/frahmantamala/expense-console/internal/core/user"
	"github.com/frahmantamala/expense-console/internal/view"
)

var errUnknownRole = internal.NewForbiddenError("Your account has a role this console does not support", internal.ErrCodeUnknownRole)

// Variant is one role dashboard. The set is closed: only this package can
// add one, and each must say how it is built.
type Variant interface {
	Page() string
	Title() string
	build(ctx context.Context, src sources, u *user.Profile, token string) any
}

type sources struct {
	approvals       ApprovalsLoader
	companies       CompaniesLoader
	defaultCurrency string
}

// For returns the dashboard of role.
func For(role user.Role) (Variant, error) {
	switch role {
	case user.RoleEmployee:
		return Employee{}, nil
	case user.RoleManager, user.RoleAdmin:
		return Manager{}, nil
	case user.RoleSuperUser:
		return SuperUser{}, nil
	}
	return nil, errUnknownRole
}

type Employee struct{}

// EmployeeView is the body of the employee dashboard.
type EmployeeView struct {
	CompanyName string
	Currency    string
	Role        string
	Email       string
}

func (Employee) Page() string  { return view.PageEmployee }
func (Employee) Title() string { return "Dashboard" }

func (Employee) build(_ context.Context, src sources, u *user.Profile, _ string) any {
	return EmployeeView{
		CompanyName: u.CompanyName(),
		Currency:    u.Currency(src.defaultCurrency),
		Role:        u.Role.Display(),
		Email:       u.Email,
	}
}

type Manager struct{}

// ManagerView is the body of the manager and admin dashboard. The approvals
// section is loaded before the page renders.
type ManagerView struct {
	Approvals approval.Section
}

func (Manager) Page() string  { return view.PageManager }
func (Manager) Title() string { return "Manager Dashboard" }

func (Manager) build(ctx context.Context, src sources, _ *user.Profile, token string) any {
	return ManagerView{Approvals: src.approvals.LoadSection(ctx, token)}
}

type SuperUser struct{}

type SuperUserView struct {
	CompanyID string
	Companies company.Section
}

func (SuperUser) Page() string  { return view.PageSuperUser }
func (SuperUser) Title() string { return "Super User Dashboard" }

func (SuperUser) build(ctx context.Context, src sources, u *user.Profile, token string) any {
	v := SuperUserView{Companies: src.companies.LoadSection(ctx, token)}
	if u.Company != nil {
		v.CompanyID = u.Company.ID.String()
	}
	return v
}
