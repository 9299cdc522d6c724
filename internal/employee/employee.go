// Package employee manages the company's users: listing, adding and
// activating or deactivating them.
package employee

import (
	"net/url"
	"strings"

	"github.com/frahmantamala/expense-console/internal"
	"github.com/frahmantamala/expense-console/internal/backend"
	"github.com/frahmantamala/expense-console/internal/core/common/validation"
	"github.com/frahmantamala/expense-console/internal/core/user"
)

// Roles that can be given to a new employee.
var Roles = []user.Role{user.RoleEmployee, user.RoleManager}

// Data is the employee list with the users that can act as managers.
type Data struct {
	Employees []backend.Employee
	Managers  []backend.Employee
}

func NewData(employees []backend.Employee) *Data {
	data := &Data{Employees: employees}
	for _, e := range employees {
		if e.Role == user.RoleManager || e.Role == user.RoleAdmin {
			data.Managers = append(data.Managers, e)
		}
	}
	return data
}

func (d *Data) Find(id string) (backend.Employee, bool) {
	for _, e := range d.Employees {
		if e.ID.String() == id {
			return e, true
		}
	}
	return backend.Employee{}, false
}

// Form is the add employee form as posted by the browser.
type Form struct {
	Username          string `form:"username" validate:"required"`
	Email             string `form:"email" validate:"required,email"`
	FirstName         string `form:"first_name" validate:"required"`
	LastName          string `form:"last_name" validate:"required"`
	Password          string `form:"password" validate:"required"`
	Role              string `form:"role" validate:"required"`
	Phone             string `form:"phone"`
	Department        string `form:"department"`
	EmployeeID        string `form:"employee_id"`
	ManagerID         string `form:"manager_id"`
	IsManagerApprover bool   `form:"is_manager_approver"`
}

func FormFromValues(v url.Values) Form {
	return Form{
		Username:          strings.TrimSpace(v.Get("username")),
		Email:             strings.TrimSpace(v.Get("email")),
		FirstName:         strings.TrimSpace(v.Get("first_name")),
		LastName:          strings.TrimSpace(v.Get("last_name")),
		Password:          v.Get("password"),
		Role:              strings.TrimSpace(v.Get("role")),
		Phone:             strings.TrimSpace(v.Get("phone")),
		Department:        strings.TrimSpace(v.Get("department")),
		EmployeeID:        strings.TrimSpace(v.Get("employee_id")),
		ManagerID:         strings.TrimSpace(v.Get("manager_id")),
		IsManagerApprover: v.Get("is_manager_approver") != "",
	}
}

// ToRequest validates the form on behalf of actor. A manager can only add
// employees reporting to themselves.
func (f Form) ToRequest(actor *user.Profile) (backend.CreateEmployeeRequest, error) {
	if appErr := validation.Struct(f); appErr != nil {
		return backend.CreateEmployeeRequest{}, appErr
	}

	role := user.Role(f.Role)
	if role != user.RoleEmployee && role != user.RoleManager {
		return backend.CreateEmployeeRequest{}, internal.NewValidationFieldError("role",
			"Role must be Employee or Manager", internal.ErrCodeValidationFailed)
	}

	var managerID *string
	if f.ManagerID != "" {
		id := f.ManagerID
		managerID = &id
	}
	if actor != nil && actor.Role == user.RoleManager {
		id := actor.ID.String()
		managerID = &id
	}

	return backend.CreateEmployeeRequest{
		Username:          f.Username,
		Email:             f.Email,
		FirstName:         f.FirstName,
		LastName:          f.LastName,
		Password:          f.Password,
		Role:              role,
		Phone:             f.Phone,
		Department:        f.Department,
		EmployeeID:        f.EmployeeID,
		ManagerID:         managerID,
		IsManagerApprover: f.IsManagerApprover,
	}, nil
}

// ToggleMessage is the toast shown after the status of e was flipped.
func ToggleMessage(e backend.Employee) string {
	if e.IsActive {
		return "Employee deactivated successfully!"
	}
	return "Employee activated successfully!"
}

// Roles offered by the add employee form.
func (d *Data) Roles() []user.Role { return Roles }
