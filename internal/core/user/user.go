package user

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/frahmantamala/expense-console/internal/core/common/types"
)

type Role string

const (
	RoleEmployee  Role = "EMPLOYEE"
	RoleManager   Role = "MANAGER"
	RoleAdmin     Role = "ADMIN"
	RoleSuperUser Role = "SUPER_USER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleAdmin, RoleSuperUser:
		return true
	}
	return false
}

// Display is the human readable role name.
func (r Role) Display() string {
	switch r {
	case RoleEmployee:
		return "Employee"
	case RoleManager:
		return "Manager"
	case RoleAdmin:
		return "Admin"
	case RoleSuperUser:
		return "Super User"
	}
	return string(r)
}

type Company struct {
	ID       types.ID `json:"id"`
	Name     string   `json:"name"`
	Currency string   `json:"currency,omitempty"`
}

type Ref struct {
	ID        types.ID `json:"id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email,omitempty"`
}

func (r Ref) FullName() string {
	return fullName(r.FirstName, r.LastName, r.Email)
}

// UnmarshalJSON accepts the nested object or a bare foreign key.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '{' {
		type plain Ref
		var p plain
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*r = Ref(p)
		return nil
	}
	var id types.ID
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	*r = Ref{ID: id}
	return nil
}

// Named fills in a display name sent next to a bare foreign key.
func (r *Ref) Named(name string) {
	if r.FirstName == "" && r.LastName == "" && name != "" {
		r.FirstName = name
	}
}

// Profile is the authenticated user as returned by the remote API. The
// canonical company shape is nested; a flat company_name is folded in on
// decode.
type Profile struct {
	ID                types.ID `json:"id"`
	Username          string   `json:"username"`
	Email             string   `json:"email"`
	FirstName         string   `json:"first_name"`
	LastName          string   `json:"last_name"`
	Role              Role     `json:"role"`
	Company           *Company `json:"company,omitempty"`
	IsActive          bool     `json:"is_active"`
	Manager           *Ref     `json:"manager,omitempty"`
	Phone             string   `json:"phone,omitempty"`
	Department        string   `json:"department,omitempty"`
	EmployeeID        string   `json:"employee_id,omitempty"`
	IsManagerApprover bool     `json:"is_manager_approver"`
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	type plain Profile
	var aux struct {
		plain
		Company         json.RawMessage `json:"company"`
		CompanyName     string          `json:"company_name"`
		CompanyCurrency string          `json:"company_currency"`
		Manager         json.RawMessage `json:"manager"`
		ManagerName     string          `json:"manager_name"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = Profile(aux.plain)

	company, err := decodeCompany(aux.Company)
	if err != nil {
		return err
	}
	if company == nil && aux.CompanyName != "" {
		company = &Company{}
	}
	if company != nil {
		if company.Name == "" {
			company.Name = aux.CompanyName
		}
		if company.Currency == "" {
			company.Currency = aux.CompanyCurrency
		}
	}
	p.Company = company

	manager, err := decodeRef(aux.Manager)
	if err != nil {
		return err
	}
	if manager != nil {
		manager.Named(aux.ManagerName)
	}
	p.Manager = manager
	return nil
}

func (p *Profile) FullName() string {
	return fullName(p.FirstName, p.LastName, p.Username)
}

func (p *Profile) CompanyName() string {
	if p.Company == nil {
		return ""
	}
	return p.Company.Name
}

// Currency returns the company currency or fallback when it is unknown.
func (p *Profile) Currency(fallback string) string {
	if p.Company != nil && p.Company.Currency != "" {
		return p.Company.Currency
	}
	return fallback
}

func (p *Profile) IsManagerial() bool {
	return p.Role == RoleManager || p.Role == RoleAdmin
}

func decodeCompany(raw json.RawMessage) (*Company, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '{' {
		var c Company
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("company: %w", err)
		}
		return &c, nil
	}
	var id types.ID
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, fmt.Errorf("company: %w", err)
	}
	return &Company{ID: id}, nil
}

func decodeRef(raw json.RawMessage) (*Ref, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var r Ref
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("manager: %w", err)
	}
	return &r, nil
}

func fullName(first, last, fallback string) string {
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	}
	return fallback
}
