// Package company is the super user's view of tenant companies: the list
// and the form that provisions a company together with its first admin.
package company

import (
	"net/url"
	"strings"

	"github.com/frahmantamala/expense-console/internal"
	"github.com/frahmantamala/expense-console/internal/backend"
	"github.com/frahmantamala/expense-console/internal/core/common/validation"
)

// Currencies offered by the creation form.
var Currencies = []string{"USD", "INR", "EUR", "GBP"}

type Form struct {
	Name           string `form:"name" validate:"required"`
	Description    string `form:"description"`
	Currency       string `form:"currency" validate:"required"`
	Country        string `form:"country" validate:"required"`
	AdminUsername  string `form:"admin_username" validate:"required"`
	AdminEmail     string `form:"admin_email" validate:"required,email"`
	AdminFirstName string `form:"admin_first_name" validate:"required"`
	AdminLastName  string `form:"admin_last_name" validate:"required"`
	AdminPassword  string `form:"admin_password" validate:"required"`
}

func FormFromValues(v url.Values) Form {
	return Form{
		Name:           strings.TrimSpace(v.Get("name")),
		Description:    strings.TrimSpace(v.Get("description")),
		Currency:       strings.ToUpper(strings.TrimSpace(v.Get("currency"))),
		Country:        strings.TrimSpace(v.Get("country")),
		AdminUsername:  strings.TrimSpace(v.Get("admin_username")),
		AdminEmail:     strings.TrimSpace(v.Get("admin_email")),
		AdminFirstName: strings.TrimSpace(v.Get("admin_first_name")),
		AdminLastName:  strings.TrimSpace(v.Get("admin_last_name")),
		AdminPassword:  v.Get("admin_password"),
	}
}

func (f Form) ToRequest() (backend.CreateCompanyRequest, error) {
	if appErr := validation.Struct(f); appErr != nil {
		return backend.CreateCompanyRequest{}, appErr
	}

	known := false
	for _, c := range Currencies {
		if c == f.Currency {
			known = true
			break
		}
	}
	if !known {
		return backend.CreateCompanyRequest{}, internal.NewValidationFieldError("currency",
			"Please select a supported currency", internal.ErrCodeValidationFailed)
	}

	return backend.CreateCompanyRequest{
		Name:           f.Name,
		Description:    f.Description,
		Currency:       f.Currency,
		Country:        f.Country,
		AdminUsername:  f.AdminUsername,
		AdminEmail:     f.AdminEmail,
		AdminFirstName: f.AdminFirstName,
		AdminLastName:  f.AdminLastName,
		AdminPassword:  f.AdminPassword,
	}, nil
}
