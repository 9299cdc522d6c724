// Package auth serves the sign-in, sign-up and sign-out flows of the
// console on top of the request session.
package auth

import (
	"net/url"
	"strings"

	"github.com/frahmantamala/expense-console/internal/session"
)

func loginFormFromValues(v url.Values) session.LoginForm {
	return session.LoginForm{
		Username: strings.TrimSpace(v.Get("username")),
		Password: v.Get("password"),
	}
}

func signupFormFromValues(v url.Values) session.SignupForm {
	return session.SignupForm{
		Username:        strings.TrimSpace(v.Get("username")),
		Email:           strings.TrimSpace(v.Get("email")),
		FirstName:       strings.TrimSpace(v.Get("first_name")),
		LastName:        strings.TrimSpace(v.Get("last_name")),
		Password:        v.Get("password"),
		PasswordConfirm: v.Get("password_confirm"),
		CompanyName:     strings.TrimSpace(v.Get("company_name")),
		Phone:           strings.TrimSpace(v.Get("phone")),
		Department:      strings.TrimSpace(v.Get("department")),
	}
}
