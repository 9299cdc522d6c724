package view

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/frahmantamala/expense-console/internal/core/common/types"
	"github.com/frahmantamala/expense-console/internal/core/user"
)

// Page is the data every full page receives.
type Page struct {
	Title string
	User  *user.Profile
	Body  any
}

var templateFuncs = template.FuncMap{
	"money":       money,
	"date":        formatDate,
	"dateTime":    formatDateTime,
	"statusClass": statusClass,
	"roleClass":   roleClass,
	"roleLabel": func(r user.Role) string {
		return r.Display()
	},
	"initial": func(s string) string {
		for _, r := range s {
			return string(unicode.ToUpper(r))
		}
		return "?"
	},
	"title": func(s string) string {
		s = strings.ReplaceAll(strings.ToLower(s), "_", " ")
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
	"upper": strings.ToUpper,
	"join":  strings.Join,
	"add": func(a, b int) int {
		return a + b
	},
	"percent": func(n *int) string {
		if n == nil {
			return "-"
		}
		return strconv.Itoa(*n) + "%"
	},
	"dict": func(pairs ...any) (map[string]any, error) {
		if len(pairs)%2 != 0 {
			return nil, fmt.Errorf("dict: odd number of arguments")
		}
		m := make(map[string]any, len(pairs)/2)
		for i := 0; i < len(pairs); i += 2 {
			key, ok := pairs[i].(string)
			if !ok {
				return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
			}
			m[key] = pairs[i+1]
		}
		return m, nil
	},
}

func money(amount any, currency string) string {
	var value float64
	switch v := amount.(type) {
	case types.Amount:
		value = v.Float64()
	case *types.Amount:
		if v == nil {
			return "-"
		}
		value = v.Float64()
	case float64:
		value = v
	case int:
		value = float64(v)
	}
	if currency == "" {
		return strconv.FormatFloat(value, 'f', 2, 64)
	}
	return currency + " " + strconv.FormatFloat(value, 'f', 2, 64)
}

func formatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return "-"
		}
		return t.Format("Jan 2, 2006")
	case *time.Time:
		if t == nil || t.IsZero() {
			return "-"
		}
		return t.Format("Jan 2, 2006")
	case string:
		if d, err := time.Parse("2006-01-02", t); err == nil {
			return d.Format("Jan 2, 2006")
		}
		if t == "" {
			return "-"
		}
		return t
	}
	return "-"
}

func formatDateTime(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return "-"
		}
		return t.Format("Jan 2, 2006 15:04")
	case *time.Time:
		if t == nil || t.IsZero() {
			return "-"
		}
		return t.Format("Jan 2, 2006 15:04")
	}
	return formatDate(v)
}

func statusClass(status string) string {
	switch strings.ToLower(status) {
	case "pending", "submitted":
		return "bg-yellow-100 text-yellow-800"
	case "approved":
		return "bg-green-100 text-green-800"
	case "rejected":
		return "bg-red-100 text-red-800"
	case "paid":
		return "bg-blue-100 text-blue-800"
	default:
		return "bg-gray-100 text-gray-800"
	}
}

func roleClass(r user.Role) string {
	switch r {
	case user.RoleSuperUser:
		return "text-purple-700"
	case user.RoleAdmin:
		return "text-red-600"
	case user.RoleManager:
		return "text-amber-600"
	default:
		return "text-gray-600"
	}
}
