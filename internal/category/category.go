package category

import (
	"strings"

	"github.com/frahmantamala/expense-console/internal/backend"
)

// Category is an option of the expense category select.
type Category struct {
	ID          string
	Name        string
	Description string
}

func FromBackend(c backend.Category) Category {
	return Category{
		ID:          c.ID.String(),
		Name:        strings.TrimSpace(c.Name),
		Description: c.Description,
	}
}

// Usable reports whether the category can be offered for selection.
func (c Category) Usable() bool {
	return c.ID != "" && c.Name != ""
}
