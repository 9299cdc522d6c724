// Package view renders the console's HTML. Full pages share one layout;
// fragments (modals and partials) are rendered on their own for htmx swaps.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
)

//go:embed templates
var files embed.FS

const (
	PageLanding   = "landing"
	PageEmployee  = "employee"
	PageManager   = "manager"
	PageSuperUser = "superuser"
	PageError     = "error"
)

type Renderer struct {
	pages     map[string]*template.Template
	fragments *template.Template
}

// New parses every embedded template. Layout, partials and modals form the
// shared set; each page is parsed into its own clone of it.
func New() (*Renderer, error) {
	shared, err := template.New("root").Funcs(templateFuncs).ParseFS(files,
		"templates/layout.html",
		"templates/partials/*.html",
		"templates/modals/*.html",
	)
	if err != nil {
		return nil, fmt.Errorf("parse shared templates: %w", err)
	}

	pageFiles, err := fs.Glob(files, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, file := range pageFiles {
		name := strings.TrimSuffix(path.Base(file), ".html")
		clone, err := shared.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone templates for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(files, file); err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		pages[name] = clone
	}

	return &Renderer{pages: pages, fragments: shared}, nil
}

// MustNew is New for program start-up.
func MustNew() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Page renders a full document.
func (r *Renderer) Page(w io.Writer, name string, data any) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("page not found: %s", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// Fragment renders a named template without the layout.
func (r *Renderer) Fragment(w io.Writer, name string, data any) error {
	if r.fragments.Lookup(name) == nil {
		return fmt.Errorf("fragment not found: %s", name)
	}
	return r.fragments.ExecuteTemplate(w, name, data)
}

func (r *Renderer) HasFragment(name string) bool {
	return r.fragments.Lookup(name) != nil
}
