package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"

	"github.com/dukerupert/portfolio/internal/middleware"
)

// Renderer manages template parsing and rendering with isolated template sets
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses layout.html and every page template in fsys.
// Each page gets its own clone of the layout so "content" blocks don't collide.
func NewRenderer(fsys fs.FS) (*Renderer, error) {
	templates := make(map[string]*template.Template)

	// Parse layout once as base template
	baseTmpl, err := template.New("base").Funcs(TemplateFuncs()).ParseFS(fsys, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	pages, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to glob templates: %w", err)
	}

	for _, page := range pages {
		// Skip layout itself
		if page == "layout.html" {
			continue
		}

		// Clone the base template
		pageTmpl, err := baseTmpl.Clone()
		if err != nil {
			return nil, fmt.Errorf("failed to clone template for %s: %w", page, err)
		}

		// Parse page-specific content into the clone
		pageTmpl, err = pageTmpl.ParseFS(fsys, page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse page %s: %w", page, err)
		}

		// Store with base name as key (without extension)
		pageName := page[:len(page)-len(path.Ext(page))]
		templates[pageName] = pageTmpl
	}

	return &Renderer{
		templates: templates,
	}, nil
}

// Execute returns the template set for a page
func (r *Renderer) Execute(name string) (*template.Template, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}
	return tmpl, nil
}

// Render is a convenience method that executes a page and writes to an io.Writer
func (r *Renderer) Render(w io.Writer, name string, data interface{}) error {
	tmpl, err := r.Execute(name)
	if err != nil {
		return err
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

// RenderHTTP renders a page with status 200
func (r *Renderer) RenderHTTP(w http.ResponseWriter, req *http.Request, name string, data interface{}) {
	r.RenderStatus(w, req, http.StatusOK, name, data)
}

// RenderStatus renders a page with the given status. The page is rendered to
// a buffer first so a template error never produces a half-written response.
func (r *Renderer) RenderStatus(w http.ResponseWriter, req *http.Request, status int, name string, data interface{}) {
	logger := middleware.GetLogger(req.Context())

	var buf bytes.Buffer
	if err := r.Render(&buf, name, data); err != nil {
		logger.Error("render error", "template", name, "error", err)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
