package handlers

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutTemplate = "templates/layout.html"

// Renderer turns a template name and named values into HTML.
type Renderer interface {
	Render(w io.Writer, name string, data map[string]any) error
}

// TemplateRenderer renders the embedded page templates inside the shared layout.
type TemplateRenderer struct {
	pages map[string]*template.Template
}

// NewTemplateRenderer parses every page template once.
func NewTemplateRenderer() (*TemplateRenderer, error) {
	funcs := template.FuncMap{
		"title":    title,
		"imageURL": imageURL,
	}

	entries, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(entries))
	for _, entry := range entries {
		if entry == layoutTemplate {
			continue
		}
		tmpl, err := template.New(path.Base(layoutTemplate)).Funcs(funcs).ParseFS(templateFS, layoutTemplate, entry)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry, err)
		}
		pages[strings.TrimSuffix(path.Base(entry), ".html")] = tmpl
	}
	return &TemplateRenderer{pages: pages}, nil
}

func (t *TemplateRenderer) Render(w io.Writer, name string, data map[string]any) error {
	tmpl, ok := t.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return tmpl.ExecuteTemplate(w, "layout", data)
}

// imageURL maps a stored image value to a browser path.
// Object keys are served from /images; absolute paths and URLs pass through.
func imageURL(image string) string {
	switch {
	case image == "":
		return ""
	case strings.HasPrefix(image, "/"), strings.HasPrefix(image, "http://"), strings.HasPrefix(image, "https://"):
		return image
	default:
		return "/images/" + image
	}
}
