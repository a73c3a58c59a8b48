package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
)

const layoutFile = "pages/layout.html"

// Renderer executes page templates inside the shared layout
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page in fsys together with the layout
func NewRenderer(fsys fs.FS) (*Renderer, error) {
	files, err := fs.Glob(fsys, "pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, file := range files {
		if file == layoutFile {
			continue
		}

		t, err := template.New("layout").ParseFS(fsys, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", file, err)
		}

		name := strings.TrimSuffix(strings.TrimPrefix(file, "pages/"), ".html")
		r.pages[name] = t
	}

	return r, nil
}

// Render writes page name with the given status. The page is rendered into a
// buffer first so a template error never produces a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("execute template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
