// Package view renders the server-side HTML pages. Each page template
// defines a "content" block slotted into the shared layout. Templates are
// embedded so the binary ships self-contained.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer implements echo.Renderer over the embedded templates.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	// score renders a nullable average: "insufficient data" is distinct
	// from a genuine 0.0.
	"score": func(v *float64) string {
		if v == nil {
			return "—"
		}
		return fmt.Sprintf("%.1f", *v)
	},
	"money": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
}

// New parses every page template against the shared layout. It panics on a
// malformed template since that is a build defect, not a runtime condition.
func New() *Renderer {
	entries, err := fs.ReadDir(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	pages := make(map[string]*template.Template)
	for _, e := range entries {
		name := e.Name()
		if name == "layout.html" {
			continue
		}
		t := template.Must(template.New("layout.html").Funcs(funcs).
			ParseFS(templateFS, "templates/layout.html", path.Join("templates", name)))
		pages[strings.TrimSuffix(name, ".html")] = t
	}
	return &Renderer{pages: pages}
}

// Render writes the named page. Unknown names are a programming error.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("view: unknown template %q", name)
	}
	return t.ExecuteTemplate(w, "layout.html", data)
}
