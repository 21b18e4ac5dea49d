// Package views parses and executes the storefront's html/template set. Templates are embedded
// in the binary; in dev mode they are re-read from disk on every render.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Rahdeg/alt-commmerce/internal/format"
)

//go:embed templates/*.tmpl
var embedded embed.FS

// Options configures a Renderer.
type Options struct {
	// Dir overrides the embedded templates with a directory on disk.
	Dir string
	// Dev reparses templates on every render.
	Dev bool
}

// Renderer executes named templates into buffered responses.
type Renderer struct {
	fsys fs.FS
	dev  bool

	mu   sync.RWMutex
	tmpl *template.Template
}

// New parses the template set once, failing fast on syntax errors.
func New(opts Options) (*Renderer, error) {
	var fsys fs.FS
	if dir := strings.TrimSpace(opts.Dir); dir != "" {
		fsys = os.DirFS(dir)
	} else {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, fmt.Errorf("views: embedded templates: %w", err)
		}
		fsys = sub
	}
	r := &Renderer{fsys: fsys, dev: opts.Dev}
	t, err := parse(fsys)
	if err != nil {
		return nil, err
	}
	r.tmpl = t
	return r, nil
}

func parse(fsys fs.FS) (*template.Template, error) {
	t, err := template.New("_root").Funcs(Funcs()).ParseFS(fsys, "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("views: parse templates: %w", err)
	}
	return t, nil
}

func (r *Renderer) templates() (*template.Template, error) {
	if r.dev {
		return parse(r.fsys)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tmpl, nil
}

// Execute renders template name into w. Output is buffered so a failing template never
// leaves a half-written response.
func (r *Renderer) Execute(w io.Writer, name string, data any) error {
	t, err := r.templates()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("views: execute %s: %w", name, err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// HTML renders template name as an HTML response with the given status.
func (r *Renderer) HTML(w http.ResponseWriter, status int, name string, data any) error {
	t, err := r.templates()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("views: execute %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

// Has reports whether a template with name is defined.
func (r *Renderer) Has(name string) bool {
	t, err := r.templates()
	if err != nil {
		return false
	}
	return t.Lookup(name) != nil
}

// Funcs is the helper set available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"now":      time.Now,
		"price":    format.Price,
		"money":    func(d decimal.Decimal) string { return format.Money(d, format.DefaultCurrency) },
		"stars":    format.Stars,
		"discount": format.Discount,
		"add":      func(a, b int) int { return a + b },
		"sub":      func(a, b int) int { return a - b },
		"seq": func(n int) []int {
			out := make([]int, n)
			for i := range out {
				out[i] = i
			}
			return out
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
}
