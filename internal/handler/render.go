package handler

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates
var templateFS embed.FS

var pageNames = []string{"login", "catalog"}

// renderer executes the embedded templates. Pages render through the shared
// layout; fragments are the named partials htmx swaps in.
type renderer struct {
	pages     map[string]*template.Template
	fragments *template.Template
}

// currencyGlyph returns the narrow symbol of unit, e.g. "₹" for INR.
func currencyGlyph(unit currency.Unit) string {
	return message.NewPrinter(language.English).Sprint(currency.NarrowSymbol(unit))
}

func newRenderer(unit currency.Unit) (*renderer, error) {
	glyph := currencyGlyph(unit)
	policy := bluemonday.StrictPolicy()

	funcs := template.FuncMap{
		"money": func(d decimal.Decimal) string {
			return glyph + " " + d.String()
		},
		// plain strips any markup from upstream text. The policy output is
		// already entity-escaped.
		"plain": func(s string) template.HTML {
			return template.HTML(policy.Sanitize(s))
		},
	}

	base, err := template.New("").Funcs(funcs).ParseFS(templateFS,
		"templates/layout.tmpl",
		"templates/partials/*.tmpl",
	)
	if err != nil {
		return nil, errors.Wrap(err, "parse layout")
	}

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := base.Clone()
		if err != nil {
			return nil, errors.Wrapf(err, "clone for %s", name)
		}
		if _, err := t.ParseFS(templateFS, "templates/pages/"+name+".tmpl"); err != nil {
			return nil, errors.Wrapf(err, "parse page %s", name)
		}
		pages[name] = t
	}

	return &renderer{pages: pages, fragments: base}, nil
}

func (v *renderer) page(w http.ResponseWriter, status int, name string, data any) error {
	t, ok := v.pages[name]
	if !ok {
		return errors.Errorf("unknown page %q", name)
	}
	return write(w, status, t, "layout", data)
}

func (v *renderer) fragment(w http.ResponseWriter, status int, name string, data any) error {
	return write(w, status, v.fragments, name, data)
}

// write renders into a buffer first so a template error never leaves a
// half-written response.
func write(w http.ResponseWriter, status int, t *template.Template, name string, data any) error {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return errors.Wrapf(err, "execute %s", name)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
