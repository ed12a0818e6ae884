// Package report renders textual summaries of songs using text/template and
// the sprig function library.
package report

import (
	"embed"
	"fmt"
	"io"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/QEStudios/opennbs/codec"
	"github.com/QEStudios/opennbs/nbs"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Data is what the templates are executed with.
type Data struct {
	Path     string // File the song was read from, may be empty.
	Song     nbs.Song
	Size     int // Encoded size in bytes, 0 if unknown.
	Warnings []codec.Warning
}

type Report struct {
	Template *template.Template
}

// funcs adds song specific helpers to sprig's function map.
func funcs() template.FuncMap {
	m := sprig.TxtFuncMap()
	m["tps"] = func(tempo int) string {
		return fmt.Sprintf("%.2f", float64(tempo)/100)
	}
	return m
}

// New returns a report using the built-in "summary" and "layers" templates.
func New() (*Report, error) {
	tmpl, err := template.New("base").Funcs(funcs()).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf(`could not create templates: %v`, err)
	}
	return &Report{Template: tmpl}, nil
}

// NewFromText returns a report whose "custom" template is text, for example
// `{{ .Song.Header.Name | upper }}`. The built-in templates stay available.
func NewFromText(text string) (*Report, error) {
	r, err := New()
	if err != nil {
		return nil, err
	}
	if _, err := r.Template.New("custom").Parse(text); err != nil {
		return nil, fmt.Errorf(`could not parse template %q: %v`, text, err)
	}
	return r, nil
}

// Execute renders the named template for data.
func (r *Report) Execute(w io.Writer, name string, data Data) error {
	if r.Template.Lookup(name) == nil {
		return fmt.Errorf("no template named %q", name)
	}
	if err := r.Template.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("template %v failed to execute: %v", name, err)
	}
	return nil
}
