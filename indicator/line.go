package indicator

import (
	"bytes"
	"fmt"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
)

// DefaultLine is used when configured template cannot be parsed.
const DefaultLine = `{{ .Page }}{{ if .Ready }} / {{ .Total }}{{ end }}`

// Values are available to indicator line template.
type Values struct {
	Ready        bool
	Page         int
	Total        int
	Chapter      string
	PagesLeft    int
	HasPagesLeft bool
	Stuck        bool
}

// Line renders status line shown with page indicators.
type Line struct {
	tmpl *template.Template
}

func NewLine(name, text string) (*Line, error) {
	tmpl, err := template.New(name).Funcs(sprig.FuncMap()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("unable to parse template field %s: %w", name, err)
	}
	return &Line{tmpl: tmpl}, nil
}

func (l *Line) Render(v Values) (string, error) {
	buf := new(bytes.Buffer)
	if err := l.tmpl.Execute(buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}
