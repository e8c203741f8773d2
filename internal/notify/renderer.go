package notify

import (
	"bytes"
	"html/template"
)

// Field is one label/value pair on a rendered document.
type Field struct {
	Label string
	Value string
}

// Renderer turns structured field/value pairs into a downloadable document.
// Rendering is purely a formatting concern; swap implementations freely.
type Renderer interface {
	Render(title string, fields []Field) ([]byte, error)
}

var certTmpl = template.Must(template.New("certificate").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body style="font-family:Georgia,serif;text-align:center;padding:48px">
<h1>{{.Title}}</h1>
<table style="margin:0 auto;text-align:left">
{{range .Fields}}<tr><td style="padding:4px 12px"><b>{{.Label}}</b></td><td style="padding:4px 12px">{{.Value}}</td></tr>
{{end}}</table>
</body></html>
`))

// HTMLRenderer produces a self-contained HTML document.
type HTMLRenderer struct{}

func (HTMLRenderer) Render(title string, fields []Field) ([]byte, error) {
	var buf bytes.Buffer
	err := certTmpl.Execute(&buf, struct {
		Title  string
		Fields []Field
	}{title, fields})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
