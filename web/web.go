// Package web holds the server rendered pages.
package web

import (
	"embed"
	"html/template"
	"strconv"
)

//go:embed templates/*.html
var files embed.FS

// Templates parses every embedded page together with the shared layout
func Templates() (*template.Template, error) {
	funcs := template.FuncMap{
		"pct": func(v float64) string {
			return strconv.FormatFloat(v, 'f', 1, 64) + "%"
		},
		"deref": func(v *float64) float64 {
			if v == nil {
				return 0
			}
			return *v
		},
	}
	return template.New("pages").Funcs(funcs).ParseFS(files, "templates/*.html")
}
