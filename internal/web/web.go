// Package web holds the embedded HTML templates for the chat app and the
// widget tour.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"strings"

	"feedbackbot/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"ratingLabel": func(r model.Rating) string { return r.Label() },
	"ratings":     func() []model.Rating { return model.Ratings },
	"seconds":     func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"add":         func(a, b int) int { return a + b },
	"sub":         func(a, b int) int { return a - b },
	"fmtFloat":    func(v float64) string { return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".") },
	// dataURL marks a data URI produced by the server as safe for src attributes.
	"dataURL": func(s string) template.URL {
		if !strings.HasPrefix(s, "data:image/png;base64,") {
			return ""
		}
		return template.URL(s)
	},
}

// Templates parses every embedded page template.
func Templates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates failed: %w", err)
	}
	return tmpl, nil
}
