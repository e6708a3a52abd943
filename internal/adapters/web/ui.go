package web

import (
	"embed"
	"fmt"
	"html/template"

	"github.com/mikey/spam-guardian/internal/metrics"
)

const indexTemplate = "index.html"

//go:embed templates/*.html
var templateFS embed.FS

// pageData feeds the index template
type pageData struct {
	Stages    []string
	Dashboard metrics.Dashboard
	ModelName string
}

func loadTemplates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"percent": func(v float64) string { return fmt.Sprintf("%.1f", v*100) },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}
