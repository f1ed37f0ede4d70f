package dashboard

import (
	"embed"
	"fmt"
	"io/fs"

	template "github.com/goliatone/go-template"
)

const templateExt = ".html"

//go:embed templates/*.html
var embeddedTemplates embed.FS

// NewTemplateRenderer returns a go-template renderer over the embedded pages.
// It fails early when the default page is missing from the build.
func NewTemplateRenderer() (Renderer, error) {
	if _, err := fs.Stat(embeddedTemplates, "templates/"+DefaultTemplate+templateExt); err != nil {
		return nil, fmt.Errorf("dashboard: template %s: %w", DefaultTemplate, err)
	}
	return template.NewRenderer(
		template.WithFS(embeddedTemplates),
		template.WithBaseDir("templates"),
		template.WithExtension(templateExt),
	)
}
