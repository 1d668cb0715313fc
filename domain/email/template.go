package email

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/aymerick/raymond"

	"github.com/Yukasama/haus/pkg/logger"
)

// TemplateHausCreated notifies about a new house. It expects "plz" in the context.
const TemplateHausCreated = "haus_created"

// DefaultLayout wraps every HTML body
const DefaultLayout = "default"

//go:embed templates
var templatesFS embed.FS

// TemplateContext is the data passed to templates
type TemplateContext map[string]any

// TemplateRenderResult contains the rendered email content
type TemplateRenderResult struct {
	HTML string
	Text string
}

// TemplateService renders the embedded Handlebars templates.
//
//	templates/<name>.hbs          HTML body
//	templates/<name>.txt.hbs      optional plain text body
//	templates/layouts/<name>.hbs  layout, receives the body as {{{content}}}
type TemplateService struct {
	log       *slog.Logger
	templates map[string]*raymond.Template
	layouts   map[string]*raymond.Template
}

// NewTemplateService parses the embedded templates
func NewTemplateService(log *slog.Logger) (*TemplateService, error) {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, err
	}
	return newTemplateService(sub, log)
}

func newTemplateService(fsys fs.FS, log *slog.Logger) (*TemplateService, error) {
	ts := &TemplateService{
		log:       log.With(logger.Scope("email.template")),
		templates: make(map[string]*raymond.Template),
		layouts:   make(map[string]*raymond.Template),
	}

	if err := ts.load(fsys, ".", ts.templates); err != nil {
		return nil, err
	}
	if err := ts.load(fsys, "layouts", ts.layouts); err != nil {
		return nil, err
	}

	ts.log.Debug("loaded email templates",
		slog.Int("templates", len(ts.templates)),
		slog.Int("layouts", len(ts.layouts)))
	return ts, nil
}

func (ts *TemplateService) load(fsys fs.FS, dir string, into map[string]*raymond.Template) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		if dir != "." {
			return nil
		}
		return fmt.Errorf("read templates: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".hbs") {
			continue
		}
		content, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read template %s: %w", entry.Name(), err)
		}
		tmpl, err := raymond.Parse(string(content))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", entry.Name(), err)
		}
		into[strings.TrimSuffix(entry.Name(), ".hbs")] = tmpl
	}
	return nil
}

// HasTemplate reports whether an HTML template called name exists
func (ts *TemplateService) HasTemplate(name string) bool {
	_, ok := ts.templates[name]
	return ok
}

// Render renders the template name and wraps it in layoutName when that layout exists
func (ts *TemplateService) Render(name string, data TemplateContext, layoutName string) (*TemplateRenderResult, error) {
	tmpl, ok := ts.templates[name]
	if !ok {
		return nil, fmt.Errorf("template not found: %s", name)
	}

	html, err := tmpl.Exec(data)
	if err != nil {
		return nil, fmt.Errorf("failed to render template %s: %w", name, err)
	}

	if layout, ok := ts.layouts[layoutName]; ok {
		layoutCtx := make(TemplateContext, len(data)+1)
		for k, v := range data {
			layoutCtx[k] = v
		}
		layoutCtx["content"] = raymond.SafeString(html)

		html, err = layout.Exec(layoutCtx)
		if err != nil {
			return nil, fmt.Errorf("failed to render layout %s: %w", layoutName, err)
		}
	} else if layoutName != "" {
		ts.log.Debug("layout not found, using template directly", slog.String("layout", layoutName))
	}

	text := ""
	if txt, ok := ts.templates[name+".txt"]; ok {
		if text, err = txt.Exec(data); err != nil {
			return nil, fmt.Errorf("failed to render text template %s: %w", name, err)
		}
	}

	return &TemplateRenderResult{
		HTML: html,
		Text: strings.TrimSpace(text),
	}, nil
}
