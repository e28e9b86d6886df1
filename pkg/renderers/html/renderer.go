package html

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/hashicorp/go-hclog"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formtree/pkg/engine"
	"github.com/goliatone/go-formtree/pkg/resolution"
	"github.com/goliatone/go-formtree/pkg/widgets"
)

const (
	formTemplate  = "form.tmpl"
	levelTemplate = "level.tmpl"
	fieldTemplate = "field.tmpl"
)

// bundledWidgets have a template in the built-in bundle.
var bundledWidgets = []string{
	widgets.WidgetText,
	widgets.WidgetTextarea,
	widgets.WidgetNumber,
	widgets.WidgetToggle,
	widgets.WidgetSelect,
	widgets.WidgetChips,
	widgets.WidgetDate,
	widgets.WidgetJSONEditor,
}

// Renderer turns resolved trees into HTML forms with pongo2 templates. Widget
// names are looked up in a registry of template paths holding the bundled
// widgets, every widgets/<name>.tmpl found in user bundles and any WithWidget
// mapping. Unknown widgets render with the text template unless
// WithStrictWidgets is set.
type Renderer struct {
	set          *pongo2.TemplateSet
	widgets      *widgets.Registry[string]
	strict       bool
	classes      Classes
	labelPolicy  *bluemonday.Policy
	markupPolicy *bluemonday.Policy
	logger       hclog.Logger
}

// New constructs a renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		classes:      DefaultClasses(),
		labelPolicy:  bluemonday.StrictPolicy(),
		markupPolicy: bluemonday.UGCPolicy(),
		logger:       hclog.NewNullLogger(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	sources := make([]fs.FS, 0, len(cfg.templates)+1)
	for i := len(cfg.templates) - 1; i >= 0; i-- {
		sources = append(sources, cfg.templates[i])
	}
	sources = append(sources, TemplatesFS())

	loaders := make([]pongo2.TemplateLoader, 0, len(sources))
	for _, src := range sources {
		loaders = append(loaders, pongo2.NewFSLoader(src))
	}

	registry, err := widgetRegistry(cfg, sources)
	if err != nil {
		return nil, err
	}

	r := &Renderer{
		set:          pongo2.NewSet("formtree", loaders...),
		widgets:      registry,
		strict:       cfg.strict,
		classes:      cfg.classes,
		labelPolicy:  cfg.labelPolicy,
		markupPolicy: cfg.markupPolicy,
		logger:       cfg.logger,
	}
	for _, name := range []string{formTemplate, levelTemplate, fieldTemplate} {
		if _, err := r.set.FromCache(name); err != nil {
			return nil, fmt.Errorf("html renderer: load %s: %w", name, err)
		}
	}
	return r, nil
}

func widgetRegistry(cfg config, sources []fs.FS) (*widgets.Registry[string], error) {
	registry := widgets.NewRegistry[string]()
	for _, name := range bundledWidgets {
		if err := registry.Register(name, widgetPath(name)); err != nil {
			return nil, fmt.Errorf("html renderer: %w", err)
		}
	}
	// the built-in bundle is the last source
	for i := len(sources) - 2; i >= 0; i-- {
		matches, err := fs.Glob(sources[i], "widgets/*.tmpl")
		if err != nil {
			return nil, fmt.Errorf("html renderer: scan widgets: %w", err)
		}
		for _, match := range matches {
			name := strings.TrimSuffix(path.Base(match), ".tmpl")
			if !validWidgetName(name) {
				continue
			}
			if err := registry.Register(name, match, widgets.Force()); err != nil {
				return nil, fmt.Errorf("html renderer: %w", err)
			}
		}
	}
	for _, entry := range cfg.widgets {
		if !validWidgetName(entry.name) || entry.path == "" {
			return nil, fmt.Errorf("html renderer: invalid widget mapping %q -> %q", entry.name, entry.path)
		}
		if err := registry.Register(entry.name, entry.path, widgets.Force()); err != nil {
			return nil, fmt.Errorf("html renderer: %w", err)
		}
	}
	return registry, nil
}

func (r *Renderer) Name() string {
	return "html"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Widgets lists the widget names the renderer has templates for.
func (r *Renderer) Widgets() []string {
	return r.widgets.List()
}

// Render writes tree as a single form element. Field values are read from
// model at each field's concrete model path.
func (r *Renderer) Render(ctx context.Context, tree []resolution.Resolved, model any, opts ...RenderOption) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("html renderer: nil context")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rc := renderConfig{method: "post"}
	for _, opt := range opts {
		if opt != nil {
			opt(&rc)
		}
	}

	body, err := r.renderNodes(tree, model, &rc)
	if err != nil {
		return nil, err
	}
	out, err := r.execute(formTemplate, pongo2.Context{
		"classes": r.classes.context(),
		"action":  rc.action,
		"method":  rc.method,
		"submit":  rc.submit,
		"body":    body,
	})
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// RenderForm resolves form and renders it with its current validation
// messages. submit marks every field dirty.
func (r *Renderer) RenderForm(ctx context.Context, form *engine.Form, submit bool, opts ...RenderOption) ([]byte, error) {
	if form == nil {
		return nil, errors.New("html renderer: nil form")
	}
	tree, err := form.Resolve()
	if err != nil {
		return nil, err
	}
	report, err := form.Validate(submit)
	if err != nil {
		return nil, err
	}
	opts = append([]RenderOption{WithResults(report.Results)}, opts...)
	return r.Render(ctx, tree, form.Model(), opts...)
}

func (r *Renderer) renderNodes(nodes []resolution.Resolved, model any, rc *renderConfig) (string, error) {
	var b strings.Builder
	for _, node := range nodes {
		var (
			out string
			err error
		)
		switch n := node.(type) {
		case *resolution.ResolvedLevel:
			out, err = r.renderLevel(n, model, rc)
		case *resolution.ResolvedField:
			out, err = r.renderField(n, model, rc)
		default:
			err = fmt.Errorf("html renderer: unexpected node %T", node)
		}
		if err != nil {
			return "", err
		}
		b.WriteString(out)
	}
	return b.String(), nil
}

func (r *Renderer) renderLevel(level *resolution.ResolvedLevel, model any, rc *renderConfig) (string, error) {
	body, err := r.renderNodes(level.Children, model, rc)
	if err != nil {
		return "", err
	}
	return r.execute(levelTemplate, pongo2.Context{
		"classes":   r.classes.context(),
		"level":     level.Level,
		"title":     r.labelPolicy.Sanitize(levelTitle(level)),
		"classList": sanitizeClassList(level.ClassList),
		"body":      body,
	})
}

func (r *Renderer) renderField(field *resolution.ResolvedField, model any, rc *renderConfig) (string, error) {
	widget, tpl, err := r.widgetTemplate(field)
	if err != nil {
		return "", err
	}
	view := fieldView(field, widget, model)

	control, err := r.execute(tpl, view)
	if err != nil {
		return "", err
	}

	result := rc.results[field.ModelPath]
	return r.execute(fieldTemplate, pongo2.Context{
		"classes":     r.classes.context(),
		"id":          view["id"],
		"name":        field.ModelPath,
		"widget":      widget,
		"label":       r.labelPolicy.Sanitize(displayLabel(field)),
		"description": strings.TrimSpace(r.markupPolicy.Sanitize(stringParam(field, "description"))),
		"classList":   sanitizeClassList(field.ClassList),
		"control":     control,
		"errors":      result.Error,
		"warnings":    result.Warn,
	})
}

// widgetTemplate returns the widget name and template path for field. Fields
// without a widget use text.
func (r *Renderer) widgetTemplate(field *resolution.ResolvedField) (string, string, error) {
	name := widgets.WidgetText
	if field.Widget != nil && field.Widget.Type != "" {
		name = field.Widget.Type
	}
	tpl, err := r.widgets.Lookup(name)
	if err == nil {
		return name, tpl, nil
	}
	if r.strict {
		return "", "", fmt.Errorf("html renderer: field %q: %w", field.ModelPath, err)
	}
	r.logger.Debug("no template for widget, using text", "widget", name, "path", field.ModelPath)
	tpl, err = r.widgets.Lookup(widgets.WidgetText)
	if err != nil {
		return "", "", fmt.Errorf("html renderer: %w", err)
	}
	return widgets.WidgetText, tpl, nil
}

func (r *Renderer) execute(name string, data pongo2.Context) (string, error) {
	tpl, err := r.set.FromCache(name)
	if err != nil {
		return "", fmt.Errorf("html renderer: load %s: %w", name, err)
	}
	out, err := tpl.Execute(data)
	if err != nil {
		return "", fmt.Errorf("html renderer: execute %s: %w", name, err)
	}
	return out, nil
}

func widgetPath(name string) string {
	return "widgets/" + name + ".tmpl"
}
