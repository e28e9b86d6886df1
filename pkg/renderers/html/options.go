package html

import (
	"io/fs"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formtree/pkg/validation"
)

// Option configures a Renderer.
type Option func(*config)

type config struct {
	templates    []fs.FS
	classes      Classes
	labelPolicy  *bluemonday.Policy
	markupPolicy *bluemonday.Policy
	logger       hclog.Logger
	widgets      []widgetTemplate
	strict       bool
}

type widgetTemplate struct {
	name string
	path string
}

// WithTemplates layers a template bundle over the built-in one. Templates
// found in files win; anything missing falls back to the defaults.
func WithTemplates(files fs.FS) Option {
	return func(cfg *config) {
		if files != nil {
			cfg.templates = append(cfg.templates, files)
		}
	}
}

// WithTemplatesDir layers templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templates = append(cfg.templates, os.DirFS(path))
	}
}

// WithClasses overrides chrome classes.
func WithClasses(classes Classes) Option {
	return func(cfg *config) {
		cfg.classes = cfg.classes.merge(classes)
	}
}

// WithLabelPolicy replaces the policy applied to labels and legends.
func WithLabelPolicy(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		if policy != nil {
			cfg.labelPolicy = policy
		}
	}
}

// WithMarkupPolicy replaces the policy applied to description markup.
func WithMarkupPolicy(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		if policy != nil {
			cfg.markupPolicy = policy
		}
	}
}

// WithLogger traces template fallbacks.
func WithLogger(logger hclog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// WithWidget maps a widget name to a template path inside the template
// bundles, replacing any earlier mapping for the name.
func WithWidget(name, path string) Option {
	return func(cfg *config) {
		cfg.widgets = append(cfg.widgets, widgetTemplate{name: name, path: path})
	}
}

// WithStrictWidgets makes fields whose widget has no template fail with
// widgets.ErrNotFound instead of rendering as text inputs.
func WithStrictWidgets() Option {
	return func(cfg *config) { cfg.strict = true }
}

// RenderOption configures a single Render call.
type RenderOption func(*renderConfig)

type renderConfig struct {
	action  string
	method  string
	submit  string
	results map[string]validation.Result
}

// WithAction sets the form action attribute.
func WithAction(action string) RenderOption {
	return func(rc *renderConfig) { rc.action = action }
}

// WithMethod sets the form method, POST by default.
func WithMethod(method string) RenderOption {
	return func(rc *renderConfig) {
		if method != "" {
			rc.method = method
		}
	}
}

// WithSubmit renders a submit button labelled label.
func WithSubmit(label string) RenderOption {
	return func(rc *renderConfig) { rc.submit = label }
}

// WithResults attaches validation messages keyed by model path.
func WithResults(results map[string]validation.Result) RenderOption {
	return func(rc *renderConfig) { rc.results = results }
}
