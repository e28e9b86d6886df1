package tui

import "github.com/hashicorp/go-hclog"

// OutputFormat controls how the collected model is serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits an indented JSON document.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML emits a YAML document.
	OutputFormatYAML OutputFormat = "yaml"
	// OutputFormatFormURLEncoded emits application/x-www-form-urlencoded pairs.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits one path=value line per leaf.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// Theme captures optional prefixes applied to printed messages.
type Theme struct {
	InfoPrefix  string
	ErrorPrefix string
	WarnPrefix  string
}

// PromptKind names the kind of question asked for a widget.
type PromptKind string

const (
	PromptInput       PromptKind = "input"
	PromptNumber      PromptKind = "number"
	PromptConfirm     PromptKind = "confirm"
	PromptSelect      PromptKind = "select"
	PromptMultiSelect PromptKind = "multiselect"
	PromptTextArea    PromptKind = "textarea"
	PromptJSON        PromptKind = "json"
	PromptPassword    PromptKind = "password"
)

// SubmitTransformer rewrites the collected model before serialization.
type SubmitTransformer func(model any) (any, error)

// Option configures a Session.
type Option func(*Session)

// WithPromptDriver overrides the prompt driver used by the session.
func WithPromptDriver(driver PromptDriver) Option {
	return func(s *Session) {
		if driver != nil {
			s.driver = driver
		}
	}
}

// WithOutputFormat selects the output serialization format.
func WithOutputFormat(format OutputFormat) Option {
	return func(s *Session) {
		if format != "" {
			s.outputFormat = format
		}
	}
}

// WithSubmitTransformer lets callers rewrite the collected model prior to
// serialization.
func WithSubmitTransformer(fn SubmitTransformer) Option {
	return func(s *Session) {
		s.submitTransformer = fn
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(s *Session) {
		s.theme = theme
	}
}

// WithLogger traces prompts and answers.
func WithLogger(logger hclog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPromptLimit caps the number of prompts one Run may issue.
func WithPromptLimit(limit int) Option {
	return func(s *Session) {
		if limit > 0 {
			s.promptLimit = limit
		}
	}
}

// WithWidgetPrompt asks fields using widget with the given prompt kind,
// replacing any built-in mapping for the name.
func WithWidgetPrompt(widget string, kind PromptKind) Option {
	return func(s *Session) {
		s.widgetPrompts = append(s.widgetPrompts, widgetPrompt{widget: widget, kind: kind})
	}
}

type widgetPrompt struct {
	widget string
	kind   PromptKind
}
