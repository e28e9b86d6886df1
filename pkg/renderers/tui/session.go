// Package tui fills a form model interactively on the terminal. A Session
// walks the resolved tree of an engine.Form and asks one question per field;
// every answer is folded back into the model and the tree is resolved again,
// so fields revealed by earlier answers are asked in turn.
package tui

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formtree/internal/coerce"
	"github.com/goliatone/go-formtree/pkg/engine"
	"github.com/goliatone/go-formtree/pkg/modelpath"
	"github.com/goliatone/go-formtree/pkg/resolution"
	"github.com/goliatone/go-formtree/pkg/validation"
	"github.com/goliatone/go-formtree/pkg/widgets"
)

const defaultPromptLimit = 500

var builtinPrompts = map[string]PromptKind{
	widgets.WidgetText:       PromptInput,
	widgets.WidgetToggle:     PromptConfirm,
	"checkbox":               PromptConfirm,
	"boolean":                PromptConfirm,
	widgets.WidgetNumber:     PromptNumber,
	"slider":                 PromptNumber,
	widgets.WidgetSelect:     PromptSelect,
	"radio":                  PromptSelect,
	widgets.WidgetChips:      PromptMultiSelect,
	"multiselect":            PromptMultiSelect,
	widgets.WidgetTextarea:   PromptTextArea,
	widgets.WidgetJSONEditor: PromptJSON,
	widgets.WidgetDate:       PromptInput,
	"password":               PromptPassword,
}

// Session runs prompts against one form.
type Session struct {
	form              *engine.Form
	driver            PromptDriver
	outputFormat      OutputFormat
	submitTransformer SubmitTransformer
	theme             Theme
	logger            hclog.Logger
	promptLimit       int
	widgetPrompts     []widgetPrompt
	prompts           *widgets.Registry[PromptKind]
}

// New constructs a session with defaults (survey driver, JSON output).
func New(form *engine.Form, options ...Option) (*Session, error) {
	if form == nil {
		return nil, errors.New("tui: form is required")
	}
	s := &Session{
		form:         form,
		outputFormat: OutputFormatJSON,
		logger:       hclog.NewNullLogger(),
		promptLimit:  defaultPromptLimit,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	if s.driver == nil {
		s.driver = NewSurveyDriver(nil)
	}
	s.prompts = widgets.NewRegistry[PromptKind]()
	names := make([]string, 0, len(builtinPrompts))
	for name := range builtinPrompts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.prompts.Register(name, builtinPrompts[name]); err != nil {
			return nil, fmt.Errorf("tui: %w", err)
		}
	}
	for _, entry := range s.widgetPrompts {
		if err := s.prompts.Register(entry.widget, entry.kind, widgets.Force()); err != nil {
			return nil, fmt.Errorf("tui: %w", err)
		}
	}
	return s, nil
}

// promptKind looks up the prompt for field's widget. Fields without a widget
// or with one the session does not know are asked as plain input.
func (s *Session) promptKind(field *resolution.ResolvedField) PromptKind {
	name := widgetType(field)
	if name == "" {
		return PromptInput
	}
	kind, err := s.prompts.Lookup(name)
	if err != nil {
		s.logger.Debug("unknown widget, asking as input", "widget", name, "path", field.ModelPath)
		return PromptInput
	}
	return kind
}

// ContentType reports the serialization format used by Render.
func (s *Session) ContentType() string {
	switch s.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	case OutputFormatYAML:
		return "application/yaml"
	default:
		return "application/json"
	}
}

// Run asks every field of the form once, in document order, until the
// resolved tree has no unanswered field. Fields without a model path are
// skipped. The final model is returned. Every question, retries included,
// counts against the prompt limit.
func (s *Session) Run(ctx context.Context) (any, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	asked := make(map[string]bool)
	budget := &promptBudget{limit: s.promptLimit}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tree, err := s.form.Resolve()
		if err != nil {
			return nil, fmt.Errorf("tui: %w", err)
		}
		field := nextField(tree, asked)
		if field == nil {
			return s.form.Model(), nil
		}
		asked[field.ModelPath] = true

		if err := s.promptField(ctx, field, budget); err != nil {
			return nil, err
		}
	}
}

// Render runs the session and serializes the collected model.
func (s *Session) Render(ctx context.Context) ([]byte, error) {
	model, err := s.Run(ctx)
	if err != nil {
		return nil, err
	}
	if s.submitTransformer != nil {
		model, err = s.submitTransformer(model)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}
	return Encode(model, s.outputFormat)
}

func nextField(tree []resolution.Resolved, asked map[string]bool) *resolution.ResolvedField {
	for _, field := range resolution.Fields(tree) {
		if field.ModelPath == "" || asked[field.ModelPath] {
			continue
		}
		return field
	}
	return nil
}

type promptBudget struct {
	limit int
	used  int
}

func (b *promptBudget) take() error {
	if b.used >= b.limit {
		return ErrPromptLimit
	}
	b.used++
	return nil
}

// promptField asks until the answer passes the field's error level
// validators. Warnings are shown but accepted.
func (s *Session) promptField(ctx context.Context, field *resolution.ResolvedField, budget *promptBudget) error {
	for {
		if err := budget.take(); err != nil {
			s.logger.Debug("prompt limit reached", "path", field.ModelPath, "limit", budget.limit)
			return err
		}
		current := modelpath.Resolve(field.ModelPath, s.form.Model(), nil)
		value, err := s.ask(ctx, field, current)
		if err != nil {
			var invalid *invalidAnswer
			if errors.As(err, &invalid) {
				s.info(ctx, s.theme.ErrorPrefix, fmt.Sprintf("Invalid %s: %v", displayLabel(field), invalid.err))
				continue
			}
			return err
		}

		if err := s.form.Update(field.ModelPath, value); err != nil {
			return fmt.Errorf("tui: %w", err)
		}
		s.logger.Trace("answered", "path", field.ModelPath, "value", value)

		report, err := s.form.Validate(false)
		if err != nil {
			return fmt.Errorf("tui: %w", err)
		}
		result := report.Results[field.ModelPath]
		for _, msg := range result.Messages(validation.LevelWarn) {
			s.info(ctx, s.theme.WarnPrefix, msg)
		}
		errs := result.Messages(validation.LevelError)
		if len(errs) == 0 {
			return nil
		}
		for _, msg := range errs {
			s.info(ctx, s.theme.ErrorPrefix, msg)
		}
	}
}

func (s *Session) info(ctx context.Context, prefix, msg string) {
	if err := s.driver.Info(ctx, prefix+msg); err != nil {
		s.logger.Warn("print message", "error", err)
	}
}

type invalidAnswer struct {
	err error
}

func (e *invalidAnswer) Error() string { return e.err.Error() }

func (s *Session) ask(ctx context.Context, field *resolution.ResolvedField, current any) (any, error) {
	label := displayLabel(field)
	help := stringParam(field, "help")

	switch s.promptKind(field) {
	case PromptConfirm:
		return s.driver.Confirm(ctx, ConfirmConfig{Message: label, Help: help, Default: coerce.Truthy(current)})
	case PromptNumber:
		answer, err := s.driver.Input(ctx, InputConfig{
			Message:   label,
			Help:      help,
			Default:   defaultText(current),
			Validator: validateNumber,
		})
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(answer) == "" {
			return nil, nil
		}
		n, ok := coerce.ParseNumber(strings.TrimSpace(answer))
		if !ok {
			return nil, &invalidAnswer{err: fmt.Errorf("%q is not a number", answer)}
		}
		return n, nil
	case PromptSelect:
		options, err := fieldOptions(field)
		if err != nil {
			return nil, err
		}
		idx, err := s.driver.Select(ctx, SelectConfig{
			Message:      label,
			Help:         help,
			Options:      labelsOf(options),
			DefaultIndex: indexOfValue(options, current),
		})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(options) {
			return nil, &invalidAnswer{err: errors.New("selection out of range")}
		}
		return optionValue(options[idx]), nil
	case PromptMultiSelect:
		options, err := fieldOptions(field)
		if err != nil {
			return nil, err
		}
		indices, err := s.driver.MultiSelect(ctx, SelectConfig{
			Message:  label,
			Help:     help,
			Options:  labelsOf(options),
			Defaults: indicesOfValues(options, current),
		})
		if err != nil {
			return nil, err
		}
		selected := make([]any, 0, len(indices))
		for _, idx := range indices {
			if idx >= 0 && idx < len(options) {
				selected = append(selected, optionValue(options[idx]))
			}
		}
		return selected, nil
	case PromptTextArea:
		return s.driver.TextArea(ctx, TextAreaConfig{Message: label, Help: help, Default: defaultText(current)})
	case PromptJSON:
		answer, err := s.driver.TextArea(ctx, TextAreaConfig{Message: label, Help: help, Default: jsonText(current)})
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(answer) == "" {
			return nil, nil
		}
		var decoded any
		if err := json.Unmarshal([]byte(answer), &decoded); err != nil {
			return nil, &invalidAnswer{err: err}
		}
		return decoded, nil
	case PromptPassword:
		return s.driver.Password(ctx, InputConfig{Message: label, Help: help})
	default:
		return s.driver.Input(ctx, InputConfig{Message: label, Help: help, Default: defaultText(current)})
	}
}

func widgetType(field *resolution.ResolvedField) string {
	if field.Widget == nil {
		return ""
	}
	return field.Widget.Type
}

func stringParam(field *resolution.ResolvedField, key string) string {
	if field.Widget == nil {
		return ""
	}
	value, ok := field.Widget.Params[key]
	if !ok || value == nil {
		return ""
	}
	return coerce.String(value)
}

func displayLabel(field *resolution.ResolvedField) string {
	if label := stringParam(field, "label"); label != "" {
		return label
	}
	return field.ModelPath
}

func fieldOptions(field *resolution.ResolvedField) ([]any, error) {
	if field.Widget != nil {
		if options, ok := coerce.Slice(field.Widget.Params["options"]); ok && len(options) > 0 {
			return options, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoOptions, field.ModelPath)
}

// optionLabel shows {label, value} objects by label and anything else by its
// string form.
func optionLabel(option any) string {
	if obj, ok := coerce.Object(option); ok {
		if label, ok := obj["label"]; ok {
			return coerce.String(label)
		}
		if value, ok := obj["value"]; ok {
			return coerce.String(value)
		}
	}
	return coerce.String(option)
}

func optionValue(option any) any {
	if obj, ok := coerce.Object(option); ok {
		if value, ok := obj["value"]; ok {
			return value
		}
	}
	return option
}

func labelsOf(options []any) []string {
	out := make([]string, len(options))
	for i, option := range options {
		out[i] = optionLabel(option)
	}
	return out
}

func indexOfValue(options []any, value any) int {
	if value == nil {
		return -1
	}
	for i, option := range options {
		if coerce.String(optionValue(option)) == coerce.String(optionValue(value)) {
			return i
		}
	}
	return -1
}

func indicesOfValues(options []any, value any) []int {
	values, ok := coerce.Slice(value)
	if !ok {
		return nil
	}
	var out []int
	for _, v := range values {
		if idx := indexOfValue(options, v); idx >= 0 {
			out = append(out, idx)
		}
	}
	return out
}

func validateNumber(answer string) error {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return nil
	}
	if _, ok := coerce.ParseNumber(trimmed); !ok {
		return fmt.Errorf("%q is not a number", answer)
	}
	return nil
}

func defaultText(value any) string {
	if value == nil {
		return ""
	}
	return coerce.String(value)
}

func jsonText(value any) string {
	if value == nil {
		return ""
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

// Encode serializes a model in format.
func Encode(model any, format OutputFormat) ([]byte, error) {
	switch format {
	case OutputFormatYAML:
		out, err := yaml.Marshal(model)
		if err != nil {
			return nil, fmt.Errorf("tui: encode yaml: %w", err)
		}
		return out, nil
	case OutputFormatFormURLEncoded:
		values := url.Values{}
		flatten("", model, values)
		return []byte(values.Encode()), nil
	case OutputFormatPrettyText:
		var b strings.Builder
		writePretty(&b, "", model)
		return []byte(b.String()), nil
	default:
		out, err := json.MarshalIndent(model, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("tui: encode json: %w", err)
		}
		return out, nil
	}
}

func flatten(prefix string, value any, out url.Values) {
	if obj, ok := coerce.Object(value); ok {
		for key, val := range obj {
			flatten(joinPath(prefix, key), val, out)
		}
		return
	}
	if list, ok := coerce.Slice(value); ok {
		for _, val := range list {
			out.Add(prefix+"[]", coerce.String(val))
		}
		return
	}
	if prefix != "" {
		out.Set(prefix, coerce.String(value))
	}
}

func writePretty(b *strings.Builder, prefix string, value any) {
	if obj, ok := coerce.Object(value); ok {
		keys := make([]string, 0, len(obj))
		for key := range obj {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			writePretty(b, joinPath(prefix, key), obj[key])
		}
		return
	}
	if list, ok := coerce.Slice(value); ok {
		for idx, val := range list {
			writePretty(b, fmt.Sprintf("%s[%d]", prefix, idx), val)
		}
		return
	}
	if prefix != "" {
		fmt.Fprintf(b, "%s=%s\n", prefix, coerce.String(value))
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
