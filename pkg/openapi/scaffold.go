package openapi

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/hashicorp/go-multierror"

	"github.com/goliatone/go-formtree/pkg/logic"
	"github.com/goliatone/go-formtree/pkg/modelpath"
	"github.com/goliatone/go-formtree/pkg/schema"
	"github.com/goliatone/go-formtree/pkg/validation"
	"github.com/goliatone/go-formtree/pkg/widgets"
)

// ErrNoRequestBody is returned when scaffolding an operation without a body.
var ErrNoRequestBody = errors.New("openapi: operation has no request body")

// ExtensionKey holds per-property overrides:
//
//	x-formtree:
//	  widget: textarea
//	  params: {rows: 4}
//	  classList: [wide]
const ExtensionKey = "x-formtree"

const defaultMaxDepth = 8

var mediaTypes = []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"}

// Scaffold is a schema tree generated from an operation and a model holding
// the schema defaults.
type Scaffold struct {
	Schema *schema.Level
	Model  map[string]any
}

// ScaffoldOption configures Operation.Scaffold.
type ScaffoldOption func(*scaffoldConfig)

type scaffoldConfig struct {
	mediaType string
	maxDepth  int
}

// WithMediaType picks the request body content entry to scaffold from.
func WithMediaType(mediaType string) ScaffoldOption {
	return func(cfg *scaffoldConfig) {
		cfg.mediaType = mediaType
	}
}

// WithMaxDepth bounds object nesting; deeper objects become JSON editors.
func WithMaxDepth(depth int) ScaffoldOption {
	return func(cfg *scaffoldConfig) {
		if depth > 0 {
			cfg.maxDepth = depth
		}
	}
}

// Scaffold converts the operation's request body schema into a schema tree.
// Objects become levels, arrays of objects become for blocks and scalars
// become fields with widgets and validators inferred from their keywords.
// Read-only properties are skipped.
func (o Operation) Scaffold(opts ...ScaffoldOption) (Scaffold, error) {
	cfg := scaffoldConfig{maxDepth: defaultMaxDepth}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if !o.HasRequestBody() {
		return Scaffold{}, fmt.Errorf("%w: %s", ErrNoRequestBody, o.ID)
	}

	ref, err := bodySchema(o.op.RequestBody.Value.Content, cfg.mediaType)
	if err != nil {
		return Scaffold{}, fmt.Errorf("openapi: %s: %w", o.ID, err)
	}

	if schemaType(ref.Value) != "object" {
		return Scaffold{}, fmt.Errorf("openapi: %s: request body is not an object", o.ID)
	}

	b := &builder{cfg: cfg, model: map[string]any{}, visiting: map[*openapi3.Schema]bool{}}
	root := b.object(o.ID, "", ref.Value, 0)
	if b.errs != nil {
		return Scaffold{}, fmt.Errorf("openapi: scaffold %s: %w", o.ID, b.errs.ErrorOrNil())
	}
	if root.Context == nil {
		root.Context = map[string]any{"title": operationTitle(o)}
	}
	return Scaffold{Schema: root, Model: b.model}, nil
}

func operationTitle(o Operation) string {
	if o.Summary != "" {
		return o.Summary
	}
	return humanize(o.ID)
}

func bodySchema(content openapi3.Content, preferred string) (*openapi3.SchemaRef, error) {
	candidates := mediaTypes
	if preferred != "" {
		candidates = []string{preferred}
	}
	for _, mt := range candidates {
		if media, ok := content[mt]; ok && media != nil && media.Schema != nil && media.Schema.Value != nil {
			return media.Schema, nil
		}
	}
	if preferred != "" {
		return nil, fmt.Errorf("no %s request body", preferred)
	}
	names := make([]string, 0, len(content))
	for name := range content {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if media := content[name]; media != nil && media.Schema != nil && media.Schema.Value != nil {
			return media.Schema, nil
		}
	}
	return nil, errors.New("request body has no schema")
}

type builder struct {
	cfg      scaffoldConfig
	model    map[string]any
	visiting map[*openapi3.Schema]bool
	errs     *multierror.Error
}

func (b *builder) fail(path, format string, args ...any) {
	b.errs = multierror.Append(b.errs, fmt.Errorf("%s: %s", displayPath(path), fmt.Sprintf(format, args...)))
}

func displayPath(path string) string {
	if path == "" {
		return "<root>"
	}
	return path
}

// object builds a level holding one child per property.
func (b *builder) object(name, path string, s *openapi3.Schema, depth int) *schema.Level {
	level := schema.NewLevel(name)
	if s.Title != "" {
		level.Context = map[string]any{"title": s.Title}
	}
	b.visiting[s] = true
	defer delete(b.visiting, s)

	props, required := properties(s)
	names := make([]string, 0, len(props))
	for prop := range props {
		names = append(names, prop)
	}
	sort.Strings(names)
	for _, prop := range names {
		ref := props[prop]
		if ref == nil || ref.Value == nil {
			b.fail(join(path, prop), "unresolved reference %q", refOf(ref))
			continue
		}
		if ref.Value.ReadOnly {
			continue
		}
		if child := b.property(prop, join(path, prop), ref.Value, required[prop], depth+1); child != nil {
			level.Children = append(level.Children, child)
		}
	}
	return level
}

func (b *builder) property(name, path string, s *openapi3.Schema, required bool, depth int) schema.Node {
	kind := schemaType(s)
	switch {
	case kind == "object" && hasProperties(s):
		if b.visiting[s] || depth > b.cfg.maxDepth {
			return b.field(name, path, s, required, widgets.WidgetJSONEditor)
		}
		return b.object(name, path, s, depth)
	case kind == "array":
		return b.array(name, path, s, required, depth)
	default:
		return b.field(name, path, s, required, scalarWidget(kind, s))
	}
}

func (b *builder) array(name, path string, s *openapi3.Schema, required bool, depth int) schema.Node {
	if s.Items == nil || s.Items.Value == nil {
		return b.field(name, path, s, required, widgets.WidgetChips)
	}
	items := s.Items.Value
	if schemaType(items) != "object" || !hasProperties(items) {
		field := b.field(name, path, s, required, widgets.WidgetChips)
		if len(items.Enum) > 0 {
			field.Widget.Params["options"] = logic.Lit(append([]any(nil), items.Enum...))
		}
		return field
	}
	if b.visiting[items] || depth > b.cfg.maxDepth {
		return b.field(name, path, s, required, widgets.WidgetJSONEditor)
	}
	if s.Default != nil && !strings.Contains(path, modelpath.Each) {
		b.seed(path, s.Default)
	}
	item := b.object(name, path+"."+modelpath.Each, items, depth)
	return schema.NewFor(path, item)
}

func (b *builder) field(name, path string, s *openapi3.Schema, required bool, widget string) *schema.Field {
	field := schema.NewField(path, widget)
	label := s.Title
	if label == "" {
		label = humanize(name)
	}
	params := map[string]logic.Value{"label": logic.Lit(label)}
	if s.Description != "" {
		params["description"] = logic.Lit(s.Description)
	}
	if widget == widgets.WidgetSelect {
		params["options"] = logic.Lit(append([]any(nil), s.Enum...))
	}
	if s.Example != nil {
		params["placeholder"] = logic.Lit(s.Example)
	}
	field.WithParams(params)
	field.Validation = validators(label, s, required)

	b.applyExtension(field, path, s.Extensions)
	if s.Default != nil && !strings.Contains(path, modelpath.Each) {
		b.seed(path, s.Default)
	}
	return field
}

func (b *builder) seed(path string, value any) {
	updated, err := modelpath.SetPath(b.model, path, value)
	if err != nil {
		b.fail(path, "default: %v", err)
		return
	}
	if m, ok := updated.(map[string]any); ok {
		b.model = m
	}
}

func (b *builder) applyExtension(field *schema.Field, path string, extensions map[string]any) {
	raw, ok := extensions[ExtensionKey]
	if !ok {
		return
	}
	ext, ok := raw.(map[string]any)
	if !ok {
		b.fail(path, "%s must be an object", ExtensionKey)
		return
	}
	if widget, ok := ext["widget"].(string); ok && widget != "" {
		field.Widget.Type = widget
	}
	if params, ok := ext["params"].(map[string]any); ok {
		for key, value := range params {
			decoded, err := schema.DecodeValue(value)
			if err != nil {
				b.fail(path, "param %q: %v", key, err)
				continue
			}
			field.Widget.Params[key] = decoded
		}
	}
	if classes, ok := ext["classList"].([]any); ok {
		for _, class := range classes {
			decoded, err := schema.DecodeValue(class)
			if err != nil {
				b.fail(path, "classList: %v", err)
				continue
			}
			field.ClassList = append(field.ClassList, decoded)
		}
	}
}

func scalarWidget(kind string, s *openapi3.Schema) string {
	if len(s.Enum) > 0 {
		return widgets.WidgetSelect
	}
	switch kind {
	case "boolean":
		return widgets.WidgetToggle
	case "integer", "number":
		return widgets.WidgetNumber
	case "object":
		return widgets.WidgetJSONEditor
	case "string":
		switch s.Format {
		case "date", "date-time":
			return widgets.WidgetDate
		}
		if s.MaxLength != nil && *s.MaxLength > 255 {
			return widgets.WidgetTextarea
		}
	}
	return widgets.WidgetText
}

func validators(label string, s *openapi3.Schema, required bool) []validation.Spec {
	var specs []validation.Spec
	add := func(kind, message string, params map[string]logic.Value) {
		specs = append(specs, validation.Spec{Type: kind, Message: message, Params: params})
	}
	if required {
		add("required", label+" is required", nil)
	}
	switch schemaType(s) {
	case "string":
		if s.MinLength > 0 {
			add("minLength", fmt.Sprintf("%s must have at least %d characters", label, s.MinLength),
				map[string]logic.Value{"min": logic.Lit(float64(s.MinLength))})
		}
		if s.MaxLength != nil {
			add("maxLength", fmt.Sprintf("%s must have at most %d characters", label, *s.MaxLength),
				map[string]logic.Value{"max": logic.Lit(float64(*s.MaxLength))})
		}
		if s.Pattern != "" {
			add("regex", label+" has an invalid format",
				map[string]logic.Value{"pattern": logic.Lit(s.Pattern)})
		}
		if s.Format == "email" {
			add("email", label+" must be an email address", nil)
		}
	case "integer", "number":
		if s.Min != nil {
			add("minValue", fmt.Sprintf("%s must be at least %v", label, *s.Min),
				map[string]logic.Value{"min": logic.Lit(*s.Min)})
		}
		if s.Max != nil {
			add("maxValue", fmt.Sprintf("%s must be at most %v", label, *s.Max),
				map[string]logic.Value{"max": logic.Lit(*s.Max)})
		}
		if schemaType(s) == "integer" {
			add("integer", label+" must be a whole number", nil)
		}
	}
	return specs
}

// properties merges allOf members into s's own properties.
func properties(s *openapi3.Schema) (openapi3.Schemas, map[string]bool) {
	props := openapi3.Schemas{}
	required := map[string]bool{}
	var collect func(*openapi3.Schema)
	collect = func(s *openapi3.Schema) {
		for _, member := range s.AllOf {
			if member != nil && member.Value != nil {
				collect(member.Value)
			}
		}
		for name, ref := range s.Properties {
			props[name] = ref
		}
		for _, name := range s.Required {
			required[name] = true
		}
	}
	collect(s)
	return props, required
}

func hasProperties(s *openapi3.Schema) bool {
	props, _ := properties(s)
	return len(props) > 0
}

func schemaType(s *openapi3.Schema) string {
	if s.Type != nil {
		for _, t := range s.Type.Slice() {
			if t != "null" {
				return t
			}
		}
	}
	if hasProperties(s) {
		return "object"
	}
	if s.Items != nil {
		return "array"
	}
	return ""
}

func refOf(ref *openapi3.SchemaRef) string {
	if ref == nil {
		return ""
	}
	return ref.Ref
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// humanize turns camelCase and snake_case names into "Sentence case" labels.
func humanize(name string) string {
	var (
		words   []string
		current []rune
	)
	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = nil
		}
	}
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ':' || r == '/' || r == '.' || unicode.IsSpace(r):
			flush()
			continue
		case unicode.IsUpper(r) && i > 0 && !unicode.IsUpper(runes[i-1]):
			flush()
		}
		current = append(current, unicode.ToLower(r))
	}
	flush()
	out := strings.Join(words, " ")
	if out == "" {
		return ""
	}
	first, size := utf8.DecodeRuneInString(out)
	return string(unicode.ToUpper(first)) + out[size:]
}
