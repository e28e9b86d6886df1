package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formtree/pkg/logic"
	"github.com/goliatone/go-formtree/pkg/schema"
	"github.com/goliatone/go-formtree/pkg/validation"
)

// Transformer rewrites a schema before it is prepared. Implementations can
// swap widgets, inject params or add validators. The node handed to
// Transform is a private copy.
type Transformer interface {
	Transform(ctx context.Context, root schema.Node) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, root schema.Node) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, root schema.Node) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, root)
}

// PresetTransformer applies declarative field patches loaded from a JSON
// document keyed by the field model path as authored:
//
//	{
//	  "fields": {
//	    "contacts.$each.email": {
//	      "widget": "email",
//	      "params": {"label": "E-mail", "hint": {"_modelPath": "hints.email"}},
//	      "classList": ["wide"],
//	      "validation": [{"type": "email", "message": "invalid address"}]
//	    }
//	  }
//	}
//
// Params merge over existing params; class list entries and validators are
// appended.
type PresetTransformer struct {
	fields map[string]fieldPatch
}

type presetDocument struct {
	Fields map[string]rawFieldPatch `json:"fields"`
}

type rawFieldPatch struct {
	Widget     string         `json:"widget"`
	Params     map[string]any `json:"params"`
	ClassList  []any          `json:"classList"`
	Validation []any          `json:"validation"`
}

type fieldPatch struct {
	widget     string
	params     map[string]logic.Value
	classList  []logic.Value
	validation []validation.Spec
}

// NewPresetTransformer constructs a transformer from raw JSON bytes.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var document presetDocument
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}

	t := &PresetTransformer{fields: make(map[string]fieldPatch, len(document.Fields))}
	for path, raw := range document.Fields {
		patch, err := compilePatch(raw)
		if err != nil {
			return nil, fmt.Errorf("preset transformer: field %q: %w", path, err)
		}
		t.fields[path] = patch
	}
	return t, nil
}

// NewPresetTransformerFromFS loads a preset document from the provided
// filesystem path.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

func compilePatch(raw rawFieldPatch) (fieldPatch, error) {
	patch := fieldPatch{widget: strings.TrimSpace(raw.Widget)}
	if len(raw.Params) > 0 {
		patch.params = make(map[string]logic.Value, len(raw.Params))
		for key, rawValue := range raw.Params {
			value, err := schema.DecodeValue(rawValue)
			if err != nil {
				return fieldPatch{}, fmt.Errorf("param %q: %w", key, err)
			}
			patch.params[key] = value
		}
	}
	for idx, rawValue := range raw.ClassList {
		value, err := schema.DecodeValue(rawValue)
		if err != nil {
			return fieldPatch{}, fmt.Errorf("class %d: %w", idx, err)
		}
		patch.classList = append(patch.classList, value)
	}
	for idx, rawSpec := range raw.Validation {
		spec, err := schema.DecodeSpec(rawSpec)
		if err != nil {
			return fieldPatch{}, fmt.Errorf("validator %d: %w", idx, err)
		}
		patch.validation = append(patch.validation, spec)
	}
	return patch, nil
}

// Transform applies the patches. Every patched path must match at least one
// field.
func (t *PresetTransformer) Transform(ctx context.Context, root schema.Node) error {
	if root == nil {
		return errors.New("preset transformer: schema is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	byPath := make(map[string][]*schema.Field)
	for _, field := range schema.Fields(root) {
		byPath[field.ModelPath] = append(byPath[field.ModelPath], field)
	}

	paths := make([]string, 0, len(t.fields))
	for path := range t.fields {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		fields := byPath[path]
		if len(fields) == 0 {
			return fmt.Errorf("preset transformer: field %q not found", path)
		}
		for _, field := range fields {
			applyFieldPatch(field, t.fields[path])
		}
	}
	return nil
}

func applyFieldPatch(field *schema.Field, patch fieldPatch) {
	if field == nil {
		return
	}
	if patch.widget != "" || len(patch.params) > 0 {
		if field.Widget == nil {
			field.Widget = &schema.Widget{}
		}
		if patch.widget != "" {
			field.Widget.Type = patch.widget
		}
		field.Widget.Params = mergeValues(field.Widget.Params, patch.params)
	}
	if len(patch.classList) > 0 {
		field.ClassList = append(append([]logic.Value(nil), field.ClassList...), patch.classList...)
	}
	if len(patch.validation) > 0 {
		field.Validation = append(append([]validation.Spec(nil), field.Validation...), patch.validation...)
	}
}

func mergeValues(dst, src map[string]logic.Value) map[string]logic.Value {
	if len(src) == 0 {
		return dst
	}
	out := make(map[string]logic.Value, len(dst)+len(src))
	for key, value := range dst {
		out[key] = value
	}
	for key, value := range src {
		out[key] = value
	}
	return out
}
