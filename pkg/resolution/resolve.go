package resolution

import (
	"fmt"

	"github.com/goliatone/go-formtree/pkg/modelpath"
	"github.com/goliatone/go-formtree/pkg/schema"
	"github.com/goliatone/go-formtree/pkg/validation"
)

// Resolved is one of *ResolvedLevel or *ResolvedField. Resolved trees carry
// no conditional or repetition structure.
type Resolved interface {
	Kind() schema.Kind
	resolved()
}

// Widget is a field widget with concrete params.
type Widget struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params,omitempty"`
}

// ResolvedLevel is a level whose children are resolved.
type ResolvedLevel struct {
	Level             string            `json:"level"`
	Context           any               `json:"context,omitempty"`
	ClassList         []string          `json:"classList,omitempty"`
	Children          []Resolved        `json:"children"`
	ResolutionContext modelpath.Context `json:"resolutionContext"`
}

// ResolvedField is a field bound to a concrete model path. SchemaPath keeps
// the path as authored, `$each` placeholders included.
type ResolvedField struct {
	ModelPath         string                `json:"modelPath,omitempty"`
	SchemaPath        string                `json:"schemaPath,omitempty"`
	Widget            *Widget               `json:"widget,omitempty"`
	Validation        []validation.Prepared `json:"validation,omitempty"`
	ClassList         []string              `json:"classList,omitempty"`
	ResolutionContext modelpath.Context     `json:"resolutionContext"`
}

func (*ResolvedLevel) Kind() schema.Kind { return schema.KindLevel }
func (*ResolvedField) Kind() schema.Kind { return schema.KindField }
func (*ResolvedLevel) resolved()         {}
func (*ResolvedField) resolved()         {}

// Resolve evaluates the prepared tree against model with an empty context.
// A root that resolves to nothing (an if without else, an empty for) yields
// no nodes.
func Resolve(root Prepared, model any) ([]Resolved, error) {
	return ResolveWithContext(root, model, nil)
}

// ResolveWithContext evaluates node under an existing resolution context.
func ResolveWithContext(node Prepared, model any, ctx modelpath.Context) ([]Resolved, error) {
	switch n := node.(type) {
	case nil:
		return nil, nil
	case *Branch:
		chosen, err := n.Choose(model, ctx)
		if err != nil || chosen == nil {
			return nil, err
		}
		return ResolveWithContext(chosen, model, ctx)
	case *BranchArray:
		items, err := n.Expand(model, ctx)
		if err != nil {
			return nil, err
		}
		var out []Resolved
		for idx, item := range items {
			resolved, err := ResolveWithContext(item, model, ctx.With(n.SplitPoint, idx))
			if err != nil {
				return nil, err
			}
			out = append(out, resolved...)
		}
		return out, nil
	case *PreparedLevel:
		desc, err := n.Describe(model, ctx)
		if err != nil {
			return nil, err
		}
		level := &ResolvedLevel{
			Level:             desc.Level,
			Context:           desc.Context,
			ClassList:         desc.ClassList,
			Children:          []Resolved{},
			ResolutionContext: ctx,
		}
		for _, child := range desc.Children {
			resolved, err := ResolveWithContext(child, model, ctx)
			if err != nil {
				return nil, err
			}
			level.Children = append(level.Children, resolved...)
		}
		return []Resolved{level}, nil
	case *PreparedField:
		desc, err := n.Describe(model, ctx)
		if err != nil {
			return nil, err
		}
		return []Resolved{&ResolvedField{
			ModelPath:         desc.ModelPath,
			SchemaPath:        desc.SchemaPath,
			Widget:            desc.Widget,
			Validation:        desc.Validation,
			ClassList:         desc.ClassList,
			ResolutionContext: ctx,
		}}, nil
	default:
		return nil, fmt.Errorf("resolution: unsupported prepared node %T", node)
	}
}

// Fields flattens a resolved tree into its fields, in document order.
func Fields(tree []Resolved) []*ResolvedField {
	var out []*ResolvedField
	for _, node := range tree {
		switch n := node.(type) {
		case *ResolvedLevel:
			out = append(out, Fields(n.Children)...)
		case *ResolvedField:
			out = append(out, n)
		}
	}
	return out
}

// CollectValidators groups the validators of every field that has both a
// model path and validators. Fields bound to the same path share an applier.
func CollectValidators(tree []Resolved) validation.Collected {
	var bindings []validation.Binding
	for _, field := range Fields(tree) {
		if field.ModelPath == "" || field.Validation == nil {
			continue
		}
		bindings = append(bindings, validation.Binding{ModelPath: field.ModelPath, Validators: field.Validation})
	}
	return validation.Group(bindings)
}
