package schema

import (
	"github.com/goliatone/go-formtree/pkg/logic"
	"github.com/goliatone/go-formtree/pkg/validation"
)

// Encode converts a schema tree into the generic document form accepted by
// Decode, ready for JSON or YAML marshalling.
func Encode(node Node) map[string]any {
	switch n := node.(type) {
	case *Level:
		out := map[string]any{"type": string(KindLevel), "level": n.Level}
		if n.Context != nil {
			out["context"] = n.Context
		}
		if len(n.ClassList) > 0 {
			out["classList"] = encodeValues(n.ClassList)
		}
		children := make([]any, len(n.Children))
		for idx, child := range n.Children {
			children[idx] = Encode(child)
		}
		out["children"] = children
		return out
	case *Field:
		out := map[string]any{"type": string(KindField)}
		if n.ModelPath != "" {
			out["modelPath"] = n.ModelPath
		}
		if n.Widget != nil {
			widget := map[string]any{"type": n.Widget.Type}
			if n.Widget.Params != nil {
				widget["params"] = encodeValueMap(n.Widget.Params)
			}
			out["widget"] = widget
		}
		if len(n.Validation) > 0 {
			specs := make([]any, len(n.Validation))
			for idx, spec := range n.Validation {
				specs[idx] = encodeSpec(spec)
			}
			out["validation"] = specs
		}
		if len(n.ClassList) > 0 {
			out["classList"] = encodeValues(n.ClassList)
		}
		return out
	case *If:
		out := map[string]any{
			"type":      string(KindIf),
			"predicate": EncodeValue(n.Predicate),
			"then":      Encode(n.Then),
		}
		if n.Else != nil {
			out["else"] = Encode(n.Else)
		}
		return out
	case *Elif:
		cases := make([]any, len(n.Elifs))
		for idx, c := range n.Elifs {
			cases[idx] = map[string]any{"predicate": EncodeValue(c.Predicate), "then": Encode(c.Then)}
		}
		out := map[string]any{"type": string(KindElif), "elifs": cases}
		if n.Else != nil {
			out["else"] = Encode(n.Else)
		}
		return out
	case *Switch:
		cases := make(map[string]any, len(n.Cases))
		for key, child := range n.Cases {
			cases[key] = Encode(child)
		}
		out := map[string]any{"type": string(KindSwitch), "value": EncodeValue(n.Value), "cases": cases}
		if n.Default != nil {
			out["default"] = Encode(n.Default)
		}
		return out
	case *For:
		return map[string]any{"type": string(KindFor), "modelPath": n.ModelPath, "schema": Encode(n.Schema)}
	default:
		return nil
	}
}

// EncodeValue converts an expression into its document form.
func EncodeValue(value logic.Value) any {
	switch v := value.(type) {
	case logic.Literal:
		return v.V
	case logic.FromModel:
		return map[string]any{KeyModelPath: v.Path}
	case logic.Builder:
		actions := make([]any, len(v.Actions))
		for idx, step := range v.Actions {
			actions[idx] = []any{string(step.From), step.Command, encodeValues(step.Args), string(step.To)}
		}
		return map[string]any{KeyBuildFrom: EncodeValue(v.From), KeyActions: actions}
	default:
		return nil
	}
}

func encodeValues(values []logic.Value) []any {
	out := make([]any, len(values))
	for idx, value := range values {
		out[idx] = EncodeValue(value)
	}
	return out
}

func encodeValueMap(values map[string]logic.Value) map[string]any {
	out := make(map[string]any, len(values))
	for key, value := range values {
		out[key] = EncodeValue(value)
	}
	return out
}

func encodeSpec(spec validation.Spec) map[string]any {
	out := map[string]any{"type": spec.Type, "message": spec.Message, "level": string(spec.Level)}
	if spec.RunOnEmpty {
		out["runOnEmpty"] = true
	}
	if spec.Params != nil {
		out["params"] = encodeValueMap(spec.Params)
	}
	return out
}
