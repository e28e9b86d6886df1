package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/goliatone/go-formtree/pkg/logic"
	"github.com/goliatone/go-formtree/pkg/validation"
)

// Document keys that turn an object into an expression instead of a literal.
const (
	KeyModelPath = "_modelPath"
	KeyBuildFrom = "_buildFrom"
	KeyActions   = "_actions"
)

// Decode converts a generic document tree (as produced by JSON or YAML
// decoders) into schema nodes. Every problem found is reported; the error is
// a *multierror.Error of *Issue values. Decoded trees are also checked with
// Validate.
func Decode(raw any) (Node, error) {
	d := &decoder{}
	node := d.node(raw, "")
	if err := d.errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	if err := Validate(node); err != nil {
		return nil, err
	}
	return node, nil
}

// DecodeValue converts a document value into an expression. Objects whose
// only key is _modelPath are model references; objects with exactly the keys
// _buildFrom and _actions are modifier chains; anything else is a literal.
func DecodeValue(raw any) (logic.Value, error) {
	d := &decoder{}
	value := d.value(raw, "")
	if err := d.errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return value, nil
}

// DecodeSpec converts a document object into a validator spec.
func DecodeSpec(raw any) (validation.Spec, error) {
	d := &decoder{}
	spec, _ := d.spec(raw, "")
	if err := d.errs.ErrorOrNil(); err != nil {
		return validation.Spec{}, err
	}
	return spec, nil
}

type decoder struct {
	errs *multierror.Error
}

func (d *decoder) fail(path, format string, args ...any) {
	d.errs = multierror.Append(d.errs, issuef(path, format, args...))
}

func (d *decoder) object(raw any, path string) (map[string]any, bool) {
	obj, ok := asObject(raw)
	if !ok {
		d.fail(path, "expected an object, got %s", describe(raw))
	}
	return obj, ok
}

func (d *decoder) node(raw any, path string) Node {
	obj, ok := d.object(raw, path)
	if !ok {
		return nil
	}
	kind, _ := obj["type"].(string)
	switch Kind(strings.TrimSpace(kind)) {
	case KindLevel:
		level := &Level{
			Level:     d.optionalString(obj, "level", path),
			Context:   obj["context"],
			ClassList: d.values(obj["classList"], join(path, "classList")),
		}
		children, _ := d.list(obj["children"], join(path, "children"), true)
		for idx, child := range children {
			level.Children = append(level.Children, d.node(child, join(path, "children", strconv.Itoa(idx))))
		}
		return level
	case KindField:
		return d.field(obj, path)
	case KindIf:
		out := &If{
			Predicate: d.requiredValue(obj, "predicate", path),
			Then:      d.child(obj, "then", path, true),
			Else:      d.child(obj, "else", path, false),
		}
		return out
	case KindElif:
		out := &Elif{Else: d.child(obj, "else", path, false)}
		cases, _ := d.list(obj["elifs"], join(path, "elifs"), false)
		for idx, rawCase := range cases {
			casePath := join(path, "elifs", strconv.Itoa(idx))
			caseObj, ok := d.object(rawCase, casePath)
			if !ok {
				continue
			}
			out.Elifs = append(out.Elifs, Case{
				Predicate: d.requiredValue(caseObj, "predicate", casePath),
				Then:      d.child(caseObj, "then", casePath, true),
			})
		}
		return out
	case KindSwitch:
		out := &Switch{
			Value:   d.requiredValue(obj, "value", path),
			Default: d.child(obj, "default", path, false),
		}
		if rawCases, present := obj["cases"]; present {
			cases, ok := d.object(rawCases, join(path, "cases"))
			if ok {
				out.Cases = make(map[string]Node, len(cases))
				for _, key := range sortedKeys(cases) {
					out.Cases[key] = d.node(cases[key], join(path, "cases", key))
				}
			}
		}
		return out
	case KindFor:
		modelPath := d.optionalString(obj, "modelPath", path)
		if modelPath == "" {
			d.fail(join(path, "modelPath"), "model path is required")
		}
		return &For{ModelPath: modelPath, Schema: d.child(obj, "schema", path, true)}
	case "":
		d.fail(join(path, "type"), "node type is required")
	default:
		d.fail(join(path, "type"), "unknown node type %q", kind)
	}
	return nil
}

func (d *decoder) field(obj map[string]any, path string) *Field {
	field := &Field{
		ModelPath: d.optionalString(obj, "modelPath", path),
		ClassList: d.values(obj["classList"], join(path, "classList")),
	}
	switch widget := obj["widget"].(type) {
	case nil:
	case string:
		field.Widget = &Widget{Type: widget}
	default:
		widgetPath := join(path, "widget")
		if wobj, ok := d.object(widget, widgetPath); ok {
			field.Widget = &Widget{
				Type:   d.optionalString(wobj, "type", widgetPath),
				Params: d.valueMap(wobj["params"], join(widgetPath, "params")),
			}
		}
	}
	specs, _ := d.list(obj["validation"], join(path, "validation"), false)
	for idx, rawSpec := range specs {
		specPath := join(path, "validation", strconv.Itoa(idx))
		if spec, ok := d.spec(rawSpec, specPath); ok {
			field.Validation = append(field.Validation, spec)
		}
	}
	return field
}

func (d *decoder) spec(raw any, path string) (validation.Spec, bool) {
	obj, ok := d.object(raw, path)
	if !ok {
		return validation.Spec{}, false
	}
	spec := validation.Spec{
		Type:    d.optionalString(obj, "type", path),
		Message: d.optionalString(obj, "message", path),
	}
	if spec.Type == "" {
		d.fail(join(path, "type"), "validator type is required")
	}
	level, err := validation.ParseLevel(d.optionalString(obj, "level", path))
	if err != nil {
		d.fail(join(path, "level"), "%v", err)
	}
	spec.Level = level
	if rawRun, present := obj["runOnEmpty"]; present && rawRun != nil {
		run, ok := rawRun.(bool)
		if !ok {
			d.fail(join(path, "runOnEmpty"), "expected a boolean, got %s", describe(rawRun))
		}
		spec.RunOnEmpty = run
	}
	if rawParams, present := obj["params"]; present {
		spec.Params = d.valueMap(rawParams, join(path, "params"))
		if spec.Params == nil {
			spec.Params = map[string]logic.Value{}
		}
	}
	return spec, true
}

func (d *decoder) child(obj map[string]any, key, path string, required bool) Node {
	raw, present := obj[key]
	if !present || raw == nil {
		if required {
			d.fail(join(path, key), "%s branch is required", key)
		}
		return nil
	}
	return d.node(raw, join(path, key))
}

func (d *decoder) optionalString(obj map[string]any, key, path string) string {
	raw, present := obj[key]
	if !present || raw == nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		d.fail(join(path, key), "expected a string, got %s", describe(raw))
	}
	return s
}

func (d *decoder) list(raw any, path string, allowMissing bool) ([]any, bool) {
	if raw == nil {
		return nil, allowMissing
	}
	list, ok := raw.([]any)
	if !ok {
		d.fail(path, "expected a list, got %s", describe(raw))
	}
	return list, ok
}

func (d *decoder) requiredValue(obj map[string]any, key, path string) logic.Value {
	raw, present := obj[key]
	if !present {
		d.fail(join(path, key), "%s is required", key)
		return nil
	}
	return d.value(raw, join(path, key))
}

func (d *decoder) values(raw any, path string) []logic.Value {
	list, ok := d.list(raw, path, true)
	if !ok || list == nil {
		return nil
	}
	out := make([]logic.Value, len(list))
	for idx, item := range list {
		out[idx] = d.value(item, join(path, strconv.Itoa(idx)))
	}
	return out
}

func (d *decoder) valueMap(raw any, path string) map[string]logic.Value {
	if raw == nil {
		return nil
	}
	obj, ok := d.object(raw, path)
	if !ok {
		return nil
	}
	out := make(map[string]logic.Value, len(obj))
	for key, item := range obj {
		out[key] = d.value(item, join(path, key))
	}
	return out
}

func (d *decoder) value(raw any, path string) logic.Value {
	obj, ok := asObject(raw)
	if !ok {
		return logic.Lit(raw)
	}
	if len(obj) == 1 {
		if rawPath, present := obj[KeyModelPath]; present {
			p, ok := rawPath.(string)
			if !ok {
				d.fail(join(path, KeyModelPath), "expected a string, got %s", describe(rawPath))
				return nil
			}
			return logic.Model(p)
		}
	}
	if len(obj) == 2 {
		from, hasFrom := obj[KeyBuildFrom]
		actions, hasActions := obj[KeyActions]
		if hasFrom && hasActions {
			return logic.Builder{
				From:    d.value(from, join(path, KeyBuildFrom)),
				Actions: d.chain(actions, join(path, KeyActions)),
			}
		}
	}
	return logic.Lit(raw)
}

func (d *decoder) chain(raw any, path string) logic.Chain {
	steps, ok := d.list(raw, path, false)
	if !ok {
		return nil
	}
	chain := make(logic.Chain, 0, len(steps))
	for idx, rawStep := range steps {
		stepPath := join(path, strconv.Itoa(idx))
		tuple, ok := rawStep.([]any)
		if !ok || len(tuple) != 4 {
			d.fail(stepPath, "expected [from, command, args, to], got %s", describe(rawStep))
			continue
		}
		from, fromErr := d.basicType(tuple[0], join(stepPath, "0"))
		command, _ := tuple[1].(string)
		if command == "" {
			d.fail(join(stepPath, "1"), "command is required")
		}
		to, toErr := d.basicType(tuple[3], join(stepPath, "3"))
		var args []logic.Value
		if tuple[2] != nil {
			rawArgs, ok := tuple[2].([]any)
			if !ok {
				d.fail(join(stepPath, "2"), "expected an argument list, got %s", describe(tuple[2]))
			}
			for argIdx, arg := range rawArgs {
				args = append(args, d.value(arg, join(stepPath, "2", strconv.Itoa(argIdx))))
			}
		}
		if fromErr != nil || toErr != nil {
			continue
		}
		chain = append(chain, logic.Action(from, command, args, to))
	}
	return chain
}

func (d *decoder) basicType(raw any, path string) (logic.BasicType, error) {
	s, _ := raw.(string)
	t, err := logic.ParseBasicType(s)
	if err != nil {
		d.fail(path, "%v", err)
	}
	return t, err
}

func asObject(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case map[string]any:
		return v, true
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = item
		}
		return out, true
	default:
		return nil, false
	}
}

func describe(raw any) string {
	switch raw.(type) {
	case nil:
		return "null"
	case map[string]any, map[any]any:
		return "an object"
	case []any:
		return "a list"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", raw)
	}
}

