// Package schema defines the author-facing form tree: structural levels,
// bound fields and the logical blocks (if, elif, switch, for) that make a
// form react to its model. Trees are built in code with the constructors in
// this package or decoded from JSON/YAML documents.
package schema

import (
	"github.com/goliatone/go-formtree/pkg/logic"
	"github.com/goliatone/go-formtree/pkg/validation"
)

// Kind tags a schema node.
type Kind string

const (
	KindLevel  Kind = "level"
	KindField  Kind = "field"
	KindIf     Kind = "if"
	KindElif   Kind = "elif"
	KindSwitch Kind = "switch"
	KindFor    Kind = "for"
)

// Node is one of *Level, *Field, *If, *Elif, *Switch or *For.
type Node interface {
	Kind() Kind
	node()
}

// Level groups children. Context is opaque to the engine and handed to
// renderers untouched.
type Level struct {
	Level     string
	Context   any
	ClassList []logic.Value
	Children  []Node
}

// Widget names the renderer of a field and its parameters.
type Widget struct {
	Type   string
	Params map[string]logic.Value
}

// Field is an input bound to ModelPath, which may contain `$each` when the
// field sits inside a For block.
type Field struct {
	ModelPath  string
	Widget     *Widget
	Validation []validation.Spec
	ClassList  []logic.Value
}

// If routes to Then when Predicate is truthy and to Else (optional)
// otherwise.
type If struct {
	Predicate logic.Value
	Then      Node
	Else      Node
}

// Case is one predicate/branch pair of an Elif block.
type Case struct {
	Predicate logic.Value
	Then      Node
}

// Elif evaluates its cases in order; the first truthy predicate wins.
type Elif struct {
	Elifs []Case
	Else  Node
}

// Switch looks the string form of Value up in Cases and falls back to
// Default.
type Switch struct {
	Value   logic.Value
	Cases   map[string]Node
	Default Node
}

// For repeats Schema once per element of the array at ModelPath.
type For struct {
	ModelPath string
	Schema    Node
}

func (*Level) Kind() Kind  { return KindLevel }
func (*Field) Kind() Kind  { return KindField }
func (*If) Kind() Kind     { return KindIf }
func (*Elif) Kind() Kind   { return KindElif }
func (*Switch) Kind() Kind { return KindSwitch }
func (*For) Kind() Kind    { return KindFor }

func (*Level) node()  {}
func (*Field) node()  {}
func (*If) node()     {}
func (*Elif) node()   {}
func (*Switch) node() {}
func (*For) node()    {}

// NewLevel builds a level.
func NewLevel(level string, children ...Node) *Level {
	return &Level{Level: level, Children: children}
}

// NewField builds a field bound to modelPath rendered by widget.
func NewField(modelPath, widget string, validations ...validation.Spec) *Field {
	field := &Field{ModelPath: modelPath, Validation: validations}
	if widget != "" {
		field.Widget = &Widget{Type: widget}
	}
	return field
}

// NewIf builds an if block; elseNode may be nil.
func NewIf(predicate logic.Value, then, elseNode Node) *If {
	return &If{Predicate: predicate, Then: then, Else: elseNode}
}

// NewFor builds a for block.
func NewFor(modelPath string, template Node) *For {
	return &For{ModelPath: modelPath, Schema: template}
}

// WithParams sets widget params on a field, creating the widget if needed.
func (f *Field) WithParams(params map[string]logic.Value) *Field {
	if f.Widget == nil {
		f.Widget = &Widget{}
	}
	f.Widget.Params = params
	return f
}

// WidgetType returns the widget type or "" for fields without a widget.
func (f *Field) WidgetType() string {
	if f == nil || f.Widget == nil {
		return ""
	}
	return f.Widget.Type
}

// Walk visits node and its descendants depth first. Returning false from
// visit skips the children of that node.
func Walk(node Node, visit func(Node) bool) {
	if node == nil || !visit(node) {
		return
	}
	switch n := node.(type) {
	case *Level:
		for _, child := range n.Children {
			Walk(child, visit)
		}
	case *If:
		Walk(n.Then, visit)
		Walk(n.Else, visit)
	case *Elif:
		for _, c := range n.Elifs {
			Walk(c.Then, visit)
		}
		Walk(n.Else, visit)
	case *Switch:
		for _, key := range sortedKeys(n.Cases) {
			Walk(n.Cases[key], visit)
		}
		Walk(n.Default, visit)
	case *For:
		Walk(n.Schema, visit)
	}
}

// Fields collects every field reachable from node, in document order.
func Fields(node Node) []*Field {
	var out []*Field
	Walk(node, func(n Node) bool {
		if field, ok := n.(*Field); ok {
			out = append(out, field)
		}
		return true
	})
	return out
}
