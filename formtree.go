// Package formtree is the single-import entry point: load a schema, open a
// form session over a model, scaffold schemas from OpenAPI operations and
// render resolved trees as HTML.
package formtree

import (
	"context"
	"fmt"

	"github.com/goliatone/go-formtree/pkg/engine"
	"github.com/goliatone/go-formtree/pkg/logic"
	"github.com/goliatone/go-formtree/pkg/openapi"
	"github.com/goliatone/go-formtree/pkg/renderers/html"
	"github.com/goliatone/go-formtree/pkg/resolution"
	"github.com/goliatone/go-formtree/pkg/schema"
	"github.com/goliatone/go-formtree/pkg/widgets"
)

type (
	// Form is a resolution session over one schema and model.
	Form = engine.Form
	// Option configures a Form.
	Option = engine.Option
	// Node is a schema node.
	Node = schema.Node
	// Value is a value expression.
	Value = logic.Value
	// Resolved is a resolved level or field.
	Resolved = resolution.Resolved
	// Scaffold is a schema and default model generated from an operation.
	Scaffold = openapi.Scaffold
)

// NewForm opens a form over node. The default widget registry decorates
// fields that do not name a widget.
func NewForm(ctx context.Context, node Node, options ...Option) (*Form, error) {
	opts := append([]Option{engine.WithDecorators(widgets.NewRegistry[string]())}, options...)
	return engine.New(ctx, node, opts...)
}

// LoadForm reads a JSON or YAML schema document from disk and opens a form.
func LoadForm(ctx context.Context, path string, options ...Option) (*Form, error) {
	node, err := schema.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return NewForm(ctx, node, options...)
}

// ScaffoldOperation loads an OpenAPI document and scaffolds the request body
// of operationID.
func ScaffoldOperation(ctx context.Context, src openapi.Source, operationID string, options ...openapi.LoaderOption) (Scaffold, error) {
	raw, err := openapi.Load(ctx, src, options...)
	if err != nil {
		return Scaffold{}, err
	}
	doc, err := openapi.Parse(ctx, raw)
	if err != nil {
		return Scaffold{}, err
	}
	op, err := doc.Operation(operationID)
	if err != nil {
		return Scaffold{}, err
	}
	return op.Scaffold()
}

// GenerateHTML scaffolds operationID from src and renders it with its
// default values filled in.
func GenerateHTML(ctx context.Context, src openapi.Source, operationID string, options ...html.Option) ([]byte, error) {
	scaffold, err := ScaffoldOperation(ctx, src, operationID)
	if err != nil {
		return nil, err
	}
	form, err := NewForm(ctx, scaffold.Schema, engine.WithModel(scaffold.Model))
	if err != nil {
		return nil, fmt.Errorf("formtree: %s: %w", operationID, err)
	}
	return RenderHTML(ctx, form, false, options...)
}

// RenderHTML renders form's current state. submit shows every validation
// message instead of only those of touched fields.
func RenderHTML(ctx context.Context, form *Form, submit bool, options ...html.Option) ([]byte, error) {
	renderer, err := html.New(options...)
	if err != nil {
		return nil, err
	}
	return renderer.RenderForm(ctx, form, submit)
}
