package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// ErrOperationNotFound is returned by Document.Operation for unknown ids.
var ErrOperationNotFound = errors.New("openapi: operation not found")

// ParseOption configures Parse.
type ParseOption func(*parseConfig)

type parseConfig struct {
	validate     bool
	externalRefs bool
}

// WithValidation toggles document validation. Enabled by default.
func WithValidation(enabled bool) ParseOption {
	return func(cfg *parseConfig) {
		cfg.validate = enabled
	}
}

// WithExternalRefs allows $ref pointers to other documents.
func WithExternalRefs(enabled bool) ParseOption {
	return func(cfg *parseConfig) {
		cfg.externalRefs = enabled
	}
}

// Document is a parsed OpenAPI document with its references resolved.
type Document struct {
	spec *openapi3.T
}

// Parse loads raw (JSON or YAML) into a Document.
func Parse(ctx context.Context, raw []byte, opts ...ParseOption) (*Document, error) {
	cfg := parseConfig{validate: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = cfg.externalRefs

	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if cfg.validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}
	if spec.Paths == nil || spec.Paths.Len() == 0 {
		return nil, errors.New("openapi: document does not contain any paths")
	}
	return &Document{spec: spec}, nil
}

// Title returns info.title, or "" when absent.
func (d *Document) Title() string {
	if d == nil || d.spec == nil || d.spec.Info == nil {
		return ""
	}
	return d.spec.Info.Title
}

// Operation is a single method on a path.
type Operation struct {
	ID          string
	Method      string
	Path        string
	Summary     string
	Description string

	op *openapi3.Operation
}

// HasRequestBody reports whether the operation accepts a body.
func (o Operation) HasRequestBody() bool {
	return o.op != nil && o.op.RequestBody != nil && o.op.RequestBody.Value != nil
}

// Operations lists every operation sorted by id. Operations without an
// operationId get "<method>:<path>".
func (d *Document) Operations() []Operation {
	if d == nil || d.spec == nil || d.spec.Paths == nil {
		return nil
	}
	var out []Operation
	for path, item := range d.spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil {
				continue
			}
			id := op.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			out = append(out, Operation{
				ID:          id,
				Method:      strings.ToUpper(method),
				Path:        path,
				Summary:     op.Summary,
				Description: op.Description,
				op:          op,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Operation finds an operation by id.
func (d *Document) Operation(id string) (Operation, error) {
	for _, op := range d.Operations() {
		if op.ID == id {
			return op, nil
		}
	}
	return Operation{}, fmt.Errorf("%w: %s", ErrOperationNotFound, id)
}
