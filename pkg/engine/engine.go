package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/copystructure"

	"github.com/goliatone/go-formtree/pkg/logic"
	"github.com/goliatone/go-formtree/pkg/modelpath"
	"github.com/goliatone/go-formtree/pkg/resolution"
	"github.com/goliatone/go-formtree/pkg/schema"
	"github.com/goliatone/go-formtree/pkg/validation"
)

// Decorator adjusts a freshly resolved tree before callers see it, e.g. to
// infer missing widgets. *widgets.Registry satisfies it.
type Decorator interface {
	Decorate(tree []resolution.Resolved, model any) error
}

// Option customises a Form.
type Option func(*Form)

// WithLogger routes engine and debug modifier output to logger.
func WithLogger(logger hclog.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithEvaluator injects the evaluator used by every resolver. When omitted one
// is built with the form's logger.
func WithEvaluator(ev *logic.Evaluator) Option {
	return func(f *Form) {
		f.eval = ev
	}
}

// WithCatalog injects the validator catalog.
func WithCatalog(catalog *validation.Catalog) Option {
	return func(f *Form) {
		f.catalog = catalog
	}
}

// WithDecorators registers decorators run against every resolved tree, in
// order.
func WithDecorators(decorators ...Decorator) Option {
	return func(f *Form) {
		if len(decorators) == 0 {
			return
		}
		f.decorators = append(f.decorators, decorators...)
	}
}

// WithSchemaTransformer registers a Transformer that rewrites a private copy
// of the schema before it is prepared.
func WithSchemaTransformer(t Transformer) Option {
	return func(f *Form) {
		f.transformer = t
	}
}

// WithModel sets the initial model snapshot.
func WithModel(model any) Option {
	return func(f *Form) {
		f.model = model
	}
}

// Form is one editing session: a prepared schema, the current model snapshot
// and the bookkeeping a renderer needs between edits. A Form is safe for use
// by one renderer at a time.
type Form struct {
	mu          sync.Mutex
	logger      hclog.Logger
	eval        *logic.Evaluator
	catalog     *validation.Catalog
	decorators  []Decorator
	transformer Transformer

	schema  schema.Node
	root    resolution.Prepared
	model   any
	touched map[string]bool
}

// New prepares node for a session. Structural schema problems are reported
// together.
func New(ctx context.Context, node schema.Node, options ...Option) (*Form, error) {
	if ctx == nil {
		return nil, errors.New("engine: context is required")
	}
	f := &Form{
		logger:  hclog.NewNullLogger(),
		touched: make(map[string]bool),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(f)
	}
	if f.eval == nil {
		f.eval = logic.New(logic.WithLogger(f.logger.Named("logic")))
	}
	if f.catalog == nil {
		f.catalog = validation.DefaultCatalog()
	}

	if f.transformer != nil {
		copied, err := copySchema(node)
		if err != nil {
			return nil, err
		}
		if err := f.transformer.Transform(ctx, copied); err != nil {
			return nil, fmt.Errorf("engine: transform schema: %w", err)
		}
		node = copied
	}

	root, err := resolution.Prepare(node,
		resolution.WithEvaluator(f.eval),
		resolution.WithCatalog(f.catalog),
		resolution.WithLogger(f.logger.Named("resolution")),
	)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	f.schema = node
	f.root = root
	return f, nil
}

func copySchema(node schema.Node) (schema.Node, error) {
	copied, err := copystructure.Copy(node)
	if err != nil {
		return nil, fmt.Errorf("engine: copy schema: %w", err)
	}
	out, ok := copied.(schema.Node)
	if !ok {
		return nil, fmt.Errorf("engine: copy schema: unexpected %T", copied)
	}
	return out, nil
}

// Schema returns the schema the form was prepared from. When a transformer
// is configured this is the transformed copy.
func (f *Form) Schema() schema.Node { return f.schema }

// Prepared exposes the prepared tree.
func (f *Form) Prepared() resolution.Prepared { return f.root }

// Model returns the current model snapshot.
func (f *Form) Model() any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.model
}

// Replace swaps the model snapshot and forgets which paths were edited.
func (f *Form) Replace(model any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.model = model
	f.touched = make(map[string]bool)
}

// Update stores value at the concrete modelPath, producing a new snapshot.
// Earlier snapshots returned by Model are left untouched.
func (f *Form) Update(modelPath string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	next, err := modelpath.SetPath(f.model, modelPath, value)
	if err != nil {
		return fmt.Errorf("engine: update %q: %w", modelPath, err)
	}
	f.model = next
	f.touched[modelPath] = true
	f.logger.Debug("model updated", "path", modelPath)
	return nil
}

// OnChange adapts Update to the renderer callback shape. Update failures are
// logged.
func (f *Form) OnChange() func(modelPath string, value any) {
	return func(modelPath string, value any) {
		if err := f.Update(modelPath, value); err != nil {
			f.logger.Warn("rejected model update", "path", modelPath, "error", err)
		}
	}
}

// Touched lists the paths edited since the last Replace.
func (f *Form) Touched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.touched))
	for path := range f.touched {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// Resolve resolves the schema against the current model and runs the
// decorators.
func (f *Form) Resolve() ([]resolution.Resolved, error) {
	model := f.Model()
	return f.resolve(model)
}

func (f *Form) resolve(model any) ([]resolution.Resolved, error) {
	tree, err := resolution.Resolve(f.root, model)
	if err != nil {
		return nil, fmt.Errorf("engine: resolve: %w", err)
	}
	for _, decorator := range f.decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(tree, model); err != nil {
			return nil, fmt.Errorf("engine: decorate tree: %w", err)
		}
	}
	if f.logger.IsTrace() {
		stats := resolution.TotalStats(f.root)
		f.logger.Trace("tree resolved", "nodes", len(tree), "hits", stats.Hits, "misses", stats.Misses)
	}
	return tree, nil
}

// Report is the validation outcome of one model snapshot.
type Report struct {
	Results map[string]validation.Result `json:"results"`
	Summary validation.Summary           `json:"summary"`
}

// Validate resolves the current model and runs every collected validator.
// Messages of validators without runOnEmpty are reported for edited paths, or
// for every path when submit is true. The summary always counts every path.
func (f *Form) Validate(submit bool) (Report, error) {
	f.mu.Lock()
	model := f.model
	touched := make(map[string]bool, len(f.touched))
	for path := range f.touched {
		touched[path] = true
	}
	f.mu.Unlock()

	tree, err := f.resolve(model)
	if err != nil {
		return Report{}, err
	}
	bound := resolution.CollectValidators(tree).Bind(model)

	report := Report{Results: make(map[string]validation.Result, len(bound))}
	for path, curried := range bound {
		report.Results[path] = curried(submit || touched[path])
	}
	report.Summary = validation.Validity(bound)
	return report, nil
}

// Stats sums the cache counters of the prepared tree.
func (f *Form) Stats() resolution.Stats {
	return resolution.TotalStats(f.root)
}
