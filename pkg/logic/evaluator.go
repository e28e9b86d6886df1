package logic

import (
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/goliatone/go-formtree/pkg/modelpath"
)

// ReadObserver is notified of every model read performed while resolving a
// value: the context-resolved path segments and the value found there.
type ReadObserver func(segments []string, value any)

// Option customises an Evaluator.
type Option func(*Evaluator)

// WithLogger routes debug modifier output to logger.
func WithLogger(logger hclog.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the source of the current instant used by the "now"
// date sentinel.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// Evaluator resolves Value expressions against a model. The zero value is not
// usable; construct one with New. An Evaluator holds no per-call state and can
// be shared by every node of a prepared tree.
type Evaluator struct {
	logger  hclog.Logger
	now     func() time.Time
	observe ReadObserver
}

var defaultEvaluator = New()

// New builds an evaluator. Without options it logs nowhere and uses the wall
// clock.
func New(options ...Option) *Evaluator {
	e := &Evaluator{
		logger: hclog.NewNullLogger(),
		now:    time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	return e
}

// Default returns the evaluator used by the package level helpers.
func Default() *Evaluator { return defaultEvaluator }

// Observing returns a copy of e that reports model reads to fn.
func (e *Evaluator) Observing(fn ReadObserver) *Evaluator {
	out := *e.orDefault()
	out.observe = fn
	return &out
}

// Logger exposes the configured logger.
func (e *Evaluator) Logger() hclog.Logger { return e.orDefault().logger }

// Now returns the evaluator's notion of the current instant.
func (e *Evaluator) Now() time.Time { return e.orDefault().now() }

func (e *Evaluator) orDefault() *Evaluator {
	if e == nil {
		return defaultEvaluator
	}
	return e
}

// Lookup reads path from model after `$each` substitution, notifying the
// observer. Missing values are nil.
func (e *Evaluator) Lookup(path string, model any, ctx modelpath.Context) any {
	e = e.orDefault()
	segments := modelpath.ResolveContextPath(path, ctx)
	value := modelpath.Get(model, segments)
	if e.observe != nil {
		e.observe(segments, value)
	}
	return value
}

// Resolve evaluates v. Undefined model values and chains that produce nil
// return errors matching ErrValueUndefined.
func (e *Evaluator) Resolve(v Value, model any, ctx modelpath.Context) (any, error) {
	e = e.orDefault()
	switch typed := v.(type) {
	case nil:
		return nil, nil
	case Literal:
		return typed.V, nil
	case FromModel:
		result := e.Lookup(typed.Path, model, ctx)
		if result == nil {
			return nil, &ModelValueUndefinedError{
				Path:     typed.Path,
				Context:  ctx,
				Resolved: modelpath.ContextPath(typed.Path, ctx),
			}
		}
		return result, nil
	case Builder:
		initial, err := e.Resolve(typed.From, model, ctx)
		if err != nil {
			return nil, err
		}
		return e.ApplyChain(initial, typed.Actions, model, ctx)
	default:
		return nil, fmt.Errorf("logic: unsupported value %T", v)
	}
}

// ResolveSoft is Resolve for call sites evaluating conditions: undefined
// values yield (nil, nil) instead of an error. Chain type errors and other
// schema problems are still returned.
func (e *Evaluator) ResolveSoft(v Value, model any, ctx modelpath.Context) (any, error) {
	value, err := e.Resolve(v, model, ctx)
	if err != nil {
		if errors.Is(err, ErrValueUndefined) {
			return nil, nil
		}
		return nil, err
	}
	return value, nil
}

// ResolveAll resolves every value of a map, failing on the first error.
func (e *Evaluator) ResolveAll(values map[string]Value, model any, ctx modelpath.Context) (map[string]any, error) {
	if values == nil {
		return nil, nil
	}
	out := make(map[string]any, len(values))
	for key, value := range values {
		resolved, err := e.Resolve(value, model, ctx)
		if err != nil {
			return nil, fmt.Errorf("logic: resolve %q: %w", key, err)
		}
		out[key] = resolved
	}
	return out, nil
}

// Resolve evaluates v with the default evaluator.
func Resolve(v Value, model any, ctx modelpath.Context) (any, error) {
	return defaultEvaluator.Resolve(v, model, ctx)
}

// ResolveSoft evaluates v with the default evaluator in soft mode.
func ResolveSoft(v Value, model any, ctx modelpath.Context) (any, error) {
	return defaultEvaluator.ResolveSoft(v, model, ctx)
}
