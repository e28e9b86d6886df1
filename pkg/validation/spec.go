// Package validation prepares validator specs against a model snapshot and
// aggregates their results per model path.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formtree/pkg/logic"
	"github.com/goliatone/go-formtree/pkg/modelpath"
)

// Level is the severity bucket a failing validator reports into.
type Level string

const (
	LevelError   Level = "error"
	LevelWarn    Level = "warn"
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
)

// Levels lists every level in reporting order.
var Levels = []Level{LevelError, LevelWarn, LevelInfo, LevelSuccess}

// ParseLevel validates a level name. An empty name defaults to error.
func ParseLevel(raw string) (Level, error) {
	switch lvl := Level(strings.TrimSpace(raw)); lvl {
	case "":
		return LevelError, nil
	case LevelError, LevelWarn, LevelInfo, LevelSuccess:
		return lvl, nil
	default:
		return "", fmt.Errorf("validation: unknown level %q", raw)
	}
}

// ErrUnknownValidator is returned when a spec names a validator the catalog
// does not provide.
var ErrUnknownValidator = errors.New("validation: unknown validator")

// Spec is a validator as authored in a schema. Nil Params selects the
// zero-argument form of the validator.
type Spec struct {
	Type       string                 `json:"type" yaml:"type"`
	Message    string                 `json:"message" yaml:"message"`
	Level      Level                  `json:"level" yaml:"level"`
	RunOnEmpty bool                   `json:"runOnEmpty,omitempty" yaml:"runOnEmpty,omitempty"`
	Params     map[string]logic.Value `json:"-" yaml:"-"`
}

// Predicate reports whether a value passes a validator.
type Predicate func(value any) bool

// Prepared is a spec whose params were resolved against a model snapshot.
type Prepared struct {
	Type       string
	Message    string
	Level      Level
	RunOnEmpty bool
	Predicate  Predicate `json:"-"`
}

// Prepare resolves spec params against model and ctx with ev and instantiates
// the validator from the default catalog. Param resolution failures are
// returned as-is.
func Prepare(ev *logic.Evaluator, model any, ctx modelpath.Context, spec Spec) (Prepared, error) {
	return defaultCatalog.Prepare(ev, model, ctx, spec)
}

// PrepareAll prepares specs in order with the default catalog.
func PrepareAll(ev *logic.Evaluator, model any, ctx modelpath.Context, specs []Spec) ([]Prepared, error) {
	return defaultCatalog.PrepareAll(ev, model, ctx, specs)
}

// Prepare resolves spec params and instantiates the named factory.
func (c *Catalog) Prepare(ev *logic.Evaluator, model any, ctx modelpath.Context, spec Spec) (Prepared, error) {
	level, err := ParseLevel(string(spec.Level))
	if err != nil {
		return Prepared{}, err
	}
	factory, ok := c.lookup(spec.Type)
	if !ok {
		return Prepared{}, fmt.Errorf("%w %q", ErrUnknownValidator, spec.Type)
	}

	args := Args{Now: ev.Now}
	if spec.Params != nil {
		params, err := ev.ResolveAll(spec.Params, model, ctx)
		if err != nil {
			return Prepared{}, fmt.Errorf("validation: %s params: %w", spec.Type, err)
		}
		args.Params = params
	}

	predicate, err := factory(args)
	if err != nil {
		return Prepared{}, fmt.Errorf("validation: %s: %w", spec.Type, err)
	}
	return Prepared{
		Type:       spec.Type,
		Message:    spec.Message,
		Level:      level,
		RunOnEmpty: spec.RunOnEmpty,
		Predicate:  predicate,
	}, nil
}

// PrepareAll prepares specs in order, failing on the first error.
func (c *Catalog) PrepareAll(ev *logic.Evaluator, model any, ctx modelpath.Context, specs []Spec) ([]Prepared, error) {
	if specs == nil {
		return nil, nil
	}
	out := make([]Prepared, 0, len(specs))
	for _, spec := range specs {
		prepared, err := c.Prepare(ev, model, ctx, spec)
		if err != nil {
			return nil, err
		}
		out = append(out, prepared)
	}
	return out, nil
}
