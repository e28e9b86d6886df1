package logic

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/goliatone/go-formtree/internal/coerce"
	"github.com/goliatone/go-formtree/internal/dates"
	"github.com/goliatone/go-formtree/pkg/modelpath"
)

// ErrInvalidArgument is returned when a chain step receives an argument of
// the wrong shape.
var ErrInvalidArgument = errors.New("logic: invalid argument")

// ApplyChain folds chain over initial. Each step after the first must be
// declared for the type the previous step declared as its output; the
// running value is checked against the declared type before the command
// runs. Arguments are resolved against model and ctx, and failures there
// abort the whole chain.
func (e *Evaluator) ApplyChain(initial any, chain Chain, model any, ctx modelpath.Context) (any, error) {
	e = e.orDefault()
	value := initial
	var running BasicType
	for i, step := range chain {
		if i > 0 && step.From != running {
			return nil, &ChainTypeError{Index: i, Command: step.Command, Expected: running, Got: step.From}
		}

		args := make([]any, len(step.Args))
		for idx, arg := range step.Args {
			resolved, err := e.Resolve(arg, model, ctx)
			if err != nil {
				return nil, err
			}
			args[idx] = resolved
		}

		next, err := e.applyStep(i, step, value, args)
		if err != nil {
			return nil, err
		}
		if next == nil {
			return nil, &ModifierValueUndefinedError{
				From:     step.From,
				Command:  step.Command,
				Value:    value,
				Args:     args,
				Expected: step.To,
			}
		}
		value = next
		running = step.To
	}
	return value, nil
}

// ApplyChain folds chain with the default evaluator.
func ApplyChain(initial any, chain Chain, model any, ctx modelpath.Context) (any, error) {
	return defaultEvaluator.ApplyChain(initial, chain, model, ctx)
}

func (e *Evaluator) applyStep(index int, step Step, value any, args []any) (any, error) {
	if value == nil {
		return nil, nil
	}
	mismatch := &ChainTypeError{Index: index, Command: step.Command, Expected: step.From, Value: value}
	if got, ok := TypeOf(value); ok {
		mismatch.Got = got
	}
	op := operation{eval: e, step: step, args: args}

	switch step.From {
	case TypeBoolean:
		b, ok := value.(bool)
		if !ok {
			return nil, mismatch
		}
		return op.boolean(b)
	case TypeNumber:
		n, ok := coerce.Number(value)
		if !ok {
			return nil, mismatch
		}
		return op.number(n)
	case TypeString:
		s, ok := value.(string)
		if !ok {
			return nil, mismatch
		}
		return op.string(s)
	case TypeArray:
		list, ok := coerce.Slice(value)
		if !ok {
			return nil, mismatch
		}
		return op.array(list)
	case TypeObject:
		obj, ok := coerce.Object(value)
		if !ok {
			return nil, mismatch
		}
		return op.object(obj)
	case TypeDate:
		switch value.(type) {
		case string, time.Time, *time.Time:
		default:
			return nil, mismatch
		}
		// strings become dates only when a date step consumes them
		t, err := dates.Parse(value, e.now)
		if err != nil {
			return nil, &ModifierValueUndefinedError{
				From:     step.From,
				Command:  step.Command,
				Value:    value,
				Args:     args,
				Expected: step.To,
				Cause:    err,
			}
		}
		return op.date(t)
	default:
		return nil, fmt.Errorf("logic: action #%d declares unknown type %q: %w", index, step.From, ErrUnknownCommand)
	}
}

// operation carries one step invocation through the per-type command tables.
type operation struct {
	eval *Evaluator
	step Step
	args []any
}

func (o operation) unknown() error {
	return fmt.Errorf("%w %q for type %q", ErrUnknownCommand, o.step.Command, o.step.From)
}

func (o operation) arity(n int) error {
	if len(o.args) < n {
		return fmt.Errorf("%w: %s.%s expects %d argument(s), got %d", ErrInvalidArgument, o.step.From, o.step.Command, n, len(o.args))
	}
	return nil
}

func (o operation) argError(idx int, want string) error {
	var got any
	if idx < len(o.args) {
		got = o.args[idx]
	}
	return fmt.Errorf("%w: %s.%s argument #%d must be %s, got %T", ErrInvalidArgument, o.step.From, o.step.Command, idx, want, got)
}

func (o operation) boolArg(idx int) (bool, error) {
	if err := o.arity(idx + 1); err != nil {
		return false, err
	}
	b, ok := o.args[idx].(bool)
	if !ok {
		return false, o.argError(idx, "a boolean")
	}
	return b, nil
}

func (o operation) numberArg(idx int) (float64, error) {
	if err := o.arity(idx + 1); err != nil {
		return 0, err
	}
	n, ok := coerce.Number(o.args[idx])
	if !ok {
		return 0, o.argError(idx, "a number")
	}
	return n, nil
}

func (o operation) intArg(idx int) (int, error) {
	n, err := o.numberArg(idx)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (o operation) stringArg(idx int) (string, error) {
	if err := o.arity(idx + 1); err != nil {
		return "", err
	}
	s, ok := o.args[idx].(string)
	if !ok {
		return "", o.argError(idx, "a string")
	}
	return s, nil
}

func (o operation) stepArg(idx int) (dates.Step, error) {
	raw, err := o.stringArg(idx)
	if err != nil {
		return "", err
	}
	step, err := dates.ParseStep(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return step, nil
}

// debug logs value through the evaluator logger and passes it on unchanged.
// Arguments are (level, tag); level is one of debug, log, info, warn, error.
func (o operation) debug(value any) (any, error) {
	level := "debug"
	tag := ""
	if len(o.args) > 0 {
		if s, ok := o.args[0].(string); ok {
			level = s
		}
	}
	if len(o.args) > 1 {
		tag = coerce.String(o.args[1])
	}

	logger := o.eval.logger
	if logger == nil {
		return value, nil
	}
	msg := "modifier chain value"
	if tag != "" {
		msg = tag
	}
	logger.Log(debugLevel(level), msg, "type", string(o.step.From), "value", value)
	return value, nil
}

func debugLevel(raw string) hclog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "error":
		return hclog.Error
	case "warn":
		return hclog.Warn
	case "log", "info":
		return hclog.Info
	case "trace":
		return hclog.Trace
	default:
		return hclog.Debug
	}
}
