package logic

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-formtree/internal/coerce"
	"github.com/goliatone/go-formtree/pkg/modelpath"
)

var (
	// ErrValueUndefined matches every error raised because an expression ran
	// off the edge of defined data. These are recoverable via ResolveSoft.
	ErrValueUndefined = errors.New("logic: value undefined")

	// ErrUnknownCommand is returned when a chain names a command the basic
	// type does not provide.
	ErrUnknownCommand = errors.New("logic: unknown command")
)

// ModelValueUndefinedError reports a model reference that resolved to nil.
type ModelValueUndefinedError struct {
	Path     string
	Context  modelpath.Context
	Resolved string
}

func (e *ModelValueUndefinedError) Error() string {
	return fmt.Sprintf("logic: value resolution failed: property on the model is undefined; resolved path: %s", e.Resolved)
}

func (e *ModelValueUndefinedError) Is(target error) bool {
	return target == ErrValueUndefined
}

// ModifierValueUndefinedError reports a chain step whose result was nil.
type ModifierValueUndefinedError struct {
	From     BasicType
	Command  string
	Value    any
	Args     []any
	Expected BasicType
	Cause    error
}

func (e *ModifierValueUndefinedError) Error() string {
	args := make([]string, len(e.Args))
	for i, arg := range e.Args {
		raw, err := json.Marshal(arg)
		if err != nil {
			args[i] = coerce.String(arg)
			continue
		}
		args[i] = string(raw)
	}
	msg := fmt.Sprintf("logic: value resolution failed: modifier chain led to undefined; on type %q executed command %q as (%s, ...[%s]), expecting %s",
		e.From, e.Command, coerce.String(e.Value), strings.Join(args, ", "), e.Expected)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ModifierValueUndefinedError) Is(target error) bool {
	return target == ErrValueUndefined
}

func (e *ModifierValueUndefinedError) Unwrap() error {
	return e.Cause
}

// ChainTypeError is a schema authoring error: a step declared for a type the
// running value does not have. Value is set when the running value itself
// did not fit, with Got holding its inferred type. It is never suppressed by
// ResolveSoft.
type ChainTypeError struct {
	Index    int
	Command  string
	Expected BasicType
	Got      BasicType
	Value    any
}

func (e *ChainTypeError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("logic: modifier chain is invalid: expected command for type %q, received for type %q at action #%d", e.Expected, e.Got, e.Index)
	}
	if e.Got != "" {
		return fmt.Sprintf("logic: modifier chain is invalid: %s value cannot be used as %q by %q at action #%d", e.Got, e.Expected, e.Command, e.Index)
	}
	return fmt.Sprintf("logic: modifier chain is invalid: value %T cannot be used as %q by %q at action #%d", e.Value, e.Expected, e.Command, e.Index)
}

// IsUndefined reports whether err is a recoverable undefined-value error.
func IsUndefined(err error) bool {
	return errors.Is(err, ErrValueUndefined)
}
