package logic

import (
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-formtree/internal/coerce"
)

// BasicType is the type universe modifiers and validators dispatch on.
type BasicType string

const (
	TypeBoolean BasicType = "boolean"
	TypeNumber  BasicType = "number"
	TypeString  BasicType = "string"
	TypeArray   BasicType = "array"
	TypeDate    BasicType = "date"
	TypeObject  BasicType = "object"
)

// ParseBasicType validates a basic type name.
func ParseBasicType(raw string) (BasicType, error) {
	switch t := BasicType(strings.TrimSpace(raw)); t {
	case TypeBoolean, TypeNumber, TypeString, TypeArray, TypeDate, TypeObject:
		return t, nil
	default:
		return "", fmt.Errorf("logic: unknown basic type %q", raw)
	}
}

// TypeOf infers the basic type of a model value. Unknown shapes report false.
func TypeOf(value any) (BasicType, bool) {
	switch value.(type) {
	case nil:
		return "", false
	case bool:
		return TypeBoolean, true
	case string:
		return TypeString, true
	case time.Time, *time.Time:
		return TypeDate, true
	}
	if _, ok := coerce.Number(value); ok {
		return TypeNumber, true
	}
	if coerce.IsSlice(value) {
		return TypeArray, true
	}
	if coerce.IsObject(value) {
		return TypeObject, true
	}
	return "", false
}

// Value is an expression producing a concrete value against a model: a
// Literal, a FromModel reference or a Builder applying a modifier chain.
type Value interface {
	isValue()
}

// Literal is a constant. Its V is returned unchanged, including nil and maps.
type Literal struct {
	V any
}

// FromModel reads the value at Path (which may contain `$each`).
type FromModel struct {
	Path string
}

// Builder resolves From and folds Actions over the result.
type Builder struct {
	From    Value
	Actions Chain
}

func (Literal) isValue()   {}
func (FromModel) isValue() {}
func (Builder) isValue()   {}

// Lit wraps a constant.
func Lit(v any) Value { return Literal{V: v} }

// Model references a model path.
func Model(path string) Value { return FromModel{Path: path} }

// Build starts a modifier chain from a base value.
func Build(from Value, actions ...Step) Value {
	return Builder{From: from, Actions: Chain(actions)}
}

// Step is one link of a modifier chain: a command declared for values of
// type From, producing a value of type To.
type Step struct {
	From    BasicType
	Command string
	Args    []Value
	To      BasicType
}

// Chain is an ordered list of steps.
type Chain []Step

// Action builds a step in the order authors write chain tuples:
// [from, command, args, to].
func Action(from BasicType, command string, args []Value, to BasicType) Step {
	return Step{From: from, Command: command, Args: args, To: to}
}

// Lits wraps constants as literal values, handy for chain arguments.
func Lits(values ...any) []Value {
	out := make([]Value, len(values))
	for i, v := range values {
		out[i] = Lit(v)
	}
	return out
}
