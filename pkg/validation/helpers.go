package validation

import (
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/goliatone/go-formtree/internal/coerce"
)

// Req is the emptiness check behind required and the skip gate of most other
// validators. Boolean false counts as present.
func Req(value any) bool {
	if value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return true
	case time.Time:
		return !v.IsZero()
	case *time.Time:
		return v != nil && !v.IsZero()
	}
	if list, ok := coerce.Slice(value); ok {
		return len(list) > 0
	}
	if obj, ok := coerce.Object(value); ok {
		return len(obj) > 0
	}
	return len(coerce.String(value)) > 0
}

// Len measures lists by element count, objects by key count and everything
// else by the rune length of its string form.
func Len(value any) int {
	if list, ok := coerce.Slice(value); ok {
		return len(list)
	}
	if obj, ok := coerce.Object(value); ok {
		return len(obj)
	}
	return utf8.RuneCountInString(coerce.String(value))
}

// Regex builds a predicate that passes empty values and otherwise matches
// the string form against re.
func Regex(re *regexp.Regexp) Predicate {
	return func(value any) bool {
		return !Req(value) || re.MatchString(coerce.String(value))
	}
}
