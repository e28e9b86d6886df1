package modelpath

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/goliatone/go-formtree/internal/coerce"
)

// MaxListGrowth caps how many elements a single Set may add to a list.
// Writing further past the end fails with ErrIndexOutOfRange.
const MaxListGrowth = 1024

// ErrIndexOutOfRange is returned when an index is too far past the end of a
// list.
var ErrIndexOutOfRange = errors.New("modelpath: index out of range")

// Set returns a copy of model with value stored at segments. Only the maps
// and lists along the path are copied; untouched subtrees are shared with the
// original, which is left unmodified. Missing intermediates are created as
// maps, or as lists when the next segment is an index.
func Set(model any, segments []string, value any) (any, error) {
	if len(segments) == 0 {
		return value, nil
	}
	segment := segments[0]
	rest := segments[1:]

	switch {
	case model == nil:
		if idx, err := strconv.Atoi(segment); err == nil && idx >= 0 {
			return setIndex(nil, idx, rest, value)
		}
		return setKey(nil, segment, rest, value)
	case coerce.IsObject(model):
		obj, _ := coerce.Object(model)
		return setKey(obj, segment, rest, value)
	case coerce.IsSlice(model):
		list, _ := coerce.Slice(model)
		idx, err := strconv.Atoi(segment)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("modelpath: segment %q is not a list index", segment)
		}
		return setIndex(list, idx, rest, value)
	default:
		return nil, fmt.Errorf("modelpath: cannot set %q inside %T", segment, model)
	}
}

// SetPath is Set for a dotted path that has already been context-resolved.
func SetPath(model any, path string, value any) (any, error) {
	return Set(model, Segments(path), value)
}

func setKey(obj map[string]any, key string, rest []string, value any) (any, error) {
	next, err := Set(obj[key], rest, value)
	if err != nil {
		return nil, fmt.Errorf("modelpath: %s: %w", key, err)
	}
	out := make(map[string]any, len(obj)+1)
	for k, v := range obj {
		out[k] = v
	}
	out[key] = next
	return out, nil
}

func setIndex(list []any, idx int, rest []string, value any) (any, error) {
	if idx-len(list) >= MaxListGrowth {
		return nil, fmt.Errorf("%w: %d with length %d", ErrIndexOutOfRange, idx, len(list))
	}
	var current any
	if idx < len(list) {
		current = list[idx]
	}
	next, err := Set(current, rest, value)
	if err != nil {
		return nil, fmt.Errorf("modelpath: %d: %w", idx, err)
	}
	size := len(list)
	if idx >= size {
		size = idx + 1
	}
	out := make([]any, size)
	copy(out, list)
	out[idx] = next
	return out, nil
}
