// Package modelpath resolves dot-separated model paths against a model value.
//
// Paths address nested maps by key and lists by decimal index ("list.3.name").
// Inside repeated schema sections a path may use the placeholder `$each`
// instead of an index; the active Context supplies the index for each
// repetition so `items.$each.name` resolves to `items.2.name` while the third
// element is being resolved.
package modelpath

import (
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-formtree/internal/coerce"
)

// Each is the placeholder segment substituted with a repetition index.
const Each = "$each"

// Split records which index is active for one repeated array.
type Split struct {
	SplitPoint string `json:"splitPoint" yaml:"splitPoint"`
	Index      int    `json:"index" yaml:"index"`
}

// Context is the stack of active repetitions, outermost first.
type Context []Split

// With returns a new context with split appended. The receiver is never
// modified, so sibling descents cannot observe each other's entries.
func (c Context) With(splitPoint string, index int) Context {
	out := make(Context, len(c), len(c)+1)
	copy(out, c)
	return append(out, Split{SplitPoint: splitPoint, Index: index})
}

// Key returns a stable string form usable as a map key.
func (c Context) Key() string {
	if len(c) == 0 {
		return ""
	}
	var b strings.Builder
	for i, split := range c {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(split.SplitPoint)
		b.WriteByte('#')
		b.WriteString(strconv.Itoa(split.Index))
	}
	return b.String()
}

// Join builds a dotted path from segments.
func Join(segments []string) string {
	return strings.Join(segments, ".")
}

// Segments splits a dotted path. The empty path has no segments.
func Segments(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// ResolveContextPath substitutes `$each` placeholders in path using ctx and
// returns the resulting segments.
//
// Entries are applied from the innermost repetition outwards. For each entry
// the split point is matched followed by `.$each`, where every `$each` inside
// the split point itself may already have been replaced by an index (or was
// written as a literal index by the author). Only that trailing `$each` is
// replaced.
func ResolveContextPath(path string, ctx Context) []string {
	resolved := path
	if strings.Contains(resolved, Each) {
		for i := len(ctx) - 1; i >= 0; i-- {
			resolved = substitute(resolved, ctx[i])
		}
	}
	return Segments(resolved)
}

// ContextPath is ResolveContextPath joined back into a dotted string.
func ContextPath(path string, ctx Context) string {
	return Join(ResolveContextPath(path, ctx))
}

func substitute(path string, split Split) string {
	re := splitMatcher(split.SplitPoint)
	loc := re.FindStringSubmatchIndex(path)
	if loc == nil {
		return path
	}
	// loc[4:6] spans the split point and its trailing dot
	prefixEnd := loc[5]
	return path[:prefixEnd] + strconv.Itoa(split.Index) + path[prefixEnd+len(Each):]
}

var matchers sync.Map // split point -> *regexp.Regexp

func splitMatcher(splitPoint string) *regexp.Regexp {
	if cached, ok := matchers.Load(splitPoint); ok {
		return cached.(*regexp.Regexp)
	}
	parts := strings.Split(splitPoint, ".")
	for i, part := range parts {
		if part == Each {
			parts[i] = `(?:\d+|\$each)`
		} else {
			parts[i] = regexp.QuoteMeta(part)
		}
	}
	re := regexp.MustCompile(`(^|\.)(` + strings.Join(parts, `\.`) + `\.)\$each(\.|$)`)
	matchers.Store(splitPoint, re)
	return re
}

// Resolve returns the value at path inside model after `$each` substitution,
// or nil when any segment is missing.
func Resolve(path string, model any, ctx Context) any {
	return Get(model, ResolveContextPath(path, ctx))
}

// ResolveSegments is Resolve for a path already split into segments. The
// segments may still hold `$each` placeholders.
func ResolveSegments(segments []string, model any, ctx Context) any {
	return Resolve(Join(segments), model, ctx)
}

// Get walks model along segments. Missing keys, out of range indices and
// traversal into scalars yield nil rather than an error.
func Get(model any, segments []string) any {
	current := model
	for _, segment := range segments {
		if current == nil {
			return nil
		}
		next, ok := child(current, segment)
		if !ok {
			return nil
		}
		current = next
	}
	return current
}

func child(value any, segment string) (any, bool) {
	if obj, ok := value.(map[string]any); ok {
		next, found := obj[segment]
		return next, found
	}
	if list, ok := coerce.Slice(value); ok {
		idx, err := strconv.Atoi(segment)
		if err != nil || idx < 0 || idx >= len(list) {
			return nil, false
		}
		return list[idx], true
	}
	if obj, ok := coerce.Object(value); ok {
		next, found := obj[segment]
		return next, found
	}
	return nil, false
}
