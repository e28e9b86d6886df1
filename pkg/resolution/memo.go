package resolution

import (
	"reflect"
	"sync"

	"github.com/mitchellh/copystructure"

	"github.com/goliatone/go-formtree/internal/coerce"
	"github.com/goliatone/go-formtree/pkg/logic"
	"github.com/goliatone/go-formtree/pkg/modelpath"
)

// Stats counts how often a prepared node answered from its cache (Hits) and
// how often it had to recompute (Misses).
type Stats struct {
	Hits   int `json:"hits"`
	Misses int `json:"misses"`
}

// Add sums two counters.
func (s Stats) Add(other Stats) Stats {
	return Stats{Hits: s.Hits + other.Hits, Misses: s.Misses + other.Misses}
}

// read is one model location a resolver depended on, with the value it saw.
// measure, when set, reduces the value before comparison so a resolver can
// depend on a property of the value (an array length) instead of all of it.
type read struct {
	segments []string
	snapshot any
	measure  func(any) any
}

func (r read) holds(model any) bool {
	current := modelpath.Get(model, r.segments)
	if r.measure != nil {
		current = r.measure(current)
	}
	return reflect.DeepEqual(current, r.snapshot)
}

// tracker records the reads of one computation.
type tracker struct {
	reads []read
}

func (t *tracker) observe(segments []string, value any) {
	t.reads = append(t.reads, read{
		segments: append([]string(nil), segments...),
		snapshot: snapshot(value),
	})
}

func (t *tracker) observeLength(segments []string, value any) {
	t.reads = append(t.reads, read{
		segments: append([]string(nil), segments...),
		snapshot: arrayLength(value),
		measure:  arrayLength,
	})
}

// arrayLength is the element count of a list or -1 for anything else.
func arrayLength(value any) any {
	list, ok := coerce.Slice(value)
	if !ok {
		return -1
	}
	return len(list)
}

// snapshot copies value so later in-place edits of the host model are still
// seen as changes.
func snapshot(value any) any {
	copied, err := copystructure.Copy(value)
	if err != nil {
		return value
	}
	return copied
}

type memoEntry[T any] struct {
	reads []read
	value T
}

func (e *memoEntry[T]) valid(model any) bool {
	for _, r := range e.reads {
		if !r.holds(model) {
			return false
		}
	}
	return true
}

// memo caches the last output of a resolver per resolution context. An entry
// is reused while every model value it read is unchanged.
type memo[T any] struct {
	mu      sync.Mutex
	entries map[string]*memoEntry[T]
	stats   Stats
}

func (m *memo[T]) get(
	ev *logic.Evaluator,
	model any,
	ctx modelpath.Context,
	compute func(ev *logic.Evaluator, t *tracker) (T, error),
) (T, bool, error) {
	key := ctx.Key()

	m.mu.Lock()
	if entry, ok := m.entries[key]; ok && entry.valid(model) {
		m.stats.Hits++
		value := entry.value
		m.mu.Unlock()
		return value, true, nil
	}
	m.stats.Misses++
	m.mu.Unlock()

	t := &tracker{}
	value, err := compute(ev.Observing(t.observe), t)
	if err != nil {
		var zero T
		return zero, false, err
	}

	m.mu.Lock()
	if m.entries == nil {
		m.entries = make(map[string]*memoEntry[T])
	}
	m.entries[key] = &memoEntry[T]{reads: t.reads, value: value}
	m.mu.Unlock()
	return value, false, nil
}

func (m *memo[T]) snapshotStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

func (m *memo[T]) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	m.stats = Stats{}
}
