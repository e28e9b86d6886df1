package widgets

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-formtree/internal/coerce"
	"github.com/goliatone/go-formtree/pkg/modelpath"
	"github.com/goliatone/go-formtree/pkg/resolution"
)

// Built-in widget identifiers used by the default matchers.
const (
	WidgetText       = "text"
	WidgetTextarea   = "textarea"
	WidgetNumber     = "number"
	WidgetToggle     = "toggle"
	WidgetSelect     = "select"
	WidgetChips      = "chips"
	WidgetDate       = "date"
	WidgetJSONEditor = "json-editor"
)

var (
	// ErrNotFound is returned when a widget name has no registered component.
	ErrNotFound = errors.New("widgets: widget not found")
	// ErrAlreadyRegistered is returned when a name is registered twice
	// without Force.
	ErrAlreadyRegistered = errors.New("widgets: widget already registered")
)

// Subject is what matchers inspect when a field has no explicit widget: the
// field as resolved and the model value currently bound to it.
type Subject struct {
	Field *resolution.ResolvedField
	Value any
}

// Matcher decides whether a widget should handle the supplied subject.
type Matcher func(subject Subject) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
	owned    bool
}

// RegisterOption customises a Register call.
type RegisterOption func(*registration)

type registration struct {
	force    bool
	matcher  Matcher
	priority int
}

// Force replaces an existing component with the same name, dropping the
// matcher registered with it.
func Force() RegisterOption {
	return func(r *registration) { r.force = true }
}

// WithMatcher also registers a matcher so the widget can be inferred for
// fields without an explicit widget.
func WithMatcher(priority int, matcher Matcher) RegisterOption {
	return func(r *registration) {
		r.priority = priority
		r.matcher = matcher
	}
}

// Registry maps widget names to host components of type C and selects a
// default widget for fields that do not name one. Higher matcher priority
// wins; ties fall back to registration order. Registries are values owned by
// the host; there is no process-wide instance.
type Registry[C any] struct {
	mu         sync.RWMutex
	components map[string]C
	order      []string
	rules      []rule
	seq        int
}

// NewRegistry constructs a registry with the built-in matchers registered and
// no components.
func NewRegistry[C any]() *Registry[C] {
	reg := &Registry[C]{components: make(map[string]C)}
	reg.registerBuiltins()
	return reg
}

// Register stores component under name.
func (r *Registry[C]) Register(name string, component C, opts ...RegisterOption) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("widgets: register: name is required")
	}
	var cfg registration
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.components == nil {
		r.components = make(map[string]C)
	}
	if _, exists := r.components[trimmed]; exists {
		if !cfg.force {
			return fmt.Errorf("%w: %q", ErrAlreadyRegistered, trimmed)
		}
		r.dropOwnedRules(trimmed)
	} else {
		r.order = append(r.order, trimmed)
	}
	r.components[trimmed] = component
	if cfg.matcher != nil {
		r.addRule(trimmed, cfg.priority, cfg.matcher, true)
	}
	return nil
}

// Lookup returns the component registered under name.
func (r *Registry[C]) Lookup(name string) (C, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	component, ok := r.components[strings.TrimSpace(name)]
	if !ok {
		var zero C
		return zero, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return component, nil
}

// Unregister removes the component registered under name together with the
// matcher registered alongside it. Matchers added with Match stay.
func (r *Registry[C]) Unregister(name string) error {
	trimmed := strings.TrimSpace(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.components[trimmed]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(r.components, trimmed)
	for idx, registered := range r.order {
		if registered == trimmed {
			r.order = append(r.order[:idx], r.order[idx+1:]...)
			break
		}
	}
	r.dropOwnedRules(trimmed)
	return nil
}

func (r *Registry[C]) dropOwnedRules(name string) {
	rules := r.rules[:0]
	for _, entry := range r.rules {
		if entry.name != name || !entry.owned {
			rules = append(rules, entry)
		}
	}
	r.rules = rules
}

// List returns the registered component names in registration order.
func (r *Registry[C]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Match adds a matcher for name without registering a component. Higher
// priority values take precedence.
func (r *Registry[C]) Match(name string, priority int, matcher Matcher) {
	if matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addRule(trimmed, priority, matcher, false)
}

func (r *Registry[C]) addRule(name string, priority int, matcher Matcher, owned bool) {
	r.rules = append(r.rules, rule{
		name:     name,
		priority: priority,
		match:    matcher,
		order:    r.seq,
		owned:    owned,
	})
	r.seq++
}

// Infer returns the widget name for a subject. An explicit widget on the
// field is honoured before matcher evaluation.
func (r *Registry[C]) Infer(subject Subject) (string, bool) {
	if subject.Field != nil && subject.Field.Widget != nil {
		if explicit := strings.TrimSpace(subject.Field.Widget.Type); explicit != "" {
			return explicit, true
		}
	}
	r.mu.RLock()
	if len(r.rules) == 0 {
		r.mu.RUnlock()
		return "", false
	}
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(subject) {
			return entry.name, true
		}
	}
	return "", false
}

// Decorate assigns an inferred widget to every field of tree that has none,
// reading the bound values from model. Fields keep their explicit widgets.
func (r *Registry[C]) Decorate(tree []resolution.Resolved, model any) error {
	for _, field := range resolution.Fields(tree) {
		if field.Widget != nil && field.Widget.Type != "" {
			continue
		}
		subject := Subject{Field: field}
		if field.ModelPath != "" {
			subject.Value = modelpath.Resolve(field.ModelPath, model, nil)
		}
		name, ok := r.Infer(subject)
		if !ok {
			continue
		}
		// resolved widgets may be shared with resolver caches
		widget := &resolution.Widget{Type: name}
		if field.Widget != nil {
			widget.Params = field.Widget.Params
		}
		field.Widget = widget
	}
	return nil
}

func (r *Registry[C]) registerBuiltins() {
	r.Match(WidgetToggle, 90, func(s Subject) bool {
		_, ok := s.Value.(bool)
		return ok
	})

	r.Match(WidgetChips, 80, func(s Subject) bool {
		return coerce.IsSlice(s.Value)
	})

	r.Match(WidgetSelect, 70, func(s Subject) bool {
		if s.Field == nil || s.Field.Widget == nil {
			return false
		}
		_, ok := s.Field.Widget.Params["options"]
		return ok
	})

	r.Match(WidgetDate, 65, func(s Subject) bool {
		switch s.Value.(type) {
		case time.Time, *time.Time:
			return true
		}
		return false
	})

	r.Match(WidgetNumber, 60, func(s Subject) bool {
		_, ok := coerce.Number(s.Value)
		return ok
	})

	r.Match(WidgetJSONEditor, 50, func(s Subject) bool {
		return coerce.IsObject(s.Value)
	})

	r.Match(WidgetTextarea, 40, func(s Subject) bool {
		text, ok := s.Value.(string)
		return ok && strings.Contains(text, "\n")
	})

	r.Match(WidgetText, 0, func(Subject) bool { return true })
}
