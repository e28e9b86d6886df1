package resolution

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-formtree/internal/coerce"
	"github.com/goliatone/go-formtree/pkg/logic"
	"github.com/goliatone/go-formtree/pkg/modelpath"
	"github.com/goliatone/go-formtree/pkg/schema"
	"github.com/goliatone/go-formtree/pkg/validation"
)

type branchCase struct {
	predicate logic.Value
	then      Prepared
}

// Branch is a prepared If, Elif or Switch block. Its resolver picks at most
// one prepared child. Conditions resolve softly: undefined model data routes
// to the fallback instead of failing.
type Branch struct {
	env      *env
	kind     schema.Kind
	cases    []branchCase
	switchOn logic.Value
	keyed    map[string]Prepared
	fallback Prepared
	memo     memo[Prepared]
}

func (*Branch) Tag() Tag { return TagBranch }

// Kind is the schema block the branch was prepared from.
func (b *Branch) Kind() schema.Kind { return b.kind }

func (b *Branch) Stats() Stats { return b.memo.snapshotStats() }
func (b *Branch) Reset()       { b.memo.reset() }
func (*Branch) prepared()      {}

// Choose returns the prepared child selected by model, or nil.
func (b *Branch) Choose(model any, ctx modelpath.Context) (Prepared, error) {
	chosen, hit, err := b.memo.get(b.env.eval, model, ctx, func(ev *logic.Evaluator, _ *tracker) (Prepared, error) {
		return b.choose(ev, model, ctx)
	})
	if !hit && err == nil {
		b.env.traceMiss(TagBranch, ctx.Key())
	}
	return chosen, err
}

func (b *Branch) choose(ev *logic.Evaluator, model any, ctx modelpath.Context) (Prepared, error) {
	if b.kind == schema.KindSwitch {
		key, err := ev.ResolveSoft(b.switchOn, model, ctx)
		if err != nil {
			return nil, fmt.Errorf("resolution: switch value: %w", err)
		}
		if key != nil {
			if child, ok := b.keyed[coerce.String(key)]; ok && child != nil {
				return child, nil
			}
		}
		return b.fallback, nil
	}

	for idx, c := range b.cases {
		value, err := ev.ResolveSoft(c.predicate, model, ctx)
		if err != nil {
			return nil, fmt.Errorf("resolution: %s predicate #%d: %w", b.kind, idx, err)
		}
		if coerce.Truthy(value) {
			return c.then, nil
		}
	}
	return b.fallback, nil
}

// BranchArray is a prepared For block. Its resolver yields the shared
// template once per element of the array at SplitPoint; only the array
// length is a dependency.
type BranchArray struct {
	env        *env
	SplitPoint string
	template   Prepared
	memo       memo[int]
}

func (*BranchArray) Tag() Tag       { return TagArray }
func (a *BranchArray) Stats() Stats { return a.memo.snapshotStats() }
func (a *BranchArray) Reset()       { a.memo.reset() }
func (*BranchArray) prepared()      {}

// Template returns the prepared child repeated for each element.
func (a *BranchArray) Template() Prepared { return a.template }

// Count returns the number of repetitions, or -1 when the model value is not
// an array (nothing is rendered).
func (a *BranchArray) Count(model any, ctx modelpath.Context) (int, error) {
	count, hit, err := a.memo.get(a.env.eval, model, ctx, func(_ *logic.Evaluator, t *tracker) (int, error) {
		segments := modelpath.ResolveContextPath(a.SplitPoint, ctx)
		value := modelpath.Get(model, segments)
		t.observeLength(segments, value)
		return arrayLength(value).(int), nil
	})
	if !hit && err == nil {
		a.env.traceMiss(TagArray, ctx.Key())
	}
	return count, err
}

// Expand returns the template once per array element, or nil when the model
// value is not an array.
func (a *BranchArray) Expand(model any, ctx modelpath.Context) ([]Prepared, error) {
	count, err := a.Count(model, ctx)
	if err != nil || count < 0 {
		return nil, err
	}
	out := make([]Prepared, count)
	for i := range out {
		out[i] = a.template
	}
	return out, nil
}

// LevelDescriptor is a level with its own attributes resolved. Children are
// the already prepared children and never change between resolutions.
type LevelDescriptor struct {
	Level     string
	Context   any
	ClassList []string
	Children  []Prepared
}

// PreparedLevel is a prepared Level.
type PreparedLevel struct {
	env      *env
	schema   *schema.Level
	children []Prepared
	memo     memo[LevelDescriptor]
}

func (*PreparedLevel) Tag() Tag       { return TagLevel }
func (l *PreparedLevel) Stats() Stats { return l.memo.snapshotStats() }
func (l *PreparedLevel) Reset()       { l.memo.reset() }
func (*PreparedLevel) prepared()      {}

// Describe resolves the level's attributes against model.
func (l *PreparedLevel) Describe(model any, ctx modelpath.Context) (LevelDescriptor, error) {
	desc, hit, err := l.memo.get(l.env.eval, model, ctx, func(ev *logic.Evaluator, _ *tracker) (LevelDescriptor, error) {
		classes, err := resolveClassList(ev, l.schema.ClassList, model, ctx)
		if err != nil {
			return LevelDescriptor{}, fmt.Errorf("resolution: level %q: %w", l.schema.Level, err)
		}
		return LevelDescriptor{
			Level:     l.schema.Level,
			Context:   l.schema.Context,
			ClassList: classes,
			Children:  l.children,
		}, nil
	})
	if !hit && err == nil {
		l.env.traceMiss(TagLevel, ctx.Key())
	}
	return desc, err
}

// FieldDescriptor is a field with everything model dependent resolved.
type FieldDescriptor struct {
	ModelPath  string
	SchemaPath string
	Widget     *Widget
	Validation []validation.Prepared
	ClassList  []string
}

// PreparedField is a prepared Field. Widget params, validators, class list
// and the concrete model path resolve as one memoized unit.
type PreparedField struct {
	env    *env
	schema *schema.Field
	memo   memo[FieldDescriptor]
}

func (*PreparedField) Tag() Tag       { return TagField }
func (f *PreparedField) Stats() Stats { return f.memo.snapshotStats() }
func (f *PreparedField) Reset()       { f.memo.reset() }
func (*PreparedField) prepared()      {}

// Schema returns the field as authored.
func (f *PreparedField) Schema() *schema.Field { return f.schema }

// Describe resolves the field against model. Widget params and validator
// params resolve strictly: undefined values are errors.
func (f *PreparedField) Describe(model any, ctx modelpath.Context) (FieldDescriptor, error) {
	desc, hit, err := f.memo.get(f.env.eval, model, ctx, func(ev *logic.Evaluator, _ *tracker) (FieldDescriptor, error) {
		return f.describe(ev, model, ctx)
	})
	if !hit && err == nil {
		f.env.traceMiss(TagField, ctx.Key())
	}
	return desc, err
}

func (f *PreparedField) describe(ev *logic.Evaluator, model any, ctx modelpath.Context) (FieldDescriptor, error) {
	field := f.schema
	desc := FieldDescriptor{SchemaPath: field.ModelPath}
	if field.ModelPath != "" {
		desc.ModelPath = modelpath.ContextPath(field.ModelPath, ctx)
	}

	if field.Widget != nil {
		params, err := ev.ResolveAll(field.Widget.Params, model, ctx)
		if err != nil {
			return FieldDescriptor{}, fmt.Errorf("resolution: field %q widget: %w", field.ModelPath, err)
		}
		desc.Widget = &Widget{Type: field.Widget.Type, Params: params}
	}

	validators, err := f.env.catalog.PrepareAll(ev, model, ctx, field.Validation)
	if err != nil {
		return FieldDescriptor{}, fmt.Errorf("resolution: field %q: %w", field.ModelPath, err)
	}
	desc.Validation = validators

	classes, err := resolveClassList(ev, field.ClassList, model, ctx)
	if err != nil {
		return FieldDescriptor{}, fmt.Errorf("resolution: field %q: %w", field.ModelPath, err)
	}
	desc.ClassList = classes
	return desc, nil
}

// resolveClassList resolves class expressions softly. Strings are used as-is,
// lists are flattened and objects contribute their keys with truthy values.
// Undefined entries are dropped.
func resolveClassList(ev *logic.Evaluator, values []logic.Value, model any, ctx modelpath.Context) ([]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	var out []string
	for _, value := range values {
		resolved, err := ev.ResolveSoft(value, model, ctx)
		if err != nil {
			return nil, fmt.Errorf("class list: %w", err)
		}
		out = appendClasses(out, resolved)
	}
	return out, nil
}

func appendClasses(out []string, value any) []string {
	switch v := value.(type) {
	case nil:
		return out
	case string:
		if v == "" {
			return out
		}
		return append(out, v)
	}
	if list, ok := coerce.Slice(value); ok {
		for _, item := range list {
			out = appendClasses(out, item)
		}
		return out
	}
	if obj, ok := coerce.Object(value); ok {
		keys := make([]string, 0, len(obj))
		for key, enabled := range obj {
			if coerce.Truthy(enabled) {
				keys = append(keys, key)
			}
		}
		sort.Strings(keys)
		return append(out, keys...)
	}
	return append(out, coerce.String(value))
}
