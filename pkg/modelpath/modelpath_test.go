package modelpath

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolve_Paths(t *testing.T) {
	t.Parallel()

	nested := map[string]any{
		"deeply": map[string]any{
			"nested": []any{
				map[string]any{
					"array": []any{map[string]any{"value": false}},
				},
				map[string]any{
					"array": []any{map[string]any{"value": true}},
				},
			},
		},
	}

	cases := []struct {
		name  string
		path  string
		model any
		ctx   Context
		want  any
	}{
		{
			name:  "top level",
			path:  "value",
			model: map[string]any{"value": true},
			want:  true,
		},
		{
			name:  "nested",
			path:  "deeply.nested.value",
			model: map[string]any{"deeply": map[string]any{"nested": map[string]any{"value": true}}},
			want:  true,
		},
		{
			name:  "explicit index with empty context",
			path:  "deeply.nested.1.array.0.value",
			model: nested,
			want:  true,
		},
		{
			name:  "each with context",
			path:  "arr.$each.v",
			model: map[string]any{"arr": []any{map[string]any{"v": true}}},
			ctx:   Context{{SplitPoint: "arr", Index: 0}},
			want:  true,
		},
		{
			name:  "nested each",
			path:  "deeply.nested.$each.array.$each.value",
			model: nested,
			ctx: Context{
				{SplitPoint: "deeply.nested", Index: 1},
				{SplitPoint: "deeply.nested.$each.array", Index: 0},
			},
			want: true,
		},
		{
			name:  "hardcoded outer index wins over context",
			path:  "deeply.nested.1.array.$each.value",
			model: nested,
			ctx: Context{
				{SplitPoint: "deeply.nested", Index: 0},
				{SplitPoint: "deeply.nested.$each.array", Index: 0},
			},
			want: true,
		},
		{
			name:  "missing intermediate",
			path:  "missing.value",
			model: map[string]any{},
			want:  nil,
		},
		{
			name:  "index out of range",
			path:  "arr.4",
			model: map[string]any{"arr": []any{1}},
			want:  nil,
		},
		{
			name:  "typed slices and maps",
			path:  "tags.1",
			model: map[string]any{"tags": []string{"a", "b"}},
			want:  "b",
		},
		{
			name:  "scalar traversal",
			path:  "name.first",
			model: map[string]any{"name": "Ada"},
			want:  nil,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Resolve(tc.path, tc.model, tc.ctx); !cmp.Equal(got, tc.want) {
				t.Fatalf("Resolve(%q) = %#v, want %#v", tc.path, got, tc.want)
			}
		})
	}
}

func TestResolve_IgnoresContextWithoutEach(t *testing.T) {
	t.Parallel()

	model := map[string]any{"a": map[string]any{"b": 3}}
	ctx := Context{{SplitPoint: "a", Index: 7}, {SplitPoint: "x", Index: 1}}

	if got := Resolve("a.b", model, nil); got != 3 {
		t.Fatalf("expected 3 without context, got %v", got)
	}
	if got := Resolve("a.b", model, ctx); got != 3 {
		t.Fatalf("expected 3 with unrelated context, got %v", got)
	}
}

func TestResolveContextPath_InnermostFirst(t *testing.T) {
	t.Parallel()

	ctx := Context{
		{SplitPoint: "groups", Index: 2},
		{SplitPoint: "groups.$each.members", Index: 5},
	}
	got := ContextPath("groups.$each.members.$each.name", ctx)
	if got != "groups.2.members.5.name" {
		t.Fatalf("unexpected path %q", got)
	}

	// split points only match whole segments
	got = ContextPath("subarr.$each", Context{{SplitPoint: "arr", Index: 1}})
	if got != "subarr.$each" {
		t.Fatalf("expected no substitution, got %q", got)
	}
}

func TestContext_WithDoesNotAlias(t *testing.T) {
	t.Parallel()

	base := make(Context, 0, 4)
	base = append(base, Split{SplitPoint: "a", Index: 0})

	left := base.With("b", 1)
	right := base.With("b", 2)

	if left[1].Index != 1 || right[1].Index != 2 {
		t.Fatalf("contexts alias each other: %v %v", left, right)
	}
	if len(base) != 1 {
		t.Fatalf("base context mutated: %v", base)
	}
	if left.Key() == right.Key() {
		t.Fatalf("expected distinct keys")
	}
	if diff := cmp.Diff(base.With("b", 1), left); diff != "" {
		t.Fatalf("context mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveSegments_MatchesDottedPaths(t *testing.T) {
	t.Parallel()

	model := map[string]any{
		"orders": []any{
			map[string]any{"lines": []any{map[string]any{"sku": "a"}, map[string]any{"sku": "b"}}},
		},
	}
	ctx := Context{}.With("orders", 0).With("orders.$each.lines", 1)

	segments := []string{"orders", Each, "lines", Each, "sku"}
	if got := ResolveSegments(segments, model, ctx); got != "b" {
		t.Fatalf("expected b, got %#v", got)
	}
	if got := ResolveSegments([]string{"orders", "0", "lines", "0", "sku"}, model, nil); got != "a" {
		t.Fatalf("expected a, got %#v", got)
	}
	if got := ResolveSegments(nil, model, nil); !cmp.Equal(got, any(model)) {
		t.Fatalf("empty segments should return the model, got %#v", got)
	}
}

func TestSet_CopyOnWrite(t *testing.T) {
	t.Parallel()

	shared := map[string]any{"keep": true}
	model := map[string]any{
		"list":   []any{map[string]any{"name": "a"}},
		"shared": shared,
	}

	updated, err := SetPath(model, "list.0.name", "b")
	if err != nil {
		t.Fatalf("SetPath: %v", err)
	}

	if got := Resolve("list.0.name", model, nil); got != "a" {
		t.Fatalf("original model mutated: %v", got)
	}
	if got := Resolve("list.0.name", updated, nil); got != "b" {
		t.Fatalf("update not applied: %v", got)
	}
	updatedShared := updated.(map[string]any)["shared"].(map[string]any)
	updatedShared["marker"] = 1
	if _, ok := shared["marker"]; !ok {
		t.Fatalf("untouched subtree should be shared")
	}
}

func TestSet_CreatesIntermediates(t *testing.T) {
	t.Parallel()

	updated, err := SetPath(nil, "a.items.2.title", "x")
	if err != nil {
		t.Fatalf("SetPath: %v", err)
	}
	want := map[string]any{
		"a": map[string]any{
			"items": []any{nil, nil, map[string]any{"title": "x"}},
		},
	}
	if diff := cmp.Diff(want, updated); diff != "" {
		t.Fatalf("unexpected model (-want +got):\n%s", diff)
	}

	if _, err := SetPath(map[string]any{"name": "Ada"}, "name.first", "x"); err == nil {
		t.Fatalf("expected error when setting inside a scalar")
	}
}

func TestSet_RejectsFarIndices(t *testing.T) {
	t.Parallel()

	model := map[string]any{"arr": []any{"a"}}
	if _, err := SetPath(model, "arr.1000000000", "x"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", err)
	}

	updated, err := SetPath(model, "arr.1", "b")
	if err != nil {
		t.Fatalf("append at the end: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"arr": []any{"a", "b"}}, updated); diff != "" {
		t.Fatalf("unexpected model (-want +got):\n%s", diff)
	}
}
