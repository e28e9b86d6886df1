package validation

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formtree/pkg/logic"
	"github.com/goliatone/go-formtree/pkg/modelpath"
)

func mustPrepare(t *testing.T, model any, spec Spec) Prepared {
	t.Helper()
	prepared, err := Prepare(nil, model, nil, spec)
	if err != nil {
		t.Fatalf("Prepare(%s): %v", spec.Type, err)
	}
	return prepared
}

func TestReq_Emptiness(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  bool
	}{
		{"false is present", false, true},
		{"true", true, true},
		{"nil", nil, false},
		{"empty list", []any{}, false},
		{"empty typed list", []string{}, false},
		{"empty object", map[string]any{}, false},
		{"zero time", time.Time{}, false},
		{"time", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"empty string", "", false},
		{"zero", 0, true},
		{"text", "a", true},
		{"object", map[string]any{"a": nil}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Req(tc.value); got != tc.want {
				t.Fatalf("Req(%#v) = %v, want %v", tc.value, got, tc.want)
			}
		})
	}

	required := mustPrepare(t, nil, Spec{Type: "required", Message: "req"})
	if !required.Predicate(false) || required.Predicate([]any{}) || required.Predicate(map[string]any{}) {
		t.Fatalf("required predicate disagrees with emptiness rules")
	}
}

func TestCatalog_Builtins(t *testing.T) {
	fixed := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	ev := logic.New(logic.WithClock(func() time.Time { return fixed }))

	cases := []struct {
		name  string
		spec  Spec
		pass  []any
		fail  []any
		model any
		useEv bool
	}{
		{
			name: "minLength over strings lists and objects",
			spec: Spec{Type: "minLength", Params: map[string]logic.Value{"min": logic.Lit(2)}},
			pass: []any{"ab", []any{1, 2}, map[string]any{"a": 1, "b": 2}, ""},
			fail: []any{"a", []any{1}, map[string]any{"a": 1}},
		},
		{
			name: "lengthBetween with weakly typed params",
			spec: Spec{Type: "lengthBetween", Params: map[string]logic.Value{"min": logic.Lit("1"), "max": logic.Lit(3)}},
			pass: []any{"abc", "a"},
			fail: []any{"abcd"},
		},
		{
			name:  "maxValue from model",
			spec:  Spec{Type: "maxValue", Params: map[string]logic.Value{"max": logic.Model("limit")}},
			model: map[string]any{"limit": 10},
			pass:  []any{10, 3.5, "4", nil},
			fail:  []any{11, "abc"},
		},
		{
			name: "between",
			spec: Spec{Type: "between", Params: map[string]logic.Value{"min": logic.Lit(1), "max": logic.Lit(5)}},
			pass: []any{1, 5},
			fail: []any{0, 6},
		},
		{
			name: "email",
			spec: Spec{Type: "email"},
			pass: []any{"a@b.co", ""},
			fail: []any{"a@b", "no at"},
		},
		{
			name: "integer",
			spec: Spec{Type: "integer"},
			pass: []any{"12", "-3", 7},
			fail: []any{"1.5", "x"},
		},
		{
			name: "regex",
			spec: Spec{Type: "regex", Params: map[string]logic.Value{"pattern": logic.Lit(`^[a-z]+-\d$`)}},
			pass: []any{"ab-1"},
			fail: []any{"ab1"},
		},
		{
			name:  "minDate is exclusive",
			spec:  Spec{Type: "minDate", Params: map[string]logic.Value{"min": logic.Lit("2024-01-01")}},
			pass:  []any{"2024-01-02", fixed},
			fail:  []any{"2024-01-01", "2023-12-31", "garbage"},
			useEv: true,
		},
		{
			name:  "maxDate inclusive against now",
			spec:  Spec{Type: "maxDate", Params: map[string]logic.Value{"max": logic.Lit("now"), "inclusive": logic.Lit(true)}},
			pass:  []any{"2024-06-01", "2020-01-01"},
			fail:  []any{"2024-06-02"},
			useEv: true,
		},
		{
			name: "pathIsNotNull",
			spec: Spec{Type: "pathIsNotNull", Params: map[string]logic.Value{"path": logic.Lit("a.b")}},
			pass: []any{map[string]any{"a": map[string]any{"b": 1}}, nil},
			fail: []any{map[string]any{"a": map[string]any{}}, "scalar"},
		},
		{
			name: "predicate",
			spec: Spec{Type: "predicate", Params: map[string]logic.Value{"test": logic.Lit(true)}},
			pass: []any{nil, "x"},
		},
		{
			name: "isFalsy",
			spec: Spec{Type: "isFalsy"},
			pass: []any{false, 0, ""},
			fail: []any{true, "x"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var evaluator *logic.Evaluator
			if tc.useEv {
				evaluator = ev
			}
			prepared, err := Prepare(evaluator, tc.model, nil, tc.spec)
			if err != nil {
				t.Fatalf("Prepare: %v", err)
			}
			for _, value := range tc.pass {
				if !prepared.Predicate(value) {
					t.Fatalf("expected %#v to pass", value)
				}
			}
			for _, value := range tc.fail {
				if prepared.Predicate(value) {
					t.Fatalf("expected %#v to fail", value)
				}
			}
		})
	}
}

func TestPrepare_Errors(t *testing.T) {
	if _, err := Prepare(nil, nil, nil, Spec{Type: "nope"}); !errors.Is(err, ErrUnknownValidator) {
		t.Fatalf("expected ErrUnknownValidator, got %v", err)
	}
	if _, err := Prepare(nil, nil, nil, Spec{Type: "minLength", Params: map[string]logic.Value{}}); err == nil {
		t.Fatalf("expected missing param error")
	}
	if _, err := Prepare(nil, nil, nil, Spec{Type: "always", Level: "fatal"}); err == nil {
		t.Fatalf("expected unknown level error")
	}

	// params resolve hard
	_, err := Prepare(nil, map[string]any{}, nil, Spec{Type: "minValue", Params: map[string]logic.Value{"min": logic.Model("missing")}})
	if !logic.IsUndefined(err) {
		t.Fatalf("expected undefined param error, got %v", err)
	}
}

func TestPrepare_ParamsUseContext(t *testing.T) {
	model := map[string]any{"rows": []any{map[string]any{"max": 2}, map[string]any{"max": 5}}}
	spec := Spec{Type: "maxValue", Params: map[string]logic.Value{"max": logic.Model("rows.$each.max")}}

	first, err := Prepare(nil, model, modelpath.Context{{SplitPoint: "rows", Index: 0}}, spec)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	second, err := Prepare(nil, model, modelpath.Context{{SplitPoint: "rows", Index: 1}}, spec)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if first.Predicate(3) || !second.Predicate(3) {
		t.Fatalf("expected params to follow the resolution context")
	}
}

func TestBuildApplier_DirtyGate(t *testing.T) {
	validators := []Prepared{
		mustPrepare(t, nil, Spec{Type: "required", Message: "needed", Level: LevelError}),
		mustPrepare(t, nil, Spec{Type: "always", Message: "hint", Level: LevelInfo, RunOnEmpty: true}),
	}
	curried := BuildApplier(validators)("")

	if diff := cmp.Diff(Result{Info: []string{"hint"}}, curried(false)); diff != "" {
		t.Fatalf("pristine result mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Result{Error: []string{"needed"}, Info: []string{"hint"}}, curried(true)); diff != "" {
		t.Fatalf("dirty result mismatch (-want +got):\n%s", diff)
	}
}

func TestGroup_AccumulatesSharedPaths(t *testing.T) {
	always := func(msg string) []Prepared {
		return []Prepared{mustPrepare(t, nil, Spec{Type: "always", Message: msg, Level: LevelError})}
	}
	collected := Group([]Binding{
		{ModelPath: "name", Validators: always("first")},
		{ModelPath: "name", Validators: always("second")},
		{ModelPath: "other", Validators: nil},
	})

	if diff := cmp.Diff([]string{"name"}, collected.Paths()); diff != "" {
		t.Fatalf("unexpected paths (-want +got):\n%s", diff)
	}
	result := collected["name"]("value")(true)
	if diff := cmp.Diff([]string{"first", "second"}, result.Error); diff != "" {
		t.Fatalf("unexpected errors (-want +got):\n%s", diff)
	}
}

func TestValidity(t *testing.T) {
	required := []Prepared{mustPrepare(t, nil, Spec{Type: "required", Message: "required", Level: LevelError})}
	warn := []Prepared{mustPrepare(t, nil, Spec{Type: "always", Message: "careful", Level: LevelWarn})}
	collected := Group([]Binding{
		{ModelPath: "a", Validators: required},
		{ModelPath: "b", Validators: required},
		{ModelPath: "c", Validators: warn},
	})

	bound := collected.Bind(map[string]any{"a": "x"})
	if diff := cmp.Diff(Summary{Total: 3, Valid: 2, AllValid: false}, Validity(bound)); diff != "" {
		t.Fatalf("unexpected summary (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Summary{Total: 3, Valid: 1, AllValid: false}, Validity(bound, LevelError, LevelWarn)); diff != "" {
		t.Fatalf("unexpected summary (-want +got):\n%s", diff)
	}

	bound = collected.Bind(map[string]any{"a": "x", "b": false})
	if got := Validity(bound); !got.AllValid || got.Valid != 3 {
		t.Fatalf("expected all valid, got %+v", got)
	}
}
