package schema

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"

	"github.com/goliatone/go-formtree/pkg/logic"
	"github.com/goliatone/go-formtree/pkg/validation"
)

const profileYAML = `
type: level
level: form
children:
  - type: field
    modelPath: name
    widget:
      type: text
      params:
        label: Name
        placeholder:
          _buildFrom: { _modelPath: defaults.name }
          _actions:
            - [string, uppercase, [], string]
    validation:
      - type: minLength
        message: too short
        level: warn
        params:
          min: 2
  - type: if
    predicate: { _modelPath: hasPets }
    then:
      type: for
      modelPath: pets
      schema:
        type: field
        modelPath: pets.$each.name
        widget: text
  - type: switch
    value: { _modelPath: kind }
    cases:
      a: { type: field, modelPath: a }
    default: { type: field, modelPath: fallback }
`

func TestParse_YAML(t *testing.T) {
	node, err := Parse([]byte(profileYAML), "profile.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	level, ok := node.(*Level)
	if !ok {
		t.Fatalf("expected *Level, got %T", node)
	}
	if len(level.Children) != 3 {
		t.Fatalf("expected 3 children, got %d", len(level.Children))
	}

	name := level.Children[0].(*Field)
	if name.WidgetType() != "text" {
		t.Fatalf("unexpected widget %q", name.WidgetType())
	}
	if diff := cmp.Diff(logic.Lit("Name"), name.Widget.Params["label"]); diff != "" {
		t.Fatalf("label mismatch (-want +got):\n%s", diff)
	}
	wantPlaceholder := logic.Build(logic.Model("defaults.name"), logic.Action(logic.TypeString, "uppercase", nil, logic.TypeString))
	if diff := cmp.Diff(wantPlaceholder, name.Widget.Params["placeholder"]); diff != "" {
		t.Fatalf("placeholder mismatch (-want +got):\n%s", diff)
	}
	wantSpec := validation.Spec{
		Type:    "minLength",
		Message: "too short",
		Level:   validation.LevelWarn,
		Params:  map[string]logic.Value{"min": logic.Lit(2)},
	}
	if diff := cmp.Diff([]validation.Spec{wantSpec}, name.Validation); diff != "" {
		t.Fatalf("validation mismatch (-want +got):\n%s", diff)
	}

	branch := level.Children[1].(*If)
	if diff := cmp.Diff(logic.Model("hasPets"), branch.Predicate); diff != "" {
		t.Fatalf("predicate mismatch (-want +got):\n%s", diff)
	}
	loop := branch.Then.(*For)
	if loop.ModelPath != "pets" || loop.Schema.(*Field).ModelPath != "pets.$each.name" {
		t.Fatalf("unexpected for block %+v", loop)
	}

	sw := level.Children[2].(*Switch)
	if _, ok := sw.Cases["a"].(*Field); !ok || sw.Default == nil {
		t.Fatalf("unexpected switch %+v", sw)
	}

	if got := len(Fields(node)); got != 4 {
		t.Fatalf("expected 4 fields, got %d", got)
	}
}

func TestDecodeValue_Discrimination(t *testing.T) {
	cases := []struct {
		name string
		raw  any
		want logic.Value
	}{
		{"scalar", 3.0, logic.Lit(3.0)},
		{"model reference", map[string]any{"_modelPath": "a.b"}, logic.Model("a.b")},
		{
			"extra key keeps literal",
			map[string]any{"_modelPath": "a", "other": 1},
			logic.Lit(map[string]any{"_modelPath": "a", "other": 1}),
		},
		{"list literal", []any{1.0, "x"}, logic.Lit([]any{1.0, "x"})},
		{
			"builder",
			map[string]any{"_buildFrom": "x", "_actions": []any{[]any{"string", "join", []any{"!"}, "string"}}},
			logic.Build(logic.Lit("x"), logic.Action(logic.TypeString, "join", logic.Lits("!"), logic.TypeString)),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeValue(tc.raw)
			if err != nil {
				t.Fatalf("DecodeValue: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecode_AggregatesIssues(t *testing.T) {
	raw := map[string]any{
		"type": "level",
		"children": []any{
			map[string]any{"type": "widget"},
			map[string]any{"type": "if", "then": map[string]any{"type": "field"}},
			map[string]any{"type": "for", "schema": map[string]any{"type": "field"}},
			map[string]any{
				"type":      "field",
				"modelPath": "x",
				"validation": []any{
					map[string]any{"type": "required", "level": "fatal"},
				},
			},
			map[string]any{
				"type":      "field",
				"modelPath": "y",
				"widget": map[string]any{
					"type":   "text",
					"params": map[string]any{"v": map[string]any{"_buildFrom": 1, "_actions": []any{[]any{"text", "x", nil, "string"}}}},
				},
			},
		},
	}

	_, err := Decode(raw)
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		t.Fatalf("expected multierror, got %v", err)
	}
	var paths []string
	for _, e := range merr.Errors {
		var issue *Issue
		if !errors.As(e, &issue) {
			t.Fatalf("expected *Issue, got %T", e)
		}
		paths = append(paths, issue.Path)
	}
	want := []string{
		"/children/0/type",
		"/children/1/predicate",
		"/children/2/modelPath",
		"/children/3/validation/0/level",
		"/children/4/widget/params/v/_actions/0/0",
	}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("issue paths mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_BuiltTrees(t *testing.T) {
	good := NewLevel("root",
		NewField("name", "text"),
		NewIf(logic.Model("flag"), NewField("x", "text"), nil),
		NewFor("items", NewField("items.$each", "text")),
	)
	if err := Validate(good); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	bad := NewLevel("root",
		&Elif{},
		&Switch{Cases: map[string]Node{"a": nil}},
		NewFor("", nil),
	)
	err := Validate(bad)
	if err == nil {
		t.Fatalf("expected issues")
	}
	msg := err.Error()
	for _, fragment := range []string{"/children/0/elifs", "/children/1/value", "/children/1/cases/a", "/children/2/modelPath", "/children/2/schema"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in %q", fragment, msg)
		}
	}
}

func TestLoadFS_AndDir(t *testing.T) {
	fsys := fstest.MapFS{
		"forms/profile.yaml": {Data: []byte(profileYAML)},
		"forms/simple.json":  {Data: []byte(`{"type":"field","modelPath":"a","widget":{"type":"text"}}`)},
		"README.md":          {Data: []byte("ignored")},
	}

	node, err := LoadFS(fsys, "forms/simple.json")
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	if field, ok := node.(*Field); !ok || field.ModelPath != "a" {
		t.Fatalf("unexpected node %#v", node)
	}

	store, err := LoadDir(fsys)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if diff := cmp.Diff([]string{"forms/profile", "forms/simple"}, store.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	if _, err := Parse([]byte("   "), "empty.json"); err == nil {
		t.Fatalf("expected error for empty document")
	}
	if _, err := Parse([]byte(`{"type":`), "broken.json"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestEncode_DecodesBack(t *testing.T) {
	tree := NewLevel("root",
		NewIf(
			logic.Build(logic.Model("age"), logic.Action(logic.TypeNumber, "gte", logic.Lits(18.0), logic.TypeBoolean)),
			NewField("license", "text", validation.Spec{Type: "required", Message: "needed", Level: validation.LevelError}),
			nil,
		),
	)

	decoded, err := Decode(Encode(tree))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(Node(tree), decoded); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}
