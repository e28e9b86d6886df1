package engine_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formtree/pkg/engine"
	"github.com/goliatone/go-formtree/pkg/logic"
	"github.com/goliatone/go-formtree/pkg/resolution"
	"github.com/goliatone/go-formtree/pkg/schema"
	"github.com/goliatone/go-formtree/pkg/validation"
	"github.com/goliatone/go-formtree/pkg/widgets"
)

func petSchema() schema.Node {
	return schema.NewLevel("form",
		schema.NewField("hasPet", ""),
		schema.NewIf(logic.Model("hasPet"), schema.NewField("petName", "text"), nil),
	)
}

func mustForm(t *testing.T, node schema.Node, opts ...engine.Option) *engine.Form {
	t.Helper()
	form, err := engine.New(context.Background(), node, opts...)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	return form
}

func mustResolve(t *testing.T, form *engine.Form) []*resolution.ResolvedField {
	t.Helper()
	tree, err := form.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return resolution.Fields(tree)
}

func widgetsOf(fields []*resolution.ResolvedField) map[string]string {
	out := make(map[string]string, len(fields))
	for _, field := range fields {
		if field.Widget != nil {
			out[field.ModelPath] = field.Widget.Type
		}
	}
	return out
}

func TestForm_UpdateDrivesResolution(t *testing.T) {
	form := mustForm(t, petSchema(),
		engine.WithModel(map[string]any{"hasPet": false}),
		engine.WithDecorators(widgets.NewRegistry[string]()),
	)

	got := widgetsOf(mustResolve(t, form))
	if diff := cmp.Diff(map[string]string{"hasPet": widgets.WidgetToggle}, got); diff != "" {
		t.Fatalf("initial fields (-want +got):\n%s", diff)
	}

	before := form.Model()
	if err := form.Update("hasPet", true); err != nil {
		t.Fatalf("update: %v", err)
	}

	got = widgetsOf(mustResolve(t, form))
	want := map[string]string{"hasPet": widgets.WidgetToggle, "petName": "text"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("fields after update (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]any{"hasPet": false}, before); diff != "" {
		t.Fatalf("previous snapshot changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"hasPet"}, form.Touched()); diff != "" {
		t.Fatalf("touched mismatch (-want +got):\n%s", diff)
	}
}

func TestForm_OnChangeFoldsIntoModel(t *testing.T) {
	form := mustForm(t, schema.NewFor("items", schema.NewField("items.$each.name", "text")))
	onChange := form.OnChange()

	onChange("items.1.name", "second")

	want := map[string]any{"items": []any{nil, map[string]any{"name": "second"}}}
	if diff := cmp.Diff(want, form.Model()); diff != "" {
		t.Fatalf("model mismatch (-want +got):\n%s", diff)
	}

	fields := mustResolve(t, form)
	if len(fields) != 2 || fields[1].ModelPath != "items.1.name" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
}

func TestForm_ValidateHonoursDirtiness(t *testing.T) {
	node := schema.NewLevel("form",
		schema.NewField("name", "text", validation.Spec{Type: "required", Message: "name required"}),
		schema.NewField("age", "number", validation.Spec{
			Type:    "minValue",
			Message: "too young",
			Params:  map[string]logic.Value{"min": logic.Lit(18)},
		}),
	)
	form := mustForm(t, node, engine.WithModel(map[string]any{}))

	report, err := form.Validate(false)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !report.Results["name"].Empty() {
		t.Fatalf("pristine field should not report, got %+v", report.Results["name"])
	}
	if diff := cmp.Diff(validation.Summary{Total: 2, Valid: 1}, report.Summary); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}

	submitted, err := form.Validate(true)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if diff := cmp.Diff([]string{"name required"}, submitted.Results["name"].Error); diff != "" {
		t.Fatalf("submit messages (-want +got):\n%s", diff)
	}

	if err := form.Update("name", "Ann"); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := form.Update("age", 12.0); err != nil {
		t.Fatalf("update: %v", err)
	}
	report, err = form.Validate(false)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !report.Results["name"].Empty() {
		t.Fatalf("name should be valid, got %+v", report.Results["name"])
	}
	if diff := cmp.Diff([]string{"too young"}, report.Results["age"].Error); diff != "" {
		t.Fatalf("age messages (-want +got):\n%s", diff)
	}
}

func TestForm_StatsReportCacheReuse(t *testing.T) {
	form := mustForm(t, petSchema(), engine.WithModel(map[string]any{"hasPet": true}))
	mustResolve(t, form)
	first := form.Stats()
	mustResolve(t, form)
	second := form.Stats()

	if second.Misses != first.Misses {
		t.Fatalf("unchanged model should not recompute: %+v then %+v", first, second)
	}
	if second.Hits <= first.Hits {
		t.Fatalf("expected cache hits, got %+v", second)
	}
}

func TestNew_RejectsMalformedSchema(t *testing.T) {
	_, err := engine.New(context.Background(), &schema.If{})
	if err == nil {
		t.Fatalf("expected an error")
	}
}

func TestPresetTransformer_PatchesCopy(t *testing.T) {
	fsys := fstest.MapFS{
		"preset.json": &fstest.MapFile{Data: []byte(`{
  "fields": {
    "email": {
      "widget": "email",
      "params": {"label": {"_modelPath": "labels.email"}},
      "classList": ["wide"],
      "validation": [{"type": "email", "message": "invalid address"}]
    }
  }
}`)},
	}
	preset, err := engine.NewPresetTransformerFromFS(fsys, "preset.json")
	if err != nil {
		t.Fatalf("load preset: %v", err)
	}

	original := schema.NewField("email", "")
	form := mustForm(t, schema.NewLevel("form", original),
		engine.WithSchemaTransformer(preset),
		engine.WithModel(map[string]any{"email": "nope", "labels": map[string]any{"email": "E-mail"}}),
	)

	fields := mustResolve(t, form)
	if len(fields) != 1 {
		t.Fatalf("expected one field, got %d", len(fields))
	}
	field := fields[0]
	if field.Widget == nil || field.Widget.Type != "email" || field.Widget.Params["label"] != "E-mail" {
		t.Fatalf("widget not patched: %+v", field.Widget)
	}
	if diff := cmp.Diff([]string{"wide"}, field.ClassList); diff != "" {
		t.Fatalf("class list (-want +got):\n%s", diff)
	}

	report, err := form.Validate(true)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if diff := cmp.Diff([]string{"invalid address"}, report.Results["email"].Error); diff != "" {
		t.Fatalf("messages (-want +got):\n%s", diff)
	}

	if original.Widget != nil || len(original.Validation) != 0 {
		t.Fatalf("caller schema must not be modified: %+v", original)
	}

	patched := schema.Fields(form.Schema())
	if len(patched) != 1 || patched[0].Widget == nil || patched[0].Widget.Type != "email" {
		t.Fatalf("form schema should carry the preset: %+v", patched)
	}
}

func TestPresetTransformer_UnknownField(t *testing.T) {
	preset, err := engine.NewPresetTransformer([]byte(`{"fields": {"missing": {"widget": "text"}}}`))
	if err != nil {
		t.Fatalf("parse preset: %v", err)
	}
	_, err = engine.New(context.Background(), schema.NewField("name", "text"), engine.WithSchemaTransformer(preset))
	if err == nil {
		t.Fatalf("expected an error for an unknown field")
	}
}

func TestTransformerFunc_ErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")
	_, err := engine.New(context.Background(), petSchema(), engine.WithSchemaTransformer(
		engine.TransformerFunc(func(context.Context, schema.Node) error { return boom }),
	))
	if !errors.Is(err, boom) {
		t.Fatalf("expected transformer error, got %v", err)
	}
}
