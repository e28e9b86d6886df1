package html_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-formtree/pkg/engine"
	"github.com/goliatone/go-formtree/pkg/logic"
	"github.com/goliatone/go-formtree/pkg/renderers/html"
	"github.com/goliatone/go-formtree/pkg/schema"
	"github.com/goliatone/go-formtree/pkg/validation"
	"github.com/goliatone/go-formtree/pkg/widgets"
)

func profileSchema() schema.Node {
	return &schema.Level{
		Level:     "profile",
		Context:   map[string]any{"title": "<b>Profile</b>"},
		ClassList: logic.Lits("card", "ft-reserved"),
		Children: []schema.Node{
			schema.NewField("name", "text", validation.Spec{Type: "required", Message: "name required"}).
				WithParams(map[string]logic.Value{
					"label":       logic.Lit("<i>Name</i>"),
					"description": logic.Lit("<em>who</em><script>alert(1)</script>"),
				}),
			schema.NewField("hasPet", ""),
			schema.NewField("pet", "select").WithParams(map[string]logic.Value{
				"options": logic.Lit([]any{
					map[string]any{"label": "Cat", "value": "cat"},
					map[string]any{"label": "Dog", "value": "dog"},
				}),
			}),
			schema.NewField("tags", "chips").WithParams(map[string]logic.Value{
				"options": logic.Lit([]any{"a", "b"}),
			}),
			schema.NewField("born", "date"),
			schema.NewField("meta", "json-editor"),
			schema.NewField("nick", "fancy"),
		},
	}
}

func mustForm(t *testing.T, node schema.Node, model any) *engine.Form {
	t.Helper()
	form, err := engine.New(context.Background(), node,
		engine.WithModel(model),
		engine.WithDecorators(widgets.NewRegistry[string]()),
	)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	return form
}

func mustRenderer(t *testing.T, opts ...html.Option) *html.Renderer {
	t.Helper()
	r, err := html.New(opts...)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r
}

func assertContains(t *testing.T, out string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(out, fragment) {
			t.Fatalf("output missing %q:\n%s", fragment, out)
		}
	}
}

func TestRender_WidgetsAndValues(t *testing.T) {
	model := map[string]any{
		"name":   "<Ann>",
		"hasPet": true,
		"pet":    "dog",
		"tags":   []any{"a"},
		"born":   "2001-02-03",
		"meta":   map[string]any{"k": 1},
		"nick":   "annie",
	}
	form := mustForm(t, profileSchema(), model)
	tree, err := form.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	out, err := mustRenderer(t).Render(context.Background(), tree, form.Model())
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	assertContains(t, string(out),
		`<form class="formtree-form" method="post" novalidate>`,
		`<fieldset class="formtree-level card" data-level="profile">`,
		`<legend>Profile</legend>`,
		`<label for="ft-name">Name</label>`,
		`<input type="text" id="ft-name" name="name" value="&lt;Ann&gt;" required>`,
		`<div class="formtree-description"><em>who</em></div>`,
		`<input type="checkbox" id="ft-hasPet" name="hasPet" value="true" checked>`,
		`<option value="cat">Cat</option><option value="dog" selected>Dog</option>`,
		`name="tags[]" multiple><option value="a" selected>a</option><option value="b">b</option>`,
		`<input type="date" id="ft-born" name="born" value="2001-02-03">`,
		`data-format="json"`,
		`data-path="nick" data-widget="text"`,
		`<input type="text" id="ft-nick" name="nick" value="annie">`,
	)
	if strings.Contains(string(out), "script") || strings.Contains(string(out), "ft-reserved") {
		t.Fatalf("unsanitized output:\n%s", out)
	}
}

func TestRenderForm_ShowsValidationMessages(t *testing.T) {
	form := mustForm(t, schema.NewLevel("form",
		schema.NewField("name", "text", validation.Spec{Type: "required", Message: "name required"}),
	), map[string]any{})

	r := mustRenderer(t)
	pristine, err := r.RenderForm(context.Background(), form, false)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(string(pristine), "name required") {
		t.Fatalf("pristine form should not show errors:\n%s", pristine)
	}

	out, err := r.RenderForm(context.Background(), form, true,
		html.WithAction("/save"),
		html.WithSubmit("Save"),
	)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	assertContains(t, string(out),
		`action="/save"`,
		`formtree-field formtree-field--invalid`,
		`<p class="formtree-error">name required</p>`,
		`<button type="submit">Save</button>`,
	)
}

func TestRender_TemplateOverrides(t *testing.T) {
	overrides := fstest.MapFS{
		"widgets/text.tmpl":  &fstest.MapFile{Data: []byte(`<span>{{ name }}</span>`)},
		"widgets/fancy.tmpl": &fstest.MapFile{Data: []byte(`<fancy-input name="{{ name }}"></fancy-input>`)},
	}
	form := mustForm(t, schema.NewLevel("form",
		schema.NewField("name", "text"),
		schema.NewField("nick", "fancy"),
	), map[string]any{})
	tree, err := form.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	r := mustRenderer(t, html.WithTemplates(overrides), html.WithClasses(html.Classes{Form: "my-form"}))
	out, err := r.Render(context.Background(), tree, form.Model())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	assertContains(t, string(out),
		`<form class="my-form"`,
		`<span>name</span>`,
		`<fancy-input name="nick"></fancy-input>`,
		`class="formtree-field"`,
	)
}

func TestRender_WidgetMappings(t *testing.T) {
	bundle := fstest.MapFS{
		"custom/stars.tmpl": &fstest.MapFile{Data: []byte(`<star-rating name="{{ name }}"></star-rating>`)},
	}
	form := mustForm(t, schema.NewField("score", "rating"), map[string]any{})
	tree, err := form.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	r := mustRenderer(t, html.WithTemplates(bundle), html.WithWidget("rating", "custom/stars.tmpl"))
	if !slices.Contains(r.Widgets(), "rating") || !slices.Contains(r.Widgets(), widgets.WidgetSelect) {
		t.Fatalf("unexpected widget list: %v", r.Widgets())
	}
	out, err := r.Render(context.Background(), tree, form.Model())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	assertContains(t, string(out), `<star-rating name="score"></star-rating>`, `data-widget="rating"`)
}

func TestRender_StrictWidgetsRejectUnknown(t *testing.T) {
	form := mustForm(t, schema.NewField("nick", "fancy"), map[string]any{})
	tree, err := form.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	_, err = mustRenderer(t, html.WithStrictWidgets()).Render(context.Background(), tree, form.Model())
	if !errors.Is(err, widgets.ErrNotFound) {
		t.Fatalf("expected widgets.ErrNotFound, got %v", err)
	}
}

func TestNew_RejectsInvalidWidgetMapping(t *testing.T) {
	if _, err := html.New(html.WithWidget("../escape", "x.tmpl")); err == nil {
		t.Fatalf("expected an error")
	}
}

func TestRender_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := mustRenderer(t).Render(ctx, nil, nil); err == nil {
		t.Fatalf("expected an error")
	}
}
