package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formtree/pkg/engine"
	"github.com/goliatone/go-formtree/pkg/logic"
	"github.com/goliatone/go-formtree/pkg/schema"
	"github.com/goliatone/go-formtree/pkg/validation"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	multiIdx     [][]int
	confirm      []bool
	textAreas    []string
	passwords    []string
	infoMessages []string
	inputPos     int
	selectPos    int
	multiPos     int
	confirmPos   int
	textPos      int
	passPos      int
	err          error
}

func (s *stubDriver) Input(_ context.Context, _ InputConfig) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Password(_ context.Context, _ InputConfig) (string, error) {
	if s.passPos >= len(s.passwords) {
		return "", errors.New("no password scripted")
	}
	val := s.passwords[s.passPos]
	s.passPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, _ SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, _ SelectConfig) ([]int, error) {
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multiselect scripted")
	}
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func newSession(t *testing.T, node schema.Node, driver PromptDriver, opts ...Option) *Session {
	t.Helper()
	form, err := engine.New(context.Background(), node)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	session, err := New(form, append([]Option{WithPromptDriver(driver)}, opts...)...)
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return session
}

func petForm() schema.Node {
	return schema.NewLevel("form",
		schema.NewField("name", "text", validation.Spec{Type: "required", Message: "name required"}),
		schema.NewField("hasPet", "toggle"),
		schema.NewIf(logic.Model("hasPet"),
			schema.NewField("pet", "select").WithParams(map[string]logic.Value{
				"options": logic.Lit([]any{"cat", "dog"}),
			}),
			nil,
		),
		schema.NewField("age", "number"),
	)
}

func TestRun_FollowsRevealedFields(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"", "Ann", "abc", "7"},
		confirm:   []bool{true},
		selectIdx: []int{1},
	}
	session := newSession(t, petForm(), driver, WithTheme(Theme{ErrorPrefix: "! "}))

	model, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := map[string]any{"name": "Ann", "hasPet": true, "pet": "dog", "age": 7.0}
	if diff := cmp.Diff(want, model); diff != "" {
		t.Fatalf("model mismatch (-want +got):\n%s", diff)
	}
	if driver.inputPos != 4 || driver.confirmPos != 1 || driver.selectPos != 1 {
		t.Fatalf("prompts not consumed as expected: %+v", driver)
	}
	if len(driver.infoMessages) != 2 || driver.infoMessages[0] != "! name required" {
		t.Fatalf("unexpected messages: %q", driver.infoMessages)
	}
}

func TestRun_SkipsHiddenBranch(t *testing.T) {
	driver := &stubDriver{
		inputs:  []string{"Bob", "40"},
		confirm: []bool{false},
	}
	session := newSession(t, petForm(), driver)

	model, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := map[string]any{"name": "Bob", "hasPet": false, "age": 40.0}
	if diff := cmp.Diff(want, model); diff != "" {
		t.Fatalf("model mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_MultiSelectAndJSON(t *testing.T) {
	node := schema.NewLevel("form",
		schema.NewField("tags", "chips").WithParams(map[string]logic.Value{
			"options": logic.Lit([]any{
				map[string]any{"label": "Red", "value": "r"},
				map[string]any{"label": "Blue", "value": "b"},
			}),
		}),
		schema.NewField("meta", "json-editor"),
	)
	driver := &stubDriver{
		multiIdx:  [][]int{{0, 1}},
		textAreas: []string{"{nope", `{"a": 1}`},
	}
	session := newSession(t, node, driver)

	model, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := map[string]any{"tags": []any{"r", "b"}, "meta": map[string]any{"a": 1.0}}
	if diff := cmp.Diff(want, model); diff != "" {
		t.Fatalf("model mismatch (-want +got):\n%s", diff)
	}
	if len(driver.infoMessages) != 1 {
		t.Fatalf("expected one message for invalid JSON, got %q", driver.infoMessages)
	}
}

func TestRun_SelectWithoutOptions(t *testing.T) {
	session := newSession(t, schema.NewField("pick", "select"), &stubDriver{})
	if _, err := session.Run(context.Background()); !errors.Is(err, ErrNoOptions) {
		t.Fatalf("expected ErrNoOptions, got %v", err)
	}
}

func TestRun_Aborted(t *testing.T) {
	session := newSession(t, schema.NewField("name", "text"), &stubDriver{err: ErrAborted})
	if _, err := session.Run(context.Background()); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestRun_PromptLimit(t *testing.T) {
	node := schema.NewFor("items", schema.NewField("items.$each", "text"))
	driver := &stubDriver{inputs: []string{"a"}}
	form, err := engine.New(context.Background(), node, engine.WithModel(map[string]any{"items": []any{"", "", ""}}))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	session, err := New(form, WithPromptDriver(driver), WithPromptLimit(1))
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, err := session.Run(context.Background()); !errors.Is(err, ErrPromptLimit) {
		t.Fatalf("expected ErrPromptLimit, got %v", err)
	}
}

func TestRun_PromptLimitCountsRetries(t *testing.T) {
	node := schema.NewField("name", "text", validation.Spec{Type: "always", Message: "never valid"})
	inputs := make([]string, 50)
	for i := range inputs {
		inputs[i] = "Ann"
	}
	driver := &stubDriver{inputs: inputs}
	session := newSession(t, node, driver, WithPromptLimit(3))

	if _, err := session.Run(context.Background()); !errors.Is(err, ErrPromptLimit) {
		t.Fatalf("expected ErrPromptLimit, got %v", err)
	}
	if driver.inputPos != 3 {
		t.Fatalf("expected 3 prompts, got %d", driver.inputPos)
	}
}

func TestRun_WidgetPrompts(t *testing.T) {
	node := schema.NewLevel("form",
		schema.NewField("score", "stars"),
		schema.NewField("nick", "fancy"),
	)
	driver := &stubDriver{inputs: []string{"4", "annie"}}
	session := newSession(t, node, driver, WithWidgetPrompt("stars", PromptNumber))

	model, err := session.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := map[string]any{"score": 4.0, "nick": "annie"}
	if diff := cmp.Diff(want, model); diff != "" {
		t.Fatalf("model mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_RejectsBlankWidgetPrompt(t *testing.T) {
	form, err := engine.New(context.Background(), schema.NewField("name", "text"))
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	if _, err := New(form, WithPromptDriver(&stubDriver{}), WithWidgetPrompt(" ", PromptInput)); err == nil {
		t.Fatalf("expected an error")
	}
}

func TestRender_SubmitTransformer(t *testing.T) {
	driver := &stubDriver{inputs: []string{"Ann"}}
	session := newSession(t, schema.NewField("name", "text"), driver,
		WithOutputFormat(OutputFormatPrettyText),
		WithSubmitTransformer(func(model any) (any, error) {
			return map[string]any{"payload": model}, nil
		}),
	)

	out, err := session.Render(context.Background())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := string(out); got != "payload.name=Ann\n" {
		t.Fatalf("unexpected output %q", got)
	}
	if session.ContentType() != "text/plain" {
		t.Fatalf("unexpected content type %q", session.ContentType())
	}
}

func TestEncode_Formats(t *testing.T) {
	model := map[string]any{"a": 1.0, "b": map[string]any{"c": "x"}, "l": []any{"p", "q"}}

	cases := []struct {
		format OutputFormat
		want   string
	}{
		{OutputFormatPrettyText, "a=1\nb.c=x\nl[0]=p\nl[1]=q\n"},
		{OutputFormatFormURLEncoded, "a=1&b.c=x&l%5B%5D=p&l%5B%5D=q"},
	}
	for _, tc := range cases {
		out, err := Encode(model, tc.format)
		if err != nil {
			t.Fatalf("encode %s: %v", tc.format, err)
		}
		if got := string(out); got != tc.want {
			t.Fatalf("encode %s: got %q, want %q", tc.format, got, tc.want)
		}
	}

	out, err := Encode(model, OutputFormatYAML)
	if err != nil {
		t.Fatalf("encode yaml: %v", err)
	}
	if !strings.Contains(string(out), "c: x") {
		t.Fatalf("yaml output missing nested key:\n%s", out)
	}

	out, err = Encode(model, OutputFormatJSON)
	if err != nil {
		t.Fatalf("encode json: %v", err)
	}
	if !strings.Contains(string(out), `"c": "x"`) {
		t.Fatalf("json output missing nested key:\n%s", out)
	}
}
