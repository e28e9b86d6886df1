package html

import (
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/goccy/go-json"

	"github.com/goliatone/go-formtree/internal/coerce"
	"github.com/goliatone/go-formtree/internal/dates"
	"github.com/goliatone/go-formtree/pkg/modelpath"
	"github.com/goliatone/go-formtree/pkg/resolution"
	"github.com/goliatone/go-formtree/pkg/widgets"
)

// fieldView builds the widget template context. Values come from the model,
// params from the resolved widget.
func fieldView(field *resolution.ResolvedField, widget string, model any) pongo2.Context {
	var value any
	if field.ModelPath != "" {
		value = modelpath.Resolve(field.ModelPath, model, nil)
	}
	params := map[string]any{}
	if field.Widget != nil {
		for k, v := range field.Widget.Params {
			params[k] = v
		}
	}

	view := pongo2.Context{
		"id":          controlID(field.ModelPath),
		"name":        field.ModelPath,
		"params":      params,
		"placeholder": stringParam(field, "placeholder"),
		"required":    isRequired(field),
		"value":       coerce.String(value),
	}
	switch widget {
	case widgets.WidgetToggle:
		view["checked"] = coerce.Truthy(value)
	case widgets.WidgetSelect, widgets.WidgetChips:
		view["options"] = optionViews(params["options"], value)
	case widgets.WidgetDate:
		view["value"] = dateText(value)
	case widgets.WidgetJSONEditor:
		view["value"] = jsonText(value)
	}
	return view
}

func controlID(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	return "ft-" + strings.ReplaceAll(trimmed, ".", "-")
}

// sanitizeClassList drops tokens in the reserved ft- namespace.
func sanitizeClassList(classes []string) string {
	keep := make([]string, 0, len(classes))
	for _, class := range classes {
		for _, token := range strings.Fields(class) {
			if strings.HasPrefix(token, "ft-") {
				continue
			}
			keep = append(keep, token)
		}
	}
	return strings.Join(keep, " ")
}

func validWidgetName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

func stringParam(field *resolution.ResolvedField, key string) string {
	if field.Widget == nil {
		return ""
	}
	value, ok := field.Widget.Params[key]
	if !ok || value == nil {
		return ""
	}
	return coerce.String(value)
}

func displayLabel(field *resolution.ResolvedField) string {
	if label := stringParam(field, "label"); label != "" {
		return label
	}
	return field.ModelPath
}

func levelTitle(level *resolution.ResolvedLevel) string {
	obj, ok := coerce.Object(level.Context)
	if !ok {
		return ""
	}
	for _, key := range []string{"title", "label"} {
		if v, ok := obj[key]; ok && v != nil {
			return coerce.String(v)
		}
	}
	return ""
}

func isRequired(field *resolution.ResolvedField) bool {
	for _, v := range field.Validation {
		if v.Type == "required" {
			return true
		}
	}
	return false
}

// optionViews renders options as {label, value, selected}. Options may be
// plain values or {label, value} objects; a list value selects many.
func optionViews(raw any, current any) []map[string]any {
	options, _ := coerce.Slice(raw)
	selected := map[string]bool{}
	if list, ok := coerce.Slice(current); ok {
		for _, item := range list {
			selected[coerce.String(item)] = true
		}
	} else if current != nil {
		selected[coerce.String(current)] = true
	}

	out := make([]map[string]any, 0, len(options))
	for _, option := range options {
		label, value := coerce.String(option), option
		if obj, ok := coerce.Object(option); ok {
			if v, ok := obj["value"]; ok {
				value = v
			}
			label = coerce.String(value)
			if l, ok := obj["label"]; ok {
				label = coerce.String(l)
			}
		}
		text := coerce.String(value)
		out = append(out, map[string]any{
			"label":    label,
			"value":    text,
			"selected": selected[text],
		})
	}
	return out
}

func dateText(value any) string {
	if value == nil || value == "" {
		return ""
	}
	t, err := dates.Parse(value, time.Now)
	if err != nil {
		return coerce.String(value)
	}
	return t.Format(time.DateOnly)
}

func jsonText(value any) string {
	if value == nil {
		return ""
	}
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return coerce.String(value)
	}
	return string(out)
}
