package html

// ChromeClass is a typed identifier for semantic chrome CSS classes.
type ChromeClass string

const (
	ClassForm        ChromeClass = "formtree-form"
	ClassLevel       ChromeClass = "formtree-level"
	ClassField       ChromeClass = "formtree-field"
	ClassInvalid     ChromeClass = "formtree-field--invalid"
	ClassDescription ChromeClass = "formtree-description"
	ClassError       ChromeClass = "formtree-error"
	ClassWarning     ChromeClass = "formtree-warning"
	ClassActions     ChromeClass = "formtree-actions"
)

// Classes overrides the chrome classes. Empty entries keep the defaults.
type Classes struct {
	Form        string
	Level       string
	Field       string
	Invalid     string
	Description string
	Error       string
	Warning     string
	Actions     string
}

// DefaultClasses returns the built-in chrome classes.
func DefaultClasses() Classes {
	return Classes{
		Form:        string(ClassForm),
		Level:       string(ClassLevel),
		Field:       string(ClassField),
		Invalid:     string(ClassInvalid),
		Description: string(ClassDescription),
		Error:       string(ClassError),
		Warning:     string(ClassWarning),
		Actions:     string(ClassActions),
	}
}

func (c Classes) merge(overrides Classes) Classes {
	pick := func(current, override string) string {
		if override != "" {
			return override
		}
		return current
	}
	return Classes{
		Form:        pick(c.Form, overrides.Form),
		Level:       pick(c.Level, overrides.Level),
		Field:       pick(c.Field, overrides.Field),
		Invalid:     pick(c.Invalid, overrides.Invalid),
		Description: pick(c.Description, overrides.Description),
		Error:       pick(c.Error, overrides.Error),
		Warning:     pick(c.Warning, overrides.Warning),
		Actions:     pick(c.Actions, overrides.Actions),
	}
}

func (c Classes) context() map[string]any {
	return map[string]any{
		"form":        c.Form,
		"level":       c.Level,
		"field":       c.Field,
		"invalid":     c.Invalid,
		"description": c.Description,
		"error":       c.Error,
		"warning":     c.Warning,
		"actions":     c.Actions,
	}
}
