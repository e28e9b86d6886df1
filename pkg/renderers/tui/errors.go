package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoOptions is returned when a select widget resolves without options.
	ErrNoOptions = errors.New("tui: select widget has no options")
	// ErrPromptLimit is returned when a session asks more questions than its
	// configured limit, which happens when answers keep growing the form.
	ErrPromptLimit = errors.New("tui: prompt limit reached")
)
