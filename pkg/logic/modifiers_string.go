package logic

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/goliatone/go-formtree/internal/dates"
)

func (o operation) string(s string) (any, error) {
	switch o.step.Command {
	case "join":
		right, err := o.stringArg(0)
		if err != nil {
			return nil, err
		}
		return s + right, nil
	case "length":
		return float64(utf8.RuneCountInString(s)), nil
	case "lowercase":
		return cases.Lower(language.Und).String(s), nil
	case "uppercase":
		return cases.Upper(language.Und).String(s), nil
	case "titlecase":
		return cases.Title(language.Und).String(s), nil
	case "slice":
		return o.slice(s)
	case "split":
		sep, err := o.stringArg(0)
		if err != nil {
			return nil, err
		}
		parts := strings.Split(s, sep)
		out := make([]any, len(parts))
		for i, part := range parts {
			out[i] = part
		}
		return out, nil
	case "testRegex":
		pattern, err := o.stringArg(0)
		if err != nil {
			return nil, err
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: string.testRegex: %v", ErrInvalidArgument, err)
		}
		return re.MatchString(s), nil
	case "isEqual":
		other, err := o.stringArg(0)
		if err != nil {
			return nil, err
		}
		return s == other, nil
	case "isSubstring":
		bigger, err := o.stringArg(0)
		if err != nil {
			return nil, err
		}
		return strings.Contains(bigger, s), nil
	case "containsSubstring":
		smaller, err := o.stringArg(0)
		if err != nil {
			return nil, err
		}
		return strings.Contains(s, smaller), nil
	case "toDate":
		t, err := dates.Parse(s, o.eval.now)
		if err != nil {
			return nil, nil
		}
		return t, nil
	case "debug":
		return o.debug(s)
	default:
		return nil, o.unknown()
	}
}

// slice follows String.prototype.slice: negative bounds count from the end
// and an omitted end means the end of the string.
func (o operation) slice(s string) (any, error) {
	runes := []rune(s)
	from, err := o.intArg(0)
	if err != nil {
		return nil, err
	}
	to := len(runes)
	if len(o.args) > 1 && o.args[1] != nil {
		if to, err = o.intArg(1); err != nil {
			return nil, err
		}
	}
	from = clampIndex(from, len(runes))
	to = clampIndex(to, len(runes))
	if from >= to {
		return "", nil
	}
	return string(runes[from:to]), nil
}

func clampIndex(idx, length int) int {
	if idx < 0 {
		idx += length
		if idx < 0 {
			return 0
		}
	}
	if idx > length {
		return length
	}
	return idx
}
