package logic

import (
	"time"

	"github.com/goliatone/go-formtree/internal/dates"
)

func (o operation) date(t time.Time) (any, error) {
	switch o.step.Command {
	case "add", "subtract":
		amount, err := o.intArg(0)
		if err != nil {
			return nil, err
		}
		step, err := o.stepArg(1)
		if err != nil {
			return nil, err
		}
		if o.step.Command == "subtract" {
			amount = -amount
		}
		return dates.Add(t, amount, step), nil
	case "difference":
		target, ok, err := o.dateArg(0)
		if err != nil || !ok {
			return nil, err
		}
		step, err := o.stepArg(1)
		if err != nil {
			return nil, err
		}
		return float64(dates.Difference(t, target, step)), nil
	case "isBefore":
		target, ok, err := o.dateArg(0)
		if err != nil || !ok {
			return nil, err
		}
		return t.Before(target), nil
	case "isAfter":
		target, ok, err := o.dateArg(0)
		if err != nil || !ok {
			return nil, err
		}
		return t.After(target), nil
	case "debug":
		return o.debug(t)
	default:
		return nil, o.unknown()
	}
}

// dateArg reads a date-like argument. Values of the wrong kind are argument
// errors; strings that do not parse report ok=false so the step yields nothing.
func (o operation) dateArg(idx int) (time.Time, bool, error) {
	if err := o.arity(idx + 1); err != nil {
		return time.Time{}, false, err
	}
	switch o.args[idx].(type) {
	case string, time.Time, *time.Time:
	default:
		return time.Time{}, false, o.argError(idx, "a date")
	}
	t, err := dates.Parse(o.args[idx], o.eval.now)
	if err != nil {
		return time.Time{}, false, nil
	}
	return t, true, nil
}
