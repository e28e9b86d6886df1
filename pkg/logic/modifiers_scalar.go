package logic

import (
	"github.com/goliatone/go-formtree/internal/coerce"
)

func (o operation) boolean(x bool) (any, error) {
	switch o.step.Command {
	case "not":
		return !x, nil
	case "and":
		y, err := o.boolArg(0)
		if err != nil {
			return nil, err
		}
		return x && y, nil
	case "or":
		y, err := o.boolArg(0)
		if err != nil {
			return nil, err
		}
		return x || y, nil
	case "xor":
		y, err := o.boolArg(0)
		if err != nil {
			return nil, err
		}
		return x != y, nil
	case "debug":
		return o.debug(x)
	default:
		return nil, o.unknown()
	}
}

func (o operation) number(x float64) (any, error) {
	switch o.step.Command {
	case "double":
		return x * x, nil
	case "toString":
		return coerce.FormatNumber(x), nil
	case "debug":
		return o.debug(x)
	case "add", "sub", "mul", "div", "eq", "lt", "lte", "gt", "gte":
	default:
		return nil, o.unknown()
	}

	y, err := o.numberArg(0)
	if err != nil {
		return nil, err
	}
	switch o.step.Command {
	case "add":
		return x + y, nil
	case "sub":
		return x - y, nil
	case "mul":
		return x * y, nil
	case "div":
		return x / y, nil
	case "eq":
		return x == y, nil
	case "lt":
		return x < y, nil
	case "lte":
		return x <= y, nil
	case "gt":
		return x > y, nil
	default:
		return x >= y, nil
	}
}
