package logic

import (
	"sort"

	"github.com/goliatone/go-formtree/pkg/modelpath"
)

func (o operation) array(list []any) (any, error) {
	switch o.step.Command {
	case "length":
		return float64(len(list)), nil
	case "at":
		idx, err := o.intArg(0)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(list) {
			return nil, nil
		}
		return list[idx], nil
	case "debug":
		return o.debug(list)
	default:
		return nil, o.unknown()
	}
}

func (o operation) object(obj map[string]any) (any, error) {
	switch o.step.Command {
	case "keys":
		keys := make([]string, 0, len(obj))
		for key := range obj {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		out := make([]any, len(keys))
		for i, key := range keys {
			out[i] = key
		}
		return out, nil
	case "get":
		key, err := o.stringArg(0)
		if err != nil {
			return nil, err
		}
		return obj[key], nil
	case "path":
		path, err := o.stringArg(0)
		if err != nil {
			return nil, err
		}
		return modelpath.Get(obj, modelpath.Segments(path)), nil
	case "debug":
		return o.debug(obj)
	default:
		return nil, o.unknown()
	}
}
