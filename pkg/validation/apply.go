package validation

import (
	"sort"

	"github.com/goliatone/go-formtree/pkg/modelpath"
)

// Result buckets failure messages by level.
type Result struct {
	Error   []string `json:"error,omitempty"`
	Warn    []string `json:"warn,omitempty"`
	Info    []string `json:"info,omitempty"`
	Success []string `json:"success,omitempty"`
}

// Messages returns the messages reported at level.
func (r Result) Messages(level Level) []string {
	switch level {
	case LevelError:
		return r.Error
	case LevelWarn:
		return r.Warn
	case LevelInfo:
		return r.Info
	case LevelSuccess:
		return r.Success
	default:
		return nil
	}
}

// Empty reports whether no level carries a message.
func (r Result) Empty() bool {
	return len(r.Error)+len(r.Warn)+len(r.Info)+len(r.Success) == 0
}

func (r *Result) add(level Level, message string) {
	switch level {
	case LevelWarn:
		r.Warn = append(r.Warn, message)
	case LevelInfo:
		r.Info = append(r.Info, message)
	case LevelSuccess:
		r.Success = append(r.Success, message)
	default:
		r.Error = append(r.Error, message)
	}
}

// Merge appends other's messages after r's, level by level.
func (r Result) Merge(other Result) Result {
	return Result{
		Error:   append(append([]string(nil), r.Error...), other.Error...),
		Warn:    append(append([]string(nil), r.Warn...), other.Warn...),
		Info:    append(append([]string(nil), r.Info...), other.Info...),
		Success: append(append([]string(nil), r.Success...), other.Success...),
	}
}

// Curried yields the messages for one value. When dirty is false, messages
// of validators without RunOnEmpty are withheld.
type Curried func(dirty bool) Result

// Applier runs a set of validators against a field value.
type Applier func(value any) Curried

type failure struct {
	level      Level
	message    string
	runOnEmpty bool
}

// BuildApplier runs every validator once per value and filters the failures
// by dirtiness on demand.
func BuildApplier(validators []Prepared) Applier {
	validators = append([]Prepared(nil), validators...)
	return func(value any) Curried {
		var failures []failure
		for _, v := range validators {
			if v.Predicate == nil || v.Predicate(value) {
				continue
			}
			failures = append(failures, failure{level: v.Level, message: v.Message, runOnEmpty: v.RunOnEmpty})
		}
		return func(dirty bool) Result {
			var result Result
			for _, f := range failures {
				if f.runOnEmpty || dirty {
					result.add(f.level, f.message)
				}
			}
			return result
		}
	}
}

// Binding pairs a concrete model path with the validators of one field.
type Binding struct {
	ModelPath  string
	Validators []Prepared
}

// Collected maps concrete model paths to appliers. Fields sharing a path
// share an applier that reports every field's validators.
type Collected map[string]Applier

// Group builds one applier per model path. Validators of fields bound to the
// same path accumulate; results merge in field order.
func Group(bindings []Binding) Collected {
	grouped := make(map[string][]Applier)
	for _, binding := range bindings {
		if binding.ModelPath == "" || binding.Validators == nil {
			continue
		}
		grouped[binding.ModelPath] = append(grouped[binding.ModelPath], BuildApplier(binding.Validators))
	}

	out := make(Collected, len(grouped))
	for path, appliers := range grouped {
		appliers := appliers
		out[path] = func(value any) Curried {
			curried := make([]Curried, len(appliers))
			for i, applier := range appliers {
				curried[i] = applier(value)
			}
			return func(dirty bool) Result {
				var result Result
				for _, c := range curried {
					result = result.Merge(c(dirty))
				}
				return result
			}
		}
	}
	return out
}

// Paths lists the collected model paths in order.
func (c Collected) Paths() []string {
	paths := make([]string, 0, len(c))
	for path := range c {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Bind applies every applier to the value found at its path in model.
func (c Collected) Bind(model any) map[string]Curried {
	out := make(map[string]Curried, len(c))
	for path, applier := range c {
		out[path] = applier(modelpath.Resolve(path, model, nil))
	}
	return out
}

// Summary is the aggregate validity of a form.
type Summary struct {
	Total    int  `json:"total"`
	Valid    int  `json:"valid"`
	AllValid bool `json:"allValid"`
}

// Validity counts paths with no messages at any of levels (error when none
// are given), evaluating every applier as dirty.
func Validity(bound map[string]Curried, levels ...Level) Summary {
	if len(levels) == 0 {
		levels = []Level{LevelError}
	}
	summary := Summary{AllValid: true}
	for _, curried := range bound {
		result := curried(true)
		clean := true
		for _, level := range levels {
			if len(result.Messages(level)) > 0 {
				clean = false
				break
			}
		}
		summary.Total++
		if clean {
			summary.Valid++
		} else {
			summary.AllValid = false
		}
	}
	return summary
}
