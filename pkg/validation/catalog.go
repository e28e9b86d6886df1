package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"github.com/goliatone/go-formtree/internal/coerce"
	"github.com/goliatone/go-formtree/internal/dates"
	"github.com/goliatone/go-formtree/pkg/modelpath"
)

// Args carries resolved params into a validator factory.
type Args struct {
	// Params is nil when the spec declared no params.
	Params map[string]any
	// Now is the clock used for the "now" date sentinel.
	Now func() time.Time
}

// Decode copies params into out, a pointer to a struct tagged with
// `mapstructure`. Input is weakly typed so "3" decodes into a number. Every
// key in required must be present and non-nil.
func (a Args) Decode(out any, required ...string) error {
	for _, key := range required {
		if a.Params[key] == nil {
			return fmt.Errorf("missing param %q", key)
		}
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(a.Params); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	return nil
}

// Factory builds a predicate from resolved params.
type Factory func(args Args) (Predicate, error)

// Catalog maps validator names to factories. The zero value is empty; use
// NewCatalog for one holding the built-ins.
type Catalog struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

var defaultCatalog = NewCatalog()

// DefaultCatalog returns the catalog used by the package level helpers.
func DefaultCatalog() *Catalog { return defaultCatalog }

// NewCatalog returns a catalog with every built-in validator registered.
func NewCatalog() *Catalog {
	c := &Catalog{}
	c.registerBuiltins()
	return c
}

// Register adds a validator. Registering an existing name fails.
func (c *Catalog) Register(name string, factory Factory) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("validation: validator name is required")
	}
	if factory == nil {
		return fmt.Errorf("validation: validator %q has no factory", trimmed)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.factories == nil {
		c.factories = make(map[string]Factory)
	}
	if _, exists := c.factories[trimmed]; exists {
		return fmt.Errorf("validation: validator %q already registered", trimmed)
	}
	c.factories[trimmed] = factory
	return nil
}

// Names lists registered validators in alphabetical order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.factories))
	for name := range c.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) lookup(name string) (Factory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	factory, ok := c.factories[strings.TrimSpace(name)]
	return factory, ok
}

var (
	alphaPattern    = regexp.MustCompile(`^[a-zA-Z]*$`)
	alphaNumPattern = regexp.MustCompile(`^[a-zA-Z0-9]*$`)
	numericPattern  = regexp.MustCompile(`^[0-9]*$`)
	integerPattern  = regexp.MustCompile(`(^[0-9]*$)|(^-[0-9]+$)`)
	decimalPattern  = regexp.MustCompile(`^[-]?\d*(\.\d+)?$`)
	emailPattern    = regexp.MustCompile(`(^$|^(([^<>()\[\]\\.,;:\s@"]+(\.[^<>()\[\]\\.,;:\s@"]+)*)|(".+"))@((\[[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\])|(([a-zA-Z\-0-9]+\.)+[a-zA-Z]{2,}))$)`)
)

type minParams struct {
	Min float64 `mapstructure:"min"`
}

type maxParams struct {
	Max float64 `mapstructure:"max"`
}

type rangeParams struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

type patternParams struct {
	Pattern string `mapstructure:"pattern"`
}

type dateBoundParams struct {
	Min       any  `mapstructure:"min"`
	Max       any  `mapstructure:"max"`
	Inclusive bool `mapstructure:"inclusive"`
}

type pathParams struct {
	Path string `mapstructure:"path"`
}

type predicateParams struct {
	Test any `mapstructure:"test"`
}

func constant(p Predicate) Factory {
	return func(Args) (Predicate, error) { return p, nil }
}

func (c *Catalog) registerBuiltins() {
	builtins := map[string]Factory{
		"always":   constant(func(any) bool { return false }),
		"required": constant(Req),
		"isTrue":   constant(func(v any) bool { return v == true }),
		"isTruthy": constant(coerce.Truthy),
		"isFalse":  constant(func(v any) bool { return v == false }),
		"isFalsy":  constant(func(v any) bool { return !coerce.Truthy(v) }),
		"minLength": func(args Args) (Predicate, error) {
			var p minParams
			if err := args.Decode(&p, "min"); err != nil {
				return nil, err
			}
			return func(v any) bool { return !Req(v) || float64(Len(v)) >= p.Min }, nil
		},
		"maxLength": func(args Args) (Predicate, error) {
			var p maxParams
			if err := args.Decode(&p, "max"); err != nil {
				return nil, err
			}
			return func(v any) bool { return !Req(v) || float64(Len(v)) <= p.Max }, nil
		},
		"lengthBetween": func(args Args) (Predicate, error) {
			var p rangeParams
			if err := args.Decode(&p, "min", "max"); err != nil {
				return nil, err
			}
			return func(v any) bool {
				n := float64(Len(v))
				return !Req(v) || (n >= p.Min && n <= p.Max)
			}, nil
		},
		"minValue": func(args Args) (Predicate, error) {
			var p minParams
			if err := args.Decode(&p, "min"); err != nil {
				return nil, err
			}
			return numeric(func(n float64) bool { return n >= p.Min }), nil
		},
		"maxValue": func(args Args) (Predicate, error) {
			var p maxParams
			if err := args.Decode(&p, "max"); err != nil {
				return nil, err
			}
			return numeric(func(n float64) bool { return n <= p.Max }), nil
		},
		"between": func(args Args) (Predicate, error) {
			var p rangeParams
			if err := args.Decode(&p, "min", "max"); err != nil {
				return nil, err
			}
			return numeric(func(n float64) bool { return n >= p.Min && n <= p.Max }), nil
		},
		"alpha":    constant(Regex(alphaPattern)),
		"alphaNum": constant(Regex(alphaNumPattern)),
		"numeric":  constant(Regex(numericPattern)),
		"integer":  constant(Regex(integerPattern)),
		"decimal":  constant(Regex(decimalPattern)),
		"email":    constant(Regex(emailPattern)),
		"regex": func(args Args) (Predicate, error) {
			var p patternParams
			if err := args.Decode(&p, "pattern"); err != nil {
				return nil, err
			}
			re, err := regexp.Compile(p.Pattern)
			if err != nil {
				return nil, err
			}
			return Regex(re), nil
		},
		"minDate": func(args Args) (Predicate, error) {
			var p dateBoundParams
			if err := args.Decode(&p, "min"); err != nil {
				return nil, err
			}
			return dateBound(args, p.Min, func(value, bound time.Time) bool {
				return value.After(bound) || (p.Inclusive && value.Equal(bound))
			}), nil
		},
		"maxDate": func(args Args) (Predicate, error) {
			var p dateBoundParams
			if err := args.Decode(&p, "max"); err != nil {
				return nil, err
			}
			return dateBound(args, p.Max, func(value, bound time.Time) bool {
				return value.Before(bound) || (p.Inclusive && value.Equal(bound))
			}), nil
		},
		"pathIsNotNull": func(args Args) (Predicate, error) {
			var p pathParams
			if err := args.Decode(&p, "path"); err != nil {
				return nil, err
			}
			segments := modelpath.Segments(p.Path)
			return func(v any) bool {
				if !Req(v) {
					return true
				}
				if !coerce.IsObject(v) && !coerce.IsSlice(v) {
					return false
				}
				return modelpath.Get(v, segments) != nil
			}, nil
		},
		"predicate": func(args Args) (Predicate, error) {
			var p predicateParams
			if err := args.Decode(&p); err != nil {
				return nil, err
			}
			result := coerce.Truthy(p.Test)
			return func(any) bool { return result }, nil
		},
	}
	for name, factory := range builtins {
		// names are unique in the literal above
		_ = c.Register(name, factory)
	}
}

// numeric passes empty values and fails values that are not numbers.
func numeric(check func(float64) bool) Predicate {
	return func(v any) bool {
		if !Req(v) {
			return true
		}
		n, ok := coerce.ParseNumber(v)
		return ok && check(n)
	}
}

// dateBound compares date-like values against a bound parsed once. An
// invalid bound or value fails.
func dateBound(args Args, raw any, check func(value, bound time.Time) bool) Predicate {
	bound, boundErr := dates.Parse(raw, args.Now)
	return func(v any) bool {
		if !Req(v) {
			return true
		}
		if boundErr != nil {
			return false
		}
		value, err := dates.Parse(v, args.Now)
		if err != nil {
			return false
		}
		return check(value, bound)
	}
}
