// Package resolution compiles schema trees into prepared trees of memoized
// resolvers and resolves them against model snapshots into branch-free
// resolved trees.
package resolution

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/goliatone/go-formtree/pkg/logic"
	"github.com/goliatone/go-formtree/pkg/schema"
	"github.com/goliatone/go-formtree/pkg/validation"
)

// Tag identifies the prepared node variant.
type Tag string

const (
	TagBranch Tag = "branch"
	TagArray  Tag = "array"
	TagLevel  Tag = "level"
	TagField  Tag = "field"
)

// Prepared is one of *Branch, *BranchArray, *PreparedLevel or *PreparedField.
type Prepared interface {
	Tag() Tag
	// Stats reports the cache counters of this node only.
	Stats() Stats
	// Reset drops cached results and counters of this node only.
	Reset()
	prepared()
}

// Option customises preparation.
type Option func(*env)

// WithEvaluator sets the evaluator used by every resolver of the tree.
func WithEvaluator(ev *logic.Evaluator) Option {
	return func(e *env) {
		if ev != nil {
			e.eval = ev
		}
	}
}

// WithCatalog sets the validator catalog fields prepare their specs with.
func WithCatalog(catalog *validation.Catalog) Option {
	return func(e *env) {
		if catalog != nil {
			e.catalog = catalog
		}
	}
}

// WithLogger traces cache misses at trace level.
func WithLogger(logger hclog.Logger) Option {
	return func(e *env) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// env is shared by every node of one prepared tree.
type env struct {
	eval    *logic.Evaluator
	catalog *validation.Catalog
	logger  hclog.Logger
}

// Prepare validates node and compiles it, children first. Structural problems
// are reported together as a *multierror.Error.
func Prepare(node schema.Node, opts ...Option) (Prepared, error) {
	if err := schema.Validate(node); err != nil {
		return nil, fmt.Errorf("resolution: prepare: %w", err)
	}
	e := &env{
		eval:    logic.Default(),
		catalog: validation.DefaultCatalog(),
		logger:  hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(e)
	}
	return e.prepare(node), nil
}

func (e *env) prepare(node schema.Node) Prepared {
	switch n := node.(type) {
	case *schema.If:
		branch := &Branch{env: e, kind: schema.KindIf}
		branch.cases = []branchCase{{predicate: n.Predicate, then: e.prepare(n.Then)}}
		branch.fallback = e.prepareOptional(n.Else)
		return branch
	case *schema.Elif:
		branch := &Branch{env: e, kind: schema.KindElif}
		for _, c := range n.Elifs {
			branch.cases = append(branch.cases, branchCase{predicate: c.Predicate, then: e.prepare(c.Then)})
		}
		branch.fallback = e.prepareOptional(n.Else)
		return branch
	case *schema.Switch:
		branch := &Branch{env: e, kind: schema.KindSwitch, switchOn: n.Value}
		branch.keyed = make(map[string]Prepared, len(n.Cases))
		for key, child := range n.Cases {
			branch.keyed[key] = e.prepare(child)
		}
		branch.fallback = e.prepareOptional(n.Default)
		return branch
	case *schema.For:
		return &BranchArray{env: e, SplitPoint: n.ModelPath, template: e.prepare(n.Schema)}
	case *schema.Level:
		level := &PreparedLevel{env: e, schema: n}
		level.children = make([]Prepared, len(n.Children))
		for idx, child := range n.Children {
			level.children[idx] = e.prepare(child)
		}
		return level
	case *schema.Field:
		return &PreparedField{env: e, schema: n}
	default:
		// unreachable after schema.Validate
		panic(fmt.Sprintf("resolution: unsupported schema node %T", node))
	}
}

func (e *env) prepareOptional(node schema.Node) Prepared {
	if node == nil {
		return nil
	}
	return e.prepare(node)
}

func (e *env) traceMiss(tag Tag, key string) {
	if e.logger.IsTrace() {
		e.logger.Trace("resolver recomputed", "tag", string(tag), "context", key)
	}
}

// Walk visits root and every prepared node below it, including all branch
// alternatives.
func Walk(root Prepared, visit func(Prepared)) {
	if root == nil {
		return
	}
	visit(root)
	switch n := root.(type) {
	case *Branch:
		for _, c := range n.cases {
			Walk(c.then, visit)
		}
		for _, child := range n.keyed {
			Walk(child, visit)
		}
		Walk(n.fallback, visit)
	case *BranchArray:
		Walk(n.template, visit)
	case *PreparedLevel:
		for _, child := range n.children {
			Walk(child, visit)
		}
	}
}

// TotalStats sums the counters of every node under root.
func TotalStats(root Prepared) Stats {
	var total Stats
	Walk(root, func(p Prepared) { total = total.Add(p.Stats()) })
	return total
}

// ResetAll drops every cache under root.
func ResetAll(root Prepared) {
	Walk(root, func(p Prepared) { p.Reset() })
}
