package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Issue is a structural problem at a location in a schema document. Path is
// slash separated, mirroring the document keys ("/children/0/then").
type Issue struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (i *Issue) Error() string {
	if i.Path == "" {
		return "schema: " + i.Message
	}
	return fmt.Sprintf("schema: %s: %s", i.Path, i.Message)
}

func issuef(path, format string, args ...any) error {
	return &Issue{Path: path, Message: fmt.Sprintf(format, args...)}
}

// Validate reports every structural problem in the tree at once. The result
// is nil or a *multierror.Error of *Issue values.
func Validate(node Node) error {
	var result *multierror.Error
	validateNode(node, "", &result)
	return result.ErrorOrNil()
}

func validateNode(node Node, path string, result **multierror.Error) {
	add := func(err error) { *result = multierror.Append(*result, err) }

	switch n := node.(type) {
	case nil:
		add(issuef(path, "node is missing"))
	case *Level:
		if n == nil {
			add(issuef(path, "level is nil"))
			return
		}
		for idx, child := range n.Children {
			validateNode(child, join(path, "children", strconv.Itoa(idx)), result)
		}
	case *Field:
		if n == nil {
			add(issuef(path, "field is nil"))
			return
		}
		if strings.TrimSpace(n.ModelPath) != n.ModelPath {
			add(issuef(join(path, "modelPath"), "model path %q has surrounding whitespace", n.ModelPath))
		}
		for idx, spec := range n.Validation {
			if strings.TrimSpace(spec.Type) == "" {
				add(issuef(join(path, "validation", strconv.Itoa(idx)), "validator type is required"))
			}
		}
	case *If:
		if n == nil {
			add(issuef(path, "if block is nil"))
			return
		}
		if n.Predicate == nil {
			add(issuef(join(path, "predicate"), "predicate is required"))
		}
		validateNode(n.Then, join(path, "then"), result)
		if n.Else != nil {
			validateNode(n.Else, join(path, "else"), result)
		}
	case *Elif:
		if n == nil {
			add(issuef(path, "elif block is nil"))
			return
		}
		if len(n.Elifs) == 0 {
			add(issuef(join(path, "elifs"), "at least one case is required"))
		}
		for idx, c := range n.Elifs {
			casePath := join(path, "elifs", strconv.Itoa(idx))
			if c.Predicate == nil {
				add(issuef(join(casePath, "predicate"), "predicate is required"))
			}
			validateNode(c.Then, join(casePath, "then"), result)
		}
		if n.Else != nil {
			validateNode(n.Else, join(path, "else"), result)
		}
	case *Switch:
		if n == nil {
			add(issuef(path, "switch block is nil"))
			return
		}
		if n.Value == nil {
			add(issuef(join(path, "value"), "value is required"))
		}
		for _, key := range sortedKeys(n.Cases) {
			validateNode(n.Cases[key], join(path, "cases", key), result)
		}
		if n.Default != nil {
			validateNode(n.Default, join(path, "default"), result)
		}
	case *For:
		if n == nil {
			add(issuef(path, "for block is nil"))
			return
		}
		if strings.TrimSpace(n.ModelPath) == "" {
			add(issuef(join(path, "modelPath"), "model path is required"))
		}
		validateNode(n.Schema, join(path, "schema"), result)
	default:
		add(issuef(path, "unsupported node %T", node))
	}
}

func join(base string, parts ...string) string {
	return base + "/" + strings.Join(parts, "/")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
