package lang

import (
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

// Unit is a compiled expression: an immutable syntax tree that can be run
// any number of times, concurrently, against different bindings.
//
// Compiling never binds names. Variables and functions are resolved by
// [Unit.Run] each time it executes.
type Unit struct {
	source    string
	tree      ast.Node
	patterns  map[string]*regexp.Regexp
	variables []string
	functions []string
}

// Compile parses source into a [Unit].
//
// Compilation is deterministic: the same text always produces units that
// behave identically. Source the front-end rejects, blank source, and
// syntax the evaluator does not support (closures, predicates, method
// calls) all yield a [*CompileError].
func Compile(source string) (*Unit, error) {
	if strings.TrimSpace(source) == "" {
		return nil, &CompileError{Source: source, Err: ErrEmptySource}
	}

	tree, err := parser.Parse(source)
	if err != nil {
		return nil, &CompileError{Source: source, Err: err}
	}

	v := newValidator()
	ast.Walk(&tree.Node, v)

	if v.err != nil {
		return nil, &CompileError{Source: source, Err: v.err}
	}

	return &Unit{
		source:    source,
		tree:      tree.Node,
		patterns:  v.patterns,
		variables: v.freeVariables(),
		functions: slices.Sorted(maps.Keys(v.functions)),
	}, nil
}

// Source returns the text the unit was compiled from.
func (u *Unit) Source() string { return u.source }

// String returns the canonical rendering of the parsed expression.
func (u *Unit) String() string { return u.tree.String() }

// Variables returns the sorted names of all variables the expression reads.
// Names introduced by let are not included.
func (u *Unit) Variables() []string { return slices.Clone(u.variables) }

// Functions returns the sorted names of all functions the expression calls.
func (u *Unit) Functions() []string { return slices.Clone(u.functions) }

// LogValue implements slog.LogValuer.
func (u *Unit) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("source", u.source),
		slog.Int("variables", len(u.variables)),
		slog.Int("functions", len(u.functions)),
	)
}

var (
	unaryOperators = map[string]bool{
		"not": true, "!": true, "-": true, "+": true,
	}
	binaryOperators = map[string]bool{
		"or": true, "||": true, "and": true, "&&": true, "??": true,
		"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true,
		"+": true, "-": true, "*": true, "/": true, "%": true, "**": true,
		"^": true, "in": true, "..": true, "matches": true, "contains": true,
		"startsWith": true, "endsWith": true,
	}
)

// validator is an [ast.Visitor] that accepts only the node kinds the
// evaluator implements, and collects the names the expression references.
//
// [ast.Walk] visits children before their parent.
type validator struct {
	err       error
	idents    []*ast.IdentifierNode
	callees   map[*ast.IdentifierNode]bool
	bound     map[string]bool
	functions map[string]struct{}
	patterns  map[string]*regexp.Regexp
}

func newValidator() *validator {
	return &validator{
		callees:   make(map[*ast.IdentifierNode]bool),
		bound:     make(map[string]bool),
		functions: make(map[string]struct{}),
		patterns:  make(map[string]*regexp.Regexp),
	}
}

// Visit implements ast.Visitor.
func (v *validator) Visit(node *ast.Node) {
	if v.err != nil {
		return
	}

	switch n := (*node).(type) {
	case *ast.NilNode, *ast.IntegerNode, *ast.FloatNode, *ast.BoolNode,
		*ast.StringNode, *ast.ConstantNode, *ast.ArrayNode, *ast.MapNode,
		*ast.PairNode, *ast.ConditionalNode, *ast.SliceNode, *ast.ChainNode:

	case *ast.IdentifierNode:
		v.idents = append(v.idents, n)

	case *ast.UnaryNode:
		if !unaryOperators[n.Operator] {
			v.reject("operator " + n.Operator)
		}

	case *ast.BinaryNode:
		if !binaryOperators[n.Operator] {
			v.reject("operator " + n.Operator)

			return
		}

		if n.Operator == "matches" {
			v.compilePattern(n.Right)
		}

	case *ast.MemberNode:
		if n.Method {
			v.reject("method call")
		}

	case *ast.CallNode:
		callee, ok := n.Callee.(*ast.IdentifierNode)
		if !ok {
			v.reject("call of " + nodeName(n.Callee))

			return
		}

		v.callees[callee] = true
		v.functions[callee.Value] = struct{}{}

	case *ast.BuiltinNode:
		v.functions[n.Name] = struct{}{}

	case *ast.VariableDeclaratorNode:
		v.bound[n.Name] = true

	default:
		v.reject(nodeName(n))
	}
}

func (v *validator) reject(what string) {
	v.err = ErrUnsupported.Wrap(fmt.Errorf("%s", what))
}

// compilePattern compiles a literal regular expression once, so that an
// invalid pattern is reported at compile time.
func (v *validator) compilePattern(node ast.Node) {
	lit, ok := node.(*ast.StringNode)
	if !ok {
		return
	}

	if _, ok := v.patterns[lit.Value]; ok {
		return
	}

	re, err := regexp.Compile(lit.Value)
	if err != nil {
		v.err = err

		return
	}

	v.patterns[lit.Value] = re
}

// freeVariables returns the sorted names of identifiers that are neither
// called nor bound by let.
func (v *validator) freeVariables() []string {
	seen := make(map[string]struct{})

	for _, id := range v.idents {
		if v.callees[id] || v.bound[id.Value] {
			continue
		}

		seen[id.Value] = struct{}{}
	}

	return slices.Sorted(maps.Keys(seen))
}

// nodeName returns a short description of a node's syntactic kind.
func nodeName(node ast.Node) string {
	name := fmt.Sprintf("%T", node)
	name = strings.TrimPrefix(name, "*ast.")

	return strings.ToLower(strings.TrimSuffix(name, "Node"))
}
