package lang

import (
	"errors"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/expr-lang/expr/ast"
)

// maxRange bounds the number of elements a range operator may produce.
const maxRange = 1 << 20

// errChainNil unwinds an optional chain whose receiver is nil. It never
// escapes [Unit.Run].
var errChainNil = errors.New("nil optional chain")

// Run evaluates the unit against a scope stack, a dynamic registry and a
// constant registry, any of which may be empty or nil.
//
// Variables resolve innermost frame first. Calls resolve against dyn, then
// consts, then the built-ins, and the arity of the resolved function is
// checked before it runs. Operands are evaluated strictly left to right;
// only the logical operators, ??, the conditional and optional chains skip
// evaluation of an operand.
//
// The unit holds no mutable state, so concurrent calls are safe as long as
// the registries' functions are.
func (u *Unit) Run(cs Contexts, dyn Functions, consts *ConstFunctions) (Value, error) {
	if len(cs) == 0 {
		cs = NewContexts()
	}

	r := runner{unit: u, dyn: dyn, consts: consts}

	v, err := r.eval(u.tree, cs)
	if errors.Is(err, errChainNil) {
		return nil, nil
	}

	return v, err
}

// runner carries the registries through one evaluation.
type runner struct {
	unit   *Unit
	dyn    Functions
	consts *ConstFunctions
}

func (r *runner) eval(node ast.Node, cs Contexts) (Value, error) {
	switch n := node.(type) {
	case *ast.NilNode:
		return nil, nil

	case *ast.BoolNode:
		return n.Value, nil

	case *ast.IntegerNode:
		return float64(n.Value), nil

	case *ast.FloatNode:
		return n.Value, nil

	case *ast.StringNode:
		return n.Value, nil

	case *ast.ConstantNode:
		return ToValue(n.Value)

	case *ast.IdentifierNode:
		v, ok := cs.Lookup(n.Value)
		if !ok {
			return nil, &UnresolvedVariableError{Name: n.Value}
		}

		return v, nil

	case *ast.ArrayNode:
		return r.evalArray(n, cs)

	case *ast.MapNode:
		return r.evalMap(n, cs)

	case *ast.UnaryNode:
		return r.evalUnary(n, cs)

	case *ast.BinaryNode:
		return r.evalBinary(n, cs)

	case *ast.ConditionalNode:
		return r.evalConditional(n, cs)

	case *ast.ChainNode:
		v, err := r.eval(n.Node, cs)
		if errors.Is(err, errChainNil) {
			return nil, nil
		}

		return v, err

	case *ast.MemberNode:
		return r.evalMember(n, cs)

	case *ast.SliceNode:
		return r.evalSlice(n, cs)

	case *ast.CallNode:
		callee, ok := n.Callee.(*ast.IdentifierNode)
		if !ok {
			return nil, ErrUnsupported.Wrap(errors.New("call of " + nodeName(n.Callee)))
		}

		return r.call(callee.Value, n.Arguments, cs)

	case *ast.BuiltinNode:
		return r.call(n.Name, n.Arguments, cs)

	case *ast.VariableDeclaratorNode:
		v, err := r.eval(n.Value, cs)
		if err != nil {
			return nil, err
		}

		return r.eval(n.Expr, cs.Push(Context{n.Name: v}))

	default:
		return nil, ErrUnsupported.Wrap(errors.New(nodeName(node)))
	}
}

// call resolves name, checks the argument count, evaluates the arguments
// left to right and invokes the function.
func (r *runner) call(name string, argNodes []ast.Node, cs Contexts) (Value, error) {
	var (
		fn     func([]Value) (Value, error)
		limits arity
	)

	if f, ok := r.dyn.Lookup(name); ok {
		if f == nil || f.call == nil {
			return nil, &UnresolvedFunctionError{Name: name}
		}

		fn, limits = f.call, f.arity
	} else if f, ok := r.consts.Lookup(name); ok {
		fn, limits = f.call, f.arity
	} else if f, ok := builtins[name]; ok {
		fn, limits = f.call, f.arity
	} else {
		return nil, &UnresolvedFunctionError{Name: name}
	}

	if err := limits.check(name, len(argNodes)); err != nil {
		return nil, err
	}

	args := make([]Value, len(argNodes))

	for i, node := range argNodes {
		v, err := r.eval(node, cs)
		if err != nil {
			return nil, err
		}

		args[i] = v
	}

	return fn(args)
}

func (r *runner) evalArray(n *ast.ArrayNode, cs Contexts) (Value, error) {
	out := make([]any, len(n.Nodes))

	for i, node := range n.Nodes {
		v, err := r.eval(node, cs)
		if err != nil {
			return nil, err
		}

		out[i] = v
	}

	return out, nil
}

func (r *runner) evalMap(n *ast.MapNode, cs Contexts) (Value, error) {
	out := make(map[string]any, len(n.Pairs))

	for _, node := range n.Pairs {
		pair, ok := node.(*ast.PairNode)
		if !ok {
			return nil, ErrUnsupported.Wrap(errors.New(nodeName(node)))
		}

		k, err := r.eval(pair.Key, cs)
		if err != nil {
			return nil, err
		}

		key, ok := k.(string)
		if !ok {
			return nil, evalError("{}", "object key must be a string", k)
		}

		v, err := r.eval(pair.Value, cs)
		if err != nil {
			return nil, err
		}

		out[key] = v
	}

	return out, nil
}

func (r *runner) evalUnary(n *ast.UnaryNode, cs Contexts) (Value, error) {
	v, err := r.eval(n.Node, cs)
	if err != nil {
		return nil, err
	}

	switch n.Operator {
	case "not", "!":
		b, ok := v.(bool)
		if !ok {
			return nil, operandError(n.Operator, v)
		}

		return !b, nil

	case "-", "+":
		f, ok := v.(float64)
		if !ok {
			return nil, operandError(n.Operator, v)
		}

		if n.Operator == "-" {
			return -f, nil
		}

		return f, nil
	}

	return nil, operandError(n.Operator, v)
}

func (r *runner) evalConditional(n *ast.ConditionalNode, cs Contexts) (Value, error) {
	c, err := r.eval(n.Cond, cs)
	if err != nil {
		return nil, err
	}

	b, ok := c.(bool)
	if !ok {
		return nil, evalError("?:", "condition must be a bool", c)
	}

	if b {
		return r.eval(n.Exp1, cs)
	}

	return r.eval(n.Exp2, cs)
}

func (r *runner) evalBinary(n *ast.BinaryNode, cs Contexts) (Value, error) {
	left, err := r.eval(n.Left, cs)
	if err != nil {
		return nil, err
	}

	switch n.Operator {
	case "and", "&&", "or", "||":
		return r.evalLogical(n, left, cs)

	case "??":
		if left != nil {
			return left, nil
		}

		return r.eval(n.Right, cs)
	}

	right, err := r.eval(n.Right, cs)
	if err != nil {
		return nil, err
	}

	switch n.Operator {
	case "==":
		return Equal(left, right), nil

	case "!=":
		return !Equal(left, right), nil

	case "<", ">", "<=", ">=":
		return compare(n.Operator, left, right)

	case "+":
		return add(left, right)

	case "-", "*", "/", "%", "**", "^":
		return arithmetic(n.Operator, left, right)

	case "in":
		return member(left, right)

	case "..":
		return span(left, right)

	case "matches":
		return r.match(left, right)

	case "contains", "startsWith", "endsWith":
		return stringTest(n.Operator, left, right)
	}

	return nil, operandError(n.Operator, left, right)
}

func (r *runner) evalLogical(n *ast.BinaryNode, left Value, cs Contexts) (Value, error) {
	l, ok := left.(bool)
	if !ok {
		return nil, evalError(n.Operator, "operand must be a bool", left)
	}

	isAnd := n.Operator == "and" || n.Operator == "&&"
	if l != isAnd {
		return l, nil
	}

	right, err := r.eval(n.Right, cs)
	if err != nil {
		return nil, err
	}

	b, ok := right.(bool)
	if !ok {
		return nil, evalError(n.Operator, "operand must be a bool", left, right)
	}

	return b, nil
}

func compare(op string, left, right Value) (Value, error) {
	var c int

	switch l := left.(type) {
	case float64:
		rv, ok := right.(float64)
		if !ok {
			return nil, operandError(op, left, right)
		}

		if math.IsNaN(l) || math.IsNaN(rv) {
			return false, nil
		}

		switch {
		case l < rv:
			c = -1
		case l > rv:
			c = 1
		}

	case string:
		rv, ok := right.(string)
		if !ok {
			return nil, operandError(op, left, right)
		}

		c = strings.Compare(l, rv)

	default:
		return nil, operandError(op, left, right)
	}

	switch op {
	case "<":
		return c < 0, nil
	case ">":
		return c > 0, nil
	case "<=":
		return c <= 0, nil
	default:
		return c >= 0, nil
	}
}

func add(left, right Value) (Value, error) {
	switch l := left.(type) {
	case float64:
		if rv, ok := right.(float64); ok {
			return l + rv, nil
		}

	case string:
		if rv, ok := right.(string); ok {
			return l + rv, nil
		}

	case []any:
		if rv, ok := right.([]any); ok {
			out := make([]any, 0, len(l)+len(rv))

			return append(append(out, l...), rv...), nil
		}
	}

	return nil, operandError("+", left, right)
}

func arithmetic(op string, left, right Value) (Value, error) {
	l, lok := left.(float64)
	rv, rok := right.(float64)

	if !lok || !rok {
		return nil, operandError(op, left, right)
	}

	switch op {
	case "-":
		return l - rv, nil
	case "*":
		return l * rv, nil
	case "/":
		if rv == 0 {
			return nil, evalError(op, "division by zero", left, right)
		}

		return l / rv, nil
	case "%":
		if rv == 0 {
			return nil, evalError(op, "division by zero", left, right)
		}

		return math.Mod(l, rv), nil
	default:
		return math.Pow(l, rv), nil
	}
}

func member(left, right Value) (Value, error) {
	switch rv := right.(type) {
	case []any:
		for _, elem := range rv {
			if Equal(left, elem) {
				return true, nil
			}
		}

		return false, nil

	case map[string]any:
		key, ok := left.(string)
		if !ok {
			return nil, evalError("in", "object key must be a string", left, right)
		}

		_, found := rv[key]

		return found, nil
	}

	return nil, operandError("in", left, right)
}

func span(left, right Value) (Value, error) {
	lf, lok := left.(float64)
	rf, rok := right.(float64)

	if !lok || !rok {
		return nil, operandError("..", left, right)
	}

	lo, lok := asIndex(lf)
	hi, rok := asIndex(rf)

	if !lok || !rok {
		return nil, evalError("..", "bounds must be integers", left, right)
	}

	if hi < lo {
		return []any{}, nil
	}

	if hi-lo >= maxRange {
		return nil, evalError("..", "range too large", left, right)
	}

	out := make([]any, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, float64(i))
	}

	return out, nil
}

func (r *runner) match(left, right Value) (Value, error) {
	s, lok := left.(string)
	pattern, rok := right.(string)

	if !lok || !rok {
		return nil, operandError("matches", left, right)
	}

	re, ok := r.unit.patterns[pattern]
	if !ok {
		var err error

		re, err = regexp.Compile(pattern)
		if err != nil {
			return nil, evalError("matches", err.Error(), left, right)
		}
	}

	return re.MatchString(s), nil
}

func stringTest(op string, left, right Value) (Value, error) {
	s, lok := left.(string)
	sub, rok := right.(string)

	if !lok || !rok {
		return nil, operandError(op, left, right)
	}

	switch op {
	case "contains":
		return strings.Contains(s, sub), nil
	case "startsWith":
		return strings.HasPrefix(s, sub), nil
	default:
		return strings.HasSuffix(s, sub), nil
	}
}

func (r *runner) evalMember(n *ast.MemberNode, cs Contexts) (Value, error) {
	base, err := r.eval(n.Node, cs)
	if err != nil {
		return nil, err
	}

	if base == nil && n.Optional {
		return nil, errChainNil
	}

	prop, err := r.eval(n.Property, cs)
	if err != nil {
		return nil, err
	}

	return index(base, prop)
}

// index returns base[prop]. A missing object key yields nil, while an
// array or string index out of range is an error. Negative indexes count
// from the end.
func index(base, prop Value) (Value, error) {
	switch b := base.(type) {
	case map[string]any:
		key, ok := prop.(string)
		if !ok {
			return nil, evalError("[]", "object key must be a string", base, prop)
		}

		return b[key], nil

	case []any:
		i, err := position(base, prop, len(b))
		if err != nil {
			return nil, err
		}

		return b[i], nil

	case string:
		runes := []rune(b)

		i, err := position(base, prop, len(runes))
		if err != nil {
			return nil, err
		}

		return string(runes[i]), nil
	}

	return nil, operandError("[]", base, prop)
}

func position(base, prop Value, n int) (int, error) {
	f, ok := prop.(float64)
	if !ok {
		return 0, evalError("[]", "index must be a number", base, prop)
	}

	i, ok := asIndex(f)
	if !ok {
		return 0, evalError("[]", "index must be an integer", base, prop)
	}

	if i < 0 {
		i += n
	}

	if i < 0 || i >= n {
		return 0, evalError("[]", "index out of range", base, prop)
	}

	return i, nil
}

func (r *runner) evalSlice(n *ast.SliceNode, cs Contexts) (Value, error) {
	base, err := r.eval(n.Node, cs)
	if err != nil {
		return nil, err
	}

	var length int

	switch b := base.(type) {
	case []any:
		length = len(b)
	case string:
		length = utf8.RuneCountInString(b)
	default:
		return nil, operandError("[:]", base)
	}

	from, err := r.bound(n.From, cs, base, 0, length)
	if err != nil {
		return nil, err
	}

	to, err := r.bound(n.To, cs, base, length, length)
	if err != nil {
		return nil, err
	}

	if to < from {
		to = from
	}

	if b, ok := base.([]any); ok {
		out := make([]any, to-from)
		copy(out, b[from:to])

		return out, nil
	}

	return string([]rune(base.(string))[from:to]), nil
}

// bound evaluates one end of a slice, clamped to [0, length]. A nil node
// yields def.
func (r *runner) bound(node ast.Node, cs Contexts, base Value, def, length int) (int, error) {
	if node == nil {
		return def, nil
	}

	v, err := r.eval(node, cs)
	if err != nil {
		return 0, err
	}

	f, ok := v.(float64)
	if !ok {
		return 0, evalError("[:]", "bound must be a number", base, v)
	}

	i, ok := asIndex(f)
	if !ok {
		return 0, evalError("[:]", "bound must be an integer", base, v)
	}

	if i < 0 {
		i += length
	}

	return min(max(i, 0), length), nil
}
