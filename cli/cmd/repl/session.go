package repl

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/ardnew/formula/lang"
	"github.com/ardnew/formula/log"
)

//nolint:gochecknoglobals
var letStatement = regexp.MustCompile(`^\s*([A-Za-z_$][A-Za-z0-9_$]*)\s*=(.*)$`)

// Session is the evaluation state of an interactive session: the scopes
// loaded at startup, the names bound with :let, and the constant
// functions shared by every expression.
//
// Each distinct input is compiled once; evaluating it again, for example
// from history, reuses the compiled handle.
type Session struct {
	logger     log.Logger
	consts     *lang.ConstFunctions
	signatures map[string]string
	outer      lang.Contexts
	vars       lang.Context
	cache      map[string]*lang.Expr
	mu         sync.Mutex
}

// NewSession returns a session evaluating against cs with the functions in
// consts. Signatures supplies display signatures for constant functions;
// the others are described by their arity.
func NewSession(
	cs lang.Contexts,
	consts *lang.ConstFunctions,
	signatures map[string]string,
	logger log.Logger,
) *Session {
	if consts == nil {
		consts = lang.NewConstFunctions()
	}

	return &Session{
		logger:     logger,
		consts:     consts,
		signatures: maps.Clone(signatures),
		outer:      lang.NewContexts(cs...),
		vars:       lang.Context{},
		cache:      make(map[string]*lang.Expr),
	}
}

// Eval evaluates source against the session's bindings.
func (s *Session) Eval(ctx context.Context, source string) (lang.Value, error) {
	x, err := s.compile(source)
	if err != nil {
		return nil, err
	}

	return lang.NewRequest(x).WithContext(ctx).WithContexts(s.contexts()).Exec()
}

// compile returns the cached handle for source, compiling it on first use.
// A failed compilation is cached too, since it is terminal.
func (s *Session) compile(source string) (*lang.Expr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	x, ok := s.cache[source]
	if !ok {
		x = lang.New(source,
			lang.WithLogger(s.logger),
			lang.WithConstFunctions(s.consts),
		)
		s.cache[source] = x
	}

	return x.Compile()
}

// Let evaluates a statement of the form "name = expr" and binds the result
// in the session's innermost scope.
func (s *Session) Let(ctx context.Context, stmt string) (string, lang.Value, error) {
	m := letStatement.FindStringSubmatch(stmt)
	if m == nil {
		return "", nil, ErrLetSyntax.With(slog.String("input", stmt))
	}

	name, source := m[1], strings.TrimSpace(m[2])

	v, err := s.Eval(ctx, source)
	if err != nil {
		return "", nil, err
	}

	s.mu.Lock()
	s.vars[name] = v
	s.mu.Unlock()

	s.logger.TraceContext(ctx, "repl let", slog.String("name", name))

	return name, v, nil
}

// Unset removes names bound with :let. It reports the names that were
// bound.
func (s *Session) Unset(names ...string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []string

	for _, name := range names {
		if _, ok := s.vars[name]; ok {
			delete(s.vars, name)
			removed = append(removed, name)
		}
	}

	return removed
}

// Bindings returns a copy of the names bound with :let.
func (s *Session) Bindings() lang.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.vars.Clone()
}

// Replace discards every :let binding and binds frame instead.
func (s *Session) Replace(frame lang.Context) {
	if frame == nil {
		frame = lang.Context{}
	}

	s.mu.Lock()
	s.vars = frame
	s.mu.Unlock()
}

// contexts returns the full scope stack, :let bindings innermost.
func (s *Session) contexts() lang.Contexts {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.outer.Push(s.vars.Clone())
}

// Variables returns the sorted names visible to an expression.
func (s *Session) Variables() []string { return s.contexts().Names() }

// Lookup resolves a member path such as ["server", "http"] against the
// visible variables.
func (s *Session) Lookup(path ...string) (lang.Value, bool) {
	if len(path) == 0 {
		return nil, false
	}

	v, ok := s.contexts().Lookup(path[0])

	for _, key := range path[1:] {
		if !ok {
			break
		}

		obj, isObj := v.(map[string]any)
		if !isObj {
			return nil, false
		}

		v, ok = obj[key]
	}

	return v, ok
}

// Functions returns the sorted names of every callable function: the
// constant registry and the built-ins.
func (s *Session) Functions() []string {
	names := append(s.consts.Names(), lang.Builtins()...)
	slices.Sort(names)

	return slices.Compact(names)
}

// IsFunction reports whether name resolves to a function.
func (s *Session) IsFunction(name string) bool {
	if _, ok := s.consts.Lookup(name); ok {
		return true
	}

	_, ok := lang.BuiltinSignature(name)

	return ok
}

// Signature returns a display signature for the named function. Constant
// functions shadow built-ins, matching the evaluator's resolution order.
func (s *Session) Signature(name string) (string, bool) {
	if f, ok := s.consts.Lookup(name); ok {
		if sig, ok := s.signatures[name]; ok {
			return sig, true
		}

		return aritySignature(name, f), true
	}

	return lang.BuiltinSignature(name)
}

// aritySignature describes a function by its argument bounds, for example
// "f(arg1, arg2?)" or "f(arg1, ...)".
func aritySignature(name string, f lang.ConstFunction) string {
	minArgs, maxArgs := f.Arity()

	var params []string

	for i := 1; i <= minArgs; i++ {
		params = append(params, fmt.Sprintf("arg%d", i))
	}

	for i := minArgs + 1; i <= maxArgs; i++ {
		params = append(params, fmt.Sprintf("arg%d?", i))
	}

	if maxArgs < 0 {
		params = append(params, "...")
	}

	return name + "(" + strings.Join(params, ", ") + ")"
}
