package lang

import (
	"maps"
	"slices"
)

// Context is a single scope of variable bindings.
type Context map[string]Value

// Clone returns a deep copy of c.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for name, v := range c {
		out[name] = cloneValue(v)
	}

	return out
}

// Contexts is an ordered stack of scopes, outermost first and innermost
// last. A lookup scans from the innermost frame outward and the first frame
// that binds a name wins, so inner frames shadow outer ones.
//
// A Contexts built with [NewContexts] always holds at least one frame.
type Contexts []Context

// NewContexts returns a stack holding the given frames, outermost first.
// Nil frames are replaced with empty ones, and a stack with no frames gets
// a single empty frame.
func NewContexts(frames ...Context) Contexts {
	if len(frames) == 0 {
		return Contexts{Context{}}
	}

	cs := make(Contexts, len(frames))
	for i, c := range frames {
		if c == nil {
			c = Context{}
		}

		cs[i] = c
	}

	return cs
}

// Lookup returns the value bound to name in the innermost frame that
// binds it.
func (cs Contexts) Lookup(name string) (Value, bool) {
	for i := len(cs) - 1; i >= 0; i-- {
		if v, ok := cs[i][name]; ok {
			return v, true
		}
	}

	return nil, false
}

// Innermost returns the innermost frame, or nil if the stack is empty.
func (cs Contexts) Innermost() Context {
	if len(cs) == 0 {
		return nil
	}

	return cs[len(cs)-1]
}

// Push returns a stack with c added as the new innermost frame.
// The receiver is never modified.
func (cs Contexts) Push(c Context) Contexts {
	if c == nil {
		c = Context{}
	}

	return append(slices.Clip(cs), c)
}

// Pop returns the stack without its innermost frame.
// The outermost frame is never removed.
func (cs Contexts) Pop() Contexts {
	if len(cs) <= 1 {
		return cs
	}

	return cs[:len(cs)-1 : len(cs)-1]
}

// Clone returns a deep copy of every frame in the stack.
func (cs Contexts) Clone() Contexts {
	if len(cs) == 0 {
		return NewContexts()
	}

	out := make(Contexts, len(cs))
	for i, c := range cs {
		out[i] = c.Clone()
	}

	return out
}

// Names returns the sorted set of names visible from the innermost frame.
func (cs Contexts) Names() []string {
	seen := make(map[string]struct{})
	for _, c := range cs {
		for name := range c {
			seen[name] = struct{}{}
		}
	}

	return slices.Sorted(maps.Keys(seen))
}
