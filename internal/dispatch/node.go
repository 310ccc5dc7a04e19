package dispatch

import (
	"context"
	"sync"
)

// Handler executes a resolved command with validated arguments. The returned
// value is handed to the output collaborator untouched; a non-nil error is
// converted to Failure(FailExecution) unless it already is a *Failure.
type Handler func(env *Environment, args Args) (any, error)

// Node is a single entry in the namespace tree. A Node with a nil Handler is
// a group; a Node with a Handler is a command. Nodes are immutable after
// registration except for removal on plugin unload.
type Node struct {
	Name        string
	Aliases     []string
	Summary     string
	Usage       string
	Description string
	Params      []ParamSpec // commands only
	Handler     Handler
	Owner       string // contributing plugin name, "" for core
	Children    map[string]*Node
	Path        []string

	parent *Node
	// arrival keeps child names in registration order so that alias
	// collisions resolve first-registrant-wins deterministically.
	arrival []string
}

// IsGroup reports whether the node is an internal (group) node.
func (n *Node) IsGroup() bool {
	return n.Handler == nil
}

// Parent returns the owning group, or nil for the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// child resolves a single segment against this node's children: exact name
// first, then aliases in arrival order. The earliest registrant wins silently
// on alias collision; ambiguity is only reported by Registry.Candidates.
func (n *Node) child(segment string) *Node {
	if c, ok := n.Children[segment]; ok {
		return c
	}
	for _, name := range n.arrival {
		c := n.Children[name]
		if c == nil {
			continue
		}
		for _, a := range c.Aliases {
			if a == segment {
				return c
			}
		}
	}
	return nil
}

// candidates returns every child whose name or alias matches the segment,
// in arrival order.
func (n *Node) candidates(segment string) []*Node {
	var out []*Node
	for _, name := range n.arrival {
		c := n.Children[name]
		if c == nil {
			continue
		}
		if c.Name == segment {
			out = append(out, c)
			continue
		}
		for _, a := range c.Aliases {
			if a == segment {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// GroupSpec declares a group node for registration.
type GroupSpec struct {
	Name    string
	Aliases []string
	Summary string
	Usage   string
}

// CommandSpec declares a command node for registration.
type CommandSpec struct {
	Name        string
	Aliases     []string
	Summary     string
	Usage       string
	Description string
	Params      []ParamSpec
	Handler     Handler
}

// NewGroup builds an unattached group node.
func NewGroup(spec GroupSpec) *Node {
	return &Node{
		Name:     spec.Name,
		Aliases:  spec.Aliases,
		Summary:  spec.Summary,
		Usage:    spec.Usage,
		Children: make(map[string]*Node),
	}
}

// NewCommand builds an unattached command node.
func NewCommand(spec CommandSpec) *Node {
	return &Node{
		Name:        spec.Name,
		Aliases:     spec.Aliases,
		Summary:     spec.Summary,
		Usage:       spec.Usage,
		Description: spec.Description,
		Params:      spec.Params,
		Handler:     spec.Handler,
		Children:    make(map[string]*Node),
	}
}

// WorkingContext is session-scoped key/value state shared between a shell
// session and the handlers it dispatches. Safe for concurrent use: a handler
// may read it from a goroutine while the session writes.
type WorkingContext struct {
	mu   sync.RWMutex
	vars map[string]any
}

// NewWorkingContext returns an empty working context.
func NewWorkingContext() *WorkingContext {
	return &WorkingContext{vars: make(map[string]any)}
}

// Get returns the value for key and whether it was present.
func (w *WorkingContext) Get(key string) (any, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	v, ok := w.vars[key]
	return v, ok
}

// Set stores a value under key.
func (w *WorkingContext) Set(key string, value any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.vars[key] = value
}

// Delete removes key.
func (w *WorkingContext) Delete(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.vars, key)
}

// Keys returns the stored keys in unspecified order.
func (w *WorkingContext) Keys() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	keys := make([]string, 0, len(w.vars))
	for k := range w.vars {
		keys = append(keys, k)
	}
	return keys
}

// Environment carries per-dispatch state into handlers: a cancellation
// context that cooperative handlers may poll, and the session's working
// context. The zero value is not usable; construct with NewEnvironment.
type Environment struct {
	ctx  context.Context
	vars *WorkingContext
}

// NewEnvironment builds a dispatch environment. A nil working context gets
// replaced with an empty one so handlers never see nil.
func NewEnvironment(ctx context.Context, vars *WorkingContext) *Environment {
	if ctx == nil {
		ctx = context.Background()
	}
	if vars == nil {
		vars = NewWorkingContext()
	}
	return &Environment{ctx: ctx, vars: vars}
}

// Context returns the cancellation context for this dispatch.
func (e *Environment) Context() context.Context {
	return e.ctx
}

// Vars returns the session working context.
func (e *Environment) Vars() *WorkingContext {
	return e.vars
}
