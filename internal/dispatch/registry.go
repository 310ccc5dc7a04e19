package dispatch

import (
	"sort"
	"strings"
	"sync"
)

// Registration pairs a parent path with an unattached node, for batch
// attachment.
type Registration struct {
	Path []string // parent group path, empty for root
	Node *Node
}

// Registry is the single source of truth for what can be invoked. It owns
// the namespace tree root and guards it with a read-write lock so plugin
// load/unload can run concurrently with dispatch and completion.
//
// The registry is constructed explicitly and passed by reference; there is
// no package-level instance.
type Registry struct {
	mu   sync.RWMutex
	root *Node
	subs map[int]func()
	next int
}

// NewRegistry builds a registry whose root group carries the program name
// and summary used by help rendering.
func NewRegistry(name, summary, usage string) *Registry {
	return &Registry{
		root: &Node{
			Name:     name,
			Summary:  summary,
			Usage:    usage,
			Children: make(map[string]*Node),
			Path:     []string{},
		},
		subs: make(map[int]func()),
	}
}

// Root returns the root group node. Callers must treat the tree as
// read-only; structural mutation goes through Register/Unregister.
func (r *Registry) Root() *Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.root
}

// Subscribe registers a change-notification hook invoked after every
// structural mutation (register or unregister). Shell sessions use this to
// invalidate completion caches. The returned function unsubscribes.
func (r *Registry) Subscribe(fn func()) func() {
	r.mu.Lock()
	id := r.next
	r.next++
	r.subs[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// notifyLocked fires change hooks. Callers hold the write lock; hooks are
// collected under the lock and invoked after release so a hook may query
// the registry.
func (r *Registry) collectHooksLocked() []func() {
	hooks := make([]func(), 0, len(r.subs))
	for _, fn := range r.subs {
		hooks = append(hooks, fn)
	}
	return hooks
}

func runHooks(hooks []func()) {
	for _, fn := range hooks {
		fn()
	}
}

// Register attaches a node under the group at path. It fails if any path
// segment does not resolve to an existing group, or if the final node's name
// or any alias collides with a sibling's name or alias. The tree is
// unchanged on failure.
func (r *Registry) Register(path []string, node *Node) error {
	r.mu.Lock()
	if err := r.registerLocked(path, node); err != nil {
		r.mu.Unlock()
		return err
	}
	hooks := r.collectHooksLocked()
	r.mu.Unlock()
	runHooks(hooks)
	return nil
}

// RegisterBatch attaches a plugin's registrations as one atomic unit under a
// single write-lock acquisition: either every node attaches or none do. A
// concurrent dispatch never observes a half-applied batch.
func (r *Registry) RegisterBatch(owner string, regs []Registration) error {
	r.mu.Lock()
	var attached [][]string
	for _, reg := range regs {
		reg.Node.setOwner(owner)
		if err := r.registerLocked(reg.Path, reg.Node); err != nil {
			// Roll back everything attached so far.
			for i := len(attached) - 1; i >= 0; i-- {
				r.detachLocked(attached[i])
			}
			r.mu.Unlock()
			return err
		}
		attached = append(attached, reg.Node.Path)
	}
	hooks := r.collectHooksLocked()
	r.mu.Unlock()
	runHooks(hooks)
	return nil
}

// setOwner stamps the owner on a node and all descendants.
func (n *Node) setOwner(owner string) {
	n.Owner = owner
	for _, c := range n.Children {
		c.setOwner(owner)
	}
}

func (r *Registry) registerLocked(path []string, node *Node) error {
	parent := r.root
	for _, seg := range path {
		child, ok := parent.Children[seg]
		if !ok {
			return Failf(FailValidation, "no such group '%s'", strings.Join(path, " "))
		}
		if !child.IsGroup() {
			return Failf(FailValidation, "'%s' is a command, not a group", strings.Join(child.Path, " "))
		}
		parent = child
	}

	if err := checkCollision(parent, node); err != nil {
		return err
	}

	node.parent = parent
	node.Path = append(append([]string{}, parent.Path...), node.Name)
	if node.Children == nil {
		node.Children = make(map[string]*Node)
	}
	rebasePaths(node)
	parent.Children[node.Name] = node
	parent.arrival = append(parent.arrival, node.Name)
	return nil
}

// rebasePaths recomputes descendant paths after the node's own path is set.
func rebasePaths(n *Node) {
	for _, c := range n.Children {
		c.parent = n
		c.Path = append(append([]string{}, n.Path...), c.Name)
		rebasePaths(c)
	}
}

// checkCollision rejects a new sibling whose name or any alias collides with
// an existing sibling's name or alias. Matching is case-sensitive.
func checkCollision(parent, node *Node) error {
	names := map[string]bool{node.Name: true}
	for _, a := range node.Aliases {
		names[a] = true
	}
	for _, sib := range parent.Children {
		if names[sib.Name] {
			return Failf(FailValidation, "name '%s' already registered under '%s'", sib.Name, displayPath(parent))
		}
		for _, a := range sib.Aliases {
			if names[a] {
				return Failf(FailValidation, "alias '%s' already registered under '%s'", a, displayPath(parent))
			}
		}
	}
	return nil
}

func displayPath(n *Node) string {
	if len(n.Path) == 0 {
		return n.Name
	}
	return strings.Join(n.Path, " ")
}

// Unregister removes the node at path. A group is only removed when every
// descendant belongs to the same owner as the caller; foreign contributions
// refuse the removal so one plugin's unload cannot silently delete
// another's commands.
func (r *Registry) Unregister(path []string, owner string) error {
	r.mu.Lock()
	if err := r.unregisterLocked(path, owner); err != nil {
		r.mu.Unlock()
		return err
	}
	hooks := r.collectHooksLocked()
	r.mu.Unlock()
	runHooks(hooks)
	return nil
}

func (r *Registry) unregisterLocked(path []string, owner string) error {
	node := r.lookupPath(path)
	if node == nil || node == r.root {
		return Failf(FailNotFound, "no such command or group '%s'", strings.Join(path, " "))
	}
	if foreign := foreignDescendant(node, owner); foreign != nil {
		return Failf(FailExecution, "cannot unregister '%s': foreign children present ('%s' owned by '%s')",
			strings.Join(path, " "), displayPath(foreign), foreign.Owner)
	}
	r.detachLocked(path)
	return nil
}

// foreignDescendant returns the first node in the subtree (including the
// node itself) owned by someone other than owner, or nil.
func foreignDescendant(n *Node, owner string) *Node {
	if n.Owner != owner {
		return n
	}
	for _, name := range n.arrival {
		if c, ok := n.Children[name]; ok {
			if f := foreignDescendant(c, owner); f != nil {
				return f
			}
		}
	}
	return nil
}

func (r *Registry) detachLocked(path []string) {
	node := r.lookupPath(path)
	if node == nil || node.parent == nil {
		return
	}
	parent := node.parent
	delete(parent.Children, node.Name)
	for i, name := range parent.arrival {
		if name == node.Name {
			parent.arrival = append(parent.arrival[:i], parent.arrival[i+1:]...)
			break
		}
	}
	node.parent = nil
}

// UnregisterOwner removes every node contributed by owner, children first.
// A group of the owner that still holds foreign contributions is deliberately
// left in place, not reported: the owner's own subtree beneath it detaches
// and the group keeps serving the other plugins' commands. The owner's
// contributions are therefore always fully detached on a nil return.
func (r *Registry) UnregisterOwner(owner string) error {
	r.mu.Lock()
	var paths [][]string
	collectOwned(r.root, owner, &paths)
	// Deepest first so child commands detach before their groups.
	sort.Slice(paths, func(i, j int) bool { return len(paths[i]) > len(paths[j]) })

	var firstErr error
	removed := false
	for _, p := range paths {
		node := r.lookupPath(p)
		if node == nil {
			continue
		}
		if node.IsGroup() && foreignDescendant(node, owner) != nil {
			continue
		}
		if err := r.unregisterLocked(p, owner); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed = true
	}
	var hooks []func()
	if removed {
		hooks = r.collectHooksLocked()
	}
	r.mu.Unlock()
	runHooks(hooks)
	return firstErr
}

func collectOwned(n *Node, owner string, out *[][]string) {
	for _, c := range n.Children {
		if c.Owner == owner {
			*out = append(*out, append([]string{}, c.Path...))
		}
		collectOwned(c, owner, out)
	}
}

// lookupPath resolves an exact path (names only, no aliases). Returns the
// root for an empty path.
func (r *Registry) lookupPath(path []string) *Node {
	current := r.root
	for _, seg := range path {
		child, ok := current.Children[seg]
		if !ok {
			return nil
		}
		current = child
	}
	return current
}

// Resolution is the outcome of resolving tokens against the tree: the
// deepest matching node and the tokens left over for argument binding.
type Resolution struct {
	Node *Node
	Rest []string
}

// Resolve walks tokens greedily through group children, consulting names
// first and aliases in first-registrant order. An empty token sequence
// resolves to the root group.
func (r *Registry) Resolve(tokens []string) (Resolution, *Failure) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolveLocked(tokens)
}

func (r *Registry) resolveLocked(tokens []string) (Resolution, *Failure) {
	current := r.root
	consumed := 0
	for _, tok := range tokens {
		if !current.IsGroup() {
			break
		}
		child := current.child(tok)
		if child == nil {
			break
		}
		current = child
		consumed++
	}

	rest := tokens[consumed:]
	if current.IsGroup() && len(rest) > 0 {
		unknown := rest[0]
		f := Failf(FailNotFound, "'%s' is not a known command", joinPath(current.Path, unknown))
		f.Suggestions = SimilarNames(unknown, current, defaultSuggestions)
		return Resolution{}, f
	}
	return Resolution{Node: current, Rest: rest}, nil
}

func joinPath(prefix []string, last string) string {
	if len(prefix) == 0 {
		return last
	}
	return strings.Join(prefix, " ") + " " + last
}

// Candidates lists every child of the group at parentPath whose name or
// alias matches segment. More than one match is the only situation in which
// FailAmbiguousAlias is surfaced; hot dispatch never reports it.
func (r *Registry) Candidates(parentPath []string, segment string) ([]*Node, *Failure) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	parent := r.lookupPath(parentPath)
	if parent == nil {
		return nil, Failf(FailNotFound, "no such group '%s'", strings.Join(parentPath, " "))
	}
	matches := parent.candidates(segment)
	if len(matches) > 1 {
		return matches, Failf(FailAmbiguousAlias, "alias '%s' matches %d commands under '%s'",
			segment, len(matches), displayPath(parent))
	}
	return matches, nil
}

// Complete returns completion candidates for a partially typed line: tokens
// are the completed path segments and partial is the segment being typed.
// Results are computed from live data on every call.
func (r *Registry) Complete(tokens []string, partial string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	current := r.root
	for _, tok := range tokens {
		child := current.child(tok)
		if child == nil || !child.IsGroup() {
			return nil
		}
		current = child
	}

	var out []string
	for _, name := range current.arrival {
		c := current.Children[name]
		if c == nil {
			continue
		}
		if strings.HasPrefix(c.Name, partial) {
			out = append(out, c.Name)
		}
		for _, a := range c.Aliases {
			if strings.HasPrefix(a, partial) {
				out = append(out, a)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Commands returns every command node in the tree, sorted by path. Used by
// help listings and the interactive browser.
func (r *Registry) Commands() []*Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Node
	collectCommands(r.root, &out)
	sort.Slice(out, func(i, j int) bool {
		return strings.Join(out[i].Path, " ") < strings.Join(out[j].Path, " ")
	})
	return out
}

func collectCommands(n *Node, out *[]*Node) {
	if !n.IsGroup() {
		*out = append(*out, n)
	}
	for _, c := range n.Children {
		collectCommands(c, out)
	}
}
