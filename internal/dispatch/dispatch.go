package dispatch

import (
	"fmt"
	"strings"
)

// Dispatch resolves tokens, validates the remaining tokens against the
// resolved command's parameter specification, and invokes the handler with
// the validated arguments and the environment. Validation failures never
// reach the handler; handler panics are recovered here and converted to
// FailExecution.
//
// Resolution and validation run under the read lock; the handler itself runs
// unlocked so a long-running command does not block plugin load/unload.
func (r *Registry) Dispatch(tokens []string, env *Environment) Result {
	r.mu.RLock()
	res, f := r.resolveLocked(tokens)
	if f != nil {
		r.mu.RUnlock()
		return Fail(f)
	}
	if res.Node.IsGroup() {
		r.mu.RUnlock()
		return Fail(Failf(FailNotFound, "group '%s' requires a subcommand", groupDisplay(res.Node)))
	}
	args, f := BindArgs(res.Node.Params, res.Rest)
	r.mu.RUnlock()
	if f != nil {
		return Fail(f)
	}

	if env == nil {
		env = NewEnvironment(nil, nil)
	}
	return invoke(res.Node, env, args)
}

func groupDisplay(n *Node) string {
	if len(n.Path) == 0 {
		return n.Name
	}
	return strings.Join(n.Path, " ")
}

func invoke(node *Node, env *Environment, args Args) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			result = Fail(Failf(FailExecution, "command '%s' panicked: %v", strings.Join(node.Path, " "), rec))
		}
	}()

	value, err := node.Handler(env, args)
	if err != nil {
		if f, ok := err.(*Failure); ok {
			return Fail(f)
		}
		return Fail(&Failure{
			Kind:    FailExecution,
			Message: fmt.Sprintf("command '%s' failed: %v", strings.Join(node.Path, " "), err),
			Err:     err,
		})
	}
	return Success(value)
}
