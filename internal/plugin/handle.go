package plugin

import (
	"fmt"
	"strings"

	"github.com/plinth-cli/plinth/internal/dispatch"
)

// Handle is the restricted tree handle passed to a plugin's registration
// callback. Contributions are queued, not attached: the namespace tree is
// only touched when the manager enables the plugin, as one atomic batch.
// The handle is scoped to its plugin; it cannot see or remove any other
// plugin's paths.
type Handle struct {
	owner string
	regs  []dispatch.Registration
}

func newHandle(owner string) *Handle {
	return &Handle{owner: owner}
}

// Group queues a group node under the parent path.
func (h *Handle) Group(parent []string, spec dispatch.GroupSpec) {
	h.regs = append(h.regs, dispatch.Registration{
		Path: parent,
		Node: dispatch.NewGroup(spec),
	})
}

// Command queues a command node under the parent path.
func (h *Handle) Command(parent []string, spec dispatch.CommandSpec) {
	h.regs = append(h.regs, dispatch.Registration{
		Path: parent,
		Node: dispatch.NewCommand(spec),
	})
}

// Unregister removes a previously queued contribution by its full path.
// Only the plugin's own queued paths are visible here.
func (h *Handle) Unregister(path []string) error {
	want := strings.Join(path, " ")
	for i, reg := range h.regs {
		full := strings.Join(append(append([]string{}, reg.Path...), reg.Node.Name), " ")
		if full == want {
			h.regs = append(h.regs[:i], h.regs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("plugin %s: no queued registration at '%s'", h.owner, want)
}

// registrations returns the queued batch.
func (h *Handle) registrations() []dispatch.Registration {
	return h.regs
}
