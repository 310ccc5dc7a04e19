package plugin

import (
	"github.com/thediveo/go-plugger/v3"
)

// RegisterFunc is a plugin's registration callback. It runs once on the
// Loaded → Initialized transition and receives a restricted handle that only
// queues contributions scoped to the plugin itself.
type RegisterFunc func(h *Handle) error

// EntryFunc obtains a plugin's registration callback. Invoking it moves the
// plugin from Discovered to Loaded; its side effects must be limited to
// producing the callback.
type EntryFunc func() (RegisterFunc, error)

// Entry describes one loadable plugin: identity, declared dependencies, and
// the entry reference.
type Entry struct {
	Name     string
	Version  string
	Requires []string
	Entry    EntryFunc
}

// EntryProvider is the symbol type compiled-in plugins expose. A plugin
// package registers itself from init():
//
//	plugger.Group[plugin.EntryProvider]().Register(
//		provide, plugger.WithPlugin("auth"))
//
// so the binary's plugin set is fixed at build time without runtime
// reflection.
type EntryProvider func() Entry

// CompiledIn returns the entries of every plugin compiled into the binary,
// in plugger's registration order.
func CompiledIn() []Entry {
	providers := plugger.Group[EntryProvider]().Symbols()
	entries := make([]Entry, 0, len(providers))
	for _, provide := range providers {
		entries = append(entries, provide())
	}
	return entries
}
