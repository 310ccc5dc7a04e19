package plugin

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/plinth-cli/plinth/internal/dispatch"
)

// record is the manager's live state for one plugin: the descriptor plus the
// loaded callback and the pending contribution batch.
type record struct {
	desc       Descriptor
	entry      EntryFunc
	registerFn RegisterFunc
	pending    []dispatch.Registration
}

// Manager drives plugins through their lifecycle and is the only writer of
// plugin contributions into the namespace tree. Each load is isolated: one
// plugin failing never blocks the others.
type Manager struct {
	registry *dispatch.Registry
	logger   *zap.Logger

	mu      sync.Mutex
	plugins map[string]*record
	order   []string
}

// NewManager builds a manager over the given registry.
func NewManager(registry *dispatch.Registry, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		registry: registry,
		logger:   logger,
		plugins:  make(map[string]*record),
	}
}

// Discover records entries as Discovered descriptors. A duplicate name is an
// error for that entry only; remaining entries are still recorded. Entries
// with an unparsable version or requirement are recorded as Failed rather
// than dropped, so they show up in reports.
func (m *Manager) Discover(entries ...Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs error
	for _, e := range entries {
		if err := m.discoverLocked(e); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func (m *Manager) discoverLocked(e Entry) error {
	if _, exists := m.plugins[e.Name]; exists {
		return fmt.Errorf("plugin %q already discovered", e.Name)
	}

	rec := &record{
		desc:  Descriptor{Name: e.Name, State: StateDiscovered},
		entry: e.Entry,
	}
	m.plugins[e.Name] = rec
	m.order = append(m.order, e.Name)

	if e.Version != "" {
		v, err := semver.NewVersion(e.Version)
		if err != nil {
			m.failLocked(rec, fmt.Errorf("bad version %q: %w", e.Version, err))
			return fmt.Errorf("plugin %q: %w", e.Name, rec.desc.Err)
		}
		rec.desc.Version = v
	}
	for _, raw := range e.Requires {
		req, err := ParseRequirement(raw)
		if err != nil {
			m.failLocked(rec, err)
			return fmt.Errorf("plugin %q: %w", e.Name, err)
		}
		rec.desc.Requires = append(rec.desc.Requires, req)
	}

	m.logger.Debug("plugin discovered", zap.String("plugin", e.Name))
	return nil
}

// failLocked moves a plugin to Failed with a reason. Failed is terminal for
// this load attempt.
func (m *Manager) failLocked(rec *record, reason error) {
	rec.desc.State = StateFailed
	rec.desc.Err = reason
	rec.registerFn = nil
	rec.pending = nil
	m.logger.Warn("plugin failed",
		zap.String("plugin", rec.desc.Name), zap.Error(reason))
}

// Load invokes the plugin's entry reference (Discovered → Loaded) and then
// runs the returned registration callback against a restricted handle
// (Loaded → Initialized). Contributions stay pending; nothing touches the
// tree here.
func (m *Manager) Load(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked(name)
}

func (m *Manager) loadLocked(name string) error {
	rec, ok := m.plugins[name]
	if !ok {
		return dispatch.Failf(dispatch.FailPluginUnavailable, "plugin %q not discovered", name)
	}
	if rec.desc.State != StateDiscovered {
		return dispatch.Failf(dispatch.FailPluginUnavailable,
			"plugin %q is %s, expected discovered", name, rec.desc.State)
	}
	if rec.entry == nil {
		err := fmt.Errorf("plugin %q has no entry reference", name)
		m.failLocked(rec, err)
		return dispatch.Failf(dispatch.FailLoad, "%v", err)
	}

	registerFn, err := safeEntry(rec.entry)
	if err != nil {
		m.failLocked(rec, err)
		return dispatch.Failf(dispatch.FailLoad, "plugin %q entry failed: %v", name, err)
	}
	rec.registerFn = registerFn
	rec.desc.State = StateLoaded

	h := newHandle(name)
	if err := safeRegister(registerFn, h); err != nil {
		m.failLocked(rec, err)
		return dispatch.Failf(dispatch.FailLoad, "plugin %q registration failed: %v", name, err)
	}
	rec.pending = h.registrations()
	rec.desc.State = StateInitialized

	m.logger.Info("plugin initialized",
		zap.String("plugin", name), zap.Int("contributions", len(rec.pending)))
	return nil
}

// safeEntry shields the manager from a panicking entry reference.
func safeEntry(entry EntryFunc) (fn RegisterFunc, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("entry panicked: %v", rec)
		}
	}()
	return entry()
}

// safeRegister shields the manager from a panicking registration callback.
func safeRegister(registerFn RegisterFunc, h *Handle) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("registration callback panicked: %v", rec)
		}
	}()
	return registerFn(h)
}

// LoadAll loads every Discovered plugin. Loading is isolated per plugin: a
// failure is recorded on that plugin and aggregated into the returned
// multi-error, never short-circuiting the rest.
func (m *Manager) LoadAll() error {
	m.mu.Lock()
	names := make([]string, 0, len(m.order))
	for _, name := range m.order {
		if m.plugins[name].desc.State == StateDiscovered {
			names = append(names, name)
		}
	}
	m.mu.Unlock()

	var errs error
	for _, name := range names {
		if err := m.Load(name); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// Enable attaches the plugin's pending contributions to the namespace tree
// as one atomic batch. It succeeds only from Initialized or Disabled and
// only when every declared dependency is currently Enabled (and satisfies
// its version constraint); otherwise nothing attaches.
func (m *Manager) Enable(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.plugins[name]
	if !ok {
		return dispatch.Failf(dispatch.FailPluginUnavailable, "plugin %q not discovered", name)
	}
	if rec.desc.State != StateInitialized && rec.desc.State != StateDisabled {
		return dispatch.Failf(dispatch.FailPluginUnavailable,
			"plugin %q is %s, expected initialized or disabled", name, rec.desc.State)
	}

	for _, req := range rec.desc.Requires {
		dep, ok := m.plugins[req.Name]
		if !ok || dep.desc.State != StateEnabled {
			return dispatch.Failf(dispatch.FailPluginUnavailable,
				"dependency %s not enabled", req.Name)
		}
		if req.Constraint != nil {
			if dep.desc.Version == nil || !req.Constraint.Check(dep.desc.Version) {
				return dispatch.Failf(dispatch.FailPluginUnavailable,
					"dependency %s does not satisfy %s", req.Name, req.Constraint)
			}
		}
	}

	if err := m.registry.RegisterBatch(name, rec.pending); err != nil {
		return dispatch.Failf(dispatch.FailPluginUnavailable,
			"plugin %q could not attach: %v", name, err)
	}

	rec.desc.ContributedPaths = rec.desc.ContributedPaths[:0]
	for _, reg := range rec.pending {
		rec.desc.ContributedPaths = append(rec.desc.ContributedPaths,
			append(append([]string{}, reg.Path...), reg.Node.Name))
	}
	rec.desc.State = StateEnabled
	m.logger.Info("plugin enabled", zap.String("plugin", name))
	return nil
}

// Disable detaches the plugin's commands but keeps the plugin in memory for
// fast re-enable. It is refused while another enabled plugin declares a
// dependency on it, naming the blocker.
func (m *Manager) Disable(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disableLocked(name)
}

func (m *Manager) disableLocked(name string) error {
	rec, ok := m.plugins[name]
	if !ok {
		return dispatch.Failf(dispatch.FailPluginUnavailable, "plugin %q not discovered", name)
	}
	if rec.desc.State != StateEnabled {
		return dispatch.Failf(dispatch.FailPluginUnavailable,
			"plugin %q is %s, expected enabled", name, rec.desc.State)
	}
	if blocker := m.enabledDependentLocked(name); blocker != "" {
		return dispatch.Failf(dispatch.FailPluginUnavailable,
			"plugin %q is required by enabled plugin %q", name, blocker)
	}

	if err := m.registry.UnregisterOwner(name); err != nil {
		return dispatch.Failf(dispatch.FailExecution,
			"plugin %q could not detach: %v", name, err)
	}
	rec.desc.ContributedPaths = nil
	rec.desc.State = StateDisabled
	m.logger.Info("plugin disabled", zap.String("plugin", name))
	return nil
}

// enabledDependentLocked returns the name of an enabled plugin that requires
// name, or "".
func (m *Manager) enabledDependentLocked(name string) string {
	for _, other := range m.order {
		rec := m.plugins[other]
		if rec.desc.State != StateEnabled {
			continue
		}
		for _, req := range rec.desc.Requires {
			if req.Name == name {
				return other
			}
		}
	}
	return ""
}

// Unload detaches the plugin (if attached) and releases it. Reachable from
// any state except Failed; refused while an enabled dependent exists.
func (m *Manager) Unload(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.plugins[name]
	if !ok {
		return dispatch.Failf(dispatch.FailPluginUnavailable, "plugin %q not discovered", name)
	}
	if rec.desc.State == StateFailed {
		return dispatch.Failf(dispatch.FailPluginUnavailable,
			"plugin %q failed and cannot be unloaded", name)
	}
	if rec.desc.State == StateEnabled {
		if err := m.disableLocked(name); err != nil {
			return err
		}
	}

	rec.registerFn = nil
	rec.pending = nil
	rec.entry = nil
	rec.desc.State = StateUnloaded
	m.logger.Info("plugin unloaded", zap.String("plugin", name))
	return nil
}

// Get returns a copy of the plugin's descriptor.
func (m *Manager) Get(name string) (Descriptor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.plugins[name]
	if !ok {
		return Descriptor{}, false
	}
	return rec.desc, true
}

// List returns descriptors in discovery order.
func (m *Manager) List() []Descriptor {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Descriptor, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.plugins[name].desc)
	}
	return out
}

// Blocked reports, for every failed or non-enabled plugin, which plugins are
// prevented from enabling because they require it. Dependents of a failed
// plugin are reported, not silently skipped.
func (m *Manager) Blocked() map[string][]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	blocked := make(map[string][]string)
	for _, name := range m.order {
		rec := m.plugins[name]
		if rec.desc.State == StateEnabled {
			continue
		}
		for _, other := range m.order {
			if other == name {
				continue
			}
			for _, req := range m.plugins[other].desc.Requires {
				if req.Name == name {
					blocked[name] = append(blocked[name], other)
				}
			}
		}
	}
	for name, deps := range blocked {
		if len(deps) == 0 {
			delete(blocked, name)
		}
	}
	return blocked
}

// Report renders a one-line-per-plugin status summary for CLI display.
func (m *Manager) Report() string {
	var b strings.Builder
	for _, d := range m.List() {
		version := "-"
		if d.Version != nil {
			version = d.Version.String()
		}
		fmt.Fprintf(&b, "%-20s %-10s %s", d.Name, version, d.State)
		if d.Err != nil {
			fmt.Fprintf(&b, " (%v)", d.Err)
		}
		b.WriteString("\n")
	}
	return b.String()
}
