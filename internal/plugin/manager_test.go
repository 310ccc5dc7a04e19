package plugin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/plinth-cli/plinth/internal/dispatch"
)

func nopHandler(env *dispatch.Environment, args dispatch.Args) (any, error) {
	return nil, nil
}

// simpleEntry builds an entry contributing a single top-level command named
// after the plugin.
func simpleEntry(name, version string, requires ...string) Entry {
	return Entry{
		Name:     name,
		Version:  version,
		Requires: requires,
		Entry: func() (RegisterFunc, error) {
			return func(h *Handle) error {
				h.Command(nil, dispatch.CommandSpec{
					Name:    name + "-cmd",
					Summary: "contributed by " + name,
					Handler: nopHandler,
				})
				return nil
			}, nil
		},
	}
}

func newTestManager(t *testing.T) (*Manager, *dispatch.Registry) {
	t.Helper()
	reg := dispatch.NewRegistry("plinth", "Test CLI", "plinth <command>")
	return NewManager(reg, zap.NewNop()), reg
}

func resolves(t *testing.T, reg *dispatch.Registry, tokens ...string) bool {
	t.Helper()
	_, f := reg.Resolve(tokens)
	return f == nil
}

func TestLifecycle_HappyPath(t *testing.T) {
	m, reg := newTestManager(t)

	require.NoError(t, m.Discover(simpleEntry("auth", "1.0.0")))
	d, ok := m.Get("auth")
	require.True(t, ok)
	require.Equal(t, StateDiscovered, d.State)

	require.NoError(t, m.Load("auth"))
	d, _ = m.Get("auth")
	require.Equal(t, StateInitialized, d.State)
	// Contributions are pending, not attached.
	require.False(t, resolves(t, reg, "auth-cmd"))

	require.NoError(t, m.Enable("auth"))
	d, _ = m.Get("auth")
	require.Equal(t, StateEnabled, d.State)
	require.True(t, resolves(t, reg, "auth-cmd"))
	require.Equal(t, [][]string{{"auth-cmd"}}, d.ContributedPaths)

	require.NoError(t, m.Disable("auth"))
	d, _ = m.Get("auth")
	require.Equal(t, StateDisabled, d.State)
	require.False(t, resolves(t, reg, "auth-cmd"))

	// Fast re-enable from Disabled.
	require.NoError(t, m.Enable("auth"))
	require.True(t, resolves(t, reg, "auth-cmd"))

	require.NoError(t, m.Disable("auth"))
	require.NoError(t, m.Unload("auth"))
	d, _ = m.Get("auth")
	require.Equal(t, StateUnloaded, d.State)
}

func TestDiscover_DuplicateName(t *testing.T) {
	m, _ := newTestManager(t)

	require.NoError(t, m.Discover(simpleEntry("auth", "1.0.0")))
	err := m.Discover(simpleEntry("auth", "2.0.0"))
	require.Error(t, err)
}

func TestEnable_DependencyNotEnabled(t *testing.T) {
	m, reg := newTestManager(t)

	require.NoError(t, m.Discover(
		simpleEntry("b", "1.0.0"),
		simpleEntry("a", "1.0.0", "b"),
	))
	require.NoError(t, m.LoadAll())

	// Enable a before b: refused, and nothing attached.
	err := m.Enable("a")
	require.Error(t, err)
	f := &dispatch.Failure{}
	require.ErrorAs(t, err, &f)
	require.Equal(t, dispatch.FailPluginUnavailable, f.Kind)
	require.Contains(t, f.Message, "dependency b not enabled")
	require.False(t, resolves(t, reg, "a-cmd"))

	// Enable b then a: both enabled, a's commands resolvable.
	require.NoError(t, m.Enable("b"))
	require.NoError(t, m.Enable("a"))
	require.True(t, resolves(t, reg, "a-cmd"))
	require.True(t, resolves(t, reg, "b-cmd"))
}

func TestEnable_SemverConstraint(t *testing.T) {
	m, _ := newTestManager(t)

	require.NoError(t, m.Discover(
		simpleEntry("vault", "1.1.0"),
		simpleEntry("needs-new", "1.0.0", "vault@>=2.0.0"),
		simpleEntry("needs-old", "1.0.0", "vault@>=1.0.0"),
	))
	require.NoError(t, m.LoadAll())
	require.NoError(t, m.Enable("vault"))

	err := m.Enable("needs-new")
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not satisfy")

	require.NoError(t, m.Enable("needs-old"))
}

func TestDisable_RefusedWithEnabledDependent(t *testing.T) {
	m, reg := newTestManager(t)

	require.NoError(t, m.Discover(
		simpleEntry("b", "1.0.0"),
		simpleEntry("a", "1.0.0", "b"),
	))
	require.NoError(t, m.LoadAll())
	require.NoError(t, m.Enable("b"))
	require.NoError(t, m.Enable("a"))

	err := m.Disable("b")
	require.Error(t, err)
	require.Contains(t, err.Error(), `required by enabled plugin "a"`)

	// The dependent remains fully functional.
	require.True(t, resolves(t, reg, "a-cmd"))
	require.True(t, resolves(t, reg, "b-cmd"))

	// After the dependent is disabled, the dependency may go too.
	require.NoError(t, m.Disable("a"))
	require.NoError(t, m.Disable("b"))
}

func TestDisable_SharedGroupStaysConsistent(t *testing.T) {
	m, reg := newTestManager(t)

	owner := Entry{
		Name: "cloud-core",
		Entry: func() (RegisterFunc, error) {
			return func(h *Handle) error {
				h.Group(nil, dispatch.GroupSpec{Name: "cloud"})
				h.Command([]string{"cloud"}, dispatch.CommandSpec{Name: "own", Handler: nopHandler})
				return nil
			}, nil
		},
	}
	guest := Entry{
		Name: "cloud-extra",
		Entry: func() (RegisterFunc, error) {
			return func(h *Handle) error {
				h.Command([]string{"cloud"}, dispatch.CommandSpec{Name: "other", Handler: nopHandler})
				return nil
			}, nil
		},
	}

	require.NoError(t, m.Discover(owner, guest))
	require.NoError(t, m.LoadAll())
	require.NoError(t, m.Enable("cloud-core"))
	require.NoError(t, m.Enable("cloud-extra"))

	// Disable succeeds even though the group is shared: the plugin's own
	// commands detach, the group stays for the other plugin, and the state
	// moves to Disabled with no contributions still claimed.
	require.NoError(t, m.Disable("cloud-core"))

	d, _ := m.Get("cloud-core")
	require.Equal(t, StateDisabled, d.State)
	require.Empty(t, d.ContributedPaths)
	require.False(t, resolves(t, reg, "cloud", "own"))
	require.True(t, resolves(t, reg, "cloud", "other"))

	// A retry reports the state honestly instead of wedging.
	err := m.Disable("cloud-core")
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected enabled")

	require.NoError(t, m.Unload("cloud-core"))
}

func TestLoadAll_FailureIsolation(t *testing.T) {
	m, reg := newTestManager(t)

	broken := Entry{
		Name: "broken",
		Entry: func() (RegisterFunc, error) {
			return nil, errors.New("cannot load")
		},
	}
	panicky := Entry{
		Name: "panicky",
		Entry: func() (RegisterFunc, error) {
			panic("entry exploded")
		},
	}

	require.NoError(t, m.Discover(broken, simpleEntry("fine", "1.0.0"), panicky))
	err := m.LoadAll()
	require.Error(t, err)

	// The healthy plugin is unaffected by its broken siblings.
	d, _ := m.Get("fine")
	require.Equal(t, StateInitialized, d.State)
	require.NoError(t, m.Enable("fine"))
	require.True(t, resolves(t, reg, "fine-cmd"))

	d, _ = m.Get("broken")
	require.Equal(t, StateFailed, d.State)
	require.Error(t, d.Err)

	d, _ = m.Get("panicky")
	require.Equal(t, StateFailed, d.State)
}

func TestEnable_NoPartialAttachment(t *testing.T) {
	m, reg := newTestManager(t)

	// Core command the plugin will collide with.
	require.NoError(t, reg.Register(nil, dispatch.NewCommand(dispatch.CommandSpec{
		Name:    "taken",
		Handler: nopHandler,
	})))

	colliding := Entry{
		Name: "greedy",
		Entry: func() (RegisterFunc, error) {
			return func(h *Handle) error {
				h.Command(nil, dispatch.CommandSpec{Name: "fresh", Handler: nopHandler})
				h.Command(nil, dispatch.CommandSpec{Name: "taken", Handler: nopHandler})
				return nil
			}, nil
		},
	}
	require.NoError(t, m.Discover(colliding))
	require.NoError(t, m.Load("greedy"))

	err := m.Enable("greedy")
	require.Error(t, err)

	// Atomic: the non-colliding command must not have attached either.
	require.False(t, resolves(t, reg, "fresh"))
	d, _ := m.Get("greedy")
	require.NotEqual(t, StateEnabled, d.State)
}

func TestUnload_FailedIsTerminal(t *testing.T) {
	m, _ := newTestManager(t)

	require.NoError(t, m.Discover(Entry{
		Name:  "broken",
		Entry: func() (RegisterFunc, error) { return nil, errors.New("nope") },
	}))
	require.Error(t, m.Load("broken"))

	err := m.Unload("broken")
	require.Error(t, err)
}

func TestUnload_WhileEnabledDetachesFirst(t *testing.T) {
	m, reg := newTestManager(t)

	require.NoError(t, m.Discover(simpleEntry("auth", "1.0.0")))
	require.NoError(t, m.Load("auth"))
	require.NoError(t, m.Enable("auth"))

	require.NoError(t, m.Unload("auth"))
	require.False(t, resolves(t, reg, "auth-cmd"))
}

func TestBlocked_ReportsDependentsOfFailedPlugin(t *testing.T) {
	m, _ := newTestManager(t)

	require.NoError(t, m.Discover(
		Entry{Name: "base", Entry: func() (RegisterFunc, error) { return nil, errors.New("boom") }},
		simpleEntry("child", "1.0.0", "base"),
	))
	_ = m.LoadAll()

	blocked := m.Blocked()
	require.Equal(t, []string{"child"}, blocked["base"])
}

func TestRegistrationCallbackPanicIsFailed(t *testing.T) {
	m, _ := newTestManager(t)

	require.NoError(t, m.Discover(Entry{
		Name: "wild",
		Entry: func() (RegisterFunc, error) {
			return func(h *Handle) error { panic("registration exploded") }, nil
		},
	}))

	err := m.Load("wild")
	require.Error(t, err)
	d, _ := m.Get("wild")
	require.Equal(t, StateFailed, d.State)
}

func TestList_DiscoveryOrder(t *testing.T) {
	m, _ := newTestManager(t)

	require.NoError(t, m.Discover(
		simpleEntry("zeta", "1.0.0"),
		simpleEntry("alpha", "1.0.0"),
	))

	list := m.List()
	require.Len(t, list, 2)
	require.Equal(t, "zeta", list[0].Name)
	require.Equal(t, "alpha", list[1].Name)
}

func TestParseRequirement(t *testing.T) {
	req, err := ParseRequirement("vault")
	require.NoError(t, err)
	require.Equal(t, "vault", req.Name)
	require.Nil(t, req.Constraint)

	req, err = ParseRequirement("vault@>=1.2.0")
	require.NoError(t, err)
	require.Equal(t, "vault", req.Name)
	require.NotNil(t, req.Constraint)

	_, err = ParseRequirement("vault@not-a-range!!")
	require.Error(t, err)

	_, err = ParseRequirement("@>=1.0.0")
	require.Error(t, err)
}
