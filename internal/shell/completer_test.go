package shell

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plinth-cli/plinth/internal/dispatch"
)

func TestCompleter_TopLevelMergesBuiltins(t *testing.T) {
	reg := newShellRegistry(t)
	c := NewCompleter(reg, BuiltinNames())

	got := c.Candidates(nil, "")
	require.Contains(t, got, "db")
	require.Contains(t, got, "version")
	require.Contains(t, got, "help")
	require.Contains(t, got, "exit")

	got = c.Candidates(nil, "he")
	require.Equal(t, []string{"help"}, got)
}

func TestCompleter_NestedPathsExcludeBuiltins(t *testing.T) {
	reg := newShellRegistry(t)
	c := NewCompleter(reg, BuiltinNames())

	got := c.Candidates([]string{"db"}, "")
	require.Equal(t, []string{"migrate"}, got)
}

func TestCompleter_InvalidateReflectsRegistryChange(t *testing.T) {
	reg := newShellRegistry(t)
	c := NewCompleter(reg, BuiltinNames())
	unsub := reg.Subscribe(c.Invalidate)
	defer unsub()

	require.NotContains(t, c.Candidates(nil, ""), "vault")

	require.NoError(t, reg.Register(nil, dispatch.NewCommand(dispatch.CommandSpec{
		Name: "vault",
		Handler: func(env *dispatch.Environment, args dispatch.Args) (any, error) {
			return nil, nil
		},
	})))

	// The registration hook dropped the cache, so the next keystroke sees
	// the new command.
	require.Contains(t, c.Candidates(nil, ""), "vault")
}

func TestCompleter_DoReturnsSuffixes(t *testing.T) {
	reg := newShellRegistry(t)
	c := NewCompleter(reg, BuiltinNames())

	line := []rune("db mig")
	cands, length := c.Do(line, len(line))
	require.Len(t, cands, 1)
	require.Equal(t, "rate ", string(cands[0]))
	require.Equal(t, 3, length)

	// Cursor after a space completes a fresh segment.
	line = []rune("db ")
	cands, length = c.Do(line, len(line))
	require.Len(t, cands, 1)
	require.Equal(t, "migrate ", string(cands[0]))
	require.Equal(t, 0, length)
}
