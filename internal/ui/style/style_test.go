package style

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDisabledReturnsInputUnchanged(t *testing.T) {
	Init(false)

	require.False(t, Enabled())
	require.Equal(t, "hello", Success("hello"))
	require.Equal(t, "hello", Warning("hello"))
	require.Equal(t, "hello", Error("hello"))
	require.Equal(t, "hello", Info("hello"))
	require.Equal(t, "hello", Header("hello"))
	require.Equal(t, "hello", Muted("hello"))
}

func TestEnabledAddsAnsiCodes(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Setenv("PLINTH_NO_COLOR", "")
	Init(true)
	defer Init(false)

	require.True(t, Enabled())
	styled := Error("boom")
	require.Contains(t, styled, "boom")
	require.True(t, strings.Contains(styled, "\x1b["), "expected ANSI escape in %q", styled)
}

func TestNoColorEnvWins(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	Init(true)

	require.False(t, Enabled())
	require.Equal(t, "plain", Success("plain"))
}

func TestPlinthNoColorEnvWins(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	t.Setenv("PLINTH_NO_COLOR", "yes")
	Init(true)

	require.False(t, Enabled())
	require.Equal(t, "plain", Error("plain"))
}
