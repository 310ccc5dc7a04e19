package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plinth-cli/plinth/internal/dispatch"
)

func newTestWriter() (*Writer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	w := NewWriterTo(&out, &errOut, WithPagerDisabled())
	return w, &out, &errOut
}

func TestRender_SuccessString(t *testing.T) {
	w, out, errOut := newTestWriter()

	w.Render(dispatch.Success("0.3.0"))

	require.Equal(t, "0.3.0\n", out.String())
	require.Empty(t, errOut.String())
}

func TestRender_NilValueIsSilent(t *testing.T) {
	w, out, errOut := newTestWriter()

	w.Render(dispatch.Success(nil))

	require.Empty(t, out.String())
	require.Empty(t, errOut.String())
}

func TestRender_NonStringValue(t *testing.T) {
	w, out, _ := newTestWriter()

	w.Render(dispatch.Success(42))

	require.Equal(t, "42\n", out.String())
}

func TestRender_FailureGoesToErrorStream(t *testing.T) {
	w, out, errOut := newTestWriter()

	w.Render(dispatch.Fail(dispatch.Failf(dispatch.FailNotFound, "no command 'statis'")))

	require.Empty(t, out.String())
	require.Contains(t, errOut.String(), "no command 'statis'")
}

func TestRender_FailureSuggestions(t *testing.T) {
	w, _, errOut := newTestWriter()

	f := dispatch.Failf(dispatch.FailNotFound, "no command 'statis'")
	f.Suggestions = []string{"status", "stats"}
	w.Render(dispatch.Fail(f))

	require.Contains(t, errOut.String(), "did you mean:")
	require.Contains(t, errOut.String(), "status, stats")
}

func TestRender_LongOutputBypassesPagerOnBuffer(t *testing.T) {
	var out, errOut bytes.Buffer
	w := NewWriterTo(&out, &errOut)

	long := strings.Repeat("line\n", 100)
	w.Render(dispatch.Success(long))

	// Non-file outputs never spawn a pager; content lands directly.
	require.Contains(t, out.String(), "line\n")
	require.GreaterOrEqual(t, strings.Count(out.String(), "line"), 100)
}
