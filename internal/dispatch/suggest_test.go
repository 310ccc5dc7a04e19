package dispatch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"version", "verison", 2},
		{"Status", "status", 0}, // suggestions are case-insensitive
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, levenshtein(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestSimilarNames(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(nil, NewCommand(CommandSpec{Name: "verify", Handler: nopHandler})))

	got := SimilarNames("versoin", r.Root(), 3)
	require.Contains(t, got, "version")

	// Exact matches are not suggestions.
	require.Empty(t, SimilarNames("version", r.Root(), 3)[0:0])
	for _, s := range SimilarNames("version", r.Root(), 3) {
		require.NotEqual(t, "version", s)
	}
}

func TestSimilarNames_LimitAndOrder(t *testing.T) {
	r := NewRegistry("plinth", "Test CLI", "plinth <command>")
	for _, name := range []string{"lost", "list", "last", "lest"} {
		require.NoError(t, r.Register(nil, NewCommand(CommandSpec{Name: name, Handler: nopHandler})))
	}

	got := SimilarNames("lust", r.Root(), 2)
	require.Len(t, got, 2)
	// All distance 1; alphabetical tie-break.
	require.Equal(t, []string{"last", "lest"}, got)
}

func TestSimilarNames_NilNode(t *testing.T) {
	require.Nil(t, SimilarNames("x", nil, 3))
}
