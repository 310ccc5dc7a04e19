package shell

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"plain words", "db migrate --target prod", []string{"db", "migrate", "--target", "prod"}},
		{"collapses whitespace", "  db \t migrate  ", []string{"db", "migrate"}},
		{"double quotes group", `say "hello world"`, []string{"say", "hello world"}},
		{"single quotes group", "say 'hello world'", []string{"say", "hello world"}},
		{"escaped space", `say hello\ world`, []string{"say", "hello world"}},
		{"escape inside double quotes", `say "a \" b"`, []string{"say", `a " b`}},
		{"no escape inside single quotes", `say 'a \ b'`, []string{"say", `a \ b`}},
		{"empty quoted token", `set key ""`, []string{"set", "key", ""}},
		{"empty line", "", nil},
		{"adjacent quotes merge", `say 'a'"b"`, []string{"say", "ab"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tokenize(tt.line)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTokenize_Errors(t *testing.T) {
	for _, line := range []string{`say "unterminated`, "say 'unterminated", `trailing\`} {
		_, err := Tokenize(line)
		require.Error(t, err, "line %q", line)
	}
}
