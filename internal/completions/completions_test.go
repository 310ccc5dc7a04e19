package completions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plinth-cli/plinth/internal/dispatch"
)

func buildTestRegistry(t *testing.T) *dispatch.Registry {
	t.Helper()
	reg := dispatch.NewRegistry("plinth", "Test CLI", "plinth <command>")
	h := func(env *dispatch.Environment, args dispatch.Args) (any, error) { return nil, nil }

	require.NoError(t, reg.Register(nil, dispatch.NewCommand(dispatch.CommandSpec{
		Name: "version", Summary: "Show version", Handler: h,
	})))
	require.NoError(t, reg.Register(nil, dispatch.NewGroup(dispatch.GroupSpec{
		Name: "db", Summary: "Database operations",
	})))
	require.NoError(t, reg.Register([]string{"db"}, dispatch.NewCommand(dispatch.CommandSpec{
		Name: "migrate", Summary: "Apply migrations",
		Params: []dispatch.ParamSpec{
			{Name: "target", Kind: dispatch.KindOption, Required: true},
			{Name: "dry-run", Kind: dispatch.KindFlag},
			{Name: "table", Kind: dispatch.KindPositional},
		},
		Handler: h,
	})))
	return reg
}

func TestExtract(t *testing.T) {
	commands := Extract(buildTestRegistry(t))

	// Root, version, db, db migrate.
	require.Len(t, commands, 4)

	root := commands[0]
	require.Empty(t, root.Path)
	require.ElementsMatch(t, []string{"db", "version"}, root.Subcommands)

	var migrate *CommandInfo
	for i := range commands {
		if strings.Join(commands[i].Path, " ") == "db migrate" {
			migrate = &commands[i]
		}
	}
	require.NotNil(t, migrate)
	// Positionals are not completable; options and flags are.
	require.ElementsMatch(t, []string{"--target", "--dry-run"}, migrate.Options)
}

func TestGenerateBash(t *testing.T) {
	script, err := Generate(buildTestRegistry(t), "plinth", ShellBash)
	require.NoError(t, err)

	for _, want := range []string{
		"_plinth_completions()",
		"complete -F _plinth_completions plinth",
		`"plinth")`,
		`"plinth db")`,
		"--target",
	} {
		require.Contains(t, script, want)
	}
}

func TestGenerateZsh(t *testing.T) {
	script, err := Generate(buildTestRegistry(t), "plinth", ShellZsh)
	require.NoError(t, err)

	require.Contains(t, script, "#compdef plinth")
	require.Contains(t, script, "_plinth()")
	require.Contains(t, script, "migrate")
}

func TestGenerate_UnsupportedShell(t *testing.T) {
	_, err := Generate(buildTestRegistry(t), "plinth", Shell("fish"))
	require.Error(t, err)
}
