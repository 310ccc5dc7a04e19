// Package completions generates static shell completion scripts from the
// live command registry. The scripts complete command paths only; argument
// values are left to the shell's default behavior.
package completions

import (
	"fmt"
	"sort"
	"strings"

	"github.com/plinth-cli/plinth/internal/dispatch"
)

// Shell identifies a completion script dialect.
type Shell string

const (
	ShellBash Shell = "bash"
	ShellZsh  Shell = "zsh"
)

// CommandInfo is one node extracted from the registry.
type CommandInfo struct {
	Path        []string
	Summary     string
	Subcommands []string
	Options     []string
}

// Extract walks the registry and flattens every group and command, root
// included, into CommandInfo records.
func Extract(registry *dispatch.Registry) []CommandInfo {
	var out []CommandInfo
	extractNode(registry.Root(), &out)
	return out
}

func extractNode(node *dispatch.Node, out *[]CommandInfo) {
	if node == nil {
		return
	}

	var subs []string
	for name := range node.Children {
		subs = append(subs, name)
	}
	sort.Strings(subs)

	var options []string
	for _, p := range node.Params {
		if p.Kind != dispatch.KindPositional {
			options = append(options, "--"+p.Name)
		}
	}

	*out = append(*out, CommandInfo{
		Path:        node.Path,
		Summary:     node.Summary,
		Subcommands: subs,
		Options:     options,
	})

	names := make([]string, 0, len(node.Children))
	for name := range node.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		extractNode(node.Children[name], out)
	}
}

// Generate returns the completion script for the shell, or an error for an
// unsupported dialect.
func Generate(registry *dispatch.Registry, binary string, shell Shell) (string, error) {
	commands := Extract(registry)
	switch shell {
	case ShellBash:
		return generateBash(binary, commands), nil
	case ShellZsh:
		return generateZsh(binary, commands), nil
	default:
		return "", fmt.Errorf("unsupported shell '%s'", shell)
	}
}

// caseKey joins a command path for use in the generated case statement. The
// root node gets the bare binary name.
func caseKey(binary string, path []string) string {
	if len(path) == 0 {
		return binary
	}
	return binary + " " + strings.Join(path, " ")
}

func generateBash(binary string, commands []CommandInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# bash completion for %s\n", binary)
	fmt.Fprintf(&b, "_%s_completions() {\n", binary)
	b.WriteString("    local cur path\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    path=\"${COMP_WORDS[@]:0:COMP_CWORD}\"\n")
	b.WriteString("    case \"$path\" in\n")

	for _, cmd := range commands {
		words := append(cmd.Subcommands, cmd.Options...)
		if len(words) == 0 {
			continue
		}
		fmt.Fprintf(&b, "        \"%s\")\n", caseKey(binary, cmd.Path))
		fmt.Fprintf(&b, "            COMPREPLY=($(compgen -W \"%s\" -- \"$cur\"))\n",
			strings.Join(words, " "))
		b.WriteString("            ;;\n")
	}

	b.WriteString("    esac\n")
	b.WriteString("}\n")
	fmt.Fprintf(&b, "complete -F _%s_completions %s\n", binary, binary)
	return b.String()
}

func generateZsh(binary string, commands []CommandInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#compdef %s\n", binary)
	fmt.Fprintf(&b, "_%s() {\n", binary)
	b.WriteString("    local -a completions\n")
	b.WriteString("    local path=\"${words[1,CURRENT-1]}\"\n")
	b.WriteString("    case \"$path\" in\n")

	for _, cmd := range commands {
		words := append(cmd.Subcommands, cmd.Options...)
		if len(words) == 0 {
			continue
		}
		fmt.Fprintf(&b, "        \"%s\")\n", caseKey(binary, cmd.Path))
		fmt.Fprintf(&b, "            completions=(%s)\n", strings.Join(words, " "))
		b.WriteString("            ;;\n")
	}

	b.WriteString("    esac\n")
	b.WriteString("    _describe 'command' completions\n")
	b.WriteString("}\n")
	fmt.Fprintf(&b, "_%s \"$@\"\n", binary)
	return b.String()
}
