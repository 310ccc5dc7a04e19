package shell

import (
	"fmt"
	"sort"
	"strings"

	"github.com/plinth-cli/plinth/internal/dispatch"
	"github.com/plinth-cli/plinth/internal/history"
)

// builtinFunc runs a shell built-in. Built-ins are checked before the
// registry, so a plugin command can never shadow them.
type builtinFunc func(s *Session, args []string) (any, error)

// builtins maps the built-in command set. Initialized in init() instead of a
// literal because the help builtin refers back to the map.
var builtins map[string]builtinFunc

func init() {
	builtins = map[string]builtinFunc{
		"help":    builtinHelp,
		"exit":    builtinExit,
		"quit":    builtinExit,
		"history": builtinHistory,
		"set":     builtinSet,
		"unset":   builtinUnset,
		"browse":  builtinBrowse,
	}
}

// BuiltinNames returns the built-in command names, sorted. Used to seed the
// completer.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func builtinExit(s *Session, args []string) (any, error) {
	s.closing = true
	return "bye", nil
}

func builtinHelp(s *Session, args []string) (any, error) {
	if len(args) > 0 {
		return helpFor(s, args)
	}

	var b strings.Builder
	b.WriteString("COMMANDS\n")
	for _, cmd := range s.registry.Commands() {
		fmt.Fprintf(&b, "   %-24s %s\n", strings.Join(cmd.Path, " "), cmd.Summary)
	}
	b.WriteString("\nBUILT-INS\n")
	for _, name := range BuiltinNames() {
		fmt.Fprintf(&b, "   %s\n", name)
	}
	b.WriteString("\nType 'help <command>' for details on a command.")
	return b.String(), nil
}

func helpFor(s *Session, path []string) (any, error) {
	res, f := s.registry.Resolve(path)
	if f != nil {
		return nil, f
	}
	node := res.Node

	var b strings.Builder
	fmt.Fprintf(&b, "%s", strings.Join(node.Path, " "))
	if node.Summary != "" {
		fmt.Fprintf(&b, " - %s", node.Summary)
	}
	b.WriteString("\n")
	if node.Usage != "" {
		fmt.Fprintf(&b, "\nUSAGE\n   %s\n", node.Usage)
	}
	if node.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", node.Description)
	}

	if node.IsGroup() {
		b.WriteString("\nSUBCOMMANDS\n")
		names := make([]string, 0, len(node.Children))
		for name := range node.Children {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "   %-16s %s\n", name, node.Children[name].Summary)
		}
	} else if len(node.Params) > 0 {
		b.WriteString("\nPARAMETERS\n")
		for _, p := range node.Params {
			label := p.Name
			switch p.Kind {
			case dispatch.KindOption:
				label = "--" + p.Name + " <value>"
			case dispatch.KindFlag:
				label = "--" + p.Name
			}
			req := ""
			if p.Required {
				req = " (required)"
			}
			fmt.Fprintf(&b, "   %-24s %s%s\n", label, p.Description, req)
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func builtinHistory(s *Session, args []string) (any, error) {
	if len(args) > 0 {
		switch args[0] {
		case "search":
			if len(args) < 2 {
				return nil, dispatch.Failf(dispatch.FailValidation, "history search requires a term")
			}
			return formatEntries(s.log.Search(strings.Join(args[1:], " "))), nil
		case "clear":
			if s.store == nil {
				return nil, dispatch.Failf(dispatch.FailExecution, "no history store configured")
			}
			n, err := s.store.Clear()
			if err != nil {
				return nil, err
			}
			return fmt.Sprintf("cleared %d entries", n), nil
		default:
			return nil, dispatch.Failf(dispatch.FailValidation, "unknown history subcommand '%s'", args[0])
		}
	}
	return formatEntries(s.log.Entries()), nil
}

func formatEntries(entries []history.Entry) string {
	if len(entries) == 0 {
		return "(history empty)"
	}
	var b strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&b, "%4d  [%d]  %s\n", i+1, e.ExitStatus, e.Raw)
	}
	return strings.TrimRight(b.String(), "\n")
}

func builtinSet(s *Session, args []string) (any, error) {
	switch len(args) {
	case 0:
		keys := s.vars.Keys()
		sort.Strings(keys)
		var b strings.Builder
		for _, k := range keys {
			v, _ := s.vars.Get(k)
			fmt.Fprintf(&b, "%s=%v\n", k, v)
		}
		return strings.TrimRight(b.String(), "\n"), nil
	case 2:
		s.vars.Set(args[0], args[1])
		return nil, nil
	default:
		return nil, dispatch.Failf(dispatch.FailValidation, "usage: set [<key> <value>]")
	}
}

func builtinUnset(s *Session, args []string) (any, error) {
	if len(args) != 1 {
		return nil, dispatch.Failf(dispatch.FailValidation, "usage: unset <key>")
	}
	s.vars.Delete(args[0])
	return nil, nil
}

func builtinBrowse(s *Session, args []string) (any, error) {
	if s.browser == nil {
		return nil, dispatch.Failf(dispatch.FailExecution, "interactive browser unavailable")
	}
	if err := s.browser(); err != nil {
		return nil, err
	}
	return nil, nil
}
