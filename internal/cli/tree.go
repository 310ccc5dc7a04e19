// Package cli declares the core command tree. Core commands are registered
// under the reserved owner and can never be detached by plugins.
package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/plinth-cli/plinth/internal/completions"
	"github.com/plinth-cli/plinth/internal/dispatch"
	"github.com/plinth-cli/plinth/internal/history"
	"github.com/plinth-cli/plinth/internal/plugin"
)

// CoreOwner marks nodes owned by the application itself rather than a
// plugin. Unregister of core-owned nodes by any plugin owner is refused.
const CoreOwner = "core"

// Deps are the services the core commands act on.
type Deps struct {
	Version string
	Plugins *plugin.Manager
	History *history.Store
}

// NewRootRegistry creates the empty registry with the application's root
// metadata. The core tree is attached separately so collaborators that need
// the registry, like the plugin manager, can be constructed first.
func NewRootRegistry() *dispatch.Registry {
	return dispatch.NewRegistry(
		"plinth",
		"Extensible command foundation",
		"plinth <command> [args]",
	)
}

// Attach registers the core command tree on the registry under CoreOwner.
func Attach(reg *dispatch.Registry, deps Deps) error {
	regs := []dispatch.Registration{
		{Node: dispatch.NewCommand(dispatch.CommandSpec{
			Name:    "version",
			Summary: "Show plinth version",
			Usage:   "plinth version",
			Handler: func(env *dispatch.Environment, args dispatch.Args) (any, error) {
				return deps.Version, nil
			},
		})},
		{Node: dispatch.NewCommand(dispatch.CommandSpec{
			Name:    "shell",
			Summary: "Start an interactive shell",
			Usage:   "plinth shell",
			Handler: func(env *dispatch.Environment, args dispatch.Args) (any, error) {
				return nil, dispatch.Failf(dispatch.FailExecution,
					"the shell is already running; start it from the command line")
			},
		})},

		{Node: dispatch.NewCommand(dispatch.CommandSpec{
			Name:    "help",
			Summary: "Show help for a command",
			Usage:   "plinth help [command]",
			Params: []dispatch.ParamSpec{
				{Name: "command", Kind: dispatch.KindPositional, Description: "Command path, quoted if nested (\"db migrate\")"},
			},
			Handler: func(env *dispatch.Environment, args dispatch.Args) (any, error) {
				return helpText(reg, args.String("command"))
			},
		})},
		{Node: dispatch.NewCommand(dispatch.CommandSpec{
			Name:    "completions",
			Summary: "Generate a shell completion script",
			Usage:   "plinth completions <bash|zsh>",
			Params: []dispatch.ParamSpec{
				{Name: "shell", Kind: dispatch.KindPositional, Required: true, Description: "Target shell: bash or zsh"},
			},
			Handler: func(env *dispatch.Environment, args dispatch.Args) (any, error) {
				script, err := completions.Generate(reg, "plinth", completions.Shell(args.String("shell")))
				if err != nil {
					return nil, dispatch.Failf(dispatch.FailValidation, "%v", err)
				}
				return script, nil
			},
		})},

		{Node: dispatch.NewGroup(dispatch.GroupSpec{
			Name:    "plugins",
			Summary: "Inspect and control plugins",
			Usage:   "plinth plugins <command>",
		})},
		{Path: []string{"plugins"}, Node: dispatch.NewCommand(dispatch.CommandSpec{
			Name:    "list",
			Aliases: []string{"ls"},
			Summary: "List plugins and their states",
			Usage:   "plinth plugins list",
			Handler: func(env *dispatch.Environment, args dispatch.Args) (any, error) {
				return deps.Plugins.Report(), nil
			},
		})},
		{Path: []string{"plugins"}, Node: dispatch.NewCommand(dispatch.CommandSpec{
			Name:    "info",
			Summary: "Show details for one plugin",
			Usage:   "plinth plugins info <name>",
			Params: []dispatch.ParamSpec{
				{Name: "name", Kind: dispatch.KindPositional, Required: true, Description: "Plugin name"},
			},
			Handler: func(env *dispatch.Environment, args dispatch.Args) (any, error) {
				return pluginInfo(deps.Plugins, args.String("name"))
			},
		})},
		{Path: []string{"plugins"}, Node: dispatch.NewCommand(dispatch.CommandSpec{
			Name:    "load",
			Summary: "Load a discovered plugin",
			Usage:   "plinth plugins load <name>",
			Params: []dispatch.ParamSpec{
				{Name: "name", Kind: dispatch.KindPositional, Required: true, Description: "Plugin name"},
			},
			Handler: func(env *dispatch.Environment, args dispatch.Args) (any, error) {
				name := args.String("name")
				if err := deps.Plugins.Load(name); err != nil {
					return nil, err
				}
				return fmt.Sprintf("plugin '%s' loaded", name), nil
			},
		})},
		{Path: []string{"plugins"}, Node: dispatch.NewCommand(dispatch.CommandSpec{
			Name:    "enable",
			Summary: "Enable a loaded plugin",
			Usage:   "plinth plugins enable <name>",
			Params: []dispatch.ParamSpec{
				{Name: "name", Kind: dispatch.KindPositional, Required: true, Description: "Plugin name"},
			},
			Handler: func(env *dispatch.Environment, args dispatch.Args) (any, error) {
				name := args.String("name")
				if err := deps.Plugins.Enable(name); err != nil {
					return nil, err
				}
				return fmt.Sprintf("plugin '%s' enabled", name), nil
			},
		})},
		{Path: []string{"plugins"}, Node: dispatch.NewCommand(dispatch.CommandSpec{
			Name:    "disable",
			Summary: "Disable an enabled plugin",
			Usage:   "plinth plugins disable <name>",
			Params: []dispatch.ParamSpec{
				{Name: "name", Kind: dispatch.KindPositional, Required: true, Description: "Plugin name"},
			},
			Handler: func(env *dispatch.Environment, args dispatch.Args) (any, error) {
				name := args.String("name")
				if err := deps.Plugins.Disable(name); err != nil {
					return nil, err
				}
				return fmt.Sprintf("plugin '%s' disabled", name), nil
			},
		})},
		{Path: []string{"plugins"}, Node: dispatch.NewCommand(dispatch.CommandSpec{
			Name:    "unload",
			Summary: "Unload a plugin and release its commands",
			Usage:   "plinth plugins unload <name>",
			Params: []dispatch.ParamSpec{
				{Name: "name", Kind: dispatch.KindPositional, Required: true, Description: "Plugin name"},
			},
			Handler: func(env *dispatch.Environment, args dispatch.Args) (any, error) {
				name := args.String("name")
				if err := deps.Plugins.Unload(name); err != nil {
					return nil, err
				}
				return fmt.Sprintf("plugin '%s' unloaded", name), nil
			},
		})},
		{Path: []string{"plugins"}, Node: dispatch.NewCommand(dispatch.CommandSpec{
			Name:    "discover",
			Summary: "Scan a directory for plugin manifests",
			Usage:   "plinth plugins discover --dir <path>",
			Params: []dispatch.ParamSpec{
				{Name: "dir", Kind: dispatch.KindOption, Required: true, Description: "Directory holding *.plugin.yaml manifests"},
			},
			Handler: func(env *dispatch.Environment, args dispatch.Args) (any, error) {
				if err := deps.Plugins.DiscoverDir(args.String("dir")); err != nil {
					return nil, err
				}
				return deps.Plugins.Report(), nil
			},
		})},
		{Path: []string{"plugins"}, Node: dispatch.NewCommand(dispatch.CommandSpec{
			Name:    "validate",
			Summary: "Validate a plugin manifest against the schema",
			Usage:   "plinth plugins validate <path>",
			Params: []dispatch.ParamSpec{
				{Name: "path", Kind: dispatch.KindPositional, Required: true, Description: "Manifest file to check"},
			},
			Handler: func(env *dispatch.Environment, args dispatch.Args) (any, error) {
				return validateManifest(args.String("path"))
			},
		})},

		{Node: dispatch.NewGroup(dispatch.GroupSpec{
			Name:    "history",
			Summary: "Inspect persisted shell history",
			Usage:   "plinth history <command>",
		})},
		{Path: []string{"history"}, Node: dispatch.NewCommand(dispatch.CommandSpec{
			Name:    "recent",
			Summary: "Show the most recent history entries",
			Usage:   "plinth history recent [--limit <n>]",
			Params: []dispatch.ParamSpec{
				{Name: "limit", Kind: dispatch.KindOption, Type: dispatch.TypeInt, Default: 20, Description: "Maximum entries to show"},
			},
			Handler: func(env *dispatch.Environment, args dispatch.Args) (any, error) {
				entries, err := deps.History.Recent(args.Int("limit"))
				if err != nil {
					return nil, err
				}
				return formatHistory(entries), nil
			},
		})},
		{Path: []string{"history"}, Node: dispatch.NewCommand(dispatch.CommandSpec{
			Name:    "search",
			Summary: "Search history entries by substring",
			Usage:   "plinth history search <term>",
			Params: []dispatch.ParamSpec{
				{Name: "term", Kind: dispatch.KindPositional, Required: true, Description: "Substring to match"},
			},
			Handler: func(env *dispatch.Environment, args dispatch.Args) (any, error) {
				entries, err := deps.History.Search(args.String("term"))
				if err != nil {
					return nil, err
				}
				return formatHistory(entries), nil
			},
		})},
		{Path: []string{"history"}, Node: dispatch.NewCommand(dispatch.CommandSpec{
			Name:    "clear",
			Summary: "Delete all persisted history",
			Usage:   "plinth history clear",
			Handler: func(env *dispatch.Environment, args dispatch.Args) (any, error) {
				n, err := deps.History.Clear()
				if err != nil {
					return nil, err
				}
				return fmt.Sprintf("cleared %d entries", n), nil
			},
		})},
	}

	return reg.RegisterBatch(CoreOwner, regs)
}

func helpText(reg *dispatch.Registry, command string) (any, error) {
	path := strings.Fields(command)
	if len(path) == 0 {
		var b strings.Builder
		b.WriteString("COMMANDS\n")
		for _, cmd := range reg.Commands() {
			fmt.Fprintf(&b, "   %-24s %s\n", strings.Join(cmd.Path, " "), cmd.Summary)
		}
		b.WriteString("\nRun 'plinth help \"<command>\"' for details on a command.")
		return b.String(), nil
	}

	res, f := reg.Resolve(path)
	if f != nil {
		return nil, f
	}
	node := res.Node

	var b strings.Builder
	b.WriteString(strings.Join(node.Path, " "))
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

func pluginInfo(m *plugin.Manager, name string) (any, error) {
	d, ok := m.Get(name)
	if !ok {
		return nil, dispatch.Failf(dispatch.FailNotFound, "no plugin named '%s'", name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "name:    %s\n", d.Name)
	if d.Version != nil {
		fmt.Fprintf(&b, "version: %s\n", d.Version)
	}
	fmt.Fprintf(&b, "state:   %s\n", d.State)
	if d.Err != nil {
		fmt.Fprintf(&b, "error:   %v\n", d.Err)
	}
	for _, req := range d.Requires {
		line := req.Name
		if req.Constraint != nil {
			line += " " + req.Constraint.String()
		}
		fmt.Fprintf(&b, "requires: %s\n", line)
	}
	for _, path := range d.ContributedPaths {
		fmt.Fprintf(&b, "command: %s\n", strings.Join(path, " "))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func validateManifest(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, dispatch.Failf(dispatch.FailValidation, "cannot read manifest: %v", err)
	}
	result, err := plugin.ValidateManifest(data)
	if err != nil {
		return nil, err
	}
	if result.Valid {
		return "manifest is valid", nil
	}
	var b strings.Builder
	b.WriteString("manifest is invalid:\n")
	for _, issue := range result.Issues {
		fmt.Fprintf(&b, "  %s: %s\n", issue.Path, issue.Message)
	}
	return nil, dispatch.Failf(dispatch.FailValidation, "%s", strings.TrimRight(b.String(), "\n"))
}

func formatHistory(entries []history.Entry) string {
	if len(entries) == 0 {
		return "(history empty)"
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s  [%d]  %s\n",
			e.Timestamp.Format("2006-01-02 15:04:05"), e.ExitStatus, e.Raw)
	}
	return strings.TrimRight(b.String(), "\n")
}
