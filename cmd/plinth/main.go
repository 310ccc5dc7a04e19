package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/plinth-cli/plinth/internal/app"
)

var version = "0.3.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts := app.DefaultOptions(version)

	// Global flags are stripped before dispatch; everything else is a
	// command path plus command arguments.
	var argv []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--no-color":
			opts.StyleEnabled = false
		case "--no-pager":
			opts.PagerDisabled = true
		case "--pager":
			if i+1 < len(args) {
				i++
				opts.PagerOverride = args[i]
			}
		case "--log-level":
			if i+1 < len(args) {
				i++
				opts.LogLevel = args[i]
			}
		default:
			argv = append(argv, args[i])
		}
	}

	// Styling only when stdout is a terminal.
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		opts.StyleEnabled = false
	}

	a, err := app.New(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "plinth:", err)
		return 1
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(argv) > 0 && argv[0] == "shell" {
		if err := a.WatchPlugins(ctx, opts.PluginsDir); err != nil {
			a.Logger.Warn("plugin watch unavailable", zap.Error(err))
		}
		if err := a.RunShell(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "plinth:", err)
			return 1
		}
		return 0
	}

	return a.Invoke(ctx, argv)
}
