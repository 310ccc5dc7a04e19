package shell

import (
	"io"

	"github.com/chzyer/readline"

	"github.com/plinth-cli/plinth/internal/history"
)

// ReadlineSource adapts a readline instance to the LineSource interface,
// with tab completion and up-arrow recall seeded from persisted history.
type ReadlineSource struct {
	rl *readline.Instance
}

// NewReadlineSource opens an interactive prompt. Recent persisted entries,
// oldest first, become the initial up-arrow history; store may be nil.
func NewReadlineSource(prompt string, completer *Completer, store *history.Store) (*ReadlineSource, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	if store != nil {
		if recent, err := store.Recent(200); err == nil {
			for _, e := range recent {
				_ = rl.SaveHistory(e.Raw)
			}
		}
	}
	return &ReadlineSource{rl: rl}, nil
}

// ReadLine blocks for the next input line. Ctrl-C maps to ErrInterrupted,
// Ctrl-D to io.EOF.
func (r *ReadlineSource) ReadLine() (string, error) {
	line, err := r.rl.Readline()
	switch err {
	case nil:
		return line, nil
	case readline.ErrInterrupt:
		return "", ErrInterrupted
	case io.EOF:
		return "", io.EOF
	default:
		return "", err
	}
}

// Close releases the terminal.
func (r *ReadlineSource) Close() error {
	return r.rl.Close()
}

var _ LineSource = (*ReadlineSource)(nil)
