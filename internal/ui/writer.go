// Package ui renders dispatch results to the terminal and hosts the
// interactive command browser.
package ui

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"

	"github.com/plinth-cli/plinth/internal/dispatch"
	"github.com/plinth-cli/plinth/internal/ui/style"
)

// pageThreshold is the line count above which successful string output is
// routed through the pager when stdout is a terminal.
const pageThreshold = 40

// Writer renders dispatch results. Success values go to out, failures to
// errOut. The dispatch core itself never formats anything; all presentation
// lives here.
type Writer struct {
	out           io.Writer
	errOut        io.Writer
	pagerDisabled bool
	pagerOverride string
	envGetter     func(string) string
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithPagerDisabled disables the pager.
func WithPagerDisabled() WriterOption {
	return func(w *Writer) {
		w.pagerDisabled = true
	}
}

// WithPagerOverride sets a pager command override. "cat" bypasses paging.
func WithPagerOverride(cmd string) WriterOption {
	return func(w *Writer) {
		w.pagerOverride = cmd
	}
}

// WithEnvGetter sets the environment variable getter function.
func WithEnvGetter(fn func(string) string) WriterOption {
	return func(w *Writer) {
		w.envGetter = fn
	}
}

// NewWriter creates a Writer on stdout/stderr.
func NewWriter(opts ...WriterOption) *Writer {
	return NewWriterTo(os.Stdout, os.Stderr, opts...)
}

// NewWriterTo creates a Writer on the given streams.
func NewWriterTo(out, errOut io.Writer, opts ...WriterOption) *Writer {
	w := &Writer{
		out:       out,
		errOut:    errOut,
		envGetter: os.Getenv,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Render writes a dispatch result. Nil success values produce no output.
func (w *Writer) Render(res dispatch.Result) {
	if res.OK() {
		w.renderValue(res.Value)
		return
	}
	w.renderFailure(res.Failure)
}

func (w *Writer) renderValue(value any) {
	if value == nil {
		return
	}
	var text string
	switch v := value.(type) {
	case string:
		text = v
	case fmt.Stringer:
		text = v.String()
	default:
		text = fmt.Sprintf("%v", v)
	}
	if text == "" {
		return
	}
	if strings.Count(text, "\n") >= pageThreshold {
		w.Pager(text + "\n")
		return
	}
	fmt.Fprintln(w.out, text)
}

func (w *Writer) renderFailure(f *dispatch.Failure) {
	fmt.Fprintf(w.errOut, "%s %s\n", style.Error("error:"), f.Message)
	if len(f.Suggestions) > 0 {
		fmt.Fprintf(w.errOut, "%s %s\n",
			style.Muted("did you mean:"),
			strings.Join(f.Suggestions, ", "))
	}
}

// Printf formats and prints to the output stream.
func (w *Writer) Printf(format string, args ...any) (int, error) {
	return fmt.Fprintf(w.out, format, args...)
}

// Println prints a line to the output stream.
func (w *Writer) Println(args ...any) (int, error) {
	return fmt.Fprintln(w.out, args...)
}

// Pager displays content through a pager if appropriate.
//
// Precedence:
//  1. Pager disabled → direct output
//  2. stdout not a TTY → direct output
//  3. Pager override → uses it, "cat" bypasses
//  4. $PAGER env var → uses it, "cat" bypasses
//  5. Default: "less -FRSX"
func (w *Writer) Pager(content string) {
	if w.pagerDisabled {
		fmt.Fprint(w.out, content)
		return
	}

	if f, ok := w.out.(*os.File); ok {
		if !term.IsTerminal(int(f.Fd())) {
			fmt.Fprint(w.out, content)
			return
		}
	} else {
		fmt.Fprint(w.out, content)
		return
	}

	if w.pagerOverride != "" {
		if isBypassPager(w.pagerOverride) {
			fmt.Fprint(w.out, content)
			return
		}
		w.runPagerCmd(w.pagerOverride, content)
		return
	}

	if w.envGetter != nil {
		if envPager := w.envGetter("PAGER"); envPager != "" {
			if isBypassPager(envPager) {
				fmt.Fprint(w.out, content)
				return
			}
			w.runPagerCmd(envPager, content)
			return
		}
	}

	w.runPager("less", []string{"-FRSX"}, content)
}

func isBypassPager(cmd string) bool {
	return cmd == "cat"
}

func (w *Writer) runPagerCmd(pagerCmd string, content string) {
	parts := strings.Fields(pagerCmd)
	if len(parts) == 0 {
		fmt.Fprint(w.out, content)
		return
	}
	w.runPager(parts[0], parts[1:], content)
}

func (w *Writer) runPager(pager string, args []string, content string) {
	cmd := exec.Command(pager, args...)
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		fmt.Fprint(w.out, content)
	}
}
