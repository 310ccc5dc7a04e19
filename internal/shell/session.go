// Package shell implements the interactive session: a read-eval-render loop
// over the command registry with built-in commands, tab completion, and a
// persistent history of every attempted line.
package shell

import (
	"context"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/plinth-cli/plinth/internal/dispatch"
	"github.com/plinth-cli/plinth/internal/history"
)

// State tracks where the session loop currently is. Exposed for tests and
// diagnostics; the loop itself drives all transitions.
type State int

const (
	StateIdle State = iota
	StateAwaitingInput
	StateDispatching
	StateRendering
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingInput:
		return "awaiting-input"
	case StateDispatching:
		return "dispatching"
	case StateRendering:
		return "rendering"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ErrInterrupted is returned by a LineSource when the user interrupts the
// current line (Ctrl-C). The session discards the line and prompts again.
var ErrInterrupted = errors.New("interrupted")

// LineSource supplies raw input lines. io.EOF ends the session,
// ErrInterrupted discards the current line, any other error aborts.
type LineSource interface {
	ReadLine() (string, error)
	Close() error
}

// Output renders dispatch results. The session never formats values itself.
type Output interface {
	Render(res dispatch.Result)
}

// Options configure a Session. Registry, Input, and Output are required;
// everything else has a working zero value.
type Options struct {
	Registry *dispatch.Registry
	Input    LineSource
	Output   Output

	// Store persists history across sessions. Nil keeps history
	// session-local only.
	Store *history.Store

	// Completer, when set, has its cache invalidated on every registry
	// change for the lifetime of the session.
	Completer *Completer

	// Browser launches the interactive command browser for the browse
	// built-in. Nil disables it.
	Browser func() error

	Logger *zap.Logger
	Ctx    context.Context
}

// Session is one interactive shell over the registry.
type Session struct {
	registry *dispatch.Registry
	input    LineSource
	output   Output
	store    *history.Store
	browser  func() error
	logger   *zap.Logger

	ctx   context.Context
	vars  *dispatch.WorkingContext
	log   *history.Log
	unsub func()

	state   State
	closing bool
}

// New builds a session. The working context starts empty and lives exactly
// as long as the session.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx := opts.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	s := &Session{
		registry: opts.Registry,
		input:    opts.Input,
		output:   opts.Output,
		store:    opts.Store,
		browser:  opts.Browser,
		logger:   logger,
		ctx:      ctx,
		vars:     dispatch.NewWorkingContext(),
		log:      history.NewLog(),
		state:    StateIdle,
	}
	if opts.Completer != nil {
		s.unsub = opts.Registry.Subscribe(opts.Completer.Invalidate)
	}
	return s
}

// State returns the current loop state.
func (s *Session) State() State {
	return s.state
}

// Vars returns the session's working context.
func (s *Session) Vars() *dispatch.WorkingContext {
	return s.vars
}

// Log returns the session's in-memory history log.
func (s *Session) Log() *history.Log {
	return s.log
}

// Run drives the read-eval-render loop until exit, EOF, or an input error.
// Every non-empty line is recorded in history with its exit status, built-ins
// included, and flushed to the store after each iteration.
func (s *Session) Run() error {
	defer s.close()

	for {
		s.state = StateAwaitingInput
		line, err := s.input.ReadLine()
		switch {
		case errors.Is(err, ErrInterrupted):
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}

		raw := strings.TrimSpace(line)
		if raw == "" {
			continue
		}

		s.state = StateDispatching
		res := s.Eval(raw)

		s.state = StateRendering
		s.output.Render(res)

		s.log.Append(raw, res.ExitCode())
		if err := s.log.FlushTo(s.store); err != nil {
			s.logger.Warn("history flush failed", zap.Error(err))
		}
		if res.OK() {
			s.vars.Set("last-result", res.Value)
		}

		if s.closing {
			return nil
		}
		s.state = StateIdle
	}
}

// Eval runs a single raw line: tokenize, try built-ins, then dispatch
// through the registry. It never panics and never returns a bare error.
func (s *Session) Eval(raw string) dispatch.Result {
	tokens, err := Tokenize(raw)
	if err != nil {
		return dispatch.Fail(dispatch.Failf(dispatch.FailValidation, "cannot parse line: %v", err))
	}
	if len(tokens) == 0 {
		return dispatch.Success(nil)
	}

	if fn, ok := builtins[tokens[0]]; ok {
		return s.runBuiltin(fn, tokens[1:])
	}
	return s.registry.Dispatch(tokens, dispatch.NewEnvironment(s.ctx, s.vars))
}

func (s *Session) runBuiltin(fn builtinFunc, args []string) dispatch.Result {
	value, err := fn(s, args)
	if err != nil {
		var f *dispatch.Failure
		if errors.As(err, &f) {
			return dispatch.Fail(f)
		}
		return dispatch.Fail(&dispatch.Failure{
			Kind:    dispatch.FailExecution,
			Message: err.Error(),
			Err:     err,
		})
	}
	return dispatch.Success(value)
}

func (s *Session) close() {
	if err := s.log.FlushTo(s.store); err != nil {
		s.logger.Warn("final history flush failed", zap.Error(err))
	}
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	if s.input != nil {
		if err := s.input.Close(); err != nil {
			s.logger.Debug("input close failed", zap.Error(err))
		}
	}
	s.state = StateClosed
}
