package dispatch

import "fmt"

// FailKind classifies a dispatch failure.
type FailKind int

const (
	FailUnknown FailKind = iota
	FailNotFound
	FailAmbiguousAlias
	FailValidation
	FailExecution
	FailPluginUnavailable
	FailLoad
)

func (k FailKind) String() string {
	switch k {
	case FailNotFound:
		return "not found"
	case FailAmbiguousAlias:
		return "ambiguous alias"
	case FailValidation:
		return "validation error"
	case FailExecution:
		return "execution error"
	case FailPluginUnavailable:
		return "plugin unavailable"
	case FailLoad:
		return "load error"
	default:
		return "unknown"
	}
}

// Exit codes:
//
//	Exit 0: success
//	Exit 2: command or group path does not exist
//	Exit 3: argument arity/type/required-missing errors
//	Exit 4: handler returned an error or panicked
//	Exit 5: plugin dependency or lifecycle violation
//	Exit 6: alias matches more than one candidate (introspection only)
//	Exit 7: plugin entry reference failed
var exitCodes = map[FailKind]int{
	FailUnknown:           1,
	FailNotFound:          2,
	FailAmbiguousAlias:    6,
	FailValidation:        3,
	FailExecution:         4,
	FailPluginUnavailable: 5,
	FailLoad:              7,
}

// Failure is a structured dispatch error. Handler errors and panics are
// converted to Failures at the dispatch boundary; they never propagate
// past it.
type Failure struct {
	Kind        FailKind
	Message     string
	Err         error    // wrapped cause, may be nil
	Suggestions []string // "did you mean" candidates for FailNotFound
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return f.Message
}

// Unwrap returns the wrapped cause, if any.
func (f *Failure) Unwrap() error {
	return f.Err
}

// ExitCode returns the process exit code for this failure.
func (f *Failure) ExitCode() int {
	if code, ok := exitCodes[f.Kind]; ok {
		return code
	}
	return 1
}

// Failf builds a Failure with a formatted message.
func Failf(kind FailKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Result is the outcome of a single dispatch: either a handler value or a
// structured Failure, never both.
type Result struct {
	Value   any
	Failure *Failure
}

// Success wraps a handler value in a successful Result.
func Success(value any) Result {
	return Result{Value: value}
}

// Fail wraps a Failure in a failed Result.
func Fail(f *Failure) Result {
	return Result{Failure: f}
}

// OK reports whether the dispatch succeeded.
func (r Result) OK() bool {
	return r.Failure == nil
}

// ExitCode returns 0 for success, or the failure's exit code.
func (r Result) ExitCode() int {
	if r.Failure == nil {
		return 0
	}
	return r.Failure.ExitCode()
}

var _ error = (*Failure)(nil)
