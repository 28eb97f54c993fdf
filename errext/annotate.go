package errext

import (
	"errors"

	"github.com/liuxd6825/extdriver/errext/exitcodes"
)

// HasHint is an error carrying a suggestion for the person running the
// command, such as which flag to change.
type HasHint interface {
	error
	Hint() string
}

// HasExitCode is an error carrying the code the process exits with.
type HasExitCode interface {
	error
	ExitCode() exitcodes.ExitCode
}

// annotated wraps an error with a hint, an exit code or both. A zero code
// means none was attached.
type annotated struct {
	error
	hint string
	code exitcodes.ExitCode
}

func (a annotated) Unwrap() error {
	return a.error
}

// Hint returns the hint of a, followed by the hints of the errors it wraps.
func (a annotated) Hint() string {
	var inner HasHint
	if !errors.As(a.error, &inner) || inner.Hint() == "" {
		return a.hint
	}
	if a.hint == "" {
		return inner.Hint()
	}
	return a.hint + " (" + inner.Hint() + ")"
}

// ExitCode returns the code attached closest to the outside.
func (a annotated) ExitCode() exitcodes.ExitCode {
	if a.code != 0 {
		return a.code
	}
	var inner HasExitCode
	if errors.As(a.error, &inner) {
		return inner.ExitCode()
	}
	return 0
}

// WithHint attaches hint to err. Hints already attached further in are
// kept and shown after it in parentheses. A nil err stays nil.
func WithHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	return annotated{error: err, hint: hint}
}

// WithExitCodeIfNone attaches exitCode to err unless err already has one.
// A nil err stays nil.
func WithExitCodeIfNone(err error, exitCode exitcodes.ExitCode) error {
	if err == nil {
		return nil
	}
	var ecerr HasExitCode
	if errors.As(err, &ecerr) && ecerr.ExitCode() != 0 {
		return err
	}
	return annotated{error: err, code: exitCode}
}

// Rule tells how a failure matched by Match is reported.
type Rule struct {
	Match func(error) bool
	Code  exitcodes.ExitCode
	// Hint is optional.
	Hint string
}

// Is returns a Match function for errors.Is(err, target).
func Is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

// As returns a Match function for errors matching a *T anywhere in the chain.
func As[T error]() func(error) bool {
	return func(err error) bool {
		var target T
		return errors.As(err, &target)
	}
}

// Classify annotates err after the first rule matching it. Errors no rule
// matches, and errors that already carry an exit code, are returned as is.
func Classify(err error, rules ...Rule) error {
	if err == nil {
		return nil
	}
	var ecerr HasExitCode
	if errors.As(err, &ecerr) && ecerr.ExitCode() != 0 {
		return err
	}
	for _, r := range rules {
		if !r.Match(err) {
			continue
		}
		if r.Hint == "" {
			return WithExitCodeIfNone(err, r.Code)
		}
		return annotated{error: err, hint: r.Hint, code: r.Code}
	}
	return err
}

var (
	_ HasHint     = annotated{}
	_ HasExitCode = annotated{}
)
