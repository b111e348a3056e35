// Package diag holds the three error kinds described by the compiler's
// error handling design: internal invariant violations (fatal), accumulated
// user-visible source errors, and external tool failures.
package diag

import (
	"fmt"
	"io"
)

// ICE panics with an internal-compiler-error message. It is reserved for
// exhaustiveness violations in opcode/kind dispatch and other invariants
// that can never legitimately fail on well-formed input. Never call this
// for user source errors.
func ICE(format string, args ...interface{}) {
	panic("ICE: " + fmt.Sprintf(format, args...))
}

// SourceError is one user-visible diagnostic carrying the offending line.
type SourceError struct {
	Line    int
	Message string
}

func (e SourceError) Error() string {
	return fmt.Sprintf("%s at line %d", e.Message, e.Line)
}

// Errors accumulates user source errors (lex/parse/semantic) the way the
// frontend collects them before the driver decides whether to continue.
type Errors struct {
	items []SourceError
}

// Add records one diagnostic at the given source line.
func (e *Errors) Add(line int, format string, args ...interface{}) {
	e.items = append(e.items, SourceError{Line: line, Message: fmt.Sprintf(format, args...)})
}

// Count returns the number of accumulated diagnostics.
func (e *Errors) Count() int {
	return len(e.items)
}

// All returns the accumulated diagnostics in report order.
func (e *Errors) All() []SourceError {
	return e.items
}

// Print renders one diagnostic per line to w.
func (e *Errors) Print(w io.Writer) {
	for _, item := range e.items {
		fmt.Fprintln(w, item.Error())
	}
}
