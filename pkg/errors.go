package teeny

import (
	"fmt"
	"io"
)

// Category classifies a [Diagnostic] by the phase that produced it.
type Category int

const (
	Lexical Category = iota
	Grammar
	Semantic
)

func (c Category) String() string {
	switch c {
	case Lexical:
		return "Lexical"
	case Grammar:
		return "Grammar"
	case Semantic:
		return "Semantic"
	default:
		return "Unknown"
	}
}

// Diagnostic is a single categorized compiler message, tied to a source
// position.
type Diagnostic struct {
	Category Category
	File     string
	Pos      Position
	Message  string
}

// String renders d in the user-visible format from §7:
// "[COMPILER ERROR] In file <path>:<line>:<col>: <Category> error - <message>".
func (d Diagnostic) String() string {
	return fmt.Sprintf("[COMPILER ERROR] In file %s:%d:%d: %s error - %s",
		d.File, d.Pos.Line, d.Pos.Col, d.Category, d.Message)
}

// maxDiagnostics bounds the number of diagnostics a single [Reporter] will
// accumulate before it stops accepting new ones and emits a terminal
// message, per the cap allowed by §5.
const maxDiagnostics = 10000

// Reporter accumulates diagnostics across phases of a single compilation.
// It is constructor-injected into each phase rather than a package-level
// global (§9 Design Notes lists both as conforming alternatives; threading
// an explicit value is what lets Compiler run the pipeline repeatedly in one
// process — e.g. across table-driven tests — without cross-contamination).
type Reporter struct {
	diagnostics []Diagnostic
	capped      bool
}

// NewReporter returns an empty Reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Add records a diagnostic. format is a printf-style format string.
func (r *Reporter) Add(cat Category, file string, pos Position, format string, args ...interface{}) {
	if r.capped {
		return
	}

	if len(r.diagnostics) >= maxDiagnostics {
		r.capped = true
		r.diagnostics = append(r.diagnostics, Diagnostic{
			Category: cat,
			File:     file,
			Pos:      pos,
			Message:  "too many errors, aborting diagnostic collection",
		})
		return
	}

	r.diagnostics = append(r.diagnostics, Diagnostic{
		Category: cat,
		File:     file,
		Pos:      pos,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Count returns the number of diagnostics recorded so far.
func (r *Reporter) Count() int {
	return len(r.diagnostics)
}

// Diagnostics returns the recorded diagnostics in insertion order. The
// returned slice must not be mutated by the caller.
func (r *Reporter) Diagnostics() []Diagnostic {
	return r.diagnostics
}

// PrintAll writes every diagnostic to w, in the order Add was called.
func (r *Reporter) PrintAll(w io.Writer) {
	for _, d := range r.diagnostics {
		fmt.Fprintln(w, d.String())
	}
}

// Reset clears all recorded diagnostics, returning the Reporter to a clean
// slate so a test (or a REPL-style driver) can run the pipeline again.
func (r *Reporter) Reset() {
	r.diagnostics = nil
	r.capped = false
}
