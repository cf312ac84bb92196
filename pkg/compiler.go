package teeny

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sync/errgroup"
)

// Source selects what a Compiler reads from: either a file on disk or an
// in-memory literal, generalizing the teacher's file-only
// `NewLexer(filename string)` into the two constructors below (the teacher
// already draws this same file-vs-reader distinction between `NewLexer` and
// `NewLexerFromReader`, `pkg/lexer.go`).
type Source struct {
	path      string
	code      string
	isLiteral bool
}

// FileSource returns a Source reading from the file at path.
func FileSource(path string) Source {
	return Source{path: path}
}

// LiteralSource returns a Source reading code directly, used for -c/--code.
func LiteralSource(code string) Source {
	return Source{code: code, isLiteral: true}
}

func (s Source) filename() string {
	if s.isLiteral {
		return "<literal>"
	}
	return s.path
}

// Result carries a successful compilation's emitted assembly text.
type Result struct {
	Assembly string
}

// Compiler wires the pipeline together for one target and, beyond assembly
// generation, invokes the external assembler/linker to produce a native
// executable.
type Compiler struct {
	target  Target
	Verbose bool
}

// NewCompiler returns a compiler producing code for target.
func NewCompiler(target Target) *Compiler {
	return &Compiler{target: target}
}

// Compile runs lexer -> parser -> name table -> semantic analyzer -> emitter
// over source, short-circuiting to the accumulated diagnostics the moment
// any phase records one (§5/§7). A non-nil error is reserved for conditions
// outside the Tiny BASIC program itself (e.g. the source file can't be
// opened); diagnostics about the program are always returned via the first
// return value, never as a Go error.
func (c *Compiler) Compile(source Source) ([]Diagnostic, *Result, error) {
	filename := source.filename()
	reporter := NewReporter()

	var lexer *Lexer
	if source.isLiteral {
		lexer = NewLexerFromString(source.code, reporter)
	} else {
		var err error
		lexer, err = NewLexer(source.path, reporter)
		if err != nil {
			return nil, nil, err
		}
	}

	lexStart := time.Now()
	tokens := lexer.Run()
	c.logPhase("lex", lexStart)
	if reporter.Count() > 0 {
		return reporter.Diagnostics(), nil, nil
	}

	parseStart := time.Now()
	parser := NewParser(tokens, reporter)
	tree := parser.Parse()
	c.logPhase("parse", parseStart)
	if reporter.Count() > 0 {
		return reporter.Diagnostics(), nil, nil
	}

	nameTableStart := time.Now()
	table := BuildNameTable(tree)
	c.logPhase("nametable", nameTableStart)

	semanticsStart := time.Now()
	analyzer := NewAnalyzer(filename, reporter, table)
	analyzer.Check(tree)
	c.logPhase("semantics", semanticsStart)
	if reporter.Count() > 0 {
		return reporter.Diagnostics(), nil, nil
	}

	emitStart := time.Now()
	emitter := NewEmitter(filename, c.target, table)
	asm := emitter.Emit(tree)
	c.logPhase("emit", emitStart)

	return nil, &Result{Assembly: asm}, nil
}

// logPhase prints a phase's wall-clock duration when -v/--verbose is set,
// grounded on `original_source/src/common/timer.c`'s per-phase timer usage
// in the original driver.
func (c *Compiler) logPhase(name string, start time.Time) {
	if c.Verbose {
		log.Printf("%s: %s", name, time.Since(start))
	}
}

// WriteAssembly writes an emitted Result's assembly text to outPath, used by
// -a/--emit-asm to short-circuit the rest of the driver.
func WriteAssembly(result *Result, outPath string) error {
	return os.WriteFile(outPath, []byte(result.Assembly), 0o644)
}

// Build invokes the target's assembler/linker on result's assembly text,
// producing a native executable at outPath. It pipes the assembly text into
// the assembler's stdin on one goroutine while its combined output is
// collected on another, joined with errgroup.Group — a direct
// generalization of the teacher's `build()` (`pkg/compiler.go`), which pipes
// generated LLVM IR text into clang's stdin the same way.
func (c *Compiler) Build(result *Result, outPath string) error {
	prog, args := c.target.AssemblerCommand(outPath)
	cmd := exec.Command(prog, args...)

	r, w := io.Pipe()
	cmd.Stdin = r

	errs := errgroup.Group{}
	errs.Go(func() error {
		if _, err := w.Write([]byte(result.Assembly)); err != nil {
			return err
		}
		return w.Close()
	})

	errs.Go(func() error {
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("%w: %s", err, out)
		}
		return nil
	})

	return errs.Wait()
}
