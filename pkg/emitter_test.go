package teeny

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func emitAll(t *testing.T, src string) string {
	t.Helper()
	reporter := NewReporter()
	lexer := NewLexerFromString(src, reporter)
	tokens := lexer.Run()
	parser := NewParser(tokens, reporter)
	tree := parser.Parse()
	table := BuildNameTable(tree)
	analyzer := NewAnalyzer("<test>", reporter, table)
	analyzer.Check(tree)
	assert.Equal(t, 0, reporter.Count(), "fixture must compile cleanly")

	emitter := NewEmitter("<test>", Target{Arch: ArchX86_64, OS: OSLinux}, table)
	return emitter.Emit(tree)
}

func TestEmitterScenarioA(t *testing.T) {
	asm := emitAll(t, `PRINT "hello"`)
	assert.Contains(t, asm, `_static_0: .string "hello"`)
	assert.Contains(t, asm, "lea rdi, _static_0[rip]")
	assert.Contains(t, asm, "call print_string")
}

func TestEmitterScenarioB(t *testing.T) {
	asm := emitAll(t, "LET x = 10 + 20 * 3")
	assert.Contains(t, asm, "_var_x: .skip 8")
	assert.Contains(t, asm, "mov QWORD PTR _var_x[rip], rax")
}

func TestEmitterScenarioC(t *testing.T) {
	asm := emitAll(t, "LET x = 1\nIF x == 1 THEN\nPRINT \"eq\"\nENDIF")
	assert.Contains(t, asm, "cmp rax, rbx")
	assert.Contains(t, asm, "jne .IL0")
	assert.Contains(t, asm, ".IL0:")
}

func TestEmitterOneSlotPerVariableAndLiteral(t *testing.T) {
	// Invariant 4 (§8): exactly one _var_X slot per distinct variable, one
	// _static_N slot per distinct literal, no matter how many times each is
	// used.
	asm := emitAll(t, `LET x = 1
LET x = 2
PRINT "hi"
PRINT "hi"
PRINT x`)

	assert.Equal(t, 1, strings.Count(asm, "_var_x: .skip 8"))
	assert.Equal(t, 1, strings.Count(asm, `_static_0: .string "hi"`))
}

func TestEmitterInternalLabelsUniquePerCompilation(t *testing.T) {
	// Invariant 5 (§8).
	asm := emitAll(t, `LET x = 1
IF x == 1 THEN
PRINT x
ENDIF
IF x == 2 THEN
PRINT x
ENDIF`)

	assert.Contains(t, asm, ".IL0:")
	assert.Contains(t, asm, ".IL1:")
}

func TestEmitterEmptySourceProducesValidShell(t *testing.T) {
	asm := emitAll(t, "")
	assert.Contains(t, asm, ".intel_syntax noprefix")
	assert.Contains(t, asm, "main:")
	assert.Contains(t, asm, "ret")
}

func TestEmitterLabelAndGoto(t *testing.T) {
	asm := emitAll(t, "LABEL top\nGOTO top")
	assert.Contains(t, asm, ".Ltop:")
	assert.Contains(t, asm, "jmp .Ltop")
}

func TestEmitterInput(t *testing.T) {
	// Only LET declares a variable, so x needs one before INPUT can store it.
	asm := emitAll(t, "LET x = 0\nINPUT x")
	assert.Contains(t, asm, "call input_integer")
	assert.Contains(t, asm, "mov QWORD PTR _var_x[rip], rax")
}

func TestEmitterWhileLoopJumpsBack(t *testing.T) {
	// The body reads x with INPUT: LET x = x + 1 would be a self-reference
	// diagnostic and the fixture must compile cleanly.
	asm := emitAll(t, "LET x = 0\nWHILE x < 10 REPEAT\nINPUT x\nENDWHILE")
	assert.Contains(t, asm, "jge .IL1")
	assert.Contains(t, asm, "jmp .IL0")
}

func TestEmitterDeterministicAcrossRuns(t *testing.T) {
	src := `LET b = 1
LET a = 2
PRINT "second"
PRINT "first"
LET c = a + b`

	first := emitAll(t, src)
	second := emitAll(t, src)
	assert.Equal(t, first, second)
}

func TestEmitterWindowsTargetUsesMicrosoftConvention(t *testing.T) {
	reporter := NewReporter()
	lexer := NewLexerFromString(`PRINT "hi"`, reporter)
	tokens := lexer.Run()
	parser := NewParser(tokens, reporter)
	tree := parser.Parse()
	table := BuildNameTable(tree)

	emitter := NewEmitter("<test>", Target{Arch: ArchX86_64, OS: OSWindows}, table)
	asm := emitter.Emit(tree)

	assert.Contains(t, asm, "lea rcx, _static_0[rip]")
	assert.NotContains(t, asm, ".note.GNU-stack")
}

func TestEmitterLinuxTargetMarksNonExecutableStack(t *testing.T) {
	asm := emitAll(t, `PRINT "hi"`)
	assert.Contains(t, asm, ".note.GNU-stack")
}
