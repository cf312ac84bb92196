package teeny

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func parseAll(t *testing.T, src string) (*Tree, *Reporter) {
	t.Helper()
	reporter := NewReporter()
	lexer := NewLexerFromString(src, reporter)
	tokens := lexer.Run()
	parser := NewParser(tokens, reporter)
	tree := parser.Parse()
	return tree, reporter
}

func TestParserScenarioA(t *testing.T) {
	tree, reporter := parseAll(t, `PRINT "hello"`)
	assert.Equal(t, 0, reporter.Count())
	assert.Equal(t, "PROGRAM(STATEMENT(PRINT,STRING(hello)))", tree.Bracket(tree.Head()))
}

func TestParserScenarioB(t *testing.T) {
	tree, reporter := parseAll(t, "LET x = 10 + 20 * 3")
	assert.Equal(t, 0, reporter.Count())
	want := "PROGRAM(STATEMENT(LET,IDENT(x),EQ,EXPRESSION(TERM(UNARY(PRIMARY(NUMBER(10)))),PLUS,TERM(UNARY(PRIMARY(NUMBER(20))),MULT,UNARY(PRIMARY(NUMBER(3)))))))"
	assert.Equal(t, want, tree.Bracket(tree.Head()))
}

func TestParserIfEmptyBody(t *testing.T) {
	tree, reporter := parseAll(t, "IF x == 1 THEN\nENDIF")
	assert.Equal(t, 0, reporter.Count())
	stmt := tree.FirstChild(tree.Head())
	children := tree.Children(stmt)
	// IF, comparison, THEN, ENDIF: no body statements.
	assert.Len(t, children, 4)
}

func TestParserWhileEmptyBody(t *testing.T) {
	tree, reporter := parseAll(t, "WHILE x < 10 REPEAT\nENDWHILE")
	assert.Equal(t, 0, reporter.Count())
	stmt := tree.FirstChild(tree.Head())
	children := tree.Children(stmt)
	assert.Len(t, children, 4)
}

func TestParserWhileWithBody(t *testing.T) {
	tree, reporter := parseAll(t, "WHILE x < 10 REPEAT\nPRINT x\nENDWHILE")
	assert.Equal(t, 0, reporter.Count())
	stmt := tree.FirstChild(tree.Head())
	children := tree.Children(stmt)
	// WHILE, comparison, REPEAT, body-statement, ENDWHILE.
	assert.Len(t, children, 5)
}

func TestParserLabelAndGoto(t *testing.T) {
	tree, reporter := parseAll(t, "LABEL top\nGOTO top")
	assert.Equal(t, 0, reporter.Count())
	assert.Equal(t, "PROGRAM(STATEMENT(LABEL,IDENT(top)),STATEMENT(GOTO,IDENT(top)))", tree.Bracket(tree.Head()))
}

func TestParserInput(t *testing.T) {
	tree, reporter := parseAll(t, "INPUT x")
	assert.Equal(t, 0, reporter.Count())
	assert.Equal(t, "PROGRAM(STATEMENT(INPUT,IDENT(x)))", tree.Bracket(tree.Head()))
}

func TestParserMissingRelop(t *testing.T) {
	_, reporter := parseAll(t, "IF x 1 THEN\nENDIF")
	assert.Equal(t, 1, reporter.Count())
}

func TestParserUnterminatedIf(t *testing.T) {
	_, reporter := parseAll(t, "IF x == 1 THEN\nPRINT x")
	assert.Equal(t, 1, reporter.Count())
}

func TestParserMismatchedTerminator(t *testing.T) {
	_, reporter := parseAll(t, "IF x == 1 THEN\nENDWHILE")
	assert.Equal(t, 1, reporter.Count())
}

func TestParserElseOutsideIfIsAnError(t *testing.T) {
	tree, reporter := parseAll(t, "ELSE\nPRINT \"ok\"")
	assert.Equal(t, 1, reporter.Count())
	// Recovery must consume the stray terminator and still reach the
	// following statement.
	children := tree.Children(tree.Head())
	assert.Len(t, children, 2)
}

func TestParserStrayEndifAtTopLevel(t *testing.T) {
	_, reporter := parseAll(t, "ENDIF")
	assert.Equal(t, 1, reporter.Count())
}

func TestParserNestedMismatchClosesInnerBlock(t *testing.T) {
	// ENDWHILE closes the inner IF (with a mismatch diagnostic), leaving the
	// outer WHILE unterminated — two independent errors.
	_, reporter := parseAll(t, "WHILE x < 1 REPEAT\nIF x == 1 THEN\nENDWHILE")
	assert.Equal(t, 2, reporter.Count())
}

func TestParserUnexpectedTokenRecovers(t *testing.T) {
	tree, reporter := parseAll(t, "+ 1\nPRINT \"ok\"")
	assert.Equal(t, 1, reporter.Count())
	// Recovery should still find the second, well-formed statement.
	children := tree.Children(tree.Head())
	assert.Len(t, children, 2)
}

func TestParserEmptySource(t *testing.T) {
	tree, reporter := parseAll(t, "")
	assert.Equal(t, 0, reporter.Count())
	assert.Equal(t, "PROGRAM()", tree.Bracket(tree.Head()))
}

func TestParserBracketRoundTripDeterministic(t *testing.T) {
	// Invariant 3 (§8): re-bracketing the same tree twice is identical.
	tree, reporter := parseAll(t, "LET x = 1 + 2\nIF x == 3 THEN\nPRINT x\nENDIF")
	assert.Equal(t, 0, reporter.Count())
	first := tree.Bracket(tree.Head())
	second := tree.Bracket(tree.Head())
	assert.Equal(t, first, second)
}

func TestParserArithmeticPrecedence(t *testing.T) {
	tree, reporter := parseAll(t, "LET x = 2 + 3 * 4 - 1")
	assert.Equal(t, 0, reporter.Count())
	want := "PROGRAM(STATEMENT(LET,IDENT(x),EQ,EXPRESSION(TERM(UNARY(PRIMARY(NUMBER(2)))),PLUS,TERM(UNARY(PRIMARY(NUMBER(3))),MULT,UNARY(PRIMARY(NUMBER(4)))),MINUS,TERM(UNARY(PRIMARY(NUMBER(1)))))))"
	assert.Equal(t, want, tree.Bracket(tree.Head()))
}

func TestParserUnaryMinus(t *testing.T) {
	tree, reporter := parseAll(t, "LET x = -5")
	assert.Equal(t, 0, reporter.Count())
	want := "PROGRAM(STATEMENT(LET,IDENT(x),EQ,EXPRESSION(TERM(UNARY(MINUS,PRIMARY(NUMBER(5)))))))"
	assert.Equal(t, want, tree.Bracket(tree.Head()))
}
