package teeny

import (
	"fmt"
	"strings"
)

const (
	literalPrefix         = "_static_"
	variablePrefix        = "_var_"
	userLabelPrefix       = ".L"
	internalLabelPrefix   = ".IL"
	printIntegerFormatSym = "print_integer_fmt"
	printStringFormatSym  = "print_string_fmt"
)

// asmWriter accumulates Intel-syntax assembly text. It is the emitter's only
// output sink; nothing downstream of it touches a file handle directly, so
// the driver (`pkg/compiler.go`) decides whether the result is written to
// disk (-a/--emit-asm) or piped straight into the assembler.
type asmWriter struct {
	sb strings.Builder
}

func (w *asmWriter) raw(s string) {
	w.sb.WriteString(s)
}

func (w *asmWriter) comment(s string) {
	fmt.Fprintf(&w.sb, "# %s\n", s)
}

func (w *asmWriter) label(name string) {
	fmt.Fprintf(&w.sb, "%s:\n", name)
}

func (w *asmWriter) instr(op, operands string) {
	if operands == "" {
		fmt.Fprintf(&w.sb, "\t%s\n", op)
		return
	}
	fmt.Fprintf(&w.sb, "\t%s %s\n", op, operands)
}

func (w *asmWriter) String() string {
	return w.sb.String()
}

// Emitter performs the final pre-order walk of a checked [Tree], producing
// x86-64 assembly text per §4.5: fixed register discipline (rax/rbx as a
// two-slot expression stack machine, spilling to the machine stack for
// nested sub-expressions), the name-mangling scheme, and the relop→negated-
// jump table. Grounded throughout on
// `_examples/original_source/src/backend/emitter-x86.c`'s _emit_* functions,
// one Go method per original function, generalized to target either ABI via
// [CallingConvention] rather than being hardwired to System V.
type Emitter struct {
	filename string
	target   Target
	table    *NameTable
	asm      asmWriter
	cc       CallingConvention

	// internalLabel is the monotone counter behind .IL<n> labels, per §4.5.
	internalLabel int
}

// NewEmitter returns an emitter for one compilation unit, targeting target
// and consuming the name table built earlier in the pipeline.
func NewEmitter(filename string, target Target, table *NameTable) *Emitter {
	return &Emitter{filename: filename, target: target, table: table}
}

// Emit walks tree (rooted at a Program node) and returns the complete
// assembly listing.
func (e *Emitter) Emit(tree *Tree) string {
	e.cc = e.target.CallingConvention()
	cc := e.cc

	e.asm.raw(".intel_syntax noprefix\n")
	e.asm.raw(".data\n")
	e.emitFormatStrings()
	e.emitLiterals()
	e.emitSymbols()

	e.asm.raw(".text\n")
	e.asm.raw("\t.global main\n")
	e.asm.label("main")
	e.asm.instr("push", "rbp")
	e.asm.instr("mov", "rbp, rsp")

	e.emitProgram(tree)

	e.asm.instr("leave", "")
	e.asm.instr("ret", "")

	emitRuntimeHelpers(&e.asm, cc)

	// PE targets have no GNU-stack convention; the marker only belongs in
	// ELF output.
	if e.target.OS == OSLinux {
		e.asm.raw(".section .note.GNU-stack,\"\",@progbits\n")
	}
	return e.asm.String()
}

func (e *Emitter) emitFormatStrings() {
	e.asm.raw(fmt.Sprintf("\t%s: .string \"%%d\\n\"\n", printIntegerFormatSym))
	e.asm.raw(fmt.Sprintf("\t%s: .string \"%%s\\n\"\n", printStringFormatSym))
}

// emitLiterals writes one .string slot per interned string literal, in
// first-seen order, so label ids and output bytes are stable across runs.
func (e *Emitter) emitLiterals() {
	for _, text := range e.table.LiteralsInOrder() {
		info := e.table.Literals[text]
		e.asm.raw(fmt.Sprintf("\t%s%d: .string \"%s\"\n", literalPrefix, info.LabelID, asmEscapeString(text)))
	}
}

// emitSymbols writes one uninitialized 8-byte slot per declared variable, in
// first-declaration order.
func (e *Emitter) emitSymbols() {
	for _, name := range e.table.VariablesInOrder() {
		e.asm.raw(fmt.Sprintf("\t%s%s: .skip 8\n", variablePrefix, name))
	}
}

// asmEscapeString re-escapes a cleaned literal's bytes (the lexer already
// resolved \n, \t, etc. into literal control bytes) back into .string
// directive syntax, so control bytes and quotes don't corrupt the emitted
// assembly source.
func asmEscapeString(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case 0:
			sb.WriteString(`\0`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// nextInternalLabel returns the next .IL<n> label name and advances the
// counter.
func (e *Emitter) nextInternalLabel() string {
	n := e.internalLabel
	e.internalLabel++
	return fmt.Sprintf("%s%d", internalLabelPrefix, n)
}

// emitProgram emits every top-level statement in order.
func (e *Emitter) emitProgram(tree *Tree) {
	for child := tree.FirstChild(tree.Head()); child != NoNode; child = tree.NextSibling(child) {
		e.emitStatement(tree, child)
	}
}

// emitStatement dispatches on a Statement node's leading keyword, mirroring
// _emit_statement's big if/else-if chain.
func (e *Emitter) emitStatement(tree *Tree, stmt NodeID) {
	first := tree.FirstChild(stmt)
	if first == NoNode || !tree.IsToken(first) {
		return
	}

	switch tree.Token(first).Kind {
	case TokenPrint:
		e.emitPrint(tree, first)
	case TokenLet:
		e.emitLet(tree, first)
	case TokenInput:
		e.emitInput(tree, first)
	case TokenLabel:
		e.emitLabel(tree, first)
	case TokenGoto:
		e.emitGoto(tree, first)
	case TokenIf:
		e.emitIf(tree, stmt, first)
	case TokenWhile:
		e.emitWhile(tree, stmt, first)
	}
}

// emitBlock emits every Statement sibling starting at first, stopping at the
// first non-Statement sibling (the block's terminator token), mirroring
// _emit_statement_block.
func (e *Emitter) emitBlock(tree *Tree, first NodeID) {
	for n := first; n != NoNode && !tree.IsToken(n) && tree.GrammarKind(n) == Statement; n = tree.NextSibling(n) {
		e.emitStatement(tree, n)
	}
}

func (e *Emitter) emitPrint(tree *Tree, printTok NodeID) {
	arg := tree.NextSibling(printTok)
	if arg == NoNode {
		return
	}

	arg0 := e.cc.ArgumentRegs[0]

	if tree.IsToken(arg) && tree.Token(arg).Kind == TokenString {
		lit := e.table.Literals[tree.Token(arg).Text]
		e.asm.instr("lea", fmt.Sprintf("%s, %s%d[rip]", arg0, literalPrefix, lit.LabelID))
		e.asm.instr("call", helperPrintString)
		return
	}

	e.emitExpression(tree, arg)
	e.asm.instr("mov", fmt.Sprintf("%s, rax", arg0))
	e.asm.instr("call", helperPrintInteger)
}

func (e *Emitter) emitLet(tree *Tree, letTok NodeID) {
	ident := tree.NextSibling(letTok)
	expr := tree.NextSibling(ident)
	if ident == NoNode || expr == NoNode {
		return
	}

	e.emitExpression(tree, expr)
	e.asm.instr("mov", fmt.Sprintf("QWORD PTR %s%s[rip], rax", variablePrefix, tree.Token(ident).Text))
}

func (e *Emitter) emitInput(tree *Tree, inputTok NodeID) {
	ident := tree.NextSibling(inputTok)
	if ident == NoNode {
		return
	}

	e.asm.instr("call", helperInputInteger)
	e.asm.instr("mov", fmt.Sprintf("QWORD PTR %s%s[rip], rax", variablePrefix, tree.Token(ident).Text))
}

func (e *Emitter) emitLabel(tree *Tree, labelTok NodeID) {
	ident := tree.NextSibling(labelTok)
	if ident == NoNode {
		return
	}
	e.asm.label(userLabelPrefix + tree.Token(ident).Text)
}

func (e *Emitter) emitGoto(tree *Tree, gotoTok NodeID) {
	ident := tree.NextSibling(gotoTok)
	if ident == NoNode {
		return
	}
	e.asm.instr("jmp", userLabelPrefix+tree.Token(ident).Text)
}

// emitIf implements the jump-on-negated-relop scheme: evaluate the
// comparison, jump past the THEN body when the condition is false, emit the
// body, then land the internal end label.
func (e *Emitter) emitIf(tree *Tree, stmt NodeID, ifTok NodeID) {
	comp := tree.NextSibling(ifTok)
	if comp == NoNode {
		return
	}

	jump := e.emitComparison(tree, comp)
	endLabel := e.nextInternalLabel()
	e.asm.instr(jump, endLabel)

	thenTok := tree.NextSibling(comp)
	e.emitBlock(tree, tree.NextSibling(thenTok))

	e.asm.label(endLabel)
}

// emitWhile mirrors emitIf but wraps the condition check in a loop-start
// label and re-jumps to it after the body.
func (e *Emitter) emitWhile(tree *Tree, stmt NodeID, whileTok NodeID) {
	comp := tree.NextSibling(whileTok)
	if comp == NoNode {
		return
	}

	startLabel := e.nextInternalLabel()
	e.asm.label(startLabel)

	jump := e.emitComparison(tree, comp)
	endLabel := e.nextInternalLabel()
	e.asm.instr(jump, endLabel)

	repeatTok := tree.NextSibling(comp)
	e.emitBlock(tree, tree.NextSibling(repeatTok))

	e.asm.instr("jmp", startLabel)
	e.asm.label(endLabel)
}

// emitComparison evaluates both operands (left into rax, via the machine
// stack while right is computed, per the register discipline in §4.5), emits
// the cmp, and returns the negated-jump mnemonic to use against it.
func (e *Emitter) emitComparison(tree *Tree, comp NodeID) string {
	children := tree.Children(comp)
	if len(children) != 3 {
		return "jmp"
	}
	left, opNode, right := children[0], children[1], children[2]

	e.emitExpression(tree, left)
	e.asm.instr("push", "rax")
	e.emitExpression(tree, right)
	e.asm.instr("mov", "rbx, rax")
	e.asm.instr("pop", "rax")
	e.asm.instr("cmp", "rax, rbx")

	return relopNegatedJump[tree.Token(opNode).Kind]
}

// emitExpression implements `expression ::= term {("+"|"-") term}`, left-to-
// right, spilling the running total to the stack around each term.
func (e *Emitter) emitExpression(tree *Tree, expr NodeID) {
	children := tree.Children(expr)
	if len(children) == 0 {
		return
	}

	e.emitTerm(tree, children[0])
	for i := 1; i+1 < len(children); i += 2 {
		opKind := tree.Token(children[i]).Kind
		e.asm.instr("push", "rax")
		e.emitTerm(tree, children[i+1])
		e.asm.instr("mov", "rbx, rax")
		e.asm.instr("pop", "rax")
		if opKind == TokenPlus {
			e.asm.instr("add", "rax, rbx")
		} else {
			e.asm.instr("sub", "rax, rbx")
		}
	}
}

// emitTerm implements `term ::= unary {("*"|"/") unary}`.
func (e *Emitter) emitTerm(tree *Tree, term NodeID) {
	children := tree.Children(term)
	if len(children) == 0 {
		return
	}

	e.emitUnary(tree, children[0])
	for i := 1; i+1 < len(children); i += 2 {
		opKind := tree.Token(children[i]).Kind
		e.asm.instr("push", "rax")
		e.emitUnary(tree, children[i+1])
		e.asm.instr("mov", "rbx, rax")
		e.asm.instr("pop", "rax")
		if opKind == TokenMult {
			e.asm.instr("imul", "rax, rbx")
		} else {
			e.asm.instr("cqo", "")
			e.asm.instr("idiv", "rbx")
		}
	}
}

// emitUnary implements `unary ::= ["+"|"-"] primary`.
func (e *Emitter) emitUnary(tree *Tree, unary NodeID) {
	children := tree.Children(unary)
	if len(children) == 0 {
		return
	}

	if tree.IsToken(children[0]) {
		op := tree.Token(children[0]).Kind
		e.emitPrimary(tree, children[1])
		if op == TokenMinus {
			e.asm.instr("neg", "rax")
		}
		return
	}

	e.emitPrimary(tree, children[0])
}

// emitPrimary implements `primary ::= NUMBER | IDENT`, leaving the result in
// rax. A lookup of an identifier that semantic analysis should have already
// rejected is a "should never happen" condition (§9 Design Notes /
// SPEC_FULL §1's ambient error policy) and panics rather than emitting
// broken assembly silently.
func (e *Emitter) emitPrimary(tree *Tree, primary NodeID) {
	children := tree.Children(primary)
	if len(children) != 1 || !tree.IsToken(children[0]) {
		panic("emitter: malformed primary node reached code generation")
	}

	tok := tree.Token(children[0])
	switch tok.Kind {
	case TokenNumber:
		e.asm.instr("mov", fmt.Sprintf("rax, %s", tok.Text))
	case TokenIdent:
		e.asm.instr("mov", fmt.Sprintf("rax, QWORD PTR %s%s[rip]", variablePrefix, tok.Text))
	default:
		panic(fmt.Sprintf("emitter: unexpected primary token kind %s", tok.Kind))
	}
}
