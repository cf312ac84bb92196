package teeny

// Parser is a recursive-descent, one-token-lookahead consumer of a
// [TokenStream] that builds a flat, node-id indexed [Tree] (§4.2). A Parser
// should never be reused.
type Parser struct {
	filename string
	tokens   *TokenStream
	reporter *Reporter
	tree     *Tree
	pos      int
}

// NewParser returns a parser over tokens, reporting grammar diagnostics to
// reporter.
func NewParser(tokens *TokenStream, reporter *Reporter) *Parser {
	return &Parser{
		filename: tokens.Filename,
		tokens:   tokens,
		reporter: reporter,
		tree:     NewTree(tokens),
	}
}

// Parse consumes the whole token stream and returns the resulting tree,
// rooted at a [Program] node.
func (p *Parser) Parse() *Tree {
	root := p.tree.NewGrammarNode(Program)
	for !p.atEOF() {
		p.tree.AddChild(root, p.statement())
	}
	return p.tree
}

func (p *Parser) atEOF() bool {
	return p.pos >= p.tokens.Len()
}

// peek returns the current lookahead token without consuming it. Past the
// end of the stream it returns a zero-value TokenUnknown token so callers
// never need a separate bounds check before inspecting .Kind.
func (p *Parser) peek() Token {
	if p.atEOF() {
		return Token{Kind: TokenUnknown}
	}
	return p.tokens.At(p.pos)
}

// skip advances past the current token without recording it in the tree.
func (p *Parser) skip() {
	if !p.atEOF() {
		p.pos++
	}
}

// consumeToken turns the current lookahead token into a token node and
// appends it as the next child of parent. The caller must have already
// verified (via peek) that a token is actually available.
func (p *Parser) consumeToken(parent NodeID) NodeID {
	idx := p.pos
	p.skip()
	node := p.tree.NewTokenNode(idx)
	p.tree.AddChild(parent, node)
	return node
}

// expectToken consumes the current token as a child of parent if it has
// kind k; otherwise it records a grammar diagnostic naming what was
// expected and leaves the stream position unchanged.
func (p *Parser) expectToken(parent NodeID, k TokenKind, expected string) bool {
	if p.peek().Kind != k {
		p.error(p.peek().Pos, "expected %s", expected)
		return false
	}
	p.consumeToken(parent)
	return true
}

// error records a grammar diagnostic at pos.
func (p *Parser) error(pos Position, format string, args ...interface{}) {
	p.reporter.Add(Grammar, p.filename, pos, format, args...)
}

// recover implements panic-mode recovery (§4.2): tokens are discarded until
// a statement-start keyword, a control-flow terminator, or end of stream is
// reached.
func (p *Parser) recover() {
	for !p.atEOF() {
		tok := p.peek()
		if tok.IsStatementStart() || tok.IsBlockTerminator() {
			return
		}
		p.skip()
	}
}

// statement parses one statement, identified by its leading keyword, always
// returning a [Statement] node (possibly childless, if recovery discarded
// the whole thing).
func (p *Parser) statement() NodeID {
	stmt := p.tree.NewGrammarNode(Statement)

	switch p.peek().Kind {
	case TokenPrint:
		p.printStatement(stmt)
	case TokenIf:
		p.ifStatement(stmt)
	case TokenWhile:
		p.whileStatement(stmt)
	case TokenLabel:
		p.labelStatement(stmt)
	case TokenGoto:
		p.gotoStatement(stmt)
	case TokenLet:
		p.letStatement(stmt)
	case TokenInput:
		p.inputStatement(stmt)
	default:
		tok := p.peek()
		p.error(tok.Pos, "unexpected token %s at start of statement", tok.Kind)
		// The offending token must be discarded before synchronizing, or a
		// stray block terminator at top level would never be consumed.
		p.skip()
		p.recover()
	}

	return stmt
}

// block parses statements into parent until it encounters want (consumed as
// parent's final child), a mismatched terminator (an error; the terminator is
// consumed without being added to the tree and the block closes), or end of
// stream (a missing-terminator error).
func (p *Parser) block(parent NodeID, want TokenKind, construct string) {
	for {
		if p.atEOF() {
			p.error(p.peek().Pos, "unterminated %s: missing terminator", construct)
			return
		}

		tok := p.peek()
		if tok.Kind == want {
			p.consumeToken(parent)
			return
		}

		if tok.IsBlockTerminator() {
			p.error(tok.Pos, "mismatched terminator %s in %s block", tok.Kind, construct)
			// Treat it as the block's (wrong) closer: consume it and close
			// here, so the stream keeps moving.
			p.skip()
			return
		}

		p.tree.AddChild(parent, p.statement())
	}
}

func (p *Parser) printStatement(stmt NodeID) {
	p.consumeToken(stmt) // PRINT

	if p.peek().Kind == TokenString {
		p.consumeToken(stmt)
		return
	}

	p.tree.AddChild(stmt, p.expression())
}

func (p *Parser) ifStatement(stmt NodeID) {
	p.consumeToken(stmt) // IF
	p.tree.AddChild(stmt, p.comparison())
	p.expectToken(stmt, TokenThen, "THEN after IF comparison")
	p.block(stmt, TokenEndif, "IF")
}

func (p *Parser) whileStatement(stmt NodeID) {
	p.consumeToken(stmt) // WHILE
	p.tree.AddChild(stmt, p.comparison())
	p.expectToken(stmt, TokenRepeat, "REPEAT after WHILE comparison")
	p.block(stmt, TokenEndwhile, "WHILE")
}

func (p *Parser) labelStatement(stmt NodeID) {
	p.consumeToken(stmt) // LABEL
	p.expectToken(stmt, TokenIdent, "a label name after LABEL")
}

func (p *Parser) gotoStatement(stmt NodeID) {
	p.consumeToken(stmt) // GOTO
	p.expectToken(stmt, TokenIdent, "a label name after GOTO")
}

func (p *Parser) letStatement(stmt NodeID) {
	p.consumeToken(stmt) // LET
	if !p.expectToken(stmt, TokenIdent, "a variable name after LET") {
		return
	}
	if !p.expectToken(stmt, TokenEq, "'=' after variable name") {
		return
	}
	p.tree.AddChild(stmt, p.expression())
}

func (p *Parser) inputStatement(stmt NodeID) {
	p.consumeToken(stmt) // INPUT
	p.expectToken(stmt, TokenIdent, "a variable name after INPUT")
}

// isRelop reports whether k is one of the six relational operators valid in
// a comparison (§4.2).
func isRelop(k TokenKind) bool {
	_, ok := relopNegatedJump[k]
	return ok
}

func (p *Parser) comparison() NodeID {
	cmp := p.tree.NewGrammarNode(Comparison)
	p.tree.AddChild(cmp, p.expression())

	if tok := p.peek(); isRelop(tok.Kind) {
		p.consumeToken(cmp)
	} else {
		p.error(tok.Pos, "expected a relational operator (==, !=, >, >=, <, <=)")
	}

	p.tree.AddChild(cmp, p.expression())
	return cmp
}

func (p *Parser) expression() NodeID {
	expr := p.tree.NewGrammarNode(Expression)
	p.tree.AddChild(expr, p.term())

	for {
		k := p.peek().Kind
		if k != TokenPlus && k != TokenMinus {
			return expr
		}
		p.consumeToken(expr)
		p.tree.AddChild(expr, p.term())
	}
}

func (p *Parser) term() NodeID {
	term := p.tree.NewGrammarNode(Term)
	p.tree.AddChild(term, p.unary())

	for {
		k := p.peek().Kind
		if k != TokenMult && k != TokenDiv {
			return term
		}
		p.consumeToken(term)
		p.tree.AddChild(term, p.unary())
	}
}

func (p *Parser) unary() NodeID {
	unary := p.tree.NewGrammarNode(Unary)

	if k := p.peek().Kind; k == TokenPlus || k == TokenMinus {
		p.consumeToken(unary)
	}

	p.tree.AddChild(unary, p.primary())
	return unary
}

func (p *Parser) primary() NodeID {
	primary := p.tree.NewGrammarNode(Primary)

	tok := p.peek()
	if tok.Kind == TokenNumber || tok.Kind == TokenIdent {
		p.consumeToken(primary)
		return primary
	}

	p.error(tok.Pos, "expected a number or identifier, got %s", tok.Kind)
	if !p.atEOF() {
		p.skip()
	}

	return primary
}
