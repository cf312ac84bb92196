package teeny

// Analyzer runs the second pre-order pass over a parsed [Tree], consuming a
// [NameTable] built from the first pass, and reports SEMANTIC diagnostics
// (§4.4) without ever modifying the tree. Grounded on
// `_examples/original_source/src/frontend/semantic_analyzer/semantic_analyzer.c`'s
// single-visitor traversal, adapted from its shgeti/shget hash-table lookups
// to Go maps and corrected per the self-reference fix below.
type Analyzer struct {
	filename string
	reporter *Reporter
	table    *NameTable
}

// NewAnalyzer returns an analyzer for one compilation unit.
func NewAnalyzer(filename string, reporter *Reporter, table *NameTable) *Analyzer {
	return &Analyzer{filename: filename, reporter: reporter, table: table}
}

// Check walks tree once, running checks 1-5 from §4.4.
func (a *Analyzer) Check(tree *Tree) {
	seenLabels := make(map[string]bool)
	// firstDecl holds the position of each variable's earliest LET seen so far
	// in this source-order walk. The name table keeps only the latest LET, so
	// it cannot tell whether a use follows an earlier declaration.
	firstDecl := make(map[string]Position)

	tree.PreOrder(tree.Head(), func(id NodeID, order WalkOrder) {
		if order != Enter || !tree.IsToken(id) {
			return
		}

		switch tok := tree.Token(id); tok.Kind {
		case TokenGoto:
			a.checkGotoTarget(tree, id)
		case TokenLabel:
			a.checkDuplicateLabel(tree, id, seenLabels)
		case TokenLet:
			if ident, ok := identSibling(tree, id); ok {
				if _, seen := firstDecl[ident.Text]; !seen {
					firstDecl[ident.Text] = tok.Pos
				}
			}
		case TokenIdent:
			if isLabelOrGotoOperand(tree, id) {
				return
			}
			a.checkVariable(tree, id, tok, firstDecl)
		}
	})
}

// isLabelOrGotoOperand reports whether id is the identifier immediately
// following a LABEL or GOTO keyword in its enclosing statement — per §4.4,
// these are label references, never variable references, and are excluded
// from checks 3-5.
func isLabelOrGotoOperand(tree *Tree, id NodeID) bool {
	parent := tree.Parent(id)
	if parent == NoNode || tree.IsToken(parent) || tree.GrammarKind(parent) != Statement {
		return false
	}

	fc := tree.FirstChild(parent)
	if fc == NoNode || !tree.IsToken(fc) {
		return false
	}

	k := tree.Token(fc).Kind
	return (k == TokenLabel || k == TokenGoto) && tree.NextSibling(fc) == id
}

// checkGotoTarget implements check 1: the identifier after GOTO must name a
// declared label.
func (a *Analyzer) checkGotoTarget(tree *Tree, id NodeID) {
	sibling := tree.NextSibling(id)
	if sibling == NoNode || !tree.IsToken(sibling) {
		return
	}

	tok := tree.Token(sibling)
	if tok.Kind != TokenIdent {
		return
	}

	if _, ok := a.table.Labels[tok.Text]; !ok {
		a.reporter.Add(Semantic, a.filename, tok.Pos, "label %s does not exist", tok.Text)
	}
}

// checkDuplicateLabel implements check 2, tracking labels seen so far in
// this traversal (distinct from the NameTable, which only records the first
// occurrence's position — exactly what this check needs to cite).
func (a *Analyzer) checkDuplicateLabel(tree *Tree, id NodeID, seen map[string]bool) {
	sibling := tree.NextSibling(id)
	if sibling == NoNode || !tree.IsToken(sibling) {
		return
	}

	tok := tree.Token(sibling)
	if tok.Kind != TokenIdent {
		return
	}

	if seen[tok.Text] {
		first := a.table.Labels[tok.Text]
		a.reporter.Add(Semantic, a.filename, tok.Pos,
			"label %s has already been declared at %s", tok.Text, first.DeclPos)
		return
	}

	seen[tok.Text] = true
}

// checkVariable implements checks 3 and 4, then hands off to the
// self-reference check (5) once a use is confirmed declared and in order. A
// use is in order once any LET of the name precedes it; a later
// re-declaration does not make it premature.
func (a *Analyzer) checkVariable(tree *Tree, id NodeID, tok Token, firstDecl map[string]Position) {
	info, declared := a.table.Variables[tok.Text]
	if !declared {
		a.reporter.Add(Semantic, a.filename, tok.Pos, "variable %s has not been declared", tok.Text)
		return
	}

	if first, seen := firstDecl[tok.Text]; !seen || tok.Pos.Less(first) {
		a.reporter.Add(Semantic, a.filename, tok.Pos,
			"variable %s used before its declaration at %s", tok.Text, info.DeclPos)
		return
	}

	a.checkSelfReference(tree, id, tok)
}

// checkSelfReference implements check 5, corrected per the binding Open
// Question decision: the original only inspected a token's immediate
// parent, so it never caught uses buried inside the RHS expression tree
// (Statement -> Expression -> Term -> Unary -> Primary -> IDENT is five
// levels deep). This walks up to the nearest Statement ancestor instead and
// only excludes the declaration's own identifier node.
func (a *Analyzer) checkSelfReference(tree *Tree, id NodeID, tok Token) {
	stmt := nearestStatement(tree, id)
	if stmt == NoNode {
		return
	}

	letTok := tree.FirstChild(stmt)
	if letTok == NoNode || !tree.IsToken(letTok) || tree.Token(letTok).Kind != TokenLet {
		return
	}

	declIdent := tree.NextSibling(letTok)
	if declIdent == NoNode || !tree.IsToken(declIdent) || declIdent == id {
		return
	}

	if tree.Token(declIdent).Text != tok.Text {
		return
	}

	a.reporter.Add(Semantic, a.filename, tok.Pos,
		"variable %s is referenced in its own declaration", tok.Text)
}

// nearestStatement walks up from id's parent chain to the closest enclosing
// Statement grammar node, or NoNode if id is the root or otherwise parentless.
func nearestStatement(tree *Tree, id NodeID) NodeID {
	for p := tree.Parent(id); p != NoNode; p = tree.Parent(p) {
		if !tree.IsToken(p) && tree.GrammarKind(p) == Statement {
			return p
		}
	}
	return NoNode
}
