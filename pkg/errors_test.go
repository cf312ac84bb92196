package teeny

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReporterAccumulatesInInsertionOrder(t *testing.T) {
	r := NewReporter()
	r.Add(Lexical, "a.tb", Position{Line: 1, Col: 1}, "first")
	r.Add(Grammar, "a.tb", Position{Line: 2, Col: 5}, "second")
	r.Add(Semantic, "a.tb", Position{Line: 3, Col: 9}, "third")

	assert.Equal(t, 3, r.Count())
	diags := r.Diagnostics()
	assert.Equal(t, "first", diags[0].Message)
	assert.Equal(t, "third", diags[2].Message)
}

func TestReporterUserVisibleFormat(t *testing.T) {
	d := Diagnostic{
		Category: Semantic,
		File:     "prog.tb",
		Pos:      Position{Line: 4, Col: 7},
		Message:  "label nowhere does not exist",
	}
	assert.Equal(t,
		"[COMPILER ERROR] In file prog.tb:4:7: Semantic error - label nowhere does not exist",
		d.String())
}

func TestReporterResetClearsCount(t *testing.T) {
	// Invariant 6 (§8).
	r := NewReporter()
	r.Add(Lexical, "a.tb", Position{Line: 1, Col: 1}, "oops")
	assert.Equal(t, 1, r.Count())

	r.Reset()
	assert.Equal(t, 0, r.Count())
	assert.Empty(t, r.Diagnostics())
}

func TestReporterCapsDiagnostics(t *testing.T) {
	r := NewReporter()
	for i := 0; i < maxDiagnostics+100; i++ {
		r.Add(Lexical, "a.tb", Position{Line: 1, Col: 1}, "spam")
	}

	// The cap plus one terminal "too many errors" entry.
	assert.Equal(t, maxDiagnostics+1, r.Count())
	last := r.Diagnostics()[r.Count()-1]
	assert.Contains(t, last.Message, "too many errors")

	r.Reset()
	r.Add(Lexical, "a.tb", Position{Line: 1, Col: 1}, "fresh")
	assert.Equal(t, 1, r.Count())
}

func TestReporterPrintAll(t *testing.T) {
	r := NewReporter()
	r.Add(Grammar, "a.tb", Position{Line: 1, Col: 2}, "unexpected token")

	var sb strings.Builder
	r.PrintAll(&sb)
	assert.Equal(t,
		"[COMPILER ERROR] In file a.tb:1:2: Grammar error - unexpected token\n",
		sb.String())
}
