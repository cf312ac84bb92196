// Package test holds small generators shared by the pkg test suite and its
// benchmarks.
package test

import (
	"math/rand"
	"strings"
)

// validTokens lists a representative sample of Tiny BASIC lexemes, used to
// synthesize pseudo-random token streams for the lexer benchmarks.
const validTokens = "PRINT;LET;IF;THEN;ENDIF;WHILE;REPEAT;ENDWHILE;LABEL;GOTO;INPUT;x;y;count;\"hello, world\";\"\";+;-;*;/;==;!=;>=;<=;=;123;4096;\n"

// GetRandomTokens returns size whitespace-separated lexemes drawn from
// validTokens.
func GetRandomTokens(size int) string {
	return GetRandomTokensWithSep(size, " ")
}

// GetRandomTokensWithSep returns size lexemes drawn from validTokens, joined
// with sep.
func GetRandomTokensWithSep(size int, sep string) string {
	valid := strings.Split(validTokens, ";")

	var toks []string
	for len(toks) < size {
		toks = append(toks, valid[rand.Intn(len(valid))])
	}

	return strings.Join(toks, sep)
}
