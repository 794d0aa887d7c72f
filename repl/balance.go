// Copyright © 2024 The Declavatar authors

package repl

import (
	"strings"

	"github.com/declavatar/declavatar/parser"
	"github.com/declavatar/declavatar/parser/lexer"
	"github.com/declavatar/declavatar/parser/scriptparser"
	"github.com/declavatar/declavatar/parser/token"
)

type tokenReader interface {
	ReadToken() []*token.Token
}

// needsMore reports whether src ends inside an open delimiter or string
// and the reader should keep collecting lines before compiling.
func needsMore(src []byte, format parser.Format) bool {
	scanner := token.NewScanner(sourceName, src)
	var lex tokenReader
	if format == parser.FormatScript {
		lex = scriptparser.NewLexer(scanner)
	} else {
		lex = lexer.New(scanner)
	}
	depth := 0
	for {
		toks := lex.ReadToken()
		if len(toks) == 0 {
			return depth > 0
		}
		for _, tok := range toks {
			switch tok.Type {
			case token.EOF:
				return depth > 0
			case token.ERROR:
				return strings.Contains(tok.Text, "unterminated raw-string")
			case token.PAREN_L, token.BRACE_L, token.BLOCK_L:
				depth++
			case token.PAREN_R, token.BRACE_R, token.BLOCK_R:
				// Excess closers are left for the parser to report.
				if depth == 0 {
					return false
				}
				depth--
			}
		}
	}
}
