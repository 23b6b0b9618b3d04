package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// ISLLexer tokenizes the ISL concrete syntax. Keywords (and, or,
// exists, floor, ceil, min, max, mod) lex as plain identifiers and are
// matched literally by the grammar.
var ISLLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		// Comments
		{"Comment", `#[^\n]*`, nil},

		// Identifiers (keywords included; isl allows primed names)
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_']*`, nil},

		// Integer literals
		{"Number", `[0-9]+`, nil},

		// Operators (the arrow must come before minus)
		{"Operator", `->|<=|>=|<|>|=|\+|-|\*|/`, nil},

		// Punctuation
		{"Punct", `[{}\[\]():;,]`, nil},

		// Whitespace
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})
