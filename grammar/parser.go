package grammar

import (
	"fmt"
	"os"

	"github.com/alecthomas/participle/v2"
)

var parser = buildParser()

func buildParser() *participle.Parser[Relation] {
	p, err := participle.Build[Relation](
		participle.Lexer(ISLLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.UseLookahead(3),
	)
	if err != nil {
		panic(fmt.Errorf("failed to build parser: %w", err))
	}

	return p
}

// ParseFile parses the relation in the named file.
func ParseFile(path string) (*Relation, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseSource(path, string(source))
}

// ParseSource parses one relation from source text.
func ParseSource(sourceName string, source string) (*Relation, error) {
	return parser.ParseString(sourceName, source)
}
