package queries

import (
	"io"
	"strings"

	"github.com/alecthomas/participle/v2"
)

// queryLexer is the custom lexer for the query language.
var queryLexer = newQueryLexer()

var parser = participle.MustBuild[queryExpr](
	participle.Lexer(queryLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2), //nolint:mnd // trailing comma in tuples needs one token of backtracking
)

// Parse parses query text into a Query tree.
// This function is thread-safe.
//
// On failure the error is a *SyntaxError describing the first point of
// divergence; no partial tree is returned.
func Parse(text string) (Query, error) { //nolint:ireturn
	return parse("", text)
}

// ParseBytes is like Parse for a byte slice.
func ParseBytes(data []byte) (Query, error) { //nolint:ireturn
	return parse("", string(data))
}

// ParseFile is like Parse but records filename in error positions.
func ParseFile(filename string, text string) (Query, error) { //nolint:ireturn
	return parse(filename, text)
}

// ParseReader reads r to the end and parses the result. A read failure is
// reported as an *InputError.
func ParseReader(filename string, r io.Reader) (Query, error) { //nolint:ireturn
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &InputError{Source: filename, Err: err}
	}

	return parse(filename, string(data))
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level query constants.
func MustParse(text string) Query { //nolint:ireturn
	q, err := Parse(text)
	if err != nil {
		panic(err)
	}

	return q
}

func parse(filename, text string) (Query, error) { //nolint:ireturn
	if strings.TrimSpace(text) == "" {
		return nil, emptyInputError(filename, text)
	}

	expr, err := parser.ParseString(filename, text)
	if err != nil {
		if syntaxErr := locateSyntaxError(filename, text); syntaxErr != nil {
			return nil, syntaxErr
		}

		return nil, toSyntaxError(err)
	}

	if expr.Head == nil {
		return nil, emptyInputError(filename, text)
	}

	return expr.lower(), nil
}

// Grammar returns the EBNF of the query grammar as understood by participle.
func Grammar() string {
	return parser.String()
}

// ExportedLexer returns the lexer definition for testing purposes.
//
//nolint:revive // unexported-return: intentionally returns unexported type for internal test use
func ExportedLexer() *queryDefinition {
	return queryLexer
}
