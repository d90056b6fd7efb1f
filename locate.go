package queries

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"
)

// Expectation texts used in syntax errors.
const (
	expectQuery      = "query"
	expectName       = "name"
	expectQueryClose = `query or ")"`
	expectItemEnd    = `"." or "," or ")"`
	expectEnd        = `"." or <EOF>`
)

// noToken is what locator.peek returns past the last token lexed before a
// lexer error. No rule accepts it.
const noToken lexer.TokenType = 0

// locator finds the first point where a failed input diverges from the
// grammar. participle backtracks out of optional groups and then reports the
// failure at the start of the group, so after a failed parse the tokens are
// walked again with the grammar's LL(1) rules to recover the real position.
type locator struct {
	tokens []lexer.Token
	lexErr error
	pos    int
}

// locateSyntaxError returns the first syntax error in text, or nil if the
// grammar accepts it.
func locateSyntaxError(filename, text string) *SyntaxError {
	tokens, lexErr := Tokenize(filename, text)

	l := &locator{lexErr: lexErr}

	for _, tok := range tokens {
		if tok.Type != TokenWhitespace {
			l.tokens = append(l.tokens, tok)
		}
	}

	if err := l.query(); err != nil {
		return err
	}

	if l.peek() != TokenEOF {
		return l.fail(expectEnd)
	}

	return nil
}

func (l *locator) peek() lexer.TokenType {
	if l.pos >= len(l.tokens) {
		return noToken
	}

	return l.tokens[l.pos].Type
}

// fail reports the current token as unexpected. Past the last lexed token
// the lexer error itself is the divergence.
func (l *locator) fail(expected string) *SyntaxError {
	if l.pos >= len(l.tokens) {
		if l.lexErr != nil {
			return toSyntaxError(l.lexErr)
		}

		return &SyntaxError{Message: "unexpected end of token stream"}
	}

	tok := l.tokens[l.pos]

	unexpected := tok.Value
	if tok.EOF() {
		unexpected = eofText
	}

	return &SyntaxError{
		Pos:        tok.Pos,
		Unexpected: unexpected,
		Expected:   expected,
		Message:    fmt.Sprintf("unexpected token %q (expected %s)", unexpected, expected),
	}
}

func (l *locator) expect(typ lexer.TokenType, expected string) *SyntaxError {
	if l.peek() != typ {
		return l.fail(expected)
	}

	l.pos++

	return nil
}

func (l *locator) query() *SyntaxError {
	if err := l.primary(); err != nil {
		return err
	}

	for l.peek() == TokenDot {
		l.pos++

		if err := l.name(); err != nil {
			return err
		}
	}

	return nil
}

func (l *locator) primary() *SyntaxError {
	switch l.peek() {
	case TokenPrev:
		l.pos++

		if err := l.expect(TokenLParen, `"("`); err != nil {
			return err
		}

		if err := l.query(); err != nil {
			return err
		}

		return l.expect(TokenRParen, `")"`)
	case TokenRoot:
		l.pos++

		return nil
	case TokenAgent:
		l.pos++

		if err := l.expect(TokenLParen, `"("`); err != nil {
			return err
		}

		if err := l.name(); err != nil {
			return err
		}

		return l.expect(TokenRParen, `")"`)
	case TokenLParen:
		l.pos++

		return l.tuple()
	case TokenIdent, TokenString:
		l.pos++

		return nil
	default:
		return l.fail(expectQuery)
	}
}

// tuple reads the items after an opening parenthesis.
func (l *locator) tuple() *SyntaxError {
	for {
		switch typ := l.peek(); {
		case typ == TokenRParen:
			l.pos++

			return nil
		case !startsQuery(typ):
			return l.fail(expectQueryClose)
		}

		if err := l.query(); err != nil {
			return err
		}

		switch l.peek() {
		case TokenComma:
			l.pos++
		case TokenRParen:
			l.pos++

			return nil
		default:
			return l.fail(expectItemEnd)
		}
	}
}

func (l *locator) name() *SyntaxError {
	switch l.peek() {
	case TokenIdent, TokenString:
		l.pos++

		return nil
	default:
		return l.fail(expectName)
	}
}

func startsQuery(typ lexer.TokenType) bool {
	switch typ {
	case TokenPrev, TokenRoot, TokenAgent, TokenLParen, TokenIdent, TokenString:
		return true
	default:
		return false
	}
}
