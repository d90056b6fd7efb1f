package queries

import (
	"io"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"
)

// Token type constants - negative values as per participle convention.
const (
	TokenEOF        lexer.TokenType = lexer.EOF
	TokenString     lexer.TokenType = -(iota + 2) //nolint:mnd // participle convention
	TokenIdent                                    // bare names
	TokenDot                                      // .
	TokenComma                                    // ,
	TokenLParen                                   // (
	TokenRParen                                   // )
	TokenWhitespace                               // spaces, tabs, newlines
	// Keywords are a name immediately followed by '!'.
	TokenPrev  // prev!
	TokenAgent // agent!
	TokenRoot  // root!
)

// keywords maps keyword stems to their token types. A stem without the
// trailing '!' lexes as an ordinary identifier.
var keywords = map[string]lexer.TokenType{
	"prev":  TokenPrev,
	"agent": TokenAgent,
	"root":  TokenRoot,
}

// Lexer errors.
var (
	ErrUnterminatedString  = &LexerError{msg: "unterminated string"}
	ErrInvalidEscape       = &LexerError{msg: "invalid escape sequence in string"}
	ErrUnexpectedCharacter = &LexerError{msg: "unexpected character"}
	ErrInvalidUTF8         = &LexerError{msg: "string is not valid UTF-8"}
)

// LexerError represents a lexer error with position.
type LexerError struct {
	msg string
	pos lexer.Position

	// ch is the offending character, set only when hasChar is true.
	ch      rune
	hasChar bool
}

func (e *LexerError) Error() string {
	return e.pos.String() + ": " + e.Message()
}

// Message returns the error text without the position prefix.
func (e *LexerError) Message() string {
	if e.hasChar {
		return e.msg + ": " + strconv.QuoteRune(e.ch)
	}

	return e.msg
}

// Position returns where the offending input starts.
func (e *LexerError) Position() lexer.Position {
	return e.pos
}

func (e *LexerError) withPos(pos lexer.Position) *LexerError {
	return &LexerError{msg: e.msg, pos: pos, ch: e.ch, hasChar: e.hasChar}
}

func (e *LexerError) withChar(ch rune) *LexerError {
	return &LexerError{msg: e.msg, pos: e.pos, ch: ch, hasChar: true}
}

// queryDefinition implements lexer.Definition for the query language.
// It holds no per-lex state, so a single value is shared by all parses.
type queryDefinition struct {
	symbols map[string]lexer.TokenType
}

func newQueryLexer() *queryDefinition {
	return &queryDefinition{
		symbols: map[string]lexer.TokenType{
			"EOF":        TokenEOF,
			"String":     TokenString,
			"Ident":      TokenIdent,
			"Dot":        TokenDot,
			"Comma":      TokenComma,
			"Whitespace": TokenWhitespace,
			"(":          TokenLParen,
			")":          TokenRParen,
			"prev!":      TokenPrev,
			"agent!":     TokenAgent,
			"root!":      TokenRoot,
		},
	}
}

// Symbols returns the mapping of symbol names to token types.
func (d *queryDefinition) Symbols() map[string]lexer.TokenType {
	return d.symbols
}

// Lex creates a new Lexer for the given reader.
//
//nolint:ireturn // Required by participle's lexer.Definition interface.
func (d *queryDefinition) Lex(filename string, r io.Reader) (lexer.Lexer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return newLexerState(filename, string(data)), nil
}

// LexBytes implements lexer.BytesDefinition.
//
//nolint:ireturn // Required by participle's lexer.BytesDefinition interface.
func (d *queryDefinition) LexBytes(filename string, data []byte) (lexer.Lexer, error) {
	return newLexerState(filename, string(data)), nil
}

// LexString implements lexer.StringDefinition.
//
//nolint:ireturn // Required by participle's lexer.StringDefinition interface.
func (d *queryDefinition) LexString(filename string, input string) (lexer.Lexer, error) {
	return newLexerState(filename, input), nil
}

// lexerState holds the state for lexing a single input.
type lexerState struct {
	filename string
	input    string
	offset   int
	line     int
	col      int
}

func newLexerState(filename, input string) *lexerState {
	return &lexerState{
		filename: filename,
		input:    input,
		line:     1,
		col:      1,
	}
}

// Next returns the next token.
func (l *lexerState) Next() (lexer.Token, error) {
	if l.eof() {
		return lexer.EOFToken(l.pos()), nil
	}

	start := l.pos()
	r := l.peek()

	if isSpace(r) {
		for !l.eof() && isSpace(l.peek()) {
			l.advance()
		}

		return l.token(TokenWhitespace, start), nil
	}

	if r == '"' {
		return l.scanString(start)
	}

	if isIdentStart(r) {
		return l.scanIdent(start), nil
	}

	l.advance()

	switch r {
	case '.':
		return l.token(TokenDot, start), nil
	case ',':
		return l.token(TokenComma, start), nil
	case '(':
		return l.token(TokenLParen, start), nil
	case ')':
		return l.token(TokenRParen, start), nil
	}

	return lexer.Token{}, ErrUnexpectedCharacter.withPos(start).withChar(r)
}

// scanIdent reads an identifier and folds a directly following '!' into a
// keyword token when the identifier is a keyword stem.
func (l *lexerState) scanIdent(start lexer.Position) lexer.Token {
	l.advance()

	for !l.eof() && isIdentContinue(l.peek()) {
		l.advance()
	}

	stem := l.input[start.Offset:l.offset]
	if kw, ok := keywords[stem]; ok && l.peek() == '!' {
		l.advance()

		return l.token(kw, start)
	}

	return l.token(TokenIdent, start)
}

func (l *lexerState) scanString(start lexer.Position) (lexer.Token, error) {
	l.advance() // opening quote

	for !l.eof() {
		ch := l.peek()
		if ch == '\\' && l.peekAt(1) != 0 {
			l.advance() // backslash
			l.advance() // escaped char

			continue
		}

		if ch == '"' {
			l.advance() // closing quote

			tok := l.token(TokenString, start)

			if _, err := strconv.Unquote(tok.Value); err != nil {
				return lexer.Token{}, ErrInvalidEscape.withPos(start)
			}

			if !utf8.ValidString(tok.Value) || hasByteEscape(tok.Value) {
				return lexer.Token{}, ErrInvalidUTF8.withPos(start)
			}

			return tok, nil
		}

		if ch == '\n' {
			return lexer.Token{}, ErrUnterminatedString.withPos(start)
		}

		l.advance()
	}

	return lexer.Token{}, ErrUnterminatedString.withPos(start)
}

func (l *lexerState) pos() lexer.Position {
	return lexer.Position{
		Filename: l.filename,
		Offset:   l.offset,
		Line:     l.line,
		Column:   l.col,
	}
}

func (l *lexerState) eof() bool {
	return l.offset >= len(l.input)
}

func (l *lexerState) peek() rune {
	if l.eof() {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.offset:])

	return r
}

func (l *lexerState) peekAt(n int) rune {
	off := l.offset + n
	if off >= len(l.input) {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(l.input[off:])

	return r
}

func (l *lexerState) advance() {
	if l.eof() {
		return
	}

	r, size := utf8.DecodeRuneInString(l.input[l.offset:])
	l.offset += size

	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

func (l *lexerState) token(typ lexer.TokenType, start lexer.Position) lexer.Token {
	return lexer.Token{
		Type:  typ,
		Value: l.input[start.Offset:l.offset],
		Pos:   start,
	}
}

// hasByteEscape reports whether a quoted string spells a byte above 0x7f
// with a \x or octal escape. Names are text, so those bytes are rejected
// even when a sequence of them happens to form valid UTF-8.
func hasByteEscape(quoted string) bool {
	s := quoted[1 : len(quoted)-1]

	for s != "" {
		value, multibyte, tail, err := strconv.UnquoteChar(s, '"')
		if err != nil {
			return false
		}

		if !multibyte && value >= utf8.RuneSelf {
			return true
		}

		s = tail
	}

	return false
}

// Tokenize lexes text into tokens, whitespace included. The last token is
// EOF. Editors use the positions to locate names in the source.
//
// On a lexer error the tokens read before it are returned along with the
// error; they do not end in EOF.
func Tokenize(filename, text string) ([]lexer.Token, error) {
	lex := newLexerState(filename, text)

	var tokens []lexer.Token

	for {
		tok, err := lex.Next()
		if err != nil {
			return tokens, err
		}

		tokens = append(tokens, tok)

		if tok.EOF() {
			return tokens, nil
		}
	}
}

// IsKeywordToken returns true if the token type is one of the ! keywords.
func IsKeywordToken(typ lexer.TokenType) bool {
	return typ == TokenPrev || typ == TokenAgent || typ == TokenRoot
}

// Character helpers.

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentContinue(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
