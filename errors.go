package queries

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Sentinel errors. Use errors.Is to classify failures.
var (
	// ErrSyntax matches every *SyntaxError.
	ErrSyntax = errors.New("syntax error")
	// ErrInput matches every *InputError.
	ErrInput = errors.New("input error")
	// ErrInvalidEncoding is returned when a tagged tree cannot be decoded.
	ErrInvalidEncoding = errors.New("invalid query encoding")
)

// SyntaxError reports the first point where the input diverges from the grammar.
type SyntaxError struct {
	// Pos is where the offending token (or character) starts.
	Pos lexer.Position
	// Unexpected is the text found at Pos, "<EOF>" at end of input.
	Unexpected string
	// Expected describes what the grammar allowed at Pos. May be empty.
	Expected string
	// Message is the full human readable description without position.
	Message string
}

func (e *SyntaxError) Error() string {
	return e.Pos.String() + ": " + e.Message
}

// Is reports whether target is ErrSyntax.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// InputError reports that the query text could not be obtained.
type InputError struct {
	Source string
	Err    error
}

func (e *InputError) Error() string {
	if e.Source == "" {
		return "reading input: " + e.Err.Error()
	}

	return "reading " + e.Source + ": " + e.Err.Error()
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrInput.
func (e *InputError) Is(target error) bool {
	return target == ErrInput
}

const eofText = "<EOF>"

// toSyntaxError converts lexer and participle failures into a *SyntaxError.
func toSyntaxError(err error) *SyntaxError {
	var lexErr *LexerError
	if errors.As(err, &lexErr) {
		return &SyntaxError{
			Pos:        lexErr.Position(),
			Unexpected: lexErr.unexpected(),
			Message:    lexErr.Message(),
		}
	}

	var tokErr *participle.UnexpectedTokenError
	if errors.As(err, &tokErr) {
		unexpected := tokErr.Unexpected.Value
		if tokErr.Unexpected.EOF() {
			unexpected = eofText
		}

		msg := tokErr.Message()

		expected := tokErr.Expect
		if expected == "" {
			expected = expectedFromMessage(msg)
		}

		return &SyntaxError{
			Pos:        tokErr.Unexpected.Pos,
			Unexpected: unexpected,
			Expected:   expected,
			Message:    msg,
		}
	}

	var perr participle.Error
	if errors.As(err, &perr) {
		return &SyntaxError{
			Pos:     perr.Position(),
			Message: perr.Message(),
		}
	}

	return &SyntaxError{Message: err.Error()}
}

// expectedFromMessage extracts X from participle's "... (expected X)" suffix.
// participle renders the expectation lazily, so Expect may be unset.
func expectedFromMessage(msg string) string {
	const marker = "(expected "

	i := strings.LastIndex(msg, marker)
	if i < 0 || !strings.HasSuffix(msg, ")") {
		return ""
	}

	return msg[i+len(marker) : len(msg)-1]
}

func (e *LexerError) unexpected() string {
	if e.hasChar {
		return string(e.ch)
	}

	return ""
}

// emptyInputError is reported for input holding nothing but whitespace.
func emptyInputError(filename, text string) *SyntaxError {
	return &SyntaxError{
		Pos:        endPosition(filename, text),
		Unexpected: eofText,
		Expected:   "query",
		Message:    fmt.Sprintf("empty query: unexpected token %q (expected query)", eofText),
	}
}

// endPosition returns the position just past the last byte of text.
func endPosition(filename, text string) lexer.Position {
	line := 1 + strings.Count(text, "\n")
	lastLine := text[strings.LastIndexByte(text, '\n')+1:]

	return lexer.Position{
		Filename: filename,
		Offset:   len(text),
		Line:     line,
		Column:   1 + len([]rune(lastLine)),
	}
}
