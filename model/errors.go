package model

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Sentinel errors.
var (
	// ErrModelNotFound is returned when a model file does not exist.
	ErrModelNotFound = errors.New("model: not found")

	// ErrInvalidModel is returned when a file is not a well formed model document.
	ErrInvalidModel = errors.New("model: invalid document")

	// ErrInvalidQuery marks a model whose query texts failed to parse.
	ErrInvalidQuery = errors.New("model: invalid query")
)

const shapeHint = "a model file has a top-level 'agents' mapping from agent name " +
	"to a list of functions with 'name', 'consumed' and 'produced' keys"

// LoadError reports a model file that could not be read or decoded.
type LoadError struct {
	// Path is the filesystem path that failed to load.
	Path string
	// Cause is the underlying error.
	Cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %q: %v", e.Path, e.Cause)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// QueryError locates a query text in a model file that failed to parse.
type QueryError struct {
	// Path is the model file.
	Path string
	// Line and Column locate the YAML scalar holding the query text.
	Line   int
	Column int
	// Agent and Function name the declaring function.
	Agent    string
	Function string
	// Field is "consumed" or "produced".
	Field string
	// Text is the query text as written.
	Text string
	// Err is the parse failure, usually a *queries.SyntaxError whose
	// position is relative to the query text.
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s.%s %s: %v",
		e.Path, e.Line, e.Column, e.Agent, e.Function, e.Field, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrInvalidQuery.
func (e *QueryError) Is(target error) bool {
	return target == ErrInvalidQuery
}

// shapeError reports a structural problem at a YAML location.
func shapeError(path string, line, col int, format string, args ...any) error {
	err := errors.Wrapf(ErrInvalidModel, "%s:%d:%d: "+format, append([]any{path, line, col}, args...)...)

	return errors.WithHint(err, shapeHint)
}
