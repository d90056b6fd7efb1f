package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
	"github.com/mattn/go-isatty"
	"go.uber.org/multierr"

	"github.com/nanosim/queries"
	"github.com/nanosim/queries/model"
)

// Semantic colors.
var (
	colorError  = lipgloss.Color("#ef4444") // red-500
	colorHint   = lipgloss.Color("#06b6d4") // cyan-500
	colorDim    = lipgloss.Color("#6b7280") // gray-500
	colorAccent = lipgloss.Color("#3b82f6") // blue-500
)

// sourceError pairs a parse failure with the text that was parsed.
type sourceError struct {
	text string
	err  error
}

func (e *sourceError) Error() string { return e.err.Error() }

func (e *sourceError) Unwrap() error { return e.err }

// diagnostics renders errors on stderr, styled only when it is a terminal.
type diagnostics struct {
	w io.Writer

	label  lipgloss.Style
	hint   lipgloss.Style
	pos    lipgloss.Style
	gutter lipgloss.Style
	caret  lipgloss.Style
}

func newDiagnostics(w io.Writer) *diagnostics {
	d := &diagnostics{w: w}

	if !isTerminal(w) {
		return d
	}

	r := lipgloss.NewRenderer(w)
	d.label = r.NewStyle().Foreground(colorError).Bold(true)
	d.hint = r.NewStyle().Foreground(colorHint)
	d.pos = r.NewStyle().Bold(true)
	d.gutter = r.NewStyle().Foreground(colorDim)
	d.caret = r.NewStyle().Foreground(colorAccent).Bold(true)

	return d
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// report writes err with as much location detail as it carries.
func (d *diagnostics) report(err error) {
	errs := multierr.Errors(err)

	// Model files report each malformed query on its own.
	var loadErr *model.LoadError
	if len(errs) == 1 && errors.As(err, &loadErr) {
		errs = multierr.Errors(loadErr.Cause)
	}

	for _, e := range errs {
		d.reportOne(e)
	}
}

func (d *diagnostics) reportOne(err error) {
	var (
		srcErr    *sourceError
		queryErr  *model.QueryError
		syntaxErr *queries.SyntaxError
	)

	switch {
	case errors.As(err, &queryErr):
		where := fmt.Sprintf("%s:%d:%d", queryErr.Path, queryErr.Line, queryErr.Column)
		d.line(where, fmt.Sprintf("%s.%s %s: %s",
			queryErr.Agent, queryErr.Function, queryErr.Field, errorMessage(queryErr.Err)))

		if errors.As(queryErr.Err, &syntaxErr) {
			d.snippet(queryErr.Field, queryErr.Text, syntaxErr)
		}
	case errors.As(err, &srcErr) && errors.As(err, &syntaxErr):
		d.line(syntaxErr.Pos.String(), syntaxErr.Message)
		d.snippet("", srcErr.text, syntaxErr)
	default:
		d.line("", err.Error())
	}

	for _, h := range errors.GetAllHints(err) {
		_, _ = fmt.Fprintf(d.w, "  %s %s\n", d.hint.Render("hint:"), h)
	}
}

func (d *diagnostics) line(where, msg string) {
	label := d.label.Render("error:")
	if where == "" {
		_, _ = fmt.Fprintf(d.w, "%s %s\n", label, msg)

		return
	}

	_, _ = fmt.Fprintf(d.w, "%s %s %s\n", d.pos.Render(where+":"), label, msg)
}

// snippet prints the source line holding the error with a caret under the
// offending column.
func (d *diagnostics) snippet(title, text string, syntaxErr *queries.SyntaxError) {
	if text == "" || syntaxErr.Pos.Line < 1 {
		return
	}

	lines := strings.Split(text, "\n")
	if syntaxErr.Pos.Line > len(lines) {
		return
	}

	src := strings.TrimRight(lines[syntaxErr.Pos.Line-1], "\r")
	gutter := fmt.Sprintf("%4d | ", syntaxErr.Pos.Line)

	if title != "" {
		gutter = fmt.Sprintf("%s %4d | ", title, syntaxErr.Pos.Line)
	}

	_, _ = fmt.Fprintf(d.w, "%s%s\n", d.gutter.Render(gutter), src)

	// Reproduce tabs so the caret lines up under the source.
	var pad strings.Builder

	for i, r := range []rune(src) {
		if i >= syntaxErr.Pos.Column-1 {
			break
		}

		if r == '\t' {
			pad.WriteRune('\t')
		} else {
			pad.WriteRune(' ')
		}
	}

	blank := strings.Repeat(" ", len(gutter)-2) + "| " //nolint:mnd
	_, _ = fmt.Fprintf(d.w, "%s%s%s\n", d.gutter.Render(blank), pad.String(), d.caret.Render("^"))
}

// errorMessage strips the position prefix from syntax errors, which is
// relative to the query text rather than the enclosing file.
func errorMessage(err error) string {
	var syntaxErr *queries.SyntaxError
	if errors.As(err, &syntaxErr) {
		return syntaxErr.Message
	}

	return err.Error()
}
