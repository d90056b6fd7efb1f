package queries

import (
	"strconv"
	"strings"
)

// FormatOptions controls how Format lays out a query.
type FormatOptions struct {
	// Expanded puts the items of multi-item tuples on their own lines with a
	// trailing comma, the layout used in model files.
	Expanded bool
	// Indent is the per-level indentation for expanded tuples. Defaults to a tab.
	Indent string
}

// Format renders q as canonical single-line query text. Parsing the result
// yields a query equal to q. A nil query or sub-query renders as "<nil>",
// which is not valid query text.
func Format(q Query) string {
	return FormatWith(q, FormatOptions{})
}

// FormatWith renders q using opts.
func FormatWith(q Query, opts FormatOptions) string {
	if opts.Indent == "" {
		opts.Indent = "\t"
	}

	var b strings.Builder

	f := &formatter{b: &b, opts: opts}
	f.formatQuery(q)

	return b.String()
}

type formatter struct {
	b      *strings.Builder
	opts   FormatOptions
	indent int
}

func (f *formatter) write(s string) {
	f.b.WriteString(s)
}

func (f *formatter) newline() {
	f.write("\n")

	for range f.indent {
		f.write(f.opts.Indent)
	}
}

// nilText stands in for a missing query. It does not parse.
const nilText = "<nil>"

func (f *formatter) formatQuery(q Query) {
	q, ok := resolve(q)
	if !ok {
		f.write(nilText)

		return
	}

	switch n := q.(type) {
	case Prev:
		f.write("prev!(")
		f.formatQuery(n.Query)
		f.write(")")
	case Root:
		f.write("root!")
	case Agent:
		f.write("agent!(")
		f.write(formatName(n.Name))
		f.write(")")
	case Access:
		f.formatQuery(n.Base)
		f.write(".")
		f.write(formatName(n.Field))
	case Base:
		f.write(formatName(n.Name))
	case Tuple:
		f.formatTuple(n)
	}
}

func (f *formatter) formatTuple(t Tuple) {
	if !f.opts.Expanded || !needsExpansion(t) {
		f.write("(")

		for i, item := range t.Items {
			if i > 0 {
				f.write(", ")
			}

			f.formatQuery(item)
		}

		f.write(")")

		return
	}

	f.write("(")
	f.indent++

	for _, item := range t.Items {
		f.newline()
		f.formatQuery(item)
		f.write(",")
	}

	f.indent--
	f.newline()
	f.write(")")
}

// needsExpansion reports whether an expanded layout should break t across
// lines: it has several items or contains another tuple.
func needsExpansion(t Tuple) bool {
	if len(t.Items) > 1 {
		return true
	}

	for _, item := range t.Items {
		found := false

		Walk(item, func(q Query) bool {
			if _, ok := q.(Tuple); ok {
				found = true
			}

			return !found
		})

		if found {
			return true
		}
	}

	return false
}

// formatName prints a name bare when it lexes back as the same identifier,
// quoted otherwise.
func formatName(name string) string {
	if isPlainName(name) {
		return name
	}

	return strconv.Quote(name)
}

func isPlainName(name string) bool {
	if name == "" {
		return false
	}

	for i, r := range name {
		if i == 0 && !isIdentStart(r) {
			return false
		}

		if !isIdentContinue(r) {
			return false
		}
	}

	return true
}
