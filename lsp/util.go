package lsp

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"
	"go.lsp.dev/protocol"
)

// URIToPath converts a file:// URI to a filesystem path.
func URIToPath(uri protocol.DocumentURI) string {
	u, err := url.Parse(string(uri))
	if err != nil {
		// Fallback: strip file:// prefix
		return strings.TrimPrefix(string(uri), "file://")
	}

	if u.Scheme == "file" {
		return u.Path
	}

	return string(uri)
}

// PathToURI converts a filesystem path to a file:// URI.
func PathToURI(path string) protocol.DocumentURI {
	u := url.URL{Scheme: "file", Path: path}

	return protocol.DocumentURI(u.String())
}

// toPosition converts a 1-based lexer position to a 0-based LSP position.
// LSP counts characters in UTF-16 code units, the lexer counts runes.
func toPosition(content string, pos lexer.Position) protocol.Position {
	line := max(0, pos.Line-1)
	lineText := lineAt(content, line)

	var units int

	for i, r := range []rune(lineText) {
		if i >= pos.Column-1 {
			break
		}

		units += utf16Len(r)
	}

	return protocol.Position{
		Line:      uint32(line),  //nolint:gosec // G115: values are small line numbers
		Character: uint32(units), //nolint:gosec // G115: values are small column numbers
	}
}

// tokenRange returns the range covered by tok.
func tokenRange(content string, tok lexer.Token) protocol.Range {
	start := toPosition(content, tok.Pos)
	end := start

	for _, r := range tok.Value {
		if r == '\n' {
			end.Line++
			end.Character = 0

			continue
		}

		end.Character += uint32(utf16Len(r)) //nolint:gosec // G115: 1 or 2
	}

	return protocol.Range{Start: start, End: end}
}

// endOfDocument is the position just past the last character.
func endOfDocument(content string) protocol.Position {
	lines := strings.Count(content, "\n")
	last := content[strings.LastIndexByte(content, '\n')+1:]

	var units int
	for _, r := range last {
		units += utf16Len(r)
	}

	return protocol.Position{
		Line:      uint32(lines), //nolint:gosec // G115: values are small line numbers
		Character: uint32(units), //nolint:gosec // G115: values are small column numbers
	}
}

func lineAt(content string, line int) string {
	for range line {
		i := strings.IndexByte(content, '\n')
		if i < 0 {
			return ""
		}

		content = content[i+1:]
	}

	if i := strings.IndexByte(content, '\n'); i >= 0 {
		content = content[:i]
	}

	return content
}

func utf16Len(r rune) int {
	if r >= 0x10000 && utf8.ValidRune(r) {
		return 2 //nolint:mnd // surrogate pair
	}

	return 1
}
