package lsp

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/nanosim/queries"
)

// Hover handles textDocument/hover requests. The whole document is one
// query, so the hover describes that query wherever the cursor is.
func (s *Server) Hover(_ context.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	s.logger.Debug("Hover",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.Uint32("line", params.Position.Line),
		zap.Uint32("character", params.Position.Character))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok || doc.Query == nil {
		return nil, nil //nolint:nilnil
	}

	content, err := hoverContent(doc.Query)
	if err != nil {
		return nil, err
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: content,
		},
	}, nil
}

// hoverContent renders the variant, the referenced names, and the tagged
// encoding of q as markdown.
func hoverContent(q queries.Query) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "**%s** query", q.Kind())

	if agents := queries.Agents(q); len(agents) > 0 {
		fmt.Fprintf(&b, "\n\nAgents: %s", codeList(agents))
	}

	if bases := queries.Bases(q); len(bases) > 0 {
		fmt.Fprintf(&b, "\n\nBase values: %s", codeList(bases))
	}

	var encoded bytes.Buffer

	enc, err := queries.LookupEncoder(queries.EncoderJSONPretty)
	if err != nil {
		return "", err
	}

	if err := enc.Encode(&encoded, q); err != nil {
		return "", err
	}

	b.WriteString("\n\n```json\n")
	b.WriteString(strings.TrimRight(encoded.String(), "\n"))
	b.WriteString("\n```")

	return b.String(), nil
}

func codeList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "`" + n + "`"
	}

	return strings.Join(quoted, ", ")
}
