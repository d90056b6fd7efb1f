package lsp

import (
	"context"
	"strings"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/nanosim/queries"
)

// Formatting handles textDocument/formatting requests.
func (s *Server) Formatting(_ context.Context, params *protocol.DocumentFormattingParams) ([]protocol.TextEdit, error) {
	s.logger.Debug("Formatting", zap.String("uri", string(params.TextDocument.URI)))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	// Need a valid parse to format
	if doc.Query == nil {
		return nil, nil
	}

	opts := s.format
	if params.Options.InsertSpaces && params.Options.TabSize > 0 && opts.Indent == "" {
		opts.Indent = strings.Repeat(" ", int(params.Options.TabSize))
	}

	formatted := queries.FormatWith(doc.Query, opts) + "\n"

	// If no change, return empty edits
	if formatted == doc.Content {
		return []protocol.TextEdit{}, nil
	}

	// Return a single edit that replaces the entire document
	return []protocol.TextEdit{
		{
			Range: protocol.Range{
				Start: protocol.Position{Line: 0, Character: 0},
				End:   endOfDocument(doc.Content),
			},
			NewText: formatted,
		},
	}, nil
}
