package lsp

import (
	"context"

	"github.com/alecthomas/participle/v2/lexer"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/nanosim/queries"
)

// diagnosticSource names this server in editor problem lists.
const diagnosticSource = "queries"

// publishDiagnostics publishes the document's syntax error, or clears
// diagnostics when it parsed.
func (s *Server) publishDiagnostics(ctx context.Context, doc *Document) {
	diagnostics := make([]protocol.Diagnostic, 0, 1)

	if doc.Err != nil {
		lspDiag := convertSyntaxError(doc.Content, doc.Err)
		s.logger.Debug("Publishing diagnostic",
			zap.Int("pos.line", doc.Err.Pos.Line),
			zap.Int("pos.col", doc.Err.Pos.Column),
			zap.Uint32("lsp.start.line", lspDiag.Range.Start.Line),
			zap.Uint32("lsp.start.char", lspDiag.Range.Start.Character),
			zap.String("message", doc.Err.Message))
		diagnostics = append(diagnostics, lspDiag)
	}

	err := s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         doc.URI,
		Version:     uint32(doc.Version), //nolint:gosec // LSP version numbers are always non-negative
		Diagnostics: diagnostics,
	})
	if err != nil {
		s.logger.Error("Failed to publish diagnostics", zap.Error(err))
	}
}

// convertSyntaxError converts a syntax error to an LSP diagnostic covering
// the unexpected text, or an empty range at end of input.
func convertSyntaxError(content string, err *queries.SyntaxError) protocol.Diagnostic {
	rng := protocol.Range{Start: toPosition(content, err.Pos)}
	rng.End = rng.Start

	if err.Unexpected != "" && err.Unexpected != "<EOF>" {
		rng = tokenRange(content, lexer.Token{Value: err.Unexpected, Pos: err.Pos})
	}

	return protocol.Diagnostic{
		Range:    rng,
		Severity: protocol.DiagnosticSeverityError,
		Code:     "syntax",
		Source:   diagnosticSource,
		Message:  err.Message,
	}
}
