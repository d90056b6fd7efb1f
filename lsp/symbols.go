package lsp

import (
	"context"
	"strconv"

	"github.com/alecthomas/participle/v2/lexer"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/nanosim/queries"
)

// DocumentSymbol handles textDocument/documentSymbol requests.
// Every name in the document becomes a symbol: agents, accessed fields and
// base values. Names are found by lexing, so a document with a syntax error
// still has an outline.
func (s *Server) DocumentSymbol(_ context.Context, params *protocol.DocumentSymbolParams) ([]any, error) {
	s.logger.Debug("DocumentSymbol",
		zap.String("uri", string(params.TextDocument.URI)))

	doc, ok := s.getDocument(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	symbols := buildDocumentSymbols(doc.Content)

	// Convert to []any for the protocol
	result := make([]any, len(symbols))
	for i, sym := range symbols {
		result[i] = sym
	}

	return result, nil
}

// buildDocumentSymbols lists the names of content in source order. When the
// lexer fails, the names before the failure are still listed.
func buildDocumentSymbols(content string) []protocol.DocumentSymbol {
	tokens, _ := queries.Tokenize("", content)

	significant := make([]lexer.Token, 0, len(tokens))

	for _, tok := range tokens {
		if tok.Type != queries.TokenWhitespace {
			significant = append(significant, tok)
		}
	}

	var symbols []protocol.DocumentSymbol

	for i, tok := range significant {
		if tok.Type != queries.TokenIdent && tok.Type != queries.TokenString {
			continue
		}

		kind, detail := protocol.SymbolKindVariable, "base"

		switch {
		case i >= 2 && significant[i-2].Type == queries.TokenAgent && significant[i-1].Type == queries.TokenLParen:
			kind, detail = protocol.SymbolKindClass, "agent"
		case i >= 1 && significant[i-1].Type == queries.TokenDot:
			kind, detail = protocol.SymbolKindField, "field"
		}

		rng := tokenRange(content, tok)
		symbols = append(symbols, protocol.DocumentSymbol{
			Name:           tokenName(tok),
			Detail:         detail,
			Kind:           kind,
			Range:          rng,
			SelectionRange: rng,
		})
	}

	return symbols
}

// tokenName returns the name a name token denotes.
func tokenName(tok lexer.Token) string {
	if tok.Type != queries.TokenString {
		return tok.Value
	}

	name, err := strconv.Unquote(tok.Value)
	if err != nil {
		return tok.Value
	}

	return name
}
