package server

import (
	"context"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/juev/sedit-lsp/internal/lsputil"
	"github.com/juev/sedit-lsp/internal/sed"
)

func (s *Server) Completion(ctx context.Context, params *protocol.CompletionParams) (*protocol.CompletionList, error) {
	result := &protocol.CompletionList{
		IsIncomplete: true, // every keystroke changes the substitution, never cache
		Items:        []protocol.CompletionItem{},
	}

	if !s.getSettings().Completion.Enabled {
		return result, nil
	}

	doc, ok := s.GetDocument(params.TextDocument.URI)
	if !ok {
		return result, nil
	}

	mapper := lsputil.NewPositionMapper(doc)
	cursor := mapper.LSPToByte(params.Position)
	cmd, ok := sed.Recognize(doc, sed.Range{Start: cursor, End: cursor})
	if !ok {
		return result, nil
	}

	userID := s.currentUserID()
	if userID == "" {
		s.logger.Debug("no user configured, skipping substitution")
		return result, nil
	}

	candidates := s.provider.Apply(cmd, s.workspace.Timeline(), userID)
	typed := doc[cmd.Range.Start:cmd.Range.End]
	for _, c := range candidates {
		result.Items = append(result.Items, s.completionItem(c, mapper, typed))
	}

	s.logger.Debug("substitution completion",
		zap.String("uri", string(params.TextDocument.URI)),
		zap.String("pattern", cmd.Pattern),
		zap.Int("candidates", len(candidates)))

	return result, nil
}

func (s *Server) completionItem(c sed.Candidate, mapper *lsputil.PositionMapper, typed string) protocol.CompletionItem {
	return protocol.CompletionItem{
		Label:         c.Completion,
		Kind:          protocol.CompletionItemKindText,
		Detail:        s.provider.Name(),
		Documentation: s.renderer.Render(c.Draft),
		FilterText:    typed,
		SortText:      "0",
		Preselect:     true,
		TextEdit: &protocol.TextEdit{
			Range:   mapper.ByteRangeToLSP(c.Range.Start, c.Range.End),
			NewText: c.Completion,
		},
	}
}
