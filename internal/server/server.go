package server

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"
	"go.uber.org/zap"

	"github.com/juev/sedit-lsp/internal/history"
	"github.com/juev/sedit-lsp/internal/lsputil"
	"github.com/juev/sedit-lsp/internal/preview"
	"github.com/juev/sedit-lsp/internal/sed"
	"github.com/juev/sedit-lsp/internal/workspace"
)

const serverName = "sedit-lsp"

type Server struct {
	client                protocol.Client
	documents             sync.Map
	loader                *history.Loader
	provider              *sed.Provider
	renderer              preview.Renderer
	logger                *zap.Logger
	rootURI               string
	workspace             *workspace.Workspace
	settings              serverSettings
	settingsMu            sync.RWMutex
	supportsConfiguration bool
}

func NewServer() *Server {
	logger := zap.NewNop()
	srv := &Server{
		loader:   history.NewLoader(),
		provider: sed.NewProvider(sed.WithLogger(logger)),
		renderer: preview.Markdown{},
		logger:   logger,
	}
	srv.workspace = workspace.NewWorkspace("", srv.loader, logger)
	srv.setSettings(defaultServerSettings())
	return srv
}

// SetLogger must be called before Initialize.
func (s *Server) SetLogger(logger *zap.Logger) {
	if logger == nil {
		return
	}
	s.logger = logger
	s.provider = sed.NewProvider(sed.WithLogger(logger))
	s.workspace = workspace.NewWorkspace(s.rootURI, s.loader, logger)
}

func (s *Server) SetClient(client protocol.Client) {
	s.client = client
}

func (s *Server) SetRenderer(renderer preview.Renderer) {
	if renderer != nil {
		s.renderer = renderer
	}
}

func (s *Server) StoreDocument(uri protocol.DocumentURI, content string) {
	s.documents.Store(uri, content)
}

func (s *Server) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	if params != nil && params.Capabilities.Workspace != nil {
		s.supportsConfiguration = params.Capabilities.Workspace.Configuration
	}
	if params != nil {
		settings := parseSettingsFromRaw(s.getSettings(), params.InitializationOptions)
		s.setSettings(settings)

		if len(params.WorkspaceFolders) > 0 {
			s.rootURI = strings.TrimPrefix(params.WorkspaceFolders[0].URI, "file://")
		} else {
			rootURI := params.RootURI //nolint:staticcheck // keep for backward compatibility
			if rootURI != "" {
				s.rootURI = strings.TrimPrefix(string(rootURI), "file://")
			}
		}
	}

	s.workspace = workspace.NewWorkspace(s.rootURI, s.loader, s.logger)

	caps := protocol.ServerCapabilities{
		TextDocumentSync: protocol.TextDocumentSyncOptions{
			OpenClose: true,
			Change:    protocol.TextDocumentSyncKindIncremental,
			Save: &protocol.SaveOptions{
				IncludeText: false,
			},
		},
	}

	if s.getSettings().Completion.Enabled {
		caps.CompletionProvider = &protocol.CompletionOptions{
			TriggerCharacters: []string{"/"},
		}
	}

	return &protocol.InitializeResult{
		Capabilities: caps,
		ServerInfo: &protocol.ServerInfo{
			Name:    serverName,
			Version: "0.1.0",
		},
	}, nil
}

func (s *Server) Initialized(_ context.Context, _ *protocol.InitializedParams) error {
	if s.rootURI != "" || os.Getenv(workspace.EnvConversation) != "" {
		if err := s.workspace.Initialize(); err != nil {
			s.logger.Warn("workspace initialization failed", zap.Error(err))
			if s.client != nil {
				_ = s.client.LogMessage(context.Background(), &protocol.LogMessageParams{
					Type:    protocol.MessageTypeWarning,
					Message: "Workspace initialization failed: " + err.Error(),
				})
			}
		}
	}
	s.workspace.SetTranscriptPath(s.getSettings().Conversation)
	go s.refreshConfiguration(context.Background())
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	_ = s.logger.Sync()
	return nil
}

func (s *Server) Exit(ctx context.Context) error {
	return nil
}

func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.documents.Store(params.TextDocument.URI, params.TextDocument.Text)
	s.syncTranscript(ctx, params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

// DidChange applies typed changes. The decoded protocol struct cannot tell an
// omitted range from 0:0-0:0, so every change here is incremental. Full
// document replacements reach the server through Handler, which keeps the
// distinction.
func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	changes := make([]textChange, len(params.ContentChanges))
	for i, change := range params.ContentChanges {
		r := change.Range
		changes[i] = textChange{Range: &r, Text: change.Text}
	}
	s.applyChanges(ctx, params.TextDocument.URI, changes)
	return nil
}

func (s *Server) applyChanges(ctx context.Context, docURI protocol.DocumentURI, changes []textChange) {
	doc, ok := s.documents.Load(docURI)
	if !ok {
		return
	}
	content, ok := doc.(string)
	if !ok {
		return
	}
	for _, change := range changes {
		if change.Range == nil {
			content = change.Text
		} else {
			content = applyChange(content, *change.Range, change.Text)
		}
	}
	s.documents.Store(docURI, content)
	s.syncTranscript(ctx, docURI, content)
}

func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.documents.Delete(params.TextDocument.URI)
	return nil
}

func (s *Server) DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	path := uriToPath(params.TextDocument.URI)
	if path == "" || !s.workspace.IsTranscript(path) {
		return nil
	}
	if content, ok := s.GetDocument(params.TextDocument.URI); ok {
		s.workspace.UpdateFile(path, content)
	} else {
		s.workspace.Reload(path)
	}
	return nil
}

func (s *Server) DidChangeWatchedFiles(_ context.Context, params *protocol.DidChangeWatchedFilesParams) error {
	for _, change := range params.Changes {
		if change == nil {
			continue
		}
		path := uriToPath(protocol.DocumentURI(change.URI))
		if path == "" {
			continue
		}
		if _, open := s.documents.Load(protocol.DocumentURI(change.URI)); open {
			continue
		}
		s.workspace.Reload(path)
	}
	return nil
}

// syncTranscript feeds an open transcript buffer into the workspace and
// reports its malformed lines as diagnostics.
func (s *Server) syncTranscript(ctx context.Context, docURI protocol.DocumentURI, content string) {
	path := uriToPath(docURI)
	if path == "" || !s.workspace.IsTranscript(path) {
		return
	}
	s.workspace.UpdateFile(path, content)
	go s.publishDiagnostics(ctx, docURI, content)
}

func (s *Server) publishDiagnostics(ctx context.Context, docURI protocol.DocumentURI, content string) {
	if s.client == nil {
		return
	}

	_, loadErrors := history.ParseTranscript(content)
	diagnostics := make([]protocol.Diagnostic, 0, len(loadErrors))
	mapper := lsputil.NewPositionMapper(content)
	for _, err := range loadErrors {
		line := max(0, err.Line-1)
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(line)},
				End: protocol.Position{
					Line:      uint32(line),
					Character: uint32(mapper.LineUTF16Len(line)),
				},
			},
			Severity: protocol.DiagnosticSeverityWarning,
			Source:   serverName,
			Message:  err.Message,
			Code:     "MALFORMED_ENTRY",
		})
	}

	_ = s.client.PublishDiagnostics(ctx, &protocol.PublishDiagnosticsParams{
		URI:         docURI,
		Diagnostics: diagnostics,
	})
}

func (s *Server) GetDocument(uri protocol.DocumentURI) (string, bool) {
	if doc, ok := s.documents.Load(uri); ok {
		if content, ok := doc.(string); ok {
			return content, true
		}
	}
	return "", false
}

func applyChange(content string, r protocol.Range, text string) string {
	mapper := lsputil.NewPositionMapper(content)
	return mapper.ApplyChange(r, text)
}

func uriToPath(docURI protocol.DocumentURI) string {
	s := string(docURI)
	if !strings.HasPrefix(s, "file://") {
		return ""
	}
	u := uri.URI(docURI) //nolint:unconvert // protocol.DocumentURI and uri.URI are different types
	path := u.Filename()
	if path == "" {
		path = s[7:]
	}
	return filepath.Clean(path)
}

func (s *Server) RootURI() string {
	return s.rootURI
}

func (s *Server) Workspace() *workspace.Workspace {
	return s.workspace
}
