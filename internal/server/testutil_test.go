package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/juev/sedit-lsp/internal/workspace"
)

const (
	integrationTestTimeout = 500 * time.Millisecond

	testUser   = "@alice:example.org"
	composeURI = protocol.DocumentURI("file:///tmp/compose.txt")
)

type integrationMockClient struct {
	mu            sync.Mutex
	diagnostics   []protocol.PublishDiagnosticsParams
	diagnosticsCh chan struct{}
	configuration []interface{}
}

func newIntegrationMockClient() *integrationMockClient {
	return &integrationMockClient{
		diagnosticsCh: make(chan struct{}, 100),
	}
}

func (m *integrationMockClient) Progress(_ context.Context, _ *protocol.ProgressParams) error {
	return nil
}

func (m *integrationMockClient) WorkDoneProgressCreate(_ context.Context, _ *protocol.WorkDoneProgressCreateParams) error {
	return nil
}

func (m *integrationMockClient) LogMessage(_ context.Context, _ *protocol.LogMessageParams) error {
	return nil
}

func (m *integrationMockClient) PublishDiagnostics(_ context.Context, params *protocol.PublishDiagnosticsParams) error {
	m.mu.Lock()
	m.diagnostics = append(m.diagnostics, *params)
	m.mu.Unlock()

	select {
	case m.diagnosticsCh <- struct{}{}:
	default:
	}
	return nil
}

func (m *integrationMockClient) ShowMessage(_ context.Context, _ *protocol.ShowMessageParams) error {
	return nil
}

func (m *integrationMockClient) ShowMessageRequest(_ context.Context, _ *protocol.ShowMessageRequestParams) (*protocol.MessageActionItem, error) {
	return nil, nil
}

func (m *integrationMockClient) Telemetry(_ context.Context, _ interface{}) error {
	return nil
}

func (m *integrationMockClient) RegisterCapability(_ context.Context, _ *protocol.RegistrationParams) error {
	return nil
}

func (m *integrationMockClient) UnregisterCapability(_ context.Context, _ *protocol.UnregistrationParams) error {
	return nil
}

func (m *integrationMockClient) ApplyEdit(_ context.Context, _ *protocol.ApplyWorkspaceEditParams) (bool, error) {
	return false, nil
}

func (m *integrationMockClient) Configuration(_ context.Context, _ *protocol.ConfigurationParams) ([]interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.configuration, nil
}

func (m *integrationMockClient) WorkspaceFolders(_ context.Context) ([]protocol.WorkspaceFolder, error) {
	return nil, nil
}

func (m *integrationMockClient) waitDiagnostics() bool {
	select {
	case <-m.diagnosticsCh:
		return true
	case <-time.After(integrationTestTimeout):
		return false
	}
}

func (m *integrationMockClient) getLastDiagnostics() *protocol.PublishDiagnosticsParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.diagnostics) == 0 {
		return nil
	}
	result := m.diagnostics[len(m.diagnostics)-1]
	return &result
}

type testServer struct {
	*Server
	client *integrationMockClient
	root   string
}

// newTestServer initializes a server rooted at a temp dir holding the given
// transcript as conversation.jsonl.
func newTestServer(t *testing.T, transcript string) *testServer {
	t.Helper()
	t.Setenv(workspace.EnvConversation, "")
	t.Setenv(EnvUserID, "")

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "conversation.jsonl"), []byte(transcript), 0o644))

	srv := NewServer()
	client := newIntegrationMockClient()
	srv.SetClient(client)

	_, err := srv.Initialize(context.Background(), &protocol.InitializeParams{
		RootURI:               protocol.DocumentURI("file://" + root),
		InitializationOptions: map[string]interface{}{"userId": testUser},
	})
	require.NoError(t, err)
	require.NoError(t, srv.Initialized(context.Background(), &protocol.InitializedParams{}))

	return &testServer{Server: srv, client: client, root: root}
}

func (ts *testServer) transcriptURI() protocol.DocumentURI {
	return protocol.DocumentURI("file://" + filepath.Join(ts.root, "conversation.jsonl"))
}

func (ts *testServer) openDocument(uri protocol.DocumentURI, content string) error {
	params := &protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:  uri,
			Text: content,
		},
	}
	return ts.DidOpen(context.Background(), params)
}

func (ts *testServer) changeDocument(uri protocol.DocumentURI, changes []protocol.TextDocumentContentChangeEvent) error {
	params := &protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: uri},
		},
		ContentChanges: changes,
	}
	return ts.DidChange(context.Background(), params)
}

// notify sends a notification through the server's raw handler chain.
// Methods the chain does not serve itself reach a next handler that fails.
func (ts *testServer) notify(method string, params interface{}) error {
	req, err := jsonrpc2.NewNotification(method, params)
	if err != nil {
		return err
	}
	var replyErr error
	reply := func(_ context.Context, _ interface{}, err error) error {
		replyErr = err
		return nil
	}
	next := func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		return reply(ctx, nil, fmt.Errorf("unhandled %s", req.Method()))
	}
	if err := ts.Handler(next)(context.Background(), reply, req); err != nil {
		return err
	}
	return replyErr
}

// replaceDocument sends a change without a range, which replaces the whole
// document.
func (ts *testServer) replaceDocument(uri protocol.DocumentURI, content string) error {
	return ts.notify(protocol.MethodTextDocumentDidChange, map[string]interface{}{
		"textDocument":   map[string]interface{}{"uri": uri, "version": 2},
		"contentChanges": []map[string]interface{}{{"text": content}},
	})
}

func (ts *testServer) completion(uri protocol.DocumentURI, line, character uint32) (*protocol.CompletionList, error) {
	params := &protocol.CompletionParams{
		TextDocumentPositionParams: protocol.TextDocumentPositionParams{
			TextDocument: protocol.TextDocumentIdentifier{URI: uri},
			Position:     protocol.Position{Line: line, Character: character},
		},
	}
	return ts.Completion(context.Background(), params)
}

func event(id, sender, body string) string {
	return `{"event_id":"` + id + `","sender":"` + sender + `","type":"m.room.message","content":{"msgtype":"m.text","body":"` + body + `"}}` + "\n"
}

func extractCompletionLabels(items []protocol.CompletionItem) []string {
	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.Label
	}
	return labels
}
