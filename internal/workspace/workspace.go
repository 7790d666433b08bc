// Package workspace locates the conversation transcript that backs
// completions and keeps its timeline current.
package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/juev/sedit-lsp/internal/history"
)

const (
	EnvConversation = "SEDIT_CONVERSATION"

	transcriptName = "conversation.jsonl"
)

type Workspace struct {
	mu             sync.RWMutex
	rootURI        string
	transcriptPath string
	conversation   *history.Conversation
	loader         *history.Loader
	logger         *zap.Logger
}

func NewWorkspace(rootURI string, loader *history.Loader, logger *zap.Logger) *Workspace {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workspace{
		rootURI: rootURI,
		loader:  loader,
		logger:  logger,
	}
}

func (w *Workspace) Initialize() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	path, err := w.findTranscript()
	if err != nil {
		return err
	}
	w.transcriptPath = path

	if path != "" {
		w.conversation = w.load(path)
	}

	return nil
}

// SetTranscriptPath points the workspace at an explicit transcript and
// loads it.
func (w *Workspace) SetTranscriptPath(path string) {
	if path == "" {
		return
	}
	if !filepath.IsAbs(path) && w.rootURI != "" {
		path = filepath.Join(w.rootURI, path)
	}
	path = filepath.Clean(path)

	w.mu.Lock()
	defer w.mu.Unlock()
	if path == w.transcriptPath && w.conversation != nil {
		return
	}
	w.transcriptPath = path
	w.conversation = w.load(path)
}

func (w *Workspace) findTranscript() (string, error) {
	if envPath := os.Getenv(EnvConversation); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	candidates := []string{
		filepath.Join(w.rootURI, transcriptName),
		filepath.Join(w.rootURI, ".sedit", transcriptName),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	files, err := w.findTranscriptFiles()
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", nil
	}
	sort.Strings(files)
	return files[0], nil
}

func (w *Workspace) findTranscriptFiles() ([]string, error) {
	var files []string
	err := filepath.Walk(w.rootURI, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil //nolint:nilerr // intentionally skip inaccessible files
		}
		if info.IsDir() {
			if path != w.rootURI && skipDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ".jsonl" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// skipDir reports directories the transcript walk never enters: hidden
// ones and dependency trees.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules" || name == "vendor"
}

func (w *Workspace) load(path string) *history.Conversation {
	conv, errs := w.loader.Load(path)
	w.report(path, errs)
	return conv
}

func (w *Workspace) report(path string, errs []history.LoadError) {
	for _, err := range errs {
		if err.Kind == history.ErrorMalformedEntry {
			w.logger.Debug("skipping transcript entry",
				zap.String("path", path),
				zap.Int("line", err.Line),
				zap.String("error", err.Message))
			continue
		}
		w.logger.Warn("cannot load transcript",
			zap.String("path", path),
			zap.Stringer("kind", err.Kind),
			zap.String("error", err.Message))
	}
}

func (w *Workspace) TranscriptPath() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.transcriptPath
}

func (w *Workspace) IsTranscript(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.transcriptPath != "" && filepath.Clean(path) == w.transcriptPath
}

// UpdateFile replaces the timeline with content when path is the
// transcript. Other paths are ignored.
func (w *Workspace) UpdateFile(path, content string) {
	if !w.IsTranscript(path) {
		return
	}
	path = filepath.Clean(path)

	w.loader.InvalidateFile(path)
	conv, errs := w.loader.LoadFromContent(path, content)
	w.report(path, errs)

	w.mu.Lock()
	defer w.mu.Unlock()
	if path == w.transcriptPath {
		w.conversation = conv
	}
	w.logger.Debug("transcript updated", zap.String("path", path))
}

// Reload rereads the transcript from disk when path is the transcript.
func (w *Workspace) Reload(path string) {
	if !w.IsTranscript(path) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.loader.InvalidateFile(w.transcriptPath)
	w.conversation = w.load(w.transcriptPath)
	w.logger.Debug("transcript reloaded", zap.String("path", w.transcriptPath))
}

func (w *Workspace) Timeline() history.Timeline {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.conversation == nil {
		return history.NewConversation()
	}
	return w.conversation
}
