package history

import (
	"fmt"
	"os"
	"sync"
)

type Loader struct {
	mu     sync.Mutex
	limits Limits
	cache  map[string]*Conversation
}

func NewLoader() *Loader {
	return &Loader{
		limits: DefaultLimits(),
		cache:  make(map[string]*Conversation),
	}
}

func (l *Loader) SetLimits(limits Limits) {
	l.mu.Lock()
	l.limits = limits
	l.mu.Unlock()
}

func (l *Loader) Limits() Limits {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limits
}

// Load reads a transcript from disk. A cached conversation is returned until
// the path is invalidated.
func (l *Loader) Load(path string) (*Conversation, []LoadError) {
	l.mu.Lock()
	if cached, ok := l.cache[path]; ok {
		l.mu.Unlock()
		return cached, nil
	}
	limits := l.limits
	l.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		return nil, []LoadError{{
			Kind:    ErrorFileNotFound,
			Path:    path,
			Message: fmt.Sprintf("cannot stat transcript: %v", err),
		}}
	}
	if limits.MaxFileSizeBytes > 0 && info.Size() > limits.MaxFileSizeBytes {
		return nil, []LoadError{{
			Kind:    ErrorFileTooLarge,
			Path:    path,
			Message: fmt.Sprintf("transcript is %d bytes, limit is %d", info.Size(), limits.MaxFileSizeBytes),
		}}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []LoadError{{
			Kind:    ErrorReadError,
			Path:    path,
			Message: fmt.Sprintf("cannot read transcript: %v", err),
		}}
	}

	return l.LoadFromContent(path, string(data))
}

func (l *Loader) LoadFromContent(path, content string) (*Conversation, []LoadError) {
	limits := l.Limits()
	if limits.MaxFileSizeBytes > 0 && int64(len(content)) > limits.MaxFileSizeBytes {
		return nil, []LoadError{{
			Kind:    ErrorFileTooLarge,
			Path:    path,
			Message: fmt.Sprintf("transcript is %d bytes, limit is %d", len(content), limits.MaxFileSizeBytes),
		}}
	}

	messages, errs := ParseTranscript(content)
	for i := range errs {
		errs[i].Path = path
	}

	conv := NewConversation(messages...)
	l.mu.Lock()
	l.cache[path] = conv
	l.mu.Unlock()
	return conv, errs
}

func (l *Loader) InvalidateFile(path string) {
	l.mu.Lock()
	delete(l.cache, path)
	l.mu.Unlock()
}

func (l *Loader) ClearCache() {
	l.mu.Lock()
	l.cache = make(map[string]*Conversation)
	l.mu.Unlock()
}
