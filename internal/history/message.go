package history

import (
	"maps"
	"sync"
)

const (
	EventMessage = "m.room.message"

	MsgText = "m.text"
)

type Content struct {
	MsgType string
	Body    string
	Extra   map[string]any
}

type Message struct {
	ID        string
	Sender    string
	Type      string
	Timestamp int64
	Content   *Content
}

// IsText reports whether the message is a plain text message that can be
// edited. Redacted messages carry no msgtype and are not text.
func (m *Message) IsText() bool {
	if m == nil || m.Content == nil || m.Type != EventMessage {
		return false
	}
	return m.Content.MsgType == MsgText
}

// Clone copies the envelope and the content payload, including nested maps
// and slices in Extra. The copy shares no mutable state with m.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	clone := *m
	if m.Content != nil {
		content := *m.Content
		if m.Content.Extra != nil {
			content.Extra = cloneMap(m.Content.Extra)
		}
		clone.Content = &content
	}
	return &clone
}

func cloneMap(src map[string]any) map[string]any {
	dst := maps.Clone(src)
	for k, v := range dst {
		dst[k] = cloneValue(v)
	}
	return dst
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// Timeline is a read-only view of a conversation, ordered most-recent-last.
type Timeline interface {
	Messages() []*Message
}

type Conversation struct {
	mu       sync.RWMutex
	messages []*Message
}

func NewConversation(messages ...*Message) *Conversation {
	return &Conversation{messages: messages}
}

func (c *Conversation) Append(msg *Message) {
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
}

func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.messages)
}

func (c *Conversation) Messages() []*Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]*Message, len(c.messages))
	copy(result, c.messages)
	return result
}
