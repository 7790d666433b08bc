package sed

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/juev/sedit-lsp/internal/history"
)

const providerName = "Edit your most recent message with a regular expression"

// Candidate is a single completion entry. Draft is the render payload for
// the message preview.
type Candidate struct {
	Completion string
	Draft      *history.Message
	Range      Range
}

// Provider turns commands into completion candidates.
type Provider struct {
	logger *zap.Logger
	newID  func(source string) string
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger for skipped history entries. Nil is ignored.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithIDGenerator replaces the draft identity generator. The generator must
// never return its argument.
func WithIDGenerator(fn func(source string) string) Option {
	return func(p *Provider) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// NewProvider returns a provider with a no-op logger and random draft IDs.
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		logger: zap.NewNop(),
		newID:  draftID,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string {
	return providerName
}

// Apply substitutes cmd into the most recent text message sent by userID.
// It returns no candidates when cmd is incomplete or when there is nothing
// to edit.
func (p *Provider) Apply(cmd Command, timeline history.Timeline, userID string) []Candidate {
	if !cmd.Ready() || timeline == nil || userID == "" {
		return nil
	}

	target := p.lastOwnMessage(timeline.Messages(), userID)
	if target == nil {
		p.logger.Debug("no message to edit", zap.String("user", userID))
		return nil
	}

	draft := target.Clone()
	draft.ID = p.newID(target.ID)
	if cmd.Replacement != nil {
		draft.Content.Body = ReplaceFirst(Compile(cmd.Pattern), draft.Content.Body, *cmd.Replacement)
	}

	return []Candidate{{
		Completion: draft.Content.Body,
		Draft:      draft,
		Range:      cmd.Range,
	}}
}

func (p *Provider) lastOwnMessage(messages []*history.Message, userID string) *history.Message {
	for i := len(messages) - 1; i >= 0; i-- {
		ok, err := eligible(messages[i], userID)
		if err != nil {
			p.logger.Debug("skipping history entry", zap.Int("index", i), zap.Error(err))
			continue
		}
		if ok {
			return messages[i]
		}
	}
	return nil
}

func eligible(msg *history.Message, userID string) (bool, error) {
	if msg == nil {
		return false, fmt.Errorf("nil entry")
	}
	if msg.Type == history.EventMessage && msg.Content == nil {
		return false, fmt.Errorf("message %s has no content", msg.ID)
	}
	return msg.Sender == userID && msg.IsText(), nil
}

func draftID(source string) string {
	return source + "~" + uuid.NewString()
}

var defaultProvider = NewProvider()

// Apply runs the default provider.
func Apply(cmd Command, timeline history.Timeline, userID string) []Candidate {
	return defaultProvider.Apply(cmd, timeline, userID)
}
