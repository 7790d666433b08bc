package history

import (
	"fmt"
	"strings"

	"github.com/segmentio/encoding/json"
)

type eventRecord struct {
	EventID        string         `json:"event_id"`
	Sender         string         `json:"sender"`
	Type           string         `json:"type"`
	OriginServerTS int64          `json:"origin_server_ts"`
	Content        map[string]any `json:"content"`
}

// ParseTranscript decodes a JSONL transcript, one event per line, oldest
// first. Lines that cannot be decoded are reported and skipped.
func ParseTranscript(content string) ([]*Message, []LoadError) {
	var (
		messages []*Message
		errs     []LoadError
	)

	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		msg, err := parseEvent(line)
		if err != nil {
			errs = append(errs, LoadError{
				Kind:    ErrorMalformedEntry,
				Line:    i + 1,
				Message: fmt.Sprintf("line %d: %v", i+1, err),
			})
			continue
		}
		messages = append(messages, msg)
	}

	return messages, errs
}

func parseEvent(line string) (*Message, error) {
	var rec eventRecord
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}
	if rec.EventID == "" {
		return nil, fmt.Errorf("missing event_id")
	}
	if rec.Sender == "" {
		return nil, fmt.Errorf("event %s: missing sender", rec.EventID)
	}

	msg := &Message{
		ID:        rec.EventID,
		Sender:    rec.Sender,
		Type:      rec.Type,
		Timestamp: rec.OriginServerTS,
	}
	if rec.Content == nil {
		return msg, nil
	}

	content := &Content{}
	for key, value := range rec.Content {
		switch key {
		case "msgtype":
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("event %s: msgtype is not a string", rec.EventID)
			}
			content.MsgType = s
		case "body":
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("event %s: body is not a string", rec.EventID)
			}
			content.Body = s
		default:
			if content.Extra == nil {
				content.Extra = make(map[string]any)
			}
			content.Extra[key] = value
		}
	}
	// Redacted events keep an empty content object; anything else needs a body.
	if rec.Type == EventMessage && len(rec.Content) > 0 {
		if _, ok := rec.Content["body"]; !ok {
			return nil, fmt.Errorf("event %s: missing body", rec.EventID)
		}
	}
	msg.Content = content
	return msg, nil
}
