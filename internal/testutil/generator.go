package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/segmentio/encoding/json"
)

// Users are the senders cycled through by GenerateTranscript. Users[0]
// always sends the last event.
var Users = []string{
	"@alice:example.org",
	"@bob:example.org",
	"@carol:example.org",
}

var phrases = []string{
	"good morning everyone",
	"the build is green again",
	"can someone review my patch?",
	"lunch at noon",
	"I'll be 5 minutes late 🙂",
	"teh deploy finished",
	"see https://example.org/issue/42",
}

type event struct {
	EventID        string         `json:"event_id"`
	Sender         string         `json:"sender"`
	Type           string         `json:"type"`
	OriginServerTS int64          `json:"origin_server_ts"`
	Content        map[string]any `json:"content"`
}

// GenerateTranscript returns numEvents JSONL events, oldest first. Every
// seventh event is an m.notice and every eleventh is a reaction, so the
// history is not purely editable text.
func GenerateTranscript(numEvents int) string {
	var sb strings.Builder

	for i := 0; i < numEvents; i++ {
		ev := event{
			EventID:        fmt.Sprintf("$event%d", i),
			Sender:         Users[(numEvents-1-i)%len(Users)],
			Type:           "m.room.message",
			OriginServerTS: 1700000000000 + int64(i)*1000,
			Content: map[string]any{
				"msgtype": "m.text",
				"body":    fmt.Sprintf("%s #%d", phrases[i%len(phrases)], i),
			},
		}

		switch {
		case i%11 == 10:
			ev.Type = "m.reaction"
			ev.Content = map[string]any{
				"m.relates_to": map[string]any{"event_id": fmt.Sprintf("$event%d", i-1), "key": "👍"},
			}
		case i%7 == 6:
			ev.Content["msgtype"] = "m.notice"
		}
		if i%5 == 0 && ev.Type == "m.room.message" {
			ev.Content["format"] = "org.matrix.custom.html"
		}

		line, err := json.Marshal(ev)
		if err != nil {
			panic(err)
		}
		sb.Write(line)
		sb.WriteString("\n")
	}

	return sb.String()
}

// WriteTranscript writes a generated transcript to dir/name and returns its
// path.
func WriteTranscript(dir, name string, numEvents int) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(GenerateTranscript(numEvents)), 0644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return path, nil
}
