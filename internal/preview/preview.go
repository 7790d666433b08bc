// Package preview renders draft messages for completion documentation.
package preview

import (
	"strings"

	"go.lsp.dev/protocol"

	"github.com/juev/sedit-lsp/internal/history"
)

type Renderer interface {
	Render(msg *history.Message) protocol.MarkupContent
}

type Markdown struct{}

func (Markdown) Render(msg *history.Message) protocol.MarkupContent {
	var sb strings.Builder
	if msg != nil {
		sb.WriteString("**")
		sb.WriteString(escape(msg.Sender))
		sb.WriteString("** (edited)\n\n")
		if msg.Content != nil {
			sb.WriteString(quote(msg.Content.Body))
		}
	}
	return protocol.MarkupContent{
		Kind:  protocol.Markdown,
		Value: sb.String(),
	}
}

func quote(body string) string {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = ">"
			continue
		}
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	`*`, `\*`,
	`_`, `\_`,
	"`", "\\`",
)

func escape(s string) string {
	return markdownEscaper.Replace(s)
}
