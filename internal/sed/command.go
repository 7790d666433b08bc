// Package sed recognizes s/pattern/replacement commands typed into a chat
// composer and applies them to the sender's most recent message.
package sed

import (
	"regexp"
	"strings"
)

var commandRegexp = regexp.MustCompile(`^s/([^/]*)(?:/(.*))?$`)

// Range is a half-open byte interval into the composer text.
type Range struct {
	Start int
	End   int
}

func (r Range) Len() int {
	return r.End - r.Start
}

// Command is a recognized substitution typed into the composer.
type Command struct {
	Pattern     string
	Replacement *string // nil while the replacement has not been typed yet
	Range       Range
}

// Ready reports whether the command carries enough input to target a
// message. A bare "s/" does not.
func (c Command) Ready() bool {
	return c.Pattern != "" || c.Replacement != nil
}

// Recognize reads backward from the selection end to the start of its line
// and reports whether that text is a substitution command. The returned
// range always ends at the cursor.
func Recognize(text string, selection Range) (Command, bool) {
	if text == "" {
		return Command{}, false
	}

	cursor := clamp(selection.End, 0, len(text))
	start := clamp(selection.Start, 0, cursor)
	lineStart := strings.LastIndexByte(text[:cursor], '\n') + 1
	if start < lineStart {
		return Command{}, false
	}

	token := text[lineStart:cursor]
	m := commandRegexp.FindStringSubmatchIndex(token)
	if m == nil {
		return Command{}, false
	}

	cmd := Command{
		Pattern: token[m[2]:m[3]],
		Range:   Range{Start: lineStart, End: cursor},
	}
	if m[4] >= 0 {
		replacement := token[m[4]:m[5]]
		cmd.Replacement = &replacement
	}
	return cmd, true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
