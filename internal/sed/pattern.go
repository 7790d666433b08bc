package sed

import (
	"regexp"
	"strconv"
	"strings"
)

// Span is the byte interval of a match inside a message body.
type Span struct {
	Start int
	End   int

	submatches []int
}

// Pattern is either a compiled regular expression or a literal substring.
type Pattern interface {
	FindFirst(body string) (Span, bool)
	Expand(body string, span Span, template string) string
	String() string
}

// Compile never fails: text that is not a valid regular expression is
// matched literally.
func Compile(expr string) Pattern {
	re, err := regexp.Compile(expr)
	if err != nil {
		return literalPattern(expr)
	}
	return regexPattern{re: re}
}

// ReplaceFirst replaces the first match of p in body. body is returned
// unchanged when p does not match.
func ReplaceFirst(p Pattern, body, template string) string {
	span, ok := p.FindFirst(body)
	if !ok {
		return body
	}
	return body[:span.Start] + p.Expand(body, span, template) + body[span.End:]
}

type regexPattern struct {
	re *regexp.Regexp
}

func (p regexPattern) FindFirst(body string) (Span, bool) {
	m := p.re.FindStringSubmatchIndex(body)
	if m == nil {
		return Span{}, false
	}
	return Span{Start: m[0], End: m[1], submatches: m}, true
}

// Expand substitutes $n, $name and ${name} for groups that exist in the
// pattern. $$ is a literal dollar. Any other $ is copied verbatim, so "$5"
// stays "$5" when the pattern has fewer than five groups. A numeric
// reference uses the longest digit prefix that names a group: with one
// group, "$10" is group 1 followed by "0".
func (p regexPattern) Expand(body string, span Span, template string) string {
	var sb strings.Builder
	for {
		i := strings.IndexByte(template, '$')
		if i < 0 {
			break
		}
		sb.WriteString(template[:i])
		template = template[i+1:]

		if strings.HasPrefix(template, "$") {
			sb.WriteByte('$')
			template = template[1:]
			continue
		}
		group, rest, ok := p.reference(template)
		if !ok {
			sb.WriteByte('$')
			continue
		}
		sb.WriteString(submatch(body, span, group))
		template = rest
	}
	sb.WriteString(template)
	return sb.String()
}

// reference parses the group reference that follows a '$'.
func (p regexPattern) reference(s string) (int, string, bool) {
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return 0, "", false
		}
		group := p.groupIndex(s[1:end])
		return group, s[end+1:], group >= 0
	}

	n := 0
	for n < len(s) && isNameByte(s[n]) {
		n++
	}
	if group := p.groupIndex(s[:n]); group >= 0 {
		return group, s[n:], true
	}

	digits := 0
	for digits < n && isDigit(s[digits]) {
		digits++
	}
	for d := digits; d > 0; d-- {
		if group := p.groupIndex(s[:d]); group >= 0 {
			return group, s[d:], true
		}
	}
	return 0, "", false
}

// groupIndex returns -1 when name does not refer to a group of the pattern.
func (p regexPattern) groupIndex(name string) int {
	if name == "" {
		return -1
	}
	if strings.IndexFunc(name, func(r rune) bool { return r < '0' || r > '9' }) < 0 {
		n, err := strconv.Atoi(name)
		if err != nil || n > p.re.NumSubexp() {
			return -1
		}
		return n
	}
	return p.re.SubexpIndex(name)
}

func submatch(body string, span Span, group int) string {
	i := 2 * group
	if i+1 >= len(span.submatches) || span.submatches[i] < 0 {
		return ""
	}
	return body[span.submatches[i]:span.submatches[i+1]]
}

func isNameByte(c byte) bool {
	return c == '_' || isDigit(c) || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func (p regexPattern) String() string {
	return p.re.String()
}

type literalPattern string

func (p literalPattern) FindFirst(body string) (Span, bool) {
	idx := strings.Index(body, string(p))
	if idx < 0 {
		return Span{}, false
	}
	return Span{Start: idx, End: idx + len(p)}, true
}

func (p literalPattern) Expand(_ string, _ Span, template string) string {
	return template
}

func (p literalPattern) String() string {
	return string(p)
}
