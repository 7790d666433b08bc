package sed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompile_FallsBackToLiteral(t *testing.T) {
	assert.IsType(t, regexPattern{}, Compile("fo+"))
	assert.IsType(t, literalPattern(""), Compile("["))
	assert.IsType(t, literalPattern(""), Compile("a(b"))
}

func TestReplaceFirst(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		body     string
		template string
		expected string
	}{
		{"plain word", "foo", "hello foo world", "bar", "hello bar world"},
		{"first occurrence only", "foo", "foo foo", "bar", "bar foo"},
		{"no match", "xyz", "hello", "bar", "hello"},
		{"regex class", "[0-9]+", "room 42 and 7", "N", "room N and 7"},
		{"capture group", `(\w+)@(\w+)`, "mail bob@host now", "$2 at $1", "mail host at bob now"},
		{"dollar escape", "cost", "cost", "$$5", "$5"},
		{"anchored", "^hi", "hi hi", "yo", "yo hi"},
		{"empty pattern inserts at start", "", "abc", "x", "xabc"},
		{"invalid regex replaced literally", "[", "a[b", "bar", "abarb"},
		{"invalid regex literal no match", "(", "abc", "x", "abc"},
		{"literal keeps dollar", "[", "[", "$1", "$1"},
		{"multibyte body", "мир", "привет мир", "world", "привет world"},
		{"dollar amount", "five", "it costs five", "$10", "it costs $10"},
		{"dollar amount with text", "five", "it costs five", "$5 total", "it costs $5 total"},
		{"unknown name kept", "costs", "it costs five", "$price", "it $price five"},
		{"unknown braced name kept", "five", "it costs five", "${price}", "it costs ${price}"},
		{"unclosed brace kept", "five", "five", "${1", "${1"},
		{"trailing dollar", "five", "five", "5$", "5$"},
		{"whole match", "five", "five", "[$0]", "[five]"},
		{"group followed by digit", "(a)", "a", "$10", "a0"},
		{"group followed by letters", "(a)", "a", "$1x", "ax"},
		{"braced group", "(a)", "a", "${1}1", "a1"},
		{"named group", `(?P<word>\w+)!`, "hey!", "<$word>", "<hey>"},
		{"unmatched optional group", "(x)?a", "a", "[$1]", "[]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReplaceFirst(Compile(tt.pattern), tt.body, tt.template)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLiteralPattern_FindFirst(t *testing.T) {
	span, ok := literalPattern("[").FindFirst("a[b[")
	assert.True(t, ok)
	assert.Equal(t, 1, span.Start)
	assert.Equal(t, 2, span.End)

	_, ok = literalPattern("z").FindFirst("abc")
	assert.False(t, ok)
}
