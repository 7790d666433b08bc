// Package lsputil converts between LSP positions and byte offsets.
//
// LSP counts characters in UTF-16 code units while Go strings are UTF-8.
// Composer buffers routinely contain emoji and other astral-plane runes, so
// every position crossing the protocol boundary goes through this package.
// Out-of-bounds positions are clamped, and reversed ranges are swapped.
package lsputil

import (
	"sort"
	"strings"

	"go.lsp.dev/protocol"
)

type PositionMapper struct {
	content    string
	lines      []string
	lineStarts []int
}

func NewPositionMapper(content string) *PositionMapper {
	m := &PositionMapper{content: content}
	m.lines = strings.Split(content, "\n")
	m.lineStarts = make([]int, len(m.lines))

	offset := 0
	for i, line := range m.lines {
		m.lineStarts[i] = offset
		offset += len(line) + 1
	}
	return m
}

func (m *PositionMapper) LSPToByte(pos protocol.Position) int {
	line := int(pos.Line)
	if line >= len(m.lines) {
		return len(m.content)
	}
	return m.lineStarts[line] + UTF16OffsetToByteOffset(m.lines[line], int(pos.Character))
}

func (m *PositionMapper) ByteToLSP(byteOffset int) protocol.Position {
	if byteOffset <= 0 {
		return protocol.Position{}
	}
	if byteOffset >= len(m.content) {
		last := len(m.lines) - 1
		return protocol.Position{
			Line:      uint32(last),
			Character: uint32(UTF16Len(m.lines[last])),
		}
	}

	line := sort.Search(len(m.lineStarts), func(i int) bool {
		return m.lineStarts[i] > byteOffset
	}) - 1
	line = max(line, 0)

	return protocol.Position{
		Line:      uint32(line),
		Character: uint32(ByteOffsetToUTF16(m.lines[line], byteOffset-m.lineStarts[line])),
	}
}

// ByteRangeToLSP converts a half-open byte interval to an LSP range.
func (m *PositionMapper) ByteRangeToLSP(start, end int) protocol.Range {
	if start > end {
		start, end = end, start
	}
	return protocol.Range{
		Start: m.ByteToLSP(start),
		End:   m.ByteToLSP(end),
	}
}

func (m *PositionMapper) LineUTF16Len(line int) int {
	if line < 0 || line >= len(m.lines) {
		return 0
	}
	return UTF16Len(m.lines[line])
}

func (m *PositionMapper) ApplyChange(r protocol.Range, text string) string {
	start := min(m.LSPToByte(r.Start), len(m.content))
	end := min(m.LSPToByte(r.End), len(m.content))
	if start > end {
		start, end = end, start
	}
	return m.content[:start] + text + m.content[end:]
}

func utf16Width(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}

func UTF16Len(s string) int {
	count := 0
	for _, r := range s {
		count += utf16Width(r)
	}
	return count
}

// UTF16OffsetToByteOffset clamps offsets past the end of s to len(s).
func UTF16OffsetToByteOffset(s string, utf16Offset int) int {
	units := 0
	for i, r := range s {
		if units >= utf16Offset {
			return i
		}
		units += utf16Width(r)
	}
	return len(s)
}

func ByteOffsetToUTF16(s string, byteOffset int) int {
	units := 0
	for i, r := range s {
		if i >= byteOffset {
			break
		}
		units += utf16Width(r)
	}
	return units
}
