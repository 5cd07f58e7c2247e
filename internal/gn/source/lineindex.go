// Copyright 2021 Upbound Inc
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package source

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"
)

// Position is a zero-indexed (line, character) pair. Character is a count of
// UTF-16 code units, matching the LSP specification, not bytes or runes.
type Position struct {
	Line      int
	Character int
}

// LineIndex maps byte offsets into a document's bytes to Positions and back.
// It is built once per document and never mutated afterwards.
type LineIndex struct {
	bytes  []byte
	starts []int
}

// NewLineIndex scans b for line starts. An empty document has exactly one
// zero-length line; a trailing newline produces one additional empty final
// line, matching the LSP convention.
func NewLineIndex(b []byte) *LineIndex {
	starts := make([]int, 1, 16)
	starts[0] = 0
	for i, c := range b {
		if c == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{bytes: b, starts: starts}
}

// Position converts a byte offset to a (line, character) pair. offset must
// satisfy 0 <= offset <= len(bytes).
func (l *LineIndex) Position(offset int) Position {
	line := sort.Search(len(l.starts), func(i int) bool { return l.starts[i] > offset }) - 1
	if line < 0 {
		line = 0
	}
	lineStart := l.starts[line]
	return Position{Line: line, Character: utf16Len(l.bytes[lineStart:offset])}
}

// Offset converts a Position back to a byte offset. It returns false if the
// line is out of range or the character column runs past the end of the
// line (including landing inside a multi-byte or surrogate-pair boundary).
func (l *LineIndex) Offset(pos Position) (int, bool) {
	if pos.Line < 0 || pos.Line >= len(l.starts) {
		return 0, false
	}
	lineStart := l.starts[pos.Line]
	lineEnd := len(l.bytes)
	if pos.Line+1 < len(l.starts) {
		lineEnd = l.starts[pos.Line+1] - 1
	}
	rel, ok := advanceUTF16(l.bytes[lineStart:lineEnd], pos.Character)
	if !ok {
		return 0, false
	}
	return lineStart + rel, true
}

// Range converts a Span to its start and end Positions.
func (l *LineIndex) Range(span Span) (Position, Position) {
	return l.Position(span.Start), l.Position(span.End)
}

// LineCount returns the number of lines in the document.
func (l *LineIndex) LineCount() int {
	return len(l.starts)
}

func utf16Len(b []byte) int {
	n := 0
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size <= 1 {
			n++
			b = b[1:]
			continue
		}
		n += utf16RuneLen(r)
		b = b[size:]
	}
	return n
}

// advanceUTF16 returns the byte offset within line that corresponds to
// chars UTF-16 code units from the start of line, or false if chars runs
// past the line or lands inside a code point.
func advanceUTF16(line []byte, chars int) (int, bool) {
	if chars == 0 {
		return 0, true
	}
	i, consumed := 0, 0
	for consumed < chars {
		if i >= len(line) {
			return 0, false
		}
		r, size := utf8.DecodeRune(line[i:])
		units := 1
		if r == utf8.RuneError && size <= 1 {
			units = 1
			size = 1
		} else {
			units = utf16RuneLen(r)
		}
		consumed += units
		i += size
		if consumed > chars {
			return 0, false
		}
	}
	return i, true
}

func utf16RuneLen(r rune) int {
	if r > 0xFFFF {
		return len(utf16.Encode([]rune{r}))
	}
	return 1
}
