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

package parser

import (
	"github.com/gnlang/gnls/internal/gn/ast"
	"github.com/gnlang/gnls/internal/gn/source"
)

// parseEmbeds scans a string literal's raw text (including surrounding
// quotes) for `$identifier` and `${expression}` substitutions. It is
// assigned as the lazy Embeds() callback on every ast.StringExpr produced
// by this package, so the cost is paid only for strings a caller actually
// inspects.
func parseEmbeds(raw string) []ast.Embed {
	b := []byte(raw)
	var embeds []ast.Embed

	i := 0
	for i < len(b) {
		if b[i] == '\\' && i+1 < len(b) {
			i += 2
			continue
		}
		if b[i] != '$' || i+1 >= len(b) {
			i++
			continue
		}
		switch {
		case b[i+1] == '{':
			j := matchBrace(b, i+1)
			innerStart := i + 2
			innerEnd := j
			if innerEnd < innerStart {
				innerEnd = innerStart
			}
			expr := parseEmbeddedExpr(b[:innerEnd], innerStart)
			end := j + 1
			if end > len(b) {
				end = len(b)
			}
			embeds = append(embeds, ast.Embed{ByteOffset: i, Length: end - i, Expr: expr})
			i = end

		case isIdentStart(b[i+1]):
			j := i + 1
			for j < len(b) && isIdentCont(b[j]) {
				j++
			}
			ident := ast.NewIdentifier(source.Span{Start: i + 1, End: j}, string(b[i+1:j]))
			embeds = append(embeds, ast.Embed{ByteOffset: i, Length: j - i, Expr: ident})
			i = j

		default:
			i++
		}
	}
	return embeds
}

// matchBrace returns the index of the '}' matching the '{' at b[open], or
// len(b) if it is never closed.
func matchBrace(b []byte, open int) int {
	depth := 1
	j := open + 1
	for j < len(b) {
		switch b[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j
			}
		}
		j++
	}
	return len(b)
}

// parseEmbeddedExpr parses a single expression out of buf starting at byte
// offset start, keeping resulting node spans absolute within buf (which is
// itself relative to the owning StringExpr's raw text).
func parseEmbeddedExpr(buf []byte, start int) ast.Expr {
	p := &Parser{s: newStreamAt(buf, start)}
	return p.parseExpr(0)
}
