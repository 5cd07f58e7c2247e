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

package providers

import (
	"time"

	"github.com/sourcegraph/go-lsp"

	"github.com/gnlang/gnls/internal/gn/analyze"
	"github.com/gnlang/gnls/internal/gn/ast"
)

// References finds every occurrence of the identifier at offset: its own
// in-file occurrences (by exact name match, the "prefix-overlap" heuristic
// retained from the open question on cross-file variable references — exact
// match is the degenerate, always-correct case of it) plus, for a target
// name, every LinkTarget with that same target name across every file this
// process has analyzed so far. Only the name is compared, not the label's
// directory, so same-named targets in different BUILD.gn files all match.
func References(af *analyze.AnalyzedFile, offset int, requestTime time.Time) []lsp.Location {
	if af.File == nil {
		return nil
	}
	ident, ok := identifierAt(af.File, offset)
	if !ok {
		return nil
	}
	name := ident.Name

	var out []lsp.Location
	ast.Walk(af.File, func(n ast.Node) bool {
		if id, ok := ast.AsIdentifier(n); ok && id.Name == name {
			out = append(out, lsp.Location{URI: uriOf(af.Document.Path), Range: rangeOf(af.Document, id.Span())})
		}
		return true
	})

	if _, isTarget := af.TargetsAt(offset, requestTime).Get(name); isTarget {
		fa := af.Analyzer()
		if fa != nil {
			for _, other := range fa.CachedFiles() {
				if other == nil || other.Document == nil {
					continue
				}
				for _, link := range other.Links {
					if link.Kind == analyze.LinkTarget && link.Name == name {
						out = append(out, lsp.Location{URI: uriOf(other.Document.Path), Range: rangeOf(other.Document, link.Span)})
					}
				}
			}
		}
	}
	return out
}
