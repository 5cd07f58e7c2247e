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
	"strings"

	"github.com/sourcegraph/go-lsp"

	"github.com/gnlang/gnls/internal/gn/analyze"
)

// WorkspaceSymbols fuzzy-matches query (case-folded substring) against the
// name of every symbol in every file fa has analyzed so far. query == ""
// matches everything, per the LSP convention of listing all symbols when
// the client hasn't typed a filter yet.
func WorkspaceSymbols(fa *analyze.FullAnalyzer, query string) []lsp.SymbolInformation {
	needle := strings.ToLower(query)
	var out []lsp.SymbolInformation
	for _, af := range fa.CachedFiles() {
		if af == nil || af.Document == nil {
			continue
		}
		out = append(out, matchSymbols(af, af.Symbols, "", needle)...)
	}
	return out
}

func matchSymbols(af *analyze.AnalyzedFile, syms []analyze.Symbol, container, needle string) []lsp.SymbolInformation {
	var out []lsp.SymbolInformation
	for _, s := range syms {
		if needle == "" || strings.Contains(strings.ToLower(s.Name), needle) {
			out = append(out, lsp.SymbolInformation{
				Name:          s.Name,
				Kind:          symbolKind(s.Kind),
				Location:      lsp.Location{URI: uriOf(af.Document.Path), Range: rangeOf(af.Document, s.Span)},
				ContainerName: container,
			})
		}
		out = append(out, matchSymbols(af, s.Children, s.Name, needle)...)
	}
	return out
}
