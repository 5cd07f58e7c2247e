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
	"github.com/sourcegraph/go-lsp"

	"github.com/gnlang/gnls/internal/gn/analyze"
)

// DocumentSymbols converts af's symbol tree into the flat outline the LSP
// wire format wants, setting ContainerName from each ancestor name so a
// client can still group them.
func DocumentSymbols(af *analyze.AnalyzedFile) []lsp.SymbolInformation {
	var out []lsp.SymbolInformation
	var walk func(syms []analyze.Symbol, container string)
	walk = func(syms []analyze.Symbol, container string) {
		for _, s := range syms {
			out = append(out, lsp.SymbolInformation{
				Name:          s.Name,
				Kind:          symbolKind(s.Kind),
				Location:      lsp.Location{URI: uriOf(af.Document.Path), Range: rangeOf(af.Document, s.Span)},
				ContainerName: container,
			})
			walk(s.Children, s.Name)
		}
	}
	walk(af.Symbols, "")
	return out
}

func symbolKind(k analyze.SymbolKind) lsp.SymbolKind {
	switch k {
	case analyze.SymVariable:
		return lsp.SKVariable
	case analyze.SymFunction:
		return lsp.SKFunction
	case analyze.SymNamespace:
		return lsp.SKNamespace
	default:
		return lsp.SKVariable
	}
}
