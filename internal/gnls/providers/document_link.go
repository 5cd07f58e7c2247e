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

// DocumentLinks exposes every link af's file carries as a navigable link:
// string literals that resolve to a file that exists, and target labels,
// which are linked without checking that the target exists.
func DocumentLinks(af *analyze.AnalyzedFile) []lsp.DocumentLink {
	var out []lsp.DocumentLink
	for _, link := range af.Links {
		target := uriOf(link.Path)
		rng := rangeOf(af.Document, link.Span)
		out = append(out, lsp.DocumentLink{Range: rng, Target: &target})
	}
	return out
}
