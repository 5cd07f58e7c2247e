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
	"path/filepath"
	"time"

	"github.com/sourcegraph/go-lsp"

	"github.com/gnlang/gnls/internal/gn/analyze"
	"github.com/gnlang/gnls/internal/gn/ast"
	"github.com/gnlang/gnls/internal/gn/gnpath"
)

// Definition resolves the identifier or label string at offset to its
// declaring locations.
func Definition(af *analyze.AnalyzedFile, offset int, requestTime time.Time) []lsp.Location {
	if af.File == nil {
		return nil
	}

	if str, ok := stringAt(af.File, offset); ok {
		return definitionFromString(af, str)
	}

	ident, ok := identifierAt(af.File, offset)
	if !ok {
		return nil
	}

	if v, ok := af.VariablesAt(offset, requestTime).Get(ident.Name); ok {
		var out []lsp.Location
		for _, a := range v.Assignments {
			if a.Statement == nil {
				continue
			}
			out = append(out, lsp.Location{URI: uriOf(af.Document.Path), Range: rangeOf(af.Document, a.VariableSpan)})
		}
		return out
	}
	if tmpl, ok := af.TemplatesAt(offset, requestTime).Get(ident.Name); ok {
		return []lsp.Location{{URI: uriOf(af.Document.Path), Range: rangeOf(af.Document, tmpl.HeaderSpan)}}
	}
	if tgt, ok := af.TargetsAt(offset, requestTime).Get(ident.Name); ok {
		return []lsp.Location{{URI: uriOf(af.Document.Path), Range: rangeOf(af.Document, tgt.HeaderSpan)}}
	}
	return nil
}

func definitionFromString(af *analyze.AnalyzedFile, str *ast.StringExpr) []lsp.Location {
	if !str.Terminated {
		return nil
	}
	raw := gnpath.Unquote(str.Raw)
	fa := af.Analyzer()
	if fa == nil {
		return nil
	}
	if gnpath.LooksLikeLabel(raw) {
		label, ok := gnpath.ResolveLabel(fa.Root(), af.Document.Path, raw)
		if !ok {
			return nil
		}
		// The target header itself is not tracked across files here; point
		// at the top of its declaring BUILD.gn, which every editor can
		// still navigate to and search within.
		return []lsp.Location{{URI: uriOf(label.BuildFile), Range: lsp.Range{}}}
	}
	if !gnpath.IsSimpleString(raw) {
		return nil
	}
	resolved := fa.ResolveImport(filepath.Dir(af.Document.Path), raw)
	return []lsp.Location{{URI: uriOf(resolved), Range: lsp.Range{}}}
}

func stringAt(file *ast.File, offset int) (*ast.StringExpr, bool) {
	path := ast.PathTo(file, offset)
	for i := len(path) - 1; i >= 0; i-- {
		if s, ok := path[i].(*ast.StringExpr); ok {
			return s, true
		}
	}
	return nil, false
}
