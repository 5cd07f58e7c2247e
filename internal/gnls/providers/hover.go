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

// Package providers implements the LSP-facing request handlers over
// package analyze's position-indexed queries: hover, completion,
// definition, references, document symbols, document links, workspace
// symbols, and formatting.
package providers

import (
	"fmt"
	"time"

	"github.com/sourcegraph/go-lsp"

	"github.com/gnlang/gnls/internal/gn/analyze"
	"github.com/gnlang/gnls/internal/gn/ast"
	"github.com/gnlang/gnls/internal/gn/source"
)

// Hover returns hover information for the identifier at offset, if any.
func Hover(af *analyze.AnalyzedFile, offset int, requestTime time.Time) (*lsp.Hover, bool) {
	if af.File == nil {
		return nil, false
	}
	ident, ok := identifierAt(af.File, offset)
	if !ok {
		return nil, false
	}

	if v, ok := af.VariablesAt(offset, requestTime).Get(ident.Name); ok {
		return &lsp.Hover{
			Contents: []lsp.MarkedString{markedString(variableHoverText(ident.Name, v))},
			Range:    rangeOf(af.Document, ident.Span()),
		}, true
	}
	if tmpl, ok := af.TemplatesAt(offset, requestTime).Get(ident.Name); ok {
		return &lsp.Hover{
			Contents: []lsp.MarkedString{markedString(fmt.Sprintf("template(\"%s\")", tmpl.Name))},
			Range:    rangeOf(af.Document, ident.Span()),
		}, true
	}
	if tgt, ok := af.TargetsAt(offset, requestTime).Get(ident.Name); ok {
		return &lsp.Hover{
			Contents: []lsp.MarkedString{markedString(fmt.Sprintf("target \"%s\"", tgt.Name))},
			Range:    rangeOf(af.Document, ident.Span()),
		}, true
	}
	return nil, false
}

func variableHoverText(name string, v analyze.Variable) string {
	qualifier := ""
	if v.IsArgs {
		qualifier = " (build argument)"
	}
	return fmt.Sprintf("%s%s\n%d assignment(s)", name, qualifier, len(v.Assignments))
}

func markedString(s string) lsp.MarkedString {
	return lsp.MarkedString(s)
}

// identifierAt returns the narrowest *ast.Identifier whose span contains
// offset.
func identifierAt(file *ast.File, offset int) (*ast.Identifier, bool) {
	path := ast.PathTo(file, offset)
	for i := len(path) - 1; i >= 0; i-- {
		if id, ok := path[i].(*ast.Identifier); ok {
			return id, true
		}
	}
	return nil, false
}

func rangeOf(doc *source.Document, span source.Span) lsp.Range {
	start, end := doc.Lines.Range(span)
	return lsp.Range{
		Start: lsp.Position{Line: start.Line, Character: start.Character},
		End:   lsp.Position{Line: end.Line, Character: end.Character},
	}
}

func uriOf(path string) lsp.DocumentURI {
	return lsp.DocumentURI("file://" + path)
}
