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

package analyze

import (
	"strings"

	"github.com/gnlang/gnls/internal/gn/ast"
	"github.com/gnlang/gnls/internal/gn/gnpath"
	"github.com/gnlang/gnls/internal/gn/source"
)

// SymbolKind classifies a Symbol the way document-symbol/workspace-symbol
// providers present it (§4.H "Symbols").
type SymbolKind int

const (
	SymVariable SymbolKind = iota
	SymFunction
	SymNamespace
)

// Symbol is one entry in the nested-range tree built from a file's
// statements.
type Symbol struct {
	Kind     SymbolKind
	Name     string
	Span     source.Span
	Children []Symbol
}

// BuildSymbols builds the symbol tree for stmts. doc supplies the source
// text used to render a condition's guard expression into its namespace
// name.
func BuildSymbols(doc *source.Document, stmts []ast.Statement) []Symbol {
	var out []Symbol
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.Assignment:
			name, _ := lvalueBase(s.LHS)
			if name == "" {
				continue
			}
			out = append(out, Symbol{Kind: SymVariable, Name: name, Span: s.Span()})
		case *ast.Call:
			out = append(out, Symbol{
				Kind:     SymFunction,
				Name:     callSymbolName(s),
				Span:     s.Span(),
				Children: bodySymbols(doc, s.Body),
			})
		case *ast.Condition:
			out = append(out, buildConditionSymbol(doc, s, "if"))
		case *ast.ErrorStmt:
			// No symbol.
		}
	}
	return out
}

func bodySymbols(doc *source.Document, body *ast.Block) []Symbol {
	if body == nil {
		return nil
	}
	return BuildSymbols(doc, body.Statements)
}

func callSymbolName(c *ast.Call) string {
	switch len(c.Args) {
	case 0:
		return c.Func.Name + "()"
	case 1:
		if str, ok := c.Args[0].(*ast.StringExpr); ok && str.Terminated {
			return c.Func.Name + "(\"" + gnpath.Unquote(str.Raw) + "\")"
		}
	}
	return c.Func.Name + "(...)"
}

func buildConditionSymbol(doc *source.Document, cond *ast.Condition, label string) Symbol {
	guard := strings.TrimSpace(string(doc.Slice(cond.Cond.Span())))
	sym := Symbol{
		Kind:     SymNamespace,
		Name:     label + "(" + guard + ")",
		Span:     cond.Span(),
		Children: bodySymbols(doc, cond.Then),
	}
	switch {
	case cond.ElseIf != nil:
		sym.Children = append(sym.Children, buildConditionSymbol(doc, cond.ElseIf, "else if"))
	case cond.Else != nil:
		sym.Children = append(sym.Children, Symbol{
			Kind:     SymNamespace,
			Name:     "else",
			Span:     cond.Else.Span(),
			Children: bodySymbols(doc, cond.Else),
		})
	}
	return sym
}
