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

package diagnostics

import (
	"path/filepath"
	"time"

	"github.com/gnlang/gnls/internal/gn/analyze"
	"github.com/gnlang/gnls/internal/gn/ast"
	"github.com/gnlang/gnls/internal/gn/builtins"
	"github.com/gnlang/gnls/internal/gn/gnpath"
)

// tracker is the flow-sensitive state threaded through the
// undefined-identifier pass (§4.J pass 2, §9 "forward_variables_from
// taint"): either a concrete set of names known to be defined, or
// Untrackable once a non-literal forward_variables_from include list is
// seen, at which point no further identifier in this scope is flagged.
type tracker struct {
	names       map[string]bool
	untrackable bool
}

func newTracker() *tracker {
	return &tracker{names: make(map[string]bool)}
}

func (t *tracker) clone() *tracker {
	c := &tracker{names: make(map[string]bool, len(t.names)), untrackable: t.untrackable}
	for n := range t.names {
		c.names[n] = true
	}
	return c
}

func (t *tracker) add(name string) {
	if name == "" {
		return
	}
	t.names[name] = true
}

func (t *tracker) addAll(names []string) {
	for _, n := range names {
		t.add(n)
	}
}

func (t *tracker) has(name string) bool {
	return t.untrackable || t.names[name] || builtins.IsDefined(name)
}

// undefinedIdentifierDiagnostics runs the pass over af's statements,
// resolving import merges through the same cache the rest of the analysis
// uses, as of requestTime.
func undefinedIdentifierDiagnostics(af *analyze.AnalyzedFile, requestTime time.Time) []Diagnostic {
	if af.File == nil {
		return nil
	}
	c := &checker{fa: af.Analyzer(), currentDir: filepath.Dir(af.Document.Path), requestTime: requestTime}
	tr := newTracker()
	// af.Events is always prefixed with the synthetic BUILDCONFIG import
	// (§4.H); seed the tracker with its exported names before walking the
	// file's own statements.
	if len(af.Events) > 0 && af.Events[0].Kind == analyze.EvImport && c.fa != nil {
		tr.addAll(c.fa.ShallowVarNames(af.Events[0].ImportPath, requestTime))
	}
	c.checkBlock(af.File.Statements, tr)
	return c.out
}

type checker struct {
	fa          *analyze.FullAnalyzer
	currentDir  string
	out         []Diagnostic
	requestTime time.Time
}

func (c *checker) checkBlock(stmts []ast.Statement, tr *tracker) {
	for _, stmt := range stmts {
		c.checkStatement(stmt, tr)
	}
}

func (c *checker) checkStatement(stmt ast.Statement, tr *tracker) {
	switch s := stmt.(type) {
	case *ast.Assignment:
		c.checkLValueBase(s.LHS, tr)
		c.checkExpr(s.RHS, tr)
		if id, ok := s.LHS.(*ast.Identifier); ok {
			tr.add(id.Name)
		}
	case *ast.Call:
		c.checkCall(s, tr)
	case *ast.Condition:
		c.checkExpr(s.Cond, tr)
		// Conditions introduce no scope (§9): branches share tr directly.
		if s.Then != nil {
			c.checkBlock(s.Then.Statements, tr)
		}
		switch {
		case s.ElseIf != nil:
			c.checkStatement(s.ElseIf, tr)
		case s.Else != nil:
			c.checkBlock(s.Else.Statements, tr)
		}
	case *ast.ErrorStmt:
		// ignored
	}
}

// checkLValueBase checks the index/member access chain of a compound
// lvalue (`a[i]`, `a.b`) without treating the lvalue's own base identifier
// as a read when it is a plain assignment target.
func (c *checker) checkLValueBase(lv ast.LValue, tr *tracker) {
	switch v := lv.(type) {
	case *ast.ArrayAccess:
		c.checkExpr(v.Base, tr)
		c.checkExpr(v.Index, tr)
	case *ast.ScopeAccess:
		c.checkExpr(v.Base, tr)
	}
}

func (c *checker) checkCall(call *ast.Call, tr *tracker) {
	switch call.Func.Name {
	case "import":
		c.checkExprs(call.Args, tr)
		if raw, ok := singleString(call.Args); ok && c.fa != nil {
			path := c.fa.ResolveImport(c.currentDir, raw)
			tr.addAll(c.fa.ShallowVarNames(path, c.requestTime))
		}
	case "foreach":
		if len(call.Args) > 0 {
			if id, ok := call.Args[0].(*ast.Identifier); ok {
				tr.add(id.Name)
			}
		}
		if len(call.Args) > 1 {
			c.checkExprs(call.Args[1:], tr)
		}
		if call.Body != nil {
			c.checkBlock(call.Body.Statements, tr)
		}
	case "declare_args":
		c.checkExprs(call.Args, tr)
		if call.Body != nil {
			c.checkBlock(call.Body.Statements, tr)
		}
	case "forward_variables_from":
		c.checkExprs(call.Args, tr)
		c.applyForwardVariablesFrom(call, tr)
	case "template":
		c.checkExprs(call.Args, tr)
		if call.Body != nil {
			c.checkBlock(call.Body.Statements, tr.clone())
		}
	default:
		c.checkExprs(call.Args, tr)
		if call.Body != nil {
			c.checkBlock(call.Body.Statements, tr.clone())
		}
	}
}

func (c *checker) applyForwardVariablesFrom(call *ast.Call, tr *tracker) {
	if len(call.Args) < 2 {
		tr.untrackable = true
		return
	}
	list, ok := call.Args[1].(*ast.List)
	if !ok {
		tr.untrackable = true
		return
	}
	for _, elem := range list.Elements {
		str, ok := elem.(*ast.StringExpr)
		if !ok || !str.Terminated {
			continue
		}
		tr.add(gnpath.Unquote(str.Raw))
	}
}

func (c *checker) checkExprs(exprs []ast.Expr, tr *tracker) {
	for _, e := range exprs {
		c.checkExpr(e, tr)
	}
}

func (c *checker) checkExpr(e ast.Expr, tr *tracker) {
	switch v := e.(type) {
	case *ast.Identifier:
		if !tr.has(v.Name) {
			c.out = append(c.out, Diagnostic{
				Span:     v.Span(),
				Message:  "undefined identifier '" + v.Name + "'",
				Severity: SeverityWarning,
			})
		}
	case *ast.StringExpr:
		for _, emb := range v.Embeds() {
			if emb.Expr != nil {
				c.checkExpr(emb.Expr, tr)
			}
		}
	case *ast.ArrayAccess:
		c.checkExpr(v.Base, tr)
		c.checkExpr(v.Index, tr)
	case *ast.ScopeAccess:
		c.checkExpr(v.Base, tr)
	case *ast.List:
		c.checkExprs(v.Elements, tr)
	case *ast.ParenExpr:
		c.checkExpr(v.Inner, tr)
	case *ast.UnaryExpr:
		c.checkExpr(v.Operand, tr)
	case *ast.BinaryExpr:
		c.checkExpr(v.Left, tr)
		c.checkExpr(v.Right, tr)
	case *ast.Call:
		c.checkExprs(v.Args, tr)
		if v.Body != nil {
			c.checkBlock(v.Body.Statements, tr.clone())
		}
	case *ast.Block:
		c.checkBlock(v.Statements, tr.clone())
	}
}

func singleString(args []ast.Expr) (string, bool) {
	if len(args) != 1 {
		return "", false
	}
	str, ok := args[0].(*ast.StringExpr)
	if !ok || !str.Terminated {
		return "", false
	}
	return gnpath.Unquote(str.Raw), true
}
