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
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/gnlang/gnls/internal/gn/ast"
	"github.com/gnlang/gnls/internal/gn/cache"
	"github.com/gnlang/gnls/internal/gn/gnpath"
	"github.com/gnlang/gnls/internal/gn/parser"
	"github.com/gnlang/gnls/internal/gn/source"
)

// ShallowAnalyzedFile is one file's exported environment: the variables,
// templates, and targets an importer of this file would observe (§3, §4.G).
type ShallowAnalyzedFile struct {
	Document *source.Document
	File     *ast.File
	Envs     Environments
	Links    []Link
	Node     *cache.Node

	// Err is non-nil for a file whose document could not be read for a
	// reason other than not existing (a missing file gets empty Envs and
	// Links and a nil Err); Envs and Links are still valid empty values in
	// that case (§7's error-sentinel policy).
	Err error
}

// ShallowAnalyzer computes and caches the exported environment of every
// file in one workspace, following `import` edges, transitively and
// cycle-safely.
type ShallowAnalyzer struct {
	root  string
	store *source.Store
	cache *cache.PathCache[*ShallowAnalyzedFile]
}

// NewShallowAnalyzer constructs an analyzer for the workspace rooted at
// root, reading documents from store.
func NewShallowAnalyzer(root string, store *source.Store) *ShallowAnalyzer {
	return &ShallowAnalyzer{root: root, store: store, cache: cache.NewPathCache[*ShallowAnalyzedFile]()}
}

// AnalyzeShallow returns path's exported environment, from cache if fresh.
func (sa *ShallowAnalyzer) AnalyzeShallow(path string, requestTime time.Time) *ShallowAnalyzedFile {
	return sa.analyzeShallow(path, requestTime, nil)
}

// CachedFiles returns every file this analyzer has ever computed a shallow
// analysis for, regardless of current freshness (used by
// `cached_files(workspace_root)`, §6).
func (sa *ShallowAnalyzer) CachedFiles() []*ShallowAnalyzedFile {
	return sa.cache.Values()
}

func (sa *ShallowAnalyzer) analyzeShallow(path string, requestTime time.Time, visiting []string) *ShallowAnalyzedFile {
	for _, v := range visiting {
		if v == path {
			return emptyShallowFile(path)
		}
	}
	if res, ok := sa.cache.Get(path, requestTime); ok {
		return res
	}
	return sa.cache.GetOrCompute(path, requestTime, func() (*ShallowAnalyzedFile, *cache.Node) {
		return sa.compute(path, requestTime, visiting)
	})
}

// emptyShallowFile is the sentinel returned for an import cycle edge: an
// empty, finite environment, never cached (§4.G "Cycle policy", §8
// invariant 4).
func emptyShallowFile(path string) *ShallowAnalyzedFile {
	return &ShallowAnalyzedFile{Envs: NewEnvironments()}
}

func (sa *ShallowAnalyzer) compute(path string, requestTime time.Time, visiting []string) (*ShallowAnalyzedFile, *cache.Node) {
	doc, err := sa.store.Read(path)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			// A missing import is absorbed as an empty file (§7); still
			// tracked in the cache so a later appearance invalidates it.
			node := cache.NewNode(path, source.Version{Kind: source.AnalysisError}, nil, sa.store)
			return &ShallowAnalyzedFile{Envs: NewEnvironments()}, node
		}
		node := cache.NewNode(path, source.Version{Kind: source.AnalysisError}, nil, sa.store)
		return &ShallowAnalyzedFile{Envs: NewEnvironments(), Err: err}, node
	}

	file := parser.Parse(doc.Bytes)
	envs := NewEnvironments()
	currentDir := filepath.Dir(path)
	nextVisiting := append(append([]string{}, visiting...), path)

	var deps []*cache.Node
	ctx := &shallowWalk{
		analyzer:   sa,
		requestTime: requestTime,
		currentDir: currentDir,
		visiting:   nextVisiting,
		deps:       &deps,
	}
	ctx.walkStatements(file.Statements, envs)

	links := CollectLinks(file, sa.root, currentDir, path, sa.fileExists)

	node := cache.NewNode(path, doc.Ver, deps, sa.store)
	return &ShallowAnalyzedFile{Document: doc, File: file, Envs: envs, Links: links, Node: node}, node
}

func (sa *ShallowAnalyzer) fileExists(path string) bool {
	_, err := sa.store.ReadVersion(path)
	return err == nil
}

// shallowWalk carries per-call-chain state through the recursive
// top-level traversal described in §4.G.
type shallowWalk struct {
	analyzer        *ShallowAnalyzer
	requestTime     time.Time
	currentDir      string
	visiting        []string
	declareArgsDepth int
	deps            *[]*cache.Node
}

func (w *shallowWalk) walkStatements(stmts []ast.Statement, envs Environments) {
	for _, stmt := range stmts {
		w.walkStatement(stmt, envs)
	}
}

func (w *shallowWalk) walkStatement(stmt ast.Statement, envs Environments) {
	switch s := stmt.(type) {
	case *ast.Assignment:
		w.handleAssignment(s, envs)
	case *ast.Call:
		w.handleCall(s, envs)
	case *ast.Condition:
		w.walkStatements(s.Then.Statements, envs)
		if s.ElseIf != nil {
			w.walkStatement(s.ElseIf, envs)
		}
		if s.Else != nil {
			w.walkStatements(s.Else.Statements, envs)
		}
	case *ast.ErrorStmt:
		// ignored
	}
}

func (w *shallowWalk) handleAssignment(s *ast.Assignment, envs Environments) {
	name, span := lvalueBase(s.LHS)
	if name == "" || strings.HasPrefix(name, "_") {
		return
	}
	envs.Vars.Define(name, Variable{
		Assignments: []AnalyzedAssignment{{
			Name:         name,
			VariableSpan: span,
			Statement:    s,
			Comments:     s.Comments,
		}},
		IsArgs: w.declareArgsDepth > 0,
	})
}

func (w *shallowWalk) handleCall(call *ast.Call, envs Environments) {
	switch call.Func.Name {
	case "import":
		w.handleImport(call, envs)
	case "template":
		if name, ok := singleStringArg(call.Args); ok && !strings.HasPrefix(name, "_") {
			envs.Templates.Define(name, Template{
				Name:       name,
				HeaderSpan: call.Func.Span(),
				Span:       call.Span(),
				Comments:   call.Comments,
			})
		}
	case "declare_args":
		w.declareArgsDepth++
		if call.Body != nil {
			w.walkStatements(call.Body.Statements, envs)
		}
		w.declareArgsDepth--
	case "foreach":
		if call.Body != nil {
			w.walkStatements(call.Body.Statements, envs)
		}
	case "set_defaults":
		// No exports.
	case "forward_variables_from":
		w.handleForwardVariablesFrom(call, envs)
	default:
		if name, ok := singleStringArg(call.Args); ok && !strings.HasPrefix(name, "_") {
			envs.Targets.Define(name, Target{
				Name:       name,
				Call:       call,
				HeaderSpan: call.Func.Span(),
				Span:       call.Span(),
			})
		}
	}
}

func (w *shallowWalk) handleImport(call *ast.Call, envs Environments) {
	raw, ok := singleStringArg(call.Args)
	if !ok {
		return
	}
	importPath := gnpath.ResolveFile(w.analyzer.root, w.currentDir, raw)
	imported := w.analyzer.analyzeShallow(importPath, w.requestTime, w.visiting)
	envs.ImportFrom(imported.Envs)
	if imported.Node != nil {
		*w.deps = append(*w.deps, imported.Node)
	}
}

func (w *shallowWalk) handleForwardVariablesFrom(call *ast.Call, envs Environments) {
	if len(call.Args) < 2 {
		return
	}
	list, ok := call.Args[1].(*ast.List)
	if !ok {
		// A non-literal include list (e.g. "*") defeats precise
		// tracking; the shallow analyzer simply exports nothing from it
		// rather than guessing (§9 "forward_variables_from taint").
		return
	}
	for _, elem := range list.Elements {
		str, ok := elem.(*ast.StringExpr)
		if !ok || !str.Terminated {
			continue
		}
		name := gnpath.Unquote(str.Raw)
		if name == "" || strings.HasPrefix(name, "_") {
			continue
		}
		envs.Vars.Define(name, Variable{
			Assignments: []AnalyzedAssignment{{Name: name, VariableSpan: str.Span()}},
			IsArgs:      w.declareArgsDepth > 0,
		})
	}
}

// lvalueBase returns the exported-name check target and its span: the
// base identifier of an lvalue, however many levels of [] or . it is
// wrapped in.
func lvalueBase(lv ast.LValue) (string, source.Span) {
	switch v := lv.(type) {
	case *ast.Identifier:
		return v.Name, v.Span()
	case *ast.ArrayAccess:
		if base, ok := v.Base.(ast.LValue); ok {
			return lvalueBase(base)
		}
	case *ast.ScopeAccess:
		if base, ok := v.Base.(ast.LValue); ok {
			return lvalueBase(base)
		}
	}
	return "", source.Span{}
}

// singleStringArg reports whether args is exactly one terminated string
// literal, returning its unquoted content.
func singleStringArg(args []ast.Expr) (string, bool) {
	if len(args) != 1 {
		return "", false
	}
	str, ok := args[0].(*ast.StringExpr)
	if !ok || !str.Terminated {
		return "", false
	}
	return gnpath.Unquote(str.Raw), true
}
