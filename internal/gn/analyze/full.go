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
	"time"

	"github.com/gnlang/gnls/internal/gn/ast"
	"github.com/gnlang/gnls/internal/gn/cache"
	"github.com/gnlang/gnls/internal/gn/gnpath"
	"github.com/gnlang/gnls/internal/gn/parser"
	"github.com/gnlang/gnls/internal/gn/source"
)

// AnalyzedFile is one file's full analysis: its event list (prefixed with
// the synthetic BUILDCONFIG import, §4.H/§8 invariant 7), links, symbols,
// and syntax error nodes, plus the freshness Node that was computed
// alongside it.
type AnalyzedFile struct {
	Document *source.Document
	File     *ast.File
	Events   []Event
	Links    []Link
	Symbols  []Symbol
	Node     *cache.Node
	Err      error

	analyzer *FullAnalyzer
}

// FullAnalyzer computes and caches the full analysis of every file in one
// workspace, given the workspace's build-config path and a ShallowAnalyzer
// to resolve imports (including the synthetic BUILDCONFIG import) through.
type FullAnalyzer struct {
	root            string
	buildConfigPath string
	store           *source.Store
	shallow         *ShallowAnalyzer
	cache           *cache.PathCache[*AnalyzedFile]
}

// NewFullAnalyzer constructs a FullAnalyzer for the workspace rooted at
// root, whose `.gn` file names buildConfigPath as its build configuration.
func NewFullAnalyzer(root, buildConfigPath string, store *source.Store) *FullAnalyzer {
	return &FullAnalyzer{
		root:            root,
		buildConfigPath: buildConfigPath,
		store:           store,
		shallow:         NewShallowAnalyzer(root, store),
		cache:           cache.NewPathCache[*AnalyzedFile](),
	}
}

// Shallow returns the ShallowAnalyzer this FullAnalyzer delegates import
// resolution to, so a caller (e.g. the workspace router) can also serve
// analyze_shallow / cached_files requests against the same cache.
func (fa *FullAnalyzer) Shallow() *ShallowAnalyzer { return fa.shallow }

// Root returns the workspace root this analyzer resolves `//`-prefixed
// paths and labels against.
func (fa *FullAnalyzer) Root() string { return fa.root }

// ResolveImport resolves a string appearing in an `import(...)` call found
// in a file located in currentDir, the way the event builder does.
func (fa *FullAnalyzer) ResolveImport(currentDir, raw string) string {
	return gnpath.ResolveFile(fa.root, currentDir, raw)
}

// ShallowVarNames returns every variable name exported by path's shallow
// analysis, used by the undefined-identifier diagnostics pass to merge an
// import's names into its tracker without exposing the full Environment
// machinery to package diagnostics.
func (fa *FullAnalyzer) ShallowVarNames(path string, requestTime time.Time) []string {
	return fa.shallow.AnalyzeShallow(path, requestTime).Envs.Vars.Names()
}

// Analyzer returns the FullAnalyzer that computed af, so a consumer (e.g.
// the undefined-identifier diagnostics pass) can resolve further imports
// through the same cache.
func (af *AnalyzedFile) Analyzer() *FullAnalyzer { return af.analyzer }

// CachedFiles returns every file this analyzer has ever fully analyzed,
// regardless of current freshness, used by providers that search across the
// whole workspace (references, workspace symbols).
func (fa *FullAnalyzer) CachedFiles() []*AnalyzedFile {
	return fa.cache.Values()
}

// Analyze returns path's full analysis, from cache if fresh.
func (fa *FullAnalyzer) Analyze(path string, requestTime time.Time) *AnalyzedFile {
	if res, ok := fa.cache.Get(path, requestTime); ok {
		return res
	}
	return fa.cache.GetOrCompute(path, requestTime, func() (*AnalyzedFile, *cache.Node) {
		return fa.compute(path, requestTime)
	})
}

func (fa *FullAnalyzer) compute(path string, requestTime time.Time) (*AnalyzedFile, *cache.Node) {
	doc, err := fa.store.Read(path)
	if err != nil {
		node := cache.NewNode(path, source.Version{Kind: source.AnalysisError}, nil, fa.store)
		if errors.Is(err, source.ErrNotFound) {
			return &AnalyzedFile{analyzer: fa}, node
		}
		return &AnalyzedFile{Err: err, analyzer: fa}, node
	}

	parsed := parser.Parse(doc.Bytes)
	currentDir := filepath.Dir(path)

	events := buildEvents(parsed.Statements, fa.root, currentDir)

	buildConfig := fa.shallow.AnalyzeShallow(fa.buildConfigPath, requestTime)
	allEvents := append([]Event{buildConfigImportEvent(fa.buildConfigPath)}, events...)

	links := CollectLinks(parsed, fa.root, currentDir, path, fa.shallow.fileExists)
	symbols := BuildSymbols(doc, parsed.Statements)

	var deps []*cache.Node
	if buildConfig.Node != nil {
		deps = append(deps, buildConfig.Node)
	}
	collectImportDeps(allEvents, fa, requestTime, &deps)

	node := cache.NewNode(path, doc.Ver, deps, fa.store)
	return &AnalyzedFile{
		Document: doc,
		File:     parsed,
		Events:   allEvents,
		Links:    links,
		Symbols:  symbols,
		Node:     node,
		analyzer: fa,
	}, node
}

// collectImportDeps resolves every Import event (including nested ones
// inside NewScope bodies) so the computed Node depends on every file this
// analysis's variable/template/target views can observe.
func collectImportDeps(events []Event, fa *FullAnalyzer, requestTime time.Time, deps *[]*cache.Node) {
	for _, ev := range events {
		switch ev.Kind {
		case EvImport:
			imported := fa.shallow.AnalyzeShallow(ev.ImportPath, requestTime)
			if imported.Node != nil {
				*deps = append(*deps, imported.Node)
			}
		case EvConditions:
			for _, branch := range ev.Branches {
				collectImportDeps(branch, fa, requestTime, deps)
			}
		case EvDeclareArgs:
			collectImportDeps(ev.Body, fa, requestTime, deps)
		case EvNewScope:
			collectImportDeps(ev.ScopeEvents, fa, requestTime, deps)
		}
	}
}

// VariablesAt returns the environment of variables visible at byte offset
// pos (§4.H "variables_at").
func (af *AnalyzedFile) VariablesAt(pos int, requestTime time.Time) *VarEnv {
	return computeVarsAt(af.Events, pos, nil, af.analyzer, requestTime)
}

// TemplatesAt returns the environment of templates visible at pos.
func (af *AnalyzedFile) TemplatesAt(pos int, requestTime time.Time) *TemplateEnv {
	return computeTemplatesAt(af.Events, pos, nil, af.analyzer, requestTime)
}

// TargetsAt returns the environment of targets visible at pos.
func (af *AnalyzedFile) TargetsAt(pos int, requestTime time.Time) *TargetEnv {
	return computeTargetsAt(af.Events, pos, nil, af.analyzer, requestTime)
}

// Targets returns every target declared anywhere in the file, including
// inside nested scopes, for the `targets()` iterator of §6.
func (af *AnalyzedFile) Targets() []Target {
	var out []Target
	var walk func(events []Event)
	walk = func(events []Event) {
		for _, ev := range events {
			switch ev.Kind {
			case EvTarget:
				out = append(out, Target{Name: ev.TargetName, Call: ev.TargetCall, HeaderSpan: ev.TargetHeaderSpan, Span: ev.Span})
			case EvConditions:
				for _, branch := range ev.Branches {
					walk(branch)
				}
			case EvDeclareArgs:
				walk(ev.Body)
			case EvNewScope:
				walk(ev.ScopeEvents)
			}
		}
	}
	walk(af.Events)
	return out
}

// Errors returns every syntax error node in the file's parse tree, in
// source order (§4.J "syntax diagnostics").
func (af *AnalyzedFile) Errors() []ast.Node {
	if af.File == nil {
		return nil
	}
	var out []ast.Node
	ast.Walk(af.File, func(n ast.Node) bool {
		if _, ok := ast.AsError(n); ok {
			out = append(out, n)
		}
		return true
	})
	return out
}

func computeVarsAt(events []Event, pos int, parent *VarEnv, fa *FullAnalyzer, requestTime time.Time) *VarEnv {
	env := NewChildEnvironment(parent, MergeVariable)
	topLevelIterate(events, func(ev Event) {
		if ev.Span.End > pos {
			return
		}
		switch ev.Kind {
		case EvAssignment:
			env.Define(ev.VarName, Variable{
				Assignments: []AnalyzedAssignment{{Name: ev.VarName, VariableSpan: ev.VarSpan, Statement: ev.Assignment, Comments: ev.Comments}},
				IsArgs:      ev.IsArgs,
			})
		case EvImport:
			if fa != nil {
				imported := fa.shallow.AnalyzeShallow(ev.ImportPath, requestTime)
				env.Import(imported.Envs.Vars)
			}
		}
	})

	if scope := findContainingScope(events, pos); scope != nil {
		return computeVarsAt(scope.ScopeEvents, pos, env, fa, requestTime)
	}
	return env
}

func computeTemplatesAt(events []Event, pos int, parent *TemplateEnv, fa *FullAnalyzer, requestTime time.Time) *TemplateEnv {
	env := NewChildEnvironment(parent, MergeTemplate)
	topLevelIterate(events, func(ev Event) {
		if ev.Span.End > pos {
			return
		}
		switch ev.Kind {
		case EvTemplate:
			env.Define(ev.TemplateName, Template{Name: ev.TemplateName, HeaderSpan: ev.TemplateHeaderSpan, Span: ev.Span})
		case EvImport:
			if fa != nil {
				imported := fa.shallow.AnalyzeShallow(ev.ImportPath, requestTime)
				env.Import(imported.Envs.Templates)
			}
		}
	})

	if scope := findContainingScope(events, pos); scope != nil {
		return computeTemplatesAt(scope.ScopeEvents, pos, env, fa, requestTime)
	}
	return env
}

func computeTargetsAt(events []Event, pos int, parent *TargetEnv, fa *FullAnalyzer, requestTime time.Time) *TargetEnv {
	env := NewChildEnvironment(parent, MergeTarget)
	topLevelIterate(events, func(ev Event) {
		if ev.Span.End > pos {
			return
		}
		switch ev.Kind {
		case EvTarget:
			env.Define(ev.TargetName, Target{Name: ev.TargetName, Call: ev.TargetCall, HeaderSpan: ev.TargetHeaderSpan, Span: ev.Span})
		case EvImport:
			if fa != nil {
				imported := fa.shallow.AnalyzeShallow(ev.ImportPath, requestTime)
				env.Import(imported.Envs.Targets)
			}
		}
	})

	if scope := findContainingScope(events, pos); scope != nil {
		return computeTargetsAt(scope.ScopeEvents, pos, env, fa, requestTime)
	}
	return env
}
